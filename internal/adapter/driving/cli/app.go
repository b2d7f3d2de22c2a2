// Package cli implements the adoctl command tree on cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ericfisherdev/adoctl/internal/adapter/driven/azdo"
	githubadapter "github.com/ericfisherdev/adoctl/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/adoctl/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/config"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
	"github.com/ericfisherdev/adoctl/internal/logging"
)

// errNotLoggedIn is returned when no token is available from the environment
// or the credential store.
var errNotLoggedIn = errors.New("not logged in: run `adoctl auth login` or set ADOCTL_PAT")

// Connection identifies the remote backend and the token used against it.
type Connection struct {
	Provider     model.Provider
	Organization string
	Project      string
	GitHubRepo   string
	Token        string
	TokenSource  string // "env", "stored" or "" when no token was found.
}

// Target describes the connection for humans: org/project or owner/repo.
func (c Connection) Target() string {
	if c.Provider == model.ProviderGitHub {
		return c.GitHubRepo
	}
	return c.Organization + "/" + c.Project
}

// validate checks that every field the provider needs is present.
func (c Connection) validate() error {
	switch c.Provider {
	case model.ProviderGitHub:
		if c.GitHubRepo == "" {
			return errors.New("no GitHub repository configured: pass --repo or run `adoctl config set github-repo owner/repo`")
		}
	default:
		if c.Organization == "" {
			return errors.New("no organization configured: pass --org or run `adoctl config set organization <org>`")
		}
		if c.Project == "" {
			return errors.New("no project configured: pass --project or run `adoctl config set project <project>`")
		}
	}
	if c.Token == "" {
		return errNotLoggedIn
	}
	return nil
}

// ConnectFunc builds the remote sources for a connection.
type ConnectFunc func(ctx context.Context, conn Connection) (application.Sources, error)

// ValidateFunc checks a token for a connection and returns the user's name.
type ValidateFunc func(ctx context.Context, conn Connection) (string, error)

// Options configures the command tree. Only Config is required.
type Options struct {
	Config   *config.Config
	Connect  ConnectFunc
	Validate ValidateFunc
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Clock    func() time.Time
}

// DefaultConnect creates the Azure DevOps or GitHub client for conn.
func DefaultConnect(_ context.Context, conn Connection) (application.Sources, error) {
	if err := conn.validate(); err != nil {
		return application.Sources{}, err
	}

	switch conn.Provider {
	case model.ProviderGitHub:
		client, err := githubadapter.NewClient(conn.Token, conn.GitHubRepo)
		if err != nil {
			return application.Sources{}, err
		}
		client.WithLogger(logging.New("github"))
		return application.Sources{WorkItems: client, PullRequests: client}, nil
	default:
		client := azdo.NewClient(conn.Organization, conn.Project, conn.Token).WithLogger(logging.New("azdo"))
		return application.Sources{WorkItems: client, PullRequests: client}, nil
	}
}

// DefaultValidate checks conn.Token against the remote service.
func DefaultValidate(ctx context.Context, conn Connection) (string, error) {
	var validator driven.TokenValidator
	switch conn.Provider {
	case model.ProviderGitHub:
		repo := conn.GitHubRepo
		if repo == "" {
			// Token validation does not touch the repository.
			repo = "unknown/unknown"
		}
		client, err := githubadapter.NewClient(conn.Token, repo)
		if err != nil {
			return "", err
		}
		validator = client
	default:
		if conn.Organization == "" {
			return "", errors.New("no organization configured: pass --org or run `adoctl config set organization <org>`")
		}
		validator = azdo.NewClient(conn.Organization, conn.Project, conn.Token)
	}
	return validator.ValidateToken(ctx, conn.Token)
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	org       string
	project   string
	provider  string
	repo      string
	dbPath    string
	logLevel  string
	logFormat string
}

// app carries the state shared by commands during one execution. Stores are
// opened on first use.
type app struct {
	opts   Options
	cfg    *config.Config
	flags  globalFlags
	logger *slog.Logger

	db          *sqliteadapter.DB
	teams       driven.TeamStore
	thresholds  driven.ThresholdStore
	settings    driven.SettingsStore
	snapshots   driven.SnapshotStore
	credentials driven.CredentialStore
}

func newApp(opts Options) *app {
	if opts.Connect == nil {
		opts.Connect = DefaultConnect
	}
	if opts.Validate == nil {
		opts.Validate = DefaultValidate
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{LogLevel: "info", LogFormat: "text", DBPath: config.DefaultDBPath()}
	}
	return &app{opts: opts, cfg: cfg, logger: slog.Default()}
}

// initLogging configures slog from flags, falling back to the environment.
func (a *app) initLogging(w io.Writer) error {
	levelName := firstNonEmpty(a.flags.logLevel, a.cfg.LogLevel)
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logging.Init(level, firstNonEmpty(a.flags.logFormat, a.cfg.LogFormat), w)
	a.logger = logging.New("cli")
	return nil
}

// open opens the database and runs migrations once per execution.
func (a *app) open() error {
	if a.db != nil {
		return nil
	}

	path := firstNonEmpty(a.flags.dbPath, a.cfg.DBPath)
	db, err := sqliteadapter.NewDB(path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", path, err)
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return err
	}

	credentials, err := sqliteadapter.NewCredentialRepo(db, a.cfg.SecretKey)
	if err != nil {
		_ = db.Close()
		return err
	}

	a.db = db
	a.teams = sqliteadapter.NewTeamRepo(db)
	a.thresholds = sqliteadapter.NewThresholdRepo(db)
	a.settings = sqliteadapter.NewSettingsRepo(db)
	a.snapshots = sqliteadapter.NewSnapshotRepo(db)
	a.credentials = credentials
	if version, dirty, err := sqliteadapter.SchemaVersion(db.Writer); err != nil {
		a.logger.Warn("failed to read schema version", "error", err)
	} else {
		a.logger.Debug("database opened", "path", path, "schema_version", version, "dirty", dirty)
	}
	return nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
	a.db = nil
}

// setting returns a stored setting, or "" when it is unset or unreadable.
func (a *app) setting(ctx context.Context, key string) string {
	v, err := a.settings.Get(ctx, key)
	if err != nil {
		a.logger.Warn("failed to read setting", "key", key, "error", err)
		return ""
	}
	return v
}

// connection resolves the backend with precedence flag > environment >
// stored setting. The token comes from ADOCTL_PAT or the credential store.
func (a *app) connection(ctx context.Context) (Connection, error) {
	if err := a.open(); err != nil {
		return Connection{}, err
	}

	conn := Connection{
		Organization: firstNonEmpty(a.flags.org, a.cfg.Organization, a.setting(ctx, model.SettingOrganization)),
		Project:      firstNonEmpty(a.flags.project, a.cfg.Project, a.setting(ctx, model.SettingProject)),
		GitHubRepo:   firstNonEmpty(a.flags.repo, a.cfg.GitHubRepo, a.setting(ctx, model.SettingGitHubRepo)),
	}

	provider := model.Provider(strings.ToLower(firstNonEmpty(
		a.flags.provider, string(a.cfg.Provider), a.setting(ctx, model.SettingProvider), string(model.ProviderAzureDevOps),
	)))
	if !provider.Valid() {
		return Connection{}, fmt.Errorf("unknown provider %q: expected azdo or github", provider)
	}
	conn.Provider = provider

	if a.cfg.Token != "" {
		conn.Token = a.cfg.Token
		conn.TokenSource = "env"
		return conn, nil
	}

	token, err := a.credentials.Get(ctx, string(provider))
	switch {
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		a.logger.Debug("credential store locked, no stored token available")
	case err != nil:
		return Connection{}, fmt.Errorf("read stored token: %w", err)
	case token != "":
		conn.Token = token
		conn.TokenSource = "stored"
	}
	return conn, nil
}

// sources connects to the configured backend.
func (a *app) sources(ctx context.Context) (application.Sources, error) {
	conn, err := a.connection(ctx)
	if err != nil {
		return application.Sources{}, err
	}
	return a.opts.Connect(ctx, conn)
}

// healthService wires a HealthService over the stores and source.
func (a *app) healthService(source driven.WorkItemSource) *application.HealthService {
	var opts []application.AnalyzerOption
	if a.opts.Clock != nil {
		opts = append(opts, application.WithClock(a.opts.Clock))
	}
	return application.NewHealthService(a.teams, a.thresholds, source, a.snapshots, logging.New("health"), opts...)
}

// teamName returns the explicit argument or the default-team setting.
func (a *app) teamName(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if name := a.setting(ctx, model.SettingDefaultTeam); name != "" {
		return name, nil
	}
	return "", errors.New("no team given: pass a team name or run `adoctl config set default-team <name>`")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
