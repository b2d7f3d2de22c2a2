package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/adoctl/internal/adapter/driving/http"
	"github.com/ericfisherdev/adoctl/internal/adapter/driving/web"
	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/logging"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		listen   string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and dashboard and poll team health in the background",
		Long: "Serve the HTTP API (/api/v1) and an HTML dashboard (/) and poll team\n" +
			"health in the background.\n" +
			"Teams are re-analyzed on an adaptive schedule: busy teams more often.\n" +
			"Send SIGHUP to reload credentials and connection settings.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.ListenAddr
			}
			if interval <= 0 {
				interval = a.cfg.PollInterval
			}
			return a.serve(cmd.Context(), listen, interval)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default ADOCTL_LISTEN_ADDR or 127.0.0.1:8080)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Scheduler tick (default ADOCTL_POLL_INTERVAL or 1m)")
	return cmd
}

// serve runs the poller and HTTP server until ctx is canceled.
func (a *app) serve(ctx context.Context, listen string, interval time.Duration) error {
	if err := a.open(); err != nil {
		return err
	}
	if listen == "" {
		listen = "127.0.0.1:8080"
	}

	// The server starts without a source when nothing is configured; a later
	// SIGHUP picks up credentials from `adoctl auth login`.
	provider := application.NewSourceProvider(a.connectOrWarn(ctx))
	healthSvc := a.healthService(provider)
	pollSvc := application.NewPollService(healthSvc, interval, logging.New("poller"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go pollSvc.Start(ctx)
	go a.reloadOnHangup(ctx, provider)

	httpLogger := logging.New("http")
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(healthSvc, pollSvc, httpLogger))
	web.RegisterRoutes(mux, web.NewHandler(healthSvc, pollSvc, logging.New("web")))

	srv := &http.Server{
		Handler:           httphandler.ApplyMiddleware(mux, httpLogger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listen, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", ln.Addr().String(), "poll_interval", interval)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	a.logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

// connectOrWarn returns the configured sources, or empty sources when the
// connection is incomplete.
func (a *app) connectOrWarn(ctx context.Context) application.Sources {
	sources, err := a.sources(ctx)
	if err != nil {
		a.logger.Warn("no work item source, health polling disabled until reload", "error", err)
		return application.Sources{}
	}
	return sources
}

func (a *app) reloadOnHangup(ctx context.Context, provider *application.SourceProvider) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			a.logger.Info("reloading connection")
			provider.Replace(a.connectOrWarn(ctx))
		}
	}
}
