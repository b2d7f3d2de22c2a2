package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/adoctl/internal/adapter/driven/azdo"
	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// guidedError keeps the original error for errors.Is while adding a hint for
// the user.
type guidedError struct {
	err  error
	hint string
}

func (e *guidedError) Error() string {
	return fmt.Sprintf("%v\n%s", e.err, e.hint)
}

func (e *guidedError) Unwrap() error {
	return e.err
}

// explain attaches guidance to errors the user can fix.
func explain(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *azdo.APIError
	switch {
	case errors.Is(err, driven.ErrTeamNotFound):
		return &guidedError{err, "Run `adoctl team list` to see configured teams or `adoctl team init <name>` to create one."}
	case errors.Is(err, driven.ErrTeamAlreadyExists):
		return &guidedError{err, "Pick another name, or remove the existing team with `adoctl team delete <name>`."}
	case errors.Is(err, driven.ErrMemberNotFound):
		return &guidedError{err, "Run `adoctl team show <team>` to list its members."}
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		return &guidedError{err, "Generate a key with `openssl rand -hex 32` and export it as ADOCTL_SECRET_KEY, or pass the token in ADOCTL_PAT."}
	case errors.Is(err, driven.ErrWorkItemNotFound):
		return &guidedError{err, "Check the id, and that the configured project contains it."}
	case errors.Is(err, application.ErrNoWorkItemSource), errors.Is(err, errNotLoggedIn):
		return &guidedError{err, "Authenticate with `adoctl auth login --token <PAT>`."}
	case errors.As(err, &apiErr) && isAuthStatus(apiErr.StatusCode):
		return &guidedError{err, "The token was rejected. Check that it has not expired and has Work Items (read) and Code (read) scopes."}
	default:
		return err
	}
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusNonAuthoritativeInfo
}
