// Package apperr defines the shared error taxonomy for iconsync.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing local resource (settings, run, path).
	ErrNotFound = errors.New("not found")

	// ErrBusy signals that a synchronization run is already in flight.
	ErrBusy = errors.New("sync already in progress")

	// ErrInvalidRepoFormat signals a repository coordinate that is not
	// of the form "owner/repo".
	ErrInvalidRepoFormat = errors.New("invalid repository format")

	// ErrInvalidToken signals an access token that fails the shape check
	// (empty or shorter than the minimum plausible length).
	ErrInvalidToken = errors.New("invalid access token")

	// ErrRemoteAuth is an HTTP 401 from the remote content store.
	ErrRemoteAuth = errors.New("remote authentication failed")

	// ErrRemotePermission is an HTTP 403 from the remote content store.
	ErrRemotePermission = errors.New("remote permission denied")

	// ErrRemoteNotFound is an HTTP 404 from the remote content store.
	ErrRemoteNotFound = errors.New("remote target not found")

	// ErrTimeout signals a remote call that exceeded its deadline.
	ErrTimeout = errors.New("network timeout")
)

// RemoteError carries the status and message of a non-2xx remote response
// that does not map to one of the sentinel kinds above.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s (HTTP %d)", e.Message, e.Status)
}
