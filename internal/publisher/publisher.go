// Package publisher performs the idempotent create-or-update of a single
// path in a GitHub repository via the Contents API.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/starford/iconsync/internal/apperr"
	"github.com/starford/iconsync/internal/models"
)

const requestTimeout = 30 * time.Second

// Publisher publishes files to a GitHub repository.
type Publisher struct {
	baseURL string // override for tests; must end with "/"
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithBaseURL points the client at an alternative API endpoint (tests).
func WithBaseURL(u string) Option {
	return func(p *Publisher) { p.baseURL = u }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// New creates a Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Publish creates or overwrites path in the target repository with
// content, committing with message. Exactly one write request is issued;
// a prior read fetches the current revision token, and any failure of
// that read is treated as "file does not exist yet".
func (p *Publisher) Publish(ctx context.Context, settings models.SyncSettings, path string, content []byte, message string) error {
	owner, repo, err := splitCoordinate(settings.Repository)
	if err != nil {
		return err
	}
	if err := checkToken(settings.Token); err != nil {
		return err
	}

	client, err := p.newClient(ctx, settings.Token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	// Read the current revision. Any failure here means the file does not
	// exist yet and the write proceeds as a create.
	var sha *string
	fc, _, _, err := client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err == nil && fc != nil && fc.SHA != nil {
		sha = fc.SHA
	} else if err != nil {
		p.logger.Debug("publisher: no existing revision, creating",
			slog.String("path", path),
			slog.String("reason", err.Error()))
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
		SHA:     sha,
	}

	if sha == nil {
		_, _, err = client.Repositories.CreateFile(ctx, owner, repo, path, opts)
	} else {
		_, _, err = client.Repositories.UpdateFile(ctx, owner, repo, path, opts)
	}
	if err != nil {
		return classify(settings.Repository, err)
	}
	return nil
}

func (p *Publisher) newClient(ctx context.Context, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = requestTimeout

	client := github.NewClient(hc)
	if p.baseURL != "" {
		raw := p.baseURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		base, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("publisher: parse base URL: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}

// splitCoordinate validates and splits an "owner/repo" coordinate.
func splitCoordinate(coord string) (owner, repo string, err error) {
	parts := strings.Split(coord, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("publisher: repository %q must be of the form owner/repo: %w",
			coord, apperr.ErrInvalidRepoFormat)
	}
	return parts[0], parts[1], nil
}

// checkToken applies the coarse token shape check.
func checkToken(token string) error {
	if len(token) < models.MinTokenLength {
		return fmt.Errorf("publisher: access token missing or too short: %w", apperr.ErrInvalidToken)
	}
	return nil
}

// classify maps a failed write to the error taxonomy.
func classify(coord string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("publisher: write to %s: %w", coord, apperr.ErrTimeout)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("publisher: write to %s: %w", coord, apperr.ErrTimeout)
	}

	var gerr *github.ErrorResponse
	if errors.As(err, &gerr) && gerr.Response != nil {
		switch gerr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("publisher: %s: check your access token: %w", coord, apperr.ErrRemoteAuth)
		case http.StatusForbidden:
			return fmt.Errorf("publisher: %s: token lacks write access: %w", coord, apperr.ErrRemotePermission)
		case http.StatusNotFound:
			return fmt.Errorf("publisher: repository %s: %w", coord, apperr.ErrRemoteNotFound)
		default:
			return fmt.Errorf("publisher: write to %s: %w", coord,
				&apperr.RemoteError{Status: gerr.Response.StatusCode, Message: gerr.Message})
		}
	}

	return fmt.Errorf("publisher: write to %s: %w", coord, err)
}
