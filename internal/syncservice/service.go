// Package syncservice orchestrates the extraction, normalization and
// publish pipeline and records every run in the history log.
package syncservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/iconsync/internal/checksum"
	"github.com/starford/iconsync/internal/figma"
	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/icons"
	"github.com/starford/iconsync/internal/models"
)

// localTarget is recorded as the run target for local-only manifest builds.
const localTarget = "local"

// State is the orchestrator's position in the pipeline.
type State int

const (
	StateIdle State = iota
	StateExtracting
	StateNormalizing
	StateBuilding
	StatePublishing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateNormalizing:
		return "normalizing"
	case StateBuilding:
		return "building"
	case StatePublishing:
		return "publishing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source supplies the scene graph and per-node SVG export capability.
type Source interface {
	Document(ctx context.Context) (*figma.Node, error)
	ExportSVG(ctx context.Context, nodeID string) ([]byte, error)
}

// Publisher writes one file to the remote content store.
type Publisher interface {
	Publish(ctx context.Context, settings models.SyncSettings, path string, content []byte, message string) error
}

// ProgressFunc receives coarse-grained progress notifications.
type ProgressFunc func(state State, message string)

// Result is the single terminal outcome of a run.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	IconCount int    `json:"iconCount"`
}

// Service drives synchronization runs. Each run is strictly sequential:
// every stage completes before the next begins, and any failure is
// converted into a single terminal result.
type Service struct {
	src      Source
	pub      Publisher
	hist     history.RunLog
	logger   *slog.Logger
	progress ProgressFunc
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

// New creates a sync service.
func New(src Source, pub Publisher, hist history.RunLog, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		src:    src,
		pub:    pub,
		hist:   hist,
		logger: logger,
		now:    time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(state State, message string) {
	if s.progress != nil {
		s.progress(state, message)
	}
}

// SyncToGitHub runs the full pipeline and publishes the manifest to the
// configured repository. The returned result is terminal: on failure its
// message carries enough of the original error text to diagnose
// misconfiguration without log access.
func (s *Service) SyncToGitHub(ctx context.Context, st models.SyncSettings) Result {
	started := s.now()

	manifest, data, err := s.extract(ctx)
	if err != nil {
		return s.fail(started, st.Repository, 0, "", err)
	}
	n := manifest.IconCount()

	s.emit(StatePublishing, fmt.Sprintf("Publishing %d icons to %s...", n, st.Repository))
	if err := s.pub.Publish(ctx, st, icons.ManifestPath, data, icons.CommitMessage(n)); err != nil {
		return s.fail(started, st.Repository, n, checksum.Sum(data), err)
	}

	msg := fmt.Sprintf("Synced %d icons to %s", n, st.Repository)
	s.record(history.Run{
		ID:         uuid.New().String(),
		StartedAt:  started,
		FinishedAt: s.now(),
		Status:     history.StatusSucceeded,
		Message:    msg,
		IconCount:  n,
		Checksum:   checksum.Sum(data),
		Target:     st.Repository,
	})
	s.logger.Info("sync succeeded", slog.Int("icons", n), slog.String("target", st.Repository))
	return Result{Success: true, Message: msg, IconCount: n}
}

// BuildManifest runs the local-only path: extract, normalize, and encode
// the manifest without any network write.
func (s *Service) BuildManifest(ctx context.Context) ([]byte, error) {
	started := s.now()

	manifest, data, err := s.extract(ctx)
	if err != nil {
		s.record(history.Run{
			ID:         uuid.New().String(),
			StartedAt:  started,
			FinishedAt: s.now(),
			Status:     history.StatusFailed,
			Message:    err.Error(),
			Target:     localTarget,
		})
		return nil, err
	}

	s.emit(StateBuilding, fmt.Sprintf("Built manifest with %d icons", manifest.IconCount()))
	s.record(history.Run{
		ID:         uuid.New().String(),
		StartedAt:  started,
		FinishedAt: s.now(),
		Status:     history.StatusSucceeded,
		Message:    fmt.Sprintf("Built manifest with %d icons", manifest.IconCount()),
		IconCount:  manifest.IconCount(),
		Checksum:   checksum.Sum(data),
		Target:     localTarget,
	})
	return data, nil
}

// extract runs the Extracting and Normalizing stages and encodes the
// manifest. Per-node export failures are swallowed inside the locator;
// everything returned here is fatal to the run.
func (s *Service) extract(ctx context.Context) (icons.Manifest, []byte, error) {
	s.emit(StateExtracting, "Extracting icons from Figma...")

	doc, err := s.src.Document(ctx)
	if err != nil {
		return icons.Manifest{}, nil, fmt.Errorf("fetch document: %w", err)
	}
	page := firstPage(doc)
	if page == nil {
		return icons.Manifest{}, nil, fmt.Errorf("document has no pages")
	}

	groups := icons.LocateGroups(ctx, page, s.src, s.logger)

	icons.Canonicalize(groups)

	manifest := icons.BuildManifest(s.now(), groups)
	data, err := manifest.Encode()
	if err != nil {
		return icons.Manifest{}, nil, err
	}
	return manifest, data, nil
}

func firstPage(doc *figma.Node) *figma.Node {
	if doc == nil {
		return nil
	}
	for _, ch := range doc.Children {
		if ch.Kind == figma.KindCanvas {
			return ch
		}
	}
	return nil
}

func (s *Service) fail(started time.Time, target string, n int, sum string, err error) Result {
	s.record(history.Run{
		ID:         uuid.New().String(),
		StartedAt:  started,
		FinishedAt: s.now(),
		Status:     history.StatusFailed,
		Message:    err.Error(),
		IconCount:  n,
		Checksum:   sum,
		Target:     target,
	})
	s.logger.Error("sync failed", slog.String("target", target), slog.String("error", err.Error()))
	return Result{Success: false, Message: err.Error(), IconCount: n}
}

// record inserts a run into the history log. Failures here are logged,
// never fatal to the run itself.
func (s *Service) record(r history.Run) {
	if s.hist == nil {
		return
	}
	if err := s.hist.Insert(r); err != nil {
		s.logger.Warn("record run failed", slog.String("error", err.Error()))
	}
}
