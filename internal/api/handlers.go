package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/starford/iconsync/internal/apperr"
	"github.com/starford/iconsync/internal/checksum"
	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/models"
	"github.com/starford/iconsync/internal/settings"
	"github.com/starford/iconsync/internal/syncservice"
)

// Syncer is the slice of the sync service the API depends on.
type Syncer interface {
	SyncToGitHub(ctx context.Context, st models.SyncSettings) syncservice.Result
	BuildManifest(ctx context.Context) ([]byte, error)
}

// Events is the slice of the SSE broker the API publishes results to.
type Events interface {
	PublishResult(success bool, message string)
}

// Handler holds API route handlers.
type Handler struct {
	svc      Syncer
	store    settings.Store
	hist     history.RunLog
	defaults *models.SyncSettings
	events   Events

	// busy guards against overlapping runs; the orchestrator itself has
	// no cancellation, so one run per process at a time.
	busy atomic.Bool
}

// NewHandler creates a new Handler. defaults may be nil; events may be nil.
func NewHandler(svc Syncer, store settings.Store, hist history.RunLog, defaults *models.SyncSettings, events Events) *Handler {
	return &Handler{svc: svc, store: store, hist: hist, defaults: defaults, events: events}
}

// Sync handles POST /api/sync.
//
//	@Summary		Run a full extract-and-publish synchronization
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SyncRequest	false	"Settings override for this run"
//	@Success		200		{object}	SyncResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if !h.busy.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, errorBody(apperr.ErrBusy.Error()))
		return
	}
	defer h.busy.Store(false)

	st, fromBody, err := h.resolveSettings(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if st == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("no sync settings: provide a body or save settings first"))
		return
	}
	if err := st.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Persist settings supplied in the body, detached from the run.
	if fromBody && h.store != nil {
		go func(s models.SyncSettings) {
			if err := h.store.Save(&s); err != nil {
				slog.Error("save settings failed", slog.String("error", err.Error()))
			}
		}(*st)
	}

	res := h.svc.SyncToGitHub(r.Context(), *st)
	if h.events != nil {
		h.events.PublishResult(res.Success, res.Message)
	}
	writeJSON(w, http.StatusOK, res)
}

// resolveSettings picks the run settings: request body, then cached
// settings, then config defaults.
func (h *Handler) resolveSettings(r *http.Request) (*models.SyncSettings, bool, error) {
	if r.Body != nil && r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
		var req SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, false, err
		}
		if req.Repository != "" || req.Token != "" {
			return &models.SyncSettings{Repository: req.Repository, Token: req.Token}, true, nil
		}
	}
	if h.store != nil {
		cached, err := h.store.Load()
		if err != nil {
			return nil, false, err
		}
		if cached != nil {
			return cached, false, nil
		}
	}
	return h.defaults, false, nil
}

// Manifest handles GET /api/manifest.
//
//	@Summary		Build and download the icons manifest (no remote write)
//	@Tags			manifest
//	@Produce		json
//	@Success		200	{object}	object
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/manifest [get]
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.BuildManifest(r.Context())
	if err != nil {
		slog.Error("build manifest failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", `"`+checksum.Sum(data)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Return cached sync settings (token redacted), or null
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Load()
	if err != nil {
		slog.Error("load settings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if st == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	red := st.Redacted()
	writeJSON(w, http.StatusOK, SettingsResponse{Repository: red.Repository, Token: red.Token})
}

// SaveSettings handles PUT /api/settings. The save is dispatched
// fire-and-forget; the reply only acknowledges acceptance.
//
//	@Summary		Validate and persist sync settings
//	@Tags			settings
//	@Accept			json
//	@Success		202	"Accepted"
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var st models.SyncSettings
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := st.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	go func() {
		if err := h.store.Save(&st); err != nil {
			slog.Error("save settings failed", slog.String("error", err.Error()))
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

// Runs handles GET /api/runs.
//
//	@Summary		List synchronization runs, newest first
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	runs, total, err := h.hist.List(limit, offset)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs, Total: total})
}
