package api

import (
	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/syncservice"
)

// SyncRequest is the optional body of POST /api/sync. When present it
// overrides the cached settings and config defaults for this run.
type SyncRequest struct {
	Repository string `json:"repository"`
	Token      string `json:"token"`
}

// SyncResponse mirrors the orchestrator's terminal result.
type SyncResponse = syncservice.Result

// SettingsResponse is the payload of GET /api/settings. The token is
// redacted down to its last four characters.
type SettingsResponse struct {
	Repository string `json:"repository"`
	Token      string `json:"token"`
}

// RunListResponse is the payload of GET /api/runs.
type RunListResponse struct {
	Runs  []history.Run `json:"runs"`
	Total int           `json:"total"`
}
