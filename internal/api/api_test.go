package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/models"
	"github.com/starford/iconsync/internal/settings"
	"github.com/starford/iconsync/internal/syncservice"
	"github.com/starford/iconsync/internal/testutil"
)

const testToken = "ghp_0123456789abcdefghij"

// fakeSyncer records the settings it was run with and returns canned
// results. gate, when non-nil, blocks SyncToGitHub until released.
type fakeSyncer struct {
	result   syncservice.Result
	manifest []byte
	buildErr error
	ran      []models.SyncSettings
	gate     chan struct{}
}

func (f *fakeSyncer) SyncToGitHub(_ context.Context, st models.SyncSettings) syncservice.Result {
	f.ran = append(f.ran, st)
	if f.gate != nil {
		<-f.gate
	}
	return f.result
}

func (f *fakeSyncer) BuildManifest(context.Context) ([]byte, error) {
	return f.manifest, f.buildErr
}

type testDeps struct {
	syncer *fakeSyncer
	store  *settings.FileStore
	hist   *history.DB
	router http.Handler
}

func testEnv(t *testing.T, authToken string) *testDeps {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, defaults *models.SyncSettings) *testDeps {
	t.Helper()

	store := testutil.TestStore(t)
	hist := testutil.TestDB(t)

	syncer := &fakeSyncer{
		result:   syncservice.Result{Success: true, Message: "Synced 2 icons to acme/icons", IconCount: 2},
		manifest: []byte(`{"lastSyncTime": 1, "groups": []}`),
	}
	router := NewRouter(syncer, store, hist, defaults, nil, authEnabled, authToken, nil)
	return &testDeps{syncer: syncer, store: store, hist: hist, router: router}
}

func TestSyncWithBodySettings(t *testing.T) {
	d := testEnv(t, "")

	body, _ := json.Marshal(SyncRequest{Repository: "acme/icons", Token: testToken})
	req := httptest.NewRequest(http.MethodPost, "/sync", bytes.NewReader(body))
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}

	var res SyncResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Success || res.IconCount != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(d.syncer.ran) != 1 || d.syncer.ran[0].Repository != "acme/icons" {
		t.Errorf("ran with = %+v", d.syncer.ran)
	}

	// Body settings are persisted fire-and-forget.
	deadline := time.After(2 * time.Second)
	for {
		cached, err := d.store.Load()
		if err == nil && cached != nil {
			if cached.Repository != "acme/icons" {
				t.Errorf("cached = %+v", cached)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("settings never persisted")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestSyncFallsBackToCachedSettings(t *testing.T) {
	d := testEnv(t, "")
	_ = d.store.Save(&models.SyncSettings{Repository: "cached/repo", Token: testToken})

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(d.syncer.ran) != 1 || d.syncer.ran[0].Repository != "cached/repo" {
		t.Errorf("ran with = %+v", d.syncer.ran)
	}
}

func TestSyncFallsBackToConfigDefaults(t *testing.T) {
	d := testEnvFull(t, false, "", &models.SyncSettings{Repository: "default/repo", Token: testToken})

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d", w.Code)
	}
	if len(d.syncer.ran) != 1 || d.syncer.ran[0].Repository != "default/repo" {
		t.Errorf("ran with = %+v", d.syncer.ran)
	}
}

func TestSyncNoSettings(t *testing.T) {
	d := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(d.syncer.ran) != 0 {
		t.Errorf("syncer ran without settings")
	}
}

func TestSyncInvalidSettings(t *testing.T) {
	d := testEnv(t, "")

	cases := []SyncRequest{
		{Repository: "not-a-repo", Token: testToken},
		{Repository: "acme/icons", Token: "short"},
	}
	for _, tc := range cases {
		body, _ := json.Marshal(tc)
		req := httptest.NewRequest(http.MethodPost, "/sync", bytes.NewReader(body))
		w := httptest.NewRecorder()
		d.router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%+v: status = %d, want 400", tc, w.Code)
		}
	}
	if len(d.syncer.ran) != 0 {
		t.Errorf("syncer ran with invalid settings")
	}
}

func TestSyncBusyGuard(t *testing.T) {
	d := testEnv(t, "")
	d.syncer.gate = make(chan struct{})
	_ = d.store.Save(&models.SyncSettings{Repository: "a/b", Token: testToken})

	firstDone := make(chan int)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/sync", nil)
		w := httptest.NewRecorder()
		d.router.ServeHTTP(w, req)
		firstDone <- w.Code
	}()

	// Wait until the first run is inside the syncer.
	deadline := time.After(2 * time.Second)
	for len(d.syncer.ran) == 0 {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Second request must be rejected while the first is in flight.
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("overlapping sync = %d, want 409", w.Code)
	}

	close(d.syncer.gate)
	if code := <-firstDone; code != http.StatusOK {
		t.Errorf("first sync = %d, want 200", code)
	}
}

func TestManifestDownload(t *testing.T) {
	d := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/manifest", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	if w.Body.String() != `{"lastSyncTime": 1, "groups": []}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestManifestFailureIsTyped(t *testing.T) {
	d := testEnv(t, "")
	d.syncer.buildErr = fmt.Errorf("fetch document: HTTP 403")

	req := httptest.NewRequest(http.MethodGet, "/manifest", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error == "" {
		t.Error("error body empty, want failure text")
	}
}

func TestSaveAndGetSettings(t *testing.T) {
	d := testEnv(t, "")

	body, _ := json.Marshal(models.SyncSettings{Repository: "acme/icons", Token: testToken})
	req := httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("save status = %d", w.Code)
	}

	// Save is fire-and-forget; poll for the cached copy.
	deadline := time.After(2 * time.Second)
	for {
		cached, _ := d.store.Load()
		if cached != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("settings never persisted")
		case <-time.After(20 * time.Millisecond):
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/settings", nil)
	w = httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got SettingsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Repository != "acme/icons" {
		t.Errorf("repository = %q", got.Repository)
	}
	if got.Token == testToken || got.Token[len(got.Token)-4:] != testToken[len(testToken)-4:] {
		t.Errorf("token not redacted correctly: %q", got.Token)
	}
}

func TestGetSettingsAbsentReturnsNull(t *testing.T) {
	d := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "null" {
		t.Errorf("body = %q, want null", got)
	}
}

func TestSaveSettingsInvalid(t *testing.T) {
	d := testEnv(t, "")

	body, _ := json.Marshal(models.SyncSettings{Repository: "bad", Token: "short"})
	req := httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRuns(t *testing.T) {
	d := testEnv(t, "")
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_ = d.hist.Insert(history.Run{ID: "r1", StartedAt: base, FinishedAt: base,
		Status: history.StatusSucceeded, Message: "ok", IconCount: 3, Target: "a/b"})

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got RunListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Total != 1 || len(got.Runs) != 1 || got.Runs[0].ID != "r1" {
		t.Errorf("response = %+v", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	d := testEnv(t, "secret")

	// No token, expect 401.
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	// Wrong token, expect 401.
	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	// Correct token, expect 200.
	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("correct token = %d, want 200", w.Code)
	}
}
