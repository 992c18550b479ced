package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/config"
	"github.com/frudas24/ddc-spotlight/internal/monitor"
	"github.com/frudas24/ddc-spotlight/internal/session"
	"github.com/frudas24/ddc-spotlight/internal/spotlight"
	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

// newTestApp starts an app over the fake rig.
func newTestApp(t *testing.T, password string) (*App, *rig, *http.ServeMux) {
	t.Helper()
	r := newRig(t)
	r.sess = session.New(password)
	r.worker.session = r.sess
	app, err := New(config.Default(), r.sess, r.worker, zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.listOutputs = func() ([]monitor.Monitor, error) {
		return []monitor.Monitor{{Index: 1, Name: "OS1", W: 1920, H: 1080, Primary: true}}, nil
	}
	if err := app.Start(t.Context()); err != nil {
		t.Fatalf("start app: %v", err)
	}
	t.Cleanup(func() { _ = app.Stop() })
	mux := http.NewServeMux()
	app.RegisterRoutes(mux)
	return app, r, mux
}

// serve runs one request through mux.
func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// TestHandleDisplays_Unauthorized verifies the API requires a login when a password is set.
func TestHandleDisplays_Unauthorized(t *testing.T) {
	_, _, mux := newTestApp(t, "pw")

	rec := serve(mux, http.MethodGet, "/api/displays", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = serve(mux, http.MethodPost, "/login", `{"password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d", rec.Code)
	}
	rec = serve(mux, http.MethodGet, "/api/displays", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", rec.Code)
	}
}

// TestHandleDisplays_ListsBaselines verifies display summaries are served.
func TestHandleDisplays_ListsBaselines(t *testing.T) {
	_, _, mux := newTestApp(t, "")

	rec := serve(mux, http.MethodGet, "/api/displays", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list []spotlight.DisplayInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 2 || list[0].ID != "A" || list[1].Kind != "i2c" {
		t.Fatalf("unexpected displays: %+v", list)
	}
	if got := list[1].Baselines[vcp.Contrast].Current; got != 30 {
		t.Fatalf("expected B contrast baseline 30, got %d", got)
	}
	if !slices.Contains(list[0].Capabilities, vcp.Luminance) {
		t.Fatalf("expected luminance capability, got %v", list[0].Capabilities)
	}
}

// TestHandleSpotlight_AppliesAndRecords verifies a posted list dims the other outputs.
func TestHandleSpotlight_AppliesAndRecords(t *testing.T) {
	_, r, mux := newTestApp(t, "")

	rec := serve(mux, http.MethodPost, "/api/spotlight", `{"names":["OS2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if r.a.Current(vcp.Luminance) != 0 || r.b.Current(vcp.Luminance) != 70 {
		t.Fatalf("unexpected values: a=%d b=%d", r.a.Current(vcp.Luminance), r.b.Current(vcp.Luminance))
	}

	rec = serve(mux, http.MethodGet, "/api/state", "")
	var state struct {
		Requests int `json:"requests"`
		Last     struct {
			Action string   `json:"action"`
			Names  []string `json:"names"`
		} `json:"last"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Requests != 1 || state.Last.Action != session.ActionSpotlight || state.Last.Names[0] != "OS2" {
		t.Fatalf("unexpected state: %+v", state)
	}

	rec = serve(mux, http.MethodGet, "/api/spotlight", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	rec = serve(mux, http.MethodPost, "/api/spotlight", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// TestHandleIdentity verifies the mapping is served.
func TestHandleIdentity(t *testing.T) {
	_, _, mux := newTestApp(t, "")

	rec := serve(mux, http.MethodGet, "/api/identity", "")
	var ids map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &ids); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(ids) != 2 || ids["OS2"][0] != "B" {
		t.Fatalf("unexpected identity: %+v", ids)
	}
}

// TestHandleMonitors verifies OS outputs are listed and failures reported.
func TestHandleMonitors(t *testing.T) {
	app, _, mux := newTestApp(t, "")

	rec := serve(mux, http.MethodGet, "/api/monitors", "")
	var list []monitor.Monitor
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 || list[0].Name != "OS1" {
		t.Fatalf("unexpected monitors: %+v", list)
	}

	app.listOutputs = func() ([]monitor.Monitor, error) { return nil, errors.New("no gdi") }
	rec = serve(mux, http.MethodGet, "/api/monitors", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// TestStart_DimOnStartThenDisplayNames verifies the startup policy dims every display.
func TestStart_DimOnStartThenDisplayNames(t *testing.T) {
	r := newRig(t)
	cfg := config.Default()
	cfg.DimOnStart = true
	app, err := New(cfg, r.sess, r.worker, zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := app.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.a.Current(vcp.Luminance) != 0 || r.b.Current(vcp.Contrast) != 0 {
		t.Fatalf("expected displays dimmed")
	}
	app.HandleDisplayNames([]string{"OS1"})
	if r.a.Current(vcp.Luminance) != 50 {
		t.Fatalf("expected A restored, got %d", r.a.Current(vcp.Luminance))
	}
	if err := app.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if r.b.Current(vcp.Luminance) != 70 {
		t.Fatalf("expected B restored on stop")
	}
}

// TestNew_RequiresDependencies verifies nil dependencies are rejected.
func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(config.Default(), nil, &Worker{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil session")
	}
	if _, err := New(config.Default(), session.New(""), nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil worker")
	}
}
