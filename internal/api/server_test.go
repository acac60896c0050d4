package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
	"cuetrack/internal/transcript"
)

type fakeSession struct {
	cues   []cue.Cue
	state  loading.State
	active int
	err    error
	seeked []int
	player bool
}

func (f *fakeSession) ID() string           { return "session-1" }
func (f *fakeSession) State() loading.State { return f.state }
func (f *fakeSession) Renderable() bool     { return f.state.Renderable(true) }
func (f *fakeSession) Unavailable() bool    { return f.state.Unavailable }
func (f *fakeSession) Err() error           { return f.err }
func (f *fakeSession) Cues() []cue.Cue      { return f.cues }
func (f *fakeSession) Active() (int, bool)  { return f.active, f.active >= 0 }
func (f *fakeSession) Cue(i int) (cue.Cue, bool) {
	if i < 0 || i >= len(f.cues) {
		return cue.Cue{}, false
	}
	return f.cues[i], true
}

func (f *fakeSession) SeekToCue(i int) error {
	if !f.player {
		return transcript.ErrNoPlayer
	}
	if i >= len(f.cues) {
		return transcript.ErrNoSuchCue
	}
	f.seeked = append(f.seeked, i)
	f.active = i
	return nil
}

type fixedClock float64

func (c fixedClock) CurrentTime() float64 { return float64(c) }

func newFake() *fakeSession {
	return &fakeSession{
		cues: []cue.Cue{
			{Start: 0, End: 2, Text: "Hello there"},
			{Start: 2, End: 5, Text: "General Kenobi"},
			{Start: 5, End: math.Inf(1), Text: "You are a bold one"},
		},
		state:  loading.State{Phase: loading.Stable, Count: 3},
		active: 1,
		player: true,
	}
}

func newTestServer(t *testing.T, session Session, opts Options) *Server {
	t.Helper()
	srv, err := New(session, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthSkipsAuth(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{Token: "secret"})
	rec := do(t, srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTokenRequired(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{Token: "secret"})
	if rec := do(t, srv, http.MethodGet, "/api/session", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/session", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/session", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", rec.Code)
	}
}

func TestSessionStatus(t *testing.T) {
	session := newFake()
	srv := newTestServer(t, session, Options{Clock: fixedClock(3.5)})
	rec := do(t, srv, http.MethodGet, "/api/session", "")
	status := decode[SessionStatus](t, rec)
	if status.ID != "session-1" || status.CueCount != 3 || !status.Renderable {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.State.Phase != loading.Stable || status.State.Count != 3 {
		t.Fatalf("state = %+v", status.State)
	}
	if status.Active == nil || *status.Active != 1 {
		t.Fatalf("active = %v", status.Active)
	}
	if status.Position == nil || *status.Position != 3.5 {
		t.Fatalf("position = %v", status.Position)
	}
}

func TestCuesPaging(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{})
	rec := do(t, srv, http.MethodGet, "/api/cues?offset=1&limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := decode[CueListResponse](t, rec)
	if page.Total != 3 || page.Offset != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].Index != 1 || page.Items[0].Cue.Text != "General Kenobi" {
		t.Fatalf("item = %+v", page.Items[0])
	}

	if rec := do(t, srv, http.MethodGet, "/api/cues?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d", rec.Code)
	}
}

func TestCuesEncodesOpenEnd(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{})
	rec := do(t, srv, http.MethodGet, "/api/cues/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"end":null`) {
		t.Fatalf("expected null end, got %s", rec.Body.String())
	}
	item := decode[CueItem](t, rec)
	if !math.IsInf(item.Cue.End, 1) {
		t.Fatalf("end = %v", item.Cue.End)
	}
}

func TestCueNotFound(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{})
	if rec := do(t, srv, http.MethodGet, "/api/cues/9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/cues/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestActive(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{})
	tests := []struct {
		target string
		want   int
	}{
		{"/api/active?t=0", 0},
		{"/api/active?t=2", 1},
		{"/api/active?t=100", 2},
		{"/api/active", 1},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			resp := decode[ActiveResponse](t, do(t, srv, http.MethodGet, tc.target, ""))
			if resp.Active == nil || resp.Active.Index != tc.want {
				t.Fatalf("active = %+v, want %d", resp.Active, tc.want)
			}
		})
	}

	resp := decode[ActiveResponse](t, do(t, srv, http.MethodGet, "/api/active?t=-1", ""))
	if resp.Active != nil {
		t.Fatalf("expected no active cue, got %+v", resp.Active)
	}
	if rec := do(t, srv, http.MethodGet, "/api/active?t=NaN", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("NaN status = %d", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, newFake(), Options{})
	resp := decode[SearchResponse](t, do(t, srv, http.MethodGet, "/api/search?q=kenobi", ""))
	if len(resp.Matches) != 1 || resp.Matches[0].Index != 1 {
		t.Fatalf("matches = %+v", resp.Matches)
	}
	if rec := do(t, srv, http.MethodGet, "/api/search", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing query status = %d", rec.Code)
	}
}

func TestSeek(t *testing.T) {
	session := newFake()
	srv := newTestServer(t, session, Options{})
	rec := do(t, srv, http.MethodPost, "/api/cues/2/seek", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(session.seeked) != 1 || session.seeked[0] != 2 {
		t.Fatalf("seeked = %v", session.seeked)
	}
	if rec := do(t, srv, http.MethodPost, "/api/cues/7/seek", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing cue status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/cues/1/seek", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET seek status = %d", rec.Code)
	}

	session.player = false
	if rec := do(t, srv, http.MethodPost, "/api/cues/1/seek", ""); rec.Code != http.StatusConflict {
		t.Fatalf("no player status = %d", rec.Code)
	}
}

func TestStartAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := newTestServer(t, newFake(), Options{Bind: "127.0.0.1:0"})
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestNewRequiresSession(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected error for nil session")
	}
}
