package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	orchestratorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/orchestrator"
	analyticsx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/analytics"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	leadstorex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/leadstore"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
)

func newTestServer(t *testing.T, sessions Sessions, opts ...Option) http.Handler {
	t.Helper()
	opts = append(opts, WithLogger(zerolog.Nop()))
	srv, err := New(Config{RequestTimeout: 5 * time.Second}, sessions, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.Handler()
}

func newRealSessions(t *testing.T, recorder contractx.Recorder) *orchestratorx.Service {
	t.Helper()
	engine, err := orchestratorx.NewEngine(nil, orchestratorx.EngineConfig{PrivacyURL: "https://inmobilia.pe/privacidad"})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	svc, err := orchestratorx.NewService(engine, orchestratorx.ServiceDeps{
		Store:    statex.NewMemoryStore(),
		Recorder: recorder,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func do(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTurn(t *testing.T, rec *httptest.ResponseRecorder) orchestratorx.TurnResult {
	t.Helper()
	var res orchestratorx.TurnResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	return res
}

func message(text string) string {
	raw, _ := json.Marshal(messageRequest{Text: text})
	return string(raw)
}

func TestNewRequiresSessions(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, nil); err == nil {
		t.Fatal("New() expected error without sessions")
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, newRealSessions(t, nil))
	rec := do(t, h, http.MethodGet, "/ping", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("GET /ping = %d %s", rec.Code, rec.Body.String())
	}
}

func TestConversationOverHTTP(t *testing.T) {
	t.Parallel()

	recorder, err := analyticsx.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = recorder.Close() })
	h := newTestServer(t, newRealSessions(t, recorder), WithReports(recorder))

	rec := do(t, h, http.MethodPost, "/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /sessions = %d %s", rec.Code, rec.Body.String())
	}
	started := decodeTurn(t, rec)
	if started.SessionID == "" || started.Reply == "" || started.Phase != statex.PhaseAwaitingConsent {
		t.Fatalf("start = %+v", started)
	}
	base := "/sessions/" + started.SessionID

	rec = do(t, h, http.MethodPost, base+"/messages", message("Hola"))
	turn := decodeTurn(t, rec)
	if rec.Code != http.StatusOK || !strings.Contains(turn.Reply, "29733") || turn.Agent != contractx.AgentTypeLegal {
		t.Fatalf("first message = %d %+v", rec.Code, turn)
	}

	rec = do(t, h, http.MethodPost, base+"/messages", message("Sí, acepto"))
	turn = decodeTurn(t, rec)
	if turn.Phase != statex.PhaseCollecting || turn.Agent != contractx.AgentTypeCollector {
		t.Fatalf("after consent = %+v", turn)
	}

	rec = do(t, h, http.MethodGet, base+"/lead", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET lead = %d %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Lead  leadx.Data  `json:"lead"`
		Stage leadx.Stage `json:"stage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode lead: %v", err)
	}
	if !got.Lead.ConsentGranted() || got.Stage != leadx.StageConversationStarted {
		t.Fatalf("lead = %+v stage = %s", got.Lead, got.Stage)
	}

	rec = do(t, h, http.MethodGet, "/analytics/funnel", "")
	var rep analyticsx.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rec.Code != http.StatusOK || len(rep.Funnel) == 0 || rep.Funnel[0].Sessions != 1 || rep.Funnel[1].Sessions != 1 {
		t.Fatalf("funnel = %d %+v", rec.Code, rep.Funnel)
	}

	if rec = do(t, h, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE session = %d %s", rec.Code, rec.Body.String())
	}
	if rec = do(t, h, http.MethodPost, base+"/messages", message("hola de nuevo")); rec.Code != http.StatusGone {
		t.Fatalf("message after close = %d, want 410", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, base+"/lead", ""); rec.Code != http.StatusOK {
		t.Fatalf("GET lead after close = %d, want 200", rec.Code)
	}
	if rec = do(t, h, http.MethodDelete, base, ""); rec.Code != http.StatusGone {
		t.Fatalf("second DELETE = %d, want 410", rec.Code)
	}
}

func TestMessageValidation(t *testing.T) {
	t.Parallel()

	svc := newRealSessions(t, nil)
	h := newTestServer(t, svc)
	started, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	base := "/sessions/" + started.SessionID + "/messages"

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed json", body: `{"text":`, want: http.StatusBadRequest},
		{name: "empty text", body: message("   "), want: http.StatusBadRequest},
		{name: "too long", body: message(strings.Repeat("a", 2001)), want: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		rec := do(t, h, http.MethodPost, base, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}

	if rec := do(t, h, http.MethodGet, "/sessions/missing/lead", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session lead = %d, want 404", rec.Code)
	}
}

type failingSessions struct {
	err error
}

func (f failingSessions) Start(context.Context) (orchestratorx.TurnResult, error) {
	return orchestratorx.TurnResult{}, f.err
}

func (f failingSessions) HandleMessage(context.Context, string, string) (orchestratorx.TurnResult, error) {
	return orchestratorx.TurnResult{}, f.err
}

func (f failingSessions) Lead(context.Context, string) (leadx.Data, error) {
	return leadx.Data{}, f.err
}

func (f failingSessions) Close(context.Context, string) error {
	return f.err
}

func TestErrorsNeverLeakDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: errors.New("redis: connection refused to 10.0.0.3"), want: http.StatusInternalServerError},
		{err: contractx.ErrStateCorruption, want: http.StatusInternalServerError},
		{err: contractx.ErrConsentViolation, want: http.StatusConflict},
		{err: orchestratorx.ErrSessionClosed, want: http.StatusGone},
		{err: orchestratorx.ErrSessionNotFound, want: http.StatusNotFound},
	}
	for _, tc := range tests {
		h := newTestServer(t, failingSessions{err: tc.err})
		rec := do(t, h, http.MethodPost, "/sessions/s1/messages", message("hola"))
		if rec.Code != tc.want {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
		if strings.Contains(rec.Body.String(), tc.err.Error()) && tc.want == http.StatusInternalServerError {
			t.Fatalf("%v: body leaks error text: %s", tc.err, rec.Body.String())
		}
	}
}

type fakeLister struct {
	limit, offset int
}

func (f *fakeLister) ListLeads(_ context.Context, limit, offset int) ([]leadstorex.Row, error) {
	f.limit, f.offset = limit, offset
	return []leadstorex.Row{{SessionID: "s1", Stage: string(leadx.StageLead)}}, nil
}

func TestListLeads(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{}
	h := newTestServer(t, newRealSessions(t, nil), WithLeadLister(lister))

	rec := do(t, h, http.MethodGet, "/leads?limit=10&offset=abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /leads = %d", rec.Code)
	}
	if lister.limit != 10 || lister.offset != 0 {
		t.Fatalf("ListLeads(%d, %d), want (10, 0)", lister.limit, lister.offset)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"s1"`)) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestOptionalRoutesAbsentWithoutBackends(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, newRealSessions(t, nil))
	for _, path := range []string{"/analytics/funnel", "/leads"} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}
