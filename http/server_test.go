package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/assistant"
	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/events"
	"github.com/vinizap/lumi-notes/logging"
	"github.com/vinizap/lumi-notes/store"
)

type fakeCompleter struct {
	reply string
	err   error
	calls []assistant.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req assistant.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type testServer struct {
	*Server
	store *store.Store
	ai    *fakeCompleter
	hub   *events.Hub
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := store.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := events.NewHub()
	go hub.Run(ctx)

	fc := &fakeCompleter{}
	return &testServer{
		Server: NewServer(st, assistant.New(fc, st), hub, opts),
		store:  st,
		ai:     fc,
		hub:    hub,
	}
}

type response struct {
	status int
	header map[string]string
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.body, v); err != nil {
		t.Fatalf("decode %q: %v", r.body, err)
	}
}

func (r response) errorMessage(t *testing.T) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	r.decode(t, &body)
	return body.Error
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) response {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	h := make(map[string]string)
	for k := range resp.Header {
		h[k] = resp.Header.Get(k)
	}
	return response{status: resp.StatusCode, header: h, body: data}
}

// stubStore satisfies Store with canned errors. Methods a test does not
// override panic through the nil embedded interface.
type stubStore struct {
	Store
	pingErr error
	listErr error
}

func (s stubStore) Ping(context.Context) error { return s.pingErr }

func (s stubStore) ListNotes(context.Context) ([]domain.Note, error) {
	return nil, s.listErr
}

func newStubServer(t *testing.T, st stubStore, opts Options) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := events.NewHub()
	go hub.Run(ctx)
	return NewServer(st, assistant.New(&fakeCompleter{}, st), hub, opts)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{Environment: "test", DatabaseType: "sqlite"})

	resp := do(t, ts.App(), "GET", "/api/health", "")
	if resp.status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.status)
	}
	var body map[string]any
	resp.decode(t, &body)
	want := map[string]any{
		"status":             "healthy",
		"database_connected": true,
		"database_type":      "sqlite",
		"environment":        "test",
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("%s = %v, want %v", k, body[k], v)
		}
	}
}

func TestHealthDisconnected(t *testing.T) {
	s := newStubServer(t, stubStore{pingErr: domain.Unavailable(errors.New("refused"))}, Options{DatabaseType: "postgresql"})

	resp := do(t, s.App(), "GET", "/api/health", "")
	if resp.status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.status)
	}
	var body map[string]any
	resp.decode(t, &body)
	if body["status"] != "database_disconnected" || body["database_connected"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"unavailable", fmt.Errorf("error finding notes: %w", domain.Unavailable(errors.New("dial tcp"))), fiber.StatusServiceUnavailable, "Database connection failed"},
		{"internal", errors.New("boom"), fiber.StatusInternalServerError, "Internal server error"},
		{"validation", domain.Validation("bad"), fiber.StatusBadRequest, "bad"},
		{"not found", domain.NotFound("gone"), fiber.StatusNotFound, "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStubServer(t, stubStore{listErr: tt.err}, Options{})
			resp := do(t, s.App(), "GET", "/api/notes", "")
			if resp.status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.status, tt.wantStatus)
			}
			if got := resp.errorMessage(t); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestTokenAuth(t *testing.T) {
	ts := newTestServer(t, Options{Token: "s3cret"})

	if resp := do(t, ts.App(), "GET", "/api/health", ""); resp.status != fiber.StatusOK {
		t.Errorf("health status = %d, want 200 without token", resp.status)
	}

	resp := do(t, ts.App(), "GET", "/api/notes", "")
	if resp.status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.status)
	}
	if got := resp.errorMessage(t); got != "Unauthorized" {
		t.Errorf("error = %q", got)
	}

	if resp := do(t, ts.App(), "GET", "/api/notes", "", "X-Lumi-Token", "wrong"); resp.status != fiber.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", resp.status)
	}
	if resp := do(t, ts.App(), "GET", "/api/notes", "", "X-Lumi-Token", "s3cret"); resp.status != fiber.StatusOK {
		t.Errorf("valid token status = %d, want 200", resp.status)
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := do(t, ts.App(), "GET", "/api/notes", "")
	if resp.header["X-Request-Id"] == "" {
		t.Errorf("missing request id header in %v", resp.header)
	}
}

func TestPanicIsLoggedWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logging.SetupWriter(&buf, "info", false)
	t.Cleanup(func() { logging.Setup("info", false) })

	s := newStubServer(t, stubStore{}, Options{})
	s.App().Get("/api/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp := do(t, s.App(), "GET", "/api/boom", "", "X-Request-ID", "req-42")
	if resp.status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.status)
	}
	if got := resp.errorMessage(t); got != "Internal server error" {
		t.Errorf("error = %q", got)
	}

	var found bool
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var line struct {
			Level     string `json:"level"`
			RequestID string `json:"request_id"`
			Path      string `json:"path"`
			Status    int    `json:"status"`
		}
		if json.Unmarshal(sc.Bytes(), &line) != nil || line.Path != "/api/boom" {
			continue
		}
		found = true
		if line.Level != "error" || line.RequestID != "req-42" || line.Status != fiber.StatusInternalServerError {
			t.Errorf("log line = %+v", line)
		}
	}
	if !found {
		t.Errorf("no request log line for the panicking route in %q", buf.String())
	}
}
