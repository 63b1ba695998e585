package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-workspace/internal/auth"
	"github.com/vovakirdan/wirechat-workspace/internal/config"
	"github.com/vovakirdan/wirechat-workspace/internal/core"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
	"github.com/vovakirdan/wirechat-workspace/internal/store/memory"
)

type testServer struct {
	handler stdhttp.Handler
	tokens  map[string]string // handle -> bearer token
}

func testWorkspace() *store.Snapshot {
	snap := store.NewSnapshot()
	snap.Users = []*store.User{
		{ID: 1, Handle: "alice"},
		{ID: 2, Handle: "bob"},
		{ID: 3, Handle: "carol"},
	}
	snap.Channels = []*store.Container{
		{ID: 1, Name: "general", Members: []int64{1, 2}, Owners: []int64{1}, Messages: []*store.Message{}},
	}
	snap.DMs = []*store.Container{
		{ID: 1, Name: "alice-carol", Members: []int64{1, 3}, Owners: []int64{1}, Messages: []*store.Message{}},
	}
	return snap
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()

	disabledLogger := zerolog.New(nil)

	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	st, err := memory.NewWith(testWorkspace())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	hub := core.NewHub(st, authService, &disabledLogger, nil)
	if err := hub.Load(context.Background()); err != nil {
		t.Fatalf("failed to load hub: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	server := NewServer(hub, authService, &cfg, &disabledLogger)
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
		cancel()
		<-done
	})

	tokens := make(map[string]string)
	for _, u := range testWorkspace().Users {
		token, err := authService.IssueToken(u.ID, u.Handle)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}
		tokens[u.Handle] = token
	}

	return &testServer{handler: server.Handler, tokens: tokens}
}

func testConfig() config.Config {
	return config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MetricsEnabled:    true,
	}
}

// do sends a request as the given user; an empty handle sends no token.
func (s *testServer) do(t *testing.T, method, path, handle string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if handle != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[handle])
	}

	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}
