package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-workspace/internal/auth"
	"github.com/vovakirdan/wirechat-workspace/internal/config"
	"github.com/vovakirdan/wirechat-workspace/internal/core"
)

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "workspace.db")
	cfg.RateLimitRPS = 0
	cfg.MetricsEnabled = false

	logger := zerolog.Nop()
	a, err := New(&cfg, &logger)
	require.NoError(t, err)

	token, err := auth.NewService(JWTConfig(&cfg)).IssueToken(1, "alice")
	require.NoError(t, err)
	return a, token
}

func TestStartHubRunsUntilStopped(t *testing.T) {
	a, token := newTestApp(t)
	require.NoError(t, a.hub.Load(context.Background()))

	stop := a.startHub()

	// User 1 is not seeded, so a running hub answers with an auth error.
	_, err := a.hub.Notifications(context.Background(), token)
	require.ErrorIs(t, err, core.ErrAuth)

	stop()
	_, err = a.hub.Notifications(context.Background(), token)
	require.ErrorIs(t, err, core.ErrHubStopped)
	a.cleanup()
}

func TestRunStopsHubAfterShutdown(t *testing.T) {
	a, token := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()

	// Blocks until Run has loaded the snapshot and picked up the task.
	_, err := a.hub.Notifications(context.Background(), token)
	require.ErrorIs(t, err, core.ErrAuth)

	cancel()
	require.NoError(t, <-runErr)

	_, err = a.hub.Notifications(context.Background(), token)
	require.ErrorIs(t, err, core.ErrHubStopped)
}
