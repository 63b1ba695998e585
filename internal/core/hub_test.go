package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
	"github.com/vovakirdan/wirechat-workspace/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHubRearmsPersistedTimers(t *testing.T) {
	id, err := msgid.Encode(msgid.Channel, 1)
	require.NoError(t, err)

	snap := testWorkspace()
	snap.Scheduled = []*store.ScheduledMessage{{
		TaskID:      "overdue",
		Kind:        msgid.Channel,
		ContainerID: 1,
		Message:     store.Message{ID: id, AuthorID: 2, Body: "sent while offline", SentAt: testEpoch.Unix() - 10},
	}}
	snap.Standups = []*store.Standup{{
		Kind:        msgid.DM,
		ContainerID: 1,
		Buffer:      "alice: shipped the importer\n",
		Deadline:    testEpoch.Unix() + 30,
		InitiatorID: 1,
	}}
	env := newTestEnvWith(t, snap)

	// Run re-arms before serving tasks, so nothing has fired yet.
	require.Empty(t, containerOf(env.snapshot(t), ChannelRef(1)).Messages)

	env.advance(time.Second)
	env.eventually(t, func(s *store.Snapshot) bool {
		c := containerOf(s, ChannelRef(1))
		return len(c.Messages) == 1 && c.Messages[0].ID == id && len(s.Scheduled) == 0
	}, "overdue delivery was not re-armed")

	env.advance(30 * time.Second)
	env.eventually(t, func(s *store.Snapshot) bool {
		return len(containerOf(s, DMRef(1)).Messages) == 1 && len(s.Standups) == 0
	}, "standup flush was not re-armed")

	msg := containerOf(env.snapshot(t), DMRef(1)).Messages[0]
	require.Equal(t, "alice: shipped the importer", msg.Body)
	require.Equal(t, int64(1), msg.AuthorID)
	require.Equal(t, testEpoch.Unix()+30, msg.SentAt)
}

func TestHubPersistsOnlySuccessfulWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.send(t, alice, ChannelRef(1), "hello")
	require.Equal(t, 1, env.store.Saves())

	_, err := env.hub.Send(ctx, carol, ChannelRef(1), "not a member")
	requireKind(t, err, ErrPermission)

	_, err = env.hub.Messages(ctx, alice, ChannelRef(1), 0)
	require.NoError(t, err)
	require.Equal(t, 1, env.store.Saves())

	stored, err := env.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, containerOf(stored, ChannelRef(1)).Messages, 1)
}

func TestHubDiscardsWritesThatFailToSave(t *testing.T) {
	env, st := newFlakyTestEnv(t)
	ctx := context.Background()
	general := ChannelRef(1)
	st.failing.Store(true)

	_, err := env.hub.Send(ctx, alice, general, "lost")
	require.ErrorContains(t, err, "disk full")
	_, err = env.hub.SendLater(ctx, alice, general, "also lost", testEpoch.Unix()+5)
	require.ErrorContains(t, err, "disk full")
	_, err = env.hub.StartStandup(ctx, alice, general, 5)
	require.ErrorContains(t, err, "disk full")

	require.Zero(t, env.armedTimers(t))
	snap := env.snapshot(t)
	require.Empty(t, containerOf(snap, general).Messages)
	require.Empty(t, snap.Scheduled)
	require.Empty(t, snap.Standups)

	st.failing.Store(false)
	env.advance(10 * time.Second)
	id := env.send(t, alice, general, "kept")

	snap = env.snapshot(t)
	require.Len(t, containerOf(snap, general).Messages, 1)
	require.Equal(t, id, containerOf(snap, general).Messages[0].ID)

	stored, err := env.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, containerOf(stored, general).Messages, 1)
}

func TestHubRetriesDeliveryAfterFailedSave(t *testing.T) {
	env, st := newFlakyTestEnv(t)
	ctx := context.Background()
	general := ChannelRef(1)

	id, err := env.hub.SendLater(ctx, alice, general, "eventually", testEpoch.Unix()+60)
	require.NoError(t, err)
	require.Equal(t, 1, env.armedTimers(t))

	st.failing.Store(true)
	before := st.attempts.Load()
	env.advance(60 * time.Second)
	require.Eventually(t, func() bool { return st.attempts.Load() > before },
		2*time.Second, 5*time.Millisecond, "delivery never tried to save")

	// Queued behind the failed delivery, so the retry is armed by now.
	snap := env.snapshot(t)
	require.Empty(t, containerOf(snap, general).Messages)
	require.Len(t, snap.Scheduled, 1)
	require.Equal(t, 1, env.armedTimers(t))

	st.failing.Store(false)
	env.advance(saveRetryDelay)
	env.eventually(t, func(snap *store.Snapshot) bool {
		msgs := containerOf(snap, general).Messages
		return len(msgs) == 1 && msgs[0].ID == id && len(snap.Scheduled) == 0
	}, "delivery was not retried")
}

func TestHubStopped(t *testing.T) {
	env := newTestEnv(t)
	env.stop()

	_, err := env.hub.Send(context.Background(), alice, ChannelRef(1), "too late")
	require.ErrorIs(t, err, ErrHubStopped)
}

func TestHubNotLoaded(t *testing.T) {
	hub := NewHub(memory.New(), CallerResolverFunc(testToken), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	_, err := hub.Send(ctx, alice, ChannelRef(1), "hello")
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestHubRejectsUnresolvedCallers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.hub.Send(ctx, "", ChannelRef(1), "hello")
	requireKind(t, err, ErrAuth)

	_, err = env.hub.Send(ctx, "garbage", ChannelRef(1), "hello")
	requireKind(t, err, ErrAuth)

	_, err = env.hub.Send(ctx, "tok-99", ChannelRef(1), "hello")
	requireKind(t, err, ErrAuth)
}

func TestHubRejectsRemovedUsers(t *testing.T) {
	snap := testWorkspace()
	snap.Users[1].Removed = true
	env := newTestEnvWith(t, snap)

	_, err := env.hub.Send(context.Background(), bob, ChannelRef(1), "hello")
	requireKind(t, err, ErrAuth)
}
