package core

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-workspace/internal/store"
	"github.com/vovakirdan/wirechat-workspace/internal/store/memory"
)

var testEpoch = time.Unix(1_700_000_000, 0)

const (
	alice = "tok-1"
	bob   = "tok-2"
	carol = "tok-3"
)

type testEnv struct {
	hub   *Hub
	store *memory.Store
	clock *clock.Mock
	stop  func()
}

// testToken maps "tok-<id>" to the user id.
func testToken(token string) (int64, error) {
	raw, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return 0, errors.New("unknown token")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// testWorkspace returns three users, two channels and a DM:
//
//	channel 1 "general": alice and bob, owned by alice
//	channel 2 "random":  alice, bob and carol, owned by carol
//	dm 1 "alice-bob":    alice and bob, owned by alice
func testWorkspace() *store.Snapshot {
	snap := store.NewSnapshot()
	snap.Users = []*store.User{
		{ID: 1, Handle: "alice"},
		{ID: 2, Handle: "bob"},
		{ID: 3, Handle: "carol"},
	}
	snap.Channels = []*store.Container{
		{ID: 1, Name: "general", Members: []int64{1, 2}, Owners: []int64{1}, Messages: []*store.Message{}},
		{ID: 2, Name: "random", Members: []int64{1, 2, 3}, Owners: []int64{3}, Messages: []*store.Message{}},
	}
	snap.DMs = []*store.Container{
		{ID: 1, Name: "alice-bob", Members: []int64{1, 2}, Owners: []int64{1}, Messages: []*store.Message{}},
	}
	return snap
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, testWorkspace())
}

func newTestEnvWith(t *testing.T, snap *store.Snapshot) *testEnv {
	t.Helper()

	st, err := memory.NewWith(snap)
	require.NoError(t, err)
	return newTestEnvOver(t, st, st)
}

// flakyStore fails every Save while failing is set.
type flakyStore struct {
	*memory.Store
	failing  atomic.Bool
	attempts atomic.Int32
}

func (s *flakyStore) Save(ctx context.Context, snap *store.Snapshot) error {
	s.attempts.Add(1)
	if s.failing.Load() {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, snap)
}

func newFlakyTestEnv(t *testing.T) (*testEnv, *flakyStore) {
	t.Helper()

	st, err := memory.NewWith(testWorkspace())
	require.NoError(t, err)
	flaky := &flakyStore{Store: st}
	return newTestEnvOver(t, flaky, st), flaky
}

func newTestEnvOver(t *testing.T, p store.Persister, st *memory.Store) *testEnv {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(testEpoch)

	hub := NewHub(p, CallerResolverFunc(testToken), nil, mock)
	require.NoError(t, hub.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	env := &testEnv{hub: hub, store: st, clock: mock}
	var once sync.Once
	env.stop = func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	t.Cleanup(env.stop)
	return env
}

func (e *testEnv) copySnapshot() (*store.Snapshot, error) {
	var copied *store.Snapshot
	err := e.hub.view(context.Background(), "test_snapshot", func(snap *store.Snapshot) error {
		var err error
		copied, err = snap.Clone()
		return err
	})
	return copied, err
}

// snapshot returns a copy of the hub state taken on the Run goroutine.
func (e *testEnv) snapshot(t *testing.T) *store.Snapshot {
	t.Helper()
	snap, err := e.copySnapshot()
	require.NoError(t, err)
	return snap
}

// eventually polls the hub state until cond holds.
func (e *testEnv) eventually(t *testing.T, cond func(snap *store.Snapshot) bool, msg string) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := e.copySnapshot()
		return err == nil && cond(snap)
	}, 2*time.Second, 5*time.Millisecond, msg)
}

// advance moves the mock clock forward by d, firing due timers.
func (e *testEnv) advance(d time.Duration) {
	e.clock.Add(d)
}

// armedTimers reports how many timers the hub currently holds.
func (e *testEnv) armedTimers(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.hub.view(context.Background(), "test_timers", func(*store.Snapshot) error {
		n = len(e.hub.timers)
		return nil
	}))
	return n
}

func (e *testEnv) page(t *testing.T, token string, ref Ref, start int) Page {
	t.Helper()
	p, err := e.hub.Messages(context.Background(), token, ref, start)
	require.NoError(t, err)
	return p
}

func (e *testEnv) send(t *testing.T, token string, ref Ref, body string) int64 {
	t.Helper()
	id, err := e.hub.Send(context.Background(), token, ref, body)
	require.NoError(t, err)
	return id
}

func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)

	var ce *CoreError
	require.ErrorAs(t, err, &ce)
	require.NotEmpty(t, ce.Message)
}

func containerOf(snap *store.Snapshot, ref Ref) *store.Container {
	return snap.Container(ref.Kind, ref.ID)
}

func userOf(snap *store.Snapshot, id int64) *store.User {
	return snap.User(id)
}
