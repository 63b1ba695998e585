package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// errNoop tells the hub that a timer task found nothing to do and the
// snapshot does not need to be saved.
var errNoop = errors.New("nothing to do")

// errSave wraps persister failures of write tasks.
var errSave = errors.New("save snapshot")

// saveRetryDelay is how long a timer task waits before retrying after its
// snapshot could not be saved.
const saveRetryDelay = 5 * time.Second

// Hub owns the workspace snapshot. Every read and write of the snapshot runs
// on the Run goroutine; timer callbacks only enqueue tasks, and deferred
// tasks re-resolve their container by id when they execute. Write tasks run
// against a clone that replaces the live snapshot only once it is saved.
type Hub struct {
	persister store.Persister
	resolver  CallerResolver
	clock     clock.Clock
	log       *zerolog.Logger

	tasks   chan *task
	stopped chan struct{}

	// Owned by the Run goroutine once Run has started.
	snap    *store.Snapshot
	timers  map[string]*clock.Timer
	pending []armRequest // timers requested by the running write task
}

type task struct {
	name  string
	write bool
	fn    func(snap *store.Snapshot) error
	done  chan error // nil for timer tasks
	retry func()     // re-arms a timer task whose save failed
}

type armRequest struct {
	key string
	at  int64
	fn  func(*store.Snapshot) error
}

// NewHub creates a hub over the given persister.
// A nil logger discards output and a nil clock uses the wall clock.
func NewHub(p store.Persister, resolver CallerResolver, logger *zerolog.Logger, clk clock.Clock) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Hub{
		persister: p,
		resolver:  resolver,
		clock:     clk,
		log:       logger,
		tasks:     make(chan *task, 64),
		stopped:   make(chan struct{}),
		timers:    make(map[string]*clock.Timer),
	}
}

// Load reads the snapshot from the persister. It must be called before Run.
func (h *Hub) Load(ctx context.Context) error {
	snap, err := h.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	h.snap = snap
	h.log.Info().
		Int("users", len(snap.Users)).
		Int("channels", len(snap.Channels)).
		Int("dms", len(snap.DMs)).
		Int("scheduled", len(snap.Scheduled)).
		Int("standups", len(snap.Standups)).
		Msg("workspace snapshot loaded")
	return nil
}

// Run processes tasks until the context is cancelled. Scheduled deliveries and
// standups found in the loaded snapshot are re-armed first; overdue ones fire
// immediately.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	defer h.stopTimers()

	if h.snap != nil {
		h.rearm()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-h.tasks:
			h.exec(ctx, t)
		}
	}
}

func (h *Hub) exec(ctx context.Context, t *task) {
	var err error
	switch {
	case h.snap == nil:
		err = ErrNotLoaded
	case t.write:
		err = h.commit(ctx, t)
	default:
		err = t.fn(h.snap)
	}

	if t.done != nil {
		t.done <- err
		return
	}
	if err != nil && !errors.Is(err, errNoop) {
		h.log.Warn().Err(err).Str("task", t.name).Msg("timer task failed")
		if errors.Is(err, errSave) && t.retry != nil {
			t.retry()
		}
	}
}

// commit applies a write task to a clone of the snapshot and saves it. The
// live snapshot and the timers only change after the save succeeds.
func (h *Hub) commit(ctx context.Context, t *task) error {
	h.pending = h.pending[:0]
	defer func() { h.pending = h.pending[:0] }()

	next, err := h.snap.Clone()
	if err != nil {
		return fmt.Errorf("clone snapshot: %w", err)
	}
	if err := t.fn(next); err != nil {
		return err
	}
	if err := h.persister.Save(context.WithoutCancel(ctx), next); err != nil {
		h.log.Error().Err(err).Str("task", t.name).Msg("failed to save snapshot")
		return fmt.Errorf("%w: %w", errSave, err)
	}

	h.snap = next
	h.startPending()
	return nil
}

func (h *Hub) do(ctx context.Context, t *task) error {
	t.done = make(chan error, 1)

	select {
	case h.tasks <- t:
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// view runs fn against the snapshot without saving it.
func (h *Hub) view(ctx context.Context, name string, fn func(*store.Snapshot) error) error {
	return h.do(ctx, &task{name: name, fn: fn})
}

// update runs fn against a clone of the snapshot and commits the clone if fn
// succeeds and the save goes through.
func (h *Hub) update(ctx context.Context, name string, fn func(*store.Snapshot) error) error {
	return h.do(ctx, &task{name: name, write: true, fn: fn})
}

func (h *Hub) enqueue(t *task) {
	select {
	case h.tasks <- t:
	case <-h.stopped:
	}
}

// arm requests fn to run on the hub at the given epoch second. Must be
// called from the Run goroutine. The timer starts when the current write
// task commits, or at once from rearm.
func (h *Hub) arm(key string, at int64, fn func(*store.Snapshot) error) {
	h.pending = append(h.pending, armRequest{key: key, at: at, fn: fn})
}

func (h *Hub) startPending() {
	for _, req := range h.pending {
		h.startTimer(req)
	}
}

func (h *Hub) startTimer(req armRequest) {
	if old, ok := h.timers[req.key]; ok {
		old.Stop()
	}

	delay := time.Unix(req.at, 0).Sub(h.clock.Now())
	if delay < 0 {
		delay = 0
	}

	h.timers[req.key] = h.clock.AfterFunc(delay, func() {
		h.enqueue(&task{
			name:  req.key,
			write: true,
			fn: func(snap *store.Snapshot) error {
				delete(h.timers, req.key)
				return req.fn(snap)
			},
			retry: func() {
				h.startTimer(armRequest{
					key: req.key,
					at:  h.clock.Now().Add(saveRetryDelay).Unix(),
					fn:  req.fn,
				})
			},
		})
	})
}

func (h *Hub) rearm() {
	h.pending = h.pending[:0]
	for _, sm := range h.snap.Scheduled {
		h.armDelivery(sm)
	}
	for _, st := range h.snap.Standups {
		h.armStandup(Ref{Kind: st.Kind, ID: st.ContainerID}, st.Deadline)
	}
	h.startPending()
	h.pending = h.pending[:0]
}

func (h *Hub) stopTimers() {
	for key, t := range h.timers {
		t.Stop()
		delete(h.timers, key)
	}
}

func (h *Hub) now() int64 {
	return h.clock.Now().Unix()
}
