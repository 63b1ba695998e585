package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/wirechat-workspace/internal/metrics"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// StandupStatus reports whether a container has an active standup.
type StandupStatus struct {
	Active   bool
	Deadline int64 // epoch seconds, zero when inactive
}

// StartStandup opens a standup lasting the given number of seconds and
// returns its deadline. The collected lines are posted as one message by the
// initiator once the deadline passes.
func (h *Hub) StartStandup(ctx context.Context, token string, ref Ref, seconds int64) (int64, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return 0, err
	}

	var deadline int64
	err = h.update(ctx, "standup_start", func(snap *store.Snapshot) error {
		caller, err := callerIn(snap, userID)
		if err != nil {
			return err
		}
		c, err := lookupContainer(snap, ref)
		if err != nil {
			return err
		}
		if seconds < 0 {
			return validationError("length of standup cannot be negative")
		}
		if err := requireMember(c, ref, caller.ID); err != nil {
			return err
		}
		if snap.Standup(ref.Kind, ref.ID) != nil {
			return stateError(fmt.Sprintf("a standup is already active in %s", ref))
		}

		deadline = h.now() + seconds
		snap.Standups = append(snap.Standups, &store.Standup{
			Kind:        ref.Kind,
			ContainerID: ref.ID,
			Deadline:    deadline,
			InitiatorID: caller.ID,
		})
		h.armStandup(ref, deadline)

		h.log.Info().Str("container", ref.String()).Int64("user_id", caller.ID).Int64("deadline", deadline).Msg("standup started")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deadline, nil
}

// SendStandup adds a line to the active standup. The deadline is unchanged.
func (h *Hub) SendStandup(ctx context.Context, token string, ref Ref, line string) error {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return err
	}

	return h.update(ctx, "standup_send", func(snap *store.Snapshot) error {
		caller, err := callerIn(snap, userID)
		if err != nil {
			return err
		}
		c, err := lookupContainer(snap, ref)
		if err != nil {
			return err
		}
		if err := requireMember(c, ref, caller.ID); err != nil {
			return err
		}
		if utf8.RuneCountInString(line) > MaxBodyLength {
			return validationError(fmt.Sprintf("message cannot be over %d characters", MaxBodyLength))
		}
		st := snap.Standup(ref.Kind, ref.ID)
		if st == nil {
			return stateError(fmt.Sprintf("there is no active standup in %s", ref))
		}

		st.Buffer += caller.Handle + ": " + line + "\n"
		return nil
	})
}

// StandupActive reports the standup state of a container.
func (h *Hub) StandupActive(ctx context.Context, token string, ref Ref) (StandupStatus, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return StandupStatus{}, err
	}

	var status StandupStatus
	err = h.view(ctx, "standup_active", func(snap *store.Snapshot) error {
		caller, err := callerIn(snap, userID)
		if err != nil {
			return err
		}
		c, err := lookupContainer(snap, ref)
		if err != nil {
			return err
		}
		if err := requireMember(c, ref, caller.ID); err != nil {
			return err
		}
		if st := snap.Standup(ref.Kind, ref.ID); st != nil {
			status = StandupStatus{Active: true, Deadline: st.Deadline}
		}
		return nil
	})
	return status, err
}

func (h *Hub) armStandup(ref Ref, deadline int64) {
	h.arm(fmt.Sprintf("standup:%s:%d", ref.Kind, ref.ID), deadline, func(snap *store.Snapshot) error {
		return h.flushStandup(snap, ref)
	})
}

// flushStandup closes the standup of ref. A non-empty buffer becomes one
// message from the initiator, stamped with the deadline.
func (h *Hub) flushStandup(snap *store.Snapshot, ref Ref) error {
	st := snap.Standup(ref.Kind, ref.ID)
	if st == nil {
		return errNoop
	}
	snap.RemoveStandup(ref.Kind, ref.ID)

	c := snap.Container(ref.Kind, ref.ID)
	if c == nil {
		metrics.StandupsFlushed.WithLabelValues("orphaned").Inc()
		h.log.Warn().Str("container", ref.String()).Msg("container gone, discarding standup")
		return nil
	}
	if st.Buffer == "" {
		metrics.StandupsFlushed.WithLabelValues("empty").Inc()
		h.log.Info().Str("container", ref.String()).Msg("standup closed without lines")
		return nil
	}

	id, err := mintID(snap, ref, c)
	if err != nil {
		metrics.StandupsFlushed.WithLabelValues("orphaned").Inc()
		h.log.Error().Err(err).Str("container", ref.String()).Msg("cannot mint standup message id")
		return nil
	}

	c.Prepend(&store.Message{
		ID:       id,
		AuthorID: st.InitiatorID,
		Body:     strings.TrimRight(st.Buffer, " \t\r\n"),
		SentAt:   st.Deadline,
		Reacts:   []store.React{},
	})

	metrics.StandupsFlushed.WithLabelValues("message").Inc()
	metrics.MessagesDelivered.WithLabelValues(ref.Kind.String(), "standup").Inc()
	h.log.Info().Str("container", ref.String()).Int64("message_id", id).Msg("standup summary posted")
	return nil
}
