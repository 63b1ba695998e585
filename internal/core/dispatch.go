package core

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vovakirdan/wirechat-workspace/internal/metrics"
	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// MaxBodyLength is the longest message body, in characters.
const MaxBodyLength = 1000

const mintAttempts = 8

func validateBody(body string) error {
	n := utf8.RuneCountInString(body)
	if n < 1 {
		return validationError("message cannot be empty")
	}
	if n > MaxBodyLength {
		return validationError(fmt.Sprintf("message cannot be over %d characters", MaxBodyLength))
	}
	return nil
}

// Send posts body to a channel or DM and returns the new message id.
func (h *Hub) Send(ctx context.Context, token string, ref Ref, body string) (int64, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return 0, err
	}

	var id int64
	err = h.update(ctx, "send", func(snap *store.Snapshot) error {
		sender, c, err := h.prepareSend(snap, userID, ref, body)
		if err != nil {
			return err
		}
		if id, err = mintID(snap, ref, c); err != nil {
			return err
		}
		h.appendMessage(snap, ref, c, sender.Handle, &store.Message{
			ID:       id,
			AuthorID: sender.ID,
			Body:     body,
			SentAt:   h.now(),
			Reacts:   []store.React{},
		}, "send")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SendLater schedules body for delivery at deliverAt (epoch seconds).
// The id is returned right away; the message becomes visible at delivery.
func (h *Hub) SendLater(ctx context.Context, token string, ref Ref, body string, deliverAt int64) (int64, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return 0, err
	}

	var id int64
	err = h.update(ctx, "send_later", func(snap *store.Snapshot) error {
		sender, c, err := h.prepareSend(snap, userID, ref, body)
		if err != nil {
			return err
		}
		if deliverAt < h.now() {
			return validationError("cannot send messages in the past")
		}
		if id, err = mintID(snap, ref, c); err != nil {
			return err
		}

		sm := &store.ScheduledMessage{
			TaskID:      uuid.NewString(),
			Kind:        ref.Kind,
			ContainerID: ref.ID,
			Message: store.Message{
				ID:       id,
				AuthorID: sender.ID,
				Body:     body,
				SentAt:   deliverAt,
				Reacts:   []store.React{},
			},
		}
		snap.Scheduled = append(snap.Scheduled, sm)
		h.armDelivery(sm)

		metrics.DeferredScheduled.Inc()
		h.log.Debug().
			Str("task_id", sm.TaskID).
			Int64("message_id", id).
			Str("container", ref.String()).
			Int64("deliver_at", deliverAt).
			Msg("message scheduled")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Share reposts an existing message, prefixed with extra, into dest.
func (h *Hub) Share(ctx context.Context, token string, sourceID int64, extra string, dest Destination) (int64, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return 0, err
	}

	var id int64
	err = h.update(ctx, "share", func(snap *store.Snapshot) error {
		if _, err := callerIn(snap, userID); err != nil {
			return err
		}
		original, err := peekBody(snap, sourceID)
		if err != nil {
			return err
		}
		ref, err := dest.ref()
		if err != nil {
			return err
		}

		body := extra + original
		sender, c, err := h.prepareSend(snap, userID, ref, body)
		if err != nil {
			return err
		}
		if id, err = mintID(snap, ref, c); err != nil {
			return err
		}
		h.appendMessage(snap, ref, c, sender.Handle, &store.Message{
			ID:       id,
			AuthorID: sender.ID,
			Body:     body,
			SentAt:   h.now(),
			Reacts:   []store.React{},
		}, "share")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// prepareSend runs the checks shared by every send path.
func (h *Hub) prepareSend(snap *store.Snapshot, userID int64, ref Ref, body string) (*store.User, *store.Container, error) {
	sender, err := callerIn(snap, userID)
	if err != nil {
		return nil, nil, err
	}
	c, err := lookupContainer(snap, ref)
	if err != nil {
		return nil, nil, err
	}
	if err := validateBody(body); err != nil {
		return nil, nil, err
	}
	if err := requireMember(c, ref, sender.ID); err != nil {
		return nil, nil, err
	}
	return sender, c, nil
}

func (h *Hub) appendMessage(snap *store.Snapshot, ref Ref, c *store.Container, senderHandle string, msg *store.Message, source string) {
	c.Prepend(msg)
	h.fanOutTags(snap, ref, c, senderHandle, msg.Body)

	metrics.MessagesDelivered.WithLabelValues(ref.Kind.String(), source).Inc()
	h.log.Debug().
		Int64("message_id", msg.ID).
		Int64("author_id", msg.AuthorID).
		Str("container", ref.String()).
		Str("source", source).
		Msg("message delivered")
}

func (h *Hub) armDelivery(sm *store.ScheduledMessage) {
	taskID := sm.TaskID
	h.arm("deliver:"+taskID, sm.Message.SentAt, func(snap *store.Snapshot) error {
		return h.deliverScheduled(snap, taskID)
	})
}

// deliverScheduled appends a scheduled message to whatever its container
// looks like at delivery time.
func (h *Hub) deliverScheduled(snap *store.Snapshot, taskID string) error {
	sm := snap.TakeScheduled(taskID)
	if sm == nil {
		return errNoop
	}

	ref := Ref{Kind: sm.Kind, ID: sm.ContainerID}
	c := snap.Container(ref.Kind, ref.ID)
	if c == nil {
		metrics.DeferredDropped.Inc()
		h.log.Warn().
			Str("task_id", taskID).
			Int64("message_id", sm.Message.ID).
			Str("container", ref.String()).
			Msg("container gone, dropping deferred message")
		return nil
	}

	msg := sm.Message
	if msg.Reacts == nil {
		msg.Reacts = []store.React{}
	}
	h.appendMessage(snap, ref, c, handleOf(snap, msg.AuthorID), &msg, "deferred")
	return nil
}

// mintID returns an id not used by any message of c nor by a pending delivery.
func mintID(snap *store.Snapshot, ref Ref, c *store.Container) (int64, error) {
	for i := 0; i < mintAttempts; i++ {
		id, err := msgid.Encode(ref.Kind, ref.ID)
		if err != nil {
			if errors.Is(err, msgid.ErrOutOfRange) {
				return 0, validationError(fmt.Sprintf("%s is outside the supported id range", ref))
			}
			return 0, fmt.Errorf("mint message id: %w", err)
		}
		if c.MessageIndex(id) < 0 && !scheduledIDTaken(snap, id) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("mint message id: %d attempts collided", mintAttempts)
}

func scheduledIDTaken(snap *store.Snapshot, id int64) bool {
	for _, sm := range snap.Scheduled {
		if sm.Message.ID == id {
			return true
		}
	}
	return false
}
