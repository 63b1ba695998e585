package core

import (
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/vovakirdan/wirechat-workspace/internal/metrics"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// Mutate applies m to the message with the given id on behalf of the caller.
//
// Checks run in a fixed order and nothing is changed unless all pass:
// caller identity, payload, message lookup, membership, role, message state.
// Remove and Edit need the author or a container owner, Pin and Unpin need an
// owner, React and Unreact need membership only.
func (h *Hub) Mutate(ctx context.Context, token string, messageID int64, m Mutation) error {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return err
	}
	if err := validateMutation(m); err != nil {
		return err
	}
	if edit, ok := m.(OpEdit); ok && edit.Body == "" {
		m = OpRemove{}
	}

	return h.update(ctx, m.op(), func(snap *store.Snapshot) error {
		caller, err := callerIn(snap, userID)
		if err != nil {
			return err
		}
		ref, c, idx, err := locate(snap, messageID)
		if err != nil {
			return err
		}
		if err := requireMember(c, ref, caller.ID); err != nil {
			return err
		}
		msg := c.Messages[idx]

		switch op := m.(type) {
		case OpRemove:
			if err := requireAuthorOrOwner(c, msg, caller.ID); err != nil {
				return err
			}
			c.Messages = slices.Delete(c.Messages, idx, idx+1)

		case OpEdit:
			if err := requireAuthorOrOwner(c, msg, caller.ID); err != nil {
				return err
			}
			msg.Body = op.Body
			h.fanOutTags(snap, ref, c, caller.Handle, op.Body)

		case OpPin:
			if err := requireOwner(c, caller.ID); err != nil {
				return err
			}
			if msg.Pinned {
				return stateError("message is already pinned")
			}
			msg.Pinned = true

		case OpUnpin:
			if err := requireOwner(c, caller.ID); err != nil {
				return err
			}
			if !msg.Pinned {
				return stateError("message is not pinned")
			}
			msg.Pinned = false

		case OpReact:
			if !addReact(msg, op.Kind, caller.ID) {
				return stateError("you have already reacted to this message")
			}
			h.notifyReact(snap, ref, c, caller, msg)

		case OpUnreact:
			if !removeReact(msg, op.Kind, caller.ID) {
				return stateError("you have not reacted to this message")
			}

		default:
			return validationError(fmt.Sprintf("unsupported mutation %T", m))
		}

		metrics.Mutations.WithLabelValues(m.op()).Inc()
		h.log.Debug().
			Str("op", m.op()).
			Int64("message_id", messageID).
			Int64("user_id", caller.ID).
			Str("container", ref.String()).
			Msg("message mutated")
		return nil
	})
}

// Remove deletes a message.
func (h *Hub) Remove(ctx context.Context, token string, messageID int64) error {
	return h.Mutate(ctx, token, messageID, OpRemove{})
}

// Edit replaces a message body; an empty body removes the message.
func (h *Hub) Edit(ctx context.Context, token string, messageID int64, body string) error {
	return h.Mutate(ctx, token, messageID, OpEdit{Body: body})
}

// Pin pins a message.
func (h *Hub) Pin(ctx context.Context, token string, messageID int64) error {
	return h.Mutate(ctx, token, messageID, OpPin{})
}

// Unpin unpins a message.
func (h *Hub) Unpin(ctx context.Context, token string, messageID int64) error {
	return h.Mutate(ctx, token, messageID, OpUnpin{})
}

// React adds the caller's reaction of the given kind.
func (h *Hub) React(ctx context.Context, token string, messageID int64, kind int) error {
	return h.Mutate(ctx, token, messageID, OpReact{Kind: kind})
}

// Unreact withdraws the caller's reaction of the given kind.
func (h *Hub) Unreact(ctx context.Context, token string, messageID int64, kind int) error {
	return h.Mutate(ctx, token, messageID, OpUnreact{Kind: kind})
}

func validateMutation(m Mutation) error {
	switch op := m.(type) {
	case nil:
		return validationError("missing mutation")
	case OpEdit:
		if utf8.RuneCountInString(op.Body) > MaxBodyLength {
			return validationError(fmt.Sprintf("message cannot be over %d characters", MaxBodyLength))
		}
	case OpReact:
		if op.Kind != ReactLike {
			return validationError(fmt.Sprintf("react id %d is invalid", op.Kind))
		}
	case OpUnreact:
		if op.Kind != ReactLike {
			return validationError(fmt.Sprintf("react id %d is invalid", op.Kind))
		}
	}
	return nil
}

// peekBody returns the body of a message without permission checks. Share
// uses it to read the message being shared.
func peekBody(snap *store.Snapshot, messageID int64) (string, error) {
	_, c, idx, err := locate(snap, messageID)
	if err != nil {
		return "", err
	}
	return c.Messages[idx].Body, nil
}

func requireAuthorOrOwner(c *store.Container, msg *store.Message, userID int64) error {
	if msg.AuthorID != userID && !c.IsOwner(userID) {
		return permissionError("user does not have permission to change this message")
	}
	return nil
}

func requireOwner(c *store.Container, userID int64) error {
	if !c.IsOwner(userID) {
		return permissionError("only owners can pin or unpin messages")
	}
	return nil
}

func addReact(msg *store.Message, kind int, userID int64) bool {
	for i := range msg.Reacts {
		r := &msg.Reacts[i]
		if r.Kind != kind {
			continue
		}
		if slices.Contains(r.UserIDs, userID) {
			return false
		}
		r.UserIDs = append(r.UserIDs, userID)
		return true
	}
	msg.Reacts = append(msg.Reacts, store.React{Kind: kind, UserIDs: []int64{userID}})
	return true
}

// removeReact drops the user from the reaction and the reaction itself once
// nobody holds it.
func removeReact(msg *store.Message, kind int, userID int64) bool {
	for i := range msg.Reacts {
		r := &msg.Reacts[i]
		if r.Kind != kind {
			continue
		}
		j := slices.Index(r.UserIDs, userID)
		if j < 0 {
			return false
		}
		r.UserIDs = slices.Delete(r.UserIDs, j, j+1)
		if len(r.UserIDs) == 0 {
			msg.Reacts = slices.Delete(msg.Reacts, i, i+1)
		}
		return true
	}
	return false
}
