package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// PageSize is the number of messages returned per page.
const PageSize = 50

// ReactView is a reaction as seen by a particular caller.
type ReactView struct {
	Kind     int
	UserIDs  []int64
	ByCaller bool
}

// MessageView is the read model of a message.
type MessageView struct {
	ID       int64
	AuthorID int64
	Body     string
	SentAt   int64
	Pinned   bool
	Reacts   []ReactView
}

// Page is a window of a container's messages, most recent first.
// End is the start of the next page, or -1 when there is none.
type Page struct {
	Messages []MessageView
	Start    int
	End      int
}

func viewOf(m *store.Message, callerID int64) MessageView {
	reacts := make([]ReactView, 0, len(m.Reacts))
	for _, r := range m.Reacts {
		reacts = append(reacts, ReactView{
			Kind:     r.Kind,
			UserIDs:  slices.Clone(r.UserIDs),
			ByCaller: slices.Contains(r.UserIDs, callerID),
		})
	}
	return MessageView{
		ID:       m.ID,
		AuthorID: m.AuthorID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		Pinned:   m.Pinned,
		Reacts:   reacts,
	}
}

// Messages returns up to PageSize messages of a container starting at start.
func (h *Hub) Messages(ctx context.Context, token string, ref Ref, start int) (Page, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return Page{}, err
	}

	var page Page
	err = h.view(ctx, "messages", func(snap *store.Snapshot) error {
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
		if start < 0 {
			return validationError("start index cannot be negative")
		}
		if start > len(c.Messages) {
			return validationError(fmt.Sprintf("start index %d is past the %d messages in %s", start, len(c.Messages), ref))
		}

		end := start + PageSize
		window := c.Messages[start:min(end, len(c.Messages))]
		page.Start = start
		page.End = -1
		if end < len(c.Messages) {
			page.End = end
		}
		page.Messages = make([]MessageView, 0, len(window))
		for _, m := range window {
			page.Messages = append(page.Messages, viewOf(m, caller.ID))
		}
		return nil
	})
	return page, err
}

// Search returns every message containing query, ignoring case, across the
// channels and DMs the caller belongs to.
func (h *Hub) Search(ctx context.Context, token, query string) ([]MessageView, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(query)
	if n < 1 || n > MaxBodyLength {
		return nil, validationError(fmt.Sprintf("query must be 1 to %d characters", MaxBodyLength))
	}
	needle := strings.ToLower(query)

	var found []MessageView
	err = h.view(ctx, "search", func(snap *store.Snapshot) error {
		caller, err := callerIn(snap, userID)
		if err != nil {
			return err
		}
		for _, list := range [][]*store.Container{snap.Channels, snap.DMs} {
			for _, c := range list {
				if !c.IsMember(caller.ID) {
					continue
				}
				for _, m := range c.Messages {
					if strings.Contains(strings.ToLower(m.Body), needle) {
						found = append(found, viewOf(m, caller.ID))
					}
				}
			}
		}
		return nil
	})
	return found, err
}

// Notifications returns the caller's most recent notifications.
func (h *Hub) Notifications(ctx context.Context, token string) ([]store.Notification, error) {
	userID, err := h.resolveCaller(token)
	if err != nil {
		return nil, err
	}

	var feed []store.Notification
	err = h.view(ctx, "notifications", func(snap *store.Snapshot) error {
		caller, err := callerIn(snap, userID)
		if err != nil {
			return err
		}
		n := min(len(caller.Notifications), NotificationFeedSize)
		feed = slices.Clone(caller.Notifications[:n])
		return nil
	})
	return feed, err
}
