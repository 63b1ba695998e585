package core

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/vovakirdan/wirechat-workspace/internal/metrics"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// EventKind is a reason for notifying a user.
type EventKind int

const (
	// EventTagged notifies a user tagged with @handle in a message.
	EventTagged EventKind = iota
	// EventReacted notifies an author that someone reacted to their message.
	EventReacted
)

func (k EventKind) String() string {
	switch k {
	case EventTagged:
		return "tagged"
	case EventReacted:
		return "reacted"
	default:
		return "unknown"
	}
}

// NotificationFeedSize is how many notifications a feed read returns.
const NotificationFeedSize = 20

const previewLength = 20

var tagPattern = regexp.MustCompile(`@(\w+)`)

// taggedUsers returns the distinct active users tagged in body, in order of
// first appearance. Unknown handles are ignored.
func taggedUsers(snap *store.Snapshot, body string) []*store.User {
	var users []*store.User
	for _, m := range tagPattern.FindAllStringSubmatch(body, -1) {
		u := snap.UserByHandle(m[1])
		if u == nil || slices.Contains(users, u) {
			continue
		}
		users = append(users, u)
	}
	return users
}

func preview(body string) string {
	r := []rune(body)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r)
}

// fanOutTags notifies everyone tagged in body.
func (h *Hub) fanOutTags(snap *store.Snapshot, ref Ref, c *store.Container, senderHandle, body string) {
	for _, u := range taggedUsers(snap, body) {
		text := fmt.Sprintf("%s tagged you in %s: %s", senderHandle, c.Name, preview(body))
		h.push(u, ref, EventTagged, text)
	}
}

// notifyReact tells the author of msg about a new reaction, unless the
// author has left the container.
func (h *Hub) notifyReact(snap *store.Snapshot, ref Ref, c *store.Container, reactor *store.User, msg *store.Message) {
	if !c.IsMember(msg.AuthorID) {
		return
	}
	author := snap.User(msg.AuthorID)
	if author == nil {
		return
	}
	text := fmt.Sprintf("%s reacted to your message in %s", reactor.Handle, c.Name)
	h.push(author, ref, EventReacted, text)
}

func (h *Hub) push(u *store.User, ref Ref, kind EventKind, text string) {
	u.Notifications = slices.Insert(u.Notifications, 0, ref.notification(text))
	metrics.NotificationsPushed.WithLabelValues(kind.String()).Inc()
	h.log.Debug().Int64("user_id", u.ID).Str("event", kind.String()).Str("container", ref.String()).Msg("notification pushed")
}
