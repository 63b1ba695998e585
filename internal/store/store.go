package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
)

// NoContainer marks the absent side of a channel/DM pair.
const NoContainer int64 = -1

// User represents a workspace member as seen by the messaging core.
type User struct {
	ID            int64          `json:"id"`
	Handle        string         `json:"handle"`
	Removed       bool           `json:"removed,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// Notification is an entry in a user's notification feed.
// Exactly one of ChannelID and DMID is set; the other is NoContainer.
type Notification struct {
	ChannelID int64  `json:"channel_id"`
	DMID      int64  `json:"dm_id"`
	Text      string `json:"text"`
}

// React is a reaction kind together with the users holding it.
type React struct {
	Kind    int     `json:"kind"`
	UserIDs []int64 `json:"user_ids"`
}

// Message represents a persisted chat message.
type Message struct {
	ID       int64   `json:"id"`
	AuthorID int64   `json:"author_id"`
	Body     string  `json:"body"`
	SentAt   int64   `json:"sent_at"` // epoch seconds
	Pinned   bool    `json:"pinned"`
	Reacts   []React `json:"reacts"`
}

// Container is a channel or DM. Messages are ordered most recent first.
type Container struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Members  []int64    `json:"members"`
	Owners   []int64    `json:"owners"`
	Messages []*Message `json:"messages"`
}

// Standup is an active standup buffer in a container.
type Standup struct {
	Kind        msgid.Kind `json:"kind"`
	ContainerID int64      `json:"container_id"`
	Buffer      string     `json:"buffer"`
	Deadline    int64      `json:"deadline"` // epoch seconds
	InitiatorID int64      `json:"initiator_id"`
}

// ScheduledMessage is a message minted ahead of its delivery time.
type ScheduledMessage struct {
	TaskID      string     `json:"task_id"`
	Kind        msgid.Kind `json:"kind"`
	ContainerID int64      `json:"container_id"`
	Message     Message    `json:"message"`
}

// Snapshot is the whole workspace state loaded and saved as one unit.
type Snapshot struct {
	Users     []*User             `json:"users"`
	Channels  []*Container        `json:"channels"`
	DMs       []*Container        `json:"dms"`
	Standups  []*Standup          `json:"standups"`
	Scheduled []*ScheduledMessage `json:"scheduled"`
}

// NewSnapshot returns an empty workspace.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Users:     []*User{},
		Channels:  []*Container{},
		DMs:       []*Container{},
		Standups:  []*Standup{},
		Scheduled: []*ScheduledMessage{},
	}
}

// Clone returns a deep copy of s. It goes through the same JSON encoding the
// persisters use, so a clone holds exactly what a save would store.
func (s *Snapshot) Clone() (*Snapshot, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	clone := NewSnapshot()
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return clone, nil
}

// Persister loads and saves whole snapshots.
type Persister interface {
	// Load returns the stored snapshot, or an empty one if nothing was saved yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Close releases the underlying storage.
	Close() error
}
