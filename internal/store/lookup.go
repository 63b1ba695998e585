package store

import (
	"slices"

	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
)

// User returns the active user with the given id.
func (s *Snapshot) User(id int64) *User {
	for _, u := range s.Users {
		if u.ID == id && !u.Removed {
			return u
		}
	}
	return nil
}

// UserByHandle returns the active user with exactly the given handle.
func (s *Snapshot) UserByHandle(handle string) *User {
	for _, u := range s.Users {
		if u.Handle == handle && !u.Removed {
			return u
		}
	}
	return nil
}

// Container returns the channel or DM identified by kind and id.
func (s *Snapshot) Container(kind msgid.Kind, id int64) *Container {
	var list []*Container
	switch kind {
	case msgid.Channel:
		list = s.Channels
	case msgid.DM:
		list = s.DMs
	default:
		return nil
	}
	for _, c := range list {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Standup returns the active standup of a container, if any.
func (s *Snapshot) Standup(kind msgid.Kind, containerID int64) *Standup {
	for _, st := range s.Standups {
		if st.Kind == kind && st.ContainerID == containerID {
			return st
		}
	}
	return nil
}

// RemoveStandup drops the standup of a container. Returns true if removed.
func (s *Snapshot) RemoveStandup(kind msgid.Kind, containerID int64) bool {
	n := len(s.Standups)
	s.Standups = slices.DeleteFunc(s.Standups, func(st *Standup) bool {
		return st.Kind == kind && st.ContainerID == containerID
	})
	return len(s.Standups) != n
}

// TakeScheduled removes and returns the scheduled message with the given task id.
func (s *Snapshot) TakeScheduled(taskID string) *ScheduledMessage {
	i := slices.IndexFunc(s.Scheduled, func(sm *ScheduledMessage) bool {
		return sm.TaskID == taskID
	})
	if i < 0 {
		return nil
	}
	sm := s.Scheduled[i]
	s.Scheduled = slices.Delete(s.Scheduled, i, i+1)
	return sm
}

// IsMember checks if the user belongs to the container.
func (c *Container) IsMember(userID int64) bool {
	return slices.Contains(c.Members, userID)
}

// IsOwner checks if the user owns the container.
func (c *Container) IsOwner(userID int64) bool {
	return slices.Contains(c.Owners, userID)
}

// MessageIndex returns the position of a message, or -1.
func (c *Container) MessageIndex(id int64) int {
	return slices.IndexFunc(c.Messages, func(m *Message) bool { return m.ID == id })
}

// Prepend inserts a message as the most recent one.
func (c *Container) Prepend(m *Message) {
	c.Messages = slices.Insert(c.Messages, 0, m)
}
