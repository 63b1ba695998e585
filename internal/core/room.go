package core

import (
	"fmt"

	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// Ref identifies a channel or DM.
type Ref struct {
	Kind msgid.Kind
	ID   int64
}

// ChannelRef refers to the channel with the given id.
func ChannelRef(id int64) Ref {
	return Ref{Kind: msgid.Channel, ID: id}
}

// DMRef refers to the DM with the given id.
func DMRef(id int64) Ref {
	return Ref{Kind: msgid.DM, ID: id}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s %d", r.Kind, r.ID)
}

// Destination names exactly one of a channel or a DM.
// The unused side is store.NoContainer.
type Destination struct {
	ChannelID int64
	DMID      int64
}

func (d Destination) ref() (Ref, error) {
	hasChannel := d.ChannelID != store.NoContainer
	hasDM := d.DMID != store.NoContainer
	switch {
	case hasChannel && !hasDM:
		return ChannelRef(d.ChannelID), nil
	case hasDM && !hasChannel:
		return DMRef(d.DMID), nil
	default:
		return Ref{}, validationError("exactly one of channel id and dm id must be given")
	}
}

func (r Ref) notification(text string) store.Notification {
	n := store.Notification{ChannelID: store.NoContainer, DMID: store.NoContainer, Text: text}
	if r.Kind == msgid.Channel {
		n.ChannelID = r.ID
	} else {
		n.DMID = r.ID
	}
	return n
}

func lookupContainer(snap *store.Snapshot, ref Ref) (*store.Container, error) {
	c := snap.Container(ref.Kind, ref.ID)
	if c == nil {
		return nil, notFoundError(fmt.Sprintf("no %s exists", ref))
	}
	return c, nil
}

func requireMember(c *store.Container, ref Ref, userID int64) error {
	if !c.IsMember(userID) {
		return permissionError(fmt.Sprintf("user %d is not a member of %s", userID, ref))
	}
	return nil
}

// locate resolves a message id to its container and position.
func locate(snap *store.Snapshot, messageID int64) (Ref, *store.Container, int, error) {
	kind, containerID, err := msgid.Decode(messageID)
	if err != nil {
		return Ref{}, nil, -1, notFoundError(fmt.Sprintf("message %d does not exist", messageID))
	}
	ref := Ref{Kind: kind, ID: containerID}
	c := snap.Container(kind, containerID)
	if c == nil {
		return ref, nil, -1, notFoundError(fmt.Sprintf("message %d does not exist", messageID))
	}
	idx := c.MessageIndex(messageID)
	if idx < 0 {
		return ref, nil, -1, notFoundError(fmt.Sprintf("message %d does not exist", messageID))
	}
	return ref, c, idx, nil
}

// handleOf returns the handle of any user, removed ones included.
func handleOf(snap *store.Snapshot, userID int64) string {
	for _, u := range snap.Users {
		if u.ID == userID {
			return u.Handle
		}
	}
	return ""
}
