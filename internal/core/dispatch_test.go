package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

func TestSendAppendsToFront(t *testing.T) {
	env := newTestEnv(t)

	first := env.send(t, alice, ChannelRef(1), "first")
	second := env.send(t, bob, ChannelRef(1), "second")
	require.NotEqual(t, first, second)

	kind, containerID, err := msgid.Decode(second)
	require.NoError(t, err)
	require.Equal(t, msgid.Channel, kind)
	require.Equal(t, int64(1), containerID)

	page := env.page(t, alice, ChannelRef(1), 0)
	require.Len(t, page.Messages, 2)
	require.Equal(t, second, page.Messages[0].ID)
	require.Equal(t, "second", page.Messages[0].Body)
	require.Equal(t, int64(2), page.Messages[0].AuthorID)
	require.Equal(t, testEpoch.Unix(), page.Messages[0].SentAt)
	require.Equal(t, first, page.Messages[1].ID)
}

func TestSendToDM(t *testing.T) {
	env := newTestEnv(t)

	id := env.send(t, bob, DMRef(1), "psst")
	kind, _, err := msgid.Decode(id)
	require.NoError(t, err)
	require.Equal(t, msgid.DM, kind)

	page := env.page(t, alice, DMRef(1), 0)
	require.Len(t, page.Messages, 1)
	require.Equal(t, "psst", page.Messages[0].Body)
}

func TestSendValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.hub.Send(ctx, alice, ChannelRef(1), "")
	requireKind(t, err, ErrValidation)

	_, err = env.hub.Send(ctx, alice, ChannelRef(1), strings.Repeat("a", MaxBodyLength+1))
	requireKind(t, err, ErrValidation)

	// Length is counted in characters, not bytes.
	_, err = env.hub.Send(ctx, alice, ChannelRef(1), strings.Repeat("é", MaxBodyLength))
	require.NoError(t, err)

	_, err = env.hub.Send(ctx, carol, ChannelRef(1), "let me in")
	requireKind(t, err, ErrPermission)

	_, err = env.hub.Send(ctx, alice, ChannelRef(42), "anyone?")
	requireKind(t, err, ErrNotFound)

	_, err = env.hub.Send(ctx, carol, DMRef(1), "hi")
	requireKind(t, err, ErrPermission)
}

func TestSendLaterDeliversAtDeadline(t *testing.T) {
	env := newTestEnv(t)
	deliverAt := testEpoch.Unix() + 60

	id, err := env.hub.SendLater(context.Background(), alice, ChannelRef(1), "see you @bob", deliverAt)
	require.NoError(t, err)

	// The id exists before the message is visible.
	snap := env.snapshot(t)
	require.Empty(t, containerOf(snap, ChannelRef(1)).Messages)
	require.Len(t, snap.Scheduled, 1)
	require.Equal(t, id, snap.Scheduled[0].Message.ID)
	require.Empty(t, userOf(snap, 2).Notifications)

	env.advance(59 * time.Second)
	require.Empty(t, containerOf(env.snapshot(t), ChannelRef(1)).Messages)

	env.advance(time.Second)
	env.eventually(t, func(s *store.Snapshot) bool {
		return len(containerOf(s, ChannelRef(1)).Messages) == 1
	}, "deferred message was not delivered")

	snap = env.snapshot(t)
	msg := containerOf(snap, ChannelRef(1)).Messages[0]
	require.Equal(t, id, msg.ID)
	require.Equal(t, deliverAt, msg.SentAt)
	require.Empty(t, snap.Scheduled)
	require.Len(t, userOf(snap, 2).Notifications, 1)
}

func TestSendLaterSeesLaterWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.hub.SendLater(ctx, alice, ChannelRef(1), "later", testEpoch.Unix()+5)
	require.NoError(t, err)

	now := env.send(t, bob, ChannelRef(1), "now")
	doomed := env.send(t, bob, ChannelRef(1), "doomed")
	require.NoError(t, env.hub.Remove(ctx, bob, doomed))
	require.NoError(t, env.hub.Pin(ctx, alice, now))

	env.advance(5 * time.Second)
	env.eventually(t, func(s *store.Snapshot) bool {
		return len(containerOf(s, ChannelRef(1)).Messages) == 2
	}, "deferred message was not delivered")

	msgs := containerOf(env.snapshot(t), ChannelRef(1)).Messages
	require.Equal(t, "later", msgs[0].Body)
	require.Equal(t, now, msgs[1].ID)
	require.True(t, msgs[1].Pinned)
}

func TestSendLaterDroppedWhenContainerGone(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.hub.SendLater(context.Background(), alice, ChannelRef(1), "later", testEpoch.Unix()+5)
	require.NoError(t, err)

	err = env.hub.update(context.Background(), "drop_channel", func(snap *store.Snapshot) error {
		snap.Channels = snap.Channels[1:]
		return nil
	})
	require.NoError(t, err)

	env.advance(5 * time.Second)
	env.eventually(t, func(s *store.Snapshot) bool {
		return len(s.Scheduled) == 0
	}, "deferred message was not consumed")
}

func TestSendLaterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.hub.SendLater(ctx, alice, ChannelRef(1), "yesterday", testEpoch.Unix()-1)
	requireKind(t, err, ErrValidation)

	_, err = env.hub.SendLater(ctx, carol, ChannelRef(1), "later", testEpoch.Unix()+10)
	requireKind(t, err, ErrPermission)

	_, err = env.hub.SendLater(ctx, alice, ChannelRef(1), "", testEpoch.Unix()+10)
	requireKind(t, err, ErrValidation)

	require.Empty(t, env.snapshot(t).Scheduled)
}

func TestShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	source := env.send(t, alice, ChannelRef(2), "release notes")

	id, err := env.hub.Share(ctx, bob, source, "fyi: ", Destination{ChannelID: store.NoContainer, DMID: 1})
	require.NoError(t, err)

	page := env.page(t, alice, DMRef(1), 0)
	require.Len(t, page.Messages, 1)
	require.Equal(t, id, page.Messages[0].ID)
	require.Equal(t, "fyi: release notes", page.Messages[0].Body)
	require.Equal(t, int64(2), page.Messages[0].AuthorID)

	// The source is left untouched.
	require.Len(t, env.page(t, alice, ChannelRef(2), 0).Messages, 1)
}

func TestShareValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	source := env.send(t, alice, ChannelRef(1), strings.Repeat("x", 990))

	_, err := env.hub.Share(ctx, alice, source, "", Destination{ChannelID: 2, DMID: 1})
	requireKind(t, err, ErrValidation)

	_, err = env.hub.Share(ctx, alice, source, "", Destination{ChannelID: store.NoContainer, DMID: store.NoContainer})
	requireKind(t, err, ErrValidation)

	_, err = env.hub.Share(ctx, alice, source, strings.Repeat("y", 11), Destination{ChannelID: 2, DMID: store.NoContainer})
	requireKind(t, err, ErrValidation)

	_, err = env.hub.Share(ctx, alice, source+1, "", Destination{ChannelID: 2, DMID: store.NoContainer})
	requireKind(t, err, ErrNotFound)

	_, err = env.hub.Share(ctx, carol, source, "", Destination{ChannelID: 1, DMID: store.NoContainer})
	requireKind(t, err, ErrPermission)

	_, err = env.hub.Share(ctx, alice, source, strings.Repeat("y", 10), Destination{ChannelID: 2, DMID: store.NoContainer})
	require.NoError(t, err)
}
