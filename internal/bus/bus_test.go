package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectDelivery(t *testing.T) {
	b := New()
	ch := b.Subscribe("agent-1", nil)

	b.Publish(NewMessage(KindDirect, "queen", "agent-1", PriorityNormal, map[string]interface{}{"hello": "world"}))

	select {
	case msg := <-ch:
		assert.Equal(t, "queen", msg.From)
	case <-time.After(time.Second):
		t.Fatal("expected a message, got none")
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	b := New()
	a := b.Subscribe("agent-a", nil)
	c := b.Subscribe("agent-b", nil)

	b.Publish(NewMessage(KindBroadcast, "queen", "", PriorityNormal, nil))

	for _, ch := range []<-chan Message{a, c} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected broadcast delivery")
		}
	}
}

func TestChannelDeliveryToMembersOnly(t *testing.T) {
	b := New()
	member := b.Subscribe("agent-in", nil)
	nonMember := b.Subscribe("agent-out", nil)
	b.JoinChannel("research", "agent-in")

	msg := NewMessage(KindChannel, "queen", "", PriorityNormal, nil)
	msg.Channel = "research"
	b.Publish(msg)

	select {
	case <-member:
	case <-time.After(time.Second):
		t.Fatal("expected channel member to receive message")
	}
	select {
	case <-nonMember:
		t.Fatal("non-member should not receive channel message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPrivateChannelDropsNonMemberSender(t *testing.T) {
	b := New()
	member := b.Subscribe("agent-in", nil)
	b.CreateChannel("ops", ChannelPrivate)
	b.JoinChannel("ops", "agent-in")

	msg := NewMessage(KindChannel, "outsider", "", PriorityNormal, nil)
	msg.Channel = "ops"
	b.Publish(msg)

	select {
	case <-member:
		t.Fatal("private channel should not deliver a message from a non-member sender")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPrivateChannelDeliversFromMember(t *testing.T) {
	b := New()
	member := b.Subscribe("agent-in", nil)
	b.CreateChannel("ops", ChannelPrivate)
	b.JoinChannel("ops", "agent-in")

	msg := NewMessage(KindChannel, "agent-in", "", PriorityNormal, nil)
	msg.Channel = "ops"
	b.Publish(msg)

	select {
	case <-member:
	case <-time.After(time.Second):
		t.Fatal("expected private channel member-sender message to deliver")
	}
}

func TestJoinChannelDefaultsToPublic(t *testing.T) {
	b := New()
	b.JoinChannel("research", "agent-in")
	vis, ok := b.ChannelVisibility("research")
	require.True(t, ok)
	assert.Equal(t, ChannelPublic, vis)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New()
	ch := b.Subscribe("agent-1", nil)
	b.Unsubscribe("agent-1", ch)
	assert.NotPanics(t, func() { b.Unsubscribe("agent-1", ch) })
}

func TestQueryTimesOutWithoutResponse(t *testing.T) {
	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Query(ctx, "queen", "agent-1", nil)
	require.Error(t, err)
}

func TestQueryReceivesResponse(t *testing.T) {
	b := New()
	reqCh := b.Subscribe("agent-1", []Kind{KindQuery})

	go func() {
		msg := <-reqCh
		b.Respond(&msg, "agent-1", map[string]interface{}{"answer": 42})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := b.Query(ctx, "queen", "agent-1", map[string]interface{}{"question": "?"})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Payload["answer"])
}

func TestDirectOrderingPerPair(t *testing.T) {
	b := New()
	ch := b.Subscribe("agent-1", nil)

	for i := 0; i < 20; i++ {
		b.Publish(NewMessage(KindDirect, "queen", "agent-1", PriorityNormal, map[string]interface{}{"seq": i}))
	}

	for i := 0; i < 20; i++ {
		msg := <-ch
		assert.Equal(t, i, msg.Payload["seq"])
	}
}
