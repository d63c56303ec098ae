package bus

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/stringutils"
)

// Backpressure configuration.
const (
	MaxBackpressureRetries = 3
	BackpressureRetryDelay = 10 * time.Millisecond
)

// Subscription is one listener's mailbox.
type Subscription struct {
	Ch     chan Message
	Kinds  []Kind // nil/empty = all kinds
	Target string
}

// Visibility governs who may publish a channel message into a named
// channel. Public channels accept a channel message from anyone; private
// channels only deliver it if the sender is itself a member.
type Visibility string

const (
	ChannelPublic  Visibility = "public"
	ChannelPrivate Visibility = "private"
)

// channelState is one named subscription group: its visibility and the
// set of targets currently joined to it.
type channelState struct {
	visibility Visibility
	members    map[string]bool
}

// Bus routes messages between addressable participants (agents, the Queen,
// the Scheduler, external subscribers of the HTTP/WebSocket surface).
type Bus struct {
	mu            sync.RWMutex
	subscribers   map[string][]*Subscription // target -> subscriptions
	channels      map[string]*channelState   // channel name -> visibility + members
	pairLocks     map[string]*sync.Mutex     // "from|to" -> lock, serializes direct delivery order
	pairMu        sync.Mutex
	droppedCount  uint64
	queryWaiters  map[string]chan *Message // correlation id -> reply channel
	queryMu       sync.Mutex
	mirror        Mirror // optional external mirror (e.g. NATS)
}

// Mirror optionally republishes bus traffic onto an external transport.
type Mirror interface {
	Publish(msg *Message) error
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subscribers:  make(map[string][]*Subscription),
		channels:     make(map[string]*channelState),
		pairLocks:    make(map[string]*sync.Mutex),
		queryWaiters: make(map[string]chan *Message),
	}
}

// SetMirror attaches (or clears, with nil) an external mirror.
func (b *Bus) SetMirror(m Mirror) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mirror = m
}

// Subscribe registers a mailbox for target, optionally filtered to kinds.
func (b *Bus) Subscribe(target string, kinds []Kind) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		Ch:     make(chan Message, 100),
		Kinds:  kinds,
		Target: target,
	}
	b.subscribers[target] = append(b.subscribers[target], sub)
	return sub.Ch
}

// Unsubscribe removes a mailbox and closes its channel. Idempotent: calling
// it twice, or with an unknown channel, is a no-op.
func (b *Bus) Unsubscribe(target string, ch <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, exists := b.subscribers[target]
	if !exists {
		return
	}
	for i, sub := range subs {
		if sub.Ch == ch {
			close(sub.Ch)
			b.subscribers[target] = append(subs[:i], subs[i+1:]...)
			if len(b.subscribers[target]) == 0 {
				delete(b.subscribers, target)
			}
			return
		}
	}
}

// CreateChannel declares channel with a visibility if it doesn't already
// exist. Calling it again on an existing channel is a no-op: visibility is
// fixed at first creation, whether that happens here or implicitly via
// JoinChannel.
func (b *Bus) CreateChannel(channel string, visibility Visibility) {
	channel = sanitizeChannelName(channel)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channelLocked(channel, visibility)
}

// sanitizeChannelName strips stray whitespace a caller-assembled channel
// name might carry (e.g. built by string concatenation elsewhere) so two
// channels that differ only by incidental spacing don't end up as
// distinct entries in the channel map.
func sanitizeChannelName(channel string) string {
	if stringutils.IsEmpty(channel) {
		return channel
	}
	return stringutils.TrimAll(channel)
}

func (b *Bus) channelLocked(channel string, visibility Visibility) *channelState {
	cs, ok := b.channels[channel]
	if !ok {
		if visibility == "" {
			visibility = ChannelPublic
		}
		cs = &channelState{visibility: visibility, members: make(map[string]bool)}
		b.channels[channel] = cs
	}
	return cs
}

// JoinChannel subscribes target to a named channel, implicitly creating it
// as public if it doesn't exist yet. Idempotent.
func (b *Bus) JoinChannel(channel, target string) {
	channel = sanitizeChannelName(channel)
	b.mu.Lock()
	defer b.mu.Unlock()
	cs := b.channelLocked(channel, ChannelPublic)
	cs.members[target] = true
}

// LeaveChannel unsubscribes target from a named channel. Idempotent. A
// channel with no members left is forgotten, so its visibility is not
// fixed by a transient member set.
func (b *Bus) LeaveChannel(channel, target string) {
	channel = sanitizeChannelName(channel)
	b.mu.Lock()
	defer b.mu.Unlock()
	if cs, ok := b.channels[channel]; ok {
		delete(cs.members, target)
		if len(cs.members) == 0 {
			delete(b.channels, channel)
		}
	}
}

// ChannelVisibility reports a known channel's visibility and whether the
// channel exists at all.
func (b *Bus) ChannelVisibility(channel string) (Visibility, bool) {
	channel = sanitizeChannelName(channel)
	b.mu.RLock()
	defer b.mu.RUnlock()
	cs, ok := b.channels[channel]
	if !ok {
		return "", false
	}
	return cs.visibility, true
}

func pairKey(from, to string) string { return from + "|" + to }

func (b *Bus) pairLock(from, to string) *sync.Mutex {
	key := pairKey(from, to)
	b.pairMu.Lock()
	defer b.pairMu.Unlock()
	l, ok := b.pairLocks[key]
	if !ok {
		l = &sync.Mutex{}
		b.pairLocks[key] = l
	}
	return l
}

// Publish routes msg according to its Kind. Direct and task_assignment
// messages are serialized per (From,To) pair so two goroutines racing to
// send to the same recipient can never be delivered out of call order.
func (b *Bus) Publish(msg *Message) {
	if msg.Kind == KindDirect || msg.Kind == KindTaskAssignment || msg.Kind == KindResponse {
		lock := b.pairLock(msg.From, msg.To)
		lock.Lock()
		defer lock.Unlock()
	}

	b.mu.RLock()
	mirror := b.mirror
	b.mu.RUnlock()
	if mirror != nil {
		if err := mirror.Publish(msg); err != nil {
			log.Printf("[BUS] mirror publish failed: kind=%s id=%s err=%v", msg.Kind, msg.ID, err)
		}
	}

	if msg.Kind == KindResponse && msg.CorrelationID != "" {
		b.queryMu.Lock()
		waiter, ok := b.queryWaiters[msg.CorrelationID]
		b.queryMu.Unlock()
		if ok {
			select {
			case waiter <- msg:
			default:
			}
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var targets []*Subscription
	switch msg.Kind {
	case KindBroadcast:
		for _, subs := range b.subscribers {
			targets = append(targets, subs...)
		}
	case KindChannel:
		cs, ok := b.channels[sanitizeChannelName(msg.Channel)]
		if !ok {
			break
		}
		if cs.visibility == ChannelPrivate && !cs.members[msg.From] {
			log.Printf("[BUS] dropped channel message: sender %q is not a member of private channel %q", msg.From, msg.Channel)
			break
		}
		for member := range cs.members {
			targets = append(targets, b.subscribers[member]...)
		}
	default:
		targets = append(targets, b.subscribers[msg.To]...)
		targets = append(targets, b.subscribers["all"]...)
	}

	for _, sub := range targets {
		if matchesKind(msg.Kind, sub.Kinds) {
			b.sendWithBackpressure(sub, msg)
		}
	}
}

func matchesKind(k Kind, filter []Kind) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == k {
			return true
		}
	}
	return false
}

func (b *Bus) sendWithBackpressure(sub *Subscription, msg *Message) {
	select {
	case sub.Ch <- *msg:
		return
	default:
	}

	for retry := 1; retry <= MaxBackpressureRetries; retry++ {
		time.Sleep(BackpressureRetryDelay)
		select {
		case sub.Ch <- *msg:
			return
		default:
		}
	}

	dropped := atomic.AddUint64(&b.droppedCount, 1)
	log.Printf("[BUS] WARNING: dropped message after %d retries: kind=%s to=%s id=%s (total dropped: %d)",
		MaxBackpressureRetries, msg.Kind, sub.Target, msg.ID, dropped)
}

// DroppedCount returns the number of messages dropped due to full mailboxes.
func (b *Bus) DroppedCount() uint64 {
	return atomic.LoadUint64(&b.droppedCount)
}

// Query sends a KindQuery message to `to` and blocks until a matching
// KindResponse arrives or ctx is done, returning hiveerr.QueryTimeout on
// deadline exceeded.
func (b *Bus) Query(ctx context.Context, from, to string, payload map[string]interface{}) (*Message, error) {
	msg := NewMessage(KindQuery, from, to, PriorityNormal, payload)
	msg.CorrelationID = msg.ID

	waiter := make(chan *Message, 1)
	b.queryMu.Lock()
	b.queryWaiters[msg.CorrelationID] = waiter
	b.queryMu.Unlock()
	defer func() {
		b.queryMu.Lock()
		delete(b.queryWaiters, msg.CorrelationID)
		b.queryMu.Unlock()
	}()

	b.Publish(msg)

	select {
	case resp := <-waiter:
		return resp, nil
	case <-ctx.Done():
		return nil, hiveerr.Wrap(hiveerr.QueryTimeout, "query "+msg.ID+" to "+to, ctx.Err())
	}
}

// Respond publishes a KindResponse message correlated to a received query.
func (b *Bus) Respond(query *Message, from string, payload map[string]interface{}) {
	resp := NewMessage(KindResponse, from, query.From, PriorityNormal, payload)
	resp.CorrelationID = query.CorrelationID
	b.Publish(resp)
}
