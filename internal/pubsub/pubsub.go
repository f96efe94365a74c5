// Package pubsub implements the channel and pattern publish/subscribe
// registry described in spec.md §5: SUBSCRIBE/PSUBSCRIBE/PUBLISH with
// per-subscriber bounded delivery queues, grounded on pkg/nats/client.go's
// mutex-guarded subscription-registry shape (see DESIGN.md §D), adapted
// from a single outbound NATS connection to an in-process many-subscriber
// fan-out hub.
package pubsub

import (
	"sync"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
)

// queueDepth bounds each subscriber's pending-message backlog. A slow
// subscriber drops its oldest undelivered message rather than blocking
// the publisher, matching spec.md §5's "publish never blocks" invariant.
const queueDepth = 1024

// Message is one delivered PUBLISH payload, tagged with the channel it
// arrived on (which, for a pattern subscription, differs from the
// pattern that matched it).
type Message struct {
	Channel string
	Pattern string // empty for a plain channel subscription
	Payload []byte
}

// Subscriber is a single connection's mailbox. Ch is read by the
// connection's write loop; Close must be called exactly once when the
// connection disconnects.
type Subscriber struct {
	Ch chan Message

	mu     sync.Mutex
	closed bool
}

func newSubscriber() *Subscriber {
	return &Subscriber{Ch: make(chan Message, queueDepth)}
}

// NewSubscriber creates an empty mailbox for a connection to register
// with Subscribe/PSubscribe. The connection owns the returned value and
// must call Close on disconnect.
func NewSubscriber() *Subscriber {
	return newSubscriber()
}

// deliver enqueues msg, dropping the oldest pending message if the
// subscriber's queue is full rather than blocking the publisher.
func (s *Subscriber) deliver(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.Ch <- msg:
			return
		default:
			select {
			case <-s.Ch:
			default:
			}
		}
	}
}

// Close marks the subscriber closed and closes its channel. Safe to
// call more than once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Ch)
}

// Hub is the process-wide registry of channel and pattern subscriptions.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[*Subscriber]struct{}
	patterns map[string]map[*Subscriber]struct{}
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		channels: make(map[string]map[*Subscriber]struct{}),
		patterns: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers sub on channel, creating sub on first use if nil.
// Returns sub so a connection can call Subscribe repeatedly for
// multiple channels while reusing the same mailbox.
func (h *Hub) Subscribe(sub *Subscriber, channel string) *Subscriber {
	if sub == nil {
		sub = newSubscriber()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.channels[channel] = set
	}
	set[sub] = struct{}{}
	return sub
}

// PSubscribe registers sub against a glob pattern (spec.md §5's
// PSUBSCRIBE), matched with internal/keyspace's glob engine so PUBLISH
// matching stays consistent with KEYS/SCAN pattern semantics.
func (h *Hub) PSubscribe(sub *Subscriber, pattern string) *Subscriber {
	if sub == nil {
		sub = newSubscriber()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.patterns[pattern]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.patterns[pattern] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub from channel. If channel becomes empty its
// entry is removed entirely.
func (h *Hub) Unsubscribe(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.channels, channel)
	}
}

// PUnsubscribe is Unsubscribe for a pattern subscription.
func (h *Hub) PUnsubscribe(sub *Subscriber, pattern string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.patterns[pattern]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.patterns, pattern)
	}
}

// UnsubscribeAll removes sub from every channel and pattern it is
// registered under, called once when a connection disconnects.
func (h *Hub) UnsubscribeAll(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel, set := range h.channels {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
	for pattern, set := range h.patterns {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.patterns, pattern)
		}
	}
}

// Publish delivers payload to every channel subscriber and every
// pattern subscriber whose pattern matches channel, returning the
// number of subscribers the message was delivered to (the PUBLISH
// command's reply per spec.md §5).
func (h *Hub) Publish(channel string, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for sub := range h.channels[channel] {
		sub.deliver(Message{Channel: channel, Payload: payload})
		n++
	}
	for pattern, set := range h.patterns {
		if !keyspace.Match(pattern, channel) {
			continue
		}
		for sub := range set {
			sub.deliver(Message{Channel: channel, Pattern: pattern, Payload: payload})
			n++
		}
	}
	return n
}

// ChannelsWithSubscribers returns the currently subscribed-to channels
// matching pattern (empty pattern means all), for PUBSUB CHANNELS.
func (h *Hub) ChannelsWithSubscribers(pattern string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for channel := range h.channels {
		if pattern == "" || keyspace.Match(pattern, channel) {
			out = append(out, channel)
		}
	}
	return out
}

// NumSub returns the subscriber count for channel, for PUBSUB NUMSUB.
func (h *Hub) NumSub(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

// NumPat returns the total number of distinct active patterns, for
// PUBSUB NUMPAT.
func (h *Hub) NumPat() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.patterns)
}
