// Package broadcast provides the fan-out channel connecting every live
// websocket connection: any number of publishers, many independent
// subscribers, each with its own bounded backlog.
package broadcast

import (
	"sync"

	"chat-relay/internal/observability/metrics"
)

// Channel delivers every published payload to every current subscriber.
// Publish never blocks: when a subscriber's backlog is full, its oldest
// pending payload is evicted to make room, so a slow reader skips ahead
// instead of stalling the publishers.
type Channel struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	backlog int
}

func NewChannel(backlog int) *Channel {
	return &Channel{
		subs:    make(map[*Subscription]struct{}),
		backlog: backlog,
	}
}

// Subscription is a single receiver handle. It is owned by one connection
// and must be cancelled when that connection goes away.
type Subscription struct {
	ch      chan []byte
	channel *Channel
	once    sync.Once
}

func (c *Channel) Subscribe() *Subscription {
	sub := &Subscription{
		ch:      make(chan []byte, c.backlog),
		channel: c,
	}

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	metrics.BroadcastSubscribers.Inc()
	return sub
}

func (c *Channel) Publish(payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for sub := range c.subs {
		sub.offer(payload)
	}
}

// SubscriberCount reports how many subscriptions are currently active.
func (c *Channel) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// offer runs under the channel's read lock, so the subscription cannot be
// closed concurrently. Each iteration either delivers the payload or frees
// a slot by evicting the oldest pending one.
func (s *Subscription) offer(payload []byte) {
	for {
		select {
		case s.ch <- payload:
			return
		default:
		}

		select {
		case <-s.ch:
			metrics.BroadcastBacklogDrops.Inc()
		default:
		}
	}
}

// C is the receive side of the subscription. It is closed by Cancel.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Cancel detaches the subscription and closes its channel. Other
// subscriptions and in-flight publishes are unaffected. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.channel.mu.Lock()
		delete(s.channel.subs, s)
		close(s.ch)
		s.channel.mu.Unlock()

		metrics.BroadcastSubscribers.Dec()
	})
}
