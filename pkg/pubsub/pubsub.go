// Package pubsub fans out path change notifications to subscribers, one
// topic per owner plus a topic that receives every change.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"time"
)

// AllOwners is the topic every change is also published on
const AllOwners = "*"

// DefaultBuffer is the per-subscription channel capacity
const DefaultBuffer = 64

// ErrShutdown is returned when subscribing to a stopped bus
var ErrShutdown = errors.New("pubsub: shut down")

// ChangeKind classifies a change
type ChangeKind string

const (
	KindMutation ChangeKind = "mutation"
	KindUndo     ChangeKind = "undo"
	KindRedo     ChangeKind = "redo"
	KindLayout   ChangeKind = "layout"
	KindLoaded   ChangeKind = "loaded"
	KindDeleted  ChangeKind = "deleted"
)

// Change describes a committed transition of one owner's path
type Change struct {
	OwnerID      string     `json:"ownerId"`
	Kind         ChangeKind `json:"kind"`
	Action       string     `json:"action,omitempty"`
	NodeCount    int        `json:"nodeCount"`
	EdgeCount    int        `json:"edgeCount"`
	LastModified time.Time  `json:"lastModified"`
}

// PubSub provides publish/subscribe of changes
type PubSub struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     func(topic string)
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic   string
	channel chan Change
	ps      *PubSub
	cancel  context.CancelFunc

	// mu guards closed and orders sends against the channel close
	mu     sync.Mutex
	closed bool
}

// Option configures a PubSub
type Option func(*PubSub)

// WithBuffer sets the per-subscription channel capacity
func WithBuffer(n int) Option {
	return func(ps *PubSub) { ps.buffer = n }
}

// WithDropHook is called whenever a change is dropped for a full subscriber
func WithDropHook(fn func(topic string)) Option {
	return func(ps *PubSub) { ps.dropped = fn }
}

// NewPubSub creates a new PubSub instance
func NewPubSub(opts ...Option) *PubSub {
	ps := &PubSub{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      DefaultBuffer,
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// Subscribe creates a subscription to topic that ends when ctx is done
func (ps *PubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Change, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends c to the subscribers of its owner and of AllOwners. Sends
// never block: a full subscriber misses the change.
func (ps *PubSub) Publish(c Change) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.shutdownMu.Unlock()

	// Snapshot under the lock so sends happen outside it
	ps.mu.RLock()
	var subs []*Subscription
	for _, topic := range []string{c.OwnerID, AllOwners} {
		for sub := range ps.subscribers[topic] {
			subs = append(subs, sub)
		}
	}
	ps.mu.RUnlock()

	for _, sub := range subs {
		ps.send(sub, c)
	}
}

// send delivers c unless the subscription is full or already closed. A
// subscription in the snapshot may have been closed since.
func (ps *PubSub) send(sub *Subscription, c Change) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.channel <- c:
	default:
		if ps.dropped != nil {
			ps.dropped(sub.topic)
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic
func (ps *PubSub) SubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions and rejects new ones
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic := range ps.subscribers {
		for sub := range ps.subscribers[topic] {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's change channel. It is closed when the
// subscription ends.
func (s *Subscription) Channel() <-chan Change {
	return s.channel
}

// Topic returns the subscribed topic
func (s *Subscription) Topic() string {
	return s.topic
}

// Unsubscribe removes the subscription
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if s.ps.subscribers[s.topic] != nil {
		delete(s.ps.subscribers[s.topic], s)
		if len(s.ps.subscribers[s.topic]) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}

	s.close()
}

// close closes the subscription channel (idempotent)
func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.channel)
	}
}
