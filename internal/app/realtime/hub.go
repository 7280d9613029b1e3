// Package realtime fans change notifications out to subscribers keyed by chat
// or user. Subscriptions are restartable: a subscriber that falls behind is
// closed with ErrLagged and is expected to refetch state and subscribe again.
package realtime

import (
	"errors"
	"sync"
)

const (
	TypeMessageInserted = "message.inserted"
	TypeMessageUpdated  = "message.updated"
	TypeUnreadCount     = "unread.count"
	TypeBusy            = "busy"
)

var (
	ErrLagged = errors.New("realtime: subscriber fell behind")
	ErrClosed = errors.New("realtime: subscription closed")
)

type Event struct {
	Type      string `json:"type"`
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Data      any    `json:"data,omitempty"`

	// Users also receive the event on their per-user feed.
	Users []string `json:"-"`
	// Broadcast delivers to every subscription.
	Broadcast bool `json:"-"`
}

// Topic selects a feed. An empty topic receives broadcasts only.
type Topic struct {
	ChatID string
	UserID string
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

func (h *Hub) Subscribe(topic Topic) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{
		id:    h.nextID,
		topic: topic,
		ch:    make(chan Event, h.buffer),
		hub:   h,
	}
	h.subs[sub.id] = sub
	return sub
}

// Publish never blocks; a full subscriber is dropped with ErrLagged.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.wants(ev) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if !sub.offer(ev) {
			sub.closeWith(ErrLagged)
		}
	}
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

type Subscription struct {
	id    uint64
	topic Topic
	ch    chan Event
	hub   *Hub

	mu     sync.Mutex
	closed bool
	err    error
}

// Events is closed when the subscription ends; check Err afterwards.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Topic() Topic {
	return s.topic
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes; it is safe to call more than once.
func (s *Subscription) Close() {
	s.closeWith(ErrClosed)
}

func (s *Subscription) wants(ev Event) bool {
	if ev.Broadcast {
		return true
	}
	if s.topic.ChatID != "" && s.topic.ChatID == ev.ChatID {
		return true
	}
	if s.topic.UserID != "" {
		for _, u := range ev.Users {
			if u == s.topic.UserID {
				return true
			}
		}
	}
	return false
}

func (s *Subscription) offer(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscription) closeWith(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	close(s.ch)
	s.mu.Unlock()
	s.hub.remove(s.id)
}
