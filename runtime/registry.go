// Package runtime routes broadcast payloads from the message lifecycle to
// subscribed connections. It carries no business rules: authorization
// happens before a subscription is registered or a payload is published.
package runtime

import (
	"sync"

	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/domain/event"

	"github.com/google/uuid"
)

type subscription struct {
	subjectID string
	sink      contract.EventSink
}

// Registry tracks which connections listen on which topics. It keeps a
// reverse index from connection to topics so that closing a connection is a
// single call, and records the subject behind each subscription so that a
// membership revocation can tear down a subject's subscriptions to a room.
type Registry struct {
	mu          sync.RWMutex
	topics      map[string]map[uuid.UUID]subscription
	connections map[uuid.UUID]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		topics:      make(map[string]map[uuid.UUID]subscription),
		connections: make(map[uuid.UUID]map[string]struct{}),
	}
}

// SinksFor returns the sinks currently subscribed to a topic.
func (r *Registry) SinksFor(topic string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs, ok := r.topics[topic]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(subs))
	for _, sub := range subs {
		sinks = append(sinks, sub.sink)
	}
	return sinks
}

// Subscribe registers a connection's sink on a topic. Re-subscribing the
// same connection replaces the previous entry.
func (r *Registry) Subscribe(connID uuid.UUID, subjectID string, topic string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[topic]; !ok {
		r.topics[topic] = make(map[uuid.UUID]subscription)
	}
	r.topics[topic][connID] = subscription{subjectID: subjectID, sink: sink}

	if _, ok := r.connections[connID]; !ok {
		r.connections[connID] = make(map[string]struct{})
	}
	r.connections[connID][topic] = struct{}{}
}

// Unsubscribe removes one connection from one topic, cleaning up empty sets
// so the maps do not leak over time.
func (r *Registry) Unsubscribe(connID uuid.UUID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(connID, topic)
}

func (r *Registry) unsubscribeLocked(connID uuid.UUID, topic string) {
	if subs, ok := r.topics[topic]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(r.topics, topic)
		}
	}
	if topics, ok := r.connections[connID]; ok {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(r.connections, connID)
		}
	}
}

// DropConnection removes a closed connection from every topic it was
// subscribed to.
func (r *Registry) DropConnection(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.connections[connID] {
		if subs, ok := r.topics[topic]; ok {
			delete(subs, connID)
			if len(subs) == 0 {
				delete(r.topics, topic)
			}
		}
	}
	delete(r.connections, connID)
}

// RevokeRoom removes every subscription a subject holds on a room's topics,
// across all of its connections. Called when membership is withdrawn so a
// removed member stops receiving the room's broadcasts immediately.
func (r *Registry) RevokeRoom(subjectID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, topic := range event.RoomTopics(roomID) {
		subs, ok := r.topics[topic]
		if !ok {
			continue
		}
		for connID, sub := range subs {
			if sub.subjectID == subjectID {
				r.unsubscribeLocked(connID, topic)
			}
		}
	}
}
