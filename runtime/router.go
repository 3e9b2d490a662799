package runtime

import (
	"log/slog"

	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/observability"

	"github.com/google/uuid"
)

// Router is the topic fan-out. Publish delivers to every subscribed sink,
// best-effort: a sink that refuses a frame (full buffer, closed connection)
// loses it without affecting the publisher or the other subscribers.
// Publish never blocks on any other operation, so a broadcast for one room
// cannot wait on message operations of another.
type Router struct {
	log      *slog.Logger
	registry *Registry
	monitor  *observability.Monitor
}

func NewRouter(log *slog.Logger, registry *Registry, monitor *observability.Monitor) *Router {
	return &Router{log: log, registry: registry, monitor: monitor}
}

func (r *Router) Publish(topic string, payload any) {
	out := contract.Outbound{Topic: topic, Payload: payload}
	for _, sink := range r.registry.SinksFor(topic) {
		if err := sink.Consume(out); err != nil {
			r.log.Debug("Dropping delivery", "topic", topic, "error", err)
			r.monitor.IncrDroppedDeliveries()
		}
	}
	r.monitor.IncrBroadcasts()
}

func (r *Router) Subscribe(connID uuid.UUID, subjectID string, topic string, sink contract.EventSink) {
	r.registry.Subscribe(connID, subjectID, topic, sink)
}

func (r *Router) Unsubscribe(connID uuid.UUID, topic string) {
	r.registry.Unsubscribe(connID, topic)
}

func (r *Router) DropConnection(connID uuid.UUID) {
	r.registry.DropConnection(connID)
}

func (r *Router) RevokeRoom(subjectID string, roomID domain.RoomID) {
	r.registry.RevokeRoom(subjectID, roomID)
}

var _ contract.TopicRouter = (*Router)(nil)
