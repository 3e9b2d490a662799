package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatter-box/contract"
	"chatter-box/domain/event"
)

// recordingSink collects everything it is asked to consume.
type recordingSink struct {
	frames []contract.Outbound
	err    error
}

func (s *recordingSink) Consume(out contract.Outbound) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, out)
	return nil
}

func Test_Subscribe_And_SinksFor(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	connA, connB := uuid.New(), uuid.New()
	sinkA, sinkB := &recordingSink{}, &recordingSink{}
	topic := event.CreateTopic(1)

	registry.Subscribe(connA, "id-alice", topic, sinkA)
	registry.Subscribe(connB, "id-bob", topic, sinkB)

	req.Len(registry.SinksFor(topic), 2)
	req.Empty(registry.SinksFor(event.CreateTopic(2)))
}

func Test_Resubscribe_Replaces_Entry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	conn := uuid.New()
	topic := event.CreateTopic(1)
	registry.Subscribe(conn, "id-alice", topic, &recordingSink{})
	registry.Subscribe(conn, "id-alice", topic, &recordingSink{})

	req.Len(registry.SinksFor(topic), 1)
}

func Test_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	conn := uuid.New()
	topic := event.CreateTopic(1)
	registry.Subscribe(conn, "id-alice", topic, &recordingSink{})

	registry.Unsubscribe(conn, topic)
	req.Empty(registry.SinksFor(topic))

	// Unsubscribing twice is harmless.
	registry.Unsubscribe(conn, topic)
}

func Test_DropConnection_Clears_All_Topics(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	conn := uuid.New()
	other := uuid.New()
	for _, topic := range event.RoomTopics(1) {
		registry.Subscribe(conn, "id-alice", topic, &recordingSink{})
	}
	registry.Subscribe(other, "id-bob", event.CreateTopic(1), &recordingSink{})

	registry.DropConnection(conn)

	for _, topic := range event.RoomTopics(1) {
		if topic == event.CreateTopic(1) {
			req.Len(registry.SinksFor(topic), 1)
		} else {
			req.Empty(registry.SinksFor(topic))
		}
	}
}

func Test_RevokeRoom_Targets_One_Subject(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice1, alice2, bob := uuid.New(), uuid.New(), uuid.New()
	topic := event.CreateTopic(1)

	// Alice has two live connections on the room, Bob one.
	registry.Subscribe(alice1, "id-alice", topic, &recordingSink{})
	registry.Subscribe(alice2, "id-alice", event.EditTopic(1), &recordingSink{})
	registry.Subscribe(bob, "id-bob", topic, &recordingSink{})

	// Alice also listens to an unrelated room.
	registry.Subscribe(alice1, "id-alice", event.CreateTopic(2), &recordingSink{})

	registry.RevokeRoom("id-alice", 1)

	// Both of Alice's subscriptions on room 1 are gone, Bob's survives.
	req.Len(registry.SinksFor(topic), 1)
	req.Empty(registry.SinksFor(event.EditTopic(1)))

	// Her subscription on the other room is untouched.
	req.Len(registry.SinksFor(event.CreateTopic(2)), 1)
}
