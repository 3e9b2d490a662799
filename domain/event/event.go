// Package event defines the broadcast events emitted after a message
// operation has been durably applied, and the deterministic topic naming
// that routes them. One topic exists per room and operation kind.
package event

import (
	"fmt"
	"strconv"
	"strings"

	"chatter-box/domain"
)

type Kind string

const (
	KindCreate Kind = "create"
	KindEdit   Kind = "edit"
	KindDelete Kind = "delete"
)

const topicPrefix = "/topic/chat."

// CreateTopic names the channel carrying newly created messages of a room.
func CreateTopic(room domain.RoomID) string {
	return topicPrefix + strconv.FormatInt(int64(room), 10)
}

func EditTopic(room domain.RoomID) string {
	return CreateTopic(room) + ".edit"
}

func DeleteTopic(room domain.RoomID) string {
	return CreateTopic(room) + ".delete"
}

// TopicFor maps (room, kind) to its broadcast channel name.
func TopicFor(room domain.RoomID, kind Kind) string {
	switch kind {
	case KindEdit:
		return EditTopic(room)
	case KindDelete:
		return DeleteTopic(room)
	default:
		return CreateTopic(room)
	}
}

// RoomTopics lists every channel derived from a room, in kind order.
func RoomTopics(room domain.RoomID) []string {
	return []string{CreateTopic(room), EditTopic(room), DeleteTopic(room)}
}

// ParseTopic recovers the room id and operation kind from a topic name.
// Subscription requests arrive as raw topic strings; the room id extracted
// here is what the membership gate checks.
func ParseTopic(topic string) (domain.RoomID, Kind, error) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return 0, "", fmt.Errorf("unknown topic %q", topic)
	}

	kind := KindCreate
	if s, found := strings.CutSuffix(rest, ".edit"); found {
		rest, kind = s, KindEdit
	} else if s, found := strings.CutSuffix(rest, ".delete"); found {
		rest, kind = s, KindDelete
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("unknown topic %q", topic)
	}
	return domain.RoomID(id), kind, nil
}

// DomainEvent is a broadcast-ready fact about a message operation that has
// already been persisted. Body is the payload delivered to subscribers.
type DomainEvent interface {
	Topic() string
	Body() any
}

type MessageCreated struct {
	Room    domain.RoomID
	Message domain.MessageView
}

func (e MessageCreated) Topic() string { return CreateTopic(e.Room) }
func (e MessageCreated) Body() any     { return e.Message }

type MessageEdited struct {
	Room    domain.RoomID
	Message domain.MessageView
}

func (e MessageEdited) Topic() string { return EditTopic(e.Room) }
func (e MessageEdited) Body() any     { return e.Message }

// MessageDeleted carries only the id of the removed message.
type MessageDeleted struct {
	Room      domain.RoomID
	MessageID domain.MessageID
}

func (e MessageDeleted) Topic() string { return DeleteTopic(e.Room) }
func (e MessageDeleted) Body() any     { return int64(e.MessageID) }
