//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chatter-box/domain"

	"github.com/google/uuid"
)

// IdentityVerifier validates an opaque bearer credential and yields the
// subject it names. The returned identity has no ConnectionID yet; the
// transport fills it in when binding the identity to a connection.
type IdentityVerifier interface {
	Verify(credential string) (domain.SessionIdentity, error)
}

// MembershipAuthority answers membership and creator questions against the
// current persisted state. No caching: a membership change must take effect
// on the very next operation.
type MembershipAuthority interface {
	IsMember(subjectID string, roomID domain.RoomID) (bool, error)
	IsCreator(subjectName string, roomID domain.RoomID) (bool, error)
	// RequireMember fails with ErrNotFound when the room does not exist and
	// ErrUnauthorized when the subject is not in its member set.
	RequireMember(subjectID string, roomID domain.RoomID) error
}

// Outbound is one frame handed to a subscribed connection.
type Outbound struct {
	Topic   string
	Payload any
}

// EventSink receives published frames for one connection. Consume must not
// block: a slow or dead subscriber returns an error and loses the frame
// rather than stalling the publisher.
type EventSink interface {
	Consume(out Outbound) error
}

// TopicRouter fans published payloads out to every connection subscribed to
// a topic. Membership is checked by the caller at subscribe time only;
// RevokeRoom removes a subject's live subscriptions when its membership is
// withdrawn mid-connection.
type TopicRouter interface {
	Publish(topic string, payload any)
	Subscribe(connID uuid.UUID, subjectID string, topic string, sink EventSink)
	Unsubscribe(connID uuid.UUID, topic string)
	DropConnection(connID uuid.UUID)
	RevokeRoom(subjectID string, roomID domain.RoomID)
}

type UserRepository interface {
	CreateUser(username, email, hashedPassword string) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	GetUsersByUsernames(usernames []string) ([]domain.User, error)
}

type RoomRepository interface {
	CreateRoom(name, creator string, members []domain.Member) (domain.Room, error)
	GetRoom(id domain.RoomID) (domain.Room, error)
	// DeleteRoom removes the room and its membership facts. The message
	// cascade is executed alongside by the caller via MessageRepository.
	DeleteRoom(id domain.RoomID) error
	AddMember(id domain.RoomID, member domain.Member) error
	RemoveMember(id domain.RoomID, subjectID string) error
	IsMember(id domain.RoomID, subjectID string) (bool, error)
	ListMembers(id domain.RoomID) ([]domain.Member, error)
}

type MessageRepository interface {
	StoreMessage(message domain.Message) (domain.Message, error)
	GetMessage(id domain.MessageID) (domain.Message, error)
	UpdateMessage(message domain.Message) error
	DeleteMessage(id domain.MessageID) error
	ListRoomMessages(room domain.RoomID) ([]domain.Message, error)
	DeleteRoomMessages(room domain.RoomID) (int, error)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
