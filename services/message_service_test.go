package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chatter-box/auth"
	"chatter-box/domain"
	"chatter-box/domain/event"
	"chatter-box/errors"
	"chatter-box/mocks"
	"chatter-box/moderation"
	"chatter-box/observability"
)

func identityContext(id, name string) context.Context {
	return auth.ContextWithIdentity(context.Background(), domain.SessionIdentity{
		SubjectID:   id,
		SubjectName: name,
	})
}

type messageServiceFixture struct {
	service   *MessageService
	authority *mocks.MockMembershipAuthority
	messages  *mocks.MockMessageRepository
	router    *mocks.MockTopicRouter
	monitor   *observability.Monitor
}

func newMessageServiceFixture(t *testing.T) messageServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	authority := mocks.NewMockMembershipAuthority(ctrl)
	messages := mocks.NewMockMessageRepository(ctrl)
	router := mocks.NewMockTopicRouter(ctrl)
	monitor := observability.NewMonitor()

	moderator, err := moderation.NewModerator([]string{"damn"}, '*')
	require.NoError(t, err)

	return messageServiceFixture{
		service:   NewMessageService(slog.Default(), authority, messages, router, &moderator, monitor),
		authority: authority,
		messages:  messages,
		router:    router,
		monitor:   monitor,
	}
}

func Test_Send_Persists_Then_Broadcasts(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-alice", "alice")

	stored := domain.Message{
		ID:        1,
		Room:      7,
		Sender:    "alice",
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}

	// Persist happens before broadcast, and the broadcast carries the view
	// of the stored message.
	gomock.InOrder(
		f.authority.EXPECT().RequireMember("id-alice", domain.RoomID(7)).Return(nil),
		f.messages.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m domain.Message) (domain.Message, error) {
			req.Equal("alice", m.Sender)
			req.Equal(domain.RoomID(7), m.Room)
			return stored, nil
		}),
		f.router.EXPECT().Publish(event.CreateTopic(7), stored.View()),
	)

	view, err := f.service.Send(ctx, 7, "hello")
	req.NoError(err)
	req.Equal(stored.View(), view)
	req.Equal(uint64(1), f.monitor.Snapshot().MessagesSent)
}

func Test_Send_Censors_Content(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-alice", "alice")

	f.authority.EXPECT().RequireMember("id-alice", domain.RoomID(7)).Return(nil)
	f.messages.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m domain.Message) (domain.Message, error) {
		// The stored content is already masked.
		req.Equal("well ****", m.Content)
		return m, nil
	})
	f.router.EXPECT().Publish(gomock.Any(), gomock.Any())

	_, err := f.service.Send(ctx, 7, "well damn")
	req.NoError(err)
}

func Test_Send_Rejects_Non_Member(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-bob", "bob")

	f.authority.EXPECT().RequireMember("id-bob", domain.RoomID(7)).Return(errors.ErrUnauthorized)

	// No persist, no broadcast: the mocks would fail on any other call.
	_, err := f.service.Send(ctx, 7, "hello")
	req.ErrorIs(err, errors.ErrUnauthorized)
	req.Zero(f.monitor.Snapshot().MessagesSent)
}

func Test_Send_Rejects_Anonymous(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)

	_, err := f.service.Send(context.Background(), 7, "hello")
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func Test_Edit_By_Sender(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-alice", "alice")

	existing := domain.Message{ID: 1, Room: 7, Sender: "alice", Content: "tpyo", CreatedAt: time.Now().UTC()}
	edited := existing
	edited.Content = "typo"

	gomock.InOrder(
		f.messages.EXPECT().GetMessage(domain.MessageID(1)).Return(existing, nil),
		f.messages.EXPECT().UpdateMessage(edited).Return(nil),
		f.router.EXPECT().Publish(event.EditTopic(7), edited.View()),
	)

	view, err := f.service.Edit(ctx, 1, "typo")
	req.NoError(err)
	req.Equal("typo", view.Content)
	req.Equal("alice", view.Sender)
	req.Equal(uint64(1), f.monitor.Snapshot().MessagesEdited)
}

func Test_Edit_Rejects_Non_Sender(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-bob", "bob")

	existing := domain.Message{ID: 1, Room: 7, Sender: "alice", Content: "hello"}
	f.messages.EXPECT().GetMessage(domain.MessageID(1)).Return(existing, nil)

	_, err := f.service.Edit(ctx, 1, "hijacked")
	req.ErrorIs(err, errors.ErrUnauthorized)
}

func Test_Edit_Unknown_Message(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-alice", "alice")

	f.messages.EXPECT().GetMessage(domain.MessageID(99)).Return(domain.Message{}, errors.ErrNotFound)

	_, err := f.service.Edit(ctx, 99, "whatever")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Delete_By_Sender_Broadcasts_Bare_ID(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-alice", "alice")

	existing := domain.Message{ID: 1, Room: 7, Sender: "alice", Content: "bye"}

	gomock.InOrder(
		f.messages.EXPECT().GetMessage(domain.MessageID(1)).Return(existing, nil),
		f.messages.EXPECT().DeleteMessage(domain.MessageID(1)).Return(nil),
		f.router.EXPECT().Publish(event.DeleteTopic(7), int64(1)),
	)

	req.NoError(f.service.Delete(ctx, 1))
	req.Equal(uint64(1), f.monitor.Snapshot().MessagesDeleted)
}

func Test_Delete_Rejects_Non_Sender(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	ctx := identityContext("id-bob", "bob")

	existing := domain.Message{ID: 1, Room: 7, Sender: "alice", Content: "hello"}
	f.messages.EXPECT().GetMessage(domain.MessageID(1)).Return(existing, nil)

	err := f.service.Delete(ctx, 1)
	req.ErrorIs(err, errors.ErrUnauthorized)
}

func Test_History_Member_Gated(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)

	f.authority.EXPECT().RequireMember("id-bob", domain.RoomID(7)).Return(errors.ErrUnauthorized)
	_, err := f.service.History(identityContext("id-bob", "bob"), 7)
	req.ErrorIs(err, errors.ErrUnauthorized)

	messages := []domain.Message{
		{ID: 1, Room: 7, Sender: "alice", Content: "one"},
		{ID: 2, Room: 7, Sender: "bob", Content: "two"},
	}
	f.authority.EXPECT().RequireMember("id-alice", domain.RoomID(7)).Return(nil)
	f.messages.EXPECT().ListRoomMessages(domain.RoomID(7)).Return(messages, nil)

	views, err := f.service.History(identityContext("id-alice", "alice"), 7)
	req.NoError(err)
	req.Len(views, 2)
	req.Equal(int64(1), views[0].ID)
}
