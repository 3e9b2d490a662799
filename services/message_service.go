package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatter-box/auth"
	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/domain/event"
	"chatter-box/errors"
	"chatter-box/moderation"
	"chatter-box/observability"
)

type IMessageService interface {
	Send(ctx context.Context, roomID domain.RoomID, content string) (domain.MessageView, error)
	Edit(ctx context.Context, messageID domain.MessageID, newContent string) (domain.MessageView, error)
	Delete(ctx context.Context, messageID domain.MessageID) error
	History(ctx context.Context, roomID domain.RoomID) ([]domain.MessageView, error)
}

// MessageService applies the message lifecycle. Every operation persists
// first, then broadcasts: subscribers never see an event whose message is
// not already durable, and a failed operation emits nothing.
type MessageService struct {
	log       *slog.Logger
	authority contract.MembershipAuthority
	messages  contract.MessageRepository
	router    contract.TopicRouter
	moderator *moderation.Moderator
	monitor   *observability.Monitor
}

func NewMessageService(
	log *slog.Logger,
	authority contract.MembershipAuthority,
	messages contract.MessageRepository,
	router contract.TopicRouter,
	moderator *moderation.Moderator,
	monitor *observability.Monitor,
) *MessageService {
	return &MessageService{
		log:       log,
		authority: authority,
		messages:  messages,
		router:    router,
		moderator: moderator,
		monitor:   monitor,
	}
}

// Send persists a new message in the room and broadcasts it to the room's
// creation topic. The sender must be a current member at the moment of the
// call; the identity comes from the frame context, never from the payload.
func (s *MessageService) Send(ctx context.Context, roomID domain.RoomID, content string) (domain.MessageView, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return domain.MessageView{}, errors.ErrUnauthenticated
	}

	if err := s.authority.RequireMember(identity.SubjectID, roomID); err != nil {
		return domain.MessageView{}, err
	}

	censored := s.censor(content)

	message, err := s.messages.StoreMessage(domain.Message{
		Room:      roomID,
		Sender:    identity.SubjectName,
		Content:   censored,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.MessageView{}, fmt.Errorf("storing message: %w", err)
	}

	s.monitor.IncrMessagesSent()
	s.publish(event.MessageCreated{Room: roomID, Message: message.View()})
	return message.View(), nil
}

// Edit replaces the content of an existing message. Only the original
// sender may edit; room membership is not re-checked, authorship is the
// gate. Sender and timestamps are immutable.
func (s *MessageService) Edit(ctx context.Context, messageID domain.MessageID, newContent string) (domain.MessageView, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return domain.MessageView{}, errors.ErrUnauthenticated
	}

	message, err := s.messages.GetMessage(messageID)
	if err != nil {
		return domain.MessageView{}, err
	}
	if message.Sender != identity.SubjectName {
		return domain.MessageView{}, fmt.Errorf("only the sender may edit message %d: %w", messageID, errors.ErrUnauthorized)
	}

	message.Content = s.censor(newContent)
	if err := s.messages.UpdateMessage(message); err != nil {
		return domain.MessageView{}, fmt.Errorf("updating message: %w", err)
	}

	s.monitor.IncrMessagesEdited()
	s.publish(event.MessageEdited{Room: message.Room, Message: message.View()})
	return message.View(), nil
}

// Delete removes a message. Only the original sender may delete; the
// broadcast carries the bare message id.
func (s *MessageService) Delete(ctx context.Context, messageID domain.MessageID) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return errors.ErrUnauthenticated
	}

	message, err := s.messages.GetMessage(messageID)
	if err != nil {
		return err
	}
	if message.Sender != identity.SubjectName {
		return fmt.Errorf("only the sender may delete message %d: %w", messageID, errors.ErrUnauthorized)
	}

	if err := s.messages.DeleteMessage(messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	s.monitor.IncrMessagesDeleted()
	s.publish(event.MessageDeleted{Room: message.Room, MessageID: messageID})
	return nil
}

// History returns the room's persisted messages in creation order. The
// caller must be a current member.
func (s *MessageService) History(ctx context.Context, roomID domain.RoomID) ([]domain.MessageView, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, errors.ErrUnauthenticated
	}
	if err := s.authority.RequireMember(identity.SubjectID, roomID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListRoomMessages(roomID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.MessageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, message.View())
	}
	return views, nil
}

func (s *MessageService) censor(content string) string {
	censored, found := s.moderator.Censor(content)
	if len(found) > 0 {
		s.log.Warn("Censored message content",
			"words", found,
			"language", moderation.DetectLanguage(content),
		)
	}
	return censored
}

func (s *MessageService) publish(e event.DomainEvent) {
	s.router.Publish(e.Topic(), e.Body())
}

var _ IMessageService = (*MessageService)(nil)
