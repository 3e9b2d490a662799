package services

import (
	"context"
	"fmt"
	"log/slog"

	"chatter-box/auth"
	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/errors"
)

type IRoomService interface {
	CreateRoom(ctx context.Context, name string, usernames []string) (domain.RoomView, error)
	GetRoom(ctx context.Context, roomID domain.RoomID) (domain.RoomView, error)
	DeleteRoom(ctx context.Context, roomID domain.RoomID) error
	AddUser(ctx context.Context, roomID domain.RoomID, username string) error
	RemoveUser(ctx context.Context, roomID domain.RoomID, username string) error
	Leave(ctx context.Context, roomID domain.RoomID) error
}

// RoomService manages rooms and their member sets. Membership changes take
// effect immediately: revoked subjects lose their live topic subscriptions
// through the router, not just their right to resubscribe.
type RoomService struct {
	log       *slog.Logger
	rooms     contract.RoomRepository
	users     contract.UserRepository
	messages  contract.MessageRepository
	authority contract.MembershipAuthority
	router    contract.TopicRouter
}

func NewRoomService(
	log *slog.Logger,
	rooms contract.RoomRepository,
	users contract.UserRepository,
	messages contract.MessageRepository,
	authority contract.MembershipAuthority,
	router contract.TopicRouter,
) *RoomService {
	return &RoomService{
		log:       log,
		rooms:     rooms,
		users:     users,
		messages:  messages,
		authority: authority,
		router:    router,
	}
}

// CreateRoom creates a room whose member set is the creator plus the named
// users. Unknown usernames fail the whole call; nothing is created.
func (s *RoomService) CreateRoom(ctx context.Context, name string, usernames []string) (domain.RoomView, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return domain.RoomView{}, errors.ErrUnauthenticated
	}

	members := []domain.Member{{SubjectID: identity.SubjectID, SubjectName: identity.SubjectName}}
	if len(usernames) > 0 {
		users, err := s.users.GetUsersByUsernames(usernames)
		if err != nil {
			return domain.RoomView{}, err
		}
		for _, user := range users {
			if user.ID == identity.SubjectID {
				continue
			}
			members = append(members, domain.Member{SubjectID: user.ID, SubjectName: user.Username})
		}
	}

	room, err := s.rooms.CreateRoom(name, identity.SubjectName, members)
	if err != nil {
		return domain.RoomView{}, fmt.Errorf("creating room: %w", err)
	}

	s.log.Info("Room created", "room_id", room.ID, "creator", room.Creator, "members", len(members))
	return s.view(room, members, nil), nil
}

// GetRoom returns the room with its member list and message history.
// Only current members may read it.
func (s *RoomService) GetRoom(ctx context.Context, roomID domain.RoomID) (domain.RoomView, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return domain.RoomView{}, errors.ErrUnauthenticated
	}
	if err := s.authority.RequireMember(identity.SubjectID, roomID); err != nil {
		return domain.RoomView{}, err
	}

	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return domain.RoomView{}, err
	}
	members, err := s.rooms.ListMembers(roomID)
	if err != nil {
		return domain.RoomView{}, err
	}
	messages, err := s.messages.ListRoomMessages(roomID)
	if err != nil {
		return domain.RoomView{}, err
	}
	return s.view(room, members, messages), nil
}

// DeleteRoom removes the room, its membership facts, and every message it
// holds. Creator only. All live subscriptions on the room's topics die with
// it.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID domain.RoomID) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return errors.ErrUnauthenticated
	}
	if err := s.requireCreator(identity.SubjectName, roomID); err != nil {
		return err
	}

	members, err := s.rooms.ListMembers(roomID)
	if err != nil {
		return err
	}

	deleted, err := s.messages.DeleteRoomMessages(roomID)
	if err != nil {
		return fmt.Errorf("cascading message delete: %w", err)
	}
	if err := s.rooms.DeleteRoom(roomID); err != nil {
		return err
	}

	for _, member := range members {
		s.router.RevokeRoom(member.SubjectID, roomID)
	}

	s.log.Info("Room deleted", "room_id", roomID, "messages_deleted", deleted)
	return nil
}

// AddUser adds a user to the room's member set. Any current member may add;
// adding an existing member fails with ErrAlreadyMember.
func (s *RoomService) AddUser(ctx context.Context, roomID domain.RoomID, username string) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return errors.ErrUnauthenticated
	}
	if err := s.authority.RequireMember(identity.SubjectID, roomID); err != nil {
		return err
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		return err
	}

	already, err := s.rooms.IsMember(roomID, user.ID)
	if err != nil {
		return err
	}
	if already {
		return fmt.Errorf("%s in room %d: %w", username, roomID, errors.ErrAlreadyMember)
	}

	return s.rooms.AddMember(roomID, domain.Member{SubjectID: user.ID, SubjectName: user.Username})
}

// RemoveUser withdraws a user's membership. Creator only. The removed
// subject's live subscriptions on the room's topics are revoked at once.
func (s *RoomService) RemoveUser(ctx context.Context, roomID domain.RoomID, username string) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return errors.ErrUnauthenticated
	}
	if err := s.requireCreator(identity.SubjectName, roomID); err != nil {
		return err
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		return err
	}

	if err := s.rooms.RemoveMember(roomID, user.ID); err != nil {
		return err
	}
	s.router.RevokeRoom(user.ID, roomID)

	s.log.Info("Member removed", "room_id", roomID, "username", username)
	return nil
}

// Leave withdraws the caller's own membership and revokes its live
// subscriptions on the room's topics.
func (s *RoomService) Leave(ctx context.Context, roomID domain.RoomID) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return errors.ErrUnauthenticated
	}
	if err := s.authority.RequireMember(identity.SubjectID, roomID); err != nil {
		return err
	}

	if err := s.rooms.RemoveMember(roomID, identity.SubjectID); err != nil {
		return err
	}
	s.router.RevokeRoom(identity.SubjectID, roomID)
	return nil
}

func (s *RoomService) requireCreator(subjectName string, roomID domain.RoomID) error {
	creator, err := s.authority.IsCreator(subjectName, roomID)
	if err != nil {
		return err
	}
	if !creator {
		return fmt.Errorf("only the creator of room %d may do this: %w", roomID, errors.ErrUnauthorized)
	}
	return nil
}

func (s *RoomService) view(room domain.Room, members []domain.Member, messages []domain.Message) domain.RoomView {
	memberViews := make([]domain.MemberView, 0, len(members))
	for _, member := range members {
		memberViews = append(memberViews, domain.MemberView{ID: member.SubjectID, Username: member.SubjectName})
	}
	messageViews := make([]domain.MessageView, 0, len(messages))
	for _, message := range messages {
		messageViews = append(messageViews, message.View())
	}
	return domain.RoomView{
		ID:       int64(room.ID),
		Name:     room.Name,
		Creator:  room.Creator,
		Members:  memberViews,
		Messages: messageViews,
	}
}

var _ IRoomService = (*RoomService)(nil)
