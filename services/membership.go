// Package services holds the application layer: authorization rules,
// message lifecycle, room management, and account handling.
package services

import (
	"fmt"

	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/errors"
)

// Authority answers authorization questions against the persisted room
// state. Every call reads current facts so that a revoked membership is
// enforced on the very next operation.
type Authority struct {
	rooms contract.RoomRepository
}

func NewAuthority(rooms contract.RoomRepository) *Authority {
	return &Authority{rooms: rooms}
}

func (a *Authority) IsMember(subjectID string, roomID domain.RoomID) (bool, error) {
	return a.rooms.IsMember(roomID, subjectID)
}

func (a *Authority) IsCreator(subjectName string, roomID domain.RoomID) (bool, error) {
	room, err := a.rooms.GetRoom(roomID)
	if err != nil {
		return false, err
	}
	return room.Creator == subjectName, nil
}

func (a *Authority) RequireMember(subjectID string, roomID domain.RoomID) error {
	ok, err := a.rooms.IsMember(roomID, subjectID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	// Distinguish an unknown room from a non-member of an existing one.
	if _, err := a.rooms.GetRoom(roomID); err != nil {
		return err
	}
	return fmt.Errorf("not a member of room %d: %w", roomID, errors.ErrUnauthorized)
}

var _ contract.MembershipAuthority = (*Authority)(nil)
