package repositories

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"chatter-box/domain"
	"chatter-box/errors"
)

func Test_Create_And_Get_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	members := []domain.Member{
		{SubjectID: "id-alice", SubjectName: "Alice"},
		{SubjectID: "id-bob", SubjectName: "Bob"},
	}
	room, err := repository.CreateRoom("general", "Alice", members)
	req.NoError(err)
	req.NotZero(room.ID)

	fetched, err := repository.GetRoom(room.ID)
	req.NoError(err)
	req.Equal(room, fetched)

	listed, err := repository.ListMembers(room.ID)
	req.NoError(err)
	req.ElementsMatch(members, listed)
}

func Test_Get_Unknown_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	_, err = repository.GetRoom(42)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Membership_Facts(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	room, err := repository.CreateRoom("general", "Alice", []domain.Member{
		{SubjectID: "id-alice", SubjectName: "Alice"},
	})
	req.NoError(err)

	member, err := repository.IsMember(room.ID, "id-alice")
	req.NoError(err)
	req.True(member)

	member, err = repository.IsMember(room.ID, "id-bob")
	req.NoError(err)
	req.False(member)

	// Adding Bob makes him a member on the very next check.
	req.NoError(repository.AddMember(room.ID, domain.Member{SubjectID: "id-bob", SubjectName: "Bob"}))
	member, err = repository.IsMember(room.ID, "id-bob")
	req.NoError(err)
	req.True(member)

	// Removing him revokes the fact immediately.
	req.NoError(repository.RemoveMember(room.ID, "id-bob"))
	member, err = repository.IsMember(room.ID, "id-bob")
	req.NoError(err)
	req.False(member)
}

func Test_Member_Operations_On_Unknown_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	err = repository.AddMember(42, domain.Member{SubjectID: "id-bob", SubjectName: "Bob"})
	req.ErrorIs(err, errors.ErrNotFound)

	err = repository.RemoveMember(42, "id-bob")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Delete_Room_Removes_Membership_Facts(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	room, err := repository.CreateRoom("doomed", "Alice", []domain.Member{
		{SubjectID: "id-alice", SubjectName: "Alice"},
		{SubjectID: "id-bob", SubjectName: "Bob"},
	})
	req.NoError(err)

	req.NoError(repository.DeleteRoom(room.ID))

	_, err = repository.GetRoom(room.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	member, err := repository.IsMember(room.ID, "id-alice")
	req.NoError(err)
	req.False(member)

	listed, err := repository.ListMembers(room.ID)
	req.NoError(err)
	req.Empty(listed)
}
