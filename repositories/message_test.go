package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"chatter-box/domain"
	"chatter-box/errors"
)

func newTestMessage(room domain.RoomID, sender, content string) domain.Message {
	return domain.Message{
		Room:      room,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func Test_Store_And_Get_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(err)
	defer repository.Close()

	stored, err := repository.StoreMessage(newTestMessage(1, "Alice", "this message will self destruct in 5 seconds"))
	req.NoError(err)
	req.NotZero(stored.ID)

	fetched, err := repository.GetMessage(stored.ID)
	req.NoError(err)
	req.Equal(stored, fetched)
}

func Test_Messages_Sorted_By_Creation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(err)
	defer repository.Close()

	room := domain.RoomID(1)
	senders := []string{"Alice", "Bob", "Clara"}
	for _, sender := range senders {
		_, err := repository.StoreMessage(newTestMessage(room, sender, "hello"))
		req.NoError(err)
	}

	// When fetching messages
	fetched, err := repository.ListRoomMessages(room)
	req.NoError(err)

	// Then the messages come back in creation order
	req.Equal(senders, lo.Map(fetched, func(m domain.Message, _ int) string {
		return m.Sender
	}))
}

func Test_Messages_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	limit := 2
	repository, err := NewMessageRepository(db, slog.Default(), &limit)
	req.NoError(err)
	defer repository.Close()

	room := domain.RoomID(1)
	for i := 0; i < 5; i++ {
		_, err := repository.StoreMessage(newTestMessage(room, "Alice", fmt.Sprintf("message %d", i)))
		req.NoError(err)
	}

	fetched, err := repository.ListRoomMessages(room)
	req.NoError(err)
	req.Len(fetched, limit)
}

func Test_Update_Message_Content_Only(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(err)
	defer repository.Close()

	stored, err := repository.StoreMessage(newTestMessage(1, "Alice", "tpyo"))
	req.NoError(err)

	stored.Content = "typo"
	req.NoError(repository.UpdateMessage(stored))

	fetched, err := repository.GetMessage(stored.ID)
	req.NoError(err)
	req.Equal("typo", fetched.Content)
	req.Equal("Alice", fetched.Sender)
	req.Equal(stored.CreatedAt, fetched.CreatedAt)
}

func Test_Delete_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(err)
	defer repository.Close()

	stored, err := repository.StoreMessage(newTestMessage(1, "Alice", "bye"))
	req.NoError(err)

	req.NoError(repository.DeleteMessage(stored.ID))

	_, err = repository.GetMessage(stored.ID)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Get_Unknown_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(err)
	defer repository.Close()

	_, err = repository.GetMessage(99)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Delete_Room_Messages_Cascade(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(err)
	defer repository.Close()

	room := domain.RoomID(7)
	otherRoom := domain.RoomID(8)
	var ids []domain.MessageID
	for i := 0; i < 3; i++ {
		stored, err := repository.StoreMessage(newTestMessage(room, "Alice", "doomed"))
		req.NoError(err)
		ids = append(ids, stored.ID)
	}
	kept, err := repository.StoreMessage(newTestMessage(otherRoom, "Bob", "survivor"))
	req.NoError(err)

	deleted, err := repository.DeleteRoomMessages(room)
	req.NoError(err)
	req.Equal(3, deleted)

	// Every message of the room is gone, including its id index entries.
	for _, id := range ids {
		_, err := repository.GetMessage(id)
		req.ErrorIs(err, errors.ErrNotFound)
	}

	// Other rooms are untouched.
	_, err = repository.GetMessage(kept.ID)
	req.NoError(err)
}
