package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// DiskMessage is the stored shape of a message.
type DiskMessage struct {
	ID      int64  `cbor:"id"`
	Room    int64  `cbor:"room"`
	Sender  string `cbor:"sender"`
	Content string `cbor:"content"`
	// At is UnixNano so no precision is lost across the codec.
	At int64 `cbor:"at"`
}

type MessageRepository struct {
	db            *badger.DB
	seq           *badger.Sequence
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository opens the id sequence for messages. Callers must
// Close the repository so unused sequence leases are returned.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:msg"), 64)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log, limitMessages: limitMessages}, nil
}

func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// messageKey places a message under its room with a 19-digit zero-padded id
// so that a prefix scan over "msg:{room}:" yields messages in creation order.
func messageKey(room domain.RoomID, id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("msg:%d:%019d", room, id))
}

// messageIndexKey is the secondary index resolving a bare message id to its
// primary key; edit and delete address messages by id alone.
func messageIndexKey(id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("idx:msg:%019d", id))
}

// StoreMessage allocates the next message id and persists the message plus
// its id index in one transaction.
func (m *MessageRepository) StoreMessage(message domain.Message) (domain.Message, error) {
	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id allocation failed: %w", err)
	}
	// Sequence starts at zero; ids are 1-based.
	message.ID = domain.MessageID(next + 1)

	data, err := encode(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message.Room, message.ID), data); err != nil {
			return err
		}
		return txn.Set(messageIndexKey(message.ID), messageKey(message.Room, message.ID))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// GetMessage resolves a message by id via the index.
func (m *MessageRepository) GetMessage(id domain.MessageID) (domain.Message, error) {
	var disk DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		primary, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(primary)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("message %d: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk), nil
}

// UpdateMessage rewrites the stored value of an existing message.
func (m *MessageRepository) UpdateMessage(message domain.Message) error {
	data, err := encode(fromMessage(message))
	if err != nil {
		return err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		key := messageKey(message.Room, message.ID)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("message %d: %w", message.ID, errors.ErrNotFound)
	}
	return err
}

// DeleteMessage removes a message and its index entry.
func (m *MessageRepository) DeleteMessage(id domain.MessageID) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		primary, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(primary); err != nil {
			return err
		}
		return txn.Delete(messageIndexKey(id))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("message %d: %w", id, errors.ErrNotFound)
	}
	return err
}

// ListRoomMessages returns a room's messages in creation order via a prefix
// scan. It stops once the configured limitMessages is reached.
func (m *MessageRepository) ListRoomMessages(room domain.RoomID) ([]domain.Message, error) {
	var disks []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%d:", room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(disks) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			var disk DiskMessage
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				return err
			}
			disks = append(disks, disk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(disks, func(disk DiskMessage, _ int) domain.Message {
		return toMessage(disk)
	}), nil
}

// DeleteRoomMessages removes every message of a room and their index
// entries. Used as the cascade step of room deletion.
func (m *MessageRepository) DeleteRoomMessages(room domain.RoomID) (int, error) {
	deleted := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%d:", room))
		var primaryKeys [][]byte
		var ids []domain.MessageID

		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true})
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			primaryKeys = append(primaryKeys, it.Item().KeyCopy(nil))
			var disk DiskMessage
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				it.Close()
				return err
			}
			ids = append(ids, domain.MessageID(disk.ID))
		}
		it.Close()

		for i, key := range primaryKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete(messageIndexKey(ids[i])); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func resolvePrimaryKey(txn *badger.Txn, id domain.MessageID) ([]byte, error) {
	item, err := txn.Get(messageIndexKey(id))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:      int64(message.ID),
		Room:    int64(message.Room),
		Sender:  message.Sender,
		Content: message.Content,
		At:      message.CreatedAt.UnixNano(),
	}
}

func toMessage(disk DiskMessage) domain.Message {
	return domain.Message{
		ID:        domain.MessageID(disk.ID),
		Room:      domain.RoomID(disk.Room),
		Sender:    disk.Sender,
		Content:   disk.Content,
		CreatedAt: time.Unix(0, disk.At).UTC(),
	}
}

var _ contract.MessageRepository = (*MessageRepository)(nil)
