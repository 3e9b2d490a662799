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
)

// DiskRoom is the stored shape of a room. The member set lives outside the
// room value as one membership fact per (room, subject) key, so membership
// checks never load the full set.
type DiskRoom struct {
	ID      int64  `cbor:"id"`
	Name    string `cbor:"name,omitempty"`
	Creator string `cbor:"creator"`
	At      int64  `cbor:"at"`
}

type RoomRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) (*RoomRepository, error) {
	seq, err := db.GetSequence([]byte("seq:room"), 16)
	if err != nil {
		return nil, fmt.Errorf("room sequence: %w", err)
	}
	return &RoomRepository{db: db, seq: seq, log: log}, nil
}

func (r *RoomRepository) Close() error {
	return r.seq.Release()
}

func roomKey(id domain.RoomID) []byte {
	return []byte(fmt.Sprintf("room:%d", id))
}

// memberKey is the membership fact: its mere existence answers
// "is subject in room" with a single point lookup. Its value carries the
// subject name so member listings need no user lookups.
func memberKey(room domain.RoomID, subjectID string) []byte {
	return []byte(fmt.Sprintf("member:%d:%s", room, subjectID))
}

// CreateRoom allocates the next room id and persists the room together with
// the membership facts of its initial members.
func (r *RoomRepository) CreateRoom(name, creator string, members []domain.Member) (domain.Room, error) {
	next, err := r.seq.Next()
	if err != nil {
		return domain.Room{}, fmt.Errorf("room id allocation failed: %w", err)
	}

	room := domain.Room{
		ID:        domain.RoomID(next + 1),
		Name:      name,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}

	data, err := encode(fromRoom(room))
	if err != nil {
		return domain.Room{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(roomKey(room.ID), data); err != nil {
			return err
		}
		for _, member := range members {
			if err := txn.Set(memberKey(room.ID, member.SubjectID), []byte(member.SubjectName)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) GetRoom(id domain.RoomID) (domain.Room, error) {
	var disk DiskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, fmt.Errorf("room %d: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(disk), nil
}

// DeleteRoom removes the room and all of its membership facts.
func (r *RoomRepository) DeleteRoom(id domain.RoomID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(id)); err != nil {
			return err
		}

		prefix := []byte(fmt.Sprintf("member:%d:", id))
		var keys [][]byte
		it := txn.NewIterator(badger.IteratorOptions{})
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete(roomKey(id))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("room %d: %w", id, errors.ErrNotFound)
	}
	return err
}

func (r *RoomRepository) AddMember(id domain.RoomID, member domain.Member) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(id)); err != nil {
			return err
		}
		return txn.Set(memberKey(id, member.SubjectID), []byte(member.SubjectName))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("room %d: %w", id, errors.ErrNotFound)
	}
	return err
}

func (r *RoomRepository) RemoveMember(id domain.RoomID, subjectID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(id)); err != nil {
			return err
		}
		return txn.Delete(memberKey(id, subjectID))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("room %d: %w", id, errors.ErrNotFound)
	}
	return err
}

// IsMember reads the membership fact directly; it never loads the full
// member set.
func (r *RoomRepository) IsMember(id domain.RoomID, subjectID string) (bool, error) {
	var member bool
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(id, subjectID))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		member = true
		return nil
	})
	return member, err
}

func (r *RoomRepository) ListMembers(id domain.RoomID) ([]domain.Member, error) {
	var members []domain.Member
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("member:%d:", id))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixLen := len(prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			subjectID := string(item.Key()[prefixLen:])
			name, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			members = append(members, domain.Member{SubjectID: subjectID, SubjectName: string(name)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

func fromRoom(room domain.Room) DiskRoom {
	return DiskRoom{
		ID:      int64(room.ID),
		Name:    room.Name,
		Creator: room.Creator,
		At:      room.CreatedAt.UnixNano(),
	}
}

func toRoom(disk DiskRoom) domain.Room {
	return domain.Room{
		ID:        domain.RoomID(disk.ID),
		Name:      disk.Name,
		Creator:   disk.Creator,
		CreatedAt: time.Unix(0, disk.At).UTC(),
	}
}

var _ contract.RoomRepository = (*RoomRepository)(nil)
