package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// DiskUser is the stored shape of an account, keyed by username.
type DiskUser struct {
	ID           string   `cbor:"id"`
	Username     string   `cbor:"username"`
	Email        string   `cbor:"email"`
	PasswordHash string   `cbor:"password_hash"`
	Roles        []string `cbor:"roles"`
	At           int64    `cbor:"at"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// CreateUser persists a new account. The username is the unique key; a
// second registration under the same name fails with ErrUserAlreadyExists.
func (u *UserRepository) CreateUser(username, email, hashedPassword string) (domain.User, error) {
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := encode(fromUser(user))
	if err != nil {
		return domain.User{}, err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(userKey(username), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var disk DiskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("user %q: %w", username, errors.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk), nil
}

// GetUsersByUsernames resolves a set of usernames; any unknown name fails
// the whole lookup so room creation cannot silently skip members.
func (u *UserRepository) GetUsersByUsernames(usernames []string) ([]domain.User, error) {
	users := make([]domain.User, 0, len(usernames))
	for _, username := range usernames {
		user, err := u.GetUserByUsername(username)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func fromUser(user domain.User) DiskUser {
	return DiskUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Roles:        user.Roles,
		At:           user.CreatedAt.UnixNano(),
	}
}

func toUser(disk DiskUser) domain.User {
	return domain.User{
		ID:           disk.ID,
		Username:     disk.Username,
		Email:        disk.Email,
		PasswordHash: disk.PasswordHash,
		Roles:        disk.Roles,
		CreatedAt:    time.Unix(0, disk.At).UTC(),
	}
}

var _ contract.UserRepository = (*UserRepository)(nil)
