package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatter-box/errors"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)

	created, err := repository.CreateUser("alice", "alice@example.com", "$argon2id$hash")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal([]string{"user"}, created.Roles)

	fetched, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(created, fetched)
}

func Test_Create_Duplicate_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)

	_, err := repository.CreateUser("alice", "alice@example.com", "$argon2id$hash")
	req.NoError(err)

	_, err = repository.CreateUser("alice", "other@example.com", "$argon2id$other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)

	_, err := repository.GetUserByUsername("nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Get_Users_By_Usernames(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)

	_, err := repository.CreateUser("alice", "alice@example.com", "hash")
	req.NoError(err)
	_, err = repository.CreateUser("bob", "bob@example.com", "hash")
	req.NoError(err)

	users, err := repository.GetUsersByUsernames([]string{"alice", "bob"})
	req.NoError(err)
	req.Len(users, 2)

	// One unknown name fails the whole lookup.
	_, err = repository.GetUsersByUsernames([]string{"alice", "ghost"})
	req.ErrorIs(err, errors.ErrNotFound)
}
