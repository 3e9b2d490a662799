package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatter-box/domain"
	"chatter-box/errors"
)

var testUser = domain.User{
	ID:       "id-alice",
	Username: "alice",
	Roles:    []string{"user"},
}

func Test_Generate_And_Verify_Token(t *testing.T) {
	req := require.New(t)
	service := NewTokenService([]byte("test-secret"), time.Hour)

	token, err := service.GenerateToken(testUser)
	req.NoError(err)
	req.NotEmpty(token)

	identity, err := service.Verify(token)
	req.NoError(err)
	req.Equal("id-alice", identity.SubjectID)
	req.Equal("alice", identity.SubjectName)
	req.Equal([]string{"user"}, identity.Capabilities)
	req.False(identity.Anonymous())
}

func Test_Verify_Expired_Token(t *testing.T) {
	req := require.New(t)
	service := NewTokenService([]byte("test-secret"), -time.Minute)

	token, err := service.GenerateToken(testUser)
	req.NoError(err)

	_, err = service.Verify(token)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func Test_Verify_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	signer := NewTokenService([]byte("one-secret"), time.Hour)
	verifier := NewTokenService([]byte("another-secret"), time.Hour)

	token, err := signer.GenerateToken(testUser)
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func Test_Verify_Garbage_Token(t *testing.T) {
	req := require.New(t)
	service := NewTokenService([]byte("test-secret"), time.Hour)

	_, err := service.Verify("not-a-jwt")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
