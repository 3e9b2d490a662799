package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Hash_And_Compare_Password(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword("Sup3r$ecretPass", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(match)
}

func Test_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)
	second, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)

	// Same password, different salt, different hash.
	req.NotEqual(first, second)
}

func Test_Compare_Malformed_Hash(t *testing.T) {
	tests := []struct {
		description string
		encoded     string
	}{
		{"not an encoded hash", "not-an-encoded-hash"},
		{"garbled version", "$argon2id$vX$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"unsupported version", "$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"garbled parameters", "$argon2id$v=19$m=what$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := ComparePassword("whatever", tt.encoded)
			require.Error(t, err)
		})
	}
}
