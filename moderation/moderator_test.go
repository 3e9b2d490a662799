package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T, words ...string) Moderator {
	t.Helper()
	m, err := NewModerator(words, '*')
	require.NoError(t, err)
	return m
}

func Test_Censor_Plain_Word(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "damn")

	censored, found := m.Censor("well damn that hurt")
	req.Equal("well **** that hurt", censored)
	req.Equal([]string{"damn"}, found)
}

func Test_Censor_Leet_Speak(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "damn")

	censored, found := m.Censor("d4mn")
	req.Equal("****", censored)
	req.Len(found, 1)
}

func Test_Censor_Punctuated_Word(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "damn")

	censored, found := m.Censor("d.a.m.n")
	req.NotContains(censored, "d")
	req.Len(found, 1)
}

func Test_Censor_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "damn")

	censored, found := m.Censor("DAMN")
	req.Equal("****", censored)
	req.Len(found, 1)
}

func Test_Censor_Clean_Content_Untouched(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "damn")

	original := "what a lovely day"
	censored, found := m.Censor(original)
	req.Equal(original, censored)
	req.Empty(found)
}

func Test_Censor_Multiple_Words(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "damn", "hell")

	censored, found := m.Censor("damn this hell")
	req.NotContains(censored, "damn")
	req.NotContains(censored, "hell")
	req.Len(found, 2)
}

func Test_Load_Embedded_Words(t *testing.T) {
	req := require.New(t)

	words, err := LoadWords()
	req.NoError(err)
	req.NotEmpty(words)

	// The embedded lists are deduplicated.
	seen := map[string]bool{}
	for _, w := range words {
		req.False(seen[strings.ToLower(w)], "duplicate word %q", w)
		seen[strings.ToLower(w)] = true
	}
}

func Test_Detect_Language(t *testing.T) {
	req := require.New(t)

	req.Equal("en", DetectLanguage("this is clearly an english sentence about the weather"))
	req.Equal("fr", DetectLanguage("ceci est clairement une phrase écrite en français"))
}
