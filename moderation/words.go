package moderation

import (
	"bufio"
	"embed"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

//go:embed censored/*.txt
var censoredFS embed.FS

// LoadWords reads the embedded censored word lists, one word or phrase per
// line, and returns the deduplicated union across all languages.
func LoadWords() ([]string, error) {
	entries, err := censoredFS.ReadDir("censored")
	if err != nil {
		return nil, fmt.Errorf("censored lists: %w", err)
	}

	seen := make(map[string]struct{})
	var words []string
	for _, entry := range entries {
		file, err := censoredFS.Open("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if word == "" {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
		err = scanner.Err()
		_ = file.Close()
		if err != nil {
			return nil, err
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("no censored words have been found")
	}
	return words, nil
}

// DetectLanguage returns the ISO 639-1 code of the detected language,
// or an empty string when detection is inconclusive.
func DetectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	return info.Lang.Iso6391()
}
