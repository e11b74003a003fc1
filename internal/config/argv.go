package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var (
	errOpenQuote  = errors.New("unterminated quote")
	errOpenEscape = errors.New("unterminated escape sequence")
)

// splitCommand tokenizes a command string the way a POSIX shell would for the
// subset murmur accepts: whitespace separation, single quotes taken literally,
// double quotes honoring backslash escapes, and a leading "~/" expanded per word.
// A string that is blank or starts with "#" yields no argv.
func splitCommand(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || input[0] == '#' {
		return nil, nil
	}

	var (
		words   []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\\':
			escaped, inWord = true, true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			if inWord {
				words = append(words, expandTilde(word.String()))
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escaped:
		return nil, fmt.Errorf("command %q: %w", input, errOpenEscape)
	case quote != 0:
		return nil, fmt.Errorf("command %q: %w", input, errOpenQuote)
	}
	if inWord {
		words = append(words, expandTilde(word.String()))
	}
	return words, nil
}

func expandTilde(word string) string {
	if !strings.HasPrefix(word, "~/") {
		return word
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return word
	}
	return filepath.Join(home, word[2:])
}

// commandOf builds a CommandConfig for a default that is known to tokenize.
func commandOf(raw string) CommandConfig {
	argv, err := splitCommand(raw)
	if err != nil {
		panic(err)
	}
	return CommandConfig{Raw: raw, Argv: argv}
}
