// Package transcript joins recognized segments into delivery-ready text.
package transcript

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options controls transcript assembly formatting behavior.
type Options struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// pronounI matches a lowercase standalone "i" and its contractions (i'm, i'll, ...).
var pronounI = regexp.MustCompile(`\bi(?:['’](?:m|d|ll|ve|re))?\b`)

// Assemble joins segments with single spaces and applies the configured normalization.
func Assemble(segments []string, opts Options) string {
	text := strings.Join(strings.Fields(strings.Join(segments, " ")), " ")
	if text == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		text = capitalizeSentences(text)
	}
	if opts.TrailingSpace {
		text += " "
	}
	return text
}

// capitalizeSentences uppercases the first letter of the text and of every word that
// follows a terminal mark (. ! ?) and whitespace, then fixes the pronoun "i".
// Scripts without case are left as they are.
func capitalizeSentences(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	atStart := true
	afterMark := false
	for _, r := range text {
		switch {
		case atStart && unicode.IsLetter(r):
			r = unicode.ToUpper(r)
			atStart = false
		case unicode.IsDigit(r):
			atStart = false
			afterMark = false
		case r == '.' || r == '!' || r == '?':
			afterMark = true
		case unicode.IsSpace(r):
			if afterMark {
				atStart = true
			}
			afterMark = false
		default:
			afterMark = false
		}
		out.WriteRune(r)
	}

	return pronounI.ReplaceAllStringFunc(out.String(), func(match string) string {
		_, size := utf8.DecodeRuneInString(match)
		return "I" + match[size:]
	})
}
