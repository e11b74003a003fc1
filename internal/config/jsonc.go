package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC blanks out comments and drops trailing commas so encoding/json can
// decode the result. Byte offsets and line breaks are preserved for error reporting.
func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

// stringScanner tracks whether a byte stream position is inside a JSON string literal.
type stringScanner struct {
	inString bool
	escape   bool
}

// step consumes ch and reports whether it belongs to a string literal (quotes included).
func (s *stringScanner) step(ch byte) bool {
	if s.inString {
		switch {
		case s.escape:
			s.escape = false
		case ch == '\\':
			s.escape = true
		case ch == '"':
			s.inString = false
		}
		return true
	}
	if ch == '"' {
		s.inString = true
		return true
	}
	return false
}

func stripJSONCComments(content string) (string, error) {
	out := []byte(content)
	var scan stringScanner

	for i := 0; i < len(out); i++ {
		if scan.step(out[i]) || out[i] != '/' || i+1 >= len(out) {
			continue
		}

		switch out[i+1] {
		case '/':
			for i < len(out) && out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
				i++
			}
		case '*':
			out[i], out[i+1] = ' ', ' '
			i += 2
			closed := false
			for ; i < len(out); i++ {
				if out[i] == '*' && i+1 < len(out) && out[i+1] == '/' {
					out[i], out[i+1] = ' ', ' '
					i++
					closed = true
					break
				}
				if out[i] != '\n' && out[i] != '\r' && out[i] != '\t' {
					out[i] = ' '
				}
			}
			if !closed {
				return "", fmt.Errorf("unterminated block comment in JSONC")
			}
		}
	}

	return string(out), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))
	var scan stringScanner

	for i := 0; i < len(content); i++ {
		ch := content[i]
		if !scan.step(ch) && ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				out.WriteByte(' ')
				continue
			}
		}
		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

// wrapJSONDecodeError prefixes syntax and type errors with their line/column.
func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := min(int(offset), len(content))
	prefix := content[:max(limit-1, 0)]
	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) - strings.LastIndexByte(prefix, '\n')
	return line, col
}
