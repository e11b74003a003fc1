package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{name: "blank", input: "   "},
		{name: "comment", input: "# wl-copy"},
		{name: "words", input: "wl-copy  --trim-newline", want: []string{"wl-copy", "--trim-newline"}},
		{name: "double quotes", input: `notify --title "murmur says"`, want: []string{"notify", "--title", "murmur says"}},
		{name: "single quotes are literal", input: `echo 'a\b'`, want: []string{"echo", `a\b`}},
		{name: "escape in double quotes", input: `echo "say \"hi\""`, want: []string{"echo", `say "hi"`}},
		{name: "escaped space", input: `open my\ file`, want: []string{"open", "my file"}},
		{name: "empty quoted word", input: `cmd "" x`, want: []string{"cmd", "", "x"}},
		{name: "tilde", input: "~/bin/refine --fast", want: []string{filepath.Join(home, "bin/refine"), "--fast"}},
		{name: "tilde mid word", input: "cmd a~/b", want: []string{"cmd", "a~/b"}},
		{name: "open quote", input: `cmd "oops`, wantErr: errOpenQuote},
		{name: "open escape", input: `cmd oops\`, wantErr: errOpenEscape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitCommand(tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCommandOf(t *testing.T) {
	require.Equal(t, CommandConfig{Raw: "wl-copy -n", Argv: []string{"wl-copy", "-n"}}, commandOf("wl-copy -n"))
	require.Panics(t, func() { commandOf(`cmd "open`) })
}
