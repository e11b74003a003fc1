package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	chord, err := ParseChord(" Ctrl+Alt+Space ")
	require.NoError(t, err)
	require.Equal(t, "Ctrl+Alt+Space", chord.Text)
	require.Equal(t, []Modifier{ModCtrl, ModAlt}, chord.Mods)
	require.Equal(t, "space", chord.Key)

	chord, err = ParseChord("esc")
	require.NoError(t, err)
	require.Empty(t, chord.Mods)
	require.Equal(t, "escape", chord.Key)

	chord, err = ParseChord("super+shift+shift+F9")
	require.NoError(t, err)
	require.Equal(t, []Modifier{ModSuper, ModShift}, chord.Mods)
	require.Equal(t, "f9", chord.Key)
}

func TestParseChordErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{input: "", wantErr: "empty shortcut"},
		{input: "ctrl++space", wantErr: "empty component"},
		{input: "ctrl+shift", wantErr: "has no key"},
		{input: "ctrl+a+b", wantErr: "more than one key"},
		{input: "hyper+space", wantErr: `unknown key "hyper"`},
		{input: "f13", wantErr: `unknown key "f13"`},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseChord(tc.input)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
