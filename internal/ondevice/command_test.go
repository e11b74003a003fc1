package ondevice

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/env bash\nset -euo pipefail\n"+body), 0o755))
	return path
}

func TestAvailableRequiresPlatformAndCommand(t *testing.T) {
	model := NewCommandModel([]string{"helper"})
	model.supported = func() bool { return true }
	require.True(t, model.Available())

	model.supported = func() bool { return false }
	require.False(t, model.Available())

	empty := NewCommandModel(nil)
	empty.supported = func() bool { return true }
	require.False(t, empty.Available())

	var nilModel *CommandModel
	require.False(t, nilModel.Available())
}

func TestGenerateSendsRequestOnStdin(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "request.json")
	script := writeScript(t, "cat > \"$1\"\nprintf '  Refined text.\\n'\n")

	model := NewCommandModel([]string{script, capture})
	got, err := model.Generate(context.Background(), "Clean this:", "refined text", 256)
	require.NoError(t, err)
	require.Equal(t, "Refined text.", got)

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	var req request
	require.NoError(t, json.Unmarshal(data, &req))
	require.Equal(t, request{SystemPrompt: "Clean this:", UserContent: "refined text", TokenLimit: 256}, req)
}

func TestGenerateIncludesStderrOnFailure(t *testing.T) {
	script := writeScript(t, "echo 'model unavailable' >&2\nexit 3\n")

	_, err := NewCommandModel([]string{script}).Generate(context.Background(), "", "x", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model unavailable")
}

func TestGenerateWithoutCommand(t *testing.T) {
	_, err := NewCommandModel(nil).Generate(context.Background(), "", "x", 0)
	require.ErrorIs(t, err, ErrNotConfigured)
}
