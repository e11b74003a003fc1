// Package ondevice runs the platform-native text model through a helper command.
//
// The helper receives one JSON object on stdin and writes the refined text to stdout.
package ondevice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNotConfigured is returned when no helper command is configured.
var ErrNotConfigured = errors.New("on-device model command is not configured")

type request struct {
	SystemPrompt string `json:"system_prompt"`
	UserContent  string `json:"user_content"`
	TokenLimit   int    `json:"token_limit"`
}

// CommandModel invokes argv once per generation.
type CommandModel struct {
	argv      []string
	supported func() bool
}

// NewCommandModel returns a model backed by argv.
func NewCommandModel(argv []string) *CommandModel {
	return &CommandModel{
		argv:      append([]string(nil), argv...),
		supported: platformSupported,
	}
}

// platformSupported reports whether the host can run the native model at all.
func platformSupported() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}

// Available reports whether the platform supports the model and a helper is configured.
func (m *CommandModel) Available() bool {
	if m == nil || len(m.argv) == 0 {
		return false
	}
	return m.supported()
}

// Generate runs the helper with a JSON request and returns its trimmed stdout.
func (m *CommandModel) Generate(ctx context.Context, systemPrompt string, userContent string, tokenLimit int) (string, error) {
	if m == nil || len(m.argv) == 0 {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(request{
		SystemPrompt: systemPrompt,
		UserContent:  userContent,
		TokenLimit:   tokenLimit,
	})
	if err != nil {
		return "", fmt.Errorf("marshal on-device request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.argv[0], m.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return "", fmt.Errorf("run %s: %w: %s", m.argv[0], err, detail)
		}
		return "", fmt.Errorf("run %s: %w", m.argv[0], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
