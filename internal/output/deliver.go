// Package output delivers finished transcripts to the clipboard and the focused window.
package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/config"
)

const (
	clipboardTimeout     = 2 * time.Second
	pasteCommandTimeout  = 2 * time.Second
	pasteShortcutTimeout = 1200 * time.Millisecond
)

// Deliverer copies text to the clipboard and then pastes it when paste is enabled.
type Deliverer struct {
	clipboard []string
	pasteCmd  []string
	paste     config.PasteConfig
	logger    *slog.Logger
}

// NewDeliverer builds a deliverer from the clipboard and paste sections of cfg.
func NewDeliverer(cfg config.Config, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		clipboard: cfg.Clipboard.Argv,
		pasteCmd:  cfg.PasteCmd.Argv,
		paste:     cfg.Paste,
		logger:    logger,
	}
}

// Deliver places text on the clipboard. A clipboard failure is returned; a paste
// failure is only logged because the text is already available to paste by hand.
func (d *Deliverer) Deliver(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runWithStdin(clipCtx, d.clipboard, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !d.paste.Enable {
		return nil
	}
	if err := d.dispatchPaste(ctx); err != nil && d.logger != nil {
		d.logger.Warn("paste failed; transcript left on clipboard", "error", err.Error())
	}
	return nil
}

func (d *Deliverer) dispatchPaste(ctx context.Context) error {
	if len(d.pasteCmd) > 0 {
		pasteCtx, cancel := context.WithTimeout(ctx, pasteCommandTimeout)
		defer cancel()
		return runWithStdin(pasteCtx, d.pasteCmd, "")
	}

	pasteCtx, cancel := context.WithTimeout(ctx, pasteShortcutTimeout)
	defer cancel()
	return pasteShortcut(pasteCtx, d.paste.Shortcut)
}

// runWithStdin runs argv with input on stdin and folds stderr into the error.
func runWithStdin(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return errors.New("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("run %s: %w (%s)", argv[0], err, detail)
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}
