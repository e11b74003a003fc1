package output

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/hypr"
)

const (
	windowLookupAttempts = 5
	windowLookupDelay    = 10 * time.Millisecond
)

// pasteShortcut sends shortcut to the active Hyprland window.
func pasteShortcut(ctx context.Context, shortcut string) error {
	window, err := lookupWindow(ctx, windowLookupAttempts, windowLookupDelay)
	if err != nil {
		return err
	}
	payload, err := shortcutPayload(shortcut, window.Address)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, payload)
}

func shortcutPayload(shortcut string, address string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	address = strings.TrimSpace(address)
	switch {
	case shortcut == "":
		return "", errors.New("paste shortcut cannot be empty")
	case address == "":
		return "", errors.New("active window address is required")
	}
	return shortcut + ",address:" + address, nil
}

// lookupWindow retries because focus can briefly be unset right after the overlay changes.
func lookupWindow(ctx context.Context, attempts int, delay time.Duration) (hypr.Window, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return hypr.Window{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		window, err := hypr.QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
	}
	return hypr.Window{}, fmt.Errorf("resolve active window: %w", lastErr)
}
