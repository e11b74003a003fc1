package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Window identifies the client that should receive a paste.
type Window struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// QueryActiveWindow returns the focused client. It fails when no client has focus.
func QueryActiveWindow(ctx context.Context) (Window, error) {
	var w Window
	if err := queryJSON(ctx, "activewindow", &w); err != nil {
		return Window{}, err
	}
	w.Address = strings.TrimSpace(w.Address)
	w.Class = strings.TrimSpace(w.Class)
	w.InitialClass = strings.TrimSpace(w.InitialClass)
	if w.Address == "" {
		return Window{}, errors.New("hyprctl activewindow returned empty address")
	}
	return w, nil
}

// QueryFocusedMonitor returns the focused monitor, or the first one when none reports focus.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	var monitors []struct {
		Name    string `json:"name"`
		Focused bool   `json:"focused"`
	}
	if err := queryJSON(ctx, "monitors", &monitors); err != nil {
		return "", err
	}
	if len(monitors) == 0 {
		return "", errors.New("hyprctl monitors returned no outputs")
	}
	for _, m := range monitors {
		if m.Focused {
			return strings.TrimSpace(m.Name), nil
		}
	}
	return strings.TrimSpace(monitors[0].Name), nil
}

// SendShortcut dispatches a sendshortcut payload such as "CTRL,V,address:0x1".
func SendShortcut(ctx context.Context, shortcut string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return errors.New("sendshortcut requires a non-empty payload")
	}
	_, err := hyprctl(ctx, "--quiet", "dispatch", "sendshortcut", shortcut)
	return err
}

// Notify shows a compositor notification. An empty color uses the default accent.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = "rgb(89b4fa)"
	}
	_, err := hyprctl(ctx, "--quiet", "dispatch", "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
	return err
}

// DismissNotify clears every compositor notification.
func DismissNotify(ctx context.Context) error {
	_, err := hyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

func queryJSON(ctx context.Context, target string, v any) error {
	out, err := hyprctl(ctx, "-j", target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("decode hyprctl %s json: %w", target, err)
	}
	return nil
}
