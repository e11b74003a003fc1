// Package hypr wraps the hyprctl commands murmur uses for overlays, paste, and the cancel submap.
package hypr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Controller switches Hyprland keybinding submaps.
type Controller interface {
	SetSubmap(ctx context.Context, name string) error
	ResetSubmap(ctx context.Context) error
}

// CLIController drives submaps through hyprctl.
type CLIController struct{}

func (CLIController) SetSubmap(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("submap name must not be empty")
	}
	_, err := hyprctl(ctx, "--quiet", "dispatch", "submap", name)
	return err
}

func (c CLIController) ResetSubmap(ctx context.Context) error {
	return c.SetSubmap(ctx, "reset")
}

// CancelSubmap enables the cancel binding by entering a submap while recording.
// The submap is expected to bind the cancel key to `murmur cancel`.
type CancelSubmap struct {
	Name       string
	Controller Controller
}

// NewCancelSubmap returns a cancel shortcut backed by hyprctl. An empty name disables it.
func NewCancelSubmap(name string) *CancelSubmap {
	return &CancelSubmap{Name: strings.TrimSpace(name), Controller: CLIController{}}
}

func (s *CancelSubmap) Enable(ctx context.Context) error {
	if s == nil || s.Name == "" || s.Controller == nil {
		return nil
	}
	if err := s.Controller.SetSubmap(ctx, s.Name); err != nil {
		return fmt.Errorf("enter cancel submap %q: %w", s.Name, err)
	}
	return nil
}

func (s *CancelSubmap) Disable(ctx context.Context) error {
	if s == nil || s.Name == "" || s.Controller == nil {
		return nil
	}
	if err := s.Controller.ResetSubmap(ctx); err != nil {
		return fmt.Errorf("leave cancel submap %q: %w", s.Name, err)
	}
	return nil
}

func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
		}
		return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}
