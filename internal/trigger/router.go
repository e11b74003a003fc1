// Package trigger routes hotkey, signal, and IPC triggers to the coordinator or
// directly to an action.
package trigger

import (
	"context"
	"log/slog"

	"github.com/rbright/murmur/internal/actions"
	"github.com/rbright/murmur/internal/hotkey"
)

// Coordinator accepts serialized transcribe inputs.
type Coordinator interface {
	SendInput(bindingID string, hotkey string, pressed bool, pushToTalk bool)
}

// Actions resolves non-transcribe bindings.
type Actions interface {
	Lookup(bindingID string) (actions.Action, bool)
}

// Router sends transcribe bindings through the coordinator and invokes every other
// binding's action directly: press starts it and release stops it.
type Router struct {
	ctx        context.Context
	coord      Coordinator
	table      Actions
	pushToTalk bool
	logger     *slog.Logger
}

// NewRouter builds a router. pushToTalk applies to hotkey events only.
func NewRouter(ctx context.Context, coord Coordinator, table Actions, pushToTalk bool, logger *slog.Logger) *Router {
	return &Router{ctx: ctx, coord: coord, table: table, pushToTalk: pushToTalk, logger: logger}
}

// OnHotkey handles a global shortcut press or release.
func (r *Router) OnHotkey(ev hotkey.Event) {
	r.Route(ev.Binding, ev.Hotkey, ev.Pressed, r.pushToTalk)
}

// Toggle handles a one-shot trigger from a signal or the CLI. It always acts as a
// toggle-mode press.
func (r *Router) Toggle(bindingID string, source string) {
	r.Route(bindingID, source, true, false)
}

// Route delivers one trigger event.
func (r *Router) Route(bindingID string, hotkeyText string, pressed bool, pushToTalk bool) {
	if actions.IsTranscribeBinding(bindingID) {
		r.coord.SendInput(bindingID, hotkeyText, pressed, pushToTalk)
		return
	}

	action, ok := r.table.Lookup(bindingID)
	if !ok {
		if r.logger != nil {
			r.logger.Warn("no action for binding", "binding", bindingID, "hotkey", hotkeyText)
		}
		return
	}
	if pressed {
		action.Start(r.ctx, bindingID, hotkeyText)
	} else {
		action.Stop(r.ctx, bindingID, hotkeyText)
	}
}
