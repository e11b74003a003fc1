package actions

import (
	"context"
	"log/slog"

	"github.com/rbright/murmur/internal/indicator"
)

// CancelAction discards the active recording. It never touches an in-flight pipeline.
type CancelAction struct {
	deps Deps
}

// Start cancels the current operation and reports it to the coordinator.
func (a *CancelAction) Start(ctx context.Context, bindingID string, _ string) {
	d := a.deps
	wasRecording := d.Recorder.IsRecording()
	logDebug(d.Logger, "cancel requested", "binding", bindingID, "recording", wasRecording)

	if err := d.Shortcut.Disable(ctx); err != nil && d.Logger != nil {
		d.Logger.Warn("disable cancel shortcut failed", "error", err.Error())
	}

	d.Recorder.CancelRecording()
	d.Recorder.RemoveMute()

	d.Indicator.Hide(ctx)
	d.Indicator.SetTray(ctx, indicator.TrayIdle)
	if wasRecording {
		go d.Indicator.PlayCue(context.WithoutCancel(ctx), indicator.CueCancel)
	}

	d.Notifier.NotifyCancel(wasRecording)
}

func (a *CancelAction) Stop(context.Context, string, string) {}

// TestAction only logs its triggers.
type TestAction struct {
	logger *slog.Logger
}

func (a *TestAction) Start(_ context.Context, bindingID string, hotkey string) {
	if a.logger != nil {
		a.logger.Info("binding started", "binding", bindingID, "hotkey", hotkey)
	}
}

func (a *TestAction) Stop(_ context.Context, bindingID string, hotkey string) {
	if a.logger != nil {
		a.logger.Info("binding stopped", "binding", bindingID, "hotkey", hotkey)
	}
}
