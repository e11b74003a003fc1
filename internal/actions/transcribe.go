package actions

import (
	"context"

	"github.com/rbright/murmur/internal/indicator"
)

// TranscribeAction records on Start and hands the capture to the pipeline on Stop.
type TranscribeAction struct {
	deps        Deps
	PostProcess bool
}

// Start shows recording feedback and attempts to open capture for bindingID.
// Whether recording actually began is read back from the recorder by the caller.
func (a *TranscribeAction) Start(ctx context.Context, bindingID string, _ string) {
	d := a.deps
	logDebug(d.Logger, "transcribe start", "binding", bindingID, "post_process", a.PostProcess)

	d.Indicator.SetTray(ctx, indicator.TrayRecording)
	d.Indicator.ShowRecording(ctx)

	if !d.Recorder.TryStartRecording(bindingID) {
		logDebug(d.Logger, "recording did not start", "binding", bindingID)
		d.Indicator.Hide(ctx)
		d.Indicator.SetTray(ctx, indicator.TrayIdle)
		return
	}

	// Mute only after the start cue so the cue itself stays audible. The
	// recorder drops this mute if Stop or Cancel already removed it.
	go func() {
		d.Indicator.PlayCue(context.WithoutCancel(ctx), indicator.CueStart)
		d.Recorder.ApplyMute()
	}()

	if err := d.Shortcut.Enable(ctx); err != nil && d.Logger != nil {
		d.Logger.Warn("enable cancel shortcut failed", "error", err.Error())
	}
}

// Stop switches feedback to transcribing and spawns the pipeline. It returns immediately.
func (a *TranscribeAction) Stop(ctx context.Context, bindingID string, _ string) {
	d := a.deps
	logDebug(d.Logger, "transcribe stop", "binding", bindingID, "post_process", a.PostProcess)

	if err := d.Shortcut.Disable(ctx); err != nil && d.Logger != nil {
		d.Logger.Warn("disable cancel shortcut failed", "error", err.Error())
	}

	d.Indicator.SetTray(ctx, indicator.TrayTranscribing)
	d.Indicator.ShowTranscribing(ctx)

	d.Recorder.RemoveMute()
	go d.Indicator.PlayCue(context.WithoutCancel(ctx), indicator.CueStop)

	postProcess := a.PostProcess
	go func() {
		guard := newFinishGuard(d.Notifier, d.Logger)
		defer guard.release()

		d.Pipeline.Run(ctx, bindingID, postProcess)
	}()
}
