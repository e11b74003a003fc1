// Package actions maps binding ids to the start/stop behavior behind each trigger.
package actions

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rbright/murmur/internal/indicator"
)

// Binding ids understood by the dispatch table.
const (
	BindingTranscribe            = "transcribe"
	BindingTranscribePostProcess = "transcribe_with_post_process"
	BindingCancel                = "cancel"
	BindingTest                  = "test"
)

// Action is one binding's behavior. Neither method may block on the pipeline.
type Action interface {
	Start(ctx context.Context, bindingID string, hotkey string)
	Stop(ctx context.Context, bindingID string, hotkey string)
}

// Recorder is the capture surface driven by transcribe and cancel actions.
type Recorder interface {
	TryStartRecording(bindingID string) bool
	IsRecording() bool
	CancelRecording()
	ApplyMute()
	RemoveMute()
}

// Indicator is the tray, overlay, and cue surface used by actions.
type Indicator interface {
	SetTray(context.Context, indicator.TrayState)
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	Hide(context.Context)
	// PlayCue blocks until the cue has finished playing.
	PlayCue(context.Context, indicator.Cue)
}

// CancelShortcut toggles the dedicated cancel hotkey while a recording is live.
type CancelShortcut interface {
	Enable(context.Context) error
	Disable(context.Context) error
}

// Pipeline runs the stop-side sequence for one recording.
type Pipeline interface {
	Run(ctx context.Context, bindingID string, postProcess bool)
}

// Notifier is the coordinator surface actions report back to.
type Notifier interface {
	NotifyCancel(recordingWasActive bool)
	NotifyProcessingFinished()
}

// Deps wires actions to their collaborators. Nil fields fall back to no-ops.
type Deps struct {
	Logger    *slog.Logger
	Recorder  Recorder
	Indicator Indicator
	Shortcut  CancelShortcut
	Pipeline  Pipeline
	Notifier  Notifier
}

// Table is the immutable binding id → action map built once at startup.
type Table struct {
	actions map[string]Action
}

// NewTable builds the four standard bindings around deps.
func NewTable(deps Deps) *Table {
	deps = deps.withDefaults()
	return &Table{
		actions: map[string]Action{
			BindingTranscribe:            &TranscribeAction{deps: deps},
			BindingTranscribePostProcess: &TranscribeAction{deps: deps, PostProcess: true},
			BindingCancel:                &CancelAction{deps: deps},
			BindingTest:                  &TestAction{logger: deps.Logger},
		},
	}
}

// Lookup resolves a binding id.
func (t *Table) Lookup(bindingID string) (Action, bool) {
	if t == nil {
		return nil, false
	}
	action, ok := t.actions[bindingID]
	return action, ok
}

// IDs returns the registered binding ids in sorted order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.actions))
	for id := range t.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsTranscribeBinding reports whether the binding must be serialized through the coordinator.
func IsTranscribeBinding(bindingID string) bool {
	return bindingID == BindingTranscribe || bindingID == BindingTranscribePostProcess
}

func (d Deps) withDefaults() Deps {
	if d.Recorder == nil {
		d.Recorder = noopRecorder{}
	}
	if d.Indicator == nil {
		d.Indicator = noopIndicator{}
	}
	if d.Shortcut == nil {
		d.Shortcut = noopShortcut{}
	}
	if d.Pipeline == nil {
		d.Pipeline = noopPipeline{}
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	return d
}

type noopRecorder struct{}

func (noopRecorder) TryStartRecording(string) bool { return false }
func (noopRecorder) IsRecording() bool             { return false }
func (noopRecorder) CancelRecording()              {}
func (noopRecorder) ApplyMute()                    {}
func (noopRecorder) RemoveMute()                   {}

type noopIndicator struct{}

func (noopIndicator) SetTray(context.Context, indicator.TrayState) {}
func (noopIndicator) ShowRecording(context.Context)                {}
func (noopIndicator) ShowTranscribing(context.Context)             {}
func (noopIndicator) Hide(context.Context)                         {}
func (noopIndicator) PlayCue(context.Context, indicator.Cue)       {}

type noopShortcut struct{}

func (noopShortcut) Enable(context.Context) error  { return nil }
func (noopShortcut) Disable(context.Context) error { return nil }

type noopPipeline struct{}

func (noopPipeline) Run(context.Context, string, bool) {}

type noopNotifier struct{}

func (noopNotifier) NotifyCancel(bool)         {}
func (noopNotifier) NotifyProcessingFinished() {}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
