// Package fsm models the dictation pipeline stage and the pure decision rules applied to it.
package fsm

import "fmt"

type Kind string

const (
	KindIdle       Kind = "idle"
	KindRecording  Kind = "recording"
	KindProcessing Kind = "processing"
)

// Stage is the pipeline lifecycle value owned by the coordinator goroutine.
type Stage struct {
	Kind      Kind
	BindingID string
}

func Idle() Stage { return Stage{Kind: KindIdle} }

func Recording(bindingID string) Stage {
	return Stage{Kind: KindRecording, BindingID: bindingID}
}

func Processing() Stage { return Stage{Kind: KindProcessing} }

func (s Stage) IsIdle() bool       { return s.Kind == KindIdle || s.Kind == "" }
func (s Stage) IsProcessing() bool { return s.Kind == KindProcessing }

// IsRecording reports whether any binding is recording.
func (s Stage) IsRecording() bool { return s.Kind == KindRecording }

// IsRecordingFor reports whether the given binding owns the active recording.
func (s Stage) IsRecordingFor(bindingID string) bool {
	return s.Kind == KindRecording && s.BindingID == bindingID
}

func (s Stage) String() string {
	if s.Kind == KindRecording {
		return fmt.Sprintf("%s(%s)", s.Kind, s.BindingID)
	}
	if s.Kind == "" {
		return string(KindIdle)
	}
	return string(s.Kind)
}

type Action int

const (
	ActionIgnore Action = iota
	ActionStart
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	default:
		return "ignore"
	}
}

// Decision is the outcome of applying one input event to a stage.
type Decision struct {
	Action Action
	Reason string
}

// DecideInput maps a hotkey/signal input onto start, stop, or ignore.
func DecideInput(current Stage, bindingID string, pressed bool, pushToTalk bool) Decision {
	if pushToTalk {
		switch {
		case pressed && current.IsIdle():
			return Decision{Action: ActionStart}
		case !pressed && current.IsRecordingFor(bindingID):
			return Decision{Action: ActionStop}
		case pressed:
			return ignore(current, "pipeline busy")
		default:
			return ignore(current, "release for inactive binding")
		}
	}

	if !pressed {
		return ignore(current, "release ignored in toggle mode")
	}

	switch {
	case current.IsIdle():
		return Decision{Action: ActionStart}
	case current.IsRecordingFor(bindingID):
		return Decision{Action: ActionStop}
	default:
		return ignore(current, "pipeline busy")
	}
}

// ApplyCancel resets to idle unless a pipeline is already in flight.
func ApplyCancel(current Stage, recordingWasActive bool) Stage {
	if current.IsProcessing() {
		return current
	}
	if recordingWasActive || current.IsRecording() {
		return Idle()
	}
	return current
}

// ApplyFinished is the only way out of Processing.
func ApplyFinished(Stage) Stage {
	return Idle()
}

func ignore(current Stage, reason string) Decision {
	return Decision{Action: ActionIgnore, Reason: fmt.Sprintf("%s (stage %s)", reason, current)}
}
