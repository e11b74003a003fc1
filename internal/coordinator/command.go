package coordinator

import "github.com/rbright/murmur/internal/fsm"

// Command is the closed set of values accepted by the coordinator queue.
type Command interface {
	commandName() string
}

// Input is one hotkey, signal, or IPC trigger for a binding.
type Input struct {
	BindingID  string
	Hotkey     string
	Pressed    bool
	PushToTalk bool
}

// Cancel reports that the current operation was cancelled outside the coordinator.
type Cancel struct {
	RecordingWasActive bool
}

// ProcessingFinished is sent exactly once per pipeline run by the completion guard.
type ProcessingFinished struct{}

// statusQuery reads the stage on the coordinator goroutine and replies on a buffered channel.
type statusQuery struct {
	reply chan fsm.Stage
}

func (Input) commandName() string              { return "input" }
func (Cancel) commandName() string             { return "cancel" }
func (ProcessingFinished) commandName() string { return "processing_finished" }
func (statusQuery) commandName() string        { return "status" }
