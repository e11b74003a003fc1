// Package coordinator serializes every trigger event through one goroutine that owns the pipeline stage.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rbright/murmur/internal/actions"
	"github.com/rbright/murmur/internal/fsm"
)

// DebounceWindow drops presses that arrive too soon after the last accepted press.
const DebounceWindow = 30 * time.Millisecond

// ErrStopped indicates the coordinator goroutine has exited.
var ErrStopped = errors.New("coordinator stopped")

// Actions resolves a binding id to its action implementation.
type Actions interface {
	Lookup(bindingID string) (actions.Action, bool)
}

// RecordingState is the recorder signal observed after an action starts.
type RecordingState interface {
	IsRecording() bool
}

// Coordinator is the single consumer of pipeline commands.
type Coordinator struct {
	logger   *slog.Logger
	recorder RecordingState
	queue    *queue
	now      func() time.Time

	startOnce sync.Once
	done      chan struct{}
}

// New constructs an idle coordinator. Commands sent before Start are queued.
func New(logger *slog.Logger, recorder RecordingState) *Coordinator {
	return &Coordinator{
		logger:   logger,
		recorder: recorder,
		queue:    newQueue(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the consumer goroutine. Subsequent calls are no-ops.
func (c *Coordinator) Start(ctx context.Context, table Actions) {
	c.startOnce.Do(func() {
		go c.run(ctx, table)
	})
}

// Close stops accepting commands; queued commands are still processed.
func (c *Coordinator) Close() {
	if c == nil {
		return
	}
	c.queue.close()
}

// Done is closed once the consumer goroutine exits.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// SendInput enqueues a trigger event. For signal or IPC toggles use pressed=true, pushToTalk=false.
func (c *Coordinator) SendInput(bindingID string, hotkey string, pressed bool, pushToTalk bool) {
	c.send(Input{BindingID: bindingID, Hotkey: hotkey, Pressed: pressed, PushToTalk: pushToTalk})
}

// NotifyCancel reports a cancellation performed outside the coordinator.
func (c *Coordinator) NotifyCancel(recordingWasActive bool) {
	c.send(Cancel{RecordingWasActive: recordingWasActive})
}

// NotifyProcessingFinished releases the Processing stage.
func (c *Coordinator) NotifyProcessingFinished() {
	c.send(ProcessingFinished{})
}

// Status returns the current stage as seen by the coordinator goroutine.
func (c *Coordinator) Status(ctx context.Context) (fsm.Stage, error) {
	query := statusQuery{reply: make(chan fsm.Stage, 1)}
	if !c.queue.push(query) {
		return fsm.Stage{}, ErrStopped
	}

	select {
	case stage := <-query.reply:
		return stage, nil
	case <-c.done:
		select {
		case stage := <-query.reply:
			return stage, nil
		default:
			return fsm.Stage{}, ErrStopped
		}
	case <-ctx.Done():
		return fsm.Stage{}, ctx.Err()
	}
}

func (c *Coordinator) send(cmd Command) {
	if c == nil {
		return
	}
	if !c.queue.push(cmd) {
		c.log(slog.LevelWarn, "coordinator queue closed; dropping command", "command", cmd.commandName())
	}
}

// run is the consumer loop. It is the only code that reads or writes stage.
func (c *Coordinator) run(ctx context.Context, table Actions) {
	defer close(c.done)
	defer c.queue.close()
	defer func() {
		if r := recover(); r != nil {
			c.log(slog.LevelError, "coordinator panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	stage := fsm.Idle()
	var lastPress time.Time

	for {
		cmd, ok := c.queue.pop(ctx)
		if !ok {
			c.log(slog.LevelDebug, "coordinator exited")
			return
		}

		switch cmd := cmd.(type) {
		case Input:
			if cmd.Pressed {
				now := c.now()
				if !lastPress.IsZero() && now.Sub(lastPress) < DebounceWindow {
					c.log(slog.LevelDebug, "debounced press", "binding", cmd.BindingID)
					continue
				}
				lastPress = now
			}

			decision := fsm.DecideInput(stage, cmd.BindingID, cmd.Pressed, cmd.PushToTalk)
			switch decision.Action {
			case fsm.ActionStart:
				stage = c.start(ctx, table, stage, cmd)
			case fsm.ActionStop:
				stage = c.stop(ctx, table, stage, cmd)
			default:
				c.log(slog.LevelDebug, "input ignored",
					"binding", cmd.BindingID,
					"pressed", cmd.Pressed,
					"reason", decision.Reason,
				)
			}
		case Cancel:
			next := fsm.ApplyCancel(stage, cmd.RecordingWasActive)
			c.logTransition("cancel", stage, next)
			stage = next
		case ProcessingFinished:
			next := fsm.ApplyFinished(stage)
			c.logTransition("processing finished", stage, next)
			stage = next
		case statusQuery:
			cmd.reply <- stage
		}
	}
}

// start runs the binding's start action and trusts the recorder, not the action, for the outcome.
func (c *Coordinator) start(ctx context.Context, table Actions, current fsm.Stage, in Input) fsm.Stage {
	action, ok := table.Lookup(in.BindingID)
	if !ok {
		c.log(slog.LevelWarn, "no action for binding", "binding", in.BindingID)
		return current
	}

	action.Start(ctx, in.BindingID, in.Hotkey)

	if c.recorder != nil && c.recorder.IsRecording() {
		next := fsm.Recording(in.BindingID)
		c.logTransition("start", current, next)
		return next
	}

	c.log(slog.LevelDebug, "start did not begin recording; staying idle", "binding", in.BindingID)
	return current
}

// stop hands off to the asynchronous pipeline; only ProcessingFinished leaves Processing.
func (c *Coordinator) stop(ctx context.Context, table Actions, current fsm.Stage, in Input) fsm.Stage {
	action, ok := table.Lookup(in.BindingID)
	if !ok {
		c.log(slog.LevelWarn, "no action for binding", "binding", in.BindingID)
		return current
	}

	action.Stop(ctx, in.BindingID, in.Hotkey)

	next := fsm.Processing()
	c.logTransition("stop", current, next)
	return next
}

func (c *Coordinator) logTransition(cause string, from fsm.Stage, to fsm.Stage) {
	c.log(slog.LevelDebug, "stage transition", "cause", cause, "from", from.String(), "to", to.String())
}

func (c *Coordinator) log(level slog.Level, msg string, args ...any) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Log(context.Background(), level, msg, args...)
}
