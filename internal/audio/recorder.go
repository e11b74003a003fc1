package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Muter controls output muting while dictating.
type Muter interface {
	SetMuted(muted bool) (previous bool, err error)
}

// Stream is one in-progress capture.
type Stream interface {
	Stop() []byte
}

// RecorderConfig controls source selection and output muting.
type RecorderConfig struct {
	Input              string
	Fallback           string
	MuteWhileRecording bool
}

// Recorder owns at most one active capture, tagged with the binding that started it.
type Recorder struct {
	cfg    RecorderConfig
	logger *slog.Logger
	muter  Muter

	selectDevice func(ctx context.Context, input string, fallback string) (Selection, error)
	startCapture func(Device) (Stream, error)

	mu        sync.Mutex
	bindingID string
	active    Stream
	muted     bool
	unmuted   bool
}

// NewRecorder returns a Pulse-backed recorder.
func NewRecorder(cfg RecorderConfig, logger *slog.Logger) *Recorder {
	return &Recorder{
		cfg:          cfg,
		logger:       logger,
		muter:        SinkMuter{},
		selectDevice: SelectDevice,
		startCapture: func(d Device) (Stream, error) { return StartCapture(d) },
	}
}

// TryStartRecording begins capture for bindingID. It returns false when a capture is
// already active or the microphone cannot be opened.
func (r *Recorder) TryStartRecording(bindingID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		r.log(slog.LevelDebug, "recording already active", "binding", bindingID, "active_binding", r.bindingID)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	selection, err := r.selectDevice(ctx, r.cfg.Input, r.cfg.Fallback)
	if err != nil {
		r.log(slog.LevelError, "select audio input failed", "error", err.Error())
		return false
	}
	if selection.Warning != "" {
		r.log(slog.LevelWarn, selection.Warning)
	}

	stream, err := r.startCapture(selection.Device)
	if err != nil {
		r.log(slog.LevelError, "start capture failed", "device", selection.Device.ID, "error", err.Error())
		return false
	}

	r.active = stream
	r.bindingID = bindingID
	r.unmuted = false
	r.log(slog.LevelDebug, "recording started", "binding", bindingID, "device", selection.Device.ID)
	return true
}

// StopRecording ends the capture started by bindingID and returns its PCM.
// ok is false when no capture for bindingID is active or nothing was captured.
func (r *Recorder) StopRecording(bindingID string) ([]byte, bool) {
	r.mu.Lock()
	if r.active == nil || r.bindingID != bindingID {
		r.mu.Unlock()
		return nil, false
	}
	stream := r.active
	r.active = nil
	r.bindingID = ""
	r.mu.Unlock()

	pcm := stream.Stop()
	r.log(slog.LevelDebug, "recording stopped", "binding", bindingID, "bytes", len(pcm))
	if len(pcm) == 0 {
		return nil, false
	}
	return pcm, true
}

// CancelRecording discards any active capture.
func (r *Recorder) CancelRecording() {
	r.mu.Lock()
	stream := r.active
	r.active = nil
	r.bindingID = ""
	r.mu.Unlock()

	if stream != nil {
		stream.Stop()
		r.log(slog.LevelDebug, "recording cancelled")
	}
}

// IsRecording reports whether a capture is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// ApplyMute mutes the output sink when configured and a capture is active.
// Sinks the user had already muted are left alone, and a capture whose mute was
// already removed stays unmuted.
func (r *Recorder) ApplyMute() {
	if !r.cfg.MuteWhileRecording || r.muter == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil || r.muted || r.unmuted {
		return
	}

	previous, err := r.muter.SetMuted(true)
	if err != nil {
		r.log(slog.LevelWarn, "mute output failed", "error", err.Error())
		return
	}
	r.muted = !previous
}

// RemoveMute restores output if ApplyMute muted it. Later ApplyMute calls are
// ignored until the next capture starts.
func (r *Recorder) RemoveMute() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unmuted = true
	if !r.muted || r.muter == nil {
		return
	}
	r.muted = false

	if _, err := r.muter.SetMuted(false); err != nil {
		r.log(slog.LevelWarn, "unmute output failed", "error", err.Error())
	}
}

func (r *Recorder) log(level slog.Level, msg string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Log(context.Background(), level, msg, args...)
}
