// Package indicator drives the recording overlay, tray state, and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/hypr"
)

// TrayState is the coarse daemon state reported to the tray and to status queries.
type TrayState string

const (
	TrayIdle         TrayState = "idle"
	TrayRecording    TrayState = "recording"
	TrayTranscribing TrayState = "transcribing"
)

const (
	textRecording    = "Recording…"
	textTranscribing = "Transcribing…"
	textProcessing   = "Refining…"

	colorRecording    = "rgb(89b4fa)"
	colorTranscribing = "rgb(cba6f7)"
	colorProcessing   = "rgb(a6e3a1)"
	colorError        = "rgb(f38ba8)"

	overlayTimeoutMS      = 300000
	defaultErrorTimeoutMS = 1200
	dispatchTimeout       = 400 * time.Millisecond
)

// Indicator routes overlay updates to Hyprland or desktop notifications and plays cues.
// It is safe for concurrent use.
type Indicator struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger
	play   func(context.Context, Cue, config.IndicatorConfig) error

	mu                    sync.Mutex
	tray                  TrayState
	focusedMonitor        string
	desktopNotificationID uint32

	soundMu sync.Mutex
}

// New creates an indicator from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Indicator {
	return &Indicator{
		cfg:    cfg,
		logger: logger,
		play:   emitCue,
		tray:   TrayIdle,
	}
}

// ShowRecording displays the recording overlay.
func (i *Indicator) ShowRecording(ctx context.Context) {
	if !i.cfg.Enable {
		return
	}
	i.ensureFocusedMonitor(ctx)
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, 1, overlayTimeoutMS, colorRecording, textRecording)
	})
}

// ShowTranscribing displays the transcribing overlay.
func (i *Indicator) ShowTranscribing(ctx context.Context) {
	if !i.cfg.Enable {
		return
	}
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, 1, overlayTimeoutMS, colorTranscribing, textTranscribing)
	})
}

// ShowProcessing displays the post-processing overlay.
func (i *Indicator) ShowProcessing(ctx context.Context) {
	if !i.cfg.Enable {
		return
	}
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, 1, overlayTimeoutMS, colorProcessing, textProcessing)
	})
}

// ShowError replaces the overlay with message for the configured error timeout.
func (i *Indicator) ShowError(ctx context.Context, message string) {
	i.mu.Lock()
	i.focusedMonitor = ""
	i.mu.Unlock()

	if !i.cfg.Enable {
		return
	}
	timeout := i.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = defaultErrorTimeoutMS
	}
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, 3, timeout, colorError, message)
	})
}

// Hide dismisses the overlay and forgets the focused monitor.
func (i *Indicator) Hide(ctx context.Context) {
	i.mu.Lock()
	i.focusedMonitor = ""
	i.mu.Unlock()

	if !i.cfg.Enable {
		return
	}
	i.run(ctx, i.dismiss)
}

// SetTray records the tray state.
func (i *Indicator) SetTray(_ context.Context, state TrayState) {
	i.mu.Lock()
	previous := i.tray
	i.tray = state
	i.mu.Unlock()

	if previous != state && i.logger != nil {
		i.logger.Debug("tray state", "from", string(previous), "to", string(state))
	}
}

// Tray returns the current tray state.
func (i *Indicator) Tray() TrayState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tray
}

// FocusedMonitor returns the monitor captured when the recording overlay was shown.
func (i *Indicator) FocusedMonitor() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.focusedMonitor
}

// PlayCue plays kind and returns once playback finishes. Cues never overlap.
func (i *Indicator) PlayCue(ctx context.Context, kind Cue) {
	if !i.cfg.SoundEnable {
		return
	}
	i.soundMu.Lock()
	defer i.soundMu.Unlock()
	if err := i.play(ctx, kind, i.cfg); err != nil {
		i.log("audio cue failed", err, "cue", kind.String())
	}
}

func (i *Indicator) ensureFocusedMonitor(ctx context.Context) {
	if i.FocusedMonitor() != "" || i.desktopBackend() {
		return
	}

	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		i.log("focused monitor query failed", err)
		return
	}

	i.mu.Lock()
	i.focusedMonitor = monitor
	i.mu.Unlock()
}

func (i *Indicator) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(i.cfg.Backend), "desktop")
}

func (i *Indicator) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if i.desktopBackend() {
		return i.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (i *Indicator) dismiss(ctx context.Context) error {
	if i.desktopBackend() {
		return i.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop replaces the previous notification so only one overlay is visible.
func (i *Indicator) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	i.mu.Lock()
	replaceID := i.desktopNotificationID
	i.mu.Unlock()

	appName := strings.TrimSpace(i.cfg.DesktopAppName)
	if appName == "" {
		appName = "murmur-indicator"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.desktopNotificationID = id
	i.mu.Unlock()
	return nil
}

func (i *Indicator) dismissDesktop(ctx context.Context) error {
	i.mu.Lock()
	id := i.desktopNotificationID
	i.desktopNotificationID = 0
	i.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

func (i *Indicator) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		i.log("indicator dispatch failed", err)
	}
}

func (i *Indicator) log(message string, err error, args ...any) {
	if i.logger == nil || err == nil {
		return
	}
	i.logger.Debug(message, append(args, "error", err.Error())...)
}
