package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/murmur/internal/actions"
	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/coordinator"
	"github.com/rbright/murmur/internal/hotkey"
	"github.com/rbright/murmur/internal/hypr"
	"github.com/rbright/murmur/internal/indicator"
	"github.com/rbright/murmur/internal/ipc"
	"github.com/rbright/murmur/internal/llm"
	"github.com/rbright/murmur/internal/ondevice"
	"github.com/rbright/murmur/internal/output"
	"github.com/rbright/murmur/internal/pipeline"
	"github.com/rbright/murmur/internal/postprocess"
	"github.com/rbright/murmur/internal/riva"
	"github.com/rbright/murmur/internal/script"
	"github.com/rbright/murmur/internal/trigger"
	"github.com/rbright/murmur/internal/uithread"
)

const (
	acquireProbeTimeout = 180 * time.Millisecond
	acquireRetries      = 8
	shutdownTimeout     = 2 * time.Second
)

// commandRun owns the runtime socket and serves triggers until ctx is cancelled.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, acquireProbeTimeout, acquireRetries)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := r.buildDaemon(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer d.shutdown()

	d.coord.Start(ctx, d.table)
	if err := d.hotkeys.RegisterStatic(); err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		logger.Warn("global shortcut registration failed", "error", err.Error())
	}
	trigger.WatchSignals(ctx, d.router)

	logger.Info("daemon ready", "socket", socketPath, "pid", os.Getpid())

	if err := ipc.Serve(ctx, listener, ipc.HandlerFunc(d.handle)); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

// daemon holds the long-lived collaborators of one run.
type daemon struct {
	logger    *slog.Logger
	recorder  *audio.Recorder
	coord     *coordinator.Coordinator
	table     *actions.Table
	router    *trigger.Router
	hotkeys   *hotkey.Manager
	indicator *indicator.Indicator
}

func (r Runner) buildDaemon(ctx context.Context, cfg config.Config, logger *slog.Logger) (*daemon, error) {
	var dispatcher Dispatcher = &uithread.Inline{}
	if r.Dispatcher != nil {
		dispatcher = r.Dispatcher
	}

	phrases, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, fmt.Errorf("build speech phrases: %w", err)
	}
	rivaPhrases := make([]riva.SpeechPhrase, 0, len(phrases))
	for _, phrase := range phrases {
		rivaPhrases = append(rivaPhrases, riva.SpeechPhrase{Phrase: phrase.Phrase, Boost: phrase.Boost})
	}
	logger.Debug("speech context plan", "phrase_count", len(rivaPhrases))

	recorder := audio.NewRecorder(audio.RecorderConfig{
		Input:              cfg.Audio.Input,
		Fallback:           cfg.Audio.Fallback,
		MuteWhileRecording: cfg.Audio.MuteWhileRecording,
	}, logger)
	ind := indicator.New(cfg.Indicator, logger)

	transcriber := riva.New(riva.Config{
		Endpoint:             cfg.Riva.GRPC,
		LanguageCode:         cfg.ASR.LanguageCode,
		Model:                cfg.ASR.Model,
		AutomaticPunctuation: cfg.ASR.AutomaticPunctuation,
		SpeechPhrases:        rivaPhrases,
		TrailingSpace:        cfg.Transcript.TrailingSpace,
		Timeout:              time.Duration(cfg.Riva.TimeoutMS) * time.Millisecond,
	})
	ladder := postprocess.New(
		cfg.PostProcess,
		llm.NewClient(time.Duration(cfg.PostProcess.TimeoutMS)*time.Millisecond),
		ondevice.NewCommandModel(cfg.PostProcess.OnDevice.Argv),
		logger,
	)

	orchestrator := pipeline.New(pipeline.Options{
		Language:       cfg.Language,
		DebugAudioDump: cfg.Debug.EnableAudioDump,
	}, pipeline.Deps{
		Logger:        logger,
		Recorder:      recorder,
		Transcriber:   transcriber,
		Converter:     script.NewOpenCC(),
		PostProcessor: ladder,
		Deliverer:     output.NewDeliverer(cfg, logger),
		Indicator:     ind,
		Dispatcher:    dispatcher,
	})

	coord := coordinator.New(logger, recorder)

	var router *trigger.Router
	hotkeys, err := hotkey.NewManager(cfg.Bindings, config.BindingCancel, func(ev hotkey.Event) {
		router.OnHotkey(ev)
	}, dispatcher, logger)
	if err != nil {
		return nil, err
	}

	table := actions.NewTable(actions.Deps{
		Logger:    logger,
		Recorder:  recorder,
		Indicator: ind,
		Shortcut:  cancelShortcuts{hotkeys, hypr.NewCancelSubmap(cfg.CancelSubmap)},
		Pipeline:  orchestrator,
		Notifier:  coord,
	})
	router = trigger.NewRouter(ctx, coord, table, cfg.PushToTalk, logger)

	return &daemon{
		logger:    logger,
		recorder:  recorder,
		coord:     coord,
		table:     table,
		router:    router,
		hotkeys:   hotkeys,
		indicator: ind,
	}, nil
}

// handle serves one IPC request. toggle and cancel are queued like any other
// trigger; the reported stage is read after they are queued.
func (d *daemon) handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandToggle:
		binding := config.BindingTranscribe
		if req.PostProcess {
			binding = config.BindingTranscribePostProcess
		}
		d.router.Toggle(binding, "ipc")
	case ipc.CommandCancel:
		d.router.Toggle(config.BindingCancel, "ipc")
	case ipc.CommandStatus:
	default:
		return ipc.Failure(fmt.Sprintf("unsupported command %q", req.Command))
	}

	stage, err := d.coord.Status(ctx)
	if err != nil {
		return ipc.Failure(err.Error())
	}
	return ipc.Response{OK: true, Stage: stage.String(), Tray: string(d.indicator.Tray())}
}

func (d *daemon) shutdown() {
	d.coord.Close()
	select {
	case <-d.coord.Done():
	case <-time.After(shutdownTimeout):
		d.logger.Warn("coordinator did not stop in time")
	}
	if d.recorder.IsRecording() {
		d.recorder.CancelRecording()
		d.recorder.RemoveMute()
	}
	if err := d.hotkeys.Close(); err != nil {
		d.logger.Warn("unregister global shortcuts", "error", err.Error())
	}
	d.indicator.Hide(context.Background())
}

// cancelShortcuts toggles every cancel surface together: the global hotkey and
// the compositor submap.
type cancelShortcuts []actions.CancelShortcut

func (c cancelShortcuts) Enable(ctx context.Context) error {
	var errs []error
	for _, s := range c {
		if err := s.Enable(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c cancelShortcuts) Disable(ctx context.Context) error {
	var errs []error
	for _, s := range c {
		if err := s.Disable(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
