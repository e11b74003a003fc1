// Package pipeline runs the stop-side sequence: captured audio → transcript → script conversion →
// post-processing → delivery on the UI thread.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/indicator"
	"github.com/rbright/murmur/internal/script"
)

// Recorder yields the captured PCM for a binding; ok is false when nothing was captured.
type Recorder interface {
	StopRecording(bindingID string) (pcm []byte, ok bool)
}

// Transcriber converts captured PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte) (string, error)
}

// Converter rewrites text between Chinese script variants.
type Converter interface {
	Convert(variant script.Variant, text string) (string, error)
}

// PostProcessor refines a transcript. ok is false when the text should be left unchanged.
type PostProcessor interface {
	Process(ctx context.Context, text string) (refined string, ok bool)
}

// Deliverer hands the final text to the user.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// DeliverFunc adapts a function to the Deliverer interface.
type DeliverFunc func(context.Context, string) error

func (f DeliverFunc) Deliver(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Indicator is the pipeline-facing subset of indicator behavior.
type Indicator interface {
	ShowProcessing(context.Context)
	ShowError(context.Context, string)
	Hide(context.Context)
	SetTray(context.Context, indicator.TrayState)
	PlayCue(context.Context, indicator.Cue)
}

// Dispatcher runs fn on the UI-affinity thread and blocks until it returns.
type Dispatcher interface {
	Dispatch(fn func()) error
}

// Options carries the config values the orchestrator reads.
type Options struct {
	Language       string
	DebugAudioDump bool
}

// Deps wires the orchestrator. Converter and PostProcessor may be nil.
type Deps struct {
	Logger        *slog.Logger
	Recorder      Recorder
	Transcriber   Transcriber
	Converter     Converter
	PostProcessor PostProcessor
	Deliverer     Deliverer
	Indicator     Indicator
	Dispatcher    Dispatcher
}

// Orchestrator runs one pipeline per stop event. It is safe for concurrent use.
type Orchestrator struct {
	opts Options
	deps Deps
}

// New constructs an orchestrator.
func New(opts Options, deps Deps) *Orchestrator {
	return &Orchestrator{opts: opts, deps: deps}
}

// Run executes the pipeline for bindingID. Every exit path resets the UI.
func (o *Orchestrator) Run(ctx context.Context, bindingID string, postProcess bool) {
	startedAt := time.Now()

	pcm, ok := o.deps.Recorder.StopRecording(bindingID)
	if !ok {
		o.debug("no captured audio", "binding", bindingID)
		o.resetUI(ctx)
		return
	}
	o.writeDebugAudio(pcm)

	text, err := o.deps.Transcriber.Transcribe(ctx, pcm)
	if err != nil {
		o.logError("transcription failed", err, "binding", bindingID, "bytes", len(pcm))
		o.failUI(ctx, "Speech recognition failed")
		return
	}
	transcribedAt := time.Now()

	if strings.TrimSpace(text) == "" {
		o.debug("empty transcript", "binding", bindingID)
		o.resetUI(ctx)
		return
	}

	text = o.convertScript(text)

	if postProcess {
		if o.deps.Indicator != nil {
			o.deps.Indicator.ShowProcessing(ctx)
		}
		if o.deps.PostProcessor != nil {
			if refined, ok := o.deps.PostProcessor.Process(ctx, text); ok {
				text = refined
			}
		}
	}

	err = o.dispatch(func() {
		if err := o.deps.Deliverer.Deliver(ctx, text); err != nil {
			o.logError("deliver transcript failed", err, "binding", bindingID)
			o.failUI(ctx, "Output failed")
			return
		}
		o.info("transcript delivered",
			"binding", bindingID,
			"chars", len(text),
			"transcribe_ms", transcribedAt.Sub(startedAt).Milliseconds(),
			"total_ms", time.Since(startedAt).Milliseconds(),
		)
		if o.deps.Indicator != nil {
			go o.deps.Indicator.PlayCue(context.WithoutCancel(ctx), indicator.CueComplete)
		}
		o.resetUI(ctx)
	})
	if err != nil {
		o.logError("schedule delivery on ui thread failed", err, "binding", bindingID)
		o.resetUI(ctx)
	}
}

// convertScript applies the configured Chinese script variant and keeps the input on failure.
func (o *Orchestrator) convertScript(text string) string {
	variant, ok := script.VariantForLanguage(o.opts.Language)
	if !ok || o.deps.Converter == nil {
		return text
	}

	converted, err := o.deps.Converter.Convert(variant, text)
	if err != nil {
		o.logError("script conversion failed; keeping transcript", err, "variant", string(variant))
		return text
	}
	o.debug("script converted", "variant", string(variant), "before", text, "after", converted)
	return converted
}

func (o *Orchestrator) dispatch(fn func()) error {
	if o.deps.Dispatcher == nil {
		return errors.New("no ui dispatcher configured")
	}
	return o.deps.Dispatcher.Dispatch(fn)
}

func (o *Orchestrator) resetUI(ctx context.Context) {
	if o.deps.Indicator == nil {
		return
	}
	o.deps.Indicator.Hide(ctx)
	o.deps.Indicator.SetTray(ctx, indicator.TrayIdle)
}

// failUI swaps the overlay for a short-lived error message instead of hiding it.
func (o *Orchestrator) failUI(ctx context.Context, message string) {
	if o.deps.Indicator == nil {
		return
	}
	o.deps.Indicator.ShowError(ctx, message)
	o.deps.Indicator.SetTray(ctx, indicator.TrayIdle)
}

func (o *Orchestrator) debug(msg string, args ...any) {
	if o.deps.Logger != nil {
		o.deps.Logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.deps.Logger != nil {
		o.deps.Logger.Info(msg, args...)
	}
}

func (o *Orchestrator) logError(msg string, err error, args ...any) {
	if o.deps.Logger == nil {
		return
	}
	o.deps.Logger.Error(msg, append(args, "error", err.Error())...)
}
