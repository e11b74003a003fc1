// Package postprocess refines transcripts with an LLM, trying the on-device model, a
// structured-output completion, and a plain completion in that order.
package postprocess

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/llm"
)

const (
	outputPlaceholder  = "${output}"
	transcriptionField = "transcription"
	schemaName         = "transcription_output"
)

var transcriptionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "transcription": {
      "type": "string",
      "description": "The cleaned and processed transcription text"
    }
  },
  "required": ["transcription"],
  "additionalProperties": false
}`)

var invisibleReplacer = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// Chat is the chat-completions surface the ladder needs. ok is false when the
// provider answered without content.
type Chat interface {
	Complete(ctx context.Context, req llm.Request) (content string, ok bool, err error)
	CompleteWithSchema(ctx context.Context, req llm.Request, name string, schema json.RawMessage) (content string, ok bool, err error)
}

// OnDevice is a platform-native text model.
type OnDevice interface {
	Available() bool
	Generate(ctx context.Context, systemPrompt string, userContent string, tokenLimit int) (string, error)
}

type outcome int

const (
	// next falls through to the following attempt.
	next outcome = iota
	use
	skip
)

// request is the resolved, complete configuration for one run.
type request struct {
	provider config.ProviderConfig
	apiKey   string
	model    string
	prompt   string
	text     string
}

type attempt func(ctx context.Context, req request) (string, outcome)

// Ladder runs post-processing attempts against the active provider.
type Ladder struct {
	cfg      config.PostProcessConfig
	chat     Chat
	onDevice OnDevice
	logger   *slog.Logger
}

// New builds a ladder. chat and onDevice may be nil; attempts needing them are skipped.
func New(cfg config.PostProcessConfig, chat Chat, onDevice OnDevice, logger *slog.Logger) *Ladder {
	return &Ladder{cfg: cfg, chat: chat, onDevice: onDevice, logger: logger}
}

// Process returns the refined text. ok is false when text should be used unchanged:
// configuration is incomplete, the provider returned nothing, or every attempt failed.
func (l *Ladder) Process(ctx context.Context, text string) (string, bool) {
	if l == nil {
		return "", false
	}
	req, ok := l.resolve(text)
	if !ok {
		return "", false
	}

	if l.cfg.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(l.cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	l.debug("post-processing started", "provider", req.provider.ID, "model", req.model)

	for _, try := range []attempt{l.tryOnDevice, l.tryStructured, l.tryLegacy} {
		result, out := try(ctx, req)
		switch out {
		case use:
			return result, true
		case skip:
			return "", false
		}
	}
	return "", false
}

func (l *Ladder) resolve(text string) (request, bool) {
	provider, ok := l.cfg.ActiveProvider()
	if !ok {
		l.debug("post-processing skipped: no provider selected", "provider", l.cfg.Provider)
		return request{}, false
	}

	model := strings.TrimSpace(l.cfg.Models[provider.ID])
	if model == "" {
		l.debug("post-processing skipped: provider has no model", "provider", provider.ID)
		return request{}, false
	}

	prompt, ok := l.cfg.ActivePrompt()
	if !ok {
		l.debug("post-processing skipped: prompt not found", "prompt", l.cfg.SelectedPrompt)
		return request{}, false
	}
	if strings.TrimSpace(prompt.Prompt) == "" {
		l.debug("post-processing skipped: prompt is empty", "prompt", prompt.ID)
		return request{}, false
	}

	return request{
		provider: provider,
		apiKey:   l.cfg.APIKeys[provider.ID],
		model:    model,
		prompt:   prompt.Prompt,
		text:     text,
	}, true
}

// tryOnDevice handles the platform model. It never falls through: its result is final.
func (l *Ladder) tryOnDevice(ctx context.Context, req request) (string, outcome) {
	if req.provider.ID != config.OnDeviceProviderID {
		return "", next
	}
	if l.onDevice == nil || !l.onDevice.Available() {
		l.debug("on-device model unavailable")
		return "", skip
	}

	tokenLimit, err := strconv.Atoi(req.model)
	if err != nil {
		tokenLimit = 0
	}

	result, err := l.onDevice.Generate(ctx, BuildSystemPrompt(req.prompt), req.text, tokenLimit)
	if err != nil {
		l.logError("on-device post-processing failed", err)
		return "", skip
	}
	if strings.TrimSpace(result) == "" {
		l.debug("on-device model returned an empty response")
		return "", skip
	}

	result = StripInvisible(result)
	l.debug("on-device post-processing succeeded", "chars", len(result))
	return result, use
}

func (l *Ladder) tryStructured(ctx context.Context, req request) (string, outcome) {
	if !req.provider.StructuredOutput {
		return "", next
	}
	if l.chat == nil {
		return "", skip
	}

	content, ok, err := l.chat.CompleteWithSchema(ctx, l.chatRequest(req, BuildSystemPrompt(req.prompt), req.text), schemaName, transcriptionSchema)
	if err != nil {
		l.warn("structured output failed; falling back to prompt substitution", "provider", req.provider.ID, "error", err.Error())
		return "", next
	}
	if !ok {
		l.logError("llm response has no content", nil, "provider", req.provider.ID)
		return "", skip
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		l.logError("structured output is not valid JSON; using raw content", err)
		return StripInvisible(content), use
	}
	value, ok := payload[transcriptionField].(string)
	if !ok {
		l.logError("structured output missing transcription field; using raw content", nil)
		return StripInvisible(content), use
	}

	result := StripInvisible(value)
	l.debug("structured post-processing succeeded", "provider", req.provider.ID, "chars", len(result))
	return result, use
}

func (l *Ladder) tryLegacy(ctx context.Context, req request) (string, outcome) {
	if l.chat == nil {
		return "", skip
	}

	prompt := strings.ReplaceAll(req.prompt, outputPlaceholder, req.text)
	l.debug("prompt substituted", "chars", len(prompt))

	content, ok, err := l.chat.Complete(ctx, l.chatRequest(req, "", prompt))
	if err != nil {
		l.logError("post-processing failed; keeping original transcript", err, "provider", req.provider.ID)
		return "", skip
	}
	if !ok {
		l.logError("llm response has no content", nil, "provider", req.provider.ID)
		return "", skip
	}

	result := StripInvisible(content)
	l.debug("post-processing succeeded", "provider", req.provider.ID, "chars", len(result))
	return result, use
}

func (l *Ladder) chatRequest(req request, system string, user string) llm.Request {
	return llm.Request{
		Provider:     llm.Provider{ID: req.provider.ID, BaseURL: req.provider.BaseURL},
		APIKey:       req.apiKey,
		Model:        req.model,
		SystemPrompt: system,
		UserContent:  user,
	}
}

// StripInvisible removes zero-width characters some models insert.
func StripInvisible(s string) string {
	return invisibleReplacer.Replace(s)
}

// BuildSystemPrompt turns a ${output} template into a system prompt; the transcript
// travels as the user message instead.
func BuildSystemPrompt(template string) string {
	return strings.TrimSpace(strings.ReplaceAll(template, outputPlaceholder, ""))
}

func (l *Ladder) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *Ladder) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l *Ladder) logError(msg string, err error, args ...any) {
	if l.logger == nil {
		return
	}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.logger.Error(msg, args...)
}
