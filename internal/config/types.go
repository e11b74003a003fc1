// Package config resolves, parses, validates, and defaults murmur configuration.
package config

import "strings"

// Binding ids accepted under "bindings".
const (
	BindingTranscribe            = "transcribe"
	BindingTranscribePostProcess = "transcribe_with_post_process"
	BindingCancel                = "cancel"
	BindingTest                  = "test"
)

// OnDeviceProviderID selects the platform-native model instead of a remote endpoint.
const OnDeviceProviderID = "apple_intelligence"

// Config is the fully materialized runtime configuration used by murmur.
type Config struct {
	LogLevel     string
	Language     string
	PushToTalk   bool
	Bindings     map[string]string
	Audio        AudioConfig
	Riva         RivaConfig
	ASR          ASRConfig
	Transcript   TranscriptConfig
	Vocab        VocabConfig
	PostProcess  PostProcessConfig
	Indicator    IndicatorConfig
	Clipboard    CommandConfig
	PasteCmd     CommandConfig
	Paste        PasteConfig
	CancelSubmap string
	Debug        DebugConfig
}

// AudioConfig controls input-source selection and output muting while recording.
type AudioConfig struct {
	Input              string
	Fallback           string
	MuteWhileRecording bool
}

// RivaConfig locates the speech recognition server.
type RivaConfig struct {
	GRPC       string
	HTTP       string
	HealthPath string
	TimeoutMS  int
}

// ASRConfig controls request-level hints passed to Riva.
type ASRConfig struct {
	AutomaticPunctuation bool
	LanguageCode         string
	Model                string
}

// TranscriptConfig controls transcript assembly formatting.
type TranscriptConfig struct {
	TrailingSpace bool
}

// PostProcessConfig describes the LLM refinement step.
type PostProcessConfig struct {
	Provider       string
	Providers      []ProviderConfig
	APIKeys        map[string]string
	Models         map[string]string
	Prompts        []PromptConfig
	SelectedPrompt string
	OnDevice       CommandConfig
	TimeoutMS      int
}

// ProviderConfig is one OpenAI-compatible chat endpoint.
type ProviderConfig struct {
	ID               string
	BaseURL          string
	StructuredOutput bool
}

// PromptConfig is one named prompt template. ${output} marks where the transcript goes.
type PromptConfig struct {
	ID     string
	Name   string
	Prompt string
}

// ActiveProvider returns the selected provider definition.
func (p PostProcessConfig) ActiveProvider() (ProviderConfig, bool) {
	id := strings.TrimSpace(p.Provider)
	if id == "" {
		return ProviderConfig{}, false
	}
	for _, provider := range p.Providers {
		if provider.ID == id {
			return provider, true
		}
	}
	return ProviderConfig{}, false
}

// ActivePrompt returns the selected prompt definition.
func (p PostProcessConfig) ActivePrompt() (PromptConfig, bool) {
	id := strings.TrimSpace(p.SelectedPrompt)
	if id == "" {
		return PromptConfig{}, false
	}
	for _, prompt := range p.Prompts {
		if prompt.ID == id {
			return prompt, true
		}
	}
	return PromptConfig{}, false
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	ErrorTimeoutMS    int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// PasteConfig controls post-delivery paste behavior.
type PasteConfig struct {
	Enable   bool
	Shortcut string
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to ASR adapters.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
