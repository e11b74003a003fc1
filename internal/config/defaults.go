package config

const defaultPromptID = "default_improve_transcriptions"

const defaultPrompt = `Clean this transcript:
1. Fix spelling, capitalization, and punctuation errors
2. Convert number words to digits (twenty-five → 25, ten percent → 10%, five dollars → $5)
3. Replace spoken punctuation with symbols (period → ., comma → ,, question mark → ?)
4. Remove filler words (um, uh, like as filler)
5. Keep the language in the original version (if it was french, keep it in french for example)

Preserve exact meaning and word order. Do not paraphrase or reorder content.

Return only the cleaned transcript.

Transcript:
${output}`

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:   "info",
		Language:   "",
		PushToTalk: false,
		Bindings: map[string]string{
			BindingTranscribe:            "ctrl+alt+space",
			BindingTranscribePostProcess: "",
			BindingCancel:                "escape",
			BindingTest:                  "",
		},
		Audio: AudioConfig{
			Input:              "default",
			Fallback:           "default",
			MuteWhileRecording: false,
		},
		Riva: RivaConfig{
			GRPC:       "127.0.0.1:50051",
			HTTP:       "127.0.0.1:9000",
			HealthPath: "/v1/health/ready",
			TimeoutMS:  20000,
		},
		ASR: ASRConfig{
			AutomaticPunctuation: true,
			LanguageCode:         "en-US",
		},
		Transcript: TranscriptConfig{TrailingSpace: true},
		Vocab: VocabConfig{
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		PostProcess: PostProcessConfig{
			Provider: "openai",
			Providers: []ProviderConfig{
				{ID: "openai", BaseURL: "https://api.openai.com/v1", StructuredOutput: true},
				{ID: "openrouter", BaseURL: "https://openrouter.ai/api/v1", StructuredOutput: true},
				{ID: "groq", BaseURL: "https://api.groq.com/openai/v1"},
				{ID: "custom", BaseURL: "http://localhost:11434/v1"},
				{ID: OnDeviceProviderID, BaseURL: "apple-intelligence://local", StructuredOutput: true},
			},
			APIKeys: map[string]string{},
			Models:  map[string]string{},
			Prompts: []PromptConfig{
				{ID: defaultPromptID, Name: "Improve Transcriptions", Prompt: defaultPrompt},
			},
			SelectedPrompt: defaultPromptID,
			TimeoutMS:      30000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "murmur-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Clipboard: commandOf("wl-copy --trim-newline"),
		Paste:     PasteConfig{Enable: true, Shortcut: "CTRL,V"},
	}
}
