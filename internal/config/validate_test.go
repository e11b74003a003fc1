package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSpeechPhrasesSortedAndHighestBoostWins(t *testing.T) {
	cfg := Default()
	cfg.Vocab.GlobalSets = []string{"core", "team"}
	cfg.Vocab.Sets["core"] = VocabSet{Name: "core", Boost: 10, Phrases: []string{"beta", "alpha"}}
	cfg.Vocab.Sets["team"] = VocabSet{Name: "team", Boost: 20, Phrases: []string{"alpha", "gamma"}}

	phrases, warnings, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, []SpeechPhrase{
		{Phrase: "alpha", Boost: 20},
		{Phrase: "beta", Boost: 10},
		{Phrase: "gamma", Boost: 20},
	}, phrases)
}

func TestBuildSpeechPhrasesEnforcesLimits(t *testing.T) {
	cfg := Default()
	cfg.Vocab.GlobalSets = []string{"missing"}
	_, _, err := BuildSpeechPhrases(cfg)
	require.ErrorContains(t, err, "unknown set")

	cfg.Vocab.GlobalSets = []string{"core"}
	cfg.Vocab.Sets["core"] = VocabSet{Name: "core", Phrases: []string{"a", "b", "c"}}
	cfg.Vocab.MaxPhrases = 2
	_, _, err = BuildSpeechPhrases(cfg)
	require.ErrorContains(t, err, "exceeds vocab.max_phrases")
}

func TestValidateDefaultsHasNoWarnings(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log_level"},
		{name: "unknown binding", mutate: func(c *Config) { c.Bindings["dictate"] = "f9" }, wantErr: "unknown binding"},
		{name: "empty riva grpc", mutate: func(c *Config) { c.Riva.GRPC = "" }, wantErr: "riva.grpc"},
		{name: "empty riva http", mutate: func(c *Config) { c.Riva.HTTP = "" }, wantErr: "riva.http"},
		{name: "bad health path", mutate: func(c *Config) { c.Riva.HealthPath = "v1/health" }, wantErr: "must start"},
		{name: "zero riva timeout", mutate: func(c *Config) { c.Riva.TimeoutMS = 0 }, wantErr: "riva.timeout_ms"},
		{name: "empty language", mutate: func(c *Config) { c.ASR.LanguageCode = "" }, wantErr: "language_code"},
		{name: "unknown indicator backend", mutate: func(c *Config) { c.Indicator.Backend = "tmux" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) {
			c.Indicator.Backend = "desktop"
			c.Indicator.DesktopAppName = " "
		}, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "invalid max phrases", mutate: func(c *Config) { c.Vocab.MaxPhrases = 0 }, wantErr: "vocab.max_phrases"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.Clipboard.Argv = nil }, wantErr: "clipboard_cmd"},
		{name: "paste command raw but empty argv", mutate: func(c *Config) {
			c.Paste.Enable = true
			c.PasteCmd.Raw = "mycmd"
			c.PasteCmd.Argv = nil
		}, wantErr: "paste_cmd"},
		{name: "missing paste shortcut when using default paste", mutate: func(c *Config) {
			c.Paste.Enable = true
			c.PasteCmd = CommandConfig{}
			c.Paste.Shortcut = ""
		}, wantErr: "paste.shortcut"},
		{name: "empty provider id", mutate: func(c *Config) {
			c.PostProcess.Providers = append(c.PostProcess.Providers, ProviderConfig{BaseURL: "http://x"})
		}, wantErr: "providers[5].id"},
		{name: "duplicate provider id", mutate: func(c *Config) {
			c.PostProcess.Providers = append(c.PostProcess.Providers, ProviderConfig{ID: "openai", BaseURL: "http://x"})
		}, wantErr: "duplicate id \"openai\""},
		{name: "provider without base url", mutate: func(c *Config) {
			c.PostProcess.Providers = []ProviderConfig{{ID: "local"}}
		}, wantErr: "base_url"},
		{name: "duplicate prompt id", mutate: func(c *Config) {
			c.PostProcess.Prompts = append(c.PostProcess.Prompts, c.PostProcess.Prompts[0])
		}, wantErr: "prompts contains duplicate id"},
		{name: "negative post-process timeout", mutate: func(c *Config) { c.PostProcess.TimeoutMS = -5 }, wantErr: "post_process.timeout_ms"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidatePostProcessWarnings(t *testing.T) {
	cfg := Default()
	cfg.PostProcess.Provider = "missing"
	cfg.PostProcess.SelectedPrompt = "nope"
	cfg.PostProcess.Models["ghost"] = "m"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 3)
	require.Contains(t, warnings[0].Message, "post_process.models")
	require.Contains(t, warnings[1].Message, "post_process.provider")
	require.Contains(t, warnings[2].Message, "post_process.selected_prompt")
}

func TestValidateWarnsOnAmbiguousChineseLanguage(t *testing.T) {
	cfg := Default()
	cfg.Language = "zh"
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "zh-Hans or zh-Hant")

	cfg.Language = "zh-Hans"
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestActiveProviderAndPrompt(t *testing.T) {
	cfg := Default().PostProcess

	provider, ok := cfg.ActiveProvider()
	require.True(t, ok)
	require.Equal(t, "openai", provider.ID)
	require.True(t, provider.StructuredOutput)

	prompt, ok := cfg.ActivePrompt()
	require.True(t, ok)
	require.Contains(t, prompt.Prompt, "${output}")

	cfg.Provider = ""
	_, ok = cfg.ActiveProvider()
	require.False(t, ok)
	cfg.SelectedPrompt = "other"
	_, ok = cfg.ActivePrompt()
	require.False(t, ok)
}
