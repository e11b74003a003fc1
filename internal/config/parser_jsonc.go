package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	LogLevel    *string           `json:"log_level"`
	Language    *string           `json:"language"`
	PushToTalk  *bool             `json:"push_to_talk"`
	Bindings    map[string]string `json:"bindings"`
	Audio       *jsoncAudio       `json:"audio"`
	Riva        *jsoncRiva        `json:"riva"`
	ASR         *jsoncASR         `json:"asr"`
	Transcript  *jsoncTranscript  `json:"transcript"`
	Vocab       *jsoncVocab       `json:"vocab"`
	PostProcess *jsoncPostProcess `json:"post_process"`
	Indicator   *jsoncIndicator   `json:"indicator"`
	Paste       *jsoncPaste       `json:"paste"`
	Debug       *jsoncDebug       `json:"debug"`

	ClipboardCmd *string `json:"clipboard_cmd"`
	PasteCmd     *string `json:"paste_cmd"`
	CancelSubmap *string `json:"cancel_submap"`
}

type jsoncAudio struct {
	Input              *string `json:"input"`
	Fallback           *string `json:"fallback"`
	MuteWhileRecording *bool   `json:"mute_while_recording"`
}

type jsoncRiva struct {
	GRPC       *string `json:"grpc"`
	HTTP       *string `json:"http"`
	HealthPath *string `json:"health_path"`
	TimeoutMS  *int    `json:"timeout_ms"`
}

type jsoncASR struct {
	AutomaticPunctuation *bool   `json:"automatic_punctuation"`
	LanguageCode         *string `json:"language_code"`
	Model                *string `json:"model"`
}

type jsoncTranscript struct {
	TrailingSpace *bool `json:"trailing_space"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Boost   *float64 `json:"boost"`
	Phrases []string `json:"phrases"`
}

type jsoncPostProcess struct {
	Provider       *string           `json:"provider"`
	Providers      []jsoncProvider   `json:"providers"`
	APIKeys        map[string]string `json:"api_keys"`
	Models         map[string]string `json:"models"`
	Prompts        []jsoncPrompt     `json:"prompts"`
	SelectedPrompt *string           `json:"selected_prompt"`
	OnDeviceCmd    *string           `json:"on_device_cmd"`
	TimeoutMS      *int              `json:"timeout_ms"`
}

type jsoncProvider struct {
	ID               string `json:"id"`
	BaseURL          string `json:"base_url"`
	StructuredOutput bool   `json:"structured_output"`
}

type jsoncPrompt struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncPaste struct {
	Enable   *bool   `json:"enable"`
	Shortcut *string `json:"shortcut"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		out := make([]string, 0)
		for _, part := range strings.Split(single, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := cloneConfig(base)
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	setString(&cfg.LogLevel, payload.LogLevel)
	setString(&cfg.Language, payload.Language)
	setBool(&cfg.PushToTalk, payload.PushToTalk)

	for id, chord := range payload.Bindings {
		cfg.Bindings[strings.TrimSpace(id)] = strings.TrimSpace(chord)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
		setBool(&cfg.Audio.MuteWhileRecording, a.MuteWhileRecording)
	}

	if r := payload.Riva; r != nil {
		setString(&cfg.Riva.GRPC, r.GRPC)
		setString(&cfg.Riva.HTTP, r.HTTP)
		setString(&cfg.Riva.HealthPath, r.HealthPath)
		setInt(&cfg.Riva.TimeoutMS, r.TimeoutMS)
	}

	if a := payload.ASR; a != nil {
		setBool(&cfg.ASR.AutomaticPunctuation, a.AutomaticPunctuation)
		setString(&cfg.ASR.LanguageCode, a.LanguageCode)
		setString(&cfg.ASR.Model, a.Model)
	}

	if payload.Transcript != nil {
		setBool(&cfg.Transcript.TrailingSpace, payload.Transcript.TrailingSpace)
	}

	if err := payload.Vocab.applyTo(&cfg.Vocab); err != nil {
		return err
	}
	if err := payload.PostProcess.applyTo(&cfg.PostProcess); err != nil {
		return err
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setString(&cfg.Indicator.SoundCancelFile, i.SoundCancelFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if p := payload.Paste; p != nil {
		setBool(&cfg.Paste.Enable, p.Enable)
		setString(&cfg.Paste.Shortcut, p.Shortcut)
	}

	if payload.Debug != nil {
		setBool(&cfg.Debug.EnableAudioDump, payload.Debug.AudioDump)
	}

	setString(&cfg.CancelSubmap, payload.CancelSubmap)

	var err error
	if cfg.Clipboard, err = applyCommand("clipboard_cmd", cfg.Clipboard, payload.ClipboardCmd); err != nil {
		return err
	}
	if cfg.PasteCmd, err = applyCommand("paste_cmd", cfg.PasteCmd, payload.PasteCmd); err != nil {
		return err
	}
	return nil
}

func (v *jsoncVocab) applyTo(cfg *VocabConfig) error {
	if v == nil {
		return nil
	}
	if v.Global != nil {
		cfg.GlobalSets = nil
		for _, name := range *v.Global {
			if name = strings.TrimSpace(name); name != "" {
				cfg.GlobalSets = append(cfg.GlobalSets, name)
			}
		}
	}
	setInt(&cfg.MaxPhrases, v.MaxPhrases)

	for name, set := range v.Sets {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return fmt.Errorf("vocab.sets contains an empty set name")
		}
		entry := VocabSet{Name: trimmed, Phrases: append([]string(nil), set.Phrases...)}
		if set.Boost != nil {
			entry.Boost = *set.Boost
		}
		cfg.Sets[trimmed] = entry
	}
	return nil
}

// applyTo merges post-processing settings. Providers and prompts replace the
// defaults wholesale; api_keys and models merge by provider id.
func (p *jsoncPostProcess) applyTo(cfg *PostProcessConfig) error {
	if p == nil {
		return nil
	}

	setString(&cfg.Provider, p.Provider)
	setString(&cfg.SelectedPrompt, p.SelectedPrompt)
	setInt(&cfg.TimeoutMS, p.TimeoutMS)

	if p.Providers != nil {
		cfg.Providers = make([]ProviderConfig, 0, len(p.Providers))
		for _, provider := range p.Providers {
			cfg.Providers = append(cfg.Providers, ProviderConfig{
				ID:               strings.TrimSpace(provider.ID),
				BaseURL:          strings.TrimSpace(provider.BaseURL),
				StructuredOutput: provider.StructuredOutput,
			})
		}
	}

	if p.Prompts != nil {
		cfg.Prompts = make([]PromptConfig, 0, len(p.Prompts))
		for _, prompt := range p.Prompts {
			cfg.Prompts = append(cfg.Prompts, PromptConfig{
				ID:     strings.TrimSpace(prompt.ID),
				Name:   strings.TrimSpace(prompt.Name),
				Prompt: prompt.Prompt,
			})
		}
	}

	for id, key := range p.APIKeys {
		cfg.APIKeys[strings.TrimSpace(id)] = strings.TrimSpace(key)
	}
	for id, model := range p.Models {
		cfg.Models[strings.TrimSpace(id)] = strings.TrimSpace(model)
	}

	var err error
	cfg.OnDevice, err = applyCommand("post_process.on_device_cmd", cfg.OnDevice, p.OnDeviceCmd)
	return err
}

func applyCommand(field string, current CommandConfig, raw *string) (CommandConfig, error) {
	if raw == nil {
		return current, nil
	}
	argv, err := splitCommand(*raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return CommandConfig{Raw: *raw, Argv: argv}, nil
}

// cloneConfig copies the maps and slices that applyTo mutates so base stays untouched.
func cloneConfig(base Config) Config {
	cfg := base
	cfg.Bindings = cloneMap(base.Bindings)
	cfg.Vocab.Sets = make(map[string]VocabSet, len(base.Vocab.Sets))
	for name, set := range base.Vocab.Sets {
		cfg.Vocab.Sets[name] = set
	}
	cfg.Vocab.GlobalSets = append([]string(nil), base.Vocab.GlobalSets...)
	cfg.PostProcess.APIKeys = cloneMap(base.PostProcess.APIKeys)
	cfg.PostProcess.Models = cloneMap(base.PostProcess.Models)
	cfg.PostProcess.Providers = append([]ProviderConfig(nil), base.PostProcess.Providers...)
	cfg.PostProcess.Prompts = append([]PromptConfig(nil), base.PostProcess.Prompts...)
	return cfg
}

func cloneMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
