package config

import (
	"fmt"
	"sort"
	"strings"
)

var knownBindings = map[string]bool{
	BindingTranscribe:            true,
	BindingTranscribePostProcess: true,
	BindingCancel:                true,
	BindingTest:                  true,
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	for id := range cfg.Bindings {
		if !knownBindings[id] {
			return nil, fmt.Errorf("bindings contains unknown binding %q", id)
		}
	}

	if strings.TrimSpace(cfg.Riva.GRPC) == "" {
		return nil, fmt.Errorf("riva.grpc must not be empty")
	}
	if strings.TrimSpace(cfg.Riva.HTTP) == "" {
		return nil, fmt.Errorf("riva.http must not be empty")
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.Riva.HealthPath), "/") {
		return nil, fmt.Errorf("riva.health_path must start with '/'")
	}
	if cfg.Riva.TimeoutMS <= 0 {
		return nil, fmt.Errorf("riva.timeout_ms must be > 0")
	}
	if strings.TrimSpace(cfg.ASR.LanguageCode) == "" {
		return nil, fmt.Errorf("asr.language_code must not be empty")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("paste.shortcut must not be empty when paste.enable=true and paste_cmd is unset")
	}

	postWarnings, err := validatePostProcess(cfg.PostProcess)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, postWarnings...)

	if lang := strings.TrimSpace(cfg.Language); strings.HasPrefix(lang, "zh") && lang != "zh-Hans" && lang != "zh-Hant" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("language %q does not select a script variant; use zh-Hans or zh-Hant", lang)})
	}

	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

func validatePostProcess(p PostProcessConfig) ([]Warning, error) {
	var warnings []Warning

	providerIDs := make(map[string]bool, len(p.Providers))
	for i, provider := range p.Providers {
		id := strings.TrimSpace(provider.ID)
		if id == "" {
			return nil, fmt.Errorf("post_process.providers[%d].id must not be empty", i)
		}
		if providerIDs[id] {
			return nil, fmt.Errorf("post_process.providers contains duplicate id %q", id)
		}
		providerIDs[id] = true
		if strings.TrimSpace(provider.BaseURL) == "" {
			return nil, fmt.Errorf("post_process.providers[%d].base_url must not be empty", i)
		}
	}

	promptIDs := make(map[string]bool, len(p.Prompts))
	for i, prompt := range p.Prompts {
		id := strings.TrimSpace(prompt.ID)
		if id == "" {
			return nil, fmt.Errorf("post_process.prompts[%d].id must not be empty", i)
		}
		if promptIDs[id] {
			return nil, fmt.Errorf("post_process.prompts contains duplicate id %q", id)
		}
		promptIDs[id] = true
	}

	if p.TimeoutMS < 0 {
		return nil, fmt.Errorf("post_process.timeout_ms must be >= 0")
	}

	if p.Provider != "" && !providerIDs[p.Provider] {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("post_process.provider %q is not defined; post-processing will be skipped", p.Provider)})
	}
	if p.SelectedPrompt != "" && !promptIDs[p.SelectedPrompt] {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("post_process.selected_prompt %q is not defined; post-processing will be skipped", p.SelectedPrompt)})
	}
	for id := range p.Models {
		if !providerIDs[id] {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("post_process.models has entry for unknown provider %q", id)})
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Message < warnings[j].Message })

	return warnings, nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic ASR phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}

	sort.Slice(phrases, func(i, j int) bool {
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
