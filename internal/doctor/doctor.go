// Package doctor checks that config, desktop tools, audio, Riva, and post-processing
// are ready before the daemon runs.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/hotkey"
	"github.com/rbright/murmur/internal/ondevice"
	"github.com/rbright/murmur/internal/riva"
	"github.com/rbright/murmur/internal/script"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the ordered list of checks.
type Report struct {
	Checks []Check
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

func (r Report) String() string {
	lines := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", status, check.Name, check.Message))
	}
	return strings.Join(lines, "\n")
}

// Run executes every check against loaded.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", loaded.Path)}}

	checks = append(checks,
		checkEnv("XDG_SESSION_TYPE", func(v string) bool {
			return strings.EqualFold(strings.TrimSpace(v), "wayland")
		}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"),
		checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"),
		checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"),
	)

	if cfg.Paste.Enable {
		if len(cfg.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.PasteCmd.Argv, "paste_cmd"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}

	checks = append(checks, checkBindings(cfg.Bindings))
	if hasShortcuts(cfg.Bindings) {
		checks = append(checks, checkHotkeyBackend(hotkey.Diagnose))
	}
	checks = append(checks,
		checkAudioSelection(ctx, cfg),
		checkRivaReady(ctx, cfg),
		checkRivaGRPC(ctx, cfg),
		checkPostProcess(cfg.PostProcess),
	)
	if variant, ok := script.VariantForLanguage(cfg.Language); ok {
		checks = append(checks, checkScript(variant))
	}
	return Report{Checks: checks}
}

func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	if predicate(os.Getenv(name)) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], name+" command is available")
}

func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: "binary not found in PATH: " + bin}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkBindings parses every configured shortcut without registering it.
func checkBindings(bindings map[string]string) Check {
	ids := make([]string, 0, len(bindings))
	for id, text := range bindings {
		if strings.TrimSpace(text) != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := hotkey.ParseChord(bindings[id]); err != nil {
			return Check{Name: "bindings", Pass: false, Message: fmt.Sprintf("%s: %v", id, err)}
		}
	}
	if len(ids) == 0 {
		return Check{Name: "bindings", Pass: true, Message: "no global shortcuts configured; use signals or `murmur toggle`"}
	}
	return Check{Name: "bindings", Pass: true, Message: "shortcuts for " + strings.Join(ids, ", ")}
}

func hasShortcuts(bindings map[string]string) bool {
	for _, text := range bindings {
		if strings.TrimSpace(text) != "" {
			return true
		}
	}
	return false
}

// checkHotkeyBackend reports whether global shortcuts can be delivered at all.
func checkHotkeyBackend(diagnose func() (string, error)) Check {
	msg, err := diagnose()
	if err != nil {
		return Check{Name: "hotkey.backend", Pass: false, Message: err.Error() + "; signals and `murmur toggle` still work"}
	}
	return Check{Name: "hotkey.backend", Pass: true, Message: msg}
}

func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkRivaReady calls the HTTP health endpoint. Any 2xx counts as ready.
func checkRivaReady(ctx context.Context, cfg config.Config) Check {
	base := strings.TrimSpace(cfg.Riva.HTTP)
	if base == "" {
		return Check{Name: "riva.ready", Pass: false, Message: "riva.http is empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	url := strings.TrimRight(base, "/") + cfg.Riva.HealthPath

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: "riva.ready", Pass: false, Message: fmt.Sprintf("build request: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "riva.ready", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "riva.ready", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "riva.ready", Pass: true, Message: "ready at " + url}
}

func checkRivaGRPC(ctx context.Context, cfg config.Config) Check {
	endpoint := strings.TrimSpace(cfg.Riva.GRPC)
	if err := riva.Probe(ctx, endpoint, probeTimeout); err != nil {
		return Check{Name: "riva.grpc", Pass: false, Message: err.Error()}
	}
	return Check{Name: "riva.grpc", Pass: true, Message: "accepting connections at " + endpoint}
}

// checkPostProcess reports whether refinement will run. Incomplete configuration is
// not a failure because transcripts are then delivered unrefined.
func checkPostProcess(p config.PostProcessConfig) Check {
	const name = "post_process"

	provider, ok := p.ActiveProvider()
	if !ok {
		return Check{Name: name, Pass: true, Message: "disabled: no provider selected"}
	}
	model := strings.TrimSpace(p.Models[provider.ID])
	if model == "" {
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("disabled: no model for provider %q", provider.ID)}
	}
	prompt, ok := p.ActivePrompt()
	if !ok || strings.TrimSpace(prompt.Prompt) == "" {
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("disabled: prompt %q is missing or empty", p.SelectedPrompt)}
	}

	if provider.ID == config.OnDeviceProviderID {
		if !ondevice.NewCommandModel(p.OnDevice.Argv).Available() {
			return Check{Name: name, Pass: false, Message: "on-device model selected but post_process.on_device_cmd is unset or unsupported here"}
		}
		return Check{Name: name, Pass: true, Message: "on-device model via " + p.OnDevice.Argv[0]}
	}

	message := fmt.Sprintf("%s / %s with prompt %q", provider.ID, model, prompt.ID)
	if p.APIKeys[provider.ID] == "" {
		message += fmt.Sprintf(" (no API key; set %s if the endpoint requires one)", config.APIKeyEnvVar(provider.ID))
	}
	return Check{Name: name, Pass: true, Message: message}
}

func checkScript(variant script.Variant) Check {
	if err := script.NewOpenCC().Check(); err != nil {
		return Check{Name: "script", Pass: false, Message: err.Error()}
	}
	return Check{Name: "script", Pass: true, Message: fmt.Sprintf("OpenCC ready for %s", variant)}
}
