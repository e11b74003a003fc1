package doctor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/script"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	require.Equal(t, "[OK] one: good\n[FAIL] two: bad", report.String())
	require.True(t, Report{Checks: []Check{{Pass: true}}}.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("MURMUR_DOCTOR_ENV", "Wayland")
	isWayland := func(v string) bool { return strings.EqualFold(v, "wayland") }

	require.Equal(t, Check{Name: "MURMUR_DOCTOR_ENV", Pass: true, Message: "ok"}, checkEnv("MURMUR_DOCTOR_ENV", isWayland, "ok", "bad"))

	t.Setenv("MURMUR_DOCTOR_ENV", "x11")
	require.False(t, checkEnv("MURMUR_DOCTOR_ENV", isWayland, "ok", "bad").Pass)
}

func TestCheckCommandAndBinary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake-copy"), []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-copy", "--trim"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")

	check = checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Equal(t, "command is empty", check.Message)

	check = checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckBindings(t *testing.T) {
	check := checkBindings(map[string]string{"transcribe": "ctrl+alt+space", "cancel": "escape", "test": ""})
	require.True(t, check.Pass)
	require.Equal(t, "shortcuts for cancel, transcribe", check.Message)

	check = checkBindings(map[string]string{"transcribe": "ctrl+banana"})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "transcribe:")

	check = checkBindings(map[string]string{"transcribe": ""})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "no global shortcuts")
}

func TestCheckRivaReady(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantPass bool
		wantMsg  string
	}{
		{name: "ready", status: http.StatusOK, wantPass: true, wantMsg: "ready at"},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantPass: false, wantMsg: "HTTP 503"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/health/ready", r.URL.Path)
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			cfg := config.Default()
			cfg.Riva.HTTP = strings.TrimPrefix(server.URL, "http://")

			check := checkRivaReady(context.Background(), cfg)
			require.Equal(t, tc.wantPass, check.Pass)
			require.Contains(t, check.Message, tc.wantMsg)
		})
	}

	cfg := config.Default()
	cfg.Riva.HTTP = " "
	check := checkRivaReady(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "riva.http is empty")
}

func TestCheckRivaGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := grpc.NewServer()
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	cfg := config.Default()
	cfg.Riva.GRPC = lis.Addr().String()
	check := checkRivaGRPC(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)

	cfg.Riva.GRPC = ""
	require.False(t, checkRivaGRPC(context.Background(), cfg).Pass)
}

func TestCheckPostProcess(t *testing.T) {
	base := config.Default().PostProcess

	tests := []struct {
		name     string
		mutate   func(*config.PostProcessConfig)
		wantPass bool
		wantMsg  string
	}{
		{name: "no provider", mutate: func(p *config.PostProcessConfig) { p.Provider = "" }, wantPass: true, wantMsg: "no provider selected"},
		{name: "no model", mutate: func(p *config.PostProcessConfig) {}, wantPass: true, wantMsg: `no model for provider "openai"`},
		{
			name: "missing prompt",
			mutate: func(p *config.PostProcessConfig) {
				p.Models = map[string]string{"openai": "gpt-4o-mini"}
				p.SelectedPrompt = "gone"
			},
			wantPass: true,
			wantMsg:  `prompt "gone"`,
		},
		{
			name: "ready without key",
			mutate: func(p *config.PostProcessConfig) {
				p.Models = map[string]string{"openai": "gpt-4o-mini"}
			},
			wantPass: true,
			wantMsg:  "MURMUR_API_KEY_OPENAI",
		},
		{
			name: "ready with key",
			mutate: func(p *config.PostProcessConfig) {
				p.Models = map[string]string{"openai": "gpt-4o-mini"}
				p.APIKeys = map[string]string{"openai": "sk-test"}
			},
			wantPass: true,
			wantMsg:  "openai / gpt-4o-mini",
		},
		{
			name: "on-device without command",
			mutate: func(p *config.PostProcessConfig) {
				p.Provider = config.OnDeviceProviderID
				p.Models = map[string]string{config.OnDeviceProviderID: "512"}
			},
			wantPass: false,
			wantMsg:  "on_device_cmd",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			p.Models = map[string]string{}
			p.APIKeys = map[string]string{}
			tc.mutate(&p)

			check := checkPostProcess(p)
			require.Equal(t, tc.wantPass, check.Pass, check.Message)
			require.Contains(t, check.Message, tc.wantMsg)
		})
	}
}

func TestCheckScript(t *testing.T) {
	check := checkScript(script.Traditional)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "zh-Hant")
}

func TestCheckAudioSelectionFailsWithoutPulse(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio.device", check.Name)
}

func TestRunPasteChecks(t *testing.T) {
	binDir := t.TempDir()
	for _, name := range []string{"fake-paste", "hyprctl"} {
		require.NoError(t, os.WriteFile(filepath.Join(binDir, name), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	}
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	names := func(report Report) map[string]bool {
		seen := map[string]bool{}
		for _, check := range report.Checks {
			seen[check.Name] = true
		}
		return seen
	}

	cfg := config.Default()
	cfg.Riva.HTTP = ""
	cfg.Riva.GRPC = ""
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{Raw: "fake-paste", Argv: []string{"fake-paste"}}

	seen := names(Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg}))
	require.True(t, seen["fake-paste"])
	require.False(t, seen["hyprctl"])
	require.True(t, seen["post_process"])
	require.False(t, seen["script"])

	cfg.PasteCmd = config.CommandConfig{}
	cfg.Language = "zh-Hans"
	seen = names(Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg}))
	require.True(t, seen["hyprctl"])
	require.True(t, seen["script"])
}

func TestCheckHotkeyBackend(t *testing.T) {
	check := checkHotkeyBackend(func() (string, error) { return "evdev: 1 keyboard(s)", nil })
	require.Equal(t, Check{Name: "hotkey.backend", Pass: true, Message: "evdev: 1 keyboard(s)"}, check)

	check = checkHotkeyBackend(func() (string, error) { return "", errors.New("permission denied") })
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "permission denied")
	require.Contains(t, check.Message, "murmur toggle")

	require.False(t, hasShortcuts(map[string]string{"transcribe": " ", "cancel": ""}))
	require.True(t, hasShortcuts(map[string]string{"cancel": "escape"}))
}
