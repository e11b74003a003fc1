package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/murmur/internal/config"
)

// Cue identifies a short audio feedback sound.
type Cue int

const (
	CueStart Cue = iota + 1
	CueStop
	CueComplete
	CueCancel
)

func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueStop:
		return "stop"
	case CueComplete:
		return "complete"
	case CueCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

const (
	cueRate       = 16000
	cueGap        = 22 * time.Millisecond
	cueVolume     = 0.18
	cueRamp       = 5 * time.Millisecond
	cueFileLimit  = 4 * time.Second
	cueClientName = "murmur"
)

// note is one sine segment of a synthesized cue.
type note struct {
	hz     float64
	length time.Duration
}

var cueMelodies = map[Cue][]note{
	CueStart:    {{880, 70 * time.Millisecond}, {1175, 70 * time.Millisecond}},
	CueStop:     {{620, 120 * time.Millisecond}},
	CueComplete: {{740, 65 * time.Millisecond}, {988, 90 * time.Millisecond}},
	CueCancel:   {{480, 75 * time.Millisecond}, {360, 90 * time.Millisecond}},
}

// emitCue plays the configured file for kind, falling back to the built-in tone.
// It returns after playback has drained.
func emitCue(ctx context.Context, kind Cue, cfg config.IndicatorConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if path := expandHome(cueFile(kind, cfg)); path != "" {
		err := playFile(ctx, path)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	samples := render(cueMelodies[kind])
	if len(samples) == 0 {
		return nil
	}
	return playSamples(ctx, samples)
}

func cueFile(kind Cue, cfg config.IndicatorConfig) string {
	switch kind {
	case CueStart:
		return cfg.SoundStartFile
	case CueStop:
		return cfg.SoundStopFile
	case CueComplete:
		return cfg.SoundCompleteFile
	case CueCancel:
		return cfg.SoundCancelFile
	}
	return ""
}

func expandHome(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw[1:], "/"))
}

func playFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cueFileLimit)
	defer cancel()

	out, err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("play cue file %q: %w (%s)", path, err, msg)
		}
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playSamples(ctx context.Context, samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(cueClientName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := samples
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || len(remaining) == 0 {
			return 0, pulse.EndOfData
		}
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName(cueClientName+" cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return ctx.Err()
}

// render concatenates notes with a short silence between them.
func render(notes []note) []int16 {
	var pcm []int16
	for i, n := range notes {
		if i > 0 {
			pcm = append(pcm, make([]int16, sampleCount(cueGap))...)
		}
		pcm = append(pcm, tone(n.hz, n.length, cueVolume)...)
	}
	return pcm
}

// tone synthesizes a sine wave with a linear fade at both ends to avoid clicks.
func tone(hz float64, length time.Duration, volume float64) []int16 {
	total := sampleCount(length)
	if total == 0 || hz <= 0 || volume <= 0 {
		return nil
	}

	ramp := max(min(total/10, sampleCount(cueRamp)), 1)
	out := make([]int16, total)
	for i := range out {
		gain := min(1, float64(i)/float64(ramp), float64(total-1-i)/float64(ramp))
		phase := 2 * math.Pi * hz * float64(i) / cueRate
		out[i] = int16(math.Round(math.Sin(phase) * volume * gain * math.MaxInt16))
	}
	return out
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueRate))
}
