//go:build linux

package hotkey

import (
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func inputEvent(typ, code uint16, value int32) []byte {
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(buf[16:], typ)
	binary.LittleEndian.PutUint16(buf[18:], code)
	binary.LittleEndian.PutUint32(buf[20:], uint32(value))
	return buf
}

func mustChord(t *testing.T, text string) Chord {
	t.Helper()
	chord, err := ParseChord(text)
	require.NoError(t, err)
	return chord
}

func TestEveryKeyNameHasEvdevCode(t *testing.T) {
	for name := range keyNames {
		_, ok := evdevKeys[name]
		require.True(t, ok, name)
	}
}

func TestChordMatcher(t *testing.T) {
	const (
		leftCtrl  = 29
		rightCtrl = 97
		leftAlt   = 56
		leftShift = 42
		space     = 57
		autorep   = 2
	)

	m := newChordMatcher(mustChord(t, "ctrl+alt+space"))

	require.Equal(t, edgeNone, m.feed(space, keyPress), "no modifiers held")
	require.Equal(t, edgeNone, m.feed(space, keyRelease))

	m.feed(leftCtrl, keyPress)
	m.feed(leftAlt, keyPress)
	require.Equal(t, edgeDown, m.feed(space, keyPress))
	require.Equal(t, edgeNone, m.feed(space, autorep))
	require.Equal(t, edgeNone, m.feed(space, keyPress), "already down")
	m.feed(leftCtrl, keyRelease)
	require.Equal(t, edgeUp, m.feed(space, keyRelease), "release after modifiers lift")

	m.feed(rightCtrl, keyPress)
	m.feed(leftShift, keyPress)
	require.Equal(t, edgeNone, m.feed(space, keyPress), "extra modifier")
	m.feed(leftShift, keyRelease)
	require.Equal(t, edgeDown, m.feed(space, keyPress), "right ctrl counts as ctrl")
}

func TestEvdevKeyReadsChordEdges(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	key := newPlatformKey(mustChord(t, "escape")).(*evdevKey)
	key.stop = make(chan struct{})
	go key.readEvents(r)

	const escape = 1
	_, err = w.Write(append(inputEvent(evKey, escape, keyPress), inputEvent(3, 0, 5)...))
	require.NoError(t, err)
	select {
	case <-key.Keydown():
	case <-time.After(time.Second):
		t.Fatal("no keydown")
	}

	_, err = w.Write(inputEvent(evKey, escape, keyRelease))
	require.NoError(t, err)
	select {
	case <-key.Keyup():
	case <-time.After(time.Second):
		t.Fatal("no keyup")
	}
	require.NoError(t, w.Close())
}

func TestEvdevKeyRegister(t *testing.T) {
	dev := t.TempDir()
	sys := t.TempDir()
	oldInput, oldSys := inputDir, sysInput
	inputDir, sysInput = dev, sys
	t.Cleanup(func() { inputDir, sysInput = oldInput, oldSys })

	key := newPlatformKey(mustChord(t, "ctrl+space"))
	require.ErrorContains(t, key.Register(), "no keyboard devices")

	caps := filepath.Join(sys, "event3", "device", "capabilities")
	require.NoError(t, os.MkdirAll(caps, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(caps, "key"), []byte("3 0 0 0 0 0 fffffffff\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "event3"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "mouse0"), nil, 0o600))

	key = newPlatformKey(mustChord(t, "ctrl+space"))
	require.NoError(t, key.Register())
	require.Len(t, key.(*evdevKey).files, 1)
	require.NoError(t, key.Unregister())
	require.NoError(t, key.Unregister())

	msg, err := Diagnose()
	require.NoError(t, err)
	require.Contains(t, msg, "1 keyboard(s)")
}

// The package must load on hosts without an X display, such as SSH sessions and
// pre-graphical services.
func TestPackageLoadsWithoutDisplay(t *testing.T) {
	if os.Getenv("MURMUR_HOTKEY_CHILD") == "1" {
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestParseChord$", "-test.v")
	cmd.Env = append(withoutDisplay(os.Environ()), "MURMUR_HOTKEY_CHILD=1")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "PASS")
}

func withoutDisplay(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, "DISPLAY=") || strings.HasPrefix(kv, "WAYLAND_DISPLAY=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}
