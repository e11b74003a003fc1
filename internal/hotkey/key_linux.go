//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// input_event on 64-bit Linux: timeval (16) + type (2) + code (2) + value (4).
const inputEventSize = 24

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
)

var (
	inputDir = "/dev/input"
	sysInput = "/sys/class/input"
)

var evdevModifiers = map[uint16]Modifier{
	29:  ModCtrl,
	97:  ModCtrl,
	42:  ModShift,
	54:  ModShift,
	56:  ModAlt,
	100: ModAlt,
	125: ModSuper,
	126: ModSuper,
}

var evdevKeys = map[string]uint16{
	"escape": 1, "tab": 15, "enter": 28, "space": 57, "delete": 111,
	"up":     103, "left": 105, "right": 106, "down": 108,

	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,

	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,

	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65, "f8": 66,
	"f9": 67, "f10": 68, "f11": 87, "f12": 88,
}

// evdevKey watches every readable keyboard under /dev/input for one chord. It
// needs no display server; the user must be in the input group.
type evdevKey struct {
	chord   Chord
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func newPlatformKey(c Chord) Key {
	return &evdevKey{
		chord:   c,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (k *evdevKey) Register() error {
	if _, ok := evdevKeys[k.chord.Key]; !ok {
		return fmt.Errorf("key %q has no evdev code", k.chord.Key)
	}

	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("find keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found under %s", inputDir)
	}

	k.stop = make(chan struct{})
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		k.files = append(k.files, f)
		go k.readEvents(f)
	}
	if len(k.files) == 0 {
		return fmt.Errorf("cannot open any keyboard device (add the user to the input group)")
	}
	return nil
}

func (k *evdevKey) readEvents(r io.Reader) {
	matcher := newChordMatcher(k.chord)
	buf := make([]byte, inputEventSize*16)

	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			if binary.LittleEndian.Uint16(buf[i+16:]) != evKey {
				continue
			}
			code := binary.LittleEndian.Uint16(buf[i+18:])
			value := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			switch matcher.feed(code, value) {
			case edgeDown:
				k.send(k.keydown)
			case edgeUp:
				k.send(k.keyup)
			}
		}
	}
}

func (k *evdevKey) send(ch chan struct{}) {
	select {
	case <-k.stop:
	case ch <- struct{}{}:
	default:
	}
}

func (k *evdevKey) Unregister() error {
	k.once.Do(func() {
		if k.stop != nil {
			close(k.stop)
		}
		for _, f := range k.files {
			_ = f.Close()
		}
	})
	return nil
}

func (k *evdevKey) Keydown() <-chan struct{} { return k.keydown }
func (k *evdevKey) Keyup() <-chan struct{}   { return k.keyup }

type edge int

const (
	edgeNone edge = iota
	edgeDown
	edgeUp
)

// chordMatcher turns one device's key events into chord press and release edges.
// The chord fires only when exactly its modifiers are held; autorepeat is ignored.
type chordMatcher struct {
	key    uint16
	want   map[Modifier]bool
	held   map[uint16]bool
	active bool
}

func newChordMatcher(c Chord) *chordMatcher {
	want := make(map[Modifier]bool, len(c.Mods))
	for _, m := range c.Mods {
		want[m] = true
	}
	return &chordMatcher{key: evdevKeys[c.Key], want: want, held: make(map[uint16]bool)}
}

func (m *chordMatcher) feed(code uint16, value int32) edge {
	if _, ok := evdevModifiers[code]; ok {
		switch value {
		case keyPress:
			m.held[code] = true
		case keyRelease:
			delete(m.held, code)
		}
		return edgeNone
	}
	if code != m.key {
		return edgeNone
	}

	switch {
	case value == keyPress && !m.active && m.modifiersMatch():
		m.active = true
		return edgeDown
	case value == keyRelease && m.active:
		m.active = false
		return edgeUp
	}
	return edgeNone
}

func (m *chordMatcher) modifiersMatch() bool {
	got := make(map[Modifier]bool, len(m.held))
	for code := range m.held {
		got[evdevModifiers[code]] = true
	}
	if len(got) != len(m.want) {
		return false
	}
	for mod := range m.want {
		if !got[mod] {
			return false
		}
	}
	return true
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "event") && isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join(inputDir, e.Name()))
		}
	}
	return keyboards, nil
}

// isKeyboard treats devices with a long key capability bitmap as keyboards.
func isKeyboard(eventName string) bool {
	data, err := os.ReadFile(filepath.Join(sysInput, eventName, "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

// Diagnose reports whether keyboards can be read for global shortcuts.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found under %s", inputDir)
	}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			_ = f.Close()
			return fmt.Sprintf("evdev: %d keyboard(s), %s readable", len(keyboards), path), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (add the user to the input group)", len(keyboards))
}
