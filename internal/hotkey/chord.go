// Package hotkey registers global keyboard shortcuts for bindings and reports
// press and release events.
package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a platform-neutral shortcut modifier.
type Modifier int

const (
	ModCtrl Modifier = iota + 1
	ModShift
	ModAlt
	ModSuper
)

// Chord is a parsed shortcut such as "ctrl+alt+space". Key is the canonical key name.
type Chord struct {
	Text string
	Mods []Modifier
	Key  string
}

// has reports whether mod is part of the chord.
func (c Chord) has(mod Modifier) bool {
	for _, m := range c.Mods {
		if m == mod {
			return true
		}
	}
	return false
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
	"del":    "delete",
}

// keyNames lists every key a chord may end in.
var keyNames = func() map[string]bool {
	names := make(map[string]bool)
	for _, name := range []string{"space", "enter", "escape", "tab", "delete", "left", "right", "up", "down"} {
		names[name] = true
	}
	for r := 'a'; r <= 'z'; r++ {
		names[string(r)] = true
	}
	for r := '0'; r <= '9'; r++ {
		names[string(r)] = true
	}
	for i := 1; i <= 12; i++ {
		names[fmt.Sprintf("f%d", i)] = true
	}
	return names
}()

func modifierNamed(name string) (Modifier, bool) {
	switch name {
	case "ctrl", "control":
		return ModCtrl, true
	case "shift":
		return ModShift, true
	case "alt", "option":
		return ModAlt, true
	case "super", "cmd", "meta", "win":
		return ModSuper, true
	}
	return 0, false
}

// ParseChord parses a "+"-separated shortcut. Names are case-insensitive and exactly
// one non-modifier key is required.
func ParseChord(text string) (Chord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Chord{}, fmt.Errorf("empty shortcut")
	}

	chord := Chord{Text: text}
	for _, part := range strings.Split(strings.ToLower(text), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Chord{}, fmt.Errorf("shortcut %q has an empty component", text)
		}
		if mod, ok := modifierNamed(part); ok {
			if !chord.has(mod) {
				chord.Mods = append(chord.Mods, mod)
			}
			continue
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		if !keyNames[part] {
			return Chord{}, fmt.Errorf("shortcut %q: unknown key %q", text, part)
		}
		if chord.Key != "" {
			return Chord{}, fmt.Errorf("shortcut %q has more than one key", text)
		}
		chord.Key = part
	}

	if chord.Key == "" {
		return Chord{}, fmt.Errorf("shortcut %q has no key", text)
	}
	return chord, nil
}
