//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

var xKeys = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "enter": hotkey.KeyReturn, "escape": hotkey.KeyEscape,
	"tab":   hotkey.KeyTab, "delete": hotkey.KeyDelete,
	"left":  hotkey.KeyLeft, "right": hotkey.KeyRight, "up": hotkey.KeyUp, "down": hotkey.KeyDown,

	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// xKey registers a chord through the OS hotkey API (Cocoa or Win32).
type xKey struct {
	chord   Chord
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func newPlatformKey(c Chord) Key {
	return &xKey{
		chord:   c,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (k *xKey) Register() error {
	key, ok := xKeys[k.chord.Key]
	if !ok {
		return fmt.Errorf("key %q is not supported on this platform", k.chord.Key)
	}
	mods := make([]hotkey.Modifier, 0, len(k.chord.Mods))
	for _, m := range k.chord.Mods {
		mods = append(mods, xModifier(m))
	}

	k.hk = hotkey.New(mods, key)
	if err := k.hk.Register(); err != nil {
		return err
	}
	k.stop = make(chan struct{})
	go k.forward(k.hk.Keydown(), k.keydown)
	go k.forward(k.hk.Keyup(), k.keyup)
	return nil
}

func (k *xKey) forward(in <-chan hotkey.Event, out chan<- struct{}) {
	for {
		select {
		case <-k.stop:
			return
		case <-in:
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

func (k *xKey) Unregister() error {
	var err error
	k.once.Do(func() {
		if k.stop != nil {
			close(k.stop)
		}
		if k.hk != nil {
			err = k.hk.Unregister()
		}
	})
	return err
}

func (k *xKey) Keydown() <-chan struct{} { return k.keydown }
func (k *xKey) Keyup() <-chan struct{}   { return k.keyup }

func xModifier(m Modifier) hotkey.Modifier {
	switch m {
	case ModShift:
		return hotkey.ModShift
	case ModAlt:
		return modAlt
	case ModSuper:
		return modSuper
	default:
		return hotkey.ModCtrl
	}
}

// Diagnose reports whether global shortcuts can be registered.
func Diagnose() (string, error) {
	return "OS hotkey API", nil
}
