package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Event is one press or release of a binding's shortcut.
type Event struct {
	Binding string
	Hotkey  string
	Pressed bool
}

// Key is a registrable global shortcut. Linux reads keyboards through evdev; other
// platforms use the OS hotkey API.
type Key interface {
	Register() error
	Unregister() error
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Dispatcher runs registration work on the thread the platform requires.
type Dispatcher interface {
	Dispatch(fn func()) error
}

type registration struct {
	key  Key
	done chan struct{}
}

// Manager owns the global shortcuts for every configured binding. The dynamic
// binding is only registered between Enable and Disable.
type Manager struct {
	chords     map[string]Chord
	dynamic    string
	onEvent    func(Event)
	dispatcher Dispatcher
	logger     *slog.Logger
	newKey     func(Chord) Key

	mu     sync.Mutex
	active map[string]*registration
}

// NewManager parses bindings (id → shortcut). Empty shortcuts are skipped.
// dynamic names the binding that Enable and Disable control.
func NewManager(bindings map[string]string, dynamic string, onEvent func(Event), dispatcher Dispatcher, logger *slog.Logger) (*Manager, error) {
	chords := make(map[string]Chord, len(bindings))
	for id, text := range bindings {
		if text == "" {
			continue
		}
		chord, err := ParseChord(text)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", id, err)
		}
		chords[id] = chord
	}

	return &Manager{
		chords:     chords,
		dynamic:    dynamic,
		onEvent:    onEvent,
		dispatcher: dispatcher,
		logger:     logger,
		newKey:     newPlatformKey,
		active:     make(map[string]*registration),
	}, nil
}

// RegisterStatic registers every binding except the dynamic one. Bindings that fail
// to register are reported together; the rest stay registered.
func (m *Manager) RegisterStatic() error {
	var errs []error
	for _, id := range m.bindingIDs() {
		if id == m.dynamic {
			continue
		}
		if err := m.register(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Enable registers the dynamic binding. It is a no-op when the binding has no shortcut.
func (m *Manager) Enable(context.Context) error {
	if _, ok := m.chords[m.dynamic]; !ok {
		return nil
	}
	return m.register(m.dynamic)
}

// Disable unregisters the dynamic binding.
func (m *Manager) Disable(context.Context) error {
	return m.unregister(m.dynamic)
}

// Close unregisters every binding.
func (m *Manager) Close() error {
	var errs []error
	for _, id := range m.bindingIDs() {
		if err := m.unregister(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Registered reports whether the binding currently holds its shortcut.
func (m *Manager) Registered(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[id]
	return ok
}

func (m *Manager) register(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[id]; ok {
		return nil
	}

	chord := m.chords[id]
	key := m.newKey(chord)
	if err := m.onThread(key.Register); err != nil {
		return fmt.Errorf("register %s (%s): %w", id, chord.Text, err)
	}

	reg := &registration{key: key, done: make(chan struct{})}
	go m.listen(id, chord.Text, reg)
	m.active[id] = reg
	m.debug("hotkey registered", "binding", id, "hotkey", chord.Text)
	return nil
}

func (m *Manager) unregister(id string) error {
	m.mu.Lock()
	reg, ok := m.active[id]
	delete(m.active, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	// The listener may be the caller (a cancel press disabling itself), so it is
	// signalled rather than waited on.
	close(reg.done)
	if err := m.onThread(reg.key.Unregister); err != nil {
		return fmt.Errorf("unregister %s: %w", id, err)
	}
	m.debug("hotkey unregistered", "binding", id)
	return nil
}

func (m *Manager) listen(id string, text string, reg *registration) {
	for {
		select {
		case <-reg.done:
			return
		case <-reg.key.Keydown():
			m.emit(Event{Binding: id, Hotkey: text, Pressed: true})
		case <-reg.key.Keyup():
			m.emit(Event{Binding: id, Hotkey: text, Pressed: false})
		}
	}
}

func (m *Manager) emit(ev Event) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

func (m *Manager) onThread(fn func() error) error {
	if m.dispatcher == nil {
		return fn()
	}
	var err error
	if dispatchErr := m.dispatcher.Dispatch(func() { err = fn() }); dispatchErr != nil {
		return dispatchErr
	}
	return err
}

func (m *Manager) bindingIDs() []string {
	ids := make([]string, 0, len(m.chords))
	for id := range m.chords {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
