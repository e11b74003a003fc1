// Package uithread runs work that must happen on the process main thread, such as
// paste dispatch and hotkey registration.
package uithread

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.design/x/hotkey/mainthread"
)

// ErrNotRunning is returned when the main-thread loop has not started or has exited.
var ErrNotRunning = errors.New("main thread loop is not running")

// MainThread schedules functions onto the loop started by Run.
type MainThread struct {
	running atomic.Bool
}

// Run hands the main thread to the scheduling loop and calls fn on another
// goroutine. It returns after fn returns. Call it from main.
func (m *MainThread) Run(fn func()) {
	mainthread.Init(func() {
		m.running.Store(true)
		defer m.running.Store(false)
		fn()
	})
}

// Dispatch runs fn on the main thread and blocks until it returns.
func (m *MainThread) Dispatch(fn func()) error {
	if !m.running.Load() {
		return ErrNotRunning
	}
	mainthread.Call(fn)
	return nil
}

// Inline runs functions on the calling goroutine, one at a time. Used when no
// main-thread loop is available, such as in tests and headless runs.
type Inline struct {
	mu sync.Mutex
}

// Dispatch runs fn and blocks until it returns.
func (i *Inline) Dispatch(fn func()) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn()
	return nil
}
