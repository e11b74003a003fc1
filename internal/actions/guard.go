package actions

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// finishGuard reports pipeline completion to the coordinator exactly once.
// It must be released with `defer guard.release()` at the top of the pipeline goroutine
// so that recover runs in the deferred call itself.
type finishGuard struct {
	notifier Notifier
	logger   *slog.Logger
	once     sync.Once
}

func newFinishGuard(notifier Notifier, logger *slog.Logger) *finishGuard {
	return &finishGuard{notifier: notifier, logger: logger}
}

func (g *finishGuard) release() {
	if r := recover(); r != nil && g.logger != nil {
		g.logger.Error("pipeline panicked",
			"panic", fmt.Sprint(r),
			"stack", string(debug.Stack()),
		)
	}

	g.once.Do(func() {
		if g.notifier != nil {
			g.notifier.NotifyProcessingFinished()
		}
	})
}
