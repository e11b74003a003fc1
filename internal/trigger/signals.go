package trigger

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/murmur/internal/actions"
)

// signalBindings maps user signals to the binding they toggle.
var signalBindings = map[os.Signal]string{
	syscall.SIGUSR1: actions.BindingTranscribePostProcess,
	syscall.SIGUSR2: actions.BindingTranscribe,
}

// Toggler receives one-shot toggles.
type Toggler interface {
	Toggle(bindingID string, source string)
}

// WatchSignals toggles bindings on SIGUSR1 and SIGUSR2 until ctx is cancelled.
// Handlers are installed before it returns.
func WatchSignals(ctx context.Context, target Toggler) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				if binding, ok := signalBindings[sig]; ok {
					target.Toggle(binding, signalName(sig))
				}
			}
		}
	}()
}

func signalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGUSR1:
		return "SIGUSR1"
	case syscall.SIGUSR2:
		return "SIGUSR2"
	}
	return sig.String()
}
