// Package main provides the murmur CLI process entrypoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rbright/murmur/internal/app"
	"github.com/rbright/murmur/internal/uithread"
)

func init() {
	// The main-thread loop must own the thread main starts on.
	runtime.LockOSThread()
}

// main hands the main thread to the UI loop and runs the application beside it.
func main() {
	var ui uithread.MainThread
	exitCode := 0

	ui.Run(func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := app.Runner{Stdout: os.Stdout, Stderr: os.Stderr, Dispatcher: &ui}
		exitCode = runner.Execute(ctx, os.Args[1:])
	})
	os.Exit(exitCode)
}
