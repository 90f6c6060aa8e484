// Command handpointer controls the mouse pointer with hand gestures seen by
// a webcam.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/observability"
)

func init() {
	// The system tray must run on the main thread on macOS.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	defer observability.Sync()

	if err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return 1
	}
	return 0
}
