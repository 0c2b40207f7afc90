package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Returns a context that will live until Ctrl+C is pressed or the process
// receives SIGTERM. A second signal exits immediately.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			slog.Warn("received signal, stopping", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigs)
			return
		}
		<-sigs
		os.Exit(1)
	}()

	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
