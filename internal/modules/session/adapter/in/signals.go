package in

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WatchSignals fires before-discard on SIGINT, SIGTERM and SIGHUP. The
// returned stop restores default signal handling.
func WatchSignals(ctx context.Context, env *Environment, onSignal func(os.Signal)) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
		case sig := <-ch:
			env.FireBeforeDiscard()
			if onSignal != nil {
				onSignal(sig)
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		cancel()
		<-done
	}
}
