package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hetulpatel/oracleai/internal/logging"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultBackoff  = 30 * time.Second
)

// CycleFunc processes one full poll cycle.
type CycleFunc func(ctx context.Context) error

// Options control the sleep after each cycle.
type Options struct {
	Name     string
	Interval time.Duration
	Backoff  time.Duration
	// Sleep is swapped out in tests; it must return early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration)
}

// Run calls cycle until ctx is cancelled. A cycle that returns an error or
// panics is logged and followed by Backoff instead of Interval; nothing a
// cycle does can stop the loop.
func Run(ctx context.Context, cycle CycleFunc, opts Options) {
	name := opts.Name
	if name == "" {
		name = "poller"
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for {
		select {
		case <-ctx.Done():
			logging.Infof("[%s] shutting down", name)
			return
		default:
		}

		if err := RunOnce(ctx, cycle); err != nil {
			if ctx.Err() != nil {
				logging.Infof("[%s] shutting down", name)
				return
			}
			logging.Errorf("[%s] cycle failed: %v (retrying in %s)", name, err, backoff)
			sleep(ctx, backoff)
			continue
		}
		sleep(ctx, interval)
	}
}

// RunOnce executes a single cycle, converting a panic into an error.
func RunOnce(ctx context.Context, cycle CycleFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debugf("cycle panic stack:\n%s", debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if cycle == nil {
		return fmt.Errorf("poller: cycle is nil")
	}
	return cycle(ctx)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
