package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// run executes fn under the configured deadline. When ctx can be cancelled
// fn runs in its own goroutine and run returns ctx.Err() as soon as ctx is
// done; the abandoned goroutine finishes in the background and its result is
// discarded.
func (r *Runner) run(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok && r.cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Pipeline.Timeout)
		defer cancel()
	}
	if ctx.Done() == nil {
		return fn()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("pipeline panic: %v", p)
			}
		}()
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		r.log.Warn("pipeline abandoned", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
