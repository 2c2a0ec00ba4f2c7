// File: pkg/interact/wait.go
package interact

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WaitFor polls until sel resolves or the attempt budget runs out.
//
// It checks once immediately; each miss is followed by one PollInterval sleep.
// After timeoutSeconds sleeps without a hit it fails with a *TimeoutError,
// so the worst case is roughly timeoutSeconds intervals and an element that
// appears between ticks is noticed on the next tick. A non-positive timeout
// selects Options.DefaultWaitTimeout. Cancelling ctx ends the wait early with
// the context's error.
func (h *Helper) WaitFor(ctx context.Context, d Driver, sel Selector, timeoutSeconds int) error {
	if timeoutSeconds <= 0 {
		timeoutSeconds = h.opts.DefaultWaitTimeout
	}

	polls := 0
	for counter := 0; ; {
		polls++
		if h.Exists(ctx, d, sel) {
			return nil
		}

		if err := sleep(ctx, h.opts.PollInterval); err != nil {
			return err
		}
		counter++

		if counter == timeoutSeconds {
			h.logger.Debug("Element did not appear in time.",
				zap.Stringer("selector", sel), zap.Int("timeout", timeoutSeconds), zap.Int("polls", polls))
			return &TimeoutError{Selector: sel, Timeout: timeoutSeconds, Polls: polls}
		}
	}
}

// sleep blocks for d unless ctx is done first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
