// File: pkg/interact/click.go
package interact

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ClickResult describes how a Click ended. With the default options a Click
// that never got through still returns a nil error; Clicked is the only way
// to tell the two outcomes apart.
type ClickResult struct {
	Clicked  bool
	Attempts int
	// LastErr is the transient error of the final attempt when Clicked is false.
	LastErr error
}

// Click moves the pointer to the target and clicks it with the primary button.
//
// When the commit fails with a transient "input area" error, Click sends one
// focus-down key to the element and tries again, up to MaxClickAttempts
// attempts in total. Once the budget is spent the failure is swallowed unless
// ReportClickExhaustion is set. Any other error is returned immediately.
func (h *Helper) Click(ctx context.Context, d Driver, t Target) (ClickResult, error) {
	if d == nil {
		return ClickResult{}, fmt.Errorf("click %s: %w", describe(t), ErrSessionUnavailable)
	}
	el, err := resolveTarget(ctx, d, t)
	if err != nil {
		return ClickResult{}, err
	}
	return h.clickElement(ctx, d, el, describe(t))
}

func (h *Helper) clickElement(ctx context.Context, d Driver, el Element, desc string) (ClickResult, error) {
	budget := h.opts.MaxClickAttempts
	var lastErr error

	for attempt := 1; attempt <= budget; attempt++ {
		err := d.Perform(ctx, MoveTo(el), Click())
		if err == nil {
			if attempt > 1 {
				h.logger.Debug("Click succeeded after retry.", zap.String("target", desc), zap.Int("attempt", attempt))
			}
			return ClickResult{Clicked: true, Attempts: attempt}, nil
		}
		if !h.opts.IsTransient(err) {
			return ClickResult{Attempts: attempt}, fmt.Errorf("click %s: %w", desc, err)
		}

		lastErr = err
		if attempt == budget {
			break
		}

		h.logger.Debug("Click hit a transient input area error; nudging focus and retrying.",
			zap.String("target", desc), zap.Int("attempt", attempt), zap.Error(err))
		if err := d.Perform(ctx, Focus(el), Press(KeyArrowDown)); err != nil {
			return ClickResult{Attempts: attempt}, fmt.Errorf("click %s: focus nudge: %w", desc, err)
		}
	}

	res := ClickResult{Attempts: budget, LastErr: lastErr}
	if h.opts.ReportClickExhaustion {
		return res, &ClickExhaustedError{Attempts: budget, Last: lastErr}
	}
	h.logger.Warn("Giving up on click after exhausting retries.",
		zap.String("target", desc), zap.Int("attempts", budget), zap.Error(lastErr))
	return res, nil
}

// SendKeys types text into the target after focusing and clearing it.
//
// Empty text is a no-op and nothing is sent to the driver, not even the
// element lookup. Otherwise the order is: move to the element, click it (with
// Click's retry semantics), clear it, type. Clearing only happens after the
// click has returned, because some elements ignore a clear before they hold focus.
func (h *Helper) SendKeys(ctx context.Context, d Driver, t Target, text string) error {
	if text == "" {
		return nil
	}
	if d == nil {
		return fmt.Errorf("send keys to %s: %w", describe(t), ErrSessionUnavailable)
	}
	el, err := resolveTarget(ctx, d, t)
	if err != nil {
		return err
	}
	desc := describe(t)

	if err := d.Perform(ctx, MoveTo(el)); err != nil {
		return fmt.Errorf("send keys to %s: move: %w", desc, err)
	}
	if _, err := h.clickElement(ctx, d, el, desc); err != nil {
		return fmt.Errorf("send keys to %s: %w", desc, err)
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("send keys to %s: clear: %w", desc, err)
	}
	if err := d.Perform(ctx, Type(text)); err != nil {
		return fmt.Errorf("send keys to %s: type: %w", desc, err)
	}
	return nil
}
