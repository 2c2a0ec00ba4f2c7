// File: pkg/interact/helper.go
package interact

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxClickAttempts bounds the click retry loop.
	DefaultMaxClickAttempts = 10
	// DefaultPollInterval is the WaitFor cadence.
	DefaultPollInterval = time.Second
	// DefaultWaitTimeout is the number of WaitFor ticks used when the caller passes none.
	DefaultWaitTimeout = 15
)

// Options tunes a Helper. Zero fields fall back to the package defaults.
type Options struct {
	MaxClickAttempts int
	PollInterval     time.Duration
	// DefaultWaitTimeout is counted in PollInterval ticks, which are seconds
	// with the default interval.
	DefaultWaitTimeout int
	// ReportClickExhaustion makes Click return a *ClickExhaustedError when
	// the retry budget runs out. By default the give-up is silent and only
	// visible through ClickResult.
	ReportClickExhaustion bool
	// IsTransient decides which click errors are retried.
	IsTransient func(error) bool
}

// DefaultOptions returns the defaults.
func DefaultOptions() Options {
	return Options{
		MaxClickAttempts:   DefaultMaxClickAttempts,
		PollInterval:       DefaultPollInterval,
		DefaultWaitTimeout: DefaultWaitTimeout,
		IsTransient:        IsInputAreaTransient,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxClickAttempts <= 0 {
		o.MaxClickAttempts = d.MaxClickAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.DefaultWaitTimeout <= 0 {
		o.DefaultWaitTimeout = d.DefaultWaitTimeout
	}
	if o.IsTransient == nil {
		o.IsTransient = d.IsTransient
	}
	return o
}

// Helper runs the interaction operations. It holds only immutable options and
// a logger, so one Helper can serve any number of drivers.
type Helper struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Helper. A nil logger disables logging.
func New(logger *zap.Logger, opts Options) *Helper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helper{
		opts:   opts.normalized(),
		logger: logger.Named("interact"),
	}
}

// Options returns the effective options after defaults were applied.
func (h *Helper) Options() Options { return h.opts }

// Resolve looks up exactly one element for sel. It never retries or waits.
func Resolve(ctx context.Context, d Driver, sel Selector) (Element, error) {
	if d == nil {
		return nil, fmt.Errorf("resolve %s: %w", sel, ErrSessionUnavailable)
	}
	el, err := d.FindElement(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", sel, err)
	}
	if el == nil {
		return nil, fmt.Errorf("resolve %s: %w", sel, ErrNotFound)
	}
	return el, nil
}

// Resolve is the method form of the package-level Resolve.
func (h *Helper) Resolve(ctx context.Context, d Driver, sel Selector) (Element, error) {
	return Resolve(ctx, d, sel)
}

// MoveTo scrolls the target into view and moves the pointer onto it.
func (h *Helper) MoveTo(ctx context.Context, d Driver, t Target) error {
	if d == nil {
		return fmt.Errorf("move to %s: %w", describe(t), ErrSessionUnavailable)
	}
	el, err := resolveTarget(ctx, d, t)
	if err != nil {
		return err
	}
	if err := d.Perform(ctx, MoveTo(el)); err != nil {
		return fmt.Errorf("move to %s: %w", describe(t), err)
	}
	return nil
}

// Exists reports whether sel currently resolves. Any failure during the
// lookup, including a panicking driver, is treated as absence.
func (h *Helper) Exists(ctx context.Context, d Driver, sel Selector) (found bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Debug("Driver panicked during existence check.", zap.Stringer("selector", sel), zap.Any("panic", r))
			found = false
		}
	}()
	_, err := Resolve(ctx, d, sel)
	return err == nil
}

// SessionIsOpen reports whether d is non-nil and has at least one open window.
// It is safe to call after the session may already have ended.
func (h *Helper) SessionIsOpen(ctx context.Context, d Driver) (open bool) {
	if d == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Debug("Driver panicked while listing window handles.", zap.Any("panic", r))
			open = false
		}
	}()
	handles, err := d.WindowHandles(ctx)
	if err != nil {
		return false
	}
	return len(handles) > 0
}

// std backs the package-level functions. It logs through zap's global logger,
// which observability.Initialize replaces, so it is built per call.
func std() *Helper { return New(zap.L(), DefaultOptions()) }

// The Action builders own the MoveTo and Click names, hence the Target suffix.

// MoveToTarget uses a default Helper.
func MoveToTarget(ctx context.Context, d Driver, t Target) error {
	return std().MoveTo(ctx, d, t)
}

// ClickTarget uses a default Helper.
func ClickTarget(ctx context.Context, d Driver, t Target) (ClickResult, error) {
	return std().Click(ctx, d, t)
}

// SendKeys uses a default Helper.
func SendKeys(ctx context.Context, d Driver, t Target, text string) error {
	return std().SendKeys(ctx, d, t, text)
}

// Exists uses a default Helper.
func Exists(ctx context.Context, d Driver, sel Selector) bool {
	return std().Exists(ctx, d, sel)
}

// WaitFor uses a default Helper.
func WaitFor(ctx context.Context, d Driver, sel Selector, timeoutSeconds int) error {
	return std().WaitFor(ctx, d, sel, timeoutSeconds)
}

// SessionIsOpen uses a default Helper.
func SessionIsOpen(ctx context.Context, d Driver) bool {
	return std().SessionIsOpen(ctx, d)
}
