// internal/steps/runner.go
package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/elemkit/internal/config"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// ErrAssertion is returned when an assert_exists step finds nothing.
var ErrAssertion = errors.New("assertion failed")

// Result is the outcome of one executed step.
type Result struct {
	Index    int    `json:"index"`
	Op       Op     `json:"op"`
	Selector string `json:"selector,omitempty"`
	// Value carries the boolean answer of exists, assert_exists, alive and
	// click (whether the click got through).
	Value    bool          `json:"value"`
	Attempts int           `json:"attempts,omitempty"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Report collects the results of a run in execution order.
type Report struct {
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
	Passed  bool     `json:"passed"`
}

// StepError ties a failure to the step that caused it.
type StepError struct {
	Index int
	Op    Op
	Err   error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// Runner executes steps one after another through an interact.Helper.
type Runner struct {
	helper  *interact.Helper
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRunner builds a runner. A zero rate leaves steps unpaced.
func NewRunner(helper *interact.Helper, cfg config.StepsConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{helper: helper, logger: logger.Named("steps")}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return r
}

// Run executes steps against d and stops at the first failing step. The
// report always holds the results of every step that ran, including the
// failed one.
func (r *Runner) Run(ctx context.Context, d interact.Driver, steps []Step) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", report.RunID))
	logger.Info("Starting step run.", zap.Int("steps", len(steps)))

	for i, step := range steps {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				logger.Warn("Context cancelled while waiting for rate limiter.", zap.Error(err))
				return report, &StepError{Index: i + 1, Op: step.Op, Err: err}
			}
		}

		start := time.Now()
		res, err := r.exec(ctx, d, step)
		res.Index = i + 1
		res.Op = step.Op
		res.Selector = step.Selector
		res.Elapsed = time.Since(start)
		if err != nil {
			res.Error = err.Error()
		}
		report.Results = append(report.Results, res)

		if err != nil {
			logger.Warn("Step failed.", zap.Int("index", res.Index), zap.String("op", string(step.Op)), zap.Error(err))
			return report, &StepError{Index: res.Index, Op: step.Op, Err: err}
		}
		logger.Debug("Step done.", zap.Int("index", res.Index), zap.String("op", string(step.Op)), zap.Duration("elapsed", res.Elapsed))
	}

	report.Passed = true
	logger.Info("Step run finished.", zap.Int("steps", len(report.Results)))
	return report, nil
}

func (r *Runner) exec(ctx context.Context, d interact.Driver, step Step) (Result, error) {
	sel := step.Target()
	switch step.Op {
	case OpClick:
		res, err := r.helper.Click(ctx, d, sel)
		return Result{Value: res.Clicked, Attempts: res.Attempts}, err
	case OpType:
		return Result{}, r.helper.SendKeys(ctx, d, sel, step.Text)
	case OpHover:
		return Result{}, r.helper.MoveTo(ctx, d, sel)
	case OpWait:
		err := r.helper.WaitFor(ctx, d, sel, step.Timeout)
		return Result{Value: err == nil}, err
	case OpExists:
		return Result{Value: r.helper.Exists(ctx, d, sel)}, nil
	case OpAssertExists:
		if !r.helper.Exists(ctx, d, sel) {
			return Result{}, fmt.Errorf("%w: %s not found", ErrAssertion, sel)
		}
		return Result{Value: true}, nil
	case OpAlive:
		if !r.helper.SessionIsOpen(ctx, d) {
			return Result{}, interact.ErrSessionUnavailable
		}
		return Result{Value: true}, nil
	}
	return Result{}, fmt.Errorf("unknown op %q", step.Op)
}
