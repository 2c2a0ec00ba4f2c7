// File: pkg/interact/wait_test.go
package interact_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/elemkit/internal/mocks"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

func TestWaitFor(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("should time out after the attempt budget", func(t *testing.T) {
		opts := interact.DefaultOptions()
		opts.PollInterval = 10 * time.Millisecond
		h := newHelper(t, opts)

		drv := new(mocks.MockDriver)
		drv.On("FindElement", mock.Anything, interact.ID("late")).Return(nil, interact.ErrNotFound)

		start := time.Now()
		err := h.WaitFor(context.Background(), drv, interact.ID("late"), 3)
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.ErrorIs(t, err, interact.ErrTimeout)
		var te *interact.TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 3, te.Timeout)
		assert.Equal(t, 3, te.Polls)
		drv.AssertNumberOfCalls(t, "FindElement", 3)
		assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond, "three full intervals must elapse")
	})

	t.Run("should return immediately without sleeping when present", func(t *testing.T) {
		opts := interact.DefaultOptions()
		opts.PollInterval = time.Hour
		h := newHelper(t, opts)

		drv := mocks.NewRecordingDriver()
		drv.Add(interact.CSS("#ready"), "")

		done := make(chan error, 1)
		go func() { done <- h.WaitFor(context.Background(), drv, interact.CSS("#ready"), 5) }()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("WaitFor slept although the element was present")
		}
		assert.Len(t, drv.Recorded(), 1)
	})

	t.Run("should return once the element appears", func(t *testing.T) {
		opts := interact.DefaultOptions()
		opts.PollInterval = 5 * time.Millisecond
		h := newHelper(t, opts)

		var polls atomic.Int32
		el := new(mocks.MockElement)
		drv := new(mocks.MockDriver)
		drv.On("FindElement", mock.Anything, mock.Anything).Return(nil, interact.ErrNotFound).Times(2).Run(func(mock.Arguments) { polls.Add(1) })
		drv.On("FindElement", mock.Anything, mock.Anything).Return(el, nil).Once().Run(func(mock.Arguments) { polls.Add(1) })

		require.NoError(t, h.WaitFor(context.Background(), drv, interact.Name("x"), 10))
		assert.Equal(t, int32(3), polls.Load())
	})

	t.Run("should use the default budget for a non-positive timeout", func(t *testing.T) {
		opts := interact.DefaultOptions()
		opts.PollInterval = time.Millisecond
		opts.DefaultWaitTimeout = 4
		h := newHelper(t, opts)

		drv := mocks.NewRecordingDriver()
		err := h.WaitFor(context.Background(), drv, interact.ID("never"), 0)

		var te *interact.TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 4, te.Timeout)
		assert.Len(t, drv.Recorded(), 4)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		opts := interact.DefaultOptions()
		opts.PollInterval = time.Hour
		h := newHelper(t, opts)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := h.WaitFor(ctx, mocks.NewRecordingDriver(), interact.ID("never"), 15)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, interact.ErrTimeout)
	})
}

func TestWaitForRealCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the real one second poll interval")
	}
	h := newHelper(t, interact.DefaultOptions())
	drv := mocks.NewRecordingDriver()

	start := time.Now()
	err := h.WaitFor(context.Background(), drv, interact.ID("never"), 2)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, interact.ErrTimeout)
	assert.InDelta(t, 2*time.Second, elapsed, float64(500*time.Millisecond))
}
