// File: pkg/interact/helper_test.go
package interact_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/elemkit/internal/mocks"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

func newHelper(t *testing.T, opts interact.Options) *interact.Helper {
	t.Helper()
	return interact.New(zaptest.NewLogger(t), opts)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the element for a matching selector", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		want := drv.Add(interact.ID("user"), "")

		el, err := interact.Resolve(ctx, drv, interact.ID("user"))
		require.NoError(t, err)
		assert.Same(t, want, el)
	})

	t.Run("should fail with ErrNotFound when nothing matches", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()

		el, err := interact.Resolve(ctx, drv, interact.CSS("#missing"))
		assert.Nil(t, el)
		assert.ErrorIs(t, err, interact.ErrNotFound)
		assert.Len(t, drv.Recorded(), 1, "resolve must not retry")
	})

	t.Run("should treat a nil element without error as not found", func(t *testing.T) {
		drv := new(mocks.MockDriver)
		drv.On("FindElement", mock.Anything, interact.XPath("//a")).Return(nil, nil).Once()

		_, err := interact.Resolve(ctx, drv, interact.XPath("//a"))
		assert.ErrorIs(t, err, interact.ErrNotFound)
		drv.AssertExpectations(t)
	})

	t.Run("should report an unavailable session for a nil driver", func(t *testing.T) {
		_, err := interact.Resolve(ctx, nil, interact.ID("x"))
		assert.ErrorIs(t, err, interact.ErrSessionUnavailable)
	})
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	h := newHelper(t, interact.DefaultOptions())

	t.Run("should be true for a resolvable selector", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		drv.Add(interact.Name("q"), "")
		assert.True(t, h.Exists(ctx, drv, interact.Name("q")))
	})

	t.Run("should be false for a selector matching nothing", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		assert.False(t, h.Exists(ctx, drv, interact.Name("q")))
	})

	t.Run("should swallow arbitrary driver errors", func(t *testing.T) {
		drv := new(mocks.MockDriver)
		drv.On("FindElement", mock.Anything, mock.Anything).Return(nil, errors.New("invalid selector: unexpected token"))
		assert.False(t, h.Exists(ctx, drv, interact.CSS("[[")))
	})

	t.Run("should swallow a panicking driver", func(t *testing.T) {
		drv := new(mocks.MockDriver)
		drv.On("FindElement", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			panic("connection reset")
		})
		assert.False(t, h.Exists(ctx, drv, interact.ID("x")))
	})

	t.Run("should be false for a nil driver", func(t *testing.T) {
		assert.False(t, h.Exists(ctx, nil, interact.ID("x")))
	})
}

func TestMoveTo(t *testing.T) {
	ctx := context.Background()
	h := newHelper(t, interact.DefaultOptions())

	t.Run("should resolve once and commit a single move", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		drv.Add(interact.ID("menu"), "")

		require.NoError(t, h.MoveTo(ctx, drv, interact.ID("menu")))
		assert.Equal(t, []mocks.Call{
			{Op: "find:id=menu"},
			{Op: "perform", Actions: []string{"move:id=menu"}},
		}, drv.Recorded())
	})

	t.Run("should not look anything up for an element target", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		el := drv.Add(interact.ID("menu"), "")

		require.NoError(t, h.MoveTo(ctx, drv, interact.Elem(el)))
		assert.Equal(t, []mocks.Call{
			{Op: "perform", Actions: []string{"move:id=menu"}},
		}, drv.Recorded())
	})

	t.Run("should propagate driver errors", func(t *testing.T) {
		el := new(mocks.MockElement)
		drv := new(mocks.MockDriver)
		boom := errors.New("node is detached from document")
		drv.On("Perform", mock.Anything, mock.Anything).Return(boom).Once()

		err := h.MoveTo(ctx, drv, interact.Elem(el))
		assert.ErrorIs(t, err, boom)
		drv.AssertExpectations(t)
	})

	t.Run("should fail with ErrNotFound for a nil element target", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		err := h.MoveTo(ctx, drv, interact.Elem(nil))
		assert.ErrorIs(t, err, interact.ErrNotFound)
		assert.Empty(t, drv.Recorded())
	})

	t.Run("should fail with ErrNotFound for a nil target", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		assert.ErrorIs(t, h.MoveTo(ctx, drv, nil), interact.ErrNotFound)
		assert.ErrorIs(t, interact.MoveToTarget(ctx, drv, nil), interact.ErrNotFound)
		assert.Empty(t, drv.Recorded())
	})
}

func TestSessionIsOpen(t *testing.T) {
	ctx := context.Background()
	h := newHelper(t, interact.DefaultOptions())

	t.Run("nil driver is closed", func(t *testing.T) {
		assert.False(t, h.SessionIsOpen(ctx, nil))
		assert.False(t, interact.SessionIsOpen(ctx, nil))
	})

	t.Run("zero handles is closed", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		drv.Handles = nil
		assert.False(t, h.SessionIsOpen(ctx, drv))
	})

	t.Run("one handle is open", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		assert.True(t, h.SessionIsOpen(ctx, drv))
	})

	t.Run("errors mean closed", func(t *testing.T) {
		drv := new(mocks.MockDriver)
		drv.On("WindowHandles", mock.Anything).Return(nil, interact.ErrSessionUnavailable)
		assert.False(t, h.SessionIsOpen(ctx, drv))
	})

	t.Run("panics mean closed", func(t *testing.T) {
		drv := new(mocks.MockDriver)
		drv.On("WindowHandles", mock.Anything).Run(func(mock.Arguments) {
			panic("use of closed network connection")
		})
		assert.False(t, h.SessionIsOpen(ctx, drv))
	})
}

func TestOptionsDefaults(t *testing.T) {
	h := interact.New(nil, interact.Options{})
	opts := h.Options()

	assert.Equal(t, 10, opts.MaxClickAttempts)
	assert.Equal(t, interact.DefaultPollInterval, opts.PollInterval)
	assert.Equal(t, 15, opts.DefaultWaitTimeout)
	assert.False(t, opts.ReportClickExhaustion)
	require.NotNil(t, opts.IsTransient)
	assert.True(t, opts.IsTransient(errors.New("cannot click on input area")))
}
