// File: cmd/elemkit/main_test.go
package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/elemkit/internal/observability"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"elemkit"}, args...)
	t.Cleanup(func() { os.Args = orig })
	t.Cleanup(observability.ResetForTest)
}

func TestRunExitCodes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		withArgs(t, "version")
		assert.Equal(t, 0, run(context.Background()))
	})

	t.Run("usage error", func(t *testing.T) {
		withArgs(t, "exists")
		assert.Equal(t, 1, run(context.Background()))
	})

	t.Run("interrupted", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Setenv("ELEMKIT_LOGGER_LEVEL", "fatal")
		withArgs(t, "alive")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, 0, run(ctx))
	})
}
