// internal/steps/steps_test.go
package steps

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/elemkit/internal/config"
	"github.com/xkilldash9x/elemkit/internal/mocks"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Loading --

func TestLoad(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		steps, err := Load(strings.NewReader(`[
			{"op": "type", "selector": "id=user", "text": "alice"},
			{"op": "click", "selector": "css=button.submit"},
			{"op": "wait", "selector": ".dashboard", "timeout": 3},
			{"op": "alive"}
		]`))
		require.NoError(t, err)
		require.Len(t, steps, 4)

		assert.Equal(t, interact.ID("user"), steps[0].Target())
		assert.Equal(t, interact.CSS("button.submit"), steps[1].Target())
		assert.Equal(t, interact.CSS(".dashboard"), steps[2].Target())
		assert.Equal(t, 3, steps[2].Timeout)
		assert.Equal(t, interact.Selector{}, steps[3].Target())
	})

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not json", `{op: click}`, "decode"},
		{"empty list", `[]`, "no steps"},
		{"unknown op", `[{"op": "drag", "selector": "id=a"}]`, `unknown op "drag"`},
		{"unknown field", `[{"op": "click", "selector": "id=a", "button": "right"}]`, "decode"},
		{"missing selector", `[{"op": "click"}]`, "step 1 (click)"},
		{"empty selector value", `[{"op": "hover", "selector": "xpath= "}]`, "step 1 (hover)"},
		{"negative timeout", `[{"op": "wait", "selector": "id=a", "timeout": -1}]`, "negative"},
		{"timeout outside wait", `[{"op": "exists", "selector": "id=a", "timeout": 2}]`, "only valid for wait"},
		{"text outside type", `[{"op": "click", "selector": "id=a", "text": "x"}]`, "only valid for type"},
		{"alive with selector", `[{"op": "alive"}, {"op": "alive", "selector": "id=a"}]`, "step 2 (alive)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// -- Running --

func newHelper(t *testing.T) *interact.Helper {
	opts := interact.DefaultOptions()
	opts.PollInterval = time.Millisecond
	opts.MaxClickAttempts = 3
	return interact.New(zaptest.NewLogger(t), opts)
}

func mustLoad(t *testing.T, input string) []Step {
	t.Helper()
	steps, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	return steps
}

var ignoreElapsed = cmpopts.IgnoreFields(Result{}, "Elapsed")

func TestRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("login flow", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		user := drv.Add(interact.ID("user"), "stale")
		drv.Add(interact.CSS("button"), "")

		steps := mustLoad(t, `[
			{"op": "assert_exists", "selector": "id=user"},
			{"op": "type", "selector": "id=user", "text": "alice"},
			{"op": "hover", "selector": "css=button"},
			{"op": "click", "selector": "css=button"},
			{"op": "exists", "selector": "id=missing"},
			{"op": "alive"}
		]`)
		report, err := NewRunner(newHelper(t), config.StepsConfig{}, zaptest.NewLogger(t)).Run(ctx, drv, steps)
		require.NoError(t, err)

		assert.True(t, report.Passed)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, "alice", user.Text())

		want := []Result{
			{Index: 1, Op: OpAssertExists, Selector: "id=user", Value: true},
			{Index: 2, Op: OpType, Selector: "id=user"},
			{Index: 3, Op: OpHover, Selector: "css=button"},
			{Index: 4, Op: OpClick, Selector: "css=button", Value: true, Attempts: 1},
			{Index: 5, Op: OpExists, Selector: "id=missing"},
			{Index: 6, Op: OpAlive, Value: true},
		}
		if diff := cmp.Diff(want, report.Results, ignoreElapsed); diff != "" {
			t.Errorf("results mismatch (-want +got):\n%s", diff)
		}

		wantCalls := []mocks.Call{
			{Op: "find:id=user"},
			{Op: "find:id=user"},
			{Op: "perform", Actions: []string{"move:id=user"}},
			{Op: "perform", Actions: []string{"move:id=user", "click"}},
			{Op: "clear:id=user"},
			{Op: "perform", Actions: []string{"type:alice"}},
			{Op: "find:css selector=button"},
			{Op: "perform", Actions: []string{"move:css selector=button"}},
			{Op: "find:css selector=button"},
			{Op: "perform", Actions: []string{"move:css selector=button", "click"}},
			{Op: "find:id=missing"},
			{Op: "handles"},
		}
		if diff := cmp.Diff(wantCalls, drv.Recorded(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("driver calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		steps := mustLoad(t, `[
			{"op": "exists", "selector": "id=a"},
			{"op": "assert_exists", "selector": "id=a"},
			{"op": "click", "selector": "id=a"}
		]`)

		report, err := NewRunner(newHelper(t), config.StepsConfig{}, zaptest.NewLogger(t)).Run(ctx, drv, steps)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAssertion)

		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, 2, stepErr.Index)
		assert.Equal(t, OpAssertExists, stepErr.Op)

		assert.False(t, report.Passed)
		require.Len(t, report.Results, 2)
		assert.Contains(t, report.Results[1].Error, "id=a not found")
	})

	t.Run("silent click give-up still passes", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		drv.Add(interact.ID("go"), "")
		drv.ClickErr = errors.New("element is covered by the input area")

		report, err := NewRunner(newHelper(t), config.StepsConfig{}, nil).Run(ctx, drv, mustLoad(t, `[{"op": "click", "selector": "id=go"}]`))
		require.NoError(t, err)
		assert.Equal(t, Result{Index: 1, Op: OpClick, Selector: "id=go", Attempts: 3}, withoutElapsed(report.Results[0]))
	})

	t.Run("wait timeout", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		report, err := NewRunner(newHelper(t), config.StepsConfig{}, nil).Run(ctx, drv, mustLoad(t, `[{"op": "wait", "selector": "id=late", "timeout": 2}]`))
		assert.ErrorIs(t, err, interact.ErrTimeout)
		require.Len(t, report.Results, 1)
		assert.False(t, report.Results[0].Value)
	})

	t.Run("closed session fails alive", func(t *testing.T) {
		drv := mocks.NewRecordingDriver()
		require.NoError(t, drv.Close())
		_, err := NewRunner(newHelper(t), config.StepsConfig{}, nil).Run(ctx, drv, mustLoad(t, `[{"op": "alive"}]`))
		assert.ErrorIs(t, err, interact.ErrSessionUnavailable)
	})
}

func withoutElapsed(r Result) Result {
	r.Elapsed = 0
	return r
}

func TestRunnerPacing(t *testing.T) {
	drv := mocks.NewRecordingDriver()
	steps := mustLoad(t, `[{"op": "alive"}, {"op": "alive"}, {"op": "alive"}]`)
	runner := NewRunner(newHelper(t), config.StepsConfig{RatePerSecond: 20, Burst: 1}, zaptest.NewLogger(t))

	start := time.Now()
	report, err := runner.Run(context.Background(), drv, steps)
	require.NoError(t, err)
	assert.Len(t, report.Results, 3)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := NewRunner(newHelper(t), config.StepsConfig{RatePerSecond: 0.001, Burst: 1}, nil)
		report, err := slow.Run(ctx, drv, steps)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, report.Results)
	})
}

func TestReportJSON(t *testing.T) {
	report := &Report{RunID: "r1", Passed: true, Results: []Result{{Index: 1, Op: OpExists, Selector: "id=a", Value: true}}}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"run_id":"r1","passed":true,"results":[{"index":1,"op":"exists","selector":"id=a","value":true,"elapsed":0}]}`, string(out))
}

// -- Fuzzing --

func FuzzLoad(f *testing.F) {
	f.Add([]byte(`[{"op":"click","selector":"css=#a"}]`))
	f.Add([]byte(`[{"op":"wait","selector":"xpath=//a","timeout":3}]`))
	f.Add([]byte(`[{"op":"alive"}]`))
	f.Add([]byte(`[{"op":"type","selector":"id=q","text":""}]`))
	f.Fuzz(func(t *testing.T, data []byte) {
		steps, err := Load(bytes.NewReader(data))
		if err != nil {
			return
		}
		for _, s := range steps {
			if s.Op != OpAlive {
				require.NoError(t, s.Target().Validate())
			}
		}
	})
}

// rawStep mirrors Step's wire form for structured fuzzing.
type rawStep struct {
	Op       string `json:"op"`
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`
}

func FuzzLoad_Structured(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		var raw []rawStep
		if err := fuzz.NewConsumer(data).CreateSlice(&raw); err != nil {
			return
		}
		encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(raw)
		require.NoError(t, err)

		steps, err := Load(bytes.NewReader(encoded))
		if err != nil {
			return
		}
		require.Len(t, steps, len(raw))
		for i, s := range steps {
			assert.Equal(t, Op(raw[i].Op), s.Op)
		}
	})
}
