// internal/steps/steps.go
package steps

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// Op names one helper operation in a step file.
type Op string

const (
	OpClick        Op = "click"
	OpType         Op = "type"
	OpHover        Op = "hover"
	OpWait         Op = "wait"
	OpExists       Op = "exists"
	OpAlive        Op = "alive"
	OpAssertExists Op = "assert_exists"
)

var knownOps = map[Op]bool{
	OpClick: true, OpType: true, OpHover: true, OpWait: true,
	OpExists: true, OpAlive: true, OpAssertExists: true,
}

// Step is one entry of a step file.
//
//	[{"op": "type", "selector": "id=user", "text": "alice"},
//	 {"op": "click", "selector": "css=button[type=submit]"},
//	 {"op": "wait", "selector": "css=.dashboard", "timeout": 5}]
type Step struct {
	Op       Op     `json:"op"`
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	// Timeout is in poll intervals and only applies to wait. Zero uses the
	// helper default.
	Timeout int `json:"timeout,omitempty"`

	sel interact.Selector
}

// Target returns the parsed selector. It is only valid after Validate.
func (s Step) Target() interact.Selector { return s.sel }

// Validate checks the op and parses the selector.
func (s *Step) Validate() error {
	if !knownOps[s.Op] {
		return fmt.Errorf("unknown op %q", s.Op)
	}
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if s.Timeout > 0 && s.Op != OpWait {
		return fmt.Errorf("timeout is only valid for %s", OpWait)
	}
	if s.Text != "" && s.Op != OpType {
		return fmt.Errorf("text is only valid for %s", OpType)
	}
	if s.Op == OpAlive {
		if s.Selector != "" {
			return fmt.Errorf("%s takes no selector", OpAlive)
		}
		return nil
	}

	sel, err := interact.ParseSelector(s.Selector)
	if err != nil {
		return err
	}
	s.sel = sel
	return nil
}

var stepJSON = jsoniter.Config{
	EscapeHTML:             true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Load decodes and validates a step file. Errors name the offending step.
func Load(r io.Reader) ([]Step, error) {
	var steps []Step
	if err := stepJSON.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, errors.New("step file contains no steps")
	}
	for i := range steps {
		if err := steps[i].Validate(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, steps[i].Op, err)
		}
	}
	return steps, nil
}
