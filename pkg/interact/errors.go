// File: pkg/interact/errors.go
package interact

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports that a selector matched no element when it was resolved.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout reports that WaitFor ran out of polls.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrClickExhausted reports that every click attempt hit a transient error.
	// It is only returned when Options.ReportClickExhaustion is set.
	ErrClickExhausted = errors.New("click retries exhausted")
	// ErrSessionUnavailable is returned by adapters whose browser session has
	// already gone away.
	ErrSessionUnavailable = errors.New("browser session unavailable")
)

// TimeoutError carries the details of a failed WaitFor.
type TimeoutError struct {
	Selector Selector
	Timeout  int
	Polls    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s not present after %d polls (timeout %d)", ErrTimeout, e.Selector, e.Polls, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// ClickExhaustedError is returned from Click in reporting mode once the
// attempt budget is spent.
type ClickExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ClickExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrClickExhausted, e.Attempts, e.Last)
}

func (e *ClickExhaustedError) Is(target error) bool { return target == ErrClickExhausted }

func (e *ClickExhaustedError) Unwrap() error { return e.Last }

// inputAreaClassifier is implemented by adapter errors that already know
// whether they represent the transient "input area" condition.
type inputAreaClassifier interface {
	InputAreaTransient() bool
}

// inputAreaMessage is the driver error text that marks a click landing on a
// native input surface that refused it.
const inputAreaMessage = "input area"

// IsInputAreaTransient is the default retry predicate for Click. Errors that
// classify themselves through an InputAreaTransient() method are trusted;
// anything else falls back to matching the driver's message text.
func IsInputAreaTransient(err error) bool {
	if err == nil {
		return false
	}
	var c inputAreaClassifier
	if errors.As(err, &c) {
		return c.InputAreaTransient()
	}
	return strings.Contains(err.Error(), inputAreaMessage)
}

// MatchMessages builds a retry predicate that matches any of the given
// substrings in an error's text. Structured classification still wins.
// It lets the message match be swapped per driver platform and locale.
func MatchMessages(patterns ...string) func(error) bool {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return func(err error) bool {
		if err == nil {
			return false
		}
		var c inputAreaClassifier
		if errors.As(err, &c) {
			return c.InputAreaTransient()
		}
		msg := err.Error()
		for _, p := range cleaned {
			if strings.Contains(msg, p) {
				return true
			}
		}
		return false
	}
}
