// File: internal/mocks/driver.go
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// -- Driver Mock --

// MockDriver mocks interact.Driver.
type MockDriver struct {
	mock.Mock
}

var _ interact.Driver = (*MockDriver)(nil)

func (m *MockDriver) FindElement(ctx context.Context, sel interact.Selector) (interact.Element, error) {
	args := m.Called(ctx, sel)
	var el interact.Element
	if v := args.Get(0); v != nil {
		el = v.(interact.Element)
	}
	return el, args.Error(1)
}

func (m *MockDriver) WindowHandles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var handles []string
	if v := args.Get(0); v != nil {
		handles = v.([]string)
	}
	return handles, args.Error(1)
}

// Perform passes the action slice as a single argument so expectations can
// match whole sequences with mock.MatchedBy.
func (m *MockDriver) Perform(ctx context.Context, actions ...interact.Action) error {
	args := m.Called(ctx, actions)
	return args.Error(0)
}

// -- Element Mock --

// MockElement mocks interact.Element.
type MockElement struct {
	mock.Mock
}

var _ interact.Element = (*MockElement)(nil)

func (m *MockElement) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// -- Recording Fake --

// Call is one interaction observed by a RecordingDriver.
type Call struct {
	Op      string
	Actions []string
}

// RecordingDriver is a scriptable in-memory page. It resolves selectors from
// a fixed map, tracks a text value per element, and records every call so
// tests can assert exact interaction sequences.
type RecordingDriver struct {
	mu       sync.Mutex
	Elements map[interact.Selector]*FakeElement
	Handles  []string
	// ClickErr, when set, is returned by every Perform that contains a click.
	ClickErr error
	Calls    []Call

	// URL is the last address passed to Navigate.
	URL    string
	Closed bool

	focused *FakeElement
	pointer *FakeElement
}

// NewRecordingDriver returns a driver with one window and no elements.
func NewRecordingDriver() *RecordingDriver {
	return &RecordingDriver{
		Elements: make(map[interact.Selector]*FakeElement),
		Handles:  []string{"window-1"},
	}
}

// Add registers an element under sel with an initial value.
func (d *RecordingDriver) Add(sel interact.Selector, value string) *FakeElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := &FakeElement{Name: sel.String(), Value: value, driver: d}
	d.Elements[sel] = el
	return el
}

func (d *RecordingDriver) record(c Call) {
	d.Calls = append(d.Calls, c)
}

// Recorded returns a copy of the call log.
func (d *RecordingDriver) Recorded() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.Calls))
	copy(out, d.Calls)
	return out
}

func (d *RecordingDriver) FindElement(_ context.Context, sel interact.Selector) (interact.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "find:" + sel.String()})
	if d.Closed {
		return nil, interact.ErrSessionUnavailable
	}
	el, ok := d.Elements[sel]
	if !ok {
		return nil, interact.ErrNotFound
	}
	return el, nil
}

func (d *RecordingDriver) WindowHandles(context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "handles"})
	if d.Closed {
		return nil, interact.ErrSessionUnavailable
	}
	return append([]string(nil), d.Handles...), nil
}

func (d *RecordingDriver) Perform(_ context.Context, actions ...interact.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a.Kind {
		case interact.ActionMoveTo:
			names = append(names, "move:"+a.Element.(*FakeElement).Name)
		case interact.ActionClick:
			names = append(names, "click")
		case interact.ActionType:
			names = append(names, "type:"+a.Text)
		case interact.ActionPress:
			names = append(names, "press:"+string(a.Key))
		case interact.ActionFocus:
			names = append(names, "focus:"+a.Element.(*FakeElement).Name)
		}
	}
	d.record(Call{Op: "perform", Actions: names})

	for _, a := range actions {
		switch a.Kind {
		case interact.ActionMoveTo:
			d.pointer = a.Element.(*FakeElement)
		case interact.ActionClick:
			if d.ClickErr != nil {
				return d.ClickErr
			}
			d.focused = d.pointer
		case interact.ActionFocus:
			d.focused = a.Element.(*FakeElement)
		case interact.ActionType:
			if d.focused != nil {
				d.focused.Value += a.Text
			}
		}
	}
	return nil
}

// Navigate records url. It fails once the driver is closed.
func (d *RecordingDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "navigate:" + url})
	if d.Closed {
		return interact.ErrSessionUnavailable
	}
	d.URL = url
	return nil
}

// Close marks the session as gone. Later lookups fail.
func (d *RecordingDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "close"})
	d.Closed = true
	return nil
}

// FakeElement is an element of a RecordingDriver.
type FakeElement struct {
	Name  string
	Value string

	driver *RecordingDriver
}

func (e *FakeElement) Clear(context.Context) error {
	e.driver.mu.Lock()
	defer e.driver.mu.Unlock()
	e.driver.record(Call{Op: "clear:" + e.Name})
	e.Value = ""
	return nil
}

// Text returns the element's current value.
func (e *FakeElement) Text() string {
	e.driver.mu.Lock()
	defer e.driver.mu.Unlock()
	return e.Value
}
