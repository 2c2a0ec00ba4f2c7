// File: pkg/interact/driver.go
package interact

import "context"

// Driver is the slice of a browser automation driver the helpers consume.
// Implementations live in pkg/browser/... and wrap chromedp, WebDriver or
// Playwright. A Driver is borrowed for the duration of a call and is never
// created or closed by this package. It must not be shared between
// goroutines while a call is in flight.
type Driver interface {
	// FindElement returns the first element matching sel in the current page
	// state. It must not wait: absence is reported immediately with an error
	// matching ErrNotFound.
	FindElement(ctx context.Context, sel Selector) (Element, error)

	// WindowHandles lists the open top-level windows (tabs) of the session.
	WindowHandles(ctx context.Context) ([]string, error)

	// Perform commits the given actions as one input sequence.
	Perform(ctx context.Context, actions ...Action) error
}

// Element is an opaque reference to one page element.
type Element interface {
	// Clear empties the element's editable content.
	Clear(ctx context.Context) error
}

// ActionKind enumerates the input primitives a Driver has to support.
type ActionKind int

const (
	// ActionMoveTo scrolls the element into view and moves the pointer to its centre.
	ActionMoveTo ActionKind = iota
	// ActionClick presses and releases the primary button at the pointer.
	ActionClick
	// ActionType types literal text into whatever has focus.
	ActionType
	// ActionPress presses and releases one named key.
	ActionPress
	// ActionFocus gives the element keyboard focus without moving the pointer.
	ActionFocus
)

func (k ActionKind) String() string {
	switch k {
	case ActionMoveTo:
		return "move"
	case ActionClick:
		return "click"
	case ActionType:
		return "type"
	case ActionPress:
		return "press"
	case ActionFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// Key is a named, non-printable key. Adapters translate it to their driver's
// key representation.
type Key string

// KeyArrowDown moves focus within or away from a field. The click retry uses
// it to nudge elements that refuse a direct click.
const KeyArrowDown Key = "ArrowDown"

// Action is one step of an input sequence handed to Driver.Perform.
type Action struct {
	Kind    ActionKind
	Element Element
	Text    string
	Key     Key
}

// MoveTo builds a pointer move to el.
func MoveTo(el Element) Action { return Action{Kind: ActionMoveTo, Element: el} }

// Click builds a primary button press and release at the current pointer position.
func Click() Action { return Action{Kind: ActionClick} }

// Type builds a text entry action.
func Type(text string) Action { return Action{Kind: ActionType, Text: text} }

// Focus builds a keyboard focus change to el.
func Focus(el Element) Action { return Action{Kind: ActionFocus, Element: el} }

// Press builds a single key press.
func Press(k Key) Action { return Action{Kind: ActionPress, Key: k} }
