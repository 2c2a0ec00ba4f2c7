// pkg/browser/webdriver/driver.go
package webdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/xkilldash9x/elemkit/pkg/browser/selectors"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

const (
	pointerSource  = "elemkit-mouse"
	keyboardSource = "elemkit-keyboard"

	noSuchElement = "no such element"

	focusScript = "arguments[0].focus();"
)

// Driver implements interact.Driver over a W3C WebDriver session.
type Driver struct {
	wd     selenium.WebDriver
	logger *zap.Logger
	closed atomic.Bool
}

var _ interact.Driver = (*Driver)(nil)

// New wraps an established session. Close quits it.
func New(wd selenium.WebDriver, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		wd:     wd,
		logger: logger.With(zap.String("component", "webdriver_driver"), zap.String("session_id", wd.SessionID())),
	}
}

// Dial opens a new remote session against a WebDriver endpoint such as
// chromedriver or a Selenium grid.
func Dial(url, browserName string, args []string, logger *zap.Logger) (*Driver, error) {
	caps := selenium.Capabilities{"browserName": browserName}
	if len(args) > 0 {
		caps["goog:chromeOptions"] = map[string]interface{}{"args": args}
	}
	wd, err := selenium.NewRemote(caps, url)
	if err != nil {
		return nil, fmt.Errorf("webdriver: failed to open session at %s: %w", url, err)
	}
	return New(wd, logger), nil
}

// check reports context cancellation first, then a closed session.
func (d *Driver) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed.Load() {
		return interact.ErrSessionUnavailable
	}
	return nil
}

// FindElement asks the remote end for the first match. The remote end's
// implicit wait applies; sessions opened by Dial leave it at zero.
func (d *Driver) FindElement(ctx context.Context, sel interact.Selector) (interact.Element, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	by, value := locate(sel)
	we, err := d.wd.FindElement(by, value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, fmt.Errorf("%w: %s: %v", interact.ErrNotFound, sel, err)
		}
		return nil, wrap("find element", err)
	}
	if we == nil {
		return nil, fmt.Errorf("%w: %s", interact.ErrNotFound, sel)
	}
	return &Element{drv: d, we: we}, nil
}

// locate maps a selector onto a W3C location strategy. The remote end only
// knows css selector, xpath, tag name and the link text pair, so id, name and
// class name become attribute selectors.
func locate(sel interact.Selector) (string, string) {
	switch sel.By {
	case interact.ByID:
		return selenium.ByCSSSelector, selectors.CSSAttr("id", "=", sel.Value)
	case interact.ByName:
		return selenium.ByCSSSelector, selectors.CSSAttr("name", "=", sel.Value)
	case interact.ByClassName:
		return selenium.ByCSSSelector, selectors.CSSAttr("class", "~=", sel.Value)
	}
	return string(sel.By), sel.Value
}

// WindowHandles lists the session's window handles.
func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	handles, err := d.wd.WindowHandles()
	if err != nil {
		return nil, wrap("window handles", err)
	}
	return handles, nil
}

// Perform translates actions into W3C input sources. Consecutive pointer or
// key actions are batched into one PerformActions call so their order holds
// across the two sources. Focus runs as a script between batches.
func (d *Driver) Perform(ctx context.Context, actions ...interact.Action) error {
	if err := d.check(ctx); err != nil {
		return err
	}

	var (
		pointer []selenium.PointerAction
		keys    []selenium.KeyAction
	)
	flush := func() error {
		if len(pointer) == 0 && len(keys) == 0 {
			return nil
		}
		if len(pointer) > 0 {
			d.wd.StorePointerActions(pointerSource, selenium.MousePointer, pointer...)
		}
		if len(keys) > 0 {
			d.wd.StoreKeyActions(keyboardSource, keys...)
		}
		pointer, keys = nil, nil

		if err := d.wd.PerformActions(); err != nil {
			_ = d.wd.ReleaseActions()
			return wrap("perform actions", err)
		}
		return d.wd.ReleaseActions()
	}

	for _, a := range actions {
		switch a.Kind {
		case interact.ActionMoveTo:
			if len(keys) > 0 {
				if err := flush(); err != nil {
					return err
				}
			}
			el, ok := a.Element.(*Element)
			if !ok || el == nil || el.drv != d {
				return fmt.Errorf("webdriver: move target %T does not belong to this driver", a.Element)
			}
			center, err := el.center()
			if err != nil {
				return err
			}
			pointer = append(pointer, selenium.PointerMoveAction(0, center, selenium.FromViewport))
		case interact.ActionClick:
			if len(keys) > 0 {
				if err := flush(); err != nil {
					return err
				}
			}
			pointer = append(pointer,
				selenium.PointerDownAction(selenium.LeftButton),
				selenium.PointerUpAction(selenium.LeftButton),
			)
		case interact.ActionType, interact.ActionPress:
			if len(pointer) > 0 {
				if err := flush(); err != nil {
					return err
				}
			}
			text := a.Text
			if a.Kind == interact.ActionPress {
				text = keyFor(a.Key)
			}
			for _, r := range text {
				keys = append(keys, selenium.KeyDownAction(string(r)), selenium.KeyUpAction(string(r)))
			}
		case interact.ActionFocus:
			if err := flush(); err != nil {
				return err
			}
			el, ok := a.Element.(*Element)
			if !ok || el == nil || el.drv != d {
				return fmt.Errorf("webdriver: focus target %T does not belong to this driver", a.Element)
			}
			if _, err := d.wd.ExecuteScript(focusScript, []interface{}{el.we}); err != nil {
				return wrap("focus", err)
			}
		default:
			return fmt.Errorf("webdriver: unsupported action %s", a.Kind)
		}
	}
	return flush()
}

func keyFor(k interact.Key) string {
	switch k {
	case interact.KeyArrowDown:
		return selenium.DownArrowKey
	}
	return string(k)
}

// Navigate loads url in the current window.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	if err := d.wd.Get(url); err != nil {
		return wrap("navigate to "+url, err)
	}
	return nil
}

// Close quits the remote session once.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.logger.Debug("Quitting WebDriver session")
	return d.wd.Quit()
}

// Element wraps a remote element reference.
type Element struct {
	drv *Driver
	we  selenium.WebElement
}

var _ interact.Element = (*Element)(nil)

// WebElement exposes the underlying selenium element.
func (e *Element) WebElement() selenium.WebElement { return e.we }

// Clear empties an editable element.
func (e *Element) Clear(ctx context.Context) error {
	if err := e.drv.check(ctx); err != nil {
		return err
	}
	if err := e.we.Clear(); err != nil {
		return wrap("clear", err)
	}
	return nil
}

// center scrolls the element into view and returns its midpoint in
// viewport coordinates.
func (e *Element) center() (selenium.Point, error) {
	loc, err := e.we.LocationInView()
	if err != nil {
		return selenium.Point{}, wrap("location in view", err)
	}
	size, err := e.we.Size()
	if err != nil {
		return selenium.Point{}, wrap("element size", err)
	}
	return selenium.Point{X: loc.X + size.Width/2, Y: loc.Y + size.Height/2}, nil
}

// Error is a remote end failure. It classifies the transient "input area"
// click failure structurally so the helper does not depend on its wording.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "webdriver: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// InputAreaTransient reports whether the remote end refused a click because
// it landed on a native input surface.
func (e *Error) InputAreaTransient() bool {
	var se *selenium.Error
	if errors.As(e.Err, &se) {
		return strings.Contains(se.Message, "input area") || strings.Contains(se.Err, "input area")
	}
	return strings.Contains(e.Err.Error(), "input area")
}

func wrap(op string, err error) error {
	return &Error{Op: op, Err: err}
}

func isNoSuchElement(err error) bool {
	var se *selenium.Error
	if errors.As(err, &se) {
		return se.Err == noSuchElement
	}
	return strings.Contains(err.Error(), noSuchElement)
}
