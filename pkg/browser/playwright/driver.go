// pkg/browser/playwright/driver.go
package playwright

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/elemkit/pkg/browser/selectors"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// Driver implements interact.Driver over a single Playwright page.
// Playwright calls are not context aware, so ctx is checked before each one.
type Driver struct {
	page   playwright.Page
	logger *zap.Logger
}

var _ interact.Driver = (*Driver)(nil)

// New wraps page. The caller keeps ownership of the browser and the
// Playwright driver process.
func New(page playwright.Page, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{page: page, logger: logger.With(zap.String("component", "playwright_driver"))}
}

// Page exposes the wrapped page.
func (d *Driver) Page() playwright.Page { return d.page }

func (d *Driver) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.page == nil || d.page.IsClosed() {
		return interact.ErrSessionUnavailable
	}
	return nil
}

// engineSelector maps a WebDriver-style selector onto Playwright's css= and
// xpath= selector engines.
func engineSelector(sel interact.Selector) (string, error) {
	if err := sel.Validate(); err != nil {
		return "", err
	}
	switch sel.By {
	case interact.ByCSS, interact.ByTagName:
		return "css=" + sel.Value, nil
	case interact.ByID:
		return "css=" + selectors.CSSAttr("id", "=", sel.Value), nil
	case interact.ByName:
		return "css=" + selectors.CSSAttr("name", "=", sel.Value), nil
	case interact.ByClassName:
		return "css=" + selectors.CSSAttr("class", "~=", sel.Value), nil
	case interact.ByXPath:
		return "xpath=" + sel.Value, nil
	case interact.ByLinkText:
		return "xpath=" + selectors.LinkTextXPath(sel.Value, false), nil
	case interact.ByPartialLinkText:
		return "xpath=" + selectors.LinkTextXPath(sel.Value, true), nil
	}
	return "", fmt.Errorf("playwright: unsupported selector strategy %q", sel.By)
}

// FindElement returns the first match without Playwright's auto-waiting.
func (d *Driver) FindElement(ctx context.Context, sel interact.Selector) (interact.Element, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	expr, err := engineSelector(sel)
	if err != nil {
		return nil, err
	}

	handle, err := d.page.QuerySelector(expr)
	if err != nil {
		return nil, fmt.Errorf("playwright: query %s: %w", sel, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", interact.ErrNotFound, sel)
	}
	return &Element{drv: d, handle: handle}, nil
}

// WindowHandles reports one handle per open page in the browser context.
func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	var handles []string
	for i, p := range d.page.Context().Pages() {
		if !p.IsClosed() {
			handles = append(handles, fmt.Sprintf("page-%d", i))
		}
	}
	return handles, nil
}

// Perform replays the actions through the page's mouse and keyboard.
func (d *Driver) Perform(ctx context.Context, actions ...interact.Action) error {
	for _, a := range actions {
		if err := d.check(ctx); err != nil {
			return err
		}
		if err := d.perform(a); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) perform(a interact.Action) error {
	switch a.Kind {
	case interact.ActionMoveTo:
		el, ok := a.Element.(*Element)
		if !ok || el == nil || el.drv != d {
			return fmt.Errorf("playwright: move target %T does not belong to this driver", a.Element)
		}
		x, y, err := el.center()
		if err != nil {
			return err
		}
		return d.page.Mouse().Move(x, y)
	case interact.ActionClick:
		button := playwright.MouseButtonLeft
		if err := d.page.Mouse().Down(playwright.MouseDownOptions{Button: button, ClickCount: playwright.Int(1)}); err != nil {
			return fmt.Errorf("playwright: mouse down: %w", err)
		}
		if err := d.page.Mouse().Up(playwright.MouseUpOptions{Button: button, ClickCount: playwright.Int(1)}); err != nil {
			return fmt.Errorf("playwright: mouse up: %w", err)
		}
		return nil
	case interact.ActionType:
		return d.page.Keyboard().Type(a.Text)
	case interact.ActionPress:
		return d.page.Keyboard().Press(string(a.Key))
	case interact.ActionFocus:
		el, ok := a.Element.(*Element)
		if !ok || el == nil || el.drv != d {
			return fmt.Errorf("playwright: focus target %T does not belong to this driver", a.Element)
		}
		if err := el.handle.Focus(); err != nil {
			return fmt.Errorf("playwright: focus: %w", err)
		}
		return nil
	}
	return fmt.Errorf("playwright: unsupported action %s", a.Kind)
}

// Navigate loads url in the page.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	if _, err := d.page.Goto(url); err != nil {
		return fmt.Errorf("playwright: navigate to %s: %w", url, err)
	}
	return nil
}

// Close closes the page. Closing an already closed page is a no-op.
func (d *Driver) Close() error {
	if d.page == nil || d.page.IsClosed() {
		return nil
	}
	return d.page.Close()
}

// Element wraps a Playwright element handle.
type Element struct {
	drv    *Driver
	handle playwright.ElementHandle
}

var _ interact.Element = (*Element)(nil)

// Handle exposes the underlying element handle.
func (e *Element) Handle() playwright.ElementHandle { return e.handle }

// Clear empties an input, textarea or contenteditable element.
func (e *Element) Clear(ctx context.Context) error {
	if err := e.drv.check(ctx); err != nil {
		return err
	}
	if err := e.handle.Fill(""); err != nil {
		return fmt.Errorf("playwright: clear: %w", err)
	}
	return nil
}

func (e *Element) center() (float64, float64, error) {
	if err := e.handle.ScrollIntoViewIfNeeded(); err != nil {
		return 0, 0, fmt.Errorf("playwright: scroll into view: %w", err)
	}
	box, err := e.handle.BoundingBox()
	if err != nil {
		return 0, 0, fmt.Errorf("playwright: bounding box: %w", err)
	}
	if box == nil {
		return 0, 0, fmt.Errorf("playwright: element is not rendered")
	}
	return box.X + box.Width/2, box.Y + box.Height/2, nil
}
