// pkg/browser/cdp/driver.go
package cdp

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// Driver implements interact.Driver over a single chromedp tab.
// It must be used by one goroutine at a time.
type Driver struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu         sync.Mutex
	pointer    point
	hasPointer bool
}

var _ interact.Driver = (*Driver)(nil)

type point struct {
	X, Y float64
}

// New opens a tab under parent, which is either a chromedp allocator context
// or an existing browser context. The tab is started eagerly so a broken
// browser fails here rather than on the first lookup.
func New(parent context.Context, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	tabCtx, cancel := chromedp.NewContext(parent)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("cdp: failed to start tab: %w", err)
	}

	d := &Driver{
		id:     id,
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.With(zap.String("component", "cdp_driver"), zap.String("session_id", id)),
	}
	d.logger.Debug("CDP tab started")
	return d, nil
}

// ID returns the session id assigned at creation.
func (d *Driver) ID() string { return d.id }

// Run executes raw chromedp actions against the tab, bounded by both the tab
// lifetime and ctx.
func (d *Driver) Run(ctx context.Context, actions ...chromedp.Action) error {
	if d.ctx.Err() != nil {
		return interact.ErrSessionUnavailable
	}
	opCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()

	err := chromedp.Run(opCtx, actions...)
	if err == nil {
		return nil
	}
	// Context errors take precedence over whatever chromedp reported.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", interact.ErrSessionUnavailable, err)
	}
	return err
}

// FindElement returns the first node matching sel without waiting for it.
func (d *Driver) FindElement(ctx context.Context, sel interact.Selector) (interact.Element, error) {
	q, err := translate(sel)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := d.Run(ctx, chromedp.Nodes(q.expr, &nodes, q.option(), chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0] == nil {
		return nil, fmt.Errorf("%w: %s", interact.ErrNotFound, sel)
	}
	return &Element{drv: d, node: nodes[0]}, nil
}

// WindowHandles lists the page targets of the browser the tab belongs to.
func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	if d.ctx.Err() != nil {
		return nil, interact.ErrSessionUnavailable
	}
	opCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()

	infos, err := chromedp.Targets(opCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("cdp: failed to list targets: %w", err)
	}

	handles := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			handles = append(handles, string(info.TargetID))
		}
	}
	return handles, nil
}

// Perform commits the actions as one chromedp task list.
func (d *Driver) Perform(ctx context.Context, actions ...interact.Action) error {
	tasks := make(chromedp.Tasks, 0, len(actions))
	for _, a := range actions {
		switch a.Kind {
		case interact.ActionMoveTo:
			el, ok := a.Element.(*Element)
			if !ok || el == nil || el.drv != d {
				return fmt.Errorf("cdp: move target %T does not belong to this driver", a.Element)
			}
			tasks = append(tasks, d.moveTo(el))
		case interact.ActionClick:
			tasks = append(tasks, d.click())
		case interact.ActionType:
			tasks = append(tasks, chromedp.KeyEvent(a.Text))
		case interact.ActionPress:
			tasks = append(tasks, chromedp.KeyEvent(keyFor(a.Key)))
		case interact.ActionFocus:
			el, ok := a.Element.(*Element)
			if !ok || el == nil || el.drv != d {
				return fmt.Errorf("cdp: focus target %T does not belong to this driver", a.Element)
			}
			tasks = append(tasks, dom.Focus().WithNodeID(el.node.NodeID))
		default:
			return fmt.Errorf("cdp: unsupported action %s", a.Kind)
		}
	}
	return d.Run(ctx, tasks)
}

func (d *Driver) moveTo(el *Element) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		id := el.node.NodeID
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(id).Do(ctx); err != nil {
			return fmt.Errorf("cdp: scroll into view: %w", err)
		}
		box, err := dom.GetBoxModel().WithNodeID(id).Do(ctx)
		if err != nil {
			return fmt.Errorf("cdp: get box model: %w", err)
		}
		p, ok := boxCenter(box)
		if !ok {
			return fmt.Errorf("cdp: element has no geometric representation")
		}
		if err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).Do(ctx); err != nil {
			return err
		}

		d.mu.Lock()
		d.pointer, d.hasPointer = p, true
		d.mu.Unlock()
		return nil
	})
}

// click presses and releases the primary button wherever the pointer is.
func (d *Driver) click() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		d.mu.Lock()
		p, ok := d.pointer, d.hasPointer
		d.mu.Unlock()
		if !ok {
			return fmt.Errorf("cdp: click before any pointer move")
		}

		press := input.DispatchMouseEvent(input.MousePressed, p.X, p.Y).
			WithButton(input.Left).
			WithButtons(1).
			WithClickCount(1)
		if err := press.Do(ctx); err != nil {
			return err
		}
		release := input.DispatchMouseEvent(input.MouseReleased, p.X, p.Y).
			WithButton(input.Left).
			WithClickCount(1)
		return release.Do(ctx)
	})
}

// boxCenter averages the four content quad corners.
func boxCenter(box *dom.BoxModel) (point, bool) {
	if box == nil || len(box.Content) < 8 {
		return point{}, false
	}
	c := box.Content
	return point{
		X: (c[0] + c[2] + c[4] + c[6]) / 4,
		Y: (c[1] + c[3] + c[5] + c[7]) / 4,
	}, true
}

func keyFor(k interact.Key) string {
	switch k {
	case interact.KeyArrowDown:
		return kb.ArrowDown
	}
	return string(k)
}

// Navigate loads url in the tab and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("cdp: navigate to %s: %w", url, err)
	}
	return nil
}

// Close closes the tab. Closing an already closed driver is a no-op.
func (d *Driver) Close() error {
	if d.ctx.Err() != nil {
		return nil
	}
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	d.logger.Debug("CDP tab closed")
	return err
}

// Element is a DOM node located by a Driver.
type Element struct {
	drv  *Driver
	node *cdp.Node
}

var _ interact.Element = (*Element)(nil)

// NodeID exposes the backing DOM node id.
func (e *Element) NodeID() cdp.NodeID { return e.node.NodeID }

// Clear empties an input or textarea.
func (e *Element) Clear(ctx context.Context) error {
	return e.drv.Run(ctx, chromedp.Clear([]cdp.NodeID{e.node.NodeID}, chromedp.ByNodeID))
}
