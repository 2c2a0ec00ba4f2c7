// Package interact holds small, stateless helpers over a browser automation
// Driver: resolve an element, move the pointer to it, click it (retrying a
// known transient failure), type into it after clearing, poll for it, and
// check whether the session is still alive.
//
// Every operation is synchronous. The helpers keep no state between calls;
// each call is evaluated against the driver's live page. Operations that take
// a Target accept either a Selector or an element wrapped with Elem, and
// resolve it exactly once on entry.
//
//	h := interact.New(logger, interact.DefaultOptions())
//	if err := h.WaitFor(ctx, drv, interact.ID("login"), 10); err != nil {
//		return err
//	}
//	if err := h.SendKeys(ctx, drv, interact.Name("user"), "alice"); err != nil {
//		return err
//	}
package interact
