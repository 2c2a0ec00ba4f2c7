// pkg/browser/cdp/context.go
package cdp

import (
	"context"
)

// CombineContext derives a context from the tab context, so chromedp values
// are inherited, and cancels it when either tab or op is done.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tab)

	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
