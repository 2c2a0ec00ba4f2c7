// pkg/browser/cdp/query.go
package cdp

import (
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/elemkit/pkg/browser/selectors"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// query is a selector translated into a chromedp query expression.
type query struct {
	expr   string
	search bool
}

// option picks DOM.performSearch for XPath expressions and querySelector otherwise.
func (q query) option() chromedp.QueryOption {
	if q.search {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// translate maps a WebDriver-style selector onto querySelector or
// DOM.performSearch. Strategies without a CSS form use XPath.
func translate(sel interact.Selector) (query, error) {
	if err := sel.Validate(); err != nil {
		return query{}, err
	}
	switch sel.By {
	case interact.ByCSS, interact.ByTagName:
		return query{expr: sel.Value}, nil
	case interact.ByID:
		return query{expr: selectors.CSSAttr("id", "=", sel.Value)}, nil
	case interact.ByName:
		return query{expr: selectors.CSSAttr("name", "=", sel.Value)}, nil
	case interact.ByClassName:
		return query{expr: selectors.CSSAttr("class", "~=", sel.Value)}, nil
	case interact.ByXPath:
		return query{expr: sel.Value, search: true}, nil
	case interact.ByLinkText:
		return query{expr: selectors.LinkTextXPath(sel.Value, false), search: true}, nil
	case interact.ByPartialLinkText:
		return query{expr: selectors.LinkTextXPath(sel.Value, true), search: true}, nil
	}
	return query{}, fmt.Errorf("cdp: unsupported selector strategy %q", sel.By)
}
