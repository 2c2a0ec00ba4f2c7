// File: pkg/interact/selector.go
package interact

import (
	"context"
	"fmt"
	"strings"
)

// Strategy names how a Selector locates an element. The values match the
// W3C WebDriver location strategy names so adapters can pass them through.
type Strategy string

const (
	ByID              Strategy = "id"
	ByCSS             Strategy = "css selector"
	ByXPath           Strategy = "xpath"
	ByName            Strategy = "name"
	ByTagName         Strategy = "tag name"
	ByClassName       Strategy = "class name"
	ByLinkText        Strategy = "link text"
	ByPartialLinkText Strategy = "partial link text"
)

// strategyAliases maps the short prefixes accepted by ParseSelector.
var strategyAliases = map[string]Strategy{
	"id":                ByID,
	"css":               ByCSS,
	"css selector":      ByCSS,
	"xpath":             ByXPath,
	"name":              ByName,
	"tag":               ByTagName,
	"tag name":          ByTagName,
	"class":             ByClassName,
	"class name":        ByClassName,
	"link":              ByLinkText,
	"link text":         ByLinkText,
	"partial":           ByPartialLinkText,
	"partial link text": ByPartialLinkText,
}

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case ByID, ByCSS, ByXPath, ByName, ByTagName, ByClassName, ByLinkText, ByPartialLinkText:
		return true
	}
	return false
}

// Selector is an immutable description of how to find an element on the
// current page. Resolution returns the driver's first match or fails.
type Selector struct {
	By    Strategy
	Value string
}

func ID(v string) Selector              { return Selector{By: ByID, Value: v} }
func CSS(v string) Selector             { return Selector{By: ByCSS, Value: v} }
func XPath(v string) Selector           { return Selector{By: ByXPath, Value: v} }
func Name(v string) Selector            { return Selector{By: ByName, Value: v} }
func TagName(v string) Selector         { return Selector{By: ByTagName, Value: v} }
func ClassName(v string) Selector       { return Selector{By: ByClassName, Value: v} }
func LinkText(v string) Selector        { return Selector{By: ByLinkText, Value: v} }
func PartialLinkText(v string) Selector { return Selector{By: ByPartialLinkText, Value: v} }

// String renders the selector in the same "strategy=value" form ParseSelector reads.
func (s Selector) String() string {
	return string(s.By) + "=" + s.Value
}

// Validate rejects selectors with an unknown strategy or an empty value.
func (s Selector) Validate() error {
	if !s.By.Valid() {
		return fmt.Errorf("unknown selector strategy %q", s.By)
	}
	if strings.TrimSpace(s.Value) == "" {
		return fmt.Errorf("selector %q has an empty value", s.By)
	}
	return nil
}

// ParseSelector reads the textual selector form used by the CLI and step
// files: "css=#login", "xpath=//button", "id=user". Input without a known
// strategy prefix is treated as a CSS selector, so "div > a[href='x=y']"
// parses as CSS.
func ParseSelector(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}

	if idx := strings.Index(raw, "="); idx > 0 {
		prefix := strings.ToLower(strings.TrimSpace(raw[:idx]))
		if by, ok := strategyAliases[prefix]; ok {
			sel := Selector{By: by, Value: strings.TrimSpace(raw[idx+1:])}
			if err := sel.Validate(); err != nil {
				return Selector{}, err
			}
			return sel, nil
		}
	}
	return CSS(raw), nil
}

// Target is either a Selector or an element reference obtained earlier.
// Every helper operation resolves its target once, on entry.
type Target interface {
	resolve(ctx context.Context, d Driver) (Element, error)
	describe() string
}

func resolveTarget(ctx context.Context, d Driver, t Target) (Element, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil target", ErrNotFound)
	}
	return t.resolve(ctx, d)
}

func describe(t Target) string {
	if t == nil {
		return "<nil>"
	}
	return t.describe()
}

func (s Selector) resolve(ctx context.Context, d Driver) (Element, error) {
	return Resolve(ctx, d, s)
}

func (s Selector) describe() string { return s.String() }

type elementTarget struct {
	el Element
}

// Elem wraps an already-located element so it can be passed where a Target
// is expected.
func Elem(el Element) Target {
	return elementTarget{el: el}
}

func (t elementTarget) resolve(context.Context, Driver) (Element, error) {
	if t.el == nil {
		return nil, fmt.Errorf("%w: nil element reference", ErrNotFound)
	}
	return t.el, nil
}

func (t elementTarget) describe() string { return "element" }
