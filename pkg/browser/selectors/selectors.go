// pkg/browser/selectors/selectors.go

// Package selectors holds the quoting helpers the driver adapters share when
// turning WebDriver location strategies into CSS or XPath expressions.
package selectors

import (
	"strings"
)

var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)

// CSSAttr builds an attribute selector such as [name="q"] with value quoted.
func CSSAttr(name, op, value string) string {
	return "[" + name + op + `"` + cssEscaper.Replace(value) + `"]`
}

// XPathLiteral quotes s for XPath 1.0, which has no escape sequences.
// Strings containing both quote kinds are split into a concat() call.
func XPathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}

// LinkTextXPath matches anchors by their visible text. An exact match
// compares whitespace-normalized text; a partial match uses contains().
func LinkTextXPath(text string, partial bool) string {
	if partial {
		return "//a[contains(., " + XPathLiteral(text) + ")]"
	}
	return "//a[normalize-space(.)=" + XPathLiteral(strings.TrimSpace(text)) + "]"
}
