// Package browser is the narrow set of page operations the order workflow
// needs from a browser.
//
// Selectors starting with "/" or "(" are XPath expressions, anything else is
// a CSS selector.
package browser

import (
	"context"
	"strings"
)

// Page is a single browser tab. It is not safe for concurrent use, the
// workflow owns it for the whole run and drives it sequentially.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	// SelectOption picks the option of a <select> element by its value.
	SelectOption(ctx context.Context, selector, value string) error
	// Fill replaces the contents of a text input.
	Fill(ctx context.Context, selector, text string) error
	// Exists reports whether an element matching selector is in the DOM right
	// now, it does not wait for one to appear.
	Exists(ctx context.Context, selector string) (bool, error)
	// Screenshot returns a PNG of the element matching selector.
	Screenshot(ctx context.Context, selector string) ([]byte, error)
	InnerHTML(ctx context.Context, selector string) (string, error)
	// RenderPDF prints a standalone HTML document to PDF without touching the
	// page's own document.
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

func IsXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}
