package receipt

import (
	"fmt"
	"strings"

	"robotorder/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title></title>
<style>
	body { font-family: sans-serif; margin: 2cm; color: #222; }
	.badge { display: inline-block; padding: 0.2em 0.5em; border-radius: 0.25em; }
	.badge-success { background: #28a745; color: #fff; }
	.alert { border: 1px solid #ddd; padding: 0.75em; }
</style>
</head>
<body><div id="receipt"></div></body>
</html>`

// Document wraps the receipt markup taken from the page into a standalone HTML
// document that renders without the page's scripts and stylesheets.
func Document(title, markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(documentTemplate))
	if err != nil {
		return "", fmt.Errorf("parse document template: %w", err)
	}
	doc.Find("title").SetText(title)
	doc.Find("#receipt").SetHtml(markup)
	htmlutil.StripActive(doc)

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize receipt document: %w", err)
	}
	return out, nil
}

// Info is what the site prints on a receipt.
type Info struct {
	OrderID   string
	Timestamp string
	Address   string
	Parts     []string
}

// ParseInfo reads the fields of a receipt out of its markup.
func ParseInfo(markup string) (Info, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Info{}, fmt.Errorf("parse receipt: %w", err)
	}

	badge := doc.Find("p.badge-success").First()
	info := Info{
		OrderID:   htmlutil.SelectionText(badge),
		Timestamp: htmlutil.SelectionText(doc.Find("h3 + div").First()),
		Address:   htmlutil.SelectionText(badge.NextFiltered("p")),
	}
	doc.Find("#parts > div").Each(func(_ int, s *goquery.Selection) {
		info.Parts = append(info.Parts, htmlutil.SelectionText(s))
	})

	if info.OrderID == "" {
		return info, fmt.Errorf("receipt has no order id")
	}
	return info, nil
}
