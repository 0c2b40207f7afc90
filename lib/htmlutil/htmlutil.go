package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the text under node, with a line break for every br and
// after every block element.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteByte('\n')
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
	if node.Type == html.ElementNode && blockElements[node.Data] {
		buffer.WriteByte('\n')
	}
}

var blockElements = map[string]bool{
	"div": true,
	"p":   true,
	"li":  true,
	"tr":  true,
	"h1":  true,
	"h2":  true,
	"h3":  true,
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText drops non-printable runes, trims the ends and collapses inner
// whitespace runs into a single space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// SelectionText is CleanText over the text of every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	texts := make([]string, len(sel.Nodes))
	for i, n := range sel.Nodes {
		texts[i] = GetText(n)
	}
	return CleanText(strings.Join(texts, " "))
}

// StripActive removes elements that would execute or load remote content when
// the document is rendered offline.
func StripActive(doc *goquery.Document) {
	doc.Find("script, noscript, iframe, link[rel='preload'], link[rel='prefetch']").Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if strings.HasPrefix(strings.ToLower(a.Key), "on") {
					continue
				}
				kept = append(kept, a)
			}
			n.Attr = kept
		}
	})
}
