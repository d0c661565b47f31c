package parser

import (
	"fmt"
	"strings"

	"github.com/atikulmunna/logpage/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseEntries extracts the list items of a rendered excerpt in document order.
// Text is whitespace-collapsed; Href is the first link inside the item.
// The HTML5 parser recovers from malformed markup, so only read errors surface.
func ParseEntries(fragment string) ([]model.Entry, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse excerpt: %w", err)
	}

	entries := make([]model.Entry, 0)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Li {
			var sb strings.Builder
			collectText(n, &sb)
			entries = append(entries, model.Entry{
				Text: collapseSpace(sb.String()),
				Href: firstHref(n),
			})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return entries, nil
}

// collectText appends the text beneath n, skipping nested list items so each
// item's text belongs to it alone. Inline markup adds no separators; block
// elements do.
func collectText(n *html.Node, sb *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode && c.DataAtom == atom.Li:
			continue
		case c.Type == html.ElementNode && blockAtoms[c.DataAtom]:
			sb.WriteByte(' ')
			collectText(c, sb)
			sb.WriteByte(' ')
		default:
			collectText(c, sb)
		}
	}
}

var blockAtoms = map[atom.Atom]bool{
	atom.Br:  true,
	atom.P:   true,
	atom.Div: true,
	atom.Ul:  true,
	atom.Ol:  true,
	atom.Pre: true,
}

func firstHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		for _, a := range n.Attr {
			if a.Key == "href" {
				return a.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstHref(c); href != "" {
			return href
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
