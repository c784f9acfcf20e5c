package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FieldExtractor pulls one candidate value out of a result card.
// ok is false when the candidate yields nothing usable.
type FieldExtractor func(card *goquery.Selection) (value string, ok bool)

// Cascade is an ordered list of candidates for one field. The first
// candidate that yields a non-empty value wins.
type Cascade []FieldExtractor

// First evaluates the cascade against card.
func (c Cascade) First(card *goquery.Selection) string {
	for _, candidate := range c {
		if v, ok := candidate(card); ok {
			return v
		}
	}
	return ""
}

// Text reads the collapsed text of the first element matching selector.
func Text(selector string) FieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		found := card.Find(selector).First()
		if found.Length() == 0 {
			return "", false
		}
		v := collapse(nodeText(found.Nodes[0]))
		return v, v != ""
	}
}

// Attr reads an attribute of the first element matching selector.
func Attr(selector, attr string) FieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		v := strings.TrimSpace(card.Find(selector).First().AttrOr(attr, ""))
		return v, v != ""
	}
}

// SelfAttr reads an attribute of the card element itself.
func SelfAttr(attr string) FieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		v := strings.TrimSpace(card.AttrOr(attr, ""))
		return v, v != ""
	}
}

// Texts builds a cascade of Text candidates.
func Texts(selectors ...string) Cascade {
	c := make(Cascade, 0, len(selectors))
	for _, s := range selectors {
		c = append(c, Text(s))
	}
	return c
}

// Attrs builds a cascade of Attr candidates sharing one attribute name.
func Attrs(attr string, selectors ...string) Cascade {
	c := make(Cascade, 0, len(selectors))
	for _, s := range selectors {
		c = append(c, Attr(s, attr))
	}
	return c
}

var whitespace = regexp.MustCompile(`\s+`)

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// nodeText concatenates text nodes under n, skipping script and style bodies.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
