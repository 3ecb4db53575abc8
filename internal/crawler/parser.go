package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/contactscan/internal/model"
)

// ParsedPage holds the two views of a page that the extractors consume.
//
// Design decision: We produce both views in one parse step rather than
// letting each extractor parse on its own because:
//  1. Parsing is the expensive part; the views are cheap to carry
//  2. Extractors stay pure functions over strings and slices
//  3. The text view and the anchor view must come from the same document
type ParsedPage struct {
	// Text is the plain-text view: every text node in the document joined
	// with spaces. Script and style contents are included - contact data
	// is regularly found inside inline JavaScript and JSON-LD blocks.
	Text string

	// Tags maps the closed metadata key set (title, description, generator)
	// to raw values. A key is present only when the page carries the
	// corresponding element; an element with empty content yields an empty
	// string value.
	Tags map[string]string

	// Anchors lists the raw href attribute of every <a href> element in
	// document order, exactly as written in the markup.
	Anchors []string
}

// ParsePage parses raw HTML markup into the two extraction views.
//
// Design decision: We parse twice, once with golang.org/x/net/html for the
// text walk and once with goquery for the element queries, because:
//  1. The text view needs a raw node walk that CSS selection cannot express
//  2. The anchor/meta view reads naturally as selector queries
//  3. Both parsers tolerate the malformed HTML common on real sites
func ParsePage(markup string) (*ParsedPage, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	page := &ParsedPage{
		Text:    textView(root),
		Tags:    metadataTags(doc),
		Anchors: anchorHrefs(doc),
	}
	return page, nil
}

// textView walks the DOM tree and joins every text node with spaces.
func textView(root *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return sb.String()
}

// metadataTags collects the title, description, and generator values.
// A key appears only when the element exists; empty content stays as an
// empty string so callers can tell "present but empty" from "absent".
func metadataTags(doc *goquery.Document) map[string]string {
	tags := make(map[string]string)

	if title := doc.Find("title").First(); title.Length() > 0 {
		tags[model.AttrTitle] = title.Text()
	}
	if desc := doc.Find(`meta[name="description"]`).First(); desc.Length() > 0 {
		content, _ := desc.Attr("content")
		tags[model.AttrDescription] = content
	}
	if gen := doc.Find(`meta[name="generator"]`).First(); gen.Length() > 0 {
		content, _ := gen.Attr("content")
		tags[model.AttrGenerator] = content
	}

	return tags
}

// anchorHrefs lists raw hrefs of all anchors carrying the attribute,
// in document order.
func anchorHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}
