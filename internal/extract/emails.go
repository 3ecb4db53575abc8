package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxEmailLength bounds addresses captured from mailto links. Hrefs can carry
// arbitrarily long garbage after "mailto:"; real addresses do not.
const maxEmailLength = 100

var (
	// emailTextRegex matches email addresses in visible text.
	emailTextRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// mailtoRegex captures the address of a mailto: reference anywhere in raw
	// markup, including ones hiding in scripts or unparsed fragments.
	mailtoRegex = regexp.MustCompile(`(?i)mailto:([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)

	// mailtoHrefRegex captures the address at the start of an anchor href.
	// Header parameters ("?subject=...") end the match naturally because '?'
	// is not a valid address character.
	mailtoHrefRegex = regexp.MustCompile(`(?i)^mailto:([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)
)

// EmailsFromText returns the email addresses found in a plain-text view of a
// page, in first-seen order with exact duplicates removed.
func EmailsFromText(text string) []string {
	return dedupOrdered(emailTextRegex.FindAllString(text, -1))
}

// EmailsFromMarkup returns the addresses referenced by mailto links in raw
// markup. Two passes run: a regex pass over the whole content, and, when the
// content looks like markup, a parsed pass over anchor hrefs that catches
// links the raw pattern misses. Results are in first-seen order with exact
// duplicates removed.
func EmailsFromMarkup(markup string) []string {
	emails := make([]string, 0)

	for _, m := range mailtoRegex.FindAllStringSubmatch(markup, -1) {
		if len(m[1]) > maxEmailLength {
			continue
		}
		emails = append(emails, m[1])
	}

	if strings.Contains(markup, "<") && strings.Contains(markup, ">") {
		emails = append(emails, mailtoAnchorEmails(markup)...)
	}

	return dedupOrdered(emails)
}

// mailtoAnchorEmails parses markup and collects addresses from mailto anchor
// hrefs. Parse failures yield nothing.
func mailtoAnchorEmails(markup string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	emails := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		m := mailtoHrefRegex.FindStringSubmatch(href)
		if m == nil || len(m[1]) > maxEmailLength {
			return
		}
		emails = append(emails, m[1])
	})
	return emails
}

// MergeEmails combines text-sourced and markup-sourced addresses for one
// page: text addresses first, then markup addresses, exact duplicates
// removed in first-seen order.
func MergeEmails(textEmails, markupEmails []string) []string {
	merged := make([]string, 0, len(textEmails)+len(markupEmails))
	merged = append(merged, textEmails...)
	merged = append(merged, markupEmails...)
	return dedupOrdered(merged)
}
