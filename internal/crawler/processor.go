package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nao1215/contactscan/internal/extract"
	"github.com/nao1215/contactscan/internal/fetch"
	"github.com/nao1215/contactscan/internal/model"
)

// PageResult holds everything extracted from one page.
// A failed page yields the zero result: empty slices, empty metadata.
type PageResult struct {
	// Emails lists extracted email addresses in discovery order.
	Emails []string

	// Phones lists validated, formatted phone numbers in discovery order.
	Phones []string

	// Socials lists detected social profile links in anchor order.
	Socials []extract.SocialLink

	// Metadata maps the closed metadata key set to trimmed values.
	Metadata map[string]string

	// InternalLinks lists crawlable same-host URLs in document order.
	InternalLinks []string

	// Page is the response record of the fetch. Nil when the request failed
	// or the resource was skipped before download.
	Page *model.Page
}

// Processor fetches and parses one page and runs the extractors over it.
//
// Design decision: Every failure inside Process degrades to an empty
// PageResult instead of an error because:
//  1. A single page's failure must never abort the crawl
//  2. The engine's control flow stays a straight loop with no error
//     plumbing for conditions it would ignore anyway
//  3. Diagnostics belong to the logger, which verbose mode surfaces
type Processor struct {
	// client performs the HTTP requests.
	client *fetch.Client

	// logger receives per-page diagnostics at debug level.
	logger *slog.Logger
}

// NewProcessor creates a page processor using the given fetch client.
// A nil logger falls back to slog.Default().
func NewProcessor(client *fetch.Client, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		client: client,
		logger: logger,
	}
}

// Process fetches the page at pageURL and extracts contact signals from it.
// The visited set is consulted when filtering outbound links so the frontier
// never receives a page the run has already claimed.
//
// The content type is probed with a HEAD request first so non-HTML resources
// are skipped without downloading their bodies; probe errors are ignored and
// the GET proceeds. Only a 200 response is processed.
func (p *Processor) Process(ctx context.Context, pageURL string, visited map[string]bool) *PageResult {
	result := &PageResult{Metadata: make(map[string]string)}

	contentType, err := p.client.Probe(ctx, pageURL)
	if err == nil && !strings.Contains(strings.ToLower(contentType), "text/html") {
		p.logger.Debug("skipping non-HTML resource", "url", pageURL, "content_type", contentType)
		return result
	}

	page, err := p.client.Get(ctx, pageURL)
	if err != nil {
		p.logger.Debug("failed to fetch page", "url", pageURL, "error", err)
		return result
	}
	result.Page = page
	if page.StatusCode != http.StatusOK {
		p.logger.Debug("skipping page", "url", pageURL, "status", page.StatusCode)
		return result
	}

	parsed, err := ParsePage(page.Body)
	if err != nil {
		p.logger.Debug("failed to parse page", "url", pageURL, "error", err)
		return result
	}

	result.Emails = extract.MergeEmails(
		extract.EmailsFromText(parsed.Text),
		extract.EmailsFromMarkup(page.Body),
	)
	result.Phones = extract.Phones(parsed.Text)
	result.Socials = extract.SocialLinks(parsed.Anchors)
	result.Metadata = extract.Metadata(parsed.Tags)
	result.InternalLinks = InternalLinks(parsed.Anchors, pageURL, visited)

	if len(result.Emails) > 0 || len(result.Phones) > 0 || len(result.Socials) > 0 {
		p.logger.Debug("extracted contact signals",
			"url", pageURL,
			"emails", len(result.Emails),
			"phones", len(result.Phones),
			"social_links", len(result.Socials),
		)
	}

	return result
}
