package model

import "time"

// HarvestReport is the main harvest result structure.
// It contains everything collected during one crawl of a target website.
//
// Design decision: We use a single struct rather than many small ones to
// simplify serialization and database storage. The HarvestSummary sub-struct
// carries the curated view used by human-readable output.
type HarvestReport struct {
	// === Basic Information ===

	// Target is the URL the harvest was asked to crawl, as given by the user.
	Target string `json:"target"`

	// FinalURL is the entry URL's final destination after redirects.
	// This is the URL the crawl was actually seeded with.
	FinalURL string `json:"final_url,omitempty"`

	// DateScanned is the timestamp when the harvest was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Recursive records whether the run followed internal links or
	// processed only the resolved entry page.
	Recursive bool `json:"recursive"`

	// === Crawl Data ===

	// Findings contains all deduplicated contact signals in insertion order.
	Findings []Finding `json:"findings,omitempty"`

	// VisitedURLs lists the normalized URLs of processed pages in visit order.
	VisitedURLs []string `json:"visited_urls,omitempty"`

	// Pages maps fetched URLs to their HTTP status codes.
	// Used to see which pages answered and how.
	Pages map[string]int `json:"pages,omitempty"`

	// HarvestedPages holds body-free response records for every fetched page.
	HarvestedPages []*Page `json:"-"` // Excluded from JSON; Pages carries the serializable view

	// PagesCrawled is the number of pages processed during the run.
	PagesCrawled int `json:"pages_crawled"`

	// === Run State ===

	// TimedOut is true if the run was terminated by a deadline.
	TimedOut bool `json:"timed_out"`

	// Cancelled is true if the run was interrupted by the user.
	// A cancelled run still carries every finding recorded before the stop.
	Cancelled bool `json:"cancelled"`

	// PerformedSteps lists the pipeline steps that actually ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that occurred during the run.
	// Only set if the run failed or partially failed.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional

	// === Sub-Reports ===

	// Summary contains the summarized findings for human-readable output.
	Summary *HarvestSummary `json:"summary,omitempty"`
}

// NewHarvestReport creates a new report for the given target URL.
func NewHarvestReport(target string) *HarvestReport {
	return &HarvestReport{
		Target:      target,
		DateScanned: time.Now(),
		Pages:       make(map[string]int),
	}
}

// AddPage records the status code of a fetched page.
func (r *HarvestReport) AddPage(url string, statusCode int) {
	if r.Pages == nil {
		r.Pages = make(map[string]int)
	}
	r.Pages[url] = statusCode
}

// SetError records a run error on both the typed and serializable fields.
func (r *HarvestReport) SetError(err error) {
	if err == nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// CountByKind returns the number of findings of the given kind.
func (r *HarvestReport) CountByKind(kind Kind) int {
	count := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			count++
		}
	}
	return count
}
