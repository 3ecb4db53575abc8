package model

import "time"

// HarvestSummary is a summarized, human-readable view of a harvest.
//
// Design decision: We create a separate summary rather than just printing
// parts of HarvestReport because:
// 1. It provides a consistent, curated view of the most important findings
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type HarvestSummary struct {
	// Target is the harvested URL as given by the user.
	Target string `json:"target"`

	// FinalURL is the resolved entry URL the crawl was seeded with.
	FinalURL string `json:"final_url,omitempty"`

	// DateScanned is when the harvest was performed.
	DateScanned time.Time `json:"date_scanned"`

	// === Kind Summary ===

	// EmailCount is the number of email findings.
	EmailCount int `json:"email_count"`

	// PhoneCount is the number of phone findings.
	PhoneCount int `json:"phone_count"`

	// SocialCount is the number of social link findings.
	SocialCount int `json:"social_count"`

	// MetadataCount is the number of page metadata findings.
	MetadataCount int `json:"metadata_count"`

	// === Findings ===

	// Findings contains all deduplicated findings in insertion order.
	Findings []Finding `json:"findings,omitempty"`

	// === Run Statistics ===

	// PagesCrawled is the number of pages processed during the run.
	PagesCrawled int `json:"pages_crawled"`

	// TimedOut indicates if the run was terminated by a deadline.
	TimedOut bool `json:"timed_out"`

	// Cancelled indicates if the run was interrupted by the user.
	Cancelled bool `json:"cancelled"`

	// Error contains any error message if the run failed.
	Error string `json:"error,omitempty"`
}

// NewHarvestSummary creates a HarvestSummary from a HarvestReport.
func NewHarvestSummary(report *HarvestReport) *HarvestSummary {
	summary := &HarvestSummary{
		Target:       report.Target,
		FinalURL:     report.FinalURL,
		DateScanned:  report.DateScanned,
		Findings:     report.Findings,
		PagesCrawled: report.PagesCrawled,
		TimedOut:     report.TimedOut,
		Cancelled:    report.Cancelled,
		Error:        report.ErrorMessage,
	}

	summary.countByKind()

	return summary
}

// countByKind tallies findings per kind.
func (s *HarvestSummary) countByKind() {
	for _, f := range s.Findings {
		switch f.Kind {
		case KindEmail:
			s.EmailCount++
		case KindPhone:
			s.PhoneCount++
		case KindSocial:
			s.SocialCount++
		case KindMetadata:
			s.MetadataCount++
		}
	}
}

// TotalFindings returns the total number of findings.
func (s *HarvestSummary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *HarvestSummary) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsByKind returns findings filtered by kind.
func (s *HarvestSummary) GetFindingsByKind(kind Kind) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Kind == kind {
			result = append(result, f)
		}
	}
	return result
}

// CountForKind returns the tallied count for the given kind.
func (s *HarvestSummary) CountForKind(kind Kind) int {
	switch kind {
	case KindEmail:
		return s.EmailCount
	case KindPhone:
		return s.PhoneCount
	case KindSocial:
		return s.SocialCount
	case KindMetadata:
		return s.MetadataCount
	default:
		return 0
	}
}
