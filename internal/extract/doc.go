// Package extract provides pattern extractors for contact signals.
//
// # Purpose
//
// This package turns page content into contact signals: email addresses,
// phone numbers, social media profile links, and page metadata. It is the
// pure core of the harvester; the crawler feeds it page views and stores
// whatever it returns.
//
// # Design Philosophy
//
// Every extractor is a pure function over strings or string collections.
// This design was chosen because:
//  1. Extraction logic is exercised heavily and must be trivially testable
//  2. No extractor performs I/O, so page failures stay in the crawler
//  3. Malformed input degrades to an empty result instead of an error,
//     because one broken page must never abort a crawl
//
// # Extractors
//
//   - EmailsFromText: addresses in the visible-text view of a page
//   - EmailsFromMarkup: addresses referenced by mailto links in raw markup
//   - Phones: validated, formatted phone numbers from visible text
//   - SocialLinks: anchor hrefs classified by social platform
//   - Metadata: the closed title/description/generator key set
//
// # Phone Validation
//
// Raw regex matches go through IsValidPhone before formatting. The validator
// rejects digit runs without separators and enforces a 10-15 digit range,
// which keeps order numbers, timestamps, and other numeric noise out of the
// results.
package extract
