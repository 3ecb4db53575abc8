// Package model defines the core data structures used throughout contactscan.
//
// This package contains the following main types:
//   - Finding: A single extracted contact signal (email, phone, social, metadata)
//   - ResultStore: The append-only, deduplicated collection of findings
//   - Page: Represents a fetched web page
//   - HarvestReport: The main harvest result structure
//   - HarvestSummary: A summarized, human-readable report
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, extract, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
