// Package crawler provides the crawl engine that walks a website and
// collects contact signals.
//
// # Architecture
//
// The package is designed around the Engine type, which drives a run through
// the states Idle, Fetching, Traversing, and Done. Fetching resolves the
// entry URL's final destination after redirects; Traversing walks same-host
// pages breadth-first under a page budget, handing each page to the
// Processor and recording findings into a model.ResultStore.
//
// Design decision: We implement our own crawler rather than using a
// third-party library because:
//  1. We need tight control over request timing to stay polite to the target
//  2. The visited-set semantics (normalized URLs, claim-then-check) are
//     specific to this tool
//  3. Extraction runs against both a plain-text view and an anchor/meta view
//     of each page, which generic crawlers do not expose
//  4. Reduces external dependencies and potential security issues
//
// # Components
//
//   - Engine: the state machine that owns the frontier and the visited set
//   - Processor: fetches and parses one page and runs the extractors
//   - Normalize: canonicalizes URLs into visited-set keys
//   - InternalLinks: resolves and filters outbound links for the frontier
//
// # Concurrency
//
// One run is strictly sequential: there is exactly one logical worker, so
// the delay-then-fetch sequencing bounds the request rate against a single
// host and no shared state needs locking. Running independent targets in
// parallel is the pipeline package's concern, never the engine's.
//
// # Error handling
//
// Page failures are local: a timeout, a non-200 response, or unparseable
// markup yields an empty page result and the crawl moves on. The only fatal
// condition is failing to resolve the entry URL at the start of a run.
// Cancellation stops the run at the next suspension point and leaves the
// result store readable with everything found so far.
package crawler
