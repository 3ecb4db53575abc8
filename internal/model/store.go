package model

// ResultStore is the append-only, deduplicated collection of findings for a
// single harvest run. Insertion order is preserved.
//
// The store is not safe for concurrent use: a run mutates it from exactly one
// sequential crawl worker, and it is exposed read-only once the run finishes.
//
// Design decision: We track seen DedupKeys in a map alongside the slice
// rather than scanning existing findings on every insert because:
// 1. Inserts stay O(1) no matter how many findings accumulate
// 2. The dedup invariant lives in one place instead of every call site
// 3. The slice alone preserves the insertion order the result surface promises
type ResultStore struct {
	findings []Finding
	seen     map[string]struct{}
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		findings: make([]Finding, 0),
		seen:     make(map[string]struct{}),
	}
}

// Add records a finding unless another finding with the same DedupKey is
// already present. It returns true if the finding was inserted.
// The attrs map is stored as given; callers must not mutate it afterwards.
func (s *ResultStore) Add(kind Kind, value, sourceURL string, attrs map[string]string) bool {
	f := Finding{
		Kind:       kind,
		Value:      value,
		SourceURL:  sourceURL,
		Attributes: attrs,
	}

	key := f.DedupKey()
	if _, ok := s.seen[key]; ok {
		return false
	}

	s.seen[key] = struct{}{}
	s.findings = append(s.findings, f)
	return true
}

// Contains reports whether a finding with the same identity as (kind, value)
// has already been recorded.
func (s *ResultStore) Contains(kind Kind, value string) bool {
	_, ok := s.seen[Finding{Kind: kind, Value: value}.DedupKey()]
	return ok
}

// Findings returns the recorded findings in insertion order.
// The returned slice is a copy; mutating it does not affect the store.
func (s *ResultStore) Findings() []Finding {
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// Len returns the number of recorded findings.
func (s *ResultStore) Len() int {
	return len(s.findings)
}

// CountByKind returns the number of recorded findings of the given kind.
func (s *ResultStore) CountByKind(kind Kind) int {
	count := 0
	for _, f := range s.findings {
		if f.Kind == kind {
			count++
		}
	}
	return count
}
