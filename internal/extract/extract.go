package extract

// dedupOrdered removes exact duplicates from values, keeping the first
// occurrence of each and preserving order. Deduplication here is
// case-sensitive; kind-aware collapsing (lowercased emails, digit-equal
// phones) happens in the result store.
func dedupOrdered(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
