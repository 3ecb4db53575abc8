package crawler

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL into the key used by the visited set.
// It strips the fragment and query string, collapses trailing slashes, and
// lowercases the result, so URLs differing only in those respects map to
// the same key. Malformed input falls back to the lowercased raw string;
// normalization never fails.
//
// Design decision: We rebuild the URL from scheme, host, and path rather
// than clearing fields on the parsed value because:
//  1. The key must not carry userinfo, port quirks hide there less often
//     than in opaque reassembly
//  2. Dropping the query is intentional - pagination and tracking parameters
//     would otherwise multiply visits to the same document
//  3. The fallback path stays trivial
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(rawURL)
	}

	normalized := parsed.Scheme + "://" + parsed.Host + parsed.Path

	// Collapse trailing slashes: "https://example.com/about/" and
	// "https://example.com/about" are the same document, as are
	// "https://example.com/" and "https://example.com".
	root := parsed.Scheme + "://" + parsed.Host
	if strings.HasSuffix(normalized, "/") && len(normalized) > len(root) {
		normalized = strings.TrimRight(normalized, "/")
	}

	return strings.ToLower(normalized)
}
