package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// linkDenylist contains fragments that disqualify a URL from the frontier.
// Matching is a substring check against the lowercased absolute URL, so
// ".js" also catches ".json" - the cost of a few skipped pages is preferred
// over crawling script assets.
var linkDenylist = []string{
	"#", "javascript:", "mailto:", "tel:",
	".pdf", ".doc", ".docx",
	".jpg", ".jpeg", ".png", ".gif",
	".css", ".js", ".xml", ".rss",
	"logout", "admin", "login", "register", "signup", "signin",
}

// InternalLinks resolves each raw anchor href against the page URL and
// returns the crawlable same-host links in document order, deduplicated by
// exact URL. Links whose normalized form is already in the visited set are
// dropped, as is anything carrying a denylist fragment.
func InternalLinks(anchors []string, pageURL string, visited map[string]bool) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	for _, href := range anchors {
		if href == "" {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		absolute := resolved.String()

		if !strings.EqualFold(resolved.Host, base.Host) {
			continue
		}
		if visited[Normalize(absolute)] {
			continue
		}
		if deniedLink(absolute) {
			continue
		}
		if seen[absolute] {
			continue
		}
		seen[absolute] = true
		links = append(links, absolute)
	}

	return links
}

// deniedLink reports whether the absolute URL carries a denylist fragment.
func deniedLink(absolute string) bool {
	lower := strings.ToLower(absolute)
	for _, fragment := range linkDenylist {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// allowedByPatterns checks a URL against per-site ignore/follow glob
// patterns.
//
// Logic:
//  1. If the URL path matches any ignore pattern, skip it (return false)
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise, crawl it (return true)
func allowedByPatterns(targetURL string, ignorePatterns, followPatterns []string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	// Get the path for pattern matching
	path := u.Path
	if path == "" {
		path = "/"
	}

	// Check ignore patterns first - if matched, skip
	for _, pattern := range ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	// If follow patterns are set, URL must match at least one
	if len(followPatterns) > 0 {
		for _, pattern := range followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		// No follow pattern matched
		return false
	}

	// No follow patterns set, allow all (that weren't ignored)
	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/private/*" matches "/private/pricing", "/private/team"
//   - "*.aspx" matches "/pages/contact.aspx"
//   - "/en/v?" matches "/en/v1", "/en/v2"
func matchPattern(pattern, path string) bool {
	// For patterns like "/private/*", match "/private/anything" at any depth
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Handle extension patterns like "*.aspx"
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	// Use filepath.Match for standard glob matching
	// Note: filepath.Match doesn't support ** for recursive matching,
	// but it handles * and ? well for single-segment patterns
	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Also try matching just the filename for patterns like "*.aspx"
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		filename := filepath.Base(path)
		matched, err := filepath.Match(pattern, filename)
		if err == nil && matched {
			return true
		}
	}

	return false
}
