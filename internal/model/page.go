package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page represents one fetched web page.
//
// Design decision: We keep the raw body as a string alongside the response
// metadata because:
// 1. The extractors run both regex passes over the raw markup and parsed
//    passes over a document view, so the body must survive the fetch
// 2. The hash allows deduplication and change detection across harvests
// 3. Status and content type drive the processor's skip decisions
type Page struct {
	// URL is the full URL the page was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	// Keys are header names (canonicalized), values are slices of header values.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type of the response.
	// Extracted from the Content-Type header for convenience.
	ContentType string `json:"content_type"`

	// Body is the response body, capped at MaxPageSize bytes.
	Body string `json:"-"` // Excluded from JSON to reduce report size

	// Hash is the SHA-256 hash of the body.
	// Used for deduplication and change detection.
	Hash string `json:"hash,omitempty"`
}

// MaxPageSize is the maximum size of page content to keep.
// Larger pages are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// ComputeHash calculates and sets the SHA-256 hash of the page body.
// This should be called after setting the Body field.
func (p *Page) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the page content type indicates HTML.
// Content types carrying a charset suffix ("text/html; charset=utf-8")
// are matched by prefix.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// TruncateBody ensures the body doesn't exceed MaxPageSize.
// Call this after setting Body to enforce the size limit.
func (p *Page) TruncateBody() {
	if len(p.Body) > MaxPageSize {
		p.Body = p.Body[:MaxPageSize]
	}
}
