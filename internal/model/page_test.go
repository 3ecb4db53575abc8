package model

import (
	"strings"
	"testing"
)

// TestPageComputeHash tests the ComputeHash method.
func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 hash of body", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			Body: "Hello, World!",
		}
		page.ComputeHash()

		// Expected SHA256 of "Hello, World!"
		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if page.Hash != expected {
			t.Errorf("got %q, expected %q", page.Hash, expected)
		}
	})

	t.Run("empty body produces empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			Body: "",
		}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("expected empty hash, got %q", page.Hash)
		}
	})
}

// TestPageGetHeader tests the GetHeader method.
func TestPageGetHeader(t *testing.T) {
	t.Parallel()

	t.Run("returns first header value", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			Headers: map[string][]string{
				"Content-Type": {"text/html", "text/plain"},
			},
		}

		if got := page.GetHeader("Content-Type"); got != "text/html" {
			t.Errorf("expected text/html, got %q", got)
		}
	})

	t.Run("returns empty string for missing header", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			Headers: map[string][]string{},
		}

		if got := page.GetHeader("X-Missing"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("returns empty string for nil headers", func(t *testing.T) {
		t.Parallel()

		page := &Page{}

		if got := page.GetHeader("Content-Type"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestPageIsHTML tests the IsHTML method.
func TestPageIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{"plain html", "text/html", true},
		{"html with charset", "text/html; charset=utf-8", true},
		{"uppercase html", "TEXT/HTML", true},
		{"xhtml", "application/xhtml+xml", true},
		{"json", "application/json", false},
		{"pdf", "application/pdf", false},
		{"plain text", "text/plain", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := &Page{ContentType: tt.contentType}
			if got := page.IsHTML(); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

// TestPageTruncateBody tests the TruncateBody method.
func TestPageTruncateBody(t *testing.T) {
	t.Parallel()

	t.Run("short body is unchanged", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: "short"}
		page.TruncateBody()

		if page.Body != "short" {
			t.Errorf("expected body unchanged, got %d bytes", len(page.Body))
		}
	})

	t.Run("oversized body is capped", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: strings.Repeat("a", MaxPageSize+100)}
		page.TruncateBody()

		if len(page.Body) != MaxPageSize {
			t.Errorf("expected %d bytes, got %d", MaxPageSize, len(page.Body))
		}
	})
}
