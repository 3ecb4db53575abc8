package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/contactscan/internal/fetch"
	"github.com/nao1215/contactscan/internal/model"
)

// discardLogger returns a logger that drops all records.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSite serves the given path-to-markup pages as text/html.
func newTestSite(pages map[string]string) *httptest.Server {
	mux := http.NewServeMux()
	for path, body := range pages {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		})
	}
	return httptest.NewServer(mux)
}

// newTestClient creates a fetch client suitable for hitting httptest servers.
func newTestClient(t *testing.T) *fetch.Client {
	t.Helper()

	client, err := fetch.NewClient(fetch.WithTimeout(5 * time.Second))
	if err != nil {
		t.Fatalf("expected no error creating client, got %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme, host, and path",
			in:   "HTTPS://EXAMPLE.COM/About",
			want: "https://example.com/about",
		},
		{
			name: "drops the query string",
			in:   "https://example.com/about?page=2&ref=nav",
			want: "https://example.com/about",
		},
		{
			name: "drops the fragment",
			in:   "https://example.com/about#team",
			want: "https://example.com/about",
		},
		{
			name: "strips the trailing slash",
			in:   "https://example.com/about/",
			want: "https://example.com/about",
		},
		{
			name: "collapses repeated trailing slashes",
			in:   "https://example.com/docs///",
			want: "https://example.com/docs",
		},
		{
			name: "strips the root slash",
			in:   "https://example.com/",
			want: "https://example.com",
		},
		{
			name: "leaves a bare root untouched",
			in:   "https://example.com",
			want: "https://example.com",
		},
		{
			name: "keeps the port",
			in:   "https://example.com:8443/contact",
			want: "https://example.com:8443/contact",
		},
		{
			name: "falls back to lowercasing unparseable input",
			in:   "HTTPS://EXAMPLE.COM/%ZZ",
			want: "https://example.com/%zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInternalLinks(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative links against the page URL", func(t *testing.T) {
		t.Parallel()

		anchors := []string{"/contact", "team", "https://example.com/careers"}
		got := InternalLinks(anchors, "https://example.com/about", nil)

		want := []string{
			"https://example.com/contact",
			"https://example.com/team",
			"https://example.com/careers",
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(got), got)
		}
		for i, link := range want {
			if got[i] != link {
				t.Errorf("expected link %d to be %q, got %q", i, link, got[i])
			}
		}
	})

	t.Run("compares hosts case-insensitively", func(t *testing.T) {
		t.Parallel()

		got := InternalLinks([]string{"https://EXAMPLE.COM/Blog"}, "https://example.com", nil)
		if len(got) != 1 {
			t.Fatalf("expected 1 link, got %d: %v", len(got), got)
		}
		if got[0] != "https://EXAMPLE.COM/Blog" {
			t.Errorf("expected https://EXAMPLE.COM/Blog, got %q", got[0])
		}
	})

	t.Run("drops links to other hosts", func(t *testing.T) {
		t.Parallel()

		anchors := []string{
			"https://other.example.org/partners",
			"https://sub.example.com/page",
		}
		got := InternalLinks(anchors, "https://example.com", nil)
		if len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})

	t.Run("drops denylisted and non-navigable destinations", func(t *testing.T) {
		t.Parallel()

		anchors := []string{
			"#section",
			"javascript:void(0)",
			"mailto:info@example.com",
			"tel:+15551234567",
			"/brochure.pdf",
			"/assets/app.js",
			"/data.json",
			"/styles/site.css",
			"/feed.xml",
			"/admin/settings",
			"/logout",
			"/login",
			"",
		}
		got := InternalLinks(anchors, "https://example.com", nil)
		if len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})

	t.Run("drops pages already visited", func(t *testing.T) {
		t.Parallel()

		visited := map[string]bool{"https://example.com/team": true}
		got := InternalLinks([]string{"/team", "/Team/", "/contact"}, "https://example.com", visited)

		// Both /team spellings normalize to the visited key.
		want := []string{"https://example.com/contact"}
		if len(got) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(got), got)
		}
		if got[0] != want[0] {
			t.Errorf("expected %q, got %q", want[0], got[0])
		}
	})

	t.Run("deduplicates repeated destinations", func(t *testing.T) {
		t.Parallel()

		got := InternalLinks([]string{"/contact", "/contact", "/contact"}, "https://example.com", nil)
		if len(got) != 1 {
			t.Errorf("expected 1 link, got %d: %v", len(got), got)
		}
	})

	t.Run("keeps frontier duplicates that differ only in spelling", func(t *testing.T) {
		t.Parallel()

		// Exact-string dedup: differently spelled URLs of the same page both
		// survive here and collapse later at the visited check.
		got := InternalLinks([]string{"/about", "/about/"}, "https://example.com", nil)
		if len(got) != 2 {
			t.Errorf("expected 2 links, got %d: %v", len(got), got)
		}
	})

	t.Run("returns nothing for an unparseable page URL", func(t *testing.T) {
		t.Parallel()

		got := InternalLinks([]string{"/contact"}, "https://example.com/%ZZ", nil)
		if len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})
}

func TestAllowedByPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		ignore  []string
		follow  []string
		allowed bool
	}{
		{
			name:    "no patterns allows everything",
			url:     "https://example.com/anything",
			allowed: true,
		},
		{
			name:    "ignore pattern blocks a subtree",
			url:     "https://example.com/private/pricing",
			ignore:  []string{"/private/*"},
			allowed: false,
		},
		{
			name:    "ignore pattern leaves other paths alone",
			url:     "https://example.com/public/pricing",
			ignore:  []string{"/private/*"},
			allowed: true,
		},
		{
			name:    "ignore extension pattern blocks matching files",
			url:     "https://example.com/pages/contact.aspx",
			ignore:  []string{"*.aspx"},
			allowed: false,
		},
		{
			name:    "follow pattern restricts to matching paths",
			url:     "https://example.com/blog/post-1",
			follow:  []string{"/blog/*"},
			allowed: true,
		},
		{
			name:    "follow pattern blocks everything else",
			url:     "https://example.com/team",
			follow:  []string{"/blog/*"},
			allowed: false,
		},
		{
			name:    "ignore wins over follow",
			url:     "https://example.com/blog/draft",
			ignore:  []string{"/blog/draft"},
			follow:  []string{"/blog/*"},
			allowed: false,
		},
		{
			name:    "empty path is treated as root",
			url:     "https://example.com",
			follow:  []string{"/"},
			allowed: true,
		},
		{
			name:    "unparseable URL is blocked",
			url:     "https://example.com/%ZZ",
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := allowedByPatterns(tt.url, tt.ignore, tt.follow); got != tt.allowed {
				t.Errorf("expected %v, got %v", tt.allowed, got)
			}
		})
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "subtree wildcard matches nested paths", pattern: "/private/*", path: "/private/team/alice", want: true},
		{name: "subtree wildcard matches the bare prefix", pattern: "/private/*", path: "/private", want: true},
		{name: "subtree wildcard rejects other paths", pattern: "/private/*", path: "/public/team", want: false},
		{name: "extension pattern matches anywhere", pattern: "*.aspx", path: "/en/pages/contact.aspx", want: true},
		{name: "extension pattern rejects other extensions", pattern: "*.aspx", path: "/en/pages/contact.html", want: false},
		{name: "question mark matches one character", pattern: "/en/v?", path: "/en/v2", want: true},
		{name: "question mark rejects longer segments", pattern: "/en/v?", path: "/en/v10", want: false},
		{name: "exact pattern matches itself", pattern: "/pricing", path: "/pricing", want: true},
		{name: "filename pattern matches the last segment", pattern: "index*", path: "/docs/index-old", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	t.Run("joins text nodes including script and style content", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head>
<script>var contact = "hidden@example.com";</script>
<style>.cta { color: red; }</style>
</head><body>
<p>Reach us at sales@example.com</p>
<!-- commented@example.com -->
</body></html>`

		parsed, err := ParsePage(markup)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(parsed.Text, "sales@example.com") {
			t.Errorf("expected text to contain visible content, got %q", parsed.Text)
		}
		if !strings.Contains(parsed.Text, "hidden@example.com") {
			t.Errorf("expected text to contain script content, got %q", parsed.Text)
		}
		if strings.Contains(parsed.Text, "commented@example.com") {
			t.Errorf("expected text to exclude comment content, got %q", parsed.Text)
		}
	})

	t.Run("separates adjacent text nodes with spaces", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParsePage(`<html><body><p>alpha</p><p>beta</p></body></html>`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(parsed.Text, "alphabeta") {
			t.Errorf("expected text nodes to be separated, got %q", parsed.Text)
		}
	})

	t.Run("collects metadata tags when present", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head>
<title>ACME Corp</title>
<meta name="description" content="We make anvils">
<meta name="generator" content="Hugo 0.125">
</head><body></body></html>`

		parsed, err := ParsePage(markup)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := parsed.Tags[model.AttrTitle]; got != "ACME Corp" {
			t.Errorf("expected title ACME Corp, got %q", got)
		}
		if got := parsed.Tags[model.AttrDescription]; got != "We make anvils" {
			t.Errorf("expected description We make anvils, got %q", got)
		}
		if got := parsed.Tags[model.AttrGenerator]; got != "Hugo 0.125" {
			t.Errorf("expected generator Hugo 0.125, got %q", got)
		}
	})

	t.Run("omits keys for absent elements", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParsePage(`<html><head><title>Only Title</title></head><body></body></html>`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := parsed.Tags[model.AttrDescription]; ok {
			t.Error("expected no description key for a page without the meta tag")
		}
		if _, ok := parsed.Tags[model.AttrGenerator]; ok {
			t.Error("expected no generator key for a page without the meta tag")
		}
	})

	t.Run("keeps present-but-empty elements as empty values", func(t *testing.T) {
		t.Parallel()

		parsed, err := ParsePage(`<html><head><title></title><meta name="description"></head><body></body></html>`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		title, ok := parsed.Tags[model.AttrTitle]
		if !ok {
			t.Fatal("expected a title key for an empty title element")
		}
		if title != "" {
			t.Errorf("expected empty title, got %q", title)
		}
		desc, ok := parsed.Tags[model.AttrDescription]
		if !ok {
			t.Fatal("expected a description key for a content-less meta tag")
		}
		if desc != "" {
			t.Errorf("expected empty description, got %q", desc)
		}
	})

	t.Run("lists raw anchor hrefs in document order", func(t *testing.T) {
		t.Parallel()

		markup := `<html><body>
<a href="../relative">up</a>
<a href="HTTPS://EXAMPLE.COM/ABS">abs</a>
<a href="#frag">frag</a>
<a name="no-href">skip me</a>
<a href="mailto:info@example.com">mail</a>
</body></html>`

		parsed, err := ParsePage(markup)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{"../relative", "HTTPS://EXAMPLE.COM/ABS", "#frag", "mailto:info@example.com"}
		if len(parsed.Anchors) != len(want) {
			t.Fatalf("expected %d anchors, got %d: %v", len(want), len(parsed.Anchors), parsed.Anchors)
		}
		for i, href := range want {
			if parsed.Anchors[i] != href {
				t.Errorf("expected anchor %d to be %q, got %q", i, href, parsed.Anchors[i])
			}
		}
	})
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	t.Run("extracts all signal kinds from a page", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/": `<html><head>
<title>ACME</title>
<meta name="description" content="Anvils">
</head><body>
<p>Email sales@example.com or call 555-123-4567.</p>
<a href="https://github.com/acme">GitHub</a>
<a href="/contact">Contact</a>
</body></html>`,
			"/contact": `<html><body></body></html>`,
		})
		defer srv.Close()

		processor := NewProcessor(newTestClient(t), discardLogger())
		result := processor.Process(context.Background(), srv.URL+"/", map[string]bool{})

		if len(result.Emails) != 1 || result.Emails[0] != "sales@example.com" {
			t.Errorf("expected [sales@example.com], got %v", result.Emails)
		}
		if len(result.Phones) != 1 || result.Phones[0] != "+1-555-123-4567" {
			t.Errorf("expected [+1-555-123-4567], got %v", result.Phones)
		}
		if len(result.Socials) != 1 {
			t.Fatalf("expected 1 social link, got %v", result.Socials)
		}
		if result.Socials[0].Platform != model.SocialPlatformGitHub {
			t.Errorf("expected github platform, got %v", result.Socials[0].Platform)
		}
		if result.Socials[0].URL != "https://github.com/acme" {
			t.Errorf("expected https://github.com/acme, got %q", result.Socials[0].URL)
		}
		if got := result.Metadata[model.AttrTitle]; got != "ACME" {
			t.Errorf("expected title ACME, got %q", got)
		}
		if got := result.Metadata[model.AttrDescription]; got != "Anvils" {
			t.Errorf("expected description Anvils, got %q", got)
		}
		if len(result.InternalLinks) != 1 || result.InternalLinks[0] != srv.URL+"/contact" {
			t.Errorf("expected [%s/contact], got %v", srv.URL, result.InternalLinks)
		}
	})

	t.Run("excludes visited pages from outbound links", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/": `<html><body><a href="/contact">Contact</a></body></html>`,
		})
		defer srv.Close()

		visited := map[string]bool{Normalize(srv.URL + "/contact"): true}
		processor := NewProcessor(newTestClient(t), discardLogger())
		result := processor.Process(context.Background(), srv.URL+"/", visited)

		if len(result.InternalLinks) != 0 {
			t.Errorf("expected no links, got %v", result.InternalLinks)
		}
	})

	t.Run("skips resources that are not HTML", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("sales@example.com"))
		}))
		defer srv.Close()

		processor := NewProcessor(newTestClient(t), discardLogger())
		result := processor.Process(context.Background(), srv.URL, map[string]bool{})

		if len(result.Emails) != 0 {
			t.Errorf("expected no emails from a non-HTML resource, got %v", result.Emails)
		}
	})

	t.Run("skips pages that do not return 200", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<html><body>sales@example.com</body></html>`))
		}))
		defer srv.Close()

		processor := NewProcessor(newTestClient(t), discardLogger())
		result := processor.Process(context.Background(), srv.URL, map[string]bool{})

		if len(result.Emails) != 0 {
			t.Errorf("expected no emails from an error page, got %v", result.Emails)
		}
	})

	t.Run("returns an empty result when the fetch fails", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		url := srv.URL
		srv.Close()

		processor := NewProcessor(newTestClient(t), discardLogger())
		result := processor.Process(context.Background(), url, map[string]bool{})

		if len(result.Emails) != 0 || len(result.Phones) != 0 || len(result.Socials) != 0 {
			t.Errorf("expected an empty result, got %+v", result)
		}
		if len(result.Metadata) != 0 {
			t.Errorf("expected empty metadata, got %v", result.Metadata)
		}
		if len(result.InternalLinks) != 0 {
			t.Errorf("expected no links, got %v", result.InternalLinks)
		}
	})
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	t.Run("processes only the entry page without recursion", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":      `<html><body><p>root@example.com</p><a href="/other">other</a></body></html>`,
			"/other": `<html><body><p>other@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := engine.PagesCrawled(); got != 1 {
			t.Errorf("expected 1 page crawled, got %d", got)
		}
		if got := engine.FinalURL(); got != srv.URL {
			t.Errorf("expected final URL %q, got %q", srv.URL, got)
		}
		if !engine.Store().Contains(model.KindEmail, "root@example.com") {
			t.Error("expected the entry page email to be recorded")
		}
		if engine.Store().Contains(model.KindEmail, "other@example.com") {
			t.Error("expected the linked page to stay unvisited")
		}
	})

	t.Run("resolves redirects before crawling", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/home", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><p>home@example.com</p></body></html>`))
		})
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/home", http.StatusMovedPermanently)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		engine := NewEngine(newTestClient(t), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := engine.FinalURL(); got != srv.URL+"/home" {
			t.Errorf("expected final URL %q, got %q", srv.URL+"/home", got)
		}
		if !engine.Store().Contains(model.KindEmail, "home@example.com") {
			t.Error("expected the redirect target to be processed")
		}
	})

	t.Run("crawls breadth-first in link order", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":  `<html><body><p>root@example.com</p><a href="/a">a</a><a href="/b">b</a></body></html>`,
			"/a": `<html><body><p>a@example.com</p><a href="/c">c</a></body></html>`,
			"/b": `<html><body><p>b@example.com</p></body></html>`,
			"/c": `<html><body><p>c@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(4), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var emails []string
		for _, f := range engine.Findings() {
			if f.Kind == model.KindEmail {
				emails = append(emails, f.Value)
			}
		}
		// Siblings before descendants: /c is discovered on /a but queued
		// behind /b.
		want := []string{"root@example.com", "a@example.com", "b@example.com", "c@example.com"}
		if len(emails) != len(want) {
			t.Fatalf("expected %d emails, got %d: %v", len(want), len(emails), emails)
		}
		for i, email := range want {
			if emails[i] != email {
				t.Errorf("expected email %d to be %q, got %q", i, email, emails[i])
			}
		}
	})

	t.Run("stops at the page budget", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":  `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`,
			"/a": `<html><body><p>a@example.com</p></body></html>`,
			"/b": `<html><body><p>b@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(2), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := engine.PagesCrawled(); got != 2 {
			t.Errorf("expected 2 pages crawled, got %d", got)
		}
		if !engine.Store().Contains(model.KindEmail, "a@example.com") {
			t.Error("expected the second page to be processed")
		}
		if engine.Store().Contains(model.KindEmail, "b@example.com") {
			t.Error("expected the crawl to stop before the third page")
		}
	})

	t.Run("stays on the entry host", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":     `<html><body><a href="https://other.example.org/partners">ext</a><a href="/team">team</a></body></html>`,
			"/team": `<html><body><p>team@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		visited := engine.Visited()
		if len(visited) != 2 {
			t.Fatalf("expected 2 visited pages, got %d: %v", len(visited), visited)
		}
		for _, u := range visited {
			if strings.Contains(u, "other.example.org") {
				t.Errorf("expected the crawl to stay on the entry host, visited %q", u)
			}
		}
	})

	t.Run("visits each page once", func(t *testing.T) {
		t.Parallel()

		// / links to the same page under two spellings, and /about links
		// back to /. Every edge is a repeat after the first visit.
		srv := newTestSite(map[string]string{
			"/":      `<html><body><a href="/about">a</a><a href="/about/">b</a></body></html>`,
			"/about": `<html><body><a href="/">home</a></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := engine.PagesCrawled(); got != 2 {
			t.Errorf("expected 2 pages crawled, got %d", got)
		}
	})

	t.Run("continues past pages that fail", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><a href="/broken">b</a><a href="/ok">ok</a></body></html>`))
		})
		mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><p>ok@example.com</p></body></html>`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// The failing page is queued first; it claims its budget slot and
		// contributes nothing, but the crawl still reaches the page behind it.
		if got := engine.PagesCrawled(); got != 3 {
			t.Errorf("expected 3 pages crawled, got %d", got)
		}
		if !engine.Store().Contains(model.KindEmail, "ok@example.com") {
			t.Error("expected the page behind the failing one to be processed")
		}
		if got := engine.Store().Len(); got != 1 {
			t.Errorf("expected the failing page to contribute nothing, got %d findings", got)
		}
	})

	t.Run("logs body-free page records in fetch order", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":        `<html><body><a href="/contact">c</a></body></html>`,
			"/contact": `<html><body><p>hi@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pages := engine.Pages()
		if len(pages) != 2 {
			t.Fatalf("expected 2 page records, got %d", len(pages))
		}
		if pages[0].URL != srv.URL || pages[1].URL != srv.URL+"/contact" {
			t.Errorf("unexpected page order: %s, %s", pages[0].URL, pages[1].URL)
		}
		for _, page := range pages {
			if page.StatusCode != http.StatusOK {
				t.Errorf("expected status 200 for %s, got %d", page.URL, page.StatusCode)
			}
			if page.Body != "" {
				t.Errorf("expected released body for %s", page.URL)
			}
			if page.Hash == "" {
				t.Errorf("expected body hash for %s", page.URL)
			}
		}
	})

	t.Run("honors ignore patterns", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":                `<html><body><a href="/private/pricing">p</a><a href="/team">t</a></body></html>`,
			"/private/pricing": `<html><body><p>pricing@example.com</p></body></html>`,
			"/team":            `<html><body><p>team@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(0),
			WithIgnorePatterns([]string{"/private/*"}), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !engine.Store().Contains(model.KindEmail, "team@example.com") {
			t.Error("expected unmatched pages to be crawled")
		}
		if engine.Store().Contains(model.KindEmail, "pricing@example.com") {
			t.Error("expected ignored pages to be skipped")
		}
	})

	t.Run("honors follow patterns", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":            `<html><body><a href="/blog/post-1">b</a><a href="/team">t</a></body></html>`,
			"/blog/post-1": `<html><body><p>blog@example.com</p></body></html>`,
			"/team":        `<html><body><p>team@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(0),
			WithFollowPatterns([]string{"/blog/*"}), WithLogger(discardLogger()))
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !engine.Store().Contains(model.KindEmail, "blog@example.com") {
			t.Error("expected matching pages to be crawled")
		}
		if engine.Store().Contains(model.KindEmail, "team@example.com") {
			t.Error("expected non-matching pages to be skipped")
		}
	})

	t.Run("returns partial results when cancelled", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":     `<html><body><p>first@example.com</p><a href="/next">next</a></body></html>`,
			"/next": `<html><body><p>second@example.com</p></body></html>`,
		})
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(10), WithDelay(10*time.Second), WithLogger(discardLogger()))
		if err := engine.Run(ctx, srv.URL); err != nil {
			t.Fatalf("expected nil error on a cancelled run, got %v", err)
		}

		if !engine.Store().Contains(model.KindEmail, "first@example.com") {
			t.Error("expected findings from before the cancellation to survive")
		}
		if engine.Store().Contains(model.KindEmail, "second@example.com") {
			t.Error("expected no findings from after the cancellation")
		}
		if got := engine.State(); got != StateDone {
			t.Errorf("expected state done, got %v", got)
		}
	})

	t.Run("returns nil when cancelled before resolution", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{"/": `<html></html>`})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		engine := NewEngine(newTestClient(t), WithDelay(0), WithLogger(discardLogger()))
		if err := engine.Run(ctx, srv.URL); err != nil {
			t.Errorf("expected nil error on a cancelled run, got %v", err)
		}
		if got := engine.PagesCrawled(); got != 0 {
			t.Errorf("expected 0 pages crawled, got %d", got)
		}
	})

	t.Run("fails when the entry URL cannot be resolved", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		url := srv.URL
		srv.Close()

		engine := NewEngine(newTestClient(t), WithDelay(0), WithLogger(discardLogger()))
		err := engine.Run(context.Background(), url)
		if !errors.Is(err, fetch.ErrResolveEntryURL) {
			t.Errorf("expected ErrResolveEntryURL, got %v", err)
		}
		if got := engine.State(); got != StateDone {
			t.Errorf("expected state done, got %v", got)
		}
		if got := engine.Store().Len(); got != 0 {
			t.Errorf("expected no findings, got %d", got)
		}
	})
}

func TestEngine_RecordsAllFindingKinds(t *testing.T) {
	t.Parallel()

	srv := newTestSite(map[string]string{
		"/": `<html><head>
<title>ACME</title>
<meta name="description" content="Anvils">
<meta name="generator" content="Hugo">
</head><body>
<p>Email sales@example.com or call 555-123-4567.</p>
<a href="https://github.com/acme">GitHub</a>
</body></html>`,
	})
	defer srv.Close()

	engine := NewEngine(newTestClient(t), WithDelay(0), WithLogger(discardLogger()))
	if err := engine.Run(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	store := engine.Store()
	if got := store.CountByKind(model.KindEmail); got != 1 {
		t.Errorf("expected 1 email finding, got %d", got)
	}
	if got := store.CountByKind(model.KindPhone); got != 1 {
		t.Errorf("expected 1 phone finding, got %d", got)
	}
	if got := store.CountByKind(model.KindSocial); got != 1 {
		t.Errorf("expected 1 social finding, got %d", got)
	}
	if got := store.CountByKind(model.KindMetadata); got != 1 {
		t.Errorf("expected 1 metadata finding, got %d", got)
	}

	for _, f := range store.Findings() {
		if f.SourceURL != srv.URL {
			t.Errorf("expected source URL %q, got %q", srv.URL, f.SourceURL)
		}
		switch f.Kind {
		case model.KindSocial:
			if got := f.Attributes[model.AttrPlatform]; got != "github" {
				t.Errorf("expected platform attribute github, got %q", got)
			}
		case model.KindMetadata:
			want := "title=ACME; description=Anvils; generator=Hugo"
			if f.Value != want {
				t.Errorf("expected metadata value %q, got %q", want, f.Value)
			}
			if len(f.Attributes) != 3 {
				t.Errorf("expected 3 metadata attributes, got %v", f.Attributes)
			}
		}
	}

	// Email identity is case-insensitive at the store boundary.
	if !store.Contains(model.KindEmail, "SALES@example.com") {
		t.Error("expected the email to be found under a case-folded lookup")
	}
}

func TestEngine_Delay(t *testing.T) {
	t.Parallel()

	t.Run("pauses between pages", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/":  `<html><body><a href="/a">a</a></body></html>`,
			"/a": `<html><body><a href="/b">b</a></body></html>`,
			"/b": `<html><body></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t),
			WithRecursive(true), WithMaxPages(3), WithDelay(100*time.Millisecond), WithLogger(discardLogger()))

		start := time.Now()
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		elapsed := time.Since(start)

		// Two pauses: before the second and third pages.
		if elapsed < 200*time.Millisecond {
			t.Errorf("expected at least 200ms of politeness delay, finished in %v", elapsed)
		}
	})

	t.Run("does not pause before the first page", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{
			"/": `<html><body><p>root@example.com</p></body></html>`,
		})
		defer srv.Close()

		engine := NewEngine(newTestClient(t), WithDelay(2*time.Second), WithLogger(discardLogger()))

		start := time.Now()
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		elapsed := time.Since(start)

		if elapsed >= time.Second {
			t.Errorf("expected a single-page run to skip the delay, took %v", elapsed)
		}
	})
}

func TestEngine_States(t *testing.T) {
	t.Parallel()

	t.Run("starts idle and finishes done", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(map[string]string{"/": `<html></html>`})
		defer srv.Close()

		engine := NewEngine(newTestClient(t), WithDelay(0), WithLogger(discardLogger()))
		if got := engine.State(); got != StateIdle {
			t.Errorf("expected idle before the run, got %v", got)
		}
		if err := engine.Run(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := engine.State(); got != StateDone {
			t.Errorf("expected done after the run, got %v", got)
		}
	})
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state State
		want  string
	}{
		{name: "idle", state: StateIdle, want: "idle"},
		{name: "fetching", state: StateFetching, want: "fetching"},
		{name: "traversing", state: StateTraversing, want: "traversing"},
		{name: "done", state: StateDone, want: "done"},
		{name: "unknown", state: State(99), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.state.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
