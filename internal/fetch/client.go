package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/contactscan/internal/model"
)

// maxRedirects limits redirect chains to prevent loops while allowing
// normal redirects.
const maxRedirects = 10

// Client fetches web pages over HTTP.
// It wraps an http.Client configured for crawling: cookie jar for session
// continuity across pages, a redirect cap, an optional proxy, and
// User-Agent rotation.
//
// Design decision: We hold a single http.Client for the whole crawl rather
// than creating one per request because:
//  1. Connection pooling keeps repeated fetches against one host cheap
//  2. The cookie jar must be shared so session cookies survive across pages
//  3. Proxy and TLS configuration should be consistent for the whole run
type Client struct {
	// httpClient is the configured HTTP client used for all requests.
	httpClient *http.Client

	// proxyURL routes requests through an HTTP or SOCKS5 proxy when set.
	proxyURL string

	// insecureSkipVerify disables TLS certificate verification.
	insecureSkipVerify bool

	// timeout is the per-request timeout.
	timeout time.Duration

	// userAgent is a fixed User-Agent header. When empty, requests rotate
	// through userAgentPool.
	userAgent string

	// maxBodySize limits the response body size to prevent memory exhaustion.
	maxBodySize int64

	// cookie is a raw cookie string injected into every request.
	cookie string

	// headers contains extra headers injected into every request.
	headers map[string]string

	// uaCounter advances the User-Agent rotation.
	uaCounter atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithProxy routes all requests through the given proxy URL.
// Supported schemes are http, https, socks5, and socks5h.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Useful for sites with self-signed or expired certificates.
func WithInsecureSkipVerify(insecure bool) Option {
	return func(c *Client) {
		c.insecureSkipVerify = insecure
	}
}

// WithUserAgent sets a fixed User-Agent header, disabling rotation.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithSiteConfig injects a raw cookie string and extra headers into every
// request. Useful for sites that gate content behind a consent cookie or
// expect custom headers.
func WithSiteConfig(cookie string, headers map[string]string) Option {
	return func(c *Client) {
		c.cookie = cookie
		c.headers = headers
	}
}

// NewClient creates a new fetch client.
//
// The zero configuration uses a 30 second timeout, no proxy, TLS
// verification on, rotating User-Agents, and bodies capped at
// model.MaxPageSize.
//
// Design decision: We do not touch the network in the constructor because:
//  1. It separates object creation from network operations
//  2. A misconfigured proxy URL fails fast with a typed error
//  3. It allows for better testing with httptest servers
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		timeout:     30 * time.Second,
		maxBodySize: model.MaxPageSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.insecureSkipVerify, //nolint:gosec // opt-in via --insecure for broken certs
		},
		// Modest pool sizes: a crawl talks to one host at a time.
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if c.proxyURL != "" {
		if err := configureProxy(transport, c.proxyURL); err != nil {
			return nil, err
		}
	}

	// Cookie jar for session continuity: a consent or session cookie set on
	// the first page must survive to the following pages.
	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	c.httpClient = &http.Client{
		Transport: c.wrapTransport(transport),
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return c, nil
}

// configureProxy wires the proxy URL into the transport.
// HTTP proxies use the transport's Proxy hook; SOCKS5 proxies replace the
// dialer via golang.org/x/net/proxy.
func configureProxy(transport *http.Transport, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProxyURL, rawURL)
	}

	switch parsed.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{
				User:     parsed.User.Username(),
				Password: password,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProxyScheme, parsed.Scheme)
	}

	return nil
}

// wrapTransport layers the header/cookie injector over the base transport
// when site configuration is present.
func (c *Client) wrapTransport(base http.RoundTripper) http.RoundTripper {
	if c.cookie == "" && len(c.headers) == 0 {
		return base
	}
	return &headerInjectingTransport{
		base:    base,
		cookie:  c.cookie,
		headers: c.headers,
	}
}

// Close releases connections held by the client.
// Call it when the crawl finishes, including on cancellation paths.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// EnsureScheme prepends "https://" when the URL carries no scheme,
// so bare hostnames like "example.com" are accepted as targets.
func EnsureScheme(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}

// Resolve follows redirects from the entry URL and returns the final
// destination. It tries a HEAD request first and falls back to GET for
// servers that reject HEAD. When neither request can reach any URL, it
// returns ErrResolveEntryURL; this is the only fatal condition in a run.
func (c *Client) Resolve(ctx context.Context, rawURL string) (string, error) {
	finalURL, err := c.resolveWith(ctx, http.MethodHead, rawURL)
	if err == nil {
		return finalURL, nil
	}

	finalURL, err = c.resolveWith(ctx, http.MethodGet, rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrResolveEntryURL, rawURL, err)
	}
	return finalURL, nil
}

// resolveWith issues a single redirect-following request and reports the
// URL the response actually came from.
func (c *Client) resolveWith(ctx context.Context, method, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// resp.Request is the last request in the redirect chain.
	return resp.Request.URL.String(), nil
}

// Probe issues a HEAD request and reports the response Content-Type.
// Callers use it to skip non-HTML resources without downloading them.
// Probe errors are advisory: the page processor ignores them and proceeds
// with the GET.
func (c *Client) Probe(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return resp.Header.Get("Content-Type"), nil
}

// Get fetches the page at the given URL.
// The body is capped at the configured maximum size; oversized bodies are
// truncated, not treated as errors. The returned page carries the response
// status code so the caller decides what to process.
func (c *Client) Get(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	bodyReader := io.LimitReader(resp.Body, c.maxBodySize)
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}
	page.ComputeHash()

	return page, nil
}

// setRequestHeaders applies the standard request headers.
// The Accept headers mimic a browser so content negotiation returns the
// same HTML a visitor would see.
func (c *Client) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// custom headers and cookies into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	// Inject cookie if configured
	if t.cookie != "" {
		// Append to existing Cookie header or set new one
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	// Inject custom headers
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
