package fetch

import "errors"

// Fetch client errors.
//
// Design decision: We define specific error types rather than wrapping all
// errors generically. This allows callers to distinguish configuration
// mistakes (a bad proxy URL) from runtime failures (an unreachable entry
// URL) and handle them appropriately.
var (
	// ErrInvalidProxyURL is returned when the proxy URL cannot be parsed.
	ErrInvalidProxyURL = errors.New("invalid proxy URL")

	// ErrUnsupportedProxyScheme is returned when the proxy URL scheme is not
	// one of http, https, socks5, or socks5h.
	ErrUnsupportedProxyScheme = errors.New("unsupported proxy scheme")

	// ErrResolveEntryURL is returned when neither a HEAD nor a GET request
	// can reach the crawl entry URL. This is the only fetch error that
	// aborts a run; every per-page failure is recovered locally.
	ErrResolveEntryURL = errors.New("could not resolve entry URL")
)
