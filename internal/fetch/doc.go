// Package fetch provides the HTTP client used to retrieve pages.
//
// The package wraps net/http with the behaviors a polite crawl needs:
// optional HTTP or SOCKS5 proxying, a TLS verification toggle for sites
// with broken certificates, User-Agent rotation, capped response bodies,
// and redirect resolution for the crawl entry URL.
//
// The package is designed to be used with dependency injection - create a
// Client and pass it to components that need page fetching rather than
// using global state. The Client must be released with Close() when the
// crawl finishes.
package fetch
