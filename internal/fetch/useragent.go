package fetch

// userAgentPool contains common browser User-Agent strings.
// Requests rotate through the pool so a crawl does not present a single
// request fingerprint to the target site.
//
// Design decision: We rotate deterministically through a fixed pool rather
// than picking at random because:
//  1. Crawl behavior stays reproducible across runs
//  2. Tests can rely on the rotation order
//  3. A fixed pool avoids shipping a User-Agent database dependency
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
}

// nextUserAgent returns the User-Agent for the next request.
// A fixed User-Agent configured via WithUserAgent always wins; otherwise
// the client advances through the pool one entry per request.
func (c *Client) nextUserAgent() string {
	if c.userAgent != "" {
		return c.userAgent
	}
	n := c.uaCounter.Add(1) - 1
	return userAgentPool[n%uint64(len(userAgentPool))]
}
