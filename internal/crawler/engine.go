package crawler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/extract"
	"github.com/nao1215/contactscan/internal/fetch"
	"github.com/nao1215/contactscan/internal/model"
)

// State identifies where the engine is in a run.
type State int

// Engine run states.
const (
	// StateIdle means the run has not started.
	StateIdle State = iota
	// StateFetching means the engine is resolving the entry URL.
	StateFetching
	// StateTraversing means the engine is walking the frontier.
	StateTraversing
	// StateDone means the run has finished or was cancelled.
	StateDone
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateTraversing:
		return "traversing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Engine drives one crawl run.
// It owns the frontier and the visited set and records findings into its
// result store; both stay valid and readable after the run, including runs
// cut short by cancellation.
//
// An Engine is single-use: construct one per run.
type Engine struct {
	// === Collaborators ===

	// client performs all HTTP traffic for this run.
	client *fetch.Client

	// processor extracts contact signals from individual pages.
	processor *Processor

	// store collects deduplicated findings in insertion order.
	store *model.ResultStore

	// logger receives progress and diagnostics.
	logger *slog.Logger

	// === Configuration ===

	// maxPages caps the number of pages processed in one run.
	maxPages int

	// delay is the politeness pause before every fetch except the first.
	delay time.Duration

	// recursive selects frontier traversal over single-page processing.
	recursive bool

	// ignorePatterns lists URL path globs excluded from the frontier.
	ignorePatterns []string

	// followPatterns, when set, restricts the frontier to matching paths.
	followPatterns []string

	// === Run state ===

	// state tracks the engine through Idle, Fetching, Traversing, Done.
	state State

	// visited holds the normalized URL of every page this run has claimed.
	visited map[string]bool

	// pages logs one body-free response record per fetched page, in
	// fetch order.
	pages []*model.Page

	// finalURL is the entry URL's destination after redirects.
	finalURL string

	// pagesCrawled counts pages claimed against the page budget.
	pagesCrawled int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxPages caps the number of pages processed in one run.
func WithMaxPages(maxPages int) EngineOption {
	return func(e *Engine) {
		e.maxPages = maxPages
	}
}

// WithDelay sets the politeness delay between consecutive fetches.
func WithDelay(delay time.Duration) EngineOption {
	return func(e *Engine) {
		e.delay = delay
	}
}

// WithRecursive enables frontier traversal. Without it a run processes
// exactly the resolved entry URL.
func WithRecursive(recursive bool) EngineOption {
	return func(e *Engine) {
		e.recursive = recursive
	}
}

// WithIgnorePatterns sets URL path globs to exclude from the frontier.
func WithIgnorePatterns(patterns []string) EngineOption {
	return func(e *Engine) {
		e.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts the frontier to URL paths matching at least
// one of the given globs. Empty means all paths are allowed.
func WithFollowPatterns(patterns []string) EngineOption {
	return func(e *Engine) {
		e.followPatterns = patterns
	}
}

// WithLogger sets the logger for progress and diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a crawl engine using the given fetch client.
//
// Design decision: The engine requires an external fetch.Client rather than
// creating one because:
//  1. Proxy, TLS, and site-specific header configuration belong to the
//     fetch package
//  2. The pipeline owns the client lifecycle and releases it on every exit
//     path
//  3. Tests can point the engine at httptest servers
func NewEngine(client *fetch.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		client:   client,
		store:    model.NewResultStore(),
		logger:   slog.Default(),
		maxPages: config.DefaultMaxPages,
		delay:    config.DefaultCrawlDelay,
		state:    StateIdle,
		visited:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.processor = NewProcessor(e.client, e.logger)

	return e
}

// Run crawls from the target URL.
// A bare hostname is accepted; "https://" is assumed when the scheme is
// missing. Run returns an error only when the entry URL cannot be resolved;
// every other failure is local to its page. A cancelled run returns nil and
// leaves the partial results readable.
func (e *Engine) Run(ctx context.Context, target string) error {
	e.state = StateFetching
	defer func() { e.state = StateDone }()

	entry := fetch.EnsureScheme(target)
	finalURL, err := e.client.Resolve(ctx, entry)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	e.finalURL = finalURL
	e.logger.Debug("resolved entry URL", "target", target, "final_url", finalURL)

	e.state = StateTraversing
	if e.recursive {
		e.traverse(ctx)
	} else {
		e.processPage(ctx, e.finalURL)
	}

	return nil
}

// traverse walks the frontier breadth-first until it drains, the page
// budget is spent, or the run is cancelled.
//
// The frontier may hold duplicates; the visited check happens at dequeue.
// FIFO order makes traversal deterministic for a given site.
func (e *Engine) traverse(ctx context.Context) {
	frontier := []string{e.finalURL}

	for len(frontier) > 0 && e.pagesCrawled < e.maxPages {
		select {
		case <-ctx.Done():
			return
		default:
		}

		current := frontier[0]
		frontier = frontier[1:]

		normalized := Normalize(current)
		if e.visited[normalized] {
			continue
		}

		links, ok := e.processPage(ctx, current)
		if !ok {
			return
		}

		// Grow the frontier only while the budget is unmet.
		if e.pagesCrawled < e.maxPages {
			for _, link := range links {
				if allowedByPatterns(link, e.ignorePatterns, e.followPatterns) {
					frontier = append(frontier, link)
				}
			}
		}
	}
}

// processPage claims one page, pauses for politeness, processes it, and
// records its findings. It reports false when the run was cancelled at the
// delay suspension point.
func (e *Engine) processPage(ctx context.Context, pageURL string) ([]string, bool) {
	e.visited[Normalize(pageURL)] = true
	e.pagesCrawled++

	// The delay precedes every fetch except the very first.
	if e.pagesCrawled > 1 && !e.pause(ctx) {
		return nil, false
	}

	e.logger.Debug("searching page", "url", pageURL, "page", e.pagesCrawled)

	result := e.processor.Process(ctx, pageURL, e.visited)
	if result.Page != nil {
		// Extraction is done with the body; keep the metadata only.
		result.Page.Body = ""
		e.pages = append(e.pages, result.Page)
	}
	e.record(pageURL, result)

	return result.InternalLinks, true
}

// pause waits out the politeness delay, honoring cancellation.
func (e *Engine) pause(ctx context.Context) bool {
	if e.delay <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(e.delay):
		return true
	}
}

// record folds one page's results into the store, attributed to the page
// URL. The store's dedup keys collapse repeats across pages.
func (e *Engine) record(sourceURL string, page *PageResult) {
	for _, email := range page.Emails {
		e.store.Add(model.KindEmail, email, sourceURL, nil)
	}
	for _, phone := range page.Phones {
		e.store.Add(model.KindPhone, phone, sourceURL, nil)
	}
	for _, social := range page.Socials {
		e.store.Add(model.KindSocial, social.URL, sourceURL, map[string]string{
			model.AttrPlatform: social.Platform.String(),
		})
	}
	if len(page.Metadata) > 0 {
		e.store.Add(model.KindMetadata, extract.SerializeMetadata(page.Metadata), sourceURL, page.Metadata)
	}
}

// State reports where the engine is in its run.
func (e *Engine) State() State {
	return e.state
}

// Store exposes the result store. Valid after Run returns, including
// cancelled runs.
func (e *Engine) Store() *model.ResultStore {
	return e.store
}

// Findings lists the deduplicated findings in insertion order.
func (e *Engine) Findings() []model.Finding {
	return e.store.Findings()
}

// FinalURL reports the entry URL's destination after redirects.
// Empty until Run resolves it.
func (e *Engine) FinalURL() string {
	return e.finalURL
}

// Pages lists body-free response records for every page fetched this run,
// in fetch order. Pages that never answered are absent.
func (e *Engine) Pages() []*model.Page {
	return e.pages
}

// Visited lists the normalized URLs of the pages claimed by this run,
// sorted for stable output.
func (e *Engine) Visited() []string {
	urls := make([]string, 0, len(e.visited))
	for u := range e.visited {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// PagesCrawled reports how many pages were claimed against the budget.
func (e *Engine) PagesCrawled() int {
	return e.pagesCrawled
}
