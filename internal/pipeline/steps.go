package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/fetch"
	"github.com/nao1215/contactscan/internal/model"
)

// ResolveStep resolves the target into a fetchable entry URL.
// It probes the target, follows redirects, and records the final URL that
// seeds the harvest.
//
// Design decision: Resolution is a separate step because:
// 1. It's the foundation for everything else (an unreachable target has
//    nothing to harvest)
// 2. Its failure is the only fatal outcome, so isolating it keeps the
//    harvest step free of fatal error paths
// 3. The resolved URL feeds both single-page and recursive runs
type ResolveStep struct {
	// client performs the probe requests.
	client *fetch.Client

	// logger for structured logging.
	logger *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates a new entry URL resolution step.
// The client must be pre-configured with any proxy or TLS settings.
func NewResolveStep(client *fetch.Client, opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do executes the resolution step.
// A bare hostname target is accepted; "https://" is assumed when the
// scheme is missing.
func (s *ResolveStep) Do(ctx context.Context, report *model.HarvestReport) error {
	entry := fetch.EnsureScheme(report.Target)

	finalURL, err := s.client.Resolve(ctx, entry)
	if err != nil {
		return err
	}

	report.FinalURL = finalURL
	s.logger.Debug("resolved entry URL",
		"target", report.Target,
		"final_url", finalURL,
	)

	return nil
}

// HarvestStep crawls the resolved site and collects contact signals.
// This step runs the crawl engine and copies its results into the report.
//
// Design decision: Harvesting is separate from resolution because:
// 1. It has its own configuration (page budget, delay, path patterns)
// 2. It produces the report's payload rather than its preconditions
// 3. Individual page failures never fail the step, so its error surface
//    stays empty
type HarvestStep struct {
	// client performs all page fetches.
	client *fetch.Client

	// maxPages limits total pages to process.
	maxPages int

	// delay between requests for politeness.
	delay time.Duration

	// recursive selects link traversal over single-page processing.
	recursive bool

	// ignorePatterns are URL path patterns to skip while traversing.
	ignorePatterns []string

	// followPatterns are URL path patterns to follow while traversing.
	followPatterns []string

	// logger for structured logging.
	logger *slog.Logger
}

// HarvestStepOption configures a HarvestStep.
type HarvestStepOption func(*HarvestStep)

// WithHarvestMaxPages sets the maximum pages to process.
func WithHarvestMaxPages(maxPages int) HarvestStepOption {
	return func(s *HarvestStep) {
		s.maxPages = maxPages
	}
}

// WithHarvestDelay sets the delay between requests.
func WithHarvestDelay(d time.Duration) HarvestStepOption {
	return func(s *HarvestStep) {
		s.delay = d
	}
}

// WithHarvestRecursive enables internal link traversal.
// Without it the step processes exactly the resolved entry page.
func WithHarvestRecursive(recursive bool) HarvestStepOption {
	return func(s *HarvestStep) {
		s.recursive = recursive
	}
}

// WithHarvestIgnorePatterns sets URL path patterns to skip while traversing.
func WithHarvestIgnorePatterns(patterns []string) HarvestStepOption {
	return func(s *HarvestStep) {
		s.ignorePatterns = patterns
	}
}

// WithHarvestFollowPatterns sets URL path patterns to follow while traversing.
func WithHarvestFollowPatterns(patterns []string) HarvestStepOption {
	return func(s *HarvestStep) {
		s.followPatterns = patterns
	}
}

// WithHarvestLogger sets a custom logger for the harvest step.
func WithHarvestLogger(logger *slog.Logger) HarvestStepOption {
	return func(s *HarvestStep) {
		s.logger = logger
	}
}

// NewHarvestStep creates a new harvesting step.
// The client must be pre-configured with any proxy or TLS settings.
//
// Default politeness settings are conservative to be respectful of the
// sites being visited:
//   - delay: 1 second between requests (config.DefaultCrawlDelay)
//   - maxPages: 50 pages per run (config.DefaultMaxPages)
func NewHarvestStep(client *fetch.Client, opts ...HarvestStepOption) *HarvestStep {
	s := &HarvestStep{
		client:   client,
		maxPages: config.DefaultMaxPages,
		delay:    config.DefaultCrawlDelay,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HarvestStep) Name() string {
	return "harvest"
}

// Do executes the harvest step.
func (s *HarvestStep) Do(ctx context.Context, report *model.HarvestReport) error {
	// Only harvest when resolution produced an entry URL
	if report.FinalURL == "" {
		s.logger.Debug("skipping harvest, entry URL not resolved")
		return nil
	}

	// Build engine options including politeness settings
	engineOpts := []crawler.EngineOption{
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
		crawler.WithRecursive(s.recursive),
		crawler.WithLogger(s.logger),
	}

	// Add pattern filtering if configured
	if len(s.ignorePatterns) > 0 {
		engineOpts = append(engineOpts, crawler.WithIgnorePatterns(s.ignorePatterns))
	}
	if len(s.followPatterns) > 0 {
		engineOpts = append(engineOpts, crawler.WithFollowPatterns(s.followPatterns))
	}

	engine := crawler.NewEngine(s.client, engineOpts...)

	if err := engine.Run(ctx, report.FinalURL); err != nil {
		// Non-fatal: the resolved URL stopped answering between steps.
		// The report keeps whatever was collected.
		s.logger.Warn("harvest completed with error", "error", err)
	}

	// Store harvest results in the report
	report.Recursive = s.recursive
	if finalURL := engine.FinalURL(); finalURL != "" {
		report.FinalURL = finalURL
	}
	report.Findings = append(report.Findings, engine.Findings()...)
	report.VisitedURLs = engine.Visited()
	report.PagesCrawled = engine.PagesCrawled()
	report.HarvestedPages = engine.Pages()
	for _, page := range engine.Pages() {
		report.AddPage(page.URL, page.StatusCode)
	}

	s.logger.Info("harvest completed",
		"pages_crawled", engine.PagesCrawled(),
		"findings", len(engine.Findings()),
	)

	return nil
}

// SummarizeStep tallies the collected findings into the report summary.
// This step runs after harvesting so that every reporting surface reads
// the same counts.
//
// Design decision: Summarization is a separate step because:
// 1. It operates on accumulated data from previous steps
// 2. Writers and storage both consume the tallies, so they are built once
// 3. The step boundary is the natural place for end-of-run operator
//    feedback
type SummarizeStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// SummarizeStepOption configures a SummarizeStep.
type SummarizeStepOption func(*SummarizeStep)

// WithSummarizeLogger sets a custom logger for the summarize step.
func WithSummarizeLogger(logger *slog.Logger) SummarizeStepOption {
	return func(s *SummarizeStep) {
		s.logger = logger
	}
}

// NewSummarizeStep creates a new summarization step.
func NewSummarizeStep(opts ...SummarizeStepOption) *SummarizeStep {
	s := &SummarizeStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do executes the summarization step.
func (s *SummarizeStep) Do(_ context.Context, report *model.HarvestReport) error {
	report.Summary = model.NewHarvestSummary(report)

	s.logger.Info("harvest summarized",
		"emails", report.Summary.EmailCount,
		"phones", report.Summary.PhoneCount,
		"social_links", report.Summary.SocialCount,
		"metadata", report.Summary.MetadataCount,
		"pages", report.PagesCrawled,
	)

	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxPages is the maximum number of pages to process per run.
	MaxPages int

	// Recursive enables internal link traversal.
	Recursive bool

	// CrawlDelay is the delay between HTTP requests during traversal.
	// This is a "politeness" setting to avoid overwhelming target sites.
	CrawlDelay time.Duration

	// IgnorePatterns are URL path patterns to skip while traversing.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow while traversing.
	FollowPatterns []string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxPages sets the maximum pages to process per run.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// WithPipelineRecursive enables internal link traversal.
func WithPipelineRecursive(recursive bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Recursive = recursive
	}
}

// WithPipelineCrawlDelay sets the delay between HTTP requests during
// traversal. A minimum of 500ms is recommended; 1s is the default for
// respectful harvesting.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineIgnorePatterns sets URL patterns to skip while traversing.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL patterns to follow while traversing.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// DefaultPipeline creates a pipeline with all default steps configured.
// This is the standard pipeline for harvesting one target website.
//
// Design decision: We provide a default pipeline because:
// 1. Most callers want the full resolve-harvest-summarize sequence
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineMaxPages, etc).
func DefaultPipeline(client *fetch.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	// Apply default config with conservative politeness settings
	cfg := &DefaultPipelineConfig{
		MaxPages:   config.DefaultMaxPages,
		CrawlDelay: config.DefaultCrawlDelay,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	// Build harvest step options including politeness settings
	harvestOpts := []HarvestStepOption{
		WithHarvestMaxPages(cfg.MaxPages),
		WithHarvestDelay(cfg.CrawlDelay),
		WithHarvestRecursive(cfg.Recursive),
	}

	// Add pattern filtering options if configured
	if len(cfg.IgnorePatterns) > 0 {
		harvestOpts = append(harvestOpts, WithHarvestIgnorePatterns(cfg.IgnorePatterns))
	}
	if len(cfg.FollowPatterns) > 0 {
		harvestOpts = append(harvestOpts, WithHarvestFollowPatterns(cfg.FollowPatterns))
	}

	// Add steps in logical order
	p.AddSteps(
		NewResolveStep(client),
		NewHarvestStep(client, harvestOpts...),
		NewSummarizeStep(),
	)

	return p
}
