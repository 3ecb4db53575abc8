package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/database"
	"github.com/nao1215/contactscan/internal/fetch"
	"github.com/nao1215/contactscan/internal/log"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/pipeline"
	"github.com/nao1215/contactscan/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url]",
		Short: "Harvest contact signals from a website",
		Long: `Scan crawls a website and harvests publicly listed contact signals.

It fetches the entry page (following redirects) and extracts:
- Email addresses (visible text and mailto: links)
- Phone numbers (tel: links and labeled text patterns)
- Social media profile links (Facebook, Instagram, LinkedIn, and more)
- Page metadata (title, description, generator)

With --recursive it also follows same-host links up to the page budget,
one request at a time with a politeness delay between requests.

Examples:
  # Harvest a single site
  contactscan scan example.com

  # Harvest multiple sites
  contactscan scan site1.com site2.com site3.com

  # Crawl internal pages too
  contactscan scan --recursive --max-pages 30 example.com

  # Output JSON report
  contactscan scan --json example.com

  # Write a CSV report (the extension picks the format)
  contactscan scan -o findings.csv example.com

  # Use a custom configuration file
  contactscan scan -c myconfig.yaml example.com

Configuration file (.contactscan) example:
  sites:
    example.com:
      cookie: "cookieconsent=accepted"
      headers:
        Accept-Language: "en-US"
    shop.example.org:
      maxPages: 100`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Delay between requests during crawling")
	cmd.Flags().BoolP("recursive", "r", false,
		"Follow internal links up to the page budget")

	// Connection flags
	cmd.Flags().String("proxy", "",
		"Route requests through this proxy URL (http, https, socks5, socks5h)")
	cmd.Flags().Bool("no-verify-ssl", false,
		"Skip TLS certificate verification (for self-signed certificates)")
	cmd.Flags().String("user-agent", "",
		"Use a fixed User-Agent header instead of rotating browser defaults")

	// Batch scanning flags
	cmd.Flags().Int("concurrency", config.DefaultBatchSize,
		"Number of concurrent harvests when scanning multiple targets")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .contactscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (a .json, .csv, or .md extension selects the format)")
	cmd.Flags().Bool("save", true,
		"Save harvest results to the local database (disable with --save=false)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Recursive, err = cmd.Flags().GetBool("recursive")
	if err != nil {
		return nil, err
	}

	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.InsecureSkipVerify, err = cmd.Flags().GetBool("no-verify-ssl")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}
	if cfg.SaveToDB {
		cfg.DBDir = config.XDGDataDir()
	}

	// Get positional arguments (website URLs)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Credential-bearing values (proxy userinfo, cookies, auth headers) are
// masked before they reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// normalizeTarget canonicalizes a harvest target so that repeat runs of the
// same site share one database key. Hostnames are case-insensitive and a
// lone trailing slash carries no meaning, so "Example.COM/" and
// "example.com" collapse to the same form. A target given without a scheme
// stays bare; the scheme is decided at fetch time.
func normalizeTarget(rawTarget string) (string, error) {
	target := strings.TrimSpace(rawTarget)
	target = strings.TrimSuffix(target, "/")
	if target == "" {
		return "", errors.New("empty target")
	}

	hadScheme := strings.HasPrefix(strings.ToLower(target), "http://") ||
		strings.HasPrefix(strings.ToLower(target), "https://")
	if !hadScheme && strings.Contains(target, "://") {
		return "", errors.New("unsupported URL scheme (only http and https)")
	}

	// url.Parse lowercases the scheme itself, so a scheme-bearing target
	// can be parsed as-is.
	rawParse := target
	if !hadScheme {
		rawParse = fetch.EnsureScheme(target)
	}
	parsed, err := url.Parse(rawParse)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", errors.New("no hostname")
	}

	parsed.Host = strings.ToLower(parsed.Host)
	if hadScheme {
		return parsed.String(), nil
	}

	normalized := parsed.Host + parsed.Path
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}
	return normalized, nil
}

// runScan executes the harvest.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more website URLs as arguments)")
	}

	logger.Info("starting harvest",
		"targets", cfg.Targets,
		"recursive", cfg.Recursive,
		"concurrency", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HarvestDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Validate and canonicalize all targets
	for i, target := range cfg.Targets {
		normalized, err := normalizeTarget(target)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", target, err)
		}
		cfg.Targets[i] = normalized
	}

	// Use batch processor for parallel harvesting if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchScan(ctx, cfg, db, logger)
	}

	// Single target or sequential harvesting
	return runSequentialScan(ctx, cfg, db, logger)
}

// runSequentialScan harvests targets one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, db *database.HarvestDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Get site-specific configuration
		siteConfig := siteConfigForTarget(cfg, target)

		client, err := newFetchClient(cfg, siteConfig)
		if err != nil {
			return fmt.Errorf("failed to create fetch client: %w", err)
		}

		// Create pipeline with site-specific options
		p := createPipelineForTarget(client, logger, cfg, siteConfig)

		harvestReport := model.NewHarvestReport(target)

		var spin *spinner.Spinner
		if cfg.Verbose {
			fmt.Printf("Harvesting %s...\n", target)
		} else {
			spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			spin.Suffix = fmt.Sprintf(" Harvesting %s...", target)
			spin.Start()
		}
		startTime := time.Now()

		// Execute the pipeline
		execErr := p.Execute(ctx, harvestReport)

		if spin != nil {
			spin.Stop()
		}
		client.Close()

		// An interrupted run still reports and saves what it gathered;
		// any other pipeline error means the target never resolved.
		if execErr != nil && !errors.Is(execErr, context.Canceled) && !errors.Is(execErr, context.DeadlineExceeded) {
			logger.Error("harvest failed", "target", target, "error", execErr)
			fmt.Fprintf(os.Stderr, "Harvest error for %s: %v\n", target, execErr)
			continue
		}

		elapsed := time.Since(startTime)
		if harvestReport.Cancelled || harvestReport.TimedOut {
			fmt.Printf("Harvest interrupted after %s; partial results follow\n\n", elapsed.Round(time.Millisecond))
		} else {
			fmt.Printf("Harvest completed in %s\n\n", elapsed.Round(time.Millisecond))
		}

		// Generate and output report
		if err := outputReport(cfg, harvestReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		// Save to database if enabled. The save must outlive an interrupt:
		// partial results are still worth keeping.
		if err := saveHarvestReport(context.WithoutCancel(ctx), db, harvestReport, logger); err != nil {
			logger.Error("failed to save harvest report", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchScan harvests multiple targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, cfg *config.Config, db *database.HarvestDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch harvest of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default site config only; site-specific configs (cookies, headers, page budgets) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--concurrency 1) to apply per-site settings.\n\n")
	}

	// All targets in a batch share one client configured with the defaults.
	var siteConfig config.SiteConfig
	if cfg.SiteConfigs != nil {
		siteConfig = cfg.SiteConfigs.Defaults
	}
	client, err := newFetchClient(cfg, siteConfig)
	if err != nil {
		return fmt.Errorf("failed to create fetch client: %w", err)
	}
	defer client.Close()

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipelineForTarget(client, logger, cfg, siteConfig)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(harvestReport *model.HarvestReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Harvest completed: %s\n", index+1, len(cfg.Targets), harvestReport.Target)

		// Generate and output report
		if err := outputReport(cfg, harvestReport); err != nil {
			logger.Error("report failed", "target", harvestReport.Target, "error", err)
		}

		// Save to database if enabled
		if err := saveHarvestReport(context.WithoutCancel(ctx), db, harvestReport, logger); err != nil {
			logger.Error("failed to save harvest report", "target", harvestReport.Target, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch harvest completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// siteConfigForTarget returns the site-specific configuration for a target.
// Config file entries are keyed by bare hostname, but fuller target forms
// are accepted: the exact form is tried first, then without the scheme,
// then the hostname alone. Falls back to the file's defaults.
func siteConfigForTarget(cfg *config.Config, target string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}

	if _, ok := cfg.SiteConfigs.Sites[target]; ok {
		return cfg.SiteConfigs.GetSiteConfig(target)
	}

	cleanTarget := target
	for _, prefix := range []string{"http://", "https://"} {
		cleanTarget = strings.TrimPrefix(cleanTarget, prefix)
	}
	if _, ok := cfg.SiteConfigs.Sites[cleanTarget]; ok {
		return cfg.SiteConfigs.GetSiteConfig(cleanTarget)
	}

	host, _, _ := strings.Cut(cleanTarget, "/")
	return cfg.SiteConfigs.GetSiteConfig(host)
}

// newFetchClient builds a fetch client from the global and site-specific
// configuration.
func newFetchClient(cfg *config.Config, siteConfig config.SiteConfig) (*fetch.Client, error) {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
	}
	if cfg.Proxy != "" {
		opts = append(opts, fetch.WithProxy(cfg.Proxy))
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, fetch.WithInsecureSkipVerify(true))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, fetch.WithMaxBodySize(cfg.MaxBodySize))
	}
	if siteConfig.Cookie != "" || len(siteConfig.Headers) > 0 {
		opts = append(opts, fetch.WithSiteConfig(siteConfig.Cookie, siteConfig.Headers))
	}
	return fetch.NewClient(opts...)
}

// createPipelineForTarget creates a pipeline with the given configuration.
func createPipelineForTarget(client *fetch.Client, logger *slog.Logger, cfg *config.Config, siteConfig config.SiteConfig) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
	}

	// Determine page budget (site-specific overrides global)
	maxPages := cfg.MaxPages
	if siteConfig.MaxPages > 0 {
		maxPages = siteConfig.MaxPages
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineMaxPages(maxPages),
		pipeline.WithPipelineRecursive(cfg.Recursive),
		pipeline.WithPipelineCrawlDelay(cfg.CrawlDelay),
	}

	// Add URL pattern filtering if configured
	if len(siteConfig.IgnorePatterns) > 0 {
		configOpts = append(configOpts, pipeline.WithPipelineIgnorePatterns(siteConfig.IgnorePatterns))
	}
	if len(siteConfig.FollowPatterns) > 0 {
		configOpts = append(configOpts, pipeline.WithPipelineFollowPatterns(siteConfig.FollowPatterns))
	}

	return pipeline.DefaultPipeline(client, pipelineOpts, configOpts...)
}

// outputReport outputs the harvest report in the requested format.
func outputReport(cfg *config.Config, harvestReport *model.HarvestReport) error {
	// Generate summary if needed
	if harvestReport.Summary == nil {
		harvestReport.Summary = model.NewHarvestSummary(harvestReport)
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions;
		// harvested contact data is not for other local users.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	writer := writerForConfig(cfg, output)
	_, err := writer.Write(harvestReport)
	return err
}

// writerForConfig picks the report writer: explicit --json/--markdown flags
// win, then the output file extension (.json, .csv, .md), then the
// human-readable text writer.
func writerForConfig(cfg *config.Config, output io.Writer) report.Writer {
	if cfg.JSONReport {
		return report.NewFullJSONWriter(output, getVersion())
	}
	if cfg.MarkdownReport {
		return report.NewMarkdownWriter(output)
	}

	switch strings.ToLower(filepath.Ext(cfg.ReportFile)) {
	case ".json":
		return report.NewFullJSONWriter(output, getVersion())
	case ".csv":
		return report.NewCSVWriter(output)
	case ".md", ".markdown":
		return report.NewMarkdownWriter(output)
	}

	return report.NewSimpleWriter(output)
}

// saveHarvestReport saves the harvest report, its findings, and the fetched
// page records to the database. If db is nil, this function is a no-op.
func saveHarvestReport(ctx context.Context, db *database.HarvestDB, harvestReport *model.HarvestReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Ensure the summary is generated before saving
	if harvestReport.Summary == nil {
		harvestReport.Summary = model.NewHarvestSummary(harvestReport)
	}

	if err := db.SaveHarvestReport(ctx, harvestReport); err != nil {
		return fmt.Errorf("failed to save harvest report: %w", err)
	}

	if err := db.SaveFindings(ctx, harvestReport.Target, harvestReport.Findings); err != nil {
		return fmt.Errorf("failed to save findings: %w", err)
	}

	for _, page := range harvestReport.HarvestedPages {
		record := &database.PageRecord{
			URL:         page.URL,
			Target:      harvestReport.Target,
			StatusCode:  page.StatusCode,
			ContentType: page.ContentType,
			BodyHash:    page.Hash,
			Headers:     page.Headers,
		}
		if _, err := db.InsertPageRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to save page record for %s: %w", page.URL, err)
		}
	}

	logger.Info("harvest report saved to database", "target", harvestReport.Target)
	return nil
}
