package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/database"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/spf13/cobra"
)

// Constants for signal trend direction and summary messages.
const (
	signalDirectionGrew      = "grew"
	signalDirectionShrank    = "shrank"
	signalDirectionUnchanged = "unchanged"
	noFindingsMessage        = "No findings"
)

// NewCompareCmd creates the compare command.
// This command compares harvest results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare harvest results with historical data",
		Long: `Compare displays differences between the current and previous harvest results.

This command retrieves historical harvest data from the database and shows:
- New contact signals that appeared since the last harvest
- Removed signals that the site no longer publishes
- Changes in the signal counts per kind

The comparison requires at least two harvests in the database for the specified
website. Use 'contactscan scan' to harvest and save results.

Examples:
  # Compare latest two harvests for a site
  contactscan compare example.com

  # List all harvest history for a site
  contactscan compare --list example.com

  # Compare with a specific historical harvest by ID
  contactscan compare --with-harvest-id 5 example.com

  # Compare harvests since a specific date
  contactscan compare --since "2025-01-01" example.com

  # Output comparison in JSON format
  contactscan compare --json example.com

  # List all harvested targets in the database
  contactscan compare --list-targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List harvest history for the specified website")
	cmd.Flags().BoolP("list-targets", "L", false,
		"List all harvested targets in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-harvest-id", "i", 0,
		"Compare with a specific harvest by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first harvest after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-targets flag first (requires database but no URL)
	listTargets, err := cmd.Flags().GetBool("list-targets")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-targets)
	// This prevents database lock issues when validation fails
	var target string
	if !listTargets {
		// Require a website URL for other operations
		if len(args) == 0 {
			return errors.New("website URL is required (use --list-targets to see harvested targets)")
		}

		// Canonicalize the target so it matches the form scan stored
		target, err = normalizeTarget(args[0])
		if err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-targets flag
	if listTargets {
		return listHarvestTargets(ctx, db)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listHarvestHistory(ctx, db, target)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withHarvestID, err := cmd.Flags().GetInt64("with-harvest-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, target, withHarvestID, sinceDate, jsonOutput, markdownOutput)
}

// listHarvestTargets lists all websites that have harvest records in the database.
func listHarvestTargets(ctx context.Context, db *database.HarvestDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Println("No harvested targets found in the database.")
		fmt.Println("\nUse 'contactscan scan <url>' to harvest a website.")
		return nil
	}

	fmt.Printf("Harvested targets (%d):\n\n", len(targets))
	for _, t := range targets {
		fmt.Printf("  • %s\n", t)
	}
	fmt.Println("\nUse 'contactscan compare --list <url>' to see harvest history for a target.")

	return nil
}

// listHarvestHistory lists all harvest records for a specific website.
func listHarvestHistory(ctx context.Context, db *database.HarvestDB, target string) error {
	records, err := db.GetHarvestHistoryWithMetadata(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get harvest history: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No harvest history found for %s\n", target)
		fmt.Println("\nUse 'contactscan scan' to harvest this website.")
		return nil
	}

	fmt.Printf("Harvest history for %s (%d harvests):\n\n", target, len(records))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Signal Summary")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range records {
		signalSummary := formatSignalSummary(meta.SignalSummary)
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			signalSummary,
		)
	}

	fmt.Println("\nUse 'contactscan compare <url>' to compare the latest two harvests.")
	fmt.Println("Use 'contactscan compare --with-harvest-id <id> <url>' to compare with a specific harvest.")

	return nil
}

// formatSignalSummary formats the signal summary map into a human-readable string.
func formatSignalSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary[model.KindEmail.String()]; v > 0 {
		parts = append(parts, fmt.Sprintf("E:%d", v))
	}
	if v := summary[model.KindPhone.String()]; v > 0 {
		parts = append(parts, fmt.Sprintf("P:%d", v))
	}
	if v := summary[model.KindSocial.String()]; v > 0 {
		parts = append(parts, fmt.Sprintf("S:%d", v))
	}
	if v := summary[model.KindMetadata.String()]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between harvest reports.
func runComparison(ctx context.Context, db *database.HarvestDB, target string, withHarvestID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// Get the harvest history
	reports, err := db.GetHarvestHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get harvest history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no harvest history found for %s", target)
	}

	if len(reports) < 2 && withHarvestID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 harvests are required for comparison (found %d)", len(reports))
	}

	// Determine which reports to compare
	var currentReport, previousReport *model.HarvestReport

	// Latest report is always the current one
	currentReport = reports[0]

	if withHarvestID > 0 {
		// Find the report with the specified ID
		previousReport, err = db.GetHarvestByID(ctx, withHarvestID)
		if err != nil {
			return fmt.Errorf("failed to get harvest with ID %d: %w", withHarvestID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("harvest with ID %d not found", withHarvestID)
		}
		// Validate that the harvest ID belongs to the same target
		if previousReport.Target != target {
			return fmt.Errorf("harvest ID %d belongs to %s, not %s", withHarvestID, previousReport.Target, target)
		}
	} else if sinceDate != "" {
		// Parse the date and find the first (oldest) report at or after the specified date
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted by timestamp DESC (newest first), so iterate in reverse
		// to find the first (oldest) report at or after the date
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.DateScanned.After(parsedDate) || r.DateScanned.Equal(parsedDate) {
				previousReport = r
				break // Stop at the first (oldest) matching report
			}
		}
		if previousReport == nil {
			return fmt.Errorf("no harvests found since %s", sinceDate)
		}
		// If only one harvest matches and it's the current report, we can't compare
		if previousReport == currentReport {
			return fmt.Errorf("only one harvest found since %s; at least 2 harvests are required for comparison", sinceDate)
		}
	} else {
		// Default: compare with the previous harvest
		previousReport = reports[1]
	}

	// Generate comparison result
	comparison := compareReports(previousReport, currentReport)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two harvest reports.
type ComparisonResult struct {
	// Target is the harvested website.
	Target string `json:"target"`

	// PreviousHarvest contains metadata about the previous harvest.
	PreviousHarvest HarvestMetadata `json:"previous_harvest"`

	// CurrentHarvest contains metadata about the current harvest.
	CurrentHarvest HarvestMetadata `json:"current_harvest"`

	// NewFindings contains findings that are new in the current harvest.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// RemovedFindings contains findings that were in the previous harvest but not in current.
	RemovedFindings []model.Finding `json:"removed_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// SignalChange describes the overall change in published contact signals.
	SignalChange SignalChange `json:"signal_change"`
}

// HarvestMetadata contains metadata about a harvest for comparison display.
type HarvestMetadata struct {
	// DateScanned is when the harvest was performed.
	DateScanned time.Time `json:"date_scanned"`

	// TotalFindings is the total number of findings in this harvest.
	TotalFindings int `json:"total_findings"`

	// EmailCount is the number of email findings.
	EmailCount int `json:"email_count"`

	// PhoneCount is the number of phone findings.
	PhoneCount int `json:"phone_count"`

	// SocialCount is the number of social link findings.
	SocialCount int `json:"social_count"`

	// MetadataCount is the number of page metadata findings.
	MetadataCount int `json:"metadata_count"`

	// PagesCrawled is the number of pages processed during the harvest.
	PagesCrawled int `json:"pages_crawled"`
}

// SignalChange describes the change in published contact signals between harvests.
type SignalChange struct {
	// Direction is "grew", "shrank", or "unchanged".
	Direction string `json:"direction"`

	// EmailDelta is the change in email findings count.
	EmailDelta int `json:"email_delta"`

	// PhoneDelta is the change in phone findings count.
	PhoneDelta int `json:"phone_delta"`

	// SocialDelta is the change in social link findings count.
	SocialDelta int `json:"social_delta"`

	// MetadataDelta is the change in page metadata findings count.
	MetadataDelta int `json:"metadata_delta"`
}

// compareReports compares two harvest reports and generates a comparison result.
func compareReports(previous, current *model.HarvestReport) *ComparisonResult {
	result := &ComparisonResult{
		Target:          current.Target,
		PreviousHarvest: harvestMetadata(previous),
		CurrentHarvest:  harvestMetadata(current),
	}

	// Build key sets for comparison. Findings within one report are already
	// deduplicated, so each key appears at most once per side.
	previousKeys := make(map[string]struct{}, len(previous.Findings))
	for _, f := range previous.Findings {
		previousKeys[findingKey(f)] = struct{}{}
	}
	currentKeys := make(map[string]struct{}, len(current.Findings))
	for _, f := range current.Findings {
		currentKeys[findingKey(f)] = struct{}{}
	}

	// Find new findings (in current but not in previous).
	// Iterate the slices rather than the key sets so output order is stable.
	for _, f := range current.Findings {
		if _, exists := previousKeys[findingKey(f)]; !exists {
			result.NewFindings = append(result.NewFindings, f)
		}
	}

	// Find removed findings (in previous but not in current)
	for _, f := range previous.Findings {
		if _, exists := currentKeys[findingKey(f)]; !exists {
			result.RemovedFindings = append(result.RemovedFindings, f)
		} else {
			result.UnchangedCount++
		}
	}

	// Calculate signal change
	result.SignalChange = calculateSignalChange(result.PreviousHarvest, result.CurrentHarvest)

	return result
}

// harvestMetadata extracts comparison metadata from a harvest report,
// deriving the summary from the findings when the stored report lacks one.
func harvestMetadata(report *model.HarvestReport) HarvestMetadata {
	summary := report.Summary
	if summary == nil {
		summary = model.NewHarvestSummary(report)
	}
	return HarvestMetadata{
		DateScanned:   report.DateScanned,
		TotalFindings: len(report.Findings),
		EmailCount:    summary.EmailCount,
		PhoneCount:    summary.PhoneCount,
		SocialCount:   summary.SocialCount,
		MetadataCount: summary.MetadataCount,
		PagesCrawled:  report.PagesCrawled,
	}
}

// findingKey generates a unique key for a finding for comparison purposes.
// The dedup identity already collapses cosmetic variation (email casing,
// phone separators), so a reformatted value does not show up as a change.
func findingKey(f model.Finding) string {
	return f.DedupKey()
}

// calculateSignalChange calculates the change in contact signals between two harvests.
func calculateSignalChange(previous, current HarvestMetadata) SignalChange {
	change := SignalChange{
		EmailDelta:    current.EmailCount - previous.EmailCount,
		PhoneDelta:    current.PhoneCount - previous.PhoneCount,
		SocialDelta:   current.SocialCount - previous.SocialCount,
		MetadataDelta: current.MetadataCount - previous.MetadataCount,
	}

	// All contact signal kinds carry equal weight: the trend is simply
	// whether the site publishes more or fewer ways to be reached.
	if current.TotalFindings > previous.TotalFindings {
		change.Direction = signalDirectionGrew
	} else if current.TotalFindings < previous.TotalFindings {
		change.Direction = signalDirectionShrank
	} else {
		change.Direction = signalDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Harvest Comparison: %s\n\n", result.Target)

	// Signal trend summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Signal Trend:** %s\n\n", formatSignalDirection(result.SignalChange.Direction))

	// Harvest metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousHarvest.DateScanned.Format("2006-01-02 15:04"),
		result.CurrentHarvest.DateScanned.Format("2006-01-02 15:04"))
	fmt.Printf("| Emails | %d | %d | %s |\n",
		result.PreviousHarvest.EmailCount,
		result.CurrentHarvest.EmailCount,
		formatDelta(result.SignalChange.EmailDelta))
	fmt.Printf("| Phones | %d | %d | %s |\n",
		result.PreviousHarvest.PhoneCount,
		result.CurrentHarvest.PhoneCount,
		formatDelta(result.SignalChange.PhoneDelta))
	fmt.Printf("| Social | %d | %d | %s |\n",
		result.PreviousHarvest.SocialCount,
		result.CurrentHarvest.SocialCount,
		formatDelta(result.SignalChange.SocialDelta))
	fmt.Printf("| Metadata | %d | %d | %s |\n",
		result.PreviousHarvest.MetadataCount,
		result.CurrentHarvest.MetadataCount,
		formatDelta(result.SignalChange.MetadataDelta))
	fmt.Printf("| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousHarvest.TotalFindings,
		result.CurrentHarvest.TotalFindings,
		formatDelta(result.CurrentHarvest.TotalFindings-result.PreviousHarvest.TotalFindings))
	fmt.Printf("| Pages crawled | %d | %d | %s |\n",
		result.PreviousHarvest.PagesCrawled,
		result.CurrentHarvest.PagesCrawled,
		formatDelta(result.CurrentHarvest.PagesCrawled-result.PreviousHarvest.PagesCrawled))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("- **[%s]** %s\n", f.Kind.String(), f.Value)
			if f.SourceURL != "" {
				fmt.Printf("  - Source: `%s`\n", f.SourceURL)
			}
		}
	}

	// Removed findings
	if len(result.RemovedFindings) > 0 {
		fmt.Printf("\n## Removed Findings (%d)\n\n", len(result.RemovedFindings))
		for _, f := range result.RemovedFindings {
			fmt.Printf("- ~~**[%s]** %s~~\n", f.Kind.String(), f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Harvest Comparison: %s\n", result.Target)
	fmt.Println(strings.Repeat("=", 60))

	// Signal trend summary
	fmt.Printf("\nSignal Trend: %s\n", formatSignalDirection(result.SignalChange.Direction))

	// Harvest dates
	fmt.Printf("\nPrevious harvest: %s\n", result.PreviousHarvest.DateScanned.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current harvest:  %s\n", result.CurrentHarvest.DateScanned.Format("2006-01-02 15:04:05"))

	// Summary table
	fmt.Println("\nFindings Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Kind", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Emails",
		result.PreviousHarvest.EmailCount, result.CurrentHarvest.EmailCount,
		formatDelta(result.SignalChange.EmailDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Phones",
		result.PreviousHarvest.PhoneCount, result.CurrentHarvest.PhoneCount,
		formatDelta(result.SignalChange.PhoneDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Social",
		result.PreviousHarvest.SocialCount, result.CurrentHarvest.SocialCount,
		formatDelta(result.SignalChange.SocialDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Metadata",
		result.PreviousHarvest.MetadataCount, result.CurrentHarvest.MetadataCount,
		formatDelta(result.SignalChange.MetadataDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousHarvest.TotalFindings, result.CurrentHarvest.TotalFindings,
		formatDelta(result.CurrentHarvest.TotalFindings-result.PreviousHarvest.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s\n", f.Kind.String(), f.Value)
			if f.SourceURL != "" {
				fmt.Printf("      Source: %s\n", f.SourceURL)
			}
		}
	}

	// Removed findings
	if len(result.RemovedFindings) > 0 {
		fmt.Printf("\nRemoved Findings (%d):\n", len(result.RemovedFindings))
		for _, f := range result.RemovedFindings {
			fmt.Printf("  [-] [%s] %s\n", f.Kind.String(), f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatSignalDirection formats the signal trend direction for display.
func formatSignalDirection(direction string) string {
	switch direction {
	case signalDirectionGrew:
		return "GREW (more contact signals published)"
	case signalDirectionShrank:
		return "SHRANK (fewer contact signals published)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
