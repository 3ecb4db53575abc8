package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
// It generates a HarvestSummary from the HarvestReport if not already present.
func (w *SimpleWriter) Write(report *model.HarvestReport) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = model.NewHarvestSummary(report)
	}

	return w.WriteSimple(summary)
}

// WriteSimple outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSimple(summary *model.HarvestSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSummary(&sb, summary)
	w.writeFindings(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with harvest information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.HarvestSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        CONTACTSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:         %s\n", summary.Target))
	if summary.FinalURL != "" && summary.FinalURL != summary.Target {
		sb.WriteString(fmt.Sprintf("Resolved URL:   %s\n", summary.FinalURL))
	}
	sb.WriteString(fmt.Sprintf("Harvest Date:   %s\n", summary.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", summary.PagesCrawled))

	switch {
	case summary.TimedOut:
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	case summary.Cancelled:
		sb.WriteString("Status:         CANCELLED (partial results)\n")
	case summary.Error != "":
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", summary.Error))
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the per-kind count section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.HarvestSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  EMAILS:        %d\n", summary.EmailCount))
	sb.WriteString(fmt.Sprintf("  PHONE NUMBERS: %d\n", summary.PhoneCount))
	sb.WriteString(fmt.Sprintf("  SOCIAL LINKS:  %d\n", summary.SocialCount))
	sb.WriteString(fmt.Sprintf("  PAGE METADATA: %d\n", summary.MetadataCount))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:         %d findings\n", summary.TotalFindings()))
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by kind.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, summary *model.HarvestSummary) {
	if !summary.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, kind := range model.Kinds() {
		findings := summary.GetFindingsByKind(kind)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForKind(sb, kind, findings)
	}
}

// writeFindingsForKind writes findings of a specific kind.
func (w *SimpleWriter) writeFindingsForKind(sb *strings.Builder, kind model.Kind, findings []model.Finding) {
	sb.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(kind.DisplayName())))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Value))
		if platform, ok := finding.Attributes[model.AttrPlatform]; ok {
			sb.WriteString(fmt.Sprintf("    Platform: %s\n", platform))
		}
		if finding.SourceURL != "" {
			sb.WriteString(fmt.Sprintf("    Source: %s\n", finding.SourceURL))
		}
		if w.verbose {
			w.writeAttributes(sb, finding)
		}
	}
	sb.WriteString("\n")
}

// writeAttributes writes the remaining attributes of a finding in key order.
func (w *SimpleWriter) writeAttributes(sb *strings.Builder, finding model.Finding) {
	keys := make([]string, 0, len(finding.Attributes))
	for key := range finding.Attributes {
		if key == model.AttrPlatform {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(fmt.Sprintf("    %s: %s\n", key, finding.Attributes[key]))
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by ContactScan\n")
	sb.WriteString("https://github.com/nao1215/contactscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
