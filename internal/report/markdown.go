package report

import (
	"io"
	"strconv"

	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.HarvestReport) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = model.NewHarvestSummary(report)
	}

	return w.WriteSimple(summary)
}

// WriteSimple outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSimple(summary *model.HarvestSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFindings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with harvest information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.HarvestSummary) {
	md.H1("ContactScan Report")
	md.PlainText("")

	finalURL := summary.FinalURL
	if finalURL == "" {
		finalURL = summary.Target
	}

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + summary.Target + "`"},
			{"Resolved URL", "`" + finalURL + "`"},
			{"Harvest Date", summary.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(summary.PagesCrawled)},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.HarvestSummary) string {
	if summary.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if summary.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	if summary.Error != "" {
		return "❌ Error - " + summary.Error
	}
	return "✅ Complete"
}

// writeSummary writes the per-kind count section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.HarvestSummary) {
	md.H2("Findings Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows: [][]string{
			{"📧 Emails", strconv.Itoa(summary.EmailCount)},
			{"📞 Phone Numbers", strconv.Itoa(summary.PhoneCount)},
			{"🔗 Social Links", strconv.Itoa(summary.SocialCount)},
			{"📄 Page Metadata", strconv.Itoa(summary.MetadataCount)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if there are findings
	if summary.HasFindings() {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the kind distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.HarvestSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Contact Signal Distribution"),
		piechart.WithShowData(true),
	)

	for _, kind := range model.Kinds() {
		if count := summary.CountForKind(kind); count > 0 {
			chart.LabelAndIntValue(kind.DisplayName(), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the harvest outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.HarvestSummary) {
	switch {
	case summary.Error != "":
		md.Warningf("The harvest ended with an error: %s", summary.Error)
	case summary.TimedOut || summary.Cancelled:
		md.Importantf(
			"The harvest was interrupted; %d finding(s) were collected before the stop.",
			summary.TotalFindings(),
		)
	case summary.HasFindings():
		md.Notef(
			"%d contact signal(s) collected across %d page(s).",
			summary.TotalFindings(), summary.PagesCrawled,
		)
	default:
		md.Tip("No contact signals were found on the crawled pages.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by kind.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, summary *model.HarvestSummary) {
	md.H2("Findings")
	md.PlainText("")

	if !summary.HasFindings() {
		md.PlainText("No contact signals detected.")
		md.PlainText("")
		return
	}

	kinds := []struct {
		kind   model.Kind
		header string
	}{
		{model.KindEmail, "### 📧 Emails"},
		{model.KindPhone, "### 📞 Phone Numbers"},
		{model.KindSocial, "### 🔗 Social Links"},
		{model.KindMetadata, "### 📄 Page Metadata"},
	}

	for _, k := range kinds {
		findings := summary.GetFindingsByKind(k.kind)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(k.header)
		md.PlainText("")
		w.writeFindingsTable(md, k.kind, findings)
	}
}

// writeFindingsTable writes a table of findings of one kind.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, kind model.Kind, findings []model.Finding) {
	headers := []string{"Value", "Source"}
	if kind == model.KindSocial {
		headers = []string{"Value", "Platform", "Source"}
	}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		value := f.Value
		if value == "" {
			value = "-"
		}
		source := f.SourceURL
		if source == "" {
			source = "-"
		}

		if kind == model.KindSocial {
			platform := f.Attributes[model.AttrPlatform]
			if platform == "" {
				platform = "-"
			}
			rows[i] = []string{
				truncateString(value, 60),
				platform,
				truncateString(source, 40),
			}
			continue
		}

		rows[i] = []string{
			truncateString(value, 60),
			truncateString(source, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ContactScan](https://github.com/nao1215/contactscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
