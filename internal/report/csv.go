package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

// csvHeader is the fixed column set for CSV output.
var csvHeader = []string{"Type", "Value", "Source URL", "Attributes"}

// CSVWriter outputs findings in CSV format, one row per finding.
// This format is designed for spreadsheets and ad-hoc filtering.
//
// Design decision: We emit one flat row per finding rather than one file
// per kind because:
// 1. A single file imports cleanly into any spreadsheet tool
// 2. The Type column makes per-kind filtering a one-click operation
// 3. Attributes collapse into a single column, keeping the schema stable
//    across kinds
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report findings in CSV format.
func (w *CSVWriter) Write(report *model.HarvestReport) (int, error) {
	return w.writeFindings(report.Findings)
}

// WriteSimple outputs the summary findings in CSV format.
func (w *CSVWriter) WriteSimple(summary *model.HarvestSummary) (int, error) {
	return w.writeFindings(summary.Findings)
}

// writeFindings renders findings as CSV rows behind a header row.
func (w *CSVWriter) writeFindings(findings []model.Finding) (int, error) {
	// The csv writer does not report byte counts, so render into a buffer
	// and count on the final write.
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, f := range findings {
		row := []string{
			f.Kind.String(),
			f.Value,
			f.SourceURL,
			formatAttributes(f.Attributes),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}

// formatAttributes renders an attribute map as "key=value; ..." in key order.
func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+attrs[key])
	}
	return strings.Join(parts, "; ")
}
