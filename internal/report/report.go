// Package report renders a stored metrics bundle for people: a markdown
// summary, its HTML rendering and an xlsx workbook with one sheet per
// metrics section.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"studentperf/domain/model"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook
const (
	SheetPerformance    = "performance_metrics"
	SheetClassification = "classification_report"
	SheetConfusion      = "confusion_matrix"
	SheetStatistics     = "model_statistics"
)

// Markdown renders the bundle of a named model as markdown tables
func Markdown(name string, b *model.MetricsBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Model type: **%s**", b.ModelType)
	if !b.Converged {
		sb.WriteString(" (optimizer did not converge)")
	}
	if b.Degraded {
		sb.WriteString(" (standard errors unavailable)")
	}
	sb.WriteString("\n\n## Performance\n\n| Metric | Value |\n|---|---|\n")
	for _, m := range b.Performance {
		fmt.Fprintf(&sb, "| %s | %s |\n", m.Name, formatFloat(m.Value))
	}

	sb.WriteString("\n## Classification report\n\n| Label | Precision | Recall | F1 | Support |\n|---|---|---|---|---|\n")
	for _, r := range b.Report.Rows {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", r.Label,
			formatFloat(r.Precision), formatFloat(r.Recall), formatFloat(r.F1), formatFloat(r.Support))
	}
	fmt.Fprintf(&sb, "\nAccuracy: %s\n", formatFloat(b.Report.Accuracy))

	c := b.Confusion
	sb.WriteString("\n## Confusion matrix\n\n| actual \\ predicted | 0 | 1 |\n|---|---|---|\n")
	fmt.Fprintf(&sb, "| 0 | %d | %d |\n| 1 | %d | %d |\n", c.TN(), c.FP(), c.FN(), c.TP())

	sb.WriteString("\n## Coefficients\n\n| Feature | Coefficient | Std Error | P-value |\n|---|---|---|---|\n")
	for _, s := range b.Statistics {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", s.Feature,
			formatFloat(float64(s.Coefficient)), formatFloat(float64(s.StdError)), formatFloat(float64(s.PValue)))
	}
	return sb.String()
}

// HTML renders the markdown report to a standalone HTML page
func HTML(name string, b *model.MetricsBundle) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: name,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(Markdown(name, b)), p, renderer)
}

// Workbook builds the xlsx report
func Workbook(b *model.MetricsBundle) (*excelize.File, error) {
	f := excelize.NewFile()

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetPerformance, performanceRows(b)},
		{SheetClassification, classificationRows(b)},
		{SheetConfusion, confusionRows(b)},
		{SheetStatistics, statisticsRows(b)},
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		if err := writeRows(f, s.name, s.rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	return f, nil
}

// WriteXLSX saves the workbook to path
func WriteXLSX(path string, b *model.MetricsBundle) error {
	f, err := Workbook(b)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func performanceRows(b *model.MetricsBundle) [][]any {
	rows := [][]any{{"Metric", "Value"}, {"Model Type", b.ModelType}}
	for _, m := range b.Performance {
		rows = append(rows, []any{m.Name, cellFloat(m.Value)})
	}
	return rows
}

func classificationRows(b *model.MetricsBundle) [][]any {
	rows := [][]any{{"Label", "precision", "recall", "f1-score", "support"}}
	for _, r := range b.Report.Rows {
		if r.Label == model.ReportMacroAvg {
			rows = append(rows, []any{"accuracy", "", "", cellFloat(b.Report.Accuracy), ""})
		}
		rows = append(rows, []any{r.Label, cellFloat(r.Precision), cellFloat(r.Recall), cellFloat(r.F1), cellFloat(r.Support)})
	}
	return rows
}

func confusionRows(b *model.MetricsBundle) [][]any {
	c := b.Confusion
	return [][]any{
		{"", "0", "1"},
		{"0", c.TN(), c.FP()},
		{"1", c.FN(), c.TP()},
	}
}

func statisticsRows(b *model.MetricsBundle) [][]any {
	rows := [][]any{{"Feature", "Coefficient", "P-value", "Std Error"}}
	for _, s := range b.Statistics {
		rows = append(rows, []any{s.Feature, cellFloat(float64(s.Coefficient)), cellFloat(float64(s.PValue)), cellFloat(float64(s.StdError))})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellFloat leaves NaN and infinities as empty cells
func cellFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
