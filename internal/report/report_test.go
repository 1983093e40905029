package report

import (
	"math"
	"path/filepath"
	"testing"

	"studentperf/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleBundle() *model.MetricsBundle {
	b := &model.MetricsBundle{
		ModelType: "LOGIT",
		Converged: true,
		Report: model.ClassificationReport{
			Rows: []model.ReportRow{
				{Label: "0", Precision: 0.8, Recall: 0.5, F1: 0.6154, Support: 8},
				{Label: "1", Precision: 0.75, Recall: 0.9231, F1: 0.8276, Support: 13},
				{Label: model.ReportMacroAvg, Precision: 0.775, Recall: 0.7115, F1: 0.7215, Support: 21},
				{Label: model.ReportWeightedAvg, Precision: 0.769, Recall: 0.7619, F1: 0.7468, Support: 21},
			},
			Accuracy: 0.7619,
		},
		Confusion: model.ConfusionMatrix{Counts: [2][2]int{{4, 4}, {1, 12}}},
		Statistics: []model.FeatureStat{
			{Feature: "const", Coefficient: -4.4, PValue: 0.01, StdError: 1.7},
			{Feature: "math_score", Coefficient: 0.29, PValue: model.Float(math.NaN()), StdError: 0.11},
		},
	}
	b.Performance.Set(model.MetricAccuracy, 0.7619)
	b.Performance.Set(model.MetricPrecision, math.NaN())
	return b
}

func TestMarkdown(t *testing.T) {
	md := Markdown("logit_model", sampleBundle())

	assert.Contains(t, md, "# logit_model")
	assert.Contains(t, md, "Model type: **LOGIT**")
	assert.Contains(t, md, "| Accuracy | 0.7619 |")
	assert.Contains(t, md, "| Precision | n/a |")
	assert.Contains(t, md, "| 0 | 4 | 4 |")
	assert.Contains(t, md, "| 1 | 1 | 12 |")
	assert.Contains(t, md, "| math_score | 0.2900 | 0.1100 | n/a |")
	assert.NotContains(t, md, "did not converge")
}

func TestMarkdown_Flags(t *testing.T) {
	b := sampleBundle()
	b.Converged = false
	b.Degraded = true
	md := Markdown("m", b)
	assert.Contains(t, md, "did not converge")
	assert.Contains(t, md, "standard errors unavailable")
}

func TestHTML(t *testing.T) {
	out := string(HTML("logit_model", sampleBundle()))
	assert.Contains(t, out, "<title>logit_model</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>math_score</td>")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, sampleBundle()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPerformance, SheetClassification, SheetConfusion, SheetStatistics}, f.GetSheetList())

	perf, err := f.GetRows(SheetPerformance)
	require.NoError(t, err)
	assert.Equal(t, []string{"Model Type", "LOGIT"}, perf[1])
	assert.Equal(t, "Accuracy", perf[2][0])
	// NaN is written as an empty cell
	assert.Equal(t, "Precision", perf[3][0])
	if len(perf[3]) > 1 {
		assert.Empty(t, perf[3][1])
	}

	conf, err := f.GetRows(SheetConfusion)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1", "12"}, conf[2])

	cls, err := f.GetRows(SheetClassification)
	require.NoError(t, err)
	assert.Equal(t, "accuracy", cls[3][0])
	assert.Equal(t, model.ReportMacroAvg, cls[4][0])
}
