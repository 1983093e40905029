package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Point metric names. They are the keys of performance_metrics in the
// stored metadata document.
const (
	MetricAccuracy         = "Accuracy"
	MetricPrecision        = "Precision"
	MetricRecall           = "Recall"
	MetricROCAUC           = "ROC AUC"
	MetricLogLoss          = "Log Loss"
	MetricPseudoR2McFadden = "Pseudo R² (McFadden)"
	MetricLnLNull          = "LR0"
	MetricLnLFull          = "LRF"
	MetricLR               = "Likelihood Ratio (LR)"
	MetricPseudoR2         = "Pseudo R²"
	MetricRp               = "Rp² (Prediction Quality)"
	MetricHitRate          = "Correct Predictions (%)"
	MetricChi2Critical     = "chi2"
)

var metricOrder = []string{
	MetricAccuracy, MetricPrecision, MetricRecall, MetricROCAUC, MetricLogLoss,
	MetricPseudoR2McFadden, MetricLnLNull, MetricLnLFull, MetricLR, MetricPseudoR2,
	MetricRp, MetricHitRate, MetricChi2Critical,
}

// Metric is one named scalar
type Metric struct {
	Name  string
	Value float64
}

// PointMetrics is an ordered name -> scalar table
type PointMetrics []Metric

// Get returns a metric value by name
func (m PointMetrics) Get(name string) (float64, bool) {
	for _, x := range m {
		if x.Name == name {
			return x.Value, true
		}
	}
	return math.NaN(), false
}

// Set replaces or appends a metric
func (m *PointMetrics) Set(name string, v float64) {
	for i := range *m {
		if (*m)[i].Name == name {
			(*m)[i].Value = v
			return
		}
	}
	*m = append(*m, Metric{Name: name, Value: v})
}

func (m PointMetrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, x := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(x.Name)
		if err != nil {
			return nil, err
		}
		val, err := Float(x.Value).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *PointMetrics) UnmarshalJSON(data []byte) error {
	raw := map[string]Float{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(PointMetrics, 0, len(raw))
	for _, name := range metricOrder {
		if v, ok := raw[name]; ok {
			out = append(out, Metric{Name: name, Value: float64(v)})
			delete(raw, name)
		}
	}
	rest := make([]string, 0, len(raw))
	for name := range raw {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, Metric{Name: name, Value: float64(raw[name])})
	}
	*m = out
	return nil
}

// ReportRow is one line of a classification report
type ReportRow struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   float64
}

// ClassificationReport holds per-class rows followed by the macro and
// weighted averages, plus overall accuracy.
type ClassificationReport struct {
	Rows     []ReportRow
	Accuracy float64
}

const (
	ReportMacroAvg    = "macro avg"
	ReportWeightedAvg = "weighted avg"
	reportAccuracy    = "accuracy"
)

// Row returns a report row by label
func (r ClassificationReport) Row(label string) (ReportRow, bool) {
	for _, row := range r.Rows {
		if row.Label == label {
			return row, true
		}
	}
	return ReportRow{}, false
}

type reportCell struct {
	Precision Float `json:"precision"`
	Recall    Float `json:"recall"`
	F1        Float `json:"f1-score"`
	Support   Float `json:"support"`
}

func (r ClassificationReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}
	for _, row := range r.Rows {
		if row.Label == ReportMacroAvg {
			if err := write(reportAccuracy, Float(r.Accuracy)); err != nil {
				return nil, err
			}
		}
		cell := reportCell{Float(row.Precision), Float(row.Recall), Float(row.F1), Float(row.Support)}
		if err := write(row.Label, cell); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *ClassificationReport) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := ClassificationReport{Accuracy: math.NaN()}
	if acc, ok := raw[reportAccuracy]; ok {
		var f Float
		if err := json.Unmarshal(acc, &f); err != nil {
			return fmt.Errorf("classification report accuracy: %w", err)
		}
		out.Accuracy = float64(f)
		delete(raw, reportAccuracy)
	}
	labels := make([]string, 0, len(raw))
	for label := range raw {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return reportRank(labels[i]) < reportRank(labels[j]) ||
			(reportRank(labels[i]) == reportRank(labels[j]) && labels[i] < labels[j])
	})
	for _, label := range labels {
		var cell reportCell
		if err := json.Unmarshal(raw[label], &cell); err != nil {
			return fmt.Errorf("classification report row %q: %w", label, err)
		}
		out.Rows = append(out.Rows, ReportRow{
			Label:     label,
			Precision: float64(cell.Precision),
			Recall:    float64(cell.Recall),
			F1:        float64(cell.F1),
			Support:   float64(cell.Support),
		})
	}
	*r = out
	return nil
}

func reportRank(label string) int {
	switch label {
	case ReportMacroAvg:
		return 1
	case ReportWeightedAvg:
		return 2
	}
	return 0
}

// ConfusionMatrix counts outcomes as Counts[actual][predicted]
type ConfusionMatrix struct {
	Counts [2][2]int
}

func (c ConfusionMatrix) TN() int { return c.Counts[0][0] }
func (c ConfusionMatrix) FP() int { return c.Counts[0][1] }
func (c ConfusionMatrix) FN() int { return c.Counts[1][0] }
func (c ConfusionMatrix) TP() int { return c.Counts[1][1] }

// Total returns the number of classified rows
func (c ConfusionMatrix) Total() int {
	return c.TN() + c.FP() + c.FN() + c.TP()
}

// MarshalJSON writes the matrix column-major: predicted label -> actual label -> count.
func (c ConfusionMatrix) MarshalJSON() ([]byte, error) {
	out := map[string]map[string]int{}
	for pred := 0; pred < 2; pred++ {
		col := map[string]int{}
		for actual := 0; actual < 2; actual++ {
			col[strconv.Itoa(actual)] = c.Counts[actual][pred]
		}
		out[strconv.Itoa(pred)] = col
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats absent cells as zero
func (c *ConfusionMatrix) UnmarshalJSON(data []byte) error {
	raw := map[string]map[string]int{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out ConfusionMatrix
	for pred := 0; pred < 2; pred++ {
		col := raw[strconv.Itoa(pred)]
		for actual := 0; actual < 2; actual++ {
			out.Counts[actual][pred] = col[strconv.Itoa(actual)]
		}
	}
	*c = out
	return nil
}

// FeatureStat is one row of the coefficient significance table
type FeatureStat struct {
	Feature     string `json:"Feature"`
	Coefficient Float  `json:"Coefficient"`
	PValue      Float  `json:"P-value"`
	StdError    Float  `json:"Std Error"`
}

// MetricsBundle is everything the evaluator derives from a fitted model and a
// held-out set. It is immutable once computed.
type MetricsBundle struct {
	ModelType   string               `json:"model_type"`
	Converged   bool                 `json:"converged"`
	Degraded    bool                 `json:"degraded"`
	Performance PointMetrics         `json:"performance_metrics"`
	Report      ClassificationReport `json:"classification_report"`
	Confusion   ConfusionMatrix      `json:"confusion_matrix"`
	Statistics  []FeatureStat        `json:"model_statistics"`
}

// Metric returns a point metric; NaN when absent
func (b *MetricsBundle) Metric(name string) float64 {
	v, _ := b.Performance.Get(name)
	return v
}
