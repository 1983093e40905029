// Package evaluate derives goodness-of-fit and classification metrics of a
// fitted binary model on a held-out set.
package evaluate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"studentperf/adapters/stats/glm"
	"studentperf/adapters/stats/link"
	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"

	"gonum.org/v1/gonum/stat/distuv"
)

// Scorer is what the evaluator needs from a fitted classifier
type Scorer interface {
	Kind() model.Kind
	Result() (*model.FitResult, error)
	PredictProba(X *frame.Frame) ([]float64, error)
	LogLikelihoodNull(y frame.Target) float64
}

// ChiSquareConfidence is the level of the reference χ² critical value
const ChiSquareConfidence = 0.95

// Evaluate scores a fitted classifier on (X, y). Undefined ratios are NaN.
func Evaluate(c Scorer, X *frame.Frame, y frame.Target) (*model.MetricsBundle, error) {
	params, err := c.Result()
	if err != nil {
		return nil, err
	}
	if X.Rows() != len(y) {
		return nil, core.NewTrainingDataError(fmt.Sprintf("%d evaluation rows for %d labels", X.Rows(), len(y)))
	}
	if len(y) == 0 {
		return nil, core.NewTrainingDataError("no evaluation rows")
	}
	if _, err := frame.NewTarget(y); err != nil {
		return nil, err
	}

	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	pred := glm.Classify(proba)
	cm := Confusion(y, pred)
	n := float64(len(y))

	lnLFull := 0.0
	for i := range proba {
		lnLFull += link.LogLikelihood(y[i], proba[i])
	}
	lnLNull := c.LogLikelihoodNull(y)
	lr := 2 * (lnLFull - lnLNull)

	accuracy := float64(cm.TP()+cm.TN()) / n

	var perf model.PointMetrics
	perf.Set(model.MetricAccuracy, accuracy)
	perf.Set(model.MetricPrecision, ratio(cm.TP(), cm.TP()+cm.FP()))
	perf.Set(model.MetricRecall, ratio(cm.TP(), cm.TP()+cm.FN()))
	perf.Set(model.MetricROCAUC, ROCAUC(y, proba))
	perf.Set(model.MetricLogLoss, -lnLFull/n)
	perf.Set(model.MetricPseudoR2McFadden, 1-lnLFull/lnLNull)
	perf.Set(model.MetricLnLNull, lnLNull)
	perf.Set(model.MetricLnLFull, lnLFull)
	perf.Set(model.MetricLR, lr)
	perf.Set(model.MetricPseudoR2, 1-1/(1+lr/n))
	perf.Set(model.MetricRp, predictionQuality(y.Mean(), accuracy))
	perf.Set(model.MetricHitRate, float64(cm.Counts[0][0]+cm.Counts[1][1])/n*100)
	perf.Set(model.MetricChi2Critical, chiSquareCritical(len(params.Coefficients)-1))

	return &model.MetricsBundle{
		ModelType:   strings.ToUpper(string(c.Kind())),
		Converged:   params.Converged,
		Degraded:    params.Degraded,
		Performance: perf,
		Report:      Report(y, pred),
		Confusion:   cm,
		Statistics:  featureStats(params),
	}, nil
}

// Confusion cross-tabulates actual against predicted labels
func Confusion(y frame.Target, pred []int) model.ConfusionMatrix {
	var cm model.ConfusionMatrix
	for i, actual := range y {
		cm.Counts[int(actual)][pred[i]]++
	}
	return cm
}

// ROCAUC is the Mann-Whitney rank statistic of the scores, ties sharing the
// average rank. It is NaN when one class is absent.
func ROCAUC(y frame.Target, scores []float64) float64 {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var pos, neg, rankSum float64
	for i, label := range y {
		if label == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}

// Report builds per-class precision, recall and F1 for every label seen in
// y or pred, followed by macro and support-weighted averages. Zero
// denominators give 0, as in the usual text report.
func Report(y frame.Target, pred []int) model.ClassificationReport {
	cm := Confusion(y, pred)
	present := [2]bool{}
	for i := range y {
		present[int(y[i])] = true
		present[pred[i]] = true
	}

	var rows []model.ReportRow
	var macro, weighted model.ReportRow
	total, labels := 0.0, 0.0
	for class := 0; class < 2; class++ {
		if !present[class] {
			continue
		}
		tp := cm.Counts[class][class]
		predicted := cm.Counts[0][class] + cm.Counts[1][class]
		support := cm.Counts[class][0] + cm.Counts[class][1]
		p := zeroRatio(tp, predicted)
		r := zeroRatio(tp, support)
		f1 := 0.0
		if p+r > 0 {
			f1 = 2 * p * r / (p + r)
		}
		rows = append(rows, model.ReportRow{
			Label: fmt.Sprint(class), Precision: p, Recall: r, F1: f1, Support: float64(support),
		})
		s := float64(support)
		macro.Precision += p
		macro.Recall += r
		macro.F1 += f1
		weighted.Precision += p * s
		weighted.Recall += r * s
		weighted.F1 += f1 * s
		total += s
		labels++
	}

	macro.Label, macro.Support = model.ReportMacroAvg, total
	macro.Precision /= labels
	macro.Recall /= labels
	macro.F1 /= labels
	weighted.Label, weighted.Support = model.ReportWeightedAvg, total
	weighted.Precision /= total
	weighted.Recall /= total
	weighted.F1 /= total

	return model.ClassificationReport{
		Rows:     append(rows, macro, weighted),
		Accuracy: float64(cm.TP()+cm.TN()) / total,
	}
}

func featureStats(params *model.FitResult) []model.FeatureStat {
	out := make([]model.FeatureStat, len(params.Names))
	for i, name := range params.Names {
		out[i] = model.FeatureStat{
			Feature:     name,
			Coefficient: model.Float(params.Coefficients[i]),
			PValue:      model.Float(at(params.PValues, i)),
			StdError:    model.Float(at(params.StdErrors, i)),
		}
	}
	return out
}

// predictionQuality compares the error share of the model with the error
// share of always predicting the majority class
func predictionQuality(mean, accuracy float64) float64 {
	w0 := math.Min(mean, 1-mean)
	if w0 == 0 {
		return math.NaN()
	}
	return 1 - (1-accuracy)/w0
}

func chiSquareCritical(df int) float64 {
	if df < 1 {
		return math.NaN()
	}
	return distuv.ChiSquared{K: float64(df)}.Quantile(ChiSquareConfidence)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

func zeroRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return math.NaN()
}
