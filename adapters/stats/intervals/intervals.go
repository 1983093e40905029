// Package intervals groups rows into Sturges-rule intervals of one feature
// and averages a probability column per interval.
package intervals

import (
	"fmt"
	"math"
	"strconv"

	"studentperf/domain/frame"

	"github.com/montanaflynn/stats"
)

// Bin is one interval of the feature with its mean probability. Mean is 0
// when no row of the interval carries a probability.
type Bin struct {
	Label string  `json:"interval"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Mean  float64 `json:"mean_probability"`
	Count int     `json:"count"`
}

// Result is the ordered list of intervals
type Result []Bin

// Map returns the label -> mean probability view. Labels are unique, so no
// interval is lost.
func (r Result) Map() map[string]float64 {
	out := make(map[string]float64, len(r))
	for _, b := range r {
		out[b.Label] = b.Mean
	}
	return out
}

// SturgesCount returns floor(1 + 3.322·log10(n))
func SturgesCount(n int) int {
	return int(math.Floor(1 + 3.322*math.Log10(float64(n))))
}

// Edges returns the r+2 interval edges for values spanning [min, max]:
// a lower bound, then min+h/2, then r further steps of h = (max-min)/r.
// The lower bound is 0 unless min is not positive, in which case it is min.
func Edges(min, max float64, n int) []float64 {
	r := SturgesCount(n)
	if r < 1 {
		r = 1
	}
	h := (max - min) / float64(r)
	lo := 0.0
	if min <= 0 {
		lo = min
	}
	edges := make([]float64, 0, r+2)
	edges = append(edges, lo, min+h/2)
	for i := 0; i < r; i++ {
		edges = append(edges, edges[len(edges)-1]+h)
	}
	return edges
}

// maxLabelDecimals bounds the precision Labels will widen to
const maxLabelDecimals = 9

// Labels formats one "lo-hi" label per interval with one decimal. When
// rounding would make two edges print the same, the precision grows until
// every edge prints distinctly, so labels stay unique keys of Map.
func Labels(edges []float64) ([]string, error) {
	for decimals := 1; decimals <= maxLabelDecimals; decimals++ {
		text := make([]string, len(edges))
		seen := make(map[string]bool, len(edges))
		distinct := true
		for i, e := range edges {
			text[i] = strconv.FormatFloat(e, 'f', decimals, 64)
			if seen[text[i]] {
				distinct = false
				break
			}
			seen[text[i]] = true
		}
		if !distinct {
			continue
		}
		labels := make([]string, len(edges)-1)
		for i := range labels {
			labels[i] = text[i] + "-" + text[i+1]
		}
		return labels, nil
	}
	return nil, fmt.Errorf("interval edges %v are too close to label", edges)
}

// BinAndAverage assigns every row to the right-closed interval containing
// its feature value, the lowest edge inclusive, and averages the probability
// column per interval. NaN probabilities are skipped. When every feature
// value is equal the result is a single interval "{min}-{min+1}".
func BinAndAverage(df *frame.Frame, feature, probColumn string) (Result, error) {
	values, err := df.Column(feature)
	if err != nil {
		return nil, err
	}
	probs, err := df.Column(probColumn)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return Result{}, nil
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("feature %q row %d is NaN", feature, i)
		}
	}

	min, _ := stats.Min(values)
	max, _ := stats.Max(values)

	var edges []float64
	if min == max {
		edges = []float64{min, min + 1}
	} else {
		edges = Edges(min, max, len(values))
	}

	labels, err := Labels(edges)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", feature, err)
	}
	bins := make(Result, len(edges)-1)
	members := make([][]float64, len(bins))
	for i := range bins {
		bins[i] = Bin{
			Label: labels[i],
			Lo:    edges[i],
			Hi:    edges[i+1],
		}
	}
	for row, v := range values {
		i := locate(edges, v)
		if i < 0 {
			return nil, fmt.Errorf("feature %q value %v outside [%v, %v]", feature, v, edges[0], edges[len(edges)-1])
		}
		bins[i].Count++
		if p := probs[row]; !math.IsNaN(p) {
			members[i] = append(members[i], p)
		}
	}
	for i := range bins {
		if len(members[i]) == 0 {
			continue
		}
		bins[i].Mean, err = stats.Mean(members[i])
		if err != nil {
			return nil, fmt.Errorf("interval %s: %w", bins[i].Label, err)
		}
	}
	return bins, nil
}

// locate returns the index of the interval (edges[i], edges[i+1]] holding v,
// with edges[0] itself in the first interval; -1 when v is outside
func locate(edges []float64, v float64) int {
	if v == edges[0] {
		return 0
	}
	for i := 0; i+1 < len(edges); i++ {
		if v > edges[i] && v <= edges[i+1] {
			return i
		}
	}
	return -1
}
