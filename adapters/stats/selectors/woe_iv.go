package selectors

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// woeSmoothing is the continuity correction added to per-bin counts so a
// bin with zero goods or zero bads keeps a finite weight of evidence.
const woeSmoothing = 0.5

// WoeIvSelector scores features by Information Value computed over
// quantile-binned Weight of Evidence. Good means the non-event class
// (label 0); WoE per bin is ln(pct_good / pct_bad).
type WoeIvSelector struct {
	params selection.WoeIvParams
}

func NewWoeIvSelector(params selection.WoeIvParams) *WoeIvSelector {
	return &WoeIvSelector{params: params}
}

func (s *WoeIvSelector) Method() selection.Method {
	return selection.MethodWoeIV
}

func (s *WoeIvSelector) Description() string {
	return "Scores features by Information Value over quantile-binned Weight of Evidence"
}

func (s *WoeIvSelector) Select(ctx context.Context, ds *dataset.Dataset) (*selection.FeatureSelectionResult, error) {
	totalGood, totalBad := 0, 0
	for _, label := range ds.Labels {
		if label == 0 {
			totalGood++
		} else {
			totalBad++
		}
	}
	// Floor at 1 keeps the percentages defined on single-class data.
	if totalGood < 1 {
		totalGood = 1
	}
	if totalBad < 1 {
		totalBad = 1
	}

	n := ds.ColumnCount()
	scores := make([]float64, n)
	selected := make([]bool, n)
	perFeature := make([]map[string]any, n)

	sumIV, maxIV := 0.0, 0.0
	for j := 0; j < n; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iv, err := s.informationValue(ds.Column(j), ds.Labels, totalGood, totalBad)
		if err != nil {
			return nil, err
		}
		scores[j] = iv
		selected[j] = iv >= s.params.IVThreshold
		perFeature[j] = map[string]any{"iv_category": selection.IVCategory(iv)}
		sumIV += iv
		if iv > maxIV {
			maxIV = iv
		}
	}

	methodMeta := map[string]any{
		"iv_threshold": s.params.IVThreshold,
		"n_bins":       s.params.NBins,
		"mean_iv":      sumIV / float64(n),
		"max_iv":       maxIV,
	}
	return selection.BuildResult(s.Method(), ds.FeatureNames, scores, selected, perFeature, methodMeta)
}

func (s *WoeIvSelector) informationValue(col, labels []float64, totalGood, totalBad int) (float64, error) {
	bins, nBins, err := s.assignBins(col)
	if err != nil {
		return 0, err
	}

	good := make([]int, nBins)
	bad := make([]int, nBins)
	for i, b := range bins {
		if labels[i] == 0 {
			good[b]++
		} else {
			bad[b]++
		}
	}

	iv := 0.0
	for b := 0; b < nBins; b++ {
		if good[b]+bad[b] == 0 {
			continue
		}
		pctGood := (float64(good[b]) + woeSmoothing) / float64(totalGood)
		pctBad := (float64(bad[b]) + woeSmoothing) / float64(totalBad)
		iv += (pctGood - pctBad) * math.Log(pctGood/pctBad)
	}
	return iv, nil
}

// assignBins maps each value to a bin id. Columns with at most two distinct
// values become one bin per value; everything else gets quantile bins with
// duplicate edges collapsed, so degenerate columns end up with fewer, wider
// bins.
func (s *WoeIvSelector) assignBins(col []float64) ([]int, int, error) {
	distinct := make(map[float64]struct{}, len(col))
	for _, v := range col {
		distinct[v] = struct{}{}
	}

	if len(distinct) <= 2 {
		vals := make([]float64, 0, len(distinct))
		for v := range distinct {
			vals = append(vals, v)
		}
		sort.Float64s(vals)
		id := make(map[float64]int, len(vals))
		for i, v := range vals {
			id[v] = i
		}
		bins := make([]int, len(col))
		for i, v := range col {
			bins[i] = id[v]
		}
		return bins, len(vals), nil
	}

	nBins := s.params.NBins
	if len(distinct) < nBins {
		nBins = len(distinct)
	}

	low, err := stats.Min(col)
	if err != nil {
		return nil, 0, err
	}
	edges := make([]float64, 0, nBins+1)
	edges = append(edges, low)
	for i := 1; i <= nBins; i++ {
		q, err := stats.Percentile(col, 100*float64(i)/float64(nBins))
		if err != nil {
			return nil, 0, err
		}
		if q > edges[len(edges)-1] {
			edges = append(edges, q)
		}
	}
	if len(edges) < 2 {
		return make([]int, len(col)), 1, nil
	}

	bins := make([]int, len(col))
	for i, v := range col {
		bins[i] = locateBin(edges, v)
	}
	return bins, len(edges) - 1, nil
}

// locateBin finds the interval (edges[j], edges[j+1]] holding v; the first
// interval is closed on the left and the last absorbs anything above the
// top edge.
func locateBin(edges []float64, v float64) int {
	last := len(edges) - 2
	for j := 0; j < last; j++ {
		if v <= edges[j+1] {
			return j
		}
	}
	return last
}
