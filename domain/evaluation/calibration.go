package evaluation

import (
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// DefaultCalibrationBins matches the conventional 10-bin reliability diagram.
const DefaultCalibrationBins = 10

// ComputeCalibration bins probabilities into nBins equal-width bins over
// [0, 1] and reports, per non-empty bin, the mean predicted probability
// against the observed positive fraction. Empty bins are dropped instead of
// being reported as NaN points.
func ComputeCalibration(labels, probabilities []float64, nBins int) (*CalibrationCurve, error) {
	if nBins <= 0 {
		return nil, core.NewParameterError("n_bins", "must be positive")
	}
	if err := validatePair(labels, probabilities); err != nil {
		return nil, err
	}

	counts := make([]int, nBins)
	sumTrue := make([]float64, nBins)
	sumPred := make([]float64, nBins)

	for i, p := range probabilities {
		idx := int(p * float64(nBins))
		if idx >= nBins {
			idx = nBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
		sumPred[idx] += p
		if labels[i] == 1 {
			sumTrue[idx]++
		}
	}

	curve := &CalibrationCurve{NBins: nBins}
	for b := 0; b < nBins; b++ {
		if counts[b] == 0 {
			continue
		}
		curve.ProbTrue = append(curve.ProbTrue, sumTrue[b]/float64(counts[b]))
		curve.ProbPred = append(curve.ProbPred, sumPred[b]/float64(counts[b]))
	}

	return curve, nil
}
