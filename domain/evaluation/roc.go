package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// ComputeROC sweeps all distinct predicted probabilities as candidate
// thresholds, highest first. At each threshold t a sample is predicted
// positive when its probability >= t, so the curve walks from the strictest
// cutoff toward predicting everything positive at (1, 1).
//
// Labels with a single class make the curve undefined and return an
// insufficient data error instead of NaN rates.
func ComputeROC(labels, probabilities []float64) (*ROCCurve, error) {
	if err := validatePair(labels, probabilities); err != nil {
		return nil, err
	}

	positives := 0
	for _, y := range labels {
		if y == 1 {
			positives++
		}
	}
	negatives := len(labels) - positives
	if positives == 0 || negatives == 0 {
		return nil, fmt.Errorf("%w: ROC requires both classes, found %d positives and %d negatives",
			core.ErrSingleClass, positives, negatives)
	}

	order := make([]int, len(probabilities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probabilities[order[a]] > probabilities[order[b]]
	})

	curve := &ROCCurve{}
	tp, fp := 0, 0
	i := 0
	for i < len(order) {
		threshold := probabilities[order[i]]
		// Consume every sample tied at this probability before emitting
		// the point, so tied thresholds collapse to one ROC point.
		for i < len(order) && probabilities[order[i]] == threshold {
			if labels[order[i]] == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		curve.Thresholds = append(curve.Thresholds, threshold)
		curve.TPR = append(curve.TPR, float64(tp)/float64(positives))
		curve.FPR = append(curve.FPR, float64(fp)/float64(negatives))
	}

	return curve, nil
}

// AUC integrates the curve with the trapezoidal rule, starting from the
// implicit (0, 0) origin. The sweep always ends at (1, 1).
func (r *ROCCurve) AUC() float64 {
	auc := 0.0
	prevFPR, prevTPR := 0.0, 0.0
	for i := range r.FPR {
		auc += (r.FPR[i] - prevFPR) * (r.TPR[i] + prevTPR) / 2
		prevFPR, prevTPR = r.FPR[i], r.TPR[i]
	}
	return auc
}

// Len returns the number of operating points on the curve.
func (r *ROCCurve) Len() int { return len(r.Thresholds) }

func validatePair(labels, probabilities []float64) error {
	if len(labels) == 0 || len(probabilities) == 0 {
		return fmt.Errorf("%w: labels and probabilities cannot be empty", core.ErrInvalidInput)
	}
	if len(labels) != len(probabilities) {
		return core.NewShapeMismatchError("probabilities", len(probabilities), len(labels))
	}
	for i, p := range probabilities {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: probability at index %d is not finite", core.ErrInvalidInput, i)
		}
	}
	return nil
}
