package evaluation

import (
	"math"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// jTolerance treats Youden's J values within this distance as tied, so the
// deterministic tie-break below is not defeated by float rounding.
const jTolerance = 1e-12

// FindOptimalThreshold picks the operating threshold maximizing Youden's
// J statistic (J = TPR - FPR) over the ROC curve. When several points tie
// for the maximum, the threshold closest to 0.5 wins, which keeps the
// choice stable and avoids extreme cutoffs that tie numerically.
func FindOptimalThreshold(labels, probabilities []float64) (*ThresholdResult, error) {
	roc, err := ComputeROC(labels, probabilities)
	if err != nil {
		return nil, err
	}
	return optimizeOverCurve(roc, labels, probabilities)
}

// EvaluateThreshold reports the operating point metrics at one explicit
// threshold without any search.
func EvaluateThreshold(labels, probabilities []float64, threshold float64) (*ThresholdResult, error) {
	if threshold < 0 || threshold > 1 {
		return nil, core.NewParameterError("threshold", "must be in [0, 1]")
	}
	cm, err := ComputeConfusionMatrix(labels, probabilities, threshold)
	if err != nil {
		return nil, err
	}
	return resultAt(threshold, cm), nil
}

func optimizeOverCurve(roc *ROCCurve, labels, probabilities []float64) (*ThresholdResult, error) {
	maxJ := math.Inf(-1)
	for i := 0; i < roc.Len(); i++ {
		if j := roc.TPR[i] - roc.FPR[i]; j > maxJ {
			maxJ = j
		}
	}

	bestIdx := -1
	bestDist := math.Inf(1)
	for i := 0; i < roc.Len(); i++ {
		j := roc.TPR[i] - roc.FPR[i]
		if j < maxJ-jTolerance {
			continue
		}
		if dist := math.Abs(roc.Thresholds[i] - 0.5); dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}

	threshold := roc.Thresholds[bestIdx]
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = 0.5
	}

	cm, err := ComputeConfusionMatrix(labels, probabilities, threshold)
	if err != nil {
		return nil, err
	}
	return resultAt(threshold, cm), nil
}

func resultAt(threshold float64, cm *ConfusionMatrix) *ThresholdResult {
	sensitivity := cm.Recall()
	specificity := cm.Specificity()
	return &ThresholdResult{
		Threshold:   threshold,
		Sensitivity: sensitivity,
		Specificity: specificity,
		YoudenJ:     sensitivity + specificity - 1,
		Precision:   cm.Precision(),
		F1Score:     cm.F1(),
	}
}
