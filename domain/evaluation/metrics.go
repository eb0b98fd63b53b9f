package evaluation

import "math"

// EvaluateOptions tunes the full evaluation bundle. The zero value asks for
// an optimized threshold, a calibration curve, and the default bin count.
type EvaluateOptions struct {
	// Threshold overrides Youden's J optimization when non-nil.
	Threshold *float64
	// SkipCalibration drops the calibration curve from the bundle.
	SkipCalibration bool
	// CalibrationBins defaults to DefaultCalibrationBins when zero.
	CalibrationBins int
}

// EvaluateModel computes the full metric bundle for one set of predictions:
// ROC curve and AUC, the operating threshold (optimized or supplied), the
// confusion matrix and point metrics at that threshold, and optionally the
// calibration curve.
func EvaluateModel(labels, probabilities []float64, opts EvaluateOptions) (*ModelMetrics, error) {
	roc, err := ComputeROC(labels, probabilities)
	if err != nil {
		return nil, err
	}

	var thresholdResult *ThresholdResult
	if opts.Threshold != nil {
		thresholdResult, err = EvaluateThreshold(labels, probabilities, *opts.Threshold)
	} else {
		thresholdResult, err = optimizeOverCurve(roc, labels, probabilities)
	}
	if err != nil {
		return nil, err
	}

	cm, err := ComputeConfusionMatrix(labels, probabilities, thresholdResult.Threshold)
	if err != nil {
		return nil, err
	}

	metrics := &ModelMetrics{
		Accuracy:          cm.Accuracy(),
		Precision:         cm.Precision(),
		Recall:            cm.Recall(),
		F1Score:           cm.F1(),
		ROCAUC:            roc.AUC(),
		ThresholdAnalysis: *thresholdResult,
		ROCCurve:          roc,
		ConfusionMatrix:   cm,
	}

	if !opts.SkipCalibration {
		bins := opts.CalibrationBins
		if bins == 0 {
			bins = DefaultCalibrationBins
		}
		// Calibration failing on thin data is not fatal to the bundle.
		if cal, calErr := ComputeCalibration(labels, probabilities, bins); calErr == nil {
			metrics.CalibrationCurve = cal
		}
	}

	return metrics, nil
}

// Confidence scores how far a probability sits from the decision threshold,
// normalized to [0, 1] by the largest possible distance on that side.
func Confidence(probability, threshold float64) float64 {
	maxDistance := math.Max(threshold, 1-threshold)
	if maxDistance == 0 {
		return 0.0
	}
	return math.Abs(probability-threshold) / maxDistance
}

// ConfidenceScores applies Confidence to every probability.
func ConfidenceScores(probabilities []float64, threshold float64) []float64 {
	scores := make([]float64, len(probabilities))
	for i, p := range probabilities {
		scores[i] = Confidence(p, threshold)
	}
	return scores
}
