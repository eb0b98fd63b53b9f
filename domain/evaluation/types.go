package evaluation

// ============================================================================
// EVALUATION RESULT TYPES
// ============================================================================

// ROCCurve holds one point per distinct predicted probability, swept as a
// candidate threshold in descending order. Arrays are parallel and read-only
// once computed.
type ROCCurve struct {
	FPR        []float64 `json:"fpr"`
	TPR        []float64 `json:"tpr"`
	Thresholds []float64 `json:"thresholds"`
}

// ConfusionMatrix counts prediction outcomes at one threshold.
// Matrix layout is [[TN, FP], [FN, TP]].
type ConfusionMatrix struct {
	Matrix         [][]int `json:"matrix"`
	TrueNegatives  int     `json:"true_negatives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	TruePositives  int     `json:"true_positives"`
}

// CalibrationCurve compares mean predicted probability to the observed
// positive fraction per bin. Empty bins are omitted, so the arrays may be
// shorter than NBins.
type CalibrationCurve struct {
	ProbTrue []float64 `json:"prob_true"`
	ProbPred []float64 `json:"prob_pred"`
	NBins    int       `json:"n_bins"`
}

// ThresholdResult is a single operating point on the ROC curve.
type ThresholdResult struct {
	Threshold   float64 `json:"threshold"`
	Sensitivity float64 `json:"sensitivity"` // true positive rate
	Specificity float64 `json:"specificity"` // true negative rate
	YoudenJ     float64 `json:"youden_j"`    // sensitivity + specificity - 1
	Precision   float64 `json:"precision"`
	F1Score     float64 `json:"f1_score"`
}

// ModelMetrics bundles every evaluation output for one model run.
type ModelMetrics struct {
	Accuracy          float64           `json:"accuracy"`
	Precision         float64           `json:"precision"`
	Recall            float64           `json:"recall"`
	F1Score           float64           `json:"f1_score"`
	ROCAUC            float64           `json:"roc_auc"`
	ThresholdAnalysis ThresholdResult   `json:"threshold_analysis"`
	ROCCurve          *ROCCurve         `json:"roc_curve"`
	ConfusionMatrix   *ConfusionMatrix  `json:"confusion_matrix"`
	CalibrationCurve  *CalibrationCurve `json:"calibration_curve,omitempty"`
}
