package selection

import (
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// Method identifies one of the supported feature selection algorithms.
type Method string

const (
	MethodTreeImportance Method = "tree_importance"
	MethodLasso          Method = "lasso"
	MethodWoeIV          Method = "woe_iv"
	MethodBoruta         Method = "boruta"
)

// SupportedMethods lists the closed set of selection methods. A SHAP-based
// method existed upstream but was removed and stays out of this set.
func SupportedMethods() []string {
	return []string{
		string(MethodTreeImportance),
		string(MethodLasso),
		string(MethodWoeIV),
		string(MethodBoruta),
	}
}

// ParseMethod validates a method identifier against the supported set.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodTreeImportance, MethodLasso, MethodWoeIV, MethodBoruta:
		return Method(s), nil
	default:
		return "", core.NewUnsupportedMethodError(s, SupportedMethods())
	}
}

// FeatureScore reports one feature's standing under a selection method.
type FeatureScore struct {
	FeatureName string         `json:"feature_name"`
	Score       float64        `json:"score"`
	Selected    bool           `json:"selected"`
	Rank        int            `json:"rank"` // 1 = highest score
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// FeatureSelectionResult is the standardized output shape shared by every
// method. SelectedFeatures keeps the original column order; FeatureScores
// is sorted by rank.
type FeatureSelectionResult struct {
	Method           Method         `json:"method"`
	SelectedFeatures []string       `json:"selected_features"`
	FeatureScores    []FeatureScore `json:"feature_scores"`
	NSelected        int            `json:"n_selected"`
	NTotal           int            `json:"n_total"`
	MethodMetadata   map[string]any `json:"method_metadata,omitempty"`
}

// BorutaStatus classifies a feature after the shadow-feature test.
type BorutaStatus string

const (
	BorutaConfirmed BorutaStatus = "confirmed"
	BorutaTentative BorutaStatus = "tentative"
	BorutaRejected  BorutaStatus = "rejected"
)

// IV category bands. Descriptive only; selection uses the iv_threshold.
const (
	IVThresholdUseless = 0.02
	IVThresholdWeak    = 0.1
	IVThresholdMedium  = 0.3
	IVThresholdStrong  = 0.5
)

// IVCategory maps an Information Value score onto its interpretive band.
func IVCategory(iv float64) string {
	switch {
	case iv < IVThresholdUseless:
		return "useless"
	case iv < IVThresholdWeak:
		return "weak"
	case iv < IVThresholdMedium:
		return "medium"
	case iv < IVThresholdStrong:
		return "strong"
	default:
		return "suspicious"
	}
}
