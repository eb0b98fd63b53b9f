package selection

import (
	"fmt"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// Per-method parameter structs. Defaults mirror the request schema the
// selection API accepts; Validate rejects out-of-range values before any
// compute runs.

// TreeImportanceParams configures importance-based selection. When TopK is
// set it wins over Threshold; with neither set, every feature with non-zero
// importance is selected.
type TreeImportanceParams struct {
	ModelType string   `json:"model_type"` // random_forest or gradient_boosting
	TopK      *int     `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

func DefaultTreeImportanceParams() TreeImportanceParams {
	return TreeImportanceParams{ModelType: "random_forest"}
}

func (p TreeImportanceParams) Validate() error {
	if p.ModelType != "random_forest" && p.ModelType != "gradient_boosting" {
		return core.NewParameterError("model_type",
			fmt.Sprintf("must be random_forest or gradient_boosting, got %q", p.ModelType))
	}
	if p.TopK != nil && *p.TopK < 1 {
		return core.NewParameterError("top_k", "must be at least 1")
	}
	if p.Threshold != nil && (*p.Threshold < 0 || *p.Threshold > 1) {
		return core.NewParameterError("threshold", "must be in [0, 1]")
	}
	return nil
}

// SelectionMode names which of the three modes the params resolve to.
func (p TreeImportanceParams) SelectionMode() string {
	switch {
	case p.TopK != nil:
		return "top_k"
	case p.Threshold != nil:
		return "threshold"
	default:
		return "non_zero"
	}
}

// LassoParams configures L1-penalized logistic regression selection.
// C is the inverse regularization strength: lower C, fewer features.
type LassoParams struct {
	C       float64 `json:"C"`
	MaxIter int     `json:"max_iter"`
}

func DefaultLassoParams() LassoParams {
	return LassoParams{C: 1.0, MaxIter: 1000}
}

func (p LassoParams) Validate() error {
	if p.C <= 0 {
		return core.NewParameterError("C", "must be positive")
	}
	if p.MaxIter < 1 {
		return core.NewParameterError("max_iter", "must be at least 1")
	}
	return nil
}

// WoeIvParams configures Weight of Evidence / Information Value selection.
type WoeIvParams struct {
	NBins       int     `json:"n_bins"`
	IVThreshold float64 `json:"iv_threshold"`
}

func DefaultWoeIvParams() WoeIvParams {
	return WoeIvParams{NBins: 10, IVThreshold: 0.1}
}

func (p WoeIvParams) Validate() error {
	if p.NBins < 2 {
		return core.NewParameterError("n_bins", "must be at least 2")
	}
	if p.IVThreshold < 0 {
		return core.NewParameterError("iv_threshold", "cannot be negative")
	}
	return nil
}

// BorutaParams configures the shadow-feature selection procedure.
type BorutaParams struct {
	NIterations      int     `json:"n_iterations"`
	ConfidenceLevel  float64 `json:"confidence_level"`
	IncludeTentative bool    `json:"include_tentative"`
}

func DefaultBorutaParams() BorutaParams {
	return BorutaParams{NIterations: 100, ConfidenceLevel: 0.95}
}

func (p BorutaParams) Validate() error {
	if p.NIterations < 1 {
		return core.NewParameterError("n_iterations", "must be at least 1")
	}
	if p.ConfidenceLevel <= 0 || p.ConfidenceLevel >= 1 {
		return core.NewParameterError("confidence_level", "must be in (0, 1)")
	}
	return nil
}
