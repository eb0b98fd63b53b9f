package selectors

import (
	"context"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// MaxBorutaIterations caps the Boruta compute budget. Each iteration fits a
// full forest on a doubled feature matrix, so the ceiling is enforced here
// rather than left to the transport timeout.
const MaxBorutaIterations = 500

// Selector is implemented by each feature selection method.
type Selector interface {
	Method() selection.Method
	Description() string
	Select(ctx context.Context, ds *dataset.Dataset) (*selection.FeatureSelectionResult, error)
}

// Request names a method and carries its parameters. Nil parameter blocks
// fall back to the method defaults.
type Request struct {
	Method      selection.Method `json:"method"`
	RandomState int64            `json:"random_state"`

	TreeImportance *selection.TreeImportanceParams `json:"tree_importance,omitempty"`
	Lasso          *selection.LassoParams          `json:"lasso,omitempty"`
	WoeIv          *selection.WoeIvParams          `json:"woe_iv,omitempty"`
	Boruta         *selection.BorutaParams         `json:"boruta,omitempty"`
}

// MethodInfo describes one selection method for discovery endpoints.
type MethodInfo struct {
	Method      selection.Method  `json:"method"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters"`
}

// Engine dispatches selection requests to the method implementations.
type Engine struct {
	hyper ml.Hyperparameters
}

func NewEngine(hyper ml.Hyperparameters) *Engine {
	return &Engine{hyper: hyper}
}

// Run validates the dataset and parameters, then executes the requested
// method.
func (e *Engine) Run(ctx context.Context, ds *dataset.Dataset, req Request) (*selection.FeatureSelectionResult, error) {
	if ds == nil {
		return nil, core.ErrEmptyDataset
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	method, err := selection.ParseMethod(string(req.Method))
	if err != nil {
		return nil, err
	}

	sel, err := e.build(method, req)
	if err != nil {
		return nil, err
	}
	return sel.Select(ctx, ds)
}

func (e *Engine) build(method selection.Method, req Request) (Selector, error) {
	switch method {
	case selection.MethodTreeImportance:
		params := selection.DefaultTreeImportanceParams()
		if req.TreeImportance != nil {
			params = *req.TreeImportance
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
		return NewTreeImportanceSelector(params, e.hyper, req.RandomState), nil

	case selection.MethodLasso:
		params := selection.DefaultLassoParams()
		if req.Lasso != nil {
			params = *req.Lasso
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
		return NewLassoSelector(params), nil

	case selection.MethodWoeIV:
		params := selection.DefaultWoeIvParams()
		if req.WoeIv != nil {
			params = *req.WoeIv
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
		return NewWoeIvSelector(params), nil

	case selection.MethodBoruta:
		params := selection.DefaultBorutaParams()
		if req.Boruta != nil {
			params = *req.Boruta
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
		if params.NIterations > MaxBorutaIterations {
			return nil, core.NewBudgetError("boruta iterations", params.NIterations, MaxBorutaIterations)
		}
		return NewBorutaSelector(params, e.hyper, req.RandomState), nil

	default:
		return nil, core.NewUnsupportedMethodError(string(method), selection.SupportedMethods())
	}
}

// Methods lists the available selection methods with their parameters.
func (e *Engine) Methods() []MethodInfo {
	return []MethodInfo{
		{
			Method:      selection.MethodTreeImportance,
			Description: "Ranks features by impurity-based importance from a fitted tree ensemble",
			Parameters: map[string]string{
				"model_type": "random_forest or gradient_boosting (default random_forest)",
				"top_k":      "keep the K highest-ranked features",
				"threshold":  "keep features with importance >= threshold",
			},
		},
		{
			Method:      selection.MethodLasso,
			Description: "Selects features with non-zero coefficients under L1-penalized logistic regression",
			Parameters: map[string]string{
				"C":        "inverse regularization strength (default 1.0)",
				"max_iter": "gradient descent iteration cap (default 1000)",
			},
		},
		{
			Method:      selection.MethodWoeIV,
			Description: "Scores features by Information Value over quantile-binned Weight of Evidence",
			Parameters: map[string]string{
				"n_bins":       "quantile bin count (default 10)",
				"iv_threshold": "minimum IV to select (default 0.1)",
			},
		},
		{
			Method:      selection.MethodBoruta,
			Description: "Compares real feature importances against shuffled shadow copies over repeated forest fits",
			Parameters: map[string]string{
				"n_iterations":      "shadow-fit rounds (default 100)",
				"confidence_level":  "binomial confidence for the confirmed threshold (default 0.95)",
				"include_tentative": "include tentative features in the selected set",
			},
		},
	}
}
