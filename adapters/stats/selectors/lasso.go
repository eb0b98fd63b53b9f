package selectors

import (
	"context"
	"math"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// selectionEpsilon guards the non-zero coefficient test against floating
// point residue left by the proximal updates.
const selectionEpsilon = 1e-10

// LassoSelector keeps features whose L1-penalized logistic regression
// coefficients survive regularization.
type LassoSelector struct {
	params selection.LassoParams
}

func NewLassoSelector(params selection.LassoParams) *LassoSelector {
	return &LassoSelector{params: params}
}

func (s *LassoSelector) Method() selection.Method {
	return selection.MethodLasso
}

func (s *LassoSelector) Description() string {
	return "Selects features with non-zero coefficients under L1-penalized logistic regression"
}

func (s *LassoSelector) Select(ctx context.Context, ds *dataset.Dataset) (*selection.FeatureSelectionResult, error) {
	logisticParams := ml.DefaultLogisticParams()
	logisticParams.Penalty = "l1"
	logisticParams.C = s.params.C
	logisticParams.MaxIter = s.params.MaxIter

	model := ml.NewLogisticRegression(logisticParams)
	if err := model.Fit(ctx, ds.Matrix, ds.Labels); err != nil {
		return nil, err
	}

	coefs := model.Coefficients()
	scores := make([]float64, len(coefs))
	selected := make([]bool, len(coefs))
	for i, coef := range coefs {
		scores[i] = math.Abs(coef)
		selected[i] = scores[i] > selectionEpsilon
	}

	methodMeta := map[string]any{
		"C":            s.params.C,
		"converged":    model.Converged,
		"n_iterations": model.NIterations,
	}
	return selection.BuildResult(s.Method(), ds.FeatureNames, scores, selected, nil, methodMeta)
}
