package selectors

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// selectorDataset builds a balanced toy dataset with a continuous
// informative column, a noise column, a constant column, and a binary
// column equal to the label.
func selectorDataset(perClass int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	n := 2 * perClass
	matrix := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		center := -2.0
		if label == 1 {
			center = 2.0
		}
		matrix[i] = []float64{
			center + rng.NormFloat64()*0.3,
			rng.NormFloat64(),
			5.0,
			label,
		}
		labels[i] = label
	}
	return &dataset.Dataset{
		Matrix:       matrix,
		Labels:       labels,
		FeatureNames: []string{"signal", "noise", "constant", "flag"},
	}
}

func testHyper() ml.Hyperparameters {
	hyper := ml.DefaultHyperparameters()
	hyper.Forest.NEstimators = 25
	hyper.Forest.MaxDepth = 6
	hyper.Boosting.NRounds = 20
	return hyper
}

func TestTreeImportanceTopK(t *testing.T) {
	ds := selectorDataset(100, 7)
	engine := NewEngine(testHyper())

	k := 2
	res, err := engine.Run(context.Background(), ds, Request{
		Method:      selection.MethodTreeImportance,
		RandomState: 42,
		TreeImportance: &selection.TreeImportanceParams{
			ModelType: "random_forest",
			TopK:      &k,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.NSelected)
	assert.Equal(t, 4, res.NTotal)
	assert.Equal(t, []string{"signal", "flag"}, res.SelectedFeatures)
	assert.Equal(t, "top_k", res.MethodMetadata["selection_mode"])
	assert.Equal(t, 2, res.MethodMetadata["top_k"])
	assert.Equal(t, "random_forest", res.MethodMetadata["model_type"])

	sum := 0.0
	for _, fs := range res.FeatureScores {
		sum += fs.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTreeImportanceThresholdMode(t *testing.T) {
	ds := selectorDataset(100, 7)
	engine := NewEngine(testHyper())

	threshold := 0.25
	res, err := engine.Run(context.Background(), ds, Request{
		Method:      selection.MethodTreeImportance,
		RandomState: 42,
		TreeImportance: &selection.TreeImportanceParams{
			ModelType: "random_forest",
			Threshold: &threshold,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "threshold", res.MethodMetadata["selection_mode"])
	assert.Equal(t, 0.25, res.MethodMetadata["threshold"])
	assert.Contains(t, res.SelectedFeatures, "signal")
	assert.Contains(t, res.SelectedFeatures, "flag")
	assert.NotContains(t, res.SelectedFeatures, "noise")
	assert.NotContains(t, res.SelectedFeatures, "constant")
}

func TestTreeImportanceGradientBoostingNonZero(t *testing.T) {
	ds := selectorDataset(100, 7)
	engine := NewEngine(testHyper())

	res, err := engine.Run(context.Background(), ds, Request{
		Method:         selection.MethodTreeImportance,
		RandomState:    42,
		TreeImportance: &selection.TreeImportanceParams{ModelType: "gradient_boosting"},
	})
	require.NoError(t, err)

	// Two columns separate the classes perfectly, so every boosting round
	// splits the first of them and the whole gain lands on one feature.
	assert.Equal(t, []string{"signal"}, res.SelectedFeatures)
	assert.Equal(t, "non_zero", res.MethodMetadata["selection_mode"])

	top := res.FeatureScores[0]
	assert.Equal(t, "signal", top.FeatureName)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 1.0, top.Score)
}

func TestLassoSelectionShrinksWithC(t *testing.T) {
	ds := selectorDataset(100, 7)
	engine := NewEngine(testHyper())

	strong, err := engine.Run(context.Background(), ds, Request{
		Method:      selection.MethodLasso,
		RandomState: 42,
		Lasso:       &selection.LassoParams{C: 0.001, MaxIter: 1000},
	})
	require.NoError(t, err)

	// The penalty dominates every gradient step at this C, so nothing
	// survives and the fit settles immediately.
	assert.Equal(t, 0, strong.NSelected)
	assert.Equal(t, true, strong.MethodMetadata["converged"])
	assert.Equal(t, 1, strong.MethodMetadata["n_iterations"])

	weak, err := engine.Run(context.Background(), ds, Request{
		Method:      selection.MethodLasso,
		RandomState: 42,
		Lasso:       &selection.LassoParams{C: 10, MaxIter: 1000},
	})
	require.NoError(t, err)

	assert.Contains(t, weak.SelectedFeatures, "signal")
	assert.NotContains(t, weak.SelectedFeatures, "constant")
	assert.GreaterOrEqual(t, weak.NSelected, strong.NSelected)
	assert.Equal(t, 10.0, weak.MethodMetadata["C"])
}

func TestEngineDeterministicForSeed(t *testing.T) {
	ds := selectorDataset(60, 3)
	engine := NewEngine(testHyper())
	req := Request{
		Method:         selection.MethodTreeImportance,
		RandomState:    42,
		TreeImportance: &selection.TreeImportanceParams{ModelType: "random_forest"},
	}

	first, err := engine.Run(context.Background(), ds, req)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), ds, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngineRejectsBadInput(t *testing.T) {
	engine := NewEngine(testHyper())
	ds := selectorDataset(10, 1)

	_, err := engine.Run(context.Background(), nil, Request{Method: selection.MethodLasso})
	assert.ErrorIs(t, err, core.ErrEmptyDataset)

	_, err = engine.Run(context.Background(), ds, Request{Method: "shap"})
	assert.ErrorIs(t, err, core.ErrUnsupportedMethod)

	_, err = engine.Run(context.Background(), ds, Request{
		Method: selection.MethodLasso,
		Lasso:  &selection.LassoParams{C: -1, MaxIter: 10},
	})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	ragged := &dataset.Dataset{
		Matrix:       [][]float64{{1}},
		Labels:       []float64{0},
		FeatureNames: []string{"a", "b"},
	}
	_, err = engine.Run(context.Background(), ragged, Request{Method: selection.MethodLasso})
	assert.Error(t, err)
}

func TestEngineMethodCatalog(t *testing.T) {
	infos := NewEngine(testHyper()).Methods()
	require.Len(t, infos, 4)

	seen := map[selection.Method]bool{}
	for _, info := range infos {
		assert.NotEmpty(t, info.Description)
		assert.NotEmpty(t, info.Parameters)
		seen[info.Method] = true
	}
	assert.True(t, seen[selection.MethodTreeImportance])
	assert.True(t, seen[selection.MethodLasso])
	assert.True(t, seen[selection.MethodWoeIV])
	assert.True(t, seen[selection.MethodBoruta])
}
