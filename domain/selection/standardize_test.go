package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

func TestBuildResultRanksDescending(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	scores := []float64{0.1, 0.7, 0.4, 0.7}
	selected := []bool{false, true, true, true}

	result, err := BuildResult(MethodTreeImportance, names, scores, selected, nil, nil)
	require.NoError(t, err)

	// Tie between b and d resolves by original column order.
	assert.Equal(t, "b", result.FeatureScores[0].FeatureName)
	assert.Equal(t, "d", result.FeatureScores[1].FeatureName)
	assert.Equal(t, "c", result.FeatureScores[2].FeatureName)
	assert.Equal(t, "a", result.FeatureScores[3].FeatureName)

	for i, fs := range result.FeatureScores {
		assert.Equal(t, i+1, fs.Rank)
	}

	// Selected names stay in original column order.
	assert.Equal(t, []string{"b", "c", "d"}, result.SelectedFeatures)
	assert.Equal(t, 3, result.NSelected)
	assert.Equal(t, 4, result.NTotal)
}

func TestBuildResultPartition(t *testing.T) {
	names := []string{"x", "y", "z"}
	scores := []float64{0.5, 0.3, 0.1}
	selected := []bool{true, false, false}

	result, err := BuildResult(MethodLasso, names, scores, selected, nil, nil)
	require.NoError(t, err)

	rejected := result.NTotal - result.NSelected
	assert.Equal(t, result.NTotal, result.NSelected+rejected)
	assert.Equal(t, 2, rejected)
}

func TestBuildResultCarriesMetadata(t *testing.T) {
	names := []string{"low", "high"}
	scores := []float64{0.01, 0.4}
	selected := []bool{false, true}
	perFeature := []map[string]any{
		{"iv_category": "useless"},
		{"iv_category": "strong"},
	}
	methodMeta := map[string]any{"iv_threshold": 0.1, "n_bins": 10}

	result, err := BuildResult(MethodWoeIV, names, scores, selected, perFeature, methodMeta)
	require.NoError(t, err)

	assert.Equal(t, "strong", result.FeatureScores[0].Metadata["iv_category"])
	assert.Equal(t, "useless", result.FeatureScores[1].Metadata["iv_category"])
	assert.Equal(t, methodMeta, result.MethodMetadata)
}

func TestBuildResultShapeChecks(t *testing.T) {
	_, err := BuildResult(MethodBoruta, []string{"a", "b"}, []float64{1}, []bool{true, false}, nil, nil)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)

	_, err = BuildResult(MethodBoruta, []string{"a"}, []float64{1}, []bool{}, nil, nil)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestParseMethod(t *testing.T) {
	for _, valid := range SupportedMethods() {
		m, err := ParseMethod(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(m))
	}

	_, err := ParseMethod("shap")
	assert.ErrorIs(t, err, core.ErrUnsupportedMethod)

	_, err = ParseMethod("")
	assert.ErrorIs(t, err, core.ErrUnsupportedMethod)
}

func TestIVCategoryBands(t *testing.T) {
	tests := []struct {
		iv   float64
		want string
	}{
		{0.0, "useless"},
		{0.019, "useless"},
		{0.02, "weak"},
		{0.09, "weak"},
		{0.1, "medium"},
		{0.29, "medium"},
		{0.3, "strong"},
		{0.49, "strong"},
		{0.5, "suspicious"},
		{1.2, "suspicious"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IVCategory(tt.iv), "iv=%v", tt.iv)
	}
}

func TestParamsValidation(t *testing.T) {
	k := 5
	neg := -1
	badThreshold := 1.5

	assert.NoError(t, DefaultTreeImportanceParams().Validate())
	assert.NoError(t, TreeImportanceParams{ModelType: "gradient_boosting", TopK: &k}.Validate())
	assert.Error(t, TreeImportanceParams{ModelType: "xgboost"}.Validate())
	assert.Error(t, TreeImportanceParams{ModelType: "random_forest", TopK: &neg}.Validate())
	assert.Error(t, TreeImportanceParams{ModelType: "random_forest", Threshold: &badThreshold}.Validate())

	assert.NoError(t, DefaultLassoParams().Validate())
	assert.Error(t, LassoParams{C: 0, MaxIter: 100}.Validate())
	assert.Error(t, LassoParams{C: 1, MaxIter: 0}.Validate())

	assert.NoError(t, DefaultWoeIvParams().Validate())
	assert.Error(t, WoeIvParams{NBins: 1, IVThreshold: 0.1}.Validate())
	assert.Error(t, WoeIvParams{NBins: 10, IVThreshold: -0.1}.Validate())

	assert.NoError(t, DefaultBorutaParams().Validate())
	assert.Error(t, BorutaParams{NIterations: 0, ConfidenceLevel: 0.95}.Validate())
	assert.Error(t, BorutaParams{NIterations: 100, ConfidenceLevel: 1.0}.Validate())
}

func TestSelectionMode(t *testing.T) {
	k := 10
	threshold := 0.05

	assert.Equal(t, "non_zero", DefaultTreeImportanceParams().SelectionMode())
	assert.Equal(t, "top_k", TreeImportanceParams{ModelType: "random_forest", TopK: &k}.SelectionMode())
	assert.Equal(t, "threshold", TreeImportanceParams{ModelType: "random_forest", Threshold: &threshold}.SelectionMode())
}
