package selectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

func TestWoeIvSelectsDiscriminativeColumns(t *testing.T) {
	ds := selectorDataset(100, 7)
	engine := NewEngine(testHyper())

	res, err := engine.Run(context.Background(), ds, Request{
		Method:      selection.MethodWoeIV,
		RandomState: 42,
		WoeIv:       &selection.WoeIvParams{NBins: 10, IVThreshold: 0.1},
	})
	require.NoError(t, err)

	assert.Contains(t, res.SelectedFeatures, "signal")
	assert.Contains(t, res.SelectedFeatures, "flag")
	assert.NotContains(t, res.SelectedFeatures, "constant")

	byName := map[string]selection.FeatureScore{}
	for _, fs := range res.FeatureScores {
		byName[fs.FeatureName] = fs
	}

	// A column identical to the label separates the classes absurdly well.
	assert.Greater(t, byName["flag"].Score, 1.0)
	assert.Equal(t, "suspicious", byName["flag"].Metadata["iv_category"])
	assert.Greater(t, byName["signal"].Score, 1.0)
	assert.InDelta(t, 0.0, byName["constant"].Score, 1e-9)
	assert.Equal(t, "useless", byName["constant"].Metadata["iv_category"])

	assert.Equal(t, 0.1, res.MethodMetadata["iv_threshold"])
	assert.Equal(t, 10, res.MethodMetadata["n_bins"])
	assert.Greater(t, res.MethodMetadata["mean_iv"].(float64), 0.0)
	assert.Equal(t, res.FeatureScores[0].Score, res.MethodMetadata["max_iv"])
}

func TestAssignBinsBinaryColumn(t *testing.T) {
	sel := NewWoeIvSelector(selection.DefaultWoeIvParams())

	col := []float64{0, 1, 1, 0, 1, 0}
	bins, nBins, err := sel.assignBins(col)
	require.NoError(t, err)

	assert.Equal(t, 2, nBins)
	assert.Equal(t, []int{0, 1, 1, 0, 1, 0}, bins)
}

func TestAssignBinsCollapsesDuplicateEdges(t *testing.T) {
	sel := NewWoeIvSelector(selection.WoeIvParams{NBins: 10, IVThreshold: 0.1})

	// Three distinct values cannot fill ten quantile bins; duplicate edges
	// collapse down to one bin per value.
	col := []float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}
	bins, nBins, err := sel.assignBins(col)
	require.NoError(t, err)

	require.Equal(t, 3, nBins)
	for i, v := range col {
		switch v {
		case 1:
			assert.Equal(t, 0, bins[i])
		case 2:
			assert.Equal(t, 1, bins[i])
		case 3:
			assert.Equal(t, 2, bins[i])
		}
	}
}

func TestWoeIvSmoothingKeepsPureBinsFinite(t *testing.T) {
	sel := NewWoeIvSelector(selection.DefaultWoeIvParams())

	// Column equal to the label: both bins are single-class, which without
	// smoothing would push WoE to +/- infinity.
	col := []float64{0, 0, 0, 1, 1, 1}
	labels := []float64{0, 0, 0, 1, 1, 1}
	iv, err := sel.informationValue(col, labels, 3, 3)
	require.NoError(t, err)

	assert.False(t, iv != iv, "IV must not be NaN")
	assert.Greater(t, iv, 1.0)
}
