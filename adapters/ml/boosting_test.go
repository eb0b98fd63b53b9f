package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientBoostingSeparatesClasses(t *testing.T) {
	X, y := makeSeparable(100, 7)

	gb := NewGradientBoosting(BoostingParams{
		LearningRate:    0.1,
		MaxDepth:        5,
		NRounds:         25,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	})
	require.NoError(t, gb.Fit(context.Background(), X, y))

	probs, err := gb.PredictProba(X)
	require.NoError(t, err)
	for i, p := range probs {
		if y[i] == 1 {
			assert.Greater(t, p, 0.5)
		} else {
			assert.Less(t, p, 0.5)
		}
	}
}

func TestGradientBoostingImportancesConcentrate(t *testing.T) {
	X, y := makeSeparable(100, 7)

	gb := NewGradientBoosting(DefaultBoostingParams())
	require.NoError(t, gb.Fit(context.Background(), X, y))

	// Residuals stay constant within each class, so every round splits the
	// informative column and nothing else.
	imps := gb.FeatureImportances()
	require.Len(t, imps, 3)
	assert.Equal(t, 1.0, imps[0])
	assert.Zero(t, imps[1])
	assert.Zero(t, imps[2])
}

func TestGradientBoostingBasePrediction(t *testing.T) {
	X, y := makeSeparable(50, 3)

	gb := NewGradientBoosting(DefaultBoostingParams())
	require.NoError(t, gb.Fit(context.Background(), X, y))

	// Balanced classes put the prior log-odds at zero.
	assert.Zero(t, gb.BasePrediction)
}

func TestGradientBoostingDeterministic(t *testing.T) {
	X, y := makeSeparable(60, 13)

	fit := func() []float64 {
		gb := NewGradientBoosting(DefaultBoostingParams())
		require.NoError(t, gb.Fit(context.Background(), X, y))
		probs, err := gb.PredictProba(X)
		require.NoError(t, err)
		return probs
	}

	assert.Equal(t, fit(), fit())
}

func TestGradientBoostingHonorsContext(t *testing.T) {
	X, y := makeSeparable(40, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gb := NewGradientBoosting(DefaultBoostingParams())
	err := gb.Fit(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = gb.PredictProba(X)
	assert.Error(t, err)
}
