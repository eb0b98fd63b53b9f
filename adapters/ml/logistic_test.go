package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

func TestLogisticRegressionSeparatesClasses(t *testing.T) {
	X, y := makeSeparable(100, 7)

	lr := NewLogisticRegression(DefaultLogisticParams())
	require.NoError(t, lr.Fit(context.Background(), X, y))

	probs, err := lr.PredictProba(X)
	require.NoError(t, err)

	correct := 0
	for i, p := range probs {
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(len(y)), 0.99)

	coefs := lr.Coefficients()
	require.Len(t, coefs, 3)
	assert.Greater(t, coefs[0], 1.0, "informative column pulls a large positive weight")
	assert.Zero(t, coefs[2], "constant column standardizes to zero and never moves")
}

func TestLogisticRegressionImportancesAreNil(t *testing.T) {
	X, y := makeSeparable(30, 3)

	lr := NewLogisticRegression(DefaultLogisticParams())
	require.NoError(t, lr.Fit(context.Background(), X, y))
	assert.Nil(t, lr.FeatureImportances())
}

func TestLogisticRegressionL1DrivesWeightsToZero(t *testing.T) {
	X, y := makeSeparable(100, 7)

	fitWithC := func(c float64) *LogisticRegression {
		params := DefaultLogisticParams()
		params.Penalty = "l1"
		params.C = c
		lr := NewLogisticRegression(params)
		require.NoError(t, lr.Fit(context.Background(), X, y))
		return lr
	}

	countZero := func(lr *LogisticRegression) int {
		zeros := 0
		for _, w := range lr.Coefficients() {
			if w == 0 {
				zeros++
			}
		}
		return zeros
	}

	// A tiny C makes the penalty dominate every gradient step, so all
	// weights stay pinned at zero and the fit converges immediately.
	strong := fitWithC(0.001)
	assert.Equal(t, 3, countZero(strong))
	assert.True(t, strong.Converged)
	assert.Equal(t, 1, strong.NIterations)

	weak := fitWithC(10)
	assert.Greater(t, weak.Coefficients()[0], 1.0)
	assert.Less(t, countZero(weak), 3)
	assert.GreaterOrEqual(t, countZero(strong), countZero(weak))
}

func TestLogisticRegressionDeterministic(t *testing.T) {
	X, y := makeSeparable(60, 13)

	fit := func() []float64 {
		lr := NewLogisticRegression(DefaultLogisticParams())
		require.NoError(t, lr.Fit(context.Background(), X, y))
		return lr.Coefficients()
	}

	assert.Equal(t, fit(), fit())
}

func TestLogisticRegressionValidation(t *testing.T) {
	X, y := makeSeparable(10, 1)

	bad := DefaultLogisticParams()
	bad.Penalty = "elasticnet"
	err := NewLogisticRegression(bad).Fit(context.Background(), X, y)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	bad = DefaultLogisticParams()
	bad.C = -1
	err = NewLogisticRegression(bad).Fit(context.Background(), X, y)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	lr := NewLogisticRegression(DefaultLogisticParams())
	_, err = lr.PredictProba(X)
	assert.ErrorIs(t, err, core.ErrNotFitted)

	require.NoError(t, lr.Fit(context.Background(), X, y))
	_, err = lr.PredictProba([][]float64{{1, 2}})
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestLogisticRegressionHonorsContext(t *testing.T) {
	X, y := makeSeparable(20, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lr := NewLogisticRegression(DefaultLogisticParams())
	err := lr.Fit(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)
}
