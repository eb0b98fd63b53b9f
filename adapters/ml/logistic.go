package ml

import (
	"context"
	"fmt"
	"math"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// LogisticRegression is a binary classifier fit by batch gradient descent.
// Features are standardized internally before fitting, so coefficients live
// in standardized space and constant columns keep a zero coefficient. The
// L1 penalty is applied as a proximal soft-threshold step, which drives
// small coefficients to exactly zero.
type LogisticRegression struct {
	Params LogisticParams

	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`

	NIterations int  `json:"n_iterations"`
	Converged   bool `json:"converged"`

	nFeatures int
	fitted    bool
}

func NewLogisticRegression(params LogisticParams) *LogisticRegression {
	if params.MaxIter < 1 {
		params.MaxIter = 1
	}
	if params.LearningRate <= 0 {
		params.LearningRate = 0.1
	}
	return &LogisticRegression{Params: params}
}

func (lr *LogisticRegression) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: logistic regression requires training rows", core.ErrEmptyDataset)
	}
	if len(y) != len(X) {
		return core.NewShapeMismatchError("labels", len(y), len(X))
	}
	if lr.Params.Penalty != "l1" && lr.Params.Penalty != "l2" {
		return core.NewParameterError("penalty", "must be l1 or l2")
	}
	if lr.Params.C <= 0 {
		return core.NewParameterError("C", "must be positive")
	}

	n := len(X)
	lr.nFeatures = len(X[0])
	for _, row := range X {
		if len(row) != lr.nFeatures {
			return core.NewShapeMismatchError("features", len(row), lr.nFeatures)
		}
	}
	lr.Means, lr.Stds = columnMoments(X, lr.nFeatures)

	// Standardized copy. Columns with no spread get std 1 so they map to
	// all zeros and their coefficient never moves off zero.
	Z := make([][]float64, n)
	for i, row := range X {
		z := make([]float64, lr.nFeatures)
		for j, v := range row {
			z[j] = (v - lr.Means[j]) / lr.Stds[j]
		}
		Z[i] = z
	}

	lr.Weights = make([]float64, lr.nFeatures)
	lr.Bias = 0
	lambda := 1 / (lr.Params.C * float64(n))
	step := lr.Params.LearningRate

	grad := make([]float64, lr.nFeatures)
	lr.NIterations = lr.Params.MaxIter
	lr.Converged = false
	for iter := 0; iter < lr.Params.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, z := range Z {
			p := sigmoid(lr.Bias + dot(lr.Weights, z))
			diff := p - y[i]
			for j, v := range z {
				grad[j] += diff * v
			}
			gradBias += diff
		}

		maxDelta := 0.0
		for j := range lr.Weights {
			g := grad[j] / float64(n)
			if lr.Params.Penalty == "l2" {
				g += lambda * lr.Weights[j]
			}
			next := lr.Weights[j] - step*g
			if lr.Params.Penalty == "l1" {
				next = softThreshold(next, step*lambda)
			}
			if d := math.Abs(next - lr.Weights[j]); d > maxDelta {
				maxDelta = d
			}
			lr.Weights[j] = next
		}
		nextBias := lr.Bias - step*gradBias/float64(n)
		if d := math.Abs(nextBias - lr.Bias); d > maxDelta {
			maxDelta = d
		}
		lr.Bias = nextBias

		if maxDelta < lr.Params.Tol {
			lr.NIterations = iter + 1
			lr.Converged = true
			break
		}
	}

	lr.fitted = true
	return nil
}

func (lr *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	if !lr.fitted {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != lr.nFeatures {
			return nil, core.NewShapeMismatchError("features", len(row), lr.nFeatures)
		}
		score := lr.Bias
		for j, v := range row {
			score += lr.Weights[j] * (v - lr.Means[j]) / lr.Stds[j]
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// FeatureImportances returns nil. Linear models report coefficients
// instead, see Coefficients.
func (lr *LogisticRegression) FeatureImportances() []float64 {
	return nil
}

// Coefficients returns the fitted weights in standardized feature space.
func (lr *LogisticRegression) Coefficients() []float64 {
	return append([]float64(nil), lr.Weights...)
}

func columnMoments(X [][]float64, p int) (means, stds []float64) {
	n := float64(len(X))
	means = make([]float64, p)
	stds = make([]float64, p)
	for _, row := range X {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] < 1e-12 {
			stds[j] = 1
		}
	}
	return means, stds
}

func softThreshold(w, threshold float64) float64 {
	switch {
	case w > threshold:
		return w - threshold
	case w < -threshold:
		return w + threshold
	default:
		return 0
	}
}

func dot(a, b []float64) float64 {
	total := 0.0
	for i, v := range a {
		total += v * b[i]
	}
	return total
}
