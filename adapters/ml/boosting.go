package ml

import (
	"context"
	"fmt"
	"math"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// GradientBoosting fits an additive model of regression trees against the
// logistic loss. Each round fits a tree to the residuals y - sigmoid(F),
// then replaces every leaf value with a Newton step
//
//	sum(residuals) / sum(p * (1 - p))
//
// over the rows that land in that leaf. Without row or column subsampling
// the whole fit is deterministic.
type GradientBoosting struct {
	Params         BoostingParams
	BasePrediction float64

	trees         []*regressionTree
	rawImportance []float64
	importances   []float64
	nFeatures     int
}

func NewGradientBoosting(params BoostingParams) *GradientBoosting {
	if params.NRounds < 1 {
		params.NRounds = 1
	}
	if params.LearningRate <= 0 {
		params.LearningRate = 0.1
	}
	return &GradientBoosting{Params: params}
}

func (gb *GradientBoosting) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: boosting requires training rows", core.ErrEmptyDataset)
	}
	if len(y) != len(X) {
		return core.NewShapeMismatchError("labels", len(y), len(X))
	}

	n := len(X)
	gb.nFeatures = len(X[0])
	gb.rawImportance = make([]float64, gb.nFeatures)
	gb.trees = make([]*regressionTree, 0, gb.Params.NRounds)

	pos := 0.0
	for _, label := range y {
		pos += label
	}
	p0 := pos / float64(n)
	p0 = math.Min(math.Max(p0, 1e-6), 1-1e-6)
	gb.BasePrediction = math.Log(p0 / (1 - p0))

	F := make([]float64, n)
	for i := range F {
		F[i] = gb.BasePrediction
	}

	residuals := make([]float64, n)
	for round := 0; round < gb.Params.NRounds; round++ {
		if err := ctx.Err(); err != nil {
			gb.trees = nil
			return err
		}

		for i := range residuals {
			residuals[i] = y[i] - sigmoid(F[i])
		}

		tree := newRegressionTree(TreeParams{
			MaxDepth:        gb.Params.MaxDepth,
			MinSamplesSplit: gb.Params.MinSamplesSplit,
			MinSamplesLeaf:  gb.Params.MinSamplesLeaf,
		})
		if err := tree.fit(X, residuals); err != nil {
			gb.trees = nil
			return err
		}
		gb.relabelLeaves(tree, X, F, y)

		for i := range F {
			F[i] += gb.Params.LearningRate * tree.predict(X[i])
		}
		for f, v := range tree.rawImportance {
			gb.rawImportance[f] += v
		}
		gb.trees = append(gb.trees, tree)
	}
	gb.importances = normalizeImportances(gb.rawImportance)
	return nil
}

// relabelLeaves overwrites each leaf's fitted mean with the Newton step for
// the logistic loss, grouping rows by the leaf they fall into.
func (gb *GradientBoosting) relabelLeaves(tree *regressionTree, X [][]float64, F, y []float64) {
	type leafStats struct {
		sumResidual float64
		sumHessian  float64
	}
	stats := make(map[*treeNode]*leafStats)
	for i, x := range X {
		leaf := tree.root.walk(x)
		s := stats[leaf]
		if s == nil {
			s = &leafStats{}
			stats[leaf] = s
		}
		p := sigmoid(F[i])
		s.sumResidual += y[i] - p
		s.sumHessian += p * (1 - p)
	}
	for leaf, s := range stats {
		leaf.Value = s.sumResidual / math.Max(s.sumHessian, 1e-12)
	}
}

func (gb *GradientBoosting) PredictProba(X [][]float64) ([]float64, error) {
	if len(gb.trees) == 0 {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != gb.nFeatures && gb.nFeatures > 0 {
			return nil, core.NewShapeMismatchError("features", len(x), gb.nFeatures)
		}
		score := gb.BasePrediction
		for _, tree := range gb.trees {
			score += gb.Params.LearningRate * tree.predict(x)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// FeatureImportances returns impurity-decrease importances accumulated over
// all boosting rounds, normalized to sum to 1.
func (gb *GradientBoosting) FeatureImportances() []float64 {
	return append([]float64(nil), gb.importances...)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
