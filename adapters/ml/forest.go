package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// RandomForest bags deterministic CART trees over bootstrap samples. Tree i
// always draws from seed Params.Seed+i and lands in slot i, so fits are
// reproducible no matter how the goroutines interleave.
type RandomForest struct {
	Params ForestParams
	Trees  []*DecisionTree

	importances []float64
	nFeatures   int
}

func NewRandomForest(params ForestParams) *RandomForest {
	if params.NEstimators < 1 {
		params.NEstimators = 1
	}
	return &RandomForest{Params: params}
}

// Fit trains the forest. Tree fits run in parallel, bounded by GOMAXPROCS.
func (rf *RandomForest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: forest requires training rows", core.ErrEmptyDataset)
	}
	if len(y) != len(X) {
		return core.NewShapeMismatchError("labels", len(y), len(X))
	}

	n := len(X)
	rf.nFeatures = len(X[0])
	maxFeatures := rf.Params.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(rf.nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rf.Trees = make([]*DecisionTree, rf.Params.NEstimators)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < rf.Params.NEstimators; i++ {
		treeIdx := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			treeSeed := rf.Params.Seed + int64(treeIdx)
			rng := rand.New(rand.NewSource(treeSeed))

			sample := make([]int, n)
			for j := range sample {
				if rf.Params.Bootstrap {
					sample[j] = rng.Intn(n)
				} else {
					sample[j] = j
				}
			}

			tree := NewDecisionTree(TreeParams{
				MaxDepth:        rf.Params.MaxDepth,
				MinSamplesSplit: rf.Params.MinSamplesSplit,
				MinSamplesLeaf:  rf.Params.MinSamplesLeaf,
				MaxFeatures:     maxFeatures,
				Seed:            treeSeed,
			})
			if err := tree.fitIndices(X, y, sample); err != nil {
				return err
			}
			rf.Trees[treeIdx] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		rf.Trees = nil
		return err
	}

	rf.aggregateImportances()
	return nil
}

// aggregateImportances averages per-tree normalized importances, then
// renormalizes so the forest's importances sum to 1.
func (rf *RandomForest) aggregateImportances() {
	total := make([]float64, rf.nFeatures)
	for _, tree := range rf.Trees {
		for f, v := range tree.FeatureImportances() {
			total[f] += v
		}
	}
	rf.importances = normalizeImportances(total)
}

// PredictProba averages positive-class probabilities over all trees.
func (rf *RandomForest) PredictProba(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for _, tree := range rf.Trees {
		probs, err := tree.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out, nil
}

// FeatureImportances returns averaged per-feature importances, sum 1.
func (rf *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), rf.importances...)
}
