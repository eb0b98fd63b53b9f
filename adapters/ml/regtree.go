package ml

import (
	"fmt"
	"sort"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// regressionTree is the CART variant boosting fits against residuals. It
// splits on variance reduction and exposes its leaves so the booster can
// overwrite leaf values with Newton steps after fitting.
type regressionTree struct {
	params        TreeParams
	root          *treeNode
	rawImportance []float64
	nFeatures     int
}

func newRegressionTree(params TreeParams) *regressionTree {
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	return &regressionTree{params: params}
}

func (t *regressionTree) fit(X [][]float64, targets []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: tree requires training rows", core.ErrEmptyDataset)
	}
	if len(targets) != len(X) {
		return core.NewShapeMismatchError("targets", len(targets), len(X))
	}

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.nFeatures = len(X[0])
	for _, row := range X {
		if len(row) != t.nFeatures {
			return core.NewShapeMismatchError("features", len(row), t.nFeatures)
		}
	}
	t.rawImportance = make([]float64, t.nFeatures)
	t.root = t.build(X, targets, idx, 0, len(idx))
	return nil
}

func (t *regressionTree) build(X [][]float64, targets []float64, idx []int, depth, nTotal int) *treeNode {
	n := len(idx)
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += targets[i]
		sumSq += targets[i] * targets[i]
	}
	mean := sum / float64(n)

	leaf := &treeNode{Leaf: true, Value: mean, Samples: n}
	if n < t.params.MinSamplesSplit {
		return leaf
	}
	if t.params.MaxDepth > 0 && depth >= t.params.MaxDepth {
		return leaf
	}

	best := t.bestSplit(X, targets, idx, sum, sumSq)
	if best.feature < 0 || best.gain <= t.params.MinImpurityDecrease {
		return leaf
	}

	t.rawImportance[best.feature] += float64(n) / float64(nTotal) * best.gain

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Samples:   n,
		Left:      t.build(X, targets, leftIdx, depth+1, nTotal),
		Right:     t.build(X, targets, rightIdx, depth+1, nTotal),
	}
}

func (t *regressionTree) bestSplit(X [][]float64, targets []float64, idx []int, sum, sumSq float64) split {
	n := len(idx)
	parent := varianceFromSums(sum, sumSq, n)
	best := split{feature: -1}

	type valueTarget struct {
		v, t float64
	}
	arr := make([]valueTarget, n)

	for f := 0; f < t.nFeatures; f++ {
		for k, i := range idx {
			arr[k] = valueTarget{X[i][f], targets[i]}
		}
		sort.Slice(arr, func(a, b int) bool { return arr[a].v < arr[b].v })

		leftN := 0
		leftSum, leftSumSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			leftN++
			leftSum += arr[k].t
			leftSumSq += arr[k].t * arr[k].t
			if arr[k+1].v == arr[k].v {
				continue
			}
			rightN := n - leftN
			if leftN < t.params.MinSamplesLeaf || rightN < t.params.MinSamplesLeaf {
				continue
			}
			weighted := float64(leftN)/float64(n)*varianceFromSums(leftSum, leftSumSq, leftN) +
				float64(rightN)/float64(n)*varianceFromSums(sum-leftSum, sumSq-leftSumSq, rightN)
			if gain := parent - weighted; gain > best.gain {
				best = split{
					feature:   f,
					threshold: (arr[k].v + arr[k+1].v) / 2,
					gain:      gain,
				}
			}
		}
	}
	return best
}

func (t *regressionTree) predict(x []float64) float64 {
	return t.root.walk(x).Value
}

func varianceFromSums(sum, sumSq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	fn := float64(n)
	v := sumSq/fn - (sum/fn)*(sum/fn)
	if v < 0 {
		// float cancellation can push tiny variances below zero
		return 0
	}
	return v
}
