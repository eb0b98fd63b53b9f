package ml

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// treeNode is one node of a fitted tree. Leaves carry the positive-class
// fraction (classification) or the fitted response (regression trees used
// by boosting). Exported fields keep the node JSON-serializable for model
// snapshots.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
	Samples   int       `json:"samples"`
}

// walk descends to the leaf for one sample. Split rule: x <= threshold goes
// left.
func (n *treeNode) walk(x []float64) *treeNode {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// DecisionTree is a CART binary classifier splitting on Gini impurity.
// Split search is sequential over features in index order, so fits are
// fully deterministic for a fixed seed.
type DecisionTree struct {
	Params        TreeParams
	Root          *treeNode
	rawImportance []float64
	nFeatures     int
}

func NewDecisionTree(params TreeParams) *DecisionTree {
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	return &DecisionTree{Params: params}
}

// Fit trains on the full sample set.
func (t *DecisionTree) Fit(X [][]float64, y []float64) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(X, y, idx)
}

// fitIndices trains on a subset of rows, given by index. Forests pass
// bootstrap index samples here without copying the matrix.
func (t *DecisionTree) fitIndices(X [][]float64, y []float64, idx []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return fmt.Errorf("%w: tree requires training rows", core.ErrEmptyDataset)
	}
	if len(y) != len(X) {
		return core.NewShapeMismatchError("labels", len(y), len(X))
	}

	t.nFeatures = len(X[0])
	for _, row := range X {
		if len(row) != t.nFeatures {
			return core.NewShapeMismatchError("features", len(row), t.nFeatures)
		}
	}
	t.rawImportance = make([]float64, t.nFeatures)
	rng := rand.New(rand.NewSource(t.Params.Seed))
	t.Root = t.build(X, y, idx, 0, len(idx), rng)
	return nil
}

func (t *DecisionTree) build(X [][]float64, y []float64, idx []int, depth, nTotal int, rng *rand.Rand) *treeNode {
	n := len(idx)
	pos := 0
	for _, i := range idx {
		if y[i] == 1 {
			pos++
		}
	}

	leaf := &treeNode{Leaf: true, Value: float64(pos) / float64(n), Samples: n}
	if pos == 0 || pos == n || n < t.Params.MinSamplesSplit {
		return leaf
	}
	if t.Params.MaxDepth > 0 && depth >= t.Params.MaxDepth {
		return leaf
	}

	features := sampleFeatures(t.nFeatures, t.Params.MaxFeatures, rng)
	best := t.bestSplit(X, y, idx, pos, features)
	if best.feature < 0 || best.gain <= t.Params.MinImpurityDecrease {
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
		Left:      t.build(X, y, leftIdx, depth+1, nTotal, rng),
		Right:     t.build(X, y, rightIdx, depth+1, nTotal, rng),
	}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans midpoints between distinct sorted values per feature.
// Strictly-greater comparison keeps the lowest feature index on gain ties.
func (t *DecisionTree) bestSplit(X [][]float64, y []float64, idx []int, pos int, features []int) split {
	n := len(idx)
	parent := giniBinary(pos, n)
	best := split{feature: -1}

	type valueLabel struct {
		v   float64
		pos bool
	}
	arr := make([]valueLabel, n)

	for _, f := range features {
		for k, i := range idx {
			arr[k] = valueLabel{X[i][f], y[i] == 1}
		}
		sort.Slice(arr, func(a, b int) bool { return arr[a].v < arr[b].v })

		leftN, leftPos := 0, 0
		for k := 0; k < n-1; k++ {
			leftN++
			if arr[k].pos {
				leftPos++
			}
			if arr[k+1].v == arr[k].v {
				continue
			}
			rightN := n - leftN
			if leftN < t.Params.MinSamplesLeaf || rightN < t.Params.MinSamplesLeaf {
				continue
			}
			rightPos := pos - leftPos
			weighted := float64(leftN)/float64(n)*giniBinary(leftPos, leftN) +
				float64(rightN)/float64(n)*giniBinary(rightPos, rightN)
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

// PredictProba returns the positive-class probability for each row.
func (t *DecisionTree) PredictProba(X [][]float64) ([]float64, error) {
	if t.Root == nil {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != t.nFeatures && t.nFeatures > 0 {
			return nil, core.NewShapeMismatchError("features", len(x), t.nFeatures)
		}
		out[i] = t.Root.walk(x).Value
	}
	return out, nil
}

// FeatureImportances returns per-feature impurity decrease, normalized to
// sum to 1. A tree with no splits reports all zeros.
func (t *DecisionTree) FeatureImportances() []float64 {
	return normalizeImportances(t.rawImportance)
}

func giniBinary(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// sampleFeatures picks k feature indices without replacement, returned in
// ascending order so the split scan stays deterministic.
func sampleFeatures(p, k int, rng *rand.Rand) []int {
	features := make([]int, p)
	for i := range features {
		features[i] = i
	}
	if k <= 0 || k >= p {
		return features
	}
	rng.Shuffle(len(features), func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	features = features[:k]
	sort.Ints(features)
	return features
}

func normalizeImportances(raw []float64) []float64 {
	out := make([]float64, len(raw))
	total := 0.0
	for _, v := range raw {
		total += v
	}
	if total == 0 {
		return out
	}
	for i, v := range raw {
		out[i] = v / total
	}
	return out
}
