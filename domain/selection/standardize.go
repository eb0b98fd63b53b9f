package selection

import (
	"fmt"
	"sort"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// BuildResult normalizes one method's raw outputs into the common result
// shape. Ranks run 1..N by descending score; ties keep the original column
// order (stable sort). NSelected and NTotal are derived from the mask, never
// caller-supplied, and the partition invariant is checked before returning.
func BuildResult(
	method Method,
	featureNames []string,
	scores []float64,
	selected []bool,
	perFeatureMeta []map[string]any,
	methodMeta map[string]any,
) (*FeatureSelectionResult, error) {
	n := len(featureNames)
	if len(scores) != n {
		return nil, core.NewShapeMismatchError("scores", len(scores), n)
	}
	if len(selected) != n {
		return nil, core.NewShapeMismatchError("selected mask", len(selected), n)
	}
	if perFeatureMeta != nil && len(perFeatureMeta) != n {
		return nil, core.NewShapeMismatchError("feature metadata", len(perFeatureMeta), n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	featureScores := make([]FeatureScore, n)
	for rank, idx := range order {
		fs := FeatureScore{
			FeatureName: featureNames[idx],
			Score:       scores[idx],
			Selected:    selected[idx],
			Rank:        rank + 1,
		}
		if perFeatureMeta != nil {
			fs.Metadata = perFeatureMeta[idx]
		}
		featureScores[rank] = fs
	}

	selectedFeatures := make([]string, 0, n)
	for i, name := range featureNames {
		if selected[i] {
			selectedFeatures = append(selectedFeatures, name)
		}
	}

	nSelected := len(selectedFeatures)
	nRejected := 0
	for _, fs := range featureScores {
		if !fs.Selected {
			nRejected++
		}
	}
	if nSelected+nRejected != n {
		return nil, fmt.Errorf("selection partition broken: %d selected + %d rejected != %d total",
			nSelected, nRejected, n)
	}

	return &FeatureSelectionResult{
		Method:           method,
		SelectedFeatures: selectedFeatures,
		FeatureScores:    featureScores,
		NSelected:        nSelected,
		NTotal:           n,
		MethodMetadata:   methodMeta,
	}, nil
}
