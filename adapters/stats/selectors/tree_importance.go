package selectors

import (
	"context"
	"sort"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// TreeImportanceSelector ranks features by the impurity-based importances
// of a fitted tree ensemble.
type TreeImportanceSelector struct {
	params selection.TreeImportanceParams
	hyper  ml.Hyperparameters
	seed   int64
}

func NewTreeImportanceSelector(params selection.TreeImportanceParams, hyper ml.Hyperparameters, seed int64) *TreeImportanceSelector {
	return &TreeImportanceSelector{params: params, hyper: hyper, seed: seed}
}

func (s *TreeImportanceSelector) Method() selection.Method {
	return selection.MethodTreeImportance
}

func (s *TreeImportanceSelector) Description() string {
	return "Ranks features by impurity-based importance from a fitted tree ensemble"
}

func (s *TreeImportanceSelector) Select(ctx context.Context, ds *dataset.Dataset) (*selection.FeatureSelectionResult, error) {
	hyper := s.hyper
	hyper.Forest.Seed = s.seed
	hyper.Boosting.Seed = s.seed

	clf, err := ml.NewClassifier(ml.ModelType(s.params.ModelType), hyper)
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(ctx, ds.Matrix, ds.Labels); err != nil {
		return nil, err
	}
	scores := clf.FeatureImportances()

	selected := make([]bool, len(scores))
	switch mode := s.params.SelectionMode(); mode {
	case "top_k":
		k := *s.params.TopK
		if k > len(scores) {
			k = len(scores)
		}
		for _, idx := range rankOrder(scores)[:k] {
			selected[idx] = true
		}
	case "threshold":
		for i, score := range scores {
			selected[i] = score >= *s.params.Threshold
		}
	default:
		for i, score := range scores {
			selected[i] = score > 0
		}
	}

	methodMeta := map[string]any{
		"selection_mode": s.params.SelectionMode(),
		"model_type":     s.params.ModelType,
	}
	if s.params.TopK != nil {
		methodMeta["top_k"] = *s.params.TopK
	}
	if s.params.Threshold != nil {
		methodMeta["threshold"] = *s.params.Threshold
	}

	return selection.BuildResult(s.Method(), ds.FeatureNames, scores, selected, nil, methodMeta)
}

// rankOrder returns feature indices sorted by descending score with ties
// keeping the original column order, matching the rank assignment in the
// standardized result.
func rankOrder(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}
