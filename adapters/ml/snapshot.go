package ml

import (
	"encoding/json"
	"fmt"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// Model snapshots are the on-disk representation of fitted classifiers.
// Tree structure serializes node by node, so a decoded model predicts
// bit-identically to the one that was encoded.

// ForestSnapshot captures a fitted random forest.
type ForestSnapshot struct {
	Params      ForestParams `json:"params"`
	NFeatures   int          `json:"n_features"`
	Trees       []*treeNode  `json:"trees"`
	Importances []float64    `json:"importances"`
}

// BoostingSnapshot captures a fitted gradient boosting model.
type BoostingSnapshot struct {
	Params         BoostingParams `json:"params"`
	NFeatures      int            `json:"n_features"`
	BasePrediction float64        `json:"base_prediction"`
	Trees          []*treeNode    `json:"trees"`
	Importances    []float64      `json:"importances"`
}

// LogisticSnapshot captures a fitted logistic regression.
type LogisticSnapshot struct {
	Params      LogisticParams `json:"params"`
	NFeatures   int            `json:"n_features"`
	Weights     []float64      `json:"weights"`
	Bias        float64        `json:"bias"`
	Means       []float64      `json:"means"`
	Stds        []float64      `json:"stds"`
	NIterations int            `json:"n_iterations"`
	Converged   bool           `json:"converged"`
}

// ModelSnapshot is the envelope written to storage. Exactly one of the
// per-family payloads is set, matching ModelType.
type ModelSnapshot struct {
	ModelType ModelType         `json:"model_type"`
	Forest    *ForestSnapshot   `json:"random_forest,omitempty"`
	Boosting  *BoostingSnapshot `json:"gradient_boosting,omitempty"`
	Logistic  *LogisticSnapshot `json:"logistic_regression,omitempty"`
}

// EncodeModel serializes a fitted classifier to JSON.
func EncodeModel(c Classifier) ([]byte, error) {
	var snap ModelSnapshot
	switch m := c.(type) {
	case *RandomForest:
		if len(m.Trees) == 0 {
			return nil, core.ErrNotFitted
		}
		roots := make([]*treeNode, len(m.Trees))
		for i, tree := range m.Trees {
			roots[i] = tree.Root
		}
		snap = ModelSnapshot{
			ModelType: ModelRandomForest,
			Forest: &ForestSnapshot{
				Params:      m.Params,
				NFeatures:   m.nFeatures,
				Trees:       roots,
				Importances: m.FeatureImportances(),
			},
		}
	case *GradientBoosting:
		if len(m.trees) == 0 {
			return nil, core.ErrNotFitted
		}
		roots := make([]*treeNode, len(m.trees))
		for i, tree := range m.trees {
			roots[i] = tree.root
		}
		snap = ModelSnapshot{
			ModelType: ModelGradientBoosting,
			Boosting: &BoostingSnapshot{
				Params:         m.Params,
				NFeatures:      m.nFeatures,
				BasePrediction: m.BasePrediction,
				Trees:          roots,
				Importances:    m.FeatureImportances(),
			},
		}
	case *LogisticRegression:
		if !m.fitted {
			return nil, core.ErrNotFitted
		}
		snap = ModelSnapshot{
			ModelType: ModelLogisticRegression,
			Logistic: &LogisticSnapshot{
				Params:      m.Params,
				NFeatures:   m.nFeatures,
				Weights:     m.Coefficients(),
				Bias:        m.Bias,
				Means:       append([]float64(nil), m.Means...),
				Stds:        append([]float64(nil), m.Stds...),
				NIterations: m.NIterations,
				Converged:   m.Converged,
			},
		}
	default:
		return nil, fmt.Errorf("%w: cannot snapshot %T", core.ErrUnsupportedModel, c)
	}
	return json.Marshal(snap)
}

// DecodeModel restores a fitted classifier from its JSON snapshot.
func DecodeModel(data []byte) (Classifier, error) {
	var snap ModelSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode model snapshot: %w", err)
	}

	switch snap.ModelType {
	case ModelRandomForest:
		if snap.Forest == nil {
			return nil, fmt.Errorf("%w: snapshot missing random forest payload", core.ErrInvalidInput)
		}
		rf := &RandomForest{
			Params:      snap.Forest.Params,
			Trees:       make([]*DecisionTree, len(snap.Forest.Trees)),
			importances: snap.Forest.Importances,
			nFeatures:   snap.Forest.NFeatures,
		}
		for i, root := range snap.Forest.Trees {
			rf.Trees[i] = &DecisionTree{Root: root, nFeatures: snap.Forest.NFeatures}
		}
		return rf, nil
	case ModelGradientBoosting:
		if snap.Boosting == nil {
			return nil, fmt.Errorf("%w: snapshot missing gradient boosting payload", core.ErrInvalidInput)
		}
		gb := &GradientBoosting{
			Params:         snap.Boosting.Params,
			BasePrediction: snap.Boosting.BasePrediction,
			trees:          make([]*regressionTree, len(snap.Boosting.Trees)),
			importances:    snap.Boosting.Importances,
			nFeatures:      snap.Boosting.NFeatures,
		}
		for i, root := range snap.Boosting.Trees {
			gb.trees[i] = &regressionTree{root: root, nFeatures: snap.Boosting.NFeatures}
		}
		return gb, nil
	case ModelLogisticRegression:
		if snap.Logistic == nil {
			return nil, fmt.Errorf("%w: snapshot missing logistic regression payload", core.ErrInvalidInput)
		}
		return &LogisticRegression{
			Params:      snap.Logistic.Params,
			Weights:     snap.Logistic.Weights,
			Bias:        snap.Logistic.Bias,
			Means:       snap.Logistic.Means,
			Stds:        snap.Logistic.Stds,
			NIterations: snap.Logistic.NIterations,
			Converged:   snap.Logistic.Converged,
			nFeatures:   snap.Logistic.NFeatures,
			fitted:      true,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedModel, snap.ModelType)
	}
}
