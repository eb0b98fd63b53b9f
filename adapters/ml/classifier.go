package ml

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// ModelType names a supported classifier family.
type ModelType string

const (
	ModelLogisticRegression ModelType = "logistic_regression"
	ModelRandomForest       ModelType = "random_forest"
	ModelGradientBoosting   ModelType = "gradient_boosting"
)

// SupportedModelTypes lists the trainable model families.
func SupportedModelTypes() []ModelType {
	return []ModelType{ModelLogisticRegression, ModelRandomForest, ModelGradientBoosting}
}

// ParseModelType validates a model type string.
func ParseModelType(s string) (ModelType, error) {
	mt := ModelType(s)
	for _, known := range SupportedModelTypes() {
		if mt == known {
			return mt, nil
		}
	}
	supported := make([]string, 0, 3)
	for _, known := range SupportedModelTypes() {
		supported = append(supported, string(known))
	}
	return "", fmt.Errorf("%w: %q (supported: %s)",
		core.ErrUnsupportedModel, s, strings.Join(supported, ", "))
}

// IsTreeBased reports whether the model family exposes impurity-based
// feature importances.
func (mt ModelType) IsTreeBased() bool {
	return mt == ModelRandomForest || mt == ModelGradientBoosting
}

// Classifier is a fitted or fittable binary probability model. Labels are
// 0/1 and PredictProba returns the positive-class probability per row.
// FeatureImportances returns nil for model families without them.
type Classifier interface {
	Fit(ctx context.Context, X [][]float64, y []float64) error
	PredictProba(X [][]float64) ([]float64, error)
	FeatureImportances() []float64
}

// Hyperparameters bundles per-family fit parameters so callers can carry
// one config value for any model type.
type Hyperparameters struct {
	Forest   ForestParams   `json:"random_forest" yaml:"random_forest"`
	Boosting BoostingParams `json:"gradient_boosting" yaml:"gradient_boosting"`
	Logistic LogisticParams `json:"logistic_regression" yaml:"logistic_regression"`
}

func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Forest:   DefaultForestParams(),
		Boosting: DefaultBoostingParams(),
		Logistic: DefaultLogisticParams(),
	}
}

// NewClassifier builds an unfitted classifier of the requested family.
func NewClassifier(modelType ModelType, hp Hyperparameters) (Classifier, error) {
	switch modelType {
	case ModelLogisticRegression:
		return NewLogisticRegression(hp.Logistic), nil
	case ModelRandomForest:
		return NewRandomForest(hp.Forest), nil
	case ModelGradientBoosting:
		return NewGradientBoosting(hp.Boosting), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedModel, modelType)
	}
}
