// Package store keeps trained models available for later prediction:
// an in-memory registry scoped by session, and a JSON snapshot store
// that survives restarts.
package store

import (
	"time"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
)

// Metadata describes a trained model without holding the model itself.
type Metadata struct {
	ModelID             core.ModelID       `json:"model_id"`
	ModelType           ml.ModelType       `json:"model_type"`
	FeatureNames        []string           `json:"feature_names"`
	Threshold           float64            `json:"threshold"`
	Accuracy            float64            `json:"accuracy"`
	ROCAUC              float64            `json:"roc_auc"`
	F1Score             float64            `json:"f1_score"`
	TrainSamples        int                `json:"train_samples"`
	TestSamples         int                `json:"test_samples"`
	TestSize            float64            `json:"test_size"`
	Seed                int64              `json:"seed"`
	Undersampled        bool               `json:"undersampled"`
	FeatureImportance   map[string]float64 `json:"feature_importance,omitempty"`
	TrainingTimeSeconds float64            `json:"training_time_seconds"`
	TrainedAt           time.Time          `json:"trained_at"`
}

// Record couples a fitted classifier with its metadata. Metrics holds
// the full evaluation bundle from training; it stays in memory only and
// is nil for models reloaded from a snapshot.
type Record struct {
	Metadata Metadata
	Model    ml.Classifier
	Metrics  *evaluation.ModelMetrics
}
