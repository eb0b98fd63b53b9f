// Package training turns a dataset and a model choice into a fitted,
// evaluated, registered model.
package training

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
)

// Request asks for one model to be trained.
type Request struct {
	ModelType   string  `json:"model_type"`
	TestSize    float64 `json:"test_size,omitempty"`    // 0 = service default
	Undersample bool    `json:"undersample,omitempty"`  // balance the training partition
	RandomState *int64  `json:"random_state,omitempty"` // nil = service default

	// SelectedFeatures restricts training to these columns, typically the
	// output of a feature selection run.
	SelectedFeatures []string `json:"selected_features,omitempty"`

	// Hyperparameters overrides individual fields of the configured
	// defaults; absent fields keep their values.
	Hyperparameters json.RawMessage `json:"hyperparameters,omitempty"`
}

// Result reports a completed training run.
type Result struct {
	ModelID             core.ModelID             `json:"model_id"`
	ModelType           ml.ModelType             `json:"model_type"`
	OptimalThreshold    float64                  `json:"optimal_threshold"`
	Metrics             *evaluation.ModelMetrics `json:"metrics"`
	FeatureImportance   map[string]float64       `json:"feature_importance,omitempty"`
	TrainSamples        int                      `json:"train_samples"`
	TestSamples         int                      `json:"test_samples"`
	TrainingTimeSeconds float64                  `json:"training_time_seconds"`
}

// Defaults fills request fields the caller leaves unset.
type Defaults struct {
	TestSize float64
	Seed     int64
}

// Service runs the train-evaluate-register pipeline.
type Service struct {
	registry  *store.Registry
	snapshots *store.FileStore // nil disables disk snapshots
	recorder  *audit.Recorder
	hyper     ml.Hyperparameters
	defaults  Defaults
	log       zerolog.Logger
}

func NewService(registry *store.Registry, snapshots *store.FileStore, recorder *audit.Recorder,
	hyper ml.Hyperparameters, defaults Defaults, log zerolog.Logger) *Service {
	return &Service{
		registry:  registry,
		snapshots: snapshots,
		recorder:  recorder,
		hyper:     hyper,
		defaults:  defaults,
		log:       log,
	}
}

// Train splits the dataset, optionally undersamples the training
// partition, fits the requested model, evaluates it on the held-out
// partition at the Youden-optimal threshold, and registers it under the
// session. Snapshot failures are logged, never returned.
func (s *Service) Train(ctx context.Context, session core.SessionID, ds *dataset.Dataset, req Request) (*Result, error) {
	start := time.Now()

	if ds == nil || ds.RowCount() == 0 {
		return nil, core.ErrEmptyDataset
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	modelType, err := ml.ParseModelType(req.ModelType)
	if err != nil {
		return nil, err
	}

	testSize := req.TestSize
	if testSize == 0 {
		testSize = s.defaults.TestSize
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, core.NewParameterError("test_size", fmt.Sprintf("must be in (0, 1), got %v", testSize))
	}
	seed := s.defaults.Seed
	if req.RandomState != nil {
		seed = *req.RandomState
	}

	working := ds
	if len(req.SelectedFeatures) > 0 {
		if working, err = ds.SelectColumns(req.SelectedFeatures); err != nil {
			return nil, err
		}
	}

	train, test, err := working.StratifiedSplit(testSize, seed)
	if err != nil {
		return nil, err
	}
	if req.Undersample {
		if train, err = train.Undersample(seed); err != nil {
			return nil, err
		}
	}

	hp := s.hyper
	if len(req.Hyperparameters) > 0 {
		if err := json.Unmarshal(req.Hyperparameters, &hp); err != nil {
			return nil, fmt.Errorf("%w: hyperparameters: %v", core.ErrInvalidInput, err)
		}
	}
	// The request seed drives every stochastic stage, including the fit.
	hp.Forest.Seed = seed
	hp.Boosting.Seed = seed

	clf, err := ml.NewClassifier(modelType, hp)
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(ctx, train.Matrix, train.Labels); err != nil {
		return nil, err
	}
	probs, err := clf.PredictProba(test.Matrix)
	if err != nil {
		return nil, err
	}
	metrics, err := evaluation.EvaluateModel(test.Labels, probs, evaluation.EvaluateOptions{})
	if err != nil {
		return nil, err
	}

	elapsed := math.Round(time.Since(start).Seconds()*1000) / 1000
	modelID := core.NewModelID(string(modelType), testSize)

	var importance map[string]float64
	if modelType.IsTreeBased() {
		if scores := clf.FeatureImportances(); len(scores) == len(working.FeatureNames) {
			importance = make(map[string]float64, len(scores))
			for i, name := range working.FeatureNames {
				importance[name] = scores[i]
			}
		}
	}

	rec := &store.Record{
		Metadata: store.Metadata{
			ModelID:             modelID,
			ModelType:           modelType,
			FeatureNames:        append([]string(nil), working.FeatureNames...),
			Threshold:           metrics.ThresholdAnalysis.Threshold,
			Accuracy:            metrics.Accuracy,
			ROCAUC:              metrics.ROCAUC,
			F1Score:             metrics.F1Score,
			TrainSamples:        train.RowCount(),
			TestSamples:         test.RowCount(),
			TestSize:            testSize,
			Seed:                seed,
			Undersampled:        req.Undersample,
			FeatureImportance:   importance,
			TrainingTimeSeconds: elapsed,
			TrainedAt:           time.Now().UTC(),
		},
		Model:   clf,
		Metrics: metrics,
	}
	if err := s.registry.Put(session, rec); err != nil {
		return nil, err
	}
	if s.snapshots != nil {
		if err := s.snapshots.Save(rec); err != nil {
			s.log.Warn().Err(err).Str("model_id", modelID.String()).Msg("model snapshot failed")
		}
	}

	s.recorder.Record(ctx, audit.Event{
		Type:       audit.EventModelTrained,
		SessionID:  session.OrDefault().String(),
		ModelID:    modelID.String(),
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"model_type":    string(modelType),
			"dataset_size":  working.RowCount(),
			"test_accuracy": metrics.Accuracy,
			"roc_auc":       metrics.ROCAUC,
			"undersample":   req.Undersample,
		},
	})
	s.log.Info().
		Str("model_id", modelID.String()).
		Str("model_type", string(modelType)).
		Float64("roc_auc", metrics.ROCAUC).
		Float64("threshold", metrics.ThresholdAnalysis.Threshold).
		Int("train_samples", train.RowCount()).
		Int("test_samples", test.RowCount()).
		Msg("model trained")

	return &Result{
		ModelID:             modelID,
		ModelType:           modelType,
		OptimalThreshold:    metrics.ThresholdAnalysis.Threshold,
		Metrics:             metrics,
		FeatureImportance:   importance,
		TrainSamples:        train.RowCount(),
		TestSamples:         test.RowCount(),
		TrainingTimeSeconds: elapsed,
	}, nil
}
