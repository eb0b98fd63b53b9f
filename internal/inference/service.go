// Package inference scores loan applications against trained models.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/credit"
	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
)

// Request scores a single application.
type Request struct {
	ModelID     string                 `json:"model_id"`
	Application credit.LoanApplication `json:"application"`
	// Threshold overrides the model's stored optimal threshold.
	Threshold *float64 `json:"threshold,omitempty"`
}

// BatchRequest scores several applications in one call.
type BatchRequest struct {
	ModelID      string                   `json:"model_id"`
	Applications []credit.LoanApplication `json:"applications"`
	Threshold    *float64                 `json:"threshold,omitempty"`
}

// Prediction is the decision for one application. PredictedDefault true
// means deny: the probability reached the decision threshold.
type Prediction struct {
	Application        credit.LoanApplication `json:"application"`
	PredictedDefault   bool                   `json:"predicted_default"`
	DefaultProbability float64                `json:"default_probability"`
	Confidence         float64                `json:"confidence"`
}

// Response reports a single prediction.
type Response struct {
	ModelID       core.ModelID `json:"model_id"`
	ModelType     ml.ModelType `json:"model_type"`
	ThresholdUsed float64      `json:"threshold_used"`
	Prediction    Prediction   `json:"prediction"`
	Timestamp     time.Time    `json:"timestamp"`
}

// BatchResponse reports batch predictions plus portfolio counts.
type BatchResponse struct {
	ModelID            core.ModelID `json:"model_id"`
	ModelType          ml.ModelType `json:"model_type"`
	ThresholdUsed      float64      `json:"threshold_used"`
	Predictions        []Prediction `json:"predictions"`
	TotalApplications  int          `json:"total_applications"`
	PredictedDefaults  int          `json:"predicted_defaults"`
	PredictedApprovals int          `json:"predicted_approvals"`
	MeanProbability    float64      `json:"mean_default_probability"`
	Timestamp          time.Time    `json:"timestamp"`
}

// Service resolves models from the session store and scores applications.
type Service struct {
	registry *store.Registry
	recorder *audit.Recorder
	log      zerolog.Logger
}

func NewService(registry *store.Registry, recorder *audit.Recorder, log zerolog.Logger) *Service {
	return &Service{registry: registry, recorder: recorder, log: log}
}

// Predict scores one application.
func (s *Service) Predict(ctx context.Context, session core.SessionID, req Request) (*Response, error) {
	start := time.Now()

	rec, threshold, proj, err := s.prepare(session, req.ModelID, req.Threshold)
	if err != nil {
		return nil, err
	}
	vec, err := encodeProjected(&req.Application, proj)
	if err != nil {
		return nil, err
	}
	probs, err := rec.Model.PredictProba([][]float64{vec})
	if err != nil {
		return nil, err
	}
	p := probs[0]

	pred := Prediction{
		Application:        req.Application,
		PredictedDefault:   p >= threshold,
		DefaultProbability: p,
		Confidence:         evaluation.Confidence(p, threshold),
	}

	s.recorder.Record(ctx, audit.Event{
		Type:       audit.EventPredictionMade,
		SessionID:  session.OrDefault().String(),
		ModelID:    rec.Metadata.ModelID.String(),
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"threshold_used":    threshold,
			"probability":       p,
			"predicted_default": pred.PredictedDefault,
		},
	})

	return &Response{
		ModelID:       rec.Metadata.ModelID,
		ModelType:     rec.Metadata.ModelType,
		ThresholdUsed: threshold,
		Prediction:    pred,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// PredictBatch scores all applications with one model pass and reports
// approval counts across the batch.
func (s *Service) PredictBatch(ctx context.Context, session core.SessionID, req BatchRequest) (*BatchResponse, error) {
	start := time.Now()

	if len(req.Applications) == 0 {
		return nil, fmt.Errorf("%w: batch contains no applications", core.ErrInvalidInput)
	}
	rec, threshold, proj, err := s.prepare(session, req.ModelID, req.Threshold)
	if err != nil {
		return nil, err
	}

	matrix := make([][]float64, len(req.Applications))
	for i := range req.Applications {
		vec, err := encodeProjected(&req.Applications[i], proj)
		if err != nil {
			return nil, fmt.Errorf("application %d: %w", i, err)
		}
		matrix[i] = vec
	}
	probs, err := rec.Model.PredictProba(matrix)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, len(probs))
	defaults := 0
	sum := 0.0
	for i, p := range probs {
		denied := p >= threshold
		if denied {
			defaults++
		}
		sum += p
		predictions[i] = Prediction{
			Application:        req.Applications[i],
			PredictedDefault:   denied,
			DefaultProbability: p,
			Confidence:         evaluation.Confidence(p, threshold),
		}
	}
	mean := sum / float64(len(probs))

	s.recorder.Record(ctx, audit.Event{
		Type:       audit.EventBatchPrediction,
		SessionID:  session.OrDefault().String(),
		ModelID:    rec.Metadata.ModelID.String(),
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"num_predictions":         len(probs),
			"threshold_used":          threshold,
			"predicted_defaults":      defaults,
			"avg_default_probability": mean,
		},
	})

	return &BatchResponse{
		ModelID:            rec.Metadata.ModelID,
		ModelType:          rec.Metadata.ModelType,
		ThresholdUsed:      threshold,
		Predictions:        predictions,
		TotalApplications:  len(probs),
		PredictedDefaults:  defaults,
		PredictedApprovals: len(probs) - defaults,
		MeanProbability:    mean,
		Timestamp:          time.Now().UTC(),
	}, nil
}

// prepare resolves the model, the effective threshold, and the column
// projection from the full application vector onto the model's features.
func (s *Service) prepare(session core.SessionID, modelID string, override *float64) (*store.Record, float64, []int, error) {
	id, err := core.ParseModelID(modelID)
	if err != nil {
		return nil, 0, nil, err
	}
	rec, err := s.registry.Get(session, id)
	if err != nil {
		return nil, 0, nil, err
	}

	threshold := rec.Metadata.Threshold
	if override != nil {
		if *override < 0 || *override > 1 {
			return nil, 0, nil, core.NewParameterError("threshold",
				fmt.Sprintf("must be in [0, 1], got %v", *override))
		}
		threshold = *override
	}

	proj, err := projection(rec.Metadata.FeatureNames)
	if err != nil {
		return nil, 0, nil, err
	}
	return rec, threshold, proj, nil
}

// projection maps each model feature to its index in the canonical
// application layout.
func projection(features []string) ([]int, error) {
	all := credit.AllFeatures()
	index := make(map[string]int, len(all))
	for i, name := range all {
		index[name] = i
	}

	proj := make([]int, len(features))
	for i, name := range features {
		idx, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: model feature %q is not an application column",
				core.ErrInvalidInput, name)
		}
		proj[i] = idx
	}
	return proj, nil
}

func encodeProjected(app *credit.LoanApplication, proj []int) ([]float64, error) {
	vec, err := app.FeatureVector()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proj))
	for i, idx := range proj {
		out[i] = vec[idx]
	}
	return out, nil
}
