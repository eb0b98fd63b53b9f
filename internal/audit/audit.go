// Package audit records every significant action the service performs:
// model training, predictions, feature selection runs, deletions. Events
// always go to the structured log; a sink can add durable storage.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

type EventType string

const (
	EventModelTrained     EventType = "model_trained"
	EventPredictionMade   EventType = "prediction_made"
	EventBatchPrediction  EventType = "batch_prediction"
	EventFeatureSelection EventType = "feature_selection_run"
	EventModelDeleted     EventType = "model_deleted"
)

// Event is one audit record. Details carries event-specific fields such
// as dataset size or the threshold used.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"event_type"`
	SessionID  string         `json:"session_id"`
	ModelID    string         `json:"model_id,omitempty"`
	Method     string         `json:"method,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Sink receives events for durable storage.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Recorder fans events out to the log and the optional sink.
type Recorder struct {
	log  zerolog.Logger
	sink Sink
}

// NewRecorder builds a recorder. A nil sink leaves auditing log-only.
func NewRecorder(log zerolog.Logger, sink Sink) *Recorder {
	return &Recorder{log: log, sink: sink}
}

// Record assigns the event an ID and timestamp if missing, logs it, and
// forwards it to the sink. Sink failures are logged, never propagated;
// an audit outage must not fail the operation being audited.
func (r *Recorder) Record(ctx context.Context, e Event) Event {
	if e.ID == "" {
		e.ID = core.NewEventID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	evt := r.log.Info().
		Str("event_id", e.ID).
		Str("event_type", string(e.Type)).
		Str("session_id", e.SessionID).
		Int64("duration_ms", e.DurationMS)
	if e.ModelID != "" {
		evt = evt.Str("model_id", e.ModelID)
	}
	if e.Method != "" {
		evt = evt.Str("method", e.Method)
	}
	if len(e.Details) > 0 {
		evt = evt.Fields(e.Details)
	}
	evt.Msg("audit event")

	if r.sink != nil {
		if err := r.sink.Write(ctx, e); err != nil {
			r.log.Warn().Err(err).Str("event_id", e.ID).Msg("audit sink write failed")
		}
	}
	return e
}
