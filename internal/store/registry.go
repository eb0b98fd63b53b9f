package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// Registry is the session-scoped in-memory model registry. Every call
// takes an explicit session ID; empty sessions collapse to the default.
type Registry struct {
	mu            sync.Mutex
	sessions      map[core.SessionID]*sessionModels
	maxPerSession int
	ttl           time.Duration
	log           zerolog.Logger
}

type sessionModels struct {
	records  map[core.ModelID]*Record
	order    []core.ModelID
	lastSeen time.Time
}

// NewRegistry builds a registry. maxPerSession caps stored models per
// session; ttl of zero disables expiry sweeps.
func NewRegistry(maxPerSession int, ttl time.Duration, log zerolog.Logger) *Registry {
	if maxPerSession < 1 {
		maxPerSession = 1
	}
	return &Registry{
		sessions:      make(map[core.SessionID]*sessionModels),
		maxPerSession: maxPerSession,
		ttl:           ttl,
		log:           log,
	}
}

// Put registers a model under the session, replacing any model with the
// same ID. New models beyond the session cap are rejected.
func (r *Registry) Put(session core.SessionID, rec *Record) error {
	if rec == nil || rec.Model == nil {
		return fmt.Errorf("%w: nil model record", core.ErrInvalidInput)
	}
	if rec.Metadata.ModelID.IsEmpty() {
		return fmt.Errorf("%w: record has no model ID", core.ErrInvalidInput)
	}
	session = session.OrDefault()

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[session]
	if !ok {
		sess = &sessionModels{records: make(map[core.ModelID]*Record)}
		r.sessions[session] = sess
	}
	sess.lastSeen = time.Now()

	id := rec.Metadata.ModelID
	if _, exists := sess.records[id]; !exists {
		if len(sess.records) >= r.maxPerSession {
			return core.NewBudgetError("session models", len(sess.records)+1, r.maxPerSession)
		}
		sess.order = append(sess.order, id)
	}
	sess.records[id] = rec

	r.log.Debug().
		Str("session", session.String()).
		Str("model_id", id.String()).
		Int("session_models", len(sess.records)).
		Msg("model registered")
	return nil
}

// Get returns the record for the model ID within the session.
func (r *Registry) Get(session core.SessionID, id core.ModelID) (*Record, error) {
	session = session.OrDefault()

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[session]
	if !ok {
		return nil, core.NewModelNotFoundError(id.String())
	}
	sess.lastSeen = time.Now()

	rec, ok := sess.records[id]
	if !ok {
		return nil, core.NewModelNotFoundError(id.String())
	}
	return rec, nil
}

// List returns metadata for every model in the session, oldest first.
func (r *Registry) List(session core.SessionID) []Metadata {
	session = session.OrDefault()

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[session]
	if !ok {
		return nil
	}
	sess.lastSeen = time.Now()

	out := make([]Metadata, 0, len(sess.order))
	for _, id := range sess.order {
		if rec, ok := sess.records[id]; ok {
			out = append(out, rec.Metadata)
		}
	}
	return out
}

// Delete removes a model from the session.
func (r *Registry) Delete(session core.SessionID, id core.ModelID) error {
	session = session.OrDefault()

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[session]
	if !ok {
		return core.NewModelNotFoundError(id.String())
	}
	if _, ok := sess.records[id]; !ok {
		return core.NewModelNotFoundError(id.String())
	}
	delete(sess.records, id)
	for i, got := range sess.order {
		if got == id {
			sess.order = append(sess.order[:i], sess.order[i+1:]...)
			break
		}
	}
	if len(sess.records) == 0 {
		delete(r.sessions, session)
	}
	return nil
}

// Count reports how many models the session holds.
func (r *Registry) Count(session core.SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[session.OrDefault()]; ok {
		return len(sess.records)
	}
	return 0
}

// SweepExpired drops sessions idle longer than the TTL and returns how
// many were removed. A zero TTL disables expiry.
func (r *Registry) SweepExpired(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for session, sess := range r.sessions {
		if now.Sub(sess.lastSeen) > r.ttl {
			delete(r.sessions, session)
			removed++
			r.log.Info().
				Str("session", session.String()).
				Int("models", len(sess.records)).
				Msg("expired session swept")
		}
	}
	return removed
}
