// Package jobs schedules feature selection runs behind a weighted
// semaphore so a handful of Boruta requests cannot starve the server.
// Cheap methods cost one unit; Boruta costs its iteration count, since
// every iteration fits a forest on a doubled feature matrix.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/stats/selectors"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
)

// Options configures the selection pool.
type Options struct {
	// Capacity is the total cost budget for concurrent selection runs.
	Capacity int
	// RateLimit and RateWindow bound selection runs per caller.
	RateLimit  int
	RateWindow time.Duration
	// SelectionTimeout bounds a single run. Zero disables the deadline.
	SelectionTimeout time.Duration
	Logger           zerolog.Logger
}

// Pool runs feature selection with cost-weighted admission control.
type Pool struct {
	sem      *semaphore.Weighted
	capacity int64
	engine   *selectors.Engine
	recorder *audit.Recorder
	limiter  *RateLimiter
	timeout  time.Duration
	log      zerolog.Logger
}

// WorkerCapacity converts a configured worker count into the pool's
// cost budget. One worker is budgeted for one default-size Boruta run.
func WorkerCapacity(workers int) int {
	if workers < 1 {
		workers = 1
	}
	return workers * selection.DefaultBorutaParams().NIterations
}

func NewPool(engine *selectors.Engine, recorder *audit.Recorder, opts Options) *Pool {
	capacity := int64(opts.Capacity)
	if capacity < 1 {
		capacity = 1
	}
	limit := opts.RateLimit
	if limit < 1 {
		limit = 1
	}
	window := opts.RateWindow
	if window <= 0 {
		window = time.Hour
	}
	return &Pool{
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
		engine:   engine,
		recorder: recorder,
		limiter:  NewRateLimiter(limit, window),
		timeout:  opts.SelectionTimeout,
		log:      opts.Logger,
	}
}

// Methods lists the selection methods the pool can run.
func (p *Pool) Methods() []selectors.MethodInfo {
	return p.engine.Methods()
}

// Remaining reports how many selection runs the session has left in the
// current rate window.
func (p *Pool) Remaining(session core.SessionID) int {
	return p.limiter.Remaining(string(session.OrDefault()), time.Now())
}

// RunSelection admits the request against the rate limit and the cost
// budget, then executes it. A run that outlives the configured timeout
// fails with a timeout error naming the remedy.
func (p *Pool) RunSelection(ctx context.Context, session core.SessionID, ds *dataset.Dataset, req selectors.Request) (*selection.FeatureSelectionResult, error) {
	session = session.OrDefault()

	if !p.limiter.Allow(string(session), time.Now()) {
		return nil, fmt.Errorf("%w: feature selection is limited to %d runs per %s per session",
			core.ErrRateLimited, p.limiter.limit, p.limiter.window)
	}

	cost := p.cost(req)
	if err := p.sem.Acquire(ctx, cost); err != nil {
		return nil, fmt.Errorf("acquire selection capacity: %w", err)
	}
	defer p.sem.Release(cost)

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := p.engine.Run(runCtx, ds, req)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: feature selection exceeded %s; try fewer iterations",
				core.ErrTimeout, p.timeout)
		}
		return nil, err
	}

	p.recorder.Record(ctx, audit.Event{
		Type:      audit.EventFeatureSelection,
		SessionID: session.String(),
		Method:    string(result.Method),
		Details: map[string]any{
			"n_selected":   result.NSelected,
			"n_total":      result.NTotal,
			"dataset_size": ds.RowCount(),
		},
		DurationMS: elapsed.Milliseconds(),
	})

	p.log.Info().
		Str("session_id", string(session)).
		Str("method", string(result.Method)).
		Int("n_selected", result.NSelected).
		Int("n_total", result.NTotal).
		Int64("cost", cost).
		Dur("elapsed", elapsed).
		Msg("feature selection completed")

	return result, nil
}

// cost translates a request into semaphore units. The value is clamped
// to the pool capacity so oversized Boruta requests still acquire; the
// engine rejects them against its own iteration budget afterwards.
func (p *Pool) cost(req selectors.Request) int64 {
	if req.Method != selection.MethodBoruta {
		return 1
	}
	iterations := selection.DefaultBorutaParams().NIterations
	if req.Boruta != nil {
		iterations = req.Boruta.NIterations
	}
	cost := int64(iterations)
	if cost < 1 {
		cost = 1
	}
	if cost > p.capacity {
		cost = p.capacity
	}
	return cost
}
