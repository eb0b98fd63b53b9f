package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/adapters/stats/selectors"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/testkit"
)

type stubSink struct {
	events []audit.Event
}

func (s *stubSink) Write(_ context.Context, e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

func selectionDataset(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()
	cfg := testkit.DefaultGeneratorConfig()
	cfg.Rows = rows
	ds, err := testkit.NewGenerator(cfg).Dataset()
	require.NoError(t, err)
	return ds
}

func newTestPool(t *testing.T, opts Options) (*Pool, *stubSink) {
	t.Helper()
	hp := ml.DefaultHyperparameters()
	hp.Forest.NEstimators = 10
	hp.Forest.MaxDepth = 4
	sink := &stubSink{}
	recorder := audit.NewRecorder(zerolog.Nop(), sink)
	opts.Logger = zerolog.Nop()
	return NewPool(selectors.NewEngine(hp), recorder, opts), sink
}

func TestRunSelectionLasso(t *testing.T) {
	pool, sink := newTestPool(t, Options{Capacity: 10, RateLimit: 5, RateWindow: time.Hour})
	ds := selectionDataset(t, 200)

	result, err := pool.RunSelection(context.Background(), "s1", ds, selectors.Request{
		Method: selection.MethodLasso,
	})
	require.NoError(t, err)
	assert.Equal(t, selection.MethodLasso, result.Method)
	assert.Equal(t, ds.ColumnCount(), result.NTotal)
	assert.LessOrEqual(t, result.NSelected, result.NTotal)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, audit.EventFeatureSelection, event.Type)
	assert.Equal(t, "s1", event.SessionID)
	assert.Equal(t, "lasso", event.Method)
	assert.Equal(t, result.NSelected, event.Details["n_selected"])
	assert.Equal(t, ds.RowCount(), event.Details["dataset_size"])
}

func TestRunSelectionDefaultsSession(t *testing.T) {
	pool, sink := newTestPool(t, Options{Capacity: 10, RateLimit: 5, RateWindow: time.Hour})
	ds := selectionDataset(t, 150)

	_, err := pool.RunSelection(context.Background(), "", ds, selectors.Request{
		Method: selection.MethodWoeIV,
	})
	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, core.DefaultSession.String(), sink.events[0].SessionID)
}

func TestRunSelectionRateLimit(t *testing.T) {
	pool, sink := newTestPool(t, Options{Capacity: 10, RateLimit: 2, RateWindow: time.Hour})
	ds := selectionDataset(t, 150)
	req := selectors.Request{Method: selection.MethodWoeIV}

	assert.Equal(t, 2, pool.Remaining("s1"))
	for i := 0; i < 2; i++ {
		_, err := pool.RunSelection(context.Background(), "s1", ds, req)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, pool.Remaining("s1"))

	_, err := pool.RunSelection(context.Background(), "s1", ds, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRateLimited)
	assert.Contains(t, err.Error(), "2 runs per")

	// Sessions are limited independently.
	_, err = pool.RunSelection(context.Background(), "s2", ds, req)
	require.NoError(t, err)

	// Denied runs do not reach the audit trail.
	assert.Len(t, sink.events, 3)
}

func TestRunSelectionHonorsCancellation(t *testing.T) {
	pool, _ := newTestPool(t, Options{Capacity: 10, RateLimit: 5, RateWindow: time.Hour})
	ds := selectionDataset(t, 150)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.RunSelection(ctx, "s1", ds, selectors.Request{Method: selection.MethodLasso})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsTimeoutError(err))
}

func TestRunSelectionTimeoutSuggestsFewerIterations(t *testing.T) {
	pool, sink := newTestPool(t, Options{
		Capacity:         500,
		RateLimit:        5,
		RateWindow:       time.Hour,
		SelectionTimeout: time.Nanosecond,
	})
	ds := selectionDataset(t, 150)

	_, err := pool.RunSelection(context.Background(), "s1", ds, selectors.Request{
		Method: selection.MethodBoruta,
		Boruta: &selection.BorutaParams{NIterations: 50, ConfidenceLevel: 0.95},
	})
	require.Error(t, err)
	assert.True(t, core.IsTimeoutError(err))
	assert.Contains(t, err.Error(), "try fewer iterations")
	assert.Empty(t, sink.events)
}

func TestRunSelectionPropagatesEngineErrors(t *testing.T) {
	pool, _ := newTestPool(t, Options{Capacity: 10, RateLimit: 5, RateWindow: time.Hour})
	ds := selectionDataset(t, 150)

	_, err := pool.RunSelection(context.Background(), "s1", ds, selectors.Request{
		Method: selection.Method("recursive_elimination"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedMethod)

	_, err = pool.RunSelection(context.Background(), "s1", nil, selectors.Request{
		Method: selection.MethodLasso,
	})
	assert.ErrorIs(t, err, core.ErrEmptyDataset)
}

func TestSelectionCost(t *testing.T) {
	pool, _ := newTestPool(t, Options{Capacity: 200, RateLimit: 5, RateWindow: time.Hour})

	assert.Equal(t, int64(1), pool.cost(selectors.Request{Method: selection.MethodLasso}))
	assert.Equal(t, int64(1), pool.cost(selectors.Request{Method: selection.MethodWoeIV}))
	assert.Equal(t, int64(1), pool.cost(selectors.Request{Method: selection.MethodTreeImportance}))

	// Boruta without explicit parameters costs the default iteration count.
	defaults := selection.DefaultBorutaParams()
	assert.Equal(t, int64(defaults.NIterations), pool.cost(selectors.Request{Method: selection.MethodBoruta}))

	assert.Equal(t, int64(30), pool.cost(selectors.Request{
		Method: selection.MethodBoruta,
		Boruta: &selection.BorutaParams{NIterations: 30},
	}))

	// Oversized requests clamp to capacity so Acquire cannot deadlock.
	assert.Equal(t, int64(200), pool.cost(selectors.Request{
		Method: selection.MethodBoruta,
		Boruta: &selection.BorutaParams{NIterations: 100000},
	}))
}

func TestWorkerCapacity(t *testing.T) {
	perWorker := selection.DefaultBorutaParams().NIterations
	assert.Equal(t, 4*perWorker, WorkerCapacity(4))
	assert.Equal(t, perWorker, WorkerCapacity(1))
	assert.Equal(t, perWorker, WorkerCapacity(0))
	assert.Equal(t, perWorker, WorkerCapacity(-3))
}

func TestRunSelectionBorutaOverBudget(t *testing.T) {
	pool, _ := newTestPool(t, Options{Capacity: 10, RateLimit: 5, RateWindow: time.Hour})
	ds := selectionDataset(t, 150)

	_, err := pool.RunSelection(context.Background(), "s1", ds, selectors.Request{
		Method: selection.MethodBoruta,
		Boruta: &selection.BorutaParams{NIterations: selectors.MaxBorutaIterations + 1, ConfidenceLevel: 0.95},
	})
	require.Error(t, err)
	assert.True(t, core.IsBudgetError(err))
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	assert.True(t, limiter.Allow("a", base))
	assert.True(t, limiter.Allow("a", base.Add(10*time.Minute)))
	assert.False(t, limiter.Allow("a", base.Add(20*time.Minute)))

	// The first call ages out of the window; capacity returns.
	assert.True(t, limiter.Allow("a", base.Add(61*time.Minute)))
	assert.False(t, limiter.Allow("a", base.Add(62*time.Minute)))

	// Other callers are untouched.
	assert.True(t, limiter.Allow("b", base.Add(20*time.Minute)))

	assert.Equal(t, 0, limiter.Remaining("a", base.Add(62*time.Minute)))
	assert.Equal(t, 2, limiter.Remaining("a", base.Add(3*time.Hour)))
}
