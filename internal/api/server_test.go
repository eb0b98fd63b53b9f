package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/adapters/stats/selectors"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/inference"
	"github.com/pkiage/tool-credit-risk-modelling/internal/jobs"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
	"github.com/pkiage/tool-credit-risk-modelling/internal/testkit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/training"
)

type stubSink struct {
	events []audit.Event
}

func (s *stubSink) Write(_ context.Context, e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

type testEnv struct {
	server *Server
	sink   *stubSink
	data   *dataset.Dataset
}

type envOptions struct {
	apiKey    string
	rateLimit int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	if opts.rateLimit == 0 {
		opts.rateLimit = 100
	}

	hp := ml.DefaultHyperparameters()
	hp.Forest.NEstimators = 15
	hp.Forest.MaxDepth = 5
	hp.Boosting.NRounds = 10

	registry := store.NewRegistry(50, 0, zerolog.Nop())
	sink := &stubSink{}
	recorder := audit.NewRecorder(zerolog.Nop(), sink)
	trainSvc := training.NewService(registry, nil, recorder, hp,
		training.Defaults{TestSize: 0.2, Seed: 42}, zerolog.Nop())
	inferSvc := inference.NewService(registry, recorder, zerolog.Nop())
	pool := jobs.NewPool(selectors.NewEngine(hp), recorder, jobs.Options{
		Capacity:   200,
		RateLimit:  opts.rateLimit,
		RateWindow: time.Hour,
		Logger:     zerolog.Nop(),
	})

	cfg := testkit.DefaultGeneratorConfig()
	cfg.Rows = 300
	ds, err := testkit.NewGenerator(cfg).Dataset()
	require.NoError(t, err)

	server := NewServer(Deps{
		Registry:  registry,
		Training:  trainSvc,
		Inference: inferSvc,
		Selection: pool,
		Recorder:  recorder,
		Data:      ds,
		Log:       zerolog.Nop(),
		Version:   "1.0.0",
		APIKey:    opts.apiKey,
	})
	return &testEnv{server: server, sink: sink, data: ds}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewReader([]byte(b))
		default:
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewReader(encoded)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var envelope apiError
	decodeInto(t, rec, &envelope)
	assert.Equal(t, code, envelope.Error.Code)
	assert.NotEmpty(t, envelope.Error.Message)
}

func (e *testEnv) trainModel(t *testing.T, session, modelType string) training.Result {
	t.Helper()
	headers := map[string]string{HeaderSession: session}
	rec := e.do(t, http.MethodPost, "/api/v1/train",
		map[string]any{"model_type": modelType}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result training.Result
	decodeInto(t, rec, &result)
	return result
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Zero(t, resp.ModelCount)
}

func TestTrainAndInspectModel(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "logistic_regression")
	assert.NotEmpty(t, result.ModelID)
	assert.Greater(t, result.Metrics.ROCAUC, 0.5)

	headers := map[string]string{HeaderSession: "alpha"}
	rec := env.do(t, http.MethodGet, "/api/v1/models", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var list modelListResponse
	decodeInto(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, result.ModelID, list.Models[0].ModelID)

	rec = env.do(t, http.MethodGet, "/api/v1/models/"+result.ModelID.String(), nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail modelDetailResponse
	decodeInto(t, rec, &detail)
	assert.Equal(t, result.ModelID, detail.Metadata.ModelID)
	require.NotNil(t, detail.Metrics)
	assert.InDelta(t, result.Metrics.ROCAUC, detail.Metrics.ROCAUC, 1e-12)

	rec = env.do(t, http.MethodGet, "/health", nil, headers)
	var health healthResponse
	decodeInto(t, rec, &health)
	assert.Equal(t, 1, health.ModelCount)
}

func TestTrainRejectsUnsupportedModel(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodPost, "/api/v1/train",
		map[string]any{"model_type": "svm"}, nil)
	requireError(t, rec, http.StatusBadRequest, "UNSUPPORTED_MODEL")
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodPost, "/api/v1/train", "{not json", nil)
	requireError(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestPredictFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "random_forest")
	headers := map[string]string{HeaderSession: "alpha"}

	rec := env.do(t, http.MethodPost, "/api/v1/predict", map[string]any{
		"model_id":    result.ModelID,
		"application": testkit.SampleApplication(),
	}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp inference.Response
	decodeInto(t, rec, &resp)
	assert.Equal(t, result.ModelID, resp.ModelID)
	assert.InDelta(t, result.OptimalThreshold, resp.ThresholdUsed, 1e-12)
	p := resp.Prediction
	assert.GreaterOrEqual(t, p.DefaultProbability, 0.0)
	assert.LessOrEqual(t, p.DefaultProbability, 1.0)
	assert.Equal(t, p.DefaultProbability >= resp.ThresholdUsed, p.PredictedDefault)

	rec = env.do(t, http.MethodPost, "/api/v1/predict", map[string]any{
		"model_id":    "missing_model",
		"application": testkit.SampleApplication(),
	}, headers)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestPredictBatch(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "logistic_regression")
	headers := map[string]string{HeaderSession: "alpha"}

	apps := []any{testkit.SampleApplication(), testkit.SampleApplication(), testkit.SampleApplication()}
	rec := env.do(t, http.MethodPost, "/api/v1/predict/batch", map[string]any{
		"model_id":     result.ModelID,
		"applications": apps,
	}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp inference.BatchResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, 3, resp.TotalApplications)
	assert.Len(t, resp.Predictions, 3)
	assert.Equal(t, 3, resp.PredictedDefaults+resp.PredictedApprovals)
}

func TestSessionIsolation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "logistic_regression")

	other := map[string]string{HeaderSession: "beta"}
	rec := env.do(t, http.MethodGet, "/api/v1/models", nil, other)
	var list modelListResponse
	decodeInto(t, rec, &list)
	assert.Zero(t, list.Count)

	rec = env.do(t, http.MethodGet, "/api/v1/models/"+result.ModelID.String(), nil, other)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteModel(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "logistic_regression")
	headers := map[string]string{HeaderSession: "alpha"}

	rec := env.do(t, http.MethodDelete, "/api/v1/models/"+result.ModelID.String(), nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp modelDeleteResponse
	decodeInto(t, rec, &resp)
	assert.True(t, resp.Deleted)

	rec = env.do(t, http.MethodDelete, "/api/v1/models/"+result.ModelID.String(), nil, headers)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")

	var deleteEvents int
	for _, e := range env.sink.events {
		if e.Type == audit.EventModelDeleted {
			deleteEvents++
			assert.Equal(t, result.ModelID.String(), e.ModelID)
		}
	}
	assert.Equal(t, 1, deleteEvents)
}

func TestEvaluate(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	body := map[string]any{
		"labels":        []float64{0, 0, 1, 1},
		"probabilities": []float64{0.1, 0.4, 0.35, 0.8},
	}
	rec := env.do(t, http.MethodPost, "/api/v1/evaluate", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var metrics struct {
		ROCAUC            float64 `json:"roc_auc"`
		ThresholdAnalysis struct {
			Threshold float64 `json:"threshold"`
		} `json:"threshold_analysis"`
		ConfusionMatrix struct {
			TrueNegatives  int `json:"true_negatives"`
			FalsePositives int `json:"false_positives"`
			FalseNegatives int `json:"false_negatives"`
			TruePositives  int `json:"true_positives"`
		} `json:"confusion_matrix"`
	}
	decodeInto(t, rec, &metrics)
	assert.InDelta(t, 0.75, metrics.ROCAUC, 1e-12)
	total := metrics.ConfusionMatrix.TrueNegatives + metrics.ConfusionMatrix.FalsePositives +
		metrics.ConfusionMatrix.FalseNegatives + metrics.ConfusionMatrix.TruePositives
	assert.Equal(t, 4, total)

	body["threshold"] = 0.5
	rec = env.do(t, http.MethodPost, "/api/v1/evaluate", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &metrics)
	assert.InDelta(t, 0.5, metrics.ThresholdAnalysis.Threshold, 1e-12)
}

func TestEvaluateErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/v1/evaluate", map[string]any{
		"labels":        []float64{1, 1, 1},
		"probabilities": []float64{0.2, 0.5, 0.8},
	}, nil)
	requireError(t, rec, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA")

	rec = env.do(t, http.MethodPost, "/api/v1/evaluate", map[string]any{
		"labels":        []float64{0, 1},
		"probabilities": []float64{0.2, 0.5, 0.8},
	}, nil)
	requireError(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestFeatureSelection(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	body := map[string]any{
		"method":         "tree_importance",
		"feature_matrix": env.data.Matrix,
		"labels":         env.data.Labels,
		"feature_names":  env.data.FeatureNames,
		"top_k":          5,
	}
	rec := env.do(t, http.MethodPost, "/api/v1/feature-selection", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	remaining, err := strconv.Atoi(rec.Header().Get(HeaderRateLimitRemaining))
	require.NoError(t, err)
	assert.Equal(t, 99, remaining)

	var result struct {
		Method           string   `json:"method"`
		SelectedFeatures []string `json:"selected_features"`
		NSelected        int      `json:"n_selected"`
		NTotal           int      `json:"n_total"`
		MethodMetadata   struct {
			SelectionMode string `json:"selection_mode"`
		} `json:"method_metadata"`
	}
	decodeInto(t, rec, &result)
	assert.Equal(t, "tree_importance", result.Method)
	assert.Equal(t, 5, result.NSelected)
	assert.Len(t, result.SelectedFeatures, 5)
	assert.Equal(t, len(env.data.FeatureNames), result.NTotal)
	assert.Equal(t, "top_k", result.MethodMetadata.SelectionMode)
}

func TestFeatureSelectionErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/v1/feature-selection", map[string]any{
		"method":         "recursive_elimination",
		"feature_matrix": [][]float64{{1, 2}, {3, 4}},
		"labels":         []float64{0, 1},
		"feature_names":  []string{"a", "b"},
	}, nil)
	requireError(t, rec, http.StatusBadRequest, "UNSUPPORTED_METHOD")

	rec = env.do(t, http.MethodPost, "/api/v1/feature-selection", map[string]any{
		"method":         "lasso",
		"feature_matrix": [][]float64{{1, 2}, {3, 4}},
		"labels":         []float64{0, 1, 1},
		"feature_names":  []string{"a", "b"},
	}, nil)
	requireError(t, rec, http.StatusBadRequest, "INVALID_INPUT")

	rec = env.do(t, http.MethodPost, "/api/v1/feature-selection", map[string]any{
		"method":         "boruta",
		"feature_matrix": [][]float64{{1, 2}, {3, 4}},
		"labels":         []float64{0, 1},
		"feature_names":  []string{"a", "b"},
		"n_iterations":   selectors.MaxBorutaIterations + 1,
	}, nil)
	requireError(t, rec, http.StatusBadRequest, "COMPUTE_BUDGET_EXCEEDED")
}

func TestFeatureSelectionRateLimited(t *testing.T) {
	env := newTestEnv(t, envOptions{rateLimit: 1})
	body := map[string]any{
		"method":         "woe_iv",
		"feature_matrix": env.data.Matrix,
		"labels":         env.data.Labels,
		"feature_names":  env.data.FeatureNames,
	}
	rec := env.do(t, http.MethodPost, "/api/v1/feature-selection", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/feature-selection", body, nil)
	requireError(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")
	assert.Equal(t, "0", rec.Header().Get(HeaderRateLimitRemaining))
}

func TestSelectionMethodsCatalog(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/api/v1/feature-selection/methods", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp methodsResponse
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Methods, 4)
	names := make([]string, 0, 4)
	for _, m := range resp.Methods {
		names = append(names, string(m.Method))
	}
	assert.ElementsMatch(t, []string{"tree_importance", "lasso", "woe_iv", "boruta"}, names)
}

func TestAPIKeyAuth(t *testing.T) {
	env := newTestEnv(t, envOptions{apiKey: "sesame"})

	rec := env.do(t, http.MethodGet, "/api/v1/models", nil, nil)
	requireError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	rec = env.do(t, http.MethodGet, "/api/v1/models", nil,
		map[string]string{HeaderAPIKey: "wrong"})
	requireError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	rec = env.do(t, http.MethodGet, "/api/v1/models", nil,
		map[string]string{HeaderAPIKey: "sesame"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes.
	rec = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestModelReport(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "random_forest")
	headers := map[string]string{HeaderSession: "alpha"}

	rec := env.do(t, http.MethodGet, "/api/v1/models/"+result.ModelID.String()+"/report", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	page := rec.Body.String()
	assert.Contains(t, page, "Model brief")
	assert.Contains(t, page, result.ModelID.String())

	rec = env.do(t, http.MethodGet, "/api/v1/models/unknown/report", nil, headers)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestModelWorkbook(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	result := env.trainModel(t, "alpha", "random_forest")
	headers := map[string]string{HeaderSession: "alpha"}

	rec := env.do(t, http.MethodGet, "/api/v1/models/"+result.ModelID.String()+"/report.xlsx", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 4)
}
