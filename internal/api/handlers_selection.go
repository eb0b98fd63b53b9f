package api

import (
	"net/http"
	"strconv"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/stats/selectors"
	"github.com/pkiage/tool-credit-risk-modelling/domain/credit"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// selectionRequest is the flat wire shape for feature selection: the
// dataset inline plus the union of every method's parameters. Absent
// parameters fall back to the method defaults.
type selectionRequest struct {
	Method        string      `json:"method"`
	FeatureMatrix [][]float64 `json:"feature_matrix"`
	Labels        []float64   `json:"labels"`
	FeatureNames  []string    `json:"feature_names"`
	RandomState   *int64      `json:"random_state,omitempty"`

	// tree_importance
	ModelType *string  `json:"model_type,omitempty"`
	TopK      *int     `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`

	// lasso
	C       *float64 `json:"C,omitempty"`
	MaxIter *int     `json:"max_iter,omitempty"`

	// woe_iv
	NBins       *int     `json:"n_bins,omitempty"`
	IVThreshold *float64 `json:"iv_threshold,omitempty"`

	// boruta
	NIterations      *int     `json:"n_iterations,omitempty"`
	ConfidenceLevel  *float64 `json:"confidence_level,omitempty"`
	IncludeTentative *bool    `json:"include_tentative,omitempty"`
}

// engineRequest folds the flat parameters into the typed per-method
// request. Unknown methods produce a bare request the engine rejects.
func (req selectionRequest) engineRequest() selectors.Request {
	out := selectors.Request{
		Method:      selection.Method(req.Method),
		RandomState: credit.DefaultRandomState,
	}
	if req.RandomState != nil {
		out.RandomState = *req.RandomState
	}

	switch out.Method {
	case selection.MethodTreeImportance:
		params := selection.DefaultTreeImportanceParams()
		if req.ModelType != nil {
			params.ModelType = *req.ModelType
		}
		params.TopK = req.TopK
		params.Threshold = req.Threshold
		out.TreeImportance = &params

	case selection.MethodLasso:
		params := selection.DefaultLassoParams()
		if req.C != nil {
			params.C = *req.C
		}
		if req.MaxIter != nil {
			params.MaxIter = *req.MaxIter
		}
		out.Lasso = &params

	case selection.MethodWoeIV:
		params := selection.DefaultWoeIvParams()
		if req.NBins != nil {
			params.NBins = *req.NBins
		}
		if req.IVThreshold != nil {
			params.IVThreshold = *req.IVThreshold
		}
		out.WoeIv = &params

	case selection.MethodBoruta:
		params := selection.DefaultBorutaParams()
		if req.NIterations != nil {
			params.NIterations = *req.NIterations
		}
		if req.ConfidenceLevel != nil {
			params.ConfidenceLevel = *req.ConfidenceLevel
		}
		if req.IncludeTentative != nil {
			params.IncludeTentative = *req.IncludeTentative
		}
		out.Boruta = &params
	}
	return out
}

func (s *Server) handleFeatureSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	session := sessionFrom(r)
	ds := &dataset.Dataset{
		Matrix:       req.FeatureMatrix,
		Labels:       req.Labels,
		FeatureNames: req.FeatureNames,
	}

	result, err := s.selection.RunSelection(r.Context(), session, ds, req.engineRequest())
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(s.selection.Remaining(session)))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type methodsResponse struct {
	Methods []selectors.MethodInfo `json:"methods"`
}

func (s *Server) handleSelectionMethods(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, methodsResponse{Methods: s.selection.Methods()})
}
