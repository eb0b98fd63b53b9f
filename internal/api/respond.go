package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// maxBodyBytes bounds request bodies. Inline feature matrices are the
// largest accepted payload.
const maxBodyBytes = 16 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response failed")
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status, code := statusAndCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
		message = "internal server error"
	}
	writeError(w, status, code, message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// statusAndCode maps domain errors onto the wire taxonomy. Unsupported
// method and model checks come first: the broad invalid-input class
// covers them too.
func statusAndCode(err error) (int, string) {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case core.IsTimeoutError(err):
		return http.StatusServiceUnavailable, "TIMEOUT"
	case core.IsBudgetError(err):
		return http.StatusBadRequest, "COMPUTE_BUDGET_EXCEEDED"
	case errors.Is(err, core.ErrUnsupportedMethod):
		return http.StatusBadRequest, "UNSUPPORTED_METHOD"
	case errors.Is(err, core.ErrUnsupportedModel):
		return http.StatusBadRequest, "UNSUPPORTED_MODEL"
	case core.IsInvalidInputError(err):
		return http.StatusBadRequest, "INVALID_INPUT"
	case core.IsInsufficientDataError(err):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
	case errors.Is(err, core.ErrNotFitted):
		return http.StatusInternalServerError, "MODEL_NOT_FITTED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// decodeJSON reads a bounded JSON body into dst. Malformed bodies map
// to the invalid-input class so callers get a 400, not a 500.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", core.ErrInvalidInput, err)
	}
	return nil
}
