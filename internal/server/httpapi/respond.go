package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/common"
)

// apiResponse is the uniform success envelope.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiErrorResponse is the uniform error envelope. Raw internal errors never
// appear here.
type apiErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// errorStatus maps the domain error taxonomy to an HTTP status and a
// client-safe message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "user already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "err", err)
	}
	writeJSON(w, status, apiErrorResponse{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     []string{},
	})
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return err
	}
	return nil
}
