package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"txstats/internal/core"
	"txstats/internal/log"
)

type detailBody struct {
	Detail string `json:"detail"`
}

type dataBody struct {
	Data any `json:"data"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}

// statusFor maps a service error to the response status and client-facing
// detail. Unknown errors become a generic 500.
func statusFor(err error) (int, string) {
	var ve *core.ValidationError
	var se *core.SummaryError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &se):
		if se.NotFound() {
			return http.StatusNotFound, se.Error()
		}
		return http.StatusBadRequest, se.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, detail := statusFor(err)
	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.InfoContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	writeDetail(w, status, detail)
}
