// Package presenter holds the JSON rendering and error mapping shared by the HTTP handlers.
package presenter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"bloodLink/internal/middleware"
	"bloodLink/internal/workflow"
	"bloodLink/pkg/e"
)

// Logger returns logger enriched with the chi request id when present.
func Logger(logger *slog.Logger, r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode failed", slog.Any("error", err))
	}
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, e.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, e.ErrInvalidUserID):
		return http.StatusUnauthorized
	case e.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrInvalidTransition),
		errors.Is(err, e.ErrAlreadySubmitted),
		errors.Is(err, e.ErrRequestClosed),
		errors.Is(err, e.ErrConflict),
		errors.Is(err, e.ErrUniqueViolation):
		return http.StatusConflict
	case errors.Is(err, e.ErrDeadline):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err and renders it. Server errors never leak their message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	l := Logger(logger, r)
	status := StatusFor(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		l.Error("handler error", attrs...)
	} else {
		l.Warn("handler error", attrs...)
	}

	body := map[string]any{"error": err.Error()}
	if status >= http.StatusInternalServerError {
		body["error"] = http.StatusText(status)
	}

	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		body["step"] = verr.Step.String()
		body["missing_fields"] = verr.MissingFields
	}
	var ferr *middleware.FieldsError
	if errors.As(err, &ferr) {
		body["fields"] = ferr.Fields
	}

	WriteJSON(w, logger, status, body)
}

// PathUUID parses the chi URL parameter name as a uuid.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, e.Wrap("invalid "+name, e.ErrInvalidInput)
	}
	return id, nil
}

func ParseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
