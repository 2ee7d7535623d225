package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bloodLink/pkg/e"
	"bloodLink/pkg/validator"
)

const maxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON when the body holds no JSON at all.
// It wraps e.ErrInvalidInput so callers that require a body need no special case.
var ErrEmptyBody = e.Wrap("empty body", e.ErrInvalidInput)

// FieldsError is returned by DecodeJSON when the payload fails struct validation.
type FieldsError struct {
	Fields []string
}

func (f *FieldsError) Error() string {
	return "invalid fields: " + strings.Join(f.Fields, ", ")
}

func (f *FieldsError) Unwrap() error { return e.ErrInvalidInput }

// DecodeJSON reads exactly one JSON object from the body into dst and validates it.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return e.Wrap("invalid JSON", e.ErrInvalidInput)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return e.Wrap("invalid JSON", e.ErrInvalidInput)
	}

	if err := validator.ValidateStruct(dst); err != nil {
		if fields := validator.FieldErrors(err); len(fields) > 0 {
			return &FieldsError{Fields: fields}
		}
		return e.Wrap("validate", e.ErrInvalidInput)
	}
	return nil
}
