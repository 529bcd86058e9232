package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors, and how
// request bodies are read and validated.
//
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, err)
//   bindJSON(r, &req)   → decode + validate, errors come back as AppError
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "question not found with id abc123"}
// Validation errors also name the offending field:
//   {"error": "validation_error", "message": "field required", "field": "title"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/skillgig-backend/internal/apperror"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending input, when there is one
}

// One validator for the whole process: it caches struct metadata, so building
// it per request would throw that cache away.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name ("answerText"), not the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return strings.ToLower(f.Name[:1]) + f.Name[1:]
		}
		return name
	})
	return v
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once Encode
// writes, the headers are gone and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation          → 422 validation_error
//	ErrNotFound            → 404 not_found
//	ErrForbidden           → 403 forbidden
//	ErrConflict            → 400 conflict
//	ErrInvalidCredentials  → 400 invalid_credentials
//	ErrUnauthorized        → 401 unauthorized
//	anything else          → 500 internal_error, details never exposed
//
// errors.Is walks the whole chain, so a service returning
// fmt.Errorf("creating question: %w", apperror.NotFound(...)) still maps to 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("internal error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusUnprocessableEntity // 422
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound // 404
		errorType = "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden // 403
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusBadRequest // 400
		errorType = "conflict"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status = http.StatusBadRequest // 400
		errorType = "invalid_credentials"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized // 401
		errorType = "unauthorized"
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// bindJSON decodes the request body into dst and validates it.
// Unknown fields are ignored; an empty body counts as invalid JSON.
func bindJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "invalid JSON body")
		}
	}
	return validateStruct(dst)
}

// validateStruct runs the validate tags of v and reports the first failure.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating request: %w", err)
	}
	fe := verrs[0]
	return apperror.ValidationFailed(fieldPath(fe), fieldMessage(fe))
}

// fieldPath drops the struct name from "QuestionCreateRequest.tags[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "invalid value"
}
