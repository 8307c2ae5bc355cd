// Package apperr defines the error kinds shared across the recommendation
// service's components and their mapping to HTTP status codes. Kinds are
// not Go types; a single AppError wraps an underlying cause with a kind tag
// so callers can branch with errors.As without a type per failure mode.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the error kinds recognized across the service.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindInvalidWeights      Kind = "InvalidWeights"
	KindInvalidParam        Kind = "InvalidParam"
	KindShapeMismatch       Kind = "ShapeMismatch"
	KindUnauthorized        Kind = "Unauthorized"
	KindCancelled           Kind = "Cancelled"
	KindTimeout             Kind = "Timeout"
	KindStoreFault          Kind = "StoreFault"
	KindProjectorStepFailed Kind = "ProjectorStepFailed"
)

// AppError is the concrete error value carrying a Kind plus optional
// structured context (e.g. the step name for ProjectorStepFailed).
type AppError struct {
	Kind    Kind
	Message string
	Step    string // set only for KindProjectorStepFailed
	OffendingID string // set only for KindProjectorStepFailed
	Err     error
}

func (e *AppError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s: step %q id %q: %s", e.Kind, e.Step, e.OffendingID, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New builds an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap builds an AppError of the given kind wrapping a lower-level cause.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// ProjectorStepFailed builds the structured projector failure naming the
// step and the offending id.
func ProjectorStepFailed(step, offendingID string, err error) *AppError {
	return &AppError{
		Kind:        KindProjectorStepFailed,
		Message:     "projector step failed",
		Step:        step,
		OffendingID: offendingID,
		Err:         err,
	}
}

// KindOf extracts the Kind of err, if it (or something it wraps) is an
// *AppError; ok is false otherwise.
func KindOf(err error) (Kind, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// HTTPStatus maps an error kind to the user-visible status:
// 400 on InvalidWeights/InvalidParam; 401 on Unauthorized; 500 on
// StoreFault/ShapeMismatch; 504 on Timeout/Cancelled; 404 on NotFound;
// everything else falls back to 500.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindInvalidWeights, KindInvalidParam:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindStoreFault, KindShapeMismatch, KindProjectorStepFailed:
		return http.StatusInternalServerError
	case KindTimeout, KindCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
