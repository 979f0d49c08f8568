// Package domain defines the error taxonomy shared by the extraction pipeline,
// the registry client and the HTTP layer.
//
// Go Pattern: A single error type with a Kind field instead of one type per
// failure. Callers branch on the kind with errors.As (via KindOf/IsKind), and
// the original cause stays reachable through Unwrap.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind string

const (
	// KindInput means a required input was missing (no file, no key, no registry config).
	KindInput Kind = "input"
	// KindValidation means a string failed the access key rules.
	KindValidation Kind = "validation"
	// KindExtractionMiss means every enabled strategy ran without finding a key.
	KindExtractionMiss Kind = "extraction_miss"
	// KindUpstream means the registry or a remote PDF host failed or answered non-2xx.
	KindUpstream Kind = "upstream"
	// KindRasterization means the PDF could not be rendered at all.
	KindRasterization Kind = "rasterization"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the upstream HTTP status for KindUpstream, zero otherwise.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InputError(message string) *Error {
	return NewError(KindInput, message, nil)
}

func ValidationError(message string) *Error {
	return NewError(KindValidation, message, nil)
}

func ExtractionMiss(message string) *Error {
	return NewError(KindExtractionMiss, message, nil)
}

func RasterizationError(message string, err error) *Error {
	return NewError(KindRasterization, message, err)
}

// UpstreamError records a failed call to an external HTTP service.
// status is zero when the request never got a response.
func UpstreamError(message string, status int, err error) *Error {
	e := NewError(KindUpstream, message, err)
	e.StatusCode = status
	return e
}

// KindOf returns the kind of err, or KindInternal when err is not classified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindValidation, KindExtractionMiss, KindRasterization:
		return http.StatusUnprocessableEntity
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
