// Package errx carries an HTTP status and a client-safe message alongside an
// underlying error so handlers can translate failures uniformly.
package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is the fallback shown when nothing better is known.
	SystemErrorMessage = "internal server error"
	// UpstreamErrorMessage describes failures talking to the quotation backend.
	UpstreamErrorMessage = "quotation backend unavailable"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

// BadRequest is shorthand for a 400 with no underlying cause.
func BadRequest(message string) *AppError {
	return New(nil, http.StatusBadRequest, message)
}

// StatusOf reports the HTTP status and message carried by err, falling back
// to 500 for errors that are not AppErrors.
func StatusOf(err error) (int, string) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Status, ae.Message
	}
	return http.StatusInternalServerError, SystemErrorMessage
}
