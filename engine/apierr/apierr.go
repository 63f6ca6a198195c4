// Package apierr holds the error kinds shared by the converters and the HTTP layer.
package apierr

import (
	"errors"
	"net/http"
)

var (
	ErrMissingInput     = errors.New("missing input")
	ErrInvalidOption    = errors.New("invalid option")
	ErrInvalidPageRange = errors.New("invalid page range")
	ErrRemoteRender     = errors.New("remote render failed")
	ErrPDFLoad          = errors.New("failed to load PDF")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrEncryption       = errors.New("encryption failed")
)

// StatusCode maps an error to the HTTP status returned to the client.
// Only missing input is a client error, everything else is a 500.
func StatusCode(err error) int {
	if errors.Is(err, ErrMissingInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Missing builds a missing input error carrying a client facing message.
func Missing(msg string) error {
	return &inputError{msg: msg}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Unwrap() error { return ErrMissingInput }
