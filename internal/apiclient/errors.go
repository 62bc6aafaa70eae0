package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork matches every transport failure (no response was received).
var ErrNetwork = errors.New("network error")

// ServiceError is a non-2xx response. Message is the server's own text when
// the body carried one.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *ServiceError) Unauthenticated() bool { return e.Status == http.StatusUnauthorized }

func (e *ServiceError) Forbidden() bool { return e.Status == http.StatusForbidden }

func (e *ServiceError) NotFound() bool { return e.Status == http.StatusNotFound }

// NetworkError wraps a failed round trip.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// StatusOf returns the HTTP status carried by err, 0 when there is none.
func StatusOf(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
