package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

// StatusCoder is implemented by errors that carry a pending HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StackTracer is implemented by errors created through github.com/pkg/errors.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

// RouteMissError reports a request no route matched.
type RouteMissError struct {
	Method string
	Path   string // original request URI, query included
	origin StackTracer
}

// NewRouteMiss builds the miss for r and records where it was raised.
func NewRouteMiss(r *http.Request) *RouteMissError {
	e := &RouteMissError{
		Method: r.Method,
		Path:   r.URL.RequestURI(),
	}
	e.origin = errors.New(e.Error()).(StackTracer)
	return e
}

func (e *RouteMissError) Error() string {
	return "Not Found - " + e.Path
}

func (e *RouteMissError) StatusCode() int {
	return http.StatusNotFound
}

func (e *RouteMissError) StackTrace() errors.StackTrace {
	if e.origin == nil {
		return nil
	}
	return e.origin.StackTrace()
}
