// Package upstream defines the typed failure returned when an external
// service (chat model, geocoder, map-data API) cannot be reached or answers
// with a non-success status. Callers match it with errors.As and surface it;
// nothing in this repository retries it.
package upstream

import (
	"errors"
	"fmt"
)

// Service names used in Error.Service.
const (
	ServiceChat     = "chat"
	ServiceGeocoder = "geocoder"
	ServiceMapData  = "map-data"
)

// Error wraps a transport or status failure from one external service.
type Error struct {
	Service    string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable: status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns an *Error for service, or nil when err is nil.
func Wrap(service string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Service: service, StatusCode: status, Err: err}
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
