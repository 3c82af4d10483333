// Package apperr holds the error taxonomy shared by the resolver, the report
// generators and the dialogue machine.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle means the handle could not be mapped to an account.
	ErrInvalidHandle = errors.New("invalid profile handle")
	// ErrNoMatchData means the account exists but exposes no match data.
	ErrNoMatchData = errors.New("no match data exposed")
	// ErrInvalidInput means a count was expected but the text was not an integer.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable means a provider was unreachable, timed out or rejected our credentials.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUnrecognizedCommand means no transition accepts the command in the current state.
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	// ErrUnrecognizedText means no transition accepts free text in the current state.
	ErrUnrecognizedText = errors.New("unrecognized text")
)

// UpstreamError describes a failed provider call. It matches ErrUpstreamUnavailable.
type UpstreamError struct {
	Service  string
	Endpoint string
	// Status is the HTTP status code, 0 for transport errors and timeouts.
	Status int
	Err    error
}

// Upstream builds an *UpstreamError.
func Upstream(service, endpoint string, status int, err error) *UpstreamError {
	return &UpstreamError{Service: service, Endpoint: endpoint, Status: status, Err: err}
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Endpoint, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d", e.Service, e.Endpoint, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Service, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s %s: unavailable", e.Service, e.Endpoint)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstreamUnavailable) succeed for any upstream failure.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// Code feeds the err_code attribute of handler summary logs.
func (e *UpstreamError) Code() string {
	if e.Status == 401 || e.Status == 403 {
		return "UPSTREAM_FORBIDDEN"
	}
	return "UPSTREAM_UNAVAILABLE"
}

// Misconfigured reports whether the provider rejected our credentials, which
// needs operator action rather than a user retry.
func (e *UpstreamError) Misconfigured() bool {
	return e.Status == 401 || e.Status == 403
}
