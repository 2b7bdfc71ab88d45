package providers

import (
	"context"
	"errors"
)

// Error classes shared by every upstream provider. Callers classify with errors.Is.
var (
	// ErrNotConfigured means a required credential is absent. Not retried.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrUpstreamUnavailable covers non-success statuses and transport failures.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse means the provider answered with an unexpected payload.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Classify maps an error to a short label suitable for logs and metric labels.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
