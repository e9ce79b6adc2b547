// Package retry classifies errors from remote gateways so the delivery
// pipeline can decide whether a failed operation is worth retrying.
package retry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"

	"smsbridge/pkg/circuitbreaker"
)

// StatusCoder is implemented by gateway errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// IsRetryable reports whether err is transient, along with a short
// classification label used in logs and metrics.
func IsRetryable(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// JSON decode errors: the payload is malformed, retrying won't help.
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return false, "json_decode_error"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// An open breaker means the remote is known-bad right now; the call
	// never went out, so a later retry is fine.
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return true, "circuit_open"
	}

	// HTTP status from a gateway error.
	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		switch {
		case code == 429:
			return true, "rate_limited"
		case code >= 500:
			return true, "server_error"
		case code == 401 || code == 403:
			return false, "auth_rejected"
		default:
			return false, "client_error"
		}
	}

	// Context errors come before the net.Error check because
	// context.DeadlineExceeded also satisfies net.Error.
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	// Network errors are transient.
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	// Unknown errors are handled conservatively: no retry.
	return false, "unknown_error"
}
