package genclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNotInitialized is returned by any generation call made before a
	// credential has been configured.
	ErrNotInitialized = errors.New("generation client not initialized: configure an API key first")

	// ErrMalformedResponse is returned when the model's output cannot be
	// parsed into, or does not satisfy, the expected shape. Never retried.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrAuth is returned when the service rejects the configured
	// credential. The caller owns prompting for a new one; the client does
	// not clear its stored credential.
	ErrAuth = errors.New("credential rejected by generation service")
)

// StatusError carries an HTTP status from the REST code paths (speech and
// image synthesis) so the retry predicate can inspect it.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation service returned status %d: %s", e.Code, e.Message)
}

// statusCode extracts an HTTP status from the error chain, or 0.
func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return 0
}

// retryable reports whether an error is a transient rate-limit or
// availability failure worth another attempt. Everything else, including
// malformed responses and auth failures, propagates immediately.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	switch statusCode(err) {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota")
}

// authError reports a rejected credential (401/403).
func authError(err error) bool {
	switch statusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
