package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind is the failure class of an upstream call.
type Kind string

const (
	KindRateLimit  Kind = "rate_limit"
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindServer     Kind = "server"
	KindFatal      Kind = "fatal"
)

// Retryable reports whether calls failing with this kind may be retried.
func (k Kind) Retryable() bool {
	return k != KindFatal && k != ""
}

// ProviderError is returned by provider adapters so callers can classify
// failures without knowing the concrete SDK error types.
type ProviderError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError, deriving the kind from the HTTP
// status when one is known and from the error itself otherwise.
func NewProviderError(provider string, statusCode int, err error) *ProviderError {
	kind := KindFromStatus(statusCode)
	if statusCode == 0 {
		kind = Classify(err)
	}
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: statusCode, Err: err}
}

// KindFromStatus maps an HTTP status code to a failure kind.
func KindFromStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimit
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		return KindTimeout
	case statusCode >= 500:
		// Includes 529 (overloaded).
		return KindServer
	default:
		return KindFatal
	}
}

// transportPatterns match wrapped transport failures whose concrete type was
// lost on the way up (e.g. flattened by an SDK).
var transportPatterns = []string{
	"connection reset by peer",
	"connection refused",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"server closed idle connection",
	"transport connection broken",
	"unexpected eof",
}

var timeoutPatterns = []string{
	"tls handshake timeout",
	"i/o timeout",
	"client.timeout exceeded",
	"context deadline exceeded",
}

// Classify returns the failure kind of err. Unknown errors are fatal.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return KindConnection
	}

	msg := strings.ToLower(err.Error())
	for _, p := range timeoutPatterns {
		if strings.Contains(msg, p) {
			return KindTimeout
		}
	}
	for _, p := range transportPatterns {
		if strings.Contains(msg, p) {
			return KindConnection
		}
	}

	return KindFatal
}

// IsRetryable returns true if err belongs to a retryable failure class.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}
