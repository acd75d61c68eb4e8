package generate

import "strings"

// classifyTransport wraps a remote failure in a TransportError with the
// sub-kind recognized from the response content. Rate limiting is checked
// before quota because rate-limit messages often also contain "exceeded".
func classifyTransport(err error) *TransportError {
	msg := err.Error()
	switch {
	case containsAny(msg, "rate limit", "too many requests", "429"):
		return &TransportError{Kind: KindRateLimited, Err: err}
	case containsAny(msg, "quota", "resource exhausted", "resource_exhausted"):
		return &TransportError{Kind: KindQuotaExceeded, Err: err}
	default:
		return &TransportError{Kind: KindGeneric, Err: err}
	}
}

// retryableError determines if an error should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Rate limit errors - always retry
	if containsAny(errStr, "rate limit", "too many requests", "429") {
		return true
	}

	// Quota errors are spent for the period - never retry
	if containsAny(errStr, "quota", "resource exhausted", "resource_exhausted") {
		return false
	}

	// Transient server errors - retry
	if containsAny(errStr, "500", "502", "503", "504", "unavailable") {
		return true
	}

	// Network errors - retry
	if containsAny(errStr, "connection reset", "timeout", "temporary") {
		return true
	}

	return false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
