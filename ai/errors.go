package ai

import "errors"

var (
	// ErrRateLimited indicates the provider rejected the call because of
	// rate limiting or quota exhaustion. Safe to retry after a backoff.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates the provider was momentarily unreachable or
	// returned a transient server error. Safe to retry after a backoff.
	ErrUnavailable = errors.New("provider unavailable")
)

// Retryable reports whether err is a transient provider failure that may
// succeed on a later attempt. Everything else is treated as permanent and
// surfaced immediately.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
