package repository

import "errors"

// Retriable failures: consumed against the per-target retry budget.
var (
	ErrFetchTimeout = errors.New("extraction request timed out")
	ErrConnection   = errors.New("connection to extraction service failed")
	ErrServerBusy   = errors.New("extraction service busy or unavailable")
)

// Terminal failures: recorded as failed URLs without further retries.
var (
	ErrContentRestricted = errors.New("page is missing, restricted or forbidden")
	ErrBadResponse       = errors.New("malformed extraction response")
	ErrEmptyContent      = errors.New("extraction returned no markdown content")
)

// IsRetriable reports whether an extraction error may be retried
// against the remaining retry budget.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrFetchTimeout) ||
		errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrServerBusy)
}
