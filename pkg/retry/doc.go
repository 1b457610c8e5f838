// Package retry re-runs gateway calls that fail with transient errors.
//
// Only errors classified as network, rate_limit or server_error by
// pkg/errors are retried. A rate_limit error carrying RetryAfter waits
// exactly that long (capped by MaxDelay) instead of the exponential backoff.
package retry
