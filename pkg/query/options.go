package query

import (
	"encoding/json"
	"time"
)

// Options configure how a query is fetched and refreshed.
type Options struct {
	RefetchOnMount       bool
	RefetchOnReconnect   bool
	RefetchOnWindowFocus bool

	// Retry is the number of retries after a failed fetch. Zero disables retry.
	Retry int

	// RetryDelay is the wait between retries.
	RetryDelay time.Duration

	// PlaceholderData is returned by Data while no result is cached.
	PlaceholderData json.RawMessage
}

// QueryOption overrides the client defaults for one call.
type QueryOption func(*Options)

// WithRetry sets the number of retries.
func WithRetry(n int) QueryOption {
	return func(o *Options) {
		o.Retry = n
	}
}

// WithRetryDelay sets the wait between retries.
func WithRetryDelay(d time.Duration) QueryOption {
	return func(o *Options) {
		o.RetryDelay = d
	}
}

// WithPlaceholder sets the placeholder returned before data is cached.
func WithPlaceholder(raw json.RawMessage) QueryOption {
	return func(o *Options) {
		o.PlaceholderData = raw
	}
}
