package types

import "errors"

var (
	// ErrNoData means a mandatory query returned zero rows. It is never
	// downgraded to an empty result.
	ErrNoData = errors.New("no forecast data")

	// ErrValidation means the query parameters are malformed or logically
	// inconsistent. Raised before any store access.
	ErrValidation = errors.New("invalid forecast query")

	// ErrStoreUnavailable means the underlying store connection failed or
	// timed out. Propagated unmodified; retry policy lives in the store
	// client, not here.
	ErrStoreUnavailable = errors.New("forecast store unavailable")
)
