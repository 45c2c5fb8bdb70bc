package movie

import "errors"

var (
	// ErrCatalogUnavailable covers transport failures, non-2xx answers, undecodable bodies and timeouts.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrNotFound indicates the catalog has no title with the requested ID.
	ErrNotFound = errors.New("movie not found")
	// ErrInvalidCriteria indicates search filters outside their accepted ranges.
	ErrInvalidCriteria = errors.New("invalid search criteria")
)
