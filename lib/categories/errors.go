package categories

import "errors"

var (
	// ErrUnknownCategory is returned when input matches no category of the requested kind
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidCatalog is returned when a catalog file is malformed
	ErrInvalidCatalog = errors.New("invalid category catalog")
)
