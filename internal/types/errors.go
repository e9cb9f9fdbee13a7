package types

import (
	"errors"
	"fmt"
)

// Domain specific errors surfaced across component boundaries.
var (
	ErrPlaceNotFound         = errors.New("no place matched the given name")
	ErrExtractionFailed      = errors.New("could not extract structured fields from instruction")
	ErrClassificationUnknown = errors.New("instruction did not match any known command")
	ErrBadRequest            = errors.New("bad request")
)

// DataIntegrityError reports a place identifier returned by the search index
// that has no matching record in the place store. It signals a bug in the data
// pipeline and is always surfaced, never swallowed.
type DataIntegrityError struct {
	PlaceID string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("place index references unknown place %q", e.PlaceID)
}

// RoutingError wraps any failure of the external routing solver, including
// the "no trips found" empty result.
type RoutingError struct {
	Message string
	Err     error
}

func (e *RoutingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("routing failed: %s", e.Message)
}

func (e *RoutingError) Unwrap() error { return e.Err }
