package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("crime data not found")
	ErrDataSourceUnavailable  = errors.New("crime data source unavailable")
	ErrUnknownScenario        = errors.New("unknown scenario")
	ErrUnknownSecurityMeasure = errors.New("unknown security measure")
	ErrComputationOverflow    = errors.New("computation out of range")
)

// ErrLocationNotResolved matches ErrNotFound under errors.Is.
var ErrLocationNotResolved = fmt.Errorf("location not resolved: %w", ErrNotFound)

// IsRetryable reports whether the caller may retry the same request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDataSourceUnavailable)
}
