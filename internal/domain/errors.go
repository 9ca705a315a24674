package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamFetch covers transport and non-auth API failures of a collector.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrCredentials is returned when credentials are missing or rejected.
	ErrCredentials = errors.New("invalid or missing credentials")

	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrNothingSelected = errors.New("no drafts selected")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
