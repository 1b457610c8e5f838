package jobs

import (
	"errors"
	"fmt"

	"tgbulkdl/pkg/checkpoint"
)

var (
	// ErrJobNotFound is returned when no job exists for an id
	ErrJobNotFound = checkpoint.ErrJobNotFound
	// ErrReplaceDeclined is returned when the user keeps an existing job
	ErrReplaceDeclined = errors.New("existing job kept")
	// ErrChatChanged is returned when a stored job's identifiers now
	// resolve to a different chat
	ErrChatChanged = errors.New("identifier now points at a different chat")
)

// ResolveError reports a chat that could not be resolved. It is
// recoverable: the menu is shown again.
type ResolveError struct {
	Identifier string
	Err        error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to retrieve chat %q: %v", e.Identifier, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
