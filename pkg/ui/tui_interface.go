package ui

import (
	"context"
	"errors"
)

// ErrAborted is returned when the user cancels a prompt
var ErrAborted = errors.New("prompt cancelled")

// Prompter asks the user questions
type Prompter interface {
	// Input asks for text; validate may be nil and is re-applied until it passes
	Input(ctx context.Context, title, def string, validate func(string) error) (string, error)
	Password(ctx context.Context, title string) (string, error)
	// Select returns the index of the chosen entry
	Select(ctx context.Context, title string, choices []string) (int, error)
	// Checkbox returns the indexes of the ticked entries, never none
	Checkbox(ctx context.Context, title string, choices []string) ([]int, error)
	Confirm(ctx context.Context, title string, def bool) (bool, error)
}
