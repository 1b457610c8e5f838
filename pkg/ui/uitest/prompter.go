// Package uitest provides a scripted ui.Prompter for tests.
package uitest

import (
	"context"
	"sync"

	"tgbulkdl/pkg/ui"
)

// Prompter answers questions from queues. An exhausted queue answers
// with ui.ErrAborted, like a user pressing esc.
type Prompter struct {
	mu sync.Mutex

	Inputs     []string
	Passwords  []string
	Selects    []int
	Checkboxes [][]int
	Confirms   []bool

	// Asked records every question title in order
	Asked []string
	// Choices records the options offered by each Select and Checkbox
	Choices [][]string
	// Rejected records validation messages for scripted inputs
	Rejected []string
}

var _ ui.Prompter = (*Prompter)(nil)

func (p *Prompter) ask(title string) {
	p.Asked = append(p.Asked, title)
}

// Input takes scripted answers until one passes validate
func (p *Prompter) Input(ctx context.Context, title, def string, validate func(string) error) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ask(title)

	for len(p.Inputs) > 0 {
		v := p.Inputs[0]
		p.Inputs = p.Inputs[1:]
		if v == "" {
			v = def
		}
		if validate != nil {
			// Release the lock: validators may call back into collaborators
			p.mu.Unlock()
			err := validate(v)
			p.mu.Lock()
			if err != nil {
				p.Rejected = append(p.Rejected, err.Error())
				continue
			}
		}
		return v, nil
	}
	return "", ui.ErrAborted
}

func (p *Prompter) Password(ctx context.Context, title string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ask(title)

	if len(p.Passwords) == 0 {
		return "", ui.ErrAborted
	}
	v := p.Passwords[0]
	p.Passwords = p.Passwords[1:]
	return v, nil
}

func (p *Prompter) Select(ctx context.Context, title string, choices []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ask(title)
	p.Choices = append(p.Choices, choices)

	if len(p.Selects) == 0 {
		return 0, ui.ErrAborted
	}
	v := p.Selects[0]
	p.Selects = p.Selects[1:]
	return v, nil
}

func (p *Prompter) Checkbox(ctx context.Context, title string, choices []string) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ask(title)
	p.Choices = append(p.Choices, choices)

	if len(p.Checkboxes) == 0 {
		return nil, ui.ErrAborted
	}
	v := p.Checkboxes[0]
	p.Checkboxes = p.Checkboxes[1:]
	return v, nil
}

func (p *Prompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ask(title)

	if len(p.Confirms) == 0 {
		return false, ui.ErrAborted
	}
	v := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return v, nil
}
