package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"tgbulkdl/pkg/ui"
)

// Prompter asks questions with bubbletea programs on a terminal and
// falls back to plain line prompts when input is not a terminal
type Prompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool

	mu     sync.Mutex
	reader *bufio.Reader
}

var _ ui.Prompter = (*Prompter)(nil)

// NewPrompter prompts on stdin and stdout
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO prompts on in and out. Bubbletea programs are used
// only when in is a terminal.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Prompter{
		in:          in,
		out:         out,
		interactive: interactive,
		reader:      bufio.NewReader(in),
	}
}

// run executes one question program and returns its final model
func (p *Prompter) run(ctx context.Context, m Model) (Model, error) {
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if err != nil {
		return m, fmt.Errorf("prompt failed: %w", err)
	}

	result, ok := final.(Model)
	if !ok || result.Aborted() || !result.Done() {
		return m, ui.ErrAborted
	}
	return result, nil
}

func (p *Prompter) Input(ctx context.Context, title, def string, validate func(string) error) (string, error) {
	if !p.interactive {
		return p.lineInput(title, def, validate)
	}
	result, err := p.run(ctx, NewInputModel(title, def, validate))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Value()), nil
}

func (p *Prompter) Password(ctx context.Context, title string) (string, error) {
	if !p.interactive {
		return p.lineInput(title, "", nil)
	}
	result, err := p.run(ctx, NewPasswordModel(title))
	if err != nil {
		return "", err
	}
	return result.Value(), nil
}

func (p *Prompter) Select(ctx context.Context, title string, choices []string) (int, error) {
	if len(choices) == 0 {
		return 0, fmt.Errorf("no choices for %q", title)
	}
	if !p.interactive {
		return p.lineSelect(title, choices)
	}
	result, err := p.run(ctx, NewSelectModel(title, choices))
	if err != nil {
		return 0, err
	}
	return result.Index(), nil
}

func (p *Prompter) Checkbox(ctx context.Context, title string, choices []string) ([]int, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("no choices for %q", title)
	}
	if !p.interactive {
		return p.lineCheckbox(title, choices)
	}
	result, err := p.run(ctx, NewCheckboxModel(title, choices))
	if err != nil {
		return nil, err
	}
	return result.Selected(), nil
}

func (p *Prompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	if !p.interactive {
		return p.lineConfirm(title, def)
	}
	result, err := p.run(ctx, NewConfirmModel(title, def))
	if err != nil {
		return false, err
	}
	return result.Confirmed(), nil
}

// readLine reads one trimmed line; EOF without data aborts
func (p *Prompter) readLine() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", ui.ErrAborted
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) lineInput(title, def string, validate func(string) error) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(p.out, "? %s (%s): ", title, def)
		} else {
			fmt.Fprintf(p.out, "? %s: ", title)
		}
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if line == "" {
			line = def
		}
		if validate != nil {
			if err := validate(line); err != nil {
				fmt.Fprintf(p.out, ">> %s\n", err)
				continue
			}
		}
		return line, nil
	}
}

func (p *Prompter) printChoices(title string, choices []string) {
	fmt.Fprintf(p.out, "? %s\n", title)
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
	}
}

func (p *Prompter) lineSelect(title string, choices []string) (int, error) {
	p.printChoices(title, choices)
	for {
		fmt.Fprint(p.out, "Answer: ")
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(choices) {
			fmt.Fprintf(p.out, ">> Enter a number between 1 and %d\n", len(choices))
			continue
		}
		return n - 1, nil
	}
}

func (p *Prompter) lineCheckbox(title string, choices []string) ([]int, error) {
	p.printChoices(title, choices)
	for {
		fmt.Fprint(p.out, "Answer (comma separated): ")
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}

		picked, ok := parseIndexes(line, len(choices))
		if !ok {
			fmt.Fprintf(p.out, ">> Enter numbers between 1 and %d\n", len(choices))
			continue
		}
		if len(picked) == 0 {
			fmt.Fprintf(p.out, ">> %s\n", AtLeastOneMessage)
			continue
		}
		return picked, nil
	}
}

// parseIndexes turns "1, 3" into sorted unique zero-based indexes
func parseIndexes(line string, n int) ([]int, bool) {
	seen := make(map[int]bool)
	for _, field := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' }) {
		i, err := strconv.Atoi(field)
		if err != nil || i < 1 || i > n {
			return nil, false
		}
		seen[i-1] = true
	}

	var out []int
	for i := 0; i < n; i++ {
		if seen[i] {
			out = append(out, i)
		}
	}
	return out, true
}

func (p *Prompter) lineConfirm(title string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "? %s (%s): ", title, hint)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, ">> Please answer y or n")
	}
}
