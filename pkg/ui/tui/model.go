package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Kind selects which prompt a Model renders
type Kind int

const (
	KindInput Kind = iota
	KindPassword
	KindSelect
	KindCheckbox
	KindConfirm
)

// AtLeastOneMessage is shown when a checkbox is submitted empty
const AtLeastOneMessage = "Select at least one option (space to toggle)"

// Model is a single question; it quits the program once answered
type Model struct {
	kind    Kind
	title   string
	input   textinput.Model
	choices []string
	cursor  int
	checked map[int]bool
	confirm bool

	validate func(string) error
	errMsg   string

	done    bool
	aborted bool
}

var _ tea.Model = Model{}

func newTextInput(def string) textinput.Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 2048
	input.Width = 60
	input.SetValue(def)
	input.Focus()
	return input
}

// NewInputModel asks for a line of text. validate may be nil.
func NewInputModel(title, def string, validate func(string) error) Model {
	return Model{
		kind:     KindInput,
		title:    title,
		input:    newTextInput(def),
		validate: validate,
	}
}

// NewPasswordModel asks for a line of text without echoing it
func NewPasswordModel(title string) Model {
	input := newTextInput("")
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	return Model{
		kind:  KindPassword,
		title: title,
		input: input,
	}
}

// NewSelectModel asks for exactly one of choices
func NewSelectModel(title string, choices []string) Model {
	return Model{
		kind:    KindSelect,
		title:   title,
		choices: choices,
	}
}

// NewCheckboxModel asks for one or more of choices
func NewCheckboxModel(title string, choices []string) Model {
	return Model{
		kind:    KindCheckbox,
		title:   title,
		choices: choices,
		checked: make(map[int]bool),
	}
}

// NewConfirmModel asks a yes/no question
func NewConfirmModel(title string, def bool) Model {
	return Model{
		kind:    KindConfirm,
		title:   title,
		confirm: def,
	}
}

// Init starts the cursor blink for text prompts
func (m Model) Init() tea.Cmd {
	if m.kind == KindInput || m.kind == KindPassword {
		return textinput.Blink
	}
	return nil
}

// Done reports whether the question was answered
func (m Model) Done() bool {
	return m.done
}

// Aborted reports whether the user cancelled the prompt
func (m Model) Aborted() bool {
	return m.aborted
}

// Value returns the text entered
func (m Model) Value() string {
	return m.input.Value()
}

// Index returns the highlighted choice
func (m Model) Index() int {
	return m.cursor
}

// Selected returns the ticked choices in display order
func (m Model) Selected() []int {
	var out []int
	for i := range m.choices {
		if m.checked[i] {
			out = append(out, i)
		}
	}
	return out
}

// Confirmed returns the yes/no answer
func (m Model) Confirmed() bool {
	return m.confirm
}

// Err returns the current validation message
func (m Model) Err() string {
	return m.errMsg
}
