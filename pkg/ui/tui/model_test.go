package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgbulkdl/pkg/ui"
)

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	space = tea.KeyMsg{Type: tea.KeySpace}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestInputModel(t *testing.T) {
	m := NewInputModel("Chat id", "", nil)
	m = press(t, m, runes("@"), runes("archive"), enter)

	assert.True(t, m.Done())
	assert.Equal(t, "@archive", m.Value())
	assert.Contains(t, m.View(), "@archive")
}

func TestInputModelValidation(t *testing.T) {
	positive := func(s string) error {
		if s == "" {
			return errors.New("topic id is required")
		}
		return nil
	}

	m := NewInputModel("Topic id", "", positive)
	m = press(t, m, enter)
	assert.False(t, m.Done())
	assert.Equal(t, "topic id is required", m.Err())
	assert.Contains(t, m.View(), "topic id is required")

	m = press(t, m, runes("7"), enter)
	assert.True(t, m.Done())
	assert.Equal(t, "7", m.Value())
	assert.Empty(t, m.Err())
}

func TestPasswordModelHidesAnswer(t *testing.T) {
	m := NewPasswordModel("Password")
	m = press(t, m, runes("hunter2"), enter)

	assert.Equal(t, "hunter2", m.Value())
	view := m.View()
	assert.NotContains(t, view, "hunter2")
	assert.Contains(t, view, "*******")
}

func TestSelectModel(t *testing.T) {
	m := NewSelectModel("Menu", []string{"Start new download", "Resume active download", "Exit"})

	m = press(t, m, up, down, down, down, up)
	assert.Equal(t, 1, m.Index())
	assert.Contains(t, m.View(), "❯ Resume active download")

	m = press(t, m, enter)
	assert.True(t, m.Done())
	assert.Equal(t, 1, m.Index())
}

func TestCheckboxModelRequiresOne(t *testing.T) {
	m := NewCheckboxModel("Media", []string{"Pictures", "Videos", "Music"})

	m = press(t, m, enter)
	assert.False(t, m.Done())
	assert.Equal(t, AtLeastOneMessage, m.Err())

	m = press(t, m, space, down, down, space, enter)
	assert.True(t, m.Done())
	assert.Equal(t, []int{0, 2}, m.Selected())
	assert.Contains(t, m.View(), "Pictures, Music")
}

func TestCheckboxModelToggleAll(t *testing.T) {
	m := NewCheckboxModel("Media", []string{"a", "b"})

	m = press(t, m, runes("a"))
	assert.Equal(t, []int{0, 1}, m.Selected())

	m = press(t, m, runes("a"))
	assert.Empty(t, m.Selected())
}

func TestConfirmModel(t *testing.T) {
	m := press(t, NewConfirmModel("Record metadata?", false), runes("y"))
	assert.True(t, m.Done())
	assert.True(t, m.Confirmed())

	m = press(t, NewConfirmModel("Replace?", true), enter)
	assert.True(t, m.Confirmed())

	m = press(t, NewConfirmModel("Replace?", true), tea.KeyMsg{Type: tea.KeyTab}, enter)
	assert.False(t, m.Confirmed())
}

func TestModelAbort(t *testing.T) {
	m := press(t, NewSelectModel("Menu", []string{"x"}), esc)
	assert.True(t, m.Aborted())
	assert.False(t, m.Done())
}

func newLinePrompter(input string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewPrompterWithIO(strings.NewReader(input), out), out
}

func TestLinePrompterInput(t *testing.T) {
	p, out := newLinePrompter("\n0\n12\n")
	ctx := context.Background()

	def, err := p.Input(ctx, "Output directory", "/tmp/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", def)

	v, err := p.Input(ctx, "Topic id", "", func(s string) error {
		if s == "0" {
			return errors.New("must be positive")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "12", v)
	assert.Contains(t, out.String(), ">> must be positive")

	_, err = p.Input(ctx, "More", "", nil)
	assert.ErrorIs(t, err, ui.ErrAborted)
}

func TestLinePrompterSelectAndCheckbox(t *testing.T) {
	p, out := newLinePrompter("9\n2\n\n1, 3\n")
	ctx := context.Background()

	idx, err := p.Select(ctx, "Menu", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	picked, err := p.Checkbox(ctx, "Media", []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, picked)
	assert.Contains(t, out.String(), AtLeastOneMessage)

	_, err = p.Select(ctx, "Empty", nil)
	assert.Error(t, err)
}

func TestLinePrompterConfirmAndPassword(t *testing.T) {
	p, _ := newLinePrompter("maybe\nyes\n\nsecret\n")
	ctx := context.Background()

	ok, err := p.Confirm(ctx, "Continue?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm(ctx, "Continue?", true)
	require.NoError(t, err)
	assert.True(t, ok)

	pass, err := p.Password(ctx, "Password")
	require.NoError(t, err)
	assert.Equal(t, "secret", pass)
}

func TestParseIndexes(t *testing.T) {
	got, ok := parseIndexes("3,1 3", 3)
	assert.True(t, ok)
	assert.Equal(t, []int{0, 2}, got)

	_, ok = parseIndexes("4", 3)
	assert.False(t, ok)

	got, ok = parseIndexes("", 3)
	assert.True(t, ok)
	assert.Empty(t, got)
}
