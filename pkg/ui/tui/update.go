package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles key presses for every prompt kind
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.kind == KindInput || m.kind == KindPassword {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	}

	switch m.kind {
	case KindInput, KindPassword:
		return m.updateText(keyMsg)
	case KindSelect:
		return m.updateSelect(keyMsg)
	case KindCheckbox:
		return m.updateCheckbox(keyMsg)
	case KindConfirm:
		return m.updateConfirm(keyMsg)
	}
	return m, nil
}

func (m Model) updateText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.validate != nil {
			if err := m.validate(m.input.Value()); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
		}
		m.errMsg = ""
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) moveCursor(key string) Model {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.choices) - 1
	}
	return m
}

func (m Model) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if len(m.choices) == 0 {
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	}
	return m.moveCursor(msg.String()), nil
}

func (m Model) updateCheckbox(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "space":
		if len(m.choices) > 0 {
			m.checked[m.cursor] = !m.checked[m.cursor]
			m.errMsg = ""
		}
		return m, nil
	case "a":
		all := len(m.Selected()) < len(m.choices)
		for i := range m.choices {
			m.checked[i] = all
		}
		m.errMsg = ""
		return m, nil
	case "enter":
		if len(m.Selected()) == 0 {
			m.errMsg = AtLeastOneMessage
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	}
	return m.moveCursor(msg.String()), nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirm = true
		m.done = true
		return m, tea.Quit
	case "n", "N":
		m.confirm = false
		m.done = true
		return m, tea.Quit
	case "left", "right", "tab", "h", "l":
		m.confirm = !m.confirm
		return m, nil
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}
