package tui

import (
	"strings"
)

// View renders the question, and the answer once given
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(promptMarkStyle.Render("? "))
	b.WriteString(titleStyle.Render(m.title))

	if m.done {
		b.WriteString(" ")
		b.WriteString(answerStyle.Render(m.answer()))
		b.WriteString("\n")
		return b.String()
	}
	if m.aborted {
		b.WriteString("\n")
		return b.String()
	}

	switch m.kind {
	case KindInput, KindPassword:
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case KindSelect:
		b.WriteString("\n")
		m.renderChoices(&b, false)
		b.WriteString(helpStyle.Render("↑/↓ move • enter select • esc cancel"))
		b.WriteString("\n")
	case KindCheckbox:
		b.WriteString("\n")
		m.renderChoices(&b, true)
		b.WriteString(helpStyle.Render("↑/↓ move • space toggle • a all • enter confirm • esc cancel"))
		b.WriteString("\n")
	case KindConfirm:
		if m.confirm {
			b.WriteString(helpStyle.Render("(Y/n)"))
		} else {
			b.WriteString(helpStyle.Render("(y/N)"))
		}
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(">> " + m.errMsg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderChoices(b *strings.Builder, boxes bool) {
	for i, choice := range m.choices {
		pointer := "  "
		style := choiceStyle
		if i == m.cursor {
			pointer = "❯ "
			style = cursorStyle
		}

		line := choice
		if boxes {
			box := "◯ "
			if m.checked[i] {
				box = checkedStyle.Render("◉ ")
			}
			line = box + choice
		}
		b.WriteString(style.Render(pointer + line))
		b.WriteString("\n")
	}
}

// answer summarises the result for the completed view
func (m Model) answer() string {
	switch m.kind {
	case KindPassword:
		return strings.Repeat("*", len([]rune(m.input.Value())))
	case KindSelect:
		if m.cursor < len(m.choices) {
			return m.choices[m.cursor]
		}
	case KindCheckbox:
		var names []string
		for _, i := range m.Selected() {
			names = append(names, m.choices[i])
		}
		return strings.Join(names, ", ")
	case KindConfirm:
		if m.confirm {
			return "Yes"
		}
		return "No"
	}
	return m.input.Value()
}
