package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plansheet-cli/internal/form"
	"plansheet-cli/internal/sections"
)

const textAreaHeight = 4

type formField struct {
	name   string
	label  string
	kind   form.Kind
	input  textinput.Model
	area   textarea.Model
	errors []string
}

func (f *formField) multiline() bool { return f.kind.Strategy().Multiline }

func (f *formField) value() string {
	if f.multiline() {
		return f.area.Value()
	}
	return f.input.Value()
}

func (f *formField) focus() tea.Cmd {
	if f.multiline() {
		return f.area.Focus()
	}
	return f.input.Focus()
}

func (f *formField) blur() {
	f.input.Blur()
	f.area.Blur()
}

// formModal edits the controller's open form session. Inputs follow each
// field's kind strategy: multi-line kinds get a textarea.
type formModal struct {
	title  string
	fields []formField
	focus  int
	errors []string
	busy   bool
}

func newFormModal(s *sections.FormSession, termW int) (formModal, tea.Cmd) {
	bodyW := modalBodyWidth(termW)
	m := formModal{title: s.Title}
	for _, fld := range s.Form.Fields {
		strat := fld.Kind.Strategy()
		ff := formField{name: fld.Name, label: fld.Label, kind: fld.Kind, errors: fld.Errors}
		if strat.Multiline {
			ta := textarea.New()
			ta.ShowLineNumbers = false
			ta.Prompt = ""
			ta.Placeholder = strat.Placeholder
			ta.CharLimit = strat.CharLimit
			ta.SetWidth(bodyW)
			ta.SetHeight(textAreaHeight)
			ta.SetValue(fld.Value)
			ff.area = ta
		} else {
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = strat.Placeholder
			ti.CharLimit = strat.CharLimit
			ti.Width = bodyW - 3
			ti.SetValue(fld.Value)
			ff.input = ti
		}
		m.fields = append(m.fields, ff)
	}
	m.errors = s.Form.Errors
	if len(m.fields) == 0 {
		return m, nil
	}
	return m, m.fields[0].focus()
}

func (m *formModal) setFocus(i int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	i = (i%len(m.fields) + len(m.fields)) % len(m.fields)
	m.fields[m.focus].blur()
	m.focus = i
	return m.fields[i].focus()
}

func (m *formModal) next() tea.Cmd { return m.setFocus(m.focus + 1) }
func (m *formModal) prev() tea.Cmd { return m.setFocus(m.focus - 1) }

func (m *formModal) onLastField() bool { return m.focus == len(m.fields)-1 }

func (m *formModal) focusedMultiline() bool {
	return len(m.fields) > 0 && m.fields[m.focus].multiline()
}

// apply copies the inputs into the session's form.
func (m *formModal) apply(f *form.Form) {
	for i := range m.fields {
		f.Set(m.fields[i].name, m.fields[i].value())
	}
}

// syncErrors pulls server messages back from the session's form and moves
// focus to the first field that has one.
func (m *formModal) syncErrors(f *form.Form) tea.Cmd {
	m.errors = f.Errors
	first := -1
	for i := range m.fields {
		if fld, ok := f.Field(m.fields[i].name); ok {
			m.fields[i].errors = fld.Errors
			if first < 0 && len(fld.Errors) > 0 {
				first = i
			}
		}
	}
	if first >= 0 {
		return m.setFocus(first)
	}
	return nil
}

func (m formModal) update(msg tea.Msg) (formModal, tea.Cmd) {
	if len(m.fields) == 0 || m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	f := &m.fields[m.focus]
	if f.multiline() {
		f.area, cmd = f.area.Update(msg)
	} else {
		f.input, cmd = f.input.Update(msg)
	}
	return m, cmd
}

func (m formModal) view(termW int) string {
	bodyW := modalBodyWidth(termW)
	var b strings.Builder
	for _, msg := range m.errors {
		b.WriteString(styleError().Width(bodyW).Render(msg))
		b.WriteString("\n")
	}
	if len(m.errors) > 0 {
		b.WriteString("\n")
	}
	for i := range m.fields {
		f := &m.fields[i]
		label := f.label
		st := lipgloss.NewStyle().Bold(i == m.focus)
		if i == m.focus {
			st = st.Foreground(colorAccent)
		}
		b.WriteString(st.Render(label))
		b.WriteString("\n")
		if f.multiline() {
			b.WriteString(f.area.View())
		} else {
			b.WriteString(renderInputLine(bodyW, f.input.View()))
		}
		b.WriteString("\n")
		for _, e := range f.errors {
			b.WriteString(styleError().Width(bodyW).Render("  " + e))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	help := "tab: next field   enter: next/save   ctrl+s: save   esc: cancel"
	if m.busy {
		help = "Saving…"
	}
	b.WriteString(styleMuted().Width(bodyW).Render(help))
	return renderModalBox(termW, m.title, b.String())
}
