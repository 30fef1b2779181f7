package tui

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"plansheet-cli/internal/sections"
)

const sidebarWidth = 28

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(sidebarWidth, max(m.height-4, 4))
		m.help.Width = msg.Width
		return m, nil

	case sectionLoadedMsg:
		err := m.ctrl.ApplyFetch(msg.res)
		switch {
		case errors.Is(err, sections.ErrStale):
			// A newer activation owns the screen.
			return m, nil
		case err != nil:
			return m, nil
		}
		m.clampCursor()
		m.rememberSection(msg.res.Key)
		return m, nil

	case mutationDoneMsg:
		return m.applyMutation(msg.res)

	case minibufferClearMsg:
		if msg.seq == m.minibufferSeq {
			m.minibuffer = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.modal != modalNone:
			return m.updateModal(msg)
		case m.searching:
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m appModel) applyMutation(res sections.MutationResult) (tea.Model, tea.Cmd) {
	refresh, err := m.ctrl.ApplyMutation(res)
	if errors.Is(err, sections.ErrStale) {
		return m, nil
	}
	var merr *sections.MutationError
	switch {
	case errors.As(err, &merr):
		m.form.busy = false
		if sess := m.ctrl.Form(); sess != nil && m.modal == modalForm {
			return m, m.form.syncErrors(sess.Form)
		}
		if m.ctrl.Notice() != "" {
			m.modal = modalNotice
		}
		return m, nil
	case err != nil:
		return m, m.flash(err.Error())
	}

	done := "Saved."
	if res.Kind == sections.MutateDelete {
		done = "Deleted."
	}
	m.resetSectionUI()
	return m, tea.Batch(m.fetch(refresh), m.flash(done))
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.pane == paneSections {
			m.pane = paneTable
		} else {
			m.pane = paneSections
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, (&m).refresh()
	}

	if m.pane == paneSections {
		if key.Matches(msg, m.keys.Open) {
			it, ok := m.list.SelectedItem().(sectionItem)
			if !ok {
				return m, nil
			}
			m.pane = paneTable
			return m, (&m).activate(it.section.Key)
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m.updateTable(msg)
}

func (m appModel) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.ctrl.Table()
	if t == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.PrevPage):
		t.PrevPage()
		m.clampCursor()
	case key.Matches(msg, m.keys.NextPage):
		t.NextPage()
		m.clampCursor()
	case key.Matches(msg, m.keys.Search):
		if !t.Options().Search {
			return m, m.flash("Search is disabled for this section.")
		}
		m.searching = true
		m.search.Placeholder = t.Options().SearchPlaceholder
		m.search.SetValue(t.Query())
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Sort):
		col, _ := strconv.Atoi(msg.String())
		if !t.SortBy(col - 1) {
			return m, nil
		}
		m.cursor = 0
	case key.Matches(msg, m.keys.Add):
		return m, (&m).openForm("")
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Open):
		if !m.host.CanEdit() {
			return m, nil
		}
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		// Template rows have no id; editing one starts an add.
		return m, (&m).openForm(row.ID)
	case key.Matches(msg, m.keys.Delete):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if row.Template() {
			return m, m.flash("This row has not been saved yet.")
		}
		m.deleteRowID = row.ID
		m.confirm = confirmFocusCancel
		m.modal = modalConfirmDelete
	}
	return m, nil
}

// updateSearch filters the table on every keystroke.
func (m appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.ctrl.Table()
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		if t != nil {
			t.Search("")
		}
		m.cursor = 0
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if t != nil && m.search.Value() != t.Query() {
		t.Search(m.search.Value())
		m.cursor = 0
	}
	return m, cmd
}

func (m *appModel) openForm(rowID string) tea.Cmd {
	sess, err := m.ctrl.Begin(rowID)
	if err != nil {
		return m.flash(err.Error())
	}
	var cmd tea.Cmd
	m.form, cmd = newFormModal(sess, m.width)
	m.modal = modalForm
	return cmd
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalForm:
		return m.updateForm(msg)
	case modalConfirmDelete:
		return m.updateConfirm(msg)
	case modalNotice:
		switch msg.String() {
		case "enter", "esc", "q", " ":
			m.ctrl.DismissNotice()
			m.modal = modalNone
		}
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.ctrl.CancelForm()
		m.modal = modalNone
		return m, nil
	case "tab":
		return m, m.form.next()
	case "shift+tab":
		return m, m.form.prev()
	case "ctrl+s":
		return m, (&m).submit()
	case "enter":
		if !m.form.focusedMultiline() {
			if m.form.onLastField() {
				return m, (&m).submit()
			}
			return m, m.form.next()
		}
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m *appModel) submit() tea.Cmd {
	sess := m.ctrl.Form()
	if sess == nil {
		m.modal = modalNone
		return nil
	}
	m.form.apply(sess.Form)
	req, err := m.ctrl.BeginSubmit()
	if err != nil {
		return m.flash(err.Error())
	}
	m.form.busy = true
	return m.perform(req)
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		m.confirm = m.confirm.toggle()
		return m, nil
	case "y":
		return m, (&m).confirmDelete()
	case "n", "esc", "q":
		m.modal = modalNone
		m.deleteRowID = ""
		return m, nil
	case "enter":
		if m.confirm == confirmFocusConfirm {
			return m, (&m).confirmDelete()
		}
		m.modal = modalNone
		m.deleteRowID = ""
	}
	return m, nil
}

func (m *appModel) confirmDelete() tea.Cmd {
	id := m.deleteRowID
	m.modal = modalNone
	m.deleteRowID = ""
	req, err := m.ctrl.BeginDelete(id)
	if err != nil {
		return m.flash(err.Error())
	}
	return m.perform(req)
}
