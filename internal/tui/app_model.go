package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"plansheet-cli/internal/host"
	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/store"
	"plansheet-cli/internal/table"
)

type pane int

const (
	paneSections pane = iota
	paneTable
)

type modalKind int

const (
	modalNone modalKind = iota
	modalForm
	modalConfirmDelete
	modalNotice
)

const minibufferTTL = 3 * time.Second

type sectionLoadedMsg struct {
	res sections.FetchResult
}

type mutationDoneMsg struct {
	res sections.MutationResult
}

type minibufferClearMsg struct {
	seq int
}

type appModel struct {
	ctx    context.Context
	ctrl   *sections.Controller
	host   *host.Context
	log    *slog.Logger
	store  store.Store
	scope  string
	banner *emptyBanner

	width  int
	height int

	pane       pane
	list       list.Model
	search     textinput.Model
	searching  bool
	cursor     int
	initialKey string

	modal       modalKind
	form        formModal
	confirm     confirmFocus
	deleteRowID string

	keys keyMap
	help help.Model

	minibuffer    string
	minibufferSeq int
}

func newAppModel(ctx context.Context, h *host.Context, svc sections.Service, opts Options) appModel {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	banner := &emptyBanner{}
	ctrl := sections.New(h, svc,
		sections.WithLogger(log),
		sections.WithTableOptions(func(s host.Section) table.Options {
			o := s.TableOptions(func(string) table.EmptyTarget { return banner })
			if o.EmptyState == nil {
				o.EmptyState = banner
			}
			if opts.PageSize > 0 {
				o.PageSize = opts.PageSize
			}
			return o
		}),
	)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = table.DefaultSearchPlaceholder

	m := appModel{
		ctx:    ctx,
		ctrl:   ctrl,
		host:   h,
		log:    log,
		store:  opts.Store,
		scope:  store.StateScope(h.ServerURL(), h.ProjectID()),
		banner: banner,
		list:   newSectionList(h.Sections()),
		search: search,
		keys:   newKeyMap(h.CanEdit()),
		help:   help.New(),
		pane:   paneTable,
	}
	m.initialKey = m.restoreSection()
	selectSection(&m.list, m.initialKey)
	return m
}

// restoreSection picks the section to open first: the last one used for this
// server and project if it still exists, otherwise the first trigger.
func (m *appModel) restoreSection() string {
	secs := m.host.Sections()
	first := secs[0].Key
	if m.store.Dir == "" {
		return first
	}
	st, err := m.store.LoadTUIState()
	if err != nil {
		m.log.Debug("load tui state", "err", err)
		return first
	}
	if key := st.LastSection(m.scope); key != "" {
		if _, ok := m.host.Section(key); ok {
			return key
		}
	}
	return first
}

func (m *appModel) rememberSection(key string) {
	if m.store.Dir == "" {
		return
	}
	st, err := m.store.LoadTUIState()
	if err != nil {
		return
	}
	st.SetLastSection(m.scope, key)
	if err := m.store.SaveTUIState(st); err != nil {
		m.log.Debug("save tui state", "err", err)
	}
}

func (m appModel) Init() tea.Cmd {
	return (&m).activate(m.initialKey)
}

// activate starts loading a section; the fetch runs off the UI loop.
func (m *appModel) activate(key string) tea.Cmd {
	req, err := m.ctrl.BeginActivate(key)
	if err != nil {
		return m.flash(err.Error())
	}
	m.resetSectionUI()
	return m.fetch(req)
}

func (m *appModel) refresh() tea.Cmd {
	req, err := m.ctrl.BeginRefresh()
	if err != nil {
		return m.flash(err.Error())
	}
	m.resetSectionUI()
	return m.fetch(req)
}

func (m *appModel) resetSectionUI() {
	m.cursor = 0
	m.searching = false
	m.search.Blur()
	m.search.SetValue("")
	m.modal = modalNone
	m.deleteRowID = ""
}

func (m *appModel) fetch(req sections.FetchRequest) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return sectionLoadedMsg{res: ctrl.Fetch(ctx, req)}
	}
}

func (m *appModel) perform(req sections.MutationRequest) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{res: ctrl.Perform(ctx, req)}
	}
}

func (m *appModel) flash(msg string) tea.Cmd {
	m.minibuffer = msg
	m.minibufferSeq++
	seq := m.minibufferSeq
	return tea.Tick(minibufferTTL, func(time.Time) tea.Msg { return minibufferClearMsg{seq: seq} })
}

// visibleRows is the current page of the active table, if loaded.
func (m *appModel) visibleRows() []sections.Row {
	if t := m.ctrl.Table(); t != nil {
		return t.Visible()
	}
	return nil
}

func (m *appModel) clampCursor() {
	n := len(m.visibleRows())
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
}

func (m *appModel) selectedRow() (sections.Row, bool) {
	rows := m.visibleRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return sections.Row{}, false
	}
	return rows[m.cursor], true
}
