package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"plansheet-cli/internal/host"
)

type sectionItem struct {
	section host.Section
}

func (i sectionItem) Title() string { return i.section.Title }

func (i sectionItem) Description() string {
	if i.section.Singleton {
		return "single record"
	}
	return i.section.Key
}

func (i sectionItem) FilterValue() string { return i.section.Title + " " + i.section.Key }

func newSectionList(secs []host.Section) list.Model {
	items := make([]list.Item, 0, len(secs))
	for _, s := range secs {
		items = append(items, sectionItem{section: s})
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	l := list.New(items, d, 0, 0)
	l.Title = "Sections"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func selectSection(l *list.Model, key string) {
	for i, it := range l.Items() {
		if si, ok := it.(sectionItem); ok && si.section.Key == key {
			l.Select(i)
			return
		}
	}
}
