// Package tui is the interactive section browser: a section list on the left,
// the active section's table on the right, and modal forms for editing.
package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"plansheet-cli/internal/host"
	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/store"
)

type Options struct {
	// Store persists the last active section per server+project. A zero
	// Store disables persistence.
	Store store.Store
	// Theme is "auto", "dark" or "light"; PLANSHEET_TUI_THEME wins over it.
	Theme string
	// PageSize overrides the table page size when > 0.
	PageSize int
	Logger   *slog.Logger
}

func Run(ctx context.Context, h *host.Context, svc sections.Service, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)

	m := newAppModel(ctx, h, svc, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
