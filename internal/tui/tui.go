package tui

import (
	"nexdo/internal/mutate"
	"nexdo/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Config *store.GlobalConfig
	// Err reports the last persistence failure, if any. It is polled on every tick.
	Err func() error
}

func Run(e *mutate.Engine, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	var tc store.TUIConfig
	if opts.Config != nil && opts.Config.TUI != nil {
		tc = *opts.Config.TUI
	}
	applyGlyphPreference(tc.Glyphs)
	applyProfile(tc.Profile)

	m := newAppModel(e, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
