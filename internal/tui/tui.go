// Package tui is the interactive results view.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"complyview/internal/store"
)

type Options struct {
	// BatchID selects the batch to show; empty means the latest.
	BatchID string
	// Product is recorded on batches imported from the file picker.
	Product string
	Glyphs  string
	Theme   string
	Log     zerolog.Logger
}

func Run(ctx context.Context, s store.Store, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)
	applyGlyphPreference(opts.Glyphs)

	m := newAppModel(ctx, s, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
