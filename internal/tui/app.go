package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"complyview/internal/model"
	"complyview/internal/store"
	"complyview/internal/table"
)

// resultsSource is the part of store.Store the results view needs.
type resultsSource interface {
	LoadResults(ctx context.Context, batchID string) (store.Results, error)
	Import(ctx context.Context, rs store.ResultSet, opt store.ImportOptions) (model.Batch, error)
}

type mode int

const (
	modeTable mode = iota
	modeQuery
	modePick
)

type importDoneMsg struct {
	batch model.Batch
	err   error
}

type appModel struct {
	ctx  context.Context
	src  resultsSource
	opts Options
	log  zerolog.Logger

	results  store.Results
	hasBatch bool
	view     *table.View

	focus model.Column
	// selectedID follows a row across sorts and filters; cursor is its index
	// among the visible rows.
	selectedID string
	cursor     int
	offset     int

	mode       mode
	query      textinput.Model
	picker     filepicker.Model
	showDetail bool

	keys keyMap
	help help.Model

	minibuffer string
	errText    string

	width  int
	height int
}

func newAppModel(ctx context.Context, src resultsSource, opts Options) appModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search all columns"
	ti.CharLimit = 256

	m := appModel{
		ctx:   ctx,
		src:   src,
		opts:  opts,
		log:   opts.Log,
		view:  table.NewView(nil),
		query: ti,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	m.load()
	return m
}

// load (re)binds the view to the current batch, keeping the sort and filter
// state of the previous view.
func (m *appModel) load() {
	prevSort, prevFilter := m.view.Sort, m.view.Filter

	res, err := m.src.LoadResults(m.ctx, m.opts.BatchID)
	switch {
	case errors.Is(err, store.ErrNoBatches):
		m.results = store.Results{}
		m.hasBatch = false
		m.view = table.NewView(nil)
		m.errText = ""
	case err != nil:
		m.log.Error().Err(err).Str("batch", m.opts.BatchID).Msg("load results")
		m.errText = err.Error()
		return
	default:
		m.results = res
		m.hasBatch = true
		m.view = table.FromEntries(res.Entries)
		m.errText = ""
		m.log.Info().Str("batch", res.Batch.ID).Int("entries", len(res.Entries)).Msg("results loaded")
	}
	m.view.Apply(prevSort, prevFilter)
	m.syncCursor()
}

func (m appModel) Init() tea.Cmd { return nil }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.picker.Height = pickerHeight(msg.Height)
		m.ensureCursorVisible()
		return m, nil

	case importDoneMsg:
		if msg.err != nil {
			m.log.Error().Err(msg.err).Msg("import")
			m.errText = "import failed: " + msg.err.Error()
			return m, nil
		}
		m.opts.BatchID = msg.batch.ID
		m.load()
		m.minibuffer = fmt.Sprintf("Imported %d entries as %s", msg.batch.EntryCount, msg.batch.ID)
		return m, nil
	}

	switch m.mode {
	case modeQuery:
		return m.updateQuery(msg)
	case modePick:
		return m.updatePick(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.minibuffer = ""

	switch {
	case key.Matches(km, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(km, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(km, m.keys.Left):
		if m.focus > 0 {
			m.focus--
		}
	case key.Matches(km, m.keys.Right):
		if int(m.focus) < model.NumColumns-1 {
			m.focus++
		}
	case key.Matches(km, m.keys.Activate):
		m.activate(m.focus)
	case key.Matches(km, m.keys.Column):
		if col, ok := model.ParseColumn(km.String()); ok {
			m.focus = col
			m.activate(col)
		}
	case key.Matches(km, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(km, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(km, m.keys.Query):
		m.mode = modeQuery
		m.query.SetValue(m.view.Filter.Query)
		m.query.CursorEnd()
		cmd := m.query.Focus()
		return m, cmd
	case key.Matches(km, m.keys.ClearQuery):
		m.setQuery("")
		m.query.SetValue("")
	case key.Matches(km, m.keys.Category):
		m.view.SetCategory(table.NextCategory(m.view.Filter.Category))
		m.syncCursor()
		m.minibuffer = "Category: " + m.view.Filter.Category.Label()
	case key.Matches(km, m.keys.Detail):
		m.showDetail = !m.showDetail
	case key.Matches(km, m.keys.Open):
		cmd := m.openPicker()
		return m, cmd
	case key.Matches(km, m.keys.Reload):
		m.load()
		if m.errText == "" {
			m.minibuffer = "Reloaded"
		}
	}
	return m, nil
}

func (m *appModel) activate(col model.Column) {
	m.view.ActivateHeader(col)
	m.syncCursor()
}

func (m *appModel) setQuery(q string) {
	m.view.SetQuery(q)
	m.syncCursor()
}

func (m appModel) updateQuery(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			// Leaving the input keeps the query applied.
			m.mode = modeTable
			m.query.Blur()
			return m, nil
		case "ctrl+u":
			m.query.SetValue("")
			m.setQuery("")
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if v := m.query.Value(); v != m.view.Filter.Query {
		m.setQuery(v)
	}
	return m, cmd
}

func pickerHeight(termHeight int) int {
	h := termHeight - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m *appModel) openPicker() tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".json"}
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = false
	fp.Height = pickerHeight(m.height)
	fp.Cursor = glyphCursor()
	// esc closes the picker instead of walking up a directory.
	fp.KeyMap.Back = key.NewBinding(
		key.WithKeys("h", "backspace", "left"),
		key.WithHelp("h", "up"),
	)
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.DisabledFile = styleMuted()
	fp.Styles.DisabledSelected = styleMuted()
	fp.Styles.FileSize = styleMuted().Width(fp.Styles.FileSize.GetWidth()).Align(lipgloss.Right)

	startDir := "."
	if wd, err := os.Getwd(); err == nil {
		startDir = wd
	}
	fp.CurrentDirectory = startDir

	m.picker = fp
	m.mode = modePick
	return fp.Init()
}

func (m appModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "q":
			m.mode = modeTable
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = modeTable
		m.minibuffer = "Importing " + filepath.Base(path) + "…"
		return m, importCmd(m.ctx, m.src, path, m.opts.Product)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.minibuffer = "Not a results file: " + filepath.Base(path)
	}
	return m, cmd
}

func importCmd(ctx context.Context, src resultsSource, path, product string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importDoneMsg{err: err}
		}
		defer f.Close()
		rs, err := store.ParseResults(f)
		if err != nil {
			return importDoneMsg{err: err}
		}
		b, err := src.Import(ctx, rs, store.ImportOptions{Source: path, Product: product})
		return importDoneMsg{batch: b, err: err}
	}
}

// syncCursor re-resolves the cursor after the visible set or its order
// changed, following the selected row when it is still visible.
func (m *appModel) syncCursor() {
	vis := m.view.VisibleRows()
	if len(vis) == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	idx := -1
	if strings.TrimSpace(m.selectedID) != "" {
		for i, r := range vis {
			if r.ID == m.selectedID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		idx = m.cursor
		if idx >= len(vis) {
			idx = len(vis) - 1
		}
		if idx < 0 {
			idx = 0
		}
	}
	m.cursor = idx
	m.selectedID = vis[idx].ID
	m.ensureCursorVisible()
}

func (m *appModel) moveCursor(delta int) {
	vis := m.view.VisibleRows()
	if len(vis) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 {
		next = 0
	}
	if next >= len(vis) {
		next = len(vis) - 1
	}
	m.cursor = next
	m.selectedID = vis[next].ID
	m.ensureCursorVisible()
}

func (m *appModel) ensureCursorVisible() {
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m appModel) selectedRow() (*table.Row, bool) {
	vis := m.view.VisibleRows()
	if m.cursor < 0 || m.cursor >= len(vis) {
		return nil, false
	}
	return vis[m.cursor], true
}
