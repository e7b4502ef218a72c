package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"complyview/internal/model"
	"complyview/internal/table"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	cursorWidth   = 2
)

// Relative column widths: parameter, actual, expected, compliant, explanation.
var columnRatios = [model.NumColumns]int{100, 120, 120, 60, 180}

func (m appModel) termWidth() int {
	if m.width > 0 {
		return m.width
	}
	return defaultWidth
}

func (m appModel) termHeight() int {
	if m.height > 0 {
		return m.height
	}
	return defaultHeight
}

func columnWidths(total int) [model.NumColumns]int {
	avail := total - cursorWidth - (model.NumColumns - 1)
	sum := 0
	for _, r := range columnRatios {
		sum += r
	}
	var out [model.NumColumns]int
	for i, r := range columnRatios {
		w := avail * r / sum
		// Room for the title and its sort glyph.
		if minW := xansi.StringWidth(model.Column(i).Title()) + 2; w < minW {
			w = minW
		}
		out[i] = w
	}
	return out
}

// fit truncates s to w cells and pads it to exactly w cells.
func fit(s string, w int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = xansi.Truncate(s, w, glyphEllipsis())
	if pad := w - xansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// chromeHeight is the number of lines around the row body.
func (m appModel) chromeHeight() int {
	// title, header, status line, minibuffer, help
	h := 5
	if m.help.ShowAll {
		h += 3
	}
	if m.mode == modeQuery {
		h++
	}
	if m.showDetail {
		h += detailHeight
	}
	return h
}

const detailHeight = 8

func (m appModel) bodyHeight() int {
	h := m.termHeight() - m.chromeHeight()
	if h < 1 {
		h = 1
	}
	return h
}

func (m appModel) View() string {
	if m.mode == modePick {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Import results file"),
			m.picker.View(),
			styleMuted().Render("enter: import  esc: cancel"),
		)
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	if m.showDetail {
		b.WriteString("\n")
		b.WriteString(m.renderDetail())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.mode == modeQuery {
		b.WriteString("\n")
		b.WriteString(m.query.View())
	}
	b.WriteString("\n")
	switch {
	case m.errText != "":
		b.WriteString(styleError().Render(m.errText))
	case m.minibuffer != "":
		b.WriteString(m.minibuffer)
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) renderTitle() string {
	title := lipgloss.NewStyle().Bold(true).Render("complyview")
	if !m.hasBatch {
		return title + styleMuted().Render("  no results imported yet (press o to import a results file)")
	}
	b := m.results.Batch
	parts := []string{title}
	if b.Product != "" {
		parts = append(parts, b.Product)
	}
	parts = append(parts, styleMuted().Render(fmt.Sprintf("%s  %d entries", b.ID, b.EntryCount)))
	return strings.Join(parts, "  ")
}

func (m appModel) renderHeader() string {
	widths := columnWidths(m.termWidth())
	cells := make([]string, 0, model.NumColumns)
	for _, col := range model.Columns() {
		label := col.Title()
		if dir, ok := m.view.Indicator(col); ok {
			label += " " + glyphSort(dir)
		}
		cells = append(cells, styleHeader(col == m.focus).Render(fit(label, widths[col])))
	}
	return strings.Repeat(" ", cursorWidth) + strings.Join(cells, " ")
}

func (m appModel) renderBody() string {
	vis := m.view.VisibleRows()
	h := m.bodyHeight()
	if len(vis) == 0 {
		msg := "No rows."
		if len(m.view.Rows) > 0 {
			msg = "No rows match the current filter."
		}
		lines := []string{styleMuted().Render(strings.Repeat(" ", cursorWidth) + msg)}
		for len(lines) < h {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	widths := columnWidths(m.termWidth())
	end := m.offset + h
	if end > len(vis) {
		end = len(vis)
	}
	lines := make([]string, 0, h)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(vis[i], widths, i == m.cursor))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderRow(r *table.Row, widths [model.NumColumns]int, selected bool) string {
	prefix := strings.Repeat(" ", cursorWidth)
	if selected {
		prefix = fit(glyphCursor(), cursorWidth)
	}
	cells := make([]string, 0, model.NumColumns)
	for _, col := range model.Columns() {
		txt := fit(table.Cell(r, col), widths[col])
		if col == model.ColIsCompliant {
			txt = styleStatus(table.Cell(r, col)).Render(txt)
		}
		cells = append(cells, txt)
	}
	line := prefix + strings.Join(cells, " ")
	if selected {
		return styleSelectedRow().Render(line)
	}
	return line
}

func (m appModel) renderDetail() string {
	w := m.termWidth() - 4
	r, ok := m.selectedRow()
	body := styleMuted().Render("No row selected.")
	if ok {
		head := lipgloss.NewStyle().Bold(true).Render(table.Cell(r, model.ColParameter)) +
			styleMuted().Render(fmt.Sprintf("  actual %s  expected %s  compliant %s",
				emptyAsDash(table.Cell(r, model.ColActualValue)),
				emptyAsDash(table.Cell(r, model.ColExpectedValue)),
				emptyAsDash(table.Cell(r, model.ColIsCompliant)),
			))
		expl := renderExplanation(table.Cell(r, model.ColExplanation), w)
		if expl == "" {
			expl = styleMuted().Render("(no explanation)")
		}
		body = head + "\n" + expl
	}
	lines := strings.Split(body, "\n")
	if len(lines) > detailHeight-2 {
		lines = append(lines[:detailHeight-3], styleMuted().Render(glyphEllipsis()))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Width(w).
		Render(strings.Join(lines, "\n"))
}

func (m appModel) renderStatus() string {
	vis := len(m.view.VisibleRows())
	total := len(m.view.Rows)
	parts := []string{
		fmt.Sprintf("showing %d of %d", vis, total),
		"category: " + m.view.Filter.Category.Label(),
	}
	if q := m.view.Filter.Query; q != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q))
	}
	if m.view.Sort.HasKey {
		parts = append(parts, fmt.Sprintf("sort: %s %s", m.view.Sort.Key.Title(), m.view.Sort.Dir))
	}
	return styleMuted().Render(strings.Join(parts, "  ·  "))
}

func emptyAsDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
