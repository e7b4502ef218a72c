package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"complyview/internal/model"
	"complyview/internal/store"
	"complyview/internal/table"
)

type fakeSource struct {
	results map[string]store.Results
	latest  string
}

func (f *fakeSource) LoadResults(_ context.Context, id string) (store.Results, error) {
	if id == "" {
		id = f.latest
	}
	if id == "" {
		return store.Results{}, store.ErrNoBatches
	}
	r, ok := f.results[id]
	if !ok {
		return store.Results{}, store.NotFoundError{Kind: "batch", ID: id}
	}
	return r, nil
}

func (f *fakeSource) Import(_ context.Context, rs store.ResultSet, opt store.ImportOptions) (model.Batch, error) {
	b := model.Batch{
		ID:         fmt.Sprintf("batch-%d", len(f.results)+1),
		Source:     opt.Source,
		Product:    opt.Product,
		EntryCount: len(rs.Entries),
	}
	f.results[b.ID] = store.Results{Batch: b, Entries: rs.Entries, StandardParams: rs.StandardParams}
	f.latest = b.ID
	return b, nil
}

func sampleEntries() []model.Entry {
	return []model.Entry{
		{Parameter: "Temp", ActualValue: "70", ExpectedValue: "65", IsCompliant: false, Explanation: "Temperature too high"},
		{Parameter: "Pressure", ActualValue: "10", ExpectedValue: "10", IsCompliant: true, Explanation: "ok"},
		{Parameter: "Hardness", ActualValue: "5", ExpectedValue: "non stated", IsCompliant: false},
		{Parameter: "Humidity", ActualValue: "40", ExpectedValue: "45", IsCompliant: false},
	}
}

func newTestSource() *fakeSource {
	b := model.Batch{ID: "batch-1", Product: "Cefixime", EntryCount: 4}
	return &fakeSource{
		results: map[string]store.Results{"batch-1": {Batch: b, Entries: sampleEntries()}},
		latest:  "batch-1",
	}
}

func newTestModel(t *testing.T, src resultsSource) appModel {
	t.Helper()
	setGlyphs(glyphSetUnicode)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })
	return newAppModel(context.Background(), src, Options{Log: zerolog.Nop(), Product: "Cefixime"})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m appModel, msgs ...tea.Msg) appModel {
	t.Helper()
	for _, msg := range msgs {
		mAny, _ := m.Update(msg)
		m = mAny.(appModel)
	}
	return m
}

func visibleParams(m appModel) []string {
	var out []string
	for _, r := range m.view.VisibleRows() {
		out = append(out, table.Cell(r, model.ColParameter))
	}
	return out
}

func TestColumnKeyTogglesDirection(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("1"))
	if got := strings.Join(visibleParams(m), ","); got != "Hardness,Humidity,Pressure,Temp" {
		t.Fatalf("ascending order: got %s", got)
	}
	if d, ok := m.view.Indicator(model.ColParameter); !ok || d != table.Ascending {
		t.Fatalf("expected ascending indicator, got %v %v", d, ok)
	}

	m = send(t, m, runes("1"))
	if got := strings.Join(visibleParams(m), ","); got != "Temp,Pressure,Humidity,Hardness" {
		t.Fatalf("descending order: got %s", got)
	}
	if m.focus != model.ColParameter {
		t.Fatalf("expected focus to follow the activated column, got %v", m.focus)
	}
}

func TestFocusAndActivate(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("l"), runes("l"), runes("l"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.view.Sort.HasKey || m.view.Sort.Key != model.ColIsCompliant {
		t.Fatalf("expected sort on compliant, got %+v", m.view.Sort)
	}
	if got := strings.Join(visibleParams(m), ","); got != "Pressure,Temp,Humidity,Hardness" {
		t.Fatalf("status order: got %s", got)
	}

	// Focus clamps at the first column.
	m = send(t, m, runes("h"), runes("h"), runes("h"), runes("h"), runes("h"), runes("s"))
	if m.focus != model.ColParameter || m.view.Sort.Key != model.ColParameter {
		t.Fatalf("expected focus and sort on parameter, got focus=%v sort=%+v", m.focus, m.view.Sort)
	}
}

func TestHeaderShowsSingleIndicator(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("2"))
	v := m.View()
	if strings.Count(v, "▲") != 1 || strings.Contains(v, "▼") {
		t.Fatalf("expected exactly one ascending glyph:\n%s", v)
	}

	m = send(t, m, runes("3"))
	v = m.View()
	if strings.Count(v, "▲") != 1 {
		t.Fatalf("switching column should keep a single glyph:\n%s", v)
	}
	header := m.renderHeader()
	if !strings.Contains(header, "Expected Value ▲") {
		t.Fatalf("glyph should sit on the expected column: %q", header)
	}

	m = send(t, m, runes("3"))
	if !strings.Contains(m.renderHeader(), "Expected Value ▼") {
		t.Fatalf("expected descending glyph: %q", m.renderHeader())
	}
}

func TestASCIIGlyphs(t *testing.T) {
	m := newTestModel(t, newTestSource())
	setGlyphs(glyphSetASCII)

	m = send(t, m, runes("1"))
	if !strings.Contains(m.renderHeader(), "Parameter ^") {
		t.Fatalf("expected ascii glyph: %q", m.renderHeader())
	}
}

func TestQueryFiltersPerKeystroke(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("/"))
	if m.mode != modeQuery {
		t.Fatalf("expected query mode")
	}
	m = send(t, m, runes("t"))
	if got := strings.Join(visibleParams(m), ","); got != "Temp,Hardness,Humidity" {
		t.Fatalf("after t: got %s", got)
	}
	m = send(t, m, runes("emp"))
	if got := strings.Join(visibleParams(m), ","); got != "Temp" {
		t.Fatalf("after temp: got %s", got)
	}
	if m.view.Filter.Query != "temp" {
		t.Fatalf("expected query temp, got %q", m.view.Filter.Query)
	}

	// Leaving the input keeps the query.
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeTable || m.view.Filter.Query != "temp" {
		t.Fatalf("esc should keep the query, mode=%v query=%q", m.mode, m.view.Filter.Query)
	}
	if len(m.view.Rows) != 4 {
		t.Fatalf("filter must not drop rows, got %d", len(m.view.Rows))
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if m.view.Filter.Query != "" || len(m.view.VisibleRows()) != 4 {
		t.Fatalf("ctrl+u should clear the query")
	}
}

func TestQueryBackspaceWidensResults(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("/"), runes("hum"))
	if got := strings.Join(visibleParams(m), ","); got != "Humidity" {
		t.Fatalf("after hum: got %s", got)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.view.Filter.Query != "h" {
		t.Fatalf("expected query h, got %q", m.view.Filter.Query)
	}
	if len(m.view.VisibleRows()) < 2 {
		t.Fatalf("expected more rows for h, got %v", visibleParams(m))
	}
	// q is text while the input has focus.
	m = send(t, m, runes("q"))
	if m.mode != modeQuery || m.view.Filter.Query != "hq" {
		t.Fatalf("expected q to be typed, mode=%v query=%q", m.mode, m.view.Filter.Query)
	}
}

func TestCategoryCycle(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("c"))
	if m.view.Filter.Category != table.CategoryCompliant {
		t.Fatalf("expected compliant, got %v", m.view.Filter.Category)
	}
	if got := strings.Join(visibleParams(m), ","); got != "Pressure" {
		t.Fatalf("compliant rows: got %s", got)
	}

	m = send(t, m, runes("c"))
	if m.view.Filter.Category != table.CategoryNonCompliant {
		t.Fatalf("expected non-compliant, got %v", m.view.Filter.Category)
	}
	if got := strings.Join(visibleParams(m), ","); got != "Temp,Hardness,Humidity" {
		t.Fatalf("non-compliant rows: got %s", got)
	}

	m = send(t, m, runes("c"))
	if m.view.Filter.Category != table.CategoryAll || len(m.view.VisibleRows()) != 4 {
		t.Fatalf("expected all rows back")
	}
}

func TestCursorFollowsRowAcrossSort(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("j"))
	r, ok := m.selectedRow()
	if !ok || table.Cell(r, model.ColParameter) != "Pressure" {
		t.Fatalf("expected Pressure selected")
	}

	m = send(t, m, runes("1"))
	r, ok = m.selectedRow()
	if !ok || table.Cell(r, model.ColParameter) != "Pressure" {
		t.Fatalf("selection should follow the row after sorting")
	}
	if m.cursor != 2 {
		t.Fatalf("expected cursor at 2, got %d", m.cursor)
	}

	// Cursor clamps at both ends.
	m = send(t, m, runes("k"), runes("k"), runes("k"), runes("k"))
	if m.cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", m.cursor)
	}
	m = send(t, m, runes("j"), runes("j"), runes("j"), runes("j"), runes("j"))
	if m.cursor != 3 {
		t.Fatalf("expected cursor 3, got %d", m.cursor)
	}
}

func TestDetailPane(t *testing.T) {
	m := newTestModel(t, newTestSource())

	m = send(t, m, runes("d"))
	if !m.showDetail {
		t.Fatalf("expected detail pane")
	}
	v := m.View()
	if !strings.Contains(v, "expected 65") || !strings.Contains(v, "compliant No") {
		t.Fatalf("detail should describe the selected row:\n%s", v)
	}

	m = send(t, m, runes("d"))
	if m.showDetail {
		t.Fatalf("expected detail pane hidden")
	}
}

func TestEmptyWorkspace(t *testing.T) {
	m := newTestModel(t, &fakeSource{results: map[string]store.Results{}})

	m = send(t, m, runes("1"), runes("1"), runes("c"), runes("j"), runes("d"))
	if len(m.view.Rows) != 0 {
		t.Fatalf("expected no rows")
	}
	v := m.View()
	if !strings.Contains(v, "no results imported yet") {
		t.Fatalf("expected import hint:\n%s", v)
	}
	if m.errText != "" {
		t.Fatalf("empty workspace is not an error: %s", m.errText)
	}
}

func TestReloadKeepsSortAndFilter(t *testing.T) {
	src := newTestSource()
	m := newTestModel(t, src)

	m = send(t, m, runes("1"), runes("1"), runes("c"), runes("c"))
	m = send(t, m, runes("r"))

	if m.view.Sort.Key != model.ColParameter || m.view.Sort.Dir != table.Descending {
		t.Fatalf("sort state lost on reload: %+v", m.view.Sort)
	}
	if m.view.Filter.Category != table.CategoryNonCompliant {
		t.Fatalf("filter state lost on reload: %+v", m.view.Filter)
	}
	if got := strings.Join(visibleParams(m), ","); got != "Temp,Humidity,Hardness" {
		t.Fatalf("reloaded rows: got %s", got)
	}
}

func TestImportRebindsRows(t *testing.T) {
	src := newTestSource()
	m := newTestModel(t, src)
	m = send(t, m, runes("1"))

	path := filepath.Join(t.TempDir(), "compliance_results.json")
	body := `[{"chunk_index": 0, "compliance": [
		{"parameter": "Zinc", "actual_value": "3", "expected_value": "3", "is_compliant": true, "explanation": "ok"},
		{"parameter": "Arsenic", "actual_value": "9", "expected_value": "1", "is_compliant": false, "explanation": "high"}
	]}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := importCmd(context.Background(), src, path, "Cefixime")()
	done, ok := msg.(importDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("import failed: %#v", msg)
	}
	m = send(t, m, done)

	if m.results.Batch.ID != "batch-2" {
		t.Fatalf("expected new batch, got %s", m.results.Batch.ID)
	}
	if got := strings.Join(visibleParams(m), ","); got != "Arsenic,Zinc" {
		t.Fatalf("new rows should be sorted with the kept state: got %s", got)
	}
	if !strings.Contains(m.minibuffer, "Imported 2 entries") {
		t.Fatalf("unexpected minibuffer %q", m.minibuffer)
	}
}

func TestImportFailureIsReported(t *testing.T) {
	m := newTestModel(t, newTestSource())

	msg := importCmd(context.Background(), &fakeSource{results: map[string]store.Results{}}, filepath.Join(t.TempDir(), "missing.json"), "")()
	m = send(t, m, msg)
	if !strings.HasPrefix(m.errText, "import failed:") {
		t.Fatalf("expected import error, got %q", m.errText)
	}
	if len(m.view.Rows) != 4 {
		t.Fatalf("failed import must keep the current rows")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, newTestSource())
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
