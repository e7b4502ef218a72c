package web

import (
	"html/template"
	"strings"

	"complyview/internal/model"
	"complyview/internal/store"
	"complyview/internal/table"
)

// tableSignals is the table state the browser holds between requests.
type tableSignals struct {
	SortKey  string `json:"sortKey"`
	SortDir  string `json:"sortDir"`
	Query    string `json:"query"`
	Category string `json:"category"`
}

// state decodes signals. Unknown sort keys mean "unsorted" and unknown
// categories fall back to all.
func (sg tableSignals) state() (table.SortState, table.FilterState) {
	var s table.SortState
	if col, ok := model.ParseColumn(sg.SortKey); ok {
		s = table.SortState{Key: col, HasKey: true, Dir: table.ParseDirection(sg.SortDir)}
	}
	c, _ := table.ParseCategory(sg.Category)
	f := table.OnCategoryChanged(table.OnQueryChanged(table.FilterState{}, sg.Query), c)
	return s, f
}

func signalsFor(s table.SortState, f table.FilterState) tableSignals {
	sig := tableSignals{Query: f.Query, Category: f.Category.String()}
	if s.HasKey {
		sig.SortKey = s.Key.Key()
		sig.SortDir = s.Dir.String()
	}
	return sig
}

type pageVM struct {
	Product     string
	HasBatch    bool
	Batch       model.Batch
	SignalsJSON string
	Categories  []categoryOption
	Notice      string
	// StandardParams are the master-record values shown above the table.
	StandardParams []model.StandardParam
	Results        resultsVM
}

type categoryOption struct {
	Value string
	Label string
}

func categoryOptions() []categoryOption {
	out := make([]categoryOption, 0, 3)
	for _, c := range []table.Category{table.CategoryAll, table.CategoryCompliant, table.CategoryNonCompliant} {
		out = append(out, categoryOption{Value: c.String(), Label: c.Label()})
	}
	return out
}

type resultsVM struct {
	HasBatch bool
	Headers  []headerVM
	Rows     []rowVM
	Visible  int
	Total    int
}

type headerVM struct {
	Key       string
	Title     string
	Indicator string
	AriaSort  string
}

type rowVM struct {
	ID          string
	Hidden      bool
	Parameter   string
	Actual      string
	Expected    string
	Status      string
	StatusClass string
	Explanation template.HTML
}

// buildResultsVM binds a fresh view to the batch and applies the client's
// state. Hidden rows are still rendered, in sorted position.
func buildResultsVM(res store.Results, hasBatch bool, s table.SortState, f table.FilterState) resultsVM {
	// The engine sees explanations as displayed text; the page still renders
	// the markdown source.
	display := make([]model.Entry, len(res.Entries))
	markdown := make(map[string]string, len(res.Entries))
	for i, e := range res.Entries {
		markdown[table.RowID(i)] = e.Explanation
		e.Explanation = markdownPlainText(e.Explanation)
		display[i] = e
	}
	v := table.FromEntries(display)
	v.Apply(s, f)

	vm := resultsVM{HasBatch: hasBatch, Total: len(v.Rows)}
	for _, col := range model.Columns() {
		h := headerVM{Key: col.Key(), Title: col.Title(), AriaSort: "none"}
		if dir, ok := v.Indicator(col); ok {
			h.Indicator = "▲"
			h.AriaSort = "ascending"
			if dir == table.Descending {
				h.Indicator = "▼"
				h.AriaSort = "descending"
			}
		}
		vm.Headers = append(vm.Headers, h)
	}
	for _, r := range v.Rows {
		if r.Visible {
			vm.Visible++
		}
		status := table.Cell(r, model.ColIsCompliant)
		vm.Rows = append(vm.Rows, rowVM{
			ID:          r.ID,
			Hidden:      !r.Visible,
			Parameter:   table.Cell(r, model.ColParameter),
			Actual:      table.Cell(r, model.ColActualValue),
			Expected:    table.Cell(r, model.ColExpectedValue),
			Status:      status,
			StatusClass: statusClass(status),
			Explanation: renderMarkdownHTML(markdown[r.ID]),
		})
	}
	return vm
}

func statusClass(status string) string {
	switch strings.TrimSpace(status) {
	case model.StatusYes:
		return "status-yes"
	case model.StatusNo:
		return "status-no"
	default:
		return "status-na"
	}
}
