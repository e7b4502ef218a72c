package table

import (
	"strconv"

	"complyview/internal/model"
)

// View is a results table: the live row collection plus its sort and filter
// state. It is not safe for concurrent use; each UI owns its own.
type View struct {
	Rows   []*Row
	Sort   SortState
	Filter FilterState
}

// NewView binds a view to the given rows, all visible, in the given order.
func NewView(rows []*Row) *View {
	for _, r := range rows {
		if r != nil {
			r.Visible = true
		}
	}
	return &View{Rows: rows}
}

// RowID is the id FromEntries gives the entry at index i.
func RowID(i int) string { return "r" + strconv.Itoa(i+1) }

// FromEntries builds a view over entries, using the entry position as row id.
func FromEntries(entries []model.Entry) *View {
	rows := make([]*Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, NewRow(RowID(i), e))
	}
	return NewView(rows)
}

func (v *View) ActivateHeader(col model.Column) {
	v.Sort = OnHeaderActivated(v.Sort, col)
	SortRows(v.Rows, v.Sort)
}

func (v *View) SetQuery(q string) {
	v.Filter = OnQueryChanged(v.Filter, q)
	ApplyFilter(v.Rows, v.Filter)
}

func (v *View) SetCategory(c Category) {
	v.Filter = OnCategoryChanged(v.Filter, c)
	ApplyFilter(v.Rows, v.Filter)
}

// Apply re-establishes order and visibility for explicit states, e.g. when a
// stateless client sends its current sort and filter back.
func (v *View) Apply(s SortState, f FilterState) {
	v.Sort = s
	v.Filter = f
	SortRows(v.Rows, v.Sort)
	ApplyFilter(v.Rows, v.Filter)
}

func (v *View) VisibleRows() []*Row {
	out := make([]*Row, 0, len(v.Rows))
	for _, r := range v.Rows {
		if r != nil && r.Visible {
			out = append(out, r)
		}
	}
	return out
}

func (v *View) Indicator(col model.Column) (Direction, bool) {
	return Indicator(v.Sort, col)
}
