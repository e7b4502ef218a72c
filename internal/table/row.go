// Package table sorts and filters a fixed set of compliance result rows.
//
// Sorting only reorders row pointers; filtering only flips Row.Visible. Rows
// are never created or dropped, so a sort after a filter still orders every
// row, hidden or not.
package table

import (
	"strings"

	"complyview/internal/model"
)

type Row struct {
	ID      string
	Cells   [model.NumColumns]string
	Visible bool
}

// NewRow returns a visible row for an entry.
func NewRow(id string, e model.Entry) *Row {
	return &Row{ID: id, Cells: e.Cells(), Visible: true}
}

// Cell returns the trimmed text of a column. Out-of-range columns read as "".
func Cell(r *Row, col model.Column) string {
	if r == nil || !col.Valid() {
		return ""
	}
	return strings.TrimSpace(r.Cells[col])
}
