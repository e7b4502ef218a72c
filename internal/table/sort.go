package table

import (
	"slices"
	"sort"
	"strings"

	"complyview/internal/model"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc"/"desc" (and the long forms); anything else is
// Ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

func (d Direction) flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortState is the current sort column and direction. The zero value has no
// column selected.
type SortState struct {
	Key    model.Column
	HasKey bool
	Dir    Direction
}

// OnHeaderActivated returns the state after a column header is activated: a
// new column starts ascending, the same column flips direction.
func OnHeaderActivated(s SortState, col model.Column) SortState {
	if !col.Valid() {
		return s
	}
	if !s.HasKey || s.Key != col {
		return SortState{Key: col, HasKey: true, Dir: Ascending}
	}
	s.Dir = s.Dir.flip()
	return s
}

// SortRows reorders rows in place for s. Every row participates, visible or
// not. Descending is the reverse of the ascending order, so toggling a column
// yields the exact reverse permutation even for ties.
func SortRows(rows []*Row, s SortState) {
	if !s.HasKey || len(rows) == 0 {
		return
	}
	col := s.Key
	sort.SliceStable(rows, func(i, j int) bool {
		return Compare(col, Cell(rows[i], col), Cell(rows[j], col)) < 0
	})
	if s.Dir == Descending {
		slices.Reverse(rows)
	}
}

// Indicator reports the direction glyph a header should show. Only the sort
// column has one.
func Indicator(s SortState, col model.Column) (Direction, bool) {
	if !s.HasKey || s.Key != col {
		return Ascending, false
	}
	return s.Dir, true
}
