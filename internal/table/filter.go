package table

import (
	"strings"

	"complyview/internal/model"
)

type Category int

const (
	CategoryAll Category = iota
	CategoryCompliant
	CategoryNonCompliant
)

func (c Category) String() string {
	switch c {
	case CategoryCompliant:
		return "compliant"
	case CategoryNonCompliant:
		return "non-compliant"
	default:
		return "all"
	}
}

func (c Category) Label() string {
	switch c {
	case CategoryCompliant:
		return "Compliant"
	case CategoryNonCompliant:
		return "Non-compliant"
	default:
		return "All"
	}
}

// ParseCategory recognizes the category selector values.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return CategoryAll, true
	case "compliant":
		return CategoryCompliant, true
	case "non-compliant", "noncompliant", "non_compliant":
		return CategoryNonCompliant, true
	default:
		return CategoryAll, false
	}
}

// NextCategory cycles All -> Compliant -> Non-compliant -> All.
func NextCategory(c Category) Category {
	switch c {
	case CategoryAll:
		return CategoryCompliant
	case CategoryCompliant:
		return CategoryNonCompliant
	default:
		return CategoryAll
	}
}

type FilterState struct {
	Query    string
	Category Category
}

func OnQueryChanged(f FilterState, text string) FilterState {
	f.Query = text
	return f
}

func OnCategoryChanged(f FilterState, c Category) FilterState {
	f.Category = c
	return f
}

// MatchesCategory treats every status other than "Yes" (including "--") as
// non-compliant.
func MatchesCategory(r *Row, c Category) bool {
	switch c {
	case CategoryCompliant:
		return Cell(r, model.ColIsCompliant) == model.StatusYes
	case CategoryNonCompliant:
		return Cell(r, model.ColIsCompliant) != model.StatusYes
	default:
		return true
	}
}

// MatchesQuery reports whether q occurs, case-insensitively, in any cell.
func MatchesQuery(r *Row, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, col := range model.Columns() {
		if strings.Contains(strings.ToLower(Cell(r, col)), q) {
			return true
		}
	}
	return false
}

func Visible(r *Row, f FilterState) bool {
	return MatchesCategory(r, f.Category) && MatchesQuery(r, f.Query)
}

// ApplyFilter sets each row's visibility. Row count and order are unchanged.
func ApplyFilter(rows []*Row, f FilterState) {
	for _, r := range rows {
		if r == nil {
			continue
		}
		r.Visible = Visible(r, f)
	}
}
