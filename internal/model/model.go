package model

import (
	"strconv"
	"strings"
	"time"
)

// NonStated is the placeholder the processing service writes when a value
// could not be extracted from the record.
const NonStated = "non stated"

// Compliance status labels, as shown in the results table.
const (
	StatusYes = "Yes"
	StatusNo  = "No"
	StatusNA  = "--"
)

// Column identifies one of the five fixed result-table columns.
type Column int

const (
	ColParameter Column = iota
	ColActualValue
	ColExpectedValue
	ColIsCompliant
	ColExplanation
)

const NumColumns = 5

var columnKeys = [NumColumns]string{
	"parameter",
	"actual_value",
	"expected_value",
	"is_compliant",
	"explanation",
}

var columnTitles = [NumColumns]string{
	"Parameter",
	"Actual Value",
	"Expected Value",
	"Compliant",
	"Explanation",
}

func Columns() []Column {
	return []Column{ColParameter, ColActualValue, ColExpectedValue, ColIsCompliant, ColExplanation}
}

func (c Column) Valid() bool { return c >= 0 && int(c) < NumColumns }

// Key returns the snake_case column key (e.g. "actual_value").
func (c Column) Key() string {
	if !c.Valid() {
		return ""
	}
	return columnKeys[c]
}

// Title returns the human header label.
func (c Column) Title() string {
	if !c.Valid() {
		return ""
	}
	return columnTitles[c]
}

func (c Column) String() string { return c.Key() }

// ParseColumn accepts a column key (case-insensitive, '-' treated as '_')
// or a 1-based column number.
func ParseColumn(s string) (Column, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= NumColumns {
			return Column(n - 1), true
		}
		return 0, false
	}
	s = strings.ReplaceAll(s, "-", "_")
	for i, k := range columnKeys {
		if k == s {
			return Column(i), true
		}
	}
	return 0, false
}

// Entry is one parameter's compliance record.
type Entry struct {
	ChunkIndex    int    `json:"chunkIndex"`
	Parameter     string `json:"parameter"`
	ActualValue   string `json:"actualValue"`
	ExpectedValue string `json:"expectedValue"`
	IsCompliant   bool   `json:"isCompliant"`
	Explanation   string `json:"explanation"`
}

// Status returns the displayed compliance status for the entry.
func (e Entry) Status() string {
	return DeriveStatus(e.ExpectedValue, e.IsCompliant)
}

// Cells returns the entry's five display cells in column order.
func (e Entry) Cells() [NumColumns]string {
	return [NumColumns]string{
		e.Parameter,
		e.ActualValue,
		e.ExpectedValue,
		e.Status(),
		e.Explanation,
	}
}

// DeriveStatus maps an entry to its status label. An expected value that was
// never stated makes the comparison meaningless, so it shows as "--".
func DeriveStatus(expected string, compliant bool) string {
	if strings.EqualFold(strings.TrimSpace(expected), NonStated) {
		return StatusNA
	}
	if compliant {
		return StatusYes
	}
	return StatusNo
}

type StandardParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Batch is one imported results file.
type Batch struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Product    string    `json:"product,omitempty"`
	ImportedAt time.Time `json:"importedAt"`
	EntryCount int       `json:"entryCount"`
}
