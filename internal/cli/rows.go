package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"complyview/internal/model"
	"complyview/internal/table"
)

type rowOut struct {
	ID            string `json:"id"`
	Parameter     string `json:"parameter"`
	ActualValue   string `json:"actualValue"`
	ExpectedValue string `json:"expectedValue"`
	Compliant     string `json:"compliant"`
	Explanation   string `json:"explanation"`
	Visible       *bool  `json:"visible,omitempty"`
}

type sortOut struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

type filterOut struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

type rowsResult struct {
	Batch   string    `json:"batch"`
	Sort    *sortOut  `json:"sort"`
	Filter  filterOut `json:"filter"`
	Total   int       `json:"total"`
	Visible int       `json:"visible"`
	Rows    []rowOut  `json:"rows"`

	view *table.View
	all  bool
}

func (r rowsResult) TableHeaders() []string {
	hs := make([]string, 0, model.NumColumns+1)
	for _, col := range model.Columns() {
		h := col.Title()
		if dir, ok := r.view.Indicator(col); ok {
			if dir == table.Descending {
				h += " ▼"
			} else {
				h += " ▲"
			}
		}
		hs = append(hs, h)
	}
	if r.all {
		hs = append(hs, "Visible")
	}
	return hs
}

func (r rowsResult) TableRows() [][]string {
	out := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		cells := []string{row.Parameter, row.ActualValue, row.ExpectedValue, row.Compliant, row.Explanation}
		if r.all {
			v := "no"
			if row.Visible != nil && *row.Visible {
				v = "yes"
			}
			cells = append(cells, v)
		}
		out = append(out, cells)
	}
	return out
}

// runRows drives the table engine headlessly: each sort column is one header
// activation, in order.
func runRows(v *table.View, sorts []string, desc bool, query, category string) error {
	for _, s := range sorts {
		col, ok := model.ParseColumn(s)
		if !ok {
			return fmt.Errorf("invalid --sort %q (expected a column key or 1-%d)", s, model.NumColumns)
		}
		v.ActivateHeader(col)
	}
	if desc {
		if !v.Sort.HasKey {
			return errors.New("--desc needs --sort")
		}
		if v.Sort.Dir == table.Ascending {
			v.ActivateHeader(v.Sort.Key)
		}
	}
	v.SetQuery(query)
	if category != "" {
		c, ok := table.ParseCategory(category)
		if !ok {
			return fmt.Errorf("invalid --category %q (expected all|compliant|non-compliant)", category)
		}
		v.SetCategory(c)
	}
	return nil
}

func newRowsResult(batchID string, v *table.View, all bool) rowsResult {
	res := rowsResult{
		Batch:  batchID,
		Filter: filterOut{Query: v.Filter.Query, Category: v.Filter.Category.String()},
		Total:  len(v.Rows),
		Rows:   []rowOut{},
		view:   v,
		all:    all,
	}
	if v.Sort.HasKey {
		res.Sort = &sortOut{Column: v.Sort.Key.Key(), Direction: v.Sort.Dir.String()}
	}
	for _, r := range v.Rows {
		if r.Visible {
			res.Visible++
		}
		if !r.Visible && !all {
			continue
		}
		out := rowOut{
			ID:            r.ID,
			Parameter:     table.Cell(r, model.ColParameter),
			ActualValue:   table.Cell(r, model.ColActualValue),
			ExpectedValue: table.Cell(r, model.ColExpectedValue),
			Compliant:     table.Cell(r, model.ColIsCompliant),
			Explanation:   table.Cell(r, model.ColExplanation),
		}
		if all {
			vis := r.Visible
			out.Visible = &vis
		}
		res.Rows = append(res.Rows, out)
	}
	return res
}

func newRowsCmd(app *App) *cobra.Command {
	var sorts []string
	var desc bool
	var query string
	var category string
	var all bool

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Print a batch's rows, sorted and filtered like the interactive table",
		Long: `Print a batch's rows, sorted and filtered like the interactive table.

Each --sort activates a column header once: a new column sorts ascending and
repeating the same column flips the direction. --desc makes the final sort
descending.`,
		Example: `complyview rows --sort parameter --format table
complyview rows --sort actual_value --desc --category non-compliant
complyview rows --query temp --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := st.LoadResults(cmd.Context(), app.BatchID)
			if err != nil {
				return writeErr(cmd, err)
			}
			v := table.FromEntries(res.Entries)
			if err := runRows(v, sorts, desc, query, category); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, newRowsResult(res.Batch.ID, v, all))
		},
	}

	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "Activate a column header (repeatable): parameter|actual_value|expected_value|is_compliant|explanation or 1-5")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort the final column descending")
	cmd.Flags().StringVar(&query, "query", "", "Case-insensitive substring matched against every column")
	cmd.Flags().StringVar(&category, "category", "", "all|compliant|non-compliant")
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden rows with a visible flag")
	return cmd
}
