package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"complyview/internal/model"
)

type batchList []model.Batch

func (l batchList) TableHeaders() []string {
	return []string{"ID", "Imported", "Entries", "Product", "Source"}
}

func (l batchList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, b := range l {
		rows = append(rows, []string{
			b.ID,
			b.ImportedAt.Local().Format(time.DateTime),
			strconv.Itoa(b.EntryCount),
			b.Product,
			b.Source,
		})
	}
	return rows
}

func newBatchesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List, show and delete imported batches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			bs, err := st.Batches(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(bs) == 0 {
				return writeOut(cmd, app, batchList{}, "complyview import <file>")
			}
			return writeOut(cmd, app, batchList(bs))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show one batch with its standard parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := st.Batch(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			params, err := st.StandardParams(cmd.Context(), b.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if params == nil {
				params = []model.StandardParam{}
			}
			return writeOut(cmd, app, map[string]any{
				"batch":          b,
				"standardParams": params,
			}, "complyview rows --batch "+b.ID)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <batch-id>",
		Short: "Delete a batch and its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.DeleteBatch(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	})

	return cmd
}
