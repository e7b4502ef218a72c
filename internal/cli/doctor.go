package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"complyview/internal/store"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the workspace config and results database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			report, err := st.Doctor(cmd.Context(), strings.TrimSpace(app.ConfigPath))
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := writeOut(cmd, app, report, "complyview batches list"); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return store.ErrDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	return cmd
}
