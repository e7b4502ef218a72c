package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"complyview/internal/publish"
)

func newReportCmd(app *App) *cobra.Command {
	var nonCompliant bool
	var product string
	var out string
	var force bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a batch as a Markdown compliance report",
		Long: `Render a batch as a Markdown compliance report.

Without --out the Markdown is printed to stdout. --non-compliant renders the
summary report, which lists only entries whose compliance flag is false.`,
		Example: `complyview report > compliance_report.md
complyview report --non-compliant --out non_compliance_report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := st.LoadResults(cmd.Context(), app.BatchID)
			if err != nil {
				return writeErr(cmd, err)
			}

			product = strings.TrimSpace(product)
			if product == "" {
				product = res.Batch.Product
			}
			if product == "" {
				product = cfg.Product
			}
			md := publish.RenderMarkdown(publish.Report{
				Product:        product,
				Entries:        res.Entries,
				StandardParams: res.StandardParams,
			}, publish.RenderOptions{NonCompliantOnly: nonCompliant})

			if strings.TrimSpace(out) == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			if err := publish.WriteFile(out, md, force); err != nil {
				return writeErr(cmd, err)
			}
			entries := len(res.Entries)
			if nonCompliant {
				entries = len(publish.NonCompliant(res.Entries))
			}
			return writeOut(cmd, app, map[string]any{
				"batch":        res.Batch.ID,
				"path":         out,
				"nonCompliant": nonCompliant,
				"entries":      entries,
			})
		},
	}

	cmd.Flags().BoolVar(&nonCompliant, "non-compliant", false, "Only list non-compliant entries (summary report)")
	cmd.Flags().StringVar(&product, "product", "", "Product name for the report heading (default: batch, then config)")
	cmd.Flags().StringVar(&out, "out", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing --out file")
	return cmd
}
