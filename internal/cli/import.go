package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"complyview/internal/fetch"
	"complyview/internal/store"
)

func newImportCmd(app *App) *cobra.Command {
	var fromURL string
	var product string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a compliance results file as a new batch",
		Example: strings.TrimSpace(`
complyview import compliance_results.json
complyview import --url https://processing.example/results/compliance_results.json
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			fromURL = strings.TrimSpace(fromURL)

			var rs store.ResultSet
			var source string
			switch {
			case fromURL != "" && len(args) > 0:
				return writeErr(cmd, errors.New("pass a results file or --url, not both"))
			case fromURL != "":
				client := fetch.New(fetch.Options{Retries: cfg.Fetch.Retries, Logger: newLogger(cmd, app)})
				rs, err = client.Results(ctx, fromURL)
				if err != nil {
					return writeErr(cmd, err)
				}
				source = fromURL
			case len(args) == 1:
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				rs, err = store.ParseResults(f)
				_ = f.Close()
				if err != nil {
					return writeErr(cmd, err)
				}
				source = args[0]
			default:
				return writeErr(cmd, errors.New("missing results file (or --url)"))
			}

			product = strings.TrimSpace(product)
			if product == "" {
				product = cfg.Product
			}

			var bar *progressbar.ProgressBar
			if !quiet && len(rs.Entries) > 0 {
				bar = progressbar.NewOptions(len(rs.Entries),
					progressbar.OptionSetDescription("importing"),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionThrottle(100),
					progressbar.OptionClearOnFinish(),
				)
			}
			b, err := st.Import(ctx, rs, store.ImportOptions{
				Source:  source,
				Product: product,
				OnProgress: func(done, _ int) {
					if bar != nil {
						_ = bar.Set(done)
					}
				},
			})
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, b,
				"complyview rows --batch "+b.ID+" --format table",
				"complyview report --batch "+b.ID+" --non-compliant --out "+"non_compliance_report.md",
			)
		},
	}

	cmd.Flags().StringVar(&fromURL, "url", "", "Download the results file from a URL (retried on transient failures)")
	cmd.Flags().StringVar(&product, "product", "", "Product name recorded on the batch (default from config)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not draw a progress bar")
	return cmd
}
