package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"complyview/internal/format"
	"complyview/internal/logging"
	"complyview/internal/store"
	"complyview/internal/tui"
)

type App struct {
	Dir        string
	ConfigPath string
	BatchID    string
	Format     string
	Pretty     bool
	LogLevel   string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "complyview",
		Short:        "Review batch compliance results (CLI + TUI + web)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Import a results file and browse it interactively
  complyview import compliance_results.json
  complyview

  # Headless: non-compliant rows sorted by parameter
  complyview rows --category non-compliant --sort parameter --format table

  # Write the non-compliance summary
  complyview report --non-compliant --out non_compliance_report.md
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("COMPLYVIEW_DIR", ""), "Workspace dir holding the results database (default ~/.complyview)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("COMPLYVIEW_CONFIG", ""), "Config file (default <dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.BatchID, "batch", envOr("COMPLYVIEW_BATCH", ""), "Batch id (default: latest import)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("COMPLYVIEW_FORMAT", "json"), "Output format (json|edn|table)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("COMPLYVIEW_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newBatchesCmd(app))
	cmd.AddCommand(newRowsCmd(app))
	cmd.AddCommand(newReportCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	st, cfg, err := loadStore(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	log, closeLog, err := logging.NewFile(st.LogPath(), app.LogLevel)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = closeLog() }()

	return tui.Run(cmd.Context(), st, tui.Options{
		BatchID: strings.TrimSpace(app.BatchID),
		Product: cfg.Product,
		Glyphs:  cfg.TUI.Glyphs,
		Theme:   cfg.TUI.Theme,
		Log:     log,
	})
}

// resolveStore resolves the workspace dir: --dir, then COMPLYVIEW_DIR, then
// ~/.complyview.
func resolveStore(app *App) (store.Store, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return store.Store{}, err
		}
		dir = d
		app.Dir = dir
	}
	return store.Store{Dir: dir}, nil
}

// configPath is --config (or COMPLYVIEW_CONFIG), else <dir>/config.yaml.
func configPath(app *App, st store.Store) string {
	if p := strings.TrimSpace(app.ConfigPath); p != "" {
		return p
	}
	return st.ConfigPath()
}

// loadStore resolves the workspace and its config. Flags win over env, env
// over the config file, the file over defaults.
func loadStore(app *App) (store.Store, store.Config, error) {
	st, err := resolveStore(app)
	if err != nil {
		return store.Store{}, store.Config{}, err
	}
	cfg, err := st.LoadConfig(strings.TrimSpace(app.ConfigPath))
	if err != nil {
		return st, store.Config{}, err
	}
	return st, applyEnv(cfg).WithDefaults(), nil
}

func applyEnv(cfg store.Config) store.Config {
	if v := strings.TrimSpace(os.Getenv("COMPLYVIEW_PRODUCT")); v != "" {
		cfg.Product = v
	}
	if v := strings.TrimSpace(os.Getenv("COMPLYVIEW_WEB_ADDR")); v != "" {
		cfg.Web.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("COMPLYVIEW_TUI_GLYPHS")); v != "" {
		cfg.TUI.Glyphs = v
	}
	if v := strings.TrimSpace(os.Getenv("COMPLYVIEW_TUI_THEME")); v != "" {
		cfg.TUI.Theme = v
	}
	return cfg
}

func newLogger(cmd *cobra.Command, app *App) zerolog.Logger {
	return logging.New(cmd.ErrOrStderr(), app.LogLevel)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

type envelope struct {
	Data  any      `json:"data"`
	Hints []string `json:"_hints,omitempty"`
}

// writeOut prints data wrapped in the {"data", "_hints"} envelope. The table
// format prints the bare data instead.
func writeOut(cmd *cobra.Command, app *App, data any, hints ...string) error {
	var v any = envelope{Data: data, Hints: hints}
	if strings.EqualFold(strings.TrimSpace(app.Format), "table") {
		if t, ok := data.(format.Tabular); ok {
			v = t
		}
	}
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
