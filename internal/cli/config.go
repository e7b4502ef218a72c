package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"complyview/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the workspace config",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config (file, env and defaults merged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, cfg)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.yaml with the defaults into the workspace dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			path := configPath(app, st)
			if _, err := os.Stat(path); err == nil && !force {
				return writeErr(cmd, errors.New("config already exists (use --force): "+path))
			}
			// The file being replaced may be unreadable, so start from
			// defaults plus env rather than loading it.
			cfg := applyEnv(store.Config{}).WithDefaults()
			if err := st.SaveConfig(path, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"path": path, "config": cfg})
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.AddCommand(initCmd)

	return cmd
}
