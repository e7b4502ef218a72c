package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"complyview/internal/web"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the results table in a browser",
		Long: `Serve the results table in a browser.

Sorting and filtering run on the server; the page keeps its sort and filter
state client-side and each interaction re-renders the table. Results files can
be uploaded from the page.`,
		Example: `complyview web
complyview web --addr 127.0.0.1:3335`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = cfg.Web.Addr
			}

			log := newLogger(cmd, app)
			srv, err := web.NewServer(web.ServerConfig{
				Addr:    listenAddr,
				BatchID: app.BatchID,
				Product: cfg.Product,
				Source:  st,
				Log:     log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			_ = writeOut(cmd, app, map[string]any{
				"addr": srv.Addr(),
				"url":  "http://" + srv.Addr() + "/",
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ListenAndServe(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	return cmd
}
