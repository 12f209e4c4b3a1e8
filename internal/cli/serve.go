package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jzagalv/ssaa-designer/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve <project>",
		Short: "Serve the read-only inspection API for a project",
		Long: `Serve the project's layers, diagnostics, load tables and diagram exports
over HTTP. The API is read-only: it never mutates the project. POST
/refresh reloads the project from the store after another process saves
it; bursts of refresh requests coalesce per the configured debounce.

Endpoints:

	GET  /healthz
	POST /refresh
	GET  /layers
	GET  /layers/{key}
	GET  /layers/{key}/issues
	GET  /layers/{key}/loadtable
	GET  /layers/{key}/dot
	GET  /layers/{key}/svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, project, listen string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.API.Listen
	}

	runner, err := c.newRunner(ctx, project)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.SetRefreshInterval(cfg.Refresh.Debounce())

	printInfo("Serving %s on http://%s", project, listen)
	return api.New(runner, c.Logger).Serve(ctx, listen)
}
