package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// projectsCommand creates the projects command.
func (c *CLI) projectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List stored projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProjects(cmd.Context())
		},
	}
}

func (c *CLI) runProjects(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	names, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printInfo("No projects stored")
		return nil
	}
	for _, name := range names {
		printFile(name)
	}
	printDetail("%d projects", len(names))
	return nil
}
