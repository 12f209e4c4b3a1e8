package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		layer      string
		forceLanes bool
	)

	cmd := &cobra.Command{
		Use:   "layout <project>",
		Short: "Recompute auto-placement for a project's layers",
		Long: `Recompute node positions and edge lanes for the workspace layers of a
stored project and save the result.

Nodes keep their manual positions only where the layer marks them as
manually placed; everything else snaps back onto the level grid. Lanes are
normally filled only where missing; --force-lanes recomputes every lane.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], layer, forceLanes)
		},
	}

	cmd.Flags().StringVarP(&layer, "layer", "l", "", "limit to a single workspace")
	cmd.Flags().BoolVar(&forceLanes, "force-lanes", false, "recompute every edge lane")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, project, layer string, forceLanes bool) error {
	runner, err := c.newRunner(ctx, project)
	if err != nil {
		return err
	}
	defer runner.Close()

	keys, err := layerKeys(runner, layer)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	for _, key := range keys {
		res, err := runner.Relayout(ctx, key, forceLanes)
		if err != nil {
			return err
		}
		printInfo("%s: %d nodes, %d edges placed", key, res.Stats.NodeCount, res.Stats.EdgeCount)
	}
	prog.done(fmt.Sprintf("Laid out %d layers", len(keys)))
	printSuccess("Layout saved")
	return nil
}
