package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Run structural and registry cross-checks on a project",
		Long: `Validate the workspace layers of a stored project.

Each layer runs the full diagnostic pass: self-loops, duplicate and dangling
edges, cycles, orphaned consumers, source constraints, and (when --registry
is given) divergence from the upstream feeder registry.

The command exits non-zero when any layer reports an error-level issue, so
it can run in CI against a shared project store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], layer)
		},
	}

	cmd.Flags().StringVarP(&layer, "layer", "l", "", "validate a single workspace (CA_ES, CA_NOES, CC_B1, CC_B2)")
	return cmd
}

func (c *CLI) runValidate(ctx context.Context, project, layer string) error {
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
	failed := false
	for _, key := range keys {
		issues, err := runner.Validate(ctx, key)
		if err != nil {
			return err
		}
		printLayerSummary(key, issues)
		if validate.Errors(issues) {
			failed = true
		}
	}
	prog.done(fmt.Sprintf("Validated %d layers", len(keys)))

	if failed {
		return fmt.Errorf("validation failed")
	}
	printSuccess("No errors found")
	return nil
}

func printLayerSummary(key registry.RequirementCode, issues []validate.Issue) {
	if len(issues) == 0 {
		printSuccess("%s: clean", key)
		return
	}
	if validate.Errors(issues) {
		printError("%s: %s", key, validate.Summary(issues))
	} else {
		printWarning("%s: %s", key, validate.Summary(issues))
	}
	for _, is := range issues {
		printIssue(is)
	}
}
