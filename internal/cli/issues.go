package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

// issuesCommand creates the issues command.
func (c *CLI) issuesCommand() *cobra.Command {
	var (
		layer       string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "issues <project>",
		Short: "List diagnostics for a project's layers",
		Long: `List every diagnostic the validator reports for a project.

With --interactive the issues open in a scrollable browser where they can
be filtered by severity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIssues(cmd.Context(), args[0], layer, interactive)
		},
	}

	cmd.Flags().StringVarP(&layer, "layer", "l", "", "limit to a single workspace")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse issues interactively")
	return cmd
}

func (c *CLI) runIssues(ctx context.Context, project, layer string, interactive bool) error {
	runner, err := c.newRunner(ctx, project)
	if err != nil {
		return err
	}
	defer runner.Close()

	keys, err := layerKeys(runner, layer)
	if err != nil {
		return err
	}

	var entries []issueEntry
	for _, key := range keys {
		issues, err := runner.Issues(ctx, key)
		if err != nil {
			return err
		}
		for _, is := range issues {
			entries = append(entries, issueEntry{Layer: string(key), Issue: is})
		}
	}

	if len(entries) == 0 {
		printSuccess("No issues")
		return nil
	}

	if interactive {
		model := NewIssueListModel(entries)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("issue browser: %w", err)
		}
		return nil
	}

	current := ""
	for _, e := range entries {
		if e.Layer != current {
			current = e.Layer
			fmt.Println(StyleTitle.Render(current))
		}
		printIssue(e.Issue)
	}
	printDetail("%d issues total", len(entries))
	return nil
}

// issueEntry pairs an issue with the workspace it came from.
type issueEntry struct {
	Layer string
	Issue validate.Issue
}
