package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/jzagalv/ssaa-designer/pkg/errors"
	"github.com/jzagalv/ssaa-designer/pkg/render"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		layer    string
		format   string
		outDir   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export layer diagrams as DOT or SVG",
		Long: `Export the workspace layers of a stored project as diagrams.

One file is written per layer, named <project>.<layer>.<format>. DOT output
suits external Graphviz tooling; SVG renders in-process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], layer, format, outDir, detailed)
		},
	}

	cmd.Flags().StringVarP(&layer, "layer", "l", "", "limit to a single workspace")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include power and feeder keys in labels")
	return cmd
}

func (c *CLI) runExport(ctx context.Context, project, layer, format, outDir string, detailed bool) error {
	if format != "dot" && format != "svg" {
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown format: %s (must be dot or svg)", format)
	}

	runner, err := c.newRunner(ctx, project)
	if err != nil {
		return err
	}
	defer runner.Close()

	keys, err := layerKeys(runner, layer)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	prog := newProgress(c.Logger)
	for _, key := range keys {
		l, err := runner.Layer(key)
		if err != nil {
			return err
		}
		dot := render.ToDOT(l, key.Filter(), render.Options{Detailed: detailed})

		data := []byte(dot)
		if format == "svg" {
			data, err = render.SVG(ctx, dot)
			if err != nil {
				return fmt.Errorf("render %s: %w", key, err)
			}
		}

		name := fmt.Sprintf("%s.%s.%s", sanitizeFileName(project), key, format)
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	prog.done(fmt.Sprintf("Exported %d layers", len(keys)))
	return nil
}

// sanitizeFileName replaces path separators so project names like
// "SE Nueva/220kV" stay inside the output directory.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return strings.ReplaceAll(name, " ", "_")
}
