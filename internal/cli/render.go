package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portlayout/pkg/graph"
	"github.com/matzehuels/portlayout/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		opts    = pipeline.RenderOptions{Labels: true}
	)

	cmd := &cobra.Command{
		Use:   "render <layout>",
		Short: "Draw a layout as SVG, DOT, JSON or YAML",
		Long: `Draw a layout produced by 'layout'.

SVG is drawn natively by default; --engine graphviz renders the DOT export
with Graphviz instead, with every vertex and port pinned to its position.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from the input)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.FormatSVG, "output format: svg, dot, json, yaml")
	cmd.Flags().StringVar(&opts.Engine, "engine", pipeline.EngineNative, "SVG engine: native, graphviz")
	cmd.Flags().BoolVar(&opts.Labels, "labels", opts.Labels, "draw vertex and group labels")
	cmd.Flags().BoolVar(&opts.PortLabels, "port-labels", false, "draw port labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.RenderOptions, noCache bool) error {
	d, err := graph.ReadDrawingFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, cached, err := runner.Render(ctx, d, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", input, err)
	}

	if output == "" {
		output = renderPath(input, opts.Format)
	}
	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	loggerFromContext(ctx).Debug("rendered", "format", opts.Format, "engine", opts.Engine, "cached", cached)
	printSuccess("Rendered %s", opts.Format)
	printFile(output)
	return nil
}

// renderPath derives the output file: "board.layout.json" becomes
// "board.svg". JSON and YAML get a ".drawing" infix so they never replace
// a graph document of the same name.
func renderPath(input, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".layout")
	switch format {
	case pipeline.FormatJSON, pipeline.FormatYAML:
		return base + ".drawing." + format
	}
	return base + "." + format
}
