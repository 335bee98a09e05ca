package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/graph"
	"github.com/matzehuels/portlayout/pkg/pipeline"
)

// layoutFlags holds the layout flags. They override the --config file
// only when set on the command line.
type layoutFlags struct {
	direction           string
	directionIterations int
	crossing            string
	crossingIterations  int
	simplexIterations   int
	seed                uint64
	keepPortsInside     bool
	freeTurningDummies  bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.direction, "direction", pipeline.DefaultDirection, "edge direction method: force, bfs, random")
	fl.IntVar(&f.directionIterations, "direction-iterations", pipeline.DefaultDirectionIterations, "direction runs, the best is kept")
	fl.StringVar(&f.crossing, "crossing", pipeline.DefaultCrossing, "crossing minimization: ports, mixed, vertices")
	fl.IntVar(&f.crossingIterations, "crossing-iterations", pipeline.DefaultCrossingIterations, "crossing minimization runs, the best is kept")
	fl.IntVar(&f.simplexIterations, "max-simplex-iterations", 0, "bound network simplex pivots (0: unbounded)")
	fl.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed")
	fl.BoolVar(&f.keepPortsInside, "keep-turning-ports", false, "do not move ports next to turning dummies to the outside")
	fl.BoolVar(&f.freeTurningDummies, "free-turning-dummies", false, "do not keep turning dummies next to their vertex")
}

func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fl := cmd.Flags()
	if fl.Changed("direction") {
		opts.Direction = f.direction
	}
	if fl.Changed("direction-iterations") {
		opts.DirectionIterations = f.directionIterations
	}
	if fl.Changed("crossing") {
		opts.Crossing = f.crossing
	}
	if fl.Changed("crossing-iterations") {
		opts.CrossingIterations = f.crossingIterations
	}
	if fl.Changed("max-simplex-iterations") {
		opts.MaxSimplexIterations = f.simplexIterations
	}
	if fl.Changed("seed") {
		opts.Seed = f.seed
	}
	if fl.Changed("keep-turning-ports") {
		v := !f.keepPortsInside
		opts.MovePortsToTurningOutside = &v
	}
	if fl.Changed("free-turning-dummies") {
		v := !f.freeTurningDummies
		opts.TurningDummiesNextToVertex = &v
	}
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <graph>...",
		Short: "Compute layered drawings of graph documents",
		Long: `Compute layered drawings of graph documents.

Each argument is a graph document (JSON, or YAML with a .yaml/.yml
extension) or a glob pattern such as 'graphs/**/*.json'. Every graph is
written to <name>.layout.json next to its input, or to --output when a
single graph is given. The drawing lists the rectangle of every vertex and
port, the polylines of every edge and the vertex order of every rank.

Options come from --config (TOML) and are overridden by flags.
Results are cached locally for faster subsequent runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			if output != "" && len(inputs) > 1 {
				return errors.New(errors.ErrCodeInvalidInput, "--output needs a single input, got %d", len(inputs))
			}
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			flags.apply(cmd, &opts)
			opts.Refresh = refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), inputs, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute cached layouts")
	flags.register(cmd)

	return cmd
}

// runLayout lays out every input and writes its drawing.
func (c *CLI) runLayout(ctx context.Context, inputs []string, opts pipeline.Options, output string, noCache bool) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, err := graph.ReadFile(input)
		if err != nil {
			return fmt.Errorf("load graph %s: %w", input, err)
		}

		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %s...", input))
		spinner.Start()
		res, err := runner.Layout(ctx, g, opts)
		if err != nil {
			spinner.StopWithError("Layout failed")
			return fmt.Errorf("layout %s: %w", input, err)
		}

		outputPath := output
		if outputPath == "" {
			outputPath = layoutPath(input)
		}
		if err := graph.WriteDrawingFile(res.Layout, outputPath); err != nil {
			spinner.StopWithError("Write failed")
			return fmt.Errorf("write output %s: %w", outputPath, err)
		}
		spinner.StopWithSuccess("Laid out " + input)

		for _, msg := range res.Layout.Diagnostics {
			printWarning("%s", msg)
		}
		if res.CacheHit {
			printInfo("Reused cached layout of run %s", res.Layout.RunID)
		}
		printFile(outputPath)
		printStats(res.Stats, res.CacheHit)
	}
	if len(inputs) > 1 {
		prog.done(fmt.Sprintf("Laid out %d graphs", len(inputs)))
	}

	printNewline()
	if len(inputs) == 1 {
		out := output
		if out == "" {
			out = layoutPath(inputs[0])
		}
		printNextStep("Render", appName+" render "+out)
	}
	return nil
}

// layoutPath maps "dir/board.yaml" to "dir/board.layout.json".
func layoutPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
}

// expandInputs resolves glob patterns. A glob without matches is an error;
// a plain path is kept as is so reading it reports a missing file.
func expandInputs(patterns []string) ([]string, error) {
	var inputs []string
	for _, p := range patterns {
		if !doublestar.ValidatePathPattern(p) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid pattern %q", p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "expand %q", p)
		}
		glob := strings.ContainsAny(p, "*?[{")
		if len(matches) == 0 {
			if glob {
				return nil, errors.New(errors.ErrCodeFileNotFound, "no files match %q", p)
			}
			matches = []string{p}
		}
		for _, m := range matches {
			// Globs skip earlier results.
			if glob && strings.HasSuffix(m, ".layout.json") {
				continue
			}
			inputs = append(inputs, m)
		}
	}
	slices.Sort(inputs)
	return slices.Compact(inputs), nil
}
