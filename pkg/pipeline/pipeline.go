// Package pipeline runs the layered port-graph layout with caching, hooks and
// rendering, so the CLI and the HTTP API behave the same.
//
// # Architecture
//
// A run has two phases:
//
//  1. Layout: the seven stages of [layered.Layouter], from normalization to
//     edge routing, producing a [graph.Drawing]
//  2. Render: the drawing as SVG (native or Graphviz), DOT, JSON or YAML
//
// Layouts are cached under the content hash of the graph document and the
// layout options; rendered artifacts under the hash of the drawing and the
// render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Layout(ctx, g, pipeline.Options{Direction: "bfs"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg, _, err := runner.Render(ctx, res.Layout, pipeline.RenderOptions{Format: "svg"})
//
// [layered.Layouter]: github.com/matzehuels/portlayout/pkg/layered.Layouter
// [graph.Drawing]: github.com/matzehuels/portlayout/pkg/graph.Drawing
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/portlayout/pkg/cache"
	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/fonts"
	"github.com/matzehuels/portlayout/pkg/graph"
	"github.com/matzehuels/portlayout/pkg/layered"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	DefaultDirection           = string(layered.DirectionForce)
	DefaultDirectionIterations = 10
	DefaultCrossing            = string(layered.CrossingPorts)
	DefaultCrossingIterations  = 5
	DefaultSeed                = uint64(42)

	// DefaultMaxIterations bounds the stage iteration counts accepted from
	// callers, which keeps API requests from pinning a CPU.
	DefaultMaxIterations = 1000

	// DefaultTTL is how long cached layouts and artifacts live.
	DefaultTTL = 7 * 24 * time.Hour
)

// Render formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render engines for SVG output.
const (
	EngineNative   = "native"
	EngineGraphviz = "graphviz"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
	FormatYAML: true,
}

// ValidEngines is the set of supported SVG engines.
var ValidEngines = map[string]bool{
	EngineNative:   true,
	EngineGraphviz: true,
}

// =============================================================================
// Options - Layout Configuration
// =============================================================================

// Options configures a layout run. It is decoded from API requests (JSON)
// and config files (TOML).
type Options struct {
	Direction           string `json:"direction,omitempty" toml:"direction"`
	DirectionIterations int    `json:"direction_iterations,omitempty" toml:"direction_iterations"`
	Crossing            string `json:"crossing,omitempty" toml:"crossing"`
	CrossingIterations  int    `json:"crossing_iterations,omitempty" toml:"crossing_iterations"`

	// Turning-dummy handling; both default to true.
	MovePortsToTurningOutside  *bool `json:"move_ports_to_turning_outside,omitempty" toml:"move_ports_to_turning_outside"`
	TurningDummiesNextToVertex *bool `json:"turning_dummies_next_to_vertex,omitempty" toml:"turning_dummies_next_to_vertex"`

	MaxSimplexIterations int    `json:"max_simplex_iterations,omitempty" toml:"max_simplex_iterations"`
	Seed                 uint64 `json:"seed,omitempty" toml:"seed"`
	SkipRestore          bool   `json:"skip_restore,omitempty" toml:"skip_restore"`

	Drawing layered.DrawingInfo `json:"drawing" toml:"drawing"`

	// Refresh skips the cache lookup. The result is still stored.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	// Runtime options (not serialized)
	Logger   *log.Logger          `json:"-" toml:"-"`
	Measurer layered.TextMeasurer `json:"-" toml:"-"`

	validated bool
}

// Result is the outcome of a layout run.
type Result struct {
	// RunID identifies this call. Layout.RunID names the run that computed
	// the drawing, which differs on a cache hit.
	RunID string

	// Graph is the input graph with shapes and paths filled in.
	Graph *portgraph.Graph

	Layout   graph.Drawing
	Stats    Stats
	CacheHit bool
}

// Stats describes a layout run.
type Stats struct {
	Vertices   int
	Edges      int
	Ports      int
	Ranks      int
	Crossings  int
	Dummies    int
	Stages     []StageTime
	LayoutTime time.Duration
}

// StageTime is the wall time of one layout stage.
type StageTime struct {
	Stage    string
	Duration time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults. Invalid
// options are INVALID_CONFIG errors. The method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	m, ok := layered.ParseDirectionMethod(o.Direction)
	if !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid direction: %q (must be one of: force, bfs, random)", o.Direction)
	}
	o.Direction = string(m)

	if o.Crossing == "" {
		o.Crossing = DefaultCrossing
	}
	c, ok := layered.ParseCrossingMethod(o.Crossing)
	if !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid crossing: %q (must be one of: vertices, mixed, ports)", o.Crossing)
	}
	o.Crossing = string(c)

	if o.DirectionIterations == 0 {
		o.DirectionIterations = DefaultDirectionIterations
	}
	if o.CrossingIterations == 0 {
		o.CrossingIterations = DefaultCrossingIterations
	}
	if err := checkRange("direction_iterations", o.DirectionIterations, DefaultMaxIterations); err != nil {
		return err
	}
	if err := checkRange("crossing_iterations", o.CrossingIterations, DefaultMaxIterations); err != nil {
		return err
	}
	if o.MaxSimplexIterations < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_simplex_iterations must not be negative")
	}

	if o.MovePortsToTurningOutside == nil {
		o.MovePortsToTurningOutside = ptr(true)
	}
	if o.TurningDummiesNextToVertex == nil {
		o.TurningDummiesNextToVertex = ptr(true)
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Drawing == (layered.DrawingInfo{}) {
		o.Drawing = layered.DefaultDrawingInfo()
	}
	if err := validateDrawing(o.Drawing); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Measurer == nil {
		m, err := fonts.NewMeasurer()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "load font metrics")
		}
		o.Measurer = m
	}

	o.validated = true
	return nil
}

func checkRange(name string, n, limit int) error {
	if n < 1 || n > limit {
		return errors.New(errors.ErrCodeInvalidConfig, "%s out of range: %d (must be 1..%d)", name, n, limit)
	}
	return nil
}

func validateDrawing(d layered.DrawingInfo) error {
	positive := map[string]float64{
		"vertex_height":            d.VertexHeight,
		"port_width":               d.PortWidth,
		"port_height":              d.PortHeight,
		"font_size":                d.FontSize,
		"vertex_width_max_stretch": d.VertexWidthMaxStretch,
	}
	for name, v := range positive {
		if v <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "drawing.%s must be positive, got %g", name, v)
		}
	}
	nonNegative := map[string]float64{
		"border_width":             d.BorderWidth,
		"vertex_min_width":         d.VertexMinWidth,
		"port_spacing":             d.PortSpacing,
		"edge_distance_horizontal": d.EdgeDistanceHorizontal,
		"edge_distance_vertical":   d.EdgeDistanceVertical,
		"distance_between_layers":  d.DistanceBetweenLayers,
	}
	for name, v := range nonNegative {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "drawing.%s must not be negative, got %g", name, v)
		}
	}
	return nil
}

// Config returns the layouter configuration. Call ValidateAndSetDefaults
// first.
func (o *Options) Config() layered.Config {
	return layered.Config{
		Direction:                  layered.DirectionMethod(o.Direction),
		DirectionIterations:        o.DirectionIterations,
		Crossing:                   layered.CrossingMethod(o.Crossing),
		CrossingIterations:         o.CrossingIterations,
		MovePortsToTurningOutside:  o.MovePortsToTurningOutside == nil || *o.MovePortsToTurningOutside,
		TurningDummiesNextToVertex: o.TurningDummiesNextToVertex == nil || *o.TurningDummiesNextToVertex,
		MaxSimplexIterations:       o.MaxSimplexIterations,
		Seed:                       o.Seed,
		Drawing:                    o.Drawing,
		SkipRestore:                o.SkipRestore,
		Measurer:                   o.Measurer,
		Logger:                     o.Logger,
	}
}

// Hash identifies the options that change a layout.
func (o *Options) Hash() (string, error) {
	keyed := *o
	keyed.Refresh = false
	return cache.HashJSON(keyed)
}

func ptr[T any](v T) *T { return &v }
