package layered

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// DirectionMethod selects how undirected edges get their orientation.
type DirectionMethod string

const (
	DirectionForce  DirectionMethod = "force"
	DirectionBFS    DirectionMethod = "bfs"
	DirectionRandom DirectionMethod = "random"
)

// ParseDirectionMethod parses a method name case-insensitively.
func ParseDirectionMethod(s string) (DirectionMethod, bool) {
	switch m := DirectionMethod(strings.ToLower(s)); m {
	case DirectionForce, DirectionBFS, DirectionRandom:
		return m, true
	}
	return "", false
}

// CrossingMethod selects which positions the barycenter heuristic averages.
type CrossingMethod string

const (
	// CrossingVertices orders by neighbor vertex positions.
	CrossingVertices CrossingMethod = "vertices"
	// CrossingMixed runs vertex-level sweeps first and port-level sweeps after.
	CrossingMixed CrossingMethod = "mixed"
	// CrossingPorts orders by neighbor port positions.
	CrossingPorts CrossingMethod = "ports"
)

// ParseCrossingMethod parses a method name case-insensitively.
func ParseCrossingMethod(s string) (CrossingMethod, bool) {
	switch m := CrossingMethod(strings.ToLower(s)); m {
	case CrossingVertices, CrossingMixed, CrossingPorts:
		return m, true
	}
	return "", false
}

// DrawingInfo holds the metrics of a drawing. All values are in drawing
// units.
type DrawingInfo struct {
	BorderWidth            float64 `json:"border_width" toml:"border_width"`
	VertexHeight           float64 `json:"vertex_height" toml:"vertex_height"`
	VertexMinWidth         float64 `json:"vertex_min_width" toml:"vertex_min_width"`
	PortWidth              float64 `json:"port_width" toml:"port_width"`
	PortHeight             float64 `json:"port_height" toml:"port_height"`
	PortSpacing            float64 `json:"port_spacing" toml:"port_spacing"`
	EdgeDistanceHorizontal float64 `json:"edge_distance_horizontal" toml:"edge_distance_horizontal"`
	EdgeDistanceVertical   float64 `json:"edge_distance_vertical" toml:"edge_distance_vertical"`
	DistanceBetweenLayers  float64 `json:"distance_between_layers" toml:"distance_between_layers"`
	VertexLabelOffsetH     float64 `json:"vertex_label_offset_h" toml:"vertex_label_offset_h"`
	VertexLabelOffsetV     float64 `json:"vertex_label_offset_v" toml:"vertex_label_offset_v"`
	PortLabelOffsetH       float64 `json:"port_label_offset_h" toml:"port_label_offset_h"`
	PortLabelOffsetV       float64 `json:"port_label_offset_v" toml:"port_label_offset_v"`
	VertexWidthMaxStretch  float64 `json:"vertex_width_max_stretch" toml:"vertex_width_max_stretch"`
	FontSize               float64 `json:"font_size" toml:"font_size"`
}

// DefaultDrawingInfo returns the standard metrics.
func DefaultDrawingInfo() DrawingInfo {
	return DrawingInfo{
		BorderWidth:            2,
		VertexHeight:           30,
		VertexMinWidth:         12,
		PortWidth:              8,
		PortHeight:             4,
		PortSpacing:            4,
		EdgeDistanceHorizontal: 10,
		EdgeDistanceVertical:   10,
		DistanceBetweenLayers:  20,
		VertexLabelOffsetH:     2,
		VertexLabelOffsetV:     -12,
		PortLabelOffsetH:       -2,
		PortLabelOffsetV:       1,
		VertexWidthMaxStretch:  3,
		FontSize:               10,
	}
}

// delta is the minimum gap between two neighboring ports.
func (d DrawingInfo) delta() float64 {
	return max(d.EdgeDistanceHorizontal-d.PortWidth, d.PortSpacing)
}

// maxSpacing is the widest gap allowed between two ports of one vertex.
func (d DrawingInfo) maxSpacing() float64 {
	return max(d.delta(), d.PortSpacing*d.VertexWidthMaxStretch)
}

// TextMeasurer reports the rendered width of a label. The fonts package
// provides an implementation backed by real font metrics.
type TextMeasurer interface {
	Width(text string, size float64) float64
}

// approxMeasurer estimates widths from the rune count.
type approxMeasurer struct{}

func (approxMeasurer) Width(text string, size float64) float64 {
	return float64(len([]rune(text))) * size * 0.6
}

// Config controls a [Layouter]. The zero value is not meaningful; start from
// [DefaultConfig].
type Config struct {
	Direction           DirectionMethod
	DirectionIterations int

	Crossing           CrossingMethod
	CrossingIterations int

	// MovePortsToTurningOutside pushes ports that connect to a turning dummy
	// of their own vertex to the outer end of their side.
	MovePortsToTurningOutside bool

	// TurningDummiesNextToVertex orders turning dummies only by the ports of
	// the vertex they belong to, which keeps them beside it.
	TurningDummiesNextToVertex bool

	// MaxSimplexIterations bounds the network simplex exchanges; 0 means
	// unbounded.
	MaxSimplexIterations int

	Seed    uint64
	Drawing DrawingInfo

	// SkipRestore leaves the normalized structure in the caller's graph
	// instead of transplanting the geometry back onto the original elements.
	SkipRestore bool

	Measurer TextMeasurer
	Logger   *log.Logger
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Direction:                  DirectionForce,
		DirectionIterations:        10,
		Crossing:                   CrossingPorts,
		CrossingIterations:         5,
		MovePortsToTurningOutside:  true,
		TurningDummiesNextToVertex: true,
		Seed:                       42,
		Drawing:                    DefaultDrawingInfo(),
	}
}

func (c *Config) setDefaults() {
	if c.Direction == "" {
		c.Direction = DirectionForce
	}
	if c.DirectionIterations <= 0 {
		c.DirectionIterations = 1
	}
	if c.Crossing == "" {
		c.Crossing = CrossingPorts
	}
	if c.CrossingIterations <= 0 {
		c.CrossingIterations = 1
	}
	if c.Drawing == (DrawingInfo{}) {
		c.Drawing = DefaultDrawingInfo()
	}
	if c.Measurer == nil {
		c.Measurer = approxMeasurer{}
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
