package graph

import (
	"path/filepath"
	"strings"
)

// =============================================================================
// Formats
// =============================================================================

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Unknown extensions map
// to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Graph - Port Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for compound graphs with
// ports.
type Graph struct {
	Vertices    []Vertex      `json:"vertices" yaml:"vertices"`
	Edges       []Edge        `json:"edges,omitempty" yaml:"edges,omitempty"`
	OrphanPorts []Port        `json:"orphan_ports,omitempty" yaml:"orphan_ports,omitempty"`
	Groups      []VertexGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Bundles     []Bundle      `json:"bundles,omitempty" yaml:"bundles,omitempty"`
}

// Vertex is a node with its port composition.
type Vertex struct {
	ID     string   `json:"id" yaml:"id"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Ports  []Port   `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// Port is either a single port or, with Group set, a port group holding
// Items. ID, Label and Orientation only apply to single ports; Ordered and
// Items only to groups.
type Port struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty"` // "north", "south" or empty

	Group   bool   `json:"group,omitempty" yaml:"group,omitempty"`
	Ordered bool   `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Items   []Port `json:"items,omitempty" yaml:"items,omitempty"`
}

// Edge connects two or more ports by ID. A port may be listed twice.
type Edge struct {
	ID    string   `json:"id,omitempty" yaml:"id,omitempty"`
	Label string   `json:"label,omitempty" yaml:"label,omitempty"`
	Ports []string `json:"ports" yaml:"ports"`
}

// VertexGroup is a set of vertices drawn as one unit. Groups lists the IDs of
// nested groups.
type VertexGroup struct {
	ID       string      `json:"id" yaml:"id"`
	Label    string      `json:"label,omitempty" yaml:"label,omitempty"`
	Vertices []string    `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	Groups   []string    `json:"groups,omitempty" yaml:"groups,omitempty"`
	Touching [][2]string `json:"touching,omitempty" yaml:"touching,omitempty"` // vertex ID pairs
	Pairings [][2]string `json:"pairings,omitempty" yaml:"pairings,omitempty"` // port ID pairs
}

// Bundle is a tree of edges that should be routed close together. Bundles
// lists the IDs of nested bundles.
type Bundle struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Edges   []string `json:"edges,omitempty" yaml:"edges,omitempty"`
	Bundles []string `json:"bundles,omitempty" yaml:"bundles,omitempty"`
}

// =============================================================================
// Drawing - Layout Result
// =============================================================================

// Rect is an axis-aligned rectangle with its origin in the top-left corner.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Point is a bend point of an edge path.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Drawing is the serialization format of a finished layout.
type Drawing struct {
	RunID     string  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
	Crossings int     `json:"crossings" yaml:"crossings"`

	// Ranks lists the vertex IDs of every rank from left to right. Members
	// of a vertex group appear in place of the group.
	Ranks [][]string `json:"ranks,omitempty" yaml:"ranks,omitempty"`

	Vertices []VertexShape `json:"vertices" yaml:"vertices"`
	Ports    []PortShape   `json:"ports,omitempty" yaml:"ports,omitempty"`
	Edges    []EdgeShape   `json:"edges,omitempty" yaml:"edges,omitempty"`
	Groups   []GroupShape  `json:"groups,omitempty" yaml:"groups,omitempty"`

	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// VertexShape is the drawn rectangle of a vertex.
type VertexShape struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Rect  Rect   `json:"rect" yaml:"rect"`
}

// PortShape is the drawn rectangle of a port.
type PortShape struct {
	ID     string `json:"id" yaml:"id"`
	Vertex string `json:"vertex,omitempty" yaml:"vertex,omitempty"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	Rect   Rect   `json:"rect" yaml:"rect"`
}

// EdgeShape holds the polylines of an edge. Hyperedges have one polyline
// per branch.
type EdgeShape struct {
	ID    string    `json:"id" yaml:"id"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Ports []string  `json:"ports,omitempty" yaml:"ports,omitempty"`
	Paths [][]Point `json:"paths" yaml:"paths"`
}

// GroupShape is the drawn rectangle of a vertex group.
type GroupShape struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Rect  Rect   `json:"rect" yaml:"rect"`
}
