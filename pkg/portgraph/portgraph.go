package portgraph

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownVertex is returned when an operation references a vertex that
	// does not exist or has been removed.
	ErrUnknownVertex = errors.New("unknown vertex")

	// ErrUnknownPort is returned when an operation references a port that
	// does not exist or has been removed.
	ErrUnknownPort = errors.New("unknown port")

	// ErrUnknownPortGroup is returned when an operation references a port
	// group that does not exist or has been removed.
	ErrUnknownPortGroup = errors.New("unknown port group")

	// ErrUnknownEdge is returned when an operation references an edge that
	// does not exist or has been removed.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrUnknownVertexGroup is returned when an operation references a vertex
	// group that does not exist or has been removed.
	ErrUnknownVertexGroup = errors.New("unknown vertex group")

	// ErrUnknownBundle is returned when an operation references an edge bundle
	// that does not exist or has been removed.
	ErrUnknownBundle = errors.New("unknown edge bundle")

	// ErrForeignComposition is returned when a port or port group would be
	// moved into a group that belongs to a different vertex.
	ErrForeignComposition = errors.New("port composition belongs to another vertex")
)

// Identifiers are indices into the graph's arenas. They stay stable for the
// lifetime of the graph; removed entities leave a hole that is never reused,
// so a clone of a graph shares every identifier with its original.
type (
	VertexID      int
	PortID        int
	PortGroupID   int
	EdgeID        int
	VertexGroupID int
	BundleID      int
)

// Sentinels for absent references.
const (
	NoVertex      VertexID      = -1
	NoPortGroup   PortGroupID   = -1
	NoVertexGroup VertexGroupID = -1
	NoBundle      BundleID      = -1
)

// Orientation pins a port to one side of its vertex. Free ports are placed on
// whichever side their edge leaves through.
type Orientation int

const (
	OrientationFree Orientation = iota
	OrientationNorth
	OrientationSouth
)

// String returns the lowercase orientation name.
func (o Orientation) String() string {
	switch o {
	case OrientationNorth:
		return "north"
	case OrientationSouth:
		return "south"
	default:
		return "free"
	}
}

// ParseOrientation is the inverse of [Orientation.String]. Unknown names map
// to [OrientationFree].
func ParseOrientation(s string) Orientation {
	switch s {
	case "north", "top":
		return OrientationNorth
	case "south", "bottom":
		return OrientationSouth
	default:
		return OrientationFree
	}
}

// Vertex is a node of the compound graph. Its ports are organized as an
// ordered list of port compositions (single ports or nested port groups).
type Vertex struct {
	ID     VertexID
	Name   string   // external identifier, used by serialization
	Labels []string // the first label is the main label
	Items  []Composition
	Group  VertexGroupID // containing vertex group or NoVertexGroup
	Shape  *Rect
}

// MainLabel returns the first label or the empty string.
func (v *Vertex) MainLabel() string {
	if len(v.Labels) == 0 {
		return ""
	}
	return v.Labels[0]
}

// Port is an attachment point on a vertex. A port without a vertex is an
// orphan and only reachable through its edges.
type Port struct {
	ID          PortID
	Name        string
	Label       string
	Vertex      VertexID
	Group       PortGroupID // containing port group or NoPortGroup
	Edges       []EdgeID    // one entry per incidence, so a repeated port appears twice
	Orientation Orientation
	Shape       *Rect
}

// PortGroup clusters ports and sub-groups of one vertex. Ordered groups must
// keep the order of their items in the drawing.
type PortGroup struct {
	ID      PortGroupID
	Ordered bool
	Vertex  VertexID
	Parent  PortGroupID
	Items   []Composition
}

// Edge connects two or more ports. Before normalization an edge may touch more
// than two ports (a hyperedge) or the same port twice.
type Edge struct {
	ID    EdgeID
	Name  string
	Label string
	Ports []PortID
	Paths []Path
}

// Graph is an arena-backed compound graph with ports, port groups, vertex
// groups and edge bundles. All relations are stored as identifiers.
//
// The zero value is not usable - use [New]. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	vertices     []*Vertex
	ports        []*Port
	portGroups   []*PortGroup
	edges        []*Edge
	vertexGroups []*VertexGroup
	bundles      []*EdgeBundle
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// =============================================================================
// Lookup
// =============================================================================

// Vertex returns the vertex with the given ID, or nil if it does not exist.
func (g *Graph) Vertex(id VertexID) *Vertex {
	if id < 0 || int(id) >= len(g.vertices) {
		return nil
	}
	return g.vertices[id]
}

// Port returns the port with the given ID, or nil if it does not exist.
func (g *Graph) Port(id PortID) *Port {
	if id < 0 || int(id) >= len(g.ports) {
		return nil
	}
	return g.ports[id]
}

// PortGroup returns the port group with the given ID, or nil.
func (g *Graph) PortGroup(id PortGroupID) *PortGroup {
	if id < 0 || int(id) >= len(g.portGroups) {
		return nil
	}
	return g.portGroups[id]
}

// Edge returns the edge with the given ID, or nil.
func (g *Graph) Edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

// VertexGroup returns the vertex group with the given ID, or nil.
func (g *Graph) VertexGroup(id VertexGroupID) *VertexGroup {
	if id < 0 || int(id) >= len(g.vertexGroups) {
		return nil
	}
	return g.vertexGroups[id]
}

// Bundle returns the edge bundle with the given ID, or nil.
func (g *Graph) Bundle(id BundleID) *EdgeBundle {
	if id < 0 || int(id) >= len(g.bundles) {
		return nil
	}
	return g.bundles[id]
}

// Vertices returns the IDs of all live vertices in ascending order.
func (g *Graph) Vertices() []VertexID { return live[VertexID](g.vertices) }

// Ports returns the IDs of all live ports in ascending order, including orphans.
func (g *Graph) Ports() []PortID { return live[PortID](g.ports) }

// PortGroups returns the IDs of all live port groups in ascending order.
func (g *Graph) PortGroups() []PortGroupID { return live[PortGroupID](g.portGroups) }

// Edges returns the IDs of all live edges in ascending order.
func (g *Graph) Edges() []EdgeID { return live[EdgeID](g.edges) }

// VertexGroups returns the IDs of all live vertex groups, nested ones included.
func (g *Graph) VertexGroups() []VertexGroupID { return live[VertexGroupID](g.vertexGroups) }

// TopLevelVertexGroups returns the live vertex groups without a parent group.
func (g *Graph) TopLevelVertexGroups() []VertexGroupID {
	var out []VertexGroupID
	for _, id := range g.VertexGroups() {
		if g.vertexGroups[id].Parent == NoVertexGroup {
			out = append(out, id)
		}
	}
	return out
}

// Bundles returns the IDs of all live edge bundles, nested ones included.
func (g *Graph) Bundles() []BundleID { return live[BundleID](g.bundles) }

// TopLevelBundles returns the live edge bundles without a parent bundle.
func (g *Graph) TopLevelBundles() []BundleID {
	var out []BundleID
	for _, id := range g.Bundles() {
		if g.bundles[id].Parent == NoBundle {
			out = append(out, id)
		}
	}
	return out
}

// VertexCount returns the number of live vertices.
func (g *Graph) VertexCount() int { return len(g.Vertices()) }

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return len(g.Edges()) }

// PortCount returns the number of live ports.
func (g *Graph) PortCount() int { return len(g.Ports()) }

func live[ID ~int, T any](arena []*T) []ID {
	out := make([]ID, 0, len(arena))
	for i, e := range arena {
		if e != nil {
			out = append(out, ID(i))
		}
	}
	return out
}

// =============================================================================
// Vertices and ports
// =============================================================================

// AddVertex adds a vertex with the given labels and returns its ID.
func (g *Graph) AddVertex(labels ...string) VertexID {
	id := VertexID(len(g.vertices))
	g.vertices = append(g.vertices, &Vertex{
		ID:     id,
		Labels: slices.Clone(labels),
		Group:  NoVertexGroup,
	})
	return id
}

// AddPort adds a port as the last top-level composition of v. Passing
// [NoVertex] creates an orphan port that belongs to no vertex.
func (g *Graph) AddPort(v VertexID, label string) (PortID, error) {
	if v != NoVertex && g.Vertex(v) == nil {
		return 0, ErrUnknownVertex
	}
	id := g.newPort(v, NoPortGroup, label)
	if v != NoVertex {
		vx := g.vertices[v]
		vx.Items = append(vx.Items, PortItem(id))
	}
	return id, nil
}

// AddPortToGroup adds a port as the last item of the port group pg.
func (g *Graph) AddPortToGroup(pg PortGroupID, label string) (PortID, error) {
	grp := g.PortGroup(pg)
	if grp == nil {
		return 0, ErrUnknownPortGroup
	}
	id := g.newPort(grp.Vertex, pg, label)
	grp.Items = append(grp.Items, PortItem(id))
	return id, nil
}

func (g *Graph) newPort(v VertexID, pg PortGroupID, label string) PortID {
	id := PortID(len(g.ports))
	g.ports = append(g.ports, &Port{
		ID:     id,
		Label:  label,
		Vertex: v,
		Group:  pg,
	})
	return id
}

// AttachPort makes an orphan port the last top-level composition of v.
func (g *Graph) AttachPort(p PortID, v VertexID) error {
	port := g.Port(p)
	if port == nil {
		return ErrUnknownPort
	}
	vx := g.Vertex(v)
	if vx == nil {
		return ErrUnknownVertex
	}
	if port.Vertex != NoVertex {
		return ErrForeignComposition
	}
	port.Vertex = v
	port.Group = NoPortGroup
	vx.Items = append(vx.Items, PortItem(p))
	return nil
}

// RemovePort removes a port from its container and from every edge that
// references it. Edges are kept even if they lose all their ports.
func (g *Graph) RemovePort(p PortID) {
	port := g.Port(p)
	if port == nil {
		return
	}
	g.detach(PortItem(p))
	for _, e := range slices.Compact(slices.Sorted(slices.Values(port.Edges))) {
		if edge := g.Edge(e); edge != nil {
			edge.Ports = slices.DeleteFunc(edge.Ports, func(q PortID) bool { return q == p })
		}
	}
	g.ports[p] = nil
}

// RemoveVertex removes a vertex together with its ports and port groups.
// Edges touching the removed ports lose those ports but stay in the graph.
func (g *Graph) RemoveVertex(v VertexID) {
	vx := g.Vertex(v)
	if vx == nil {
		return
	}
	for _, p := range g.PortsOf(v) {
		g.RemovePort(p)
	}
	for _, pg := range g.PortGroups() {
		if g.portGroups[pg].Vertex == v {
			g.portGroups[pg] = nil
		}
	}
	if vg := g.VertexGroup(vx.Group); vg != nil {
		vg.Vertices = slices.DeleteFunc(vg.Vertices, func(w VertexID) bool { return w == v })
	}
	g.vertices[v] = nil
}

// PortsOf returns the ports of v flattened in composition order.
func (g *Graph) PortsOf(v VertexID) []PortID {
	vx := g.Vertex(v)
	if vx == nil {
		return nil
	}
	return g.Flatten(vx.Items)
}

// =============================================================================
// Clone
// =============================================================================

// Clone returns a deep copy of g. Every identifier of g is valid in the clone
// and refers to the copy of the same entity.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		vertices:     make([]*Vertex, len(g.vertices)),
		ports:        make([]*Port, len(g.ports)),
		portGroups:   make([]*PortGroup, len(g.portGroups)),
		edges:        make([]*Edge, len(g.edges)),
		vertexGroups: make([]*VertexGroup, len(g.vertexGroups)),
		bundles:      make([]*EdgeBundle, len(g.bundles)),
	}
	for i, v := range g.vertices {
		if v != nil {
			cp := *v
			cp.Labels = slices.Clone(v.Labels)
			cp.Items = slices.Clone(v.Items)
			cp.Shape = v.Shape.clone()
			c.vertices[i] = &cp
		}
	}
	for i, p := range g.ports {
		if p != nil {
			cp := *p
			cp.Edges = slices.Clone(p.Edges)
			cp.Shape = p.Shape.clone()
			c.ports[i] = &cp
		}
	}
	for i, pg := range g.portGroups {
		if pg != nil {
			cp := *pg
			cp.Items = slices.Clone(pg.Items)
			c.portGroups[i] = &cp
		}
	}
	for i, e := range g.edges {
		if e != nil {
			cp := *e
			cp.Ports = slices.Clone(e.Ports)
			cp.Paths = make([]Path, len(e.Paths))
			for j, path := range e.Paths {
				cp.Paths[j] = slices.Clone(path)
			}
			c.edges[i] = &cp
		}
	}
	for i, vg := range g.vertexGroups {
		if vg != nil {
			cp := *vg
			cp.Vertices = slices.Clone(vg.Vertices)
			cp.Groups = slices.Clone(vg.Groups)
			cp.TouchingPairs = slices.Clone(vg.TouchingPairs)
			cp.PortPairings = slices.Clone(vg.PortPairings)
			cp.Shape = vg.Shape.clone()
			c.vertexGroups[i] = &cp
		}
	}
	for i, b := range g.bundles {
		if b != nil {
			cp := *b
			cp.Edges = slices.Clone(b.Edges)
			cp.Bundles = slices.Clone(b.Bundles)
			c.bundles[i] = &cp
		}
	}
	return c
}

// CopyFrom replaces the contents of g with a deep copy of o.
func (g *Graph) CopyFrom(o *Graph) {
	*g = *o.Clone()
}
