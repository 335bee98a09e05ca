package graph

import (
	"fmt"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// =============================================================================
// Document → portgraph.Graph
// =============================================================================

// ToPortGraph builds a graph from a document. IDs must be unique per element
// kind and every reference must resolve; violations are INVALID_GRAPH errors.
// IDs become the Name of the created elements.
func ToPortGraph(doc Graph) (*portgraph.Graph, error) {
	b := &builder{
		g:        portgraph.New(),
		vertices: map[string]portgraph.VertexID{},
		ports:    map[string]portgraph.PortID{},
		edges:    map[string]portgraph.EdgeID{},
		groups:   map[string]portgraph.VertexGroupID{},
		bundles:  map[string]portgraph.BundleID{},
	}
	for _, v := range doc.Vertices {
		if err := b.addVertex(v); err != nil {
			return nil, err
		}
	}
	for _, p := range doc.OrphanPorts {
		if p.Group {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "orphan port groups are not supported")
		}
		if err := b.addPort(portgraph.NoVertex, portgraph.NoPortGroup, p); err != nil {
			return nil, err
		}
	}
	for i, e := range doc.Edges {
		if err := b.addEdge(i, e); err != nil {
			return nil, err
		}
	}
	if err := b.addGroups(doc.Groups); err != nil {
		return nil, err
	}
	if err := b.addBundles(doc.Bundles); err != nil {
		return nil, err
	}
	return b.g, nil
}

type builder struct {
	g        *portgraph.Graph
	vertices map[string]portgraph.VertexID
	ports    map[string]portgraph.PortID
	edges    map[string]portgraph.EdgeID
	groups   map[string]portgraph.VertexGroupID
	bundles  map[string]portgraph.BundleID
}

func (b *builder) addVertex(v Vertex) error {
	if err := errors.ValidateName("vertex", v.ID); err != nil {
		return err
	}
	if _, dup := b.vertices[v.ID]; dup {
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate vertex %q", v.ID)
	}
	id := b.g.AddVertex(v.Labels...)
	b.g.Vertex(id).Name = v.ID
	b.vertices[v.ID] = id
	return b.addItems(id, portgraph.NoPortGroup, v.Ports)
}

func (b *builder) addItems(v portgraph.VertexID, parent portgraph.PortGroupID, items []Port) error {
	for _, it := range items {
		if !it.Group {
			if err := b.addPort(v, parent, it); err != nil {
				return err
			}
			continue
		}
		pg, err := b.g.AddPortGroup(v, parent, it.Ordered)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "port group of vertex %q", b.g.Vertex(v).Name)
		}
		if err := b.addItems(v, pg, it.Items); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addPort(v portgraph.VertexID, parent portgraph.PortGroupID, p Port) error {
	if err := errors.ValidateName("port", p.ID); err != nil {
		return err
	}
	if _, dup := b.ports[p.ID]; dup {
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate port %q", p.ID)
	}
	orientation, err := parseOrientation(p.Orientation)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "port %q", p.ID)
	}

	var id portgraph.PortID
	if parent == portgraph.NoPortGroup {
		id, err = b.g.AddPort(v, p.Label)
	} else {
		id, err = b.g.AddPortToGroup(parent, p.Label)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "port %q", p.ID)
	}
	port := b.g.Port(id)
	port.Name = p.ID
	port.Orientation = orientation
	b.ports[p.ID] = id
	return nil
}

func parseOrientation(s string) (portgraph.Orientation, error) {
	switch s {
	case "", "free", "north", "south", "top", "bottom":
		return portgraph.ParseOrientation(s), nil
	}
	return portgraph.OrientationFree, fmt.Errorf("unknown orientation %q", s)
}

func (b *builder) addEdge(i int, e Edge) error {
	name := e.ID
	if name == "" {
		name = fmt.Sprintf("#%d", i)
	} else if _, dup := b.edges[name]; dup {
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge %q", name)
	}
	if len(e.Ports) == 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "edge %q has no ports", name)
	}
	ports := make([]portgraph.PortID, len(e.Ports))
	for j, ref := range e.Ports {
		p, ok := b.ports[ref]
		if !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown port %q", name, ref)
		}
		ports[j] = p
	}
	id, err := b.g.AddEdge(ports...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %q", name)
	}
	edge := b.g.Edge(id)
	edge.Name = e.ID
	edge.Label = e.Label
	if e.ID != "" {
		b.edges[e.ID] = id
	}
	return nil
}

func (b *builder) addGroups(groups []VertexGroup) error {
	grouped := map[string]string{}
	for _, grp := range groups {
		if err := errors.ValidateName("group", grp.ID); err != nil {
			return err
		}
		if _, dup := b.groups[grp.ID]; dup {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate group %q", grp.ID)
		}
		var members []portgraph.VertexID
		for _, ref := range grp.Vertices {
			v, ok := b.vertices[ref]
			if !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "group %q references unknown vertex %q", grp.ID, ref)
			}
			if other, taken := grouped[ref]; taken {
				return errors.New(errors.ErrCodeInvalidGraph, "vertex %q is in groups %q and %q", ref, other, grp.ID)
			}
			grouped[ref] = grp.ID
			members = append(members, v)
		}
		id, err := b.g.AddVertexGroup(grp.Label, members...)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "group %q", grp.ID)
		}
		b.g.VertexGroup(id).Name = grp.ID
		b.groups[grp.ID] = id
	}

	nested := map[string]bool{}
	for _, grp := range groups {
		parent := b.groups[grp.ID]
		for _, ref := range grp.Groups {
			child, ok := b.groups[ref]
			if !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "group %q references unknown group %q", grp.ID, ref)
			}
			if nested[ref] {
				return errors.New(errors.ErrCodeInvalidGraph, "group %q is nested more than once", ref)
			}
			nested[ref] = true
			if err := b.g.NestVertexGroup(parent, child); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "nest group %q in %q", ref, grp.ID)
			}
		}
	}
	for name, id := range b.groups {
		cur := id
		for range len(groups) {
			if cur = b.g.VertexGroup(cur).Parent; cur == portgraph.NoVertexGroup {
				break
			}
		}
		if cur != portgraph.NoVertexGroup {
			return errors.New(errors.ErrCodeInvalidGraph, "group %q is nested in a cycle", name)
		}
	}

	for _, grp := range groups {
		id := b.groups[grp.ID]
		for _, pair := range grp.Touching {
			x, okX := b.vertices[pair[0]]
			y, okY := b.vertices[pair[1]]
			if !okX || !okY {
				return errors.New(errors.ErrCodeInvalidGraph, "group %q: touching pair %v references unknown vertex", grp.ID, pair)
			}
			if err := b.g.AddTouchingPair(id, x, y); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "group %q", grp.ID)
			}
		}
		for _, pair := range grp.Pairings {
			p, okP := b.ports[pair[0]]
			q, okQ := b.ports[pair[1]]
			if !okP || !okQ {
				return errors.New(errors.ErrCodeInvalidGraph, "group %q: pairing %v references unknown port", grp.ID, pair)
			}
			if err := b.g.AddPortPairing(id, p, q); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "group %q", grp.ID)
			}
		}
	}
	return nil
}

func (b *builder) addBundles(bundles []Bundle) error {
	for i, bd := range bundles {
		name := bd.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		} else if _, dup := b.bundles[name]; dup {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate bundle %q", name)
		}
		var edges []portgraph.EdgeID
		for _, ref := range bd.Edges {
			e, ok := b.edges[ref]
			if !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "bundle %q references unknown edge %q", name, ref)
			}
			edges = append(edges, e)
		}
		id, err := b.g.AddEdgeBundle(edges...)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "bundle %q", name)
		}
		b.bundles[name] = id
	}

	nested := map[string]bool{}
	for i, bd := range bundles {
		name := bd.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		for _, ref := range bd.Bundles {
			child, ok := b.bundles[ref]
			if !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "bundle %q references unknown bundle %q", name, ref)
			}
			if nested[ref] {
				return errors.New(errors.ErrCodeInvalidGraph, "bundle %q is nested more than once", ref)
			}
			nested[ref] = true
			if err := b.g.NestBundle(b.bundles[name], child); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "nest bundle %q in %q", ref, name)
			}
		}
	}
	for name, id := range b.bundles {
		cur := id
		for range len(bundles) {
			if cur = b.g.Bundle(cur).Parent; cur == portgraph.NoBundle {
				break
			}
		}
		if cur != portgraph.NoBundle {
			return errors.New(errors.ErrCodeInvalidGraph, "bundle %q is nested in a cycle", name)
		}
	}
	return nil
}

// =============================================================================
// portgraph.Graph → Document
// =============================================================================

// FromPortGraph converts a graph to its document. Elements without a Name
// get a generated ID from their kind and identifier ("v3", "p7", ...).
func FromPortGraph(g *portgraph.Graph) Graph {
	var doc Graph
	for _, v := range g.Vertices() {
		vx := g.Vertex(v)
		doc.Vertices = append(doc.Vertices, Vertex{
			ID:     VertexName(g, v),
			Labels: vx.Labels,
			Ports:  items(g, vx.Items),
		})
	}
	for _, p := range g.Ports() {
		if g.Port(p).Vertex == portgraph.NoVertex {
			doc.OrphanPorts = append(doc.OrphanPorts, portDoc(g, p))
		}
	}
	for _, e := range g.Edges() {
		edge := g.Edge(e)
		out := Edge{ID: EdgeName(g, e), Label: edge.Label}
		for _, p := range edge.Ports {
			out.Ports = append(out.Ports, PortName(g, p))
		}
		doc.Edges = append(doc.Edges, out)
	}
	for _, id := range g.VertexGroups() {
		grp := g.VertexGroup(id)
		out := VertexGroup{ID: GroupName(g, id), Label: grp.Label}
		for _, v := range grp.Vertices {
			out.Vertices = append(out.Vertices, VertexName(g, v))
		}
		for _, sub := range grp.Groups {
			out.Groups = append(out.Groups, GroupName(g, sub))
		}
		for _, tp := range grp.TouchingPairs {
			out.Touching = append(out.Touching, [2]string{VertexName(g, tp.A), VertexName(g, tp.B)})
		}
		for _, pp := range grp.PortPairings {
			out.Pairings = append(out.Pairings, [2]string{PortName(g, pp.A), PortName(g, pp.B)})
		}
		doc.Groups = append(doc.Groups, out)
	}
	for _, id := range g.Bundles() {
		bd := g.Bundle(id)
		out := Bundle{ID: fmt.Sprintf("b%d", id)}
		for _, e := range bd.Edges {
			out.Edges = append(out.Edges, EdgeName(g, e))
		}
		for _, sub := range bd.Bundles {
			out.Bundles = append(out.Bundles, fmt.Sprintf("b%d", sub))
		}
		doc.Bundles = append(doc.Bundles, out)
	}
	return doc
}

func items(g *portgraph.Graph, comp []portgraph.Composition) []Port {
	var out []Port
	for _, c := range comp {
		if c.IsPort() {
			out = append(out, portDoc(g, c.Port()))
			continue
		}
		pg := g.PortGroup(c.Group())
		out = append(out, Port{Group: true, Ordered: pg.Ordered, Items: items(g, pg.Items)})
	}
	return out
}

func portDoc(g *portgraph.Graph, p portgraph.PortID) Port {
	port := g.Port(p)
	out := Port{ID: PortName(g, p), Label: port.Label}
	if port.Orientation != portgraph.OrientationFree {
		out.Orientation = port.Orientation.String()
	}
	return out
}

// VertexName returns the document ID of a vertex.
func VertexName(g *portgraph.Graph, v portgraph.VertexID) string {
	if vx := g.Vertex(v); vx != nil && vx.Name != "" {
		return vx.Name
	}
	return fmt.Sprintf("v%d", v)
}

// PortName returns the document ID of a port.
func PortName(g *portgraph.Graph, p portgraph.PortID) string {
	if port := g.Port(p); port != nil && port.Name != "" {
		return port.Name
	}
	return fmt.Sprintf("p%d", p)
}

// EdgeName returns the document ID of an edge.
func EdgeName(g *portgraph.Graph, e portgraph.EdgeID) string {
	if edge := g.Edge(e); edge != nil && edge.Name != "" {
		return edge.Name
	}
	return fmt.Sprintf("e%d", e)
}

// GroupName returns the document ID of a vertex group.
func GroupName(g *portgraph.Graph, vg portgraph.VertexGroupID) string {
	if grp := g.VertexGroup(vg); grp != nil && grp.Name != "" {
		return grp.Name
	}
	return fmt.Sprintf("g%d", vg)
}
