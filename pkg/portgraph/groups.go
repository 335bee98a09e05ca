package portgraph

import "slices"

// TouchingPair records that two vertices of a group are drawn flush against
// each other.
type TouchingPair struct {
	A, B VertexID
}

// PortPairing links two ports of a vertex group that represent a
// pass-through connection. Paired ports should line up vertically.
type PortPairing struct {
	A, B PortID
}

// Contains reports whether p is one of the two paired ports.
func (pp PortPairing) Contains(p PortID) bool { return pp.A == p || pp.B == p }

// VertexGroup is a set of vertices (and nested groups) drawn as one unit.
type VertexGroup struct {
	ID            VertexGroupID
	Name          string
	Label         string
	Vertices      []VertexID      // directly contained vertices
	Groups        []VertexGroupID // directly contained groups
	Parent        VertexGroupID
	TouchingPairs []TouchingPair
	PortPairings  []PortPairing
	Shape         *Rect
}

// EdgeBundle is a tree of edges that should be routed close together.
type EdgeBundle struct {
	ID      BundleID
	Edges   []EdgeID
	Bundles []BundleID
	Parent  BundleID
}

// AddVertexGroup creates a top-level vertex group containing vs. A vertex
// can belong to at most one group; it is moved out of any previous group.
func (g *Graph) AddVertexGroup(label string, vs ...VertexID) (VertexGroupID, error) {
	for _, v := range vs {
		if g.Vertex(v) == nil {
			return 0, ErrUnknownVertex
		}
	}
	id := VertexGroupID(len(g.vertexGroups))
	g.vertexGroups = append(g.vertexGroups, &VertexGroup{ID: id, Label: label, Parent: NoVertexGroup})
	for _, v := range vs {
		g.addToGroup(id, v)
	}
	return id, nil
}

// AddVertexToGroup adds vertex v to group vg.
func (g *Graph) AddVertexToGroup(vg VertexGroupID, v VertexID) error {
	if g.VertexGroup(vg) == nil {
		return ErrUnknownVertexGroup
	}
	if g.Vertex(v) == nil {
		return ErrUnknownVertex
	}
	g.addToGroup(vg, v)
	return nil
}

func (g *Graph) addToGroup(vg VertexGroupID, v VertexID) {
	vx := g.vertices[v]
	if old := g.VertexGroup(vx.Group); old != nil {
		old.Vertices = slices.DeleteFunc(old.Vertices, func(w VertexID) bool { return w == v })
	}
	vx.Group = vg
	g.vertexGroups[vg].Vertices = append(g.vertexGroups[vg].Vertices, v)
}

// NestVertexGroup makes child a sub-group of parent.
func (g *Graph) NestVertexGroup(parent, child VertexGroupID) error {
	p, c := g.VertexGroup(parent), g.VertexGroup(child)
	if p == nil || c == nil || parent == child {
		return ErrUnknownVertexGroup
	}
	if old := g.VertexGroup(c.Parent); old != nil {
		old.Groups = slices.DeleteFunc(old.Groups, func(x VertexGroupID) bool { return x == child })
	}
	c.Parent = parent
	p.Groups = append(p.Groups, child)
	return nil
}

// AddTouchingPair records that a and b touch inside group vg.
func (g *Graph) AddTouchingPair(vg VertexGroupID, a, b VertexID) error {
	grp := g.VertexGroup(vg)
	if grp == nil {
		return ErrUnknownVertexGroup
	}
	if g.Vertex(a) == nil || g.Vertex(b) == nil {
		return ErrUnknownVertex
	}
	grp.TouchingPairs = append(grp.TouchingPairs, TouchingPair{A: a, B: b})
	return nil
}

// AddPortPairing pairs ports a and b inside group vg.
func (g *Graph) AddPortPairing(vg VertexGroupID, a, b PortID) error {
	grp := g.VertexGroup(vg)
	if grp == nil {
		return ErrUnknownVertexGroup
	}
	if g.Port(a) == nil || g.Port(b) == nil {
		return ErrUnknownPort
	}
	grp.PortPairings = append(grp.PortPairings, PortPairing{A: a, B: b})
	return nil
}

// GroupVertices returns all vertices contained in vg or any nested group,
// direct members first.
func (g *Graph) GroupVertices(vg VertexGroupID) []VertexID {
	grp := g.VertexGroup(vg)
	if grp == nil {
		return nil
	}
	out := slices.Clone(grp.Vertices)
	for _, sub := range grp.Groups {
		out = append(out, g.GroupVertices(sub)...)
	}
	return out
}

// GroupPortPairings returns the port pairings of vg and all nested groups.
func (g *Graph) GroupPortPairings(vg VertexGroupID) []PortPairing {
	grp := g.VertexGroup(vg)
	if grp == nil {
		return nil
	}
	out := slices.Clone(grp.PortPairings)
	for _, sub := range grp.Groups {
		out = append(out, g.GroupPortPairings(sub)...)
	}
	return out
}

// RemoveVertexGroup removes vg and its nested groups. Member vertices stay
// in the graph and become ungrouped.
func (g *Graph) RemoveVertexGroup(vg VertexGroupID) {
	grp := g.VertexGroup(vg)
	if grp == nil {
		return
	}
	for _, sub := range slices.Clone(grp.Groups) {
		g.RemoveVertexGroup(sub)
	}
	for _, v := range grp.Vertices {
		if vx := g.Vertex(v); vx != nil {
			vx.Group = NoVertexGroup
		}
	}
	if p := g.VertexGroup(grp.Parent); p != nil {
		p.Groups = slices.DeleteFunc(p.Groups, func(x VertexGroupID) bool { return x == vg })
	}
	g.vertexGroups[vg] = nil
}

// AddEdgeBundle creates a top-level bundle over es.
func (g *Graph) AddEdgeBundle(es ...EdgeID) (BundleID, error) {
	for _, e := range es {
		if g.Edge(e) == nil {
			return 0, ErrUnknownEdge
		}
	}
	id := BundleID(len(g.bundles))
	g.bundles = append(g.bundles, &EdgeBundle{ID: id, Edges: slices.Clone(es), Parent: NoBundle})
	return id, nil
}

// NestBundle makes child a sub-bundle of parent.
func (g *Graph) NestBundle(parent, child BundleID) error {
	p, c := g.Bundle(parent), g.Bundle(child)
	if p == nil || c == nil || parent == child {
		return ErrUnknownBundle
	}
	if old := g.Bundle(c.Parent); old != nil {
		old.Bundles = slices.DeleteFunc(old.Bundles, func(x BundleID) bool { return x == child })
	}
	c.Parent = parent
	p.Bundles = append(p.Bundles, child)
	return nil
}

// BundleEdges returns the edges of b and all nested bundles.
func (g *Graph) BundleEdges(b BundleID) []EdgeID {
	bd := g.Bundle(b)
	if bd == nil {
		return nil
	}
	out := slices.Clone(bd.Edges)
	for _, sub := range bd.Bundles {
		out = append(out, g.BundleEdges(sub)...)
	}
	return out
}

// RemoveBundle removes b and its nested bundles. Edges are not touched.
func (g *Graph) RemoveBundle(b BundleID) {
	bd := g.Bundle(b)
	if bd == nil {
		return
	}
	for _, sub := range slices.Clone(bd.Bundles) {
		g.RemoveBundle(sub)
	}
	if p := g.Bundle(bd.Parent); p != nil {
		p.Bundles = slices.DeleteFunc(p.Bundles, func(x BundleID) bool { return x == b })
	}
	g.bundles[b] = nil
}
