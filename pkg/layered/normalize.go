package layered

import (
	"fmt"
	"slices"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// Normalize rewrites the working graph into a simple graph: afterwards every
// edge has exactly two ports on different vertices, every port has at most
// one edge, every vertex has a port, and no vertex group or edge bundle is
// left. All rewrites are recorded so the final stage can undo them.
//
// The steps run in a fixed order because later steps rely on earlier ones:
// bundles, orphan ports, portless vertices, hyperedges, vertex groups, ports
// with several edges, self-loops.
func (l *Layouter) Normalize() error {
	if err := l.require(StageNew); err != nil {
		return err
	}
	l.handleBundles()
	l.handleOrphanPorts()
	l.handlePortlessVertices()
	l.handleHyperEdges()
	l.handleVertexGroups()
	l.handleMultiEdgePorts()
	l.handleLoops()

	l.stage = StageNormalized
	l.log.Debug("normalized graph", "vertices", l.g.VertexCount(), "edges", l.g.EdgeCount(),
		"groups", len(l.groupReps)+len(l.plugs), "hyperedges", len(l.hyperEdges), "loops", len(l.loopEdgePorts))
	return nil
}

// =============================================================================
// Edge bundles
// =============================================================================

func (l *Layouter) handleBundles() {
	g := l.g
	for _, b := range g.TopLevelBundles() {
		l.groupBundle(b)
	}
	for _, b := range g.TopLevelBundles() {
		g.RemoveBundle(b)
	}
}

// groupBundle gathers, per vertex and per containing port group, the ports
// touched by the edges of b into a new unordered port group. Nested bundles
// are handled first so their groups end up inside the outer group.
func (l *Layouter) groupBundle(b portgraph.BundleID) {
	g := l.g
	bd := g.Bundle(b)
	for _, sub := range slices.Clone(bd.Bundles) {
		l.groupBundle(sub)
	}

	type container struct {
		v      portgraph.VertexID
		parent portgraph.PortGroupID
	}
	var order []container
	members := map[container][]portgraph.Composition{}
	seen := map[portgraph.Composition]bool{}
	add := func(item portgraph.Composition, c container) {
		if seen[item] {
			return
		}
		seen[item] = true
		if _, ok := members[c]; !ok {
			order = append(order, c)
		}
		members[c] = append(members[c], item)
	}

	for _, e := range g.BundleEdges(b) {
		for _, p := range g.Edge(e).Ports {
			port := g.Port(p)
			if port.Vertex == portgraph.NoVertex {
				continue
			}
			// Lift the port to the outermost group created for a nested
			// bundle so sub-bundles stay together.
			item := portgraph.PortItem(p)
			parent := port.Group
			for slices.Contains(l.bundleGroups, parent) {
				item = portgraph.GroupItem(parent)
				parent = g.PortGroup(parent).Parent
			}
			add(item, container{port.Vertex, parent})
		}
	}

	for _, c := range order {
		pg, err := g.AddPortGroup(c.v, c.parent, false)
		if err != nil {
			panic(fmt.Sprintf("layered: bundle group on vertex %d: %v", c.v, err))
		}
		for _, item := range members[c] {
			if err := g.MoveInto(item, pg); err != nil {
				panic(fmt.Sprintf("layered: bundle group on vertex %d: %v", c.v, err))
			}
		}
		l.bundleGroups = append(l.bundleGroups, pg)
	}
}

// =============================================================================
// Orphan ports and portless vertices
// =============================================================================

func (l *Layouter) handleOrphanPorts() {
	g := l.g
	for _, e := range g.Edges() {
		for _, p := range g.Edge(e).Ports {
			port := g.Port(p)
			if port.Vertex != portgraph.NoVertex {
				continue
			}
			v := g.AddVertex("addNodeFor" + port.Label)
			if err := g.AttachPort(p, v); err != nil {
				panic(fmt.Sprintf("layered: attach orphan port %d: %v", p, err))
			}
			l.orphanVertices[v] = p
		}
	}
}

func (l *Layouter) handlePortlessVertices() {
	for _, v := range l.g.Vertices() {
		if len(l.g.PortsOf(v)) == 0 {
			l.addPortlessPort(v)
		}
	}
}

func (l *Layouter) addPortlessPort(v portgraph.VertexID) {
	p, err := l.g.AddPort(v, "dummyPortForVertexWithoutPort")
	if err != nil {
		panic(fmt.Sprintf("layered: port for vertex %d: %v", v, err))
	}
	l.portlessPorts[p] = v
}

// =============================================================================
// Hyperedges
// =============================================================================

// handleHyperEdges replaces every edge with more than two ports by a star
// around a new representative vertex, then drops edges left with fewer than
// two ports.
func (l *Layouter) handleHyperEdges() {
	g := l.g
	i := 0
	for _, e := range g.Edges() {
		edge := g.Edge(e)
		if len(edge.Ports) <= 2 {
			continue
		}
		rep := g.AddVertex(fmt.Sprintf("EdgeRep_for_%s_#%d", edge.Label, i))
		i++
		for _, p := range slices.Clone(edge.Ports) {
			q, err := g.AddPort(rep, "")
			if err != nil {
				panic(fmt.Sprintf("layered: hyperedge port: %v", err))
			}
			part, err := g.AddEdge(q, p)
			if err != nil {
				panic(fmt.Sprintf("layered: hyperedge part: %v", err))
			}
			l.hyperParts[part] = rep
		}
		l.hyperEdges[rep] = e
		g.RemoveEdge(e)
	}

	for _, e := range g.Edges() {
		if n := len(g.Edge(e).Ports); n < 2 {
			l.diagnose("dropped degenerate edge", "edge", e, "ports", n)
			g.RemoveEdge(e)
		}
	}
}

// =============================================================================
// Vertex groups
// =============================================================================

// handleVertexGroups collapses every top-level vertex group into one
// representative vertex. Stick-together groups keep the port groups of their
// members and their port pairings; other groups are flattened. Ports of
// device vertices that have no edge are not carried over.
func (l *Layouter) handleVertexGroups() {
	g := l.g
	for i, vg := range g.TopLevelVertexGroups() {
		stick := g.StickTogether(vg)
		connector := g.IsConnector(vg)
		members := g.GroupVertices(vg)
		devices := map[portgraph.VertexID]bool{}
		for _, v := range members {
			devices[v] = g.IsDeviceVertex(v)
		}

		rep := g.AddVertex(fmt.Sprintf("R#%d", i))
		l.members[rep] = members
		replacement := map[portgraph.PortID]portgraph.PortID{}
		for _, v := range members {
			l.repOf[v] = rep
			for _, p := range g.PortsOf(v) {
				port := g.Port(p)
				if devices[v] && len(port.Edges) == 0 {
					continue
				}
				q, err := g.AddPort(rep, port.Label)
				if err != nil {
					panic(fmt.Sprintf("layered: representative port: %v", err))
				}
				g.Port(q).Orientation = port.Orientation
				if err := g.MoveEdges(p, q); err != nil {
					panic(fmt.Sprintf("layered: move edges of port %d: %v", p, err))
				}
				replacement[p] = q
				l.replacedPorts[q] = p
			}
		}

		if stick {
			for _, v := range members {
				pg, err := g.AddPortGroup(rep, portgraph.NoPortGroup, false)
				if err != nil {
					panic(fmt.Sprintf("layered: representative group: %v", err))
				}
				l.keepPortGroups(pg, g.Vertex(v).Items, replacement)
			}
			l.keepPortPairings(g.GroupPortPairings(vg), replacement)
		}
		if connector {
			l.plugs[rep] = vg
		} else {
			l.groupReps[rep] = vg
		}

		for _, v := range members {
			g.RemoveVertex(v)
		}
		g.RemoveVertexGroup(vg)
		g.RemoveEmptyGroups(rep)
		if len(g.PortsOf(rep)) == 0 {
			l.addPortlessPort(rep)
		}
	}
}

// keepPortGroups mirrors the composition items of a member vertex below the
// group target of the representative, moving the replacement ports into
// place.
func (l *Layouter) keepPortGroups(target portgraph.PortGroupID, items []portgraph.Composition,
	replacement map[portgraph.PortID]portgraph.PortID) {
	g := l.g
	for _, it := range items {
		if it.IsPort() {
			if q, ok := replacement[it.Port()]; ok {
				if err := g.MoveInto(portgraph.PortItem(q), target); err != nil {
					panic(fmt.Sprintf("layered: keep port %d: %v", q, err))
				}
			}
			continue
		}
		src := g.PortGroup(it.Group())
		if src == nil {
			continue
		}
		sub, err := g.AddPortGroup(g.PortGroup(target).Vertex, target, src.Ordered)
		if err != nil {
			panic(fmt.Sprintf("layered: keep port group %d: %v", it.Group(), err))
		}
		l.keepPortGroups(sub, src.Items, replacement)
	}
}

// keepPortPairings transfers pairings onto the replacement ports. A port
// keeps the first pairing it takes part in.
func (l *Layouter) keepPortPairings(pairings []portgraph.PortPairing, replacement map[portgraph.PortID]portgraph.PortID) {
	for _, pp := range pairings {
		a, okA := replacement[pp.A]
		b, okB := replacement[pp.B]
		if !okA || !okB || a == b {
			continue
		}
		if _, taken := l.pairs[a]; taken {
			continue
		}
		if _, taken := l.pairs[b]; taken {
			continue
		}
		l.pairs[a], l.pairs[b] = b, a
	}
}

// PairedPort returns the port p is paired with in the working graph.
func (l *Layouter) PairedPort(p portgraph.PortID) (portgraph.PortID, bool) {
	q, ok := l.pairs[p]
	return q, ok
}

// =============================================================================
// Ports with several edges
// =============================================================================

// handleMultiEdgePorts gives every incidence of a port with several edges a
// fresh port. The fresh ports share a new unordered group at the position of
// the original port, which is removed.
func (l *Layouter) handleMultiEdgePorts() {
	g := l.g
	for _, v := range g.Vertices() {
		for _, p := range g.PortsOf(v) {
			port := g.Port(p)
			if len(port.Edges) <= 1 {
				continue
			}
			pg, err := g.WrapPort(p, false)
			if err != nil {
				panic(fmt.Sprintf("layered: wrap port %d: %v", p, err))
			}
			var fresh []portgraph.PortID
			for i, e := range slices.Clone(port.Edges) {
				q, err := g.AddPortToGroup(pg, fmt.Sprintf("AddPort_for_%s_#%d", port.Label, i))
				if err != nil {
					panic(fmt.Sprintf("layered: split port %d: %v", p, err))
				}
				g.Port(q).Orientation = port.Orientation
				slot := slices.Index(g.Edge(e).Ports, p)
				if err := g.ReplaceEdgePortAt(e, slot, q); err != nil {
					panic(fmt.Sprintf("layered: split port %d: %v", p, err))
				}
				l.replacedPorts[q] = p
				l.splitOf[q] = p
				fresh = append(fresh, q)
			}
			l.multiEdgePorts[p] = fresh

			if partner, ok := l.pairs[p]; ok {
				delete(l.pairs, p)
				l.pairs[partner], l.pairs[fresh[0]] = fresh[0], partner
				l.replacedPairings[portgraph.PortPairing{A: fresh[0], B: partner}] = portgraph.PortPairing{A: p, B: partner}
			}
			g.RemovePort(p)
		}
	}
}

// =============================================================================
// Self-loops
// =============================================================================

func (l *Layouter) handleLoops() {
	g := l.g
	for _, e := range g.Edges() {
		ports := g.Edge(e).Ports
		a, b := g.Port(ports[0]), g.Port(ports[1])
		if a.Vertex != b.Vertex {
			continue
		}
		l.loopEdges[a.Vertex] = append(l.loopEdges[a.Vertex], e)
		l.loopEdgePorts[e] = [2]portgraph.PortID{a.ID, b.ID}
		g.RemoveEdge(e)
	}
}
