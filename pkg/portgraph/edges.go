package portgraph

import "slices"

// AddEdge adds an edge touching the given ports in order. A port may appear
// more than once; each occurrence is recorded as a separate incidence.
func (g *Graph) AddEdge(ports ...PortID) (EdgeID, error) {
	for _, p := range ports {
		if g.Port(p) == nil {
			return 0, ErrUnknownPort
		}
	}
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, &Edge{ID: id, Ports: slices.Clone(ports)})
	for _, p := range ports {
		g.ports[p].Edges = append(g.ports[p].Edges, id)
	}
	return id, nil
}

// RemoveEdge removes an edge and its incidences. Ports stay in the graph.
func (g *Graph) RemoveEdge(e EdgeID) {
	edge := g.Edge(e)
	if edge == nil {
		return
	}
	for _, p := range edge.Ports {
		if port := g.Port(p); port != nil {
			port.Edges = slices.DeleteFunc(port.Edges, func(x EdgeID) bool { return x == e })
		}
	}
	for _, b := range g.bundles {
		if b != nil {
			b.Edges = slices.DeleteFunc(b.Edges, func(x EdgeID) bool { return x == e })
		}
	}
	g.edges[e] = nil
}

// AddEdgePort appends port p to edge e.
func (g *Graph) AddEdgePort(e EdgeID, p PortID) error {
	edge := g.Edge(e)
	if edge == nil {
		return ErrUnknownEdge
	}
	port := g.Port(p)
	if port == nil {
		return ErrUnknownPort
	}
	edge.Ports = append(edge.Ports, p)
	port.Edges = append(port.Edges, e)
	return nil
}

// RemoveEdgePort removes every occurrence of port p from edge e.
func (g *Graph) RemoveEdgePort(e EdgeID, p PortID) error {
	edge := g.Edge(e)
	if edge == nil {
		return ErrUnknownEdge
	}
	port := g.Port(p)
	if port == nil {
		return ErrUnknownPort
	}
	edge.Ports = slices.DeleteFunc(edge.Ports, func(q PortID) bool { return q == p })
	port.Edges = slices.DeleteFunc(port.Edges, func(x EdgeID) bool { return x == e })
	return nil
}

// ReplaceEdgePortAt replaces the port at position slot of edge e by p. Only
// that single incidence moves, which matters for edges repeating a port.
func (g *Graph) ReplaceEdgePortAt(e EdgeID, slot int, p PortID) error {
	edge := g.Edge(e)
	if edge == nil {
		return ErrUnknownEdge
	}
	port := g.Port(p)
	if port == nil {
		return ErrUnknownPort
	}
	if slot < 0 || slot >= len(edge.Ports) {
		return ErrUnknownPort
	}
	old := g.Port(edge.Ports[slot])
	if old != nil {
		if i := slices.Index(old.Edges, e); i >= 0 {
			old.Edges = slices.Delete(old.Edges, i, i+1)
		}
	}
	edge.Ports[slot] = p
	port.Edges = append(port.Edges, e)
	return nil
}

// MoveEdges reattaches every incidence of port from to port to.
func (g *Graph) MoveEdges(from, to PortID) error {
	src := g.Port(from)
	if src == nil {
		return ErrUnknownPort
	}
	dst := g.Port(to)
	if dst == nil {
		return ErrUnknownPort
	}
	for _, e := range src.Edges {
		edge := g.edges[e]
		for i, p := range edge.Ports {
			if p == from {
				edge.Ports[i] = to
				dst.Edges = append(dst.Edges, e)
			}
		}
	}
	src.Edges = nil
	return nil
}

// EdgeVertices returns the vertices of the ports of e, in port order.
// Orphan ports contribute [NoVertex].
func (g *Graph) EdgeVertices(e EdgeID) []VertexID {
	edge := g.Edge(e)
	if edge == nil {
		return nil
	}
	out := make([]VertexID, len(edge.Ports))
	for i, p := range edge.Ports {
		out[i] = g.ports[p].Vertex
	}
	return out
}

// EdgesOf returns the distinct edges incident to any port of v, ascending.
func (g *Graph) EdgesOf(v VertexID) []EdgeID {
	var out []EdgeID
	for _, p := range g.PortsOf(v) {
		out = append(out, g.ports[p].Edges...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Opposite returns the other port of a two-port edge e, seen from p.
func (g *Graph) Opposite(e EdgeID, p PortID) (PortID, bool) {
	edge := g.Edge(e)
	if edge == nil || len(edge.Ports) != 2 {
		return 0, false
	}
	switch p {
	case edge.Ports[0]:
		return edge.Ports[1], true
	case edge.Ports[1]:
		return edge.Ports[0], true
	}
	return 0, false
}
