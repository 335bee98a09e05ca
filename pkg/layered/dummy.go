package layered

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// CreateDummies fixes the side of every port and makes every edge span
// exactly one rank step, from a bottom port of rank r to a top port of rank
// r+1. Edges that leave a vertex on the wrong side are led around a turning
// dummy on the neighboring rank, long edges get a chain of dummy vertices,
// and self-loops are routed through the turning dummies of their vertex.
// Finally the initial sorting order is built.
func (l *Layouter) CreateDummies() error {
	if err := l.require(StageLayered); err != nil {
		return err
	}
	l.side = map[portgraph.PortID]Side{}
	l.kind = map[portgraph.VertexID]dummyKind{}
	l.dummyEdge = map[portgraph.VertexID]portgraph.EdgeID{}
	l.chainLen = map[portgraph.EdgeID]int{}
	l.turningOf = map[portgraph.VertexID]portgraph.VertexID{}
	l.upperTurning = map[portgraph.VertexID]portgraph.VertexID{}
	l.lowerTurning = map[portgraph.VertexID]portgraph.VertexID{}
	l.corresponding = map[portgraph.PortID]portgraph.PortID{}
	l.dummyEdges = map[portgraph.EdgeID]portgraph.EdgeID{}
	l.routes = map[portgraph.EdgeID][]portgraph.PortID{}

	l.assignSides()
	for _, e := range l.g.Edges() {
		ports := l.g.Edge(e).Ports
		ps, pt := ports[0], ports[1]
		if l.g.Port(ps).Vertex != l.start[e] {
			ps, pt = pt, ps
		}
		l.route(e, ps, pt, false)
	}
	for _, e := range slices.Sorted(maps.Keys(l.loopEdgePorts)) {
		ports := l.loopEdgePorts[e]
		ps, pt := ports[0], ports[1]
		if l.side[ps] == Bottom && l.side[pt] == Top {
			ps, pt = pt, ps
		}
		l.route(e, ps, pt, true)
	}
	l.shiftRanks()
	l.order = l.initialOrder()

	l.stage = StageDummies
	l.log.Debug("inserted dummies", "vertices", l.g.VertexCount(), "turning", len(l.turningOf), "ranks", len(l.order.Layers))
	return nil
}

// =============================================================================
// Port sides
// =============================================================================

// assignSides puts every port of the normalized graph on a side. Priorities,
// highest first: explicit orientation, being paired with a port on the other
// side, the direction of the port's edge, bottom for self-loop ports and top
// for everything else.
func (l *Layouter) assignSides() {
	g := l.g
	loopPorts := map[portgraph.PortID]bool{}
	for _, ps := range l.loopEdgePorts {
		loopPorts[ps[0]], loopPorts[ps[1]] = true, true
	}
	fallback := func(p portgraph.PortID) Side {
		if loopPorts[p] {
			return Bottom
		}
		return Top
	}

	for _, p := range slices.Sorted(maps.Keys(l.pairs)) {
		q := l.pairs[p]
		if q < p {
			continue
		}
		op, okOp := l.explicitSide(p)
		oq, okOq := l.explicitSide(q)
		ep, okEp := l.edgeSide(p)
		eq, okEq := l.edgeSide(q)
		switch {
		case okOp && okOq:
			l.side[p], l.side[q] = op, oq
		case okOp:
			l.side[p], l.side[q] = op, op.opposite()
		case okOq:
			l.side[p], l.side[q] = oq.opposite(), oq
		case okEp:
			l.side[p], l.side[q] = ep, ep.opposite()
		case okEq:
			l.side[p], l.side[q] = eq.opposite(), eq
		default:
			s := fallback(p)
			l.side[p], l.side[q] = s, s.opposite()
		}
	}

	for _, v := range g.Vertices() {
		for _, p := range g.PortsOf(v) {
			if _, done := l.side[p]; done {
				continue
			}
			if s, ok := l.explicitSide(p); ok {
				l.side[p] = s
			} else if s, ok := l.edgeSide(p); ok {
				l.side[p] = s
			} else {
				l.side[p] = fallback(p)
			}
		}
	}
}

func (l *Layouter) explicitSide(p portgraph.PortID) (Side, bool) {
	switch l.g.Port(p).Orientation {
	case portgraph.OrientationNorth:
		return Top, true
	case portgraph.OrientationSouth:
		return Bottom, true
	}
	return Top, false
}

// edgeSide is bottom for ports at the start of their edge and top for ports
// at its end.
func (l *Layouter) edgeSide(p portgraph.PortID) (Side, bool) {
	port := l.g.Port(p)
	if len(port.Edges) == 0 {
		return Top, false
	}
	if l.start[port.Edges[0]] == port.Vertex {
		return Bottom, true
	}
	return Top, true
}

// =============================================================================
// Routes
// =============================================================================

// route makes edge e, running from port ps down to port pt, span single rank
// steps and records the ports it passes in the order of the edge's ports.
func (l *Layouter) route(e portgraph.EdgeID, ps, pt portgraph.PortID, loop bool) {
	g := l.g
	vs, vt := g.Port(ps).Vertex, g.Port(pt).Vertex
	rs, rt := l.rank[vs], l.rank[vt]
	var path []portgraph.PortID

	if !loop && l.side[ps] == Bottom && l.side[pt] == Top && rt == rs+1 {
		path = []portgraph.PortID{ps, pt}
	} else {
		if !loop {
			g.RemoveEdge(e)
		}
		path = []portgraph.PortID{ps}
		cur, k0 := ps, rs
		if l.side[ps] == Top {
			in, out := l.turningPair(vs, true)
			l.hop(e, in, ps)
			path = append(path, in, out)
			cur, k0 = out, rs-1
		}
		target, k1 := pt, rt
		var tail []portgraph.PortID
		if l.side[pt] == Bottom {
			in, out := l.turningPair(vt, false)
			l.hop(e, pt, out)
			target, k1 = in, rt+1
			tail = []portgraph.PortID{in, out}
		}
		kind := longEdgeDummy
		if loop {
			kind = loopDummy
		}
		for k := k0 + 1; k < k1; k++ {
			d := g.AddVertex()
			l.kind[d] = kind
			l.dummyEdge[d] = e
			l.rank[d] = k
			top, bottom := l.dummyPort(d, Top), l.dummyPort(d, Bottom)
			l.hop(e, cur, top)
			path = append(path, top, bottom)
			cur = bottom
			l.chainLen[e]++
		}
		l.hop(e, cur, target)
		path = append(path, tail...)
		path = append(path, pt)
	}

	first := l.loopEdgePorts[e][0]
	if !loop {
		first = l.normalized.Edge(e).Ports[0]
	}
	if path[0] != first {
		slices.Reverse(path)
	}
	l.routes[e] = path
}

// hop connects a bottom port on one rank with a top port on the next rank
// on behalf of real edge e.
func (l *Layouter) hop(e portgraph.EdgeID, upper, lower portgraph.PortID) {
	de, err := l.g.AddEdge(upper, lower)
	if err != nil {
		panic(fmt.Sprintf("layered: dummy edge for edge %d: %v", e, err))
	}
	l.dummyEdges[de] = e
}

func (l *Layouter) dummyPort(d portgraph.VertexID, s Side) portgraph.PortID {
	p, err := l.g.AddPort(d, "")
	if err != nil {
		panic(fmt.Sprintf("layered: dummy port on %d: %v", d, err))
	}
	l.side[p] = s
	return p
}

// turningPair adds a pair of corresponding ports to the turning dummy above
// (upper) or below v, creating the dummy on first use. The ports are
// returned in the order a route passes them from top to bottom.
func (l *Layouter) turningPair(v portgraph.VertexID, upper bool) (in, out portgraph.PortID) {
	dummies, offset, side := l.lowerTurning, 1, Top
	if upper {
		dummies, offset, side = l.upperTurning, -1, Bottom
	}
	d, ok := dummies[v]
	if !ok {
		d = l.g.AddVertex()
		l.kind[d] = turningDummy
		l.turningOf[d] = v
		l.rank[d] = l.rank[v] + offset
		dummies[v] = d
	}
	a, b := l.dummyPort(d, side), l.dummyPort(d, side)
	l.corresponding[a], l.corresponding[b] = b, a
	return a, b
}

// shiftRanks moves all ranks so the lowest is zero. Upper turning dummies
// of rank-0 vertices end up on rank -1 otherwise.
func (l *Layouter) shiftRanks() {
	lowest := 0
	for _, r := range l.rank {
		lowest = min(lowest, r)
	}
	if lowest == 0 {
		return
	}
	for v := range l.rank {
		l.rank[v] -= lowest
	}
}

// initialOrder sorts every rank by vertex ID and every side by the
// composition order of the vertex.
func (l *Layouter) initialOrder() *SortingOrder {
	ranks := 0
	for _, r := range l.rank {
		ranks = max(ranks, r+1)
	}
	o := newSortingOrder(ranks)
	for _, v := range l.g.Vertices() {
		r := l.rank[v]
		o.Layers[r] = append(o.Layers[r], v)
		for _, p := range l.g.PortsOf(v) {
			s := l.side[p]
			o.setPorts(v, s, append(o.Ports(v, s), p))
		}
	}
	return o
}
