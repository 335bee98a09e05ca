package layered

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

func bfsConfig() Config {
	cfg := DefaultConfig()
	cfg.Direction = DirectionBFS
	return cfg
}

// vertexWithPorts adds a vertex labeled name with n ports named name.0,
// name.1, ...
func vertexWithPorts(t *testing.T, g *portgraph.Graph, name string, n int) (portgraph.VertexID, []portgraph.PortID) {
	t.Helper()
	v := g.AddVertex(name)
	ports := make([]portgraph.PortID, n)
	for i := range n {
		p, err := g.AddPort(v, fmt.Sprintf("%s.%d", name, i))
		require.NoError(t, err)
		ports[i] = p
	}
	return v, ports
}

func connect(t *testing.T, g *portgraph.Graph, ports ...portgraph.PortID) portgraph.EdgeID {
	t.Helper()
	e, err := g.AddEdge(ports...)
	require.NoError(t, err)
	return e
}

// fanOut is a vertex A with one port connected to the single ports of B
// and C.
func fanOut(t *testing.T) (g *portgraph.Graph, a, b, c portgraph.VertexID) {
	g = portgraph.New()
	a, pa := vertexWithPorts(t, g, "A", 1)
	b, pb := vertexWithPorts(t, g, "B", 1)
	c, pc := vertexWithPorts(t, g, "C", 1)
	connect(t, g, pa[0], pb[0])
	connect(t, g, pa[0], pc[0])
	return g, a, b, c
}

// bipartite connects every top vertex to every bottom vertex.
func bipartite(t *testing.T, n int) *portgraph.Graph {
	g := portgraph.New()
	var tops, bottoms []portgraph.PortID
	for i := range n {
		_, p := vertexWithPorts(t, g, fmt.Sprintf("T%d", i), 1)
		tops = append(tops, p[0])
	}
	for i := range n {
		_, p := vertexWithPorts(t, g, fmt.Sprintf("B%d", i), 1)
		bottoms = append(bottoms, p[0])
	}
	for _, p := range tops {
		for _, q := range bottoms {
			connect(t, g, p, q)
		}
	}
	return g
}

func assertOrthogonal(t *testing.T, path portgraph.Path) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		assert.True(t, a.X == b.X || a.Y == b.Y, "segment %v -> %v is not axis-parallel", a, b)
	}
}

func TestFanOutCentersSourcePort(t *testing.T) {
	g, a, b, c := fanOut(t)
	l := New(g, bfsConfig())
	res, err := l.Run()
	require.NoError(t, err)

	ra, _ := l.Rank(a)
	rb, _ := l.Rank(b)
	rc, _ := l.Rank(c)
	assert.Equal(t, 0, ra)
	assert.Equal(t, 1, rb)
	assert.Equal(t, 1, rc)
	assert.Equal(t, 0, res.Crossings)
	assert.Equal(t, 2, res.Ranks)

	// Every order of B and C is crossing-free.
	o := l.Order().Clone()
	slices.Reverse(o.Layers[1])
	assert.Equal(t, 0, l.CountCrossings(o))

	pa := g.Port(g.PortsOf(a)[0]).Shape
	pb := g.Port(g.PortsOf(b)[0]).Shape
	pc := g.Port(g.PortsOf(c)[0]).Shape
	require.NotNil(t, pa)
	require.NotNil(t, pb)
	require.NotNil(t, pc)
	assert.InDelta(t, (pb.CenterX()+pc.CenterX())/2, pa.CenterX(), 1e-6)
}

func TestSplitPortSiblingsNeverCross(t *testing.T) {
	// A fans out to B and C, which both feed the single port of D.
	g := portgraph.New()
	_, pa := vertexWithPorts(t, g, "A", 1)
	b, pb := vertexWithPorts(t, g, "B", 2)
	c, pc := vertexWithPorts(t, g, "C", 2)
	d, pd := vertexWithPorts(t, g, "D", 1)
	connect(t, g, pa[0], pb[0])
	connect(t, g, pa[0], pc[0])
	connect(t, g, pb[1], pd[0])
	connect(t, g, pc[1], pd[0])

	l := New(g, bfsConfig())
	res, err := l.Run()
	require.NoError(t, err)
	require.Equal(t, 3, res.Ranks)
	rb, _ := l.Rank(b)
	rc, _ := l.Rank(c)
	rd, _ := l.Rank(d)
	require.Equal(t, []int{1, 1, 2}, []int{rb, rc, rd})
	assert.Equal(t, 0, res.Crossings)

	o := l.Order().Clone()
	slices.Reverse(o.Layers[1])
	assert.Equal(t, 0, l.CountCrossings(o))
}

func TestCountCrossingsKeepsRealCrossings(t *testing.T) {
	// Two independent edges drawn crossed still count once.
	g := portgraph.New()
	_, pa := vertexWithPorts(t, g, "A", 2)
	_, pb := vertexWithPorts(t, g, "B", 1)
	_, pc := vertexWithPorts(t, g, "C", 1)
	connect(t, g, pa[0], pb[0])
	connect(t, g, pa[1], pc[0])

	l := New(g, bfsConfig())
	_, err := l.Run()
	require.NoError(t, err)
	require.Equal(t, 0, l.Crossings())

	o := l.Order().Clone()
	slices.Reverse(o.Layers[1])
	assert.Equal(t, 1, l.CountCrossings(o))
}

func TestRunDrawsEveryElement(t *testing.T) {
	g := portgraph.New()
	_, pa := vertexWithPorts(t, g, "source", 2)
	_, pb := vertexWithPorts(t, g, "middle", 2)
	_, pc := vertexWithPorts(t, g, "sink", 2)
	connect(t, g, pa[0], pb[0])
	connect(t, g, pb[1], pc[0])
	connect(t, g, pa[1], pc[1])

	res, err := New(g, bfsConfig()).Run()
	require.NoError(t, err)
	assert.Greater(t, res.Width, 0.0)
	assert.Greater(t, res.Height, 0.0)

	for _, v := range g.Vertices() {
		s := g.Vertex(v).Shape
		require.NotNil(t, s, "vertex %d", v)
		assert.Greater(t, s.W, 0.0)
	}
	for _, p := range g.Ports() {
		require.NotNil(t, g.Port(p).Shape, "port %d", p)
	}
	for _, e := range g.Edges() {
		edge := g.Edge(e)
		require.Len(t, edge.Paths, 1, "edge %d", e)
		path := edge.Paths[0]
		require.GreaterOrEqual(t, len(path), 2)
		assertOrthogonal(t, path)

		first := g.Port(edge.Ports[0]).Shape
		last := g.Port(edge.Ports[1]).Shape
		assert.InDelta(t, first.CenterX(), path[0].X, 1e-9)
		assert.InDelta(t, last.CenterX(), path[len(path)-1].X, 1e-9)
	}
}

func TestStagesRunInOrder(t *testing.T) {
	g, _, _, _ := fanOut(t)
	l := New(g, bfsConfig())

	err := l.AssignLayers()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeStageOrder))

	require.NoError(t, l.Normalize())
	assert.True(t, errors.Is(l.Normalize(), errors.ErrCodeStageOrder))
	assert.Equal(t, StageNormalized, l.Stage())

	for l.Stage() < StageRouted {
		_, err := l.Advance()
		require.NoError(t, err)
	}
	_, err = l.Advance()
	assert.True(t, errors.Is(err, errors.ErrCodeStageOrder))
}

func TestEmptyGraph(t *testing.T) {
	res, err := New(portgraph.New(), DefaultConfig()).Run()
	require.NoError(t, err)
	assert.Zero(t, res.Width)
	assert.Zero(t, res.Height)
	assert.Zero(t, res.Crossings)
	assert.Zero(t, res.Ranks)
}

func TestEdgelessGraph(t *testing.T) {
	g := portgraph.New()
	g.AddVertex("lonely")
	g.AddVertex("alone")

	res, err := New(g, DefaultConfig()).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ranks)
	for _, v := range g.Vertices() {
		assert.NotNil(t, g.Vertex(v).Shape)
	}
}

// =============================================================================
// Normalization
// =============================================================================

func TestHyperEdgeStar(t *testing.T) {
	g := portgraph.New()
	_, a := vertexWithPorts(t, g, "a", 1)
	_, b := vertexWithPorts(t, g, "b", 1)
	_, c := vertexWithPorts(t, g, "c", 1)
	e := connect(t, g, a[0], b[0], c[0])
	e2 := g.Edge(e)
	e2.Label = "bus"

	l := New(g, DefaultConfig())
	require.NoError(t, l.Normalize())
	w := l.Working()

	assert.Nil(t, w.Edge(e))
	assert.Equal(t, 3, w.EdgeCount())
	assert.Equal(t, 4, w.VertexCount())
	for _, id := range w.Edges() {
		assert.Len(t, w.Edge(id).Ports, 2)
	}

	res := l.Result()
	require.Len(t, res.HyperEdges, 1)
	for rep, orig := range res.HyperEdges {
		assert.Equal(t, e, orig)
		assert.Equal(t, "EdgeRep_for_bus_#0", w.Vertex(rep).MainLabel())
		assert.Len(t, w.PortsOf(rep), 3)
		assert.True(t, l.IsDummy(rep))
	}

	// The caller's graph is untouched until the drawing is written.
	assert.NotNil(t, g.Edge(e))
	assert.Equal(t, 3, g.VertexCount())
}

func TestSelfLoopRegistry(t *testing.T) {
	g := portgraph.New()
	v, pv := vertexWithPorts(t, g, "v", 3)
	w, pw := vertexWithPorts(t, g, "w", 1)
	loop := connect(t, g, pv[0], pv[1])
	connect(t, g, pv[2], pw[0])

	l := New(g, bfsConfig())
	require.NoError(t, l.Normalize())
	assert.Nil(t, l.Working().Edge(loop))
	assert.Equal(t, []portgraph.EdgeID{loop}, l.LoopEdges()[v])
	assert.NotContains(t, l.LoopEdges(), w)
	for _, e := range l.Working().Edges() {
		vs := l.Working().EdgeVertices(e)
		assert.NotEqual(t, vs[0], vs[1])
	}

	res, err := l.Run()
	require.NoError(t, err)
	assert.Equal(t, []portgraph.EdgeID{loop}, res.LoopEdges[v])
	require.Len(t, g.Edge(loop).Paths, 1)
	assertOrthogonal(t, g.Edge(loop).Paths[0])

	// Free self-loop ports sit on the bottom side.
	s, ok := l.PortSide(pv[0])
	require.True(t, ok)
	assert.Equal(t, Bottom, s)
}

func TestDegenerateEdgeIsDropped(t *testing.T) {
	g := portgraph.New()
	_, p := vertexWithPorts(t, g, "v", 1)
	e := connect(t, g, p[0])

	l := New(g, DefaultConfig())
	require.NoError(t, l.Normalize())
	assert.Nil(t, l.Working().Edge(e))
	require.Len(t, l.Diagnostics(), 1)
	assert.Contains(t, l.Diagnostics()[0], "dropped degenerate edge")
}

// mixedGraph exercises every normalization step.
func mixedGraph(t *testing.T) *portgraph.Graph {
	g := portgraph.New()
	_, a := vertexWithPorts(t, g, "a", 3)
	_, b := vertexWithPorts(t, g, "b", 2)
	_, c := vertexWithPorts(t, g, "c", 1)
	x, px := vertexWithPorts(t, g, "x", 1)
	y, py := vertexWithPorts(t, g, "y", 2)
	g.AddVertex("portless")

	orphan, err := g.AddPort(portgraph.NoVertex, "floating")
	require.NoError(t, err)

	e1 := connect(t, g, a[0], b[0])
	e2 := connect(t, g, a[0], c[0])
	connect(t, g, a[1], b[1], c[0])
	connect(t, g, a[2], a[2])
	connect(t, g, px[0], py[0])
	connect(t, g, py[1], orphan)

	vg, err := g.AddVertexGroup("xy", x, y)
	require.NoError(t, err)
	require.NoError(t, g.AddTouchingPair(vg, x, y))
	_, err = g.AddEdgeBundle(e1, e2)
	require.NoError(t, err)
	return g
}

func assertNormalized(t *testing.T, w *portgraph.Graph) {
	t.Helper()
	for _, e := range w.Edges() {
		ports := w.Edge(e).Ports
		require.Len(t, ports, 2, "edge %d", e)
		assert.NotEqual(t, ports[0], ports[1])
		vs := w.EdgeVertices(e)
		assert.NotEqual(t, vs[0], vs[1], "edge %d is a self-loop", e)
	}
	for _, p := range w.Ports() {
		assert.LessOrEqual(t, len(w.Port(p).Edges), 1, "port %d", p)
		assert.NotEqual(t, portgraph.NoVertex, w.Port(p).Vertex, "port %d is an orphan", p)
	}
	for _, v := range w.Vertices() {
		assert.NotEmpty(t, w.PortsOf(v), "vertex %d", v)
	}
	assert.Empty(t, w.VertexGroups())
	assert.Empty(t, w.Bundles())
}

func TestNormalizationClosure(t *testing.T) {
	l := New(mixedGraph(t), DefaultConfig())
	require.NoError(t, l.Normalize())
	assertNormalized(t, l.Working())
	assert.Len(t, l.Result().HyperEdges, 1)
	// The doubled port of a and the edge inside the collapsed group.
	assert.Len(t, l.Result().LoopEdges, 2)
}

func TestNormalizationIsIdempotent(t *testing.T) {
	l := New(mixedGraph(t), DefaultConfig())
	require.NoError(t, l.Normalize())
	once := l.Working()

	again := New(once, DefaultConfig())
	require.NoError(t, again.Normalize())
	twice := again.Working()

	assert.Equal(t, once.Vertices(), twice.Vertices())
	assert.Equal(t, once.Ports(), twice.Ports())
	assert.Equal(t, once.Edges(), twice.Edges())
	for _, e := range once.Edges() {
		assert.Equal(t, once.Edge(e).Ports, twice.Edge(e).Ports)
	}
	assert.Empty(t, again.Diagnostics())
}

// working maps every port of the caller's graph to the ports that replace
// it in the working graph.
func working(l *Layouter) map[portgraph.PortID][]portgraph.PortID {
	out := map[portgraph.PortID][]portgraph.PortID{}
	for _, q := range slices.Sorted(maps.Keys(l.replacedPorts)) {
		p := l.replacedPorts[q]
		out[p] = append(out[p], q)
	}
	return out
}

func TestBundledPortsShareGroup(t *testing.T) {
	g := portgraph.New()
	a, pa := vertexWithPorts(t, g, "a", 3)
	_, pb := vertexWithPorts(t, g, "b", 1)
	_, pc := vertexWithPorts(t, g, "c", 1)
	_, pd := vertexWithPorts(t, g, "d", 1)
	e1 := connect(t, g, pa[0], pb[0])
	e2 := connect(t, g, pa[2], pc[0])
	connect(t, g, pa[1], pd[0])
	_, err := g.AddEdgeBundle(e1, e2)
	require.NoError(t, err)

	l := New(g, DefaultConfig())
	require.NoError(t, l.Normalize())
	w := l.Working()

	grp := w.Port(pa[0]).Group
	require.NotEqual(t, portgraph.NoPortGroup, grp)
	assert.Equal(t, grp, w.Port(pa[2]).Group)
	assert.Equal(t, portgraph.NoPortGroup, w.Port(pa[1]).Group)
	assert.False(t, w.PortGroup(grp).Ordered)
	assert.Equal(t, a, w.PortGroup(grp).Vertex)
	assert.Empty(t, w.Bundles())
}

// jack is a plug mated with a socket. X feeds the ordered ports of the
// plug, each paired with a socket port that feeds Y. X carries three extra
// leaves so it has the most edges.
type jack struct {
	g      *portgraph.Graph
	group  portgraph.VertexGroupID
	plug   []portgraph.PortID
	socket []portgraph.PortID
}

func jackGraph(t *testing.T) jack {
	g := portgraph.New()
	_, px := vertexWithPorts(t, g, "X", 5)
	plug, pp := vertexWithPorts(t, g, "plug", 2)
	socket, ps := vertexWithPorts(t, g, "socket", 2)
	_, py := vertexWithPorts(t, g, "Y", 2)
	for i := range 3 {
		_, leaf := vertexWithPorts(t, g, fmt.Sprintf("leaf%d", i), 1)
		connect(t, g, px[2+i], leaf[0])
	}

	pg, err := g.AddPortGroup(plug, portgraph.NoPortGroup, true)
	require.NoError(t, err)
	for _, p := range pp {
		require.NoError(t, g.MoveInto(portgraph.PortItem(p), pg))
	}
	for i := range 2 {
		connect(t, g, px[i], pp[i])
		connect(t, g, ps[i], py[i])
	}

	vg, err := g.AddVertexGroup("jack", plug, socket)
	require.NoError(t, err)
	require.NoError(t, g.AddTouchingPair(vg, plug, socket))
	require.NoError(t, g.AddPortPairing(vg, pp[0], ps[0]))
	require.NoError(t, g.AddPortPairing(vg, pp[1], ps[1]))
	return jack{g: g, group: vg, plug: pp, socket: ps}
}

func TestConnectorKeepsPortGroupsAndPairings(t *testing.T) {
	j := jackGraph(t)
	require.True(t, j.g.IsConnector(j.group))

	l := New(j.g, bfsConfig())
	require.NoError(t, l.Normalize())
	w := l.Working()
	res := l.Result()

	assert.Empty(t, res.VertexGroups)
	require.Len(t, res.Plugs, 1)
	for _, vg := range res.Plugs {
		assert.Equal(t, j.group, vg)
	}

	repl := working(l)
	for i := range 2 {
		require.Len(t, repl[j.plug[i]], 1)
		require.Len(t, repl[j.socket[i]], 1)
		rp, rs := repl[j.plug[i]][0], repl[j.socket[i]][0]

		paired, ok := l.PairedPort(rp)
		require.True(t, ok)
		assert.Equal(t, rs, paired)

		// plug ports: ordered group inside the plug's member group.
		inner := w.PortGroup(w.Port(rp).Group)
		require.NotNil(t, inner)
		assert.True(t, inner.Ordered)
		outer := w.PortGroup(inner.Parent)
		require.NotNil(t, outer)
		assert.False(t, outer.Ordered)
		assert.Equal(t, portgraph.NoPortGroup, outer.Parent)

		// socket ports: directly in the socket's member group.
		member := w.PortGroup(w.Port(rs).Group)
		require.NotNil(t, member)
		assert.Equal(t, portgraph.NoPortGroup, member.Parent)
		assert.NotEqual(t, outer.ID, member.ID)
	}
}

func TestPairedPortsAreAligned(t *testing.T) {
	j := jackGraph(t)
	l := New(j.g, bfsConfig())
	_, err := l.Run()
	require.NoError(t, err)

	w := l.Working()
	repl := working(l)
	for i := range 2 {
		sp := w.Port(repl[j.plug[i]][0]).Shape
		ss := w.Port(repl[j.socket[i]][0]).Shape
		require.NotNil(t, sp)
		require.NotNil(t, ss)
		assert.InDelta(t, sp.CenterX(), ss.CenterX(), 1e-6, "pair %d", i)
	}
}

func TestDevicePortsWithoutEdgesAreSpread(t *testing.T) {
	// dev is the device of the group: only m carries the pairing. H has
	// the most edges so the group sits below it.
	g := portgraph.New()
	_, ph := vertexWithPorts(t, g, "H", 4)
	dev, pdev := vertexWithPorts(t, g, "dev", 2)
	m, pm := vertexWithPorts(t, g, "m", 2)
	_, pz := vertexWithPorts(t, g, "Z", 1)
	for i := range 2 {
		_, leaf := vertexWithPorts(t, g, fmt.Sprintf("leaf%d", i), 1)
		connect(t, g, ph[2+i], leaf[0])
	}
	connect(t, g, ph[0], pdev[0])
	connect(t, g, ph[1], pm[0])
	connect(t, g, pm[1], pz[0])

	vg, err := g.AddVertexGroup("board", dev, m)
	require.NoError(t, err)
	require.NoError(t, g.AddTouchingPair(vg, dev, m))
	require.NoError(t, g.AddPortPairing(vg, pm[0], pm[1]))
	require.True(t, g.IsDeviceVertex(dev))
	require.False(t, g.IsDeviceVertex(m))

	l := New(g, bfsConfig())
	require.NoError(t, l.Normalize())
	repl := working(l)
	assert.Empty(t, repl[pdev[1]], "edgeless device port is carried over")
	assert.Len(t, repl[pdev[0]], 1)
	require.Len(t, l.Result().VertexGroups, 1)
	for rep := range l.Result().VertexGroups {
		assert.Len(t, l.Working().PortsOf(rep), 3)
	}

	_, err = l.Run()
	require.NoError(t, err)
	box := g.Vertex(dev).Shape
	port := g.Port(pdev[1]).Shape
	require.NotNil(t, box)
	require.NotNil(t, port)
	assert.InDelta(t, box.Y-l.cfg.Drawing.PortHeight, port.Y, 1e-6)
	assert.GreaterOrEqual(t, port.CenterX(), box.X)
	assert.LessOrEqual(t, port.CenterX(), box.Right())
}

func TestSplitPortTakesOverPairing(t *testing.T) {
	// u is alone in a group with its two ports paired; u.in has two edges
	// from S, which has the most edges.
	g := portgraph.New()
	_, psrc := vertexWithPorts(t, g, "S", 4)
	u, pu := vertexWithPorts(t, g, "u", 2)
	_, pt := vertexWithPorts(t, g, "t", 1)
	for i := range 2 {
		_, leaf := vertexWithPorts(t, g, fmt.Sprintf("leaf%d", i), 1)
		connect(t, g, psrc[2+i], leaf[0])
	}
	connect(t, g, psrc[0], pu[0])
	connect(t, g, psrc[1], pu[0])
	connect(t, g, pu[1], pt[0])
	vg, err := g.AddVertexGroup("u", u)
	require.NoError(t, err)
	require.NoError(t, g.AddPortPairing(vg, pu[0], pu[1]))

	l := New(g, bfsConfig())
	res, err := l.Run()
	require.NoError(t, err)
	w := l.Working()

	require.Len(t, res.ReplacedPairings, 1)
	for now, was := range res.ReplacedPairings {
		// was: the representative ports of u.in and u.out.
		assert.Equal(t, pu[0], l.replacedPorts[was.A])
		assert.Equal(t, pu[1], l.replacedPorts[was.B])
		assert.Nil(t, w.Port(was.A), "split port is still in the working graph")

		// now: the first port split from u.in, paired with u.out.
		assert.Equal(t, was.A, l.splitOf[now.A])
		assert.Equal(t, was.B, now.B)
		paired, ok := l.PairedPort(now.A)
		require.True(t, ok)
		assert.Equal(t, now.B, paired)

		sa, sb := w.Port(now.A).Shape, w.Port(now.B).Shape
		require.NotNil(t, sa)
		require.NotNil(t, sb)
		assert.InDelta(t, sa.CenterX(), sb.CenterX(), 1e-6)
	}
}

func TestRestorationRoundTrip(t *testing.T) {
	g := portgraph.New()
	x, px := vertexWithPorts(t, g, "x", 1)
	y, _ := vertexWithPorts(t, g, "y", 1)
	z, pz := vertexWithPorts(t, g, "z", 1)
	_, pu := vertexWithPorts(t, g, "u", 1)
	_, pw := vertexWithPorts(t, g, "w", 1)
	connect(t, g, px[0], pu[0])
	connect(t, g, pz[0], pw[0])
	vg, err := g.AddVertexGroup("xyz", x, y, z)
	require.NoError(t, err)
	require.NoError(t, g.AddTouchingPair(vg, x, y))
	require.NoError(t, g.AddTouchingPair(vg, y, z))
	require.NoError(t, g.AddTouchingPair(vg, x, z))

	vertices, ports, edges := g.Vertices(), g.Ports(), g.Edges()
	edgePorts := map[portgraph.EdgeID][]portgraph.PortID{}
	for _, e := range edges {
		edgePorts[e] = slices.Clone(g.Edge(e).Ports)
	}

	res, err := New(g, bfsConfig()).Run()
	require.NoError(t, err)
	assert.Len(t, res.VertexGroups, 1)

	assert.Equal(t, vertices, g.Vertices())
	assert.Equal(t, ports, g.Ports())
	assert.Equal(t, edges, g.Edges())
	assert.Equal(t, []portgraph.VertexGroupID{vg}, g.VertexGroups())
	assert.ElementsMatch(t, []portgraph.VertexID{x, y, z}, g.GroupVertices(vg))
	for _, e := range edges {
		assert.Equal(t, edgePorts[e], g.Edge(e).Ports)
		assert.NotEmpty(t, g.Edge(e).Paths)
	}
	for _, v := range vertices {
		assert.NotNil(t, g.Vertex(v).Shape, "vertex %d", v)
	}
	for _, p := range ports {
		assert.NotNil(t, g.Port(p).Shape, "port %d", p)
	}

	group := g.VertexGroup(vg).Shape
	require.NotNil(t, group)
	for _, v := range []portgraph.VertexID{x, y, z} {
		s := g.Vertex(v).Shape
		assert.Equal(t, group.Y, s.Y)
		assert.Equal(t, group.H, s.H)
	}
}

func TestSkipRestoreKeepsNormalizedGraph(t *testing.T) {
	g := mixedGraph(t)
	cfg := bfsConfig()
	cfg.SkipRestore = true
	_, err := New(g, cfg).Run()
	require.NoError(t, err)

	assertNormalized(t, g)
	for _, v := range g.Vertices() {
		assert.NotNil(t, g.Vertex(v).Shape, "vertex %d", v)
	}
	for _, e := range g.Edges() {
		assert.NotEmpty(t, g.Edge(e).Paths, "edge %d", e)
	}
}

// =============================================================================
// Directions and layers
// =============================================================================

func TestRankMonotonicity(t *testing.T) {
	for _, method := range []DirectionMethod{DirectionForce, DirectionBFS, DirectionRandom} {
		t.Run(string(method), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Direction = method
			cfg.DirectionIterations = 3
			l := New(mixedGraph(t), cfg)
			require.NoError(t, l.Normalize())
			require.NoError(t, l.AssignDirections())
			require.NoError(t, l.AssignLayers())

			require.NotZero(t, l.Working().EdgeCount())
			for _, e := range l.Working().Edges() {
				from, to, ok := l.Direction(e)
				require.True(t, ok, "edge %d", e)
				rf, _ := l.Rank(from)
				rt, _ := l.Rank(to)
				assert.GreaterOrEqual(t, rt, rf+1, "edge %d", e)
			}
		})
	}
}

func TestDummiesSpanOneRank(t *testing.T) {
	l := New(mixedGraph(t), bfsConfig())
	for l.Stage() < StageDummies {
		_, err := l.Advance()
		require.NoError(t, err)
	}
	w := l.Working()
	for _, e := range w.Edges() {
		ports := w.Edge(e).Ports
		sa, _ := l.PortSide(ports[0])
		sb, _ := l.PortSide(ports[1])
		ra, _ := l.Rank(w.Port(ports[0]).Vertex)
		rb, _ := l.Rank(w.Port(ports[1]).Vertex)
		if ra > rb {
			ra, rb, sa, sb = rb, ra, sb, sa
		}
		assert.Equal(t, ra+1, rb, "edge %d", e)
		assert.Equal(t, Bottom, sa, "edge %d", e)
		assert.Equal(t, Top, sb, "edge %d", e)
	}
}

func TestCopyDirections(t *testing.T) {
	g, _, _, _ := fanOut(t)
	src := New(g, bfsConfig())
	require.NoError(t, src.Normalize())
	require.NoError(t, src.AssignDirections())

	dst := New(g, DefaultConfig())
	require.NoError(t, dst.Normalize())
	require.NoError(t, dst.CopyDirections(src))
	for _, e := range dst.Working().Edges() {
		f1, t1, _ := src.Direction(e)
		f2, t2, _ := dst.Direction(e)
		assert.Equal(t, f1, f2)
		assert.Equal(t, t1, t2)
	}
}

func TestCopyDirectionsRejectsMismatch(t *testing.T) {
	g, _, _, _ := fanOut(t)
	src := New(g, bfsConfig())
	require.NoError(t, src.Normalize())

	other := bipartite(t, 2)
	dst := New(other, bfsConfig())
	require.NoError(t, dst.Normalize())

	err := dst.CopyDirections(src)
	assert.True(t, errors.Is(err, errors.ErrCodePrecondition), "undirected source: %v", err)

	require.NoError(t, src.AssignDirections())
	err = dst.CopyDirections(src)
	assert.True(t, errors.Is(err, errors.ErrCodePrecondition), "different graph: %v", err)
}

// =============================================================================
// Crossings and placement
// =============================================================================

func TestCrossingsDoNotIncreaseOverIterations(t *testing.T) {
	for _, method := range []CrossingMethod{CrossingVertices, CrossingMixed, CrossingPorts} {
		t.Run(string(method), func(t *testing.T) {
			run := func(iterations int) *Layouter {
				cfg := bfsConfig()
				cfg.Crossing = method
				cfg.CrossingIterations = iterations
				l := New(bipartite(t, 4), cfg)
				for l.Stage() < StageOrdered {
					_, err := l.Advance()
					require.NoError(t, err)
				}
				return l
			}
			first, kept := run(1), run(6)
			assert.LessOrEqual(t, kept.Crossings(), first.Crossings())
			assert.Equal(t, kept.Crossings(), kept.CountCrossings(kept.Order()))
		})
	}
}

func TestMinimizeCrossingsImprovesInitialOrder(t *testing.T) {
	l := New(bipartite(t, 3), bfsConfig())
	for l.Stage() < StageDummies {
		_, err := l.Advance()
		require.NoError(t, err)
	}
	initial := l.CountCrossings(l.Order())
	require.NoError(t, l.MinimizeCrossings())
	assert.LessOrEqual(t, l.Crossings(), initial)
}

func TestMinimumSpacing(t *testing.T) {
	cfg := bfsConfig()
	l := New(bipartite(t, 3), cfg)
	_, err := l.Run()
	require.NoError(t, err)

	w, o := l.Working(), l.Order()
	gap := cfg.Drawing.delta()
	for r := range o.Layers {
		for _, s := range []Side{Top, Bottom} {
			seq := o.Sequence(r, s)
			for i := 1; i < len(seq); i++ {
				a, b := w.Port(seq[i-1]), w.Port(seq[i])
				if a.Vertex == b.Vertex {
					continue
				}
				dist := b.Shape.CenterX() - a.Shape.CenterX() - (a.Shape.W+b.Shape.W)/2
				assert.GreaterOrEqual(t, dist, gap-1e-6, "rank %d %s ports %d and %d", r, s, a.ID, b.ID)
			}
		}
	}
}

func TestCountInversionsMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		width := 1 + rng.IntN(8)
		segments := make([][2]int, rng.IntN(20))
		for i := range segments {
			segments[i] = [2]int{rng.IntN(8), rng.IntN(width)}
		}
		want := 0
		for i := range segments {
			for j := range segments {
				if segments[i][0] < segments[j][0] && segments[i][1] > segments[j][1] {
					want++
				}
			}
		}
		assert.Equal(t, want, countInversions(slices.Clone(segments), width))
	}
}

func TestArrangeKeepsUnkeyedSlots(t *testing.T) {
	key := func(s string) float64 {
		switch s {
		case "a":
			return 3
		case "c":
			return 1
		case "d":
			return 2
		}
		return 0 / zero
	}
	got := arrange([]string{"a", "b", "c", "d"}, key)
	assert.Equal(t, []string{"c", "b", "d", "a"}, got)
}

var zero float64

func ExampleLayouter_Run() {
	g := portgraph.New()
	a := g.AddVertex("A")
	b := g.AddVertex("B")
	c := g.AddVertex("C")
	pa, _ := g.AddPort(a, "out")
	pb, _ := g.AddPort(b, "in")
	pc, _ := g.AddPort(c, "in")
	g.AddEdge(pa, pb)
	g.AddEdge(pa, pc)

	cfg := DefaultConfig()
	cfg.Direction = DirectionBFS
	res, err := New(g, cfg).Run()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("ranks=%d crossings=%d\n", res.Ranks, res.Crossings)
	// Output: ranks=2 crossings=0
}
