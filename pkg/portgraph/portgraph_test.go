package portgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPortAndFlatten(t *testing.T) {
	g := New()
	v := g.AddVertex("device")
	p0, err := g.AddPort(v, "a")
	require.NoError(t, err)
	pg, err := g.AddPortGroup(v, NoPortGroup, true)
	require.NoError(t, err)
	p1, err := g.AddPortToGroup(pg, "b")
	require.NoError(t, err)
	p2, err := g.AddPortToGroup(pg, "c")
	require.NoError(t, err)
	p3, err := g.AddPort(v, "d")
	require.NoError(t, err)

	assert.Equal(t, []PortID{p0, p1, p2, p3}, g.PortsOf(v))
	first, ok := g.FirstPort(g.Vertex(v).Items)
	require.True(t, ok)
	assert.Equal(t, p0, first)
	assert.Equal(t, pg, g.Port(p1).Group)
}

func TestAddPortUnknownVertex(t *testing.T) {
	g := New()
	_, err := g.AddPort(VertexID(3), "x")
	assert.ErrorIs(t, err, ErrUnknownVertex)
}

func TestWrapPortKeepsPosition(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	a, _ := g.AddPort(v, "a")
	b, _ := g.AddPort(v, "b")
	c, _ := g.AddPort(v, "c")

	pg, err := g.WrapPort(b, false)
	require.NoError(t, err)
	extra, err := g.AddPortToGroup(pg, "b2")
	require.NoError(t, err)

	assert.Equal(t, []PortID{a, b, extra, c}, g.PortsOf(v))
	assert.True(t, g.Vertex(v).Items[1].IsGroup())
}

func TestMoveIntoRejectsForeignVertex(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	w := g.AddVertex("w")
	p, _ := g.AddPort(v, "p")
	pg, _ := g.AddPortGroup(w, NoPortGroup, false)

	assert.ErrorIs(t, g.MoveInto(PortItem(p), pg), ErrForeignComposition)
}

func TestRemovePortDetachesEdges(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	w := g.AddVertex("w")
	p, _ := g.AddPort(v, "p")
	q, _ := g.AddPort(w, "q")
	e, err := g.AddEdge(p, q)
	require.NoError(t, err)

	g.RemovePort(p)

	assert.Nil(t, g.Port(p))
	assert.Equal(t, []PortID{q}, g.Edge(e).Ports)
	assert.Empty(t, g.PortsOf(v))
}

func TestRepeatedPortIncidences(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	p, _ := g.AddPort(v, "p")
	e, err := g.AddEdge(p, p)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{e, e}, g.Port(p).Edges)

	fresh, _ := g.AddPort(v, "fresh")
	require.NoError(t, g.ReplaceEdgePortAt(e, 1, fresh))
	assert.Equal(t, []PortID{p, fresh}, g.Edge(e).Ports)
	assert.Equal(t, []EdgeID{e}, g.Port(p).Edges)
	assert.Equal(t, []EdgeID{e}, g.Port(fresh).Edges)
}

func TestMoveEdges(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	w := g.AddVertex("w")
	p, _ := g.AddPort(v, "p")
	q, _ := g.AddPort(w, "q")
	r, _ := g.AddPort(w, "r")
	e1, _ := g.AddEdge(p, q)
	e2, _ := g.AddEdge(q, p)

	require.NoError(t, g.MoveEdges(q, r))
	assert.Empty(t, g.Port(q).Edges)
	assert.ElementsMatch(t, []EdgeID{e1, e2}, g.Port(r).Edges)
	assert.Equal(t, []PortID{p, r}, g.Edge(e1).Ports)
	assert.Equal(t, []PortID{r, p}, g.Edge(e2).Ports)
}

func TestRemoveVertexGroupUngroupsMembers(t *testing.T) {
	g := New()
	a := g.AddVertex("a")
	b := g.AddVertex("b")
	outer, _ := g.AddVertexGroup("outer", a)
	inner, _ := g.AddVertexGroup("inner", b)
	require.NoError(t, g.NestVertexGroup(outer, inner))

	assert.Equal(t, []VertexID{a, b}, g.GroupVertices(outer))
	assert.Equal(t, []VertexGroupID{outer}, g.TopLevelVertexGroups())

	g.RemoveVertexGroup(outer)
	assert.Empty(t, g.VertexGroups())
	assert.Equal(t, NoVertexGroup, g.Vertex(a).Group)
	assert.Equal(t, NoVertexGroup, g.Vertex(b).Group)
}

func TestConnectorAndDevice(t *testing.T) {
	g := New()
	plug := g.AddVertex("plug")
	socket := g.AddVertex("socket")
	pp, _ := g.AddPort(plug, "pin")
	sp, _ := g.AddPort(socket, "pin")
	conn, _ := g.AddVertexGroup("connector", plug, socket)
	require.NoError(t, g.AddTouchingPair(conn, plug, socket))
	require.NoError(t, g.AddPortPairing(conn, pp, sp))

	assert.True(t, g.StickTogether(conn))
	assert.True(t, g.IsConnector(conn))
	assert.False(t, g.IsDeviceVertex(plug))

	dev := g.AddVertex("device")
	a := g.AddVertex("adapter")
	dp, _ := g.AddPort(dev, "unused")
	ap, _ := g.AddPort(a, "in")
	aq, _ := g.AddPort(a, "out")
	box, _ := g.AddVertexGroup("box", dev, a)
	require.NoError(t, g.AddPortPairing(box, ap, aq))
	_ = dp

	assert.False(t, g.IsConnector(box))
	assert.True(t, g.IsDeviceVertex(dev))
	assert.False(t, g.IsDeviceVertex(a))
}

func TestCloneSharesIdentifiers(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	w := g.AddVertex("w")
	p, _ := g.AddPort(v, "p")
	q, _ := g.AddPort(w, "q")
	e, _ := g.AddEdge(p, q)
	g.RemoveVertex(v)

	c := g.Clone()
	c.Edge(e).Paths = []Path{{{X: 1, Y: 2}}}

	assert.Nil(t, c.Vertex(v))
	assert.NotNil(t, c.Vertex(w))
	assert.Equal(t, []PortID{q}, c.Edge(e).Ports)
	assert.Empty(t, g.Edge(e).Paths)
}

func TestBundleEdgesRecursive(t *testing.T) {
	g := New()
	v := g.AddVertex("v")
	w := g.AddVertex("w")
	p1, _ := g.AddPort(v, "1")
	p2, _ := g.AddPort(v, "2")
	q1, _ := g.AddPort(w, "1")
	q2, _ := g.AddPort(w, "2")
	e1, _ := g.AddEdge(p1, q1)
	e2, _ := g.AddEdge(p2, q2)
	outer, _ := g.AddEdgeBundle(e1)
	inner, _ := g.AddEdgeBundle(e2)
	require.NoError(t, g.NestBundle(outer, inner))

	assert.Equal(t, []EdgeID{e1, e2}, g.BundleEdges(outer))
	assert.Equal(t, []BundleID{outer}, g.TopLevelBundles())

	g.RemoveEdge(e2)
	assert.Equal(t, []EdgeID{e1}, g.BundleEdges(outer))
}

func TestPathSimplify(t *testing.T) {
	p := Path{{0, 0}, {0, 5}, {0, 5}, {0, 10}, {4, 10}, {8, 10}, {8, 20}}
	assert.Equal(t, Path{{0, 0}, {0, 10}, {8, 10}, {8, 20}}, p.Simplify())
}
