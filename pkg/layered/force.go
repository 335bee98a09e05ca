package layered

import (
	"cmp"
	"maps"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// forceStrategy runs a force-directed layout several times and orients edges
// downwards in the resulting positions. Every candidate orientation is
// evaluated by a trial layering and crossing minimization on a copy of the
// layouter; the one with the fewest crossings wins, ties keep the earlier.
type forceStrategy struct {
	iterations int
}

func (f forceStrategy) assign(l *Layouter) error {
	if l.g.VertexCount() < 2 || l.g.EdgeCount() == 0 {
		return bfsStrategy{}.assign(l)
	}

	var best map[portgraph.EdgeID]portgraph.VertexID
	bestCrossings := -1
	for i := range max(f.iterations, 1) {
		l.clearDirections()
		l.orientByForce()
		if f.iterations <= 1 {
			return nil
		}
		c, err := l.trialCrossings()
		if err != nil {
			return err
		}
		l.log.Debug("force orientation", "iteration", i, "crossings", c)
		if bestCrossings < 0 || c < bestCrossings {
			bestCrossings = c
			best = maps.Clone(l.start)
		}
	}

	l.clearDirections()
	for e, s := range best {
		vs := l.g.EdgeVertices(e)
		t := vs[0]
		if t == s {
			t = vs[1]
		}
		l.assignDirection(e, s, t)
	}
	return nil
}

// orientByForce computes one Eades layout and directs every edge from the
// upper to the lower endpoint.
func (l *Layouter) orientByForce() {
	ug := simple.NewUndirectedGraph()
	for _, v := range l.g.Vertices() {
		ug.AddNode(simple.Node(v))
	}
	for _, e := range l.g.Edges() {
		vs := l.g.EdgeVertices(e)
		if vs[0] != vs[1] {
			ug.SetEdge(ug.NewEdge(simple.Node(vs[0]), simple.Node(vs[1])))
		}
	}

	eades := layout.EadesR2{
		Updates:   30,
		Repulsion: 1,
		Rate:      0.05,
		Theta:     0.2,
		Src:       rand.NewPCG(l.rng.Uint64(), l.rng.Uint64()),
	}
	o := layout.NewOptimizerR2(ug, eades.Update)
	for o.Update() {
	}

	type point struct{ x, y float64 }
	pos := map[portgraph.VertexID]point{}
	for _, v := range l.g.Vertices() {
		c := o.Coord2(int64(v))
		pos[v] = point{c.X, c.Y}
	}
	rank := map[portgraph.VertexID]int{}
	sorted := l.g.Vertices()
	slices.SortFunc(sorted, func(a, b portgraph.VertexID) int {
		pa, pb := pos[a], pos[b]
		return cmp.Or(cmp.Compare(pa.y, pb.y), cmp.Compare(pa.x, pb.x), cmp.Compare(a, b))
	})
	for i, v := range sorted {
		rank[v] = i
	}
	l.orientByRank(func(v portgraph.VertexID) int { return rank[v] })
}

// trialCrossings runs layering, dummy insertion and one crossing
// minimization iteration on a copy of l and returns the crossing count.
func (l *Layouter) trialCrossings() (int, error) {
	t := l.trial()
	t.stage = StageDirected
	if err := t.AssignLayers(); err != nil {
		return 0, err
	}
	if err := t.CreateDummies(); err != nil {
		return 0, err
	}
	t.cfg.CrossingIterations = 1
	if err := t.MinimizeCrossings(); err != nil {
		return 0, err
	}
	return t.crossings, nil
}

// trial returns a copy of l that can run the later stages without touching
// l. Normalization records are shared read-only.
func (l *Layouter) trial() *Layouter {
	t := *l
	t.g = l.g.Clone()
	t.start = maps.Clone(l.start)
	t.end = maps.Clone(l.end)
	t.rng = rand.New(rand.NewPCG(l.rng.Uint64(), l.rng.Uint64()))
	t.log = l.log.With("trial", true)
	t.diagnostics = nil
	return &t
}
