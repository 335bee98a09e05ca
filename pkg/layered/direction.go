package layered

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// directionStrategy orients the edges of the working graph.
type directionStrategy interface {
	assign(l *Layouter) error
}

func strategyFor(m DirectionMethod, iterations int) (directionStrategy, error) {
	switch m {
	case DirectionForce:
		return forceStrategy{iterations: iterations}, nil
	case DirectionBFS:
		return bfsStrategy{}, nil
	case DirectionRandom:
		return randomStrategy{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown direction method %q", m)
}

// AssignDirections orients every edge with the configured method. The result
// is always acyclic.
func (l *Layouter) AssignDirections() error {
	if err := l.require(StageNormalized); err != nil {
		return err
	}
	s, err := strategyFor(l.cfg.Direction, l.cfg.DirectionIterations)
	if err != nil {
		return err
	}
	if err := s.assign(l); err != nil {
		return err
	}
	if err := l.checkAcyclic(); err != nil {
		return err
	}
	l.stage = StageDirected
	l.log.Debug("assigned directions", "method", l.cfg.Direction, "edges", len(l.start))
	return nil
}

// CopyDirections takes the edge orientation from another layouter that ran
// on an identical graph. Both working graphs must contain the same vertices
// and edges with the same endpoints.
func (l *Layouter) CopyDirections(from *Layouter) error {
	if err := l.require(StageNormalized); err != nil {
		return err
	}
	if from.stage < StageDirected {
		return errors.New(errors.ErrCodePrecondition, "source layout has no directions yet")
	}
	if !slices.Equal(l.g.Vertices(), from.normalizedVertices()) {
		return errors.New(errors.ErrCodePrecondition, "cannot copy directions: vertex sets differ")
	}
	edges := l.g.Edges()
	if len(edges) != len(from.start) {
		return errors.New(errors.ErrCodePrecondition, "cannot copy directions: %d edges, source has %d", len(edges), len(from.start))
	}
	for _, e := range edges {
		s, ok := from.start[e]
		if !ok {
			return errors.New(errors.ErrCodePrecondition, "cannot copy directions: edge %d has no direction in source", e)
		}
		vs := l.g.EdgeVertices(e)
		if !slices.Contains(vs, s) || !slices.Contains(vs, from.end[e]) {
			return errors.New(errors.ErrCodePrecondition, "cannot copy directions: edge %d has different endpoints", e)
		}
		l.assignDirection(e, s, from.end[e])
	}
	if err := l.checkAcyclic(); err != nil {
		return err
	}
	l.stage = StageDirected
	return nil
}

// normalizedVertices returns the vertices as they were before dummies.
func (l *Layouter) normalizedVertices() []portgraph.VertexID {
	if l.normalized != nil {
		return l.normalized.Vertices()
	}
	return l.g.Vertices()
}

// assignDirection orients e from s to t. It reports false and changes
// nothing if e is already directed.
func (l *Layouter) assignDirection(e portgraph.EdgeID, s, t portgraph.VertexID) bool {
	if _, ok := l.start[e]; ok {
		return false
	}
	l.start[e], l.end[e] = s, t
	return true
}

// removeDirection clears the orientation of e.
func (l *Layouter) removeDirection(e portgraph.EdgeID) {
	delete(l.start, e)
	delete(l.end, e)
}

func (l *Layouter) clearDirections() {
	for e := range l.start {
		l.removeDirection(e)
	}
}

// orientByRank directs every edge from the endpoint with the lower key to
// the one with the higher key. Any total order yields an acyclic result.
func (l *Layouter) orientByRank(key func(portgraph.VertexID) int) {
	for _, e := range l.g.Edges() {
		vs := l.g.EdgeVertices(e)
		a, b := vs[0], vs[1]
		if key(b) < key(a) {
			a, b = b, a
		}
		l.assignDirection(e, a, b)
	}
}

func (l *Layouter) checkAcyclic() error {
	dg := simple.NewDirectedGraph()
	for _, v := range l.g.Vertices() {
		dg.AddNode(simple.Node(v))
	}
	for _, e := range l.g.Edges() {
		s, ok := l.start[e]
		if !ok {
			return errors.New(errors.ErrCodePrecondition, "edge %d has no direction", e)
		}
		t := l.end[e]
		if s == t {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(s), simple.Node(t)))
	}
	if _, err := topo.Sort(dg); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "edge directions contain a cycle")
	}
	return nil
}

// =============================================================================
// Breadth-first search
// =============================================================================

// bfsStrategy orients edges away from the traversal. Every component is
// entered at its vertex with the most edges, ties broken by ID.
type bfsStrategy struct{}

func (bfsStrategy) assign(l *Layouter) error {
	g := l.g
	vertices := g.Vertices()
	roots := slices.Clone(vertices)
	slices.SortStableFunc(roots, func(a, b portgraph.VertexID) int {
		return cmp.Compare(len(g.EdgesOf(b)), len(g.EdgesOf(a)))
	})

	visitOrder := map[portgraph.VertexID]int{}
	for _, root := range roots {
		if _, seen := visitOrder[root]; seen {
			continue
		}
		visitOrder[root] = len(visitOrder)
		queue := []portgraph.VertexID{root}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, e := range g.EdgesOf(v) {
				for _, w := range g.EdgeVertices(e) {
					if _, seen := visitOrder[w]; !seen {
						visitOrder[w] = len(visitOrder)
						queue = append(queue, w)
					}
				}
			}
		}
	}
	l.orientByRank(func(v portgraph.VertexID) int { return visitOrder[v] })
	return nil
}

// =============================================================================
// Random
// =============================================================================

// randomStrategy orients edges along a random permutation of the vertices.
type randomStrategy struct{}

func (randomStrategy) assign(l *Layouter) error {
	vertices := l.g.Vertices()
	pos := map[portgraph.VertexID]int{}
	for i, j := range l.rng.Perm(len(vertices)) {
		pos[vertices[j]] = i
	}
	l.orientByRank(func(v portgraph.VertexID) int { return pos[v] })
	return nil
}
