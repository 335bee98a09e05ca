package layered

import (
	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/layered/simplex"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// AssignLayers ranks the vertices with network simplex so that every edge
// points to a higher rank and the total edge length is minimal.
func (l *Layouter) AssignLayers() error {
	if err := l.require(StageDirected); err != nil {
		return err
	}
	vertices := l.g.Vertices()
	index := make(map[portgraph.VertexID]int, len(vertices))
	for i, v := range vertices {
		index[v] = i
	}
	var edges []simplex.Edge
	for _, e := range l.g.Edges() {
		s, ok := l.start[e]
		if !ok {
			return errors.New(errors.ErrCodePrecondition, "edge %d has no direction", e)
		}
		edges = append(edges, simplex.Edge{Tail: index[s], Head: index[l.end[e]]})
	}

	res, err := simplex.Rank(len(vertices), edges, l.cfg.MaxSimplexIterations)
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, err, "assign layers")
	}
	if !res.Converged {
		l.log.Warn("network simplex stopped early", "iterations", res.Iterations)
	}

	l.rank = make(map[portgraph.VertexID]int, len(vertices))
	ranks := 0
	for i, v := range vertices {
		l.rank[v] = res.Ranks[i]
		ranks = max(ranks, res.Ranks[i]+1)
	}
	l.normalized = l.g.Clone()
	l.stage = StageLayered
	l.log.Debug("assigned layers", "ranks", ranks, "iterations", res.Iterations)
	return nil
}

// Layers returns the vertices of the working graph grouped by rank, each
// rank in ascending ID order.
func (l *Layouter) Layers() [][]portgraph.VertexID {
	var out [][]portgraph.VertexID
	for _, v := range l.g.Vertices() {
		r, ok := l.rank[v]
		if !ok {
			continue
		}
		for len(out) <= r {
			out = append(out, nil)
		}
		out[r] = append(out[r], v)
	}
	return out
}
