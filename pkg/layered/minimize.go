package layered

import (
	"math"
	"slices"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// maxSweeps bounds the down-and-up sweeps of one crossing minimization run.
const maxSweeps = 32

// outside is the sort key that pushes a port to the end of its side.
const outside = 1e9

// MinimizeCrossings reorders vertices and ports with the layer-sweep
// barycenter heuristic. The first run starts from the initial order, every
// further run from a random permutation of it. Each run sweeps until a full
// down-and-up sweep no longer reduces the crossings; the run with the fewest
// crossings wins, ties keep the earlier run.
func (l *Layouter) MinimizeCrossings() error {
	if err := l.require(StageDummies); err != nil {
		return err
	}
	initial := l.order
	var best *SortingOrder
	bestCrossings := 0
	for i := range max(l.cfg.CrossingIterations, 1) {
		o := initial.Clone()
		if i > 0 {
			l.shuffle(o)
		}
		var c int
		switch l.cfg.Crossing {
		case CrossingVertices:
			c = l.sweep(o, false)
		case CrossingMixed:
			l.sweep(o, false)
			c = l.sweep(o, true)
		default:
			c = l.sweep(o, true)
		}
		l.log.Debug("crossing minimization", "iteration", i, "crossings", c)
		if best == nil || c < bestCrossings {
			best, bestCrossings = o, c
		}
	}
	l.order = best
	l.crossings = bestCrossings
	l.stage = StageOrdered
	l.log.Debug("minimized crossings", "crossings", bestCrossings, "method", l.cfg.Crossing)
	return nil
}

// Crossings returns the crossing count of the current order.
func (l *Layouter) Crossings() int { return l.crossings }

// sweep improves o in place and returns its crossing count. The result is
// never worse than the order sweep started from.
func (l *Layouter) sweep(o *SortingOrder, byPort bool) int {
	best := l.CountCrossings(o)
	bestOrder := o.Clone()
	for range maxSweeps {
		if best == 0 {
			break
		}
		for r := 1; r < len(o.Layers); r++ {
			l.reorder(o, r, true, byPort)
		}
		for r := len(o.Layers) - 2; r >= 0; r-- {
			l.reorder(o, r, false, byPort)
		}
		c := l.CountCrossings(o)
		if c >= best {
			break
		}
		best, bestOrder = c, o.Clone()
	}
	*o = *bestOrder
	return best
}

// reorder sorts rank r against its fixed neighbor rank, the one above when
// down is set and the one below otherwise.
func (l *Layouter) reorder(o *SortingOrder, r int, down, byPort bool) {
	facing, fixed := Bottom, r+1
	if down {
		facing, fixed = Top, r-1
	}
	pos := map[portgraph.PortID]float64{}
	if byPort {
		for i, p := range o.Sequence(fixed, facing.opposite()) {
			pos[p] = float64(i)
		}
	} else {
		for i, v := range o.Layers[fixed] {
			for _, p := range o.Ports(v, facing.opposite()) {
				pos[p] = float64(i)
			}
		}
	}
	neighbor := func(p portgraph.PortID) (portgraph.PortID, float64, bool) {
		for _, e := range l.g.Port(p).Edges {
			q, _ := l.g.Opposite(e, p)
			if x, ok := pos[q]; ok {
				return q, x, true
			}
		}
		return 0, 0, false
	}

	bary := map[portgraph.VertexID]float64{}
	for _, v := range o.Layers[r] {
		ports := o.Ports(v, facing)
		key := map[portgraph.PortID]float64{}
		owner, turning := l.turningOf[v]
		sum, n, ownSum, ownN := 0.0, 0, 0.0, 0
		for _, p := range ports {
			q, x, ok := neighbor(p)
			if !ok {
				continue
			}
			key[p] = x
			sum, n = sum+x, n+1
			if turning && l.g.Port(q).Vertex == owner {
				ownSum, ownN = ownSum+x, ownN+1
			}
		}
		bary[v] = math.NaN()
		if n > 0 {
			bary[v] = sum / float64(n)
		}
		if turning && l.cfg.TurningDummiesNextToVertex && ownN > 0 {
			bary[v] = ownSum / float64(ownN)
		}

		mirrored := map[portgraph.PortID]float64{}
		for _, p := range o.Ports(v, facing.opposite()) {
			if q, ok := l.pairs[p]; ok {
				if x, ok := key[q]; ok {
					mirrored[p] = x
				}
			}
		}
		if l.cfg.MovePortsToTurningOutside {
			l.pushTurningPortsOutside(v, down, ports, key, neighbor)
		}
		o.setPorts(v, facing, l.sortPorts(v, ports, key))
		if len(mirrored) > 0 {
			o.setPorts(v, facing.opposite(), l.sortPorts(v, o.Ports(v, facing.opposite()), mirrored))
		}
	}
	o.Layers[r] = arrange(o.Layers[r], func(v portgraph.VertexID) float64 { return bary[v] })
}

// pushTurningPortsOutside moves the keys of ports that lead to v's own
// turning dummy on the fixed rank to the end of the side the dummy lies on,
// so the turn does not cross the other edges of v.
func (l *Layouter) pushTurningPortsOutside(v portgraph.VertexID, down bool, ports []portgraph.PortID,
	key map[portgraph.PortID]float64, neighbor func(portgraph.PortID) (portgraph.PortID, float64, bool)) {
	td, ok := l.lowerTurning[v]
	if down {
		td, ok = l.upperTurning[v]
	}
	if !ok {
		return
	}
	var turn []portgraph.PortID
	sum, n := 0.0, 0
	for _, p := range ports {
		x, ok := key[p]
		if !ok {
			continue
		}
		if q, _, _ := neighbor(p); l.g.Port(q).Vertex == td {
			turn = append(turn, p)
		} else {
			sum, n = sum+x, n+1
		}
	}
	if len(turn) == 0 || n == 0 {
		return
	}
	mean := sum / float64(n)
	for _, p := range turn {
		if key[p] < mean {
			key[p] = key[p] - outside
		} else {
			key[p] = key[p] + outside
		}
	}
}

// sortPorts orders the ports of v listed in current by key while keeping
// the composition of v intact: groups stay contiguous and ordered groups
// keep their order. Items without a key keep their slot.
func (l *Layouter) sortPorts(v portgraph.VertexID, current []portgraph.PortID, key map[portgraph.PortID]float64) []portgraph.PortID {
	if len(current) < 2 {
		return current
	}
	idx := make(map[portgraph.PortID]int, len(current))
	for i, p := range current {
		idx[p] = i
	}
	type entry struct {
		ports []portgraph.PortID
		key   float64
		first int
	}

	var arrangeItems func(items []portgraph.Composition, ordered bool) []portgraph.PortID
	arrangeItems = func(items []portgraph.Composition, ordered bool) []portgraph.PortID {
		var entries []entry
		for _, it := range items {
			var ps []portgraph.PortID
			if it.IsPort() {
				if _, ok := idx[it.Port()]; ok {
					ps = []portgraph.PortID{it.Port()}
				}
			} else if pg := l.g.PortGroup(it.Group()); pg != nil {
				ps = arrangeItems(pg.Items, pg.Ordered)
			}
			if len(ps) == 0 {
				continue
			}
			e := entry{ports: ps, key: math.NaN(), first: len(current)}
			sum, n := 0.0, 0
			for _, p := range ps {
				e.first = min(e.first, idx[p])
				if x, ok := key[p]; ok {
					sum, n = sum+x, n+1
				}
			}
			if n > 0 {
				e.key = sum / float64(n)
			}
			entries = append(entries, e)
		}
		if !ordered {
			slices.SortStableFunc(entries, func(a, b entry) int { return a.first - b.first })
			entries = arrange(entries, func(e entry) float64 { return e.key })
		}
		var out []portgraph.PortID
		for _, e := range entries {
			out = append(out, e.ports...)
		}
		return out
	}

	out := arrangeItems(l.g.Vertex(v).Items, false)
	if len(out) != len(current) {
		panic("layered: port order of vertex lost ports")
	}
	return out
}

// shuffle randomizes the order of every rank and of every unordered part of
// every port side.
func (l *Layouter) shuffle(o *SortingOrder) {
	for _, layer := range o.Layers {
		l.rng.Shuffle(len(layer), func(i, j int) { layer[i], layer[j] = layer[j], layer[i] })
		for _, v := range layer {
			for _, s := range []Side{Top, Bottom} {
				ports := o.Ports(v, s)
				key := make(map[portgraph.PortID]float64, len(ports))
				for _, p := range ports {
					key[p] = l.rng.Float64()
				}
				o.setPorts(v, s, l.sortPorts(v, ports, key))
			}
		}
	}
}
