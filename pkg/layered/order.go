package layered

import (
	"maps"
	"slices"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// SortingOrder is the left-to-right order of the vertices of every rank and
// of the ports on both sides of every vertex.
type SortingOrder struct {
	Layers [][]portgraph.VertexID
	Top    map[portgraph.VertexID][]portgraph.PortID
	Bottom map[portgraph.VertexID][]portgraph.PortID
}

func newSortingOrder(ranks int) *SortingOrder {
	return &SortingOrder{
		Layers: make([][]portgraph.VertexID, ranks),
		Top:    map[portgraph.VertexID][]portgraph.PortID{},
		Bottom: map[portgraph.VertexID][]portgraph.PortID{},
	}
}

// Clone returns a deep copy of o.
func (o *SortingOrder) Clone() *SortingOrder {
	c := &SortingOrder{
		Layers: make([][]portgraph.VertexID, len(o.Layers)),
		Top:    make(map[portgraph.VertexID][]portgraph.PortID, len(o.Top)),
		Bottom: make(map[portgraph.VertexID][]portgraph.PortID, len(o.Bottom)),
	}
	for i, layer := range o.Layers {
		c.Layers[i] = slices.Clone(layer)
	}
	for v, ps := range o.Top {
		c.Top[v] = slices.Clone(ps)
	}
	for v, ps := range o.Bottom {
		c.Bottom[v] = slices.Clone(ps)
	}
	return c
}

// Ports returns the ports of v on the given side, left to right.
func (o *SortingOrder) Ports(v portgraph.VertexID, s Side) []portgraph.PortID {
	if s == Top {
		return o.Top[v]
	}
	return o.Bottom[v]
}

func (o *SortingOrder) setPorts(v portgraph.VertexID, s Side, ps []portgraph.PortID) {
	if s == Top {
		o.Top[v] = ps
	} else {
		o.Bottom[v] = ps
	}
}

// Sequence returns all ports of rank r on side s, left to right.
func (o *SortingOrder) Sequence(r int, s Side) []portgraph.PortID {
	var out []portgraph.PortID
	for _, v := range o.Layers[r] {
		out = append(out, o.Ports(v, s)...)
	}
	return out
}

// Equal reports whether o and p describe the same order.
func (o *SortingOrder) Equal(p *SortingOrder) bool {
	if len(o.Layers) != len(p.Layers) {
		return false
	}
	for i := range o.Layers {
		if !slices.Equal(o.Layers[i], p.Layers[i]) {
			return false
		}
	}
	eq := func(a, b []portgraph.PortID) bool { return slices.Equal(a, b) }
	return maps.EqualFunc(o.Top, p.Top, eq) && maps.EqualFunc(o.Bottom, p.Bottom, eq)
}

// arrange reorders items by key. Items with a NaN key keep their slot; the
// others fill the remaining slots in ascending key order, ties keeping their
// current order.
func arrange[T any](items []T, key func(T) float64) []T {
	type entry struct {
		item T
		key  float64
	}
	var movable []entry
	fixed := make([]bool, len(items))
	for i, it := range items {
		if k := key(it); k == k {
			movable = append(movable, entry{it, k})
		} else {
			fixed[i] = true
		}
	}
	slices.SortStableFunc(movable, func(a, b entry) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	out := make([]T, len(items))
	j := 0
	for i, it := range items {
		if fixed[i] {
			out[i] = it
			continue
		}
		out[i] = movable[j].item
		j++
	}
	return out
}
