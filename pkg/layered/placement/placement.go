// Package placement assigns horizontal coordinates to the ports of a layered
// drawing.
//
// The input is an abstract structure of item layers. Every rank of the
// drawing contributes two layers: the ports on the top side of its vertices
// followed by the ports on their bottom side. Vertices are framed by a pair
// of zero-width boundary items on each side, and connections between items
// of adjacent layers are edges that Place tries to draw vertically.
//
// Place follows Brandes and Köpf ("Fast and Simple Horizontal Coordinate
// Assignment") with the class-shift computation of the 2020 erratum by
// Brandes, Walter and Zink. It runs four passes over the structure (normal,
// layers reversed, both reversed, order within layers reversed), aligns the
// passes to the narrowest one and takes the average of the two median
// candidates per item.
//
// Two extensions keep vertices compact. Blocks whose alignment would pull
// two items of one vertex further apart than the maximum spacing are cut and
// placed again, and after each pass remaining wide gaps inside a vertex are
// closed by moving items to the right.
package placement

import (
	"math"
	"slices"
)

// Item is one entry of the layered structure.
type Item struct {
	Width float64

	// Owner identifies the vertex the item belongs to. Boundary items carry
	// the owner of the vertex they frame but are never compared by owner.
	Owner int

	// Boundary marks the zero-width items framing a vertex.
	Boundary bool

	// Dummy marks items of synthetic vertices (long-edge and turning
	// dummies). Spacing limits do not apply to them.
	Dummy bool

	// Chain is the number of dummy vertices of the long edge the owner
	// belongs to, or 0. Alignments along longer chains win conflicts.
	Chain int

	// Pair is the index of the item this one is paired with, or -1.
	Pair int

	// Padding marks spacer items inserted by [Place] to reach the minimum
	// width of a vertex.
	Padding bool
}

// Problem describes one placement instance.
type Problem struct {
	Items  []Item
	Layers [][]int  // item indices per layer, left to right
	Edges  [][2]int // connections between items of adjacent layers

	// MinWidth is the minimum extent of the items of one owner within a
	// layer, keyed by owner.
	MinWidth map[int]float64

	Delta      float64 // minimum gap between neighboring items
	MaxSpacing float64 // maximum gap between neighboring items of one vertex
}

// Solution is the result of [Place].
type Solution struct {
	// Items holds the input items followed by the padding items.
	Items []Item

	// Layers is the input structure with padding items inserted.
	Layers [][]int

	// X is the center coordinate of every item. All values are >= 0.
	X []float64
}

// Place computes x-coordinates for every item of p.
func Place(p Problem) Solution {
	s := pad(p)
	if len(s.Items) == 0 {
		return s
	}

	r := newRun(p, s)
	candidates := make([][4]float64, len(s.Items))
	for i := range 4 {
		switch i {
		case 1, 3:
			slices.Reverse(r.layers)
		case 2:
			for _, l := range r.layers {
				slices.Reverse(l)
			}
		}
		r.index()
		r.reset()
		r.handleCrossings()
		r.compact()
		r.settle()
		r.closeGaps()
		sign := 1.0
		if i >= 2 {
			sign = -1
		}
		for v, x := range r.x {
			candidates[v][i] = sign * x
		}
	}

	alignRuns(candidates)
	s.X = make([]float64, len(s.Items))
	lowest := math.Inf(1)
	for v, c := range candidates {
		sorted := c
		slices.Sort(sorted[:])
		s.X[v] = (sorted[1] + sorted[2]) / 2
		lowest = min(lowest, s.X[v])
	}
	for v := range s.X {
		s.X[v] -= lowest
	}
	return s
}

// pad inserts a symmetric pair of spacer items around the items of every
// vertex whose extent in a layer is below its minimum width.
func pad(p Problem) Solution {
	s := Solution{
		Items:  slices.Clone(p.Items),
		Layers: make([][]int, len(p.Layers)),
	}
	regular := func(v int) bool {
		it := p.Items[v]
		return !it.Boundary && !it.Dummy && !it.Padding
	}
	for l, layer := range p.Layers {
		out := make([]int, 0, len(layer))
		for i := 0; i < len(layer); {
			v := layer[i]
			if !regular(v) {
				out = append(out, v)
				i++
				continue
			}
			j, width := i+1, p.Items[v].Width
			for j < len(layer) && regular(layer[j]) && p.Items[layer[j]].Owner == p.Items[v].Owner {
				width += p.Delta + p.Items[layer[j]].Width
				j++
			}
			minWidth := p.MinWidth[p.Items[v].Owner]
			if minWidth <= width {
				out = append(out, layer[i:j]...)
				i = j
				continue
			}
			w := max(0, (minWidth-width)/2-p.Delta)
			spacer := Item{Width: w, Owner: p.Items[v].Owner, Pair: -1, Padding: true}
			left := len(s.Items)
			s.Items = append(s.Items, spacer, spacer)
			out = append(out, left)
			out = append(out, layer[i:j]...)
			out = append(out, left+1)
			i = j
		}
		s.Layers[l] = out
	}
	return s
}

// alignRuns shifts the four candidate sets so that the normal runs share the
// left border and the mirrored runs share the right border of the narrowest
// run.
func alignRuns(c [][4]float64) {
	var lo, hi [4]float64
	for i := range 4 {
		lo[i], hi[i] = math.Inf(1), math.Inf(-1)
		for _, x := range c {
			lo[i] = min(lo[i], x[i])
			hi[i] = max(hi[i], x[i])
		}
	}
	best := 0
	for i := 1; i < 4; i++ {
		if hi[i]-lo[i] < hi[best]-lo[best] {
			best = i
		}
	}
	shift := -lo[best]
	lo[best] += shift
	hi[best] += shift
	var shifts [4]float64
	for i := range 4 {
		switch {
		case i == best:
			shifts[i] = shift
		case i < 2:
			shifts[i] = lo[best] - lo[i]
		default:
			shifts[i] = hi[best] - hi[i]
		}
	}
	for v := range c {
		for i := range 4 {
			c[v][i] += shifts[i]
		}
	}
}
