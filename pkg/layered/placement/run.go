package placement

import (
	"math"
	"slices"
)

// run holds the working state of one Brandes–Köpf pass. The same run value
// is reused for all four passes; only the layer orientation changes.
type run struct {
	items      []Item
	layers     [][]int
	nbrs       [][]int
	delta      float64
	maxSpacing float64

	layerOf []int
	pos     []int

	align   []int
	alignRe []int
	root    []int
	sink    []int
	placed  []bool
	shift   []float64
	x       []float64
}

func newRun(p Problem, s Solution) *run {
	n := len(s.Items)
	r := &run{
		items:      s.Items,
		layers:     make([][]int, len(s.Layers)),
		nbrs:       make([][]int, n),
		delta:      p.Delta,
		maxSpacing: p.MaxSpacing,
		layerOf:    make([]int, n),
		pos:        make([]int, n),
		align:      make([]int, n),
		alignRe:    make([]int, n),
		root:       make([]int, n),
		sink:       make([]int, n),
		placed:     make([]bool, n),
		shift:      make([]float64, n),
		x:          make([]float64, n),
	}
	for i, l := range s.Layers {
		r.layers[i] = slices.Clone(l)
	}
	for _, e := range p.Edges {
		r.nbrs[e[0]] = append(r.nbrs[e[0]], e[1])
		r.nbrs[e[1]] = append(r.nbrs[e[1]], e[0])
	}
	return r
}

func (r *run) index() {
	for l, layer := range r.layers {
		for i, v := range layer {
			r.layerOf[v] = l
			r.pos[v] = i
		}
	}
}

func (r *run) reset() {
	for v := range r.items {
		r.align[v], r.alignRe[v], r.root[v], r.sink[v] = v, v, v, v
		r.placed[v] = false
		r.shift[v] = math.Inf(1)
		r.x[v] = 0
	}
}

func (r *run) pred(v int) int {
	if r.pos[v] == 0 {
		return -1
	}
	return r.layers[r.layerOf[v]][r.pos[v]-1]
}

func (r *run) succ(v int) int {
	layer := r.layers[r.layerOf[v]]
	if r.pos[v]+1 >= len(layer) {
		return -1
	}
	return layer[r.pos[v]+1]
}

func (r *run) sep(u, v int) float64 {
	return (r.items[u].Width+r.items[v].Width)/2 + r.delta
}

func (r *run) setAlign(a, b int) {
	r.align[a] = b
	r.alignRe[b] = a
}

// sameVertex reports whether a and b are neighbors inside one real vertex,
// including the case that one of them is the vertex boundary.
func (r *run) sameVertex(a, b int) bool {
	ia, ib := r.items[a], r.items[b]
	switch {
	case ia.Dummy || ib.Dummy:
		return false
	case ia.Boundary && ib.Boundary:
		return false
	case ia.Boundary || ib.Boundary:
		return true
	}
	return ia.Owner == ib.Owner
}

func (r *run) priority(e [2]int) int {
	return max(r.items[e[0]].Chain, r.items[e[1]].Chain)
}

// =============================================================================
// Alignment
// =============================================================================

// handleCrossings selects, per pair of adjacent layers, a non-crossing set of
// edges to straighten and aligns their end items into blocks.
func (r *run) handleCrossings() {
	for l := 0; l+1 < len(r.layers); l++ {
		var stack [][2]int
		for _, u := range r.layers[l] {
			var below []int
			for _, w := range r.nbrs[u] {
				if r.layerOf[w] == l+1 {
					below = append(below, w)
				}
			}
			slices.SortFunc(below, func(a, b int) int { return r.pos[a] - r.pos[b] })
			for _, w := range below {
				stack = r.push(stack, [2]int{u, w})
			}
		}
		r.verticalAlignment(stack)
	}
}

// push adds e to the stack of straightened edges. On a conflict the edge with
// the higher priority survives; on equal priority the edge already on the
// stack wins. Entries removed while looking for a winner are restored when
// the existing entry wins.
func (r *run) push(stack [][2]int, e [2]int) [][2]int {
	var removed [][2]int
	for {
		if len(stack) == 0 {
			return append(stack, e)
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.pos[top[1]] < r.pos[e[1]] {
			return append(stack, top, e)
		}
		if r.priority(top) >= r.priority(e) {
			stack = append(stack, top)
			for i := len(removed) - 1; i >= 0; i-- {
				stack = append(stack, removed[i])
			}
			return stack
		}
		removed = append(removed, top)
	}
}

func (r *run) verticalAlignment(edges [][2]int) {
	for _, e := range edges {
		u, w := e[0], e[1]
		if r.align[w] != w || r.align[u] != r.root[u] {
			continue
		}
		r.setAlign(u, w)
		r.root[w] = r.root[u]
		r.setAlign(w, r.root[w])
	}
}

// removeAlignment splits the block of w. With above set the cut is made
// between w and the item aligned to it from above, otherwise between w and
// the item below it. The lower part becomes a block of its own.
func (r *run) removeAlignment(w int, above bool) {
	oldRoot := r.root[w]
	var newRoot int
	if above {
		newRoot = w
		r.setAlign(r.alignRe[w], oldRoot)
	} else {
		newRoot = r.align[w]
		r.setAlign(w, oldRoot)
	}
	newSink := newRoot
	if p := r.pred(newRoot); p >= 0 {
		newSink = r.sink[r.root[p]]
	}
	lowest := newRoot
	for u := newRoot; u != oldRoot; u = r.align[u] {
		r.root[u] = newRoot
		r.sink[u] = newSink
		lowest = u
	}
	r.setAlign(lowest, newRoot)
}

// =============================================================================
// Compaction
// =============================================================================

func (r *run) compact() {
	for _, layer := range r.layers {
		for _, v := range layer {
			if r.root[v] == v {
				r.placeBlock(v)
			}
		}
	}
	r.classShifts()
	for v := range r.items {
		r.x[v] += r.shift[r.sink[v]]
	}
}

func (r *run) placeBlock(v int) {
	if r.placed[v] {
		return
	}
	r.placed[v] = true
	r.x[v] = 0
	w := v
	for {
		if u := r.pred(w); u >= 0 {
			r.placeBlock(r.root[u])
			ru := r.root[u]
			if r.sink[v] == v {
				r.sink[v] = r.sink[ru]
			}
			if r.sink[v] == r.sink[ru] {
				r.x[v] = max(r.x[v], r.x[ru]+r.sep(u, w))
			}
		}
		if w = r.align[w]; w == v {
			break
		}
	}

	for {
		pw := r.pred(w)
		if pw >= 0 && r.align[w] != w && r.sameVertex(w, pw) && r.sink[v] == r.sink[r.root[pw]] &&
			r.x[v]-r.x[r.root[pw]]-r.sep(w, pw)+r.delta > r.maxSpacing {
			below := r.align[w]
			pair := r.items[w].Pair
			pairedAbove := pair >= 0 && pair == r.alignRe[w]
			pairedBelow := pair >= 0 && pair == r.align[w]
			cutBelow := pairedAbove || w == v
			if !(w == v && pairedBelow) && !(cutBelow && below == v) {
				r.removeAlignment(w, !cutBelow)
				r.placed[v] = false
				r.placeBlock(v)
				if cutBelow {
					r.placeBlock(below)
				} else {
					r.placeBlock(w)
				}
				return
			}
		}
		if w = r.align[w]; w == v {
			break
		}
	}

	for w := r.align[v]; w != v; w = r.align[w] {
		r.x[w] = r.x[v]
		r.sink[w] = r.sink[v]
	}
}

// classShifts computes the offset of every class (set of blocks sharing a
// sink) so that neighboring items of different classes keep their distance.
// Classes without a constraint to their right stay at offset zero; all other
// offsets are the largest values satisfying every constraint.
func (r *run) classShifts() {
	type constraint struct {
		left, right int // sinks
		gap         float64
	}
	var cs []constraint
	for _, layer := range r.layers {
		for j := 1; j < len(layer); j++ {
			u, v := layer[j-1], layer[j]
			if r.sink[u] == r.sink[v] {
				continue
			}
			cs = append(cs, constraint{r.sink[u], r.sink[v], r.x[v] - r.x[u] - r.sep(u, v)})
		}
	}
	for v := range r.items {
		r.shift[r.sink[v]] = 0
	}
	for round := 0; ; round++ {
		changed := false
		for _, c := range cs {
			if s := r.shift[c.right] + c.gap; s < r.shift[c.left] {
				r.shift[c.left] = s
				changed = true
			}
		}
		// Acyclic constraints settle within one round per class; settle
		// repairs whatever a longer chain would have left open.
		if !changed || round > len(r.items) {
			return
		}
	}
}

// settle restores the minimum distance between neighbors in every layer in
// case alignment cuts left two neighbors too close.
func (r *run) settle() {
	for _, layer := range r.layers {
		for j := 1; j < len(layer); j++ {
			u, v := layer[j-1], layer[j]
			if need := r.x[u] + r.sep(u, v); r.x[v] < need {
				r.x[v] = need
			}
		}
	}
}

// =============================================================================
// Gap closing
// =============================================================================

// closeGaps pulls neighboring items of one vertex together where their gap
// exceeds maxSpacing: first the left item to the right, then, if that is
// blocked, the right item to the left.
func (r *run) closeGaps() {
	for _, layer := range r.layers {
		for j := 1; j < len(layer); j++ {
			u, v := layer[j-1], layer[j]
			if !r.sameVertex(u, v) || r.gap(u, v) <= r.maxSpacing {
				continue
			}
			r.moveRight(u)
			if r.gap(u, v) > r.maxSpacing {
				r.moveLeft(v)
			}
		}
	}
}

func (r *run) gap(u, v int) float64 {
	return r.x[v] - r.x[u] - (r.items[u].Width+r.items[v].Width)/2
}

// moveRight moves u, together with the item it is paired and aligned with,
// as far right as its right neighbors allow, then continues with the left
// neighbors of the moved items while they belong to the same vertex.
func (r *run) moveRight(u int) {
	moved := []int{u}
	if p := r.items[u].Pair; p >= 0 && (r.align[u] == p || r.alignRe[u] == p) {
		moved = append(moved, p)
	}
	by := math.Inf(1)
	for _, m := range moved {
		if s := r.succ(m); s >= 0 {
			by = min(by, r.x[s]-r.x[m]-r.sep(m, s))
		}
	}
	if by <= 0 || math.IsInf(by, 1) {
		return
	}
	for _, m := range moved {
		r.x[m] += by
	}
	for _, m := range moved {
		p := r.pred(m)
		if p < 0 || r.items[p].Boundary || r.items[m].Boundary || r.items[p].Dummy ||
			r.items[p].Owner != r.items[m].Owner {
			continue
		}
		if r.gap(p, m) > r.maxSpacing {
			r.moveRight(p)
		}
	}
}

// moveLeft mirrors moveRight: v and its aligned pair move as far left as
// their left neighbors allow, then the right neighbors of the moved items
// follow while they belong to the same vertex.
func (r *run) moveLeft(v int) {
	moved := []int{v}
	if p := r.items[v].Pair; p >= 0 && (r.align[v] == p || r.alignRe[v] == p) {
		moved = append(moved, p)
	}
	by := math.Inf(1)
	for _, m := range moved {
		if p := r.pred(m); p >= 0 {
			by = min(by, r.x[m]-r.x[p]-r.sep(p, m))
		}
	}
	if by <= 0 || math.IsInf(by, 1) {
		return
	}
	for _, m := range moved {
		r.x[m] -= by
	}
	for _, m := range moved {
		s := r.succ(m)
		if s < 0 || r.items[s].Boundary || r.items[m].Boundary || r.items[s].Dummy ||
			r.items[s].Owner != r.items[m].Owner {
			continue
		}
		if r.gap(m, s) > r.maxSpacing {
			r.moveLeft(s)
		}
	}
}
