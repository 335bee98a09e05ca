package layered

import (
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/portlayout/pkg/layered/placement"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// frame holds the boundary items of a vertex: left and right, each on the
// top-port and the bottom-port layer.
type frame struct {
	left, right [2]int
}

// PlaceNodes assigns coordinates to every port and vertex of the working
// graph. Horizontal positions come from the four-pass placement of the
// placement package; every rank is a horizontal band whose height is the
// vertex height, or zero for ranks holding only dummies.
func (l *Layouter) PlaceNodes() error {
	if err := l.require(StageOrdered); err != nil {
		return err
	}
	d := l.cfg.Drawing
	o := l.order
	prob := placement.Problem{
		Layers:     make([][]int, 2*len(o.Layers)),
		MinWidth:   map[int]float64{},
		Delta:      d.delta(),
		MaxSpacing: d.maxSpacing(),
	}
	add := func(layer int, it placement.Item) int {
		id := len(prob.Items)
		prob.Items = append(prob.Items, it)
		prob.Layers[layer] = append(prob.Layers[layer], id)
		return id
	}
	connect := func(a, b int) { prob.Edges = append(prob.Edges, [2]int{a, b}) }

	itemOf := map[portgraph.PortID]int{}
	frames := map[portgraph.VertexID]frame{}
	for r, layer := range o.Layers {
		top, bottom := 2*r, 2*r+1
		for _, v := range layer {
			owner := int(v)
			framed := l.framed(v)
			chain := 0
			if e, ok := l.dummyEdge[v]; ok {
				chain = l.chainLen[e]
			}
			port := placement.Item{Width: d.PortWidth, Owner: owner, Dummy: l.kind[v] != notDummy, Chain: chain, Pair: -1}
			boundary := placement.Item{Owner: owner, Boundary: true, Pair: -1}

			var f frame
			if framed {
				f.left = [2]int{add(top, boundary), add(bottom, boundary)}
				connect(f.left[0], f.left[1])
			}
			for _, p := range o.Top[v] {
				itemOf[p] = add(top, port)
			}
			for _, p := range o.Bottom[v] {
				itemOf[p] = add(bottom, port)
			}
			if framed {
				f.right = [2]int{add(top, boundary), add(bottom, boundary)}
				connect(f.right[0], f.right[1])
				frames[v] = f
				prob.MinWidth[owner] = l.minWidth(v)
			}
		}
	}

	for _, p := range slices.Sorted(maps.Keys(l.pairs)) {
		q := l.pairs[p]
		if q < p || l.side[p] == l.side[q] {
			continue
		}
		ip, iq := itemOf[p], itemOf[q]
		prob.Items[ip].Pair, prob.Items[iq].Pair = iq, ip
		if l.side[p] == Top {
			connect(ip, iq)
		} else {
			connect(iq, ip)
		}
	}
	for _, v := range l.g.Vertices() {
		if k := l.kind[v]; k == longEdgeDummy || k == loopDummy {
			connect(itemOf[o.Top[v][0]], itemOf[o.Bottom[v][0]])
		}
	}
	for _, e := range l.g.Edges() {
		ports := l.g.Edge(e).Ports
		a, b := ports[0], ports[1]
		if l.side[a] != Bottom {
			a, b = b, a
		}
		connect(itemOf[a], itemOf[b])
	}

	sol := placement.Place(prob)
	l.applyCoordinates(sol, itemOf, frames)
	l.stage = StagePlaced
	l.log.Debug("placed nodes", "items", len(sol.Items), "width", l.width, "height", l.height)
	return nil
}

// framed reports whether v gets boundary items: every real vertex and every
// hyperedge representative.
func (l *Layouter) framed(v portgraph.VertexID) bool {
	_, hyper := l.hyperEdges[v]
	return hyper || l.kind[v] == notDummy
}

// minWidth is the widest of the label width, the configured minimum and a
// width the vertex already had. Group representatives need room for all
// their members.
func (l *Layouter) minWidth(v portgraph.VertexID) float64 {
	if _, hyper := l.hyperEdges[v]; hyper {
		return 0
	}
	d := l.cfg.Drawing
	if members, ok := l.members[v]; ok {
		sum := 0.0
		for _, m := range members {
			sum += l.vertexWidth(l.orig.Vertex(m))
		}
		return max(sum, d.VertexMinWidth)
	}
	return l.vertexWidth(l.g.Vertex(v))
}

func (l *Layouter) vertexWidth(vx *portgraph.Vertex) float64 {
	d := l.cfg.Drawing
	w := d.VertexMinWidth
	if vx == nil {
		return w
	}
	for _, label := range vx.Labels {
		w = max(w, l.cfg.Measurer.Width(label, d.FontSize)+2*math.Abs(d.VertexLabelOffsetH))
	}
	if vx.Shape != nil {
		w = max(w, vx.Shape.W)
	}
	return w
}

// rankHeight is the height of the vertex band of rank r.
func (l *Layouter) rankHeight(r int) float64 {
	for _, v := range l.order.Layers[r] {
		if !l.IsDummy(v) {
			return l.cfg.Drawing.VertexHeight
		}
	}
	return 0
}

func (l *Layouter) applyCoordinates(sol placement.Solution, itemOf map[portgraph.PortID]int, frames map[portgraph.VertexID]frame) {
	d := l.cfg.Drawing
	o := l.order
	y := d.PortHeight
	l.width, l.height = 0, 0
	for r, layer := range o.Layers {
		h := l.rankHeight(r)
		for _, v := range layer {
			x0, x1 := math.Inf(1), math.Inf(-1)
			for _, s := range []Side{Top, Bottom} {
				py := y - d.PortHeight
				if s == Bottom {
					py = y + h
				}
				for _, p := range o.Ports(v, s) {
					cx := sol.X[itemOf[p]]
					rect := portgraph.Rect{X: cx - d.PortWidth/2, Y: py, W: d.PortWidth, H: d.PortHeight}
					l.g.Port(p).Shape = &rect
					x0, x1 = min(x0, rect.X), max(x1, rect.Right())
					l.width = max(l.width, rect.Right())
					l.height = max(l.height, rect.Bottom())
				}
			}
			if f, ok := frames[v]; ok {
				x0 = min(sol.X[f.left[0]], sol.X[f.left[1]])
				x1 = max(sol.X[f.right[0]], sol.X[f.right[1]])
			}
			if math.IsInf(x0, 0) {
				x0, x1 = 0, 0
			}
			l.g.Vertex(v).Shape = &portgraph.Rect{X: x0, Y: y, W: x1 - x0, H: h}
			l.width = max(l.width, x1)
		}
		l.height = max(l.height, y+h)
		y += h + 2*d.PortHeight + d.DistanceBetweenLayers
	}
}
