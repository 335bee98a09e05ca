package portgraph

import "math"

// Rect is an axis-aligned rectangle with its origin in the top-left corner.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1, y1 := math.Max(r.Right(), o.Right()), math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r *Rect) clone() *Rect {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// Point is a bend point of an edge path.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Path is a polyline through bend points.
type Path []Point

// Simplify drops repeated points and interior points of straight runs.
func (p Path) Simplify() Path {
	out := make(Path, 0, len(p))
	for _, pt := range p {
		if n := len(out); n > 0 && out[n-1] == pt {
			continue
		}
		if n := len(out); n >= 2 && collinear(out[n-2], out[n-1], pt) {
			out[n-1] = pt
			continue
		}
		out = append(out, pt)
	}
	return out
}

func collinear(a, b, c Point) bool {
	return (a.X == b.X && b.X == c.X) || (a.Y == b.Y && b.Y == c.Y)
}
