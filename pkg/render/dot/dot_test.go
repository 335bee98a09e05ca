package dot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/portlayout/pkg/graph"
)

func drawing() graph.Drawing {
	return graph.Drawing{
		Width:  100,
		Height: 80,
		Vertices: []graph.VertexShape{
			{ID: "a", Label: "A", Rect: graph.Rect{X: 0, Y: 4, W: 36, H: 30}},
			{ID: "b", Label: "B", Rect: graph.Rect{X: 50, Y: 46, W: 36, H: 30}},
		},
		Ports: []graph.PortShape{
			{ID: "a.out", Vertex: "a", Rect: graph.Rect{X: 14, Y: 34, W: 8, H: 4}},
			{ID: "b.in", Vertex: "b", Rect: graph.Rect{X: 64, Y: 42, W: 8, H: 4}},
			{ID: "b.x", Vertex: "b", Rect: graph.Rect{X: 74, Y: 42, W: 8, H: 4}},
		},
		Edges: []graph.EdgeShape{
			{ID: "bus", Ports: []string{"a.out", "b.in", "b.x"}},
			{ID: "dangling", Ports: []string{"a.out"}},
		},
	}
}

func TestToDOT(t *testing.T) {
	src := ToDOT(drawing(), Options{Labels: true})

	assert.Contains(t, src, "layout=neato;")
	assert.Contains(t, src, `splines="ortho";`)
	// Centers are mirrored at the drawing height: 80 - (4 + 15) = 61.
	assert.Contains(t, src, `"v:a" [label="A", pos="18,61!", width=0.5, height=0.4166666666666667];`)
	assert.Contains(t, src, `"p:a.out" -> "p:b.in" [id="bus"];`)
	assert.Contains(t, src, `"p:a.out" -> "p:b.x" [id="bus"];`)
	assert.NotContains(t, src, `id="dangling"`)

	src = ToDOT(drawing(), Options{Splines: "line"})
	assert.Contains(t, src, `"v:a" [label=""`)
	assert.Contains(t, src, `splines="line";`)
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(drawing(), Options{Labels: true, Splines: "line"}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox=`)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`, out)

	plain := []byte("<svg><g/></svg>")
	assert.Equal(t, plain, normalizeViewBox(plain))
}
