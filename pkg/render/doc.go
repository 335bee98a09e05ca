// Package render turns finished layouts into pictures.
//
// Both renderers read a [graph.Drawing], so they work the same for fresh
// layouts and for drawings loaded from a layout file or the cache:
//
//   - [svg]: native SVG with vertices, ports, group frames and the
//     orthogonal edge polylines computed by the layout
//   - [dot]: Graphviz DOT with pinned vertex and port positions, rendered
//     in-process by go-graphviz
//
// Typical use:
//
//	d := graph.NewDrawing(g)
//	native := svg.Render(d, svg.WithLabels())
//	viz, err := dot.RenderSVG(ctx, dot.ToDOT(d, dot.Options{Labels: true}))
//
// [graph.Drawing]: github.com/matzehuels/portlayout/pkg/graph.Drawing
// [svg]: github.com/matzehuels/portlayout/pkg/render/svg
// [dot]: github.com/matzehuels/portlayout/pkg/render/dot
package render
