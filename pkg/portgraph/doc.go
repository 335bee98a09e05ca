// Package portgraph is the compound graph model consumed by the layered
// layout pipeline.
//
// A [Graph] holds vertices, ports, port groups, edges, vertex groups and edge
// bundles in arenas addressed by stable integer identifiers. Relations are
// stored as identifiers in both directions (a port knows its vertex and its
// edges, an edge knows its ports), so bookkeeping maps keyed by identifiers
// stay valid across a [Graph.Clone].
//
// # Port compositions
//
// A vertex lists its ports as [Composition] items. A composition is either a
// single port ([PortItem]) or a port group ([GroupItem]) that nests further
// compositions. Ordered groups fix the drawing order of their items; unordered
// groups only keep their items adjacent. [Graph.Flatten] and
// [Graph.FirstPort] traverse the tree depth-first.
//
// # Before and after normalization
//
// Input graphs may contain hyperedges, ports repeated on one edge, orphan
// ports, portless vertices and self-loops. The layout pipeline works on a
// clone and never requires the input to be simple; after layout only
// geometry ([Rect] shapes and edge [Path]s) is written back.
package portgraph
