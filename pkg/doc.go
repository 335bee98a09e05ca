// Package pkg provides the libraries of portlayout, a layered layout engine
// for compound graphs with ports.
//
// # Overview
//
// Portlayout draws graphs whose vertices carry ports, grouped and ordered,
// on their top and bottom sides. Edges attach to ports and may join more
// than two of them; vertices may be grouped into units that are drawn side
// by side. The drawing follows the Sugiyama scheme: vertices are assigned to
// ranks, the order within every rank minimizes crossings, and coordinates
// keep edges straight where possible.
//
// # Architecture
//
// The data flow through portlayout:
//
//	Graph document (JSON/YAML)
//	         ↓
//	    [graph] package (decode, convert)
//	         ↓
//	    [portgraph] package (compound graph model)
//	         ↓
//	    [layered] package (normalize → directions → layers → dummies →
//	                       crossings → placement → routing)
//	         ↓
//	    [graph] Drawing → [render/svg], [render/dot]
//
// [pipeline] runs these steps with caching and observability hooks so the
// CLI and the HTTP API behave the same.
//
// # Quick Start
//
//	g, _ := graph.ReadFile("board.yaml")
//	res, err := layered.New(g, layered.DefaultConfig()).Run()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Crossings)
//	os.WriteFile("board.svg", svg.Render(graph.NewDrawing(g)), 0o644)
//
// # Main Packages
//
// [portgraph] - Arena-backed compound graph: vertices, ports, port groups,
// hyperedges, vertex groups with touching pairs and port pairings, edge
// bundles, and the shapes and paths of a drawing.
//
// [layered] - The layout stages and their shared state. [layered/simplex]
// ranks vertices by network simplex; [layered/placement] assigns horizontal
// coordinates with a four-pass Brandes-Köpf variant over ports.
//
// [graph] - Graph and drawing documents with string IDs.
//
// [pipeline] - Options, TOML config files, caching runner, rendering.
//
// [cache] - Null, file and Redis caches keyed by BLAKE3 content hashes.
//
// [errors] - Coded errors shared by all packages and mapped to HTTP status
// codes by the API.
//
// [observability] - Hook registry for layout, cache and HTTP events.
//
// [fonts] - Label width measurement for vertex sizing.
//
// [render/svg], [render/dot] - SVG drawing and Graphviz export.
//
// [buildinfo] - Version information set at build time.
package pkg
