// Package graph provides serialization types for port graphs and their
// drawings.
//
// This package defines the wire format of portlayout: the documents read by
// the CLI, accepted by the HTTP API, written as layout results and stored in
// the cache.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory model
// and external formats:
//
//   - [Graph], [Drawing]: serialization types (this package)
//   - pkg/portgraph.Graph: arena-backed compound graph with ports
//   - pkg/layered: the layout stages that fill in shapes and paths
//
// Use [ToPortGraph] and [FromPortGraph] to convert between documents and the
// model, and [NewDrawing] to capture the geometry of a laid-out graph.
//
// # Graph Documents
//
// Every element is referenced by a string ID. Ports are nested in their
// vertex; a port entry with "group" set is a port group:
//
//	{
//	  "vertices": [
//	    {"id": "cpu", "labels": ["CPU"], "ports": [
//	      {"id": "cpu.clk", "orientation": "north"},
//	      {"group": true, "ordered": true, "items": [{"id": "cpu.d0"}, {"id": "cpu.d1"}]}
//	    ]},
//	    {"id": "ram", "ports": [{"id": "ram.d0"}, {"id": "ram.d1"}]}
//	  ],
//	  "edges": [
//	    {"id": "bus0", "ports": ["cpu.d0", "ram.d0"]},
//	    {"id": "bus1", "ports": ["cpu.d1", "ram.d1"]}
//	  ],
//	  "bundles": [{"id": "data", "edges": ["bus0", "bus1"]}]
//	}
//
// The same structure is accepted as YAML. The format is picked from the file
// extension (".yaml" and ".yml" are YAML, everything else JSON) or passed
// explicitly as a [Format].
//
// Common operations:
//
//	g, _ := graph.ReadFile("board.json")         // File → portgraph.Graph
//	graph.WriteFile(g, "board.yaml")             // portgraph.Graph → File
//	data, _ := graph.Marshal(g, graph.FormatJSON) // portgraph.Graph → []byte
//	doc, _ := graph.Unmarshal(data, graph.FormatYAML)
//
// # Drawings
//
// A [Drawing] lists the rectangle of every vertex, port and vertex group and
// the polylines of every edge, together with the rank order and the crossing
// count of the layout.
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct values.
package graph
