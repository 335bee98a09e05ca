package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/layered"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// board is a document exercising every element kind.
func board() Graph {
	return Graph{
		Vertices: []Vertex{
			{ID: "cpu", Labels: []string{"CPU", "x86"}, Ports: []Port{
				{ID: "cpu.clk", Label: "clk", Orientation: "north"},
				{Group: true, Ordered: true, Items: []Port{{ID: "cpu.d0"}, {ID: "cpu.d1"}}},
			}},
			{ID: "ram", Ports: []Port{{ID: "ram.d0"}, {ID: "ram.d1"}, {ID: "ram.out", Orientation: "south"}}},
			{ID: "osc", Ports: []Port{{ID: "osc.out"}}},
			{ID: "buf", Ports: []Port{{ID: "buf.in"}, {ID: "buf.out"}}},
		},
		OrphanPorts: []Port{{ID: "ext"}},
		Edges: []Edge{
			{ID: "bus0", Label: "d0", Ports: []string{"cpu.d0", "ram.d0"}},
			{ID: "bus1", Ports: []string{"cpu.d1", "ram.d1"}},
			{ID: "clock", Ports: []string{"osc.out", "cpu.clk", "buf.in"}},
			{ID: "io", Ports: []string{"buf.out", "ext"}},
		},
		Groups: []VertexGroup{
			{ID: "mem", Label: "memory", Vertices: []string{"ram"}, Groups: []string{"inner"}},
			{ID: "inner", Vertices: []string{"buf", "osc"},
				Touching: [][2]string{{"buf", "osc"}},
				Pairings: [][2]string{{"buf.in", "buf.out"}}},
		},
		Bundles: []Bundle{
			{ID: "b0", Edges: []string{"bus0"}, Bundles: []string{"b1"}},
			{ID: "b1", Edges: []string{"bus1"}},
		},
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := board()
	g, err := ToPortGraph(doc)
	require.NoError(t, err)

	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, 10, g.PortCount())
	assert.Equal(t, doc, FromPortGraph(g))
}

func TestToPortGraphSetsNames(t *testing.T) {
	g, err := ToPortGraph(board())
	require.NoError(t, err)

	names := map[string]bool{}
	for _, p := range g.Ports() {
		names[g.Port(p).Name] = true
	}
	assert.True(t, names["cpu.clk"])
	assert.True(t, names["ext"])

	for _, p := range g.Ports() {
		port := g.Port(p)
		switch port.Name {
		case "cpu.clk":
			assert.Equal(t, portgraph.OrientationNorth, port.Orientation)
		case "ext":
			assert.Equal(t, portgraph.NoVertex, port.Vertex)
		}
	}
}

func TestToPortGraphErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Graph)
	}{
		{"DuplicateVertex", func(d *Graph) { d.Vertices = append(d.Vertices, Vertex{ID: "cpu"}) }},
		{"EmptyVertexID", func(d *Graph) { d.Vertices = append(d.Vertices, Vertex{}) }},
		{"DuplicatePort", func(d *Graph) { d.OrphanPorts = append(d.OrphanPorts, Port{ID: "cpu.d0"}) }},
		{"UnknownOrientation", func(d *Graph) { d.Vertices[1].Ports[0].Orientation = "east" }},
		{"OrphanPortGroup", func(d *Graph) { d.OrphanPorts = append(d.OrphanPorts, Port{Group: true}) }},
		{"UnknownEdgePort", func(d *Graph) { d.Edges[0].Ports[1] = "nope" }},
		{"EmptyEdge", func(d *Graph) { d.Edges[0].Ports = nil }},
		{"DuplicateEdge", func(d *Graph) { d.Edges[1].ID = "bus0" }},
		{"VertexInTwoGroups", func(d *Graph) { d.Groups[1].Vertices = append(d.Groups[1].Vertices, "ram") }},
		{"UnknownGroupVertex", func(d *Graph) { d.Groups[0].Vertices = []string{"gpu"} }},
		{"UnknownSubgroup", func(d *Graph) { d.Groups[0].Groups = []string{"nope"} }},
		{"GroupCycle", func(d *Graph) { d.Groups[1].Groups = []string{"mem"} }},
		{"UnknownPairingPort", func(d *Graph) { d.Groups[1].Pairings[0][1] = "nope" }},
		{"UnknownTouchingVertex", func(d *Graph) { d.Groups[1].Touching[0][0] = "nope" }},
		{"UnknownBundleEdge", func(d *Graph) { d.Bundles[1].Edges = []string{"nope"} }},
		{"BundleCycle", func(d *Graph) { d.Bundles[1].Bundles = []string{"b0"} }},
		{"BundleNestedTwice", func(d *Graph) { d.Bundles = append(d.Bundles, Bundle{ID: "b2", Bundles: []string{"b1"}}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := board()
			tt.mutate(&doc)
			_, err := ToPortGraph(doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidGraph), "got %v", err)
		})
	}
}

func TestFromPortGraphGeneratesIDs(t *testing.T) {
	g := portgraph.New()
	a := g.AddVertex("a")
	b := g.AddVertex("b")
	pa, _ := g.AddPort(a, "")
	pb, _ := g.AddPort(b, "")
	_, err := g.AddEdge(pa, pb)
	require.NoError(t, err)

	doc := FromPortGraph(g)
	require.Len(t, doc.Vertices, 2)
	assert.Equal(t, "v0", doc.Vertices[0].ID)
	assert.Equal(t, "p1", doc.Vertices[1].Ports[0].ID)
	assert.Equal(t, Edge{ID: "e0", Ports: []string{"p0", "p1"}}, doc.Edges[0])

	// Generated IDs resolve when the document is read back.
	back, err := ToPortGraph(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, FromPortGraph(back))
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"graph.json", FormatJSON},
		{"graph.yaml", FormatYAML},
		{"dir/graph.YML", FormatYAML},
		{"graph", FormatJSON},
		{"graph.txt", FormatJSON},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFor(tt.path), tt.path)
	}
}

func TestFileRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			g, err := ToPortGraph(board())
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "board"+ext)
			require.NoError(t, WriteFile(g, path))

			back, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, board(), FromPortGraph(back))
		})
	}
}

func TestYAMLIsIndented(t *testing.T) {
	g, err := ToPortGraph(Graph{Vertices: []Vertex{{ID: "a", Ports: []Port{{ID: "a.p"}}}}})
	require.NoError(t, err)

	data, err := Marshal(g, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  - id: a\n")
}

func TestReadErrors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	_, err = Read(strings.NewReader("{not json"), FormatJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)

	_, err = Unmarshal([]byte("vertices: [unclosed"), FormatYAML)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)

	_, err = Unmarshal([]byte("{}"), Format("toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)

	_, err = Read(strings.NewReader(`{"vertices": [{"id": "a"}, {"id": "a"}]}`), FormatJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidGraph), "got %v", err)
}

func TestNewDrawing(t *testing.T) {
	g, err := ToPortGraph(Graph{
		Vertices: []Vertex{
			{ID: "cpu", Labels: []string{"CPU"}, Ports: []Port{
				{ID: "cpu.clk", Orientation: "north"}, {ID: "cpu.d0"}, {ID: "cpu.d1"},
			}},
			{ID: "ram", Ports: []Port{{ID: "ram.d0"}, {ID: "ram.d1"}}},
			{ID: "osc", Ports: []Port{{ID: "osc.out"}}},
		},
		Edges: []Edge{
			{ID: "bus0", Ports: []string{"cpu.d0", "ram.d0"}},
			{ID: "bus1", Ports: []string{"cpu.d1", "ram.d1"}},
			{ID: "clock", Ports: []string{"osc.out", "cpu.clk"}},
		},
		Groups: []VertexGroup{{ID: "mem", Vertices: []string{"ram"}}},
	})
	require.NoError(t, err)

	cfg := layered.DefaultConfig()
	cfg.Direction = layered.DirectionBFS
	_, err = layered.New(g, cfg).Run()
	require.NoError(t, err)

	d := NewDrawing(g)
	assert.Len(t, d.Vertices, 3)
	assert.Len(t, d.Ports, 6)
	assert.Len(t, d.Edges, 3)
	assert.Len(t, d.Groups, 1)

	cpu, ok := d.Vertex("cpu")
	require.True(t, ok)
	assert.Equal(t, "CPU", cpu.Label)
	assert.Positive(t, cpu.Rect.W)

	clk, ok := d.Port("cpu.clk")
	require.True(t, ok)
	assert.Equal(t, "cpu", clk.Vertex)

	_, ok = d.Port("nope")
	assert.False(t, ok)

	for _, e := range d.Edges {
		assert.NotEmpty(t, e.Paths, e.ID)
	}
	for _, v := range d.Vertices {
		assert.LessOrEqual(t, v.Rect.X+v.Rect.W, d.Width)
		assert.LessOrEqual(t, v.Rect.Y+v.Rect.H, d.Height)
	}
}

func TestApplyDrawing(t *testing.T) {
	doc := Graph{
		Vertices: []Vertex{
			{ID: "a", Ports: []Port{{ID: "a.out"}}},
			{ID: "b", Ports: []Port{{ID: "b.in"}}},
		},
		Edges: []Edge{{ID: "link", Ports: []string{"a.out", "b.in"}}},
	}
	g, err := ToPortGraph(doc)
	require.NoError(t, err)
	_, err = layered.New(g, layered.DefaultConfig()).Run()
	require.NoError(t, err)
	d := NewDrawing(g)

	fresh, err := ToPortGraph(doc)
	require.NoError(t, err)
	assert.Equal(t, 5, ApplyDrawing(fresh, d))
	assert.Equal(t, d, NewDrawing(fresh))
}

func TestDrawingFileRoundTrip(t *testing.T) {
	d := Drawing{
		RunID:     "run-1",
		Width:     120,
		Height:    80,
		Crossings: 1,
		Ranks:     [][]string{{"a"}, {"b", "c"}},
		Vertices:  []VertexShape{{ID: "a", Rect: Rect{X: 10, Y: 4, W: 40, H: 30}}},
		Edges:     []EdgeShape{{ID: "e", Paths: [][]Point{{{X: 20, Y: 34}, {X: 20, Y: 60}}}}},
	}
	dir := t.TempDir()
	for _, name := range []string{"d.json", "d.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteDrawingFile(d, path))
		back, err := ReadDrawingFile(path)
		require.NoError(t, err)
		assert.Equal(t, d, back, name)
	}

	_, err := ReadDrawingFile(filepath.Join(dir, "none.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("["), 0o644))
	_, err = ReadDrawingFile(filepath.Join(dir, "bad.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}
