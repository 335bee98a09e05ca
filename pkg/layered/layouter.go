// Package layered computes layered drawings of compound graphs with ports.
//
// A [Layouter] runs the stages of the Sugiyama framework on a private working
// copy of the caller's graph:
//
//  1. [Layouter.Normalize] rewrites bundles, orphan and portless elements,
//     hyperedges, vertex groups, ports with several edges and self-loops into
//     a simple graph, recording how to undo every rewrite.
//  2. [Layouter.AssignDirections] (or [Layouter.CopyDirections]) orients all
//     edges acyclically.
//  3. [Layouter.AssignLayers] ranks the vertices by network simplex.
//  4. [Layouter.CreateDummies] splits long edges, inserts turning dummies for
//     edges that leave a vertex on the wrong side and builds the initial
//     [SortingOrder].
//  5. [Layouter.MinimizeCrossings] reorders vertices and ports by layer
//     sweeps with random restarts.
//  6. [Layouter.PlaceNodes] assigns coordinates.
//  7. [Layouter.RouteEdges] draws orthogonal edge paths and transplants the
//     geometry back onto the caller's graph.
//
// Stages must run in this order; calling one early returns a STAGE_ORDER
// error. [Layouter.Run] executes all of them.
//
// Ranks grow downwards. An edge always leaves its upper vertex through a
// bottom port and enters its lower vertex through a top port.
package layered

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// Stage identifies a pipeline stage.
type Stage int

const (
	StageNew Stage = iota
	StageNormalized
	StageDirected
	StageLayered
	StageDummies
	StageOrdered
	StagePlaced
	StageRouted
)

var stageNames = [...]string{"new", "normalize", "directions", "layers", "dummies", "crossings", "placement", "routing"}

// String returns the name of the stage that produces s.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Side is the side of a vertex a port is drawn on.
type Side uint8

const (
	Top Side = iota
	Bottom
)

func (s Side) String() string {
	if s == Bottom {
		return "bottom"
	}
	return "top"
}

func (s Side) opposite() Side { return 1 - s }

type dummyKind uint8

const (
	notDummy dummyKind = iota
	longEdgeDummy
	turningDummy
	loopDummy
)

// Layouter holds the state of one layout run. It must not be used from
// several goroutines at once, and it must not be reused after a stage
// returned an error.
type Layouter struct {
	cfg Config
	log *log.Logger
	rng *rand.Rand

	orig  *portgraph.Graph
	g     *portgraph.Graph
	stage Stage

	diagnostics []string

	// Normalization records.
	bundleGroups     []portgraph.PortGroupID
	orphanVertices   map[portgraph.VertexID]portgraph.PortID
	portlessPorts    map[portgraph.PortID]portgraph.VertexID
	hyperEdges       map[portgraph.VertexID]portgraph.EdgeID
	hyperParts       map[portgraph.EdgeID]portgraph.VertexID
	groupReps        map[portgraph.VertexID]portgraph.VertexGroupID
	plugs            map[portgraph.VertexID]portgraph.VertexGroupID
	repOf            map[portgraph.VertexID]portgraph.VertexID
	members          map[portgraph.VertexID][]portgraph.VertexID
	replacedPorts    map[portgraph.PortID]portgraph.PortID
	multiEdgePorts   map[portgraph.PortID][]portgraph.PortID
	splitOf          map[portgraph.PortID]portgraph.PortID // fresh port -> port it was split from
	pairs            map[portgraph.PortID]portgraph.PortID
	replacedPairings map[portgraph.PortPairing]portgraph.PortPairing
	loopEdges        map[portgraph.VertexID][]portgraph.EdgeID
	loopEdgePorts    map[portgraph.EdgeID][2]portgraph.PortID

	// Directions.
	start map[portgraph.EdgeID]portgraph.VertexID
	end   map[portgraph.EdgeID]portgraph.VertexID

	// Snapshot of the normalized and directed graph, taken before dummies
	// are inserted.
	normalized *portgraph.Graph

	rank map[portgraph.VertexID]int

	// Dummy structure.
	side          map[portgraph.PortID]Side
	kind          map[portgraph.VertexID]dummyKind
	dummyEdge     map[portgraph.VertexID]portgraph.EdgeID // long-edge or loop dummy -> real edge
	chainLen      map[portgraph.EdgeID]int
	turningOf     map[portgraph.VertexID]portgraph.VertexID // turning dummy -> its vertex
	upperTurning  map[portgraph.VertexID]portgraph.VertexID
	lowerTurning  map[portgraph.VertexID]portgraph.VertexID
	corresponding map[portgraph.PortID]portgraph.PortID // port pairs at turning dummies
	dummyEdges    map[portgraph.EdgeID]portgraph.EdgeID // dummy edge -> real edge
	routes        map[portgraph.EdgeID][]portgraph.PortID

	order     *SortingOrder
	crossings int

	width, height float64
	paths         map[portgraph.EdgeID][]portgraph.Path
}

// New creates a layouter for g. The graph is only read until the last stage
// writes the drawing into it.
func New(g *portgraph.Graph, cfg Config) *Layouter {
	cfg.setDefaults()
	return &Layouter{
		cfg:              cfg,
		log:              cfg.Logger,
		rng:              rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		orig:             g,
		g:                g.Clone(),
		orphanVertices:   map[portgraph.VertexID]portgraph.PortID{},
		portlessPorts:    map[portgraph.PortID]portgraph.VertexID{},
		hyperEdges:       map[portgraph.VertexID]portgraph.EdgeID{},
		hyperParts:       map[portgraph.EdgeID]portgraph.VertexID{},
		groupReps:        map[portgraph.VertexID]portgraph.VertexGroupID{},
		plugs:            map[portgraph.VertexID]portgraph.VertexGroupID{},
		repOf:            map[portgraph.VertexID]portgraph.VertexID{},
		members:          map[portgraph.VertexID][]portgraph.VertexID{},
		replacedPorts:    map[portgraph.PortID]portgraph.PortID{},
		multiEdgePorts:   map[portgraph.PortID][]portgraph.PortID{},
		splitOf:          map[portgraph.PortID]portgraph.PortID{},
		pairs:            map[portgraph.PortID]portgraph.PortID{},
		replacedPairings: map[portgraph.PortPairing]portgraph.PortPairing{},
		loopEdges:        map[portgraph.VertexID][]portgraph.EdgeID{},
		loopEdgePorts:    map[portgraph.EdgeID][2]portgraph.PortID{},
		start:            map[portgraph.EdgeID]portgraph.VertexID{},
		end:              map[portgraph.EdgeID]portgraph.VertexID{},
	}
}

// Working returns the graph the stages operate on. It shares identifiers
// with the caller's graph; synthetic elements have higher identifiers.
func (l *Layouter) Working() *portgraph.Graph { return l.g }

// Stage returns the last completed stage.
func (l *Layouter) Stage() Stage { return l.stage }

// Diagnostics returns the non-fatal anomalies found so far.
func (l *Layouter) Diagnostics() []string { return l.diagnostics }

// Rank returns the rank of a vertex of the working graph.
func (l *Layouter) Rank(v portgraph.VertexID) (int, bool) {
	r, ok := l.rank[v]
	return r, ok
}

// Order returns the current sorting order, or nil before dummies exist.
func (l *Layouter) Order() *SortingOrder { return l.order }

// LoopEdges returns the self-loops extracted during normalization, keyed by
// the vertex of the working graph they belong to.
func (l *Layouter) LoopEdges() map[portgraph.VertexID][]portgraph.EdgeID { return l.loopEdges }

// Direction returns the start and end vertex of an edge of the working graph.
func (l *Layouter) Direction(e portgraph.EdgeID) (from, to portgraph.VertexID, ok bool) {
	from, ok = l.start[e]
	if !ok {
		return portgraph.NoVertex, portgraph.NoVertex, false
	}
	return from, l.end[e], true
}

// PortSide returns the side a port of the working graph is drawn on.
func (l *Layouter) PortSide(p portgraph.PortID) (Side, bool) {
	s, ok := l.side[p]
	return s, ok
}

// IsDummy reports whether v is a synthetic vertex inserted by the layouter,
// including hyperedge representatives.
func (l *Layouter) IsDummy(v portgraph.VertexID) bool {
	if _, ok := l.hyperEdges[v]; ok {
		return true
	}
	return l.kind[v] != notDummy
}

func (l *Layouter) require(want Stage) error {
	if l.stage != want {
		return errors.New(errors.ErrCodeStageOrder, "stage %q requires stage %q, last completed stage is %q",
			(want + 1).String(), want.String(), l.stage.String())
	}
	return nil
}

func (l *Layouter) diagnose(msg string, keyvals ...any) {
	l.log.Warn(msg, keyvals...)
	l.diagnostics = append(l.diagnostics, formatDiagnostic(msg, keyvals...))
}
