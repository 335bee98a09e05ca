package layered

import (
	"cmp"
	"fmt"
	"maps"
	"strings"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// Stages lists the stages in the order they run.
var Stages = []Stage{StageNormalized, StageDirected, StageLayered, StageDummies, StageOrdered, StagePlaced, StageRouted}

// Result summarizes a finished layout. The drawing itself lives in the
// shapes and paths of the caller's graph.
type Result struct {
	Width     float64
	Height    float64
	Ranks     int
	Crossings int

	// Order is the final sorting order of the working graph.
	Order *SortingOrder

	// Normalization records, keyed by vertices of the working graph.
	VertexGroups map[portgraph.VertexID]portgraph.VertexGroupID
	Plugs        map[portgraph.VertexID]portgraph.VertexGroupID
	HyperEdges   map[portgraph.VertexID]portgraph.EdgeID
	LoopEdges    map[portgraph.VertexID][]portgraph.EdgeID

	// ReplacedPairings maps a pairing that moved to the first port split
	// from a port with several edges to the pairing it replaced. Both sides
	// are ports of the working graph.
	ReplacedPairings map[portgraph.PortPairing]portgraph.PortPairing

	Dummies     int
	Diagnostics []string
}

// Advance runs the stage after the last completed one and returns it.
func (l *Layouter) Advance() (Stage, error) {
	next := l.stage + 1
	var err error
	switch next {
	case StageNormalized:
		err = l.Normalize()
	case StageDirected:
		err = l.AssignDirections()
	case StageLayered:
		err = l.AssignLayers()
	case StageDummies:
		err = l.CreateDummies()
	case StageOrdered:
		err = l.MinimizeCrossings()
	case StagePlaced:
		err = l.PlaceNodes()
	case StageRouted:
		err = l.RouteEdges()
	default:
		err = errors.New(errors.ErrCodeStageOrder, "layout already finished")
	}
	return next, err
}

// Run executes all remaining stages and returns the result.
func (l *Layouter) Run() (Result, error) {
	for l.stage < StageRouted {
		if s, err := l.Advance(); err != nil {
			return Result{}, errors.Wrap(cmp.Or(errors.GetCode(err), errors.ErrCodeInternal), err, "stage %s", s)
		}
	}
	return l.Result(), nil
}

// Result returns the summary of the stages completed so far.
func (l *Layouter) Result() Result {
	res := Result{
		Width:            l.width,
		Height:           l.height,
		Crossings:        l.crossings,
		Order:            l.order,
		VertexGroups:     maps.Clone(l.groupReps),
		Plugs:            maps.Clone(l.plugs),
		HyperEdges:       maps.Clone(l.hyperEdges),
		LoopEdges:        maps.Clone(l.loopEdges),
		ReplacedPairings: maps.Clone(l.replacedPairings),
		Diagnostics:      l.diagnostics,
	}
	if l.order != nil {
		res.Ranks = len(l.order.Layers)
	}
	for _, k := range l.kind {
		if k != notDummy {
			res.Dummies++
		}
	}
	return res
}

// formatDiagnostic renders a message with its key-value pairs the way the
// logfmt formatter does.
func formatDiagnostic(msg string, keyvals ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	return b.String()
}
