package layered

import (
	"fmt"
	"slices"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// CountCrossings returns the number of edge crossings of the working graph
// in order o. Between ranks r and r+1 every edge connects a bottom port of r
// with a top port of r+1; two edges cross if their endpoints appear in
// opposite order on the two sides. Edges that leave the same port of the
// caller's graph never cross each other at that port, so pairs of edges
// whose ports on one side were split from one port are not counted.
func (l *Layouter) CountCrossings(o *SortingOrder) int {
	total := 0
	for r := 0; r+1 < len(o.Layers); r++ {
		total += l.countBoundary(o.Sequence(r, Bottom), o.Sequence(r+1, Top))
	}
	return total
}

func (l *Layouter) countBoundary(upper, lower []portgraph.PortID) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := make(map[portgraph.PortID]int, len(lower))
	for i, p := range lower {
		lowerPos[p] = i
	}
	type siblings struct{ upper, lower portgraph.PortID }
	var segments [][2]int
	byUpper := map[portgraph.PortID][][2]int{}
	byLower := map[portgraph.PortID][][2]int{}
	byBoth := map[siblings][][2]int{}
	for i, p := range upper {
		for _, e := range l.g.Port(p).Edges {
			q, _ := l.g.Opposite(e, p)
			pos, ok := lowerPos[q]
			if !ok {
				panic(fmt.Sprintf("layered: port %d has no position below port %d", q, p))
			}
			s := [2]int{i, pos}
			segments = append(segments, s)
			up, upSplit := l.splitOf[p]
			lo, loSplit := l.splitOf[q]
			if upSplit {
				byUpper[up] = append(byUpper[up], s)
			}
			if loSplit {
				byLower[lo] = append(byLower[lo], s)
			}
			if upSplit && loSplit {
				k := siblings{up, lo}
				byBoth[k] = append(byBoth[k], s)
			}
		}
	}

	crossings := countInversions(segments, len(lower))
	for _, group := range byUpper {
		crossings -= countInversions(group, len(lower))
	}
	for _, group := range byLower {
		crossings -= countInversions(group, len(lower))
	}
	// Pairs split on both sides were subtracted twice.
	for _, group := range byBoth {
		crossings += countInversions(group, len(lower))
	}
	return crossings
}

// countInversions counts pairs of segments (u1,v1), (u2,v2) with u1 < u2 and
// v1 > v2 using a Fenwick tree over the lower positions. It runs in
// O(E log V).
func countInversions(segments [][2]int, width int) int {
	if len(segments) < 2 {
		return 0
	}
	slices.SortFunc(segments, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})

	fenwick := make([]int, width+1)
	crossings, total := 0, 0
	for _, s := range segments {
		// Query: count segments seen so far ending at or left of s.
		lessOrEqual := 0
		for q := s[1] + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := s[1] + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
