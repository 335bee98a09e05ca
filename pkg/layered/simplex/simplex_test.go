package simplex

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalLength(ranks []int, edges []Edge) int {
	sum := 0
	for _, e := range edges {
		sum += max(e.Weight, 1) * (ranks[e.Head] - ranks[e.Tail])
	}
	return sum
}

func assertFeasible(t *testing.T, ranks []int, edges []Edge) {
	t.Helper()
	for _, e := range edges {
		assert.GreaterOrEqual(t, ranks[e.Head]-ranks[e.Tail], max(e.MinLen, 1), "edge %d->%d", e.Tail, e.Head)
	}
}

func TestRankPullsShortBranchDown(t *testing.T) {
	// a -> b -> c -> d and x -> d. Longest path puts x on rank 0, the
	// optimum hangs it directly above d.
	const a, b, c, d, x = 0, 1, 2, 3, 4
	edges := []Edge{{Tail: a, Head: b}, {Tail: b, Head: c}, {Tail: c, Head: d}, {Tail: x, Head: d}}

	res, err := Rank(5, edges, 0)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, []int{0, 1, 2, 3, 2}, res.Ranks)
	assert.Equal(t, 4, totalLength(res.Ranks, edges))
}

func TestRankTable(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		edges  []Edge
		length int
	}{
		{"empty", 0, nil, 0},
		{"isolated", 3, nil, 0},
		{"diamond", 4, []Edge{{Tail: 0, Head: 1}, {Tail: 0, Head: 2}, {Tail: 1, Head: 3}, {Tail: 2, Head: 3}}, 4},
		{"shortcut", 3, []Edge{{Tail: 0, Head: 1}, {Tail: 1, Head: 2}, {Tail: 0, Head: 2}}, 4},
		{"weighted", 4, []Edge{{Tail: 0, Head: 1}, {Tail: 1, Head: 2}, {Tail: 3, Head: 2, Weight: 5}}, 7},
		{"min length", 2, []Edge{{Tail: 0, Head: 1, MinLen: 3}}, 3},
		{"two components", 4, []Edge{{Tail: 0, Head: 1}, {Tail: 3, Head: 2}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Rank(tt.n, tt.edges, 0)
			require.NoError(t, err)
			require.Len(t, res.Ranks, tt.n)
			assertFeasible(t, res.Ranks, tt.edges)
			assert.Equal(t, tt.length, totalLength(res.Ranks, tt.edges))
			for _, r := range res.Ranks {
				assert.GreaterOrEqual(t, r, 0)
			}
		})
	}
}

func TestRankComponentsStartAtZero(t *testing.T) {
	res, err := Rank(4, []Edge{{Tail: 0, Head: 1}, {Tail: 3, Head: 2}}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 0}, res.Ranks)
}

func TestRankIgnoresSelfLoops(t *testing.T) {
	res, err := Rank(2, []Edge{{Tail: 0, Head: 0}, {Tail: 0, Head: 1}}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Ranks)
}

func TestRankErrors(t *testing.T) {
	_, err := Rank(2, []Edge{{Tail: 0, Head: 1}, {Tail: 1, Head: 0}}, 0)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = Rank(2, []Edge{{Tail: 0, Head: 2}}, 0)
	assert.ErrorIs(t, err, ErrNodeRange)
}

func TestRankIterationCapStaysFeasible(t *testing.T) {
	edges := []Edge{{Tail: 0, Head: 1}, {Tail: 1, Head: 2}, {Tail: 2, Head: 3}, {Tail: 4, Head: 3}}
	res, err := Rank(5, edges, 1)
	require.NoError(t, err)
	assertFeasible(t, res.Ranks, edges)
	assert.LessOrEqual(t, res.Iterations, 1)
}

func ExampleRank() {
	// app depends on lib and util, lib depends on util.
	edges := []Edge{
		{Tail: 0, Head: 1},
		{Tail: 0, Head: 2},
		{Tail: 1, Head: 2},
	}
	res, _ := Rank(3, edges, 0)
	fmt.Println(res.Ranks)
	// Output:
	// [0 1 2]
}
