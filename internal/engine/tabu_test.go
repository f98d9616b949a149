package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabuMemoryEvictsOldest(t *testing.T) {
	m := newTabuMemory(2)
	m.push(1)
	m.push(2)
	require.True(t, m.contains(1))

	m.push(3)
	assert.False(t, m.contains(1))
	assert.True(t, m.contains(2))
	assert.True(t, m.contains(3))

	m.push(2) // already known, no reorder
	assert.Len(t, m.order, 2)
}

func TestTabuAcceptRevisitRules(t *testing.T) {
	ts := NewTabuSearch(Options{TabuSize: 8})
	ts.memory = newTabuMemory(8)
	ts.bestScore = 100

	ts.lastHash = 7
	ts.memory.push(7)
	assert.False(t, ts.Accept(50, 90), "known solution below the best is refused")
	assert.Equal(t, 1, ts.stagnation)

	assert.True(t, ts.Accept(50, 150), "aspiration overrides the memory")
	assert.Equal(t, 150.0, ts.bestScore)
	assert.Equal(t, 0, ts.stagnation)

	ts.lastHash = 9
	assert.True(t, ts.Accept(150, 120), "unseen solutions pass")
	assert.True(t, ts.memory.contains(9))
	assert.Equal(t, 1, ts.stagnation)
}

func TestTabuInitializeSeedsMemory(t *testing.T) {
	r := fixtureRoster(t)
	ts := NewTabuSearch(Options{})

	sol, err := ts.Initialize(NewSchedulerContext(3, nil), r, NewEvaluator(r))
	require.NoError(t, err)
	require.NotNil(t, sol)
	assert.True(t, ts.memory.contains(SolutionHash(sol)))
	assert.Equal(t, NewEvaluator(r).Score(sol), ts.bestScore)
}

func TestTabuRestartsAfterStagnation(t *testing.T) {
	r := fixtureRoster(t)
	ts := NewTabuSearch(Options{RestartAfter: 3})

	first, err := ts.Initialize(NewSchedulerContext(5, nil), r, NewEvaluator(r))
	require.NoError(t, err)

	ts.stagnation = 2
	ts.bumpStagnation()
	require.True(t, ts.restartPending)

	fresh := ts.ProposeNeighbor(first)
	require.NotNil(t, fresh)
	assert.False(t, ts.restartPending)
	require.True(t, ts.forceAccept)

	assert.True(t, ts.Accept(0, MinScore), "restart proposals pass regardless of score")
	assert.False(t, ts.forceAccept)
	assert.False(t, ts.restartPending)
}
