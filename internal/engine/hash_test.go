package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolutionHashTracksStructure(t *testing.T) {
	r := fixtureRoster(t)
	s := cleanSolution(r)

	c := s.Clone()
	assert.Equal(t, SolutionHash(s), SolutionHash(c))

	c.Assignments[3].Slot = 4
	assert.NotEqual(t, SolutionHash(s), SolutionHash(c))

	c.Assignments[3].Slot = 3
	assert.Equal(t, SolutionHash(s), SolutionHash(c))

	c.Assignments[0].Instructors[1] = 1
	assert.NotEqual(t, SolutionHash(s), SolutionHash(c))
}

func TestSolutionHashSeparatesSlateOrderAndPlacement(t *testing.T) {
	r := fixtureRoster(t)
	s := cleanSolution(r)

	reordered := s.Clone()
	reordered.Assignments[2].Instructors = []int{0, 1}
	assert.NotEqual(t, SolutionHash(s), SolutionHash(reordered))

	unplaced := s.Clone()
	unplaced.Assignments[3] = Assignment{Project: 3, Classroom: Unplaced, Slot: Unplaced}
	assert.NotEqual(t, SolutionHash(s), SolutionHash(unplaced))
}
