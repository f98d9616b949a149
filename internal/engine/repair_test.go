package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairGapsPullsBookingsLeft(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[3] = Assignment{Project: 3, Classroom: 0, Slot: 2, Instructors: []int{2}}

	moved := RepairGaps(r, s)
	assert.Equal(t, 1, moved)
	assert.Equal(t, 1, s.Assignments[3].Slot)
	assert.Equal(t, 0, ClassroomGapCount(r, s))
	require.True(t, IsValid(r, s))
}

func TestRepairGapsCompactsMultipleHoles(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[3] = Assignment{Project: 3, Classroom: 0, Slot: 3, Instructors: []int{2}}
	s.Assignments[2] = Assignment{Project: 2, Classroom: 0, Slot: 5, Instructors: []int{1, 0}}

	moved := RepairGaps(r, s)
	assert.Equal(t, 2, moved)
	assert.Equal(t, 0, ClassroomGapCount(r, s))
	require.True(t, IsValid(r, s))
}

func TestRepairGapsRespectsPinnedSlates(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[3] = Assignment{Project: 3, Classroom: 0, Slot: 2, Instructors: []int{2}}
	// ins-c is busy in room-2 exactly where room-1 has its hole
	s.Assignments[2] = Assignment{Project: 2, Classroom: 1, Slot: 1, Instructors: []int{1, 2}}
	require.True(t, IsValid(r, s))

	moved := RepairGaps(r, s)
	assert.Equal(t, 0, moved)
	assert.Equal(t, 1, ClassroomGapCount(r, s))
}

func TestRepairGapsIsANoOpOnCompactRooms(t *testing.T) {
	r := fixtureRoster(t)
	s := cleanSolution(r)

	assert.Equal(t, 0, RepairGaps(r, s))
	assert.Equal(t, cleanSolution(r).Assignments, s.Assignments)
}
