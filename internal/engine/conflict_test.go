package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConflictsReportsBothKinds(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 1, Slot: 0, Instructors: []int{0, 1}}
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[3] = Assignment{Project: 3, Classroom: 0, Slot: 0, Instructors: []int{2}}

	out := FindConflicts(r, s)
	require.Len(t, out, 2)

	assert.Equal(t, ConflictRoom, out[0].Kind)
	assert.Equal(t, 0, out[0].Resource)
	assert.Equal(t, 1, out[0].ProjectA)
	assert.Equal(t, 3, out[0].ProjectB)

	assert.Equal(t, ConflictInstructor, out[1].Kind)
	assert.Equal(t, 1, out[1].Resource)
	assert.Equal(t, 0, out[1].ProjectA)
	assert.Equal(t, 1, out[1].ProjectB)
	assert.Equal(t, "instructor", out[1].Kind.String())
	assert.Equal(t, "classroom", out[0].Kind.String())
}

func TestFindConflictsIgnoresCleanSolutions(t *testing.T) {
	r := fixtureRoster(t)
	assert.Empty(t, FindConflicts(r, cleanSolution(r)))
	assert.Empty(t, FindConflicts(r, NewSolution(r)))
}

func TestResolveConflictsRelocatesSecondBooking(t *testing.T) {
	r := buildRoster(t, RosterInput{
		Instructors: []InstructorInput{{ID: "ins-a"}, {ID: "ins-b"}},
		Projects: []ProjectInput{
			{ID: "prj-1", Kind: "interim", ResponsibleID: "ins-a"},
			{ID: "prj-2", Kind: "interim", ResponsibleID: "ins-b"},
		},
		Classrooms: []ClassroomInput{{ID: "room-1"}},
		Timeslots:  morningSlots(3),
	})

	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 0, Instructors: []int{0}}
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}

	moved := ResolveConflicts(NewSchedulerContext(1, nil), r, s)
	assert.Equal(t, 1, moved)
	assert.Empty(t, FindConflicts(r, s))
	assert.Equal(t, 0, s.Assignments[0].Slot)
	assert.Equal(t, 1, s.Assignments[1].Slot)
	require.True(t, IsValid(r, s))
}

func TestResolveConflictsFreesDoubleBookedInstructor(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[2] = Assignment{Project: 2, Classroom: 1, Slot: 0, Instructors: []int{1, 0}}

	moved := ResolveConflicts(NewSchedulerContext(1, nil), r, s)
	assert.Equal(t, 1, moved)
	assert.Empty(t, FindConflicts(r, s))
	assert.Equal(t, 1, s.Assignments[2].Classroom)
	assert.Equal(t, 1, s.Assignments[2].Slot)
	require.True(t, IsValid(r, s))
}

func TestResolveConflictsLeavesUnresolvableInPlace(t *testing.T) {
	r := buildRoster(t, RosterInput{
		Instructors: []InstructorInput{{ID: "ins-a"}, {ID: "ins-b"}},
		Projects: []ProjectInput{
			{ID: "prj-1", Kind: "interim", ResponsibleID: "ins-a"},
			{ID: "prj-2", Kind: "interim", ResponsibleID: "ins-b"},
		},
		Classrooms: []ClassroomInput{{ID: "room-1"}},
		Timeslots:  morningSlots(1),
	})

	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 0, Instructors: []int{0}}
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}

	moved := ResolveConflicts(NewSchedulerContext(1, nil), r, s)
	assert.Equal(t, 0, moved)
	// the leftover double booking surfaces through the duplicate detector
	rep := Validate(r, s)
	assert.False(t, rep.Accepted)
	assert.Len(t, rep.Duplicates, 1)
}
