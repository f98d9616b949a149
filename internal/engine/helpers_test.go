package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildRoster(t *testing.T, in RosterInput) *Roster {
	t.Helper()
	r, err := BuildRoster(in, zap.NewNop())
	require.NoError(t, err)
	return r
}

// morningSlots returns n half-hour slots starting at 09:00, well clear of
// the late-afternoon bands.
func morningSlots(n int) []TimeslotInput {
	out := make([]TimeslotInput, 0, n)
	for i := 0; i < n; i++ {
		start := 9*60 + 30*i
		end := start + 30
		out = append(out, TimeslotInput{
			ID:    fmt.Sprintf("slot-%d", i+1),
			Start: fmt.Sprintf("%02d:%02d", start/60, start%60),
			End:   fmt.Sprintf("%02d:%02d", end/60, end%60),
		})
	}
	return out
}

// fixtureRoster is the default roster for engine tests: three instructors,
// two finals and two interims, two classrooms, six morning slots.
//
// Dense ids after interning: ins-a=0 ins-b=1 ins-c=2, prj-1..4=0..3,
// room-1=0 room-2=1, slot-1..6=0..5.
func fixtureRoster(t *testing.T) *Roster {
	t.Helper()
	return buildRoster(t, RosterInput{
		Instructors: []InstructorInput{
			{ID: "ins-a", Name: "Instructor A", Category: "senior"},
			{ID: "ins-b", Name: "Instructor B", Category: "senior"},
			{ID: "ins-c", Name: "Instructor C", Category: "junior"},
		},
		Projects: []ProjectInput{
			{ID: "prj-1", Kind: "final", ResponsibleID: "ins-a"},
			{ID: "prj-2", Kind: "interim", ResponsibleID: "ins-b"},
			{ID: "prj-3", Kind: "final", ResponsibleID: "ins-b"},
			{ID: "prj-4", Kind: "interim", ResponsibleID: "ins-c", Makeup: true},
		},
		Classrooms: []ClassroomInput{
			{ID: "room-1", Capacity: 30},
			{ID: "room-2", Capacity: 24},
		},
		Timeslots: morningSlots(6),
	})
}

// cleanSolution hand-places the fixture roster so every detector stays
// quiet: full coverage, one contiguous block in room-1, and exactly two
// appearances per instructor.
func cleanSolution(r *Roster) *Solution {
	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 0, Instructors: []int{0, 2}}
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 1, Instructors: []int{1}}
	s.Assignments[2] = Assignment{Project: 2, Classroom: 0, Slot: 2, Instructors: []int{1, 0}}
	s.Assignments[3] = Assignment{Project: 3, Classroom: 0, Slot: 3, Instructors: []int{2}}
	return s
}

// lateRoster has one morning slot, one boundary slot and one forbidden
// slot for the late-afternoon policy tests.
func lateRoster(t *testing.T) *Roster {
	t.Helper()
	return buildRoster(t, RosterInput{
		Instructors: []InstructorInput{{ID: "ins-a", Name: "Instructor A"}},
		Projects:    []ProjectInput{{ID: "prj-1", Kind: "interim", ResponsibleID: "ins-a"}},
		Classrooms:  []ClassroomInput{{ID: "room-1", Capacity: 20}},
		Timeslots: []TimeslotInput{
			{ID: "morning", Start: "09:00", End: "09:30"},
			{ID: "edge", Start: "16:00", End: "16:30"},
			{ID: "late", Start: "17:00", End: "17:30"},
		},
	})
}
