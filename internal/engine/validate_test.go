package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsCleanSolution(t *testing.T) {
	r := fixtureRoster(t)
	rep := Validate(r, cleanSolution(r))

	require.True(t, rep.Accepted)
	assert.Empty(t, rep.Duplicates)
	assert.Empty(t, rep.Coverage.Missing)
	assert.Empty(t, rep.Coverage.Extra)
	assert.Empty(t, rep.Gaps)
	assert.Empty(t, rep.LateSlots)
	assert.Empty(t, rep.RoleViolations)
	assert.Empty(t, rep.LoadViolations)
	assert.Empty(t, rep.ClassroomSwitches)

	require.Len(t, rep.Utilization, 2)
	assert.Equal(t, "room-1", rep.Utilization[0].ClassroomID)
	assert.Equal(t, 4, rep.Utilization[0].Occupied)
	assert.Equal(t, 6, rep.Utilization[0].Available)
	assert.InDelta(t, 4.0/6.0, rep.Utilization[0].Ratio, 1e-9)
	assert.Equal(t, 0, rep.Utilization[1].Occupied)
}

func TestValidateReportIsIdempotent(t *testing.T) {
	r := fixtureRoster(t)
	s := cleanSolution(r)

	require.Equal(t, Validate(r, s), Validate(r, s))
}

func TestValidateFlagsUnplacedProjects(t *testing.T) {
	r := fixtureRoster(t)
	rep := Validate(r, NewSolution(r))

	require.False(t, rep.Accepted)
	assert.Equal(t, []string{"prj-1", "prj-2", "prj-3", "prj-4"}, rep.Coverage.Missing)
	assert.Empty(t, rep.Gaps)
	assert.Empty(t, rep.LoadViolations)
}

func TestDetectDuplicates(t *testing.T) {
	r := fixtureRoster(t)
	s := cleanSolution(r)

	list := append([]Assignment{}, s.Assignments...)
	list = append(list, Assignment{Project: 0, Classroom: 1, Slot: 5, Instructors: []int{0, 2}})
	list = append(list, Assignment{Project: 1, Classroom: 0, Slot: 1, Instructors: []int{1}})

	rep := ValidateAssignments(r, list, DefaultLoadTolerance)
	require.False(t, rep.Accepted)
	require.Len(t, rep.Duplicates, 3)

	// cell findings sort ahead of project findings
	assert.Equal(t, "room-1", rep.Duplicates[0].ClassroomID)
	assert.Equal(t, "slot-2", rep.Duplicates[0].TimeslotID)
	assert.Equal(t, 2, rep.Duplicates[0].Count)
	assert.Equal(t, "prj-1", rep.Duplicates[1].ProjectID)
	assert.Equal(t, "prj-2", rep.Duplicates[2].ProjectID)
}

func TestDetectCoverageMissingAndExtra(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 0, Instructors: []int{0, 1}}

	list := append([]Assignment{}, s.Assignments...)
	list = append(list, Assignment{Project: 9, Classroom: 1, Slot: 1, Instructors: []int{2}})

	cov := DetectCoverage(r, list)
	assert.Equal(t, []string{"prj-2", "prj-3", "prj-4"}, cov.Missing)
	assert.Equal(t, []string{"#9"}, cov.Extra)
}

func TestDetectGapsReportsExactRanges(t *testing.T) {
	r := buildRoster(t, RosterInput{
		Instructors: []InstructorInput{{ID: "ins-1"}, {ID: "ins-2"}, {ID: "ins-3"}, {ID: "ins-4"}},
		Projects: []ProjectInput{
			{ID: "prj-1", Kind: "interim", ResponsibleID: "ins-1"},
			{ID: "prj-2", Kind: "interim", ResponsibleID: "ins-2"},
			{ID: "prj-3", Kind: "interim", ResponsibleID: "ins-3"},
			{ID: "prj-4", Kind: "interim", ResponsibleID: "ins-4"},
		},
		Classrooms: []ClassroomInput{{ID: "room-1"}},
		Timeslots:  morningSlots(8),
	})

	s := NewSolution(r)
	for i, slot := range []int{0, 3, 4, 6} {
		s.Assignments[i] = Assignment{Project: i, Classroom: 0, Slot: slot, Instructors: []int{i}}
	}

	gaps := DetectGaps(r, s.Assignments)
	require.Len(t, gaps, 1)
	assert.Equal(t, "room-1", gaps[0].ClassroomID)
	assert.Equal(t, 3, gaps[0].Count)
	assert.Equal(t, []GapRange{{From: 1, To: 2}, {From: 5, To: 5}}, gaps[0].Ranges)
}

func TestDetectRoleViolations(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 0, Instructors: []int{0}}
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 1, Instructors: []int{1, 2}}
	s.Assignments[2] = Assignment{Project: 2, Classroom: 0, Slot: 2, Instructors: []int{1, 1}}
	s.Assignments[3] = Assignment{Project: 3, Classroom: 0, Slot: 3, Instructors: []int{0}}

	out := DetectRoleViolations(r, s.Assignments)
	require.Len(t, out, 4)
	assert.Equal(t, "prj-1", out[0].ProjectID)
	assert.Contains(t, out[0].Reason, "at least 2")
	assert.Contains(t, out[1].Reason, "exactly 1")
	assert.Contains(t, out[2].Reason, "doubles as jury")
	assert.Contains(t, out[3].Reason, "responsible instructor")
}

func TestDetectLoadBalanceViolations(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 2, Instructors: []int{0, 1}}
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[2] = Assignment{Project: 2, Classroom: 0, Slot: 1, Instructors: []int{1, 0}}

	out := DetectLoadBalanceViolations(r, s.Assignments, 1.0)
	require.Len(t, out, 2)
	assert.Equal(t, "ins-b", out[0].InstructorID)
	assert.Equal(t, 3, out[0].Load)
	assert.InDelta(t, 5.0/3.0, out[0].Mean, 1e-9)
	assert.Positive(t, out[0].Deviation)
	assert.Equal(t, "ins-c", out[1].InstructorID)
	assert.Negative(t, out[1].Deviation)

	assert.Empty(t, DetectLoadBalanceViolations(r, s.Assignments, 2.0))
}

func TestDetectClassroomSwitchCounts(t *testing.T) {
	r := fixtureRoster(t)
	s := NewSolution(r)
	s.Assignments[1] = Assignment{Project: 1, Classroom: 0, Slot: 0, Instructors: []int{1}}
	s.Assignments[2] = Assignment{Project: 2, Classroom: 1, Slot: 1, Instructors: []int{1, 0}}

	out := DetectClassroomSwitchCounts(r, s.Assignments)
	require.Len(t, out, 1)
	assert.Equal(t, "ins-b", out[0].InstructorID)
	assert.Equal(t, 1, out[0].Switches)
}

func TestValidateLateSlotPolicy(t *testing.T) {
	r := lateRoster(t)

	s := NewSolution(r)
	s.Assignments[0] = Assignment{Project: 0, Classroom: 0, Slot: 2, Instructors: []int{0}}
	rep := Validate(r, s)
	require.False(t, rep.Accepted)
	require.Len(t, rep.LateSlots, 1)
	assert.True(t, rep.LateSlots[0].Forbidden)
	assert.Equal(t, "17:00", rep.LateSlots[0].StartsAt)

	// the boundary band is reported but does not block acceptance
	s.Assignments[0].Slot = 1
	rep = Validate(r, s)
	require.True(t, rep.Accepted)
	require.Len(t, rep.LateSlots, 1)
	assert.False(t, rep.LateSlots[0].Forbidden)
	assert.Equal(t, "16:00", rep.LateSlots[0].StartsAt)
}
