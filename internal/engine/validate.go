package engine

import (
	"fmt"
	"sort"
)

// DefaultLoadTolerance is the allowed deviation from the mean instructor
// load before an instructor is flagged.
const DefaultLoadTolerance = 1.0

// DuplicateFinding reports a project assigned more than once or a
// (classroom, timeslot) pair booked twice.
type DuplicateFinding struct {
	ProjectID   string `json:"project_id,omitempty"`
	ClassroomID string `json:"classroom_id,omitempty"`
	TimeslotID  string `json:"timeslot_id,omitempty"`
	Count       int    `json:"count"`
}

// CoverageFinding lists roster projects absent from the solution and
// assignment entries pointing outside the roster.
type CoverageFinding struct {
	Missing []string `json:"missing"`
	Extra   []string `json:"extra"`
}

// GapRange is one run of unoccupied slot order-indices, inclusive.
type GapRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// GapFinding reports one classroom's missing slot index ranges.
type GapFinding struct {
	ClassroomID string     `json:"classroom_id"`
	Ranges      []GapRange `json:"ranges"`
	Count       int        `json:"count"`
}

// LateSlotFinding reports an assignment in the forbidden or boundary band.
type LateSlotFinding struct {
	ProjectID  string `json:"project_id"`
	TimeslotID string `json:"timeslot_id"`
	StartsAt   string `json:"starts_at"`
	Forbidden  bool   `json:"forbidden"`
}

// RoleViolationFinding reports a slate breaking the role rules.
type RoleViolationFinding struct {
	ProjectID string `json:"project_id"`
	Reason    string `json:"reason"`
}

// LoadFinding flags an instructor outside the balance tolerance.
type LoadFinding struct {
	InstructorID string  `json:"instructor_id"`
	Load         int     `json:"load"`
	Mean         float64 `json:"mean"`
	Deviation    float64 `json:"deviation"`
}

// SwitchFinding counts classroom switches for one instructor.
type SwitchFinding struct {
	InstructorID string `json:"instructor_id"`
	Switches     int    `json:"switches"`
}

// UtilizationFinding summarizes one classroom's slot usage.
type UtilizationFinding struct {
	ClassroomID string  `json:"classroom_id"`
	Occupied    int     `json:"occupied"`
	Available   int     `json:"available"`
	Ratio       float64 `json:"ratio"`
}

// ValidationReport aggregates every detector plus the accepted verdict.
// Accepted requires zero duplicates, full coverage, zero gaps, zero role
// violations, zero forbidden-slot usage and every instructor load within
// tolerance. Boundary-band slots are reported but do not block acceptance.
type ValidationReport struct {
	Accepted          bool                   `json:"accepted"`
	Duplicates        []DuplicateFinding     `json:"duplicates"`
	Coverage          CoverageFinding        `json:"coverage"`
	Gaps              []GapFinding           `json:"gaps"`
	LateSlots         []LateSlotFinding      `json:"late_slots"`
	RoleViolations    []RoleViolationFinding `json:"role_violations"`
	LoadViolations    []LoadFinding          `json:"load_balance_violations"`
	ClassroomSwitches []SwitchFinding        `json:"classroom_switch_counts"`
	Utilization       []UtilizationFinding   `json:"session_utilization"`
}

// Validate runs every detector over an engine solution with the default
// load tolerance.
func Validate(r *Roster, s *Solution) *ValidationReport {
	return ValidateAssignments(r, s.Assignments, DefaultLoadTolerance)
}

// ValidateAssignments runs every detector over an arbitrary assignment
// list. The detectors never mutate their input, so validating the same
// list twice always yields the same report.
func ValidateAssignments(r *Roster, assignments []Assignment, tolerance float64) *ValidationReport {
	rep := &ValidationReport{
		Duplicates:        DetectDuplicates(r, assignments),
		Coverage:          DetectCoverage(r, assignments),
		Gaps:              DetectGaps(r, assignments),
		LateSlots:         DetectLateSlots(r, assignments),
		RoleViolations:    DetectRoleViolations(r, assignments),
		LoadViolations:    DetectLoadBalanceViolations(r, assignments, tolerance),
		ClassroomSwitches: DetectClassroomSwitchCounts(r, assignments),
		Utilization:       DetectSessionUtilization(r, assignments),
	}
	forbidden := 0
	for _, f := range rep.LateSlots {
		if f.Forbidden {
			forbidden++
		}
	}
	rep.Accepted = len(rep.Duplicates) == 0 &&
		len(rep.Coverage.Missing) == 0 && len(rep.Coverage.Extra) == 0 &&
		len(rep.Gaps) == 0 &&
		len(rep.RoleViolations) == 0 &&
		forbidden == 0 &&
		len(rep.LoadViolations) == 0
	return rep
}

// DetectDuplicates finds projects assigned more than once and (classroom,
// timeslot) pairs booked by more than one assignment.
func DetectDuplicates(r *Roster, assignments []Assignment) []DuplicateFinding {
	var out []DuplicateFinding
	projectCount := map[int]int{}
	cellCount := map[[2]int]int{}
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() {
			continue
		}
		projectCount[a.Project]++
		cellCount[[2]int{a.Classroom, a.Slot}]++
	}
	for p, n := range projectCount {
		if n > 1 && p >= 0 && p < len(r.Projects) {
			out = append(out, DuplicateFinding{ProjectID: r.Projects[p].ExternalID, Count: n})
		}
	}
	for cell, n := range cellCount {
		if n > 1 && cell[0] >= 0 && cell[0] < len(r.Classrooms) && cell[1] >= 0 && cell[1] < len(r.Slots) {
			out = append(out, DuplicateFinding{
				ClassroomID: r.Classrooms[cell[0]].ExternalID,
				TimeslotID:  r.Slots[cell[1]].ExternalID,
				Count:       n,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID < out[j].ProjectID
		}
		if out[i].ClassroomID != out[j].ClassroomID {
			return out[i].ClassroomID < out[j].ClassroomID
		}
		return out[i].TimeslotID < out[j].TimeslotID
	})
	return out
}

// DetectCoverage compares assigned project ids against the roster.
func DetectCoverage(r *Roster, assignments []Assignment) CoverageFinding {
	placed := make([]bool, len(r.Projects))
	var extra []string
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() {
			continue
		}
		if a.Project < 0 || a.Project >= len(r.Projects) {
			extra = append(extra, fmt.Sprintf("#%d", a.Project))
			continue
		}
		placed[a.Project] = true
	}
	var missing []string
	for i, ok := range placed {
		if !ok {
			missing = append(missing, r.Projects[i].ExternalID)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return CoverageFinding{Missing: missing, Extra: extra}
}

// DetectGaps reports, per classroom, the exact unoccupied index ranges
// between the first and last occupied slot.
func DetectGaps(r *Roster, assignments []Assignment) []GapFinding {
	occupancy := make([][]bool, len(r.Classrooms))
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() || a.Classroom < 0 || a.Classroom >= len(r.Classrooms) || a.Slot < 0 || a.Slot >= len(r.Slots) {
			continue
		}
		if occupancy[a.Classroom] == nil {
			occupancy[a.Classroom] = make([]bool, len(r.Slots))
		}
		occupancy[a.Classroom][a.Slot] = true
	}
	var out []GapFinding
	for room, slots := range occupancy {
		if slots == nil {
			continue
		}
		first, last := -1, -1
		for i, used := range slots {
			if used {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		var ranges []GapRange
		count := 0
		for i := first; i >= 0 && i <= last; i++ {
			if slots[i] {
				continue
			}
			j := i
			for j+1 <= last && !slots[j+1] {
				j++
			}
			ranges = append(ranges, GapRange{From: i, To: j})
			count += j - i + 1
			i = j
		}
		if count > 0 {
			out = append(out, GapFinding{ClassroomID: r.Classrooms[room].ExternalID, Ranges: ranges, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassroomID < out[j].ClassroomID })
	return out
}

// DetectLateSlots reports assignments in the forbidden band (at or after
// the cutoff) and in the boundary band just before it.
func DetectLateSlots(r *Roster, assignments []Assignment) []LateSlotFinding {
	var out []LateSlotFinding
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() || a.Slot < 0 || a.Slot >= len(r.Slots) || a.Project < 0 || a.Project >= len(r.Projects) {
			continue
		}
		slot := r.Slots[a.Slot]
		if !slot.Forbidden && !slot.Boundary {
			continue
		}
		out = append(out, LateSlotFinding{
			ProjectID:  r.Projects[a.Project].ExternalID,
			TimeslotID: slot.ExternalID,
			StartsAt:   slot.Label(),
			Forbidden:  slot.Forbidden,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

// DetectRoleViolations reports slates breaking the role rules: a leader
// other than the responsible instructor, the responsible doubling as jury,
// duplicate jury members, or the wrong instructor count for the kind.
func DetectRoleViolations(r *Roster, assignments []Assignment) []RoleViolationFinding {
	var out []RoleViolationFinding
	add := func(project int, reason string) {
		out = append(out, RoleViolationFinding{ProjectID: r.Projects[project].ExternalID, Reason: reason})
	}
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() || a.Project < 0 || a.Project >= len(r.Projects) {
			continue
		}
		p := r.Projects[a.Project]
		if len(a.Instructors) == 0 {
			add(a.Project, "empty instructor slate")
			continue
		}
		if a.Instructors[0] != p.Responsible {
			add(a.Project, "slate does not lead with the responsible instructor")
			continue
		}
		dup := false
		for j := 1; j < len(a.Instructors); j++ {
			if a.Instructors[j] == a.Instructors[0] {
				add(a.Project, "responsible instructor doubles as jury")
				dup = true
				break
			}
			for k := 1; k < j; k++ {
				if a.Instructors[j] == a.Instructors[k] {
					add(a.Project, "duplicate jury member")
					dup = true
					break
				}
			}
			if dup {
				break
			}
		}
		if dup {
			continue
		}
		min, exact := RequiredInstructorCount(p)
		switch {
		case len(a.Instructors) < min:
			add(a.Project, fmt.Sprintf("%s defense needs at least %d instructors, has %d", p.Kind, min, len(a.Instructors)))
		case exact && len(a.Instructors) != min:
			add(a.Project, fmt.Sprintf("%s review seats exactly %d instructor, has %d", p.Kind, min, len(a.Instructors)))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

// DetectLoadBalanceViolations flags instructors whose assignment count
// deviates from the mean by more than the tolerance.
func DetectLoadBalanceViolations(r *Roster, assignments []Assignment, tolerance float64) []LoadFinding {
	if tolerance <= 0 {
		tolerance = DefaultLoadTolerance
	}
	loads := make([]int, len(r.Instructors))
	total := 0
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			if ins >= 0 && ins < len(loads) {
				loads[ins]++
				total++
			}
		}
	}
	if len(loads) == 0 {
		return nil
	}
	mean := float64(total) / float64(len(loads))
	var out []LoadFinding
	for i, load := range loads {
		dev := float64(load) - mean
		if dev > tolerance || dev < -tolerance {
			out = append(out, LoadFinding{
				InstructorID: r.Instructors[i].ExternalID,
				Load:         load,
				Mean:         mean,
				Deviation:    dev,
			})
		}
	}
	return out
}

// DetectClassroomSwitchCounts reports, per instructor, how many times
// their ordered assignments change classroom.
func DetectClassroomSwitchCounts(r *Roster, assignments []Assignment) []SwitchFinding {
	visits := make([][]visit, len(r.Instructors))
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			if ins >= 0 && ins < len(visits) {
				visits[ins] = append(visits[ins], visit{slot: a.Slot, room: a.Classroom})
			}
		}
	}
	var out []SwitchFinding
	for ins, vs := range visits {
		if len(vs) < 2 {
			continue
		}
		sort.Slice(vs, func(i, j int) bool { return vs[i].slot < vs[j].slot })
		switches := 0
		for i := 1; i < len(vs); i++ {
			if vs[i].room != vs[i-1].room {
				switches++
			}
		}
		if switches > 0 {
			out = append(out, SwitchFinding{InstructorID: r.Instructors[ins].ExternalID, Switches: switches})
		}
	}
	return out
}

// DetectSessionUtilization summarizes occupied versus available slots for
// every classroom.
func DetectSessionUtilization(r *Roster, assignments []Assignment) []UtilizationFinding {
	occupied := make([]int, len(r.Classrooms))
	for i := range assignments {
		a := &assignments[i]
		if !a.Placed() || a.Classroom < 0 || a.Classroom >= len(r.Classrooms) {
			continue
		}
		occupied[a.Classroom]++
	}
	out := make([]UtilizationFinding, 0, len(r.Classrooms))
	for room, n := range occupied {
		ratio := 0.0
		if len(r.Slots) > 0 {
			ratio = float64(n) / float64(len(r.Slots))
		}
		out = append(out, UtilizationFinding{
			ClassroomID: r.Classrooms[room].ExternalID,
			Occupied:    n,
			Available:   len(r.Slots),
			Ratio:       ratio,
		})
	}
	return out
}
