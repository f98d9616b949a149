package engine

import "go.uber.org/zap"

// ConflictKind names the resource two assignments are competing for.
type ConflictKind int8

const (
	ConflictInstructor ConflictKind = iota
	ConflictRoom
)

func (k ConflictKind) String() string {
	if k == ConflictRoom {
		return "classroom"
	}
	return "instructor"
}

// Conflict names two assignments claiming the same resource at the same
// timeslot. ProjectA always carries the lower project id.
type Conflict struct {
	Kind     ConflictKind
	Slot     int
	Resource int
	ProjectA int
	ProjectB int
}

// FindConflicts returns every pairwise instructor double-booking and
// classroom double-booking in slot order. The solution is not modified.
func FindConflicts(r *Roster, s *Solution) []Conflict {
	nSlots := len(r.Slots)
	var out []Conflict

	roomOwner := make(map[int]int)
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		cell := a.Classroom*nSlots + a.Slot
		if prev, taken := roomOwner[cell]; taken {
			out = append(out, Conflict{Kind: ConflictRoom, Slot: a.Slot, Resource: a.Classroom, ProjectA: prev, ProjectB: i})
			continue
		}
		roomOwner[cell] = i
	}

	instructorOwner := make(map[int]int)
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			cell := ins*nSlots + a.Slot
			if prev, taken := instructorOwner[cell]; taken {
				if prev != i {
					out = append(out, Conflict{Kind: ConflictInstructor, Slot: a.Slot, Resource: ins, ProjectA: prev, ProjectB: i})
				}
				continue
			}
			instructorOwner[cell] = i
		}
	}
	return out
}

// ResolveConflicts relocates the second assignment of each conflict to its
// next earliest free alternative: the lowest timeslot, preferring the
// assignment's current classroom, where the room and every listed
// instructor are free. Assignments that cannot be relocated keep their
// conflict for the validator to report. Returns the number of relocations.
func ResolveConflicts(ctx *SchedulerContext, r *Roster, s *Solution) int {
	moved := 0
	attempted := make(map[int]bool)
	for pass := 0; pass <= len(s.Assignments); pass++ {
		conflicts := FindConflicts(r, s)
		if len(conflicts) == 0 {
			break
		}
		progressed := false
		for _, c := range conflicts {
			victim := c.ProjectB
			if attempted[victim] {
				continue
			}
			attempted[victim] = true
			if relocate(r, s, victim) {
				moved++
				progressed = true
				ctx.Log.Debug("conflict resolved",
					zap.String("kind", c.Kind.String()),
					zap.String("project_id", r.Projects[victim].ExternalID),
					zap.Int("timeslot", c.Slot))
				break
			}
		}
		if !progressed {
			break
		}
	}
	return moved
}

// relocate moves one assignment to the earliest (slot, room) cell where
// the room and the whole slate are free, scanning the current room first
// at each slot.
func relocate(r *Roster, s *Solution, project int) bool {
	a := &s.Assignments[project]
	if !a.Placed() {
		return false
	}
	nSlots := len(r.Slots)
	rooms := newBitset(len(r.Classrooms) * nSlots)
	people := newBitset(len(r.Instructors) * nSlots)
	for i := range s.Assignments {
		other := &s.Assignments[i]
		if i == project || !other.Placed() {
			continue
		}
		rooms.set(other.Classroom*nSlots + other.Slot)
		for _, ins := range other.Instructors {
			people.set(ins*nSlots + other.Slot)
		}
	}
	slateFree := func(slot int) bool {
		for _, ins := range a.Instructors {
			if people.has(ins*nSlots + slot) {
				return false
			}
		}
		return true
	}
	for slot := 0; slot < nSlots; slot++ {
		if !slateFree(slot) {
			continue
		}
		if !rooms.has(a.Classroom*nSlots + slot) {
			a.Slot = slot
			return true
		}
		for room := 0; room < len(r.Classrooms); room++ {
			if room != a.Classroom && !rooms.has(room*nSlots+slot) {
				a.Classroom = room
				a.Slot = slot
				return true
			}
		}
	}
	return false
}
