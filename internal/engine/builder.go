package engine

import (
	"sort"

	"go.uber.org/zap"
)

// projectPriority ranks what gets packed first: regular finals, then
// regular interims, then makeup finals, then makeup interims.
func projectPriority(p Project) int {
	switch {
	case p.Kind == KindFinal && !p.Makeup:
		return 0
	case p.Kind == KindInterim && !p.Makeup:
		return 1
	case p.Kind == KindFinal:
		return 2
	default:
		return 3
	}
}

// GapFreeBuilder constructs the initial solution with one state machine
// per instructor: SEEK an anchor classroom, PACK the instructor's projects
// strictly forward from there, then PAIR adjacent instructors in each
// classroom as mutual jury members on their final defenses.
type GapFreeBuilder struct {
	ctx    *SchedulerContext
	roster *Roster
}

// NewGapFreeBuilder binds the builder to a run context and roster.
func NewGapFreeBuilder(ctx *SchedulerContext, r *Roster) *GapFreeBuilder {
	return &GapFreeBuilder{ctx: ctx, roster: r}
}

// Build produces a fresh solution. Successive calls reshuffle priority
// ties through the run's RNG, so population strategies get diverse seeds
// from the same builder.
func (b *GapFreeBuilder) Build() *Solution {
	r := b.roster
	nSlots := len(r.Slots)
	s := NewSolution(r)
	rooms := newBitset(len(r.Classrooms) * nSlots)
	people := newBitset(len(r.Instructors) * nSlots)

	for _, ins := range b.instructorOrder() {
		projects := b.orderedProjects(ins)
		if len(projects) == 0 {
			continue
		}
		anchor, slot := b.seek(ins, rooms, people)
		if anchor < 0 {
			b.ctx.Log.Warn("no free cell left for instructor",
				zap.String("instructor_id", r.Instructors[ins].ExternalID),
				zap.Int("projects", len(projects)))
			continue
		}
		cursor := slot
		for _, p := range projects {
			room, at := b.nextFree(ins, anchor, cursor, rooms, people)
			if room < 0 {
				b.ctx.Log.Warn("timeslot pool exhausted while packing",
					zap.String("instructor_id", r.Instructors[ins].ExternalID),
					zap.String("project_id", r.Projects[p].ExternalID))
				break
			}
			a := &s.Assignments[p]
			a.Classroom = room
			a.Slot = at
			a.Instructors = []int{ins}
			rooms.set(room*nSlots + at)
			people.set(ins*nSlots + at)
			if room == anchor && at >= cursor {
				cursor = at + 1
			}
		}
	}

	b.pair(s, people)
	b.juryFallback(s, rooms, people)
	RepairGaps(r, s)
	return s
}

// instructorOrder ranks instructors by their most urgent project class and
// shuffles ties through the run's RNG.
func (b *GapFreeBuilder) instructorOrder() []int {
	r := b.roster
	rank := make([]int, len(r.Instructors))
	var order []int
	for ins := range r.Instructors {
		projects := r.ProjectsOf(ins)
		if len(projects) == 0 {
			continue
		}
		best := 4
		for _, p := range projects {
			if pr := projectPriority(r.Projects[p]); pr < best {
				best = pr
			}
		}
		rank[ins] = best
		order = append(order, ins)
	}
	b.ctx.Rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	sort.SliceStable(order, func(i, j int) bool { return rank[order[i]] < rank[order[j]] })
	return order
}

// orderedProjects returns the instructor's projects, most urgent first.
func (b *GapFreeBuilder) orderedProjects(ins int) []int {
	r := b.roster
	src := r.ProjectsOf(ins)
	out := make([]int, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return projectPriority(r.Projects[out[i]]) < projectPriority(r.Projects[out[j]])
	})
	return out
}

// seek scans (classroom, timeslot) cells in timeslot order for the first
// one that is free and does not clash with the instructor's own bookings.
func (b *GapFreeBuilder) seek(ins int, rooms, people bitset) (int, int) {
	r := b.roster
	nSlots := len(r.Slots)
	for slot := 0; slot < nSlots; slot++ {
		if people.has(ins*nSlots + slot) {
			continue
		}
		for room := 0; room < len(r.Classrooms); room++ {
			if !rooms.has(room*nSlots + slot) {
				return room, slot
			}
		}
	}
	return -1, -1
}

// nextFree returns the anchor's next free non-clashing slot at or after
// cursor, falling back to the global earliest cell once the anchor is
// exhausted.
func (b *GapFreeBuilder) nextFree(ins, anchor, cursor int, rooms, people bitset) (int, int) {
	r := b.roster
	nSlots := len(r.Slots)
	for slot := cursor; slot < nSlots; slot++ {
		if rooms.has(anchor*nSlots+slot) || people.has(ins*nSlots+slot) {
			continue
		}
		return anchor, slot
	}
	return b.seek(ins, rooms, people)
}

// pair walks each classroom's instructor arrival order and seats adjacent
// instructors as mutual jury members on each other's final defenses in
// that classroom.
func (b *GapFreeBuilder) pair(s *Solution, people bitset) {
	for room := 0; room < len(b.roster.Classrooms); room++ {
		order := arrivalOrder(b.roster, s, room)
		for i := 0; i+1 < len(order); i++ {
			b.juryFor(s, people, order[i], order[i+1], room)
			b.juryFor(s, people, order[i+1], order[i], room)
		}
	}
}

// juryFor seats juror on every final defense owner has in room, skipping
// slates the juror is already on, projects the juror owns, and slots where
// the juror is booked.
func (b *GapFreeBuilder) juryFor(s *Solution, people bitset, owner, juror, room int) {
	r := b.roster
	nSlots := len(r.Slots)
	for _, p := range r.ProjectsOf(owner) {
		a := &s.Assignments[p]
		if !a.Placed() || a.Classroom != room || r.Projects[p].Kind != KindFinal {
			continue
		}
		if juror == a.Instructors[0] || containsInt(a.Instructors, juror) {
			continue
		}
		if people.has(juror*nSlots + a.Slot) {
			continue
		}
		a.Instructors = append(a.Instructors, juror)
		people.set(juror*nSlots + a.Slot)
	}
}

// arrivalOrder lists the instructors responsible for bookings in room,
// ordered by their first occupied slot there.
func arrivalOrder(r *Roster, s *Solution, room int) []int {
	first := make(map[int]int)
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() || a.Classroom != room {
			continue
		}
		owner := a.Instructors[0]
		if cur, ok := first[owner]; !ok || a.Slot < cur {
			first[owner] = a.Slot
		}
	}
	order := make([]int, 0, len(first))
	for ins := range first {
		order = append(order, ins)
	}
	sort.Slice(order, func(i, j int) bool {
		if first[order[i]] != first[order[j]] {
			return first[order[i]] < first[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}

// juryFallback retries finals still lacking a jury against the whole
// instructor pool, preferring the least-loaded eligible candidate. Finals
// that remain impossible are unassigned; the freed cells are reported
// through the coverage findings and the caller compacts any gap left
// behind. Returns the number of dropped finals.
func (b *GapFreeBuilder) juryFallback(s *Solution, rooms, people bitset) int {
	r := b.roster
	nSlots := len(r.Slots)
	loads := make([]int, len(r.Instructors))
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			loads[ins]++
		}
	}
	dropped := 0
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() || r.Projects[i].Kind != KindFinal || len(a.Instructors) >= 2 {
			continue
		}
		best := -1
		for ins := range r.Instructors {
			if ins == a.Instructors[0] || people.has(ins*nSlots+a.Slot) {
				continue
			}
			if best < 0 || loads[ins] < loads[best] {
				best = ins
			}
		}
		if best >= 0 {
			a.Instructors = append(a.Instructors, best)
			people.set(best*nSlots + a.Slot)
			loads[best]++
			continue
		}
		infeasible := &InfeasibleRoleError{ProjectID: r.Projects[i].ExternalID}
		b.ctx.Log.Warn("final defense left unassigned", zap.Error(infeasible))
		rooms.clear(a.Classroom*nSlots + a.Slot)
		people.clear(a.Instructors[0]*nSlots + a.Slot)
		loads[a.Instructors[0]]--
		a.Classroom, a.Slot, a.Instructors = Unplaced, Unplaced, nil
		dropped++
	}
	return dropped
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
