package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProjectKind distinguishes the short interim review from the full final
// defense. Final defenses are the only kind that requires a jury.
type ProjectKind int8

const (
	KindInterim ProjectKind = iota
	KindFinal
)

func (k ProjectKind) String() string {
	if k == KindFinal {
		return "final"
	}
	return "interim"
}

// ParseProjectKind maps the wire value onto a ProjectKind.
func ParseProjectKind(s string) (ProjectKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interim":
		return KindInterim, nil
	case "final":
		return KindFinal, nil
	default:
		return KindInterim, fmt.Errorf("unknown project kind %q", s)
	}
}

// InstructorCategory separates senior faculty from junior assistants.
type InstructorCategory int8

const (
	CategorySenior InstructorCategory = iota
	CategoryJunior
)

func (c InstructorCategory) String() string {
	if c == CategoryJunior {
		return "junior"
	}
	return "senior"
}

// ParseInstructorCategory maps the wire value onto an InstructorCategory.
func ParseInstructorCategory(s string) (InstructorCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "senior", "faculty", "":
		return CategorySenior, nil
	case "junior", "assistant":
		return CategoryJunior, nil
	default:
		return CategorySenior, fmt.Errorf("unknown instructor category %q", s)
	}
}

// Instructor is a read-only roster entry. Load counts are always derived
// from a Solution, never stored on the instructor.
type Instructor struct {
	ID         int
	ExternalID string
	Name       string
	Category   InstructorCategory
}

// Project is a read-only roster entry. Responsible is the dense id of the
// owning instructor.
type Project struct {
	ID          int
	ExternalID  string
	Kind        ProjectKind
	Makeup      bool
	Responsible int
}

// Classroom is a read-only roster entry.
type Classroom struct {
	ID         int
	ExternalID string
	Capacity   int
}

// Timeslot is a read-only roster entry. ID doubles as the total-order
// index: slots are sorted by start time before dense ids are assigned, so
// adjacency and gap reasoning work directly on ids.
type Timeslot struct {
	ID          int
	ExternalID  string
	StartMinute int
	EndMinute   int
	Reward      float64
	Forbidden   bool
	Boundary    bool
}

const (
	lateCutoffMinute   = 16*60 + 30
	lateBoundaryMinute = 16 * 60
)

// Label renders the slot start as HH:MM for reports and exports.
func (t Timeslot) Label() string {
	return fmt.Sprintf("%02d:%02d", t.StartMinute/60, t.StartMinute%60)
}

// RequiredInstructorCount returns the minimum slate size for a project and
// whether that size is exact. Interim reviews seat only the responsible
// instructor; final defenses add at least one jury member.
func RequiredInstructorCount(p Project) (int, bool) {
	if p.Kind == KindFinal {
		return 2, false
	}
	return 1, true
}

// InstructorInput, ProjectInput, ClassroomInput and TimeslotInput mirror
// the flat collections handed over by the data-loading layer. All ids are
// the caller's external identifiers.
type InstructorInput struct {
	ID       string
	Name     string
	Category string
}

type ProjectInput struct {
	ID            string
	Kind          string
	ResponsibleID string
	Makeup        bool
}

type ClassroomInput struct {
	ID       string
	Capacity int
}

type TimeslotInput struct {
	ID    string
	Start string
	End   string
}

// RosterInput bundles the four input collections for one scheduling run.
type RosterInput struct {
	Instructors []InstructorInput
	Projects    []ProjectInput
	Classrooms  []ClassroomInput
	Timeslots   []TimeslotInput
}

// ExcludedProject records a project dropped before solving, with the reason
// surfaced to callers alongside the run output.
type ExcludedProject struct {
	ProjectID string
	Reason    string
}

// Roster is the immutable input aggregate for one run. External string ids
// are interned into dense indexes at build time; everything downstream
// works on those indexes.
type Roster struct {
	Instructors []Instructor
	Projects    []Project
	Classrooms  []Classroom
	Slots       []Timeslot

	Excluded []ExcludedProject

	projectsByInstructor [][]int
	instructorIndex      map[string]int
	projectIndex         map[string]int
	classroomIndex       map[string]int
	slotIndex            map[string]int
}

// BuildRoster validates and interns the input collections. Empty
// instructor, classroom or timeslot pools are fatal; projects without a
// known responsible instructor are excluded and logged, never fatal.
func BuildRoster(in RosterInput, log *zap.Logger) (*Roster, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(in.Instructors) == 0 {
		return nil, &ConfigurationError{Reason: "instructor pool is empty"}
	}
	if len(in.Classrooms) == 0 {
		return nil, &ConfigurationError{Reason: "classroom pool is empty"}
	}
	if len(in.Timeslots) == 0 {
		return nil, &ConfigurationError{Reason: "timeslot pool is empty"}
	}

	r := &Roster{
		instructorIndex: make(map[string]int, len(in.Instructors)),
		projectIndex:    make(map[string]int, len(in.Projects)),
		classroomIndex:  make(map[string]int, len(in.Classrooms)),
		slotIndex:       make(map[string]int, len(in.Timeslots)),
	}

	for _, ins := range in.Instructors {
		if _, dup := r.instructorIndex[ins.ID]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate instructor id %q", ins.ID)}
		}
		cat, err := ParseInstructorCategory(ins.Category)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		id := len(r.Instructors)
		r.instructorIndex[ins.ID] = id
		r.Instructors = append(r.Instructors, Instructor{ID: id, ExternalID: ins.ID, Name: ins.Name, Category: cat})
	}

	for _, room := range in.Classrooms {
		if _, dup := r.classroomIndex[room.ID]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate classroom id %q", room.ID)}
		}
		id := len(r.Classrooms)
		r.classroomIndex[room.ID] = id
		r.Classrooms = append(r.Classrooms, Classroom{ID: id, ExternalID: room.ID, Capacity: room.Capacity})
	}

	slots := make([]TimeslotInput, len(in.Timeslots))
	copy(slots, in.Timeslots)
	starts := make(map[string]int, len(slots))
	ends := make(map[string]int, len(slots))
	for _, s := range slots {
		start, err := parseClock(s.Start)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("timeslot %q: %v", s.ID, err)}
		}
		end, err := parseClock(s.End)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("timeslot %q: %v", s.ID, err)}
		}
		starts[s.ID] = start
		ends[s.ID] = end
	}
	sort.SliceStable(slots, func(i, j int) bool { return starts[slots[i].ID] < starts[slots[j].ID] })
	for _, s := range slots {
		if _, dup := r.slotIndex[s.ID]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate timeslot id %q", s.ID)}
		}
		id := len(r.Slots)
		start := starts[s.ID]
		r.slotIndex[s.ID] = id
		r.Slots = append(r.Slots, Timeslot{
			ID:          id,
			ExternalID:  s.ID,
			StartMinute: start,
			EndMinute:   ends[s.ID],
			Reward:      float64(len(slots) - id),
			Forbidden:   start >= lateCutoffMinute,
			Boundary:    start >= lateBoundaryMinute && start < lateCutoffMinute,
		})
	}

	r.projectsByInstructor = make([][]int, len(r.Instructors))
	for _, p := range in.Projects {
		if _, dup := r.projectIndex[p.ID]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate project id %q", p.ID)}
		}
		kind, err := ParseProjectKind(p.Kind)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		resp, ok := r.instructorIndex[p.ResponsibleID]
		if p.ResponsibleID == "" || !ok {
			reason := (&MissingResponsibleError{ProjectID: p.ID, ResponsibleID: p.ResponsibleID}).Error()
			r.Excluded = append(r.Excluded, ExcludedProject{ProjectID: p.ID, Reason: reason})
			log.Warn("project excluded from run",
				zap.String("project_id", p.ID),
				zap.String("responsible_id", p.ResponsibleID),
				zap.String("reason", "missing responsible instructor"))
			continue
		}
		id := len(r.Projects)
		r.projectIndex[p.ID] = id
		r.Projects = append(r.Projects, Project{ID: id, ExternalID: p.ID, Kind: kind, Makeup: p.Makeup, Responsible: resp})
		r.projectsByInstructor[resp] = append(r.projectsByInstructor[resp], id)
	}

	return r, nil
}

// ProjectsOf lists the dense project ids owned by an instructor.
func (r *Roster) ProjectsOf(instructor int) []int {
	if instructor < 0 || instructor >= len(r.projectsByInstructor) {
		return nil
	}
	return r.projectsByInstructor[instructor]
}

// InstructorByExternal resolves an external instructor id.
func (r *Roster) InstructorByExternal(id string) (int, bool) {
	v, ok := r.instructorIndex[id]
	return v, ok
}

// ProjectByExternal resolves an external project id.
func (r *Roster) ProjectByExternal(id string) (int, bool) {
	v, ok := r.projectIndex[id]
	return v, ok
}

// ClassroomByExternal resolves an external classroom id.
func (r *Roster) ClassroomByExternal(id string) (int, bool) {
	v, ok := r.classroomIndex[id]
	return v, ok
}

// SlotByExternal resolves an external timeslot id.
func (r *Roster) SlotByExternal(id string) (int, bool) {
	v, ok := r.slotIndex[id]
	return v, ok
}

func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("unparseable time %q", s)
}

// SchedulerContext carries the explicit randomness and logging dependencies
// for one run. No engine code reaches for package-level rand or loggers, so
// runs are reproducible and safe to execute side by side.
type SchedulerContext struct {
	Rand *rand.Rand
	Log  *zap.Logger
}

// NewSchedulerContext seeds a private RNG for the run.
func NewSchedulerContext(seed int64, log *zap.Logger) *SchedulerContext {
	if log == nil {
		log = zap.NewNop()
	}
	return &SchedulerContext{Rand: rand.New(rand.NewSource(seed)), Log: log}
}

// Unplaced marks the slot and classroom of a project the solution does not
// schedule.
const Unplaced = -1

// Assignment seats one project in a classroom at a timeslot with its
// ordered instructor slate. Instructors[0] is always the project's
// responsible instructor; any further entries are jury members.
type Assignment struct {
	Project     int
	Classroom   int
	Slot        int
	Instructors []int
}

// Placed reports whether the assignment is actually scheduled.
func (a Assignment) Placed() bool { return a.Slot != Unplaced }

// Jury returns the non-responsible part of the slate.
func (a Assignment) Jury() []int {
	if len(a.Instructors) < 2 {
		return nil
	}
	return a.Instructors[1:]
}

// Solution is the mutable aggregate every strategy searches over.
// Assignments is indexed by dense project id; entries with Slot == Unplaced
// are not scheduled and surface in the validation report's coverage
// findings.
type Solution struct {
	Assignments []Assignment
}

// NewSolution returns a solution with every project unplaced.
func NewSolution(r *Roster) *Solution {
	s := &Solution{Assignments: make([]Assignment, len(r.Projects))}
	for i := range s.Assignments {
		s.Assignments[i] = Assignment{Project: i, Classroom: Unplaced, Slot: Unplaced}
	}
	return s
}

// Clone deep-copies the solution, including instructor slates.
func (s *Solution) Clone() *Solution {
	out := &Solution{Assignments: make([]Assignment, len(s.Assignments))}
	copy(out.Assignments, s.Assignments)
	for i := range out.Assignments {
		if n := len(out.Assignments[i].Instructors); n > 0 {
			slate := make([]int, n)
			copy(slate, s.Assignments[i].Instructors)
			out.Assignments[i].Instructors = slate
		}
	}
	return out
}

// PlacedCount counts scheduled projects.
func (s *Solution) PlacedCount() int {
	n := 0
	for i := range s.Assignments {
		if s.Assignments[i].Placed() {
			n++
		}
	}
	return n
}

// IsValid reports whether s satisfies the hard invariants: at most one
// assignment per project, exclusive (classroom, timeslot) occupancy, no
// instructor in two assignments sharing a timeslot, and the role rule for
// each project kind. It is cheap and runs before every scoring call.
func IsValid(r *Roster, s *Solution) bool {
	rooms := newBitset(len(r.Classrooms) * len(r.Slots))
	people := newBitset(len(r.Instructors) * len(r.Slots))
	return validInto(r, s, rooms, people)
}

func validInto(r *Roster, s *Solution, rooms, people bitset) bool {
	rooms.reset()
	people.reset()
	nSlots := len(r.Slots)
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		if a.Project != i {
			return false
		}
		if a.Classroom < 0 || a.Classroom >= len(r.Classrooms) || a.Slot < 0 || a.Slot >= nSlots {
			return false
		}
		cell := a.Classroom*nSlots + a.Slot
		if rooms.has(cell) {
			return false
		}
		rooms.set(cell)
		if len(a.Instructors) == 0 || a.Instructors[0] != r.Projects[i].Responsible {
			return false
		}
		for _, ins := range a.Instructors {
			if ins < 0 || ins >= len(r.Instructors) {
				return false
			}
			cell := ins*nSlots + a.Slot
			if people.has(cell) {
				return false
			}
			people.set(cell)
		}
		if r.Projects[i].Kind == KindFinal {
			hasJury := false
			for _, ins := range a.Instructors[1:] {
				if ins != a.Instructors[0] {
					hasJury = true
					break
				}
			}
			if !hasJury {
				return false
			}
		}
	}
	return true
}

// ClassroomGapCount sums, per classroom, the unoccupied slot indices lying
// strictly between that classroom's first and last occupied slots.
func ClassroomGapCount(r *Roster, s *Solution) int {
	type span struct {
		min, max, n int
	}
	spans := make([]span, len(r.Classrooms))
	for i := range spans {
		spans[i] = span{min: len(r.Slots), max: -1}
	}
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() || a.Classroom < 0 || a.Classroom >= len(r.Classrooms) {
			continue
		}
		sp := &spans[a.Classroom]
		if a.Slot < sp.min {
			sp.min = a.Slot
		}
		if a.Slot > sp.max {
			sp.max = a.Slot
		}
		sp.n++
	}
	gaps := 0
	for _, sp := range spans {
		if sp.n > 0 {
			gaps += sp.max - sp.min + 1 - sp.n
		}
	}
	return gaps
}

// InstructorGapCount sums, per instructor, the missing slot indices between
// that instructor's consecutive occupied slots.
func InstructorGapCount(r *Roster, s *Solution) int {
	occupied := make([][]int, len(r.Instructors))
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			if ins >= 0 && ins < len(occupied) {
				occupied[ins] = append(occupied[ins], a.Slot)
			}
		}
	}
	gaps := 0
	for _, slots := range occupied {
		if len(slots) < 2 {
			continue
		}
		sort.Ints(slots)
		for i := 1; i < len(slots); i++ {
			if d := slots[i] - slots[i-1]; d > 1 {
				gaps += d - 1
			}
		}
	}
	return gaps
}

type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int)      { b[i>>6] |= 1 << (uint(i) & 63) }
func (b bitset) clear(i int)    { b[i>>6] &^= 1 << (uint(i) & 63) }
func (b bitset) has(i int) bool { return b[i>>6]&(1<<(uint(i)&63)) != 0 }

func (b bitset) reset() {
	for i := range b {
		b[i] = 0
	}
}
