package engine

import (
	"math"
	"sort"
)

// Fixed score weights. The disqualifying constant keeps forbidden-slot use
// and classroom gaps strictly dominated by any solution without them while
// the score stays finite, so strategies can still rank infeasible states
// against each other on the way down.
const (
	DisqualifyingPenalty = 1_000_000.0
	BoundaryPenalty      = 25.0

	changePenaltyWeight = 10.0
	balanceWeight       = 50.0
)

// MinScore is assigned to any solution that fails IsValid.
const MinScore = -math.MaxFloat64

// Breakdown reports the individual score components for logs and tests.
type Breakdown struct {
	Valid            bool
	RuleCompliance   float64
	ClassroomChanges int
	BalanceScore     float64
	SlotPenalty      float64
	GapPenalty       float64
	Total            float64
}

type visit struct {
	slot, room int
}

// Evaluator turns solutions into comparable scores. It owns reusable
// scratch buffers, so one instance serves one run and must not be shared
// across goroutines.
type Evaluator struct {
	roster *Roster
	rooms  bitset
	people bitset
	loads  []float64
	sorted []float64
	visits [][]visit
}

// NewEvaluator sizes the scratch buffers for the given roster.
func NewEvaluator(r *Roster) *Evaluator {
	return &Evaluator{
		roster: r,
		rooms:  newBitset(len(r.Classrooms) * len(r.Slots)),
		people: newBitset(len(r.Instructors) * len(r.Slots)),
		loads:  make([]float64, len(r.Instructors)),
		sorted: make([]float64, len(r.Instructors)),
		visits: make([][]visit, len(r.Instructors)),
	}
}

// Score composes the fixed-weight fitness: role-rule compliance, classroom
// change penalty, Gini-based load balance and the timeslot/gap penalties.
// Solutions failing the hard invariants score MinScore immediately.
func (e *Evaluator) Score(s *Solution) float64 {
	if !validInto(e.roster, s, e.rooms, e.people) {
		return MinScore
	}
	return e.ruleCompliance(s)*100 -
		changePenaltyWeight*float64(e.classroomChanges(s)) +
		balanceWeight*e.BalanceScore(s) -
		e.slotPenalty(s) -
		e.gapPenalty(s)
}

// Explain computes the same composition as Score with each component
// broken out.
func (e *Evaluator) Explain(s *Solution) Breakdown {
	if !validInto(e.roster, s, e.rooms, e.people) {
		return Breakdown{Total: MinScore}
	}
	b := Breakdown{
		Valid:            true,
		RuleCompliance:   e.ruleCompliance(s) * 100,
		ClassroomChanges: e.classroomChanges(s),
		BalanceScore:     e.BalanceScore(s),
		SlotPenalty:      e.slotPenalty(s),
		GapPenalty:       e.gapPenalty(s),
	}
	b.Total = b.RuleCompliance - changePenaltyWeight*float64(b.ClassroomChanges) +
		balanceWeight*b.BalanceScore - b.SlotPenalty - b.GapPenalty
	return b
}

func (e *Evaluator) ruleCompliance(s *Solution) float64 {
	total, ok := 0, 0
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		total++
		if slateSatisfiesRole(e.roster.Projects[i], a) {
			ok++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

// slateSatisfiesRole checks the exact role-cardinality rule: interim
// reviews seat only the responsible instructor, final defenses seat the
// responsible plus at least one distinct jury member, nobody twice.
func slateSatisfiesRole(p Project, a *Assignment) bool {
	if len(a.Instructors) == 0 || a.Instructors[0] != p.Responsible {
		return false
	}
	min, exact := RequiredInstructorCount(p)
	if len(a.Instructors) < min {
		return false
	}
	if exact && len(a.Instructors) != min {
		return false
	}
	for j := 1; j < len(a.Instructors); j++ {
		if a.Instructors[j] == a.Instructors[0] {
			return false
		}
		for k := 1; k < j; k++ {
			if a.Instructors[j] == a.Instructors[k] {
				return false
			}
		}
	}
	return true
}

func (e *Evaluator) classroomChanges(s *Solution) int {
	for i := range e.visits {
		e.visits[i] = e.visits[i][:0]
	}
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			e.visits[ins] = append(e.visits[ins], visit{slot: a.Slot, room: a.Classroom})
		}
	}
	changes := 0
	for _, vs := range e.visits {
		if len(vs) < 2 {
			continue
		}
		sort.Slice(vs, func(i, j int) bool { return vs[i].slot < vs[j].slot })
		for i := 1; i < len(vs); i++ {
			if vs[i].room != vs[i-1].room {
				changes++
			}
		}
	}
	return changes
}

// BalanceScore maps the Gini coefficient of the per-instructor load vector
// onto [0, 100]; 100 means perfectly even loads.
func (e *Evaluator) BalanceScore(s *Solution) float64 {
	for i := range e.loads {
		e.loads[i] = 0
	}
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		for _, ins := range a.Instructors {
			e.loads[ins]++
		}
	}
	return (1 - giniCoefficient(e.loads, e.sorted)) * 100
}

// giniCoefficient computes inequality over v using scratch as the sorting
// buffer. The vector is shifted to non-negative before sorting and an
// epsilon keeps the all-zero denominator finite.
func giniCoefficient(v, scratch []float64) float64 {
	n := len(v)
	if n == 0 {
		return 0
	}
	scratch = scratch[:n]
	copy(scratch, v)
	min := scratch[0]
	for _, x := range scratch {
		if x < min {
			min = x
		}
	}
	if min < 0 {
		for i := range scratch {
			scratch[i] -= min
		}
	}
	sort.Float64s(scratch)
	var sum, weighted float64
	for i, x := range scratch {
		sum += x
		weighted += float64(2*(i+1)-n-1) * x
	}
	const eps = 1e-9
	return weighted / (float64(n)*sum + eps)
}

func (e *Evaluator) slotPenalty(s *Solution) float64 {
	var p float64
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if !a.Placed() {
			continue
		}
		slot := e.roster.Slots[a.Slot]
		switch {
		case slot.Forbidden:
			p += DisqualifyingPenalty
		case slot.Boundary:
			p += BoundaryPenalty
		}
	}
	return p
}

func (e *Evaluator) gapPenalty(s *Solution) float64 {
	return DisqualifyingPenalty * float64(ClassroomGapCount(e.roster, s))
}
