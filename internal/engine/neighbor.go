package engine

// moveKind enumerates the structural perturbations every strategy shares.
type moveKind int8

const (
	moveSwapClassrooms moveKind = iota
	moveSwapSlots
	moveResampleSlate
)

var moveWeights = [...]int{
	moveSwapClassrooms: 3,
	moveSwapSlots:      4,
	moveResampleSlate:  3,
}

// NeighborOperator derives candidates by one structural move per call:
// swap two assignments' classrooms, swap their timeslots, or resample a
// slate. Proposals violating the hard occupancy invariants are discarded
// before they ever reach the evaluator.
type NeighborOperator struct {
	ctx      *SchedulerContext
	roster   *Roster
	attempts int
	rooms    bitset
	people   bitset
	placed   []int
}

// NewNeighborOperator sizes the scratch buffers; attempts bounds how many
// rejected mutations one Propose call tolerates.
func NewNeighborOperator(ctx *SchedulerContext, r *Roster, attempts int) *NeighborOperator {
	if attempts <= 0 {
		attempts = 8
	}
	return &NeighborOperator{
		ctx:      ctx,
		roster:   r,
		attempts: attempts,
		rooms:    newBitset(len(r.Classrooms) * len(r.Slots)),
		people:   newBitset(len(r.Instructors) * len(r.Slots)),
	}
}

// Propose clones current and applies one weighted random move. Nil means
// no structurally valid move was found within the attempt budget.
func (o *NeighborOperator) Propose(current *Solution) *Solution {
	o.placed = o.placed[:0]
	for i := range current.Assignments {
		if current.Assignments[i].Placed() {
			o.placed = append(o.placed, i)
		}
	}
	if len(o.placed) == 0 {
		return nil
	}
	for try := 0; try < o.attempts; try++ {
		cand := current.Clone()
		ok := false
		switch o.pick() {
		case moveSwapClassrooms:
			ok = o.swapClassrooms(cand)
		case moveSwapSlots:
			ok = o.swapSlots(cand)
		case moveResampleSlate:
			ok = o.resampleSlate(cand)
		}
		if ok && validInto(o.roster, cand, o.rooms, o.people) {
			return cand
		}
	}
	return nil
}

func (o *NeighborOperator) pick() moveKind {
	total := 0
	for _, w := range moveWeights {
		total += w
	}
	n := o.ctx.Rand.Intn(total)
	for kind, w := range moveWeights {
		if n < w {
			return moveKind(kind)
		}
		n -= w
	}
	return moveSwapSlots
}

func (o *NeighborOperator) pickTwo() (int, int) {
	if len(o.placed) < 2 {
		return -1, -1
	}
	i := o.ctx.Rand.Intn(len(o.placed))
	j := o.ctx.Rand.Intn(len(o.placed) - 1)
	if j >= i {
		j++
	}
	return o.placed[i], o.placed[j]
}

func (o *NeighborOperator) swapClassrooms(s *Solution) bool {
	a, b := o.pickTwo()
	if a < 0 {
		return false
	}
	x, y := &s.Assignments[a], &s.Assignments[b]
	if x.Classroom == y.Classroom {
		return false
	}
	x.Classroom, y.Classroom = y.Classroom, x.Classroom
	return true
}

func (o *NeighborOperator) swapSlots(s *Solution) bool {
	a, b := o.pickTwo()
	if a < 0 {
		return false
	}
	x, y := &s.Assignments[a], &s.Assignments[b]
	if x.Slot == y.Slot {
		return false
	}
	x.Slot, y.Slot = y.Slot, x.Slot
	return true
}

// resampleSlate rebuilds the non-responsible part of one slate: finals get
// one freshly drawn jury member, interims shed any extra instructors.
func (o *NeighborOperator) resampleSlate(s *Solution) bool {
	p := o.placed[o.ctx.Rand.Intn(len(o.placed))]
	a := &s.Assignments[p]
	if o.roster.Projects[p].Kind == KindInterim {
		if len(a.Instructors) <= 1 {
			return false
		}
		a.Instructors = a.Instructors[:1]
		return true
	}
	if len(o.roster.Instructors) < 2 {
		return false
	}
	juror := o.ctx.Rand.Intn(len(o.roster.Instructors) - 1)
	if juror >= a.Instructors[0] {
		juror++
	}
	a.Instructors = append(a.Instructors[:1], juror)
	return true
}
