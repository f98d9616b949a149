package engine

// tabuMemory is a fixed-size FIFO of recently visited solution hashes.
type tabuMemory struct {
	seen  map[uint64]struct{}
	order []uint64
	size  int
}

func newTabuMemory(size int) *tabuMemory {
	return &tabuMemory{seen: make(map[uint64]struct{}, size), size: size}
}

func (m *tabuMemory) contains(h uint64) bool {
	_, ok := m.seen[h]
	return ok
}

func (m *tabuMemory) push(h uint64) {
	if _, ok := m.seen[h]; ok {
		return
	}
	m.seen[h] = struct{}{}
	m.order = append(m.order, h)
	if len(m.order) > m.size {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.seen, oldest)
	}
}

// TabuSearch walks a single trajectory, refusing recently visited
// solutions unless they beat the global best by the aspiration margin,
// and restarts from a fresh constructive build after prolonged
// stagnation.
type TabuSearch struct {
	opts Options

	ctx      *SchedulerContext
	roster   *Roster
	eval     *Evaluator
	neighbor *NeighborOperator
	builder  *GapFreeBuilder
	memory   *tabuMemory

	bestScore      float64
	lastHash       uint64
	stagnation     int
	restartPending bool
	forceAccept    bool
}

// NewTabuSearch builds an uninitialized tabu strategy; Initialize wires it
// to a run.
func NewTabuSearch(opts Options) *TabuSearch {
	return &TabuSearch{opts: opts.withDefaults()}
}

func (t *TabuSearch) Initialize(ctx *SchedulerContext, r *Roster, eval *Evaluator) (*Solution, error) {
	t.ctx, t.roster, t.eval = ctx, r, eval
	t.neighbor = NewNeighborOperator(ctx, r, t.opts.NeighborAttempts)
	t.builder = NewGapFreeBuilder(ctx, r)
	t.memory = newTabuMemory(t.opts.TabuSize)
	t.stagnation = 0
	t.restartPending = false
	t.forceAccept = false

	sol := t.builder.Build()
	t.bestScore = eval.Score(sol)
	t.memory.push(SolutionHash(sol))
	return sol, nil
}

func (t *TabuSearch) ProposeNeighbor(current *Solution) *Solution {
	if t.restartPending {
		t.restartPending = false
		t.stagnation = 0
		t.forceAccept = true
		fresh := t.builder.Build()
		t.lastHash = SolutionHash(fresh)
		return fresh
	}
	cand := t.neighbor.Propose(current)
	if cand == nil {
		return nil
	}
	t.lastHash = SolutionHash(cand)
	return cand
}

// Accept implements the tabu rule: a proposal passes when it is absent
// from the memory or when it beats the best score by the aspiration
// margin. Restart proposals always pass so the trajectory actually jumps.
func (t *TabuSearch) Accept(currentScore, candidateScore float64) bool {
	if t.forceAccept {
		t.forceAccept = false
		t.memory.push(t.lastHash)
		t.track(candidateScore)
		return true
	}
	tabu := t.memory.contains(t.lastHash)
	aspires := candidateScore > t.bestScore+t.opts.AspirationMargin
	if tabu && !aspires {
		t.bumpStagnation()
		return false
	}
	t.memory.push(t.lastHash)
	t.track(candidateScore)
	return true
}

func (t *TabuSearch) track(candidateScore float64) {
	if candidateScore > t.bestScore {
		t.bestScore = candidateScore
		t.stagnation = 0
		return
	}
	t.bumpStagnation()
}

func (t *TabuSearch) bumpStagnation() {
	t.stagnation++
	if t.stagnation >= t.opts.RestartAfter {
		t.restartPending = true
	}
}
