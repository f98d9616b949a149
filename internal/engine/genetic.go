package engine

import "sort"

type individual struct {
	sol   *Solution
	score float64
}

// GeneticSearch evolves a fixed-size population one generation at a time.
// The harness sees the children of the current generation as a stream of
// proposals; once all of them have been scored through Accept, the elite
// survivors and the scored children replace the old population.
type GeneticSearch struct {
	opts Options

	ctx      *SchedulerContext
	roster   *Roster
	eval     *Evaluator
	neighbor *NeighborOperator
	builder  *GapFreeBuilder

	population []individual
	pending    []*Solution
	incoming   []individual
	lastChild  *Solution
}

// NewGeneticSearch builds an uninitialized population strategy; Initialize
// wires it to a run.
func NewGeneticSearch(opts Options) *GeneticSearch {
	return &GeneticSearch{opts: opts.withDefaults()}
}

func (g *GeneticSearch) Initialize(ctx *SchedulerContext, r *Roster, eval *Evaluator) (*Solution, error) {
	g.ctx, g.roster, g.eval = ctx, r, eval
	g.neighbor = NewNeighborOperator(ctx, r, g.opts.NeighborAttempts)
	g.builder = NewGapFreeBuilder(ctx, r)
	g.pending = nil
	g.incoming = nil

	g.population = make([]individual, 0, g.opts.PopulationSize)
	for i := 0; i < g.opts.PopulationSize; i++ {
		sol := g.builder.Build()
		g.population = append(g.population, individual{sol: sol, score: eval.Score(sol)})
	}
	g.sortPopulation()
	return g.population[0].sol.Clone(), nil
}

func (g *GeneticSearch) ProposeNeighbor(current *Solution) *Solution {
	if len(g.pending) == 0 {
		g.breed()
	}
	if len(g.pending) == 0 {
		return nil
	}
	child := g.pending[len(g.pending)-1]
	g.pending = g.pending[:len(g.pending)-1]
	g.lastChild = child
	return child
}

// Accept records the harness's score for the last child and finishes the
// generation turnover once every child has come back. The return value
// only steers the harness's current pointer toward improving children.
func (g *GeneticSearch) Accept(currentScore, candidateScore float64) bool {
	g.incoming = append(g.incoming, individual{sol: g.lastChild, score: candidateScore})
	if len(g.incoming) >= g.opts.PopulationSize-g.opts.EliteCount {
		g.turnover()
	}
	return candidateScore > currentScore
}

// breed fills pending with one generation of children: tournament-selected
// parents, single-point crossover over the project-indexed assignment
// list, optional mutation, then conflict and gap repair.
func (g *GeneticSearch) breed() {
	n := g.opts.PopulationSize - g.opts.EliteCount
	for i := 0; i < n; i++ {
		pa := g.tournament()
		pb := g.tournament()
		child := g.crossover(pa.sol, pb.sol)
		if g.ctx.Rand.Float64() < g.opts.MutationRate {
			if m := g.neighbor.Propose(child); m != nil {
				child = m
			}
		}
		ResolveConflicts(g.ctx, g.roster, child)
		RepairGaps(g.roster, child)
		g.pending = append(g.pending, child)
	}
}

func (g *GeneticSearch) tournament() individual {
	best := g.population[g.ctx.Rand.Intn(len(g.population))]
	for i := 1; i < g.opts.TournamentSize; i++ {
		other := g.population[g.ctx.Rand.Intn(len(g.population))]
		if other.score > best.score {
			best = other
		}
	}
	return best
}

// crossover copies parent a and splices parent b's placements in from a
// random cut point. Both parents index assignments by project, so the
// splice never mixes up project identities; collisions it introduces are
// repaired afterwards.
func (g *GeneticSearch) crossover(a, b *Solution) *Solution {
	child := a.Clone()
	cut := g.ctx.Rand.Intn(len(child.Assignments) + 1)
	for i := cut; i < len(child.Assignments); i++ {
		src := &b.Assignments[i]
		dst := &child.Assignments[i]
		dst.Classroom = src.Classroom
		dst.Slot = src.Slot
		if len(src.Instructors) == 0 {
			dst.Instructors = nil
			continue
		}
		slate := make([]int, len(src.Instructors))
		copy(slate, src.Instructors)
		dst.Instructors = slate
	}
	return child
}

func (g *GeneticSearch) turnover() {
	g.sortPopulation()
	next := make([]individual, 0, g.opts.PopulationSize)
	next = append(next, g.population[:g.opts.EliteCount]...)
	next = append(next, g.incoming...)
	g.population = next
	g.incoming = nil
	g.sortPopulation()
}

func (g *GeneticSearch) sortPopulation() {
	sort.SliceStable(g.population, func(i, j int) bool {
		return g.population[i].score > g.population[j].score
	})
}
