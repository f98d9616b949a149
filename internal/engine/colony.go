package engine

// foodSource is one member of the colony's solution pool.
type foodSource struct {
	sol    *Solution
	score  float64
	trials int
}

// ColonySearch is the bee-colony style cohort: employed bees probe their
// own source, onlookers probe sources picked fitness-proportionally, and
// scouts rebuild sources that stagnated past the trial limit with fresh
// constructive builds.
type ColonySearch struct {
	opts Options

	ctx      *SchedulerContext
	roster   *Roster
	eval     *Evaluator
	neighbor *NeighborOperator
	builder  *GapFreeBuilder

	sources  []foodSource
	onlooker bool
	cursor   int
	target   int
	lastCand *Solution
}

// NewColonySearch builds an uninitialized swarm strategy; Initialize wires
// it to a run.
func NewColonySearch(opts Options) *ColonySearch {
	return &ColonySearch{opts: opts.withDefaults()}
}

func (c *ColonySearch) Initialize(ctx *SchedulerContext, r *Roster, eval *Evaluator) (*Solution, error) {
	c.ctx, c.roster, c.eval = ctx, r, eval
	c.neighbor = NewNeighborOperator(ctx, r, c.opts.NeighborAttempts)
	c.builder = NewGapFreeBuilder(ctx, r)
	c.onlooker = false
	c.cursor = 0

	c.sources = make([]foodSource, 0, c.opts.ColonySize)
	bestAt := 0
	for i := 0; i < c.opts.ColonySize; i++ {
		sol := c.builder.Build()
		c.sources = append(c.sources, foodSource{sol: sol, score: eval.Score(sol)})
		if c.sources[i].score > c.sources[bestAt].score {
			bestAt = i
		}
	}
	return c.sources[bestAt].sol.Clone(), nil
}

func (c *ColonySearch) ProposeNeighbor(current *Solution) *Solution {
	c.scout()
	if c.onlooker {
		c.target = c.roulette()
	} else {
		c.target = c.cursor
	}
	c.advance()
	cand := c.neighbor.Propose(c.sources[c.target].sol)
	if cand == nil {
		c.sources[c.target].trials++
		return nil
	}
	c.lastCand = cand
	return cand
}

// Accept applies the greedy source update: an improving candidate replaces
// its source and resets the trial counter, anything else burns a trial.
func (c *ColonySearch) Accept(currentScore, candidateScore float64) bool {
	src := &c.sources[c.target]
	if candidateScore > src.score {
		src.sol = c.lastCand
		src.score = candidateScore
		src.trials = 0
	} else {
		src.trials++
	}
	return candidateScore > currentScore
}

// scout abandons exhausted sources and rebuilds them constructively.
func (c *ColonySearch) scout() {
	for i := range c.sources {
		if c.sources[i].trials > c.opts.TrialLimit {
			sol := c.builder.Build()
			c.sources[i] = foodSource{sol: sol, score: c.eval.Score(sol)}
		}
	}
}

// roulette picks a source with probability proportional to its score,
// shifted so the worst source still has a sliver of a chance.
func (c *ColonySearch) roulette() int {
	worst := c.sources[0].score
	for _, s := range c.sources {
		if s.score < worst {
			worst = s.score
		}
	}
	total := 0.0
	for _, s := range c.sources {
		total += s.score - worst + 1
	}
	draw := c.ctx.Rand.Float64() * total
	acc := 0.0
	for i, s := range c.sources {
		acc += s.score - worst + 1
		if draw <= acc {
			return i
		}
	}
	return len(c.sources) - 1
}

// advance steps the employed/onlooker cycle: one full pass of each per
// colony sweep.
func (c *ColonySearch) advance() {
	c.cursor++
	if c.cursor >= len(c.sources) {
		c.cursor = 0
		c.onlooker = !c.onlooker
	}
}
