package bvsls

import (
	"fmt"
	"io"
	"math/rand"
)

// Result is the outcome of a Run: the engine never reports
// unsatisfiability, only sat or unknown.
type Result int

const (
	ResultUnknown Result = iota
	ResultSat
)

func (r Result) String() string {
	if r == ResultSat {
		return "sat"
	}
	return "unknown"
}

// Engine owns the repair loop over a Terms universe and an Evaluator,
// coordinated through a pair of repairSets: construct, configure, run,
// extract result.
type Engine struct {
	terms *Terms
	ev    *Evaluator
	down  *repairSet
	up    *repairSet
	rng   *rand.Rand
	cfg   Config
	stats Stats
	trace Tracer
}

// NewEngine constructs an Engine over a finalized Terms universe. t
// must already have had Init() called.
func NewEngine(t *Terms) *Engine {
	cfg := DefaultConfig()
	return &Engine{
		terms: t,
		down:  newRepairSet(),
		up:    newRepairSet(),
		rng:   rand.New(rand.NewSource(cfg.RandomSeed)),
		cfg:   cfg,
		trace: nopTracer{},
	}
}

// UpdtParams installs a new Config, validating it first.
func (eng *Engine) UpdtParams(cfg Config) error {
	if err := cfg.UpdtParams(); err != nil {
		return err
	}
	eng.cfg = cfg
	eng.rng = rand.New(rand.NewSource(cfg.RandomSeed))
	return nil
}

// SetTracer installs a Tracer; the default is a no-op.
func (eng *Engine) SetTracer(tr Tracer) {
	if tr == nil {
		tr = nopTracer{}
	}
	eng.trace = tr
}

func (eng *Engine) Stats() Stats { return eng.stats }

// initEval installs oracle and primes every node's val0/val1, then
// rebuilds down/up from scratch.
func (eng *Engine) initEval(oracle Oracle) {
	eng.ev.InitEval(oracle)
	eng.down.reset()
	eng.up.reset()

	for _, a := range eng.terms.Assertions() {
		if !eng.ev.Bval0(a) {
			eng.ev.Set(a, true)
			eng.down.insert(a)
		}
	}
	for _, id := range eng.terms.AllNodes() {
		if eng.terms.IsAssertion(id) {
			continue
		}
		if eng.ev.CanEval1(id) && !eng.evalIsCorrect(id) {
			eng.down.insert(id)
		}
	}
}

// Init performs the one-time setup: finalizes the Evaluator over
// terms and installs an initial assignment drawn from randomOracle.
// Must be called before Run. Equivalent to InitWithOracle(nil).
func (eng *Engine) Init() {
	eng.InitWithOracle(nil)
}

// InitWithOracle performs the one-time setup, installing oracle as the
// initial-bit source for every uninterpreted constant's unfixed bits --
// mirroring the source procedure's own init_eval, which takes its
// initial-bit function from its caller rather than hardcoding one. A
// nil oracle falls back to randomOracle.
func (eng *Engine) InitWithOracle(oracle Oracle) {
	eng.ev = newEvaluator(eng.terms, eng.rng)
	eng.ev.InitFixed()
	if oracle == nil {
		oracle = randomOracle(eng.ev, eng.rng)
	}
	eng.initEval(oracle)
}

// Run executes the restart/search loop until sat, until the restart
// budget is exhausted, or until inc returns false. inc may be nil, in
// which case cancellation is never requested.
func (eng *Engine) Run(inc func() bool) Result {
	eng.stats.reset()
	if inc == nil {
		inc = func() bool { return true }
	}
	for {
		res := eng.search(inc)
		if res == ResultSat {
			return ResultSat
		}
		if !inc() {
			return ResultUnknown
		}
		if eng.stats.Restarts >= eng.cfg.MaxRestarts {
			return ResultUnknown
		}
		eng.stats.Restarts++
		eng.trace.Restart(eng.stats, eng.down.size(), eng.up.size())
		eng.initEval(keepMostlyOracle(eng.ev, eng.rng, eng.cfg.KeepPct))
	}
}

// search drains down/up via repair moves until both are empty (sat)
// or the move budget / cancellation predicate cuts it short (unknown).
func (eng *Engine) search(inc func() bool) Result {
	for {
		if eng.down.isEmpty() && eng.up.isEmpty() {
			return ResultSat
		}
		if eng.stats.Moves >= eng.cfg.MaxMoves {
			return ResultUnknown
		}
		if !inc() {
			return ResultUnknown
		}

		down, e, ok := eng.nextToRepair()
		if !ok {
			return ResultSat
		}
		eng.stats.Moves++

		correct := eng.evalIsCorrect(e)
		eng.trace.Move(down, e, eng.terms.Pp(e), eng.valueString(e), correct)

		if correct {
			if down {
				eng.down.remove(e)
			} else {
				eng.up.remove(e)
			}
			continue
		}

		if down {
			eng.tryRepairDown(e)
		} else {
			eng.tryRepairUp(e)
		}
	}
}

// valueString renders id's current value (val0) for tracing.
func (eng *Engine) valueString(id NodeID) string {
	if eng.terms.Term(id).sort == SortBool {
		if eng.ev.Bval0(id) {
			return "true"
		}
		return "false"
	}
	return eng.ev.Wval0(id).String()
}

// nextToRepair picks the next node to repair: down before up, each a
// uniform random member of its set.
func (eng *Engine) nextToRepair() (down bool, id NodeID, ok bool) {
	if !eng.down.isEmpty() {
		id, _ = eng.down.pickRandom(eng.rng)
		return true, id, true
	}
	if !eng.up.isEmpty() {
		id, _ = eng.up.pickRandom(eng.rng)
		return false, id, true
	}
	return false, 0, false
}

func (eng *Engine) evalIsCorrect(id NodeID) bool {
	n := eng.terms.Term(id)
	if !eng.ev.CanEval1(id) {
		return false
	}
	switch n.sort {
	case SortBool:
		return eng.ev.Bval0(id) == eng.ev.Bval1(id)
	case SortBV:
		return eng.ev.Wval0(id).eq(eng.ev.Wval1(id))
	default:
		panic("bvsls: eval_is_correct: node has neither Boolean nor bit-vector sort")
	}
}

// tryRepairDown attempts to repair one child, starting from a random
// index, wrapping around; gives up to up on exhaustion.
func (eng *Engine) tryRepairDown(e NodeID) {
	n := eng.terms.Term(e)
	nc := len(n.children)
	if nc == 0 {
		eng.down.remove(e)
		eng.up.insert(e)
		return
	}
	s := eng.rng.Intn(nc)
	for k := 0; k < nc; k++ {
		i := (s + k) % nc
		if eng.tryRepairChild(e, i) {
			return
		}
	}
	eng.down.remove(e)
	eng.up.insert(e)
}

func (eng *Engine) tryRepairChild(e NodeID, i int) bool {
	n := eng.terms.Term(e)
	c := n.children[i]
	if !eng.ev.TryRepair(e, i) {
		return false
	}
	eng.down.insert(c)
	for _, p := range eng.terms.Parents(c) {
		eng.up.insert(p)
	}
	return true
}

// tryRepairUp commits e's recomputed value upward, or moves an
// incorrect assertion back down for another repair attempt.
func (eng *Engine) tryRepairUp(e NodeID) {
	eng.up.remove(e)
	if eng.terms.IsAssertion(e) {
		eng.down.insert(e)
		return
	}
	eng.ev.RepairUp(e)
	for _, p := range eng.terms.Parents(e) {
		eng.up.insert(p)
	}
}

// Model extracts the satisfying assignment; call only after Run
// returned ResultSat.
func (eng *Engine) Model() *Model {
	return extractModel(eng.ev)
}

// Display dumps, per assertion-reachable node in ascending id order,
// its pretty-printed expression, current value, and down/up/fixed
// membership -- a debug aid, not part of the decision procedure itself.
func (eng *Engine) Display(out io.Writer) {
	for _, id := range eng.ev.SortAssertions() {
		n := eng.terms.Term(id)
		state := "idle"
		switch {
		case eng.down.contains(id):
			state = "down"
		case eng.up.contains(id):
			state = "up"
		}
		var value string
		if n.sort == SortBool {
			value = fmt.Sprintf("%v", eng.ev.Bval0(id))
		} else {
			value = eng.ev.Wval0(id).String()
		}
		fixed := ""
		if n.sort == SortBool && eng.ev.IsFixed0(id) {
			fixed = " fixed"
		} else if n.sort == SortBV && eng.ev.FixedMask(id) != nil && !eng.ev.FixedMask(id).isZero() {
			fixed = fmt.Sprintf(" fixed=%s", eng.ev.FixedMask(id))
		}
		fmt.Fprintf(out, "#%d %s = %s [%s]%s\n", id, eng.terms.Pp(id), value, state, fixed)
	}
}
