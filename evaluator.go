package bvsls

import "math/rand"

// bvValue is the per-node value state for a bit-vector-sorted node:
// bits0 (current), bits1 (recomputed from children's current values),
// and a fixed-bit mask.
type bvValue struct {
	bits0, bits1 *bv
	fixed        *bv // bit i == 1 means bit i is pinned
	init1        bool
}

// boolValue is the Boolean analogue.
type boolValue struct {
	val0, val1 bool
	fixed      bool
	init1      bool
}

// Oracle supplies an initial (or restart) bit for a symbol's bit-vector
// bit i, or for a whole Boolean symbol when the node is Boolean-sorted
// (in which case i is always 0).
type Oracle func(id NodeID, bitIndex uint) bool

// Evaluator owns per-node value state and the invertibility-based
// repair rules. It never touches repairSets -- the Scheduler (Engine)
// is the only caller that knows about down/up.
type Evaluator struct {
	terms *Terms
	bvv   []bvValue
	boolv []boolValue
	rng   *rand.Rand
}

func newEvaluator(t *Terms, rng *rand.Rand) *Evaluator {
	return &Evaluator{
		terms: t,
		bvv:   make([]bvValue, t.NumNodes()),
		boolv: make([]boolValue, t.NumNodes()),
		rng:   rng,
	}
}

// InitEval assigns an initial val0 to every assertion-reachable node.
// Uninterpreted constants ask the oracle, bit by bit for bit-vectors;
// internal nodes are computed bottom-up in ascending id order (which
// is a valid evaluation order for a DAG with no forward references,
// since children always intern before their parents).
func (e *Evaluator) InitEval(oracle Oracle) {
	for _, id := range e.terms.AllNodes() {
		n := e.terms.Term(id)
		if n.sort == SortBool {
			e.boolv[id].val0 = e.computeBoolVal0(n, oracle)
			e.boolv[id].init1 = false
		} else {
			e.bvv[id].bits0 = e.computeBVVal0(n, oracle)
			e.bvv[id].init1 = false
		}
	}
	for _, id := range e.terms.AllNodes() {
		e.recompute1(id)
	}
}

func (e *Evaluator) computeBoolVal0(n *node, oracle Oracle) bool {
	if n.op == OpSym {
		return oracle(n.id, 0)
	}
	if n.op == OpBoolConst {
		return n.constB
	}
	return e.eval1Bool(n)
}

func (e *Evaluator) computeBVVal0(n *node, oracle Oracle) *bv {
	if n.op == OpSym {
		// Bits InitFixed pinned keep their value; the oracle is only
		// asked for the unfixed ones.
		fm, cur := e.bvv[n.id].fixed, e.bvv[n.id].bits0
		r := newBV(n.width)
		for i := uint(0); i < n.width; i++ {
			var set bool
			if fm != nil && cur != nil && fm.bit(i) == 1 {
				set = cur.bit(i) == 1
			} else {
				set = oracle(n.id, i)
			}
			if set {
				r.setBit(i, 1)
			}
		}
		return r
	}
	if n.op == OpConst {
		return n.constBV.copy()
	}
	return e.eval1BV(n)
}

// InitFixed propagates hard constraints derivable from operator shape
// and assertion polarity. Every constant leaf is unconditionally fixed
// -- a literal can never be a repair target, since its value is part
// of the problem, not a variable. On top of that, an asserted equality
// between a symbol and a constant fixes every bit of that symbol (an
// asserted x = 5 fixes all bits of x). See DESIGN.md's Open Question
// log for why propagation stops here and doesn't chase deeper chains.
func (e *Evaluator) InitFixed() {
	for id := range e.bvv {
		n := e.terms.Term(NodeID(id))
		switch {
		case n.sort == SortBV && n.op == OpConst:
			e.bvv[id].fixed = bvFromBigInt(makeMask(n.width), n.width)
		case n.sort == SortBV:
			e.bvv[id].fixed = newBV(n.width)
		case n.sort == SortBool && n.op == OpBoolConst:
			e.boolv[id].fixed = true
		}
	}
	for _, a := range e.terms.Assertions() {
		e.propagateFixed(a)
	}
}

func (e *Evaluator) propagateFixed(assertion NodeID) {
	n := e.terms.Term(assertion)
	if n.op != OpEq {
		return
	}
	lhs, rhs := e.terms.Term(n.children[0]), e.terms.Term(n.children[1])
	switch {
	case lhs.op == OpSym && rhs.op == OpConst:
		e.fixSymTo(lhs.id, rhs.constBV)
	case rhs.op == OpSym && lhs.op == OpConst:
		e.fixSymTo(rhs.id, lhs.constBV)
	}
}

func (e *Evaluator) fixSymTo(sym NodeID, val *bv) {
	e.bvv[sym].fixed = bvFromBigInt(makeMask(val.w), val.w)
	e.bvv[sym].bits0 = val.copy()
}

// --- readers/writers the Scheduler uses ---

func (e *Evaluator) Bval0(id NodeID) bool { return e.boolv[id].val0 }
func (e *Evaluator) Wval0(id NodeID) *bv  { return e.bvv[id].bits0 }

// Bval1 and Wval1 recompute val1 from the children's current val0
// before returning it: a child may have changed since the last
// recompute, and val1 is a derivation of "the operator applied to
// children's current values", not a cache that tracks itself.
func (e *Evaluator) Bval1(id NodeID) bool {
	e.recompute1(id)
	return e.boolv[id].val1
}

func (e *Evaluator) Wval1(id NodeID) *bv {
	e.recompute1(id)
	return e.bvv[id].bits1
}

// Set overwrites val0 of a Boolean node -- used by the Scheduler to
// force a false assertion's desired value to true.
func (e *Evaluator) Set(id NodeID, v bool) { e.boolv[id].val0 = v }

func (e *Evaluator) IsFixed0(id NodeID) bool { return e.boolv[id].fixed }

func (e *Evaluator) FixedMask(id NodeID) *bv { return e.bvv[id].fixed }

// CanEval1 reports whether val1 is currently defined for id.
func (e *Evaluator) CanEval1(id NodeID) bool {
	n := e.terms.Term(id)
	if n.sort == SortBool {
		return e.boolv[id].init1
	}
	return e.bvv[id].init1
}

// RepairUp sets id's val0 to its val1, respecting any fixed bits (the
// fixed bits of id itself -- not of its children).
func (e *Evaluator) RepairUp(id NodeID) {
	e.recompute1(id)
	n := e.terms.Term(id)
	if n.sort == SortBool {
		if !e.boolv[id].fixed {
			e.boolv[id].val0 = e.boolv[id].val1
		}
		return
	}
	fm := e.bvv[id].fixed
	cur, new1 := e.bvv[id].bits0, e.bvv[id].bits1
	if fm == nil || fm.isZero() {
		e.bvv[id].bits0 = new1.copy()
		return
	}
	// keep fixed bits from cur, take the rest from new1
	kept := cur.and(fm)
	free := new1.and(fm.not())
	e.bvv[id].bits0 = kept.or(free)
}

// recompute1 fills in val1 for id from its children's current val0,
// and marks CanEval1(id) true. Every child of a node with a smaller
// id has already been visited because ids are assigned in construction
// order and the DAG is acyclic, so a single ascending pass suffices.
func (e *Evaluator) recompute1(id NodeID) {
	n := e.terms.Term(id)
	if n.sort == SortBool {
		e.boolv[id].val1 = e.eval1Bool(n)
		e.boolv[id].init1 = true
		return
	}
	e.bvv[id].bits1 = e.eval1BV(n)
	e.bvv[id].init1 = true
}

// SortAssertions returns the assertion-reachable nodes in an order
// where every child precedes its parents -- ascending NodeID already
// satisfies this (AllNodes is built that way), so this is a thin
// wrapper.
func (e *Evaluator) SortAssertions() []NodeID {
	return e.terms.AllNodes()
}
