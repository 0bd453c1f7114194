package bvsls

import "fmt"

// Terms owns the shared expression DAG: a dense-id node arena, a
// hash-consing cache (so structurally identical subterms share one
// id), the set of assertion roots, and -- once Init is called -- the
// child-to-parents index the Scheduler walks on every repair move.
//
// Terms is the external contract for building a problem: node
// construction plus the parents() / is_assertion() / term() queries
// the Scheduler needs.
type Terms struct {
	nodes      []*node
	hashCons   map[uint64][]NodeID
	assertions []NodeID
	isAssert   []bool
	symByName  map[string]NodeID

	initialized bool
	parents     [][]NodeID
	allNodes    []NodeID
}

// NewTerms constructs an empty term universe.
func NewTerms() *Terms {
	return &Terms{
		hashCons:  make(map[uint64][]NodeID),
		symByName: make(map[string]NodeID),
	}
}

func (t *Terms) mustNotBeInitialized(where string) {
	if t.initialized {
		panic("bvsls: Terms." + where + " called after Init()")
	}
}

// intern hash-conses n, returning an existing NodeID if a structurally
// equal node already exists, else inserting n and assigning it a fresh
// dense id.
func (t *Terms) intern(n *node) NodeID {
	h := n.hashKey()
	for _, id := range t.hashCons[h] {
		if t.nodes[id].shallowEq(n) {
			return id
		}
	}
	id := NodeID(len(t.nodes))
	n.id = id
	t.nodes = append(t.nodes, n)
	t.parents = append(t.parents, nil) // kept in lockstep; finalized at Init
	t.isAssert = append(t.isAssert, false)
	t.hashCons[h] = append(t.hashCons[h], id)
	return id
}

func checkWidths(op string, a, b uint) error {
	if a != b {
		return fmt.Errorf("bvsls: %s: mismatched widths %d and %d", op, a, b)
	}
	return nil
}

// --- leaves ---

// Sym creates (or returns the existing) uninterpreted bit-vector
// constant of the given name and width.
func (t *Terms) Sym(name string, width uint) NodeID {
	t.mustNotBeInitialized("Sym")
	if width == 0 {
		panic("bvsls: Sym: width must be >= 1")
	}
	key := fmt.Sprintf("bv:%s:%d", name, width)
	if id, ok := t.symByName[key]; ok {
		return id
	}
	id := t.intern(&node{sort: SortBV, width: width, op: OpSym, name: name})
	t.symByName[key] = id
	return id
}

// BoolSym creates (or returns the existing) uninterpreted Boolean
// constant of the given name.
func (t *Terms) BoolSym(name string) NodeID {
	t.mustNotBeInitialized("BoolSym")
	key := fmt.Sprintf("bool:%s", name)
	if id, ok := t.symByName[key]; ok {
		return id
	}
	id := t.intern(&node{sort: SortBool, op: OpSym, name: name})
	t.symByName[key] = id
	return id
}

// Const creates a bit-vector constant of the given width from v's low
// width bits.
func (t *Terms) Const(v uint64, width uint) NodeID {
	t.mustNotBeInitialized("Const")
	if width == 0 {
		panic("bvsls: Const: width must be >= 1")
	}
	return t.intern(&node{sort: SortBV, width: width, op: OpConst, constBV: bvFromUint64(v, width)})
}

// BoolConst creates a Boolean constant.
func (t *Terms) BoolConst(v bool) NodeID {
	t.mustNotBeInitialized("BoolConst")
	return t.intern(&node{sort: SortBool, op: OpBoolConst, constB: v})
}

// --- bit-vector arithmetic/bitwise operators ---

func (t *Terms) binBV(op Op, opName string, a, b NodeID) (NodeID, error) {
	t.mustNotBeInitialized(opName)
	na, nb := t.nodes[a], t.nodes[b]
	if err := checkWidths(opName, na.width, nb.width); err != nil {
		return invalidNodeID, err
	}
	return t.intern(&node{sort: SortBV, width: na.width, op: op, children: []NodeID{a, b}}), nil
}

func (t *Terms) unBV(op Op, a NodeID) NodeID {
	na := t.nodes[a]
	return t.intern(&node{sort: SortBV, width: na.width, op: op, children: []NodeID{a}})
}

func (t *Terms) Not(a NodeID) NodeID  { t.mustNotBeInitialized("Not"); return t.unBV(OpNot, a) }
func (t *Terms) Neg(a NodeID) NodeID  { t.mustNotBeInitialized("Neg"); return t.unBV(OpNeg, a) }
func (t *Terms) And(a, b NodeID) (NodeID, error)  { return t.binBV(OpAnd, "And", a, b) }
func (t *Terms) Or(a, b NodeID) (NodeID, error)   { return t.binBV(OpOr, "Or", a, b) }
func (t *Terms) Xor(a, b NodeID) (NodeID, error)  { return t.binBV(OpXor, "Xor", a, b) }
func (t *Terms) Add(a, b NodeID) (NodeID, error)  { return t.binBV(OpAdd, "Add", a, b) }
func (t *Terms) Sub(a, b NodeID) (NodeID, error)  { return t.binBV(OpAdd, "Sub", a, t.Neg(b)) }
func (t *Terms) Mul(a, b NodeID) (NodeID, error)  { return t.binBV(OpMul, "Mul", a, b) }
func (t *Terms) Udiv(a, b NodeID) (NodeID, error) { return t.binBV(OpUdiv, "Udiv", a, b) }
func (t *Terms) Sdiv(a, b NodeID) (NodeID, error) { return t.binBV(OpSdiv, "Sdiv", a, b) }
func (t *Terms) Urem(a, b NodeID) (NodeID, error) { return t.binBV(OpUrem, "Urem", a, b) }
func (t *Terms) Srem(a, b NodeID) (NodeID, error) { return t.binBV(OpSrem, "Srem", a, b) }

// Shl/Lshr/Ashr take the shift amount as a bit-vector child of the
// same width.
func (t *Terms) Shl(a, amt NodeID) (NodeID, error)  { return t.binBV(OpShl, "Shl", a, amt) }
func (t *Terms) Lshr(a, amt NodeID) (NodeID, error) { return t.binBV(OpLshr, "Lshr", a, amt) }
func (t *Terms) Ashr(a, amt NodeID) (NodeID, error) { return t.binBV(OpAshr, "Ashr", a, amt) }

func (t *Terms) cmp(op Op, opName string, a, b NodeID) (NodeID, error) {
	t.mustNotBeInitialized(opName)
	na, nb := t.nodes[a], t.nodes[b]
	if err := checkWidths(opName, na.width, nb.width); err != nil {
		return invalidNodeID, err
	}
	return t.intern(&node{sort: SortBool, op: op, children: []NodeID{a, b}}), nil
}

func (t *Terms) Ult(a, b NodeID) (NodeID, error) { return t.cmp(OpUlt, "Ult", a, b) }
func (t *Terms) Ule(a, b NodeID) (NodeID, error) { return t.cmp(OpUle, "Ule", a, b) }
func (t *Terms) Ugt(a, b NodeID) (NodeID, error) { return t.cmp(OpUgt, "Ugt", a, b) }
func (t *Terms) Uge(a, b NodeID) (NodeID, error) { return t.cmp(OpUge, "Uge", a, b) }
func (t *Terms) Slt(a, b NodeID) (NodeID, error) { return t.cmp(OpSlt, "Slt", a, b) }
func (t *Terms) Sle(a, b NodeID) (NodeID, error) { return t.cmp(OpSle, "Sle", a, b) }
func (t *Terms) Sgt(a, b NodeID) (NodeID, error) { return t.cmp(OpSgt, "Sgt", a, b) }
func (t *Terms) Sge(a, b NodeID) (NodeID, error) { return t.cmp(OpSge, "Sge", a, b) }
func (t *Terms) Eq(a, b NodeID) (NodeID, error)  { return t.cmp(OpEq, "Eq", a, b) }

// Ite builds a bit-vector if-then-else.
func (t *Terms) Ite(cond, iftrue, iffalse NodeID) (NodeID, error) {
	t.mustNotBeInitialized("Ite")
	if t.nodes[cond].sort != SortBool {
		return invalidNodeID, fmt.Errorf("bvsls: Ite: condition is not Boolean")
	}
	wt, wf := t.nodes[iftrue].width, t.nodes[iffalse].width
	if err := checkWidths("Ite", wt, wf); err != nil {
		return invalidNodeID, err
	}
	return t.intern(&node{sort: SortBV, width: wt, op: OpIte, children: []NodeID{cond, iftrue, iffalse}}), nil
}

// Extract returns bits [hi:lo] of a.
func (t *Terms) Extract(a NodeID, hi, lo uint) (NodeID, error) {
	t.mustNotBeInitialized("Extract")
	if hi < lo {
		return invalidNodeID, fmt.Errorf("bvsls: Extract: hi < lo")
	}
	if t.nodes[a].width < hi-lo+1 {
		return invalidNodeID, fmt.Errorf("bvsls: Extract: hi-lo+1 exceeds child width")
	}
	return t.intern(&node{sort: SortBV, width: hi - lo + 1, op: OpExtract, children: []NodeID{a}, exHi: hi, exLo: lo}), nil
}

// Concat concatenates children most-significant-first, matching
// bvexpr.go/expr.go's TY_CONCAT convention.
func (t *Terms) Concat(children ...NodeID) (NodeID, error) {
	t.mustNotBeInitialized("Concat")
	if len(children) < 2 {
		return invalidNodeID, fmt.Errorf("bvsls: Concat: need at least 2 children")
	}
	w := uint(0)
	for _, c := range children {
		w += t.nodes[c].width
	}
	cs := append([]NodeID(nil), children...)
	return t.intern(&node{sort: SortBV, width: w, op: OpConcat, children: cs}), nil
}

func (t *Terms) ZExt(a NodeID, n uint) (NodeID, error) {
	t.mustNotBeInitialized("ZExt")
	if n == 0 {
		return invalidNodeID, fmt.Errorf("bvsls: ZExt: n must be >= 1")
	}
	return t.intern(&node{sort: SortBV, width: t.nodes[a].width + n, op: OpZExt, children: []NodeID{a}, extN: n}), nil
}

func (t *Terms) SExt(a NodeID, n uint) (NodeID, error) {
	t.mustNotBeInitialized("SExt")
	if n == 0 {
		return invalidNodeID, fmt.Errorf("bvsls: SExt: n must be >= 1")
	}
	return t.intern(&node{sort: SortBV, width: t.nodes[a].width + n, op: OpSExt, children: []NodeID{a}, extN: n}), nil
}

// --- Boolean connectives ---

func (t *Terms) BoolNot(a NodeID) NodeID {
	t.mustNotBeInitialized("BoolNot")
	return t.intern(&node{sort: SortBool, op: OpBoolNot, children: []NodeID{a}})
}

func (t *Terms) nary(op Op, opName string, children []NodeID) NodeID {
	t.mustNotBeInitialized(opName)
	if len(children) == 0 {
		panic("bvsls: " + opName + ": need at least 1 child")
	}
	cs := append([]NodeID(nil), children...)
	return t.intern(&node{sort: SortBool, op: op, children: cs})
}

func (t *Terms) BoolAnd(children ...NodeID) NodeID { return t.nary(OpBoolAnd, "BoolAnd", children) }
func (t *Terms) BoolOr(children ...NodeID) NodeID  { return t.nary(OpBoolOr, "BoolOr", children) }

// --- assertions & finalization ---

// Assert designates n (which must be Boolean) as an assertion root.
func (t *Terms) Assert(n NodeID) {
	t.mustNotBeInitialized("Assert")
	if t.nodes[n].sort != SortBool {
		panic("bvsls: Assert: node is not Boolean")
	}
	if t.isAssert[n] {
		return
	}
	t.isAssert[n] = true
	t.assertions = append(t.assertions, n)
}

// Init finalizes the parents index and the assertion-reachable node
// set. No builder method may be called afterwards.
func (t *Terms) Init() {
	if t.initialized {
		return
	}
	t.initialized = true

	for _, n := range t.nodes {
		for _, c := range n.children {
			t.parents[c] = append(t.parents[c], n.id)
		}
	}

	seen := make([]bool, len(t.nodes))
	var order []NodeID
	var stack []NodeID
	for _, a := range t.assertions {
		stack = append(stack, a)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		for _, c := range t.nodes[id].children {
			stack = append(stack, c)
		}
	}
	// Dense-id order, not discovery order, so downstream iteration
	// (repair-set init, display, model extraction) is deterministic
	// given a seed -- discovery order depends only on DAG shape, not
	// the PRNG.
	t.allNodes = t.allNodes[:0]
	for id := NodeID(0); id < NodeID(len(t.nodes)); id++ {
		if seen[id] {
			t.allNodes = append(t.allNodes, id)
		}
	}
}

// Term returns the node for id. Ids are guaranteed dense and stable.
func (t *Terms) Term(id NodeID) *node { return t.nodes[id] }

// Parents returns the direct parents of id (empty if none, or if id is
// an assertion root with no structural parent).
func (t *Terms) Parents(id NodeID) []NodeID { return t.parents[id] }

// IsAssertion reports whether id was designated an assertion root.
func (t *Terms) IsAssertion(id NodeID) bool { return t.isAssert[id] }

// Assertions returns the assertion roots in insertion order.
func (t *Terms) Assertions() []NodeID { return t.assertions }

// AllNodes returns every node reachable from an assertion, in
// ascending id order -- an ordered collection of all internal nodes,
// every child preceding its parents.
func (t *Terms) AllNodes() []NodeID { return t.allNodes }

// NumNodes returns the total number of interned nodes (the arena size),
// usable to size side tables without a second pass.
func (t *Terms) NumNodes() int { return len(t.nodes) }

// InvolvedInputs returns the uninterpreted constants (bit-vector or
// Boolean) reachable from id, deduplicated.
func (t *Terms) InvolvedInputs(id NodeID) []NodeID {
	visited := make(map[NodeID]bool)
	var syms []NodeID
	var stack []NodeID
	stack = append(stack, id)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		n := t.nodes[cur]
		if n.op == OpSym {
			syms = append(syms, cur)
			continue
		}
		stack = append(stack, n.children...)
	}
	return syms
}
