package bvsls

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Op is an operator kind, one per node shape.
type Op int

const (
	OpConst Op = iota
	OpSym
	OpExtract
	OpConcat
	OpZExt
	OpSExt
	OpIte
	OpNot
	OpNeg
	OpShl
	OpLshr
	OpAshr
	OpAnd
	OpOr
	OpXor
	OpAdd
	OpMul
	OpSdiv
	OpUdiv
	OpSrem
	OpUrem
	OpUlt
	OpUle
	OpUgt
	OpUge
	OpSlt
	OpSle
	OpSgt
	OpSge
	OpEq
	OpBoolConst
	OpBoolNot
	OpBoolAnd
	OpBoolOr
)

// Sort is the result sort of a node: Boolean or bit-vector of some width.
type Sort int

const (
	SortBool Sort = iota
	SortBV
)

// NodeID is a dense, non-negative id stable for the engine's lifetime.
// It indexes directly into Terms.nodes and every Evaluator side table.
type NodeID uint32

const invalidNodeID NodeID = ^NodeID(0)

// node is one entry of the shared expression DAG. Value state (val0,
// val1, fixed) is deliberately not stored here -- it lives in the
// Evaluator's side tables, keyed by id, so node records stay small.
type node struct {
	id       NodeID
	sort     Sort
	width    uint // meaningful only when sort == SortBV
	op       Op
	children []NodeID

	name    string // OpSym
	constBV *bv    // OpConst
	constB  bool   // OpBoolConst
	exHi    uint   // OpExtract
	exLo    uint   // OpExtract
	extN    uint   // OpZExt / OpSExt
}

func (n *node) isLeaf() bool {
	return n.op == OpConst || n.op == OpSym || n.op == OpBoolConst
}

func opSymbol(op Op) string {
	switch op {
	case OpNot:
		return "bvnot"
	case OpNeg:
		return "bvneg"
	case OpShl:
		return "bvshl"
	case OpLshr:
		return "bvlshr"
	case OpAshr:
		return "bvashr"
	case OpAnd:
		return "bvand"
	case OpOr:
		return "bvor"
	case OpXor:
		return "bvxor"
	case OpAdd:
		return "bvadd"
	case OpMul:
		return "bvmul"
	case OpSdiv:
		return "bvsdiv"
	case OpUdiv:
		return "bvudiv"
	case OpSrem:
		return "bvsrem"
	case OpUrem:
		return "bvurem"
	case OpUlt:
		return "bvult"
	case OpUle:
		return "bvule"
	case OpUgt:
		return "bvugt"
	case OpUge:
		return "bvuge"
	case OpSlt:
		return "bvslt"
	case OpSle:
		return "bvsle"
	case OpSgt:
		return "bvsgt"
	case OpSge:
		return "bvsge"
	case OpEq:
		return "="
	case OpBoolNot:
		return "not"
	case OpBoolAnd:
		return "and"
	case OpBoolOr:
		return "or"
	default:
		return "?"
	}
}

// hashKey computes a structural hash for hash-consing, the bucket key
// a get-or-create cache needs to dedupe structurally-equal nodes.
func (n *node) hashKey() uint64 {
	h := xxhash.New()
	var b8 [8]byte
	putU64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			b8[i] = byte(v >> (56 - 8*i))
		}
		h.Write(b8[:])
	}
	putU64(uint64(n.op))
	switch n.op {
	case OpConst:
		h.Write([]byte(n.constBV.String()))
		putU64(uint64(n.width))
	case OpSym:
		h.Write([]byte(n.name))
		putU64(uint64(n.width))
		if n.sort == SortBool {
			h.Write([]byte("bool"))
		}
	case OpBoolConst:
		if n.constB {
			putU64(1)
		} else {
			putU64(0)
		}
	case OpExtract:
		putU64(uint64(n.children[0]))
		putU64(uint64(n.exHi))
		putU64(uint64(n.exLo))
	case OpZExt, OpSExt:
		putU64(uint64(n.children[0]))
		putU64(uint64(n.extN))
	default:
		for _, c := range n.children {
			putU64(uint64(c))
		}
	}
	return h.Sum64()
}

// shallowEq reports structural equality against a not-yet-inserted
// candidate node, used to detect hash-cons hits.
func (n *node) shallowEq(o *node) bool {
	if n.op != o.op || n.sort != o.sort || n.width != o.width {
		return false
	}
	switch n.op {
	case OpConst:
		return n.constBV.eq(o.constBV)
	case OpSym:
		return n.name == o.name
	case OpBoolConst:
		return n.constB == o.constB
	case OpExtract:
		return n.children[0] == o.children[0] && n.exHi == o.exHi && n.exLo == o.exLo
	case OpZExt, OpSExt:
		return n.children[0] == o.children[0] && n.extN == o.extN
	default:
		if len(n.children) != len(o.children) {
			return false
		}
		for i := range n.children {
			if n.children[i] != o.children[i] {
				return false
			}
		}
		return true
	}
}

// Pp pretty-prints the expression rooted at id, the same bracketed
// infix/prefix style bvexpr.go/expr.go use for String().
func (t *Terms) Pp(id NodeID) string {
	n := t.nodes[id]
	switch n.op {
	case OpConst:
		return n.constBV.String()
	case OpSym:
		return n.name
	case OpBoolConst:
		if n.constB {
			return "true"
		}
		return "false"
	case OpExtract:
		return fmt.Sprintf("%s[%d:%d]", t.Pp(n.children[0]), n.exHi, n.exLo)
	case OpConcat:
		parts := make([]string, len(n.children))
		for i, c := range n.children {
			parts[i] = t.Pp(c)
		}
		return "(concat " + strings.Join(parts, " ") + ")"
	case OpZExt:
		return fmt.Sprintf("(zero_extend %d %s)", n.extN, t.Pp(n.children[0]))
	case OpSExt:
		return fmt.Sprintf("(sign_extend %d %s)", n.extN, t.Pp(n.children[0]))
	case OpIte:
		return fmt.Sprintf("(ite %s %s %s)", t.Pp(n.children[0]), t.Pp(n.children[1]), t.Pp(n.children[2]))
	default:
		sym := opSymbol(n.op)
		parts := make([]string, len(n.children))
		for i, c := range n.children {
			parts[i] = t.Pp(c)
		}
		return "(" + sym + " " + strings.Join(parts, " ") + ")"
	}
}
