package bvsls

// eval1Bool and eval1BV apply a node's operator to its children's
// current val0, producing val1. This is a one-step evaluation, not a
// recursive recompute: the children's own val1 is irrelevant here,
// only their val0.
func (e *Evaluator) eval1Bool(n *node) bool {
	c := func(i int) NodeID { return n.children[i] }
	bchild := func(i int) bool { return e.boolv[c(i)].val0 }
	wchild := func(i int) *bv { return e.bvv[c(i)].bits0 }

	switch n.op {
	case OpSym:
		return e.boolv[n.id].val0
	case OpBoolConst:
		return n.constB
	case OpBoolNot:
		return !bchild(0)
	case OpBoolAnd:
		for i := range n.children {
			if !bchild(i) {
				return false
			}
		}
		return true
	case OpBoolOr:
		for i := range n.children {
			if bchild(i) {
				return true
			}
		}
		return false
	case OpEq:
		return wchild(0).eq(wchild(1))
	case OpUlt:
		return wchild(0).ult(wchild(1))
	case OpUle:
		return wchild(0).ule(wchild(1))
	case OpUgt:
		return wchild(0).ugt(wchild(1))
	case OpUge:
		return wchild(0).uge(wchild(1))
	case OpSlt:
		return wchild(0).slt(wchild(1))
	case OpSle:
		return wchild(0).sle(wchild(1))
	case OpSgt:
		return wchild(0).sgt(wchild(1))
	case OpSge:
		return wchild(0).sge(wchild(1))
	default:
		panic("bvsls: eval1Bool: not a Boolean operator")
	}
}

func (e *Evaluator) eval1BV(n *node) *bv {
	c := func(i int) NodeID { return n.children[i] }
	wchild := func(i int) *bv { return e.bvv[c(i)].bits0 }

	switch n.op {
	case OpSym:
		return e.bvv[n.id].bits0
	case OpConst:
		return n.constBV
	case OpNot:
		return wchild(0).not()
	case OpNeg:
		return wchild(0).neg()
	case OpAnd:
		return wchild(0).and(wchild(1))
	case OpOr:
		return wchild(0).or(wchild(1))
	case OpXor:
		return wchild(0).xor(wchild(1))
	case OpAdd:
		return wchild(0).add(wchild(1))
	case OpMul:
		return wchild(0).mul(wchild(1))
	case OpUdiv:
		return wchild(0).udiv(wchild(1))
	case OpSdiv:
		return wchild(0).sdiv(wchild(1))
	case OpUrem:
		return wchild(0).urem(wchild(1))
	case OpSrem:
		return wchild(0).srem(wchild(1))
	case OpShl:
		return wchild(0).shl(shiftAmount(wchild(1), wchild(0).w))
	case OpLshr:
		return wchild(0).lshr(shiftAmount(wchild(1), wchild(0).w))
	case OpAshr:
		return wchild(0).ashr(shiftAmount(wchild(1), wchild(0).w))
	case OpExtract:
		return wchild(0).extract(n.exHi, n.exLo)
	case OpConcat:
		children := make([]*bv, len(n.children))
		for i := range n.children {
			children[i] = wchild(i)
		}
		return concatBV(children)
	case OpZExt:
		return wchild(0).zext(n.extN)
	case OpSExt:
		return wchild(0).sext(n.extN)
	case OpIte:
		if e.boolv[c(0)].val0 {
			return wchild(1).copy()
		}
		return wchild(2).copy()
	default:
		panic("bvsls: eval1BV: not a bit-vector operator")
	}
}

// shiftAmount clamps a too-wide shift amount to w (the semantics used
// throughout -- any amount >= w shifts out every bit).
func shiftAmount(amt *bv, w uint) uint {
	if !amt.value.IsUint64() {
		return w
	}
	v := amt.value.Uint64()
	if v >= uint64(w) {
		return w
	}
	return uint(v)
}
