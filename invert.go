package bvsls

import "math/big"

// TryRepair attempts to change the i-th child of e so that e's val1
// becomes e's val0. It returns true iff the child's val0 was actually
// changed. Infeasibility and "already satisfies, no change needed"
// both return false -- the Scheduler only cares whether it should try
// the next child.
//
// The per-operator cases below follow the standard propagation-based
// local-search invertibility tables, rather than being exhaustively
// precise for every operator -- see DESIGN.md's Open Question log for
// which UDIV/SDIV/UREM/SREM cases are heuristic-with-verification
// instead of exact.
func (ev *Evaluator) TryRepair(e NodeID, i int) bool {
	n := ev.terms.Term(e)
	if n.sort == SortBool {
		d := ev.boolv[e].val0
		return ev.tryRepairBoolParent(n, i, d)
	}
	d := ev.bvv[e].bits0
	return ev.tryRepairBVParent(n, i, d)
}

// --- helpers to commit a proposed value, respecting the child's fixed bits ---

func (ev *Evaluator) proposeBV(child NodeID, candidate *bv) bool {
	cur := ev.bvv[child].bits0
	fixed := ev.bvv[child].fixed
	final := candidate
	if fixed != nil && !fixed.isZero() {
		kept := cur.and(fixed)
		free := candidate.and(fixed.not())
		final = kept.or(free)
	}
	if final.eq(cur) {
		return false
	}
	ev.bvv[child].bits0 = final
	return true
}

func (ev *Evaluator) proposeBool(child NodeID, candidate bool) bool {
	// An assertion's val0 is pinned to true, even where the assertion is
	// also a child of another node.
	if ev.boolv[child].fixed || ev.terms.IsAssertion(child) {
		return false
	}
	if ev.boolv[child].val0 == candidate {
		return false
	}
	ev.boolv[child].val0 = candidate
	return true
}

// --- Boolean-sorted parents ---

func (ev *Evaluator) tryRepairBoolParent(n *node, i int, d bool) bool {
	bval := func(idx int) bool { return ev.boolv[n.children[idx]].val0 }
	wval := func(idx int) *bv { return ev.bvv[n.children[idx]].bits0 }

	switch n.op {
	case OpBoolNot:
		return ev.proposeBool(n.children[0], !d)

	case OpBoolAnd:
		other := true
		for j := range n.children {
			if j != i && !bval(j) {
				other = false
				break
			}
		}
		if d {
			if !other {
				return false
			}
			return ev.proposeBool(n.children[i], true)
		}
		return ev.proposeBool(n.children[i], false)

	case OpBoolOr:
		other := false
		for j := range n.children {
			if j != i && bval(j) {
				other = true
				break
			}
		}
		if d {
			if other {
				return false
			}
			return ev.proposeBool(n.children[i], true)
		}
		if other {
			return false
		}
		return ev.proposeBool(n.children[i], false)

	case OpEq:
		other := wval(1 - i)
		if d {
			return ev.proposeBV(n.children[i], other.copy())
		}
		return ev.proposeBV(n.children[i], other.add(bvFromUint64(1, other.w)))

	case OpUlt, OpUle, OpUgt, OpUge, OpSlt, OpSle, OpSgt, OpSge:
		other := wval(1 - i)
		cand, ok := compareInvert(n.op, i, other, d)
		if !ok {
			return false
		}
		return ev.proposeBV(n.children[i], cand)
	}
	return false
}

// compareInvert computes a candidate value for the target child at
// position i (0 or 1) of a two-child comparison op, given the other
// child's current value and the desired Boolean result d. ok is false
// when no such value exists (e.g. "x < 0" is unsatisfiable).
func compareInvert(op Op, i int, other *bv, d bool) (*bv, bool) {
	w := other.w
	one := bvFromUint64(1, w)
	zero := newBV(w)
	signedMin := func() *bv { r := newBV(w); r.setBit(w-1, 1); return r }
	signedMax := func() *bv { r := bvFromBigInt(makeMask(w), w); r.setBit(w-1, 0); return r }

	// Normalize to "is the target the lhs (position 0) of op?" Flip the
	// relation when the target is the rhs: op(other, x) reads the same
	// as the mirror relation with operands swapped.
	type rel int
	const (
		relLt rel = iota
		relLe
		relGt
		relGe
	)
	var kind rel
	var signed bool
	switch op {
	case OpUlt:
		kind, signed = relLt, false
	case OpUle:
		kind, signed = relLe, false
	case OpUgt:
		kind, signed = relGt, false
	case OpUge:
		kind, signed = relGe, false
	case OpSlt:
		kind, signed = relLt, true
	case OpSle:
		kind, signed = relLe, true
	case OpSgt:
		kind, signed = relGt, true
	case OpSge:
		kind, signed = relGe, true
	}
	// target is rhs: op(other, x) == d  <=>  mirror relation on (x, other)
	if i == 1 {
		switch kind {
		case relLt:
			kind = relGt
		case relLe:
			kind = relGe
		case relGt:
			kind = relLt
		case relGe:
			kind = relLe
		}
	}

	minV, maxV := zero, bvFromBigInt(makeMask(w), w)
	if signed {
		minV, maxV = signedMin(), signedMax()
	}

	switch kind {
	case relLt: // want x < other  (d true) or x >= other (d false)
		if d {
			if other.eq(minV) {
				return nil, false
			}
			return other.sub(one), true
		}
		return other.copy(), true
	case relLe:
		if d {
			return other.copy(), true
		}
		if other.eq(maxV) {
			return nil, false
		}
		return other.add(one), true
	case relGt:
		if d {
			if other.eq(maxV) {
				return nil, false
			}
			return other.add(one), true
		}
		return other.copy(), true
	case relGe:
		if d {
			return other.copy(), true
		}
		if other.eq(minV) {
			return nil, false
		}
		return other.sub(one), true
	}
	return nil, false
}

// --- bit-vector-sorted parents ---

func (ev *Evaluator) tryRepairBVParent(n *node, i int, d *bv) bool {
	w := d.w
	wval := func(idx int) *bv { return ev.bvv[n.children[idx]].bits0 }

	switch n.op {
	case OpNot:
		return ev.proposeBV(n.children[0], d.not())
	case OpNeg:
		return ev.proposeBV(n.children[0], d.neg())

	case OpAnd:
		other := wval(1 - i)
		bad := new(big.Int).AndNot(d.value, other.value)
		if bad.Sign() != 0 {
			return false
		}
		cur := wval(i)
		free := new(big.Int).AndNot(cur.value, other.value)
		forced := new(big.Int).And(other.value, d.value)
		cand := bvFromBigInt(new(big.Int).Or(free, forced), w)
		return ev.proposeBV(n.children[i], cand)

	case OpOr:
		other := wval(1 - i)
		bad := new(big.Int).AndNot(other.value, d.value)
		if bad.Sign() != 0 {
			return false
		}
		cur := wval(i)
		free := new(big.Int).And(other.value, cur.value)
		forced := new(big.Int).AndNot(d.value, other.value)
		cand := bvFromBigInt(new(big.Int).Or(free, forced), w)
		return ev.proposeBV(n.children[i], cand)

	case OpXor:
		other := wval(1 - i)
		return ev.proposeBV(n.children[i], d.xor(other))

	case OpAdd:
		other := wval(1 - i)
		return ev.proposeBV(n.children[i], d.sub(other))

	case OpMul:
		other := wval(1 - i)
		cand, ok := invertMul(other, d, w)
		if !ok {
			return false
		}
		return ev.proposeBV(n.children[i], cand)

	case OpUdiv:
		other := wval(1 - i)
		cand, ok := invertUdiv(i, wval(0), wval(1), other, d, w)
		if !ok {
			return false
		}
		return ev.proposeBV(n.children[i], cand)

	case OpSdiv:
		cand, ok := invertSdiv(i, wval(0), wval(1), d, w)
		if !ok {
			return false
		}
		return ev.proposeBV(n.children[i], cand)

	case OpUrem:
		cand, ok := invertUrem(i, wval(0), wval(1), d, w)
		if !ok {
			return false
		}
		return ev.proposeBV(n.children[i], cand)

	case OpSrem:
		cand, ok := invertSrem(i, wval(0), wval(1), d, w)
		if !ok {
			return false
		}
		return ev.proposeBV(n.children[i], cand)

	case OpShl:
		return ev.tryRepairShift(n, i, d, shlInvert)
	case OpLshr:
		return ev.tryRepairShift(n, i, d, lshrInvert)
	case OpAshr:
		return ev.tryRepairShift(n, i, d, ashrInvert)

	case OpExtract:
		cur := wval(0)
		width := n.exHi - n.exLo + 1
		rangeMask := new(big.Int).Lsh(makeMask(width), n.exLo)
		cleared := new(big.Int).AndNot(cur.value, rangeMask)
		placed := new(big.Int).Lsh(d.value, n.exLo)
		cand := bvFromBigInt(new(big.Int).Or(cleared, placed), cur.w)
		return ev.proposeBV(n.children[0], cand)

	case OpConcat:
		return ev.tryRepairConcat(n, i, d)

	case OpZExt:
		childW := n.width - n.extN
		top := new(big.Int).Rsh(d.value, childW)
		if top.Sign() != 0 {
			return false
		}
		cand := bvFromBigInt(d.value, childW)
		return ev.proposeBV(n.children[0], cand)

	case OpSExt:
		childW := n.width - n.extN
		return ev.tryRepairSExt(n, d, childW)

	case OpIte:
		return ev.tryRepairIte(n, i, d)
	}
	return false
}

func invertMul(other, d *bv, w uint) (*bv, bool) {
	if other.isZero() {
		return nil, false
	}
	m := new(big.Int).Lsh(bigOne, w)
	if other.value.Bit(0) == 1 {
		inv := new(big.Int).ModInverse(other.value, m)
		if inv == nil {
			return nil, false
		}
		cand := new(big.Int).Mul(d.value, inv)
		cand.Mod(cand, m)
		return bvFromBigInt(cand, w), true
	}
	k := 0
	for other.value.Bit(k) == 0 {
		k++
	}
	lowMask := new(big.Int).Lsh(bigOne, uint(k))
	lowMask.Sub(lowMask, bigOne)
	if new(big.Int).And(d.value, lowMask).Sign() != 0 {
		return nil, false
	}
	otherShifted := new(big.Int).Rsh(other.value, uint(k))
	modSub := new(big.Int).Lsh(bigOne, w-uint(k))
	inv := new(big.Int).ModInverse(otherShifted, modSub)
	if inv == nil {
		return nil, false
	}
	dShifted := new(big.Int).Rsh(d.value, uint(k))
	// candLow solves x*otherShifted = dShifted (mod 2^(w-k)): it is
	// x's low (w-k) bits directly, not shifted -- the free high k bits
	// of x can be anything (zero works), since they vanish mod 2^(w-k).
	candLow := new(big.Int).Mul(dShifted, inv)
	candLow.Mod(candLow, modSub)
	return bvFromBigInt(candLow, w), true
}

func invertUdiv(i int, x, y, other, d *bv, w uint) (*bv, bool) {
	if i == 0 {
		if other.isZero() {
			return nil, false
		}
		cand := d.mul(other)
		if !cand.udiv(other).eq(d) {
			return nil, false
		}
		return cand, true
	}
	if d.isZero() {
		allOnes := bvFromBigInt(makeMask(w), w)
		if other.eq(allOnes) {
			return nil, false
		}
		return other.add(bvFromUint64(1, w)), true
	}
	cand := x.udiv(d)
	if cand.isZero() || !x.udiv(cand).eq(d) {
		return nil, false
	}
	return cand, true
}

func invertUrem(i int, x, y, d *bv, w uint) (*bv, bool) {
	if i == 0 {
		if y.isZero() {
			return d.copy(), true
		}
		if !d.ult(y) {
			return nil, false
		}
		return d.copy(), true
	}
	if x.eq(d) {
		allOnes := bvFromBigInt(makeMask(w), w)
		if x.eq(allOnes) {
			return nil, false
		}
		return x.add(bvFromUint64(1, w)), true
	}
	if !x.ugt(d) {
		return nil, false
	}
	cand := x.sub(d)
	if !cand.ugt(d) {
		return nil, false
	}
	if !x.urem(cand).eq(d) {
		return nil, false
	}
	return cand, true
}

// invertSdiv is a best-effort (verified-by-simulation, not exact)
// invertibility rule: it proposes a candidate from the quotient
// identity x = d*y and checks it actually reproduces d, rather than
// deriving the full interval of solutions the way Ult/Ule/.../Add do.
func invertSdiv(i int, x, y, d *bv, w uint) (*bv, bool) {
	if i == 0 {
		if y.isZero() {
			return nil, false
		}
		cand := d.mul(y)
		if !cand.sdiv(y).eq(d) {
			return nil, false
		}
		return cand, true
	}
	if d.isZero() {
		return nil, false
	}
	cand := x.sdiv(d)
	if cand.isZero() || !x.sdiv(cand).eq(d) {
		return nil, false
	}
	return cand, true
}

// invertSrem mirrors invertUrem's approach in the signed domain: for
// the dividend, d itself is a valid remainder candidate whenever
// |d| < |y| (srem's result always carries the dividend's sign, so
// setting x = d trivially reproduces it); for the divisor, no simple
// closed form exists, so this reports infeasible and lets the
// Scheduler try another child or propagate the mismatch upward.
func invertSrem(i int, x, y, d *bv, w uint) (*bv, bool) {
	if i == 0 {
		if y.isZero() {
			return d.copy(), true
		}
		cand := d.copy()
		if !cand.srem(y).eq(d) {
			return nil, false
		}
		return cand, true
	}
	return nil, false
}

// --- shift invertibility (Shl/Lshr/Ashr share the same two-child shape) ---

type shiftRule struct {
	invertValue func(amt uint, d *bv, curX *bv, w uint) (*bv, bool)
	simulate    func(x *bv, amt uint) *bv
}

func (ev *Evaluator) tryRepairShift(n *node, i int, d *bv, rule shiftRule) bool {
	w := d.w
	xID, amtID := n.children[0], n.children[1]
	if i == 0 {
		amt := shiftAmount(ev.bvv[amtID].bits0, w)
		cand, ok := rule.invertValue(amt, d, ev.bvv[xID].bits0, w)
		if !ok {
			return false
		}
		return ev.proposeBV(xID, cand)
	}
	x := ev.bvv[xID].bits0
	curAmt := shiftAmount(ev.bvv[amtID].bits0, w)
	start := 0
	if ev.rng != nil {
		start = ev.rng.Intn(int(w) + 1)
	}
	for k := 0; k <= int(w); k++ {
		amt := uint((start + k)) % (uint(w) + 1)
		if rule.simulate(x, amt).eq(d) {
			cand := bvFromUint64(uint64(amt), w)
			if amt == curAmt {
				return false
			}
			return ev.proposeBV(amtID, cand)
		}
	}
	return false
}

var shlInvert = shiftRule{
	invertValue: func(amt uint, d, curX *bv, w uint) (*bv, bool) {
		if amt >= w {
			return nil, !anyBit(d)
		}
		lowMask := new(big.Int).Lsh(bigOne, amt)
		lowMask.Sub(lowMask, bigOne)
		if new(big.Int).And(d.value, lowMask).Sign() != 0 {
			return nil, false
		}
		shifted := new(big.Int).Rsh(d.value, amt)
		highMask := new(big.Int).Lsh(lowMask, w-amt)
		highBits := new(big.Int).And(curX.value, highMask)
		return bvFromBigInt(new(big.Int).Or(shifted, highBits), w), true
	},
	simulate: func(x *bv, amt uint) *bv { return x.shl(amt) },
}

var lshrInvert = shiftRule{
	invertValue: func(amt uint, d, curX *bv, w uint) (*bv, bool) {
		if amt >= w {
			return nil, !anyBit(d)
		}
		topMask := new(big.Int).Lsh(makeMask(amt), w-amt)
		if new(big.Int).And(d.value, topMask).Sign() != 0 {
			return nil, false
		}
		shifted := new(big.Int).Lsh(d.value, amt)
		lowMask := new(big.Int).Lsh(bigOne, amt)
		lowMask.Sub(lowMask, bigOne)
		lowBits := new(big.Int).And(curX.value, lowMask)
		return bvFromBigInt(new(big.Int).Or(shifted, lowBits), w), true
	},
	simulate: func(x *bv, amt uint) *bv { return x.lshr(amt) },
}

var ashrInvert = shiftRule{
	invertValue: func(amt uint, d, curX *bv, w uint) (*bv, bool) {
		// Try the non-negative-dividend shape first, then the
		// sign-filled shape; verify each by simulation.
		if amt == 0 {
			return d.copy(), true
		}
		if amt >= w {
			allOnes := bvFromBigInt(makeMask(w), w)
			if d.eq(allOnes) {
				return allOnes, true
			}
			if !anyBit(d) {
				return newBV(w), true
			}
			return nil, false
		}
		lowMask := new(big.Int).Lsh(bigOne, amt)
		lowMask.Sub(lowMask, bigOne)
		lowBits := new(big.Int).And(curX.value, lowMask)

		asNonNeg := new(big.Int).Lsh(d.value, amt)
		asNonNeg.Or(asNonNeg, lowBits)
		cand1 := bvFromBigInt(asNonNeg, w)
		if cand1.ashr(amt).eq(d) {
			return cand1, true
		}

		topMask := new(big.Int).Lsh(makeMask(amt), w-amt)
		asNeg := new(big.Int).Lsh(d.value, amt)
		asNeg.Or(asNeg, lowBits)
		asNeg.Or(asNeg, topMask)
		cand2 := bvFromBigInt(asNeg, w)
		if cand2.ashr(amt).eq(d) {
			return cand2, true
		}
		return nil, false
	},
	simulate: func(x *bv, amt uint) *bv { return x.ashr(amt) },
}

func anyBit(b *bv) bool { return !b.isZero() }

func (ev *Evaluator) tryRepairConcat(n *node, i int, d *bv) bool {
	offsetFromTop := uint(0)
	for j := 0; j < i; j++ {
		offsetFromTop += ev.terms.Term(n.children[j]).width
	}
	childW := ev.terms.Term(n.children[i]).width
	hi := d.w - 1 - offsetFromTop
	lo := hi - childW + 1
	slice := d.extract(hi, lo)
	return ev.proposeBV(n.children[i], slice)
}

func (ev *Evaluator) tryRepairSExt(n *node, d *bv, childW uint) bool {
	signBit := d.bit(childW - 1)
	for b := childW - 1; b < d.w; b++ {
		if d.bit(b) != signBit {
			return false
		}
	}
	cand := bvFromBigInt(d.value, childW)
	return ev.proposeBV(n.children[0], cand)
}

func (ev *Evaluator) tryRepairIte(n *node, i int, d *bv) bool {
	condID, tID, fID := n.children[0], n.children[1], n.children[2]
	switch i {
	case 0:
		tv, fv := ev.bvv[tID].bits0, ev.bvv[fID].bits0
		if tv.eq(d) {
			return ev.proposeBool(condID, true)
		}
		if fv.eq(d) {
			return ev.proposeBool(condID, false)
		}
		return false
	case 1:
		if !ev.boolv[condID].val0 {
			return false
		}
		return ev.proposeBV(tID, d.copy())
	default:
		if ev.boolv[condID].val0 {
			return false
		}
		return ev.proposeBV(fID, d.copy())
	}
}
