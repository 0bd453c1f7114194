package bvsls

import (
	"fmt"
	"math/big"
	"math/rand"
)

var bigZero = big.NewInt(0)
var bigOne = big.NewInt(1)

// bv is a mutable, width-w unsigned bit-vector value backed by math/big.
// It carries no error-returning width checks of its own: callers
// (bitvec.go's own helpers and invert.go) know the width up front.
type bv struct {
	w     uint
	value *big.Int
}

func makeMask(w uint) *big.Int {
	m := big.NewInt(1)
	m.Lsh(m, w)
	m.Sub(m, bigOne)
	return m
}

func newBV(w uint) *bv {
	return &bv{w: w, value: big.NewInt(0)}
}

func bvFromUint64(v uint64, w uint) *bv {
	r := &bv{w: w, value: new(big.Int).SetUint64(v)}
	r.mask()
	return r
}

func bvFromBigInt(v *big.Int, w uint) *bv {
	r := &bv{w: w, value: new(big.Int).Set(v)}
	r.mask()
	return r
}

func (b *bv) mask() {
	b.value.And(b.value, makeMask(b.w))
}

func (b *bv) copy() *bv {
	return &bv{w: b.w, value: new(big.Int).Set(b.value)}
}

func (b *bv) String() string {
	return fmt.Sprintf("#x%0*x", (b.w+3)/4, b.value)
}

func (b *bv) eq(o *bv) bool {
	return b.w == o.w && b.value.Cmp(o.value) == 0
}

func (b *bv) isZero() bool {
	return b.value.Sign() == 0
}

func (b *bv) bit(i uint) uint {
	return b.value.Bit(int(i))
}

func (b *bv) setBit(i uint, v uint) {
	b.value.SetBit(b.value, int(i), v)
}

func (b *bv) isNegative() bool {
	return b.bit(b.w-1) == 1
}

func (b *bv) asUint64() uint64 {
	return b.value.Uint64()
}

func (b *bv) asInt64() int64 {
	if !b.isNegative() {
		return b.value.Int64()
	}
	mag := new(big.Int).Sub(makeMask(b.w), b.value)
	mag.Add(mag, bigOne)
	return -mag.Int64()
}

// toSigned returns the two's-complement magnitude and sign of b, used
// to implement signed division/remainder via magnitude arithmetic.
func (b *bv) toSigned() (mag *big.Int, neg bool) {
	if !b.isNegative() {
		return new(big.Int).Set(b.value), false
	}
	m := new(big.Int).Sub(makeMask(b.w), b.value)
	m.Add(m, bigOne)
	return m, true
}

func fromSigned(mag *big.Int, neg bool, w uint) *bv {
	if !neg || mag.Sign() == 0 {
		return bvFromBigInt(mag, w)
	}
	r := new(big.Int).Sub(mag, bigOne)
	r.Sub(makeMask(w), r)
	return bvFromBigInt(r, w)
}

func (b *bv) not() *bv {
	r := new(big.Int).Not(b.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) neg() *bv {
	r := new(big.Int).Sub(b.value, bigOne)
	r.Sub(makeMask(b.w), r)
	return bvFromBigInt(r, b.w)
}

func (b *bv) add(o *bv) *bv {
	r := new(big.Int).Add(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) sub(o *bv) *bv {
	return b.add(o.neg())
}

func (b *bv) mul(o *bv) *bv {
	r := new(big.Int).Mul(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) and(o *bv) *bv {
	r := new(big.Int).And(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) or(o *bv) *bv {
	r := new(big.Int).Or(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) xor(o *bv) *bv {
	r := new(big.Int).Xor(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

// udiv/urem/sdiv/srem follow SMT-LIB's total-division convention:
// division by zero yields all-ones (udiv) or the dividend (urem/srem).
func (b *bv) udiv(o *bv) *bv {
	if o.isZero() {
		return bvFromBigInt(makeMask(b.w), b.w)
	}
	r := new(big.Int).Div(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) urem(o *bv) *bv {
	if o.isZero() {
		return b.copy()
	}
	r := new(big.Int).Mod(b.value, o.value)
	return bvFromBigInt(r, b.w)
}

func (b *bv) sdiv(o *bv) *bv {
	if o.isZero() {
		if b.isNegative() {
			return bvFromUint64(1, b.w)
		}
		return bvFromBigInt(makeMask(b.w), b.w)
	}
	m1, n1 := b.toSigned()
	m2, n2 := o.toSigned()
	q := new(big.Int).Quo(m1, m2)
	return fromSigned(q, n1 != n2, b.w)
}

func (b *bv) srem(o *bv) *bv {
	if o.isZero() {
		return b.copy()
	}
	m1, n1 := b.toSigned()
	m2, _ := o.toSigned()
	r := new(big.Int).Rem(m1, m2)
	return fromSigned(r, n1, b.w)
}

func (b *bv) shl(amt uint) *bv {
	if amt >= b.w {
		return newBV(b.w)
	}
	r := new(big.Int).Lsh(b.value, amt)
	return bvFromBigInt(r, b.w)
}

func (b *bv) lshr(amt uint) *bv {
	if amt >= b.w {
		return newBV(b.w)
	}
	r := new(big.Int).Rsh(b.value, amt)
	return bvFromBigInt(r, b.w)
}

func (b *bv) ashr(amt uint) *bv {
	if !b.isNegative() {
		return b.lshr(amt)
	}
	if amt >= b.w {
		return bvFromBigInt(makeMask(b.w), b.w)
	}
	r := new(big.Int).Rsh(b.value, amt)
	ones := new(big.Int).Lsh(makeMask(amt), b.w-amt)
	r.Or(r, ones)
	return bvFromBigInt(r, b.w)
}

func (b *bv) ult(o *bv) bool { return b.value.Cmp(o.value) < 0 }
func (b *bv) ule(o *bv) bool { return b.value.Cmp(o.value) <= 0 }
func (b *bv) ugt(o *bv) bool { return b.value.Cmp(o.value) > 0 }
func (b *bv) uge(o *bv) bool { return b.value.Cmp(o.value) >= 0 }

func (b *bv) slt(o *bv) bool {
	m1, n1 := b.toSigned()
	m2, n2 := o.toSigned()
	return signedCmp(m1, n1, m2, n2) < 0
}

func (b *bv) sle(o *bv) bool {
	m1, n1 := b.toSigned()
	m2, n2 := o.toSigned()
	return signedCmp(m1, n1, m2, n2) <= 0
}

func (b *bv) sgt(o *bv) bool { return o.slt(b) }
func (b *bv) sge(o *bv) bool { return o.sle(b) }

func signedCmp(m1 *big.Int, n1 bool, m2 *big.Int, n2 bool) int {
	if n1 != n2 {
		if n1 {
			return -1
		}
		return 1
	}
	if n1 {
		return -m1.Cmp(m2)
	}
	return m1.Cmp(m2)
}

func (b *bv) extract(hi, lo uint) *bv {
	r := new(big.Int).Rsh(b.value, lo)
	return bvFromBigInt(r, hi-lo+1)
}

func concatBV(children []*bv) *bv {
	w := uint(0)
	for _, c := range children {
		w += c.w
	}
	r := big.NewInt(0)
	for _, c := range children {
		r.Lsh(r, c.w)
		r.Or(r, c.value)
	}
	return bvFromBigInt(r, w)
}

func (b *bv) zext(n uint) *bv {
	return bvFromBigInt(b.value, b.w+n)
}

func (b *bv) sext(n uint) *bv {
	if !b.isNegative() {
		return b.zext(n)
	}
	r := new(big.Int).Set(b.value)
	ext := new(big.Int).Lsh(makeMask(n), b.w)
	r.Or(r, ext)
	return bvFromBigInt(r, b.w+n)
}

// randomBV produces a uniformly random width-w value from rng.
func randomBV(rng *rand.Rand, w uint) *bv {
	nbytes := int(w+7) / 8
	buf := make([]byte, nbytes)
	rng.Read(buf)
	v := new(big.Int).SetBytes(buf)
	return bvFromBigInt(v, w)
}
