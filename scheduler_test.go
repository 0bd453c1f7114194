package bvsls

import "testing"

func buildEngine(t *Terms) *Engine {
	t.Init()
	return NewEngine(t)
}

func TestEngineUnitFixedAssignment(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	eq, _ := tm.Eq(x, tm.Const(5, 4))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	res := eng.Run(nil)
	if res != ResultSat {
		t.Fatalf("x = 5 should be sat, got %s", res)
	}
	m := eng.Model()
	if got := m.BV("x"); got == nil || got.asUint64() != 5 {
		t.Fatalf("model x = %v, want 5", got)
	}
}

func TestEngineSingleRepair(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	sum, _ := tm.Add(x, tm.Const(1, 4))
	eq, _ := tm.Eq(sum, tm.Const(5, 4))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	res := eng.Run(nil)
	if res != ResultSat {
		t.Fatalf("(x+1)=5 should be sat, got %s", res)
	}
	m := eng.Model()
	if got := m.BV("x"); got == nil || got.asUint64() != 4 {
		t.Fatalf("model x = %v, want 4", got)
	}
}

func TestEngineConjunction(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 2)
	y := tm.Sym("y", 2)
	andXY, _ := tm.And(x, y)
	orXY, _ := tm.Or(x, y)
	eq1, _ := tm.Eq(andXY, tm.Const(1, 2))
	eq2, _ := tm.Eq(orXY, tm.Const(3, 2))
	tm.Assert(eq1)
	tm.Assert(eq2)

	eng := buildEngine(tm)
	eng.Init()
	res := eng.Run(nil)
	if res != ResultSat {
		t.Fatalf("x&y=1, x|y=3 should be sat, got %s", res)
	}
	m := eng.Model()
	xv, yv := m.BV("x").asUint64(), m.BV("y").asUint64()
	if xv&yv != 1 || xv|yv != 3 {
		t.Fatalf("model x=%d y=%d does not satisfy x&y=1, x|y=3", xv, yv)
	}
}

func TestEngineBooleanMix(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 2)
	eqz, _ := tm.Eq(x, tm.Const(0, 2))
	eqo, _ := tm.Eq(x, tm.Const(1, 2))
	disj := tm.BoolOr(eqz, eqo)
	notz := tm.BoolNot(eqz)
	tm.Assert(disj)
	tm.Assert(notz)

	eng := buildEngine(tm)
	eng.Init()
	res := eng.Run(nil)
	if res != ResultSat {
		t.Fatalf("(x=0 or x=1) and not(x=0) should be sat, got %s", res)
	}
	m := eng.Model()
	if got := m.BV("x").asUint64(); got != 1 {
		t.Fatalf("model x = %d, want 1", got)
	}
}

func TestEngineUnsatLookingReturnsUnknown(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	eq, _ := tm.Eq(x, x)
	assertion := tm.BoolNot(eq)
	tm.Assert(assertion)

	eng := buildEngine(tm)
	cfg := DefaultConfig()
	cfg.MaxMoves = 2000
	cfg.MaxRestarts = 5
	if err := eng.UpdtParams(cfg); err != nil {
		t.Fatalf("UpdtParams: %v", err)
	}
	eng.Init()
	res := eng.Run(nil)
	if res != ResultUnknown {
		t.Fatalf("x != x should never be sat, got %s", res)
	}
}

func TestEngineLargeWidthXor(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 64)
	a := tm.Const(0x0123456789abcdef, 64)
	b := tm.Const(0xfedcba9876543210, 64)
	xorXA, _ := tm.Xor(x, a)
	eq, _ := tm.Eq(xorXA, b)
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	res := eng.Run(nil)
	if res != ResultSat {
		t.Fatalf("x^a=b should be sat, got %s", res)
	}
	m := eng.Model()
	got := m.BV("x").asUint64()
	want := uint64(0x0123456789abcdef) ^ uint64(0xfedcba9876543210)
	if got != want {
		t.Fatalf("model x = %#x, want %#x", got, want)
	}
	if eng.Stats().Moves > 200 {
		t.Fatalf("expected convergence within O(64) moves, took %d", eng.Stats().Moves)
	}
}

func TestEngineDeterministicUnderSeed(t *testing.T) {
	build := func() (*Engine, NodeID) {
		tm := NewTerms()
		x := tm.Sym("x", 8)
		sum, _ := tm.Add(x, tm.Const(7, 8))
		eq, _ := tm.Eq(sum, tm.Const(21, 8))
		tm.Assert(eq)
		tm.Init()
		eng := NewEngine(tm)
		cfg := DefaultConfig()
		cfg.RandomSeed = 123
		_ = eng.UpdtParams(cfg)
		eng.Init()
		return eng, x
	}

	eng1, _ := build()
	res1 := eng1.Run(nil)
	m1 := eng1.Model()

	eng2, _ := build()
	res2 := eng2.Run(nil)
	m2 := eng2.Model()

	if res1 != res2 {
		t.Fatalf("same seed produced different results: %s vs %s", res1, res2)
	}
	if res1 == ResultSat && m1.BV("x").asUint64() != m2.BV("x").asUint64() {
		t.Fatalf("same seed produced different models: %v vs %v", m1, m2)
	}
	if eng1.Stats() != eng2.Stats() {
		t.Fatalf("same seed produced different stats: %+v vs %+v", eng1.Stats(), eng2.Stats())
	}
}

func TestEngineMul(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	mulNode, _ := tm.Mul(x, tm.Const(3, 8))
	eq, _ := tm.Eq(mulNode, tm.Const(9, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x*3=9 should be sat")
	}
	if got := eng.Model().BV("x").asUint64(); got != 3 {
		t.Fatalf("model x = %d, want 3 (3 is the unique inverse of 3 mod 256 applied to 9)", got)
	}
}

func TestEngineUdiv(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	udivNode, _ := tm.Udiv(x, tm.Const(3, 8))
	eq, _ := tm.Eq(udivNode, tm.Const(5, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x udiv 3 = 5 should be sat")
	}
	xv := eng.Model().BV("x").asUint64()
	if xv/3 != 5 {
		t.Fatalf("model x = %d does not satisfy x udiv 3 = 5", xv)
	}
}

func TestEngineSdiv(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	sdivNode, _ := tm.Sdiv(x, tm.Const(2, 8))
	eq, _ := tm.Eq(sdivNode, tm.Const(3, 8))
	ult, _ := tm.Ult(x, tm.Const(16, 8))
	tm.Assert(eq)
	tm.Assert(ult)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x sdiv 2 = 3 (x < 16) should be sat")
	}
	xv := eng.Model().BV("x").asInt64()
	if xv/2 != 3 {
		t.Fatalf("model x = %d does not satisfy x sdiv 2 = 3", xv)
	}
}

func TestEngineUrem(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	uremNode, _ := tm.Urem(x, tm.Const(5, 8))
	eq, _ := tm.Eq(uremNode, tm.Const(3, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x urem 5 = 3 should be sat")
	}
	xv := eng.Model().BV("x").asUint64()
	if xv%5 != 3 {
		t.Fatalf("model x = %d does not satisfy x urem 5 = 3", xv)
	}
}

func TestEngineSrem(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	sremNode, _ := tm.Srem(x, tm.Const(5, 8))
	eq, _ := tm.Eq(sremNode, tm.Const(3, 8))
	ult, _ := tm.Ult(x, tm.Const(16, 8))
	tm.Assert(eq)
	tm.Assert(ult)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x srem 5 = 3 (x < 16) should be sat")
	}
	xv := eng.Model().BV("x").asInt64()
	if xv%5 != 3 {
		t.Fatalf("model x = %d does not satisfy x srem 5 = 3", xv)
	}
}

func TestEngineShl(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	shlNode, _ := tm.Shl(x, tm.Const(2, 8))
	eq, _ := tm.Eq(shlNode, tm.Const(12, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x<<2=12 should be sat")
	}
	xv := eng.Model().BV("x").asUint64()
	if (xv<<2)&0xFF != 12 {
		t.Fatalf("model x = %d does not satisfy x<<2=12", xv)
	}
}

func TestEngineLshr(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	lshrNode, _ := tm.Lshr(x, tm.Const(2, 8))
	eq, _ := tm.Eq(lshrNode, tm.Const(3, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x>>2=3 should be sat")
	}
	xv := eng.Model().BV("x").asUint64()
	if xv>>2 != 3 {
		t.Fatalf("model x = %d does not satisfy x>>2=3", xv)
	}
}

func TestEngineAshr(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	ashrNode, _ := tm.Ashr(x, tm.Const(0, 8))
	eq, _ := tm.Eq(ashrNode, tm.Const(0x55, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x>>>0=0x55 should be sat")
	}
	if got := eng.Model().BV("x").asUint64(); got != 0x55 {
		t.Fatalf("model x = %#x, want 0x55 (ashr by 0 is the identity)", got)
	}
}

func TestEngineConcat(t *testing.T) {
	tm := NewTerms()
	a := tm.Sym("a", 4)
	b := tm.Sym("b", 4)
	concatNode, _ := tm.Concat(a, b)
	eq, _ := tm.Eq(concatNode, tm.Const(0x3D, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("concat(a,b)=0x3D should be sat")
	}
	m := eng.Model()
	if got := m.BV("a").asUint64(); got != 0x3 {
		t.Fatalf("model a = %#x, want 0x3", got)
	}
	if got := m.BV("b").asUint64(); got != 0xD {
		t.Fatalf("model b = %#x, want 0xD", got)
	}
}

func TestEngineExtract(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 8)
	hi, _ := tm.Extract(x, 7, 4)
	lo, _ := tm.Extract(x, 3, 0)
	eqHi, _ := tm.Eq(hi, tm.Const(0xA, 4))
	eqLo, _ := tm.Eq(lo, tm.Const(0x5, 4))
	tm.Assert(eqHi)
	tm.Assert(eqLo)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x[7:4]=0xA, x[3:0]=0x5 should be sat")
	}
	if got := eng.Model().BV("x").asUint64(); got != 0xA5 {
		t.Fatalf("model x = %#x, want 0xA5", got)
	}
}

func TestEngineZExt(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	zextNode, _ := tm.ZExt(x, 4)
	eq, _ := tm.Eq(zextNode, tm.Const(5, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("zext(x,4)=5 should be sat")
	}
	if got := eng.Model().BV("x").asUint64(); got != 5 {
		t.Fatalf("model x = %d, want 5", got)
	}
}

func TestEngineSExt(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	sextNode, _ := tm.SExt(x, 4)
	eq, _ := tm.Eq(sextNode, tm.Const(0xFD, 8))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("sext(x,4)=0xFD should be sat")
	}
	if got := eng.Model().BV("x").asUint64(); got != 0xD {
		t.Fatalf("model x = %#x, want 0xD", got)
	}
}

func TestEngineIte(t *testing.T) {
	tm := NewTerms()
	cond := tm.BoolSym("cond")
	tv := tm.Sym("tv", 4)
	fv := tm.Sym("fv", 4)
	iteNode, _ := tm.Ite(cond, tv, fv)
	eq, _ := tm.Eq(iteNode, tm.Const(9, 4))
	tm.Assert(cond)
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("cond and ite(cond,tv,fv)=9 should be sat")
	}
	m := eng.Model()
	if condV, _ := m.Bool("cond"); !condV {
		t.Fatalf("model cond = false, want true")
	}
	if got := m.BV("tv").asUint64(); got != 9 {
		t.Fatalf("model tv = %d, want 9", got)
	}
}

func TestEngineInitWithOracleFallsBackToRandomWhenNil(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	eq, _ := tm.Eq(x, tm.Const(5, 4))
	tm.Assert(eq)

	eng := buildEngine(tm)
	eng.InitWithOracle(nil)
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x = 5 should be sat")
	}
	if got := eng.Model().BV("x").asUint64(); got != 5 {
		t.Fatalf("model x = %d, want 5", got)
	}
}

func TestEngineInitWithOracleUsesCallerSuppliedBits(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	ult, _ := tm.Ult(x, tm.Const(2, 4))
	tm.Assert(ult)

	eng := buildEngine(tm)
	// A caller-supplied oracle that always proposes every bit as 0 --
	// if InitWithOracle actually threads the caller's oracle through,
	// the initial assignment already satisfies x<2 and the engine
	// should finish in zero moves.
	eng.InitWithOracle(func(NodeID, uint) bool { return false })
	if eng.Run(nil) != ResultSat {
		t.Fatalf("x<2 should be sat")
	}
	if eng.Stats().Moves != 0 {
		t.Fatalf("all-zero initial oracle already satisfies x<2, expected 0 moves, got %d", eng.Stats().Moves)
	}
}

func TestModelSatisfiesAssertions(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	y := tm.Sym("y", 4)
	sum, _ := tm.Add(x, y)
	eq, _ := tm.Eq(sum, tm.Const(9, 4))
	ult, _ := tm.Ult(x, tm.Const(8, 4))
	tm.Assert(eq)
	tm.Assert(ult)

	eng := buildEngine(tm)
	eng.Init()
	if eng.Run(nil) != ResultSat {
		t.Fatalf("expected sat")
	}
	m := eng.Model()
	xv := m.BV("x").asUint64()
	yv := m.BV("y").asUint64()
	if (xv+yv)%16 != 9 {
		t.Fatalf("model x=%d y=%d violates x+y=9", xv, yv)
	}
	if xv >= 8 {
		t.Fatalf("model x=%d violates x<8", xv)
	}
}
