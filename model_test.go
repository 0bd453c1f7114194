package bvsls

import (
	"math/rand"
	"testing"
)

func TestModelOmitsNonConstants(t *testing.T) {
	tm := NewTerms()
	x := tm.Sym("x", 4)
	sum, _ := tm.Add(x, tm.Const(1, 4))
	tm.Assert(eqOrPanic(tm, sum, tm.Const(5, 4)))
	tm.Init()

	rng := rand.New(rand.NewSource(7))
	ev := newEvaluator(tm, rng)
	ev.InitFixed()
	ev.InitEval(randomOracle(ev, rng))

	m := extractModel(ev)
	if m.BV("x") == nil {
		t.Fatalf("model should include symbol x")
	}
	if len(m.bv) != 1 {
		t.Fatalf("model should only include the one uninterpreted constant, got %v", m.bv)
	}
}

func TestModelIncludesBoolSymbols(t *testing.T) {
	tm := NewTerms()
	b := tm.BoolSym("b")
	tm.Assert(b)
	tm.Init()

	rng := rand.New(rand.NewSource(8))
	ev := newEvaluator(tm, rng)
	ev.InitFixed()
	ev.InitEval(randomOracle(ev, rng))

	m := extractModel(ev)
	if _, ok := m.Bool("b"); !ok {
		t.Fatalf("model should include Boolean symbol b")
	}
}
