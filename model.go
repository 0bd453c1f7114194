package bvsls

import "fmt"

// Model maps uninterpreted-constant names to their satisfying value,
// the result of Engine.Model() after a Run that found SAT.
type Model struct {
	bv   map[string]*bv
	bits map[string]bool
}

func newModel() *Model {
	return &Model{bv: make(map[string]*bv), bits: make(map[string]bool)}
}

// BV returns the value assigned to a bit-vector-sorted symbol, or nil
// if name is not a symbol in the problem.
func (m *Model) BV(name string) *bv {
	return m.bv[name]
}

// Bool returns the value assigned to a Boolean-sorted symbol.
func (m *Model) Bool(name string) (bool, bool) {
	v, ok := m.bits[name]
	return v, ok
}

func (m *Model) String() string {
	s := "(model"
	for name, v := range m.bv {
		s += fmt.Sprintf(" (%s %s)", name, v.String())
	}
	for name, v := range m.bits {
		s += fmt.Sprintf(" (%s %v)", name, v)
	}
	return s + ")"
}

// extractModel reads every uninterpreted constant's current val0 out
// of ev -- called once the Engine has found every assertion correct.
func extractModel(ev *Evaluator) *Model {
	m := newModel()
	for _, id := range ev.SortAssertions() {
		n := ev.terms.Term(id)
		if n.op != OpSym {
			continue
		}
		if n.sort == SortBool {
			m.bits[n.name] = ev.Bval0(id)
		} else {
			m.bv[n.name] = ev.Wval0(id).copy()
		}
	}
	return m
}
