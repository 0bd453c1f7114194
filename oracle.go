package bvsls

import "math/rand"

// randomOracle returns an Oracle that draws every bit uniformly at
// random from rng, except for bits InitFixed already pinned -- those
// must come out fixed from the very first assignment. Used for the
// initial assignment before the first search round.
func randomOracle(ev *Evaluator, rng *rand.Rand) Oracle {
	return func(id NodeID, bitIndex uint) bool {
		n := ev.terms.Term(id)
		if n.sort == SortBool {
			return rng.Intn(2) == 1
		}
		if fm := ev.FixedMask(id); fm != nil && fm.bit(bitIndex) == 1 {
			return ev.Wval0(id).bit(bitIndex) == 1
		}
		return rng.Intn(2) == 1
	}
}

// keepMostlyOracle builds a restart oracle that mostly reseeds: with
// probability keepPct/100 it reuses the bit the node currently holds
// (unless that bit is fixed, in which case it always keeps, since a
// fixed bit can never legally change), otherwise it draws a fresh
// random bit. "Current" here means the value before the restart: the
// closure reads val0 directly, and InitEval only overwrites a symbol's
// val0 after the oracle has been asked for all of its bits.
func keepMostlyOracle(ev *Evaluator, rng *rand.Rand, keepPct int) Oracle {
	return func(id NodeID, bitIndex uint) bool {
		n := ev.terms.Term(id)
		if n.sort == SortBool {
			if ev.IsFixed0(id) {
				return ev.Bval0(id)
			}
			if rng.Intn(100) < keepPct {
				return ev.Bval0(id)
			}
			return rng.Intn(2) == 1
		}
		fm := ev.FixedMask(id)
		cur := ev.Wval0(id)
		if fm != nil && fm.bit(bitIndex) == 1 {
			return cur.bit(bitIndex) == 1
		}
		if rng.Intn(100) < keepPct {
			return cur.bit(bitIndex) == 1
		}
		return rng.Intn(2) == 1
	}
}
