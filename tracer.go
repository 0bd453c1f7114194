package bvsls

import (
	"fmt"
	"io"
)

// Tracer observes the Engine's restart and move events, at the two
// verbosity tiers: Restart at verbosity >= 2, Move at verbosity >= 20.
// The default is nopTracer; WriterTracer renders both as the literal
// lines named for each tier, gated by which methods the caller wires
// up (Verbose controls Move; Restart is unconditional once a
// WriterTracer is installed at all).
type Tracer interface {
	Restart(stats Stats, down, up int)
	Move(down bool, id NodeID, expr, value string, correct bool)
}

type nopTracer struct{}

func (nopTracer) Restart(Stats, int, int)                 {}
func (nopTracer) Move(bool, NodeID, string, string, bool) {}

// WriterTracer writes human-readable trace lines to W.
type WriterTracer struct {
	W       io.Writer
	Verbose bool
}

// Restart emits "(bvsls :restarts K :repair-down D :repair-up U)".
func (t *WriterTracer) Restart(stats Stats, down, up int) {
	fmt.Fprintf(t.W, "(bvsls :restarts %d :repair-down %d :repair-up %d)\n",
		stats.Restarts, down, up)
}

// Move emits "{d|u} #id pp-expr value {C|U}": the picked set, the
// node's id and pretty-printed expression, its current value, and
// whether it was already correct before this move was attempted.
func (t *WriterTracer) Move(down bool, id NodeID, expr, value string, correct bool) {
	if !t.Verbose {
		return
	}
	dir := "u"
	if down {
		dir = "d"
	}
	flag := "U"
	if correct {
		flag = "C"
	}
	fmt.Fprintf(t.W, "%s #%d %s %s %s\n", dir, id, expr, value, flag)
}
