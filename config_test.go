package bvsls

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.UpdtParams(); err != nil {
		t.Fatalf("DefaultConfig() should validate, got %v", err)
	}
}

func TestUpdtParamsRejectsNonPositiveBudgets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMoves = 0
	if err := cfg.UpdtParams(); err == nil {
		t.Fatalf("MaxMoves=0 should be rejected")
	}
	cfg = DefaultConfig()
	cfg.MaxRestarts = -1
	if err := cfg.UpdtParams(); err == nil {
		t.Fatalf("MaxRestarts=-1 should be rejected")
	}
}

func TestUpdtParamsRejectsBadKeepPct(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeepPct = 101
	if err := cfg.UpdtParams(); err == nil {
		t.Fatalf("KeepPct=101 should be rejected")
	}
	cfg.KeepPct = -1
	if err := cfg.UpdtParams(); err == nil {
		t.Fatalf("KeepPct=-1 should be rejected")
	}
}

func TestStatsResetClearsCounters(t *testing.T) {
	s := Stats{Moves: 5, Restarts: 2}
	s.reset()
	if s.Moves != 0 || s.Restarts != 0 {
		t.Fatalf("reset() left stats at %+v", s)
	}
}
