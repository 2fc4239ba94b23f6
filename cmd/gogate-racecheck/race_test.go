package main

import (
	"context"
	"testing"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRaceFixture(t *testing.T, mode goGate.RotationMode) (*goGate.Engine, *session.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := newEngine(client, "rc", mode)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, session.NewStore(client, "rc")
}

func TestRunRoundCompareAndSwapSingleWinner(t *testing.T) {
	engine, store := newRaceFixture(t, goGate.RotationCompareAndSwap)

	res, err := runRound(context.Background(), engine, store, "alice", 12)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if res.winners != 1 || res.orphans != 0 {
		t.Fatalf("expected one winner and no orphans, got %+v", res)
	}
	if res.mismatches != 11 || res.failures != 0 || res.notFound != 0 {
		t.Fatalf("losers must see a mismatch, got %+v", res)
	}
	if len(res.latencies) != 12 {
		t.Fatalf("expected 12 samples, got %d", len(res.latencies))
	}
}

func TestRunRoundOverwriteAccounting(t *testing.T) {
	engine, store := newRaceFixture(t, goGate.RotationOverwrite)

	res, err := runRound(context.Background(), engine, store, "bob", 12)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if res.winners < 1 {
		t.Fatalf("expected at least one winner, got %+v", res)
	}
	// Exactly one winner's credential is stored; the rest are orphans.
	if res.orphans != res.winners-1 {
		t.Fatalf("orphans must be winners-1, got %+v", res)
	}
	if res.winners+res.mismatches != 12 || res.failures != 0 {
		t.Fatalf("every caller must win or mismatch, got %+v", res)
	}
}

func TestModesFor(t *testing.T) {
	both, err := modesFor("both")
	if err != nil || len(both) != 2 {
		t.Fatalf("both: %v %v", both, err)
	}
	cas, err := modesFor("cas")
	if err != nil || len(cas) != 1 || cas[0] != goGate.RotationCompareAndSwap {
		t.Fatalf("cas: %v %v", cas, err)
	}
	if _, err := modesFor("never"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50: got %v", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100: got %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty: got %v", got)
	}
	s := computeStats(time.Second, []time.Duration{3, 1, 2})
	if s.ops != 3 || s.p50 != 2 || s.opsPerS != 3 {
		t.Fatalf("unexpected stats %+v", s)
	}
}
