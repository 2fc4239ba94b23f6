// Command gogate-racecheck fires bursts of concurrent reissues that all
// present the same refresh credential and reports how many succeed under
// each rotation mode. Under overwrite rotation more than one caller can win
// and every winner but the last holds an orphaned refresh credential; under
// compare-and-swap exactly one caller wins.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const racecheckSecret = "racecheck-signing-key-0123456789abcdef"

func main() {
	var (
		rounds      = flag.Int("rounds", 200, "bursts per rotation mode")
		concurrency = flag.Int("concurrency", 16, "reissues per burst")
		mode        = flag.String("mode", "both", "rotation mode: overwrite, cas or both")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "racecheck", "session key prefix")
	)
	flag.Parse()

	if *rounds <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "rounds and concurrency must be > 0")
		os.Exit(2)
	}

	modes, err := modesFor(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := session.NewStore(client, *prefix)

	fmt.Println("---- results ----")
	for _, m := range modes {
		engine, err := newEngine(client, *prefix, m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "engine: %v\n", err)
			os.Exit(1)
		}
		total, elapsed, err := runMode(ctx, engine, store, m, *rounds, *concurrency)
		engine.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", m, err)
			os.Exit(1)
		}
		printResult(m, *rounds, total, computeStats(elapsed, total.latencies))
	}
}

func modesFor(s string) ([]goGate.RotationMode, error) {
	if s == "both" {
		return []goGate.RotationMode{goGate.RotationOverwrite, goGate.RotationCompareAndSwap}, nil
	}
	m, err := goGate.ParseRotationMode(s)
	if err != nil {
		return nil, err
	}
	return []goGate.RotationMode{m}, nil
}

func newEngine(client redis.UniversalClient, prefix string, mode goGate.RotationMode) (*goGate.Engine, error) {
	cfg := goGate.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(racecheckSecret)
	cfg.Session.RedisPrefix = prefix
	cfg.Metrics.EnableLatencyHistograms = false

	return goGate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithRotationMode(mode).
		Build()
}

func runMode(ctx context.Context, engine *goGate.Engine, store *session.Store, mode goGate.RotationMode, rounds, concurrency int) (roundResult, time.Duration, error) {
	var total roundResult
	start := time.Now()
	for i := 0; i < rounds; i++ {
		subject := fmt.Sprintf("racer-%s-%d", mode, i)
		res, err := runRound(ctx, engine, store, subject, concurrency)
		if err != nil {
			return total, time.Since(start), err
		}
		total.add(res)
	}
	return total, time.Since(start), nil
}

func printResult(mode goGate.RotationMode, rounds int, r roundResult, s phaseStats) {
	fmt.Printf("%s: rounds=%d winners=%d orphans=%d mismatches=%d not_found=%d failures=%d\n",
		mode,
		rounds,
		r.winners,
		r.orphans,
		r.mismatches,
		r.notFound,
		r.failures,
	)
	fmt.Printf("%s: ops=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		mode,
		s.ops,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
