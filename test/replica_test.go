//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	goGate "github.com/MrEthical07/goGate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newReplicas builds n engines sharing one Redis and one signing key, as
// several gate instances behind a load balancer would.
func newReplicas(t *testing.T, n int, mode goGate.RotationMode) []*goGate.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	out := make([]*goGate.Engine, n)
	for i := range out {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		out[i] = newEngine(t, rdb, testConfig(mode))
	}
	return out
}

func TestReplicasShareCredentials(t *testing.T) {
	replicas := newReplicas(t, 2, goGate.RotationOverwrite)
	res := login(t, replicas[0], "replica-user")

	p, err := replicas[1].Authenticate(context.Background(), res.Access)
	if err != nil {
		t.Fatalf("second replica must accept the access credential: %v", err)
	}
	if p.Subject != "replica-user" {
		t.Fatalf("unexpected subject %q", p.Subject)
	}

	rotated, err := replicas[1].Reissue(context.Background(), httptest.NewRecorder(), reissueRequest(replicas[1], res.Refresh))
	if err != nil {
		t.Fatalf("second replica reissue: %v", err)
	}
	if _, err := replicas[0].Authenticate(context.Background(), rotated.Access); err != nil {
		t.Fatalf("first replica must accept the rotated credential: %v", err)
	}
}

func TestForeignKeyRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	issuer := newEngine(t, rdb, testConfig(goGate.RotationOverwrite))
	other := testConfig(goGate.RotationOverwrite)
	other.JWT.PrivateKey = []byte("fedcba9876543210fedcba9876543210")
	verifier := newEngine(t, rdb, other)

	res := login(t, issuer, "foreign")
	if _, err := verifier.Authenticate(context.Background(), res.Access); !errors.Is(err, goGate.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	_, err := verifier.Reissue(context.Background(), httptest.NewRecorder(), reissueRequest(verifier, res.Refresh))
	if !errors.Is(err, goGate.ErrInvalidRefreshCredential) {
		t.Fatalf("expected invalid refresh credential, got %v", err)
	}
}

func TestReplicaRaceSingleWinner(t *testing.T) {
	const workers = 16
	replicas := newReplicas(t, 4, goGate.RotationCompareAndSwap)
	res := login(t, replicas[0], "racer")

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		engine := replicas[i%len(replicas)]
		go func() {
			defer wg.Done()
			req := reissueRequest(engine, res.Refresh)
			<-start
			_, err := engine.Reissue(context.Background(), httptest.NewRecorder(), req)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, goGate.ErrSessionTokenMismatch):
		default:
			t.Fatalf("unexpected reissue error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("expected exactly one winner across replicas, got %d", success)
	}
}
