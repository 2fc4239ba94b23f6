//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	goGate "github.com/MrEthical07/goGate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	pcUA       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

func testConfig(mode goGate.RotationMode) goGate.Config {
	cfg := goGate.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(testSecret)
	cfg.Session.RotationMode = mode
	return cfg
}

func newEngine(t *testing.T, rdb redis.UniversalClient, cfg goGate.Config) *goGate.Engine {
	t.Helper()
	engine, err := goGate.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// newCountedEngine creates an Engine backed by miniredis with a cmdCounter
// hook installed. Reset the counter before each measured operation.
func newCountedEngine(t *testing.T, mode goGate.RotationMode) (*goGate.Engine, *cmdCounter) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection so handshake commands are not counted.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	counter.Reset()

	return newEngine(t, rdb, testConfig(mode)), counter
}

func login(t *testing.T, engine *goGate.Engine, socialID string) *goGate.LoginResult {
	t.Helper()
	res, err := engine.CompleteLogin(context.Background(), httptest.NewRecorder(), newRequest(), goGate.Identity{
		SocialID: socialID,
		Role:     "ROLE_USER",
	})
	if err != nil {
		t.Fatalf("login %s: %v", socialID, err)
	}
	return res
}

func newRequest(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/photo/mine", nil)
	req.Header.Set("User-Agent", pcUA)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func reissueRequest(engine *goGate.Engine, refresh string) *http.Request {
	return newRequest(engine.NewRefreshCookie(refresh))
}
