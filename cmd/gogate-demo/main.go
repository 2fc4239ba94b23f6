// Command gogate-demo runs the session gate in front of a small API.
//
// Without REDIS_ADDR it starts an embedded miniredis, and without
// DATABASE_URL it resolves users from a seeded in-memory directory.
//
// Endpoints:
//
//	GET  /api/v1/user/google?id=1001  stub OAuth2 callback, sets cookies and redirects
//	GET  /api/v1/user/kakao?id=2002   same, for the kakao provider
//	GET  /api/v1/user/me              gated, returns the principal
//	POST /api/v1/reissue              rotates the cookie pair
//	POST /api/v1/logout               drops the device session and clears cookies
//	GET  /actuator/health             session store reachability
//	GET  /actuator/prometheus         gate metrics
//	GET  /actuator/otel               gate metrics via OpenTelemetry (OTEL_ENABLED=true)
//
// Run:
//
//	JWT_SECRET=0123456789abcdef0123456789abcdef COOKIE_SECURE=false go run ./cmd/gogate-demo
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/directory"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// demoUsers seed the in-memory directory.
var demoUsers = []directory.User{
	{UserID: "1", SocialID: "google-1001", Nickname: "alice"},
	{UserID: "2", SocialID: "kakao-2002", Nickname: "bob"},
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := LoadConfig(".env")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	logger = logger.Level(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *Config, logger zerolog.Logger) error {
	rdb, closeRedis, err := openRedis(cfg.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	dir, closeDir, err := openDirectory(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer closeDir()

	engine, err := goGate.New().
		WithConfig(cfg.EngineConfig()).
		WithRedis(rdb).
		WithUserDirectory(dir).
		WithLogger(logger).
		WithAuditSink(goGate.NewZerologSink(logger)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	var tel *telemetry
	if cfg.OTELEnabled {
		if tel, err = newTelemetry(engine); err != nil {
			return err
		}
		defer func() {
			if err := tel.Close(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("otel shutdown")
			}
		}()
	}

	router, err := newRouter(engine, cfg, tel, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Str("rotation", engine.RotationMode().String()).
			Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openRedis(addr string, logger zerolog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Warn().Str("addr", mr.Addr()).Msg("REDIS_ADDR unset, using embedded miniredis")
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	logger.Info().Str("addr", addr).Msg("using redis")
	return client, func() { _ = client.Close() }, nil
}

func openDirectory(ctx context.Context, databaseURL string, logger zerolog.Logger) (goGate.UserDirectory, func(), error) {
	if databaseURL == "" {
		mem, err := directory.NewMemory(demoUsers...)
		if err != nil {
			return nil, nil, err
		}
		logger.Warn().Int("users", len(demoUsers)).Msg("DATABASE_URL unset, using in-memory directory")
		return mem, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	dir, err := directory.NewPostgres(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("using postgres directory")
	return dir, pool.Close, nil
}
