package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	promexport "github.com/MrEthical07/goGate/metrics/export/prometheus"
	"github.com/MrEthical07/goGate/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// publicRoutes extends the default allow-list with the reissue and logout
// endpoints, which read the cookies themselves.
var publicRoutes = append(append([]middleware.Route(nil), middleware.DefaultRoutes...),
	middleware.Route{Method: http.MethodPost, Pattern: "/api/v1/reissue"},
	middleware.Route{Method: http.MethodPost, Pattern: "/api/v1/logout"},
)

const defaultProviderRole = "ROLE_USER"

// newRouter mounts /actuator/otel only when tel is non-nil.
func newRouter(engine *goGate.Engine, cfg *Config, tel *telemetry, logger zerolog.Logger) (chi.Router, error) {
	allow, err := middleware.NewAllowList(publicRoutes...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           60 * 15,
	}))
	r.Use(clientIP)
	r.Use(middleware.Gate(engine, allow))

	r.Route("/actuator", func(rr chi.Router) {
		rr.Get("/health", healthHandler(engine))
		rr.Handle("/prometheus", promexport.Handler(engine))
		if tel != nil {
			rr.Get("/otel", tel.Handler)
		}
	})

	r.Route("/api/v1", func(rr chi.Router) {
		rr.Method(http.MethodGet, "/user/google", middleware.LoginSuccess(engine, providerIdentity("google")))
		rr.Method(http.MethodGet, "/user/kakao", middleware.LoginSuccess(engine, providerIdentity("kakao")))
		rr.Get("/user/me", meHandler)
		rr.Method(http.MethodPost, "/reissue", middleware.ReissueHandler(engine))
		rr.Method(http.MethodPost, "/logout", middleware.Logout(engine))
	})

	return r, nil
}

// providerIdentity stands in for the OAuth2 callback: the provider-scoped id
// arrives as the "id" query parameter and is prefixed with the provider name.
func providerIdentity(provider string) middleware.IdentityFunc {
	return func(r *http.Request) (goGate.Identity, error) {
		q := r.URL.Query()
		id := strings.TrimSpace(q.Get("id"))
		if id == "" {
			return goGate.Identity{}, errors.New("missing provider id")
		}
		role := q.Get("role")
		if role == "" {
			role = defaultProviderRole
		}
		first, _ := strconv.ParseBool(q.Get("first_login"))
		return goGate.Identity{
			SocialID:   provider + "-" + id,
			Role:       role,
			FirstLogin: first,
		}, nil
	}
}

type healthBody struct {
	Status       string `json:"status"`
	RedisLatency string `json:"redis_latency,omitempty"`
}

func healthHandler(engine *goGate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := engine.Ping(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "DOWN"})
			return
		}
		writeJSON(w, http.StatusOK, healthBody{Status: "UP", RedisLatency: d.String()})
	}
}

type meBody struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromRequest(r)
	if !ok {
		middleware.WriteError(w, goGate.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, meBody{Subject: p.Subject, Role: p.Role})
}

// clientIP hands the address resolved by chimw.RealIP to the engine's audit
// trail. RealIP leaves RemoteAddr as host:port when no proxy header is set.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(goGate.WithClientIP(r.Context(), host)))
	})
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
