package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/directory"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type demoFixture struct {
	router chi.Router
	mr     *miniredis.Miniredis
}

func newDemoFixture(t *testing.T) *demoFixture {
	t.Helper()
	return newDemoFixtureWith(t, demoOptions{})
}

type demoOptions struct {
	// sink receives engine audit events when set.
	sink goGate.AuditSink
	otel bool
}

func newDemoFixtureWith(t *testing.T, opts demoOptions) *demoFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dir, err := directory.NewMemory(demoUsers...)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	cfg := &Config{
		JWTSecret:       testSecret,
		LoginSuccessURL: "https://app.example/home",
		FirstUserURL:    "https://app.example/welcome",
		RotationMode:    "overwrite",
		CORSOrigins:     "https://app.example",
	}
	b := goGate.New().
		WithConfig(cfg.EngineConfig()).
		WithRedis(rdb).
		WithUserDirectory(dir)
	if opts.sink != nil {
		b.WithAuditSink(opts.sink)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	var tel *telemetry
	if opts.otel {
		if tel, err = newTelemetry(engine); err != nil {
			t.Fatalf("telemetry: %v", err)
		}
		t.Cleanup(func() { _ = tel.Close(context.Background()) })
	}

	router, err := newRouter(engine, cfg, tel, zerolog.Nop())
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &demoFixture{router: router, mr: mr}
}

func (f *demoFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *demoFixture) login(t *testing.T, path string) []*http.Cookie {
	t.Helper()
	rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("login %s: status %d body %s", path, rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		if c.Value != "" {
			req.AddCookie(c)
		}
	}
	return req
}

func TestDemoLoginThenMe(t *testing.T) {
	f := newDemoFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/user/google?id=1001", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://app.example/home" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	cookies := rec.Result().Cookies()

	me := f.do(withCookies(httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil), cookies))
	if me.Code != http.StatusOK {
		t.Fatalf("me: status %d", me.Code)
	}
	var body meBody
	if err := json.NewDecoder(me.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Subject != "alice" || body.Role != defaultProviderRole {
		t.Fatalf("unexpected principal %+v", body)
	}
	if !f.mr.Exists("refresh:1:pc") {
		t.Fatal("expected session record for user 1 on pc")
	}
}

func TestDemoAuditRecordsForwardedClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{name: "x-forwarded-for", header: "X-Forwarded-For", value: "203.0.113.9, 10.0.0.1", want: "203.0.113.9"},
		{name: "x-real-ip", header: "X-Real-IP", value: "198.51.100.4", want: "198.51.100.4"},
		{name: "remote addr", want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := goGate.NewChannelSink(8)
			f := newDemoFixtureWith(t, demoOptions{sink: sink})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/user/google?id=1001", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if rec := f.do(req); rec.Code != http.StatusFound {
				t.Fatalf("login: status %d", rec.Code)
			}

			select {
			case ev := <-sink.Events():
				if ev.EventType != "login_success" || ev.IP != tt.want {
					t.Fatalf("unexpected audit event %+v", ev)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("expected a login audit event")
			}
		})
	}
}

func TestDemoFirstLoginRedirect(t *testing.T) {
	f := newDemoFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/user/kakao?id=2002&first_login=true", nil))
	if loc := rec.Header().Get("Location"); loc != "https://app.example/welcome" {
		t.Fatalf("unexpected redirect %q (status %d)", loc, rec.Code)
	}
}

func TestDemoLoginRejectsUnknownAndMissingID(t *testing.T) {
	f := newDemoFixture(t)
	for _, path := range []string{"/api/v1/user/google?id=9999", "/api/v1/user/google"} {
		if rec := f.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestDemoMeRequiresCookies(t *testing.T) {
	f := newDemoFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDemoReissueAndLogout(t *testing.T) {
	f := newDemoFixture(t)
	cookies := f.login(t, "/api/v1/user/google?id=1001")

	rec := f.do(withCookies(httptest.NewRequest(http.MethodPost, "/api/v1/reissue", nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("reissue: status %d body %s", rec.Code, rec.Body.String())
	}
	rotated := rec.Result().Cookies()
	if len(rotated) != 2 {
		t.Fatalf("expected two rotated cookies, got %d", len(rotated))
	}

	// The original refresh credential is spent.
	replay := f.do(withCookies(httptest.NewRequest(http.MethodPost, "/api/v1/reissue", nil), cookies))
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("replay: expected 400, got %d", replay.Code)
	}

	out := f.do(withCookies(httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil), rotated))
	if out.Code != http.StatusOK {
		t.Fatalf("logout: status %d", out.Code)
	}
	if f.mr.Exists("refresh:1:pc") {
		t.Fatal("logout must delete the session record")
	}
}

func TestDemoActuator(t *testing.T) {
	f := newDemoFixture(t)
	f.login(t, "/api/v1/user/google?id=1001")

	health := f.do(httptest.NewRequest(http.MethodGet, "/actuator/health", nil))
	if health.Code != http.StatusOK || !strings.Contains(health.Body.String(), `"UP"`) {
		t.Fatalf("health: %d %s", health.Code, health.Body.String())
	}

	prom := f.do(httptest.NewRequest(http.MethodGet, "/actuator/prometheus", nil))
	body, _ := io.ReadAll(prom.Body)
	if prom.Code != http.StatusOK || !strings.Contains(string(body), "gogate_login_success_total 1") {
		t.Fatalf("prometheus: %d %s", prom.Code, body)
	}

	f.mr.Close()
	down := f.do(httptest.NewRequest(http.MethodGet, "/actuator/health", nil))
	if down.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with store down, got %d", down.Code)
	}
}

func TestDemoCORSPreflight(t *testing.T) {
	f := newDemoFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/user/me", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := f.do(req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("credentials must be allowed for cookie auth")
	}
}

func TestDemoOTelActuator(t *testing.T) {
	f := newDemoFixtureWith(t, demoOptions{otel: true})
	cookies := f.login(t, "/api/v1/user/google?id=1001")
	if rec := f.do(withCookies(httptest.NewRequest(http.MethodPost, "/api/v1/reissue", nil), cookies)); rec.Code != http.StatusOK {
		t.Fatalf("reissue: status %d", rec.Code)
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/actuator/otel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("otel: status %d", rec.Code)
	}
	var points []otelPoint
	if err := json.NewDecoder(rec.Body).Decode(&points); err != nil {
		t.Fatalf("decode: %v", err)
	}

	found := map[string]otelPoint{}
	for _, p := range points {
		found[p.Name+"|"+p.Attrs["rotation"]+p.Attrs["le"]] = p
	}
	if p, ok := found["gogate_login_success_total|"]; !ok || p.Value != 1 {
		t.Fatalf("login counter: %+v (present %v)", p, ok)
	}
	if p, ok := found["gogate_reissue_success_total|overwrite"]; !ok || p.Value != 1 {
		t.Fatalf("reissue counter with rotation label: %+v (present %v)", p, ok)
	}
	if p, ok := found["gogate_store_up|"]; !ok || p.Value != 1 {
		t.Fatalf("store up: %+v (present %v)", p, ok)
	}
}

func TestDemoOTelActuatorDisabled(t *testing.T) {
	f := newDemoFixture(t)
	if rec := f.do(httptest.NewRequest(http.MethodGet, "/actuator/otel", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without OTEL_ENABLED, got %d", rec.Code)
	}
}
