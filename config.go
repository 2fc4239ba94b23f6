package goGate

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Config defines every tunable of an [Engine].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	JWT     JWTConfig
	Session SessionConfig
	Cookie  CookieConfig
	Login   LoginConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls credential signing and lifetimes.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// RotationMode selects how a reissue writes the rotated refresh credential.
type RotationMode int

const (
	// RotationOverwrite writes unconditionally. Two concurrent reissues that
	// present the same credential can both succeed; the later write wins and
	// the other caller's new refresh credential is orphaned.
	RotationOverwrite RotationMode = iota
	// RotationCompareAndSwap writes only if the record still holds the
	// presented credential, so exactly one concurrent reissue succeeds.
	RotationCompareAndSwap
)

// String returns the configuration spelling of m.
func (m RotationMode) String() string {
	switch m {
	case RotationOverwrite:
		return "overwrite"
	case RotationCompareAndSwap:
		return "cas"
	default:
		return "unknown"
	}
}

// ParseRotationMode accepts "overwrite" (or empty) and "cas".
func ParseRotationMode(s string) (RotationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return RotationOverwrite, nil
	case "cas", "compare-and-swap":
		return RotationCompareAndSwap, nil
	default:
		return 0, errors.New("unknown rotation mode " + s)
	}
}

// SessionConfig controls the session record store.
type SessionConfig struct {
	RedisPrefix  string
	RotationMode RotationMode
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the access and refresh cookies.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	// Secure should only be disabled for plain-HTTP local development.
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig holds the redirect targets used after external login.
type LoginConfig struct {
	SuccessURL    string
	OnboardingURL string
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the gate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used by [New]. Callers must still
// provide JWT key material.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     10 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			SigningMethod: "hs256",
		},
		Session: SessionConfig{
			RedisPrefix:  "refresh",
			RotationMode: RotationOverwrite,
		},
		Cookie: CookieConfig{
			AccessName:  "access",
			RefreshName: "refresh",
			Path:        "/",
			Secure:      true,
			SameSite:    http.SameSiteLaxMode,
		},
		Login: LoginConfig{
			SuccessURL:    "/",
			OnboardingURL: "/",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found in c.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}

	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.Contains(c.Session.RedisPrefix, ":") {
		return errors.New("Session RedisPrefix must not contain ':'")
	}
	if c.Session.RotationMode != RotationOverwrite && c.Session.RotationMode != RotationCompareAndSwap {
		return errors.New("Session RotationMode is invalid")
	}

	// Cookie
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return errors.New("Cookie names must not be empty")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("Cookie AccessName and RefreshName must differ")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Login
	if c.Login.SuccessURL == "" || c.Login.OnboardingURL == "" {
		return errors.New("Login redirect URLs must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
