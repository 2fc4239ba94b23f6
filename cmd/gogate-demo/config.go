package main

import (
	"errors"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config is the demo server configuration, read from the environment and an
// optional .env file.
type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// RedisAddr empty means an embedded miniredis.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// DatabaseURL empty means the in-memory user directory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTAccessTTL  string `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`

	LoginSuccessURL string `mapstructure:"LOGIN_SUCCESS_URL"`
	FirstUserURL    string `mapstructure:"FIRST_USER_URL"`
	CookieSecure    bool   `mapstructure:"COOKIE_SECURE"`
	RotationMode    string `mapstructure:"ROTATION_MODE"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	// OTELEnabled exposes the gate metrics through an OpenTelemetry
	// MeterProvider at /actuator/otel.
	OTELEnabled bool `mapstructure:"OTEL_ENABLED"`
}

// LoadConfig reads envFile (if present), then the environment. Env vars
// override the file.
func LoadConfig(envFile string) (*Config, error) {
	v := viper.New()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // missing file is fine
	}

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "10m")
	v.SetDefault("JWT_REFRESH_TTL", "24h")
	v.SetDefault("LOGIN_SUCCESS_URL", "http://localhost:3000/home")
	v.SetDefault("FIRST_USER_URL", "http://localhost:3000/welcome")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("ROTATION_MODE", "overwrite")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("OTEL_ENABLED", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("config: JWT_SECRET must be at least 32 bytes")
	}
	if _, err := goGate.ParseRotationMode(cfg.RotationMode); err != nil {
		return nil, errors.New("config: ROTATION_MODE must be overwrite or cas")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL. Returns 10m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL. Returns 24h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Level returns the zerolog level named by LogLevel, or info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Origins splits CORSOrigins on commas.
func (c *Config) Origins() []string {
	if c == nil || c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EngineConfig maps the server configuration onto the gate configuration.
func (c *Config) EngineConfig() goGate.Config {
	mode, _ := goGate.ParseRotationMode(c.RotationMode)

	cfg := goGate.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(c.JWTSecret)
	cfg.JWT.AccessTTL = c.AccessTTL()
	cfg.JWT.RefreshTTL = c.RefreshTTL()
	cfg.Session.RotationMode = mode
	cfg.Cookie.Secure = c.CookieSecure
	cfg.Login.SuccessURL = c.LoginSuccessURL
	cfg.Login.OnboardingURL = c.FirstUserURL
	cfg.Audit.Enabled = true
	return cfg
}
