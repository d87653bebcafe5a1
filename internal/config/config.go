package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Defaults that cannot be expressed inside a struct tag.
const (
	DefaultAllowedOrigins        = "http://localhost:3000,http://localhost:3001"
	DefaultContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; connect-src 'self'"
	DefaultPermissionsPolicy     = "geolocation=(), microphone=(), camera=()"
)

type Config struct {
	Env      string `env:"APP_ENV,default=development"`
	Addr     string `env:"APP_ADDR,default=:8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	DBDSN          string        `env:"DB_DSN"`
	DBQueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT,default=5s"`
	MigrationsDir  string        `env:"MIGRATIONS_DIR"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	CORSMaxAge         int    `env:"CORS_MAX_AGE,default=3600"`

	EnableHSTS            bool   `env:"ENABLE_HSTS,default=false"`
	ContentSecurityPolicy string `env:"CONTENT_SECURITY_POLICY"`
	ReferrerPolicy        string `env:"REFERRER_POLICY,default=strict-origin-when-cross-origin"`
	PermissionsPolicy     string `env:"PERMISSIONS_POLICY"`

	MaxBodyBytes   int     `env:"MAX_BODY_BYTES,default=1048576"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=100"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB,default=0"`
	CacheTTL      time.Duration `env:"CACHE_TTL,default=5m"`

	OpsAdminUser           string `env:"OPS_ADMIN_USER,default=admin"`
	OpsAdminPasswordHash   string `env:"OPS_ADMIN_PASSWORD_HASH"`
	OpsMonitorUser         string `env:"OPS_MONITOR_USER,default=monitor"`
	OpsMonitorPasswordHash string `env:"OPS_MONITOR_PASSWORD_HASH"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// LoadEnvFiles reads .env and .env.local into the process environment.
// Variables already set are never overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	LoadEnvFiles()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CORSAllowedOrigins == "" {
		c.CORSAllowedOrigins = DefaultAllowedOrigins
	}
	if c.ContentSecurityPolicy == "" {
		c.ContentSecurityPolicy = DefaultContentSecurityPolicy
	}
	if c.PermissionsPolicy == "" {
		c.PermissionsPolicy = DefaultPermissionsPolicy
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.DBQueryTimeout <= 0 {
		errs = append(errs, errors.New("DB_QUERY_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.CORSMaxAge < 0 {
		errs = append(errs, errors.New("CORS_MAX_AGE cannot be negative"))
	}
	if c.RedisAddr != "" && c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive when REDIS_ADDR is set"))
	}
	for _, origin := range c.AllowedOrigins() {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			errs = append(errs, fmt.Errorf("CORS_ALLOWED_ORIGINS: invalid origin %q", origin))
		}
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsDevelopment reports whether the service runs with development defaults.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}
