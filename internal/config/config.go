// Package config loads the process configuration from the environment.
//
// Config is built once in main and passed explicitly to the components that
// need it (server, token service, store). There is no global getter.
//
// LOADING ORDER:
//  1. godotenv reads an optional .env file into the process environment.
//     Variables that are already set win over the file.
//  2. envdecode fills the Config struct from APP_* variables, applying the
//     defaults declared in the struct tags.
//  3. Validate rejects combinations that would make the server unusable.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// DevelopmentSecret is the fallback signing secret used when APP_SECRET_KEY
// is unset in development. Validate refuses it in any other environment.
const DevelopmentSecret = "dev-secret-change-me-please-0123456789"

// Config holds every tunable of the service.
type Config struct {
	Port        int    `env:"APP_PORT,default=8080"`
	APIPrefix   string `env:"APP_API_PREFIX,default=/api/v1"`
	Environment string `env:"APP_ENVIRONMENT,default=development"`
	LogLevel    string `env:"APP_LOG_LEVEL,default=info"`

	DatabasePath    string        `env:"APP_DATABASE_PATH,default=data/app.db"`
	DBIdleTimeout   time.Duration `env:"APP_DB_IDLE_TIMEOUT,default=30s"`
	SecretKey       string        `env:"APP_SECRET_KEY"`
	JWTAlgorithm    string        `env:"APP_JWT_ALGORITHM,default=HS256"`
	AccessTokenTTL  time.Duration `env:"APP_ACCESS_TOKEN_TTL,default=24h"`
	RefreshTokenTTL time.Duration `env:"APP_REFRESH_TOKEN_TTL,default=168h"`
	BcryptCost      int           `env:"APP_BCRYPT_COST,default=12"`

	// CORSOrigins is a comma-separated list; "*" allows any origin.
	CORSOrigins string `env:"APP_CORS_ORIGINS,default=*"`

	GitHubClientID     string `env:"APP_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"APP_GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"APP_GITHUB_CALLBACK_URL"`
}

// Load reads envFiles (missing files are ignored), decodes the environment
// into a Config and validates it.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	var cfg Config
	// Every field either has a default or is optional, so "nothing set" is
	// a valid outcome here.
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decoding environment: %w", err)
	}

	if cfg.SecretKey == "" && cfg.IsDevelopment() {
		cfg.SecretKey = DevelopmentSecret
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d%s/auth/github/callback", cfg.Port, cfg.APIPrefix)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the decoded values.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT %d out of range", c.Port))
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("APP_API_PREFIX %q must start with /", c.APIPrefix))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("APP_DATABASE_PATH is required"))
	}
	if len(c.SecretKey) < 16 {
		errs = append(errs, errors.New("APP_SECRET_KEY must be at least 16 characters"))
	}
	if !c.IsDevelopment() && c.SecretKey == DevelopmentSecret {
		errs = append(errs, errors.New("APP_SECRET_KEY must be set outside development"))
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("APP_JWT_ALGORITHM %q unsupported", c.JWTAlgorithm))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// AllowedOrigins splits CORSOrigins into a list, dropping empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// ParseLogLevel maps debug/info/warn/error to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("APP_LOG_LEVEL %q invalid: %w", s, err)
	}
	return lvl, nil
}
