package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"uimock/mockapi/internal/auth"
)

type Config struct {
	HTTP          HTTPConfig
	Session       SessionConfig
	Fixtures      FixtureConfig
	Accounts      []auth.Account
	KnownUsers    []string
	ServerVersion string
	LogLevel      string
	AuditLogFile  string
}

type HTTPConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	Latency            time.Duration
	CORSAllowedOrigins []string
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	// HashKey signs the session cookie. Empty means a random key per process.
	HashKey string
}

type FixtureConfig struct {
	Dir         string
	DatabaseURL string
}

// fileConfig is the optional TOML file named by MOCKAPI_CONFIG_FILE.
type fileConfig struct {
	KnownUsers []string       `toml:"known_users"`
	Accounts   []auth.Account `toml:"accounts"`
}

func DefaultAccounts() []auth.Account {
	return []auth.Account{
		{
			Username: "admin",
			Password: "admin",
			Role:     auth.RoleAdmin,
			OTP:      "123456",
			Profile:  map[string]any{"name": "Administrator", "email": "admin@example.com"},
		},
		{
			Username: "user",
			Password: "password",
			Role:     auth.RoleUser,
			Profile:  map[string]any{"name": "Regular User", "email": "user@example.com"},
		},
	}
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:               getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:        time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:       time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout:    time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
			Latency:            time.Duration(getEnvInt("LATENCY_MS", 0)) * time.Millisecond,
			CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE_NAME", "session"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
			HashKey:      getEnv("SESSION_HASH_KEY", ""),
		},
		Fixtures: FixtureConfig{
			Dir:         getEnv("FIXTURE_DIR", ""),
			DatabaseURL: getEnv("FIXTURE_DATABASE_URL", ""),
		},
		Accounts:      DefaultAccounts(),
		ServerVersion: getEnv("SERVER_VERSION", "4.5.0.mock"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AuditLogFile:  getEnv("AUDIT_LOG_FILE", ""),
	}

	if path := getEnv("MOCKAPI_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if len(cfg.KnownUsers) == 0 {
		cfg.KnownUsers = accountNames(cfg.Accounts)
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.HTTP.Latency < 0 {
		return Config{}, fmt.Errorf("LATENCY_MS must be >= 0")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT_SEC must be > 0")
	}
	if cfg.Session.CookieName == "" {
		return Config{}, fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if n := len(cfg.Session.HashKey); n != 0 && n < 32 {
		return Config{}, fmt.Errorf("SESSION_HASH_KEY must be at least 32 bytes")
	}
	if len(cfg.Accounts) == 0 {
		return Config{}, fmt.Errorf("at least one account must be configured")
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	if len(fc.Accounts) > 0 {
		for i := range fc.Accounts {
			role, err := auth.ParseRole(string(fc.Accounts[i].Role))
			if err != nil {
				return fmt.Errorf("config file %s: account %q: %w", path, fc.Accounts[i].Username, err)
			}
			fc.Accounts[i].Role = role
		}
		c.Accounts = fc.Accounts
	}
	c.KnownUsers = fc.KnownUsers
	return nil
}

func accountNames(accounts []auth.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Username)
	}
	return out
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
