package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Result store
	Store StoreConfig

	// External sources
	Sources SourcesConfig
	Gemini  GeminiConfig

	// Strategy YAML (profiles, weights, holidays)
	StrategyConfigPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string // redis://[:password@]host:port/db, overrides host/port
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StoreConfig selects where selection runs are persisted
type StoreConfig struct {
	Driver     string // postgres, sqlite, none
	SQLitePath string
}

// SourcesConfig holds market snapshot source settings
type SourcesConfig struct {
	Order            []string // 시도 순서 (예: eastmoney,quotepage,mock)
	EastmoneyBaseURL string
	QuotePageURL     string
	SnapshotCacheTTL time.Duration
}

// GeminiConfig holds Google Gemini API configuration
type GeminiConfig struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	CacheTTL          time.Duration
}

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverNone     = "none"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	e := &envReader{}
	cfg := &Config{
		Port: e.asString("PORT", "8080"),
		Env:  e.asString("ENV", "development"),

		Database: DatabaseConfig{
			URL:             e.asString("DATABASE_URL", ""),
			MaxConns:        e.asInt("DB_MAX_CONNS", 10),
			MinConns:        e.asInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: e.asDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: e.asDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},

		Redis: RedisConfig{
			URL:      e.asString("REDIS_URL", ""),
			Host:     e.asString("REDIS_HOST", "localhost"),
			Port:     e.asString("REDIS_PORT", "6379"),
			Password: e.asString("REDIS_PASSWORD", ""),
			DB:       e.asInt("REDIS_DB", 0),
			Enabled:  e.asBool("REDIS_ENABLED", false),
		},

		Store: StoreConfig{
			Driver:     strings.ToLower(e.asString("STORE_DRIVER", StoreDriverSQLite)),
			SQLitePath: e.asString("SQLITE_PATH", "data/picker.db"),
		},

		Sources: SourcesConfig{
			Order:            e.asList("SOURCE_ORDER", "eastmoney,quotepage,mock"),
			EastmoneyBaseURL: e.asString("EASTMONEY_BASE_URL", "https://push2.eastmoney.com"),
			QuotePageURL:     e.asString("QUOTEPAGE_URL", ""),
			SnapshotCacheTTL: e.asDuration("SNAPSHOT_CACHE_TTL", time.Minute),
		},

		Gemini: GeminiConfig{
			APIKey:            e.asString("GEMINI_API_KEY", ""),
			Model:             e.asString("GEMINI_MODEL", "gemini-2.5-flash"),
			RequestsPerMinute: e.asInt("GEMINI_RPM", 10),
			CacheTTL:          e.asDuration("GEMINI_CACHE_TTL", 12*time.Hour),
		},

		StrategyConfigPath: e.asString("STRATEGY_CONFIG", ""),

		LogLevel:  e.asString("LOG_LEVEL", "info"),
		LogFormat: e.asString("LOG_FORMAT", "console"),
	}

	if err := e.err(); err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks cross-field requirements
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production (got %q)", c.Env)
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
		}
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	case StoreDriverNone:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: postgres, sqlite, none (got %q)", c.Store.Driver)
	}

	if len(c.Sources.Order) == 0 {
		return errors.New("SOURCE_ORDER must name at least one source")
	}
	if c.Gemini.RequestsPerMinute <= 0 {
		return errors.New("GEMINI_RPM must be positive")
	}

	return nil
}

// loadEnvFile loads the first .env found: ENV_FILE, the working directory,
// then next to the executable. Variables already set win over the file.
func loadEnvFile() {
	var paths []string
	if p := os.Getenv("ENV_FILE"); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ".env")
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(dir, ".env"), filepath.Join(dir, "..", ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// envReader reads typed variables and remembers malformed ones,
// so a typo in DB_MAX_CONNS fails Load instead of silently using the default
type envReader struct {
	bad []string
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) asString(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *envReader) asInt(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.bad = append(e.bad, fmt.Sprintf("%s=%q (want integer)", key, v))
		return def
	}
	return n
}

func (e *envReader) asBool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.bad = append(e.bad, fmt.Sprintf("%s=%q (want true/false)", key, v))
		return def
	}
	return b
}

func (e *envReader) asDuration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.bad = append(e.bad, fmt.Sprintf("%s=%q (want duration like 30s)", key, v))
		return def
	}
	return d
}

// asList splits a comma separated value, lower-cased, dropping blanks
func (e *envReader) asList(key, def string) []string {
	parts := strings.Split(e.asString(key, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e *envReader) err() error {
	if len(e.bad) == 0 {
		return nil
	}
	return fmt.Errorf("invalid environment values: %s", strings.Join(e.bad, ", "))
}
