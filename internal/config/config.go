package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Members  MembersConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	AllowedOrigins        []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and login parameters.
type AuthConfig struct {
	JWTSecret         string
	SessionTTLMinutes int
	RememberTTLDays   int
	SessionCookie     string
	CookieSecure      bool
	BcryptCost        int
	LoginMaxAttempts  int
	LoginDecaySeconds int
}

// MembersConfig tunes the member roster endpoints.
type MembersConfig struct {
	DefaultPerPage     int
	MaxPerPage         int
	EnforcePhoneFormat bool
}

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://fitness-mvp.localhost",
	"http://localhost",
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "fithub-members"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			AllowedOrigins:        getEnvAsList("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 120),
			RememberTTLDays:   getEnvAsInt("AUTH_REMEMBER_TTL_DAYS", 30),
			SessionCookie:     getEnv("AUTH_SESSION_COOKIE", "fithub_session"),
			CookieSecure:      getEnvAsBool("AUTH_COOKIE_SECURE", false),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts:  getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginDecaySeconds: getEnvAsInt("AUTH_LOGIN_DECAY_SECONDS", 60),
		},
		Members: MembersConfig{
			DefaultPerPage:     getEnvAsInt("MEMBERS_DEFAULT_PER_PAGE", 10),
			MaxPerPage:         getEnvAsInt("MEMBERS_MAX_PER_PAGE", 100),
			EnforcePhoneFormat: getEnvAsBool("MEMBERS_ENFORCE_PHONE_FORMAT", false),
		},
	}

	if cfg.Members.DefaultPerPage <= 0 {
		return nil, fmt.Errorf("invalid MEMBERS_DEFAULT_PER_PAGE: %d", cfg.Members.DefaultPerPage)
	}
	if cfg.Members.MaxPerPage < cfg.Members.DefaultPerPage {
		return nil, fmt.Errorf("MEMBERS_MAX_PER_PAGE (%d) must not be below MEMBERS_DEFAULT_PER_PAGE (%d)",
			cfg.Members.MaxPerPage, cfg.Members.DefaultPerPage)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns how long an issued session stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 120 * time.Minute
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// RememberTTL returns the session lifetime granted to "remember me" logins.
func (a AuthConfig) RememberTTL() time.Duration {
	if a.RememberTTLDays <= 0 {
		return a.SessionTTL()
	}
	return time.Duration(a.RememberTTLDays) * 24 * time.Hour
}

// LoginDecay returns the window over which failed logins are counted.
func (a AuthConfig) LoginDecay() time.Duration {
	if a.LoginDecaySeconds <= 0 {
		return time.Minute
	}
	return time.Duration(a.LoginDecaySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
