package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"
)

const ReleaseMode = "release"

type DatabaseOptions struct {
	Host         string        `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port         string        `env:"DB_PORT" envDefault:"3306"`
	User         string        `env:"DB_USER" envDefault:"root"`
	Password     string        `env:"DB_PASSWORD"`
	Name         string        `env:"DB_NAME" envDefault:"booking_crm"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	ConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"10m"`
}

// DSN builds the go-sql-driver/mysql data source name.
func (d DatabaseOptions) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&clientFoundRows=true&timeout=5s&readTimeout=30s&writeTimeout=30s",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type AuthOptions struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
	// LoginRate throttles POST /api/auth/login per client ip, e.g. "20-M".
	// Empty disables the limit.
	LoginRate string `env:"LOGIN_RATE_LIMIT" envDefault:"20-M"`
}

type MetricsOptions struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// ClientOptions configure the terminal browser.
type ClientOptions struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Token   string        `env:"API_TOKEN"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}

type Env struct {
	AppAddr     string   `env:"APP_ADDR" envDefault:":8080"`
	GinMode     string   `env:"GIN_MODE"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT" envDefault:"text"`
	PageSize    int      `env:"PAGE_SIZE" envDefault:"10"`
	MaxPageSize int      `env:"MAX_PAGE_SIZE" envDefault:"100"`

	Database DatabaseOptions
	Auth     AuthOptions
	Metrics  MetricsOptions
	Client   ClientOptions
}

// LoadDotEnv loads whichever of the given files exist, returning how many were read.
func LoadDotEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LoadEnv reads .env/.env.local (if present) and the process environment.
func LoadEnv() (Env, error) {
	if _, err := LoadDotEnv([]string{".env", ".env.local"}); err != nil {
		return Env{}, fmt.Errorf("load dotenv: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppAddr = strings.TrimSpace(cfg.AppAddr)
	cfg.GinMode = strings.TrimSpace(cfg.GinMode)
	if err := cfg.Validate(); err != nil {
		return Env{}, err
	}
	return cfg, nil
}

func (e Env) Validate() error {
	if e.AppAddr == "" {
		return fmt.Errorf("APP_ADDR must not be empty")
	}
	if e.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", e.PageSize)
	}
	if e.MaxPageSize < e.PageSize {
		return fmt.Errorf("MAX_PAGE_SIZE (%d) must be >= PAGE_SIZE (%d)", e.MaxPageSize, e.PageSize)
	}
	if e.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", e.Database.MaxOpenConns)
	}
	if e.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if e.GinMode == ReleaseMode && e.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}
	if e.Auth.LoginRate != "" {
		if _, err := limiter.NewRateFromFormatted(e.Auth.LoginRate); err != nil {
			return fmt.Errorf("LOGIN_RATE_LIMIT %q: %w", e.Auth.LoginRate, err)
		}
	}
	if e.Metrics.Enabled && !strings.HasPrefix(e.Metrics.Path, "/") {
		return fmt.Errorf("METRICS_PATH must start with '/', got %q", e.Metrics.Path)
	}
	return nil
}

// Secret returns the signing key, falling back to a fixed development key.
func (a AuthOptions) Secret() []byte {
	if a.JWTSecret == "" {
		return []byte("dev-secret-change-me")
	}
	return []byte(a.JWTSecret)
}
