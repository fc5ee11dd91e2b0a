// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values. Each field maps to an
// environment variable through its envconfig tag.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"APP_PORT" default:"8080"`

	// external quotation/user backend
	BackendURL      string        `envconfig:"BACKEND_URL" default:"http://localhost:5000"`
	BackendTimeout  time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	UserProfilePath string        `envconfig:"USER_PROFILE_PATH" default:"/api/user/profile"`

	// admin login
	JWTSecret            string        `envconfig:"JWT_SECRET" required:"true"`
	AdminTokenTTL        time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"24h"`
	AdminCredentialsFile string        `envconfig:"ADMIN_CREDENTIALS_FILE"`
	BcryptCost           int           `envconfig:"BCRYPT_COST" default:"10"`

	// optional MySQL store for admin accounts; empty host disables it
	AdminDB DBConfig

	// query layer
	QueryStaleTime  time.Duration `envconfig:"QUERY_STALE_TIME" default:"5m"`
	QueryRetryDelay time.Duration `envconfig:"QUERY_RETRY_DELAY" default:"500ms"`

	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	Public PublicConfig
}

// DBConfig names its variables in full; envconfig falls back to the tag
// when the prefixed key is unset.
type DBConfig struct {
	User string `envconfig:"ADMIN_DB_USER"`
	Pass string `envconfig:"ADMIN_DB_PASS"`
	Host string `envconfig:"ADMIN_DB_HOST"`
	Port string `envconfig:"ADMIN_DB_PORT" default:"3306"`
	Name string `envconfig:"ADMIN_DB_NAME"`
}

// Enabled reports whether enough settings are present to open a connection.
func (d DBConfig) Enabled() bool {
	return d.Host != "" && d.User != "" && d.Name != ""
}

// PublicConfig holds settings that are safe to hand to browser clients.
type PublicConfig struct {
	SupabaseURL     string `envconfig:"NEXT_PUBLIC_SUPABASE_URL" json:"supabaseUrl"`
	SupabaseAnonKey string `envconfig:"NEXT_PUBLIC_SUPABASE_ANON_KEY" json:"supabaseAnonKey"`
	GAID            string `envconfig:"NEXT_PUBLIC_GA_ID" json:"gaId"`
}

// Load processes the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool { return c.Env == "production" }

// ClientConfig is what the storefront CLI needs. It shares the backend
// variables with Config but requires no secrets.
type ClientConfig struct {
	Env             string        `envconfig:"APP_ENV" default:"development"`
	BackendURL      string        `envconfig:"BACKEND_URL" default:"http://localhost:5000"`
	BackendTimeout  time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	UserProfilePath string        `envconfig:"USER_PROFILE_PATH" default:"/api/user/profile"`
	QueryRetryDelay time.Duration `envconfig:"QUERY_RETRY_DELAY" default:"500ms"`
	StoragePrefix   string        `envconfig:"STOREFRONT_STORAGE_PREFIX" default:"glazia:storage"`
	BcryptCost      int           `envconfig:"BCRYPT_COST" default:"10"`

	AdminDB DBConfig
}

// LoadClient processes the environment into a ClientConfig.
func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}
	return cfg, nil
}
