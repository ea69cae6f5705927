package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DirName is the directory under ~/.config holding click's files
const DirName = "click"

// Config holds all configuration for the application
type Config struct {
	API      APIConfig     `mapstructure:"api"`
	Session  SessionConfig `mapstructure:"session"`
	Logging  LoggingConfig `mapstructure:"log"`
	Language string        `mapstructure:"language"`
	Region   string        `mapstructure:"region"`
	Sandbox  SandboxConfig `mapstructure:"sandbox"`
}

// APIConfig holds the remote API settings
type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig selects where sessions are persisted
type SessionConfig struct {
	Backend string `mapstructure:"backend"` // keyring, sqlite, memory
	Path    string `mapstructure:"path"`    // sqlite only
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

// SandboxConfig holds the local API sandbox settings
type SandboxConfig struct {
	Addr          string        `mapstructure:"addr"`
	Database      string        `mapstructure:"database"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenExpiry   time.Duration `mapstructure:"token_expiry"`
	AllowOrigins  []string      `mapstructure:"allow_origins"`
	SeedAgent     bool          `mapstructure:"seed_agent"`
	PublicBaseURL string        `mapstructure:"public_base_url"`

	// RedisAddr, when set, routes mail through the asynq queue instead of
	// logging it in-process
	RedisAddr       string `mapstructure:"redis_addr"`
	MonitorAddr     string `mapstructure:"monitor_addr"`
	CleanupSchedule string `mapstructure:"cleanup_schedule"`
}

// Load loads configuration from .env files, an optional config file
// (./click.yaml or ~/.config/click/config.yaml) and CLICK_* environment
// variables, in increasing precedence.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.SetConfigType("yaml")
	if file := os.Getenv("CLICK_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CLICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")
	if cfg.Session.Backend == "sqlite" && cfg.Session.Path == "" {
		return nil, fmt.Errorf("session.path is required for the sqlite session backend")
	}

	return &cfg, nil
}

// Dir returns ~/.config/click
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", DirName), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8000")
	v.SetDefault("api.timeout", "10s")

	sessionPath := "click-session.db"
	if dir, err := Dir(); err == nil {
		sessionPath = filepath.Join(dir, "session.db")
	}
	v.SetDefault("session.backend", "keyring")
	v.SetDefault("session.path", sessionPath)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Empty means: detect from the environment
	v.SetDefault("language", "")
	v.SetDefault("region", "PS")

	v.SetDefault("sandbox.addr", ":8000")
	v.SetDefault("sandbox.database", "click-sandbox.sqlite")
	v.SetDefault("sandbox.jwt_secret", "click-sandbox-secret")
	v.SetDefault("sandbox.token_expiry", "24h")
	v.SetDefault("sandbox.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("sandbox.seed_agent", true)
	v.SetDefault("sandbox.public_base_url", "http://localhost:3000")
	v.SetDefault("sandbox.redis_addr", "")
	v.SetDefault("sandbox.monitor_addr", ":8090")
	v.SetDefault("sandbox.cleanup_schedule", "@hourly")
}
