package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDirName  = "click"
	configFileName = "preferences.json"
)

// UserConfig represents the user's local preferences stored in ~/.config/click/preferences.json
type UserConfig struct {
	Language string `json:"language,omitempty"`
	// LastResend records when a verification email was last requested, per
	// lowercased address, so the cooldown survives between invocations.
	LastResend map[string]time.Time `json:"last_resend,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetLanguage updates the preferred language and saves the config
func SetLanguage(lang string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.Language = lang
	return Save(cfg)
}

// GetLanguage returns the preferred language, or empty string if not set
func GetLanguage() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.Language, nil
}

// SetLastResend records a verification resend for email
func SetLastResend(email string, at time.Time) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if cfg.LastResend == nil {
		cfg.LastResend = make(map[string]time.Time)
	}
	cfg.LastResend[normalizeEmail(email)] = at.UTC()
	return Save(cfg)
}

// GetLastResend returns when a verification email was last requested for
// email, or the zero time
func GetLastResend(email string) (time.Time, error) {
	cfg, err := Load()
	if err != nil {
		return time.Time{}, err
	}

	return cfg.LastResend[normalizeEmail(email)], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
