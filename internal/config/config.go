package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// SeedUser is one bootstrap account parsed from SEED_USERS. Passwords are
// plaintext here and hashed before they reach the database.
type SeedUser struct {
	Username string
	Password string
	Role     string
	Store    string
}

// Config holds all runtime settings. Everything comes from the
// environment; nothing is embedded in source.
type Config struct {
	AppPort       string
	DatabaseURL   string
	SessionSecret string
	UploadDir     string
	RabbitMQURL   string
	SeedUsers     []SeedUser
}

// Load reads configuration from environment variables via Viper.
// SESSION_SECRET is mandatory: without it session cookies cannot be signed.
func Load() (*Config, error) {
	viper.SetDefault("APP_PORT", ":5050")
	viper.SetDefault("DATABASE_URL", "database.db")
	viper.SetDefault("UPLOAD_DIR", "static/foto")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	cfg := &Config{
		AppPort:       viper.GetString("APP_PORT"),
		DatabaseURL:   viper.GetString("DATABASE_URL"),
		SessionSecret: viper.GetString("SESSION_SECRET"),
		UploadDir:     viper.GetString("UPLOAD_DIR"),
		RabbitMQURL:   viper.GetString("RABBITMQ_URL"),
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}

	seeds, err := ParseSeedUsers(viper.GetString("SEED_USERS"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_USERS: %w", err)
	}
	cfg.SeedUsers = seeds

	return cfg, nil
}

// ParseSeedUsers parses a comma-separated list of
// "username:password:role:store" entries. An empty input yields no seeds.
func ParseSeedUsers(raw string) ([]SeedUser, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var seeds []SeedUser
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("entry %q must have form username:password:role:store", entry)
		}
		seed := SeedUser{
			Username: strings.TrimSpace(parts[0]),
			Password: parts[1],
			Role:     strings.TrimSpace(parts[2]),
			Store:    strings.TrimSpace(parts[3]),
		}
		if seed.Username == "" || seed.Password == "" || seed.Store == "" {
			return nil, fmt.Errorf("entry %q has empty fields", entry)
		}
		if seed.Role != "admin" && seed.Role != "store" {
			return nil, fmt.Errorf("entry %q has unknown role %q", entry, seed.Role)
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}
