package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider selection values.
const (
	providerEarthEngine = "earthengine"
	providerOffline     = "offline"
)

// Config is the process configuration, read from the environment (with an
// optional .env file for local runs).
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Provider string `envconfig:"PROVIDER" default:"offline" validate:"oneof=offline earthengine"`

	// Earth Engine settings; required when Provider is "earthengine".
	EEProjectID       string `envconfig:"EE_PROJECT_ID"`
	EECredentialsFile string `envconfig:"EE_CREDENTIALS_FILE"`
	EEBaseURL         string `envconfig:"EE_BASE_URL"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"25s"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000"`
}

// loadConfig loads .env (non-fatal if absent), processes the environment and
// validates the result.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Provider == providerEarthEngine {
		if cfg.EEProjectID == "" {
			return Config{}, fmt.Errorf("EE_PROJECT_ID is required when PROVIDER=earthengine")
		}
		if cfg.EECredentialsFile == "" {
			return Config{}, fmt.Errorf("EE_CREDENTIALS_FILE is required when PROVIDER=earthengine")
		}
	}
	return cfg, nil
}
