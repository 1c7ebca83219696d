package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	AppURL      string `envconfig:"APP_URL" default:"http://localhost:3000"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Sweep trigger. SweepInterval > 0 runs the sweep loop inside the API
	// process; zero leaves sweeps to the cron endpoint.
	CronSecret    string        `envconfig:"CRON_SECRET"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"0s"`
	CronEndpoint  string        `envconfig:"CRON_ENDPOINT" default:"http://localhost:3000/v1/cron/check-alerts"`

	// Secret store
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`

	// Extraction
	ExtractorProvider string        `envconfig:"EXTRACTOR_PROVIDER" default:"kernel"`
	KernelAPIURL      string        `envconfig:"KERNEL_API_URL" default:"https://api.onkernel.com"`
	ExtractTimeout    time.Duration `envconfig:"EXTRACT_TIMEOUT" default:"30s"`

	// Email
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"AlertFrame <alerts@alertframe.com>"`

	// Gmail OAuth sender
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
