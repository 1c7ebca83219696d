package config

import (
	"fmt"
	"net/url"
	"strings"
)

type FieldError struct {
	Name   string
	Reason string
}

type Warning struct {
	Name    string
	Message string
}

// ValidationResult is the structured outcome of startup validation. The
// process entry point decides what to do with it; nothing here is triggered
// implicitly at package load.
type ValidationResult struct {
	Invalid  []FieldError
	Warnings []Warning
}

func (r *ValidationResult) OK() bool {
	return len(r.Invalid) == 0
}

func (r *ValidationResult) Error() string {
	if r.OK() {
		return ""
	}
	parts := make([]string, 0, len(r.Invalid))
	for _, f := range r.Invalid {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Reason))
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Validate checks configuration formats beyond envconfig's required tags.
// Call it once from run() after Load.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	if !strings.HasPrefix(cfg.DatabaseURL, "postgresql://") && !strings.HasPrefix(cfg.DatabaseURL, "postgres://") {
		result.Invalid = append(result.Invalid, FieldError{
			Name:   "DATABASE_URL",
			Reason: "must be a PostgreSQL connection string starting with postgresql:// or postgres://",
		})
	}

	if len(cfg.EncryptionKey) < 32 {
		result.Invalid = append(result.Invalid, FieldError{
			Name:   "ENCRYPTION_KEY",
			Reason: "must be at least 32 characters long",
		})
	}

	if _, err := url.Parse(cfg.AppURL); err != nil || !strings.Contains(cfg.AppURL, "://") {
		result.Invalid = append(result.Invalid, FieldError{
			Name:   "APP_URL",
			Reason: "must be a valid URL",
		})
	}

	if cfg.GoogleClientID != "" && !strings.Contains(cfg.GoogleClientID, ".apps.googleusercontent.com") {
		result.Invalid = append(result.Invalid, FieldError{
			Name:   "GOOGLE_CLIENT_ID",
			Reason: "must be a Google OAuth client ID ending with .apps.googleusercontent.com",
		})
	}

	if cfg.GoogleClientSecret != "" && !strings.HasPrefix(cfg.GoogleClientSecret, "GOCSPX-") {
		result.Invalid = append(result.Invalid, FieldError{
			Name:   "GOOGLE_CLIENT_SECRET",
			Reason: "must be a Google OAuth client secret starting with GOCSPX-",
		})
	}

	if cfg.CronSecret == "" {
		result.Warnings = append(result.Warnings, Warning{
			Name:    "CRON_SECRET",
			Message: "sweep endpoint will be unprotected; set CRON_SECRET for production",
		})
	}

	if cfg.ResendAPIKey == "" {
		result.Warnings = append(result.Warnings, Warning{
			Name:    "RESEND_API_KEY",
			Message: "fallback email sending is disabled; Gmail OAuth is the only email transport",
		})
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		result.Warnings = append(result.Warnings, Warning{
			Name:    "GOOGLE_CLIENT_ID",
			Message: "Gmail OAuth sender disabled; notifications fall back to the API key sender",
		})
	}

	return result
}
