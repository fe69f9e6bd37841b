// Package config assembles the explicit configuration object injected
// into each component. There is no ambient global state; callers build
// a Config once and pass it down.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/rezonia/zatca-phase2/internal/api"
)

// Config carries everything the pipeline and its collaborators need
type Config struct {
	API api.Config

	// CertDir is the root of the on-disk key material store
	CertDir string

	// ClearanceThreshold routes documents at or above it through
	// the clearance flow.
	ClearanceThreshold decimal.Decimal

	OrgName      string
	OrgTaxNumber string

	// PIH is the previous invoice hash seed handed out at onboarding
	PIH string

	Production bool
	LogLevel   string
}

// Default returns the sandbox configuration
func Default() Config {
	return Config{
		API:                api.DefaultConfig(),
		CertDir:            "./certificates",
		ClearanceThreshold: decimal.NewFromInt(1000),
		LogLevel:           "info",
	}
}

// FromEnv builds a Config from the environment, loading a .env file
// first when one exists. Unset variables keep their defaults.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("ZATCA_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ZATCA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("ZATCA_CERT_DIR"); v != "" {
		cfg.CertDir = v
	}
	if v := os.Getenv("ZATCA_CLEARANCE_THRESHOLD"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.ClearanceThreshold = d
		}
	}
	if v := os.Getenv("ZATCA_ORG_NAME"); v != "" {
		cfg.OrgName = v
	}
	if v := os.Getenv("ZATCA_TAX_NUMBER"); v != "" {
		cfg.OrgTaxNumber = v
	}
	if v := os.Getenv("ZATCA_PIH"); v != "" {
		cfg.PIH = v
	}
	if v := os.Getenv("ZATCA_PRODUCTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Production = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
