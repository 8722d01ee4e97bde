package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	IsProduction  bool
	EnableDBCheck bool
	LogLevel      string

	// MigrationsPath is the golang-migrate source URL, e.g. "file://migrations".
	MigrationsPath string

	// ReportLanguage is the BCP 47 tag amounts are formatted for.
	ReportLanguage string
	// MoneyDecimals is the precision entries are rounded and balanced at.
	MoneyDecimals int32
	// DefaultSubaccountLength applies to exercises created without an explicit length.
	DefaultSubaccountLength int
	// ClosingCopySubaccounts copies the whole chart into the successor exercise on closing.
	ClosingCopySubaccounts bool
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("REPORT_LANGUAGE", "en")
	v.SetDefault("MONEY_DECIMALS", 2)
	v.SetDefault("DEFAULT_SUBACCOUNT_LENGTH", 10)
	v.SetDefault("CLOSING_COPY_SUBACCOUNTS", false)

	// Environment variables override the defaults and the .env values.
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:             v.GetString("PGSQL_URL"),
		IsProduction:            v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:           v.GetBool("ENABLE_DB_CHECK"),
		LogLevel:                strings.ToLower(v.GetString("LOG_LEVEL")),
		MigrationsPath:          v.GetString("MIGRATIONS_PATH"),
		ReportLanguage:          v.GetString("REPORT_LANGUAGE"),
		MoneyDecimals:           v.GetInt32("MONEY_DECIMALS"),
		DefaultSubaccountLength: v.GetInt("DEFAULT_SUBACCOUNT_LENGTH"),
		ClosingCopySubaccounts:  v.GetBool("CLOSING_COPY_SUBACCOUNTS"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.MoneyDecimals < 0 || cfg.MoneyDecimals > 6 {
		log.Printf("Warning: Invalid value for MONEY_DECIMALS (%d). Defaulting to 2.\n", cfg.MoneyDecimals)
		cfg.MoneyDecimals = 2
	}
	if cfg.DefaultSubaccountLength < 4 || cfg.DefaultSubaccountLength > 15 {
		log.Printf("Warning: Invalid value for DEFAULT_SUBACCOUNT_LENGTH (%d). Defaulting to 10.\n", cfg.DefaultSubaccountLength)
		cfg.DefaultSubaccountLength = 10
	}

	return cfg, nil
}
