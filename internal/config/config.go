// Package config loads application settings from environment variables
// (populated from .env in main).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all settings for the application. Mongo and SQL connection
// strings are optional: when empty, the filesystem quarantine router is used
// and the BI load is skipped.
type Config struct {
	LakePath         string
	APIBaseURL       string
	PageSize         int
	ValidatorWorkers int
	CoordinatePolicy string
	LogMode          string
	MongoConnString  string
	SQLConnString    string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		LakePath:         getenv("LAKE_PATH", filepath.Join("data", "dlh")),
		APIBaseURL:       os.Getenv("BREWERY_API_URL"),
		CoordinatePolicy: getenv("COORDINATE_POLICY", "strict"),
		LogMode:          getenv("LOG_MODE", "dev"),
		MongoConnString:  os.Getenv("MONGO_CONNECTION_STRING"),
		SQLConnString:    os.Getenv("SQL_CONNECTION_STRING"),
	}

	var err error
	if cfg.PageSize, err = getint("EXTRACT_PAGE_SIZE", 200); err != nil {
		return nil, err
	}
	if cfg.ValidatorWorkers, err = getint("VALIDATOR_WORKERS", 4); err != nil {
		return nil, err
	}

	if cfg.CoordinatePolicy != "strict" && cfg.CoordinatePolicy != "lenient" {
		return nil, fmt.Errorf("COORDINATE_POLICY must be strict or lenient, got %q", cfg.CoordinatePolicy)
	}
	return cfg, nil
}

// Layer directories follow the medallion layout under LakePath.
func (c *Config) BronzePath() string     { return filepath.Join(c.LakePath, "01-bronze") }
func (c *Config) SilverPath() string     { return filepath.Join(c.LakePath, "02-silver") }
func (c *Config) GoldPath() string       { return filepath.Join(c.LakePath, "03-gold") }
func (c *Config) QuarantinePath() string { return filepath.Join(c.LakePath, "99-quarantine") }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
