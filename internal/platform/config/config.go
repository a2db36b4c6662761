// Package config reads whatdose runtime settings from WHATDOSE_* variables.
package config

import (
	"fmt"

	"whatdose/internal/blob"
	"whatdose/internal/core"
	"whatdose/internal/infra/blob/s3"
)

// Metrics exporters.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Config is the full runtime configuration.
type Config struct {
	StorageDriver string `env:"WHATDOSE_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"WHATDOSE_SQLITE_PATH" envDefault:"whatdose.db"`
	PostgresDSN   string `env:"WHATDOSE_POSTGRES_DSN"`

	BlobDriver string `env:"WHATDOSE_BLOB_DRIVER" envDefault:"none"`
	BlobFSRoot string `env:"WHATDOSE_BLOB_FS_ROOT" envDefault:"./archive"`
	S3         S3Config

	LogMode            string `env:"WHATDOSE_LOG_MODE" envDefault:"dev"`
	ResolveConcurrency int    `env:"WHATDOSE_RESOLVE_CONCURRENCY" envDefault:"4"`
	TemplatesPath      string `env:"WHATDOSE_TEMPLATES_PATH"`
	PolicyPath         string `env:"WHATDOSE_POLICY_PATH"`
	Metrics            string `env:"WHATDOSE_METRICS" envDefault:"none"`
}

// S3Config holds the archive bucket settings. Credentials come from the
// standard AWS variables when the access key is unset.
type S3Config struct {
	Bucket          string `env:"WHATDOSE_BLOB_S3_BUCKET"`
	Region          string `env:"WHATDOSE_BLOB_S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"WHATDOSE_BLOB_S3_ENDPOINT"`
	PathStyle       bool   `env:"WHATDOSE_BLOB_S3_PATH_STYLE"`
	AccessKeyID     string `env:"WHATDOSE_BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"WHATDOSE_BLOB_S3_SECRET_ACCESS_KEY"`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch core.StorageDriver(c.StorageDriver) {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("WHATDOSE_POSTGRES_DSN required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	switch blob.Driver(c.BlobDriver) {
	case blob.DriverNone, blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("WHATDOSE_BLOB_S3_BUCKET required for s3 archive")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	switch c.Metrics {
	case MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Metrics)
	}
	if c.ResolveConcurrency < 1 {
		return fmt.Errorf("WHATDOSE_RESOLVE_CONCURRENCY must be positive, got %d", c.ResolveConcurrency)
	}
	return nil
}

// Storage returns the persistence selection.
func (c Config) Storage() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.StorageDriver),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
	}
}

// Blob returns the archive selection.
func (c Config) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: s3.Config{
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			PathStyle:       c.S3.PathStyle,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
		},
	}
}
