// Package config resolves brancheval settings from defaults, an optional
// YAML file and BRANCHEVAL_* environment variables. Command-line flags are
// applied last by the cli package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/brancheval/internal/tracking"
)

// Defaults.
const (
	DefaultDatabase      = "brancheval.db"
	DefaultBaseline      = "main"
	DefaultHistoryRows   = 40
	DefaultDiagnoseLimit = 5
	DefaultFetchTimeout  = 30 * time.Second
)

// ObjectStore locates run artifacts in an S3-compatible bucket.
type ObjectStore struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Config holds every tunable of the tool.
type Config struct {
	Project  string   `yaml:"project"`
	Entity   string   `yaml:"entity"`
	Database string   `yaml:"database"`
	Policy   string   `yaml:"policy"`
	Baseline string   `yaml:"baseline"`
	Metrics  []string `yaml:"metrics"`

	HistoryRows   int           `yaml:"history_rows"`
	DiagnoseLimit int           `yaml:"diagnose_limit"`
	Concurrency   int           `yaml:"concurrency"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`

	ObjectStore ObjectStore `yaml:"object_store"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:      DefaultDatabase,
		Baseline:      DefaultBaseline,
		Metrics:       []string{},
		HistoryRows:   DefaultHistoryRows,
		DiagnoseLimit: DefaultDiagnoseLimit,
		Concurrency:   tracking.DefaultConcurrency,
		FetchTimeout:  DefaultFetchTimeout,
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML overlays data onto cfg. Unknown keys are rejected.
func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnv overlays BRANCHEVAL_* environment variables.
func (c *Config) ApplyEnv() error {
	c.Project = envString(EnvProject, c.Project)
	c.Entity = envString(EnvEntity, c.Entity)
	c.Database = envString(EnvDatabase, c.Database)
	c.Policy = envString(EnvPolicy, c.Policy)
	c.Baseline = envString(EnvBaseline, c.Baseline)
	c.Metrics = envList(EnvMetrics, c.Metrics)

	var err error
	if c.HistoryRows, err = envInt(EnvHistoryRows, c.HistoryRows); err != nil {
		return err
	}
	if c.DiagnoseLimit, err = envInt(EnvDiagnoseLimit, c.DiagnoseLimit); err != nil {
		return err
	}
	if c.Concurrency, err = envInt(EnvConcurrency, c.Concurrency); err != nil {
		return err
	}
	if c.FetchTimeout, err = envDuration(EnvFetchTimeout, c.FetchTimeout); err != nil {
		return err
	}

	obj := &c.ObjectStore
	obj.Endpoint = envString(EnvS3Endpoint, obj.Endpoint)
	obj.Region = envString(EnvS3Region, obj.Region)
	obj.Bucket = envString(EnvS3Bucket, obj.Bucket)
	obj.Prefix = envString(EnvS3Prefix, obj.Prefix)
	obj.AccessKey = envString(EnvS3AccessKey, obj.AccessKey)
	obj.SecretKey = envString(EnvS3SecretKey, obj.SecretKey)
	if obj.UseSSL, err = envBool(EnvS3UseSSL, obj.UseSSL); err != nil {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required (set --project, %s or project in the config file)", EnvProject)
	}
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.HistoryRows <= 0 {
		return fmt.Errorf("history_rows must be positive, got %d", c.HistoryRows)
	}
	if c.DiagnoseLimit <= 0 {
		return fmt.Errorf("diagnose_limit must be positive, got %d", c.DiagnoseLimit)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative, got %s", c.FetchTimeout)
	}
	if oc := c.ObjectStoreConfig(); oc.Enabled() {
		if err := oc.Validate(); err != nil {
			return fmt.Errorf("object_store: %w", err)
		}
	}
	return nil
}

// ObjectStoreConfig converts the object store section for the tracking
// package.
func (c Config) ObjectStoreConfig() tracking.ObjectStoreConfig {
	return tracking.ObjectStoreConfig{
		Endpoint:  c.ObjectStore.Endpoint,
		AccessKey: c.ObjectStore.AccessKey,
		SecretKey: c.ObjectStore.SecretKey,
		Region:    c.ObjectStore.Region,
		UseSSL:    c.ObjectStore.UseSSL,
		Bucket:    c.ObjectStore.Bucket,
		Prefix:    c.ObjectStore.Prefix,
	}
}
