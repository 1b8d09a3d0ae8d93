// Package config loads the YAML configuration file. Values may reference
// environment variables with ${VAR} syntax; they are expanded before
// parsing so secrets stay out of the file itself.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boardwatch/boardwatch/internal/model"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30m" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// Trigger configures the HTTP trigger endpoint.
type Trigger struct {
	Addr   string `yaml:"addr"`
	Secret string `yaml:"secret"`
}

// Telemetry configures optional failure notification targets.
type Telemetry struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// Config is the full daemon configuration.
type Config struct {
	PollingInterval   Duration  `yaml:"polling_interval"`
	EmployerDelay     Duration  `yaml:"employer_delay"`
	HTTPTimeout       Duration  `yaml:"http_timeout"`
	StaleAfter        Duration  `yaml:"stale_after"`
	ChangeRetention   Duration  `yaml:"change_retention"`
	RateLimitInterval Duration  `yaml:"rate_limit_interval"`
	FetchRetries      int       `yaml:"fetch_retries"`
	DepartmentsFile   string    `yaml:"departments_file"`
	Storage           Storage   `yaml:"storage"`
	Trigger           Trigger   `yaml:"trigger"`
	Telemetry         Telemetry `yaml:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		PollingInterval:   Duration(30 * time.Minute),
		EmployerDelay:     Duration(2 * time.Second),
		HTTPTimeout:       Duration(30 * time.Second),
		StaleAfter:        Duration(60 * 24 * time.Hour),
		ChangeRetention:   Duration(90 * 24 * time.Hour),
		RateLimitInterval: Duration(time.Second),
		FetchRetries:      3,
		DepartmentsFile:   "departments.yaml",
		Storage: Storage{
			Driver: "sqlite",
			DSN:    "boardwatch.db",
		},
		// Trigger stays disabled until an addr and secret are configured.
	}
}

// Load reads, expands, parses, and validates the configuration at path.
// Unset fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PollingInterval.Std() < time.Minute {
		return &model.ConfigurationError{Field: "polling_interval", Reason: "must be at least 1m"}
	}
	if c.EmployerDelay.Std() < 0 {
		return &model.ConfigurationError{Field: "employer_delay", Reason: "must not be negative"}
	}
	if c.HTTPTimeout.Std() <= 0 {
		return &model.ConfigurationError{Field: "http_timeout", Reason: "must be positive"}
	}
	if c.StaleAfter.Std() <= 0 {
		return &model.ConfigurationError{Field: "stale_after", Reason: "must be positive"}
	}
	if c.ChangeRetention.Std() <= 0 {
		return &model.ConfigurationError{Field: "change_retention", Reason: "must be positive"}
	}
	if c.FetchRetries < 1 {
		return &model.ConfigurationError{Field: "fetch_retries", Reason: "must be at least 1"}
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return &model.ConfigurationError{Field: "storage.driver", Reason: "must be sqlite or postgres"}
	}
	if c.Storage.DSN == "" {
		return &model.ConfigurationError{Field: "storage.dsn", Reason: "must be set"}
	}
	if c.Trigger.Addr != "" && c.Trigger.Secret == "" {
		return &model.ConfigurationError{Field: "trigger.secret", Reason: "must be set when the trigger endpoint is enabled"}
	}
	return nil
}
