package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
	Lifecycle    LifecycleConfig    `yaml:"lifecycle"`
	Fermentation FermentationConfig `yaml:"fermentation"`
	Timeouts     TimeoutConfig      `yaml:"timeouts"`
	Activity     ActivityConfig     `yaml:"activity"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type LifecycleConfig struct {
	MaxTransitionRetries int `yaml:"max_transition_retries"`
	ResyncIntervalSec    int `yaml:"resync_interval_seconds"`
	RetentionHours       int `yaml:"retention_hours"`
}

type FermentationConfig struct {
	DurationMinutes     int     `yaml:"duration_minutes"`
	EarlyThresholdPct   float64 `yaml:"early_threshold_pct"`
	ReadyThresholdPct   float64 `yaml:"ready_threshold_pct"`
	EvaluateIntervalSec int     `yaml:"evaluate_interval_seconds"`
}

// TimeoutConfig is the single authoritative dwell-threshold table for the
// advisory monitor. Fermented orders have no preparing/cooking thresholds of
// their own: cooking is bounded by the fermentation duration plus a grace
// period, and ready is flagged only after the maximum packaging window.
type TimeoutConfig struct {
	PendingPaymentMinutes    int `yaml:"pending_payment_minutes"`
	PreparingMinutes         int `yaml:"preparing_minutes"`
	CookingMinutes           int `yaml:"cooking_minutes"`
	ReadyMinutes             int `yaml:"ready_minutes"`
	FermentedCookingGraceMin int `yaml:"fermented_cooking_grace_minutes"`
	FermentedReadyMinutes    int `yaml:"fermented_ready_minutes"`
	SweepIntervalMinutes     int `yaml:"sweep_interval_minutes"`
	RecoveryIntervalMinutes  int `yaml:"recovery_interval_minutes"`
}

type ActivityConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when a field is absent from the
// YAML file. The dwell thresholds come from the kitchen's operating manual.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
		},
		Lifecycle: LifecycleConfig{
			MaxTransitionRetries: 3,
			ResyncIntervalSec:    30,
			RetentionHours:       24,
		},
		Fermentation: FermentationConfig{
			DurationMinutes:     1440,
			EarlyThresholdPct:   5,
			ReadyThresholdPct:   95,
			EvaluateIntervalSec: 60,
		},
		Timeouts: TimeoutConfig{
			PendingPaymentMinutes:    30,
			PreparingMinutes:         45,
			CookingMinutes:           60,
			ReadyMinutes:             120,
			FermentedCookingGraceMin: 60,
			FermentedReadyMinutes:    2880,
			SweepIntervalMinutes:     5,
			RecoveryIntervalMinutes:  1,
		},
		Activity: ActivityConfig{
			MaxEntries: 50,
		},
	}
}

// FermentationDuration converts the configured minutes to a duration.
func (c FermentationConfig) FermentationDuration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}
