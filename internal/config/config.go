package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SchedulerConfig holds the two knobs the scheduling loop recognizes: how
// long to wait between idle checks and how much priority waiting orders gain
// per cycle.
type SchedulerConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	AgingIncrement int `yaml:"aging_increment"`
}

// PollInterval converts the configured milliseconds into a duration,
// defaulting to one second when unset.
func (c SchedulerConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Increment returns the aging step, defaulting to 1.
func (c SchedulerConfig) Increment() int {
	if c.AgingIncrement <= 0 {
		return 1
	}
	return c.AgingIncrement
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
