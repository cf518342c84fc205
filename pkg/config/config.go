package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration
type Config struct {
	// Service is the name stamped on every published envelope
	Service string `yaml:"service"`

	// DataDir holds the state store and queue databases
	DataDir string `yaml:"data_dir"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	Subscriber struct {
		// Channels is the explicit list of logical channels to listen on;
		// empty means "every channel the registered handlers accept"
		Channels       []string `yaml:"channels"`
		BackoffSeconds int      `yaml:"backoff_seconds"`
	} `yaml:"subscriber"`

	Publisher struct {
		Attempts     int `yaml:"attempts"`
		RetryDelayMS int `yaml:"retry_delay_ms"`
	} `yaml:"publisher"`

	Queue struct {
		Base              string `yaml:"base"`
		Workers           int    `yaml:"workers"`
		RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	} `yaml:"queue"`

	Scoring struct {
		Win  int `yaml:"win"`
		Draw int `yaml:"draw"`
		Loss int `yaml:"loss"`
	} `yaml:"scoring"`

	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{
		Service: "matchday",
		DataDir: "./data",
	}
	cfg.Log.Level = "info"
	cfg.Subscriber.BackoffSeconds = 5
	cfg.Publisher.Attempts = 3
	cfg.Publisher.RetryDelayMS = 100
	cfg.Queue.Base = "events"
	cfg.Queue.Workers = 2
	cfg.Queue.RetryDelaySeconds = 1
	cfg.Scoring.Win = 3
	cfg.Scoring.Draw = 1
	cfg.Scoring.Loss = 0
	cfg.CacheTTLMinutes = 60
	return cfg
}

// Load reads a YAML config file, filling unset fields from defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("service name is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Publisher.Attempts <= 0 {
		return fmt.Errorf("publisher.attempts must be positive")
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}
	if c.Subscriber.BackoffSeconds <= 0 {
		return fmt.Errorf("subscriber.backoff_seconds must be positive")
	}
	return nil
}

// SubscriberBackoff returns the reconnect interval
func (c *Config) SubscriberBackoff() time.Duration {
	return time.Duration(c.Subscriber.BackoffSeconds) * time.Second
}

// PublishRetryDelay returns the delay before the first publish retry
func (c *Config) PublishRetryDelay() time.Duration {
	return time.Duration(c.Publisher.RetryDelayMS) * time.Millisecond
}

// QueueRetryDelay returns the base redelivery delay on the queue path
func (c *Config) QueueRetryDelay() time.Duration {
	return time.Duration(c.Queue.RetryDelaySeconds) * time.Second
}

// CacheTTL returns the read-through cache entry lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
