// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Delivery modes for remote sinks.
// DefaultCSVPath is where runs without a configuration file dump records.
const DefaultCSVPath = "factory_data.csv"

const (
	DeliveryAsync    = "async"
	DeliveryBuffered = "buffered"
	DeliverySync     = "sync"
)

// Delivery tunes how records reach remote sinks.
type Delivery struct {
	Mode         string        `yaml:"mode"`
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RateLimit    float64       `yaml:"rate_limit"`
	RateBurst    int           `yaml:"rate_burst"`
}

// Greptime holds GreptimeDB connection settings.
type Greptime struct {
	Endpoint string `yaml:"endpoint"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// Sinks selects where records are written.
type Sinks struct {
	CollectorURL     string        `yaml:"collector_url"`
	CollectorTimeout time.Duration `yaml:"collector_timeout"`
	CSVPath          string        `yaml:"csv_path"`
	LogPath          string        `yaml:"log_path"`
	Stdout           bool          `yaml:"stdout"`
	Greptime         Greptime      `yaml:"greptime"`
}

// SimulationConfig is the root driver configuration.
type SimulationConfig struct {
	AgentCount      int      `yaml:"agent_count"`
	Horizon         int      `yaml:"horizon"`
	IntervalMinutes int      `yaml:"interval_minutes"`
	Seed            *int64   `yaml:"seed"`
	StartTime       string   `yaml:"start_time"`
	MachinePrefix   string   `yaml:"machine_prefix"`
	Profile         string   `yaml:"profile"`
	Delivery        Delivery `yaml:"delivery"`
	Sinks           Sinks    `yaml:"sinks"`
}

// Default returns the configuration used when no file is given: three
// machines sampled every five minutes for one simulated day.
func Default() *SimulationConfig {
	cfg := &SimulationConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *SimulationConfig) ApplyDefaults() {
	if c.AgentCount == 0 {
		c.AgentCount = 3
	}
	if c.Horizon == 0 {
		c.Horizon = 288
	}
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = 5
	}
	if c.MachinePrefix == "" {
		c.MachinePrefix = "M"
	}
	if c.Profile == "" {
		c.Profile = "default"
	}
	d := &c.Delivery
	if d.Mode == "" {
		d.Mode = DeliveryAsync
	}
	if d.Workers == 0 {
		d.Workers = 4
	}
	if d.QueueSize == 0 {
		d.QueueSize = 4096
	}
	if d.MaxAttempts == 0 {
		d.MaxAttempts = 3
	}
	if d.RetryBackoff == 0 {
		d.RetryBackoff = 200 * time.Millisecond
	}
	if d.RateBurst == 0 {
		d.RateBurst = 1
	}
	s := &c.Sinks
	if s.CollectorTimeout == 0 {
		s.CollectorTimeout = 10 * time.Second
	}
	if s.Greptime.Port == 0 {
		s.Greptime.Port = 4001
	}
	if s.Greptime.Database == "" {
		s.Greptime.Database = "public"
	}
}

// ApplyEnv overrides sink endpoints from the environment.
func (c *SimulationConfig) ApplyEnv() {
	if v := os.Getenv("COLLECTOR_URL"); v != "" {
		c.Sinks.CollectorURL = v
	}
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		c.Sinks.Greptime.Endpoint = v
	}
	if v := os.Getenv("GREPTIMEDB_TABLE"); v != "" {
		c.Sinks.Greptime.Table = v
	}
}

// Start returns the configured wall-clock start of the run, or ok=false
// when the run should start at the current time.
func (c *SimulationConfig) Start() (t time.Time, ok bool, err error) {
	if c.StartTime == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339, c.StartTime)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("start_time: %w", err)
	}
	return t, true, nil
}

// Load loads YAML config and validates it against the CUE schema. Defaults
// and environment overrides are applied after validation.
func Load(configPath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := ValidateWithCue(configPath, data); err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
