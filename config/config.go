package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/planner/goal"
	"github.com/rustyeddy/planner/plan"
	"github.com/rustyeddy/planner/risk"
	"github.com/rustyeddy/planner/sim"
)

// Config is the complete planner configuration
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Goals      goal.Table       `json:"goals" yaml:"goals"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Tiers      plan.Tiers       `json:"tiers" yaml:"tiers"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Model      ModelConfig      `json:"model" yaml:"model"`
}

// ServerConfig contains the HTTP listener settings
type ServerConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	ReadTimeout  string   `json:"read_timeout" yaml:"read_timeout"`   // e.g. "15s"
	WriteTimeout string   `json:"write_timeout" yaml:"write_timeout"` // e.g. "30s"
	RateLimit    float64  `json:"rate_limit" yaml:"rate_limit"`       // requests per second per client, 0 disables
	RateBurst    int      `json:"rate_burst" yaml:"rate_burst"`
	CORSOrigins  []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// Timeouts parses the read and write timeouts.
func (s ServerConfig) Timeouts() (read, write time.Duration, err error) {
	if read, err = parseDuration(s.ReadTimeout); err != nil {
		return 0, 0, fmt.Errorf("server.read_timeout: %w", err)
	}
	if write, err = parseDuration(s.WriteTimeout); err != nil {
		return 0, 0, fmt.Errorf("server.write_timeout: %w", err)
	}
	return read, write, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "text"
}

// RiskConfig contains the risk factor constants, the analytic weights and
// the tier cut points
type RiskConfig struct {
	Factors    risk.FactorPolicy `json:"factors" yaml:"factors"`
	Weights    Weights           `json:"weights" yaml:"weights"`
	Thresholds risk.Thresholds   `json:"thresholds" yaml:"thresholds"`
}

// Weights are the exponents of the geometric scorer
type Weights struct {
	AssetCoverage   float64 `json:"asset_coverage" yaml:"asset_coverage"`
	TimePressure    float64 `json:"time_pressure" yaml:"time_pressure"`
	AgeFactor       float64 `json:"age_factor" yaml:"age_factor"`
	IncomeStability float64 `json:"income_stability" yaml:"income_stability"`
}

// Geometric builds the analytic scorer from the weights.
func (w Weights) Geometric() risk.Geometric {
	return risk.Geometric{Weights: [4]float64{w.AssetCoverage, w.TimePressure, w.AgeFactor, w.IncomeStability}}
}

// SimulationConfig contains the Monte Carlo and horizon settings
type SimulationConfig struct {
	sim.Config `yaml:",inline"`
	MaxMonths  int    `json:"max_months" yaml:"max_months"`
	Seed       uint64 `json:"seed" yaml:"seed"` // 0 draws fresh randomness per request
}

// ModelConfig controls the trained risk model
type ModelConfig struct {
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Forest  risk.ForestConfig `json:"forest" yaml:"forest"`
}

// LoadFromFile loads configuration from a file. Values missing from the
// file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from PLANNER_ADDR, LOG_LEVEL and
// PLANNER_SEED when they are set.
func (c *Config) ApplyEnv() error {
	c.Server.Addr = getEnv("PLANNER_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	if v, ok := os.LookupEnv("PLANNER_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PLANNER_SEED: %w", err)
		}
		c.Simulation.Seed = seed
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, _, err := c.Server.Timeouts(); err != nil {
		return err
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be non-negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_burst must be positive when rate_limit is set")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be 'json' or 'text'")
	}
	if c.Goals.Default <= 0 {
		return fmt.Errorf("goals.default must be positive")
	}
	for i, r := range c.Goals.Rules {
		if r.Name == "" {
			return fmt.Errorf("goals.rules[%d].name is required", i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("goals.rules[%d].keywords must not be empty", i)
		}
		if r.Amount <= 0 {
			return fmt.Errorf("goals.rules[%d].amount must be positive", i)
		}
	}
	if err := c.Risk.Factors.Validate(); err != nil {
		return fmt.Errorf("risk.factors.%w", err)
	}
	if err := c.Risk.Weights.Geometric().Validate(); err != nil {
		return fmt.Errorf("risk.weights: %w", err)
	}
	if err := c.Risk.Thresholds.Validate(); err != nil {
		return fmt.Errorf("risk.%w", err)
	}
	if err := c.Tiers.Validate(); err != nil {
		return fmt.Errorf("tiers: %w", err)
	}
	if err := c.Simulation.Config.Validate(); err != nil {
		return fmt.Errorf("simulation.%w", err)
	}
	if c.Simulation.MaxMonths <= 0 {
		return fmt.Errorf("simulation.max_months must be positive")
	}
	if c.Model.Enabled {
		if err := c.Model.Forest.Validate(); err != nil {
			return fmt.Errorf("model.forest.%w", err)
		}
	}
	return nil
}

// Default returns a configuration with the built-in goal table, tiers and
// model settings
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
			RateLimit:    10,
			RateBurst:    20,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Goals: goal.DefaultTable(),
		Risk: RiskConfig{
			Factors: risk.DefaultFactorPolicy(),
			Weights: Weights{
				AssetCoverage:   0.25,
				TimePressure:    0.25,
				AgeFactor:       0.25,
				IncomeStability: 0.25,
			},
			Thresholds: risk.DefaultThresholds(),
		},
		Tiers: plan.DefaultTiers(),
		Simulation: SimulationConfig{
			Config:    sim.DefaultConfig(),
			MaxMonths: plan.DefaultMaxMonths,
		},
		Model: ModelConfig{
			Enabled: true,
			Forest:  risk.DefaultForestConfig(),
		},
	}
}
