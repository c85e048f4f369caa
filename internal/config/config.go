// Package config provides unified configuration loading for pulse.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nvandessel/pulse/internal/constants"
	"gopkg.in/yaml.v3"
)

// PulseConfig contains all pulse configuration settings.
type PulseConfig struct {
	// Engine contains simulation timing and scaling parameters.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Logging contains settings for operational and event-trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Recording contains settings for the sqlite spike recorder.
	Recording RecordingConfig `json:"recording" yaml:"recording"`
}

// EngineConfig tunes the simulation core. The defaults form an internally
// consistent set: full DC drive crosses the default threshold in 0.2s.
type EngineConfig struct {
	// ChargeRate is charge accumulated per second at dcInput=1.
	ChargeRate float64 `json:"charge_rate" yaml:"charge_rate"`

	// FiringPulse is how long a neuron stays in the firing state.
	FiringPulse time.Duration `json:"firing_pulse" yaml:"firing_pulse"`

	// Refractory is the post-pulse window during which a neuron refuses
	// charge and re-firing.
	Refractory time.Duration `json:"refractory" yaml:"refractory"`

	// TickInterval is the frame driver interval for the production
	// scheduler.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// MaxTickDelta caps the wall-clock delta handed to a single tick
	// after the host suspends the process.
	MaxTickDelta time.Duration `json:"max_tick_delta" yaml:"max_tick_delta"`
}

// LoggingConfig configures pulse's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event tracing to events.jsonl.
	// "trace" additionally includes every charge update.
	Level string `json:"level" yaml:"level"`
}

// RecordingConfig configures the sqlite spike-train recorder.
type RecordingConfig struct {
	// Enabled turns on recording of fire and signal events.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is where pulse.db is created. Defaults to ".pulse" under the
	// working directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns a PulseConfig with the documented reference constants.
func Default() *PulseConfig {
	return &PulseConfig{
		Engine: EngineConfig{
			ChargeRate:   constants.ChargeRatePerSecond,
			FiringPulse:  constants.FiringPulseDuration,
			Refractory:   constants.RefractoryWindow,
			TickInterval: constants.DefaultTickInterval,
			MaxTickDelta: constants.MaxTickDelta,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Recording: RecordingConfig{
			Enabled: false,
			Dir:     ".pulse",
		},
	}
}

// Load loads configuration from the default locations and environment
// variables. Order: defaults -> ~/.pulse/config.yaml -> environment.
func Load() (*PulseConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".pulse", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*PulseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *PulseConfig) Validate() error {
	if c.Engine.ChargeRate <= 0 {
		return fmt.Errorf("charge_rate must be positive, got %f", c.Engine.ChargeRate)
	}
	if c.Engine.FiringPulse <= 0 {
		return fmt.Errorf("firing_pulse must be positive, got %v", c.Engine.FiringPulse)
	}
	if c.Engine.Refractory < 0 {
		return fmt.Errorf("refractory must be non-negative, got %v", c.Engine.Refractory)
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.Engine.TickInterval)
	}
	if c.Engine.MaxTickDelta < c.Engine.TickInterval {
		return fmt.Errorf("max_tick_delta %v must be at least tick_interval %v",
			c.Engine.MaxTickDelta, c.Engine.TickInterval)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *PulseConfig) {
	if v := os.Getenv("PULSE_CHARGE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Engine.ChargeRate = f
		}
	}

	if v := os.Getenv("PULSE_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Engine.TickInterval = d
		}
	}

	if v := os.Getenv("PULSE_RECORDING"); v != "" {
		config.Recording.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("PULSE_RECORDING_DIR"); v != "" {
		config.Recording.Dir = v
	}

	if v := os.Getenv("PULSE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
