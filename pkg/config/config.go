package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Network     NetworkConfig     `yaml:"network"`
	GainTiers   []GainTierConfig  `yaml:"gain_tiers"`
	Display     DisplayConfig     `yaml:"display"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
}

// MeasurementConfig contains measurement timing and conversion parameters.
type MeasurementConfig struct {
	SampleInterval    time.Duration `yaml:"sample_interval"`      // Time between sample cycles
	DisplayInterval   time.Duration `yaml:"display_interval"`     // Time between display refreshes
	DropThreshold     float64       `yaml:"drop_threshold"`       // Known-tap drop fraction of reference that triggers the next tap
	LeadResistance    float64       `yaml:"lead_resistance"`      // Probe lead offset subtracted before display (Ohm)
	HighEndThreshold  float64       `yaml:"high_end_threshold"`   // Readings at or above this get the high-end correction (Ohm)
	HighEndCorrection float64       `yaml:"high_end_correction"`  // Multiplicative correction factor for high readings
	OutOfRangeCeiling float64       `yaml:"out_of_range_ceiling"` // Readings at or above this display as out of range (Ohm)
}

// NetworkConfig describes the known-resistance network: a fixed baseline
// resistor with switchable taps in parallel.
type NetworkConfig struct {
	Baseline float64     `yaml:"baseline"` // Always-connected resistor (Ohm)
	Taps     []TapConfig `yaml:"taps"`
}

// TapConfig contains a single switchable tap resistance.
type TapConfig struct {
	Resistance float64 `yaml:"resistance"`
}

// GainTierConfig contains one ADC gain tier voltage window, ordered widest
// range first in the tier table.
type GainTierConfig struct {
	Min float64 `yaml:"min"` // Lower bound (V, exclusive)
	Max float64 `yaml:"max"` // Upper bound (V, exclusive)
}

// DisplayConfig contains character panel geometry.
type DisplayConfig struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Resistance   float64       `yaml:"resistance"`    // Simulated resistor under test (Ohm)
	Supply       float64       `yaml:"supply"`        // Divider supply voltage (V)
	NoiseLevel   float64       `yaml:"noise_level"`   // Noise added to voltage reads (V)
	OpenDuration time.Duration `yaml:"open_duration"` // How long the probes stay lifted
	OpenPeriod   time.Duration `yaml:"open_period"`   // Time between open-circuit episodes
	SampleRate   time.Duration `yaml:"sample_rate"`   // Reading emission rate
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
		},
		Measurement: MeasurementConfig{
			SampleInterval:    1 * time.Millisecond,
			DisplayInterval:   100 * time.Millisecond,
			DropThreshold:     0.75,
			LeadResistance:    0.08,
			HighEndThreshold:  500_000,
			HighEndCorrection: 1.025,
			OutOfRangeCeiling: 1_500_000,
		},
		Network: NetworkConfig{
			Baseline: 1_000_000,
			Taps: []TapConfig{
				{Resistance: 220},
				{Resistance: 1000},
				{Resistance: 9997},
				{Resistance: 100078},
			},
		},
		GainTiers: []GainTierConfig{
			{Min: -6.144, Max: 6.144}, // 2/3x, power-on tier
			{Min: -4.096, Max: 4.096}, // 1x
			{Min: -2.048, Max: 2.048}, // 2x
			{Min: -0.124, Max: 1.024}, // 4x, asymmetric lower bound matches the shipped firmware tables
			{Min: -0.512, Max: 0.512}, // 8x
			{Min: -0.256, Max: 0.256}, // 16x
		},
		Display: DisplayConfig{
			Columns: 16,
			Rows:    2,
		},
		Mock: MockConfig{
			Resistance:   4700,
			Supply:       5.0,
			NoiseLevel:   0.002,
			OpenDuration: 2 * time.Second,
			OpenPeriod:   20 * time.Second,
			SampleRate:   100 * time.Millisecond, // One reading per display refresh
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}

	if c.Measurement.SampleInterval == 0 {
		c.Measurement.SampleInterval = def.Measurement.SampleInterval
	}
	if c.Measurement.DisplayInterval == 0 {
		c.Measurement.DisplayInterval = def.Measurement.DisplayInterval
	}
	if c.Measurement.DropThreshold == 0 {
		c.Measurement.DropThreshold = def.Measurement.DropThreshold
	}
	if c.Measurement.LeadResistance == 0 {
		c.Measurement.LeadResistance = def.Measurement.LeadResistance
	}
	if c.Measurement.HighEndThreshold == 0 {
		c.Measurement.HighEndThreshold = def.Measurement.HighEndThreshold
	}
	if c.Measurement.HighEndCorrection == 0 {
		c.Measurement.HighEndCorrection = def.Measurement.HighEndCorrection
	}
	if c.Measurement.OutOfRangeCeiling == 0 {
		c.Measurement.OutOfRangeCeiling = def.Measurement.OutOfRangeCeiling
	}

	if c.Network.Baseline == 0 {
		c.Network.Baseline = def.Network.Baseline
	}
	if len(c.Network.Taps) == 0 {
		c.Network.Taps = def.Network.Taps
	}

	// The tier table is positional (one entry per hardware gain setting), so a
	// partial table cannot be merged and falls back to defaults wholesale.
	if len(c.GainTiers) != len(def.GainTiers) {
		c.GainTiers = def.GainTiers
	}

	if c.Display.Columns == 0 {
		c.Display.Columns = def.Display.Columns
	}
	if c.Display.Rows == 0 {
		c.Display.Rows = def.Display.Rows
	}

	if c.Mock.Resistance == 0 {
		c.Mock.Resistance = def.Mock.Resistance
	}
	if c.Mock.Supply == 0 {
		c.Mock.Supply = def.Mock.Supply
	}
	if c.Mock.OpenDuration == 0 {
		c.Mock.OpenDuration = def.Mock.OpenDuration
	}
	if c.Mock.OpenPeriod == 0 {
		c.Mock.OpenPeriod = def.Mock.OpenPeriod
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
}
