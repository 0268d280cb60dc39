// Package config defines the scanner configuration and its YAML loader.
package config

import (
	"fmt"
	"time"
)

// Config is the complete configuration for a visibility scan.
type Config struct {
	Scope      ScopeConfig      `yaml:"scope"`
	TEC        TECConfig        `yaml:"tec"`
	Scan       ScanConfig       `yaml:"scan"`
	Processing ProcessingConfig `yaml:"processing"`
	Output     OutputConfig     `yaml:"output"`
	Debug      bool             `yaml:"debug,omitempty"`
}

// ScopeConfig holds configuration for the oscilloscope connection
type ScopeConfig struct {
	// Type selects the driver: "tek" for a Tektronix DPO70k-series scope
	// over raw TCP, "simulated" for the in-process simulator.
	Type     string `yaml:"type"`
	Hostname string `yaml:"hostname,omitempty"`
	Port     string `yaml:"port,omitempty"`
	// Channels lists the active scope channels, in acquisition order.
	Channels []int `yaml:"channels,omitempty"`
	// Memory is the record length in samples requested from the scope.
	Memory int `yaml:"memory,omitempty"`
}

// TECConfig holds configuration for the TEC temperature controller
type TECConfig struct {
	// Type selects the driver: "mecom" for a Meerstetter TEC-1092 over
	// serial, "simulated" for the in-process simulator.
	Type         string `yaml:"type"`
	SerialDevice string `yaml:"serial_device,omitempty"`
	Baud         int    `yaml:"baud,omitempty"`
	// Address is the MeCom device address (0 means broadcast).
	Address int `yaml:"address,omitempty"`
	Channel int `yaml:"channel,omitempty"`
}

// ScanConfig describes the temperature sweep
type ScanConfig struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Step  float64 `yaml:"step"`
	// Tolerance is the maximum |T - setpoint| considered stable, in °C.
	Tolerance float64 `yaml:"tolerance,omitempty"`
	// SettlePollMs is the polling interval while waiting for the TEC to
	// settle, in milliseconds.
	SettlePollMs int `yaml:"settle_poll_ms,omitempty"`
	// Repeats is the number of acquisitions aggregated per setpoint.
	Repeats int `yaml:"repeats,omitempty"`
}

// ProcessingConfig holds the waveform-processing parameters
type ProcessingConfig struct {
	// SamplingRate is the scope sampling rate in samples per second.
	SamplingRate float64 `yaml:"sampling_rate"`
	// PulsePeriod is the repetition period of the three-pulse train, in
	// seconds. One period contains the early-early, interference and
	// late-late bins.
	PulsePeriod float64 `yaml:"pulse_period"`
	// Delay is the full width of the fitting window around a detected
	// peak, in seconds.
	Delay float64 `yaml:"delay"`
	// NoiseFloor is the peak-detection threshold as a fraction of the
	// baseline-to-maximum excursion.
	NoiseFloor float64 `yaml:"noise_floor,omitempty"`
	// MinSeparation is the minimum peak spacing in seconds; closer peaks
	// are merged.
	MinSeparation float64 `yaml:"min_separation,omitempty"`
	// StrictFits excludes non-converged Gaussian fits from the per-setpoint
	// mean/std instead of including their fallback amplitudes.
	StrictFits bool `yaml:"strict_fits,omitempty"`
}

// OutputConfig describes where results are written
type OutputConfig struct {
	// Directory is the parent directory for per-run result directories.
	Directory string `yaml:"directory,omitempty"`
	// SQLitePath, when set, enables the SQLite run archive.
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// SettlePoll returns the TEC polling interval as a duration
func (s ScanConfig) SettlePoll() time.Duration {
	if s.SettlePollMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(s.SettlePollMs) * time.Millisecond
}

// PeriodSamples returns the pulse-train period expressed in samples
func (p ProcessingConfig) PeriodSamples() int {
	return int(p.PulsePeriod * p.SamplingRate)
}

// DelaySamples returns the fitting-window half width in samples, at least 1
func (p ProcessingConfig) DelaySamples() int {
	d := int(p.Delay*p.SamplingRate) / 2
	if d < 1 {
		d = 1
	}
	return d
}

// MinSeparationSamples returns the peak-merge distance in samples
func (p ProcessingConfig) MinSeparationSamples() int {
	s := int(p.MinSeparation * p.SamplingRate)
	if s < 1 {
		s = 1
	}
	return s
}

// applyDefaults fills in defaults for optional fields
func (c *Config) applyDefaults() {
	if len(c.Scope.Channels) == 0 {
		c.Scope.Channels = []int{1}
	}
	if c.Scope.Memory == 0 {
		c.Scope.Memory = 1000000
	}
	if c.TEC.Baud == 0 {
		c.TEC.Baud = 57600
	}
	if c.TEC.Channel == 0 {
		c.TEC.Channel = 1
	}
	if c.Scan.Tolerance == 0 {
		c.Scan.Tolerance = 0.05
	}
	if c.Scan.Repeats == 0 {
		c.Scan.Repeats = 1
	}
	if c.Processing.NoiseFloor == 0 {
		c.Processing.NoiseFloor = 0.2
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "measurements"
	}
}

// Validate checks the configuration for values the scan cannot run with
func (c *Config) Validate() error {
	if c.Scope.Type == "" {
		return fmt.Errorf("scope: type must be set")
	}
	if c.Scope.Type == "tek" && (c.Scope.Hostname == "" || c.Scope.Port == "") {
		return fmt.Errorf("scope: tek scope requires hostname and port")
	}
	if c.TEC.Type == "" {
		return fmt.Errorf("tec: type must be set")
	}
	if c.TEC.Type == "mecom" && c.TEC.SerialDevice == "" {
		return fmt.Errorf("tec: mecom controller requires serial_device")
	}
	if c.Scan.Step <= 0 {
		return fmt.Errorf("scan: step must be positive")
	}
	if c.Scan.End <= c.Scan.Start {
		return fmt.Errorf("scan: end must be greater than start")
	}
	if c.Processing.SamplingRate <= 0 {
		return fmt.Errorf("processing: sampling_rate must be positive")
	}
	if c.Processing.PulsePeriod <= 0 {
		return fmt.Errorf("processing: pulse_period must be positive")
	}
	if c.Processing.PeriodSamples() <= 0 {
		return fmt.Errorf("processing: pulse_period times sampling_rate yields no samples")
	}
	if c.Processing.Delay <= 0 {
		return fmt.Errorf("processing: delay must be positive")
	}
	if c.Processing.NoiseFloor < 0 || c.Processing.NoiseFloor >= 1 {
		return fmt.Errorf("processing: noise_floor must be in [0,1)")
	}
	return nil
}
