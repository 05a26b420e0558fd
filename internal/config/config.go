// Package config provides configuration loading for tbcounter.
// Values come from defaults, then an optional YAML file, then command line
// flags explicitly set by the user.
package config

import (
	"bytes"
	"os"

	"github.com/db47h/hwtb"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Device implementations.
const (
	DeviceGates = "gates"
	DeviceModel = "model"
)

// Config contains all tbcounter settings.
type Config struct {
	// VCDFile is the path of the waveform trace.
	VCDFile string `yaml:"vcd_file"`

	// Display selects display-only mode: no checks, one line per cycle.
	Display bool `yaml:"display"`

	// Table is the path of a YAML expectation table. Empty selects the
	// built-in table.
	Table string `yaml:"table,omitempty"`

	// Cycles is the cycle budget of a run.
	Cycles uint64 `yaml:"cycles"`

	// Device is "gates" or "model".
	Device string `yaml:"device"`

	// Workers is the number of engine goroutines of the gate-level device.
	// 0 selects GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Strict makes check mismatches fail the command.
	Strict bool `yaml:"strict"`

	// Report is the path of a YAML run report. Empty disables the report.
	Report string `yaml:"report,omitempty"`

	// History is the path of the SQLite run history. Empty disables it.
	History string `yaml:"history,omitempty"`

	// Ports maps the harness roles to device signal names.
	Ports hwtb.Ports `yaml:"ports"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the operational logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`
}

// Default returns a Config with the default settings.
func Default() *Config {
	return &Config{
		VCDFile: "./waveform.vcd",
		Cycles:  hwtb.DefaultMaxCycles,
		Device:  DeviceGates,
		Workers: 1,
		Ports:   hwtb.DefaultPorts,
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load returns the default configuration overridden by the YAML file at path.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	switch c.Device {
	case DeviceGates, DeviceModel:
	default:
		return errors.Errorf("invalid device %q: must be %q or %q", c.Device, DeviceGates, DeviceModel)
	}
	if c.Cycles == 0 {
		return errors.New("cycle budget must be positive")
	}
	if c.Workers < 0 {
		return errors.Errorf("invalid worker count %d", c.Workers)
	}
	if c.VCDFile == "" {
		return errors.New("empty vcd file path")
	}
	if c.Display && c.Table != "" {
		return errors.New("an expectation table cannot be used in display mode")
	}
	return nil
}

// Mode returns the harness mode selected by c.
func (c *Config) Mode() hwtb.Mode {
	if c.Display {
		return hwtb.ModeDisplay
	}
	return hwtb.ModeCheck
}
