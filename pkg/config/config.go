// Package config loads the adapter and radar settings shared by the tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Adapter AdapterConfig `yaml:"adapter"`
	Radar   RadarConfig   `yaml:"radar"`
	// Platform selects the LKAS11 checksum, see hyundaican.Platform.
	Platform string `yaml:"platform"`
	Debug    bool   `yaml:"debug"`
	// DebugFile receives frame traces when Debug is set.
	DebugFile string `yaml:"debug_file"`
}

type AdapterConfig struct {
	Name         string  `yaml:"name"`
	Port         string  `yaml:"port"`
	PortBaudrate int     `yaml:"port_baudrate"`
	CANRate      float64 `yaml:"can_rate"`
	// Bus is the bus number the adapter is wired to.
	Bus int `yaml:"bus"`
}

type RadarConfig struct {
	Addr      uint32        `yaml:"addr"`
	Bus       int           `yaml:"bus"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	KeepAlive time.Duration `yaml:"keep_alive"`
}

func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			PortBaudrate: 115200,
			CANRate:      500,
			Bus:          2,
		},
		Radar: RadarConfig{
			Addr:      0x7D0,
			Bus:       2,
			Timeout:   100 * time.Millisecond,
			Retries:   5,
			KeepAlive: time.Second,
		},
		DebugFile: "debug.log",
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Radar.Addr == 0 || c.Radar.Addr > 0x7FF {
		return fmt.Errorf("radar addr 0x%X is not a standard id", c.Radar.Addr)
	}
	if c.Radar.Timeout < 0 {
		return errors.New("radar timeout must not be negative")
	}
	if c.Radar.Bus < 0 || c.Adapter.Bus < 0 {
		return errors.New("bus must not be negative")
	}
	return nil
}

// Save writes c to path as yaml.
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
