// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/brewer-simulator/internal/device"
)

type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
}

type SimulatorConfig struct {
	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Transcript   TranscriptConfig   `yaml:"transcript"`
	StatusMemory StatusMemoryConfig `yaml:"status_memory"`
	Instruments  []InstrumentConfig `yaml:"instruments"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // text | json
	Output   string `yaml:"output"` // stdout | file
	FilePath string `yaml:"file_path"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// ---- TRANSCRIPT ----

type TranscriptConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
	History  int    `yaml:"history"` // entries kept per instrument
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- INSTRUMENT ----

type InstrumentConfig struct {
	ID    string `yaml:"id"`
	Port  string `yaml:"port"`
	Model string `yaml:"model"`
	Baud  int    `yaml:"baud"`

	ReadTimeoutMs      int    `yaml:"read_timeout_ms"`
	IOSBoard           bool   `yaml:"ios_board"`
	AzimuthStepsPerRev int    `yaml:"azimuth_steps_per_rev"`
	SerialNumber       int    `yaml:"serial_number"`
	Seed               uint64 `yaml:"seed"`

	// Device status block (optional, opt-in)
	StatusSlot   *uint16 `yaml:"status_slot"`
	StatusUnitID *uint8  `yaml:"status_unit_id"`
	DeviceName   string  `yaml:"device_name"`
}

// Settings converts a normalized instrument entry into device settings.
func (ic InstrumentConfig) Settings() device.Settings {
	return device.Settings{
		Model:              device.Model(ic.Model),
		NominalBaud:        ic.Baud,
		ReadTimeout:        time.Duration(ic.ReadTimeoutMs) * time.Millisecond,
		IOSBoard:           ic.IOSBoard,
		AzimuthStepsPerRev: ic.AzimuthStepsPerRev,
		SerialNumber:       ic.SerialNumber,
		Seed:               ic.Seed,
	}
}

// Load reads and decodes a YAML configuration file.
// The result is neither validated nor normalized.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
