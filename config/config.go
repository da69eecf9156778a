// Package config loads the service configuration from YAML.
//
// A configuration file looks like:
//
//	server:
//	  addr: ":8080"
//	  cors_origin: "*"
//	data_path: data/utilities.json
//	default_preset: standard
//	presets:
//	  - name: premium
//	    cost_per_watt: 3.80
//	    battery_price: 12000
//	    apr: 5.25
//	    term_years: 15
//	    escalation: 0.05
//	utilities:
//	  - zip_code: "94103"
//	    utility_name: Pacific Gas & Electric
//	    state: CA
//	    electricity_rate: 0.32
//	    base_cost: 10
//	batch:
//	  workers: 8
//
// Presets with a built-in name replace the built-in; others are added.
// Every field is optional.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"solarquote/calc"
	"solarquote/store"
)

const (
	DefaultAddr       = ":8080"
	DefaultCORSOrigin = "*"
	DefaultDataPath   = "data/utilities.json"
)

type Config struct {
	Server        Server        `yaml:"server"`
	DataPath      string        `yaml:"data_path"`
	DefaultPreset string        `yaml:"default_preset"`
	Presets       []calc.Preset `yaml:"presets"`
	Utilities     []Utility     `yaml:"utilities"`
	Batch         Batch         `yaml:"batch"`
}

// Utility seeds one rate table entry at startup. A missing base_cost
// falls back to store.DefaultBaseCost.
type Utility struct {
	ZipCode         string   `yaml:"zip_code"`
	UtilityName     string   `yaml:"utility_name"`
	CompanyID       string   `yaml:"company_id"`
	UtilityType     string   `yaml:"utility_type"`
	State           string   `yaml:"state"`
	ElectricityRate float64  `yaml:"electricity_rate"`
	BaseCost        *float64 `yaml:"base_cost"`
}

type Server struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

type Batch struct {
	Workers int `yaml:"workers"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

// LoadFile reads and parses a YAML config file. A missing file yields
// the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = DefaultCORSOrigin
	}
	if c.DataPath == "" {
		c.DataPath = DefaultDataPath
	}
	if c.DefaultPreset == "" {
		c.DefaultPreset = calc.PresetStandard
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = runtime.NumCPU()
	}
	for i := range c.Presets {
		p := &c.Presets[i]
		if p.APR == 0 {
			p.APR = calc.DefaultAPR
		}
		if p.TermYears == 0 {
			p.TermYears = calc.DefaultTermYears
		}
	}
}

// Validate checks the presets and the default preset name.
func (c *Config) Validate() error {
	_, err := c.Calculator()
	return err
}

// Calculator builds the calculator the configuration describes.
func (c *Config) Calculator() (*calc.Calculator, error) {
	calculator, err := calc.New(c.DefaultPreset, c.Presets...)
	if err != nil {
		return nil, fmt.Errorf("config presets: %w", err)
	}
	return calculator, nil
}

// SeedInputs converts configured utilities into store inputs.
func (c *Config) SeedInputs() []store.UtilityInput {
	inputs := make([]store.UtilityInput, 0, len(c.Utilities))
	for _, u := range c.Utilities {
		inputs = append(inputs, store.UtilityInput{
			ZipCode:         u.ZipCode,
			UtilityName:     u.UtilityName,
			CompanyID:       u.CompanyID,
			UtilityType:     u.UtilityType,
			State:           u.State,
			ElectricityRate: u.ElectricityRate,
			BaseCost:        u.BaseCost,
		})
	}
	return inputs
}
