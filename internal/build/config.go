package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mstoykov/envconfig"
)

const ConfigFile = "zigbuild.toml"

var ErrConfigNotFound = errors.New("config file not found")

// Config represents the zigbuild.toml configuration file.
type Config struct {
	Default Default           `toml:"default"`
	Env     map[string]string `toml:"env"`
}

// Default holds build options used when the command line leaves them unset.
type Default struct {
	// Target
	Target  string `toml:"target"`
	Profile string `toml:"profile"`
	Release bool   `toml:"release"`

	// Features
	Features          []string `toml:"features"`
	AllFeatures       bool     `toml:"all-features"`
	NoDefaultFeatures bool     `toml:"no-default-features"`

	// Layout
	TargetDir string `toml:"target-dir"`

	// Toolchain
	ZigVersion string   `toml:"zig-version"`
	Cargo      string   `toml:"cargo"`
	Config     []string `toml:"config"`
	Unstable   []string `toml:"unstable"`

	// Behavior
	Verbose int `toml:"verbose"`
}

// LoadConfig loads configuration from path, or searches upward from cwd.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		if path = findConfig(); path == "" {
			return nil, ErrConfigNotFound
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func findConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Options converts the file defaults to build options.
func (c *Config) Options() *Options {
	d := &c.Default
	o := &Options{
		Target:            d.Target,
		Profile:           d.Profile,
		Release:           d.Release,
		Features:          d.Features,
		AllFeatures:       d.AllFeatures,
		NoDefaultFeatures: d.NoDefaultFeatures,
		TargetDir:         d.TargetDir,
		ZigVersion:        d.ZigVersion,
		Cargo:             d.Cargo,
		Config:            d.Config,
		Unstable:          d.Unstable,
		Verbose:           d.Verbose,
	}
	if len(c.Env) > 0 {
		o.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			o.Env[k] = v
		}
	}
	return o
}

// Settings are read from the process environment.
type Settings struct {
	Config     string `envconfig:"ZIGBUILD_CONFIG"`
	ZigVersion string `envconfig:"ZIGBUILD_ZIG_VERSION"`
	Target     string `envconfig:"CARGO_BUILD_TARGET"`
	Cargo      string `envconfig:"CARGO"`
	Rustc      string `envconfig:"RUSTC" default:"rustc"`
}

// LoadSettings reads ZIGBUILD_CONFIG, ZIGBUILD_ZIG_VERSION and the cargo
// variables CARGO_BUILD_TARGET, CARGO and RUSTC.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return Settings{}, fmt.Errorf("read environment: %w", err)
	}
	return s, nil
}

// Apply overrides file options with the variables that are set.
func (s Settings) Apply(o *Options) {
	if s.Target != "" {
		o.Target = s.Target
	}
	if s.ZigVersion != "" {
		o.ZigVersion = s.ZigVersion
	}
	if s.Cargo != "" {
		o.Cargo = s.Cargo
	}
}
