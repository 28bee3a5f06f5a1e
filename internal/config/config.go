// Package config loads the migration core's configuration:
// a YAML file overridable by environment variables, with validation of the
// options the core requires to run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DigestAlgorithm is the OCFL digest algorithm used for manifest entries
// and inventory sidecars.
type DigestAlgorithm string

const (
	SHA512 DigestAlgorithm = "sha512"
	SHA256 DigestAlgorithm = "sha256"
)

// Config holds the recognized configuration options.
type Config struct {
	SourceVersion string `yaml:"source_version"`
	TargetVersion string `yaml:"target_version"`

	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	BaseURI   string `yaml:"base_uri"`

	SrcRDFLang string `yaml:"src_rdf_lang"`
	RDFExt     string `yaml:"rdf_ext"`

	Threads int `yaml:"threads"`

	DigestAlgorithm DigestAlgorithm `yaml:"digest_algorithm"`

	FedoraUser        string `yaml:"fedora_user"`
	FedoraUserAddress string `yaml:"fedora_user_address"`

	ForceWindowsMode bool `yaml:"force_windows_mode"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls the shared slog logger (internal/logging).
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns a Config with every optional field set to its
// default value.
func DefaultConfig() *Config {
	return &Config{
		SrcRDFLang:      "turtle",
		RDFExt:          "ttl",
		Threads:         runtime.NumCPU(),
		DigestAlgorithm: SHA512,
		FedoraUser:      "fedoraAdmin",
		FedoraUserAddress: "info:fedora/fedoraAdmin",
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path (the default path when path is
// empty) using the real environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function, so tests can supply isolated environment values instead of
// mutating the process environment.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getConfigPathWithEnv(getenv)
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg, getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv("FCREPO_UPGRADE_INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}
	if v := getenv("FCREPO_UPGRADE_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("FCREPO_UPGRADE_BASE_URI"); v != "" {
		cfg.BaseURI = v
	}
	if v := getenv("FCREPO_UPGRADE_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Threads = n
		}
	}
	if v := getenv("FCREPO_UPGRADE_DIGEST_ALGORITHM"); v != "" {
		cfg.DigestAlgorithm = DigestAlgorithm(v)
	}
}

// Validate checks the required options and their constraints.
func (c *Config) Validate() error {
	if c.SourceVersion == "" {
		return fmt.Errorf("config: sourceVersion is required")
	}
	if major, err := majorVersion(c.SourceVersion); err != nil || major < 5 {
		return fmt.Errorf("config: sourceVersion must be 5 or greater, got %q", c.SourceVersion)
	}
	if c.TargetVersion == "" {
		return fmt.Errorf("config: targetVersion is required")
	}
	if major, err := majorVersion(c.TargetVersion); err != nil || major < 6 {
		return fmt.Errorf("config: targetVersion must be 6 or greater, got %q", c.TargetVersion)
	}
	if c.InputDir == "" {
		return fmt.Errorf("config: inputDir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: outputDir is required")
	}
	if c.BaseURI == "" {
		return fmt.Errorf("config: baseUri is required")
	}
	if c.Threads <= 0 {
		return fmt.Errorf("config: threads must be > 0, got %d", c.Threads)
	}
	switch c.DigestAlgorithm {
	case SHA512, SHA256:
	default:
		return fmt.Errorf("config: digestAlgorithm must be sha512 or sha256, got %q", c.DigestAlgorithm)
	}
	if c.RDFExt == "" {
		c.RDFExt = "ttl"
	}
	if c.FedoraUser == "" {
		c.FedoraUser = "fedoraAdmin"
	}
	if c.FedoraUserAddress == "" {
		c.FedoraUserAddress = "info:fedora/fedoraAdmin"
	}
	return nil
}

// majorVersion parses the leading integer component of a version string
// such as "5", "5.1", or "6.0.1".
func majorVersion(v string) (int, error) {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		v = v[:i]
	}
	return strconv.Atoi(v)
}

func getConfigPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fcrepo-upgrade-utils", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fcrepo-upgrade-utils", "config.yaml")
}
