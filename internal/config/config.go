package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"

	"github.com/rejot-dev/evalrun/internal/env"
)

const (
	// EnvConfigPath names the settings file. When unset DefaultPath is used
	// if it exists.
	EnvConfigPath = "EVALRUN_CONFIG"
	DefaultPath   = "evalrun.yaml"

	DefaultKokoroProject = "model-evaluation-e2e"
)

var labelKey = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

type Config struct {
	Version        string            `yaml:"version"`
	LogLevel       string            `yaml:"log_level,omitempty"`
	Labels         map[string]string `yaml:"labels,omitempty"`
	ServiceAccount string            `yaml:"service_account,omitempty"`
	Network        string            `yaml:"network,omitempty"`
	Reporter       string            `yaml:"reporter,omitempty"`
	Kokoro         Kokoro            `yaml:"kokoro"`
	Preflight      Preflight         `yaml:"preflight"`
}

// Kokoro overrides the launch target for CI test runs.
type Kokoro struct {
	Project string `yaml:"project"`
	RootDir string `yaml:"root_dir,omitempty"`
}

type Preflight struct {
	// CheckModel verifies that model_name resolves on Vertex AI before the
	// pipeline is submitted.
	CheckModel bool `yaml:"check_model"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Version:  "1.0",
		Reporter: "stdout",
		Kokoro:   Kokoro{Project: DefaultKokoroProject},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	config, err := ParseFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Resolve loads the file named by EVALRUN_CONFIG, or DefaultPath. A missing
// DefaultPath yields Default(); a missing explicit path is an error.
func Resolve(src env.Source) (*Config, error) {
	if path, ok := src.LookupEnv(EnvConfigPath); ok && path != "" {
		return Load(path)
	}

	config, err := Load(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("No config file found, using defaults", "path", DefaultPath)
		return Default(), nil
	}
	return config, err
}

func ParseFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s", c.Version)
	}

	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
		}
	}

	for key := range c.Labels {
		if !labelKey.MatchString(key) {
			return fmt.Errorf("invalid label key %q: must start with a lowercase letter and contain only lowercase letters, digits, '_' or '-'", key)
		}
	}

	// Set defaults
	if c.Reporter == "" {
		c.Reporter = "stdout"
	}
	if c.Reporter != "stdout" && c.Reporter != "github" {
		return fmt.Errorf("reporter must be 'stdout' or 'github', got: %s", c.Reporter)
	}

	if c.Kokoro.Project == "" {
		c.Kokoro.Project = DefaultKokoroProject
	}
	if c.Kokoro.RootDir != "" && !strings.HasPrefix(c.Kokoro.RootDir, "gs://") {
		return fmt.Errorf("kokoro.root_dir must be a gs:// URI, got: %s", c.Kokoro.RootDir)
	}

	return nil
}

func (c *Config) PrintAsYAML(w io.Writer) error {
	yamlData, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	_, err = fmt.Fprintln(w, string(yamlData))
	return err
}
