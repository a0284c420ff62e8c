package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rejot-dev/evalrun/internal/env"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "evalrun.yaml")

	t.Setenv("EVALRUN_TEST_SA", "runner@acme.iam.gserviceaccount.com")

	validConfig := `version: "1.0"
log_level: debug
labels:
  team: model-eval
  cost_center: "1234"
service_account: ${EVALRUN_TEST_SA}
network: projects/123/global/networks/default
reporter: github
kokoro:
  project: e2e-project
  root_dir: gs://e2e-bucket/pipeline_root
preflight:
  check_model: true
`

	if err := os.WriteFile(configPath, []byte(validConfig), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	want := &Config{
		Version:        "1.0",
		LogLevel:       "debug",
		Labels:         map[string]string{"team": "model-eval", "cost_center": "1234"},
		ServiceAccount: "runner@acme.iam.gserviceaccount.com",
		Network:        "projects/123/global/networks/default",
		Reporter:       "github",
		Kokoro:         Kokoro{Project: "e2e-project", RootDir: "gs://e2e-bucket/pipeline_root"},
		Preflight:      Preflight{CheckModel: true},
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "evalrun.yaml")
	if err := os.WriteFile(configPath, []byte(`version: "1.0"`), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if diff := cmp.Diff(Default(), config); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("non-existent-file.yaml")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.yaml")

	invalidYAML := `invalid: yaml: content: [unclosed`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write invalid config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_UnknownField(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "unknown.yaml")
	if err := os.WriteFile(configPath, []byte("version: \"1.0\"\nprovider: openai\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestResolve(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("version: \"1.0\"\nreporter: github\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := Resolve(env.Map{EnvConfigPath: configPath})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if config.Reporter != "github" {
			t.Errorf("expected reporter github, got %s", config.Reporter)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Resolve(env.Map{EnvConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
		if err == nil {
			t.Error("expected error for missing explicit config")
		}
	})

	t.Run("default path missing", func(t *testing.T) {
		t.Chdir(t.TempDir())

		config, err := Resolve(env.Map{})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if diff := cmp.Diff(Default(), config); diff != "" {
			t.Errorf("expected defaults (-want +got):\n%s", diff)
		}
	})

	t.Run("default path present", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		if err := os.WriteFile(filepath.Join(dir, DefaultPath), []byte("version: \"1.0\"\nlog_level: warn\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := Resolve(env.Map{})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if config.LogLevel != "warn" {
			t.Errorf("expected log_level warn, got %s", config.LogLevel)
		}
	})
}

func TestConfig_validate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{
			name:      "valid config",
			config:    Config{Version: "1.0"},
			wantError: false,
		},
		{
			name:      "missing version",
			config:    Config{},
			wantError: true,
		},
		{
			name:      "unsupported version",
			config:    Config{Version: "2.0"},
			wantError: true,
		},
		{
			name:      "invalid log level",
			config:    Config{Version: "1.0", LogLevel: "loud"},
			wantError: true,
		},
		{
			name:      "invalid label key",
			config:    Config{Version: "1.0", Labels: map[string]string{"Team": "x"}},
			wantError: true,
		},
		{
			name:      "unsupported reporter",
			config:    Config{Version: "1.0", Reporter: "slack"},
			wantError: true,
		},
		{
			name:      "kokoro root dir not on storage",
			config:    Config{Version: "1.0", Kokoro: Kokoro{RootDir: "/tmp/root"}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if (err != nil) != tt.wantError {
				t.Errorf("validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfig_PrintAsYAML(t *testing.T) {
	var buf bytes.Buffer
	config := Default()
	config.Labels = map[string]string{"team": "eval"}

	if err := config.PrintAsYAML(&buf); err != nil {
		t.Fatalf("PrintAsYAML failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"version:", "reporter: stdout", "project: model-evaluation-e2e", "team: eval"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	parsed, err := ParseFromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("printed YAML does not parse: %v", err)
	}
	if parsed.Kokoro.Project != DefaultKokoroProject {
		t.Errorf("expected kokoro project to round-trip, got %s", parsed.Kokoro.Project)
	}
}
