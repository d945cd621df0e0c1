package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"GITLAB_HOST_URL", "GITLAB_TOKEN", "GITLAB_PROJECT_ID",
	"SONAR_HOST_URL", "SONAR_TOKEN", "SONAR_PROJECT_KEY",
	"REVIEW_MCP_SCRIPTS_DIR", "REVIEW_MCP_SCRIPT_TIMEOUT", "REVIEW_MCP_ANALYSIS_TIMEOUT",
	"REVIEW_MCP_MAX_OUTPUT_BYTES", "REVIEW_MCP_EXEC_MODE", "REVIEW_MCP_ADMIN_ADDR", "REVIEW_MCP_ADMIN_TOKEN",
	"LOG_LEVEL", "LOG_FORMAT",
	"TRACING_ENABLED", "ENVIRONMENT", "OTLP_ENDPOINT", "OTLP_INSECURE", "ZIPKIN_ENDPOINT", "TRACING_SAMPLING_RATE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range managedVars {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(BackendGitLab)
	require.NoError(t, err)

	assert.Equal(t, BackendGitLab, cfg.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Scripts.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Scripts.AnalysisTimeout)
	assert.Equal(t, 10*1024*1024, cfg.Scripts.MaxOutputBytes)
	assert.Equal(t, "argv", cfg.Scripts.Mode)
	assert.Equal(t, filepath.Join("scripts", "gitlab"), filepath.Join(filepath.Base(filepath.Dir(cfg.Scripts.Dir)), filepath.Base(cfg.Scripts.Dir)))
	assert.Empty(t, cfg.Admin.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.Tracing.OTLPInsecure)
	assert.Equal(t, 1.0, cfg.Tracing.SamplingRate)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SONAR_HOST_URL", "https://sonar.example.com")
	t.Setenv("SONAR_TOKEN", "squ_123")
	t.Setenv("REVIEW_MCP_SCRIPTS_DIR", "/opt/review/scripts/sonarqube")
	t.Setenv("REVIEW_MCP_SCRIPT_TIMEOUT", "30s")
	t.Setenv("REVIEW_MCP_ANALYSIS_TIMEOUT", "1h")
	t.Setenv("REVIEW_MCP_MAX_OUTPUT_BYTES", "2048")
	t.Setenv("REVIEW_MCP_EXEC_MODE", "shell")
	t.Setenv("REVIEW_MCP_ADMIN_ADDR", "127.0.0.1:9090")
	t.Setenv("REVIEW_MCP_ADMIN_TOKEN", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLING_RATE", "0.25")

	cfg, err := Load(BackendSonarQube)
	require.NoError(t, err)

	assert.Equal(t, "https://sonar.example.com", cfg.Sonar.HostURL)
	assert.Equal(t, "squ_123", cfg.Sonar.Token)
	assert.Equal(t, "/opt/review/scripts/sonarqube", cfg.Scripts.Dir)
	assert.Equal(t, 30*time.Second, cfg.Scripts.Timeout)
	assert.Equal(t, time.Hour, cfg.Scripts.AnalysisTimeout)
	assert.Equal(t, 2048, cfg.Scripts.MaxOutputBytes)
	assert.Equal(t, "shell", cfg.Scripts.Mode)
	assert.Equal(t, "127.0.0.1:9090", cfg.Admin.Addr)
	assert.Equal(t, "s3cret", cfg.Admin.Token)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SamplingRate)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_TimeoutUnits(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"120", 120 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{" 45s ", 45 * time.Second},
		{"2m30s", 150 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("REVIEW_MCP_SCRIPT_TIMEOUT", tt.value)
			t.Setenv("REVIEW_MCP_ANALYSIS_TIMEOUT", tt.value)

			cfg, err := Load(BackendGitLab)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Scripts.Timeout)
			assert.Equal(t, tt.want, cfg.Scripts.AnalysisTimeout)
		})
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("REVIEW_MCP_ANALYSIS_TIMEOUT", "soon")

	_, err := Load(BackendSonarQube)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVIEW_MCP_ANALYSIS_TIMEOUT")
}

func TestLoad_UnknownBackend(t *testing.T) {
	_, err := Load("jira")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend: BackendGitLab,
			Scripts: ScriptsConfig{
				Dir:             "/scripts",
				Timeout:         time.Minute,
				AnalysisTimeout: time.Minute,
				MaxOutputBytes:  1024,
				Mode:            "argv",
			},
			Logging: LoggingConfig{Level: "info"},
			Tracing: TracingConfig{SamplingRate: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no scripts dir", func(c *Config) { c.Scripts.Dir = "" }, "scripts directory"},
		{"zero timeout", func(c *Config) { c.Scripts.Timeout = 0 }, "script timeout"},
		{"negative analysis timeout", func(c *Config) { c.Scripts.AnalysisTimeout = -time.Second }, "analysis timeout"},
		{"zero output ceiling", func(c *Config) { c.Scripts.MaxOutputBytes = 0 }, "max output bytes"},
		{"unknown mode", func(c *Config) { c.Scripts.Mode = "exec" }, "exec mode"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"sampling out of range", func(c *Config) { c.Tracing.SamplingRate = 1.5 }, "sampling rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConnectionEnv(t *testing.T) {
	cfg := &Config{
		Backend: BackendGitLab,
		GitLab:  GitLabConfig{HostURL: "https://gitlab.example.com", ProjectID: "42"},
		Sonar:   SonarConfig{Token: "ignored"},
	}

	assert.Equal(t, map[string]string{
		"GITLAB_HOST_URL":   "https://gitlab.example.com",
		"GITLAB_PROJECT_ID": "42",
	}, cfg.ConnectionEnv())
	assert.Equal(t, []string{"GITLAB_TOKEN"}, cfg.MissingConnectionVars())

	cfg.Backend = BackendSonarQube
	assert.Equal(t, map[string]string{"SONAR_TOKEN": "ignored"}, cfg.ConnectionEnv())
	assert.Equal(t, []string{"SONAR_HOST_URL", "SONAR_PROJECT_KEY"}, cfg.MissingConnectionVars())
}
