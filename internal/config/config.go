// Package config loads review-mcp settings from the environment.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/observability"
)

// Supported backends.
const (
	BackendGitLab    = "gitlab"
	BackendSonarQube = "sonarqube"
)

// Config represents the configuration of one adapter process
type Config struct {
	Backend string
	GitLab  GitLabConfig
	Sonar   SonarConfig
	Scripts ScriptsConfig
	Admin   AdminConfig
	Logging LoggingConfig
	Tracing TracingConfig
}

// GitLabConfig holds the connection variables forwarded to GitLab scripts.
type GitLabConfig struct {
	HostURL   string
	Token     string
	ProjectID string
}

// SonarConfig holds the connection variables forwarded to SonarQube scripts.
type SonarConfig struct {
	HostURL    string
	Token      string
	ProjectKey string
}

// ScriptsConfig controls how companion scripts are run
type ScriptsConfig struct {
	Dir             string
	Timeout         time.Duration
	AnalysisTimeout time.Duration
	MaxOutputBytes  int
	Mode            string
}

// AdminConfig controls the optional admin HTTP listener. An empty Addr
// disables it; a non-empty Token is required on every route but liveness.
type AdminConfig struct {
	Addr  string
	Token string
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// TracingConfig represents tracing configuration
type TracingConfig struct {
	Enabled        bool
	Environment    string
	OTLPEndpoint   string
	OTLPInsecure   bool
	ZipkinEndpoint string
	SamplingRate   float64
}

// Load reads the configuration for backend from environment variables.
func Load(backend string) (*Config, error) {
	if backend != BackendGitLab && backend != BackendSonarQube {
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Backend: backend,
		GitLab: GitLabConfig{
			HostURL:   v.GetString("GITLAB_HOST_URL"),
			Token:     v.GetString("GITLAB_TOKEN"),
			ProjectID: v.GetString("GITLAB_PROJECT_ID"),
		},
		Sonar: SonarConfig{
			HostURL:    v.GetString("SONAR_HOST_URL"),
			Token:      v.GetString("SONAR_TOKEN"),
			ProjectKey: v.GetString("SONAR_PROJECT_KEY"),
		},
		Scripts: ScriptsConfig{
			Dir:            v.GetString("REVIEW_MCP_SCRIPTS_DIR"),
			MaxOutputBytes: v.GetInt("REVIEW_MCP_MAX_OUTPUT_BYTES"),
			Mode:           v.GetString("REVIEW_MCP_EXEC_MODE"),
		},
		Admin: AdminConfig{
			Addr:  v.GetString("REVIEW_MCP_ADMIN_ADDR"),
			Token: v.GetString("REVIEW_MCP_ADMIN_TOKEN"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Tracing: TracingConfig{
			Enabled:        v.GetBool("TRACING_ENABLED"),
			Environment:    v.GetString("ENVIRONMENT"),
			OTLPEndpoint:   v.GetString("OTLP_ENDPOINT"),
			OTLPInsecure:   v.GetBool("OTLP_INSECURE"),
			ZipkinEndpoint: v.GetString("ZIPKIN_ENDPOINT"),
			SamplingRate:   v.GetFloat64("TRACING_SAMPLING_RATE"),
		},
	}

	var err error
	if cfg.Scripts.Timeout, err = getDuration(v, "REVIEW_MCP_SCRIPT_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.Scripts.AnalysisTimeout, err = getDuration(v, "REVIEW_MCP_ANALYSIS_TIMEOUT"); err != nil {
		return nil, err
	}

	if cfg.Scripts.Dir == "" {
		dir, err := defaultScriptsDir(backend)
		if err != nil {
			return nil, err
		}
		cfg.Scripts.Dir = dir
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("REVIEW_MCP_SCRIPT_TIMEOUT", executor.DefaultTimeout.String())
	v.SetDefault("REVIEW_MCP_ANALYSIS_TIMEOUT", (15 * time.Minute).String())
	v.SetDefault("REVIEW_MCP_MAX_OUTPUT_BYTES", executor.DefaultMaxOutputBytes)
	v.SetDefault("REVIEW_MCP_EXEC_MODE", string(executor.ModeArgv))
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTLP_INSECURE", true)
	v.SetDefault("TRACING_SAMPLING_RATE", 1.0)
}

// getDuration reads key as a Go duration ("90s", "15m"). A bare number is
// taken as seconds.
func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want a duration such as 90s or a number of seconds", key, raw)
	}
	return d, nil
}

// defaultScriptsDir resolves <binary dir>/../scripts/<backend>, the layout of
// an installed adapter.
func defaultScriptsDir(backend string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "scripts", backend), nil
}

// Validate checks the configuration for values no script run could work with.
func (c *Config) Validate() error {
	if c.Scripts.Dir == "" {
		return fmt.Errorf("scripts directory is required")
	}
	if c.Scripts.Timeout <= 0 {
		return fmt.Errorf("script timeout must be positive, got %s", c.Scripts.Timeout)
	}
	if c.Scripts.AnalysisTimeout <= 0 {
		return fmt.Errorf("analysis timeout must be positive, got %s", c.Scripts.AnalysisTimeout)
	}
	if c.Scripts.MaxOutputBytes <= 0 {
		return fmt.Errorf("max output bytes must be positive, got %d", c.Scripts.MaxOutputBytes)
	}
	switch executor.Mode(c.Scripts.Mode) {
	case executor.ModeArgv, executor.ModeShell:
	default:
		return fmt.Errorf("unknown exec mode %q (want %s or %s)", c.Scripts.Mode, executor.ModeArgv, executor.ModeShell)
	}
	if !observability.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing sampling rate must be between 0 and 1, got %v", c.Tracing.SamplingRate)
	}
	return nil
}

// connection returns the backend's connection variables in a stable order.
func (c *Config) connection() [][2]string {
	if c.Backend == BackendSonarQube {
		return [][2]string{
			{"SONAR_HOST_URL", c.Sonar.HostURL},
			{"SONAR_TOKEN", c.Sonar.Token},
			{"SONAR_PROJECT_KEY", c.Sonar.ProjectKey},
		}
	}
	return [][2]string{
		{"GITLAB_HOST_URL", c.GitLab.HostURL},
		{"GITLAB_TOKEN", c.GitLab.Token},
		{"GITLAB_PROJECT_ID", c.GitLab.ProjectID},
	}
}

// ConnectionEnv returns the non-empty connection variables to layer over the
// script environment.
func (c *Config) ConnectionEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range c.connection() {
		if kv[1] != "" {
			env[kv[0]] = kv[1]
		}
	}
	return env
}

// MissingConnectionVars lists connection variables that are unset.
func (c *Config) MissingConnectionVars() []string {
	var missing []string
	for _, kv := range c.connection() {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	return missing
}
