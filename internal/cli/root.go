// Package cli builds the cobra command shared by the adapter binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/developer-mesh/review-mcp/internal/api"
	"github.com/developer-mesh/review-mcp/internal/config"
	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/mcp"
	"github.com/developer-mesh/review-mcp/internal/metrics"
	"github.com/developer-mesh/review-mcp/internal/observability"
	"github.com/developer-mesh/review-mcp/internal/platform"
	"github.com/developer-mesh/review-mcp/internal/tools"
	"github.com/developer-mesh/review-mcp/internal/tracing"
)

const (
	shutdownTimeout = 10 * time.Second
	flushTimeout    = 5 * time.Second
)

// Backend describes one adapter binary.
type Backend struct {
	// Name is both the config backend and the MCP server name.
	Name  string
	Short string
	Tools func(cfg *config.Config) []tools.Tool
}

type options struct {
	logLevel  string
	adminAddr string
}

// NewRootCommand returns the command that serves b over stdio.
func NewRootCommand(b Backend, version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           b.Name + "-mcp",
		Short:         b.Short,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(b.Name)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = opts.logLevel
			}
			if cmd.Flags().Changed("admin-addr") {
				cfg.Admin.Addr = opts.adminAddr
			}
			return run(cmd.Context(), b, version, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "listen address for /health and /metrics (disabled when empty)")
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute(b Backend, version string) {
	if err := NewRootCommand(b, version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s-mcp: %v\n", b.Name, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, b Backend, version string, cfg *config.Config, in io.Reader, out, errOut io.Writer) error {
	logger := observability.NewLogger(observability.LoggerConfig{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: b.Name + "-mcp",
		Output:  errOut,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	platformInfo := platform.GetInfo(executor.DefaultInterpreters...)
	logger.Info("Starting MCP adapter", map[string]interface{}{
		"backend":      b.Name,
		"version":      version,
		"scripts_dir":  cfg.Scripts.Dir,
		"exec_mode":    cfg.Scripts.Mode,
		"platform":     platformInfo.OS,
		"architecture": platformInfo.Architecture,
		"go_version":   platformInfo.Version,
	})
	for _, name := range cfg.MissingConnectionVars() {
		logger.Warn("Connection variable not set", map[string]interface{}{"variable": name})
	}
	for _, name := range platformInfo.Missing(executor.DefaultInterpreters...) {
		logger.Warn("Interpreter not found on PATH", map[string]interface{}{"interpreter": name})
	}
	if info, err := os.Stat(cfg.Scripts.Dir); err != nil || !info.IsDir() {
		logger.Warn("Scripts directory not found", map[string]interface{}{"path": cfg.Scripts.Dir})
	}

	tracerProvider, err := tracing.NewTracerProvider(&tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    b.Name + "-mcp",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		Backend:        b.Name,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		OTLPInsecure:   cfg.Tracing.OTLPInsecure,
		SamplingRate:   cfg.Tracing.SamplingRate,
		ExportTimeout:  30 * time.Second,
		ZipkinEndpoint: cfg.Tracing.ZipkinEndpoint,
	})
	if err != nil {
		logger.Warn("Could not initialize tracing", map[string]interface{}{"error": err.Error()})
		tracerProvider = nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(reg, b.Name)

	registry, err := tools.NewRegistry(b.Tools(cfg)...)
	if err != nil {
		return fmt.Errorf("invalid tool catalog: %w", err)
	}

	runner := executor.NewCommandExecutor(executor.Config{
		ScriptsDir:     cfg.Scripts.Dir,
		Timeout:        cfg.Scripts.Timeout,
		MaxOutputBytes: cfg.Scripts.MaxOutputBytes,
		Mode:           executor.Mode(cfg.Scripts.Mode),
		Env:            cfg.ConnectionEnv(),
	}, logger.WithPrefix("executor"))

	dispatcher := tools.NewDispatcher(registry, runner, logger.WithPrefix("dispatcher"),
		tools.WithMetrics(m),
		tools.WithSpanHelper(tracing.NewSpanHelper(tracerProvider)),
	)

	server, err := mcp.NewServer(b.Name, version, registry.List(), dispatcher, logger.WithPrefix("mcp"))
	if err != nil {
		return err
	}

	var admin *api.AdminServer
	if cfg.Admin.Addr != "" {
		health := api.NewHealthChecker(api.HealthConfig{
			Backend:      b.Name,
			Version:      version,
			ToolCount:    registry.Count(),
			ScriptsDir:   cfg.Scripts.Dir,
			MissingVars:  cfg.MissingConnectionVars(),
			Interpreters: executor.DefaultInterpreters,
		}, logger.WithPrefix("api"))
		admin = api.NewAdminServer(cfg.Admin.Addr, cfg.Admin.Token, health, reg, logger.WithPrefix("api"))
		if err := admin.Start(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := server.ServeStdio(ctx, in, out, logger.StdLogger("stdio"))

	logger.Info("Shutting down", nil)

	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin server shutdown error", map[string]interface{}{"error": err.Error()})
		}
		cancel()
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	if err := tracerProvider.Shutdown(flushCtx); err != nil {
		logger.Warn("Tracer shutdown error", map[string]interface{}{"error": err.Error()})
	}
	cancel()

	logger.Info("Shutdown complete", nil)
	return serveErr
}
