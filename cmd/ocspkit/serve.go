package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remiblancher/ocspkit/internal/api/server"
	"github.com/remiblancher/ocspkit/internal/api/service"
	"github.com/remiblancher/ocspkit/internal/audit"
	"github.com/remiblancher/ocspkit/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the OCSP verification REST API",
	Long: `Start an HTTP server exposing request building, response inspection and
verification as a JSON API, plus /health, /ready and Prometheus /metrics.

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  ocspkit serve --config ocspkit.yaml
  ocspkit serve --port 9000 --h2c --log-level debug`,
	RunE: runServe,
}

var (
	serveConfigPath string
	servePort       int
	serveHost       string
	serveH2C        bool
	serveLogLevel   string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Configuration file (YAML)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default: from config, else 8080)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default: all interfaces)")
	serveCmd.Flags().BoolVar(&serveH2C, "h2c", false, "Serve cleartext HTTP/2")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if serveConfigPath != "" {
		var err error
		if cfg, err = config.Load(serveConfigPath); err != nil {
			return err
		}
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if serveH2C {
		cfg.Server.H2C = true
	}

	logger, err := newServeLogger(serveLogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !audit.Enabled() && cfg.AuditLog != "" {
		if err := audit.InitFile(cfg.AuditLog); err != nil {
			return fmt.Errorf("failed to initialize audit log: %w", err)
		}
	}

	svc, err := service.NewOCSPServiceFromConfig(cfg)
	if err != nil {
		return err
	}
	if !svc.Ready() {
		logger.Warn("no trust anchors configured; verification requests must supply their own")
	}

	srv := server.New(server.FromProfile(cfg.Server), version, svc, logger)
	srv.PrintStartupInfo(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

func newServeLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
