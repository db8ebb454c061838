package cli

import (
	"context"
	"fmt"
	"time"

	"atsmatch/internal/common"
	"atsmatch/internal/config"
	"atsmatch/internal/observability"
	"atsmatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume scoring and optimization",
	Long: `Start an HTTP server that provides REST API endpoints for resume scoring.

Available endpoints:
- POST /score: Deterministic ATS score
- POST /optimize: Score, then rewrite the resume
- POST /resume: Score or optimize, chosen by "action"
- POST /analyze: Generator-backed gap analysis
- POST /rephrase: Rewrite one resume section
- POST /parse: Extract text from an uploaded PDF, DOCX or HTML file
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Scoring works without generator credentials; the generator-backed
endpoints then answer 503.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates; they are reloaded
  when the files change`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeFlags copies changed flags onto the server configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) {
	override := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	override("port", &cfg.Port)
	override("host", &cfg.Host)
	override("tls-mode", &cfg.TLS.Mode)
	override("cert-file", &cfg.TLS.CertFile)
	override("key-file", &cfg.TLS.KeyFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}

	applyServeFlags(cmd, &cfg.Server)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	svcs, err := common.BuildServices(cfg, logger, om,
		config.OperationOptimize, config.OperationAnalyze, config.OperationRephrase)
	if err != nil {
		return err
	}
	defer func() { _ = svcs.Close() }()

	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), serverDeps(svcs), om, logger)
	return srv.Start(cmd.Context())
}

// serverDeps maps the built services onto the API, leaving missing
// generator-backed operations nil
func serverDeps(svcs *common.Services) server.Deps {
	deps := server.Deps{
		Scorer:  svcs.Pipeline,
		Models:  make(map[string]server.ModelChecker),
		AIError: svcs.AIError,
	}
	if svcs.Optimizer != nil {
		deps.Optimizer = svcs.Optimizer
	}
	if svc, ok := svcs.AI[config.OperationAnalyze]; ok {
		deps.Analyzer = svc
	}
	if svc, ok := svcs.AI[config.OperationRephrase]; ok {
		deps.Rephraser = svc
	}
	for op, svc := range svcs.AI {
		deps.Models[op] = svc
	}
	return deps
}
