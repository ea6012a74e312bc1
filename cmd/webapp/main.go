// Inkwell web front-end: server-rendered pages backed entirely by the
// Inkwell API through an in-process relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inkwell-web/inkwell/internal/telemetry"
	"github.com/inkwell-web/inkwell/internal/webapp/config"
	"github.com/inkwell-web/inkwell/internal/webapp/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("INKWELL_WEB_CONFIG"), "path to config file (JSON or YAML)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("inkwell-webapp %s (%s, %s)\n", version, commit, date)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := newLogger(cfg.LogLevel)
	defer func() { _ = zapLogger.Sync() }()
	log := zapr.NewLogger(zapLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.InitTraceProvider(ctx, cfg.OTLPEndpoint, "inkwell-webapp", version)
	if err != nil {
		log.Info("tracing disabled", "reason", err.Error())
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Error(err, "Initialize front-end")
		os.Exit(1)
	}

	if err := srv.Start(ctx); err != nil {
		log.Error(err, "Front-end server error")
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
