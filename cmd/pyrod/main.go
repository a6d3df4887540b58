package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pyrochain/config"
	"pyrochain/core"
	"pyrochain/observability/logging"
	"pyrochain/rpc"
	"pyrochain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	tickEvery := flag.Duration("tick-interval", time.Minute, "How often the daemon drives the emission clock")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PYRO_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("pyrod", env, logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	db, err := openDatabase(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Error("Invalid engine parameters", slog.Any("error", err))
		os.Exit(1)
	}
	engine, err := core.NewEngine(db, engineCfg, logger)
	if err != nil {
		logger.Error("Failed to initialize engine", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(engine)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("JSON-RPC server listening", slog.String("addr", cfg.RPCAddress))
		errCh <- server.Start(cfg.RPCAddress)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Drive the emission clock so ticks never depend on client traffic.
	ticker := time.NewTicker(*tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := engine.Tick(); err != nil && err != core.ErrNotStarted && err != core.ErrPaused {
				logger.Warn("Tick failed", slog.Any("error", err))
			}
		case err := <-errCh:
			if err != nil {
				logger.Error("RPC server failed", slog.Any("error", err))
				os.Exit(1)
			}
			return
		case <-ctx.Done():
			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("RPC shutdown", slog.Any("error", err))
			}
			return
		}
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemDB(), nil
	case "bolt":
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "pyro.db"))
	default:
		return storage.NewLevelDB(cfg.DataDir)
	}
}
