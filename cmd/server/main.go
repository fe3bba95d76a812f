package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"chatrelay/internal/app"
	"chatrelay/internal/config"
	"chatrelay/internal/log"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	bootLogger := log.New("info")

	cfg, resolvedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Str("path", resolvedPath).Msg("failed to load config")
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", resolvedPath).Str("addr", cfg.Addr).Msg("starting chatrelay server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
