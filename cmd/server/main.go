package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/config"
	"github.com/palemoky/scythe-bidder/internal/logger"
	"github.com/palemoky/scythe-bidder/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	loadErr := err
	if err != nil {
		cfg = config.Default()
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	if loadErr != nil {
		log.Warn().Err(loadErr).Str("path", *configPath).Msg("load config failed, using defaults")
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create server failed")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("shutting down")
	srv.GracefulShutdown(cfg.Server.ShutdownTimeoutDuration())
}
