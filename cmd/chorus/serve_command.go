package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorus"
	"chorus/api"
	"chorus/common"
	"chorus/logger"
	"chorus/telemetry"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the chat backend server",
		Action: handleServeCommand,
	}
}

func handleServeCommand(cliCtx context.Context, cmd *cli.Command) error {
	log.Logger = logger.Get()

	shutdownTracer, err := telemetry.InitTracer(chorus.ServiceName)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without it")
	}

	log.Info().Int("port", common.GetServerPort()).Msg("Starting server...")
	server := api.RunServer()
	fmt.Printf("chorus v%s listening on http://localhost:%d\n", chorus.Version, common.GetServerPort())

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful API server shutdown failed")
	}

	if shutdownTracer != nil {
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down tracer")
		}
	}

	log.Info().Msg("Server stopped")
	return nil
}
