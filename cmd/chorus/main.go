package main

import (
	"context"
	"fmt"
	"os"

	"chorus"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	// Load .env file if any
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("Warning: failed to load .env file")
		}
	}

	cmd := &cli.Command{
		Name:    "chorus",
		Usage:   "Multi-provider chat backend with live token streaming",
		Version: chorus.Version,
		Commands: []*cli.Command{
			NewServeCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
