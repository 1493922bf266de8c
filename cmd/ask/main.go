package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/d1nch8g/ask/app"
	"github.com/d1nch8g/ask/config"
	"github.com/d1nch8g/ask/logger"
)

func main() {
	// Parse configuration
	cfg, err := config.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(os.Stderr, cfg.GetLogLevel(), cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if cfg.Verbose {
		cfg.PrintConfig()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to create client")
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Error("Run failed")
		stop()
		log.Close()
		os.Exit(1)
	}
}
