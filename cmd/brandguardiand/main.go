// Command brandguardiand serves the audit HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"brandguardian/internal/config"
	"brandguardian/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	skipPreflight := flag.Bool("skip-preflight", false, "Skip startup reachability checks")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{
		LogLevel:      *logLevel,
		SkipPreflight: *skipPreflight,
	}); err != nil {
		log.Fatalf("brandguardiand: %v", err)
	}
}
