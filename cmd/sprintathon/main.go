// Package main starts the sprintathon bot process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	sprintathoncmd "github.com/sprintathon/sprintathon/internal/cmd/sprintathon"
	"github.com/sprintathon/sprintathon/internal/platform/config"
)

func main() {
	cfg, err := sprintathoncmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(sprintathoncmd.LogPrefix)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HealthCheck {
		if err := sprintathoncmd.HealthCheck(ctx, cfg.Port); err != nil {
			stop()
			config.Exitf("healthcheck: %v", err)
		}
		return
	}
	if err := sprintathoncmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
