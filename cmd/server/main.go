package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZXseITz/zx-tbsg/internal/app/server"
	"github.com/ZXseITz/zx-tbsg/internal/games"
	"github.com/ZXseITz/zx-tbsg/internal/games/sticks"
	"github.com/ZXseITz/zx-tbsg/internal/platform/config"
	"github.com/ZXseITz/zx-tbsg/internal/platform/otel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg server.Config
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("failed to load configuration: %v", err)
	}

	shutdownTracing, err := otel.Setup(ctx, "zx-tbsg")
	if err != nil {
		config.Exitf("failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown failed error=%v", err)
		}
	}()

	registry := games.NewRegistry()
	if err := registry.Register(sticks.New()); err != nil {
		config.Exitf("failed to register game: %v", err)
	}

	srv, err := server.New(cfg, registry)
	if err != nil {
		config.Exitf("failed to initialize server: %v", err)
	}
	if err := srv.Serve(ctx); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
