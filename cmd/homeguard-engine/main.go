package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"homeguard-engine/internal/config"
	"homeguard-engine/internal/service"
	"homeguard-engine/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logging
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "homeguard-engine")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. Build the service
	svc, err := service.NewService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create service",
			zap.Error(err),
		)
	}
	defer svc.Stop()

	// 4. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Run the service in a goroutine
	serviceErrChan := make(chan error, 1)
	go func() {
		if err := svc.Start(ctx); err != nil {
			serviceErrChan <- err
		}
	}()

	// 6. Wait for a signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
	case err := <-serviceErrChan:
		log.Fatal("Service error",
			zap.Error(err),
		)
	}

	log.Info("Homeguard engine stopped")
}
