package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multistep-rag-be/internal/bootstrap"
	"multistep-rag-be/internal/config"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/internal/server"
	"multistep-rag-be/internal/tracer"
	"multistep-rag-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Tracer
	shutdownTracer := tracer.InitTracer(sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Unable to start run event consumer: %v", err)
	}
	go container.WebSocketHub.Run(ctx)

	// 6. Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("SERVER", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("SERVER", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
