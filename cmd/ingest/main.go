package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"multistep-rag-be/internal/bootstrap"
	"multistep-rag-be/internal/config"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/internal/service"
	"multistep-rag-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	path := flag.String("path", "./data", "file or directory with .pdf, .txt and .md sources")
	force := flag.Bool("force", false, "re-index even when passages already exist")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	color.Cyan("Indexing %s into the passage table\n", *path)

	report, err := bootstrap.NewIngestService(db, cfg, sysLogger).Ingest(ctx, service.IngestRequest{Path: *path, Force: *force})
	if err != nil {
		color.Red("Ingestion aborted: %v", err)
		os.Exit(1)
	}

	printReport(report)
	if report.Failed() {
		os.Exit(1)
	}
}

func printReport(report *service.IngestReport) {
	if report.Skipped {
		color.Yellow("Passage index already populated, nothing to do (use -force to re-index)")
		return
	}

	color.Green("Files: %d  Sections: %d  Passages: %d  (%s)", report.Files, report.Sections, report.Passages, report.Duration.Round(time.Millisecond))
	if !report.Failed() {
		return
	}

	color.Red("%d file(s) failed:", len(report.Failures))
	for _, f := range report.Failures {
		color.Red("  %s: %v", f.Path, f.Err)
	}
}
