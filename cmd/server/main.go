package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kleverson/cartas/internal/config"
	"github.com/kleverson/cartas/internal/logger"
	"github.com/kleverson/cartas/internal/server"
	"github.com/kleverson/cartas/internal/version"
)

func main() {
	// No arguments: start server (default behavior)
	if len(os.Args) < 2 {
		runServer()
		return
	}

	switch os.Args[1] {
	case "backup":
		cmdBackup(os.Args[2:])
	case "serve":
		runServer()
	case "-v", "--version", "version":
		printVersion()
	case "-h", "--help", "help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Cartas %s\n", version.Version)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Date: %s\n", version.BuildDate)
}

func printHelp() {
	fmt.Print(`Cartas - backend for the cartas letters site

Usage: cartas [command] [options]

Commands:
  serve     Start the API server (default if no command)
  backup    Export posts and leads to a ZIP archive of CSV files

Options:
  -h, --help       Show this help message
  -v, --version    Show version information

Use "cartas [command] --help" for command-specific options.

Environment Variables:
  CARTAS_API_PORT              API server port (default: 8080)
  CARTAS_DATABASE_PATH         DuckDB database path (default: ./data/cartas.duckdb)
  CARTAS_FRONTEND_URL          Frontend URL for CORS (default: http://localhost:5173)
  CARTAS_SITE_URL              Public site URL used in sitemap.xml (default: https://www.kleverson.xyz)
  CARTAS_ADMIN_TOKEN           Bearer token for /api/admin and /ws (admin routes disabled if unset)
  CARTAS_TIMEZONE              Time zone for backup dates (default: America/Sao_Paulo)
  CARTAS_BACKUP_HISTORY        Number of backups remembered (default: 4)
  CARTAS_BACKUP_CRC32          Write real CRC-32 checksums in archives (default: false)
  CARTAS_S3_BUCKET             Upload backups to this bucket
  CARTAS_S3_PREFIX             Key prefix for uploaded backups
  CARTAS_S3_REGION             S3 region
  CARTAS_S3_ENDPOINT           Custom endpoint for S3-compatible storage
  CARTAS_S3_ACCESS_KEY_ID      Static access key (default: AWS credential chain)
  CARTAS_S3_SECRET_ACCESS_KEY  Static secret key
  CARTAS_S3_FORCE_PATH_STYLE   Use path-style bucket addressing
  CARTAS_LOG_LEVEL             Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  CARTAS_CONFIG_FILE           YAML file with the same settings (environment wins)
`)
}

func runServer() {
	// Initialize structured logging (text format for development readability)
	logger.InitializeText(logger.ParseLevel(os.Getenv("CARTAS_LOG_LEVEL")))
	log := logger.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		log.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("Received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during shutdown", "error", err)
		}
		os.Exit(0)
	}()

	log.Info("Cartas starting",
		"version", version.Version,
		"database", cfg.DatabasePath,
		"api_port", cfg.APIPort,
		"timezone", cfg.Timezone,
	)

	if err := srv.ListenAndServe(); err != nil {
		log.Error("Server error", "error", err)
		os.Exit(1)
	}
}
