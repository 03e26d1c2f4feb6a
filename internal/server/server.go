package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kleverson/cartas/internal/backup"
	"github.com/kleverson/cartas/internal/config"
	"github.com/kleverson/cartas/internal/handlers"
	"github.com/kleverson/cartas/internal/logger"
	appMiddleware "github.com/kleverson/cartas/internal/middleware"
	"github.com/kleverson/cartas/internal/storage"
	"github.com/kleverson/cartas/internal/websocket"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Server struct {
	router  chi.Router
	storage *storage.DuckDBStore
	backups *backup.Service
	wsHub   *websocket.Hub
	config  *config.Config

	stopHub    context.CancelFunc
	httpServer *http.Server
	mu         sync.Mutex
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := storage.NewDuckDBStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	backups, err := NewBackupService(ctx, cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	hub := websocket.NewHub(cfg.FrontendURL, cfg.SiteURL, "http://localhost:5173")
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	s := &Server{
		router:  chi.NewRouter(),
		storage: store,
		backups: backups,
		wsHub:   hub,
		config:  cfg,
		stopHub: stopHub,
	}

	s.setupMiddleware()
	s.setupRoutes(handlers.New(store, backups, hub, cfg.SiteURL))

	return s, nil
}

// NewBackupService builds the backup service described by cfg, uploading to
// S3 when a bucket is configured. extra options are applied last.
func NewBackupService(ctx context.Context, cfg *config.Config, src backup.Source, extra ...backup.ServiceOption) (*backup.Service, error) {
	opts := []backup.ServiceOption{
		backup.WithHistory(backup.NewHistory(cfg.Backup.History)),
		backup.WithLocation(cfg.Location()),
		backup.WithCRC32(cfg.Backup.CRC32),
	}

	if s3 := cfg.Backup.S3; s3.Enabled() {
		target, err := backup.NewS3Target(ctx, backup.S3Config{
			Bucket:          s3.Bucket,
			Prefix:          s3.Prefix,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			ForcePathStyle:  s3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring backup upload: %w", err)
		}
		opts = append(opts, backup.WithUploader(target))
	}

	return backup.NewService(src, append(opts, extra...)...), nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendURL, s.config.SiteURL, "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Backup-Posts", "X-Backup-Leads", "X-Backup-Message"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Clients may gzip large post bodies; the limit applies after decompression
	s.router.Use(appMiddleware.Decompress)
	s.router.Use(appMiddleware.PayloadLimit(appMiddleware.MaxPayloadBytes))
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	log := logger.Logger()

	addr := fmt.Sprintf(":%d", s.config.APIPort)
	handler := h2c.NewHandler(s.router, &http2.Server{})

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// Disabled for the websocket feed and backup downloads
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	log.Info("API server starting",
		"addr", addr,
		"protocol", "HTTP/1.1 + h2c",
		"admin", s.config.AdminToken != "",
		"backup_upload", s.config.Backup.S3.Enabled(),
	)

	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down server")

	var errs []error

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down API server: %w", err))
		}
	}

	s.stopHub()

	if err := s.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}

	return errors.Join(errs...)
}
