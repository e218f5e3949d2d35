package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/psds-microservice/broadcast-service/internal/config"
	"github.com/psds-microservice/broadcast-service/internal/connection"
	"github.com/psds-microservice/broadcast-service/internal/database"
	"github.com/psds-microservice/broadcast-service/internal/handler"
	"github.com/psds-microservice/broadcast-service/internal/hub"
	"github.com/psds-microservice/broadcast-service/internal/platform"
	"github.com/psds-microservice/broadcast-service/internal/registry"
	"github.com/psds-microservice/broadcast-service/internal/repository"
	"github.com/psds-microservice/broadcast-service/internal/router"
	"github.com/psds-microservice/broadcast-service/internal/service"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	hub *hub.StatusHub
}

// NewAPI creates the API application: validates config, runs migrations, opens DB, builds router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN(), cfg.AppEnv)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cipher, err := connection.NewAESCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	connections := connection.NewService(db, cipher)
	factory := platform.NewFactory(nil, cfg.JitsiServerURL)
	clients := registry.New(connections, factory, logger)

	statusHub := hub.NewStatusHub(logger)
	sessions := repository.NewSessions(db)
	series := repository.NewSeries(db)
	orchestrator := service.NewOrchestrator(sessions, clients, statusHub, logger,
		cfg.PlatformCallTimeout, cfg.StrictStartTransition)
	meetings := service.NewMeetingService(series)

	sessionHandler := handler.NewSessionHandler(orchestrator)
	connectionHandler := handler.NewConnectionHandler(connections, clients)
	meetingHandler := handler.NewMeetingHandler(meetings)
	statusWS := handler.NewStatusWSHandler(statusHub, orchestrator, logger)
	health := handler.NewHealthHandler()

	r := router.New(sessionHandler, connectionHandler, meetingHandler, statusWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: statusHub}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Sessions:      %s/sessions", base)
	log.Printf("  Connections:   %s/connections", base)
	log.Printf("  Meetings:      %s/meetings", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws/sessions/:session_id", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
