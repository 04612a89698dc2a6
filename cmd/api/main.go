// Command api runs the UpFrom HTTP API.
//
// @title UpFrom API
// @version 1.0
// @description Community platform backend: organizations, teams, events, and invitations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/upfrom/backend/config"
	_ "github.com/upfrom/backend/docs"
	"github.com/upfrom/backend/internal/adapters/auth"
	"github.com/upfrom/backend/internal/adapters/bus"
	"github.com/upfrom/backend/internal/adapters/chat"
	"github.com/upfrom/backend/internal/adapters/storage"
	delivery "github.com/upfrom/backend/internal/delivery/http"
	"github.com/upfrom/backend/internal/delivery/http/controllers"
	"github.com/upfrom/backend/internal/delivery/http/middleware"
	"github.com/upfrom/backend/internal/repository/cache"
	"github.com/upfrom/backend/internal/repository/postgres"
	"github.com/upfrom/backend/internal/services"
)

const serviceTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	// Repositories. Event reads go through the in-process cache.
	eventRepo := cache.NewEventCache(postgres.NewEventRepository(db))
	eventUserRepo := postgres.NewEventUserRepository(db)
	userRepo := postgres.NewUserRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	teamUserRepo := postgres.NewTeamUserRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)

	// Adapters.
	publisher := bus.NewAsynqPublisher(cfg.RedisAddr)
	fileStorage := storage.NewS3Storage(storage.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	chatService := chat.NewLogChat(logger)
	hasher := auth.NewBcryptHasher(12)
	tokens := auth.NewJWTCodec(cfg.JWTSecret)

	// Services.
	eventService := services.NewEventService(eventRepo, eventUserRepo, userRepo, fileStorage, publisher, logger, serviceTimeout)
	guestService := services.NewEventUserService(eventRepo, eventUserRepo, teamRepo, teamUserRepo, orgRepo, chatService, publisher, logger, serviceTimeout)
	teamService := services.NewTeamService(teamRepo, teamUserRepo, userRepo, serviceTimeout)
	orgService := services.NewOrganizationService(orgRepo, serviceTimeout)
	userService := services.NewUserService(userRepo, serviceTimeout)
	authService := services.NewAuthService(userRepo, hasher, tokens, serviceTimeout)

	mux := delivery.NewRouter(
		tokens,
		controllers.NewAuthController(logger, authService),
		controllers.NewEventController(logger, eventService),
		controllers.NewGuestController(logger, guestService),
		controllers.NewUserController(logger, userService),
		controllers.NewAdminController(logger, orgService, teamService, eventService, guestService),
	)

	var handler http.Handler = middleware.LoggingMiddleware(logger, mux)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("api stopped")
}
