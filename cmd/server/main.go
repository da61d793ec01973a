package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/database"
	"github.com/toshahriar/documenter/internal/docusign"
	"github.com/toshahriar/documenter/internal/handler"
	"github.com/toshahriar/documenter/internal/middleware"
	"github.com/toshahriar/documenter/internal/queue"
	"github.com/toshahriar/documenter/internal/repository"
	"github.com/toshahriar/documenter/internal/router"
	"github.com/toshahriar/documenter/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and token caching disabled")
	}

	publisher, err := queue.NewPublisher(cfg.RabbitURL, cfg.EmailQueue)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer publisher.Close()

	users := repository.NewUserRepo(db)
	sessions := repository.NewAuthTokenRepo(db)
	verifications := repository.NewVerificationTokenRepo(db)
	integrations := repository.NewDocusignIntegrationRepo(db)
	documents := repository.NewDocumentRepo(db)

	files := storage.New(cfg.UploadDir)
	signer := docusign.NewClient(cfg.Docusign, rdb)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(cfg.Debug)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, sessions, verifications, integrations, publisher),
		Document: handler.NewDocumentHandler(documents, files, signer),
		Docusign: handler.NewDocusignHandler(cfg, signer, integrations),
		Health:   handler.Health(cfg),
	}, cfg.JWTSecret, limit)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
