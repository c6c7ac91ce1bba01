package main

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/davidokumbo/cyberdocs/internal/config"
	"github.com/davidokumbo/cyberdocs/internal/database"
	"github.com/davidokumbo/cyberdocs/internal/handler"
	"github.com/davidokumbo/cyberdocs/internal/mailer"
	"github.com/davidokumbo/cyberdocs/internal/queue"
	"github.com/davidokumbo/cyberdocs/internal/repository"
	"github.com/davidokumbo/cyberdocs/internal/router"
	"github.com/davidokumbo/cyberdocs/internal/upload"
	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Development()})

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Init(ctx, db, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("schema init failed")
	}
	cancel()

	files, err := upload.NewStore(cfg.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("upload store init failed")
	}

	rdb := config.NewRedisClient()

	users := &repository.UserRepo{DB: db}
	tokens := &repository.ResetTokenRepo{DB: db}
	services := &repository.ServiceRepo{DB: db}
	documents := &repository.DocumentRepo{DB: db}

	mail := queue.NewPublisher(cfg.RabbitURL)
	smtp := &mailer.SMTP{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	}
	go queue.StartEmailConsumer(cfg.RabbitURL, smtp)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	router.Register(e, router.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		Auth:      handler.NewAuthHandler(cfg, users, tokens, mail),
		Users:     handler.NewUsersHandler(cfg, users),
		Services:  handler.NewServicesHandler(services, files),
		Documents: handler.NewDocumentsHandler(documents, files),
		Contact:   handler.NewContactHandler(cfg.MailFrom, mail),
		UserStore: users,
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
