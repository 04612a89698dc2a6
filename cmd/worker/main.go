// Command worker consumes the notification queue and delivers email.
package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"

	"github.com/upfrom/backend/config"
	"github.com/upfrom/backend/internal/adapters/email"
	"github.com/upfrom/backend/internal/repository/postgres"
	"github.com/upfrom/backend/internal/services"
	"github.com/upfrom/backend/internal/worker"
)

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

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
		SES: email.SESConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	handler := worker.NewHandler(
		postgres.NewEventRepository(db),
		postgres.NewEventUserRepository(db),
		postgres.NewUserRepository(db),
		emailService,
		logger,
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{Concurrency: 10},
	)

	logger.Info("worker starting", "redis", cfg.RedisAddr, "env", cfg.Environment)
	if err := srv.Run(worker.NewMux(handler)); err != nil {
		logger.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}
