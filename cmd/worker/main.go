package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/task_manager/internal/config"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/mail"
	"github.com/Skotchmaster/task_manager/internal/mykafka"
)

// worker drains the email_jobs topic and delivers each message over SMTP.
func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName+"_mailer")
	slog.SetDefault(logger)

	consumer, err := mykafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, mykafka.TopicEmailJobs, logger)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := mail.NewSMTPSender(cfg.Mail)
	logger.Info("worker_started", "topic", mykafka.TopicEmailJobs, "group", cfg.KafkaGroupID)
	if err := consumer.Run(logging.IntoContext(ctx, logger), mail.Handler(sender)); err != nil {
		logger.Error("worker_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker_stopped")
}
