// mail_sender consume la cola de correos y los entrega por SMTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pfm-backend/internal/config"
	"pfm-backend/internal/email"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
	if err != nil {
		logger.Fatal("smtp sender init", zap.Error(err))
	}

	consumer, err := email.NewConsumer(cfg.RabbitMQURL, cfg.RabbitMQQueue, sender, logger)
	if err != nil {
		logger.Fatal("queue consumer init", zap.Error(err))
	}
	defer consumer.Close()

	logger.Info("mail sender started", zap.String("queue", cfg.RabbitMQQueue))
	if err := consumer.Run(ctx); err != nil {
		logger.Error("consumer stopped", zap.Error(err))
	}
}
