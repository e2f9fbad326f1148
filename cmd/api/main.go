package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pfm-backend/internal/config"
	"pfm-backend/internal/db"
	"pfm-backend/internal/email"
	apihttp "pfm-backend/internal/http"
	"pfm-backend/internal/llm"
	"pfm-backend/internal/plaid"
	"pfm-backend/internal/repository"
	"pfm-backend/internal/service"
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

	logger := newLogger(cfg.AppEnv)
	defer logger.Sync()

	// Los montos se serializan como numeros JSON, no como strings.
	decimal.MarshalJSONWithoutQuotes = true

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	billRepo := repository.NewPgBillRepository(pool)
	goalRepo := repository.NewPgGoalRepository(pool)
	txRepo := repository.NewPgTransactionRepository(pool)

	var (
		limiter    service.AttemptLimiter
		tokenStore service.PendingTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			limiter = service.NewRedisAttemptLimiter(redisClient, cfg.TOTPWindow, cfg.TOTPMaxAttempts)
			tokenStore = service.NewRedisPendingTokenStore(redisClient)
		}
		cancel()
	}
	if limiter == nil {
		limiter = service.NewAttemptLimiter(cfg.TOTPWindow, cfg.TOTPMaxAttempts)
	}
	jwtSvc := service.NewJWTServiceWithStore(cfg.JWTSecret, service.SessionTokenTTL, service.PendingTokenTTL, tokenStore)

	emailSender, closeSender := newEmailSender(cfg, logger)
	defer closeSender()

	plaidClient := plaid.NewClient(cfg.PlaidEnv, cfg.PlaidClientID, cfg.PlaidSecret, logger)
	if !plaidClient.Configured() {
		logger.Warn("plaid credentials not configured")
	}
	var llmClient llm.LLMClient = llm.NewDisabledClient()
	if cfg.LLMAPIKey != "" {
		llmClient = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	} else {
		logger.Warn("llm api key not configured, advisor disabled")
	}

	userSvc := service.NewUserService(logger, userRepo, jwtSvc, cfg.BcryptCost)
	twoFactorSvc := service.NewTwoFactorService(logger, userRepo, jwtSvc, limiter)
	spendingSvc := service.NewSpendingService(logger, plaidClient, txRepo)
	bankSvc := service.NewBankService(logger, plaidClient, userRepo)
	insightsSvc := service.NewInsightsService(spendingSvc, bankSvc, goalRepo)
	budgetSvc := service.NewBudgetService(userRepo, spendingSvc)
	advisorSvc := service.NewAdvisorService(logger, llmClient, goalRepo, billRepo, spendingSvc)
	notificationSvc := service.NewNotificationService(
		logger, userRepo, billRepo, spendingSvc, emailSender,
		clock.WallClock, cfg.Location(), cfg.NotifyWorkers,
	)

	router := apihttp.NewRouter(
		logger,
		cfg.AllowedOrigins(),
		apihttp.JWTAuthMiddleware(logger, jwtSvc, userSvc),
		func(ctx context.Context) error { return db.Ping(ctx, pool) },
		apihttp.Handlers{
			Users:   apihttp.NewUserHandler(logger, userSvc, twoFactorSvc),
			Budgets: apihttp.NewBudgetHandler(logger, budgetSvc),
			Records: apihttp.NewRecordHandler(logger,
				service.NewBillService(billRepo),
				service.NewGoalService(goalRepo),
				service.NewTransactionService(txRepo),
			),
			Plaid:         apihttp.NewPlaidHandler(logger, bankSvc, spendingSvc, insightsSvc),
			Advisor:       apihttp.NewAdvisorHandler(logger, advisorSvc),
			Notifications: apihttp.NewNotificationHandler(logger, notificationSvc),
		},
	)

	if cfg.NotifyEnabled {
		scheduler := service.NewDailyScheduler(logger, clock.WallClock, cfg.Location(), cfg.NotifyHour, cfg.NotifyMinute, notificationSvc)
		go scheduler.Run(ctx)
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(appEnv string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if appEnv == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newEmailSender prefiere la cola (entrega asincrona por cmd/mail_sender), luego SMTP directo.
func newEmailSender(cfg *config.Config, logger *zap.Logger) (email.Sender, func()) {
	if cfg.RabbitMQURL != "" {
		queue, err := email.NewQueueSender(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err == nil {
			return queue, queue.Close
		}
		logger.Warn("rabbitmq sender init failed, falling back to smtp", zap.Error(err))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender, func() {}
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	return email.NewDisabledSender("email sender not configured"), func() {}
}
