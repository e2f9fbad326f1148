package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers agrupa los handlers montados por NewRouter.
type Handlers struct {
	Users         *UserHandler
	Budgets       *BudgetHandler
	Records       *RecordHandler
	Plaid         *PlaidHandler
	Advisor       *AdvisorHandler
	Notifications *NotificationHandler
}

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	allowedOrigins []string,
	auth gin.HandlerFunc,
	ping func(ctx context.Context) error,
	h Handlers,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(allowedOrigins), jsonContentTypeMiddleware())

	r.GET("/health", healthHandler(ping))

	api := r.Group("/api")

	users := api.Group("/users")
	users.POST("/register", h.Users.Register)
	users.POST("/login", h.Users.Login)
	users.POST("/login/verify-2fa", h.Users.VerifyLogin)
	users.PUT("/profile", auth, h.Users.UpdateProfile)
	users.PUT("/profile/change-password", auth, h.Users.ChangePassword)
	users.POST("/2fa/generate", auth, h.Users.Generate2FA)
	users.POST("/2fa/verify", auth, h.Users.Verify2FA)
	users.POST("/2fa/disable", auth, h.Users.Disable2FA)

	budgets := api.Group("/budgets", auth)
	budgets.GET("", h.Budgets.List)
	budgets.POST("", h.Budgets.Set)
	budgets.GET("/status", h.Budgets.Status)

	bills := api.Group("/bills", auth)
	bills.GET("", h.Records.ListBills)
	bills.POST("", h.Records.CreateBill)

	goals := api.Group("/goals", auth)
	goals.GET("", h.Records.ListGoals)
	goals.POST("", h.Records.CreateGoal)
	goals.PUT("/:id", h.Records.UpdateGoal)

	txs := api.Group("/transactions", auth)
	txs.GET("", h.Records.ListTransactions)
	txs.POST("", h.Records.CreateTransaction)
	txs.GET("/export", h.Records.ExportTransactions)

	plaid := api.Group("/plaid", auth)
	plaid.POST("/create_link_token", h.Plaid.CreateLinkToken)
	plaid.POST("/exchange_public_token", h.Plaid.ExchangePublicToken)
	plaid.GET("/transactions", h.Plaid.Transactions)
	plaid.GET("/accounts", h.Plaid.Accounts)
	plaid.GET("/summary", h.Plaid.Summary)
	plaid.GET("/monthly-summary", h.Plaid.MonthlySummary)
	plaid.GET("/net-worth", h.Plaid.NetWorth)
	plaid.GET("/health-score", h.Plaid.HealthScore)

	api.POST("/ai/ask", auth, h.Advisor.Ask)
	api.POST("/notifications/run", auth, h.Notifications.Run)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware permite solo los origenes configurados; requests sin Origin pasan.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
