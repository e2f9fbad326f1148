package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfm-backend/internal/service"
)

type NotificationHandler struct {
	logger *zap.Logger
	runner service.NotificationRunner
}

func NewNotificationHandler(logger *zap.Logger, runner service.NotificationRunner) *NotificationHandler {
	return &NotificationHandler{logger: logger, runner: runner}
}

// Run maneja POST /api/notifications/run: dispara la misma corrida que el scheduler.
func (h *NotificationHandler) Run(c *gin.Context) {
	report, err := h.runner.RunChecks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Notification run failed")
		return
	}
	c.JSON(http.StatusOK, report)
}
