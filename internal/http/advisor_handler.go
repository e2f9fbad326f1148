package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfm-backend/internal/service"
)

type AdvisorHandler struct {
	logger  *zap.Logger
	advisor *service.AdvisorService
}

func NewAdvisorHandler(logger *zap.Logger, advisor *service.AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{logger: logger, advisor: advisor}
}

// Ask maneja POST /api/ai/ask.
func (h *AdvisorHandler) Ask(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		UserPrompt string `json:"userPrompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please ask a question.")
		return
	}
	answer, err := h.advisor.Ask(c.Request.Context(), user, req.UserPrompt)
	if err != nil {
		respondError(c, h.logger, err, "AI is sleeping, please try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}
