package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"balanceboard/internal/services"
)

// InsightHandler handles the spending-insight endpoint.
type InsightHandler struct {
	insightService services.InsightServicer
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(insightService services.InsightServicer) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// Get godoc
// @Summary Get spending insights
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]services.Insight
// @Router /insights [get]
func (h *InsightHandler) Get(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	insights := h.insightService.GetSpendingInsights(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}
