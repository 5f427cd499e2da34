package handler

import (
	"net/http"

	"passage-server/internal/interfaces"
	"passage-server/internal/middleware"
	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyticsHandler exposes visit statistics to admins.
type AnalyticsHandler struct {
	analytics interfaces.AnalyticsService
	verifier  middleware.TokenVerifier
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics interfaces.AnalyticsService, verifier middleware.TokenVerifier, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		verifier:  verifier,
		logger:    logger.Named("AnalyticsHandler"),
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireAuth(h.verifier, h.logger, models.RoleAdmin))
	{
		admin.GET("/stats/overview", h.overview)
		admin.GET("/stats/passages", h.passageStats)
		admin.GET("/passages/:passage_id/stats", h.passageVisitCount)
	}
}

func (h *AnalyticsHandler) overview(c *gin.Context) {
	overview, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) passageStats(c *gin.Context) {
	var storyID *string
	if id := c.Query("story_id"); id != "" {
		storyID = &id
	}
	stats, err := h.analytics.PassageStats(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passages": stats})
}

func (h *AnalyticsHandler) passageVisitCount(c *gin.Context) {
	passageID := c.Param("passage_id")
	count, err := h.analytics.PassageVisitCount(c.Request.Context(), passageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passage_id": passageID, "visit_count": count})
}
