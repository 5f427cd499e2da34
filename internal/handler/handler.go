package handler

import (
	"context"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/middleware"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const visitRecordTimeout = 2 * time.Second

type PassageHandler struct {
	navigation interfaces.NavigationService
	authoring  interfaces.AuthoringService
	csv        interfaces.CSVService
	visits     interfaces.VisitRecorder
	verifier   middleware.TokenVerifier
	logger     *zap.Logger
}

// NewPassageHandler wires the HTTP surface. visits may be nil.
func NewPassageHandler(
	navigation interfaces.NavigationService,
	authoring interfaces.AuthoringService,
	csv interfaces.CSVService,
	visits interfaces.VisitRecorder,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) *PassageHandler {
	return &PassageHandler{
		navigation: navigation,
		authoring:  authoring,
		csv:        csv,
		visits:     visits,
		verifier:   verifier,
		logger:     logger.Named("PassageHandler"),
	}
}

func (h *PassageHandler) RegisterRoutes(router *gin.Engine) {
	reader := router.Group("/api")
	reader.Use(middleware.OptionalAuth(h.verifier, h.logger))
	{
		reader.GET("/stories", h.listActiveStories)
		reader.GET("/stories/:story_id", h.getActiveStory)
		reader.GET("/stories/:story_id/start", h.getStart)
		reader.GET("/stories/:story_id/passages/by-name/:name", h.getByName)
		reader.GET("/stories/:story_id/passages/resolve", h.resolveReference)
		reader.GET("/passages/:passage_id", h.getPassage)
		reader.POST("/passages/:passage_id/navigate", h.navigate)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireAuth(h.verifier, h.logger, models.RoleAdmin))
	{
		admin.GET("/stories", h.listStories)
		admin.POST("/stories", h.createStory)
		admin.POST("/reorder-stories", h.reorderStories)
		admin.GET("/stories/:story_id", h.getStory)
		admin.PUT("/stories/:story_id", h.updateStory)
		admin.DELETE("/stories/:story_id", h.deleteStory)
		admin.GET("/stories/:story_id/structure", h.getStoryStructure)

		admin.POST("/stories/:story_id/passages", h.createPassage)
		admin.PUT("/passages/:passage_id", h.updatePassage)
		admin.DELETE("/passages/:passage_id", h.deletePassage)

		admin.POST("/stories/:story_id/links", h.createLink)
		admin.PUT("/links/:link_id", h.updateLink)
		admin.DELETE("/links/:link_id", h.deleteLink)

		admin.GET("/stories/:story_id/export/passages", h.exportPassages)
		admin.GET("/stories/:story_id/export/links", h.exportLinks)
		admin.POST("/stories/:story_id/import/passages", h.importPassages)
		admin.POST("/stories/:story_id/import/links", h.importLinks)
	}
}

// recordVisit hands the visit to analytics. Failures are logged only.
func (h *PassageHandler) recordVisit(c *gin.Context, nc *models.NavigationContext) {
	if h.visits == nil || nc == nil || nc.Passage == nil {
		return
	}
	event := service.NewVisitEvent(nc.Passage, nc.PreviousPassageID, middleware.UserIDFromGin(c))

	ctx, cancel := context.WithTimeout(c.Request.Context(), visitRecordTimeout)
	defer cancel()
	if err := h.visits.RecordVisit(ctx, event); err != nil {
		visitRecordFailuresTotal.Inc()
		h.logger.Warn("Failed to record visit",
			zap.String("passageID", event.PassageID), zap.String("visitID", event.ID), zap.Error(err))
	}
}
