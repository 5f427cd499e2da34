package handler

import (
	"net/http"

	"passage-server/internal/interfaces"
	"passage-server/internal/middleware"
	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommunityHandler serves reader bookmarks and feedback threads.
type CommunityHandler struct {
	bookmarks interfaces.BookmarkService
	feedback  interfaces.FeedbackService
	verifier  middleware.TokenVerifier
	logger    *zap.Logger
}

func NewCommunityHandler(
	bookmarks interfaces.BookmarkService,
	feedback interfaces.FeedbackService,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) *CommunityHandler {
	return &CommunityHandler{
		bookmarks: bookmarks,
		feedback:  feedback,
		verifier:  verifier,
		logger:    logger.Named("CommunityHandler"),
	}
}

func (h *CommunityHandler) RegisterRoutes(router *gin.Engine) {
	bookmarks := router.Group("/api/bookmarks")
	bookmarks.Use(middleware.RequireAuth(h.verifier, h.logger))
	{
		bookmarks.GET("", h.listBookmarks)
		bookmarks.POST("/:passage_id", h.addBookmark)
		bookmarks.DELETE("/:passage_id", h.removeBookmark)
	}

	feedback := router.Group("/api/feedback")
	{
		feedback.GET("", middleware.OptionalAuth(h.verifier, h.logger), h.listFeedback)
		feedback.POST("", middleware.OptionalAuth(h.verifier, h.logger), h.createFeedback)
		feedback.POST("/:feedback_id/reply", middleware.OptionalAuth(h.verifier, h.logger), h.replyFeedback)
		feedback.DELETE("/:feedback_id", middleware.RequireAuth(h.verifier, h.logger), h.deleteFeedback)
	}
}

// requireUserID reads the id RequireAuth attached to the request.
func requireUserID(c *gin.Context) (string, bool) {
	userID := middleware.UserIDFromGin(c)
	if userID == nil {
		handleServiceError(c, models.ErrUnauthorized)
		return "", false
	}
	return *userID, true
}

func (h *CommunityHandler) listBookmarks(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	bookmarks, err := h.bookmarks.ListBookmarks(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks})
}

func (h *CommunityHandler) addBookmark(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	bookmark, err := h.bookmarks.AddBookmark(c.Request.Context(), userID, c.Param("passage_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookmark)
}

func (h *CommunityHandler) removeBookmark(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.bookmarks.RemoveBookmark(c.Request.Context(), userID, c.Param("passage_id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func publicFeedback(threads []*models.Feedback) []*models.Feedback {
	out := make([]*models.Feedback, 0, len(threads))
	for _, f := range threads {
		out = append(out, f.Public())
	}
	return out
}

func (h *CommunityHandler) listFeedback(c *gin.Context) {
	var passageID *string
	if id := c.Query("passage_id"); id != "" {
		passageID = &id
	}
	threads, err := h.feedback.ListThreads(c.Request.Context(), passageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": publicFeedback(threads)})
}

func (h *CommunityHandler) createFeedback(c *gin.Context) {
	var input models.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	f, err := h.feedback.CreateFeedback(c.Request.Context(), input, middleware.UserIDFromGin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f.Public())
}

func (h *CommunityHandler) replyFeedback(c *gin.Context) {
	var input models.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	f, err := h.feedback.Reply(c.Request.Context(), c.Param("feedback_id"), input, middleware.UserIDFromGin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f.Public())
}

func (h *CommunityHandler) deleteFeedback(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	roles, _ := models.GetRolesFromContext(c.Request.Context())
	err := h.feedback.DeleteFeedback(c.Request.Context(), c.Param("feedback_id"), userID, models.HasRole(roles, models.RoleAdmin))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
