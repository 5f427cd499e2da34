package handler

import (
	"net/http"

	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *PassageHandler) listActiveStories(c *gin.Context) {
	stories, err := h.authoring.ListStories(c.Request.Context(), false)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (h *PassageHandler) getActiveStory(c *gin.Context) {
	story, err := h.authoring.GetStory(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !story.IsActive {
		handleServiceError(c, models.ErrStoryInactive)
		return
	}
	c.JSON(http.StatusOK, story)
}

// respondWithContext loads the reader view of a passage and records the visit.
func (h *PassageHandler) respondWithContext(c *gin.Context, passageID string, previousPassageID *string) {
	nc, err := h.navigation.GetPassageWithContext(c.Request.Context(), passageID, previousPassageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.recordVisit(c, nc)
	c.JSON(http.StatusOK, newNavigationContextResponse(nc))
}

func (h *PassageHandler) getStart(c *gin.Context) {
	p, err := h.navigation.GetStartPassage(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondWithContext(c, p.ID, nil)
}

func (h *PassageHandler) getByName(c *gin.Context) {
	p, err := h.navigation.ResolvePassageName(c.Request.Context(), c.Param("story_id"), c.Param("name"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondWithContext(c, p.ID, previousPassageQuery(c))
}

func (h *PassageHandler) resolveReference(c *gin.Context) {
	p, err := h.navigation.ResolveReference(c.Request.Context(), c.Param("story_id"), c.Query("ref"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondWithContext(c, p.ID, previousPassageQuery(c))
}

// previousPassageQuery reads the optional previous_passage_id query parameter.
func previousPassageQuery(c *gin.Context) *string {
	if prev := c.Query("previous_passage_id"); prev != "" {
		return &prev
	}
	return nil
}

func (h *PassageHandler) getPassage(c *gin.Context) {
	h.respondWithContext(c, c.Param("passage_id"), previousPassageQuery(c))
}

func (h *PassageHandler) navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}

	nc, err := h.navigation.NavigateWithContext(c.Request.Context(), c.Param("passage_id"), req.LinkID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.recordVisit(c, nc)
	c.JSON(http.StatusOK, newNavigationContextResponse(nc))
}
