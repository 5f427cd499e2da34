package handler

import (
	"net/http"
	"strconv"

	"passage-server/internal/middleware"
	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
)

// --- Stories ---

func (h *PassageHandler) listStories(c *gin.Context) {
	includeInactive := true
	if raw := c.Query("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "include_inactive must be a boolean")
			return
		}
		includeInactive = v
	}
	stories, err := h.authoring.ListStories(c.Request.Context(), includeInactive)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (h *PassageHandler) createStory(c *gin.Context) {
	var input models.StoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	story, err := h.authoring.CreateStory(c.Request.Context(), input, middleware.UserIDFromGin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (h *PassageHandler) getStory(c *gin.Context) {
	story, err := h.authoring.GetStory(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *PassageHandler) updateStory(c *gin.Context) {
	var input models.StoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	story, err := h.authoring.UpdateStory(c.Request.Context(), c.Param("story_id"), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *PassageHandler) deleteStory(c *gin.Context) {
	if err := h.authoring.DeleteStory(c.Request.Context(), c.Param("story_id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PassageHandler) reorderStories(c *gin.Context) {
	var req reorderStoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	if err := h.authoring.ReorderStories(c.Request.Context(), req.StoryIDs); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PassageHandler) getStoryStructure(c *gin.Context) {
	structure, err := h.authoring.GetStoryStructure(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	links := structure.Links
	if links == nil {
		links = []*models.Link{}
	}
	c.JSON(http.StatusOK, storyStructureResponse{
		Story:    structure.Story,
		Passages: newPassageResponses(structure.Passages),
		Links:    links,
	})
}

// --- Passages ---

func (h *PassageHandler) createPassage(c *gin.Context) {
	var input models.PassageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	p, err := h.authoring.CreatePassage(c.Request.Context(), c.Param("story_id"), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPassageResponse(p))
}

func (h *PassageHandler) updatePassage(c *gin.Context) {
	var input models.PassageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	p, err := h.authoring.UpdatePassage(c.Request.Context(), c.Param("passage_id"), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPassageResponse(p))
}

func (h *PassageHandler) deletePassage(c *gin.Context) {
	if err := h.authoring.DeletePassage(c.Request.Context(), c.Param("passage_id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Links ---

func (h *PassageHandler) createLink(c *gin.Context) {
	var input models.LinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	link, err := h.authoring.CreateLink(c.Request.Context(), c.Param("story_id"), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *PassageHandler) updateLink(c *gin.Context) {
	var input models.LinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, bindErrorMessage(err))
		return
	}
	link, err := h.authoring.UpdateLink(c.Request.Context(), c.Param("link_id"), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *PassageHandler) deleteLink(c *gin.Context) {
	if err := h.authoring.DeleteLink(c.Request.Context(), c.Param("link_id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
