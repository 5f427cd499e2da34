package handler

import "passage-server/internal/models"

type passageResponse struct {
	*models.Passage
	Reference string `json:"reference,omitempty"`
}

func newPassageResponse(p *models.Passage) passageResponse {
	return passageResponse{Passage: p, Reference: p.Reference()}
}

func newPassageResponses(ps []*models.Passage) []passageResponse {
	out := make([]passageResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, newPassageResponse(p))
	}
	return out
}

type navigationContextResponse struct {
	Passage           passageResponse `json:"passage"`
	Links             []*models.Link  `json:"links"`
	PreviousPassageID *string         `json:"previous_passage_id,omitempty"`
	IsEnd             bool            `json:"is_end"`
}

func newNavigationContextResponse(nc *models.NavigationContext) navigationContextResponse {
	links := nc.Links
	if links == nil {
		links = []*models.Link{}
	}
	return navigationContextResponse{
		Passage:           newPassageResponse(nc.Passage),
		Links:             links,
		PreviousPassageID: nc.PreviousPassageID,
		IsEnd:             nc.IsEnd,
	}
}

type storyStructureResponse struct {
	Story    *models.Story     `json:"story"`
	Passages []passageResponse `json:"passages"`
	Links    []*models.Link    `json:"links"`
}

type navigateRequest struct {
	LinkID string `json:"link_id" binding:"required"`
}

type reorderStoriesRequest struct {
	StoryIDs []string `json:"story_ids" binding:"required,min=1"`
}
