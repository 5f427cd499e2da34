package models

import "time"

// NavigationContext describes a passage as seen by a reader who arrived
// from PreviousPassageID.
type NavigationContext struct {
	Passage           *Passage `json:"passage"`
	Links             []*Link  `json:"links"`
	PreviousPassageID *string  `json:"previous_passage_id,omitempty"`
	IsEnd             bool     `json:"is_end"`
}

// VisitEvent is handed to the analytics side after a passage is shown.
type VisitEvent struct {
	ID                string    `json:"id"`
	UserID            *string   `json:"user_id,omitempty"`
	StoryID           string    `json:"story_id"`
	PassageID         string    `json:"passage_id"`
	PreviousPassageID *string   `json:"previous_passage_id,omitempty"`
	VisitedAt         time.Time `json:"visited_at"`
}
