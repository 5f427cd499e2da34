package models

import "time"

// Story is a named collection of passages and links.
type Story struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    *string   `json:"description,omitempty" db:"description"`
	StartPassageID *string   `json:"start_passage_id,omitempty" db:"start_passage_id"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	Zoom           float64   `json:"zoom" db:"zoom"`
	Tags           []string  `json:"tags" db:"tags"`
	SortOrder      int       `json:"sort_order" db:"sort_order"`
	CreatedBy      *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// StoryStructure is a story with its whole graph, used by the editor.
type StoryStructure struct {
	Story    *Story     `json:"story"`
	Passages []*Passage `json:"passages"`
	Links    []*Link    `json:"links"`
}
