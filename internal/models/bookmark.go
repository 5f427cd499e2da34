package models

import "time"

// Bookmark marks a passage for one reader. PassageName and StoryID are
// filled from the passage when listing.
type Bookmark struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	PassageID   string    `json:"passage_id" db:"passage_id"`
	PassageName *string   `json:"passage_name,omitempty" db:"passage_name"`
	StoryID     *string   `json:"story_id,omitempty" db:"story_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
