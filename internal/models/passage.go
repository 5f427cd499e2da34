package models

import (
	"fmt"
	"time"
)

type PassageType string

const (
	PassageTypeStart   PassageType = "start"
	PassageTypeContent PassageType = "content"
	PassageTypeBranch  PassageType = "branch"
	PassageTypeEnd     PassageType = "end"
)

func (t PassageType) Valid() bool {
	switch t {
	case PassageTypeStart, PassageTypeContent, PassageTypeBranch, PassageTypeEnd:
		return true
	}
	return false
}

const (
	DefaultPassageWidth  = 200.0
	DefaultPassageHeight = 100.0
)

// Passage is a single node of content within a story.
type Passage struct {
	ID            string      `json:"id" db:"id"`
	StoryID       string      `json:"story_id" db:"story_id"`
	PassageNumber *int        `json:"passage_number,omitempty" db:"passage_number"`
	Name          string      `json:"name" db:"name"`
	Content       string      `json:"content" db:"content"`
	PassageType   PassageType `json:"passage_type" db:"passage_type"`
	Tags          []string    `json:"tags" db:"tags"`
	PositionX     float64     `json:"position_x" db:"position_x"`
	PositionY     float64     `json:"position_y" db:"position_y"`
	Width         float64     `json:"width" db:"width"`
	Height        float64     `json:"height" db:"height"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Reference returns the shareable "#000042" form, or "" when the passage
// has no number yet.
func (p *Passage) Reference() string {
	if p.PassageNumber == nil {
		return ""
	}
	return FormatPassageNumber(*p.PassageNumber)
}

func FormatPassageNumber(n int) string {
	return fmt.Sprintf("#%06d", n)
}
