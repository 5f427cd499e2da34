package models

import "time"

// Feedback is a comment on a passage (or on the whole site when PassageID
// is nil). Replies point at their parent through ParentID.
type Feedback struct {
	ID          string      `json:"id" db:"id"`
	UserID      *string     `json:"user_id,omitempty" db:"user_id"`
	PassageID   *string     `json:"passage_id,omitempty" db:"passage_id"`
	Content     string      `json:"content" db:"content"`
	IsAnonymous bool        `json:"is_anonymous" db:"is_anonymous"`
	ParentID    *string     `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Replies     []*Feedback `json:"replies" db:"-"`
}

// FeedbackInput is the writable part of a feedback entry.
type FeedbackInput struct {
	PassageID   *string `json:"passage_id"`
	Content     string  `json:"content" binding:"required"`
	IsAnonymous bool    `json:"is_anonymous"`
	ParentID    *string `json:"parent_id"`
}

// Public returns a copy fit for other readers: anonymous entries, replies
// included, lose their author.
func (f *Feedback) Public() *Feedback {
	out := *f
	if out.IsAnonymous {
		out.UserID = nil
	}
	out.Replies = make([]*Feedback, 0, len(f.Replies))
	for _, r := range f.Replies {
		out.Replies = append(out.Replies, r.Public())
	}
	return &out
}
