package models

// Link is a directed, conditionally visible edge between two passages.
type Link struct {
	ID              string        `json:"id" db:"id"`
	StoryID         string        `json:"story_id" db:"story_id"`
	SourcePassageID string        `json:"source_passage_id" db:"source_passage_id"`
	TargetPassageID string        `json:"target_passage_id" db:"target_passage_id"`
	Name            *string       `json:"name,omitempty" db:"name"`
	ConditionType   ConditionType `json:"condition_type" db:"condition_type"`
	ConditionValue  *string       `json:"condition_value,omitempty" db:"condition_value"`
	LinkOrder       int           `json:"link_order" db:"link_order"`
}

// Condition decodes the stored discriminator and value.
func (l *Link) Condition() Condition {
	return DecodeCondition(l.ConditionType, l.ConditionValue)
}
