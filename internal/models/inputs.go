package models

// StoryInput carries author edits. Nil fields are left unchanged on update;
// an empty StartPassageID clears the start passage.
type StoryInput struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	StartPassageID *string  `json:"start_passage_id"`
	IsActive       *bool    `json:"is_active"`
	Zoom           *float64 `json:"zoom"`
	Tags           []string `json:"tags"`
}

// PassageInput carries author edits to a passage. The passage number is not
// editable here; it is assigned on creation.
type PassageInput struct {
	Name        *string      `json:"name"`
	Content     *string      `json:"content"`
	PassageType *PassageType `json:"passage_type"`
	Tags        []string     `json:"tags"`
	PositionX   *float64     `json:"position_x"`
	PositionY   *float64     `json:"position_y"`
	Width       *float64     `json:"width"`
	Height      *float64     `json:"height"`
}

type LinkInput struct {
	SourcePassageID *string        `json:"source_passage_id"`
	TargetPassageID *string        `json:"target_passage_id"`
	Name            *string        `json:"name"`
	ConditionType   *ConditionType `json:"condition_type"`
	ConditionValue  *string        `json:"condition_value"`
	LinkOrder       *int           `json:"link_order"`
}
