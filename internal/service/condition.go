package service

import "passage-server/internal/models"

// IsLinkVisible decides whether a link with condition cond is shown to a
// reader who arrived from previousPassageID (nil when unknown). Anything
// it cannot interpret, including models.UnknownCondition, is hidden.
func IsLinkVisible(cond models.Condition, previousPassageID *string) bool {
	switch c := cond.(type) {
	case models.AlwaysCondition:
		return true
	case models.UserSelectionCondition:
		return true
	case models.PreviousPassageCondition:
		return previousPassageID != nil && *previousPassageID == c.PassageID
	default:
		// unknown condition types stay hidden until the reader knows them
		return false
	}
}

// VisibleLinks filters links, keeping their order.
func VisibleLinks(links []*models.Link, previousPassageID *string) []*models.Link {
	visible := make([]*models.Link, 0, len(links))
	for _, l := range links {
		if IsLinkVisible(l.Condition(), previousPassageID) {
			visible = append(visible, l)
		}
	}
	return visible
}

// validateCondition rejects conditions that could never be shown.
func validateCondition(t models.ConditionType, value *string) error {
	switch cond := models.DecodeCondition(t, value).(type) {
	case models.UnknownCondition:
		if cond.Raw == models.ConditionPreviousPassage {
			return invalidInput("previous_passage condition requires condition_value")
		}
		return invalidInput("unknown condition_type %q", string(cond.Raw))
	}
	return nil
}
