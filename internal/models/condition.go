package models

type ConditionType string

const (
	ConditionAlways          ConditionType = "always"
	ConditionPreviousPassage ConditionType = "previous_passage"
	ConditionUserSelection   ConditionType = "user_selection"
)

// Condition is the decoded form of a link's visibility rule. The concrete
// types below are the only implementations.
type Condition interface {
	Type() ConditionType
	isCondition()
}

type AlwaysCondition struct{}

// PreviousPassageCondition is satisfied when the reader arrived from PassageID.
type PreviousPassageCondition struct {
	PassageID string
}

type UserSelectionCondition struct{}

// UnknownCondition holds anything that could not be decoded: an
// unrecognised discriminator, or previous_passage without a value.
type UnknownCondition struct {
	Raw ConditionType
}

func (AlwaysCondition) Type() ConditionType          { return ConditionAlways }
func (PreviousPassageCondition) Type() ConditionType { return ConditionPreviousPassage }
func (UserSelectionCondition) Type() ConditionType   { return ConditionUserSelection }
func (c UnknownCondition) Type() ConditionType       { return c.Raw }

func (AlwaysCondition) isCondition()          {}
func (PreviousPassageCondition) isCondition() {}
func (UserSelectionCondition) isCondition()   {}
func (UnknownCondition) isCondition()         {}

// DecodeCondition maps a stored (type, value) pair onto a Condition.
func DecodeCondition(t ConditionType, value *string) Condition {
	switch t {
	case ConditionAlways:
		return AlwaysCondition{}
	case ConditionUserSelection:
		return UserSelectionCondition{}
	case ConditionPreviousPassage:
		if value == nil || *value == "" {
			return UnknownCondition{Raw: t}
		}
		return PreviousPassageCondition{PassageID: *value}
	default:
		return UnknownCondition{Raw: t}
	}
}

// EncodeCondition is the inverse of DecodeCondition for known conditions.
func EncodeCondition(c Condition) (ConditionType, *string) {
	switch v := c.(type) {
	case PreviousPassageCondition:
		id := v.PassageID
		return ConditionPreviousPassage, &id
	case nil:
		return ConditionAlways, nil
	default:
		return c.Type(), nil
	}
}
