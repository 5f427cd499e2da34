package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinPassageNumber = 1
	MaxPassageNumber = 999999

	referencePrefix    = "#"
	maxReferenceDigits = 6
)

// PassageReference is a parsed human reference: either "#<number>" or a
// literal passage name.
type PassageReference struct {
	Number int
	Name   string
}

func (r PassageReference) IsNumber() bool { return r.Number > 0 }

// ParsePassageReference parses "#" followed by 1-6 decimal digits as a
// number in [1, 999999]. Anything not starting with "#" is a name.
func ParsePassageReference(ref string) (PassageReference, error) {
	if !strings.HasPrefix(ref, referencePrefix) {
		if ref == "" {
			return PassageReference{}, fmt.Errorf("%w: empty reference", ErrInvalidReference)
		}
		return PassageReference{Name: ref}, nil
	}

	digits := ref[len(referencePrefix):]
	if len(digits) == 0 || len(digits) > maxReferenceDigits {
		return PassageReference{}, fmt.Errorf("%w: %q must have 1 to %d digits", ErrInvalidReference, ref, maxReferenceDigits)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return PassageReference{}, fmt.Errorf("%w: %q is not numeric", ErrInvalidReference, ref)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return PassageReference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if n < MinPassageNumber || n > MaxPassageNumber {
		return PassageReference{}, fmt.Errorf("%w: %d out of range", ErrInvalidReference, n)
	}
	return PassageReference{Number: n}, nil
}
