package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoryInactive hides inactive stories from readers as NotFound.
	ErrStoryInactive = fmt.Errorf("%w: story is not active", ErrNotFound)

	// ErrInvalidReference is a malformed "#NNNNNN" reference or a number
	// outside [MinPassageNumber, MaxPassageNumber].
	ErrInvalidReference = errors.New("invalid passage reference")

	// ErrPassageNumberTaken is returned by the store when an insert or
	// update collides with the (story_id, passage_number) constraint.
	ErrPassageNumberTaken = errors.New("passage number already used in this story")

	// ErrNumberingConflict means the allocator ran out of attempts.
	ErrNumberingConflict = errors.New("could not allocate passage number under contention")

	ErrInvalidNavigation  = errors.New("invalid navigation")
	ErrLinkNotFound       = fmt.Errorf("%w: link does not exist", ErrInvalidNavigation)
	ErrLinkSourceMismatch = fmt.Errorf("%w: link does not start at the current passage", ErrInvalidNavigation)

	ErrAlreadyBookmarked = errors.New("passage is already bookmarked")

	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")
)
