package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigationErrorsShareParent(t *testing.T) {
	assert.ErrorIs(t, ErrLinkNotFound, ErrInvalidNavigation)
	assert.ErrorIs(t, ErrLinkSourceMismatch, ErrInvalidNavigation)
	assert.NotErrorIs(t, ErrLinkNotFound, ErrLinkSourceMismatch)

	wrapped := fmt.Errorf("navigate p1 via l1: %w", ErrLinkSourceMismatch)
	assert.ErrorIs(t, wrapped, ErrInvalidNavigation)
}
