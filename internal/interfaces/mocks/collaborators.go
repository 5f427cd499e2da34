package mocks

import (
	"context"

	"passage-server/internal/models"

	"github.com/stretchr/testify/mock"
)

type PassageNumberCache struct {
	mock.Mock
}

func (m *PassageNumberCache) Get(ctx context.Context, storyID string, number int) (string, bool, error) {
	args := m.Called(ctx, storyID, number)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *PassageNumberCache) Set(ctx context.Context, storyID string, number int, passageID string) error {
	args := m.Called(ctx, storyID, number, passageID)
	return args.Error(0)
}
func (m *PassageNumberCache) InvalidateStory(ctx context.Context, storyID string) error {
	args := m.Called(ctx, storyID)
	return args.Error(0)
}

type VisitRecorder struct {
	mock.Mock
}

func (m *VisitRecorder) RecordVisit(ctx context.Context, visit models.VisitEvent) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}
