package service_test

import (
	"context"
	"errors"
	"testing"

	"passage-server/internal/interfaces/mocks"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDirectVisitRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("Fills id and timestamp", func(t *testing.T) {
		visits := new(mocks.VisitLogRepository)
		recorder := service.NewDirectVisitRecorder(visits, zap.NewNop())

		visits.On("Create", ctx, mock.MatchedBy(func(v *models.VisitEvent) bool {
			return v.ID != "" && !v.VisitedAt.IsZero() && v.PassageID == "p1"
		})).Return(nil).Once()

		require.NoError(t, recorder.RecordVisit(ctx, models.VisitEvent{StoryID: "s1", PassageID: "p1"}))
		visits.AssertExpectations(t)
	})

	t.Run("Propagates store errors", func(t *testing.T) {
		visits := new(mocks.VisitLogRepository)
		recorder := service.NewDirectVisitRecorder(visits, zap.NewNop())
		boom := errors.New("disk full")
		visits.On("Create", ctx, mock.Anything).Return(boom)

		assert.ErrorIs(t, recorder.RecordVisit(ctx, models.VisitEvent{PassageID: "p1"}), boom)
	})

	t.Run("Same event stored once", func(t *testing.T) {
		repos := newSQLiteRepos(t)
		story := &models.Story{Name: "V", IsActive: true, Zoom: 1}
		require.NoError(t, repos.Stories.Create(ctx, story))
		p := &models.Passage{StoryID: story.ID, Name: "P", Width: 200, Height: 100}
		require.NoError(t, repos.Passages.Create(ctx, p))

		recorder := service.NewDirectVisitRecorder(repos.Visits, zap.NewNop())
		event := service.NewVisitEvent(p, nil, strPtr("user-1"))
		require.NoError(t, recorder.RecordVisit(ctx, event))
		require.NoError(t, recorder.RecordVisit(ctx, event))

		count, err := repos.Visits.CountByPassage(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
