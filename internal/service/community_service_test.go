package service_test

import (
	"context"
	"testing"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedCommunityPassage(t *testing.T, repos interfaces.Repositories) *models.Passage {
	t.Helper()
	ctx := context.Background()
	story := &models.Story{Name: "Community", IsActive: true, Zoom: 1}
	require.NoError(t, repos.Stories.Create(ctx, story))
	p := &models.Passage{StoryID: story.ID, Name: "Hall", PassageNumber: intPtr(1), PassageType: models.PassageTypeStart, Width: 200, Height: 100}
	require.NoError(t, repos.Passages.Create(ctx, p))
	return p
}

func TestBookmarkService(t *testing.T) {
	ctx := context.Background()
	repos := newSQLiteRepos(t)
	p := seedCommunityPassage(t, repos)
	svc := service.NewBookmarkService(repos, zap.NewNop())

	b, err := svc.AddBookmark(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hall", *b.PassageName)
	assert.Equal(t, p.StoryID, *b.StoryID)

	_, err = svc.AddBookmark(ctx, "u1", p.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyBookmarked)

	_, err = svc.AddBookmark(ctx, "u1", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	marks, err := svc.ListBookmarks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, b.ID, marks[0].ID)

	others, err := svc.ListBookmarks(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)

	assert.ErrorIs(t, svc.RemoveBookmark(ctx, "u2", p.ID), models.ErrNotFound)
	require.NoError(t, svc.RemoveBookmark(ctx, "u1", p.ID))
}

func TestFeedbackThreads(t *testing.T) {
	ctx := context.Background()
	repos := newSQLiteRepos(t)
	p := seedCommunityPassage(t, repos)
	svc := service.NewFeedbackService(repos, zap.NewNop())

	first, err := svc.CreateFeedback(ctx, models.FeedbackInput{PassageID: &p.ID, Content: "  Typo in line two  "}, strPtr("u1"))
	require.NoError(t, err)
	assert.Equal(t, "Typo in line two", first.Content)
	assert.NotNil(t, first.Replies)

	reply, err := svc.Reply(ctx, first.ID, models.FeedbackInput{Content: "Thanks", IsAnonymous: true}, strPtr("u2"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, *reply.PassageID, "replies inherit the passage")

	nested, err := svc.CreateFeedback(ctx, models.FeedbackInput{Content: "Agreed", ParentID: &reply.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, reply.ID, *nested.ParentID)

	second, err := svc.CreateFeedback(ctx, models.FeedbackInput{Content: "Site-wide note"}, nil)
	require.NoError(t, err)
	assert.Nil(t, second.PassageID)

	threads, err := svc.ListThreads(ctx, nil)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID, "newest thread first")
	assert.Empty(t, threads[0].Replies)
	require.Len(t, threads[1].Replies, 1)
	assert.Equal(t, reply.ID, threads[1].Replies[0].ID)
	require.Len(t, threads[1].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, threads[1].Replies[0].Replies[0].ID)

	onPassage, err := svc.ListThreads(ctx, &p.ID)
	require.NoError(t, err)
	require.Len(t, onPassage, 1)
	assert.Equal(t, first.ID, onPassage[0].ID)

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.CreateFeedback(ctx, models.FeedbackInput{Content: "   "}, nil)
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = svc.CreateFeedback(ctx, models.FeedbackInput{Content: "x", PassageID: strPtr("missing")}, nil)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = svc.Reply(ctx, "missing", models.FeedbackInput{Content: "x"}, nil)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Deletion rights", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteFeedback(ctx, first.ID, "u2", false), models.ErrForbidden)
		assert.ErrorIs(t, svc.DeleteFeedback(ctx, second.ID, "u1", false), models.ErrForbidden, "anonymous posts have no owner")
		require.NoError(t, svc.DeleteFeedback(ctx, second.ID, "admin", true))
		require.NoError(t, svc.DeleteFeedback(ctx, first.ID, "u1", false))

		threads, err := svc.ListThreads(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, threads)
	})
}

func TestAnalyticsService(t *testing.T) {
	ctx := context.Background()
	repos := newSQLiteRepos(t)
	p := seedCommunityPassage(t, repos)
	recorder := service.NewDirectVisitRecorder(repos.Visits, zap.NewNop())
	svc := service.NewAnalyticsService(repos)

	require.NoError(t, recorder.RecordVisit(ctx, service.NewVisitEvent(p, nil, strPtr("u1"))))
	require.NoError(t, recorder.RecordVisit(ctx, service.NewVisitEvent(p, nil, nil)))

	count, err := svc.PassageVisitCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = svc.PassageVisitCount(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	stats, err := svc.PassageStats(ctx, strPtr(""))
	require.NoError(t, err)
	assert.Equal(t, []models.PassageVisitStat{{PassageID: p.ID, PassageName: "Hall", VisitCount: 2}}, stats)

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalVisits)
	assert.Equal(t, 1, overview.TotalReaders)
}
