package service_test

import (
	"context"
	"errors"
	"testing"

	"passage-server/internal/interfaces"
	"passage-server/internal/interfaces/mocks"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type navFixture struct {
	stories  *mocks.StoryRepository
	passages *mocks.PassageRepository
	links    *mocks.LinkRepository
	cache    *mocks.PassageNumberCache
	svc      interfaces.NavigationService
}

func newNavFixture(withCache bool) *navFixture {
	f := &navFixture{
		stories:  new(mocks.StoryRepository),
		passages: new(mocks.PassageRepository),
		links:    new(mocks.LinkRepository),
	}
	repos := interfaces.Repositories{Stories: f.stories, Passages: f.passages, Links: f.links}
	var cache interfaces.PassageNumberCache
	if withCache {
		f.cache = new(mocks.PassageNumberCache)
		cache = f.cache
	}
	f.svc = service.NewNavigationService(repos, cache, zap.NewNop())
	return f
}

func intPtr(n int) *int { return &n }

func TestGetStartPassage(t *testing.T) {
	ctx := context.Background()

	t.Run("Designated start passage", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(&models.Story{ID: "s1", StartPassageID: strPtr("p9")}, nil)
		f.passages.On("GetByID", ctx, "p9").Return(&models.Passage{ID: "p9", StoryID: "s1"}, nil)

		p, err := f.svc.GetStartPassage(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "p9", p.ID)
		f.passages.AssertNotCalled(t, "FindFirstStart", ctx, "s1")
	})

	t.Run("Falls back when designated passage is missing", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(&models.Story{ID: "s1", StartPassageID: strPtr("gone")}, nil)
		f.passages.On("GetByID", ctx, "gone").Return(nil, models.ErrNotFound)
		f.passages.On("FindFirstStart", ctx, "s1").Return(&models.Passage{ID: "p1", StoryID: "s1"}, nil)

		p, err := f.svc.GetStartPassage(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
	})

	t.Run("Falls back when designated passage is in another story", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(&models.Story{ID: "s1", StartPassageID: strPtr("foreign")}, nil)
		f.passages.On("GetByID", ctx, "foreign").Return(&models.Passage{ID: "foreign", StoryID: "s2"}, nil)
		f.passages.On("FindFirstStart", ctx, "s1").Return(&models.Passage{ID: "p1", StoryID: "s1"}, nil)

		p, err := f.svc.GetStartPassage(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
	})

	t.Run("No start passage at all", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(&models.Story{ID: "s1"}, nil)
		f.passages.On("FindFirstStart", ctx, "s1").Return(nil, models.ErrNotFound)

		_, err := f.svc.GetStartPassage(ctx, "s1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Unknown story", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "nope").Return(nil, models.ErrNotFound)

		_, err := f.svc.GetStartPassage(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestGetPassageWithContext(t *testing.T) {
	ctx := context.Background()
	links := []*models.Link{
		{ID: "l1", SourcePassageID: "b", TargetPassageID: "c", ConditionType: models.ConditionAlways, LinkOrder: 0},
		{ID: "l2", SourcePassageID: "b", TargetPassageID: "d", ConditionType: models.ConditionPreviousPassage, ConditionValue: strPtr("a"), LinkOrder: 1},
		{ID: "l3", SourcePassageID: "b", TargetPassageID: "e", ConditionType: "unknown", LinkOrder: 2},
	}

	t.Run("Filters by previous passage", func(t *testing.T) {
		f := newNavFixture(false)
		f.passages.On("GetByID", ctx, "b").Return(&models.Passage{ID: "b", StoryID: "s1", PassageType: models.PassageTypeBranch}, nil)
		f.links.On("ListBySource", ctx, "b").Return(links, nil)

		nc, err := f.svc.GetPassageWithContext(ctx, "b", strPtr("a"))
		require.NoError(t, err)
		require.Len(t, nc.Links, 2)
		assert.Equal(t, "l1", nc.Links[0].ID)
		assert.Equal(t, "l2", nc.Links[1].ID)
		assert.Equal(t, "a", *nc.PreviousPassageID)
		assert.False(t, nc.IsEnd)

		nc, err = f.svc.GetPassageWithContext(ctx, "b", nil)
		require.NoError(t, err)
		require.Len(t, nc.Links, 1)
		assert.Equal(t, "l1", nc.Links[0].ID)
		assert.Nil(t, nc.PreviousPassageID)
	})

	t.Run("End passage", func(t *testing.T) {
		f := newNavFixture(false)
		f.passages.On("GetByID", ctx, "z").Return(&models.Passage{ID: "z", PassageType: models.PassageTypeEnd}, nil)
		f.links.On("ListBySource", ctx, "z").Return([]*models.Link{}, nil)

		nc, err := f.svc.GetPassageWithContext(ctx, "z", nil)
		require.NoError(t, err)
		assert.True(t, nc.IsEnd)
		assert.Empty(t, nc.Links)
	})

	t.Run("Content passage with every link hidden", func(t *testing.T) {
		f := newNavFixture(false)
		f.passages.On("GetByID", ctx, "m").Return(&models.Passage{ID: "m", StoryID: "s1", PassageType: models.PassageTypeContent}, nil)
		f.links.On("ListBySource", ctx, "m").Return([]*models.Link{
			{ID: "l9", SourcePassageID: "m", TargetPassageID: "n", ConditionType: models.ConditionPreviousPassage, ConditionValue: strPtr("X")},
		}, nil)

		nc, err := f.svc.GetPassageWithContext(ctx, "m", nil)
		require.NoError(t, err)
		assert.Empty(t, nc.Links)
		assert.True(t, nc.IsEnd)

		nc, err = f.svc.GetPassageWithContext(ctx, "m", strPtr("X"))
		require.NoError(t, err)
		assert.Len(t, nc.Links, 1)
		assert.False(t, nc.IsEnd)
	})

	t.Run("Missing passage", func(t *testing.T) {
		f := newNavFixture(false)
		f.passages.On("GetByID", ctx, "x").Return(nil, models.ErrNotFound)

		_, err := f.svc.GetPassageWithContext(ctx, "x", nil)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()

	t.Run("Follows a link from the current passage", func(t *testing.T) {
		f := newNavFixture(false)
		f.links.On("GetByID", ctx, "l1").Return(&models.Link{ID: "l1", SourcePassageID: "a", TargetPassageID: "b"}, nil)

		target, err := f.svc.Navigate(ctx, "a", "l1")
		require.NoError(t, err)
		assert.Equal(t, "b", target)
	})

	t.Run("Unknown link", func(t *testing.T) {
		f := newNavFixture(false)
		f.links.On("GetByID", ctx, "missing").Return(nil, models.ErrNotFound)

		_, err := f.svc.Navigate(ctx, "a", "missing")
		assert.ErrorIs(t, err, models.ErrLinkNotFound)
		assert.ErrorIs(t, err, models.ErrInvalidNavigation)
	})

	t.Run("Link of another passage", func(t *testing.T) {
		f := newNavFixture(false)
		f.links.On("GetByID", ctx, "l1").Return(&models.Link{ID: "l1", SourcePassageID: "other", TargetPassageID: "b"}, nil)

		_, err := f.svc.Navigate(ctx, "a", "l1")
		assert.ErrorIs(t, err, models.ErrLinkSourceMismatch)
		assert.ErrorIs(t, err, models.ErrInvalidNavigation)
		assert.False(t, errors.Is(err, models.ErrLinkNotFound))
	})

	t.Run("With context sets previous to current", func(t *testing.T) {
		f := newNavFixture(false)
		f.links.On("GetByID", ctx, "l1").Return(&models.Link{ID: "l1", SourcePassageID: "a", TargetPassageID: "b"}, nil)
		f.passages.On("GetByID", ctx, "b").Return(&models.Passage{ID: "b", PassageType: models.PassageTypeContent}, nil)
		f.links.On("ListBySource", ctx, "b").Return([]*models.Link{
			{ID: "back", SourcePassageID: "b", TargetPassageID: "a", ConditionType: models.ConditionPreviousPassage, ConditionValue: strPtr("a")},
		}, nil)

		nc, err := f.svc.NavigateWithContext(ctx, "a", "l1")
		require.NoError(t, err)
		assert.Equal(t, "b", nc.Passage.ID)
		require.NotNil(t, nc.PreviousPassageID)
		assert.Equal(t, "a", *nc.PreviousPassageID)
		require.Len(t, nc.Links, 1)
	})
}

func TestResolveReference(t *testing.T) {
	ctx := context.Background()
	active := &models.Story{ID: "s1", IsActive: true}

	t.Run("Malformed reference", func(t *testing.T) {
		f := newNavFixture(false)
		for _, ref := range []string{"", "#", "#abc", "#0", "#1234567", "#-1"} {
			_, err := f.svc.ResolveReference(ctx, "s1", ref)
			assert.ErrorIs(t, err, models.ErrInvalidReference, ref)
		}
		f.stories.AssertNotCalled(t, "GetByID", ctx, "s1")
	})

	t.Run("Inactive story", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(&models.Story{ID: "s1", IsActive: false}, nil)

		_, err := f.svc.ResolveReference(ctx, "s1", "#000001")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Number without cache", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(active, nil)
		f.passages.On("FindByNumber", ctx, "s1", 42).Return(&models.Passage{ID: "p42", StoryID: "s1", PassageNumber: intPtr(42)}, nil)

		p, err := f.svc.ResolveReference(ctx, "s1", "#000042")
		require.NoError(t, err)
		assert.Equal(t, "p42", p.ID)
	})

	t.Run("Name", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(active, nil)
		f.passages.On("FindByName", ctx, "s1", "Cellar").Return(&models.Passage{ID: "pc", StoryID: "s1"}, nil)

		p, err := f.svc.ResolveReference(ctx, "s1", "Cellar")
		require.NoError(t, err)
		assert.Equal(t, "pc", p.ID)
	})

	t.Run("Cache hit verified against store", func(t *testing.T) {
		f := newNavFixture(true)
		f.stories.On("GetByID", ctx, "s1").Return(active, nil)
		f.cache.On("Get", ctx, "s1", 7).Return("p7", true, nil)
		f.passages.On("GetByID", ctx, "p7").Return(&models.Passage{ID: "p7", StoryID: "s1", PassageNumber: intPtr(7)}, nil)

		p, err := f.svc.ResolveReference(ctx, "s1", "#7")
		require.NoError(t, err)
		assert.Equal(t, "p7", p.ID)
		f.passages.AssertNotCalled(t, "FindByNumber", ctx, "s1", 7)
	})

	t.Run("Stale cache entry is refreshed", func(t *testing.T) {
		f := newNavFixture(true)
		f.stories.On("GetByID", ctx, "s1").Return(active, nil)
		f.cache.On("Get", ctx, "s1", 7).Return("old", true, nil)
		f.passages.On("GetByID", ctx, "old").Return(nil, models.ErrNotFound)
		f.passages.On("FindByNumber", ctx, "s1", 7).Return(&models.Passage{ID: "new", StoryID: "s1", PassageNumber: intPtr(7)}, nil)
		f.cache.On("Set", ctx, "s1", 7, "new").Return(nil).Once()

		p, err := f.svc.ResolveReference(ctx, "s1", "#7")
		require.NoError(t, err)
		assert.Equal(t, "new", p.ID)
		f.cache.AssertExpectations(t)
	})

	t.Run("Cache failure does not fail the lookup", func(t *testing.T) {
		f := newNavFixture(true)
		f.stories.On("GetByID", ctx, "s1").Return(active, nil)
		f.cache.On("Get", ctx, "s1", 3).Return("", false, errors.New("redis down"))
		f.passages.On("FindByNumber", ctx, "s1", 3).Return(&models.Passage{ID: "p3", StoryID: "s1", PassageNumber: intPtr(3)}, nil)
		f.cache.On("Set", ctx, "s1", 3, "p3").Return(errors.New("redis down"))

		p, err := f.svc.ResolveReference(ctx, "s1", "#3")
		require.NoError(t, err)
		assert.Equal(t, "p3", p.ID)
	})

	t.Run("Unknown number", func(t *testing.T) {
		f := newNavFixture(false)
		f.stories.On("GetByID", ctx, "s1").Return(active, nil)
		f.passages.On("FindByNumber", ctx, "s1", 999999).Return(nil, models.ErrNotFound)

		_, err := f.svc.ResolveReference(ctx, "s1", "#999999")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestResolvePassageName(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(false)
	f.stories.On("GetByID", ctx, "s1").Return(&models.Story{ID: "s1", IsActive: true}, nil)
	f.passages.On("FindByName", ctx, "s1", "#not-a-number").Return(&models.Passage{ID: "odd"}, nil)

	p, err := f.svc.ResolvePassageName(ctx, "s1", "#not-a-number")
	require.NoError(t, err)
	assert.Equal(t, "odd", p.ID)

	_, err = f.svc.ResolvePassageName(ctx, "s1", "")
	assert.ErrorIs(t, err, models.ErrInvalidReference)
}
