package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"passage-server/internal/interfaces/mocks"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateWithNextNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns max plus one", func(t *testing.T) {
		passages := new(mocks.PassageRepository)
		allocator := service.NewPassageNumberAllocator(passages, 3, zap.NewNop())

		passages.On("MaxPassageNumber", ctx, "story-1").Return(41, nil).Once()
		passages.On("Create", ctx, mock.MatchedBy(func(p *models.Passage) bool {
			return p.PassageNumber != nil && *p.PassageNumber == 42
		})).Return(nil).Once()

		p := &models.Passage{StoryID: "story-1", Name: "Intro"}
		require.NoError(t, allocator.CreateWithNextNumber(ctx, p))
		require.NotNil(t, p.PassageNumber)
		assert.Equal(t, 42, *p.PassageNumber)
		assert.Equal(t, "#000042", p.Reference())
		passages.AssertExpectations(t)
	})

	t.Run("Retries after a collision", func(t *testing.T) {
		passages := new(mocks.PassageRepository)
		allocator := service.NewPassageNumberAllocator(passages, 3, zap.NewNop())

		passages.On("MaxPassageNumber", ctx, "story-1").Return(0, nil).Once()
		passages.On("Create", ctx, mock.Anything).Return(models.ErrPassageNumberTaken).Once()
		passages.On("MaxPassageNumber", ctx, "story-1").Return(1, nil).Once()
		passages.On("Create", ctx, mock.Anything).Return(nil).Once()

		p := &models.Passage{StoryID: "story-1", Name: "Intro"}
		require.NoError(t, allocator.CreateWithNextNumber(ctx, p))
		assert.Equal(t, 2, *p.PassageNumber)
		passages.AssertExpectations(t)
	})

	t.Run("Gives up after max attempts", func(t *testing.T) {
		passages := new(mocks.PassageRepository)
		allocator := service.NewPassageNumberAllocator(passages, 3, zap.NewNop())

		passages.On("MaxPassageNumber", ctx, "story-1").Return(7, nil).Times(3)
		passages.On("Create", ctx, mock.Anything).Return(models.ErrPassageNumberTaken).Times(3)

		p := &models.Passage{StoryID: "story-1", Name: "Intro"}
		err := allocator.CreateWithNextNumber(ctx, p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNumberingConflict))
		assert.Nil(t, p.PassageNumber)
		passages.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("Other store errors are not retried", func(t *testing.T) {
		passages := new(mocks.PassageRepository)
		allocator := service.NewPassageNumberAllocator(passages, 3, zap.NewNop())
		boom := errors.New("connection reset")

		passages.On("MaxPassageNumber", ctx, "story-1").Return(0, nil).Once()
		passages.On("Create", ctx, mock.Anything).Return(boom).Once()

		err := allocator.CreateWithNextNumber(ctx, &models.Passage{StoryID: "story-1", Name: "Intro"})
		assert.ErrorIs(t, err, boom)
		passages.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("Zero attempts falls back to the default", func(t *testing.T) {
		passages := new(mocks.PassageRepository)
		allocator := service.NewPassageNumberAllocator(passages, 0, zap.NewNop())

		passages.On("MaxPassageNumber", ctx, "story-1").Return(0, nil)
		passages.On("Create", ctx, mock.Anything).Return(models.ErrPassageNumberTaken)

		err := allocator.CreateWithNextNumber(ctx, &models.Passage{StoryID: "story-1", Name: "Intro"})
		assert.ErrorIs(t, err, models.ErrNumberingConflict)
		passages.AssertNumberOfCalls(t, "Create", service.DefaultPassageNumberAttempts)
	})
}

func TestCreateWithNextNumberConcurrentSQLite(t *testing.T) {
	ctx := context.Background()
	repos := newSQLiteRepos(t)

	story := &models.Story{Name: "Race", IsActive: true, Zoom: 1}
	require.NoError(t, repos.Stories.Create(ctx, story))

	const writers = 6
	allocator := service.NewPassageNumberAllocator(repos.Passages, writers, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = allocator.CreateWithNextNumber(ctx, &models.Passage{
				StoryID: story.ID, Name: "p", Width: 200, Height: 100,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	passages, err := repos.Passages.ListByStory(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, passages, writers)

	numbers := make([]int, 0, writers)
	for _, p := range passages {
		require.NotNil(t, p.PassageNumber)
		numbers = append(numbers, *p.PassageNumber)
	}
	sort.Ints(numbers)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, numbers)
}
