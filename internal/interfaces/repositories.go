package interfaces

import (
	"context"

	"passage-server/internal/models"
)

//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	// GetByID returns models.ErrNotFound when the story does not exist.
	GetByID(ctx context.Context, id string) (*models.Story, error)
	// List orders by sort_order ASC, created_at DESC.
	List(ctx context.Context, includeInactive bool) ([]*models.Story, error)
	Update(ctx context.Context, story *models.Story) error
	// Delete cascades to the story's passages and links.
	Delete(ctx context.Context, id string) error
	NextSortOrder(ctx context.Context) (int, error)
	// Reorder assigns sort_order 0..n-1 to ids in one transaction.
	Reorder(ctx context.Context, ids []string) error
}

//go:generate mockery --name PassageRepository --output ./mocks --outpkg mocks --case=underscore
type PassageRepository interface {
	// Create inserts the passage atomically. A collision on
	// (story_id, passage_number) yields models.ErrPassageNumberTaken and
	// leaves the store unchanged.
	Create(ctx context.Context, passage *models.Passage) error
	GetByID(ctx context.Context, id string) (*models.Passage, error)
	// MaxPassageNumber returns 0 for a story without numbered passages.
	MaxPassageNumber(ctx context.Context, storyID string) (int, error)
	FindByNumber(ctx context.Context, storyID string, number int) (*models.Passage, error)
	// FindByName returns the first exact match ordered by
	// passage_number ASC NULLS LAST, created_at, id.
	FindByName(ctx context.Context, storyID, name string) (*models.Passage, error)
	// FindFirstStart returns the first passage of type start, same ordering
	// as FindByName.
	FindFirstStart(ctx context.Context, storyID string) (*models.Passage, error)
	ListByStory(ctx context.Context, storyID string) ([]*models.Passage, error)
	// Update changes everything except story_id and passage_number.
	Update(ctx context.Context, passage *models.Passage) error
	// Upsert writes every field including passage_number. Reports whether
	// a new row was created.
	Upsert(ctx context.Context, passage *models.Passage) (created bool, err error)
	Delete(ctx context.Context, id string) error
}

//go:generate mockery --name LinkRepository --output ./mocks --outpkg mocks --case=underscore
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id string) (*models.Link, error)
	// ListBySource orders by link_order ASC, id ASC.
	ListBySource(ctx context.Context, sourcePassageID string) ([]*models.Link, error)
	// ListByStory orders by source_passage_id, link_order, id.
	ListByStory(ctx context.Context, storyID string) ([]*models.Link, error)
	Update(ctx context.Context, link *models.Link) error
	Upsert(ctx context.Context, link *models.Link) (created bool, err error)
	Delete(ctx context.Context, id string) error
}

//go:generate mockery --name VisitLogRepository --output ./mocks --outpkg mocks --case=underscore
type VisitLogRepository interface {
	Create(ctx context.Context, visit *models.VisitEvent) error
	CountByPassage(ctx context.Context, passageID string) (int, error)
	// CountPerPassage groups visits by passage, optionally within one story.
	// Visits of deleted passages are skipped. Ordered by visit_count DESC,
	// passage_id ASC.
	CountPerPassage(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error)
	Overview(ctx context.Context) (*models.StatsOverview, error)
}

//go:generate mockery --name BookmarkRepository --output ./mocks --outpkg mocks --case=underscore
type BookmarkRepository interface {
	// Create returns models.ErrAlreadyBookmarked for a duplicate
	// (user_id, passage_id) pair.
	Create(ctx context.Context, bookmark *models.Bookmark) error
	// ListByUser orders newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error)
	// Delete returns models.ErrNotFound when nothing was removed.
	Delete(ctx context.Context, userID, passageID string) error
}

//go:generate mockery --name FeedbackRepository --output ./mocks --outpkg mocks --case=underscore
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	// List returns flat rows, roots and replies alike, ordered by
	// created_at, id. A non-nil passageID keeps one passage's rows.
	List(ctx context.Context, passageID *string) ([]*models.Feedback, error)
	// Delete cascades to replies.
	Delete(ctx context.Context, id string) error
}

// Repositories bundles one store backend.
type Repositories struct {
	Stories   StoryRepository
	Passages  PassageRepository
	Links     LinkRepository
	Visits    VisitLogRepository
	Bookmarks BookmarkRepository
	Feedback  FeedbackRepository
}
