package interfaces

import (
	"context"
	"io"

	"passage-server/internal/models"
)

// NavigationService is the reader-facing engine.
type NavigationService interface {
	GetStartPassage(ctx context.Context, storyID string) (*models.Passage, error)
	GetPassageWithContext(ctx context.Context, passageID string, previousPassageID *string) (*models.NavigationContext, error)
	// Navigate returns the target passage id of linkID, which must start at
	// currentPassageID.
	Navigate(ctx context.Context, currentPassageID, linkID string) (string, error)
	NavigateWithContext(ctx context.Context, currentPassageID, linkID string) (*models.NavigationContext, error)
	ResolveReference(ctx context.Context, storyID, reference string) (*models.Passage, error)
	ResolvePassageName(ctx context.Context, storyID, name string) (*models.Passage, error)
}

// AuthoringService covers the admin graph editor.
type AuthoringService interface {
	CreateStory(ctx context.Context, input models.StoryInput, createdBy *string) (*models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	ListStories(ctx context.Context, includeInactive bool) ([]*models.Story, error)
	UpdateStory(ctx context.Context, id string, input models.StoryInput) (*models.Story, error)
	DeleteStory(ctx context.Context, id string) error
	ReorderStories(ctx context.Context, ids []string) error
	GetStoryStructure(ctx context.Context, id string) (*models.StoryStructure, error)

	CreatePassage(ctx context.Context, storyID string, input models.PassageInput) (*models.Passage, error)
	UpdatePassage(ctx context.Context, id string, input models.PassageInput) (*models.Passage, error)
	DeletePassage(ctx context.Context, id string) error

	CreateLink(ctx context.Context, storyID string, input models.LinkInput) (*models.Link, error)
	UpdateLink(ctx context.Context, id string, input models.LinkInput) (*models.Link, error)
	DeleteLink(ctx context.Context, id string) error
}

// CSVService moves passages and links in and out as CSV.
type CSVService interface {
	ExportPassages(ctx context.Context, storyID string, w io.Writer) error
	ExportLinks(ctx context.Context, storyID string, w io.Writer) error
	ImportPassages(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error)
	ImportLinks(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error)
}

// BookmarkService keeps per-reader bookmarks.
type BookmarkService interface {
	ListBookmarks(ctx context.Context, userID string) ([]*models.Bookmark, error)
	AddBookmark(ctx context.Context, userID, passageID string) (*models.Bookmark, error)
	RemoveBookmark(ctx context.Context, userID, passageID string) error
}

// FeedbackService manages threaded reader feedback.
type FeedbackService interface {
	// ListThreads returns root entries newest first, each with its replies
	// nested oldest first.
	ListThreads(ctx context.Context, passageID *string) ([]*models.Feedback, error)
	CreateFeedback(ctx context.Context, input models.FeedbackInput, userID *string) (*models.Feedback, error)
	Reply(ctx context.Context, parentID string, input models.FeedbackInput, userID *string) (*models.Feedback, error)
	// DeleteFeedback is allowed to the author and to admins.
	DeleteFeedback(ctx context.Context, id, userID string, isAdmin bool) error
}

// AnalyticsService reads aggregated visit logs.
type AnalyticsService interface {
	Overview(ctx context.Context) (*models.StatsOverview, error)
	PassageStats(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error)
	PassageVisitCount(ctx context.Context, passageID string) (int, error)
}
