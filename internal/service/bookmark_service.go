package service

import (
	"context"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"go.uber.org/zap"
)

type bookmarkServiceImpl struct {
	bookmarks interfaces.BookmarkRepository
	passages  interfaces.PassageRepository
	logger    *zap.Logger
}

var _ interfaces.BookmarkService = (*bookmarkServiceImpl)(nil)

func NewBookmarkService(repos interfaces.Repositories, logger *zap.Logger) interfaces.BookmarkService {
	return &bookmarkServiceImpl{
		bookmarks: repos.Bookmarks,
		passages:  repos.Passages,
		logger:    logger.Named("BookmarkService"),
	}
}

func (s *bookmarkServiceImpl) ListBookmarks(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	return s.bookmarks.ListByUser(ctx, userID)
}

func (s *bookmarkServiceImpl) AddBookmark(ctx context.Context, userID, passageID string) (*models.Bookmark, error) {
	passage, err := s.passages.GetByID(ctx, passageID)
	if err != nil {
		return nil, err
	}
	b := &models.Bookmark{
		UserID:      userID,
		PassageID:   passage.ID,
		PassageName: &passage.Name,
		StoryID:     &passage.StoryID,
	}
	if err := s.bookmarks.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("Bookmark added", zap.String("userID", userID), zap.String("passageID", passageID))
	return b, nil
}

func (s *bookmarkServiceImpl) RemoveBookmark(ctx context.Context, userID, passageID string) error {
	return s.bookmarks.Delete(ctx, userID, passageID)
}
