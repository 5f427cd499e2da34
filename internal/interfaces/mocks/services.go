package mocks

import (
	"context"
	"io"

	"passage-server/internal/models"

	"github.com/stretchr/testify/mock"
)

type NavigationService struct {
	mock.Mock
}

func (m *NavigationService) GetStartPassage(ctx context.Context, storyID string) (*models.Passage, error) {
	args := m.Called(ctx, storyID)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *NavigationService) GetPassageWithContext(ctx context.Context, passageID string, previousPassageID *string) (*models.NavigationContext, error) {
	args := m.Called(ctx, passageID, previousPassageID)
	nc, _ := args.Get(0).(*models.NavigationContext)
	return nc, args.Error(1)
}
func (m *NavigationService) Navigate(ctx context.Context, currentPassageID, linkID string) (string, error) {
	args := m.Called(ctx, currentPassageID, linkID)
	return args.String(0), args.Error(1)
}
func (m *NavigationService) NavigateWithContext(ctx context.Context, currentPassageID, linkID string) (*models.NavigationContext, error) {
	args := m.Called(ctx, currentPassageID, linkID)
	nc, _ := args.Get(0).(*models.NavigationContext)
	return nc, args.Error(1)
}
func (m *NavigationService) ResolveReference(ctx context.Context, storyID, reference string) (*models.Passage, error) {
	args := m.Called(ctx, storyID, reference)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *NavigationService) ResolvePassageName(ctx context.Context, storyID, name string) (*models.Passage, error) {
	args := m.Called(ctx, storyID, name)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}

type AuthoringService struct {
	mock.Mock
}

func (m *AuthoringService) CreateStory(ctx context.Context, input models.StoryInput, createdBy *string) (*models.Story, error) {
	args := m.Called(ctx, input, createdBy)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}
func (m *AuthoringService) GetStory(ctx context.Context, id string) (*models.Story, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}
func (m *AuthoringService) ListStories(ctx context.Context, includeInactive bool) ([]*models.Story, error) {
	args := m.Called(ctx, includeInactive)
	ss, _ := args.Get(0).([]*models.Story)
	return ss, args.Error(1)
}
func (m *AuthoringService) UpdateStory(ctx context.Context, id string, input models.StoryInput) (*models.Story, error) {
	args := m.Called(ctx, id, input)
	s, _ := args.Get(0).(*models.Story)
	return s, args.Error(1)
}
func (m *AuthoringService) DeleteStory(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *AuthoringService) ReorderStories(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}
func (m *AuthoringService) GetStoryStructure(ctx context.Context, id string) (*models.StoryStructure, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.StoryStructure)
	return s, args.Error(1)
}
func (m *AuthoringService) CreatePassage(ctx context.Context, storyID string, input models.PassageInput) (*models.Passage, error) {
	args := m.Called(ctx, storyID, input)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *AuthoringService) UpdatePassage(ctx context.Context, id string, input models.PassageInput) (*models.Passage, error) {
	args := m.Called(ctx, id, input)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *AuthoringService) DeletePassage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *AuthoringService) CreateLink(ctx context.Context, storyID string, input models.LinkInput) (*models.Link, error) {
	args := m.Called(ctx, storyID, input)
	l, _ := args.Get(0).(*models.Link)
	return l, args.Error(1)
}
func (m *AuthoringService) UpdateLink(ctx context.Context, id string, input models.LinkInput) (*models.Link, error) {
	args := m.Called(ctx, id, input)
	l, _ := args.Get(0).(*models.Link)
	return l, args.Error(1)
}
func (m *AuthoringService) DeleteLink(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type CSVService struct {
	mock.Mock
}

func (m *CSVService) ExportPassages(ctx context.Context, storyID string, w io.Writer) error {
	args := m.Called(ctx, storyID, w)
	return args.Error(0)
}
func (m *CSVService) ExportLinks(ctx context.Context, storyID string, w io.Writer) error {
	args := m.Called(ctx, storyID, w)
	return args.Error(0)
}
func (m *CSVService) ImportPassages(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error) {
	args := m.Called(ctx, storyID, r)
	res, _ := args.Get(0).(*models.ImportResult)
	return res, args.Error(1)
}
func (m *CSVService) ImportLinks(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error) {
	args := m.Called(ctx, storyID, r)
	res, _ := args.Get(0).(*models.ImportResult)
	return res, args.Error(1)
}

type BookmarkService struct {
	mock.Mock
}

func (m *BookmarkService) ListBookmarks(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	args := m.Called(ctx, userID)
	bs, _ := args.Get(0).([]*models.Bookmark)
	return bs, args.Error(1)
}
func (m *BookmarkService) AddBookmark(ctx context.Context, userID, passageID string) (*models.Bookmark, error) {
	args := m.Called(ctx, userID, passageID)
	b, _ := args.Get(0).(*models.Bookmark)
	return b, args.Error(1)
}
func (m *BookmarkService) RemoveBookmark(ctx context.Context, userID, passageID string) error {
	args := m.Called(ctx, userID, passageID)
	return args.Error(0)
}

type FeedbackService struct {
	mock.Mock
}

func (m *FeedbackService) ListThreads(ctx context.Context, passageID *string) ([]*models.Feedback, error) {
	args := m.Called(ctx, passageID)
	fs, _ := args.Get(0).([]*models.Feedback)
	return fs, args.Error(1)
}
func (m *FeedbackService) CreateFeedback(ctx context.Context, input models.FeedbackInput, userID *string) (*models.Feedback, error) {
	args := m.Called(ctx, input, userID)
	f, _ := args.Get(0).(*models.Feedback)
	return f, args.Error(1)
}
func (m *FeedbackService) Reply(ctx context.Context, parentID string, input models.FeedbackInput, userID *string) (*models.Feedback, error) {
	args := m.Called(ctx, parentID, input, userID)
	f, _ := args.Get(0).(*models.Feedback)
	return f, args.Error(1)
}
func (m *FeedbackService) DeleteFeedback(ctx context.Context, id, userID string, isAdmin bool) error {
	args := m.Called(ctx, id, userID, isAdmin)
	return args.Error(0)
}

type AnalyticsService struct {
	mock.Mock
}

func (m *AnalyticsService) Overview(ctx context.Context) (*models.StatsOverview, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).(*models.StatsOverview)
	return o, args.Error(1)
}
func (m *AnalyticsService) PassageStats(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error) {
	args := m.Called(ctx, storyID)
	stats, _ := args.Get(0).([]models.PassageVisitStat)
	return stats, args.Error(1)
}
func (m *AnalyticsService) PassageVisitCount(ctx context.Context, passageID string) (int, error) {
	args := m.Called(ctx, passageID)
	return args.Int(0), args.Error(1)
}
