package mocks

import (
	"context"

	"passage-server/internal/models"

	"github.com/stretchr/testify/mock"
)

type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) List(ctx context.Context, includeInactive bool) ([]*models.Story, error) {
	args := m.Called(ctx, includeInactive)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) Update(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *StoryRepository) NextSortOrder(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *StoryRepository) Reorder(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type PassageRepository struct {
	mock.Mock
}

func (m *PassageRepository) Create(ctx context.Context, passage *models.Passage) error {
	args := m.Called(ctx, passage)
	return args.Error(0)
}
func (m *PassageRepository) GetByID(ctx context.Context, id string) (*models.Passage, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *PassageRepository) MaxPassageNumber(ctx context.Context, storyID string) (int, error) {
	args := m.Called(ctx, storyID)
	return args.Int(0), args.Error(1)
}
func (m *PassageRepository) FindByNumber(ctx context.Context, storyID string, number int) (*models.Passage, error) {
	args := m.Called(ctx, storyID, number)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *PassageRepository) FindByName(ctx context.Context, storyID, name string) (*models.Passage, error) {
	args := m.Called(ctx, storyID, name)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *PassageRepository) FindFirstStart(ctx context.Context, storyID string) (*models.Passage, error) {
	args := m.Called(ctx, storyID)
	p, _ := args.Get(0).(*models.Passage)
	return p, args.Error(1)
}
func (m *PassageRepository) ListByStory(ctx context.Context, storyID string) ([]*models.Passage, error) {
	args := m.Called(ctx, storyID)
	ps, _ := args.Get(0).([]*models.Passage)
	return ps, args.Error(1)
}
func (m *PassageRepository) Update(ctx context.Context, passage *models.Passage) error {
	args := m.Called(ctx, passage)
	return args.Error(0)
}
func (m *PassageRepository) Upsert(ctx context.Context, passage *models.Passage) (bool, error) {
	args := m.Called(ctx, passage)
	return args.Bool(0), args.Error(1)
}
func (m *PassageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type LinkRepository struct {
	mock.Mock
}

func (m *LinkRepository) Create(ctx context.Context, link *models.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}
func (m *LinkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Link)
	return l, args.Error(1)
}
func (m *LinkRepository) ListBySource(ctx context.Context, sourcePassageID string) ([]*models.Link, error) {
	args := m.Called(ctx, sourcePassageID)
	ls, _ := args.Get(0).([]*models.Link)
	return ls, args.Error(1)
}
func (m *LinkRepository) ListByStory(ctx context.Context, storyID string) ([]*models.Link, error) {
	args := m.Called(ctx, storyID)
	ls, _ := args.Get(0).([]*models.Link)
	return ls, args.Error(1)
}
func (m *LinkRepository) Update(ctx context.Context, link *models.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}
func (m *LinkRepository) Upsert(ctx context.Context, link *models.Link) (bool, error) {
	args := m.Called(ctx, link)
	return args.Bool(0), args.Error(1)
}
func (m *LinkRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type VisitLogRepository struct {
	mock.Mock
}

func (m *VisitLogRepository) Create(ctx context.Context, visit *models.VisitEvent) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}
func (m *VisitLogRepository) CountByPassage(ctx context.Context, passageID string) (int, error) {
	args := m.Called(ctx, passageID)
	return args.Int(0), args.Error(1)
}
func (m *VisitLogRepository) CountPerPassage(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error) {
	args := m.Called(ctx, storyID)
	stats, _ := args.Get(0).([]models.PassageVisitStat)
	return stats, args.Error(1)
}
func (m *VisitLogRepository) Overview(ctx context.Context) (*models.StatsOverview, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).(*models.StatsOverview)
	return o, args.Error(1)
}

type BookmarkRepository struct {
	mock.Mock
}

func (m *BookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	args := m.Called(ctx, bookmark)
	return args.Error(0)
}
func (m *BookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	args := m.Called(ctx, userID)
	bs, _ := args.Get(0).([]*models.Bookmark)
	return bs, args.Error(1)
}
func (m *BookmarkRepository) Delete(ctx context.Context, userID, passageID string) error {
	args := m.Called(ctx, userID, passageID)
	return args.Error(0)
}

type FeedbackRepository struct {
	mock.Mock
}

func (m *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}
func (m *FeedbackRepository) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*models.Feedback)
	return f, args.Error(1)
}
func (m *FeedbackRepository) List(ctx context.Context, passageID *string) ([]*models.Feedback, error) {
	args := m.Called(ctx, passageID)
	fs, _ := args.Get(0).([]*models.Feedback)
	return fs, args.Error(1)
}
func (m *FeedbackRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
