package database_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"passage-server/internal/database"
	"passage-server/internal/interfaces"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const testDBName = "passages_test"

type PostgresSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	dsn         string
	pool        *pgxpool.Pool
	repos       interfaces.Repositories
	logger      *zap.Logger
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	s.dsn, err = s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	require.NoError(s.T(), database.ApplyMigrations(s.dsn, s.logger))

	s.pool, err = database.ConnectPostgres(s.ctx, database.PoolConfig{
		DSN:        s.dsn,
		MaxConns:   10,
		MaxRetries: 5,
		RetryDelay: time.Second,
	}, s.logger)
	require.NoError(s.T(), err)
	s.repos = database.NewRepositories(s.pool, s.logger)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE feedback, bookmarks, visit_logs, links, passages, stories`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) seedStory(name string) *models.Story {
	story := &models.Story{Name: name, IsActive: true, Zoom: 1}
	s.Require().NoError(s.repos.Stories.Create(s.ctx, story))
	return story
}

func intPtr(n int) *int { return &n }

func (s *PostgresSuite) TestPassageNumberConstraint() {
	story := s.seedStory("Numbers")
	other := s.seedStory("Other")

	s.Require().NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "a", PassageNumber: intPtr(1)}))

	err := s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "b", PassageNumber: intPtr(1)})
	s.ErrorIs(err, models.ErrPassageNumberTaken)

	s.NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: other.ID, Name: "a", PassageNumber: intPtr(1)}),
		"numbers are scoped per story")
	s.NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "unnumbered"}))
	s.NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "unnumbered too"}),
		"several passages may lack a number")

	max, err := s.repos.Passages.MaxPassageNumber(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal(1, max)

	p, err := s.repos.Passages.FindByNumber(s.ctx, story.ID, 1)
	s.Require().NoError(err)
	s.Equal("a", p.Name)

	_, err = s.repos.Passages.FindByNumber(s.ctx, story.ID, 2)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *PostgresSuite) TestPassageRequiresExistingStory() {
	err := s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: uuid.NewString(), Name: "orphan"})
	s.ErrorIs(err, models.ErrInvalidInput)
}

func (s *PostgresSuite) TestConcurrentAllocationYieldsDistinctNumbers() {
	story := s.seedStory("Race")
	const writers = 8
	allocator := service.NewPassageNumberAllocator(s.repos.Passages, writers, s.logger)

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- allocator.CreateWithNextNumber(s.ctx, &models.Passage{StoryID: story.ID, Name: fmt.Sprintf("p%d", i)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	passages, err := s.repos.Passages.ListByStory(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Require().Len(passages, writers)
	seen := make(map[int]bool)
	for _, p := range passages {
		s.Require().NotNil(p.PassageNumber)
		s.False(seen[*p.PassageNumber], "duplicate number %d", *p.PassageNumber)
		seen[*p.PassageNumber] = true
	}
	for n := 1; n <= writers; n++ {
		s.True(seen[n], "number %d missing", n)
	}
}

func (s *PostgresSuite) TestFindByNameAndStartOrdering() {
	story := s.seedStory("Names")
	s.Require().NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "Hall", PassageType: models.PassageTypeStart}))
	s.Require().NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "Hall", PassageNumber: intPtr(5), PassageType: models.PassageTypeStart}))
	s.Require().NoError(s.repos.Passages.Create(s.ctx, &models.Passage{StoryID: story.ID, Name: "Hall", PassageNumber: intPtr(2)}))

	p, err := s.repos.Passages.FindByName(s.ctx, story.ID, "Hall")
	s.Require().NoError(err)
	s.Equal(2, *p.PassageNumber)

	start, err := s.repos.Passages.FindFirstStart(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal(5, *start.PassageNumber, "numbered passages sort before unnumbered ones")

	_, err = s.repos.Passages.FindByName(s.ctx, story.ID, "hall")
	s.ErrorIs(err, models.ErrNotFound, "names match exactly")
}

func (s *PostgresSuite) TestLinksOrderAndCascade() {
	story := s.seedStory("Links")
	a := &models.Passage{StoryID: story.ID, Name: "a", PassageNumber: intPtr(1)}
	b := &models.Passage{StoryID: story.ID, Name: "b", PassageNumber: intPtr(2)}
	s.Require().NoError(s.repos.Passages.Create(s.ctx, a))
	s.Require().NoError(s.repos.Passages.Create(s.ctx, b))

	second := &models.Link{StoryID: story.ID, SourcePassageID: a.ID, TargetPassageID: b.ID, ConditionType: models.ConditionAlways, LinkOrder: 2}
	first := &models.Link{StoryID: story.ID, SourcePassageID: a.ID, TargetPassageID: b.ID, ConditionType: models.ConditionUserSelection, LinkOrder: 1}
	s.Require().NoError(s.repos.Links.Create(s.ctx, second))
	s.Require().NoError(s.repos.Links.Create(s.ctx, first))

	links, err := s.repos.Links.ListBySource(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(links, 2)
	s.Equal(first.ID, links[0].ID)
	s.Equal(second.ID, links[1].ID)

	s.Require().NoError(s.repos.Passages.Delete(s.ctx, b.ID))
	links, err = s.repos.Links.ListBySource(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(links, "links into a deleted passage go with it")

	s.Require().NoError(s.repos.Stories.Delete(s.ctx, story.ID))
	_, err = s.repos.Passages.GetByID(s.ctx, a.ID)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *PostgresSuite) TestUpsertReportsCreated() {
	story := s.seedStory("Upsert")
	p := &models.Passage{ID: uuid.NewString(), StoryID: story.ID, Name: "first", PassageNumber: intPtr(3)}

	created, err := s.repos.Passages.Upsert(s.ctx, p)
	s.Require().NoError(err)
	s.True(created)

	p.Name = "renamed"
	created, err = s.repos.Passages.Upsert(s.ctx, p)
	s.Require().NoError(err)
	s.False(created)

	got, err := s.repos.Passages.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("renamed", got.Name)

	_, err = s.repos.Passages.Upsert(s.ctx, &models.Passage{ID: uuid.NewString(), StoryID: story.ID, Name: "clash", PassageNumber: intPtr(3)})
	s.ErrorIs(err, models.ErrPassageNumberTaken)
}

func (s *PostgresSuite) TestReorderStories() {
	a := s.seedStory("A")
	b := s.seedStory("B")
	c := s.seedStory("C")

	s.Require().NoError(s.repos.Stories.Reorder(s.ctx, []string{c.ID, a.ID, b.ID}))
	stories, err := s.repos.Stories.List(s.ctx, true)
	s.Require().NoError(err)
	s.Require().Len(stories, 3)
	s.Equal([]string{c.ID, a.ID, b.ID}, []string{stories[0].ID, stories[1].ID, stories[2].ID})

	next, err := s.repos.Stories.NextSortOrder(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, next)
}

func (s *PostgresSuite) TestVisitLogIsIdempotent() {
	story := s.seedStory("Visits")
	p := &models.Passage{StoryID: story.ID, Name: "a", PassageNumber: intPtr(1)}
	s.Require().NoError(s.repos.Passages.Create(s.ctx, p))

	visit := service.NewVisitEvent(p, nil, nil)
	s.Require().NoError(s.repos.Visits.Create(s.ctx, &visit))
	s.Require().NoError(s.repos.Visits.Create(s.ctx, &visit))

	count, err := s.repos.Visits.CountByPassage(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// TestBackfillMigration runs in its own database so it can start from the
// pre-numbering schema.
func (s *PostgresSuite) TestBookmarksAndFeedback() {
	story := s.seedStory("Community")
	p := &models.Passage{StoryID: story.ID, Name: "Hall", PassageNumber: intPtr(1)}
	s.Require().NoError(s.repos.Passages.Create(s.ctx, p))

	s.Require().NoError(s.repos.Bookmarks.Create(s.ctx, &models.Bookmark{UserID: "u1", PassageID: p.ID}))
	s.ErrorIs(s.repos.Bookmarks.Create(s.ctx, &models.Bookmark{UserID: "u1", PassageID: p.ID}), models.ErrAlreadyBookmarked)
	s.ErrorIs(s.repos.Bookmarks.Create(s.ctx, &models.Bookmark{UserID: "u1", PassageID: uuid.NewString()}), models.ErrNotFound)

	marks, err := s.repos.Bookmarks.ListByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(marks, 1)
	s.Equal("Hall", *marks[0].PassageName)

	base := time.Now().UTC().Truncate(time.Microsecond)
	root := &models.Feedback{UserID: &marks[0].UserID, PassageID: &p.ID, Content: "root", CreatedAt: base}
	s.Require().NoError(s.repos.Feedback.Create(s.ctx, root))
	reply := &models.Feedback{PassageID: &p.ID, Content: "reply", IsAnonymous: true, ParentID: &root.ID, CreatedAt: base.Add(time.Second)}
	s.Require().NoError(s.repos.Feedback.Create(s.ctx, reply))
	s.ErrorIs(s.repos.Feedback.Create(s.ctx, &models.Feedback{Content: "x", ParentID: &p.ID}), models.ErrInvalidInput)

	rows, err := s.repos.Feedback.List(s.ctx, &p.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(root.ID, rows[0].ID)
	s.True(rows[1].IsAnonymous)

	s.Require().NoError(s.repos.Feedback.Delete(s.ctx, root.ID))
	_, err = s.repos.Feedback.GetByID(s.ctx, reply.ID)
	s.ErrorIs(err, models.ErrNotFound)

	s.Require().NoError(s.repos.Passages.Delete(s.ctx, p.ID))
	marks, err = s.repos.Bookmarks.ListByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Empty(marks)
}

func (s *PostgresSuite) TestVisitStats() {
	story := s.seedStory("Stats")
	hall := &models.Passage{StoryID: story.ID, Name: "Hall", PassageNumber: intPtr(1)}
	cellar := &models.Passage{StoryID: story.ID, Name: "Cellar", PassageNumber: intPtr(2)}
	s.Require().NoError(s.repos.Passages.Create(s.ctx, hall))
	s.Require().NoError(s.repos.Passages.Create(s.ctx, cellar))

	reader := "u1"
	for _, v := range []*models.VisitEvent{
		{StoryID: story.ID, PassageID: hall.ID, UserID: &reader},
		{StoryID: story.ID, PassageID: cellar.ID, UserID: &reader},
		{StoryID: story.ID, PassageID: cellar.ID},
		{StoryID: story.ID, PassageID: uuid.NewString()},
	} {
		s.Require().NoError(s.repos.Visits.Create(s.ctx, v))
	}

	stats, err := s.repos.Visits.CountPerPassage(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal([]models.PassageVisitStat{
		{PassageID: cellar.ID, PassageName: "Cellar", VisitCount: 2},
		{PassageID: hall.ID, PassageName: "Hall", VisitCount: 1},
	}, stats)

	other := uuid.NewString()
	stats, err = s.repos.Visits.CountPerPassage(s.ctx, &other)
	s.Require().NoError(err)
	s.Empty(stats)

	o, err := s.repos.Visits.Overview(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.StatsOverview{TotalStories: 1, TotalPassages: 2, TotalVisits: 4, TotalReaders: 1}, *o)
}

func (s *PostgresSuite) TestBackfillMigration() {
	_, err := s.pool.Exec(s.ctx, `CREATE DATABASE legacy_test`)
	s.Require().NoError(err)
	legacyDSN := strings.Replace(s.dsn, "/"+testDBName+"?", "/legacy_test?", 1)
	s.Require().NotEqual(s.dsn, legacyDSN)

	s.Require().NoError(database.MigrateTo(legacyDSN, 1, s.logger))

	pool, err := pgxpool.New(s.ctx, legacyDSN)
	s.Require().NoError(err)
	defer pool.Close()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_, err = pool.Exec(s.ctx, `INSERT INTO stories (id, name) VALUES ('s1', 'One'), ('s2', 'Two')`)
	s.Require().NoError(err)
	legacy := []struct {
		id, story string
		offset    time.Duration
	}{
		{"c", "s1", 3 * time.Minute},
		{"a", "s1", time.Minute},
		{"b2", "s1", 2 * time.Minute},
		{"b1", "s1", 2 * time.Minute},
		{"x", "s2", 5 * time.Minute},
	}
	for _, p := range legacy {
		_, err := pool.Exec(s.ctx,
			`INSERT INTO passages (id, story_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			p.id, p.story, p.id, base.Add(p.offset))
		s.Require().NoError(err)
	}

	s.Require().NoError(database.ApplyMigrations(legacyDSN, s.logger))
	repos := database.NewRepositories(pool, s.logger)

	want := map[string]int{"a": 1, "b1": 2, "b2": 3, "c": 4, "x": 1}
	for id, number := range want {
		p, err := repos.Passages.GetByID(s.ctx, id)
		s.Require().NoError(err)
		s.Require().NotNil(p.PassageNumber, id)
		s.Equal(number, *p.PassageNumber, id)
	}

	err = repos.Passages.Create(s.ctx, &models.Passage{StoryID: "s1", Name: "dup", PassageNumber: intPtr(4)})
	s.ErrorIs(err, models.ErrPassageNumberTaken)
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		cli.Close()
		t.Skipf("Docker daemon is not accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(PostgresSuite))
}
