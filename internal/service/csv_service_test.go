package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"passage-server/internal/interfaces"
	"passage-server/internal/interfaces/mocks"
	"passage-server/internal/models"
	"passage-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type csvFixture struct {
	repos interfaces.Repositories
	cache *mocks.PassageNumberCache
	svc   interfaces.CSVService
	story *models.Story
}

func newCSVFixture(t *testing.T) *csvFixture {
	t.Helper()
	repos := newSQLiteRepos(t)
	cache := new(mocks.PassageNumberCache)
	cache.On("InvalidateStory", mock.Anything, mock.Anything).Return(nil).Maybe()

	story := &models.Story{Name: "CSV", IsActive: true, Zoom: 1}
	require.NoError(t, repos.Stories.Create(context.Background(), story))

	return &csvFixture{
		repos: repos,
		cache: cache,
		svc:   service.NewCSVService(repos, cache, zap.NewNop()),
		story: story,
	}
}

func TestImportPassages(t *testing.T) {
	ctx := context.Background()
	f := newCSVFixture(t)

	input := "\uFEFFid,story_id,passage_number,name,content,passage_type,tags,position_x,position_y,width,height\n" +
		"p-1,ignored,1,Intro,\"Hello, reader\",start,\"[\"\"a\"\",\"\"b\"\"]\",10,20,,\n" +
		",,,Loose,,content,not-json,,,,\n" +
		",,1,Clash,,content,,,,,\n" +
		",,abc,BadNumber,,content,,,,,\n" +
		",,0,Zero,,content,,,,,\n" +
		",,,,,content,,,,,\n" +
		",,,NoType,,,,,,,\n" +
		",,,WrongType,,chapter,,,,,\n" +
		",,,BadGeometry,,content,,x,,,\n"

	result, err := f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.Errors, 7)

	rows := make([]int, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10}, rows)
	assert.Equal(t, "passage_number 1 already used in this story", result.Errors[0].Message)

	intro, err := f.repos.Passages.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, f.story.ID, intro.StoryID)
	assert.Equal(t, 1, *intro.PassageNumber)
	assert.Equal(t, "Hello, reader", intro.Content)
	assert.Equal(t, []string{"a", "b"}, intro.Tags)
	assert.Equal(t, 10.0, intro.PositionX)
	assert.Equal(t, models.DefaultPassageWidth, intro.Width)

	loose, err := f.repos.Passages.FindByName(ctx, f.story.ID, "Loose")
	require.NoError(t, err)
	assert.Nil(t, loose.PassageNumber)
	assert.Equal(t, []string{}, loose.Tags)

	f.cache.AssertCalled(t, "InvalidateStory", mock.Anything, f.story.ID)
}

func TestImportPassagesUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	f := newCSVFixture(t)

	_, err := f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader(
		"id,passage_number,name,passage_type\np-1,5,Intro,start\n"))
	require.NoError(t, err)

	result, err := f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader(
		"id,passage_number,name,passage_type\np-1,6,Intro v2,start\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Errors)

	p, err := f.repos.Passages.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Intro v2", p.Name)
	assert.Equal(t, 6, *p.PassageNumber)
}

func TestImportPassagesRejectsForeignID(t *testing.T) {
	ctx := context.Background()
	f := newCSVFixture(t)

	other := &models.Story{Name: "Other", IsActive: true, Zoom: 1}
	require.NoError(t, f.repos.Stories.Create(ctx, other))
	foreign := &models.Passage{StoryID: other.ID, Name: "Theirs", Width: 200, Height: 100}
	require.NoError(t, f.repos.Passages.Create(ctx, foreign))

	result, err := f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader(
		"id,name,passage_type\n"+foreign.ID+",Mine,content\n"))
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)

	unchanged, err := f.repos.Passages.GetByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Theirs", unchanged.Name)
}

func TestImportMalformedHeader(t *testing.T) {
	ctx := context.Background()
	f := newCSVFixture(t)

	_, err := f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader(""))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader("id,content\n1,x\n"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.ImportLinks(ctx, f.story.ID, strings.NewReader("id,name\n"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.ImportPassages(ctx, "missing", strings.NewReader("name,passage_type\n"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestImportLinks(t *testing.T) {
	ctx := context.Background()
	f := newCSVFixture(t)

	a := &models.Passage{ID: "a", StoryID: f.story.ID, Name: "A", Width: 200, Height: 100}
	b := &models.Passage{ID: "b", StoryID: f.story.ID, Name: "B", Width: 200, Height: 100}
	require.NoError(t, f.repos.Passages.Create(ctx, a))
	require.NoError(t, f.repos.Passages.Create(ctx, b))

	input := "id,story_id,source_passage_id,target_passage_id,name,condition_type,condition_value,link_order\n" +
		"l-1,,a,b,Go on,,,\n" +
		"l-2,,b,a,Back,previous_passage,a,2\n" +
		",,a,missing,,,,\n" +
		",,a,b,,previous_passage,,\n" +
		",,a,b,,teleport,,\n" +
		",,a,b,,,,first\n" +
		",,,b,,,,\n"

	result, err := f.svc.ImportLinks(ctx, f.story.ID, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 5)
	assert.Equal(t, 4, result.Errors[0].Row)

	back, err := f.repos.Links.GetByID(ctx, "l-2")
	require.NoError(t, err)
	assert.Equal(t, models.ConditionPreviousPassage, back.ConditionType)
	assert.Equal(t, "a", *back.ConditionValue)
	assert.Equal(t, 2, back.LinkOrder)

	forward, err := f.repos.Links.GetByID(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, models.ConditionAlways, forward.ConditionType)
	assert.Equal(t, 0, forward.LinkOrder)
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newCSVFixture(t)

	_, err := f.svc.ImportPassages(ctx, f.story.ID, strings.NewReader(
		"id,passage_number,name,content,passage_type,tags\n"+
			"b,2,Second,,content,[]\n"+
			"n,,Unnumbered,,end,\n"+
			"a,1,First,\"multi\nline\",start,\"[\"\"t\"\"]\"\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportPassages(ctx, f.story.ID, &buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\xEF\xBB\xBF")))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id", "story_id", "passage_number", "name", "content", "passage_type", "tags", "position_x", "position_y", "width", "height"}, records[0])
	assert.Equal(t, "a", records[1][0])
	assert.Equal(t, "multi\nline", records[1][4])
	assert.Equal(t, `["t"]`, records[1][6])
	assert.Equal(t, "200", records[1][9])
	assert.Equal(t, "b", records[2][0])
	assert.Equal(t, "n", records[3][0])
	assert.Equal(t, "", records[3][2])

	// Re-importing the export updates every row in place.
	result, err := f.svc.ImportPassages(ctx, f.story.ID, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Updated)
	assert.Empty(t, result.Errors)

	buf.Reset()
	require.NoError(t, f.svc.ExportLinks(ctx, f.story.ID, &buf))
	records, err = csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "link_order", records[0][7])
}
