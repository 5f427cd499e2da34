package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	passageCSVHeader = []string{"id", "story_id", "passage_number", "name", "content", "passage_type", "tags", "position_x", "position_y", "width", "height"}
	linkCSVHeader    = []string{"id", "story_id", "source_passage_id", "target_passage_id", "name", "condition_type", "condition_value", "link_order"}

	passageRequiredColumns = []string{"name", "passage_type"}
	linkRequiredColumns    = []string{"source_passage_id", "target_passage_id"}
)

type csvServiceImpl struct {
	stories  interfaces.StoryRepository
	passages interfaces.PassageRepository
	links    interfaces.LinkRepository
	cache    interfaces.PassageNumberCache
	logger   *zap.Logger
}

var _ interfaces.CSVService = (*csvServiceImpl)(nil)

func NewCSVService(repos interfaces.Repositories, cache interfaces.PassageNumberCache, logger *zap.Logger) interfaces.CSVService {
	return &csvServiceImpl{
		stories:  repos.Stories,
		passages: repos.Passages,
		links:    repos.Links,
		cache:    cache,
		logger:   logger.Named("CSVService"),
	}
}

// --- Export ---

func (s *csvServiceImpl) ExportPassages(ctx context.Context, storyID string, w io.Writer) error {
	if _, err := s.stories.GetByID(ctx, storyID); err != nil {
		return err
	}
	passages, err := s.passages.ListByStory(ctx, storyID)
	if err != nil {
		return fmt.Errorf("list passages: %w", err)
	}

	cw, err := newCSVWriter(w, passageCSVHeader)
	if err != nil {
		return err
	}
	for _, p := range passages {
		number := ""
		if p.PassageNumber != nil {
			number = strconv.Itoa(*p.PassageNumber)
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("encode tags of passage %s: %w", p.ID, err)
		}
		if err := cw.Write([]string{
			p.ID, p.StoryID, number, p.Name, p.Content, string(p.PassageType), string(tagsJSON),
			formatFloat(p.PositionX), formatFloat(p.PositionY), formatFloat(p.Width), formatFloat(p.Height),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *csvServiceImpl) ExportLinks(ctx context.Context, storyID string, w io.Writer) error {
	if _, err := s.stories.GetByID(ctx, storyID); err != nil {
		return err
	}
	links, err := s.links.ListByStory(ctx, storyID)
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	cw, err := newCSVWriter(w, linkCSVHeader)
	if err != nil {
		return err
	}
	for _, l := range links {
		if err := cw.Write([]string{
			l.ID, l.StoryID, l.SourcePassageID, l.TargetPassageID, deref(l.Name),
			string(l.ConditionType), deref(l.ConditionValue), strconv.Itoa(l.LinkOrder),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newCSVWriter(w io.Writer, header []string) (*csv.Writer, error) {
	if _, err := w.Write(utf8BOM); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return cw, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- Import ---

type csvRow struct {
	number int
	values map[string]string
}

func (r csvRow) get(column string) string {
	return strings.TrimSpace(r.values[column])
}

// rowFunc writes one row and reports whether it created a new record.
type rowFunc func(row csvRow) (created bool, err error)

// readCSV hands every data row after the header to fn, keyed by column
// name. Row numbers count the header as row 1.
func readCSV(r io.Reader, required []string, fn rowFunc, result *models.ImportResult, onRowError func(error)) error {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return invalidInput("csv is empty")
		}
		return invalidInput("malformed csv header: %v", err)
	}
	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
		present[columns[i]] = true
	}
	for _, col := range required {
		if !present[col] {
			return invalidInput("csv header is missing column %q", col)
		}
	}

	rowNumber := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		rowNumber++
		if err != nil {
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNumber, Message: err.Error()})
			onRowError(err)
			continue
		}

		row := csvRow{number: rowNumber, values: make(map[string]string, len(columns))}
		for i, value := range record {
			if i < len(columns) {
				row.values[columns[i]] = value
			}
		}

		created, err := fn(row)
		if err != nil {
			if !isRowError(err) {
				return err
			}
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNumber, Message: rowMessage(err)})
			onRowError(err)
			continue
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}
}

// isRowError separates data problems, which reject one row, from store
// failures, which abort the import.
func isRowError(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrPassageNumberTaken)
}

func rowMessage(err error) string {
	return strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error()+": ")
}

func parseOptionalFloat(value, column string, def float64) (float64, error) {
	if value == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, invalidInput("%s %q is not a number", column, value)
	}
	return f, nil
}

func parseTagsCell(value string) []string {
	if value == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(value), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func (s *csvServiceImpl) finishImport(ctx context.Context, kind, storyID string, result *models.ImportResult) {
	csvImportRowsTotal.WithLabelValues(kind, "imported").Add(float64(result.Imported))
	csvImportRowsTotal.WithLabelValues(kind, "updated").Add(float64(result.Updated))
	csvImportRowsTotal.WithLabelValues(kind, "failed").Add(float64(len(result.Errors)))

	if s.cache != nil {
		if err := s.cache.InvalidateStory(ctx, storyID); err != nil {
			s.logger.Warn("Failed to invalidate passage number cache", zap.String("storyID", storyID), zap.Error(err))
		}
	}
	s.logger.Info("CSV import finished",
		zap.String("kind", kind),
		zap.String("storyID", storyID),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("failed", len(result.Errors)),
	)
}

func (s *csvServiceImpl) ImportPassages(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error) {
	if _, err := s.stories.GetByID(ctx, storyID); err != nil {
		return nil, err
	}
	result := &models.ImportResult{Errors: []models.ImportRowError{}}
	log := s.logger.With(zap.String("storyID", storyID))

	err := readCSV(r, passageRequiredColumns, func(row csvRow) (bool, error) {
		p, existing, err := s.passageFromRow(ctx, storyID, row)
		if err != nil {
			return false, err
		}
		if existing != nil {
			p.CreatedAt = existing.CreatedAt
		}
		created, err := s.passages.Upsert(ctx, p)
		if errors.Is(err, models.ErrPassageNumberTaken) {
			return false, fmt.Errorf("%w: passage_number %d already used in this story", models.ErrInvalidInput, *p.PassageNumber)
		}
		return created, err
	}, result, func(err error) {
		log.Debug("CSV passage row rejected", zap.Error(err))
	})
	if err != nil {
		log.Error("CSV passage import aborted", zap.Error(err))
		return nil, err
	}

	s.finishImport(ctx, "passages", storyID, result)
	return result, nil
}

func (s *csvServiceImpl) passageFromRow(ctx context.Context, storyID string, row csvRow) (*models.Passage, *models.Passage, error) {
	name := row.get("name")
	if name == "" {
		return nil, nil, invalidInput("name is required")
	}
	passageType := models.PassageType(row.get("passage_type"))
	if passageType == "" {
		return nil, nil, invalidInput("passage_type is required")
	}
	if !passageType.Valid() {
		return nil, nil, invalidInput("invalid passage_type %q", string(passageType))
	}

	p := &models.Passage{
		ID:          row.get("id"),
		StoryID:     storyID,
		Name:        name,
		Content:     row.values["content"],
		PassageType: passageType,
		Tags:        parseTagsCell(row.get("tags")),
	}

	if raw := row.get("passage_number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, invalidInput("passage_number %q is not an integer", raw)
		}
		if n < models.MinPassageNumber || n > models.MaxPassageNumber {
			return nil, nil, invalidInput("passage_number %d must be between %d and %d", n, models.MinPassageNumber, models.MaxPassageNumber)
		}
		p.PassageNumber = &n
	}

	var err error
	if p.PositionX, err = parseOptionalFloat(row.get("position_x"), "position_x", 0); err != nil {
		return nil, nil, err
	}
	if p.PositionY, err = parseOptionalFloat(row.get("position_y"), "position_y", 0); err != nil {
		return nil, nil, err
	}
	if p.Width, err = parseOptionalFloat(row.get("width"), "width", models.DefaultPassageWidth); err != nil {
		return nil, nil, err
	}
	if p.Height, err = parseOptionalFloat(row.get("height"), "height", models.DefaultPassageHeight); err != nil {
		return nil, nil, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
		return p, nil, nil
	}
	existing, err := s.passages.GetByID(ctx, p.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return p, nil, nil
	case err != nil:
		return nil, nil, err
	case existing.StoryID != storyID:
		return nil, nil, invalidInput("passage %s belongs to another story", p.ID)
	}
	return p, existing, nil
}

func (s *csvServiceImpl) ImportLinks(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error) {
	if _, err := s.stories.GetByID(ctx, storyID); err != nil {
		return nil, err
	}
	result := &models.ImportResult{Errors: []models.ImportRowError{}}
	log := s.logger.With(zap.String("storyID", storyID))

	err := readCSV(r, linkRequiredColumns, func(row csvRow) (bool, error) {
		l, err := s.linkFromRow(ctx, storyID, row)
		if err != nil {
			return false, err
		}
		return s.links.Upsert(ctx, l)
	}, result, func(err error) {
		log.Debug("CSV link row rejected", zap.Error(err))
	})
	if err != nil {
		log.Error("CSV link import aborted", zap.Error(err))
		return nil, err
	}

	s.finishImport(ctx, "links", storyID, result)
	return result, nil
}

func (s *csvServiceImpl) linkFromRow(ctx context.Context, storyID string, row csvRow) (*models.Link, error) {
	l := &models.Link{
		ID:              row.get("id"),
		StoryID:         storyID,
		SourcePassageID: row.get("source_passage_id"),
		TargetPassageID: row.get("target_passage_id"),
		ConditionType:   models.ConditionAlways,
	}
	if l.SourcePassageID == "" || l.TargetPassageID == "" {
		return nil, invalidInput("source_passage_id and target_passage_id are required")
	}
	if name := row.get("name"); name != "" {
		l.Name = &name
	}
	if ct := row.get("condition_type"); ct != "" {
		l.ConditionType = models.ConditionType(ct)
	}
	if cv := row.get("condition_value"); cv != "" {
		l.ConditionValue = &cv
	}
	if err := validateCondition(l.ConditionType, l.ConditionValue); err != nil {
		return nil, err
	}
	if raw := row.get("link_order"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalidInput("link_order %q is not an integer", raw)
		}
		l.LinkOrder = n
	}

	source, err := s.passages.GetByID(ctx, l.SourcePassageID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, invalidInput("source passage %s does not exist", l.SourcePassageID)
		}
		return nil, err
	}
	if source.StoryID != storyID {
		return nil, invalidInput("source passage %s belongs to another story", l.SourcePassageID)
	}
	if _, err := s.passages.GetByID(ctx, l.TargetPassageID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, invalidInput("target passage %s does not exist", l.TargetPassageID)
		}
		return nil, err
	}

	if l.ID == "" {
		l.ID = uuid.NewString()
		return l, nil
	}
	existing, err := s.links.GetByID(ctx, l.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return nil, err
	case existing.StoryID != storyID:
		return nil, invalidInput("link %s belongs to another story", l.ID)
	}
	return l, nil
}
