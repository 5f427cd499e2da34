package interfaces

import "context"

// PassageNumberCache maps (story, passage_number) to a passage id. Entries
// are hints only; callers must verify them against the store.
type PassageNumberCache interface {
	Get(ctx context.Context, storyID string, number int) (passageID string, found bool, err error)
	Set(ctx context.Context, storyID string, number int, passageID string) error
	InvalidateStory(ctx context.Context, storyID string) error
}
