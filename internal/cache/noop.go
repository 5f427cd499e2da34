package cache

import (
	"context"

	"passage-server/internal/interfaces"
)

// NoopPassageCache never hits; used when Redis is not configured.
type NoopPassageCache struct{}

var _ interfaces.PassageNumberCache = NoopPassageCache{}

func (NoopPassageCache) Get(context.Context, string, int) (string, bool, error) { return "", false, nil }
func (NoopPassageCache) Set(context.Context, string, int, string) error        { return nil }
func (NoopPassageCache) InvalidateStory(context.Context, string) error        { return nil }
