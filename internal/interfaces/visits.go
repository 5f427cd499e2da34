package interfaces

import (
	"context"

	"passage-server/internal/models"
)

// VisitRecorder hands a visit to analytics. Failures must not affect the
// reader response.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, visit models.VisitEvent) error
}
