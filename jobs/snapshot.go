package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/loomledger/loomledger/internal/reports"
)

// SnapshotScanner recomputes the dashboard snapshot and caches it so the
// dashboard endpoint serves warm data between scans.
type SnapshotScanner struct {
	reports *reports.Service
	cache   *reports.SnapshotCache
	logger  *slog.Logger
}

// NewSnapshotScanner builds SnapshotScanner instance.
func NewSnapshotScanner(svc *reports.Service, cache *reports.SnapshotCache, logger *slog.Logger) *SnapshotScanner {
	return &SnapshotScanner{reports: svc, cache: cache, logger: logger}
}

// HandleReceivablesScan processes TaskReceivablesScan tasks.
func (s *SnapshotScanner) HandleReceivablesScan(ctx context.Context, t *asynq.Task) error {
	var payload ReceivablesScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	snap, err := s.reports.Dashboard(ctx, time.Time{})
	if err != nil {
		s.logger.Error("snapshot scan", slog.Any("error", err))
		return err
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Error("snapshot cache", slog.Any("error", err))
		return err
	}
	s.logger.Info("receivables snapshot refreshed",
		slog.String("triggered_by", payload.TriggeredBy),
		slog.Float64("outstanding", snap.TotalOutstanding),
		slog.Int("overdue", snap.OverdueCount))
	return nil
}
