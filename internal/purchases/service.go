package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for purchases.
type RepositoryPort interface {
	CreatePurchase(ctx context.Context, purchase *Purchase) error
	ListPurchases(ctx context.Context, supplier string) ([]Purchase, error)
}

// Service handles purchase business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordPurchase stores a new yarn purchase.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (*Purchase, error) {
	purchase, err := NewPurchase(input)
	if err != nil {
		return nil, err
	}
	purchase.ID = uuid.NewString()
	purchase.CreatedAt = s.now()
	if err := s.repo.CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("purchases: create: %w", err)
	}
	s.logger.Info("purchase recorded",
		slog.String("id", purchase.ID),
		slog.String("supplier", purchase.Supplier),
		slog.Float64("amount", purchase.Amount))
	return purchase, nil
}

// ListPurchases returns purchases, newest first, optionally for one supplier.
func (s *Service) ListPurchases(ctx context.Context, supplier string) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, supplier)
}
