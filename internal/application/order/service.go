package order

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	domain "github.com/Zhima-Mochi/minishop-cart/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

// Service records receipts for completed checkouts.
type Service struct {
	repo domain.Repository
	log  observability.Logger
}

func NewService(repo domain.Repository, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo: repo,
		log:  logger.With(observability.F("component", "order_service")),
	}
}

// Record stores the order for a checkout. A checkout already recorded is
// returned as is, so redelivered events are harmless.
func (s *Service) Record(ctx context.Context, e domcart.CheckedOutEvent) (_ *domain.Order, replay bool, err error) {
	logger := logctx.FromOr(ctx, s.log)

	entity, err := domain.New(e.CheckoutID, e.CartID, e.Lines, e.Total)
	if err != nil {
		return nil, false, fmt.Errorf("order: construct: %w", err)
	}

	if err := s.repo.Insert(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			existing, getErr := s.repo.Get(ctx, entity.ID)
			if getErr == nil {
				logger.Debug("order_replayed", observability.F("order_id", existing.ID))
				return existing, true, nil
			}
		}
		return nil, false, wrapRepositoryError(err)
	}

	logger.Info("order_recorded",
		observability.F("order_id", entity.ID),
		observability.F("cart_id", entity.CartID),
		observability.F("total", entity.Total.String()),
		observability.F("units", entity.Units()),
	)
	return entity, false, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return orders, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
