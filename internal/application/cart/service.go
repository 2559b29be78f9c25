package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-cart/internal/domain/cart"
	domproduct "github.com/Zhima-Mochi/minishop-cart/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability/logctx"
	"github.com/shopspring/decimal"
)

const (
	cartService = "cart-service"

	useCaseOpen           = "cart.open"
	useCaseAdd            = "cart.add_product"
	useCaseRemove         = "cart.remove_product"
	useCaseRemoveQuantity = "cart.remove_quantity"
	useCaseClear          = "cart.clear"
)

var ErrValidation = errors.New("validation")

// Service manages stored carts. Products are looked up in the catalog by ID.
type Service struct {
	carts       domcart.Repository
	products    domproduct.Repository
	idGenerator IDGenerator

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewService(
	carts domcart.Repository,
	products domproduct.Repository,
	idGen IDGenerator,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Service{
		carts:        carts,
		products:     products,
		idGenerator:  idGen,
		log:          tel.Logger().With(observability.F("service", cartService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Open stores a new empty cart and returns its ID.
func (s *Service) Open(ctx context.Context) (_ string, err error) {
	defer s.observe(ctx, useCaseOpen, time.Now(), &err)

	c := domcart.New(s.idGenerator.NewID())
	if err := s.carts.Save(ctx, c); err != nil {
		return "", fmt.Errorf("cart: save: %w", err)
	}
	return c.ID, nil
}

// AddProduct adds count units of a catalog product to the cart.
func (s *Service) AddProduct(ctx context.Context, cartID, productID string, count int) (err error) {
	defer s.observe(ctx, useCaseAdd, time.Now(), &err,
		observability.F("cart_id", cartID),
		observability.F("product_id", productID),
		observability.F("count", count),
	)

	if productID == "" {
		return newValidation("product id is required")
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("cart: load product: %w", err)
	}
	return s.mutate(ctx, cartID, func(c *domcart.Cart) error {
		return c.AddProduct(p, count)
	})
}

// RemoveProduct drops the product from the cart entirely.
func (s *Service) RemoveProduct(ctx context.Context, cartID, productID string) (err error) {
	defer s.observe(ctx, useCaseRemove, time.Now(), &err,
		observability.F("cart_id", cartID),
		observability.F("product_id", productID),
	)

	return s.mutate(ctx, cartID, func(c *domcart.Cart) error {
		return c.RemoveProduct(productID)
	})
}

// RemoveQuantity takes count units of the product out of the cart.
func (s *Service) RemoveQuantity(ctx context.Context, cartID, productID string, count int) (err error) {
	defer s.observe(ctx, useCaseRemoveQuantity, time.Now(), &err,
		observability.F("cart_id", cartID),
		observability.F("product_id", productID),
		observability.F("count", count),
	)

	return s.mutate(ctx, cartID, func(c *domcart.Cart) error {
		return c.RemoveQuantity(productID, count)
	})
}

func (s *Service) Clear(ctx context.Context, cartID string) (err error) {
	defer s.observe(ctx, useCaseClear, time.Now(), &err, observability.F("cart_id", cartID))

	return s.mutate(ctx, cartID, func(c *domcart.Cart) error {
		c.Clear()
		return nil
	})
}

// Total prices the cart with the product prices captured when they were added.
func (s *Service) Total(ctx context.Context, cartID string) (decimal.Decimal, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return decimal.Zero, err
	}
	return c.TotalPrice(), nil
}

func (s *Service) Lines(ctx context.Context, cartID string) ([]domcart.Line, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return c.Lines(), nil
}

func (s *Service) load(ctx context.Context, cartID string) (*domcart.Cart, error) {
	if cartID == "" {
		return nil, newValidation("cart id is required")
	}
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}
	return c, nil
}

func (s *Service) mutate(ctx context.Context, cartID string, fn func(*domcart.Cart) error) error {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}

func (s *Service) observe(ctx context.Context, useCase string, start time.Time, errp *error, fields ...observability.Field) {
	lat := time.Since(start).Seconds()
	outcome := "success"
	if *errp != nil {
		outcome = "error"
	}

	s.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	s.durHistogram.Observe(lat, observability.L("use_case", useCase))

	fields = append(fields,
		observability.F("use_case", useCase),
		observability.F("outcome", outcome),
		observability.F("latency_seconds", lat),
	)
	logger := logctx.FromOr(ctx, s.log)
	if *errp != nil {
		logger.Warn("use_case_done", append(fields, observability.F("error", (*errp).Error()))...)
		return
	}
	logger.Debug("use_case_done", fields...)
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
