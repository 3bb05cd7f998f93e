package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
	"github.com/rezahawari/qurban-marketplace/pkg/tracing"
)

// SessionService drives catalog sessions from the first click to checkout
type SessionService struct {
	catalog   *CatalogService
	sessions  domain.SessionStore
	orderRepo domain.OrderRepository
	orderIDs  *domain.OrderIDGenerator
	tracer    trace.Tracer
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewSessionService creates a new SessionService
func NewSessionService(
	catalog *CatalogService,
	sessions domain.SessionStore,
	orderRepo domain.OrderRepository,
	orderIDs *domain.OrderIDGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *SessionService {
	return &SessionService{
		catalog:   catalog,
		sessions:  sessions,
		orderRepo: orderRepo,
		orderIDs:  orderIDs,
		tracer:    otel.Tracer("qurban-marketplace/sessions"),
		logger:    logger,
		metrics:   m,
	}
}

// Create opens a session in its initial state
func (s *SessionService) Create(ctx context.Context) (*SessionDTO, error) {
	catalog, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	selection, err := domain.NewSelection(catalog)
	if err != nil {
		return nil, err
	}

	session := domain.NewCatalogSession(uuid.New().String(), selection, time.Now().UTC())
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	s.recordActiveSessions()

	s.logger.WithSession(session.SessionID).Debug("Catalog session opened")

	var dto *SessionDTO
	err = session.Do(func(sel *domain.Selection) error {
		dto, err = s.describe(ctx, session.SessionID, sel, false)
		return err
	})
	return dto, err
}

// Get returns the current state of a session
func (s *SessionService) Get(ctx context.Context, sessionID string) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(*domain.Selection) error { return nil })
}

// SetServiceType switches the session to another service type
func (s *SessionService) SetServiceType(ctx context.Context, sessionID string, cmd SetServiceTypeCommand) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		return sel.SetServiceType(domain.ServiceType(cmd.ServiceType))
	})
}

// SetProduct selects a product of the current service type
func (s *SessionService) SetProduct(ctx context.Context, sessionID string, cmd SetProductCommand) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		return sel.SetProduct(cmd.ProductID)
	})
}

// SetVariant selects a weight variant of the current product
func (s *SessionService) SetVariant(ctx context.Context, sessionID string, cmd SetVariantCommand) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		if cmd.VariantIndex == nil {
			return fmt.Errorf("%w: variant index is required", domain.ErrInvalidSelection)
		}
		return sel.SetVariantIndex(*cmd.VariantIndex)
	})
}

// SetLocation selects a location
func (s *SessionService) SetLocation(ctx context.Context, sessionID string, cmd SetLocationCommand) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		return sel.SetLocation(cmd.LocationID)
	})
}

// AddBeneficiary appends an empty beneficiary slot
func (s *SessionService) AddBeneficiary(ctx context.Context, sessionID string) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		return sel.AddBeneficiary()
	})
}

// SetBeneficiary names the beneficiary in slot index
func (s *SessionService) SetBeneficiary(ctx context.Context, sessionID string, index int, cmd SetBeneficiaryCommand) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		return sel.SetBeneficiaryName(index, cmd.Name)
	})
}

// RemoveBeneficiary removes the beneficiary slot index
func (s *SessionService) RemoveBeneficiary(ctx context.Context, sessionID string, index int) (*SessionDTO, error) {
	return s.mutate(ctx, sessionID, func(sel *domain.Selection) error {
		return sel.RemoveBeneficiary(index)
	})
}

// Abandon discards a session
func (s *SessionService) Abandon(ctx context.Context, sessionID string) error {
	if _, err := s.load(ctx, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.recordActiveSessions()
	return nil
}

// Checkout turns the session into a pending order for customer. The session
// is consumed on success and left untouched on failure. A selection the
// current catalog no longer supports is rejected; the next Get reports the
// reset.
func (s *SessionService) Checkout(ctx context.Context, sessionID string, customer *domain.Customer) (*OrderDTO, error) {
	return tracing.TracedOperation(ctx, s.tracer, "session.checkout", func(ctx context.Context) (*OrderDTO, error) {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		var order *domain.Order
		err = session.Consume(func(sel *domain.Selection) error {
			catalog, err := s.catalog.Snapshot(ctx)
			if err != nil {
				return err
			}
			reset, err := sel.Rebind(catalog)
			if err != nil {
				return err
			}
			if reset {
				return fmt.Errorf("%w: selection changed, review before checkout", domain.ErrInvalidSelection)
			}

			rules, err := s.catalog.FeeRules(ctx)
			if err != nil {
				return err
			}
			totals, err := sel.Quote(rules)
			if err != nil {
				return err
			}

			order, err = domain.Materialize(sel, customer, totals, s.orderIDs)
			if err != nil {
				return err
			}

			if err := s.orderRepo.Save(ctx, order); err != nil {
				s.logger.WithError(err).Error("Failed to save order", "orderId", order.OrderID)
				return fmt.Errorf("failed to save order: %w", err)
			}
			return nil
		})
		if err != nil {
			s.recordSelectionError(err)
			return nil, err
		}

		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.WithError(err).Warn("Failed to delete checked out session", "sessionId", sessionID)
		}
		s.recordActiveSessions()

		if s.metrics != nil {
			total, _ := order.TotalPrice.Float64()
			s.metrics.RecordOrderPlaced(string(order.ServiceType), total)
		}
		s.logger.Event(ctx, "order_placed", map[string]any{
			"orderId":       order.OrderID,
			"serviceType":   order.ServiceType,
			"totalPrice":    order.TotalPrice.String(),
			"beneficiaries": len(order.Beneficiaries),
		})

		return ToOrderDTO(order), nil
	}, attribute.String("session.id", sessionID))
}

func (s *SessionService) load(ctx context.Context, sessionID string) (*domain.CatalogSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// mutate rebinds the session to the current catalog, applies fn and
// describes the result
func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*domain.Selection) error) (*SessionDTO, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var dto *SessionDTO
	err = session.Do(func(sel *domain.Selection) error {
		catalog, err := s.catalog.Snapshot(ctx)
		if err != nil {
			return err
		}
		reset, err := sel.Rebind(catalog)
		if err != nil {
			return err
		}
		if err := fn(sel); err != nil {
			return err
		}
		dto, err = s.describe(ctx, sessionID, sel, reset)
		return err
	})
	if err != nil {
		s.recordSelectionError(err)
		return nil, err
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return dto, nil
}

// describe renders a selection. The quote is omitted while the selected
// service has no product to price.
func (s *SessionService) describe(ctx context.Context, sessionID string, sel *domain.Selection, reset bool) (*SessionDTO, error) {
	beneficiaries := sel.Beneficiaries()
	dto := &SessionDTO{
		SessionID:         sessionID,
		ServiceType:       string(sel.ServiceType()),
		AvailableProducts: ToProductDTOs(sel.AvailableProducts()),
		VariantIndex:      sel.VariantIndex(),
		Beneficiaries:     beneficiaries,
		CanAddBeneficiary: len(beneficiaries) < domain.MaxBeneficiaries,
		Reset:             reset,
	}
	if location, ok := sel.Location(); ok {
		l := ToLocationDTO(location)
		dto.Location = &l
	}

	if product := sel.Product(); product != nil {
		dto.Product = ToProductDTO(product)

		rules, err := s.catalog.FeeRules(ctx)
		if err != nil {
			return nil, err
		}
		totals, err := sel.Quote(rules)
		if err != nil {
			return nil, err
		}
		dto.Quote = ToQuoteDTO(totals)
		if s.metrics != nil {
			s.metrics.RecordQuote()
		}
	}
	return dto, nil
}

func (s *SessionService) recordActiveSessions() {
	if s.metrics != nil {
		s.metrics.SetCatalogSessionsActive(s.sessions.Len())
	}
}

func (s *SessionService) recordSelectionError(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrLimitReached):
		s.metrics.RecordSelectionError("limit_reached")
	case errors.Is(err, domain.ErrMinimumRequired):
		s.metrics.RecordSelectionError("minimum_required")
	case errors.Is(err, domain.ErrIncompleteOrder):
		s.metrics.RecordSelectionError("incomplete_order")
	case errors.Is(err, domain.ErrInvalidAmount):
		s.metrics.RecordSelectionError("invalid_amount")
	case errors.Is(err, domain.ErrInvalidSelection):
		s.metrics.RecordSelectionError("invalid_selection")
	}
}
