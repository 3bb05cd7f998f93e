package application

import (
	"context"
	"fmt"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
)

// OrderService handles order fulfilment use cases
type OrderService struct {
	orderRepo domain.OrderRepository
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo domain.OrderRepository, logger *logging.Logger, m *metrics.Metrics) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		logger:    logger,
		metrics:   m,
	}
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return order, nil
}

// ListOrders lists orders newest first
func (s *OrderService) ListOrders(ctx context.Context, query ListOrdersQuery) ([]OrderDTO, error) {
	filter := domain.OrderFilter{CustomerEmail: query.CustomerEmail}
	if query.Status != nil && *query.Status != "" {
		status := domain.OrderStatus(*query.Status)
		if !status.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("unknown order status: %s", *query.Status))
		}
		filter.Status = &status
	}
	if query.ServiceType != nil && *query.ServiceType != "" {
		service := domain.ServiceType(*query.ServiceType)
		if !service.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("unknown service type: %s", *query.ServiceType))
		}
		filter.ServiceType = &service
	}

	pagination := domain.Unpaginated()
	if query.PageSize > 0 {
		pagination = domain.Pagination{Page: max(query.Page, 1), PageSize: query.PageSize}
	}

	orders, err := s.orderRepo.FindAll(ctx, filter, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return ToOrderDTOs(orders), nil
}

// ListCustomerOrders lists the orders placed by one customer
func (s *OrderService) ListCustomerOrders(ctx context.Context, email string) ([]OrderDTO, error) {
	normalized := domain.NormalizeEmail(email)
	return s.ListOrders(ctx, ListOrdersQuery{CustomerEmail: &normalized})
}

// AdvanceStatus moves an order forward. Completion goes through
// AttachDocumentation.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, cmd AdvanceStatusCommand) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.AdvanceStatus(domain.OrderStatus(cmd.Status)); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save order", "orderId", orderID)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderStatusChange(string(order.Status))
	}
	s.logger.Audit(ctx, "update_status", "order", orderID, actor(ctx), map[string]any{
		"from": previous,
		"to":   order.Status,
	})
	return ToOrderDTO(order), nil
}

// AttachDocumentation stores proof of execution and completes the order.
// An order that fails validation is not modified.
func (s *OrderService) AttachDocumentation(ctx context.Context, orderID string, cmd AttachDocumentationCommand) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	wasCompleted := order.Status == domain.OrderStatusCompleted
	err = order.AttachDocumentation(domain.Documentation{
		Photos:         cmd.Photos,
		Video:          cmd.Video,
		YouTubeURL:     cmd.YouTubeURL,
		EarTag:         cmd.EarTag,
		CertificateURL: cmd.CertificateURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save order", "orderId", orderID)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	complete := !order.Documentation.IsIncomplete()
	if s.metrics != nil {
		s.metrics.RecordDocumentationAttached(complete)
		if !wasCompleted {
			s.metrics.RecordOrderStatusChange(string(order.Status))
		}
	}
	if !complete {
		s.logger.WithOrder(orderID).Warn("Documentation attached without photos")
	}
	s.logger.Event(ctx, "documentation_attached", map[string]any{
		"orderId":    orderID,
		"earTag":     order.Documentation.EarTag,
		"photoCount": len(order.Documentation.Photos),
		"replaced":   wasCompleted,
	})
	return ToOrderDTO(order), nil
}
