package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
)

// CatalogService handles catalog browsing, pricing and the admin product
// and fee rule use cases
type CatalogService struct {
	productRepo domain.ProductRepository
	feeRepo     domain.FeeRuleRepository
	locations   []domain.Location
	ids         *IDGenerator
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

// NewCatalogService creates a new CatalogService. Locations are fixed for
// the lifetime of the process.
func NewCatalogService(
	productRepo domain.ProductRepository,
	feeRepo domain.FeeRuleRepository,
	locations []domain.Location,
	ids *IDGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		feeRepo:     feeRepo,
		locations:   slices.Clone(locations),
		ids:         ids,
		logger:      logger,
		metrics:     m,
	}
}

// ServiceTypes returns the service types in canonical order
func (s *CatalogService) ServiceTypes() []string {
	types := domain.ServiceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// Snapshot returns the current catalog used by new and rebound sessions
func (s *CatalogService) Snapshot(ctx context.Context) (*domain.Catalog, error) {
	products, err := s.productRepo.FindAll(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return &domain.Catalog{
		Products:  products,
		Locations: slices.Clone(s.locations),
	}, nil
}

// ListProducts lists products, optionally for one service type
func (s *CatalogService) ListProducts(ctx context.Context, serviceType *string) ([]ProductDTO, error) {
	filter := domain.ProductFilter{}
	if serviceType != nil && *serviceType != "" {
		st := domain.ServiceType(*serviceType)
		if !st.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("unknown service type: %s", *serviceType))
		}
		filter.ServiceType = &st
	}

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return ToProductDTOs(products), nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToProductDTO(product), nil
}

func (s *CatalogService) findProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return product, nil
}

// ListLocations returns the slaughter locations
func (s *CatalogService) ListLocations() []LocationDTO {
	dtos := make([]LocationDTO, len(s.locations))
	for i, l := range s.locations {
		dtos[i] = ToLocationDTO(l)
	}
	return dtos
}

// FeeRules returns the current fee rules in application order
func (s *CatalogService) FeeRules(ctx context.Context) ([]domain.FeeRule, error) {
	rules, err := s.feeRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee rules: %w", err)
	}
	return rules, nil
}

// ListFeeRules returns the current fee rules as DTOs
func (s *CatalogService) ListFeeRules(ctx context.Context) ([]FeeRuleDTO, error) {
	rules, err := s.FeeRules(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]FeeRuleDTO, len(rules))
	for i, r := range rules {
		dtos[i] = ToFeeRuleDTO(r)
	}
	return dtos, nil
}

// Quote prices a product, variant and location against the current fee rules
func (s *CatalogService) Quote(ctx context.Context, cmd QuoteCommand) (*QuoteDTO, error) {
	product, err := s.productRepo.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: unknown product %q", domain.ErrInvalidSelection, cmd.ProductID)
	}

	catalog := &domain.Catalog{Locations: s.locations}
	location, ok := catalog.Location(cmd.LocationID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown location %q", domain.ErrInvalidSelection, cmd.LocationID)
	}

	if cmd.VariantIndex == nil {
		return nil, fmt.Errorf("%w: variant is required", domain.ErrInvalidSelection)
	}

	base, err := domain.ResolveBasePrice(product, *cmd.VariantIndex, location)
	if err != nil {
		return nil, err
	}

	rules, err := s.FeeRules(ctx)
	if err != nil {
		return nil, err
	}

	breakdown, err := domain.ApplyFees(base, rules)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordQuote()
	}
	return ToQuoteDTO(breakdown), nil
}

// CreateProduct adds a product to the catalog
func (s *CatalogService) CreateProduct(ctx context.Context, cmd ProductCommand) (*ProductDTO, error) {
	now := time.Now().UTC()
	product, err := toProductDraft(cmd).Build(s.ids.Next(ProductIDPrefix), now)
	if err != nil {
		return nil, err
	}

	count, err := s.productRepo.Count(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	product.Position = int(count)

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.WithError(err).Error("Failed to save product", "productId", product.ProductID)
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Audit(ctx, "create", "product", product.ProductID, actor(ctx), map[string]any{
		"serviceType": product.ServiceType,
	})
	return ToProductDTO(product), nil
}

// UpdateProduct merges changes into an existing product
func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, cmd ProductCommand) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	updated, err := toProductDraft(cmd).ApplyTo(product, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, updated); err != nil {
		s.logger.WithError(err).Error("Failed to save product", "productId", productID)
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Audit(ctx, "update", "product", productID, actor(ctx), nil)
	return ToProductDTO(updated), nil
}

// DeleteProduct removes a product. Open sessions pointing at it fall back
// to another product on their next step.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		s.logger.WithError(err).Error("Failed to delete product", "productId", productID)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Audit(ctx, "delete", "product", productID, actor(ctx), nil)
	return nil
}

// CreateFeeRule appends a fee rule. Missing fields default to a zero fixed
// fee labelled "Biaya Baru".
func (s *CatalogService) CreateFeeRule(ctx context.Context, cmd FeeRuleCommand) (*FeeRuleDTO, error) {
	rules, err := s.FeeRules(ctx)
	if err != nil {
		return nil, err
	}
	position := 0
	for _, r := range rules {
		position = max(position, r.Position+1)
	}

	rule, err := toFeeRuleDraft(cmd).Build(s.ids.Next(FeeIDPrefix), position, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.feeRepo.Save(ctx, rule); err != nil {
		s.logger.WithError(err).Error("Failed to save fee rule", "feeId", rule.FeeID)
		return nil, fmt.Errorf("failed to save fee rule: %w", err)
	}

	s.logger.Audit(ctx, "create", "fee", rule.FeeID, actor(ctx), map[string]any{
		"kind":  rule.Kind,
		"value": rule.Value.String(),
	})
	dto := ToFeeRuleDTO(rule)
	return &dto, nil
}

// UpdateFeeRule merges changes into an existing fee rule
func (s *CatalogService) UpdateFeeRule(ctx context.Context, feeID string, cmd FeeRuleCommand) (*FeeRuleDTO, error) {
	existing, err := s.feeRepo.FindByID(ctx, feeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fee rule: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrFeeRuleNotFound, feeID)
	}

	rule, err := toFeeRuleDraft(cmd).ApplyTo(*existing, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.feeRepo.Save(ctx, rule); err != nil {
		s.logger.WithError(err).Error("Failed to save fee rule", "feeId", feeID)
		return nil, fmt.Errorf("failed to save fee rule: %w", err)
	}

	s.logger.Audit(ctx, "update", "fee", feeID, actor(ctx), map[string]any{
		"kind":  rule.Kind,
		"value": rule.Value.String(),
	})
	dto := ToFeeRuleDTO(rule)
	return &dto, nil
}

// DeleteFeeRule removes a fee rule
func (s *CatalogService) DeleteFeeRule(ctx context.Context, feeID string) error {
	existing, err := s.feeRepo.FindByID(ctx, feeID)
	if err != nil {
		return fmt.Errorf("failed to get fee rule: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", domain.ErrFeeRuleNotFound, feeID)
	}

	if err := s.feeRepo.Delete(ctx, feeID); err != nil {
		s.logger.WithError(err).Error("Failed to delete fee rule", "feeId", feeID)
		return fmt.Errorf("failed to delete fee rule: %w", err)
	}

	s.logger.Audit(ctx, "delete", "fee", feeID, actor(ctx), nil)
	return nil
}

func toProductDraft(cmd ProductCommand) domain.ProductDraft {
	draft := domain.ProductDraft{
		Name:      cmd.Name,
		BasePrice: cmd.BasePrice,
	}
	if cmd.AnimalType != nil {
		animal := domain.AnimalType(*cmd.AnimalType)
		draft.AnimalType = &animal
	}
	if cmd.ServiceType != nil {
		service := domain.ServiceType(*cmd.ServiceType)
		draft.ServiceType = &service
	}
	if cmd.Variants != nil {
		draft.Variants = make([]domain.WeightVariant, len(cmd.Variants))
		for i, v := range cmd.Variants {
			draft.Variants[i] = domain.WeightVariant{Weight: v.Weight, Price: v.Price}
		}
	}
	return draft
}

func toFeeRuleDraft(cmd FeeRuleCommand) domain.FeeRuleDraft {
	draft := domain.FeeRuleDraft{
		Label: cmd.Label,
		Value: cmd.Value,
	}
	if cmd.Kind != nil {
		kind := domain.FeeKind(*cmd.Kind)
		draft.Kind = &kind
	}
	return draft
}
