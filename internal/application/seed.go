package application

import (
	"context"
	"fmt"

	"github.com/rezahawari/qurban-marketplace/internal/config"
	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

// Seeder loads catalog seed data into empty repositories
type Seeder struct {
	productRepo domain.ProductRepository
	feeRepo     domain.FeeRuleRepository
	orderRepo   domain.OrderRepository
	userRepo    domain.UserRepository
	articleRepo domain.ArticleRepository
	logger      *logging.Logger
}

// NewSeeder creates a new Seeder
func NewSeeder(
	productRepo domain.ProductRepository,
	feeRepo domain.FeeRuleRepository,
	orderRepo domain.OrderRepository,
	userRepo domain.UserRepository,
	articleRepo domain.ArticleRepository,
	logger *logging.Logger,
) *Seeder {
	return &Seeder{
		productRepo: productRepo,
		feeRepo:     feeRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		articleRepo: articleRepo,
		logger:      logger,
	}
}

// Seed writes each section of seed into its repository when that
// repository is empty. Existing data is never overwritten.
func (s *Seeder) Seed(ctx context.Context, seed *config.Seed) error {
	products, err := s.productRepo.Count(ctx, domain.ProductFilter{})
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if products == 0 {
		for _, p := range seed.Products {
			if err := s.productRepo.Save(ctx, p); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.ProductID, err)
			}
		}
		s.logger.Info("Seeded products", "count", len(seed.Products))
	}

	fees, err := s.feeRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list fee rules: %w", err)
	}
	if len(fees) == 0 {
		for _, f := range seed.Fees {
			if err := s.feeRepo.Save(ctx, f); err != nil {
				return fmt.Errorf("failed to seed fee rule %s: %w", f.FeeID, err)
			}
		}
		s.logger.Info("Seeded fee rules", "count", len(seed.Fees))
	}

	users, err := s.userRepo.Count(ctx, domain.UserFilter{})
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if users == 0 {
		for _, u := range seed.Users {
			if err := s.userRepo.Save(ctx, u); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.UserID, err)
			}
		}
		s.logger.Info("Seeded users", "count", len(seed.Users))
	}

	orders, err := s.orderRepo.Count(ctx, domain.OrderFilter{})
	if err != nil {
		return fmt.Errorf("failed to count orders: %w", err)
	}
	if orders == 0 {
		for _, o := range seed.Orders {
			if err := s.orderRepo.Save(ctx, o); err != nil {
				return fmt.Errorf("failed to seed order %s: %w", o.OrderID, err)
			}
		}
		s.logger.Info("Seeded orders", "count", len(seed.Orders))
	}

	articles, err := s.articleRepo.FindAll(ctx, domain.ArticleFilter{})
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}
	if len(articles) == 0 {
		for _, a := range seed.Articles {
			if err := s.articleRepo.Save(ctx, a); err != nil {
				return fmt.Errorf("failed to seed article %s: %w", a.ArticleID, err)
			}
		}
		s.logger.Info("Seeded articles", "count", len(seed.Articles))
	}

	return nil
}

// ReserveOrderIDs marks every stored order id as taken so new orders never
// collide with them
func (s *Seeder) ReserveOrderIDs(ctx context.Context, ids *domain.OrderIDGenerator) error {
	orders, err := s.orderRepo.FindAll(ctx, domain.OrderFilter{}, domain.Unpaginated())
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}
	taken := make([]string, len(orders))
	for i, o := range orders {
		taken[i] = o.OrderID
	}
	ids.Reserve(taken...)
	return nil
}
