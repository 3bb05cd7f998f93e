package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

// revenueDays is the length of the dashboard revenue series
const revenueDays = 7

// StatsService aggregates the admin dashboard
type StatsService struct {
	orderRepo   domain.OrderRepository
	userRepo    domain.UserRepository
	articleRepo domain.ArticleRepository
	now         func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(
	orderRepo domain.OrderRepository,
	userRepo domain.UserRepository,
	articleRepo domain.ArticleRepository,
) *StatsService {
	return &StatsService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		articleRepo: articleRepo,
		now:         time.Now,
	}
}

// Stats computes order, revenue, user and content totals. Revenue is the
// sum of every order total regardless of status.
func (s *StatsService) Stats(ctx context.Context) (*StatsDTO, error) {
	orders, err := s.orderRepo.FindAll(ctx, domain.OrderFilter{}, domain.Unpaginated())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	seriesStart := today.AddDate(0, 0, -(revenueDays - 1))
	series := make([]DailyRevenueDTO, revenueDays)
	dailyRevenue := make([]decimal.Decimal, revenueDays)
	for i := range series {
		series[i].Date = seriesStart.AddDate(0, 0, i).Format(time.DateOnly)
	}

	stats := &StatsDTO{
		TotalOrders:    int64(len(orders)),
		OrdersByStatus: make(map[string]int64),
	}
	revenue := decimal.Zero
	for _, o := range orders {
		stats.OrdersByStatus[string(o.Status)]++
		if o.NeedsDocumentation() {
			stats.PendingDocs++
		}
		revenue = revenue.Add(o.TotalPrice)

		day := int(o.CreatedAt.UTC().Truncate(24*time.Hour).Sub(seriesStart).Hours() / 24)
		if day >= 0 && day < revenueDays {
			series[day].Orders++
			dailyRevenue[day] = dailyRevenue[day].Add(o.TotalPrice)
		}
	}
	for i := range series {
		series[i].Revenue = dailyRevenue[i].String()
	}
	stats.TotalRevenue = revenue.String()
	stats.LastSevenDays = series

	if stats.TotalUsers, err = s.userRepo.Count(ctx, domain.UserFilter{}); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	active := true
	if stats.ActiveUsers, err = s.userRepo.Count(ctx, domain.UserFilter{IsActive: &active}); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	published := domain.ArticleStatusPublished
	articles, err := s.articleRepo.FindAll(ctx, domain.ArticleFilter{Status: &published})
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	stats.PublishedArticles = len(articles)

	return stats, nil
}
