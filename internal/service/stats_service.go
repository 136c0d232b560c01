package service

import (
	"context"
	"fmt"

	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/util"
)

// Twelve buckets covers the dashboard's monthly revenue chart.
const monthlyRevenueBuckets = 12

// StatsStore is the aggregation surface the stats service depends on
type StatsStore interface {
	CountCustomers(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	PaidRevenue(ctx context.Context) (float64, error)
	MonthlyRevenue(ctx context.Context, limit int) ([]models.MonthlyRevenue, error)
}

// StatsService computes the admin dashboard aggregates. Each sub-query runs
// independently per call; consistency is read-committed at query time, not
// transactional across the aggregates.
type StatsService struct {
	store StatsStore
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

// DashboardStats returns the admin dashboard numbers
func (s *StatsService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "StatsService.DashboardStats")
	defer span.End()

	totalUsers, err := s.store.CountCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	totalOrders, err := s.store.CountOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	totalProducts, err := s.store.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	revenue, err := s.store.PaidRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	monthly, err := s.store.MonthlyRevenue(ctx, monthlyRevenueBuckets)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket monthly revenue: %w", err)
	}
	if monthly == nil {
		monthly = []models.MonthlyRevenue{}
	}

	return &models.DashboardStats{
		TotalUsers:     totalUsers,
		TotalOrders:    totalOrders,
		TotalProducts:  totalProducts,
		Revenue:        revenue,
		MonthlyRevenue: monthly,
	}, nil
}
