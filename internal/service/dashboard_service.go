package service

import (
	"context"
	"fmt"
	"time"

	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
)

const (
	trendDays           = 14
	dashboardRecentSize = 10
	inventoryPreview    = 10
)

// DashboardService builds the dashboard and analytics read-models
type DashboardService struct {
	orderRepo     *repository.OrderRepository
	customerRepo  *repository.CustomerRepository
	inventoryRepo *repository.InventoryRepository
	store         cache.Store
	ttl           *config.CacheConfig
	loc           *time.Location
	now           func() time.Time
	logger        *zap.Logger
}

func NewDashboardService(
	orderRepo *repository.OrderRepository,
	customerRepo *repository.CustomerRepository,
	inventoryRepo *repository.InventoryRepository,
	store cache.Store,
	ttl *config.CacheConfig,
	loc *time.Location,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		orderRepo:     orderRepo,
		customerRepo:  customerRepo,
		inventoryRepo: inventoryRepo,
		store:         store,
		ttl:           ttl,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
	}
}

// startOfDay returns local midnight of t
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Get returns the dashboard metrics, cached for the dashboard TTL
func (s *DashboardService) Get(ctx context.Context) (*domain.DashboardDTO, error) {
	dto, err := cache.Remember(ctx, s.store, s.logger, cache.KeyDashboard, s.ttl.DashboardTTLDuration(),
		func() (domain.DashboardDTO, error) {
			return s.build(ctx)
		})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *DashboardService) build(ctx context.Context) (domain.DashboardDTO, error) {
	var dto domain.DashboardDTO
	all := repository.OrderFilter{}

	statusCounts, err := s.orderRepo.CountByStatus(ctx, all)
	if err != nil {
		return dto, fmt.Errorf("failed to count orders by status: %w", err)
	}
	typeCounts, err := s.orderRepo.CountByType(ctx, all)
	if err != nil {
		return dto, fmt.Errorf("failed to count orders by type: %w", err)
	}
	priorityCounts, err := s.orderRepo.CountByPriority(ctx, all)
	if err != nil {
		return dto, fmt.Errorf("failed to count orders by priority: %w", err)
	}
	totalCustomers, err := s.customerRepo.Count(ctx)
	if err != nil {
		return dto, fmt.Errorf("failed to count customers: %w", err)
	}

	today := startOfDay(s.now(), s.loc)
	completedToday, err := s.orderRepo.CountCompletedBetween(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return dto, fmt.Errorf("failed to count completed orders: %w", err)
	}
	trend, err := s.trend(ctx, today)
	if err != nil {
		return dto, err
	}
	totalStock, err := s.inventoryRepo.TotalStock(ctx)
	if err != nil {
		return dto, fmt.Errorf("failed to sum stock: %w", err)
	}
	recent, err := s.orderRepo.Recent(ctx, dashboardRecentSize)
	if err != nil {
		return dto, fmt.Errorf("failed to list recent orders: %w", err)
	}
	latestItems, err := s.inventoryRepo.Latest(ctx, inventoryPreview)
	if err != nil {
		return dto, fmt.Errorf("failed to list inventory: %w", err)
	}

	fillStatuses(statusCounts)
	fillTypes(typeCounts)
	for _, p := range []domain.OrderPriority{domain.OrderPriorityLow, domain.OrderPriorityMedium, domain.OrderPriorityHigh, domain.OrderPriorityUrgent} {
		if _, ok := priorityCounts[p]; !ok {
			priorityCounts[p] = 0
		}
	}

	var total int64
	for _, n := range statusCounts {
		total += n
	}

	dto = domain.DashboardDTO{
		TotalOrders:      total,
		TotalCustomers:   totalCustomers,
		CompletedToday:   completedToday,
		PendingOrders:    statusCounts[domain.OrderStatusCreated],
		InProgressOrders: statusCounts[domain.OrderStatusInProgress],
		ActiveOrders: statusCounts[domain.OrderStatusCreated] +
			statusCounts[domain.OrderStatusAssigned] +
			statusCounts[domain.OrderStatusInProgress],
		CompletedPercent: percent(statusCounts[domain.OrderStatusCompleted], total),
		TotalStock:       totalStock,
		StatusCounts:     statusCounts,
		TypeCounts:       typeCounts,
		PriorityCounts:   priorityCounts,
		Trend:            trend,
		RecentOrders:     mapper.ToOrderDTOs(recent),
		InventoryPreview: mapper.ToInventoryItemDTOs(latestItems),
		GeneratedAt:      s.now().UTC().Format(time.RFC3339),
	}
	return dto, nil
}

// trend counts orders created on each of the trendDays days ending today
func (s *DashboardService) trend(ctx context.Context, today time.Time) ([]domain.TrendPointDTO, error) {
	from := today.AddDate(0, 0, -(trendDays - 1))
	to := today.AddDate(0, 0, 1)
	stamps, err := s.orderRepo.Stamps(ctx, repository.OrderFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to load order trend: %w", err)
	}

	points := make([]domain.TrendPointDTO, trendDays)
	index := make(map[string]int, trendDays)
	for i := range points {
		label := from.AddDate(0, 0, i).Format(domain.DateLayout)
		points[i].Label = label
		index[label] = i
	}
	for _, st := range stamps {
		if i, ok := index[st.CreatedAt.In(s.loc).Format(domain.DateLayout)]; ok {
			points[i].Count++
		}
	}
	return points, nil
}

// Analytics returns status and kind breakdowns, the order trend and average durations
func (s *DashboardService) Analytics(ctx context.Context) (*domain.AnalyticsDTO, error) {
	all := repository.OrderFilter{}
	statusCounts, err := s.orderRepo.CountByStatus(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	typeCounts, err := s.orderRepo.CountByType(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by type: %w", err)
	}
	trend, err := s.trend(ctx, startOfDay(s.now(), s.loc))
	if err != nil {
		return nil, err
	}
	durations, err := s.orderRepo.AverageDurationByType(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("failed to average durations: %w", err)
	}

	fillStatuses(statusCounts)
	fillTypes(typeCounts)
	return &domain.AnalyticsDTO{
		StatusCounts:       statusCounts,
		TypeCounts:         typeCounts,
		Trend:              trend,
		AverageDurationMin: durations,
	}, nil
}

func fillStatuses(counts map[domain.OrderStatus]int64) {
	for _, st := range domain.AllOrderStatuses {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
}

func fillTypes(counts map[domain.OrderType]int64) {
	for _, t := range []domain.OrderType{domain.OrderTypeService, domain.OrderTypeSales, domain.OrderTypeConsultation} {
		if _, ok := counts[t]; !ok {
			counts[t] = 0
		}
	}
}

// percent is floor(part * 100 / total), or 0 for an empty total
func percent(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int(part * 100 / total)
}
