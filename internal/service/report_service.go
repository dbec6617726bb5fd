package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
)

// ReportOrderLimit caps the orders listed in a report
const ReportOrderLimit = 300

// ReportPeriod selects the window and bucket size of an advanced report
type ReportPeriod string

const (
	PeriodDaily   ReportPeriod = "daily"
	PeriodWeekly  ReportPeriod = "weekly"
	PeriodMonthly ReportPeriod = "monthly"
	PeriodYearly  ReportPeriod = "yearly"
)

func (p ReportPeriod) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// ReportFilter selects orders created on days [From, To], both inclusive
type ReportFilter struct {
	From time.Time
	To   time.Time
	Type domain.OrderType
}

type ReportService struct {
	orderRepo    *repository.OrderRepository
	customerRepo *repository.CustomerRepository
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

func NewReportService(
	orderRepo *repository.OrderRepository,
	customerRepo *repository.CustomerRepository,
	loc *time.Location,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// DefaultReportFilter covers the last 30 days including today
func (s *ReportService) DefaultReportFilter() ReportFilter {
	today := startOfDay(s.now(), s.loc)
	return ReportFilter{From: today.AddDate(0, 0, -29), To: today}
}

// OrderFilter converts the day range to a half-open creation window
func (f ReportFilter) OrderFilter(loc *time.Location) repository.OrderFilter {
	from := startOfDay(f.From, loc)
	to := startOfDay(f.To, loc).AddDate(0, 0, 1)
	return repository.OrderFilter{From: &from, To: &to, Type: f.Type}
}

// Report returns status totals and up to ReportOrderLimit orders in the window
func (s *ReportService) Report(ctx context.Context, filter ReportFilter) (*domain.ReportDTO, error) {
	if filter.To.Before(filter.From) {
		return nil, fieldError("to", "End date must not be before start date")
	}
	of := filter.OrderFilter(s.loc)

	counts, err := s.orderRepo.CountByStatus(ctx, of)
	if err != nil {
		return nil, fmt.Errorf("failed to count report orders: %w", err)
	}
	orders, err := s.orderRepo.ListAll(ctx, of, ReportOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report orders: %w", err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &domain.ReportDTO{
		From: filter.From.Format(domain.DateLayout),
		To:   filter.To.Format(domain.DateLayout),
		Type: filter.Type,
		Stats: domain.ReportStatsDTO{
			Total:      total,
			Completed:  counts[domain.OrderStatusCompleted],
			InProgress: counts[domain.OrderStatusInProgress],
			Cancelled:  counts[domain.OrderStatusCancelled],
		},
		Orders: mapper.ToOrderDTOs(orders),
	}, nil
}

// periodWindow is the creation window of a period, its bucket labels and the
// function placing a local timestamp in a bucket
type periodWindow struct {
	from   time.Time
	to     time.Time
	labels []string
	bucket func(t time.Time) int
}

func (s *ReportService) window(period ReportPeriod) periodWindow {
	today := startOfDay(s.now(), s.loc)
	tomorrow := today.AddDate(0, 0, 1)

	dayBuckets := func(from time.Time, days int, layout string) periodWindow {
		labels := make([]string, days)
		for i := range labels {
			labels[i] = from.AddDate(0, 0, i).Format(layout)
		}
		return periodWindow{
			from:   from,
			to:     tomorrow,
			labels: labels,
			bucket: func(t time.Time) int {
				return int(startOfDay(t, s.loc).Sub(from).Hours() / 24)
			},
		}
	}

	switch period {
	case PeriodDaily:
		labels := make([]string, 24)
		for h := range labels {
			labels[h] = fmt.Sprintf("%02d:00", h)
		}
		return periodWindow{
			from:   today,
			to:     tomorrow,
			labels: labels,
			bucket: func(t time.Time) int { return t.In(s.loc).Hour() },
		}
	case PeriodWeekly:
		return dayBuckets(today.AddDate(0, 0, -6), 7, "Mon")
	case PeriodYearly:
		jan1 := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, s.loc)
		labels := make([]string, 12)
		for m := range labels {
			labels[m] = time.Month(m + 1).String()[:3]
		}
		return periodWindow{
			from:   jan1,
			to:     tomorrow,
			labels: labels,
			bucket: func(t time.Time) int { return int(t.In(s.loc).Month()) - 1 },
		}
	default:
		return dayBuckets(today.AddDate(0, 0, -29), 30, "02")
	}
}

// Advanced summarizes the period with completion and kind breakdowns and
// per-kind creation counts for each bucket of the period
func (s *ReportService) Advanced(ctx context.Context, period ReportPeriod) (*domain.AdvancedReportDTO, error) {
	if !period.IsValid() {
		period = PeriodMonthly
	}
	w := s.window(period)
	of := repository.OrderFilter{From: &w.from, To: &w.to}

	stamps, err := s.orderRepo.Stamps(ctx, of)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for report: %w", err)
	}
	avg, err := s.orderRepo.AverageDuration(ctx, of)
	if err != nil {
		return nil, fmt.Errorf("failed to average durations: %w", err)
	}
	newCustomers, err := s.customerRepo.CountRegisteredBetween(ctx, w.from, w.to)
	if err != nil {
		return nil, fmt.Errorf("failed to count new customers: %w", err)
	}
	totalCustomers, err := s.customerRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	kinds := []domain.OrderType{domain.OrderTypeService, domain.OrderTypeSales, domain.OrderTypeConsultation}
	dto := &domain.AdvancedReportDTO{
		Period:          string(period),
		From:            w.from.Format(domain.DateLayout),
		To:              w.to.AddDate(0, 0, -1).Format(domain.DateLayout),
		TotalCustomers:  totalCustomers,
		NewCustomers:    newCustomers,
		AvgDurationMin:  math.Round(avg*10) / 10,
		TypeCounts:      make(map[domain.OrderType]int64, len(kinds)),
		TypePercentages: make(map[domain.OrderType]float64, len(kinds)),
		Labels:          w.labels,
		Trend:           make(map[domain.OrderType][]int64, len(kinds)),
	}
	for _, k := range kinds {
		dto.TypeCounts[k] = 0
		dto.Trend[k] = make([]int64, len(w.labels))
	}

	for _, st := range stamps {
		dto.TotalOrders++
		switch st.Status {
		case domain.OrderStatusCompleted:
			dto.CompletedOrders++
		case domain.OrderStatusCancelled:
			dto.CancelledOrders++
		default:
			dto.PendingOrders++
		}
		dto.TypeCounts[st.Type]++
		if series, ok := dto.Trend[st.Type]; ok {
			if i := w.bucket(st.CreatedAt); i >= 0 && i < len(series) {
				series[i]++
			}
		}
	}

	dto.CompletionRate = ratio(dto.CompletedOrders, dto.TotalOrders)
	for _, k := range kinds {
		dto.TypePercentages[k] = ratio(dto.TypeCounts[k], dto.TotalOrders)
	}
	return dto, nil
}

// ratio is part/total as a percentage rounded to one decimal
func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
