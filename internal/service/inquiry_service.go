package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/notification"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
)

const inquiryPageSize = 12

// InquiryFilter narrows the inquiry list
type InquiryFilter struct {
	InquiryType domain.InquiryType
	Status      domain.OrderStatus
	FollowUp    repository.FollowUpFilter
}

// InquiryService works on consultation orders: listing, answering by SMS and
// moving them between new, in progress and resolved.
type InquiryService struct {
	orderRepo *repository.OrderRepository
	orders    *OrderService
	sender    notification.Sender
	store     cache.Store
	ttl       *config.CacheConfig
	signOff   string
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewInquiryService(
	orderRepo *repository.OrderRepository,
	orders *OrderService,
	sender notification.Sender,
	store cache.Store,
	ttl *config.CacheConfig,
	signOff string,
	loc *time.Location,
	logger *zap.Logger,
) *InquiryService {
	return &InquiryService{
		orderRepo: orderRepo,
		orders:    orders,
		sender:    sender,
		store:     store,
		ttl:       ttl,
		signOff:   signOff,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *InquiryService) List(ctx context.Context, page, pageSize int, filter InquiryFilter) (*domain.PaginatedResponse, error) {
	if pageSize <= 0 {
		pageSize = inquiryPageSize
	}
	f := repository.OrderFilter{
		Type:        domain.OrderTypeConsultation,
		InquiryType: filter.InquiryType,
		FollowUp:    filter.FollowUp,
		Today:       startOfDay(s.now(), s.loc),
	}
	if filter.Status != "" {
		f.Statuses = []domain.OrderStatus{filter.Status}
	}
	return s.orders.List(ctx, page, pageSize, f, repository.DefaultSortConfig())
}

// Stats counts inquiries that are new, in progress and resolved
func (s *InquiryService) Stats(ctx context.Context) (*domain.InquiryStatsDTO, error) {
	stats, err := cache.Remember(ctx, s.store, s.logger, cache.KeyInquiryStats, s.ttl.InquiryStatsTTLDuration(),
		func() (domain.InquiryStatsDTO, error) {
			counts, err := s.orderRepo.CountByStatus(ctx, repository.OrderFilter{Type: domain.OrderTypeConsultation})
			if err != nil {
				return domain.InquiryStatsDTO{}, fmt.Errorf("failed to count inquiries: %w", err)
			}
			return domain.InquiryStatsDTO{
				New:        counts[domain.OrderStatusCreated],
				InProgress: counts[domain.OrderStatusInProgress],
				Resolved:   counts[domain.OrderStatusCompleted],
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *InquiryService) Get(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	inquiry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOrderDTO(inquiry)
	return &dto, nil
}

func (s *InquiryService) get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}
	if order.Type != domain.OrderTypeConsultation {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// Respond records a staff answer in the inquiry notes, optionally moves the
// follow-up date and texts the answer to the customer. A new inquiry moves to
// in progress. SMS failure is reported in the result, not as an error.
func (s *InquiryService) Respond(ctx context.Context, id uuid.UUID, req *domain.RespondInquiryRequest) (*domain.InquiryResponseDTO, error) {
	text := strings.TrimSpace(req.Response)
	if text == "" {
		return nil, fieldError("response", "Response message is required")
	}

	inquiry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := fmt.Sprintf("[%s] Response: %s", now.In(s.loc).Format("2006-01-02 15:04"), text)
	notes := entry
	if inquiry.Notes != "" {
		notes = inquiry.Notes + "\n\n" + entry
	}
	fields := map[string]interface{}{"notes": notes, "updated_at": now.UTC()}

	if req.FollowUpDate != "" {
		date, err := domain.ParseDate("follow_up_date", req.FollowUpDate)
		if err != nil {
			return nil, err
		}
		fields["follow_up_date"] = *date
		// a new date earns a new reminder
		fields["follow_up_reminded_at"] = nil
	}

	if err := s.orderRepo.UpdateFields(ctx, inquiry, fields); err != nil {
		return nil, fmt.Errorf("failed to save inquiry response: %w", err)
	}

	if inquiry.Status == domain.OrderStatusCreated {
		if _, err := s.orders.Transition(ctx, id, domain.OrderStatusInProgress); err != nil {
			return nil, err
		}
	} else if err := s.store.Invalidate(ctx, cache.KeyInquiryStats); err != nil {
		s.logger.Warn("failed to invalidate inquiry stats", zap.Error(err))
	}

	result := &domain.InquiryResponseDTO{}
	if req.SendSMS == nil || *req.SendSMS {
		result.SMSSent, result.SMSInfo = s.notify(ctx, inquiry, text)
	}

	dto, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Order = *dto
	return result, nil
}

func (s *InquiryService) notify(ctx context.Context, inquiry *domain.Order, text string) (bool, string) {
	if inquiry.Customer == nil {
		return false, "customer not loaded"
	}
	message := InquiryReplyMessage(inquiry.Customer.FullName, inquiry.InquiryType, text, s.signOff)

	res, err := s.sender.Send(ctx, inquiry.Customer.Phone, message)
	if err != nil {
		s.logger.Warn("inquiry response saved but SMS not sent",
			zap.String("order_number", inquiry.OrderNumber),
			zap.Error(err))
		return false, res.Info
	}
	return res.OK, res.Info
}

// InquiryReplyMessage is the SMS text sent when staff answer an inquiry
func InquiryReplyMessage(name string, inquiryType domain.InquiryType, text, signOff string) string {
	kind := string(inquiryType)
	if kind == "" {
		kind = "General"
	}
	return fmt.Sprintf("Hello %s, regarding your inquiry (%s): %s - %s", name, kind, text, signOff)
}

// UpdateStatus moves an inquiry forward to in progress or resolved. Inquiries
// are never reopened.
func (s *InquiryService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.OrderDTO, error) {
	switch status {
	case domain.OrderStatusInProgress, domain.OrderStatusCompleted:
	default:
		return nil, fieldError("status", "Invalid status")
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	return s.orders.Transition(ctx, id, status)
}
