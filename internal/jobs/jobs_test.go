package jobs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/notification"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/storage"
	"github.com/superdoll/tracker-api/internal/testutil"
	"go.uber.org/zap"
)

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestScheduler_AddRemove(t *testing.T) {
	s := NewScheduler(zap.NewNop(), time.Second, time.UTC)
	noop := funcJob{name: "b", run: func(context.Context) error { return nil }}

	require.NoError(t, s.Add("@daily", noop))
	require.NoError(t, s.Add("0 7 * * *", funcJob{name: "a", run: noop.run}))
	assert.Error(t, s.Add("@hourly", noop))
	assert.Error(t, s.Add("not a cron", funcJob{name: "c", run: noop.run}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	require.NoError(t, s.Remove("a"))
	assert.Error(t, s.Remove("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	s := NewScheduler(zap.NewNop(), 20*time.Millisecond, time.UTC)
	err := s.RunNow(funcJob{name: "slow", run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StopCancelsRuns(t *testing.T) {
	s := NewScheduler(zap.NewNop(), time.Minute, time.UTC)
	s.Start()
	s.Stop(context.Background())

	err := s.RunNow(funcJob{name: "late", run: func(ctx context.Context) error { return ctx.Err() }})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(zap.NewNop(), time.Second, time.UTC)
	reminder := NewFollowUpReminderJob(&fakeFollowUps{}, &recordingSender{}, "S", time.UTC, zap.NewNop())
	archive := NewReportArchiveJob(&fakeOrders{}, nil, time.UTC, zap.NewNop())

	require.NoError(t, Register(s, &config.JobsConfig{FollowUpReminderCron: "0 8 * * *"}, reminder, archive))
	assert.Equal(t, []string{FollowUpReminderJobName}, s.JobNames())
}

type fakeFollowUps struct {
	day    time.Time
	orders []domain.Order
	err    error
	marked []uuid.UUID
}

func (f *fakeFollowUps) DueFollowUps(_ context.Context, day time.Time) ([]domain.Order, error) {
	f.day = day
	return f.orders, f.err
}

func (f *fakeFollowUps) MarkFollowUpReminded(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

type recordingSender struct {
	phones   []string
	messages []string
	failFor  string
}

func (r *recordingSender) Send(_ context.Context, phone, message string) (notification.SendResult, error) {
	if phone == r.failFor {
		return notification.SendResult{Info: "rejected"}, errors.New("rejected")
	}
	r.phones = append(r.phones, phone)
	r.messages = append(r.messages, message)
	return notification.SendResult{OK: true}, nil
}

func TestFollowUpReminderJob(t *testing.T) {
	asha := uuid.New()
	source := &fakeFollowUps{orders: []domain.Order{
		{BaseModel: domain.BaseModel{ID: asha}, OrderNumber: "ORD00000001", InquiryType: domain.InquiryTypePricing, Customer: &domain.Customer{FullName: "Asha", Phone: "+255700000001"}},
		{BaseModel: domain.BaseModel{ID: uuid.New()}, OrderNumber: "ORD00000002", Customer: &domain.Customer{FullName: "Bakari", Phone: "+255700000002"}},
		{BaseModel: domain.BaseModel{ID: uuid.New()}, OrderNumber: "ORD00000003"},
	}}
	sender := &recordingSender{failFor: "+255700000002"}
	job := NewFollowUpReminderJob(source, sender, "Superdoll Support", time.UTC, zap.NewNop())
	job.now = func() time.Time { return time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), source.day)
	assert.Equal(t, []string{"+255700000001"}, sender.phones)
	assert.Equal(t,
		"Hello Asha, we are following up on your inquiry (Pricing), ref ORD00000001. Reply or call us and we will be glad to help. - Superdoll Support",
		sender.messages[0])
	assert.Equal(t, []uuid.UUID{asha}, source.marked)

	source.err = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))
}

func TestFollowUpReminderJob_RemindsOncePerFollowUpDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	customer := testutil.CreateTestCustomer(t, db, "Asha")
	followUp := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestOrder(t, db, customer.ID, domain.ConsultationPayload{
		InquiryType: domain.InquiryTypePricing, Questions: "Price?", FollowUpDate: &followUp,
	}, domain.OrderStatusInProgress)

	sender := &recordingSender{}
	job := NewFollowUpReminderJob(repository.NewOrderRepository(db), sender, "S", time.UTC, zap.NewNop())
	for day := 10; day <= 12; day++ {
		job.now = func() time.Time { return time.Date(2026, 10, day, 8, 0, 0, 0, time.UTC) }
		require.NoError(t, job.Run(context.Background()))
	}

	assert.Equal(t, []string{customer.Phone}, sender.phones)
}

func TestFollowUpReminderMessage_DefaultsToGeneral(t *testing.T) {
	msg := FollowUpReminderMessage(&domain.Order{OrderNumber: "ORD1"}, "S")
	assert.Contains(t, msg, "(General)")
}

type fakeOrders struct {
	filter repository.OrderFilter
	orders []domain.Order
}

func (f *fakeOrders) EachOrder(_ context.Context, filter repository.OrderFilter, fn func(*domain.Order) error) error {
	f.filter = filter
	for i := range f.orders {
		if err := fn(&f.orders[i]); err != nil {
			return err
		}
	}
	return nil
}

func TestReportArchiveJob(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	source := &fakeOrders{orders: []domain.Order{
		{OrderNumber: "ORD00000001", Type: domain.OrderTypeService, Status: domain.OrderStatusCompleted, Priority: domain.OrderPriorityMedium},
	}}

	job := NewReportArchiveJob(source, store, time.UTC, zap.NewNop())
	job.now = func() time.Time { return time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC) }
	require.NoError(t, job.Run(context.Background()))

	require.NotNil(t, source.filter.From)
	require.NotNil(t, source.filter.To)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), *source.filter.From)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), *source.filter.To)

	assert.Equal(t, "reports/orders-2024-06-02.csv", ArchiveKey(*source.filter.From))
	r, err := store.Open(context.Background(), "reports/orders-2024-06-02.csv")
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Order,Customer,Type,Status,Priority,Created At\n"))
	assert.Contains(t, string(body), "ORD00000001,,service,completed,medium,")
}
