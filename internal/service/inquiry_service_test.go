package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/testutil"
)

func TestInquiryReplyMessage(t *testing.T) {
	assert.Equal(t,
		"Hello Amina, regarding your inquiry (Pricing): It is 180,000 - Superdoll Support",
		InquiryReplyMessage("Amina", domain.InquiryTypePricing, "It is 180,000", "Superdoll Support"))
	assert.Contains(t, InquiryReplyMessage("Amina", "", "ok", "S"), "(General)")
}

func TestInquiryService_Respond(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	inquiry := testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCreated)

	env.inquiries.now = func() time.Time { return time.Date(2024, 6, 3, 14, 5, 0, 0, time.UTC) }
	res, err := env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{
		Response:     "Four tyres cost 720,000",
		FollowUpDate: "2024-06-10",
	})
	require.NoError(t, err)
	assert.True(t, res.SMSSent)
	assert.Equal(t, "SM1", res.SMSInfo)
	assert.Equal(t, domain.OrderStatusInProgress, res.Order.Status)
	assert.Equal(t, "2024-06-10", res.Order.FollowUpDate)
	assert.Equal(t, "[2024-06-03 14:05] Response: Four tyres cost 720,000", res.Order.Notes)

	assert.Equal(t, customer.Phone, env.sender.phone)
	assert.Equal(t, "Hello Amina, regarding your inquiry (Pricing): Four tyres cost 720,000 - Superdoll Support", env.sender.message)

	// second answer is appended and the status stays in progress
	res, err = env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{Response: "Fitting is free"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, res.Order.Status)
	assert.Equal(t, 2, strings.Count(res.Order.Notes, "Response:"))
	assert.Contains(t, res.Order.Notes, "\n\n[2024-06-03 14:05] Response: Fitting is free")
}

func TestInquiryService_RespondRescheduleRearmsReminder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	inquiry := testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusInProgress)
	require.NoError(t, env.orderRepo.MarkFollowUpReminded(ctx, inquiry.ID, time.Now().UTC()))

	_, err := env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{Response: "No update yet"})
	require.NoError(t, err)
	reloaded, err := env.orderRepo.GetByID(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.FollowUpRemindedAt)

	_, err = env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{Response: "Call you Monday", FollowUpDate: "2024-06-10"})
	require.NoError(t, err)
	reloaded, err = env.orderRepo.GetByID(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.FollowUpRemindedAt)
}

func TestInquiryService_RespondSavesWhenSMSFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	inquiry := testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCreated)
	env.sender.err = errors.New("No SMS provider configured")

	res, err := env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{Response: "Call us"})
	require.NoError(t, err)
	assert.False(t, res.SMSSent)
	assert.Equal(t, "No SMS provider configured", res.SMSInfo)
	assert.Contains(t, res.Order.Notes, "Response: Call us")
}

func TestInquiryService_RespondValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	inquiry := testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCreated)
	service := testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCreated)

	_, err := env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{Response: "  "})
	requireField(t, err, "response")

	_, err = env.inquiries.Respond(ctx, inquiry.ID, &domain.RespondInquiryRequest{Response: "ok", FollowUpDate: "10/06/2024"})
	requireField(t, err, "follow_up_date")

	_, err = env.inquiries.Respond(ctx, service.ID, &domain.RespondInquiryRequest{Response: "ok"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Empty(t, env.sender.message)
}

func TestInquiryService_StatsAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	first := testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCreated)
	testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCreated)
	testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCreated)

	stats, err := env.inquiries.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.InquiryStatsDTO{New: 2}, *stats)

	resolved, err := env.inquiries.UpdateStatus(ctx, first.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, resolved.Status)

	var cached domain.InquiryStatsDTO
	found, err := env.store.Get(ctx, cache.KeyInquiryStats, &cached)
	require.NoError(t, err)
	assert.False(t, found)

	stats, err = env.inquiries.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.InquiryStatsDTO{New: 1, Resolved: 1}, *stats)

	_, err = env.inquiries.UpdateStatus(ctx, first.ID, domain.OrderStatusCancelled)
	requireField(t, err, "status")

	_, err = env.inquiries.UpdateStatus(ctx, first.ID, domain.OrderStatusCreated)
	requireField(t, err, "status")

	reloaded, err := env.inquiries.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, reloaded.Status)
}

func TestInquiryService_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	past := time.Now().UTC().AddDate(0, 0, -3)
	overdue := consultationPayload()
	overdue.FollowUpDate = &past
	testutil.CreateTestOrder(t, env.db, customer.ID, overdue, domain.OrderStatusCreated)

	general := consultationPayload()
	general.InquiryType = domain.InquiryTypeGeneral
	testutil.CreateTestOrder(t, env.db, customer.ID, general, domain.OrderStatusInProgress)
	testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCreated)

	all, err := env.inquiries.List(ctx, 1, 0, InquiryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, 12, all.PageSize)

	byType, err := env.inquiries.List(ctx, 1, 0, InquiryFilter{InquiryType: domain.InquiryTypeGeneral})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byType.Total)

	byStatus, err := env.inquiries.List(ctx, 1, 0, InquiryFilter{Status: domain.OrderStatusCreated})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byStatus.Total)

	late, err := env.inquiries.List(ctx, 1, 0, InquiryFilter{FollowUp: repository.FollowUpOverdue})
	require.NoError(t, err)
	assert.Equal(t, int64(1), late.Total)
}
