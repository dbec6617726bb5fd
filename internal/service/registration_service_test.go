package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/testutil"
)

func stageCustomer(t *testing.T, env *testEnv, intent domain.RegistrationIntent) domain.RegistrationState {
	t.Helper()
	ctx := context.Background()

	out, err := env.registration.SubmitCustomer(ctx, domain.NewRegistrationState(), &domain.RegistrationCustomerRequest{
		FullName: " Amina Nakato ",
		Phone:    "+256700000201",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StepIntent, out.State.Step)
	assert.Equal(t, "Amina Nakato", out.State.Customer.FullName)

	out, err = env.registration.SubmitIntent(ctx, out.State, intent)
	require.NoError(t, err)
	return out.State
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, field)
}

func TestRegistration_InquiryWithoutSubtypeRejected(t *testing.T) {
	env := newTestEnv(t)
	state := stageCustomer(t, env, domain.IntentInquiry)
	assert.Equal(t, domain.StepDetails, state.Step)

	out, err := env.registration.Complete(context.Background(), state, &domain.RegistrationCompleteRequest{
		CustomerType: domain.CustomerTypePersonal,
		OrderPayloadRequest: domain.OrderPayloadRequest{
			InquiryType: domain.InquiryTypePricing,
			Questions:   "Price of 4 tyres?",
		},
	})
	requireField(t, err, "personal_subtype")
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Please specify if you are the owner or driver", v.Fields["personal_subtype"])

	assert.Equal(t, state, out.State)
	assert.False(t, out.Done)
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Customer{}))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Order{}))
}

func TestRegistration_InquiryCompletes(t *testing.T) {
	env := newTestEnv(t)
	state := stageCustomer(t, env, domain.IntentInquiry)

	out, err := env.registration.Complete(context.Background(), state, &domain.RegistrationCompleteRequest{
		CustomerType:    domain.CustomerTypePersonal,
		PersonalSubtype: domain.PersonalSubtypeDriver,
		OrderPayloadRequest: domain.OrderPayloadRequest{
			InquiryType:  domain.InquiryTypeAppointment,
			Questions:    "Can I book Saturday?",
			FollowUpDate: "2024-07-01",
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.Equal(t, domain.NewRegistrationState(), out.State)
	require.NotNil(t, out.Order)
	assert.Equal(t, domain.OrderTypeConsultation, out.Order.Type)
	assert.Nil(t, out.Vehicle)
	assert.Regexp(t, "^CUST[0-9A-F]{8}$", out.Customer.Code)

	customer, err := env.customerRepo.GetByID(context.Background(), out.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TotalVisits)
	assert.Equal(t, domain.PersonalSubtypeDriver, customer.PersonalSubtype)
}

func TestRegistration_ServiceWithVehicle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	state := stageCustomer(t, env, domain.IntentService)
	assert.Equal(t, domain.StepSelection, state.Step)

	_, err := env.registration.SubmitSelection(ctx, state, &domain.RegistrationSelectionRequest{Services: []string{"teleportation"}})
	requireField(t, err, "services")

	sel, err := env.registration.SubmitSelection(ctx, state, &domain.RegistrationSelectionRequest{Services: []string{"oil_change", "brake_repair"}})
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, sel.State.Step)

	out, err := env.registration.Complete(ctx, sel.State, &domain.RegistrationCompleteRequest{
		CustomerType:     domain.CustomerTypeCompany,
		OrganizationName: "Kampala Logistics",
		TaxNumber:        "TIN-1001",
		PersonalSubtype:  domain.PersonalSubtypeOwner,
		Vehicle:          domain.CreateVehicleRequest{PlateNumber: "uba 555x", Make: "Isuzu"},
		OrderPayloadRequest: domain.OrderPayloadRequest{
			Description:       "Full service",
			EstimatedDuration: 90,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Vehicle)
	assert.Equal(t, "UBA 555X", out.Vehicle.PlateNumber)
	require.NotNil(t, out.Order.VehicleID)
	assert.Equal(t, out.Vehicle.ID, *out.Order.VehicleID)
	assert.Contains(t, out.Order.Description, "oil_change, brake_repair")
	assert.Equal(t, "Kampala Logistics", out.Customer.OrganizationName)
}

func TestRegistration_OrganizationNeedsDetails(t *testing.T) {
	env := newTestEnv(t)
	state := stageCustomer(t, env, domain.IntentInquiry)

	_, err := env.registration.Complete(context.Background(), state, &domain.RegistrationCompleteRequest{
		CustomerType:        domain.CustomerTypeGovernment,
		OrderPayloadRequest: domain.OrderPayloadRequest{InquiryType: domain.InquiryTypeGeneral, Questions: "Fleet rates?"},
	})
	requireField(t, err, "organization_name")
	requireField(t, err, "tax_number")
}

func TestRegistration_SalesStockPrecheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 2)

	state := stageCustomer(t, env, domain.IntentSales)
	sel, err := env.registration.SubmitSelection(ctx, state, &domain.RegistrationSelectionRequest{SalesType: "tire_sales"})
	require.NoError(t, err)

	base := domain.RegistrationCompleteRequest{CustomerType: domain.CustomerTypeBodaboda}

	req := base
	req.OrderPayloadRequest = domain.OrderPayloadRequest{ItemName: "Tire", Brand: "Pirelli", Quantity: 1}
	_, err = env.registration.Complete(ctx, sel.State, &req)
	requireField(t, err, "item_name")

	req = base
	req.OrderPayloadRequest = domain.OrderPayloadRequest{ItemName: "Tire", Brand: "Michelin", Quantity: 3}
	out, err := env.registration.Complete(ctx, sel.State, &req)
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Only 2 in stock for Tire (Michelin)", v.Fields["quantity"])
	assert.Equal(t, sel.State, out.State)
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Customer{}))

	req = base
	req.OrderPayloadRequest = domain.OrderPayloadRequest{ItemName: "Tire", Brand: "Michelin", Quantity: 2}
	out, err = env.registration.Complete(ctx, sel.State, &req)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderTypeSales, out.Order.Type)
	assert.Equal(t, 0, env.quantity(t, "Tire", "Michelin"))
}

func TestRegistration_SaveNow(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.registration.SubmitCustomer(context.Background(), domain.NewRegistrationState(), &domain.RegistrationCustomerRequest{
		FullName: "Brian Okello",
		Phone:    "+256700000301",
		SaveNow:  true,
	})
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.Equal(t, domain.StepCustomer, out.State.Step)
	assert.Equal(t, domain.CustomerTypePersonal, out.Customer.CustomerType)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &domain.Customer{}))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Order{}))
}

func TestRegistration_StepGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	initial := domain.NewRegistrationState()

	out, err := env.registration.SubmitCustomer(ctx, initial, &domain.RegistrationCustomerRequest{FullName: "Amina"})
	requireField(t, err, "phone")
	assert.Equal(t, initial, out.State)

	_, err = env.registration.SubmitIntent(ctx, initial, domain.IntentSales)
	requireField(t, err, "step")

	state := stageCustomer(t, env, domain.IntentInquiry)
	_, err = env.registration.SubmitSelection(ctx, state, &domain.RegistrationSelectionRequest{SalesType: "tire_sales"})
	requireField(t, err, "step")

	_, err = env.registration.SubmitIntent(ctx, state, domain.RegistrationIntent("repair"))
	requireField(t, err, "intent")

	sales := stageCustomer(t, env, domain.IntentSales)
	_, err = env.registration.Complete(ctx, sales, &domain.RegistrationCompleteRequest{CustomerType: domain.CustomerTypeBodaboda})
	requireField(t, err, "step")
}

func TestRegistrationDrafts(t *testing.T) {
	store := cache.NewMemoryStore()
	drafts := NewRegistrationDraftStore(store, testTTL.RegistrationTTLDuration())
	ctx := context.Background()

	token, state, err := drafts.Load(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.NewRegistrationState(), state)

	intent := domain.IntentSales
	state.Step = domain.StepSelection
	state.Customer = &domain.CustomerStepData{FullName: "Amina", Phone: "+256700000201"}
	state.Intent = &intent
	require.NoError(t, drafts.Save(ctx, token, state))

	sameToken, loaded, err := drafts.Load(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, token, sameToken)
	assert.Equal(t, state, loaded)

	require.NoError(t, drafts.Discard(ctx, token))
	_, loaded, err = drafts.Load(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.NewRegistrationState(), loaded)
}
