package service_test

import (
	"context"
	"testing"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"github.com/motorserv/srf-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CostDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.UserCtx()
	ptr := testutil.Ptr[int]

	_, err := env.catalog.CreateRewindingRate(ctx, &domain.CreateRewindingRateRequest{
		Division:     "lt motor",
		Frame:        testutil.Ptr("D132"),
		PaintCharge:  ptr(400),
		StatorCharge: ptr(1200),
		LegCharge:    ptr(300),
	})
	require.NoError(t, err)
	_, err = env.catalog.CreateRewindingRate(ctx, &domain.CreateRewindingRateRequest{
		Division:        domain.DivisionFHPMotor,
		HPRating:        testutil.Ptr(0.5),
		WindingType:     testutil.Ptr("SINGLE"),
		RewindingCharge: ptr(900),
		PaintCharge:     ptr(150),
	})
	require.NoError(t, err)

	_, err = env.catalog.CreateModel(ctx, &domain.CreateModelRequest{
		Model: "LT-132", Division: domain.DivisionLTMotor, Frame: testutil.Ptr("D132"), RewindingCharge: ptr(5000),
	})
	require.NoError(t, err)
	_, err = env.catalog.CreateModel(ctx, &domain.CreateModelRequest{
		Model: "FHP-05", Division: domain.DivisionFHPMotor, HPRating: testutil.Ptr(0.5), WindingType: testutil.Ptr("SINGLE"),
	})
	require.NoError(t, err)
	_, err = env.catalog.CreateModel(ctx, &domain.CreateModelRequest{Model: "PUMP-1", Division: domain.DivisionPump})
	require.NoError(t, err)

	tests := []struct {
		model         string
		wantRewinding *int
		wantPaint     *int
		wantStator    *int
	}{
		// LT motors match by frame and keep their own rewinding charge
		{model: "LT-132", wantRewinding: ptr(5000), wantPaint: ptr(400), wantStator: ptr(1200)},
		// FHP motors match by rating and fall back to the rate's rewinding charge
		{model: "FHP-05", wantRewinding: ptr(900), wantPaint: ptr(150)},
		{model: "PUMP-1"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			details, err := env.catalog.CostDetails(ctx, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.model, details.Model)
			assert.Equal(t, tt.wantRewinding, details.RewindingCharge)
			assert.Equal(t, tt.wantPaint, details.PaintCharge)
			assert.Equal(t, tt.wantStator, details.StatorCharge)
		})
	}

	_, err = env.catalog.CostDetails(ctx, "NOPE")
	assert.ErrorIs(t, err, service.ErrModelNotFound)
}

func TestCatalogService_CreateModelRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.UserCtx()

	req := &domain.CreateModelRequest{Model: "ALT-200", Division: "alternator"}
	model, err := env.catalog.CreateModel(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "ALTERNATOR", model.Division)
	assert.Equal(t, "operator", model.CreatedBy)

	_, err = env.catalog.CreateModel(ctx, req)
	assert.ErrorIs(t, err, service.ErrModelAlreadyExists)

	models, err := env.catalog.ListModels(ctx, "Alternator")
	require.NoError(t, err)
	assert.Len(t, models, 1)

	_, err = env.catalog.CreateModel(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestCatalogService_RewindingRateRequirements(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.AdminCtx()

	_, err := env.catalog.CreateRewindingRate(ctx, &domain.CreateRewindingRateRequest{Division: domain.DivisionLTMotor})
	assert.ErrorIs(t, err, service.ErrValidationFailure)

	_, err = env.catalog.CreateRewindingRate(ctx, &domain.CreateRewindingRateRequest{
		Division: domain.DivisionFHPMotor, HPRating: testutil.Ptr(1.0),
	})
	assert.ErrorIs(t, err, service.ErrValidationFailure)

	rates, err := env.catalog.ListRewindingRates(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestCatalogService_ServiceCenters(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.UserCtx()

	_, err := env.catalog.CreateServiceCenter(ctx, &domain.CreateServiceCenterRequest{Name: " Pune Motors ", City: testutil.Ptr("Pune")})
	require.NoError(t, err)
	_, err = env.catalog.CreateServiceCenter(ctx, &domain.CreateServiceCenterRequest{Name: "Pune Motors"})
	assert.ErrorIs(t, err, service.ErrIntegrityViolation)

	centers, err := env.catalog.ListServiceCenters(ctx)
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, "Pune Motors", centers[0].Name)
}

func TestCatalogService_FrameRateFillsModelCharges(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.UserCtx()

	_, err := env.catalog.CreateRewindingRate(ctx, &domain.CreateRewindingRateRequest{
		Division:    "lt motor",
		Frame:       testutil.Ptr("90L"),
		PaintCharge: testutil.Ptr(150), StatorCharge: testutil.Ptr(900), LegCharge: testutil.Ptr(200),
		RewindingCharge: testutil.Ptr(1800),
	})
	require.NoError(t, err)

	_, err = env.catalog.CreateModel(ctx, &domain.CreateModelRequest{Model: "LT-90", Division: "LT MOTOR", Frame: testutil.Ptr("90L")})
	require.NoError(t, err)
	_, err = env.catalog.CreateModel(ctx, &domain.CreateModelRequest{Model: "LT-90", Division: "LT MOTOR"})
	require.ErrorIs(t, err, service.ErrModelAlreadyExists)

	details, err := env.catalog.CostDetails(ctx, "LT-90")
	require.NoError(t, err)
	assert.Equal(t, 1800, *details.RewindingCharge)
	assert.Equal(t, 900, *details.StatorCharge)

	_, err = env.catalog.CreateRewindingRate(ctx, &domain.CreateRewindingRateRequest{Division: "LT MOTOR"})
	assert.ErrorIs(t, err, service.ErrValidationFailure)

	_, err = env.catalog.CostDetails(ctx, "NOPE")
	assert.ErrorIs(t, err, service.ErrModelNotFound)
}
