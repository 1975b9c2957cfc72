package service_test

import (
	"testing"
	"time"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"github.com/motorserv/srf-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorService_ChallanCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.UserCtx()

	next, err := env.vendor.NextChallanCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "V00001", next)

	last, err := env.vendor.LastChallanCode(ctx)
	require.NoError(t, err)
	assert.Empty(t, last)

	testutil.CreateTestMaster(t, env.db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, env.db, "R00001/1", "M0001", func(w *domain.Warranty) {
		w.Challan = domain.FlagYes
		w.ChallanNumber = testutil.Ptr("V00009")
	})
	testutil.CreateTestOutOfWarranty(t, env.db, "S00001/1", "M0001", func(o *domain.OutOfWarranty) {
		o.Challan = domain.FlagYes
		o.ChallanNumber = testutil.Ptr("V00010")
	})

	next, err = env.vendor.NextChallanCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "V00011", next)

	last, err = env.vendor.LastChallanCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "V00010", last)
}

func TestVendorService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestMaster(t, env.db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, env.db, "R00001/1", "M0001", nil)
	testutil.CreateTestOutOfWarranty(t, env.db, "S00001/1", "M0001", nil)
	ctx := testutil.UserCtx()

	challanDate := testutil.Date(2024, time.March, 5)
	result, err := env.vendor.Dispatch(ctx, &domain.VendorDispatchBatchRequest{
		Items: []domain.VendorDispatchItem{
			{SRFNumber: "R00001/1", ChallanNumber: "11", ChallanDate: challanDate, Challan: domain.FlagYes, ReceivedBy: testutil.Ptr("Ramesh")},
			{SRFNumber: "S00001/1", ChallanNumber: "V00011", ChallanDate: challanDate, Challan: domain.FlagYes},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)

	challan, err := env.vendor.Challan(ctx, "11")
	require.NoError(t, err)
	assert.Equal(t, "V00011", challan.ChallanNumber)
	assert.Len(t, challan.Items, 2)

	_, err = env.vendor.Challan(ctx, "V00012")
	assert.ErrorIs(t, err, service.ErrChallanNotFound)

	_, err = env.vendor.Return(ctx, &domain.VendorReturnBatchRequest{
		Items: []domain.VendorReturnItem{{SRFNumber: "R00001/1", VendorDate2: testutil.Date(2024, time.March, 1)}},
	})
	require.ErrorIs(t, err, service.ErrInvalidTransition)

	result, err = env.vendor.Return(ctx, &domain.VendorReturnBatchRequest{
		Items: []domain.VendorReturnItem{{
			SRFNumber:   "R00001/1",
			VendorDate2: testutil.Date(2024, time.March, 12),
			VendorCost1: testutil.Ptr(800.0),
			VendorPaint: testutil.Ptr(domain.FlagYes),
			VendorCost:  testutil.Ptr(800.0),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	notSettled, err := env.vendor.NotSettled(ctx)
	require.NoError(t, err)
	require.Len(t, notSettled, 1)
	assert.Equal(t, "R00001/1", notSettled[0].SRFNumber)

	_, err = env.vendor.ProposeSettlement(ctx, &domain.VendorSettlementBatchRequest{
		Items: []domain.VendorSettlementItem{{SRFNumber: "R00001/1", VendorSettlementDate: testutil.Date(2024, time.March, 10)}},
	})
	require.ErrorIs(t, err, service.ErrSettlementBeforeReturn)

	result, err = env.vendor.ProposeSettlement(ctx, &domain.VendorSettlementBatchRequest{
		Items: []domain.VendorSettlementItem{{
			SRFNumber:            "R00001/1",
			VendorSettlementDate: testutil.Date(2024, time.March, 20),
			VendorBillNumber:     testutil.Ptr("B-1001"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	_, err = env.vendor.Dispatch(ctx, &domain.VendorDispatchBatchRequest{
		Items: []domain.VendorDispatchItem{{SRFNumber: "R00001/1", ChallanNumber: "V00012", ChallanDate: challanDate, Challan: domain.FlagYes}},
	})
	require.ErrorIs(t, err, service.ErrRecordLocked)

	final := &domain.VendorFinalSettlementBatchRequest{
		Items: []domain.VendorFinalSettlementItem{{SRFNumber: "R00001/1", VendorSettled: domain.FlagYes}},
	}
	_, err = env.vendor.FinalizeSettlement(ctx, final)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = env.vendor.FinalSettlementPending(ctx)
	require.ErrorIs(t, err, service.ErrForbidden)

	pending, err := env.vendor.FinalSettlementPending(testutil.AdminCtx())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	result, err = env.vendor.FinalizeSettlement(testutil.AdminCtx(), final)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	view, err := env.srf.Get(ctx, domain.KindWarranty, "R00001/1")
	require.NoError(t, err)
	assert.Equal(t, domain.VendorSettled, view.VendorState)
	assert.Equal(t, domain.FlagYes, view.Record.Vendor().VendorPaint)

	names, err := env.vendor.ReceivedBy(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ramesh"}, names)
}

func TestVendorService_ChallanCandidates(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestMaster(t, env.db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, env.db, "R00001/1", "M0001", nil)
	testutil.CreateTestWarranty(t, env.db, "R00002/1", "M0001", func(w *domain.Warranty) {
		w.RepairDate = testutil.Ptr(testutil.Date(2024, time.March, 2))
	})

	rows, err := env.vendor.ChallanCandidates(testutil.UserCtx())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "R00001/1", rows[0].SRFNumber)
}

func TestVendorService_UpdateComplaintNumber(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestMaster(t, env.db, "M0001", "ACME PUMPS")
	testutil.CreateTestWarranty(t, env.db, "R00001/1", "M0001", nil)
	testutil.CreateTestWarranty(t, env.db, "R00002/1", "M0001", nil)
	ctx := testutil.UserCtx()

	req := &domain.ComplaintNumberUpdateRequest{SRFNumber: "1/1", ComplaintNumber: "CMP0000000001"}
	_, err := env.vendor.UpdateComplaintNumber(ctx, req)
	require.ErrorIs(t, err, service.ErrComplaintNumberNotFound)

	require.NoError(t, env.db.Create(&domain.ComplaintNumber{ComplaintNumber: "CMP0000000001", Status: domain.ComplaintStatusOK}).Error)
	w, err := env.vendor.UpdateComplaintNumber(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "CMP0000000001", *w.ComplaintNumber)

	_, err = env.vendor.UpdateComplaintNumber(ctx, &domain.ComplaintNumberUpdateRequest{SRFNumber: "R00002/1", ComplaintNumber: "CMP0000000001"})
	assert.ErrorIs(t, err, service.ErrComplaintNumberAlreadyExists)
}
