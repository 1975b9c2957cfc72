package domain_test

import (
	"testing"
	"time"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func closedChargeable() *domain.SettlementTrack {
	return &domain.SettlementTrack{
		FinalStatus:  domain.FlagYes,
		Chargeable:   domain.FlagYes,
		FinalSettled: domain.FlagNo,
	}
}

func TestStateOf(t *testing.T) {
	s := &domain.SettlementTrack{FinalStatus: domain.FlagNo, FinalSettled: domain.FlagNo}
	assert.Equal(t, domain.StateOpen, domain.StateOf(s))

	s.FinalStatus = domain.FlagYes
	assert.Equal(t, domain.StateClosed, domain.StateOf(s))

	d := day(1)
	s.SettlementDate = &d
	assert.Equal(t, domain.StateSettlementProposed, domain.StateOf(s))

	s.FinalSettled = domain.FlagYes
	assert.Equal(t, domain.StateSettled, domain.StateOf(s))
}

func TestProposeSettlement(t *testing.T) {
	t.Run("open record is rejected", func(t *testing.T) {
		s := closedChargeable()
		s.FinalStatus = domain.FlagNo
		_, err := domain.ProposeSettlement(s, day(5))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("non chargeable record is rejected", func(t *testing.T) {
		s := closedChargeable()
		s.Chargeable = domain.FlagNo
		_, err := domain.ProposeSettlement(s, day(5))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("same date twice is idempotent", func(t *testing.T) {
		s := closedChargeable()
		changed, err := domain.ProposeSettlement(s, day(5))
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = domain.ProposeSettlement(s, day(5).Add(3*time.Hour))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.True(t, s.SettlementDate.Equal(day(5)))
	})

	t.Run("new date after final settlement is rejected", func(t *testing.T) {
		s := closedChargeable()
		_, err := domain.ProposeSettlement(s, day(5))
		require.NoError(t, err)
		s.FinalSettled = domain.FlagYes

		_, err = domain.ProposeSettlement(s, day(6))
		assert.ErrorIs(t, err, domain.ErrAlreadySettled)
	})
}

func TestFinalizeSettlement(t *testing.T) {
	t.Run("requires a proposed settlement", func(t *testing.T) {
		s := closedChargeable()
		_, err := domain.FinalizeSettlement(s, domain.FlagYes)
		assert.ErrorIs(t, err, domain.ErrSettlementNotProposed)
	})

	t.Run("finalizes and cannot be reset", func(t *testing.T) {
		s := closedChargeable()
		d := day(5)
		s.SettlementDate = &d

		changed, err := domain.FinalizeSettlement(s, domain.FlagYes)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = domain.FinalizeSettlement(s, domain.FlagYes)
		require.NoError(t, err)
		assert.False(t, changed)

		_, err = domain.FinalizeSettlement(s, domain.FlagNo)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestVendorLifecycle(t *testing.T) {
	v := &domain.VendorTrack{
		Challan: domain.FlagNo, VendorPaint: domain.FlagNo, VendorStator: domain.FlagNo,
		VendorLeg: domain.FlagNo, VendorSettled: domain.FlagNo,
	}
	assert.Equal(t, domain.VendorNotDispatched, domain.VendorStateOf(v))

	err := domain.RecordReturn(v, domain.VendorReturn{Date: day(3)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "return before dispatch")

	changed, err := domain.Dispatch(v, "V00011", day(2), domain.FlagYes, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.VendorDispatched, domain.VendorStateOf(v))

	changed, err = domain.Dispatch(v, "V00011", day(2), domain.FlagYes, nil)
	require.NoError(t, err)
	assert.False(t, changed)

	err = domain.RecordReturn(v, domain.VendorReturn{Date: day(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "return before challan date")

	cost := 1500.0
	require.NoError(t, domain.RecordReturn(v, domain.VendorReturn{
		Date:        day(10),
		VendorCost1: &cost,
		VendorPaint: strPtr(domain.FlagYes),
		VendorCost:  &cost,
	}))
	assert.Equal(t, domain.VendorReturned, domain.VendorStateOf(v))
	assert.Equal(t, domain.FlagYes, v.VendorPaint)

	_, err = domain.Dispatch(v, "V00012", day(11), domain.FlagYes, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "dispatch after return")
	assert.Equal(t, "V00011", *v.ChallanNumber)

	changed, err = domain.Dispatch(v, "V00011", day(2), domain.FlagYes, nil)
	require.NoError(t, err)
	assert.False(t, changed, "resubmitting the original challan is a no-op")

	err = domain.RecordReturn(v, domain.VendorReturn{Date: day(11), VendorPaint: strPtr(domain.FlagNo)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "vendor_paint is monotonic")

	_, err = domain.ProposeVendorSettlement(v, day(9), nil)
	assert.ErrorIs(t, err, domain.ErrSettlementBeforeReturn)

	_, err = domain.FinalizeVendorSettlement(v, domain.FlagYes)
	assert.ErrorIs(t, err, domain.ErrVendorSettlementNotProposed)

	changed, err = domain.ProposeVendorSettlement(v, day(12), strPtr("B-17"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.VendorSettlementProposed, domain.VendorStateOf(v))

	_, err = domain.Dispatch(v, "V00012", day(13), domain.FlagYes, nil)
	assert.ErrorIs(t, err, domain.ErrRecordLocked)

	changed, err = domain.FinalizeVendorSettlement(v, domain.FlagYes)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.VendorSettled, domain.VendorStateOf(v))

	_, err = domain.ProposeVendorSettlement(v, day(20), nil)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestVendorCostParts(t *testing.T) {
	v := &domain.VendorTrack{
		VendorCost1:     floatPtr(1000),
		VendorCost2:     floatPtr(250.5),
		VendorPaintCost: intPtr(100),
		VendorLegCost:   intPtr(50),
	}
	assert.InDelta(t, 1400.5, domain.VendorCostParts(v), 0.0001)
}

func TestCheckFlag(t *testing.T) {
	assert.NoError(t, domain.CheckFlag("challan", domain.FlagNo, domain.FlagYes))
	assert.NoError(t, domain.CheckFlag("challan", domain.FlagYes, domain.FlagYes))
	assert.ErrorIs(t, domain.CheckFlag("challan", domain.FlagYes, domain.FlagNo), domain.ErrInvalidTransition)
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
