package domain

import (
	"errors"
	"fmt"
	"time"
)

// Lifecycle errors.
var (
	ErrInvalidTransition           = errors.New("invalid state transition")
	ErrSettlementNotProposed       = errors.New("settlement date must be set before final settlement")
	ErrVendorSettlementNotProposed = errors.New("vendor settlement date must be set before vendor final settlement")
	ErrSettlementBeforeReturn      = errors.New("vendor settlement date precedes vendor return date")
	ErrAlreadySettled              = errors.New("record already settled")
	ErrRecordLocked                = errors.New("record is locked for this change")
)

// SRFState is the customer-facing lifecycle state of a record.
type SRFState string

const (
	StateOpen               SRFState = "OPEN"
	StateClosed             SRFState = "CLOSED"
	StateSettlementProposed SRFState = "SETTLEMENT_PROPOSED"
	StateSettled            SRFState = "SETTLED"
)

// VendorState is the vendor sub-contract state of a record.
type VendorState string

const (
	VendorNotDispatched      VendorState = "NOT_DISPATCHED"
	VendorDispatched         VendorState = "DISPATCHED"
	VendorReturned           VendorState = "RETURNED"
	VendorSettlementProposed VendorState = "VENDOR_SETTLEMENT_PROPOSED"
	VendorSettled            VendorState = "VENDOR_SETTLED"
)

// StateOf derives the customer-facing state from the settlement fields.
func StateOf(s *SettlementTrack) SRFState {
	switch {
	case s.FinalSettled == FlagYes:
		return StateSettled
	case s.SettlementDate != nil:
		return StateSettlementProposed
	case s.FinalStatus == FlagYes:
		return StateClosed
	default:
		return StateOpen
	}
}

// VendorStateOf derives the vendor state from the vendor fields.
func VendorStateOf(v *VendorTrack) VendorState {
	switch {
	case v.VendorSettled == FlagYes:
		return VendorSettled
	case v.VendorSettlementDate != nil:
		return VendorSettlementProposed
	case v.VendorDate2 != nil:
		return VendorReturned
	case v.Challan == FlagYes:
		return VendorDispatched
	default:
		return VendorNotDispatched
	}
}

// CheckFlag rejects a Y to N change of a monotonic flag.
func CheckFlag(name, current, requested string) error {
	if current == FlagYes && requested == FlagNo {
		return fmt.Errorf("%w: %s cannot be reset to N", ErrInvalidTransition, name)
	}
	return nil
}

// ProposeSettlement moves a closed chargeable record to SETTLEMENT_PROPOSED.
// Re-applying the same date is a no-op; it reports whether anything changed.
func ProposeSettlement(s *SettlementTrack, date time.Time) (bool, error) {
	date = DateOnly(date)
	if s.FinalStatus != FlagYes {
		return false, fmt.Errorf("%w: record is not closed", ErrInvalidTransition)
	}
	if s.Chargeable != FlagYes {
		return false, fmt.Errorf("%w: record is not chargeable", ErrInvalidTransition)
	}
	if s.SettlementDate != nil && SameDate(*s.SettlementDate, date) {
		return false, nil
	}
	if s.FinalSettled == FlagYes {
		return false, ErrAlreadySettled
	}
	s.SettlementDate = &date
	return true, nil
}

// FinalizeSettlement sets final_settled. It requires a proposed settlement.
func FinalizeSettlement(s *SettlementTrack, flag string) (bool, error) {
	if err := CheckFlag("final_settled", s.FinalSettled, flag); err != nil {
		return false, err
	}
	if flag != FlagYes || s.FinalSettled == FlagYes {
		return false, nil
	}
	if s.SettlementDate == nil {
		return false, ErrSettlementNotProposed
	}
	s.FinalSettled = FlagYes
	return true, nil
}

// Dispatch records that a unit was sent to the vendor under a challan. A unit
// the vendor has returned cannot be dispatched again.
func Dispatch(v *VendorTrack, challanNumber string, challanDate time.Time, flag string, receivedBy *string) (bool, error) {
	if err := CheckFlag("challan", v.Challan, flag); err != nil {
		return false, err
	}
	if v.VendorSettlementDate != nil {
		return false, fmt.Errorf("%w: vendor settlement already proposed", ErrRecordLocked)
	}
	challanDate = DateOnly(challanDate)
	if v.Challan == flag && v.ChallanNumber != nil && *v.ChallanNumber == challanNumber &&
		v.ChallanDate != nil && SameDate(*v.ChallanDate, challanDate) && sameString(v.ReceivedBy, receivedBy) {
		return false, nil
	}
	if v.VendorDate2 != nil {
		return false, fmt.Errorf("%w: unit already returned by the vendor", ErrInvalidTransition)
	}
	v.ChallanNumber = &challanNumber
	v.ChallanDate = &challanDate
	v.Challan = flag
	if receivedBy != nil {
		v.ReceivedBy = receivedBy
	}
	return true, nil
}

// VendorReturn carries the cost capture entered when the vendor hands a unit back.
type VendorReturn struct {
	Date             time.Time
	VendorCost1      *float64
	VendorCost2      *float64
	VendorPaint      *string
	VendorStator     *string
	VendorLeg        *string
	VendorPaintCost  *int
	VendorStatorCost *int
	VendorLegCost    *int
	VendorCost       *float64
}

// RecordReturn moves a dispatched unit to RETURNED and stores the vendor costs.
func RecordReturn(v *VendorTrack, r VendorReturn) error {
	if v.Challan != FlagYes {
		return fmt.Errorf("%w: unit was not dispatched to a vendor", ErrInvalidTransition)
	}
	if v.VendorSettlementDate != nil {
		return fmt.Errorf("%w: vendor settlement already proposed", ErrRecordLocked)
	}
	date := DateOnly(r.Date)
	if v.ChallanDate != nil && date.Before(DateOnly(*v.ChallanDate)) {
		return fmt.Errorf("%w: return date precedes challan date", ErrInvalidTransition)
	}
	v.VendorDate2 = &date
	assign(&v.VendorCost1, r.VendorCost1)
	assign(&v.VendorCost2, r.VendorCost2)
	assign(&v.VendorPaintCost, r.VendorPaintCost)
	assign(&v.VendorStatorCost, r.VendorStatorCost)
	assign(&v.VendorLegCost, r.VendorLegCost)
	assign(&v.VendorCost, r.VendorCost)
	for _, f := range []struct {
		name string
		dst  *string
		src  *string
	}{
		{"vendor_paint", &v.VendorPaint, r.VendorPaint},
		{"vendor_stator", &v.VendorStator, r.VendorStator},
		{"vendor_leg", &v.VendorLeg, r.VendorLeg},
	} {
		if f.src == nil {
			continue
		}
		if err := CheckFlag(f.name, *f.dst, *f.src); err != nil {
			return err
		}
		*f.dst = *f.src
	}
	return nil
}

// VendorCostParts sums the individual vendor cost components.
func VendorCostParts(v *VendorTrack) float64 {
	total := deref(v.VendorCost1) + deref(v.VendorCost2)
	for _, c := range []*int{v.VendorPaintCost, v.VendorStatorCost, v.VendorLegCost} {
		if c != nil {
			total += float64(*c)
		}
	}
	return total
}

// ProposeVendorSettlement sets the vendor settlement date and bill number.
func ProposeVendorSettlement(v *VendorTrack, date time.Time, billNumber *string) (bool, error) {
	date = DateOnly(date)
	if v.VendorDate2 != nil && date.Before(DateOnly(*v.VendorDate2)) {
		return false, ErrSettlementBeforeReturn
	}
	if v.VendorSettlementDate != nil && SameDate(*v.VendorSettlementDate, date) &&
		(billNumber == nil || sameString(v.VendorBillNumber, billNumber)) {
		return false, nil
	}
	if v.VendorSettled == FlagYes {
		return false, ErrAlreadySettled
	}
	v.VendorSettlementDate = &date
	if billNumber != nil {
		v.VendorBillNumber = billNumber
	}
	return true, nil
}

// FinalizeVendorSettlement sets vendor_settled. It requires a proposed vendor settlement.
func FinalizeVendorSettlement(v *VendorTrack, flag string) (bool, error) {
	if err := CheckFlag("vendor_settled", v.VendorSettled, flag); err != nil {
		return false, err
	}
	if flag != FlagYes || v.VendorSettled == FlagYes {
		return false, nil
	}
	if v.VendorSettlementDate == nil {
		return false, ErrVendorSettlementNotProposed
	}
	v.VendorSettled = FlagYes
	return true, nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate compares calendar dates.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func assign[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
