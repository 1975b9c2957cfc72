package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/motorserv/srf-api/internal/domain"
	"gorm.io/gorm"
)

// ledgerColumns is the projection shared by every ledger view.
const ledgerColumns = `s.srf_number, s.srf_date, s.code, m.name, m.city, m.contact1,
	s.head, s.division, s.model, s.serial_number, s.problem, s.repair_date,
	s.challan_number, s.challan_date, s.challan, s.received_by, s.vendor_date2,
	s.vendor_cost, s.vendor_bill_number, s.vendor_settlement_date, s.vendor_settled,
	s.final_amount, s.receive_amount, s.delivery_date, s.invoice_number,
	s.settlement_date, s.final_settled, s.final_status, s.chargeable`

// LedgerRepository serves the read-only ledger projections: records of one kind
// (or both kinds for the vendor views) joined with the customer master and
// ordered by srf_number.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Pending lists open records (final_status = N).
func (r *LedgerRepository) Pending(ctx context.Context, kind domain.SRFKind) ([]domain.LedgerRow, error) {
	return r.rows(ctx, kind, func(q *gorm.DB) *gorm.DB {
		return q.Where("s.final_status = ?", domain.FlagNo)
	})
}

// NotSettled lists closed chargeable records with no settlement date.
func (r *LedgerRepository) NotSettled(ctx context.Context, kind domain.SRFKind) ([]domain.LedgerRow, error) {
	return r.rows(ctx, kind, func(q *gorm.DB) *gorm.DB {
		return q.Where("s.chargeable = ? AND s.settlement_date IS NULL AND s.final_status = ?", domain.FlagYes, domain.FlagYes)
	})
}

// FinalSettlementPending lists chargeable records with a proposed but not
// finalized settlement.
func (r *LedgerRepository) FinalSettlementPending(ctx context.Context, kind domain.SRFKind) ([]domain.LedgerRow, error) {
	return r.rows(ctx, kind, func(q *gorm.DB) *gorm.DB {
		return q.Where("s.chargeable = ? AND s.settlement_date IS NOT NULL AND s.final_settled = ?", domain.FlagYes, domain.FlagNo)
	})
}

// Enquiry lists records matching every non-empty filter field.
func (r *LedgerRepository) Enquiry(ctx context.Context, kind domain.SRFKind, f domain.EnquiryFilter) ([]domain.LedgerRow, error) {
	return r.rows(ctx, kind, func(q *gorm.DB) *gorm.DB {
		return applyEnquiryFilter(q, f)
	})
}

// DeliveredBy lists the distinct non-empty delivered_by values of kind.
func (r *LedgerRepository) DeliveredBy(ctx context.Context, kind domain.SRFKind) ([]string, error) {
	return r.distinct(ctx, kind, "delivered_by")
}

// ChallanCandidates lists units of both kinds that are neither repaired nor
// dispatched.
func (r *LedgerRepository) ChallanCandidates(ctx context.Context) ([]domain.LedgerRow, error) {
	return r.union(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("s.repair_date IS NULL AND s.challan = ?", domain.FlagNo)
	})
}

// ByChallan lists the units dispatched under one challan code.
func (r *LedgerRepository) ByChallan(ctx context.Context, challanNumber string) ([]domain.LedgerRow, error) {
	return r.union(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("s.challan_number = ?", challanNumber)
	})
}

// VendorNotSettled lists units whose vendor settlement has not been proposed yet
// although the unit is closed or back from the vendor.
func (r *LedgerRepository) VendorNotSettled(ctx context.Context) ([]domain.LedgerRow, error) {
	return r.union(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("(s.final_status = ? OR s.vendor_date2 IS NOT NULL) AND s.vendor_settlement_date IS NULL", domain.FlagYes)
	})
}

// VendorFinalSettlementPending lists units with a proposed vendor settlement
// that is not finalized.
func (r *LedgerRepository) VendorFinalSettlementPending(ctx context.Context) ([]domain.LedgerRow, error) {
	return r.union(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("s.vendor_settlement_date IS NOT NULL AND s.vendor_settled = ?", domain.FlagNo)
	})
}

// ReceivedBy lists distinct received_by values across both kinds.
func (r *LedgerRepository) ReceivedBy(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	out := []string{}
	for _, kind := range domain.AllKinds {
		values, err := r.distinct(ctx, kind, "received_by")
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *LedgerRepository) rows(ctx context.Context, kind domain.SRFKind, scope func(*gorm.DB) *gorm.DB) ([]domain.LedgerRow, error) {
	rows := []domain.LedgerRow{}
	q := r.db.WithContext(ctx).
		Table(kind.TableName() + " AS s").
		Select(ledgerColumns).
		Joins("JOIN master AS m ON m.code = s.code")
	if err := scope(q).Order("s.srf_number ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s ledger: %w", kind, err)
	}
	return rows, nil
}

func (r *LedgerRepository) union(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]domain.LedgerRow, error) {
	all := []domain.LedgerRow{}
	for _, kind := range domain.AllKinds {
		rows, err := r.rows(ctx, kind, scope)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	slices.SortFunc(all, func(a, b domain.LedgerRow) int {
		return strings.Compare(a.SRFNumber, b.SRFNumber)
	})
	return all, nil
}

func (r *LedgerRepository) distinct(ctx context.Context, kind domain.SRFKind, column string) ([]string, error) {
	values := []string{}
	err := r.db.WithContext(ctx).
		Table(kind.TableName()).
		Distinct(column).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s.%s: %w", kind, column, err)
	}
	return values, nil
}

func applyEnquiryFilter(q *gorm.DB, f domain.EnquiryFilter) *gorm.DB {
	if f.FinalStatus != "" {
		q = q.Where("s.final_status = ?", f.FinalStatus)
	}
	if f.VendorSettled != "" {
		q = q.Where("s.vendor_settled = ?", f.VendorSettled)
	}
	if f.FinalSettled != "" {
		q = q.Where("s.final_settled = ? AND s.chargeable = ?", f.FinalSettled, domain.FlagYes)
	}
	if f.Name != "" {
		q = q.Where("LOWER(m.name) LIKE LOWER(?)", "%"+f.Name+"%")
	}
	if f.Division != "" {
		q = q.Where("s.division = ?", f.Division)
	}
	if f.SerialNumber != "" {
		q = q.Where("s.serial_number = ?", f.SerialNumber)
	}
	if f.Head != "" {
		q = q.Where("s.head = ?", f.Head)
	}
	if f.From != nil {
		q = q.Where("s.srf_date >= ?", domain.DateOnly(*f.From))
	}
	if f.To != nil {
		q = q.Where("s.srf_date <= ?", domain.DateOnly(*f.To))
	}
	q = presence(q, "s.delivery_date", f.Delivered)
	// received applies to replacements, repaired to repairs
	if f.Received != "" {
		q = presence(q.Where("s.head = ?", domain.HeadReplace), "s.receive_date", f.Received)
	}
	if f.Repaired != "" {
		q = presence(q.Where("s.head = ?", domain.HeadRepair), "s.repair_date", f.Repaired)
	}
	return q
}

func presence(q *gorm.DB, column, flag string) *gorm.DB {
	switch flag {
	case domain.FlagYes:
		return q.Where(column + " IS NOT NULL")
	case domain.FlagNo:
		return q.Where(column + " IS NULL")
	}
	return q
}
