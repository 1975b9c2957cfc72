package service

import (
	"context"
	"fmt"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VendorService tracks units sub-contracted to rewinding vendors. Vendor batches
// accept identifiers of both kinds; the prefix selects the table.
type VendorService struct {
	srfRepo    *repository.SRFRepository
	vendorRepo *repository.VendorRepository
	ledgerRepo *repository.LedgerRepository
	registry   *repository.RegistryRepository
	logger     *zap.Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(
	srfRepo *repository.SRFRepository,
	vendorRepo *repository.VendorRepository,
	ledgerRepo *repository.LedgerRepository,
	registry *repository.RegistryRepository,
	logger *zap.Logger,
) *VendorService {
	return &VendorService{
		srfRepo:    srfRepo,
		vendorRepo: vendorRepo,
		ledgerRepo: ledgerRepo,
		registry:   registry,
		logger:     logger,
	}
}

// NextChallanCode returns V followed by the highest challan suffix in use plus one.
func (s *VendorService) NextChallanCode(ctx context.Context) (string, error) {
	_, seq, err := s.maxChallan(ctx)
	if err != nil {
		return "", err
	}
	return domain.FormatChallanCode(seq + 1), nil
}

// LastChallanCode returns the stored challan code with the highest suffix, or ""
// when no unit has been dispatched.
func (s *VendorService) LastChallanCode(ctx context.Context) (string, error) {
	code, _, err := s.maxChallan(ctx)
	return code, err
}

func (s *VendorService) maxChallan(ctx context.Context) (string, int, error) {
	codes, err := s.vendorRepo.ChallanNumbers(ctx)
	if err != nil {
		return "", 0, err
	}
	var last string
	maxSeq := 0
	for _, code := range codes {
		seq, ok := domain.ChallanSequence(code)
		if ok && seq > maxSeq {
			maxSeq = seq
			last = code
		}
	}
	return last, maxSeq, nil
}

// Challan returns the units dispatched under one challan, as printed.
func (s *VendorService) Challan(ctx context.Context, input string) (*domain.ChallanView, error) {
	code, err := domain.NormalizeChallanCode(input)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledgerRepo.ByChallan(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChallanNotFound, code)
	}
	return &domain.ChallanView{
		ChallanNumber: code,
		ChallanDate:   rows[0].ChallanDate,
		Items:         rows,
	}, nil
}

// ChallanCandidates lists units not yet repaired and not yet dispatched.
func (s *VendorService) ChallanCandidates(ctx context.Context) ([]domain.LedgerRow, error) {
	return s.ledgerRepo.ChallanCandidates(ctx)
}

// NotSettled lists units awaiting a vendor settlement proposal.
func (s *VendorService) NotSettled(ctx context.Context) ([]domain.LedgerRow, error) {
	return s.ledgerRepo.VendorNotSettled(ctx)
}

// FinalSettlementPending lists proposed but unfinalized vendor settlements. Admin only.
func (s *VendorService) FinalSettlementPending(ctx context.Context) ([]domain.LedgerRow, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.ledgerRepo.VendorFinalSettlementPending(ctx)
}

// ReceivedBy lists the distinct vendor contacts recorded on dispatch.
func (s *VendorService) ReceivedBy(ctx context.Context) ([]string, error) {
	return s.ledgerRepo.ReceivedBy(ctx)
}

// Dispatch records units handed to a vendor under a challan.
func (s *VendorService) Dispatch(ctx context.Context, req *domain.VendorDispatchBatchRequest) (*domain.BatchResult, error) {
	return s.batch(ctx, "vendor dispatch", func(username string) (*domain.BatchResult, error) {
		return runBatch(ctx, s.srfRepo, username, req.Items,
			prefixKind(func(it domain.VendorDispatchItem) string { return it.SRFNumber }),
			func(rec domain.SRFRecord, it domain.VendorDispatchItem) (bool, error) {
				code, err := domain.NormalizeChallanCode(it.ChallanNumber)
				if err != nil {
					return false, err
				}
				return domain.Dispatch(rec.Vendor(), code, it.ChallanDate, it.Challan, it.ReceivedBy)
			})
	})
}

// Return records units handed back by the vendor with their costs.
func (s *VendorService) Return(ctx context.Context, req *domain.VendorReturnBatchRequest) (*domain.BatchResult, error) {
	return s.batch(ctx, "vendor return", func(username string) (*domain.BatchResult, error) {
		return runBatch(ctx, s.srfRepo, username, req.Items,
			prefixKind(func(it domain.VendorReturnItem) string { return it.SRFNumber }),
			func(rec domain.SRFRecord, it domain.VendorReturnItem) (bool, error) {
				before := domain.CloneRecord(rec)
				err := domain.RecordReturn(rec.Vendor(), domain.VendorReturn{
					Date:             it.VendorDate2,
					VendorCost1:      it.VendorCost1,
					VendorCost2:      it.VendorCost2,
					VendorPaint:      it.VendorPaint,
					VendorStator:     it.VendorStator,
					VendorLeg:        it.VendorLeg,
					VendorPaintCost:  it.VendorPaintCost,
					VendorStatorCost: it.VendorStatorCost,
					VendorLegCost:    it.VendorLegCost,
					VendorCost:       it.VendorCost,
				})
				if err != nil {
					return false, err
				}
				warnVendorCost(s.logger, rec)
				return domain.VendorSideChanged(before, rec), nil
			})
	})
}

// ProposeSettlement sets the vendor settlement date and bill number.
func (s *VendorService) ProposeSettlement(ctx context.Context, req *domain.VendorSettlementBatchRequest) (*domain.BatchResult, error) {
	return s.batch(ctx, "vendor settlement", func(username string) (*domain.BatchResult, error) {
		return runBatch(ctx, s.srfRepo, username, req.Items,
			prefixKind(func(it domain.VendorSettlementItem) string { return it.SRFNumber }),
			func(rec domain.SRFRecord, it domain.VendorSettlementItem) (bool, error) {
				return domain.ProposeVendorSettlement(rec.Vendor(), it.VendorSettlementDate, it.VendorBillNumber)
			})
	})
}

// FinalizeSettlement sets vendor_settled on proposed vendor settlements. Admin only.
func (s *VendorService) FinalizeSettlement(ctx context.Context, req *domain.VendorFinalSettlementBatchRequest) (*domain.BatchResult, error) {
	if user, ok := auth.FromContext(ctx); ok && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.batch(ctx, "vendor final settlement", func(username string) (*domain.BatchResult, error) {
		return runBatch(ctx, s.srfRepo, username, req.Items,
			prefixKind(func(it domain.VendorFinalSettlementItem) string { return it.SRFNumber }),
			func(rec domain.SRFRecord, it domain.VendorFinalSettlementItem) (bool, error) {
				return domain.FinalizeVendorSettlement(rec.Vendor(), it.VendorSettled)
			})
	})
}

func (s *VendorService) batch(ctx context.Context, name string, run func(username string) (*domain.BatchResult, error)) (*domain.BatchResult, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	result, err := run(user.Username)
	if err != nil {
		s.logger.Warn(name+" batch rejected",
			zap.String("user", user.Username),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Info(name+" batch applied",
		zap.String("user", user.Username),
		zap.Int("applied", result.Applied),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// UpdateComplaintNumber attaches a complaint number to a warranty record. The
// number must be registered and not carried by another record.
func (s *VendorService) UpdateComplaintNumber(ctx context.Context, req *domain.ComplaintNumberUpdateRequest) (*domain.Warranty, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	id, err := domain.NormalizeSRFNumber(domain.KindWarranty, req.SRFNumber)
	if err != nil {
		return nil, err
	}

	var updated *domain.Warranty
	err = s.srfRepo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.srfRepo.WithTx(tx)
		rec, err := load(ctx, repo, domain.KindWarranty, id)
		if err != nil {
			return err
		}
		w := rec.(*domain.Warranty)
		if w.SettlementDate != nil {
			return fmt.Errorf("%w: settlement already proposed for %s", ErrRecordLocked, id)
		}

		registered, err := s.registry.WithTx(tx).ComplaintNumberExists(ctx, req.ComplaintNumber)
		if err != nil {
			return fmt.Errorf("failed to check complaint number: %w", err)
		}
		if !registered {
			return fmt.Errorf("%w: %s", ErrComplaintNumberNotFound, req.ComplaintNumber)
		}
		claims, err := repo.CountComplaintNumberClaims(ctx, req.ComplaintNumber, id)
		if err != nil {
			return err
		}
		if claims > 0 {
			return fmt.Errorf("%w: %s", ErrComplaintNumberAlreadyExists, req.ComplaintNumber)
		}

		number := req.ComplaintNumber
		username := user.Username
		w.ComplaintNumber = &number
		w.UpdatedBy = &username
		if err := repo.Save(ctx, w); err != nil {
			return fmt.Errorf("failed to save %s: %w", id, err)
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("complaint number updated",
		zap.String("srf_number", id),
		zap.String("complaint_number", req.ComplaintNumber),
		zap.String("user", user.Username),
	)
	return updated, nil
}
