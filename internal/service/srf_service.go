package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CustomerDirectory resolves customer master rows.
type CustomerDirectory interface {
	ResolveByName(ctx context.Context, name string) (*domain.Master, error)
	GetByCode(ctx context.Context, code string) (*domain.Master, error)
}

// SRFService handles intake, lookup and general updates of SRF records of both kinds.
type SRFService struct {
	srfRepo   *repository.SRFRepository
	registry  *repository.RegistryRepository
	models    *repository.ModelRepository
	centers   *repository.ServiceCenterRepository
	customers CustomerDirectory
	allocator *IdentifierAllocator
	logger    *zap.Logger
}

// NewSRFService creates a new SRFService
func NewSRFService(
	srfRepo *repository.SRFRepository,
	registry *repository.RegistryRepository,
	models *repository.ModelRepository,
	centers *repository.ServiceCenterRepository,
	customers CustomerDirectory,
	allocator *IdentifierAllocator,
	logger *zap.Logger,
) *SRFService {
	return &SRFService{
		srfRepo:   srfRepo,
		registry:  registry,
		models:    models,
		centers:   centers,
		customers: customers,
		allocator: allocator,
		logger:    logger,
	}
}

// CreateWarranty registers a warranty unit. SRFNumber "NEW/<sub>" allocates a
// fresh base; any other value must be a complete R identifier.
func (s *SRFService) CreateWarranty(ctx context.Context, req *domain.WarrantyCreateRequest) (*domain.Warranty, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	customer, err := s.checkIntake(ctx, &req.SRFCreateRequest, req.ASCName)
	if err != nil {
		return nil, err
	}
	if err := s.checkClaims(ctx, s.srfRepo, "", req.ComplaintNumber, req.CGSRFNumber); err != nil {
		return nil, err
	}

	rec, err := s.create(ctx, domain.KindWarranty, req.SRFNumber, func(id domain.SRFNumber) domain.SRFRecord {
		w := &domain.Warranty{
			SRFIdentity:     newIdentity(&req.SRFCreateRequest, id, customer.Code),
			CustomerDetails: newCustomerDetails(&req.SRFCreateRequest),
			ComplaintNumber: req.ComplaintNumber,
			CGSRFNumber:     req.CGSRFNumber,
			StickerNumber:   req.StickerNumber,
			ASCName:         req.ASCName,
		}
		initRecord(w, &req.SRFCreateRequest, user.Username)
		return w
	})
	if err != nil {
		return nil, err
	}
	return rec.(*domain.Warranty), nil
}

// CreateOutOfWarranty registers a chargeable unit under an S identifier.
func (s *SRFService) CreateOutOfWarranty(ctx context.Context, req *domain.OutOfWarrantyCreateRequest) (*domain.OutOfWarranty, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	customer, err := s.checkIntake(ctx, &req.SRFCreateRequest, req.ASCName)
	if err != nil {
		return nil, err
	}

	rec, err := s.create(ctx, domain.KindOutOfWarranty, req.SRFNumber, func(id domain.SRFNumber) domain.SRFRecord {
		o := &domain.OutOfWarranty{
			SRFIdentity:           newIdentity(&req.SRFCreateRequest, id, customer.Code),
			CustomerDetails:       newCustomerDetails(&req.SRFCreateRequest),
			ServiceChargeWaive:    domain.FlagNo,
			WaiveDetails:          req.WaiveDetails,
			CustomerInvoiceNumber: req.CustomerInvoiceNumber,
			EstimateDate:          req.EstimateDate,
		}
		if req.ServiceCharge != nil {
			o.ServiceCharge = *req.ServiceCharge
		}
		if req.ServiceChargeWaive != nil {
			o.ServiceChargeWaive = *req.ServiceChargeWaive
		}
		initRecord(o, &req.SRFCreateRequest, user.Username)
		// out-of-warranty work is billed unless stated otherwise
		if req.Chargeable == "" {
			o.Chargeable = domain.FlagYes
		}
		return o
	})
	if err != nil {
		return nil, err
	}
	return rec.(*domain.OutOfWarranty), nil
}

func (s *SRFService) create(ctx context.Context, kind domain.SRFKind, requested string, build func(domain.SRFNumber) domain.SRFRecord) (domain.SRFRecord, error) {
	if sub, isNew := domain.IsNewRequest(requested); isNew {
		// the requested sub-number is only validated; a new family starts at /1
		if sub < domain.MinSubNumber || sub > domain.MaxSubNumber {
			return nil, fmt.Errorf("%w: sub-number in %q not in [%d,%d]",
				domain.ErrMalformedIdentifier, requested, domain.MinSubNumber, domain.MaxSubNumber)
		}
		var rec domain.SRFRecord
		id, err := s.allocator.Allocate(ctx, kind, domain.MinSubNumber, func(ctx context.Context, id domain.SRFNumber) error {
			rec = build(id)
			return s.srfRepo.Create(ctx, rec)
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("SRF record created",
			zap.String("srf_number", id.String()),
			zap.String("kind", kind.String()),
			zap.Bool("allocated", true),
		)
		return rec, nil
	}

	id, err := domain.ParseSRFNumberOfKind(requested, kind)
	if err != nil {
		return nil, err
	}
	rec := build(id)
	if err := s.srfRepo.Create(ctx, rec); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s already exists", ErrIntegrityViolation, id)
		}
		return nil, fmt.Errorf("failed to create %s record: %w", kind, err)
	}

	s.logger.Info("SRF record created",
		zap.String("srf_number", id.String()),
		zap.String("kind", kind.String()),
		zap.Bool("allocated", false),
	)
	return rec, nil
}

// checkIntake resolves the customer and verifies the model and service center
// references of a create request.
func (s *SRFService) checkIntake(ctx context.Context, req *domain.SRFCreateRequest, serviceCenter *string) (*domain.Master, error) {
	customer, err := s.customers.ResolveByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.checkModel(ctx, req.Division, req.Model); err != nil {
		return nil, err
	}
	if req.Head == domain.HeadReplace {
		if serviceCenter == nil || *serviceCenter == "" {
			return nil, fmt.Errorf("%w: a replacement requires a service center", ErrServiceCenterNotFound)
		}
		exists, err := s.centers.Exists(ctx, *serviceCenter)
		if err != nil {
			return nil, fmt.Errorf("failed to check service center: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrServiceCenterNotFound, *serviceCenter)
		}
	}
	return customer, nil
}

func (s *SRFService) checkModel(ctx context.Context, division, model string) error {
	if !domain.RequiresRegisteredModel(division) {
		return nil
	}
	exists, err := s.models.Exists(ctx, model)
	if err != nil {
		return fmt.Errorf("failed to check model: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return nil
}

// checkClaims rejects a complaint or CG SRF number already carried by a
// warranty record other than self.
func (s *SRFService) checkClaims(ctx context.Context, repo *repository.SRFRepository, self string, complaint *string, cgSRF *int64) error {
	if complaint != nil && *complaint != "" {
		n, err := repo.CountComplaintNumberClaims(ctx, *complaint, self)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrComplaintNumberAlreadyExists, *complaint)
		}
	}
	if cgSRF != nil {
		n, err := repo.CountCGSRFNumberClaims(ctx, *cgSRF, self)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d", ErrCGSRFNumberAlreadyExists, *cgSRF)
		}
	}
	return nil
}

// checkRegistered requires both warranty cross references to exist in their
// registries. It guards the OPEN to CLOSED transition.
func (s *SRFService) checkRegistered(ctx context.Context, registry *repository.RegistryRepository, w *domain.Warranty) error {
	if w.ComplaintNumber == nil || *w.ComplaintNumber == "" {
		return fmt.Errorf("%w: no complaint number on %s", ErrComplaintNumberNotFound, w.SRFNumber)
	}
	ok, err := registry.ComplaintNumberExists(ctx, *w.ComplaintNumber)
	if err != nil {
		return fmt.Errorf("failed to check complaint number: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrComplaintNumberNotFound, *w.ComplaintNumber)
	}

	if w.CGSRFNumber == nil {
		return fmt.Errorf("%w: no CG SRF number on %s", ErrCGSRFNumberNotFound, w.SRFNumber)
	}
	ok, err = registry.CGSRFNumberExists(ctx, *w.CGSRFNumber)
	if err != nil {
		return fmt.Errorf("failed to check CG SRF number: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrCGSRFNumberNotFound, *w.CGSRFNumber)
	}
	return nil
}

// Get returns a record with its customer. input may be shorthand such as "42/3".
func (s *SRFService) Get(ctx context.Context, kind domain.SRFKind, input string) (*domain.SRFView, error) {
	id, err := domain.NormalizeSRFNumber(kind, input)
	if err != nil {
		return nil, err
	}
	rec, err := load(ctx, s.srfRepo, kind, id)
	if err != nil {
		return nil, err
	}

	view := &domain.SRFView{
		Record:      rec,
		State:       domain.StateOf(rec.Settlement()),
		VendorState: domain.VendorStateOf(rec.Vendor()),
	}
	customer, err := s.customers.GetByCode(ctx, rec.Identity().Code)
	switch {
	case err == nil:
		view.Customer = customer
	case errors.Is(err, ErrMasterNotFound):
		s.logger.Warn("SRF record references unknown customer",
			zap.String("srf_number", id),
			zap.String("code", rec.Identity().Code),
		)
	default:
		return nil, err
	}
	return view, nil
}

// Family returns every unit registered under one base number, as printed on one
// form. base accepts "42", "R00042" or a full identifier.
func (s *SRFService) Family(ctx context.Context, kind domain.SRFKind, base string) (*domain.SRFFamily, error) {
	head, _, _ := strings.Cut(base, "/")
	id, err := domain.NormalizeSRFNumber(kind, head)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParseSRFNumber(id)
	if err != nil {
		return nil, err
	}

	records, err := s.srfRepo.ListFamily(ctx, kind, parsed.BaseCode())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, parsed.BaseCode())
	}

	family := &domain.SRFFamily{Base: parsed.BaseCode(), Records: records}
	customer, err := s.customers.GetByCode(ctx, records[0].Identity().Code)
	if err != nil && !errors.Is(err, ErrMasterNotFound) {
		return nil, err
	}
	family.Customer = customer
	return family, nil
}

// NextSRFNumber returns the base code the next "NEW" request would receive, e.g. R00012.
func (s *SRFService) NextSRFNumber(ctx context.Context, kind domain.SRFKind) (string, error) {
	next, err := s.allocator.NextBase(ctx, kind)
	if err != nil {
		return "", err
	}
	return domain.FormatBaseCode(kind, next), nil
}

// LastSRFNumber returns the highest base code in use, or "" when there is none.
func (s *SRFService) LastSRFNumber(ctx context.Context, kind domain.SRFKind) (string, error) {
	last, err := s.allocator.LastBase(ctx, kind)
	if err != nil {
		return "", err
	}
	if last == 0 {
		return "", nil
	}
	return domain.FormatBaseCode(kind, last), nil
}

// UpdateWarranty applies a partial update to a warranty record. Setting
// final_status to Y closes the record and requires both cross references to be
// registered and unclaimed.
func (s *SRFService) UpdateWarranty(ctx context.Context, input string, req *domain.WarrantyUpdateRequest) (*domain.Warranty, error) {
	rec, err := s.update(ctx, domain.KindWarranty, input, req, &req.SRFUpdateRequest,
		func(rec domain.SRFRecord) {
			domain.ApplyWarrantyUpdate(rec.(*domain.Warranty), req)
		},
		func(ctx context.Context, tx *gorm.DB, before, after domain.SRFRecord) error {
			w := after.(*domain.Warranty)
			prev := before.(*domain.Warranty)
			if err := s.checkClaims(ctx, s.srfRepo.WithTx(tx), w.SRFNumber, req.ComplaintNumber, req.CGSRFNumber); err != nil {
				return err
			}
			if w.FinalStatus != domain.FlagYes {
				return nil
			}
			closing := prev.FinalStatus != domain.FlagYes
			refsChanged := !domain.SameValues(prev.ComplaintNumber, w.ComplaintNumber) ||
				!domain.SameValues(prev.CGSRFNumber, w.CGSRFNumber)
			if !closing && !refsChanged {
				return nil
			}
			if err := s.checkRegistered(ctx, s.registry.WithTx(tx), w); err != nil {
				return err
			}
			return s.checkClaims(ctx, s.srfRepo.WithTx(tx), w.SRFNumber, w.ComplaintNumber, w.CGSRFNumber)
		})
	if err != nil {
		return nil, err
	}
	return rec.(*domain.Warranty), nil
}

// UpdateOutOfWarranty applies a partial update to an out-of-warranty record.
func (s *SRFService) UpdateOutOfWarranty(ctx context.Context, input string, req *domain.OutOfWarrantyUpdateRequest) (*domain.OutOfWarranty, error) {
	rec, err := s.update(ctx, domain.KindOutOfWarranty, input, req, &req.SRFUpdateRequest,
		func(rec domain.SRFRecord) {
			domain.ApplyOutOfWarrantyUpdate(rec.(*domain.OutOfWarranty), req)
		}, nil)
	if err != nil {
		return nil, err
	}
	return rec.(*domain.OutOfWarranty), nil
}

type updateGuard func(ctx context.Context, tx *gorm.DB, before, after domain.SRFRecord) error

// update runs the shared update pipeline in one transaction: role whitelist,
// apply, monotonic flags, settlement locks, reference checks, variant guard, save.
func (s *SRFService) update(
	ctx context.Context,
	kind domain.SRFKind,
	input string,
	req any,
	common *domain.SRFUpdateRequest,
	apply func(domain.SRFRecord),
	guard updateGuard,
) (domain.SRFRecord, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	id, err := domain.NormalizeSRFNumber(kind, input)
	if err != nil {
		return nil, err
	}

	var rec domain.SRFRecord
	err = s.srfRepo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.srfRepo.WithTx(tx)
		current, err := load(ctx, repo, kind, id)
		if err != nil {
			return err
		}
		if err := checkPermittedFields(user.Role, req, current, common); err != nil {
			return err
		}

		before := domain.CloneRecord(current)
		apply(current)

		if err := checkMonotonic(before, current); err != nil {
			return err
		}
		if before.Settlement().SettlementDate != nil && domain.CustomerSideChanged(before, current) {
			return fmt.Errorf("%w: settlement already proposed for %s", ErrRecordLocked, id)
		}
		if before.Vendor().VendorSettlementDate != nil && domain.VendorSideChanged(before, current) {
			return fmt.Errorf("%w: vendor settlement already proposed for %s", ErrRecordLocked, id)
		}
		if before.Identity().Model != current.Identity().Model || before.Identity().Division != current.Identity().Division {
			if err := s.checkModel(ctx, current.Identity().Division, current.Identity().Model); err != nil {
				return err
			}
		}
		if guard != nil {
			if err := guard(ctx, tx, before, current); err != nil {
				return err
			}
		}
		warnVendorCost(s.logger, current)

		username := user.Username
		current.Audit().UpdatedBy = &username
		if err := repo.Save(ctx, current); err != nil {
			return fmt.Errorf("failed to save %s: %w", id, err)
		}

		if before.Settlement().FinalStatus != domain.FlagYes && current.Settlement().FinalStatus == domain.FlagYes {
			s.logger.Info("SRF record closed",
				zap.String("srf_number", id),
				zap.String("kind", kind.String()),
				zap.String("user", user.Username),
			)
		}
		rec = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// checkPermittedFields rejects a changed field outside the role's whitelist.
// Resubmitting the stored value of a restricted field is accepted.
func checkPermittedFields(role domain.UserRole, req any, rec domain.SRFRecord, common *domain.SRFUpdateRequest) error {
	permitted := domain.UpdatableFields(role, req)
	for _, field := range domain.SetFields(req) {
		if permitted[field] {
			continue
		}
		if field == domain.FieldDiscount && sameAmount(rec.Costs().Discount, common.Discount) {
			continue
		}
		return fmt.Errorf("%w: %s", ErrFieldNotPermitted, field)
	}
	return nil
}

func checkMonotonic(before, after domain.SRFRecord) error {
	b, a := before.Settlement(), after.Settlement()
	bv, av := before.Vendor(), after.Vendor()
	for _, f := range []struct {
		name     string
		from, to string
	}{
		{"final_status", b.FinalStatus, a.FinalStatus},
		{"final_settled", b.FinalSettled, a.FinalSettled},
		{"vendor_settled", bv.VendorSettled, av.VendorSettled},
		{"challan", bv.Challan, av.Challan},
		{"vendor_paint", bv.VendorPaint, av.VendorPaint},
		{"vendor_stator", bv.VendorStator, av.VendorStator},
		{"vendor_leg", bv.VendorLeg, av.VendorLeg},
	} {
		if err := domain.CheckFlag(f.name, f.from, f.to); err != nil {
			return err
		}
	}
	return nil
}

// warnVendorCost logs when the caller-supplied vendor_cost disagrees with its parts.
func warnVendorCost(logger *zap.Logger, rec domain.SRFRecord) {
	v := rec.Vendor()
	if v.VendorCost == nil {
		return
	}
	parts := domain.VendorCostParts(v)
	if math.Abs(parts-*v.VendorCost) > 0.005 {
		logger.Warn("vendor_cost differs from the sum of its parts",
			zap.String("srf_number", rec.Identity().SRFNumber),
			zap.Float64("vendor_cost", *v.VendorCost),
			zap.Float64("parts", parts),
		)
	}
}

// load fetches one record and maps a missing row to ErrRecordNotFound.
func load(ctx context.Context, repo *repository.SRFRepository, kind domain.SRFKind, id string) (domain.SRFRecord, error) {
	rec, err := repo.GetBySRFNumber(ctx, kind, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to load %s: %w", id, err)
	}
	return rec, nil
}

func newIdentity(req *domain.SRFCreateRequest, id domain.SRFNumber, code string) domain.SRFIdentity {
	return domain.SRFIdentity{
		SRFNumber:    id.String(),
		Code:         code,
		SRFDate:      domain.DateOnly(req.SRFDate),
		Head:         req.Head,
		Division:     req.Division,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Problem:      req.Problem,
		Remark:       req.Remark,
	}
}

func newCustomerDetails(req *domain.SRFCreateRequest) domain.CustomerDetails {
	return domain.CustomerDetails{
		DealerName:            req.DealerName,
		RPM:                   req.RPM,
		PurchaseNumber:        req.PurchaseNumber,
		PurchaseDate:          req.PurchaseDate,
		CustomerChallanNumber: req.CustomerChallanNumber,
		CustomerChallanDate:   req.CustomerChallanDate,
		ReceiveDate:           req.ReceiveDate,
	}
}

// initRecord sets the flag defaults and creator of a new record.
func initRecord(rec domain.SRFRecord, req *domain.SRFCreateRequest, username string) {
	v := rec.Vendor()
	v.Challan = domain.FlagNo
	v.VendorPaint = domain.FlagNo
	v.VendorStator = domain.FlagNo
	v.VendorLeg = domain.FlagNo
	v.VendorSettled = domain.FlagNo

	rec.Costs().RewindingDone = domain.FlagNo
	rec.Costs().GST = domain.FlagNo

	st := rec.Settlement()
	st.FinalStatus = domain.FlagNo
	st.FinalSettled = domain.FlagNo
	st.Chargeable = domain.FlagNo
	if req.Chargeable != "" {
		st.Chargeable = req.Chargeable
	}

	rec.Audit().CreatedBy = username
}

func sameAmount(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 0.005
}
