package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/datawarehouse"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
)

// masterCodePrefix prefixes codes generated for locally created customers.
const masterCodePrefix = "M"

// CustomerWarehouse is the ERP lookup used when a customer is missing locally.
// *datawarehouse.Client satisfies it, including as a nil pointer.
type CustomerWarehouse interface {
	IsEnabled() bool
	FindCustomerByName(ctx context.Context, name string) (*datawarehouse.Customer, error)
	FindCustomerByCode(ctx context.Context, code string) (*datawarehouse.Customer, error)
}

// MasterService manages the customer master.
type MasterService struct {
	masterRepo *repository.MasterRepository
	warehouse  CustomerWarehouse
	logger     *zap.Logger
}

// NewMasterService creates a new MasterService. warehouse may be nil.
func NewMasterService(masterRepo *repository.MasterRepository, warehouse CustomerWarehouse, logger *zap.Logger) *MasterService {
	return &MasterService{masterRepo: masterRepo, warehouse: warehouse, logger: logger}
}

// Create adds a customer under the next free M#### code.
func (s *MasterService) Create(ctx context.Context, req *domain.CreateMasterRequest) (*domain.Master, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	name := strings.TrimSpace(req.Name)
	if _, err := s.masterRepo.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrMasterAlreadyExists, name)
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check master name: %w", err)
	}

	code, err := s.nextCode(ctx)
	if err != nil {
		return nil, err
	}
	master := &domain.Master{
		Code:      code,
		Name:      name,
		Address1:  req.Address1,
		Address2:  req.Address2,
		Address3:  req.Address3,
		City:      req.City,
		Pin:       req.Pin,
		Contact1:  req.Contact1,
		Contact2:  req.Contact2,
		GST:       req.GST,
		CreatedBy: user.Username,
	}
	if err := s.masterRepo.Create(ctx, master); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrMasterAlreadyExists, name)
		}
		return nil, fmt.Errorf("failed to create master: %w", err)
	}

	s.logger.Info("customer master created",
		zap.String("code", code),
		zap.String("user", user.Username),
	)
	return master, nil
}

func (s *MasterService) nextCode(ctx context.Context) (string, error) {
	codes, err := s.masterRepo.Codes(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list master codes: %w", err)
	}
	maxSeq := 0
	for _, c := range codes {
		digits, ok := strings.CutPrefix(c, masterCodePrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return fmt.Sprintf("%s%04d", masterCodePrefix, maxSeq+1), nil
}

// Get returns the customer with code.
func (s *MasterService) Get(ctx context.Context, code string) (*domain.Master, error) {
	return s.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Search lists customers whose name contains term.
func (s *MasterService) Search(ctx context.Context, term string, limit int) ([]domain.Master, error) {
	return s.masterRepo.Search(ctx, strings.TrimSpace(term), limit)
}

// ResolveByName finds a customer by exact name, ignoring case. A customer found
// only in the ERP warehouse is copied into the local master so records can
// reference its code.
func (s *MasterService) ResolveByName(ctx context.Context, name string) (*domain.Master, error) {
	name = strings.TrimSpace(name)
	master, err := s.masterRepo.GetByName(ctx, name)
	if err == nil {
		return master, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to resolve master: %w", err)
	}

	if s.warehouse == nil || !s.warehouse.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", ErrMasterNotFound, name)
	}
	cust, err := s.warehouse.FindCustomerByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query data warehouse: %w", err)
	}
	if cust == nil {
		return nil, fmt.Errorf("%w: %s", ErrMasterNotFound, name)
	}
	return s.importCustomer(ctx, cust)
}

// GetByCode returns a customer by code, falling back to the ERP warehouse.
func (s *MasterService) GetByCode(ctx context.Context, code string) (*domain.Master, error) {
	master, err := s.masterRepo.GetByCode(ctx, code)
	if err == nil {
		return master, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get master: %w", err)
	}

	if s.warehouse == nil || !s.warehouse.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", ErrMasterNotFound, code)
	}
	cust, err := s.warehouse.FindCustomerByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query data warehouse: %w", err)
	}
	if cust == nil {
		return nil, fmt.Errorf("%w: %s", ErrMasterNotFound, code)
	}
	return toMaster(cust, cust.Code, ""), nil
}

// importCustomer stores an ERP customer locally. ERP codes longer than the local
// column, or already taken by another local customer, are replaced with a
// generated code.
func (s *MasterService) importCustomer(ctx context.Context, cust *datawarehouse.Customer) (*domain.Master, error) {
	code := strings.ToUpper(cust.Code)
	if code == "" || len(code) > 5 {
		var err error
		if code, err = s.nextCode(ctx); err != nil {
			return nil, err
		}
	}

	createdBy := "erp-import"
	if user, ok := auth.FromContext(ctx); ok {
		createdBy = user.Username
	}
	master := toMaster(cust, code, createdBy)
	err := s.masterRepo.Create(ctx, master)
	if err != nil && repository.IsUniqueViolation(err) {
		existing, lookupErr := s.masterRepo.GetByName(ctx, cust.Name)
		switch {
		case lookupErr == nil:
			// imported concurrently
			return existing, nil
		case !repository.IsNotFound(lookupErr):
			return nil, fmt.Errorf("failed to resolve master: %w", lookupErr)
		}

		s.logger.Warn("ERP customer code taken by another customer, generating a local code",
			zap.String("erp_code", cust.Code),
			zap.String("name", cust.Name),
		)
		if master.Code, err = s.nextCode(ctx); err != nil {
			return nil, err
		}
		err = s.masterRepo.Create(ctx, master)
		if err != nil && repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: could not import customer %s", ErrIntegrityViolation, cust.Name)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to import master: %w", err)
	}

	s.logger.Info("customer master imported from data warehouse",
		zap.String("code", master.Code),
		zap.String("erp_code", cust.Code),
	)
	return master, nil
}

func toMaster(c *datawarehouse.Customer, code, createdBy string) *domain.Master {
	return &domain.Master{
		Code:      code,
		Name:      c.Name,
		Address1:  optional(c.Address1),
		Address2:  optional(c.Address2),
		Address3:  optional(c.Address3),
		City:      optional(c.City),
		Pin:       optional(c.Pin),
		Contact1:  optional(c.Contact1),
		Contact2:  optional(c.Contact2),
		GST:       optional(c.GST),
		CreatedBy: createdBy,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
