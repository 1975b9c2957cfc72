package service

import (
	"errors"
	"fmt"

	"github.com/motorserv/srf-api/internal/domain"
)

// Identifier errors
var (
	// ErrMalformedIdentifier is returned when an SRF number or challan code fails its pattern
	ErrMalformedIdentifier = domain.ErrMalformedIdentifier

	// ErrAllocationExhausted is returned when the base-number retry loop runs out of attempts
	ErrAllocationExhausted = errors.New("identifier allocation exhausted")
)

// Not found family
var (
	ErrRecordNotFound          = errors.New("SRF record not found")
	ErrModelNotFound           = errors.New("model not found")
	ErrMasterNotFound          = errors.New("customer master not found")
	ErrServiceCenterNotFound   = errors.New("service center not found")
	ErrComplaintNumberNotFound = errors.New("complaint number not registered")
	ErrCGSRFNumberNotFound     = errors.New("CG SRF number not registered")
	ErrChallanNotFound         = errors.New("challan not found")
	ErrExportNotFound          = errors.New("ledger export not found")
)

// Duplicate reference family
var (
	ErrComplaintNumberAlreadyExists = errors.New("complaint number already used by another record")
	ErrCGSRFNumberAlreadyExists     = errors.New("CG SRF number already used by another record")
	ErrMasterAlreadyExists          = errors.New("customer master already exists")
	ErrModelAlreadyExists           = errors.New("model already exists")
)

// Lifecycle errors, defined next to the state machine
var (
	ErrInvalidTransition           = domain.ErrInvalidTransition
	ErrSettlementNotProposed       = domain.ErrSettlementNotProposed
	ErrVendorSettlementNotProposed = domain.ErrVendorSettlementNotProposed
	ErrSettlementBeforeReturn      = domain.ErrSettlementBeforeReturn
	ErrAlreadySettled              = domain.ErrAlreadySettled
	ErrRecordLocked                = domain.ErrRecordLocked
)

var (
	// ErrIntegrityViolation is a persistence constraint failure not otherwise classified
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrValidationFailure is returned for malformed or out-of-range input
	ErrValidationFailure = errors.New("validation failure")

	// ErrFieldNotPermitted is returned when the caller's role may not change a field
	ErrFieldNotPermitted = errors.New("field not permitted for role")

	// ErrForbidden is returned when an operation requires an elevated role
	ErrForbidden = errors.New("operation requires admin role")

	// ErrUnauthorized is returned when no identity is present on the context
	ErrUnauthorized = errors.New("unauthorized")
)

// ImportError reports the first invalid row of a registry upload.
type ImportError struct {
	Line   int
	Reason string
	Hint   string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("Validation failed on line %d: %s", e.Line, e.Reason)
}

func (e *ImportError) Unwrap() error {
	return ErrValidationFailure
}

// BatchItemError names the batch item that aborted a batch.
type BatchItemError struct {
	SRFNumber string
	Err       error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.SRFNumber, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}
