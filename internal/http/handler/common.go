package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondProblem(w http.ResponseWriter, problem domain.APIError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			errs[toJSONFieldName(fe.Namespace())] = formatValidationError(fe)
		}
	}

	respondProblem(w, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Code:   "ValidationFailure",
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName turns a validator namespace into a JSON path. The root
// struct and embedded structs keep their Go names and are dropped:
// "WarrantyCreateRequest.SRFCreateRequest.srfNumber" -> "srfNumber".
func toJSONFieldName(field string) string {
	parts := strings.Split(field, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return field
	}
	return strings.Join(kept, ".")
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondProblem(w, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{service.ErrRecordNotFound, http.StatusNotFound, "RecordNotFound"},
	{service.ErrModelNotFound, http.StatusNotFound, "ModelNotFound"},
	{service.ErrMasterNotFound, http.StatusNotFound, "MasterNotFound"},
	{service.ErrServiceCenterNotFound, http.StatusNotFound, "ServiceCenterNotFound"},
	{service.ErrComplaintNumberNotFound, http.StatusNotFound, "ComplaintNumberNotFound"},
	{service.ErrCGSRFNumberNotFound, http.StatusNotFound, "CGSRFNumberNotFound"},
	{service.ErrChallanNotFound, http.StatusNotFound, "ChallanNotFound"},
	{service.ErrExportNotFound, http.StatusNotFound, "ExportNotFound"},

	{service.ErrComplaintNumberAlreadyExists, http.StatusConflict, "ComplaintNumberAlreadyExists"},
	{service.ErrCGSRFNumberAlreadyExists, http.StatusConflict, "CGSRFNumberAlreadyExists"},
	{service.ErrMasterAlreadyExists, http.StatusConflict, "MasterAlreadyExists"},
	{service.ErrModelAlreadyExists, http.StatusConflict, "ModelAlreadyExists"},
	{service.ErrIntegrityViolation, http.StatusConflict, "IntegrityViolation"},
	{service.ErrAllocationExhausted, http.StatusConflict, "AllocationExhausted"},
	{service.ErrSettlementNotProposed, http.StatusConflict, "SettlementNotProposed"},
	{service.ErrVendorSettlementNotProposed, http.StatusConflict, "VendorSettlementNotProposed"},
	{service.ErrSettlementBeforeReturn, http.StatusConflict, "SettlementBeforeReturn"},
	{service.ErrAlreadySettled, http.StatusConflict, "AlreadySettled"},
	{service.ErrRecordLocked, http.StatusConflict, "RecordLocked"},
	{service.ErrInvalidTransition, http.StatusConflict, "InvalidTransition"},

	{service.ErrMalformedIdentifier, http.StatusBadRequest, "MalformedIdentifier"},
	{service.ErrValidationFailure, http.StatusBadRequest, "ValidationFailure"},

	{service.ErrFieldNotPermitted, http.StatusForbidden, "FieldNotPermitted"},
	{service.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
}

// problemFor translates a service error into its problem document. Unknown
// errors become a 500 without detail.
func problemFor(err error) domain.APIError {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		problem := domain.APIError{
			Type:   getErrorType(m.status),
			Code:   m.code,
			Title:  http.StatusText(m.status),
			Status: m.status,
			Detail: err.Error(),
		}
		var importErr *service.ImportError
		if errors.As(err, &importErr) {
			problem.Type = domain.ErrorTypeValidation
			problem.Line = importErr.Line
			problem.Hint = importErr.Hint
		}
		return problem
	}
	return domain.APIError{
		Type:   domain.ErrorTypeInternal,
		Title:  http.StatusText(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
	}
}

// respondError writes the problem document for err, logging server faults.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, msg string, err error) {
	problem := problemFor(err)
	if problem.Status >= http.StatusInternalServerError {
		logger.Error(msg,
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Error(err))
	} else {
		logger.Debug(msg, zap.String("path", r.URL.Path), zap.Error(err))
	}
	respondProblem(w, problem)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}
