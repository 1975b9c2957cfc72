package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Complaint numbers issued by the principal are 13 to 15 characters long.
const (
	minComplaintNumberLen = 13
	maxComplaintNumberLen = 15
)

// RegistryService imports and lists the complaint number and CG SRF number registries.
type RegistryService struct {
	registry *repository.RegistryRepository
	logger   *zap.Logger
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(registry *repository.RegistryRepository, logger *zap.Logger) *RegistryService {
	return &RegistryService{registry: registry, logger: logger}
}

func (s *RegistryService) ListComplaintNumbers(ctx context.Context) ([]domain.ComplaintNumber, error) {
	return s.registry.ListComplaintNumbers(ctx)
}

func (s *RegistryService) ListCGSRFNumbers(ctx context.Context) ([]domain.CGSRFNumber, error) {
	return s.registry.ListCGSRFNumbers(ctx)
}

// ImportComplaintNumbers reads a CSV or XLSX sheet with the header
// complaint_number,status[,remark] and upserts every row. The whole upload is
// rejected at the first invalid line.
func (s *RegistryService) ImportComplaintNumbers(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	rows, err := readSheet(filename, r)
	if err != nil {
		return nil, err
	}
	cols, err := headerColumns(rows, "complaint_number", "status")
	if err != nil {
		return nil, err
	}

	numbers := make([]domain.ComplaintNumber, 0, len(rows))
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		cn, err := parseComplaintRow(row, cols, line)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, cn)
	}

	result := &domain.ImportResult{Rows: len(numbers)}
	err = s.registry.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.registry.WithTx(tx)
		for i := range numbers {
			inserted, err := repo.UpsertComplaintNumber(ctx, &numbers[i])
			if err != nil {
				return fmt.Errorf("failed to store complaint number %s: %w", numbers[i].ComplaintNumber, err)
			}
			if inserted {
				result.Inserted++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("complaint numbers imported",
		zap.String("file", filename),
		zap.Int("rows", result.Rows),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.String("user", user.Username),
	)
	return result, nil
}

func parseComplaintRow(row []string, cols map[string]int, line int) (domain.ComplaintNumber, error) {
	number := cell(row, cols["complaint_number"])
	if n := len(number); n < minComplaintNumberLen || n > maxComplaintNumberLen {
		return domain.ComplaintNumber{}, &ImportError{
			Line:   line,
			Reason: fmt.Sprintf("complaint number %q has %d characters", number, n),
			Hint:   fmt.Sprintf("complaint numbers are %d to %d characters long", minComplaintNumberLen, maxComplaintNumberLen),
		}
	}
	status := strings.ToUpper(cell(row, cols["status"]))
	if status != domain.ComplaintStatusOK && status != domain.ComplaintStatusFalse {
		return domain.ComplaintNumber{}, &ImportError{
			Line:   line,
			Reason: fmt.Sprintf("invalid status %q", status),
			Hint:   "status must be OK or FALSE",
		}
	}
	cn := domain.ComplaintNumber{ComplaintNumber: number, Status: status}
	if idx, ok := cols["remark"]; ok {
		cn.Remark = optional(cell(row, idx))
	}
	return cn, nil
}

// ImportCGSRFNumbers reads a CSV or XLSX sheet with the header cg_srf_number and
// inserts every number not yet registered.
func (s *RegistryService) ImportCGSRFNumbers(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	rows, err := readSheet(filename, r)
	if err != nil {
		return nil, err
	}
	cols, err := headerColumns(rows, "cg_srf_number")
	if err != nil {
		return nil, err
	}

	numbers := make([]int64, 0, len(rows))
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		raw := cell(row, cols["cg_srf_number"])
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, &ImportError{
				Line:   line,
				Reason: fmt.Sprintf("%q is not a CG SRF number", raw),
				Hint:   "CG SRF numbers are positive integers without separators",
			}
		}
		numbers = append(numbers, n)
	}

	result := &domain.ImportResult{Rows: len(numbers)}
	err = s.registry.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.registry.WithTx(tx)
		for _, n := range numbers {
			inserted, err := repo.InsertCGSRFNumber(ctx, n)
			if err != nil {
				return fmt.Errorf("failed to store CG SRF number %d: %w", n, err)
			}
			if inserted {
				result.Inserted++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CG SRF numbers imported",
		zap.String("file", filename),
		zap.Int("rows", result.Rows),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.String("user", user.Username),
	)
	return result, nil
}

// readSheet returns the rows of the first worksheet of an .xlsx upload, or of a
// CSV upload for any other extension.
func readSheet(filename string, r io.Reader) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, &ImportError{Line: 0, Reason: "file is not a readable XLSX workbook", Hint: err.Error()}
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet: %w", err)
		}
		return rows, nil
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &ImportError{Line: parseErr.Line, Reason: parseErr.Err.Error(), Hint: "check quoting on this line"}
			}
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerColumns maps the normalized names of the header row to column indexes
// and requires every name in required.
func headerColumns(rows [][]string, required ...string) (map[string]int, error) {
	if len(rows) == 0 {
		return nil, &ImportError{Line: 1, Reason: "file is empty", Hint: "the first line must be a header row"}
	}
	cols := make(map[string]int)
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, &ImportError{
				Line:   1,
				Reason: fmt.Sprintf("missing column %q", name),
				Hint:   "expected header: " + strings.Join(required, ","),
			}
		}
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
