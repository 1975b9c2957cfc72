package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"github.com/motorserv/srf-api/internal/storage"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ledgerPrefix    = "ledgers"
	dateLayout      = "2006-01-02"
)

var ledgerHeaders = []string{
	"SRF Number", "SRF Date", "Code", "Customer", "City", "Head", "Division", "Model",
	"Serial Number", "Repair Date", "Challan Number", "Challan Date", "Vendor Return",
	"Vendor Cost", "Final Amount", "Receive Amount", "Delivery Date", "Settlement Date",
	"Final Status", "Chargeable",
}

// ExportService writes XLSX snapshots of the open settlement ledgers to storage.
type ExportService struct {
	ledgerRepo *repository.LedgerRepository
	exportRepo *repository.LedgerExportRepository
	store      storage.Storage
	logger     *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	ledgerRepo *repository.LedgerRepository,
	exportRepo *repository.LedgerExportRepository,
	store storage.Storage,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{ledgerRepo: ledgerRepo, exportRepo: exportRepo, store: store, logger: logger}
}

// CreateLedgerSnapshot builds a workbook with one sheet per not-settled ledger
// (warranty, out-of-warranty, vendor), stores it and records its metadata.
// createdBy names the requester; the caller's identity wins when present.
func (s *ExportService) CreateLedgerSnapshot(ctx context.Context, createdBy string) (*domain.LedgerExport, error) {
	if user, ok := auth.FromContext(ctx); ok {
		createdBy = user.Username
	}

	sheets := []struct {
		name  string
		query func(context.Context) ([]domain.LedgerRow, error)
	}{
		{"Warranty", func(ctx context.Context) ([]domain.LedgerRow, error) {
			return s.ledgerRepo.NotSettled(ctx, domain.KindWarranty)
		}},
		{"Out of Warranty", func(ctx context.Context) ([]domain.LedgerRow, error) {
			return s.ledgerRepo.NotSettled(ctx, domain.KindOutOfWarranty)
		}},
		{"Vendor", s.ledgerRepo.VendorNotSettled},
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	total := 0
	for i, sheet := range sheets {
		rows, err := sheet.query(ctx)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
		if err := writeLedgerSheet(f, sheet.name, header, rows); err != nil {
			return nil, fmt.Errorf("failed to write sheet %s: %w", sheet.name, err)
		}
		total += len(rows)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("ledger-%s.xlsx", now.Format("20060102-150405"))
	key, size, err := s.store.Put(ctx, ledgerPrefix, filename, xlsxContentType, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to store ledger snapshot: %w", err)
	}

	export := &domain.LedgerExport{
		Filename:    filename,
		StoragePath: key,
		Size:        size,
		Rows:        total,
		CreatedBy:   createdBy,
	}
	if err := s.exportRepo.Create(ctx, export); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("failed to record ledger export: %w", err)
	}

	s.logger.Info("ledger snapshot stored",
		zap.String("export_id", export.ID.String()),
		zap.String("key", key),
		zap.Int("rows", total),
		zap.Int64("size", size),
		zap.String("user", createdBy),
	)
	return export, nil
}

func writeLedgerSheet(f *excelize.File, sheet string, headerStyle int, rows []domain.LedgerRow) error {
	headers := make([]any, len(ledgerHeaders))
	for i, h := range ledgerHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeaders))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{
			r.SRFNumber, r.SRFDate.Format(dateLayout), r.Code, r.Name, str(r.City), r.Head,
			r.Division, r.Model, r.SerialNumber, date(r.RepairDate), str(r.ChallanNumber),
			date(r.ChallanDate), date(r.VendorDate2), num(r.VendorCost), num(r.FinalAmount),
			num(r.ReceiveAmount), date(r.DeliveryDate), date(r.SettlementDate),
			r.FinalStatus, r.Chargeable,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

func str(s *string) any {
	if s == nil {
		return ""
	}
	return *s
}

func date(t *time.Time) any {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func num(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

// List returns the most recent exports first.
func (s *ExportService) List(ctx context.Context, limit int) ([]domain.LedgerExport, error) {
	return s.exportRepo.List(ctx, limit)
}

// Open returns an export's metadata and a reader over its stored workbook.
func (s *ExportService) Open(ctx context.Context, id uuid.UUID) (*domain.LedgerExport, io.ReadCloser, error) {
	export, err := s.exportRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrExportNotFound, id)
		}
		return nil, nil, err
	}
	body, err := s.store.Open(ctx, export.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("ledger export object missing from storage",
				zap.String("export_id", id.String()),
				zap.String("key", export.StoragePath))
			return nil, nil, fmt.Errorf("%w: %s", ErrExportNotFound, id)
		}
		return nil, nil, err
	}
	return export, body, nil
}
