package jobs

import (
	"context"
	"time"

	"github.com/motorserv/srf-api/internal/domain"
	"go.uber.org/zap"
)

const (
	// LedgerSnapshotJobName is the name of the nightly ledger export job
	LedgerSnapshotJobName = "ledger_snapshot"
	// AuditRetentionJobName is the name of the audit log cleanup job
	AuditRetentionJobName = "audit_retention"

	// snapshotUser is stamped on exports written by the scheduler
	snapshotUser = "scheduler"
)

// LedgerExporter writes one ledger snapshot.
type LedgerExporter interface {
	CreateLedgerSnapshot(ctx context.Context, createdBy string) (*domain.LedgerExport, error)
}

// AuditCleaner deletes audit rows past their retention.
type AuditCleaner interface {
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}

// LedgerSnapshotJob exports the not-settled ledgers to storage.
type LedgerSnapshotJob struct {
	exporter LedgerExporter
	logger   *zap.Logger
	timeout  time.Duration
}

func NewLedgerSnapshotJob(exporter LedgerExporter, logger *zap.Logger, timeout time.Duration) *LedgerSnapshotJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &LedgerSnapshotJob{exporter: exporter, logger: logger, timeout: timeout}
}

// Run is called by the scheduler.
func (j *LedgerSnapshotJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	export, err := j.exporter.CreateLedgerSnapshot(ctx, snapshotUser)
	if err != nil {
		j.logger.Error("ledger snapshot job failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	j.logger.Info("ledger snapshot job completed",
		zap.String("export_id", export.ID.String()),
		zap.String("filename", export.Filename),
		zap.Int("rows", export.Rows),
		zap.Duration("duration", time.Since(start)))
}

// RegisterLedgerSnapshotJob schedules the ledger export.
func RegisterLedgerSnapshotJob(scheduler *Scheduler, exporter LedgerExporter, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewLedgerSnapshotJob(exporter, logger, timeout)
	return scheduler.AddJob(LedgerSnapshotJobName, cronExpr, job.Run)
}

// RegisterAuditRetentionJob schedules deletion of audit rows older than retentionDays.
// A non-positive retention keeps audit rows forever and registers nothing.
func RegisterAuditRetentionJob(scheduler *Scheduler, cleaner AuditCleaner, logger *zap.Logger, cronExpr string, retentionDays int) error {
	if retentionDays <= 0 {
		logger.Info("audit retention disabled")
		return nil
	}
	return scheduler.AddJob(AuditRetentionJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := cleaner.CleanupOldLogs(ctx, retentionDays); err != nil {
			logger.Error("audit retention job failed", zap.Error(err))
		}
	})
}
