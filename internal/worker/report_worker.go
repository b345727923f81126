package worker

import (
	"context"
	"fmt"

	"rentaltax/internal/amqp"
	"rentaltax/internal/core"
	"rentaltax/internal/log"
)

// BatchRunner generates and saves a batch report.
type BatchRunner interface {
	RunBatch(ctx context.Context, accountID string, propertyIDs []string, year int) (*core.BatchResult, *core.GeneratedReport, error)
}

// ReportWorker executes queued batch report jobs.
type ReportWorker struct {
	runner BatchRunner
	logger *log.Logger
}

func NewReportWorker(runner BatchRunner, logger *log.Logger) *ReportWorker {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentWorker)
	}
	return &ReportWorker{runner: runner, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleBatchMessage runs one job. Requests that can never succeed are
// returned as permanent errors so the delivery is dropped; infrastructure
// failures are returned as-is and the delivery is requeued.
func (w *ReportWorker) HandleBatchMessage(ctx context.Context, msg *amqp.BatchReportMessage) error {
	fields := log.NewFields().
		WithReport(msg.AccountID, "", msg.Year).
		WithJob(msg.JobID).
		WithOperation(log.OpConsume)

	w.logger.InfoContext(ctx, "Processing batch report job",
		fields.With(log.FieldPropertyCnt, len(msg.PropertyIDs)).ToSlice()...)

	ctx = log.IntoContext(ctx, w.logger)
	result, rec, err := w.runner.RunBatch(ctx, msg.AccountID, msg.PropertyIDs, msg.Year)
	if err != nil {
		if core.IsValidation(err) || core.IsNotFound(err) {
			w.logger.WarnContext(ctx, "Dropping batch report job", fields.WithError(err).ToSlice()...)
			return amqp.Permanent(fmt.Errorf("job %s: %w", msg.JobID, err))
		}
		return fmt.Errorf("job %s: %w", msg.JobID, err)
	}

	succeeded := len(result.Succeeded())
	fields = fields.WithBatch(len(result.Results), succeeded, len(result.Results)-succeeded)
	if rec == nil {
		w.logger.WarnContext(ctx, "Batch report job produced no reports", fields.ToSlice()...)
		return nil
	}

	w.logger.InfoContext(ctx, "Batch report job completed",
		fields.WithArtifact(rec.ID, rec.StorageKey, rec.FileSizeBytes).ToSlice()...)
	return nil
}
