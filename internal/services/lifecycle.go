package services

import (
	"context"

	"rentaltax/internal/core"
	"rentaltax/internal/log"
)

// Artifact is a downloadable report file.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// List returns the account's active reports, newest first.
func (s *ReportService) List(ctx context.Context, accountID string) ([]core.ReportListItem, error) {
	records, err := s.records.ListReports(ctx, accountID)
	if err != nil {
		return nil, err
	}
	items := make([]core.ReportListItem, 0, len(records))
	for _, r := range records {
		if !r.IsActive() || r.AccountID != accountID {
			continue
		}
		items = append(items, r.ListItem())
	}
	return items, nil
}

// Download loads the bytes of an active report owned by accountID.
func (s *ReportService) Download(ctx context.Context, accountID, reportID string) (*Artifact, error) {
	rec, err := s.records.GetReport(ctx, accountID, reportID)
	if err != nil {
		return nil, err
	}
	data, err := s.artifacts.Get(ctx, rec.StorageKey)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		FileName:    rec.FileName,
		ContentType: rec.ContentType(),
		Data:        data,
	}, nil
}

// Delete soft-deletes the record, then removes the artifact. Artifact
// removal failures are logged and otherwise ignored.
func (s *ReportService) Delete(ctx context.Context, accountID, reportID string) error {
	rec, err := s.records.GetReport(ctx, accountID, reportID)
	if err != nil {
		return err
	}
	if err := s.records.SoftDeleteReport(ctx, accountID, reportID, s.now()); err != nil {
		return err
	}

	fields := log.NewFields().WithReport(accountID, deref(rec.PropertyID), rec.Year).
		WithArtifact(rec.ID, rec.StorageKey, rec.FileSizeBytes).
		WithOperation(log.OpDelete)

	if err := s.artifacts.Delete(ctx, rec.StorageKey); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete report artifact", fields.WithError(err).ToSlice()...)
		return nil
	}
	s.logger.InfoContext(ctx, "Report deleted", fields.ToSlice()...)
	return nil
}
