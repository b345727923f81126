// Package firestore stores generated report metadata in Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentaltax/internal/core"
)

const reportsCollection = "generatedReports"

// RecordStore implements ports.ReportRecordStore.
type RecordStore struct {
	client *firestore.Client
}

func NewRecordStore(client *firestore.Client) *RecordStore {
	return &RecordStore{client: client}
}

// reportDoc is the stored shape of a core.GeneratedReport.
type reportDoc struct {
	AccountID     string     `firestore:"accountId"`
	PropertyID    *string    `firestore:"propertyId"`
	PropertyName  *string    `firestore:"propertyName"`
	Year          int        `firestore:"year"`
	FileName      string     `firestore:"fileName"`
	StorageKey    string     `firestore:"storageKey"`
	FileSizeBytes int64      `firestore:"fileSizeBytes"`
	ReportType    string     `firestore:"reportType"`
	CreatedAt     time.Time  `firestore:"createdAt"`
	DeletedAt     *time.Time `firestore:"deletedAt"`
}

func toDoc(g core.GeneratedReport) reportDoc {
	return reportDoc{
		AccountID:     g.AccountID,
		PropertyID:    g.PropertyID,
		PropertyName:  g.PropertyName,
		Year:          g.Year,
		FileName:      g.FileName,
		StorageKey:    g.StorageKey,
		FileSizeBytes: g.FileSizeBytes,
		ReportType:    string(g.ReportType),
		CreatedAt:     g.CreatedAt.UTC(),
		DeletedAt:     g.DeletedAt,
	}
}

func (d reportDoc) toReport(id string) core.GeneratedReport {
	return core.GeneratedReport{
		ID:            id,
		AccountID:     d.AccountID,
		PropertyID:    d.PropertyID,
		PropertyName:  d.PropertyName,
		Year:          d.Year,
		FileName:      d.FileName,
		StorageKey:    d.StorageKey,
		FileSizeBytes: d.FileSizeBytes,
		ReportType:    core.ReportType(d.ReportType),
		CreatedAt:     d.CreatedAt,
		DeletedAt:     d.DeletedAt,
	}
}

// CreateReport fails if a document with the same id already exists.
func (s *RecordStore) CreateReport(ctx context.Context, g core.GeneratedReport) error {
	if !g.ReportType.IsValid() {
		return fmt.Errorf("invalid report type %q", g.ReportType)
	}
	if _, err := s.client.Collection(reportsCollection).Doc(g.ID).Create(ctx, toDoc(g)); err != nil {
		return fmt.Errorf("failed to create report record: %w", err)
	}
	return nil
}

func (s *RecordStore) GetReport(ctx context.Context, accountID, reportID string) (core.GeneratedReport, error) {
	snap, err := s.client.Collection(reportsCollection).Doc(reportID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return core.GeneratedReport{}, core.NotFoundf("report %s", reportID)
	}
	if err != nil {
		return core.GeneratedReport{}, fmt.Errorf("failed to get report record: %w", err)
	}

	var d reportDoc
	if err := snap.DataTo(&d); err != nil {
		return core.GeneratedReport{}, fmt.Errorf("failed to parse report record: %w", err)
	}
	if d.AccountID != accountID || d.DeletedAt != nil {
		return core.GeneratedReport{}, core.NotFoundf("report %s", reportID)
	}
	return d.toReport(snap.Ref.ID), nil
}

// ListReports sorts in memory so the query needs no composite index.
func (s *RecordStore) ListReports(ctx context.Context, accountID string) ([]core.GeneratedReport, error) {
	docs, err := s.client.Collection(reportsCollection).
		Where("accountId", "==", accountID).
		Where("deletedAt", "==", nil).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list report records: %w", err)
	}

	out := make([]core.GeneratedReport, 0, len(docs))
	for _, snap := range docs {
		var d reportDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse report record: %w", err)
		}
		out = append(out, d.toReport(snap.Ref.ID))
	}
	sortNewestFirst(out)
	return out, nil
}

// SoftDeleteReport checks ownership and sets deletedAt inside one transaction.
func (s *RecordStore) SoftDeleteReport(ctx context.Context, accountID, reportID string, at time.Time) error {
	ref := s.client.Collection(reportsCollection).Doc(reportID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return core.NotFoundf("report %s", reportID)
		}
		if err != nil {
			return fmt.Errorf("failed to get report record: %w", err)
		}
		var d reportDoc
		if err := snap.DataTo(&d); err != nil {
			return fmt.Errorf("failed to parse report record: %w", err)
		}
		if d.AccountID != accountID || d.DeletedAt != nil {
			return core.NotFoundf("report %s", reportID)
		}
		return tx.Update(ref, []firestore.Update{{Path: "deletedAt", Value: at.UTC()}})
	})
}

func sortNewestFirst(reports []core.GeneratedReport) {
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID < reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}
