// Package ports declares the collaborators the report engine depends on.
package ports

import (
	"context"
	"time"

	"rentaltax/internal/core"
)

// Ports for outbound adapters.
type (
	// PropertyLookup resolves properties within one account. Missing or foreign
	// properties are reported as core.ErrNotFound.
	PropertyLookup interface {
		GetProperty(ctx context.Context, accountID, propertyID string) (core.Property, error)
		// OwnedProperties returns the subset of ids owned by the account, in no
		// particular order. Unknown ids are silently dropped.
		OwnedProperties(ctx context.Context, accountID string, propertyIDs []string) ([]core.Property, error)
	}

	// LedgerReader is the read-only query surface over ledger rows. Both
	// methods exclude soft-deleted rows and include both range endpoints.
	LedgerReader interface {
		Expenses(ctx context.Context, accountID, propertyID string, r core.DateRange) ([]core.LedgerExpense, error)
		Income(ctx context.Context, accountID, propertyID string, r core.DateRange) ([]core.LedgerIncome, error)
	}

	// BundleEntry is one file inside a bundled archive.
	BundleEntry struct {
		FileName string
		Data     []byte
	}

	ArtifactRenderer interface {
		Render(ctx context.Context, report core.ScheduleEReport) ([]byte, error)
		Bundle(ctx context.Context, entries []BundleEntry) ([]byte, error)
	}

	// ArtifactStore is durable blob storage addressed by an opaque key.
	ArtifactStore interface {
		Put(ctx context.Context, fileName string, data []byte) (storageKey string, err error)
		Get(ctx context.Context, storageKey string) ([]byte, error)
		Delete(ctx context.Context, storageKey string) error
	}

	// ReportRecordStore persists GeneratedReport metadata. Get, List and
	// SoftDelete only ever see active rows of the given account.
	ReportRecordStore interface {
		CreateReport(ctx context.Context, r core.GeneratedReport) error
		GetReport(ctx context.Context, accountID, reportID string) (core.GeneratedReport, error)
		ListReports(ctx context.Context, accountID string) ([]core.GeneratedReport, error)
		SoftDeleteReport(ctx context.Context, accountID, reportID string, at time.Time) error
	}

	// BatchJobPublisher queues a batch generation for asynchronous processing.
	BatchJobPublisher interface {
		PublishBatchReport(ctx context.Context, jobID, accountID string, propertyIDs []string, year int) error
	}
)
