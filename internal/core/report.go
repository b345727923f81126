package core

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	SingleProperty ReportType = "single_property"
	Batch          ReportType = "batch"
)

const (
	ContentTypePDF = "application/pdf"
	ContentTypeZIP = "application/zip"

	UnknownPropertyName = "Unknown Property"
	AllPropertiesName   = "All Properties"
)

type (
	ReportType string

	// ReportLineItem is one Schedule E expense line. LineNumber is nil when the
	// schedule line carries no number.
	ReportLineItem struct {
		CategoryID   string `json:"categoryId"`
		CategoryName string `json:"categoryName"`
		ScheduleLine string `json:"scheduleLine"`
		LineNumber   *int   `json:"lineNumber,omitempty"`
		Amount       Money  `json:"amount"`
	}

	ScheduleEReport struct {
		PropertyID         string           `json:"propertyId"`
		PropertyName       string           `json:"propertyName"`
		PropertyAddress    string           `json:"propertyAddress"`
		TaxYear            int              `json:"taxYear"`
		TotalIncome        Money            `json:"totalIncome"`
		ExpensesByCategory []ReportLineItem `json:"expensesByCategory"`
		TotalExpenses      Money            `json:"totalExpenses"`
		NetIncome          Money            `json:"netIncome"`
		GeneratedAt        time.Time        `json:"generatedAt"`
	}

	// PropertyResult is one entry of a batch run. PDFBytes is nil on failure.
	PropertyResult struct {
		PropertyID   string
		PropertyName string
		Success      bool
		HasData      bool
		PDFBytes     []byte
		ErrorMessage *string
	}

	BatchResult struct {
		Year        int
		GeneratedAt time.Time
		Results     []PropertyResult
	}

	// GeneratedReport is the persisted metadata for a rendered artifact.
	GeneratedReport struct {
		ID            string
		AccountID     string
		PropertyID    *string
		PropertyName  *string
		Year          int
		FileName      string
		StorageKey    string
		FileSizeBytes int64
		ReportType    ReportType
		CreatedAt     time.Time
		DeletedAt     *time.Time
	}

	ReportListItem struct {
		ID            string     `json:"id"`
		DisplayName   string     `json:"displayName"`
		PropertyID    *string    `json:"propertyId,omitempty"`
		Year          int        `json:"year"`
		FileName      string     `json:"fileName"`
		FileType      string     `json:"fileType"`
		FileSizeBytes int64      `json:"fileSizeBytes"`
		ReportType    ReportType `json:"reportType"`
		CreatedAt     time.Time  `json:"createdAt"`
	}
)

func (t ReportType) IsValid() bool {
	return t == SingleProperty || t == Batch
}

// HasData reports whether any income or expense contributed to the report.
func (r ScheduleEReport) HasData() bool {
	return !r.TotalIncome.IsZero() || !r.TotalExpenses.IsZero()
}

// Find returns the result for propertyID, or false.
func (b *BatchResult) Find(propertyID string) (PropertyResult, bool) {
	for _, r := range b.Results {
		if r.PropertyID == propertyID {
			return r, true
		}
	}
	return PropertyResult{}, false
}

func (b *BatchResult) Succeeded() []PropertyResult {
	var out []PropertyResult
	for _, r := range b.Results {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}

func (b *BatchResult) Failed() []PropertyResult {
	var out []PropertyResult
	for _, r := range b.Results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// IsActive reports whether the record has not been soft-deleted.
func (g GeneratedReport) IsActive() bool {
	return g.DeletedAt == nil
}

// DisplayName is the label shown in listings.
func (g GeneratedReport) DisplayName() string {
	if g.PropertyName != nil && strings.TrimSpace(*g.PropertyName) != "" {
		return *g.PropertyName
	}
	if g.ReportType == Batch {
		return AllPropertiesName
	}
	return UnknownPropertyName
}

// FileType derives "PDF" or "ZIP" from the stored file name.
func (g GeneratedReport) FileType() string {
	switch strings.ToLower(filepath.Ext(g.FileName)) {
	case ".zip":
		return "ZIP"
	case ".pdf":
		return "PDF"
	default:
		return strings.ToUpper(strings.TrimPrefix(filepath.Ext(g.FileName), "."))
	}
}

// ContentType is the MIME type used when serving the artifact.
func (g GeneratedReport) ContentType() string {
	if g.ReportType == Batch || g.FileType() == "ZIP" {
		return ContentTypeZIP
	}
	return ContentTypePDF
}

func (g GeneratedReport) ListItem() ReportListItem {
	return ReportListItem{
		ID:            g.ID,
		DisplayName:   g.DisplayName(),
		PropertyID:    g.PropertyID,
		Year:          g.Year,
		FileName:      g.FileName,
		FileType:      g.FileType(),
		FileSizeBytes: g.FileSizeBytes,
		ReportType:    g.ReportType,
		CreatedAt:     g.CreatedAt,
	}
}
