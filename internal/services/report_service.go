package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentaltax/internal/core"
	"rentaltax/internal/log"
	"rentaltax/internal/ports"
	"rentaltax/internal/taxonomy"
)

// DefaultBatchConcurrency bounds how many properties a batch renders at once.
const DefaultBatchConcurrency = 4

// Deps are the collaborators a ReportService needs.
type Deps struct {
	Properties ports.PropertyLookup
	Ledger     ports.LedgerReader
	Renderer   ports.ArtifactRenderer
	Artifacts  ports.ArtifactStore
	Records    ports.ReportRecordStore
}

// ReportService aggregates ledger data into Schedule E reports, renders and
// stores them, and manages the stored artifacts.
type ReportService struct {
	properties ports.PropertyLookup
	ledger     ports.LedgerReader
	renderer   ports.ArtifactRenderer
	artifacts  ports.ArtifactStore
	records    ports.ReportRecordStore

	taxonomy    *taxonomy.Taxonomy
	concurrency int
	now         func() time.Time
	newID       func() string
	logger      *log.Logger
}

type Option func(*ReportService)

func WithConcurrency(n int) Option {
	return func(s *ReportService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ReportService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ReportService) { s.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ReportService) { s.logger = l.WithComponent(log.ComponentReport) }
}

func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(s *ReportService) { s.taxonomy = t }
}

func NewReportService(deps Deps, opts ...Option) *ReportService {
	s := &ReportService{
		properties:  deps.Properties,
		ledger:      deps.Ledger,
		renderer:    deps.Renderer,
		artifacts:   deps.Artifacts,
		records:     deps.Records,
		taxonomy:    taxonomy.Default(),
		concurrency: DefaultBatchConcurrency,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      log.Wrap(nil, log.ComponentReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Aggregate builds the Schedule E model for one property and tax year.
// Property and ledger errors are returned unchanged.
func (s *ReportService) Aggregate(ctx context.Context, accountID, propertyID string, year int) (core.ScheduleEReport, error) {
	if err := core.ValidateTaxYear(year); err != nil {
		return core.ScheduleEReport{}, core.Validation("invalid tax year %d", year)
	}

	property, err := s.properties.GetProperty(ctx, accountID, propertyID)
	if err != nil {
		return core.ScheduleEReport{}, err
	}

	period := core.YearRange(year)
	expenses, err := s.ledger.Expenses(ctx, accountID, propertyID, period)
	if err != nil {
		return core.ScheduleEReport{}, err
	}
	income, err := s.ledger.Income(ctx, accountID, propertyID, period)
	if err != nil {
		return core.ScheduleEReport{}, err
	}

	byCategory := make(map[string]core.Money)
	for _, e := range expenses {
		if e.DeletedAt != nil || !period.Contains(e.Date) {
			continue
		}
		if _, ok := s.taxonomy.ByID(e.CategoryID); !ok {
			return core.ScheduleEReport{}, fmt.Errorf("%w: expense %s has unknown category %q", core.ErrAggregation, e.ID, e.CategoryID)
		}
		if e.Amount.Cents <= 0 {
			return core.ScheduleEReport{}, fmt.Errorf("%w: expense %s has non-positive amount %s", core.ErrAggregation, e.ID, e.Amount)
		}
		byCategory[e.CategoryID] = byCategory[e.CategoryID].Add(e.Amount)
	}

	var totalIncome core.Money
	for _, i := range income {
		if i.DeletedAt != nil || !period.Contains(i.Date) {
			continue
		}
		totalIncome = totalIncome.Add(i.Amount)
	}

	lines := make([]core.ReportLineItem, 0, len(byCategory))
	var totalExpenses core.Money
	for _, def := range s.taxonomy.All() {
		amount, ok := byCategory[def.ID]
		if !ok {
			continue
		}
		lines = append(lines, core.ReportLineItem{
			CategoryID:   def.ID,
			CategoryName: def.Name,
			ScheduleLine: def.ScheduleLine,
			LineNumber:   taxonomy.ParseLineNumber(def.ScheduleLine),
			Amount:       amount,
		})
		totalExpenses = totalExpenses.Add(amount)
	}

	return core.ScheduleEReport{
		PropertyID:         property.ID,
		PropertyName:       property.Name,
		PropertyAddress:    property.FormattedAddress(),
		TaxYear:            year,
		TotalIncome:        totalIncome,
		ExpensesByCategory: lines,
		TotalExpenses:      totalExpenses,
		NetIncome:          totalIncome.Sub(totalExpenses),
		GeneratedAt:        s.now(),
	}, nil
}

// SingleReport is a rendered, not yet persisted, report.
type SingleReport struct {
	Report core.ScheduleEReport
	PDF    []byte
}

// FileName is the name the artifact is stored and downloaded under.
func (r *SingleReport) FileName() string {
	return SingleFileName(r.Report.PropertyName, r.Report.TaxYear)
}

// GenerateSingle aggregates and renders one property's report.
func (s *ReportService) GenerateSingle(ctx context.Context, accountID, propertyID string, year int) (*SingleReport, error) {
	report, err := s.Aggregate(ctx, accountID, propertyID, year)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.Render(ctx, report)
	if err != nil {
		return nil, err
	}
	return &SingleReport{Report: report, PDF: pdf}, nil
}

// SaveSingle stores the PDF and then its record. If the record cannot be
// written the stored blob is removed again.
func (s *ReportService) SaveSingle(ctx context.Context, accountID string, single *SingleReport) (core.GeneratedReport, error) {
	if single == nil || len(single.PDF) == 0 {
		return core.GeneratedReport{}, core.Validation("report has no content")
	}
	propertyID := single.Report.PropertyID
	propertyName := single.Report.PropertyName
	return s.persist(ctx, core.GeneratedReport{
		AccountID:    accountID,
		PropertyID:   &propertyID,
		PropertyName: &propertyName,
		Year:         single.Report.TaxYear,
		FileName:     single.FileName(),
		ReportType:   core.SingleProperty,
	}, single.PDF)
}

// GenerateAndSaveSingle runs GenerateSingle followed by SaveSingle.
func (s *ReportService) GenerateAndSaveSingle(ctx context.Context, accountID, propertyID string, year int) (core.GeneratedReport, error) {
	single, err := s.GenerateSingle(ctx, accountID, propertyID, year)
	if err != nil {
		return core.GeneratedReport{}, err
	}
	return s.SaveSingle(ctx, accountID, single)
}

func (s *ReportService) persist(ctx context.Context, rec core.GeneratedReport, data []byte) (core.GeneratedReport, error) {
	key, err := s.artifacts.Put(ctx, rec.FileName, data)
	if err != nil {
		return core.GeneratedReport{}, err
	}

	rec.ID = s.newID()
	rec.StorageKey = key
	rec.FileSizeBytes = int64(len(data))
	rec.CreatedAt = s.now()

	fields := log.NewFields().WithReport(rec.AccountID, deref(rec.PropertyID), rec.Year).
		WithArtifact(rec.ID, key, rec.FileSizeBytes)

	if err := s.records.CreateReport(ctx, rec); err != nil {
		if derr := s.artifacts.Delete(ctx, key); derr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned artifact",
				fields.WithError(derr).WithOperation(log.OpSave).ToSlice()...)
		}
		return core.GeneratedReport{}, err
	}

	s.logger.InfoContext(ctx, "Report saved",
		append(fields.WithOperation(log.OpSave).ToSlice(), log.FieldReportType, rec.ReportType)...)
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func errorMessage(err error) *string {
	msg := err.Error()
	return &msg
}
