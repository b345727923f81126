package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rentaltax/internal/core"
	"rentaltax/internal/log"
	"rentaltax/internal/ports"
)

const (
	msgNoProperties    = "at least one property must be selected"
	msgNoneOwned       = "selected properties were not found or do not belong to your account"
	msgNothingToBundle = "no reports were generated"
)

// GenerateBatch renders one report per requested property. Items fail
// independently; Results is index-aligned with propertyIDs.
func (s *ReportService) GenerateBatch(ctx context.Context, accountID string, propertyIDs []string, year int) (*core.BatchResult, error) {
	if len(propertyIDs) == 0 {
		return nil, core.Validation(msgNoProperties)
	}
	if err := core.ValidateTaxYear(year); err != nil {
		return nil, core.Validation("invalid tax year %d", year)
	}

	owned, err := s.properties.OwnedProperties(ctx, accountID, propertyIDs)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, core.Validation(msgNoneOwned)
	}
	names := make(map[string]string, len(owned))
	for _, p := range owned {
		names[p.ID] = p.Name
	}

	results := make([]core.PropertyResult, len(propertyIDs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, id := range propertyIDs {
		if err := ctx.Err(); err != nil {
			results[i] = failed(id, names, fmt.Errorf("not started: %w", err))
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = failed(id, names, fmt.Errorf("not started: %w", err))
				return nil
			}
			results[i] = s.generateItem(ctx, accountID, id, year, names)
			return nil
		})
	}
	_ = g.Wait()

	result := &core.BatchResult{
		Year:        year,
		GeneratedAt: s.now(),
		Results:     results,
	}

	succeeded := len(result.Succeeded())
	s.logger.InfoContext(ctx, "Batch generation finished",
		log.NewFields().WithReport(accountID, "", year).
			WithBatch(len(results), succeeded, len(results)-succeeded).
			WithOperation(log.OpBatch).ToSlice()...)
	return result, nil
}

func (s *ReportService) generateItem(ctx context.Context, accountID, propertyID string, year int, names map[string]string) core.PropertyResult {
	report, err := s.Aggregate(ctx, accountID, propertyID, year)
	if err == nil {
		var pdf []byte
		if pdf, err = s.renderer.Render(ctx, report); err == nil {
			return core.PropertyResult{
				PropertyID:   propertyID,
				PropertyName: report.PropertyName,
				Success:      true,
				HasData:      report.HasData(),
				PDFBytes:     pdf,
			}
		}
	}

	s.logger.WarnContext(ctx, "Batch item failed",
		log.NewFields().WithReport(accountID, propertyID, year).
			WithError(err).WithOperation(log.OpBatch).ToSlice()...)
	return failed(propertyID, names, err)
}

func failed(propertyID string, names map[string]string, err error) core.PropertyResult {
	name, ok := names[propertyID]
	if !ok || name == "" {
		name = core.UnknownPropertyName
	}
	return core.PropertyResult{
		PropertyID:   propertyID,
		PropertyName: name,
		ErrorMessage: errorMessage(err),
	}
}

// SaveBatch bundles the successful PDFs into one ZIP and records it.
func (s *ReportService) SaveBatch(ctx context.Context, accountID string, result *core.BatchResult) (core.GeneratedReport, error) {
	if result == nil {
		return core.GeneratedReport{}, core.Validation(msgNothingToBundle)
	}
	succeeded := result.Succeeded()
	if len(succeeded) == 0 {
		return core.GeneratedReport{}, core.Validation(msgNothingToBundle)
	}

	names := newNameSet()
	entries := make([]ports.BundleEntry, 0, len(succeeded))
	for _, r := range succeeded {
		entries = append(entries, ports.BundleEntry{
			FileName: names.unique(SingleFileName(r.PropertyName, result.Year)),
			Data:     r.PDFBytes,
		})
	}

	archive, err := s.renderer.Bundle(ctx, entries)
	if err != nil {
		return core.GeneratedReport{}, err
	}

	return s.persist(ctx, core.GeneratedReport{
		AccountID:  accountID,
		Year:       result.Year,
		FileName:   BatchFileName(result.Year),
		ReportType: core.Batch,
	}, archive)
}

// RunBatch generates a batch and, when anything succeeded, saves the bundle.
// The returned record is nil when every item failed.
func (s *ReportService) RunBatch(ctx context.Context, accountID string, propertyIDs []string, year int) (*core.BatchResult, *core.GeneratedReport, error) {
	result, err := s.GenerateBatch(ctx, accountID, propertyIDs, year)
	if err != nil {
		return nil, nil, err
	}
	if len(result.Succeeded()) == 0 {
		return result, nil, nil
	}
	rec, err := s.SaveBatch(ctx, accountID, result)
	if err != nil {
		return result, nil, err
	}
	return result, &rec, nil
}
