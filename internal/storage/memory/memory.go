// Package memory is an in-process store for properties, ledger rows and
// report records. It backs local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentaltax/internal/core"
)

type Store struct {
	mu         sync.RWMutex
	properties map[string]core.Property
	expenses   []core.LedgerExpense
	income     []core.LedgerIncome
	reports    map[string]core.GeneratedReport
}

func New() *Store {
	return &Store{
		properties: make(map[string]core.Property),
		reports:    make(map[string]core.GeneratedReport),
	}
}

// CreateProperty stores p, assigning an id when empty.
func (s *Store) CreateProperty(_ context.Context, p core.Property) (string, error) {
	if strings.TrimSpace(p.AccountID) == "" {
		return "", core.ErrEmptyAccount
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[p.ID]; ok {
		return "", fmt.Errorf("property %s already exists", p.ID)
	}
	s.properties[p.ID] = p
	return p.ID, nil
}

func (s *Store) AddExpense(_ context.Context, e core.LedgerExpense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) AddIncome(_ context.Context, i core.LedgerIncome) (string, error) {
	if err := i.Validate(); err != nil {
		return "", err
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.income = append(s.income, i)
	return i.ID, nil
}

// GetProperty implements ports.PropertyLookup
func (s *Store) GetProperty(_ context.Context, accountID, propertyID string) (core.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[propertyID]
	if !ok || p.AccountID != accountID || p.DeletedAt != nil {
		return core.Property{}, core.NotFoundf("property %s", propertyID)
	}
	return p, nil
}

// OwnedProperties implements ports.PropertyLookup
func (s *Store) OwnedProperties(_ context.Context, accountID string, propertyIDs []string) ([]core.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(propertyIDs))
	var out []core.Property
	for _, id := range propertyIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := s.properties[id]
		if ok && p.AccountID == accountID && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// Expenses implements ports.LedgerReader
func (s *Store) Expenses(_ context.Context, accountID, propertyID string, r core.DateRange) ([]core.LedgerExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.LedgerExpense
	for _, e := range s.expenses {
		if e.AccountID == accountID && e.PropertyID == propertyID && e.DeletedAt == nil && r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Income implements ports.LedgerReader
func (s *Store) Income(_ context.Context, accountID, propertyID string, r core.DateRange) ([]core.LedgerIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.LedgerIncome
	for _, i := range s.income {
		if i.AccountID == accountID && i.PropertyID == propertyID && i.DeletedAt == nil && r.Contains(i.Date) {
			out = append(out, i)
		}
	}
	return out, nil
}

// CreateReport implements ports.ReportRecordStore
func (s *Store) CreateReport(_ context.Context, g core.GeneratedReport) error {
	if !g.ReportType.IsValid() {
		return fmt.Errorf("invalid report type %q", g.ReportType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[g.ID]; ok {
		return fmt.Errorf("report %s already exists", g.ID)
	}
	s.reports[g.ID] = g
	return nil
}

// GetReport implements ports.ReportRecordStore
func (s *Store) GetReport(_ context.Context, accountID, reportID string) (core.GeneratedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.reports[reportID]
	if !ok || g.AccountID != accountID || !g.IsActive() {
		return core.GeneratedReport{}, core.NotFoundf("report %s", reportID)
	}
	return g, nil
}

// ListReports implements ports.ReportRecordStore
func (s *Store) ListReports(_ context.Context, accountID string) ([]core.GeneratedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.GeneratedReport
	for _, g := range s.reports {
		if g.AccountID == accountID && g.IsActive() {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SoftDeleteReport implements ports.ReportRecordStore
func (s *Store) SoftDeleteReport(_ context.Context, accountID, reportID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.reports[reportID]
	if !ok || g.AccountID != accountID || !g.IsActive() {
		return core.NotFoundf("report %s", reportID)
	}
	g.DeletedAt = &at
	s.reports[reportID] = g
	return nil
}
