// Package seed loads fixture properties and ledger rows from a YAML file into
// any store exposing the ledger writers.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"rentaltax/internal/core"
)

// Writer is implemented by storage.SQLiteRepository and memory.Store.
type Writer interface {
	CreateProperty(ctx context.Context, p core.Property) (string, error)
	AddExpense(ctx context.Context, e core.LedgerExpense) (string, error)
	AddIncome(ctx context.Context, i core.LedgerIncome) (string, error)
}

type (
	File struct {
		Properties []PropertyRow `yaml:"properties"`
		Expenses   []ExpenseRow  `yaml:"expenses"`
		Income     []IncomeRow   `yaml:"income"`
	}

	PropertyRow struct {
		ID         string `yaml:"id"`
		AccountID  string `yaml:"account_id"`
		Name       string `yaml:"name"`
		Street     string `yaml:"street"`
		City       string `yaml:"city"`
		State      string `yaml:"state"`
		PostalCode string `yaml:"postal_code"`
	}

	ExpenseRow struct {
		ID          string `yaml:"id"`
		AccountID   string `yaml:"account_id"`
		PropertyID  string `yaml:"property_id"`
		Category    string `yaml:"category"`
		Amount      string `yaml:"amount"`
		Date        string `yaml:"date"`
		Description string `yaml:"description"`
	}

	IncomeRow struct {
		ID          string `yaml:"id"`
		AccountID   string `yaml:"account_id"`
		PropertyID  string `yaml:"property_id"`
		Amount      string `yaml:"amount"`
		Date        string `yaml:"date"`
		Description string `yaml:"description"`
	}
)

// Counts summarises what a load inserted.
type Counts struct {
	Properties int
	Expenses   int
	Income     int
}

// LoadFile reads path and applies it to w. A missing file is not an error.
func LoadFile(ctx context.Context, path string, w Writer) (Counts, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Counts{}, nil
	}
	if err != nil {
		return Counts{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(ctx, f, w)
}

// Load decodes a seed document and applies it to w.
func Load(ctx context.Context, r io.Reader, w Writer) (Counts, error) {
	var doc File
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Counts{}, fmt.Errorf("parse seed YAML: %w", err)
	}
	return Apply(ctx, doc, w)
}

// Apply writes properties first so ledger rows can reference them.
func Apply(ctx context.Context, doc File, w Writer) (Counts, error) {
	var c Counts
	for _, p := range doc.Properties {
		if _, err := w.CreateProperty(ctx, core.Property{
			ID:         p.ID,
			AccountID:  p.AccountID,
			Name:       p.Name,
			Street:     p.Street,
			City:       p.City,
			State:      p.State,
			PostalCode: p.PostalCode,
		}); err != nil {
			return c, fmt.Errorf("seed property %q: %w", p.ID, err)
		}
		c.Properties++
	}

	for n, e := range doc.Expenses {
		amount, date, err := parseRow(e.Amount, e.Date)
		if err != nil {
			return c, fmt.Errorf("seed expense #%d: %w", n+1, err)
		}
		if _, err := w.AddExpense(ctx, core.LedgerExpense{
			ID:          e.ID,
			AccountID:   e.AccountID,
			PropertyID:  e.PropertyID,
			CategoryID:  e.Category,
			Amount:      amount,
			Date:        date,
			Description: e.Description,
		}); err != nil {
			return c, fmt.Errorf("seed expense #%d: %w", n+1, err)
		}
		c.Expenses++
	}

	for n, i := range doc.Income {
		amount, date, err := parseRow(i.Amount, i.Date)
		if err != nil {
			return c, fmt.Errorf("seed income #%d: %w", n+1, err)
		}
		if _, err := w.AddIncome(ctx, core.LedgerIncome{
			ID:          i.ID,
			AccountID:   i.AccountID,
			PropertyID:  i.PropertyID,
			Amount:      amount,
			Date:        date,
			Description: i.Description,
		}); err != nil {
			return c, fmt.Errorf("seed income #%d: %w", n+1, err)
		}
		c.Income++
	}
	return c, nil
}

func parseRow(amount, date string) (core.Money, core.Date, error) {
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Money{}, core.Date{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Money{}, core.Date{}, fmt.Errorf("date %q: %w", date, err)
	}
	return m, d, nil
}
