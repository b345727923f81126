package memory

import (
	"context"
	"testing"
	"time"

	"rentaltax/internal/core"
)

func TestLedgerScopingAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.CreateProperty(ctx, core.Property{ID: "p1", AccountID: "a1", Name: "Maple"}); err != nil {
		t.Fatalf("create property: %v", err)
	}
	if _, err := s.CreateProperty(ctx, core.Property{ID: "p1", AccountID: "a1"}); err == nil {
		t.Fatalf("expected duplicate property error")
	}

	deleted := time.Now()
	rows := []core.LedgerExpense{
		{AccountID: "a1", PropertyID: "p1", CategoryID: "repairs", Amount: core.Cents(100), Date: core.NewDate(2024, 1, 1)},
		{AccountID: "a1", PropertyID: "p1", CategoryID: "repairs", Amount: core.Cents(200), Date: core.NewDate(2024, 12, 31)},
		{AccountID: "a1", PropertyID: "p1", CategoryID: "repairs", Amount: core.Cents(300), Date: core.NewDate(2025, 1, 1)},
		{AccountID: "a1", PropertyID: "p1", CategoryID: "repairs", Amount: core.Cents(400), Date: core.NewDate(2024, 5, 1), DeletedAt: &deleted},
		{AccountID: "a2", PropertyID: "p1", CategoryID: "repairs", Amount: core.Cents(500), Date: core.NewDate(2024, 5, 1)},
	}
	for _, e := range rows {
		if _, err := s.AddExpense(ctx, e); err != nil {
			t.Fatalf("add expense: %v", err)
		}
	}

	got, err := s.Expenses(ctx, "a1", "p1", core.YearRange(2024))
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 expenses in 2024, got %d", len(got))
	}

	if _, err := s.GetProperty(ctx, "a2", "p1"); !core.IsNotFound(err) {
		t.Fatalf("foreign property should be not found, got %v", err)
	}

	owned, _ := s.OwnedProperties(ctx, "a1", []string{"p1", "p1", "nope"})
	if len(owned) != 1 || owned[0].ID != "p1" {
		t.Fatalf("unexpected owned set: %+v", owned)
	}
}

func TestReportRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		err := s.CreateReport(ctx, core.GeneratedReport{
			ID: id, AccountID: "a1", Year: 2024, FileName: id + ".pdf",
			ReportType: core.SingleProperty, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := s.CreateReport(ctx, core.GeneratedReport{ID: "x", AccountID: "a1", ReportType: "other"}); err == nil {
		t.Fatalf("expected invalid report type error")
	}

	list, _ := s.ListReports(ctx, "a1")
	if len(list) != 3 || list[0].ID != "r3" || list[2].ID != "r1" {
		t.Fatalf("unexpected order: %+v", list)
	}

	if err := s.SoftDeleteReport(ctx, "a2", "r2", base); !core.IsNotFound(err) {
		t.Fatalf("cross-account delete should be not found, got %v", err)
	}
	if err := s.SoftDeleteReport(ctx, "a1", "r2", base); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.SoftDeleteReport(ctx, "a1", "r2", base); !core.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if _, err := s.GetReport(ctx, "a1", "r2"); !core.IsNotFound(err) {
		t.Fatalf("deleted report should be not found, got %v", err)
	}

	list, _ = s.ListReports(ctx, "a1")
	if len(list) != 2 {
		t.Fatalf("expected 2 active reports, got %d", len(list))
	}
	if other, _ := s.ListReports(ctx, "a2"); len(other) != 0 {
		t.Fatalf("account a2 should see nothing, got %d", len(other))
	}
}
