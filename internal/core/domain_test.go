package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestYearRangeContains(t *testing.T) {
	r := YearRange(2024)
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2024, 1, 1), true},
		{NewDate(2024, 12, 31), true},
		{Date{Time: time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)}, true},
		{NewDate(2023, 12, 31), false},
		{NewDate(2025, 1, 1), false},
	}
	for _, tc := range cases {
		if got := r.Contains(tc.d); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestFormattedAddress(t *testing.T) {
	cases := []struct {
		name string
		p    Property
		want string
	}{
		{"full", Property{Street: "123 Main St", City: "Springfield", State: "il", PostalCode: "62701"}, "123 Main St, Springfield, IL 62701"},
		{"lowercase title-cased", Property{Street: "9 elm road", City: "portland", State: "OR"}, "9 Elm Road, Portland, OR"},
		{"mixed case kept", Property{Street: "1 McDonald Ave", City: "NYC", State: "NY", PostalCode: "10001"}, "1 McDonald Ave, NYC, NY 10001"},
		{"empty", Property{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.FormattedAddress(); got != tc.want {
				t.Fatalf("FormattedAddress() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLedgerExpenseValidate(t *testing.T) {
	good := LedgerExpense{
		AccountID:  "acc",
		PropertyID: "prop",
		CategoryID: "repairs",
		Amount:     Dollars(100),
		Date:       NewDate(2025, 3, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []LedgerExpense{
		{PropertyID: "p", CategoryID: "c", Amount: Cents(1), Date: NewDate(2025, 1, 1)},
		{AccountID: "a", CategoryID: "c", Amount: Cents(1), Date: NewDate(2025, 1, 1)},
		{AccountID: "a", PropertyID: "p", Amount: Cents(1), Date: NewDate(2025, 1, 1)},
		{AccountID: "a", PropertyID: "p", CategoryID: "c", Amount: Cents(0), Date: NewDate(2025, 1, 1)},
		{AccountID: "a", PropertyID: "p", CategoryID: "c", Amount: Cents(1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGeneratedReportDisplay(t *testing.T) {
	name := "Maple Duplex"
	blank := "  "
	cases := []struct {
		name        string
		r           GeneratedReport
		display     string
		fileType    string
		contentType string
	}{
		{"named single", GeneratedReport{PropertyName: &name, ReportType: SingleProperty, FileName: "a.pdf"}, name, "PDF", ContentTypePDF},
		{"batch without name", GeneratedReport{ReportType: Batch, FileName: "b.zip"}, AllPropertiesName, "ZIP", ContentTypeZIP},
		{"single without name", GeneratedReport{ReportType: SingleProperty, FileName: "c.PDF"}, UnknownPropertyName, "PDF", ContentTypePDF},
		{"blank name", GeneratedReport{PropertyName: &blank, ReportType: SingleProperty, FileName: "d.pdf"}, UnknownPropertyName, "PDF", ContentTypePDF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.DisplayName(); got != tc.display {
				t.Errorf("DisplayName() = %q, want %q", got, tc.display)
			}
			if got := tc.r.FileType(); got != tc.fileType {
				t.Errorf("FileType() = %q, want %q", got, tc.fileType)
			}
			if got := tc.r.ContentType(); got != tc.contentType {
				t.Errorf("ContentType() = %q, want %q", got, tc.contentType)
			}
		})
	}
}

func TestReportJSONMoney(t *testing.T) {
	r := ScheduleEReport{TotalIncome: Dollars(1000), TotalExpenses: Dollars(5000), NetIncome: Dollars(-4000)}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["netIncome"] != "-4000.00" {
		t.Fatalf("netIncome = %v", out["netIncome"])
	}
	if r.HasData() != true {
		t.Fatalf("expected HasData")
	}
}

func TestBatchResultHelpers(t *testing.T) {
	msg := "boom"
	b := BatchResult{Results: []PropertyResult{
		{PropertyID: "a", Success: true},
		{PropertyID: "b", ErrorMessage: &msg},
		{PropertyID: "c", Success: true},
	}}
	if len(b.Succeeded()) != 2 || len(b.Failed()) != 1 {
		t.Fatalf("succeeded=%d failed=%d", len(b.Succeeded()), len(b.Failed()))
	}
	if r, ok := b.Find("b"); !ok || r.Success {
		t.Fatalf("Find(b) = %+v, %v", r, ok)
	}
	if _, ok := b.Find("zzz"); ok {
		t.Fatalf("Find(zzz) should miss")
	}
}
