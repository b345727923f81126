package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	ok := map[string]int64{
		"12.34":  1234,
		"12,34":  1234,
		"12.345": 1235,
		"12.344": 1234,
		"0.01":   1,
		".5":     50,
		"1500":   150000,
		" 7.1 ":  710,
	}
	for in, want := range ok {
		got, err := ParseDecimalToCents(in)
		if err != nil || got != want {
			t.Fatalf("%q => %d, %v; want %d", in, got, err, want)
		}
	}
	bad := []string{"", "-1", "+1", "abc", "1.2.3", "0", "0.00", "0.004", "1e3"}
	for _, in := range bad {
		if _, err := ParseDecimalToCents(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Cents(0), "0.00"},
		{Cents(35000), "350.00"},
		{Cents(5), "0.05"},
		{Cents(-400000), "-4000.00"},
		{Dollars(2650), "2650.00"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.m.Cents, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	total := Dollars(100).Add(Dollars(50)).Add(Cents(1))
	if total.Cents != 15001 {
		t.Fatalf("Add = %d", total.Cents)
	}
	if net := Dollars(1000).Sub(Dollars(5000)); net.Cents != -400000 {
		t.Fatalf("Sub = %d", net.Cents)
	}
	if err := Cents(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}
