package core

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	Date struct {
		time.Time
	}

	// DateRange is inclusive on both ends, at day precision.
	DateRange struct {
		From Date
		To   Date
	}

	CategoryDefinition struct {
		ID           string `yaml:"id"`
		Name         string `yaml:"name"`
		ScheduleLine string `yaml:"schedule_line"`
		SortOrder    int    `yaml:"sort_order"`
	}

	Property struct {
		ID         string
		AccountID  string
		Name       string
		Street     string
		City       string
		State      string
		PostalCode string
		DeletedAt  *time.Time
	}

	LedgerExpense struct {
		ID          string
		AccountID   string
		PropertyID  string
		CategoryID  string
		Amount      Money
		Date        Date
		Description string
		DeletedAt   *time.Time
	}

	LedgerIncome struct {
		ID          string
		AccountID   string
		PropertyID  string
		Amount      Money
		Date        Date
		Description string
		DeletedAt   *time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyAccount     = errors.New("empty account id")
	ErrEmptyProperty    = errors.New("empty property id")
	ErrEmptyCategory    = errors.New("empty category id")
	ErrInvalidTaxYear   = errors.New("invalid tax year")
	ErrEmptyDescription = errors.New("empty description")
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// YearRange returns Jan 1 through Dec 31 of year.
func YearRange(year int) DateRange {
	return DateRange{From: NewDate(year, 1, 1), To: NewDate(year, 12, 31)}
}

// Contains reports whether d falls within the range, comparing calendar days only.
func (r DateRange) Contains(d Date) bool {
	day := d.String()
	return day >= r.From.String() && day <= r.To.String()
}

// ValidateTaxYear rejects years outside a sane reporting window.
func ValidateTaxYear(year int) error {
	if year < 1900 || year > 9999 {
		return ErrInvalidTaxYear
	}
	return nil
}

// FormattedAddress renders "Street, City, ST 12345", skipping empty parts.
// All-lowercase street and city values are title-cased.
func (p Property) FormattedAddress() string {
	street := titleIfLower(p.Street)
	city := titleIfLower(p.City)
	stateZip := strings.TrimSpace(strings.ToUpper(strings.TrimSpace(p.State)) + " " + strings.TrimSpace(p.PostalCode))

	parts := make([]string, 0, 3)
	for _, s := range []string{street, city, stateZip} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func titleIfLower(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s != strings.ToLower(s) {
		return s
	}
	return cases.Title(language.AmericanEnglish).String(s)
}

func (e LedgerExpense) Validate() error {
	if strings.TrimSpace(e.AccountID) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(e.PropertyID) == "" {
		return ErrEmptyProperty
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

func (i LedgerIncome) Validate() error {
	if strings.TrimSpace(i.AccountID) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(i.PropertyID) == "" {
		return ErrEmptyProperty
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	return i.Amount.Validate()
}
