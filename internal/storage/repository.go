package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentaltax/internal/core"

	_ "modernc.org/sqlite"
)

// Fixed-width UTC layout so TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const dateLayout = "2006-01-02"

// SQLiteRepository implements the property lookup, ledger reader and report
// record store on a single SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateProperty inserts a property, assigning an id when empty.
func (r *SQLiteRepository) CreateProperty(ctx context.Context, p core.Property) (string, error) {
	if strings.TrimSpace(p.AccountID) == "" {
		return "", core.ErrEmptyAccount
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO properties (id, account_id, name, street, city, state, postal_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AccountID, p.Name, p.Street, p.City, p.State, p.PostalCode, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("insert property: %w", err)
	}
	return p.ID, nil
}

// AddExpense inserts a ledger expense, assigning an id when empty.
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.LedgerExpense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, account_id, property_id, category_id, amount_cents, date, description, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, e.PropertyID, e.CategoryID, e.Amount.Cents, e.Date.Format(dateLayout),
		e.Description, formatTime(time.Now()), nullableTime(e.DeletedAt))
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"property_id", e.PropertyID,
		"category_id", e.CategoryID,
		"amount_cents", e.Amount.Cents)

	return e.ID, nil
}

// AddIncome inserts a ledger income row, assigning an id when empty.
func (r *SQLiteRepository) AddIncome(ctx context.Context, i core.LedgerIncome) (string, error) {
	if err := i.Validate(); err != nil {
		return "", err
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO income (id, account_id, property_id, amount_cents, date, description, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.AccountID, i.PropertyID, i.Amount.Cents, i.Date.Format(dateLayout),
		i.Description, formatTime(time.Now()), nullableTime(i.DeletedAt))
	if err != nil {
		return "", fmt.Errorf("insert income: %w", err)
	}
	return i.ID, nil
}

// SoftDeleteExpense marks an expense deleted within the account.
func (r *SQLiteRepository) SoftDeleteExpense(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET deleted_at = ?
		WHERE id = ? AND account_id = ? AND deleted_at IS NULL`,
		formatTime(time.Now()), id, accountID)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	return requireAffected(res, "expense %s", id)
}

// GetProperty implements ports.PropertyLookup
func (r *SQLiteRepository) GetProperty(ctx context.Context, accountID, propertyID string) (core.Property, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, street, city, state, postal_code
		FROM properties
		WHERE id = ? AND account_id = ? AND deleted_at IS NULL`,
		propertyID, accountID)

	var p core.Property
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Street, &p.City, &p.State, &p.PostalCode)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Property{}, core.NotFoundf("property %s", propertyID)
	}
	if err != nil {
		return core.Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// OwnedProperties implements ports.PropertyLookup
func (r *SQLiteRepository) OwnedProperties(ctx context.Context, accountID string, propertyIDs []string) ([]core.Property, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(propertyIDs)+1)
	args = append(args, accountID)
	for _, id := range propertyIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(propertyIDs)), ",")

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, name, street, city, state, postal_code
		FROM properties
		WHERE account_id = ? AND deleted_at IS NULL AND id IN (`+placeholders+`)
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query owned properties: %w", err)
	}
	defer rows.Close()

	var out []core.Property
	for rows.Next() {
		var p core.Property
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Name, &p.Street, &p.City, &p.State, &p.PostalCode); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}

// Expenses implements ports.LedgerReader
func (r *SQLiteRepository) Expenses(ctx context.Context, accountID, propertyID string, dr core.DateRange) ([]core.LedgerExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, property_id, category_id, amount_cents, date, description
		FROM expenses
		WHERE account_id = ? AND property_id = ? AND deleted_at IS NULL
		  AND date >= ? AND date <= ?
		ORDER BY date, id`,
		accountID, propertyID, dr.From.Format(dateLayout), dr.To.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerExpense
	for rows.Next() {
		var (
			e    core.LedgerExpense
			date string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.PropertyID, &e.CategoryID, &e.Amount.Cents, &date, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse expense %s date %q: %w", e.ID, date, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Income implements ports.LedgerReader
func (r *SQLiteRepository) Income(ctx context.Context, accountID, propertyID string, dr core.DateRange) ([]core.LedgerIncome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, property_id, amount_cents, date, description
		FROM income
		WHERE account_id = ? AND property_id = ? AND deleted_at IS NULL
		  AND date >= ? AND date <= ?
		ORDER BY date, id`,
		accountID, propertyID, dr.From.Format(dateLayout), dr.To.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query income: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerIncome
	for rows.Next() {
		var (
			i    core.LedgerIncome
			date string
		)
		if err := rows.Scan(&i.ID, &i.AccountID, &i.PropertyID, &i.Amount.Cents, &date, &i.Description); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if i.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse income %s date %q: %w", i.ID, date, err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate income: %w", err)
	}
	return out, nil
}

// CreateReport implements ports.ReportRecordStore
func (r *SQLiteRepository) CreateReport(ctx context.Context, g core.GeneratedReport) error {
	if !g.ReportType.IsValid() {
		return fmt.Errorf("invalid report type %q", g.ReportType)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generated_reports
			(id, account_id, property_id, property_name, year, file_name, storage_key, file_size_bytes, report_type, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.AccountID, nullableString(g.PropertyID), nullableString(g.PropertyName), g.Year,
		g.FileName, g.StorageKey, g.FileSizeBytes, string(g.ReportType), formatTime(g.CreatedAt), nullableTime(g.DeletedAt))
	if err != nil {
		return fmt.Errorf("insert generated report: %w", err)
	}

	slog.InfoContext(ctx, "Report record saved",
		"report_id", g.ID,
		"account_id", g.AccountID,
		"report_type", g.ReportType,
		"year", g.Year)

	return nil
}

const reportColumns = `id, account_id, property_id, property_name, year, file_name, storage_key, file_size_bytes, report_type, created_at, deleted_at`

// GetReport implements ports.ReportRecordStore
func (r *SQLiteRepository) GetReport(ctx context.Context, accountID, reportID string) (core.GeneratedReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM generated_reports
		WHERE id = ? AND account_id = ? AND deleted_at IS NULL`,
		reportID, accountID)

	g, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.GeneratedReport{}, core.NotFoundf("report %s", reportID)
	}
	if err != nil {
		return core.GeneratedReport{}, fmt.Errorf("get generated report: %w", err)
	}
	return g, nil
}

// ListReports implements ports.ReportRecordStore
func (r *SQLiteRepository) ListReports(ctx context.Context, accountID string) ([]core.GeneratedReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM generated_reports
		WHERE account_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("query generated reports: %w", err)
	}
	defer rows.Close()

	var out []core.GeneratedReport
	for rows.Next() {
		g, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generated report: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generated reports: %w", err)
	}
	return out, nil
}

// SoftDeleteReport implements ports.ReportRecordStore
func (r *SQLiteRepository) SoftDeleteReport(ctx context.Context, accountID, reportID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE generated_reports SET deleted_at = ?
		WHERE id = ? AND account_id = ? AND deleted_at IS NULL`,
		formatTime(at), reportID, accountID)
	if err != nil {
		return fmt.Errorf("soft delete generated report: %w", err)
	}
	return requireAffected(res, "report %s", reportID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (core.GeneratedReport, error) {
	var (
		g            core.GeneratedReport
		propertyID   sql.NullString
		propertyName sql.NullString
		reportType   string
		createdAt    string
		deletedAt    sql.NullString
	)
	if err := s.Scan(&g.ID, &g.AccountID, &propertyID, &propertyName, &g.Year, &g.FileName,
		&g.StorageKey, &g.FileSizeBytes, &reportType, &createdAt, &deletedAt); err != nil {
		return core.GeneratedReport{}, err
	}

	g.ReportType = core.ReportType(reportType)
	if propertyID.Valid {
		g.PropertyID = &propertyID.String
	}
	if propertyName.Valid {
		g.PropertyName = &propertyName.String
	}

	var err error
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.GeneratedReport{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return core.GeneratedReport{}, fmt.Errorf("parse deleted_at %q: %w", deletedAt.String, err)
		}
		g.DeletedAt = &t
	}
	return g, nil
}

func requireAffected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFoundf(format, args...)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
