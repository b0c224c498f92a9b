package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed width so that ORDER BY created_at on the TEXT
// column equals chronological order.
const createdAtLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore is the durable ledger. It owns the database handle for its
// whole lifetime: open at startup, Close at shutdown. Connections are checked
// out per statement by database/sql, never held across operations, and
// concurrent callers are serialized by sqlite itself.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the ledger database at dbPath and makes
// sure the schema exists.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// sqlite allows one writer at a time; funnel every connection through a
	// single slot so concurrent callers queue instead of seeing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert persists a new transaction and returns its assigned id. A zero date
// defaults to today on the caller's clock. CreatedAt is assigned here and is
// immutable from then on.
func (s *SQLiteStore) Insert(ctx context.Context, amount float64, kind core.Kind, remarks string, date core.Date) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, err
	}
	if date.IsZero() {
		date = core.Today()
	}
	createdAt := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (amount, kind, remarks, date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		amount, string(kind), remarks, date.String(), createdAt.Format(createdAtLayout))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", string(kind),
		"amount", amount,
		"date", date.String())

	return id, nil
}

// Update applies a partial change set to one transaction in a single
// statement, so an invalid field can never leave the record half mutated.
// It reports whether a row actually changed: false with a nil error means
// either the change set was empty or the id does not exist.
func (s *SQLiteStore) Update(ctx context.Context, id int64, changes core.Changes) (bool, error) {
	if changes.IsEmpty() {
		slog.DebugContext(ctx, "Update with no fields", "id", id)
		return false, nil
	}
	if err := changes.Validate(); err != nil {
		return false, err
	}

	var (
		sets []string
		args []any
	)
	if changes.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *changes.Amount)
	}
	if changes.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*changes.Kind))
	}
	if changes.Remarks != nil {
		sets = append(sets, "remarks = ?")
		args = append(args, *changes.Remarks)
	}
	if changes.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, changes.Date.String())
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Update matched no transaction", "id", id)
		return false, nil
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return true, nil
}

// Delete removes a transaction permanently. Deleting an unknown id reports
// false with a nil error, so the operation is idempotent.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Delete matched no transaction", "id", id)
		return false, nil
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return true, nil
}

// Query returns transactions matching the filter, most recent logical date
// first and, within a date, most recently created first. No matches is an
// empty slice, not an error.
func (s *SQLiteStore) Query(ctx context.Context, filter core.Filter) ([]core.Transaction, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT id, amount, kind, remarks, date, created_at FROM transactions`

	var (
		conds []string
		args  []any
	)
	if !filter.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// Get retrieves a single transaction by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, amount, kind, remarks, date, created_at FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return &tx, nil
}

// Balance returns total income minus total expense over the whole ledger.
func (s *SQLiteStore) Balance(ctx context.Context) (float64, error) {
	income, err := s.sumByKind(ctx, core.KindIncome)
	if err != nil {
		return 0, err
	}
	expense, err := s.sumByKind(ctx, core.KindExpense)
	if err != nil {
		return 0, err
	}
	return income - expense, nil
}

// IncomeTotal returns the sum of all income amounts; an empty ledger is 0.
func (s *SQLiteStore) IncomeTotal(ctx context.Context) (float64, error) {
	return s.sumByKind(ctx, core.KindIncome)
}

// ExpenseTotal returns the sum of all expense amounts; an empty ledger is 0.
func (s *SQLiteStore) ExpenseTotal(ctx context.Context) (float64, error) {
	return s.sumByKind(ctx, core.KindExpense)
}

func (s *SQLiteStore) sumByKind(ctx context.Context, kind core.Kind) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = ?`,
		string(kind)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s amounts: %w", kind, err)
	}
	return total, nil
}

// MonthlySummary aggregates the half-open interval covering one calendar
// month. Zero year or month default to the current ones. A month with no
// records yields a zero-filled summary.
func (s *SQLiteStore) MonthlySummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	year, month = core.ResolveMonth(year, month)
	from, to := core.MonthRange(year, month)

	summary := core.MonthSummary{Year: year, Month: month}

	income, err := s.sumByKindInRange(ctx, core.KindIncome, from, to)
	if err != nil {
		return summary, err
	}
	expense, err := s.sumByKindInRange(ctx, core.KindExpense, from, to)
	if err != nil {
		return summary, err
	}

	summary.Income = income
	summary.Expense = expense
	summary.Balance = income - expense
	return summary, nil
}

func (s *SQLiteStore) sumByKindInRange(ctx context.Context, kind core.Kind, from, to string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE kind = ? AND date >= ? AND date < ?`,
		string(kind), from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s amounts in [%s, %s): %w", kind, from, to, err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		kind      string
		date      string
		createdAt string
	)
	if err := row.Scan(&tx.ID, &tx.Amount, &kind, &tx.Remarks, &date, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Kind = core.Kind(kind)

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	tx.Date = d

	at, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored created_at %q: %w", createdAt, err)
	}
	tx.CreatedAt = at

	return tx, nil
}
