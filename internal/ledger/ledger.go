// Package ledger exposes the collaborator-facing API of the transaction
// store. UI-style callers get the historical contract: operations report
// plain booleans, empty lists, or zero totals, and the underlying cause is
// only visible through the log. Callers that need real errors use
// storage.SQLiteStore directly.
package ledger

import (
	"context"

	"tally/internal/core"
	applog "tally/internal/log"
)

// Store is the port the facade drives. *storage.SQLiteStore satisfies it.
type Store interface {
	Insert(ctx context.Context, amount float64, kind core.Kind, remarks string, date core.Date) (int64, error)
	Update(ctx context.Context, id int64, changes core.Changes) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Query(ctx context.Context, filter core.Filter) ([]core.Transaction, error)
	Balance(ctx context.Context) (float64, error)
	IncomeTotal(ctx context.Context) (float64, error)
	ExpenseTotal(ctx context.Context) (float64, error)
	MonthlySummary(ctx context.Context, year, month int) (core.MonthSummary, error)
}

// Changes is the string-typed partial update accepted at this boundary.
// Nil fields are left untouched.
type Changes struct {
	Amount  *float64
	Kind    *string
	Remarks *string
	Date    *string
}

// Ledger wraps a Store and coerces every failure into the caller-friendly
// false/empty/zero shape.
type Ledger struct {
	store Store
	log   *applog.Logger
}

// New builds a Ledger over the given store. A nil logger falls back to the
// default configuration.
func New(store Store, logger *applog.Logger) *Ledger {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Ledger{
		store: store,
		log:   logger.WithComponent(applog.ComponentLedger),
	}
}

// Insert records a new transaction. An empty date means today. Reports
// success only; failures are logged.
func (l *Ledger) Insert(ctx context.Context, amount float64, kind, remarks, date string) bool {
	k, err := core.ParseKind(kind)
	if err != nil {
		l.fail(ctx, applog.OpInsert, err)
		return false
	}

	var d core.Date
	if date != "" {
		d, err = core.ParseDate(date)
		if err != nil {
			l.fail(ctx, applog.OpInsert, err)
			return false
		}
	}

	if _, err := l.store.Insert(ctx, amount, k, remarks, d); err != nil {
		l.fail(ctx, applog.OpInsert, err)
		return false
	}
	return true
}

// Query lists transactions matching the optional filters, newest logical
// date first. Empty strings mean "no filter". Malformed filters and storage
// failures both come back as an empty list.
func (l *Ledger) Query(ctx context.Context, dateFrom, dateTo, kind string) []core.Transaction {
	var (
		filter core.Filter
		err    error
	)
	if dateFrom != "" {
		filter.From, err = core.ParseDate(dateFrom)
		if err != nil {
			l.fail(ctx, applog.OpQuery, err)
			return []core.Transaction{}
		}
	}
	if dateTo != "" {
		filter.To, err = core.ParseDate(dateTo)
		if err != nil {
			l.fail(ctx, applog.OpQuery, err)
			return []core.Transaction{}
		}
	}
	if kind != "" {
		filter.Kind, err = core.ParseKind(kind)
		if err != nil {
			l.fail(ctx, applog.OpQuery, err)
			return []core.Transaction{}
		}
	}

	txs, err := l.store.Query(ctx, filter)
	if err != nil {
		l.fail(ctx, applog.OpQuery, err)
		return []core.Transaction{}
	}
	return txs
}

// Balance returns income minus expense over the whole ledger, 0 on failure.
func (l *Ledger) Balance(ctx context.Context) float64 {
	total, err := l.store.Balance(ctx)
	if err != nil {
		l.fail(ctx, applog.OpBalance, err)
		return 0
	}
	return total
}

// IncomeTotal returns the total of all income, 0 on failure.
func (l *Ledger) IncomeTotal(ctx context.Context) float64 {
	total, err := l.store.IncomeTotal(ctx)
	if err != nil {
		l.fail(ctx, applog.OpBalance, err)
		return 0
	}
	return total
}

// ExpenseTotal returns the total of all expenses, 0 on failure.
func (l *Ledger) ExpenseTotal(ctx context.Context) float64 {
	total, err := l.store.ExpenseTotal(ctx)
	if err != nil {
		l.fail(ctx, applog.OpBalance, err)
		return 0
	}
	return total
}

// MonthlySummary aggregates one calendar month; zero year/month mean the
// current one. On failure the summary comes back zero-filled for the
// resolved month.
func (l *Ledger) MonthlySummary(ctx context.Context, year, month int) core.MonthSummary {
	summary, err := l.store.MonthlySummary(ctx, year, month)
	if err != nil {
		l.fail(ctx, applog.OpSummary, err)
		year, month = core.ResolveMonth(year, month)
		return core.MonthSummary{Year: year, Month: month}
	}
	return summary
}

// Update applies a partial change set. True means a row actually changed;
// false covers unknown ids, empty change sets, bad input, and storage
// failures alike.
func (l *Ledger) Update(ctx context.Context, id int64, changes Changes) bool {
	cc, err := changes.toCore()
	if err != nil {
		l.fail(ctx, applog.OpUpdate, err)
		return false
	}

	updated, err := l.store.Update(ctx, id, cc)
	if err != nil {
		l.fail(ctx, applog.OpUpdate, err)
		return false
	}
	return updated
}

// Delete removes a transaction permanently. False means nothing was removed.
func (l *Ledger) Delete(ctx context.Context, id int64) bool {
	deleted, err := l.store.Delete(ctx, id)
	if err != nil {
		l.fail(ctx, applog.OpDelete, err)
		return false
	}
	return deleted
}

func (l *Ledger) fail(ctx context.Context, op string, err error) {
	l.log.ErrorContext(ctx, "Ledger operation failed",
		applog.FieldOperation, op,
		applog.FieldError, err.Error())
}

func (c Changes) toCore() (core.Changes, error) {
	var cc core.Changes
	cc.Amount = c.Amount
	cc.Remarks = c.Remarks
	if c.Kind != nil {
		k, err := core.ParseKind(*c.Kind)
		if err != nil {
			return core.Changes{}, err
		}
		cc.Kind = &k
	}
	if c.Date != nil {
		d, err := core.ParseDate(*c.Date)
		if err != nil {
			return core.Changes{}, err
		}
		cc.Date = &d
	}
	return cc, nil
}
