package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func mustInsert(t *testing.T, s *SQLiteStore, amount float64, kind core.Kind, remarks, date string) int64 {
	t.Helper()
	var d core.Date
	if date != "" {
		var err error
		d, err = core.ParseDate(date)
		if err != nil {
			t.Fatalf("parse date %q: %v", date, err)
		}
	}
	id, err := s.Insert(context.Background(), amount, kind, remarks, d)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return id
}

func TestInsertQueryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC()
	id := mustInsert(t, store, 1250.75, core.KindIncome, "Consulting invoice", "2024-03-10")
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	txs, err := store.Query(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}

	tx := txs[0]
	if tx.ID != id {
		t.Errorf("id = %d, want %d", tx.ID, id)
	}
	if tx.Amount != 1250.75 {
		t.Errorf("amount = %v, want 1250.75", tx.Amount)
	}
	if tx.Kind != core.KindIncome {
		t.Errorf("kind = %q, want income", tx.Kind)
	}
	if tx.Remarks != "Consulting invoice" {
		t.Errorf("remarks = %q", tx.Remarks)
	}
	if tx.Date.String() != "2024-03-10" {
		t.Errorf("date = %q, want 2024-03-10", tx.Date.String())
	}
	if tx.CreatedAt.Before(before.Truncate(time.Second)) {
		t.Errorf("created_at %v is before the insert call at %v", tx.CreatedAt, before)
	}
}

func TestInsertRejectsInvalidKind(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert(context.Background(), 10, core.Kind("transfer"), "", core.Date{})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	txs, err := store.Query(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("rejected insert left %d rows behind", len(txs))
	}
}

func TestInsertDefaultsDateToToday(t *testing.T) {
	store := newTestStore(t)

	id := mustInsert(t, store, 5, core.KindExpense, "coffee", "")
	tx, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got, want := tx.Date.String(), core.Today().String(); got != want {
		t.Fatalf("date = %q, want today %q", got, want)
	}
}

func TestBalanceEqualsIncomeMinusExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, store, 1000, core.KindIncome, "salary", "2024-01-02")
	mustInsert(t, store, 250.50, core.KindExpense, "groceries", "2024-01-03")
	mustInsert(t, store, 99.99, core.KindExpense, "utilities", "2024-01-04")
	// Negative amounts are stored as given, sign unchecked.
	mustInsert(t, store, -40, core.KindIncome, "correction", "2024-01-05")

	income, err := store.IncomeTotal(ctx)
	if err != nil {
		t.Fatalf("income total: %v", err)
	}
	expense, err := store.ExpenseTotal(ctx)
	if err != nil {
		t.Fatalf("expense total: %v", err)
	}
	balance, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}

	if income != 960 {
		t.Errorf("income = %v, want 960", income)
	}
	if expense != 350.49 {
		t.Errorf("expense = %v, want 350.49", expense)
	}
	if balance != income-expense {
		t.Errorf("balance = %v, want income-expense = %v", balance, income-expense)
	}
}

func TestTotalsOnEmptyLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for name, fn := range map[string]func(context.Context) (float64, error){
		"balance": store.Balance,
		"income":  store.IncomeTotal,
		"expense": store.ExpenseTotal,
	} {
		got, err := fn(ctx)
		if err != nil {
			t.Fatalf("%s on empty ledger: %v", name, err)
		}
		if got != 0 {
			t.Errorf("%s on empty ledger = %v, want 0", name, got)
		}
	}
}

func TestDeleteIsPermanentAndIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deleted, err := store.Delete(ctx, 42)
	if err != nil {
		t.Fatalf("delete unknown id: %v", err)
	}
	if deleted {
		t.Fatal("deleting an unknown id reported an effect")
	}

	id := mustInsert(t, store, 10, core.KindExpense, "snack", "2024-02-01")

	deleted, err = store.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("deleting an existing id reported no effect")
	}

	txs, err := store.Query(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("deleted record still visible, %d rows", len(txs))
	}

	deleted, err = store.Delete(ctx, id)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("second delete of the same id reported an effect")
	}
}

func TestUpdatePartialFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := mustInsert(t, store, 80, core.KindExpense, "phone bill", "2024-04-01")
	orig, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	amount := 85.5
	updated, err := store.Update(ctx, id, core.Changes{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated {
		t.Fatal("update reported no effect")
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Amount != 85.5 {
		t.Errorf("amount = %v, want 85.5", got.Amount)
	}
	if got.Kind != orig.Kind || got.Remarks != orig.Remarks || got.Date != orig.Date {
		t.Errorf("untouched fields changed: %+v vs %+v", got, orig)
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("created_at mutated by update: %v -> %v", orig.CreatedAt, got.CreatedAt)
	}
}

func TestUpdateNoFieldsIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := mustInsert(t, store, 80, core.KindExpense, "phone bill", "2024-04-01")

	updated, err := store.Update(ctx, id, core.Changes{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if updated {
		t.Fatal("empty update reported an effect")
	}
}

func TestUpdateInvalidKindLeavesRecordUnchanged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := mustInsert(t, store, 80, core.KindExpense, "phone bill", "2024-04-01")
	orig, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	amount := 999.0
	bad := core.Kind("transfer")
	updated, err := store.Update(ctx, id, core.Changes{Amount: &amount, Kind: &bad})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if updated {
		t.Fatal("invalid update reported an effect")
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after failed update: %v", err)
	}
	if *got != *orig {
		t.Errorf("record changed by rejected update: %+v vs %+v", got, orig)
	}
}

func TestUpdateUnknownIDReportsNoEffect(t *testing.T) {
	store := newTestStore(t)

	amount := 1.0
	updated, err := store.Update(context.Background(), 9999, core.Changes{Amount: &amount})
	if err != nil {
		t.Fatalf("update unknown id: %v", err)
	}
	if updated {
		t.Fatal("update of unknown id reported an effect")
	}
}

func TestQueryOrderingSameDateByCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := mustInsert(t, store, 10, core.KindExpense, "first", "2024-01-01")
	// created_at tie-breaks same-date rows; keep the two timestamps apart.
	time.Sleep(5 * time.Millisecond)
	second := mustInsert(t, store, 20, core.KindExpense, "second", "2024-01-01")

	txs, err := store.Query(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].ID != second || txs[1].ID != first {
		t.Fatalf("order = [%d %d], want [%d %d]", txs[0].ID, txs[1].ID, second, first)
	}
}

func TestQueryFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, store, 1000, core.KindIncome, "Salary", "2024-01-15")
	mustInsert(t, store, 50, core.KindExpense, "Lunch", "2024-01-16")
	mustInsert(t, store, 30, core.KindExpense, "Taxi", "2024-02-02")

	from, _ := core.ParseDate("2024-01-01")
	to, _ := core.ParseDate("2024-01-31")

	txs, err := store.Query(ctx, core.Filter{From: from, To: to, Kind: core.KindExpense})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 1 || txs[0].Remarks != "Lunch" {
		t.Fatalf("expected only the lunch expense, got %+v", txs)
	}

	txs, err = store.Query(ctx, core.Filter{Kind: core.KindIncome})
	if err != nil {
		t.Fatalf("query by kind: %v", err)
	}
	if len(txs) != 1 || txs[0].Remarks != "Salary" {
		t.Fatalf("expected only the salary income, got %+v", txs)
	}

	none, _ := core.ParseDate("2030-01-01")
	txs, err = store.Query(ctx, core.Filter{From: none})
	if err != nil {
		t.Fatalf("query with no matches: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(txs))
	}
}

func TestQueryRejectsInvalidKind(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Query(context.Background(), core.Filter{Kind: "savings"})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestMonthlySummaryHalfOpenInterval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, store, 100, core.KindIncome, "in range", "2024-12-01")
	mustInsert(t, store, 40, core.KindExpense, "also in range", "2024-12-31")
	mustInsert(t, store, 999, core.KindIncome, "next month", "2025-01-01")
	mustInsert(t, store, 999, core.KindExpense, "previous month", "2024-11-30")

	summary, err := store.MonthlySummary(ctx, 2024, 12)
	if err != nil {
		t.Fatalf("monthly summary: %v", err)
	}
	if summary.Year != 2024 || summary.Month != 12 {
		t.Errorf("summary covers %d-%d, want 2024-12", summary.Year, summary.Month)
	}
	if summary.Income != 100 {
		t.Errorf("income = %v, want 100", summary.Income)
	}
	if summary.Expense != 40 {
		t.Errorf("expense = %v, want 40", summary.Expense)
	}
	if summary.Balance != 60 {
		t.Errorf("balance = %v, want 60", summary.Balance)
	}
}

func TestMonthlySummaryEmptyMonthIsZeroFilled(t *testing.T) {
	store := newTestStore(t)

	summary, err := store.MonthlySummary(context.Background(), 2019, 6)
	if err != nil {
		t.Fatalf("monthly summary: %v", err)
	}
	want := core.MonthSummary{Year: 2019, Month: 6}
	if summary != want {
		t.Fatalf("summary = %+v, want zero-filled %+v", summary, want)
	}
}

func TestScenarioSalaryAndLunch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, store, 1000, core.KindIncome, "Salary", "2024-01-15")
	mustInsert(t, store, 50, core.KindExpense, "Lunch", "2024-01-16")

	balance, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 950 {
		t.Fatalf("balance = %v, want 950", balance)
	}

	from, _ := core.ParseDate("2024-01-16")
	txs, err := store.Query(ctx, core.Filter{From: from})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 1 || txs[0].Remarks != "Lunch" {
		t.Fatalf("expected exactly the lunch record, got %+v", txs)
	}
}

func TestConcurrentInsertsAssignUniqueIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const (
		workers = 8
		perWork = 5
	)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWork; i++ {
				if _, err := store.Insert(ctx, 1, core.KindExpense, "burst", core.Date{}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent inserts: %v", err)
	}

	txs, err := store.Query(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != workers*perWork {
		t.Fatalf("expected %d transactions, got %d", workers*perWork, len(txs))
	}

	seen := make(map[int64]bool, len(txs))
	for _, tx := range txs {
		if seen[tx.ID] {
			t.Fatalf("id %d assigned twice", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := mustInsert(t, store, 1, core.KindIncome, "a", "2024-01-01")
	if _, err := store.Delete(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second := mustInsert(t, store, 2, core.KindIncome, "b", "2024-01-02")
	if second <= first {
		t.Fatalf("id %d reused or regressed after deleting %d", second, first)
	}
}
