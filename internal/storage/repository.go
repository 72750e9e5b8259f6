// Package storage persists the ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, kind, amount_cents, description, date, category, status, recurrence, installment_current, installment_total, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t         core.Transaction
		dateStr   string
		instCur   sql.NullInt64
		instTotal sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Kind, &t.Amount.Cents, &t.Description, &dateStr,
		&t.Category, &t.Status, &t.Recurrence, &instCur, &instTotal, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	t.Date = date
	if instCur.Valid {
		t.InstallmentCurrent = int(instCur.Int64)
	}
	if instTotal.Valid {
		t.InstallmentTotal = int(instTotal.Int64)
	}
	return t, nil
}

// ListTransactions returns every transaction, newest date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, created_at DESC`
	return r.queryTransactions(ctx, query)
}

// ListTransactionsByMonth returns the transactions dated within one
// calendar month, newest first.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE date LIKE ? || '%' ORDER BY date DESC, created_at DESC`
	return r.queryTransactions(ctx, query, prefix)
}

// GetTransaction returns a single transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// CreateTransaction inserts a transaction and returns its new id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var instCur, instTotal any
	if t.Recurrence == core.RecurrenceInstallment {
		instCur, instTotal = t.InstallmentCurrent, t.InstallmentTotal
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (kind, amount_cents, description, date, category, status, recurrence, installment_current, installment_total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Kind, t.Amount.Cents, t.Description, t.Date.String(), t.Category,
		t.Status, t.Recurrence, instCur, instTotal, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return id, nil
}

// UpdateTransaction replaces every field of the transaction with the
// given id.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	var instCur, instTotal any
	if t.Recurrence == core.RecurrenceInstallment {
		instCur, instTotal = t.InstallmentCurrent, t.InstallmentTotal
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET kind = ?, amount_cents = ?, description = ?, date = ?, category = ?, status = ?, recurrence = ?, installment_current = ?, installment_total = ? WHERE id = ?`,
		t.Kind, t.Amount.Cents, t.Description, t.Date.String(), t.Category,
		t.Status, t.Recurrence, instCur, instTotal, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "transaction", t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "transaction", id)
}

// AverageAmount returns the historical average amount for one
// transaction kind across all transactions ever recorded. An empty
// history averages to zero.
func (r *SQLiteRepository) AverageAmount(ctx context.Context, kind core.TransactionKind) (core.Money, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT IFNULL(AVG(amount_cents), 0) FROM transactions WHERE kind = ?`, kind).Scan(&avg)
	if err != nil {
		return core.Money{}, fmt.Errorf("average %s amount: %w", kind, err)
	}
	return core.Money{Cents: int64(math.Round(avg))}, nil
}

const goalColumns = `id, title, target_cents, collected_cents, deadline_months, created_at`

func scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var g core.Goal
	err := row.Scan(&g.ID, &g.Title, &g.Target.Cents, &g.Collected.Cents, &g.DeadlineMonths, &g.CreatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// ListGoals returns all goals sorted by progress descending, the default
// presentation order.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals
		ORDER BY CASE WHEN target_cents > 0 THEN CAST(collected_cents AS REAL) / target_cents ELSE 0 END DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (title, target_cents, collected_cents, deadline_months, created_at) VALUES (?, ?, ?, ?, ?)`,
		g.Title, g.Target.Cents, g.Collected.Cents, g.DeadlineMonths, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("goal insert id: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved",
		"id", id,
		"title", g.Title,
		"target_cents", g.Target.Cents)
	return id, nil
}

// UpdateGoal replaces every field of the goal, collected included. The
// deposit invariants apply only to ApplyDeposit; this path is a plain
// field replacement.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, target_cents = ?, collected_cents = ?, deadline_months = ? WHERE id = ?`,
		g.Title, g.Target.Cents, g.Collected.Cents, g.DeadlineMonths, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res, "goal", g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res, "goal", id)
}

// ApplyDeposit increments a goal's collected amount in a single guarded
// UPDATE so concurrent deposits cannot lose each other's writes. The
// guard re-checks the bound inside the statement; when it trips, the
// fresh goal state is returned to the caller for a precise rejection.
func (r *SQLiteRepository) ApplyDeposit(ctx context.Context, id int64, amount core.Money) (core.Money, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET collected_cents = collected_cents + ? WHERE id = ? AND collected_cents + ? <= target_cents`,
		amount.Cents, id, amount.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("apply deposit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Money{}, fmt.Errorf("deposit rows affected: %w", err)
	}
	if affected == 0 {
		// Either the goal is gone or the bound would be exceeded;
		// re-read to tell the two apart.
		g, err := r.GetGoal(ctx, id)
		if err != nil {
			return core.Money{}, err
		}
		if verr := g.ValidateDeposit(amount); verr != nil {
			return core.Money{}, verr
		}
		return core.Money{}, fmt.Errorf("%w: remaining is %.2f", core.ErrDepositExceedsRemaining, g.Progress().Remaining.Units())
	}

	g, err := r.GetGoal(ctx, id)
	if err != nil {
		return core.Money{}, err
	}

	slog.InfoContext(ctx, "Deposit applied",
		"goal_id", id,
		"amount_cents", amount.Cents,
		"collected_cents", g.Collected.Cents)
	return g.Collected, nil
}

const assetColumns = `id, product, class, quantity, avg_cost, institution, maturity, acquired_at`

func scanAsset(row interface{ Scan(...any) error }) (core.Asset, error) {
	var (
		a           core.Asset
		qtyStr      string
		costStr     string
		institution sql.NullString
		maturity    sql.NullString
	)
	err := row.Scan(&a.ID, &a.Product, &a.Class, &qtyStr, &costStr, &institution, &maturity, &a.AcquiredAt)
	if err != nil {
		return core.Asset{}, err
	}
	if a.Quantity, err = decimal.NewFromString(qtyStr); err != nil {
		return core.Asset{}, fmt.Errorf("parse stored quantity %q: %w", qtyStr, err)
	}
	if a.AvgCost, err = decimal.NewFromString(costStr); err != nil {
		return core.Asset{}, fmt.Errorf("parse stored avg cost %q: %w", costStr, err)
	}
	if institution.Valid {
		a.Institution = institution.String
	}
	if maturity.Valid && maturity.String != "" {
		d, err := core.ParseDate(maturity.String)
		if err != nil {
			return core.Asset{}, fmt.Errorf("parse stored maturity %q: %w", maturity.String, err)
		}
		a.Maturity = d
	}
	return a, nil
}

// ListAssets returns all assets ordered by class then product.
func (r *SQLiteRepository) ListAssets(ctx context.Context) ([]core.Asset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY class, product`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var out []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateAsset(ctx context.Context, a core.Asset) (int64, error) {
	var institution, maturity any
	if a.Institution != "" {
		institution = a.Institution
	}
	if !a.Maturity.IsZero() {
		maturity = a.Maturity.String()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO assets (product, class, quantity, avg_cost, institution, maturity, acquired_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Product, a.Class, a.Quantity.String(), a.AvgCost.String(), institution, maturity, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("asset insert id: %w", err)
	}

	slog.InfoContext(ctx, "Asset saved",
		"id", id,
		"product", a.Product,
		"class", a.Class)
	return id, nil
}

func (r *SQLiteRepository) DeleteAsset(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return requireRow(res, "asset", id)
}

// SeedExamples inserts illustrative goals and assets on a fresh database.
// Tables that already hold rows are left alone.
func (r *SQLiteRepository) SeedExamples(ctx context.Context) error {
	var goalCount int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals`).Scan(&goalCount); err != nil {
		return fmt.Errorf("count goals: %w", err)
	}
	if goalCount == 0 {
		seeds := []core.Goal{
			{Title: "Home renovation", Target: core.Money{Cents: 5000000}, Collected: core.Money{Cents: 1500000}, DeadlineMonths: 24},
			{Title: "Europe trip", Target: core.Money{Cents: 1000000}, Collected: core.Money{Cents: 800000}, DeadlineMonths: 12},
		}
		for _, g := range seeds {
			if _, err := r.CreateGoal(ctx, g); err != nil {
				return fmt.Errorf("seed goal %q: %w", g.Title, err)
			}
		}
	}

	var assetCount int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&assetCount); err != nil {
		return fmt.Errorf("count assets: %w", err)
	}
	if assetCount == 0 {
		seeds := []core.Asset{
			{Product: "BOVA11", Class: "Stocks", Quantity: decimal.NewFromInt(10), AvgCost: decimal.RequireFromString("115.50"), Institution: "XP Investimentos"},
			{Product: "MXRF11", Class: "REITs", Quantity: decimal.NewFromInt(50), AvgCost: decimal.RequireFromString("10.20"), Institution: "Clear"},
			{Product: "CDB DI", Class: "Fixed Income", Quantity: decimal.NewFromInt(1), AvgCost: decimal.RequireFromString("1000.00"), Institution: "Banco Inter", Maturity: core.NewDate(2028, 12, 31)},
		}
		for _, a := range seeds {
			if _, err := r.CreateAsset(ctx, a); err != nil {
				return fmt.Errorf("seed asset %q: %w", a.Product, err)
			}
		}
	}

	slog.InfoContext(ctx, "Example data checked",
		"existing_goals", goalCount,
		"existing_assets", assetCount)
	return nil
}

// requireRow maps a zero-row mutation to ErrNotFound.
func requireRow(res sql.Result, entity string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, core.ErrNotFound)
	}
	return nil
}
