// Package services orchestrates storage access and event publishing on
// behalf of the HTTP layer.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// Store is the persistence surface the service needs. The SQLite
// repository implements it; tests substitute a fake.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	AverageAmount(ctx context.Context, kind core.TransactionKind) (core.Money, error)

	ListGoals(ctx context.Context) ([]core.Goal, error)
	GetGoal(ctx context.Context, id int64) (core.Goal, error)
	CreateGoal(ctx context.Context, g core.Goal) (int64, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, id int64) error
	ApplyDeposit(ctx context.Context, id int64, amount core.Money) (core.Money, error)

	ListAssets(ctx context.Context) ([]core.Asset, error)
	CreateAsset(ctx context.Context, a core.Asset) (int64, error)
	DeleteAsset(ctx context.Context, id int64) error

	Close() error
}

// LedgerService orchestrates ledger operations across SQLite and AMQP.
type LedgerService struct {
	store            Store
	eventsClient     *events.Client
	prices           core.PriceSource
	plannedDeduction core.Money
	now              func() time.Time
}

func NewLedgerService(store Store, eventsClient *events.Client, prices core.PriceSource, plannedDeduction core.Money) *LedgerService {
	return &LedgerService{
		store:            store,
		eventsClient:     eventsClient,
		prices:           prices,
		plannedDeduction: plannedDeduction,
		now:              time.Now,
	}
}

// ListTransactions returns all transactions, or only those of the given
// month when year and month are both set.
func (s *LedgerService) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	if year != 0 && month != 0 {
		return s.store.ListTransactionsByMonth(ctx, year, month)
	}
	return s.store.ListTransactions(ctx)
}

// CreateTransaction normalizes, validates and saves a transaction, then
// publishes a change event. The stored row is returned so the caller
// sees the assigned id and creation timestamp.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	stored, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reload transaction: %w", err)
	}

	s.publishChange(ctx, events.EntityTransaction, events.ActionCreated, id)
	return stored, nil
}

// UpdateTransaction replaces every field of a transaction and returns
// the stored row, which keeps the original creation timestamp.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	stored, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reload transaction: %w", err)
	}

	s.publishChange(ctx, events.EntityTransaction, events.ActionUpdated, t.ID)
	return stored, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishChange(ctx, events.EntityTransaction, events.ActionDeleted, id)
	return nil
}

// ListGoals returns goals filtered and sorted in memory. The zero values
// of filter and sort give the default presentation (all goals, store
// order, which is progress descending).
func (s *LedgerService) ListGoals(ctx context.Context, filter core.GoalFilter, by core.GoalSort) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals = core.FilterGoals(goals, filter)
	if by != "" {
		goals = core.SortGoals(goals, by)
	}
	return goals, nil
}

func (s *LedgerService) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	return s.store.GetGoal(ctx, id)
}

func (s *LedgerService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	id, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	stored, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("reload goal: %w", err)
	}

	s.publishChange(ctx, events.EntityGoal, events.ActionCreated, id)
	return stored, nil
}

// UpdateGoal replaces every field of an existing goal and returns the
// stored row, which keeps the original creation timestamp. Unlike
// Deposit, this path does not bound collected by target.
func (s *LedgerService) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	stored, err := s.store.GetGoal(ctx, g.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("reload goal: %w", err)
	}

	s.publishChange(ctx, events.EntityGoal, events.ActionUpdated, g.ID)
	return stored, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id int64) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	s.publishChange(ctx, events.EntityGoal, events.ActionDeleted, id)
	return nil
}

// Deposit adds money to a goal. The amount-only checks run before the
// goal is even looked up, so a bad amount on a missing goal reports the
// amount problem, not the missing goal. The store applies the increment
// atomically; the updated goal is returned.
func (s *LedgerService) Deposit(ctx context.Context, id int64, amount core.Money) (core.Goal, error) {
	if err := core.ValidateDepositAmount(amount); err != nil {
		return core.Goal{}, err
	}

	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}
	if err := g.ValidateDeposit(amount); err != nil {
		return core.Goal{}, err
	}

	collected, err := s.store.ApplyDeposit(ctx, id, amount)
	if err != nil {
		return core.Goal{}, err
	}
	g.Collected = collected

	s.publishChange(ctx, events.EntityGoal, events.ActionDeposit, id)
	return g, nil
}

// GoalStats summarizes all goals for the overview header.
func (s *LedgerService) GoalStats(ctx context.Context) (core.GoalStats, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return core.GoalStats{}, fmt.Errorf("list goals: %w", err)
	}
	return core.ComputeGoalStats(goals), nil
}

func (s *LedgerService) ListAssets(ctx context.Context) ([]core.Asset, error) {
	return s.store.ListAssets(ctx)
}

func (s *LedgerService) CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}

	id, err := s.store.CreateAsset(ctx, a)
	if err != nil {
		return core.Asset{}, fmt.Errorf("save asset: %w", err)
	}
	a.ID = id

	s.publishChange(ctx, events.EntityAsset, events.ActionCreated, id)
	return a, nil
}

func (s *LedgerService) DeleteAsset(ctx context.Context, id int64) error {
	if err := s.store.DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}

	s.publishChange(ctx, events.EntityAsset, events.ActionDeleted, id)
	return nil
}

// MonthlySummary computes the summary KPI for the given month, defaulting
// to the current month when year or month is zero.
func (s *LedgerService) MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	year, month = s.defaultPeriod(year, month)
	txs, err := s.store.ListTransactionsByMonth(ctx, year, month)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("list month transactions: %w", err)
	}
	return core.Summarize(txs, s.plannedDeduction), nil
}

// BudgetKPI computes the budget breakdown for the current month.
func (s *LedgerService) BudgetKPI(ctx context.Context) (core.BudgetKPI, error) {
	year, month := s.defaultPeriod(0, 0)
	txs, err := s.store.ListTransactionsByMonth(ctx, year, month)
	if err != nil {
		return core.BudgetKPI{}, fmt.Errorf("list month transactions: %w", err)
	}
	return core.ComputeBudgetKPI(txs), nil
}

// Projection derives a constant 12-month balance projection from the
// historical average income and expense. The two averages are
// independent queries and run concurrently.
func (s *LedgerService) Projection(ctx context.Context) ([]core.MonthBalance, error) {
	var avgIncome, avgExpense core.Money

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		avgIncome, err = s.store.AverageAmount(ctx, core.Income)
		return err
	})
	g.Go(func() error {
		var err error
		avgExpense, err = s.store.AverageAmount(ctx, core.Expense)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("average amounts: %w", err)
	}

	return core.ProjectAnnualBalance(avgIncome, avgExpense), nil
}

// ConsolidatedPortfolio groups assets by class with the grand total and
// overall return figures.
func (s *LedgerService) ConsolidatedPortfolio(ctx context.Context) (core.PortfolioConsolidation, core.PortfolioReturn, error) {
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return core.PortfolioConsolidation{}, core.PortfolioReturn{}, fmt.Errorf("list assets: %w", err)
	}
	return core.ConsolidatePortfolio(assets), core.ComputeReturn(assets, s.prices), nil
}

// Positions returns the per-asset detail rows with current prices.
func (s *LedgerService) Positions(ctx context.Context) ([]core.AssetPosition, error) {
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return core.Positions(assets, s.prices), nil
}

func (s *LedgerService) defaultPeriod(year, month int) (int, int) {
	if year == 0 || month == 0 {
		now := s.now()
		return now.Year(), int(now.Month())
	}
	return year, month
}

func (s *LedgerService) publishChange(ctx context.Context, entity, action string, id int64) {
	if s.eventsClient == nil {
		return
	}
	if err := s.eventsClient.PublishChange(ctx, entity, action, id); err != nil {
		// The write already succeeded locally; a lost event must not
		// fail the request.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.eventsClient != nil {
		if err := s.eventsClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
