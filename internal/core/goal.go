package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Deposit validation outcomes. ErrDepositExceedsRemaining is always
// wrapped with the exact remaining amount so callers can surface it
// without a second round trip.
var (
	ErrDepositInvalid          = errors.New("deposit amount must be a positive number")
	ErrDepositBelowMinimum     = errors.New("deposit below minimum")
	ErrDepositExceedsRemaining = errors.New("deposit exceeds remaining amount")
)

// MinDepositCents is the smallest accepted deposit: one currency unit.
const MinDepositCents int64 = 100

// GoalProgress is the derived view of a single goal. It is computed, never
// stored: completion always follows from collected vs target.
type GoalProgress struct {
	Ratio      float64
	Percent    int
	IsComplete bool
	Remaining  Money
}

// Progress derives ratio, bounded percent, completion and remaining amount.
// A zero target is a degenerate but valid state (a goal being set up):
// the ratio is defined as 0 rather than failing on division.
func (g Goal) Progress() GoalProgress {
	var ratio float64
	if g.Target.Cents > 0 {
		ratio = float64(g.Collected.Cents) / float64(g.Target.Cents)
	}
	percent := int(math.Round(ratio * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	remaining := g.Target.Cents - g.Collected.Cents
	if remaining < 0 {
		remaining = 0
	}
	return GoalProgress{
		Ratio:      ratio,
		Percent:    percent,
		IsComplete: ratio >= 1,
		Remaining:  Money{Cents: remaining},
	}
}

// ValidateDepositAmount checks the preconditions that depend only on the
// amount, in order: invalid amount, then below minimum. They rank ahead
// of goal existence, so callers run them before touching the store.
func ValidateDepositAmount(amount Money) error {
	if amount.Cents <= 0 {
		return ErrDepositInvalid
	}
	if amount.Cents < MinDepositCents {
		return fmt.Errorf("%w: minimum is %.2f", ErrDepositBelowMinimum, Money{Cents: MinDepositCents}.Units())
	}
	return nil
}

// ValidateDeposit checks a deposit against the goal's current state:
// the amount-only preconditions first, then the remaining bound.
// Existence of the goal is the store's concern.
func (g Goal) ValidateDeposit(amount Money) error {
	if err := ValidateDepositAmount(amount); err != nil {
		return err
	}
	if remaining := g.Progress().Remaining; amount.Cents > remaining.Cents {
		return fmt.Errorf("%w: remaining is %.2f", ErrDepositExceedsRemaining, remaining.Units())
	}
	return nil
}

// GoalFilter selects goals by completion state.
type GoalFilter string

const (
	FilterAll       GoalFilter = "all"
	FilterActive    GoalFilter = "active"
	FilterCompleted GoalFilter = "completed"
)

// GoalSort orders a goal list.
type GoalSort string

const (
	SortRecent   GoalSort = "recent"
	SortOldest   GoalSort = "oldest"
	SortTitle    GoalSort = "title"
	SortProgress GoalSort = "progress"
)

// FilterGoals returns the goals matching the filter. The input is never
// mutated; an unknown filter behaves as FilterAll.
func FilterGoals(goals []Goal, filter GoalFilter) []Goal {
	out := make([]Goal, 0, len(goals))
	for _, g := range goals {
		switch filter {
		case FilterActive:
			if !g.Progress().IsComplete {
				out = append(out, g)
			}
		case FilterCompleted:
			if g.Progress().IsComplete {
				out = append(out, g)
			}
		default:
			out = append(out, g)
		}
	}
	return out
}

// SortGoals returns a sorted copy. Sorting is stable so equal keys keep
// their arrival order.
func SortGoals(goals []Goal, by GoalSort) []Goal {
	out := make([]Goal, len(goals))
	copy(out, goals)
	switch by {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case SortProgress:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Progress().Ratio > out[j].Progress().Ratio })
	default: // SortRecent
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

// GoalStats summarizes a goal list for the page header.
type GoalStats struct {
	Total          int
	Active         int
	Completed      int
	TotalCollected Money
}

// ComputeGoalStats counts active and completed goals and sums collected
// amounts across all of them.
func ComputeGoalStats(goals []Goal) GoalStats {
	var s GoalStats
	s.Total = len(goals)
	for _, g := range goals {
		if g.Progress().IsComplete {
			s.Completed++
		} else {
			s.Active++
		}
		s.TotalCollected = s.TotalCollected.Add(g.Collected)
	}
	return s
}
