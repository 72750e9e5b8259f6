package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceSource resolves a product to its current unit price. The market
// data behind it is out of scope here; implementations may be static
// tables or real feeds. Lookups for unknown products must return a
// usable fallback, never fail.
type PriceSource interface {
	CurrentPrice(product string) decimal.Decimal
}

// StaticPriceSource is a fixed product→price table with a fallback unit
// price for unknown products. It is the illustrative default source.
type StaticPriceSource struct {
	Prices   map[string]decimal.Decimal
	Fallback decimal.Decimal
}

// NewStaticPriceSource builds a source over the given table, falling back
// to a unit price of 1.00.
func NewStaticPriceSource(prices map[string]decimal.Decimal) StaticPriceSource {
	return StaticPriceSource{Prices: prices, Fallback: decimal.NewFromInt(1)}
}

func (s StaticPriceSource) CurrentPrice(product string) decimal.Decimal {
	if p, ok := s.Prices[product]; ok {
		return p
	}
	return s.Fallback
}

// ClassAllocation is one slice of the portfolio distribution.
type ClassAllocation struct {
	Class         string
	InvestedValue decimal.Decimal
	Percent       float64
}

// PortfolioConsolidation is the class-level distribution of the portfolio
// plus its grand total, sorted by invested value descending.
type PortfolioConsolidation struct {
	TotalValue  decimal.Decimal
	Allocations []ClassAllocation
}

// PortfolioReturn is the illustrative profit view over current prices.
type PortfolioReturn struct {
	TotalCurrentValue decimal.Decimal
	TotalInvested     decimal.Decimal
	Profit            decimal.Decimal
	ReturnPercent     float64
}

// AssetPosition is one row of the detailed holdings table.
type AssetPosition struct {
	Asset         Asset
	CurrentPrice  decimal.Decimal
	CurrentValue  decimal.Decimal
	InvestedValue decimal.Decimal
	ReturnPercent float64
}

// ConsolidatePortfolio groups assets by class, sums invested value per
// class and derives each class's share of the total. An empty portfolio
// consolidates to a zero total with no allocations.
func ConsolidatePortfolio(assets []Asset) PortfolioConsolidation {
	byClass := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, a := range assets {
		if _, seen := byClass[a.Class]; !seen {
			order = append(order, a.Class)
		}
		byClass[a.Class] = byClass[a.Class].Add(a.InvestedValue())
	}

	total := decimal.Zero
	for _, v := range byClass {
		total = total.Add(v)
	}

	out := PortfolioConsolidation{TotalValue: total}
	for _, class := range order {
		invested := byClass[class]
		var percent float64
		if total.IsPositive() {
			percent, _ = invested.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		out.Allocations = append(out.Allocations, ClassAllocation{
			Class:         class,
			InvestedValue: invested,
			Percent:       percent,
		})
	}
	sort.SliceStable(out.Allocations, func(i, j int) bool {
		return out.Allocations[i].InvestedValue.GreaterThan(out.Allocations[j].InvestedValue)
	})
	return out
}

// ComputeReturn values the portfolio at current prices and compares it to
// the invested cost. A zero invested total reports a 0% return rather
// than dividing by zero.
func ComputeReturn(assets []Asset, prices PriceSource) PortfolioReturn {
	var r PortfolioReturn
	r.TotalCurrentValue = decimal.Zero
	r.TotalInvested = decimal.Zero
	for _, a := range assets {
		r.TotalCurrentValue = r.TotalCurrentValue.Add(a.Quantity.Mul(prices.CurrentPrice(a.Product)).Round(2))
		r.TotalInvested = r.TotalInvested.Add(a.InvestedValue())
	}
	r.Profit = r.TotalCurrentValue.Sub(r.TotalInvested)
	if r.TotalInvested.IsPositive() {
		ratio, _ := r.TotalCurrentValue.Div(r.TotalInvested).Float64()
		r.ReturnPercent = (ratio - 1) * 100
	}
	return r
}

// Positions builds the per-asset detail rows for the holdings table.
func Positions(assets []Asset, prices PriceSource) []AssetPosition {
	out := make([]AssetPosition, 0, len(assets))
	for _, a := range assets {
		price := prices.CurrentPrice(a.Product)
		current := a.Quantity.Mul(price).Round(2)
		invested := a.InvestedValue()
		var ret float64
		if invested.IsPositive() {
			ratio, _ := current.Div(invested).Float64()
			ret = (ratio - 1) * 100
		}
		out = append(out, AssetPosition{
			Asset:         a,
			CurrentPrice:  price,
			CurrentValue:  current,
			InvestedValue: invested,
			ReturnPercent: ret,
		})
	}
	return out
}
