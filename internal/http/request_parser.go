package http

import (
	"fmt"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Request bodies carry amounts as decimal numbers in the base currency
// unit; conversion to cents happens here, before validation.

type transactionRequest struct {
	Kind               string  `json:"kind"`
	Amount             float64 `json:"amount"`
	Description        string  `json:"description"`
	Date               string  `json:"date"`
	Category           string  `json:"category"`
	Status             string  `json:"status"`
	Recurrence         string  `json:"recurrence"`
	InstallmentCurrent int     `json:"installmentCurrent"`
	InstallmentTotal   int     `json:"installmentTotal"`
}

func (req transactionRequest) toDomain() (core.Transaction, error) {
	cents, err := core.CentsFromFloat(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Kind:               core.TransactionKind(req.Kind),
		Amount:             core.Money{Cents: cents},
		Description:        sanitizeInput(req.Description),
		Date:               date,
		Category:           sanitizeInput(req.Category),
		Status:             core.TransactionStatus(req.Status),
		Recurrence:         core.Recurrence(req.Recurrence),
		InstallmentCurrent: req.InstallmentCurrent,
		InstallmentTotal:   req.InstallmentTotal,
	}, nil
}

type goalRequest struct {
	Title           string  `json:"title"`
	TargetAmount    float64 `json:"targetAmount"`
	CollectedAmount float64 `json:"collectedAmount"`
	DeadlineMonths  int     `json:"deadlineMonths"`
}

func (req goalRequest) toDomain() (core.Goal, error) {
	target, err := core.CentsFromFloat(req.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	collected, err := core.CentsFromFloat(req.CollectedAmount)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		Title:          sanitizeInput(req.Title),
		Target:         core.Money{Cents: target},
		Collected:      core.Money{Cents: collected},
		DeadlineMonths: req.DeadlineMonths,
	}, nil
}

type depositRequest struct {
	Amount float64 `json:"amount"`
}

func (req depositRequest) toDomain() (core.Money, error) {
	cents, err := core.CentsFromFloat(req.Amount)
	if err != nil {
		// The deposit path reports its own rejection reason.
		return core.Money{}, core.ErrDepositInvalid
	}
	return core.Money{Cents: cents}, nil
}

type assetRequest struct {
	Product     string          `json:"product"`
	Class       string          `json:"class"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avgCost"`
	Institution string          `json:"institution"`
	Maturity    string          `json:"maturity"`
}

func (req assetRequest) toDomain() (core.Asset, error) {
	a := core.Asset{
		Product:     sanitizeInput(req.Product),
		Class:       sanitizeInput(req.Class),
		Quantity:    req.Quantity,
		AvgCost:     req.AvgCost,
		Institution: sanitizeInput(req.Institution),
	}
	if req.Maturity != "" {
		d, err := core.ParseDate(req.Maturity)
		if err != nil {
			return core.Asset{}, fmt.Errorf("maturity: %w", err)
		}
		a.Maturity = d
	}
	return a, nil
}
