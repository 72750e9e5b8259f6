package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "Income"
	Expense TransactionKind = "Expense"

	StatusToPay     TransactionStatus = "ToPay"
	StatusPaid      TransactionStatus = "Paid"
	StatusToReceive TransactionStatus = "ToReceive"
	StatusReceived  TransactionStatus = "Received"

	RecurrenceSingle      Recurrence = "Single"
	RecurrenceFixed       Recurrence = "Fixed"
	RecurrenceInstallment Recurrence = "Installment"
)

// DefaultCategory is assigned when a transaction arrives without one.
const DefaultCategory = "Other"

type (
	TransactionKind   string
	TransactionStatus string
	Recurrence        string

	// Transaction is a single income or expense entry in the ledger.
	Transaction struct {
		ID                 int64
		Kind               TransactionKind
		Amount             Money
		Description        string
		Date               Date
		Category           string
		Status             TransactionStatus
		Recurrence         Recurrence
		InstallmentCurrent int // set iff Recurrence == RecurrenceInstallment
		InstallmentTotal   int
		CreatedAt          time.Time
	}

	// Goal is a savings target with a monotonically growing collected amount.
	Goal struct {
		ID             int64
		Title          string
		Target         Money
		Collected      Money
		DeadlineMonths int
		CreatedAt      time.Time
	}

	// Asset is an investment position. Quantity and AvgCost are decimals
	// because holdings can be fractional (fund shares, fixed income units).
	Asset struct {
		ID          int64
		Product     string
		Class       string
		Quantity    decimal.Decimal
		AvgCost     decimal.Decimal
		Institution string
		Maturity    Date // zero when not applicable
		AcquiredAt  time.Time
	}
)

var (
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidStatus      = errors.New("status not allowed for transaction kind")
	ErrInvalidRecurrence  = errors.New("invalid recurrence")
	ErrInvalidInstallment = errors.New("invalid installment numbers")

	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 100 characters)")
	ErrInvalidTarget   = errors.New("target amount must be positive")
	ErrInvalidDeadline = errors.New("deadline months cannot be negative")

	ErrEmptyProduct    = errors.New("empty product")
	ErrEmptyClass      = errors.New("empty asset class")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
	ErrInvalidAvgCost  = errors.New("average cost must be positive")

	ErrNotFound = errors.New("record not found")
)

// Date is a calendar date; the time of day is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// In reports whether the date falls in the given month and year.
func (d Date) In(year, month int) bool {
	return d.Year() == year && int(d.Month()) == month
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Kind != Income && t.Kind != Expense {
		return ErrInvalidKind
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	switch t.Kind {
	case Income:
		if t.Status != StatusToReceive && t.Status != StatusReceived {
			return ErrInvalidStatus
		}
	case Expense:
		if t.Status != StatusToPay && t.Status != StatusPaid {
			return ErrInvalidStatus
		}
	}
	switch t.Recurrence {
	case RecurrenceSingle, RecurrenceFixed:
		// no installment numbers expected
	case RecurrenceInstallment:
		if t.InstallmentCurrent < 1 || t.InstallmentTotal < 1 {
			return ErrInvalidInstallment
		}
		if t.InstallmentCurrent > t.InstallmentTotal {
			return ErrInvalidInstallment
		}
	default:
		return ErrInvalidRecurrence
	}
	return nil
}

// Normalize fills defaults the caller may omit: category, recurrence and,
// depending on kind, the open status.
func (t *Transaction) Normalize() {
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceSingle
	}
	if t.Status == "" {
		if t.Kind == Income {
			t.Status = StatusToReceive
		} else {
			t.Status = StatusToPay
		}
	}
}

func (g Goal) Validate() error {
	title := strings.TrimSpace(g.Title)
	if len(title) == 0 {
		return ErrEmptyTitle
	}
	if len(g.Title) > 100 {
		return ErrTitleTooLong
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.Collected.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.DeadlineMonths < 0 {
		return ErrInvalidDeadline
	}
	return nil
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Product) == "" {
		return ErrEmptyProduct
	}
	if strings.TrimSpace(a.Class) == "" {
		return ErrEmptyClass
	}
	if a.Quantity.IsNegative() {
		return ErrInvalidQuantity
	}
	if !a.AvgCost.IsPositive() {
		return ErrInvalidAvgCost
	}
	return nil
}

// InvestedValue returns quantity × average cost rounded to cents.
func (a Asset) InvestedValue() decimal.Decimal {
	return a.Quantity.Mul(a.AvgCost).Round(2)
}
