package loan

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("loan not found")
	ErrInvalid  = errors.New("invalid loan")
	// ErrConflict is returned by SaveLoan when the stored version moved on since the loan was read.
	ErrConflict = errors.New("loan was modified concurrently")
)

const (
	maxCounterpartyLen = 100
	maxDescriptionLen  = 500
	// moneyScale matches the NUMERIC(_, 2) columns amounts and rates are stored in.
	moneyScale = 2
)

var (
	maxInterestRate = decimal.NewFromInt(100)
	// maxAmount is the first value that no longer fits NUMERIC(18,2).
	maxAmount = decimal.New(1, 16)
)

// Direction tells which side of the debt the owner is on.
type Direction string

const (
	// DirectionGiven means the owner lent the money and is the creditor.
	DirectionGiven Direction = "given"
	// DirectionReceived means the owner borrowed the money and is the debtor.
	DirectionReceived Direction = "received"
)

func (d Direction) Valid() bool {
	return d == DirectionGiven || d == DirectionReceived
}

// Status is the derived lifecycle label of a loan.
type Status string

const (
	StatusActive  Status = "active"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusPaid || s == StatusOverdue
}

// Loan is a tracked debt between the owner and a counterparty.
type Loan struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Direction        Direction
	CounterpartyName string
	PrincipalAmount  decimal.Decimal
	InterestRate     decimal.Decimal // annual percentage, simple interest
	StartDate        time.Time
	DueDate          time.Time
	Status           Status
	Description      string
	Payments         []Payment
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Payment is a partial repayment. It only exists inside its loan.
type Payment struct {
	ID     uuid.UUID
	Amount decimal.Decimal
	Date   time.Time
}

// TotalPaid sums every payment amount.
func (l *Loan) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.Payments {
		total = total.Add(p.Amount)
	}

	return total
}

// Validate checks the fields a caller controls. It does not look at payments or status.
func (l *Loan) Validate() error {
	if !l.Direction.Valid() {
		return fmt.Errorf("%w: direction must be given or received", ErrInvalid)
	}

	name := strings.TrimSpace(l.CounterpartyName)
	if name == "" {
		return fmt.Errorf("%w: counterparty name is required", ErrInvalid)
	}

	if utf8.RuneCountInString(name) > maxCounterpartyLen {
		return fmt.Errorf("%w: counterparty name cannot exceed %d characters", ErrInvalid, maxCounterpartyLen)
	}

	if !l.PrincipalAmount.IsPositive() {
		return fmt.Errorf("%w: principal amount must be greater than 0", ErrInvalid)
	}

	if !validAmount(l.PrincipalAmount) {
		return fmt.Errorf("%w: principal amount must be below %s with at most %d decimal places", ErrInvalid, maxAmount, moneyScale)
	}

	if l.InterestRate.IsNegative() || l.InterestRate.GreaterThan(maxInterestRate) {
		return fmt.Errorf("%w: interest rate must be between 0 and 100", ErrInvalid)
	}

	if !fitsScale(l.InterestRate) {
		return fmt.Errorf("%w: interest rate cannot have more than %d decimal places", ErrInvalid, moneyScale)
	}

	if l.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalid)
	}

	if l.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrInvalid)
	}

	if utf8.RuneCountInString(l.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description cannot exceed %d characters", ErrInvalid, maxDescriptionLen)
	}

	return nil
}

func (p Payment) validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be greater than 0", ErrInvalid)
	}

	if !validAmount(p.Amount) {
		return fmt.Errorf("%w: payment amount must be below %s with at most %d decimal places", ErrInvalid, maxAmount, moneyScale)
	}

	if p.Date.IsZero() {
		return fmt.Errorf("%w: payment date is required", ErrInvalid)
	}

	return nil
}

// fitsScale reports whether d is stored without rounding.
func fitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyScale))
}

func validAmount(d decimal.Decimal) bool {
	return fitsScale(d) && d.LessThan(maxAmount)
}
