package transaction

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
	ErrNotFound = errors.New("transaction not found")
	ErrInvalid  = errors.New("invalid transaction")
)

// maxAmount is the first value that no longer fits the NUMERIC(18,2) amount column.
var maxAmount = decimal.New(1, 16)

const (
	maxDescriptionLen = 500
	amountScale       = 2
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents a financial transaction.
type Transaction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Type        Type
	CategoryID  *uuid.UUID
	Category    *Category // Loaded via JOIN
	Description string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category is the summary of the category a transaction is filed under.
type Category struct {
	ID    uuid.UUID
	Name  string
	Icon  string
	Color string
}

func (tx *Transaction) Validate() error {
	if !tx.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalid)
	}

	if !tx.Amount.Equal(tx.Amount.Round(amountScale)) || !tx.Amount.LessThan(maxAmount) {
		return fmt.Errorf("%w: amount must be below %s with at most %d decimal places", ErrInvalid, maxAmount, amountScale)
	}

	if !tx.Type.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}

	desc := strings.TrimSpace(tx.Description)
	if desc == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}

	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description cannot exceed %d characters", ErrInvalid, maxDescriptionLen)
	}

	if tx.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalid)
	}

	return nil
}
