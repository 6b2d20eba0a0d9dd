package loan_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthsElapsed(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		asOf  time.Time
		want  int
	}{
		{name: "SameInstant", start: date(2024, 1, 15), asOf: date(2024, 1, 15), want: 0},
		{name: "NextDaySameMonth", start: date(2024, 1, 15), asOf: date(2024, 1, 16), want: 0},
		{name: "EndOfMonthToFirstOfNext", start: date(2024, 1, 31), asOf: date(2024, 2, 1), want: 1},
		{name: "DayOfMonthIgnored", start: date(2024, 1, 15), asOf: date(2024, 2, 14), want: 1},
		{name: "ThreeMonths", start: date(2024, 1, 15), asOf: date(2024, 4, 15), want: 3},
		{name: "AcrossYear", start: date(2023, 12, 1), asOf: date(2024, 1, 1), want: 1},
		{name: "SeveralYears", start: date(2021, 6, 10), asOf: date(2024, 3, 2), want: 33},
		{name: "AsOfBeforeStartClamped", start: date(2024, 5, 1), asOf: date(2024, 1, 1), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, loan.MonthsElapsed(tt.start, tt.asOf))
		})
	}
}

func TestOutstandingBalance(t *testing.T) {
	base := func(payments ...loan.Payment) *loan.Loan {
		return &loan.Loan{
			ID:              uuid.New(),
			PrincipalAmount: dec("1000"),
			InterestRate:    dec("12"),
			StartDate:       date(2024, 1, 15),
			DueDate:         date(2024, 12, 15),
			Payments:        payments,
		}
	}

	tests := []struct {
		name string
		loan *loan.Loan
		asOf time.Time
		want decimal.Decimal
	}{
		{
			name: "NoTimeElapsedIsPrincipal",
			loan: base(),
			asOf: date(2024, 1, 15),
			want: dec("1000"),
		},
		{
			name: "ThreeMonthsInterest",
			loan: base(),
			asOf: date(2024, 4, 15),
			want: dec("1030"),
		},
		{
			name: "ThreeMonthsWithPayment",
			loan: base(loan.Payment{ID: uuid.New(), Amount: dec("500"), Date: date(2024, 3, 1)}),
			asOf: date(2024, 4, 15),
			want: dec("530"),
		},
		{
			name: "OverpaymentGoesNegative",
			loan: base(
				loan.Payment{ID: uuid.New(), Amount: dec("800"), Date: date(2024, 1, 20)},
				loan.Payment{ID: uuid.New(), Amount: dec("300"), Date: date(2024, 1, 25)},
			),
			asOf: date(2024, 1, 30),
			want: dec("-100"),
		},
		{
			name: "ZeroRateNoInterest",
			loan: &loan.Loan{
				PrincipalAmount: dec("250.50"),
				InterestRate:    decimal.Zero,
				StartDate:       date(2020, 1, 1),
			},
			asOf: date(2024, 1, 1),
			want: dec("250.50"),
		},
		{
			name: "AsOfBeforeStartNoNegativeInterest",
			loan: base(),
			asOf: date(2023, 11, 1),
			want: dec("1000"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loan.OutstandingBalance(tt.loan, tt.asOf)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestAccruedInterest_FractionalRate(t *testing.T) {
	l := &loan.Loan{
		PrincipalAmount: dec("1200"),
		InterestRate:    dec("7.5"),
		StartDate:       date(2024, 1, 1),
	}

	got := loan.AccruedInterest(l, date(2024, 2, 1))
	assert.Equal(t, "7.5", got.String())
}
