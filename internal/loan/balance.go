package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// monthlyDivisor turns an annual percentage into a monthly fraction: 12 months * 100%.
var monthlyDivisor = decimal.NewFromInt(12 * 100)

// MonthsElapsed counts calendar month boundaries crossed between start and asOf.
// The day of month is ignored: Jan 31 -> Feb 1 is one month, Jan 1 -> Jan 31 is zero.
// Never negative.
func MonthsElapsed(start, asOf time.Time) int {
	start, asOf = start.UTC(), asOf.UTC()

	months := (asOf.Year()-start.Year())*12 + int(asOf.Month()) - int(start.Month())

	return max(months, 0)
}

// AccruedInterest is the simple interest on the principal for every elapsed month up to asOf.
func AccruedInterest(l *Loan, asOf time.Time) decimal.Decimal {
	months := decimal.NewFromInt(int64(MonthsElapsed(l.StartDate, asOf)))

	return l.PrincipalAmount.Mul(l.InterestRate).Mul(months).Div(monthlyDivisor)
}

// OutstandingBalance is principal plus accrued interest minus everything paid so far.
// Overpayment yields a negative balance. The result is never stored.
func OutstandingBalance(l *Loan, asOf time.Time) decimal.Decimal {
	return l.PrincipalAmount.Add(AccruedInterest(l, asOf)).Sub(l.TotalPaid())
}
