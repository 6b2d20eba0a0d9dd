package loan

import "time"

// DeriveStatus computes the lifecycle status of a loan at asOf.
//
// Paid detection compares the sum of payments against the raw principal, so a loan
// whose interest is still outstanding can already be paid.
func DeriveStatus(l *Loan, asOf time.Time) Status {
	if l.TotalPaid().GreaterThanOrEqual(l.PrincipalAmount) {
		return StatusPaid
	}

	if l.DueDate.Before(asOf) {
		return StatusOverdue
	}

	return StatusActive
}
