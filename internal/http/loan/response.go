package loan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
	"github.com/MrJamesThe3rd/moneyflow/internal/pagination"
)

type loanResponse struct {
	ID                 uuid.UUID         `json:"id"`
	OwnerID            uuid.UUID         `json:"ownerId"`
	Direction          loan.Direction    `json:"direction"`
	CounterpartyName   string            `json:"counterpartyName"`
	PrincipalAmount    decimal.Decimal   `json:"principalAmount"`
	InterestRate       decimal.Decimal   `json:"interestRate"`
	StartDate          string            `json:"startDate"`
	DueDate            string            `json:"dueDate"`
	Status             loan.Status       `json:"status"`
	Description        string            `json:"description,omitempty"`
	Payments           []paymentResponse `json:"payments"`
	TotalPaid          decimal.Decimal   `json:"totalPaid"`
	AccruedInterest    decimal.Decimal   `json:"accruedInterest"`
	OutstandingBalance decimal.Decimal   `json:"outstandingBalance"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

type paymentResponse struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type listResponse struct {
	Data       []loanResponse    `json:"data"`
	Pagination pagination.Result `json:"pagination"`
}

// toResponse renders the loan with its balance figures computed as of now.
func toResponse(l *loan.Loan, now time.Time) loanResponse {
	payments := make([]paymentResponse, len(l.Payments))
	for i, p := range l.Payments {
		payments[i] = paymentResponse{
			ID:     p.ID,
			Amount: p.Amount,
			Date:   p.Date.Format(time.DateOnly),
		}
	}

	return loanResponse{
		ID:                 l.ID,
		OwnerID:            l.OwnerID,
		Direction:          l.Direction,
		CounterpartyName:   l.CounterpartyName,
		PrincipalAmount:    l.PrincipalAmount,
		InterestRate:       l.InterestRate,
		StartDate:          l.StartDate.Format(time.DateOnly),
		DueDate:            l.DueDate.Format(time.DateOnly),
		Status:             l.Status,
		Description:        l.Description,
		Payments:           payments,
		TotalPaid:          l.TotalPaid(),
		AccruedInterest:    loan.AccruedInterest(l, now),
		OutstandingBalance: loan.OutstandingBalance(l, now),
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func toResponseList(loans []*loan.Loan, now time.Time) []loanResponse {
	resp := make([]loanResponse, len(loans))
	for i, l := range loans {
		resp[i] = toResponse(l, now)
	}

	return resp
}
