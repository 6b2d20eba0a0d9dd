package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/moneyflow/internal/pagination"
	"github.com/MrJamesThe3rd/moneyflow/internal/transaction"
)

type transactionResponse struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"userId"`
	Amount      decimal.Decimal   `json:"amount"`
	Type        transaction.Type  `json:"type"`
	CategoryID  *uuid.UUID        `json:"categoryId"`
	Category    *categoryResponse `json:"category,omitempty"`
	Description string            `json:"description"`
	Date        string            `json:"date"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type categoryResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Icon  string    `json:"icon"`
	Color string    `json:"color"`
}

type listResponse struct {
	Data       []transactionResponse `json:"data"`
	Pagination pagination.Result     `json:"pagination"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          tx.ID,
		UserID:      tx.OwnerID,
		Amount:      tx.Amount,
		Type:        tx.Type,
		CategoryID:  tx.CategoryID,
		Description: tx.Description,
		Date:        tx.Date.Format(time.DateOnly),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}

	if tx.Category != nil {
		resp.Category = &categoryResponse{
			ID:    tx.Category.ID,
			Name:  tx.Category.Name,
			Icon:  tx.Category.Icon,
			Color: tx.Category.Color,
		}
	}

	return resp
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
