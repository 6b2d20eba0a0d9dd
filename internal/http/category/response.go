package category

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/moneyflow/internal/category"
)

type categoryResponse struct {
	ID        uuid.UUID     `json:"id"`
	UserID    *uuid.UUID    `json:"userId"`
	Name      string        `json:"name"`
	Icon      string        `json:"icon"`
	Color     string        `json:"color"`
	Type      category.Type `json:"type"`
	IsDefault bool          `json:"isDefault"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toResponse(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		UserID:    c.OwnerID,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		Type:      c.Type,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toResponseList(categories []*category.Category) []categoryResponse {
	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toResponse(c)
	}

	return resp
}
