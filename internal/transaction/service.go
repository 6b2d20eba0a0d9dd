package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/moneyflow/internal/category"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id, ownerID uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Transaction, int, error)
	DeleteTransaction(ctx context.Context, id, ownerID uuid.UUID) error
}

// CategoryLookup resolves a category visible to the user.
type CategoryLookup interface {
	Get(ctx context.Context, id, ownerID uuid.UUID) (*category.Category, error)
}

type Service struct {
	repo       Repository
	categories CategoryLookup
}

func NewService(repo Repository, categories CategoryLookup) *Service {
	return &Service{repo: repo, categories: categories}
}

type CreateParams struct {
	Amount      decimal.Decimal
	Type        Type
	CategoryID  *uuid.UUID
	Description string
	Date        time.Time
}

// UpdateParams carries a partial update. Nil fields are left untouched.
type UpdateParams struct {
	Amount      *decimal.Decimal
	Type        *Type
	CategoryID  *uuid.UUID
	Description *string
	Date        *time.Time
}

type ListFilter struct {
	Type       *Type
	CategoryID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*Transaction, error) {
	tx := &Transaction{
		OwnerID:     ownerID,
		Amount:      params.Amount,
		Type:        params.Type,
		CategoryID:  params.CategoryID,
		Description: strings.TrimSpace(params.Description),
		Date:        params.Date,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkCategory(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "transaction created", "transaction_id", tx.ID)

	return tx, nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Transaction, int, error) {
	return s.repo.ListTransactions(ctx, ownerID, filter)
}

func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id, ownerID)
}

func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, params UpdateParams) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if params.Amount != nil {
		tx.Amount = *params.Amount
	}

	if params.Type != nil {
		tx.Type = *params.Type
	}

	if params.Description != nil {
		tx.Description = strings.TrimSpace(*params.Description)
	}

	if params.Date != nil {
		tx.Date = *params.Date
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if params.CategoryID != nil {
		tx.CategoryID = params.CategoryID

		if err := s.checkCategory(ctx, tx); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := s.repo.DeleteTransaction(ctx, id, ownerID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "transaction deleted", "transaction_id", id)

	return nil
}

// checkCategory makes sure the referenced category is one the owner can see and fills in
// the joined summary.
func (s *Service) checkCategory(ctx context.Context, tx *Transaction) error {
	if tx.CategoryID == nil {
		tx.Category = nil
		return nil
	}

	c, err := s.categories.Get(ctx, *tx.CategoryID, tx.OwnerID)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return fmt.Errorf("%w: category does not exist", ErrInvalid)
		}

		return fmt.Errorf("looking up category: %w", err)
	}

	tx.Category = &Category{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color}

	return nil
}
