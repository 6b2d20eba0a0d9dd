package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Repository stores categories. Reads return default categories plus the owner's own;
// writes only ever touch the owner's rows.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id, ownerID uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id, ownerID uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name  string
	Icon  string
	Color string
	Type  Type
}

type UpdateParams struct {
	Name  *string
	Icon  *string
	Color *string
	Type  *Type
}

type ListFilter struct {
	Type *Type
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*Category, error) {
	c := &Category{
		OwnerID: &ownerID,
		Name:    strings.TrimSpace(params.Name),
		Icon:    params.Icon,
		Color:   params.Color,
		Type:    params.Type,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "category created", "category_id", c.ID)

	return c, nil
}

// Get returns a category visible to the user: a default one or one of their own.
func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id, ownerID)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Category, error) {
	return s.repo.ListCategories(ctx, ownerID, filter)
}

func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, params UpdateParams) (*Category, error) {
	c, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		c.Name = strings.TrimSpace(*params.Name)
	}

	if params.Icon != nil {
		c.Icon = *params.Icon
	}

	if params.Color != nil {
		c.Color = *params.Color
	}

	if params.Type != nil {
		c.Type = *params.Type
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.repo.DeleteCategory(ctx, id, ownerID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "category deleted", "category_id", id)

	return nil
}

func (s *Service) owned(ctx context.Context, id, ownerID uuid.UUID) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if !c.OwnedBy(ownerID) {
		return nil, ErrReadOnly
	}

	return c, nil
}
