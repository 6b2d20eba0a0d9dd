package category

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("category not found")
	ErrInvalid  = errors.New("invalid category")
	// ErrReadOnly is returned when a caller tries to change a default category.
	ErrReadOnly = errors.New("default categories cannot be modified")
)

const (
	maxNameLen = 50
	maxIconLen = 64
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Type tells whether a category groups income or expenses.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category groups transactions. Default categories have no owner and are visible to everyone.
type Category struct {
	ID        uuid.UUID
	OwnerID   *uuid.UUID
	Name      string
	Icon      string
	Color     string
	Type      Type
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether the category belongs to the given user.
func (c *Category) OwnedBy(userID uuid.UUID) bool {
	return !c.IsDefault && c.OwnerID != nil && *c.OwnerID == userID
}

func (c *Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}

	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("%w: name cannot exceed %d characters", ErrInvalid, maxNameLen)
	}

	if c.Icon == "" || len(c.Icon) > maxIconLen {
		return fmt.Errorf("%w: icon is required and cannot exceed %d characters", ErrInvalid, maxIconLen)
	}

	if !hexColor.MatchString(c.Color) {
		return fmt.Errorf("%w: color must be a hex color", ErrInvalid)
	}

	if !c.Type.Valid() {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}

	return nil
}
