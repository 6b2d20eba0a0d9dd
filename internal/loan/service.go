package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxMutationAttempts bounds the read-modify-write retries after a version conflict.
const maxMutationAttempts = 3

// Repository is the owner-scoped loan store. Every method takes the owner id and must
// behave as if loans of other owners do not exist.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=loan
type Repository interface {
	CreateLoan(ctx context.Context, l *Loan) error
	GetLoan(ctx context.Context, id, ownerID uuid.UUID) (*Loan, error)
	// SaveLoan replaces the stored loan and its payments when l.Version matches the stored
	// version, and bumps l.Version. A stale version yields ErrConflict.
	SaveLoan(ctx context.Context, l *Loan) error
	DeleteLoan(ctx context.Context, id, ownerID uuid.UUID) error
	ListLoans(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Loan, int, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the instant used for status derivation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Now is the service clock. Handlers use it to compute balances consistently with status.
func (s *Service) Now() time.Time {
	return s.now()
}

type CreateParams struct {
	Direction        Direction
	CounterpartyName string
	PrincipalAmount  decimal.Decimal
	InterestRate     decimal.Decimal
	StartDate        time.Time
	DueDate          time.Time
	Description      string
}

// UpdateParams carries a partial update. Nil fields are left untouched. Direction,
// status and payments cannot be changed through an update.
type UpdateParams struct {
	CounterpartyName *string
	PrincipalAmount  *decimal.Decimal
	InterestRate     *decimal.Decimal
	StartDate        *time.Time
	DueDate          *time.Time
	Description      *string
}

type PaymentParams struct {
	Amount decimal.Decimal
	Date   time.Time
}

type ListFilter struct {
	Direction *Direction
	Status    *Status
	Limit     int
	Offset    int
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*Loan, error) {
	l := &Loan{
		OwnerID:          ownerID,
		Direction:        params.Direction,
		CounterpartyName: strings.TrimSpace(params.CounterpartyName),
		PrincipalAmount:  params.PrincipalAmount,
		InterestRate:     params.InterestRate,
		StartDate:        params.StartDate,
		DueDate:          params.DueDate,
		Description:      strings.TrimSpace(params.Description),
		Payments:         []Payment{},
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	l.Status = DeriveStatus(l, s.now())

	if err := s.repo.CreateLoan(ctx, l); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "loan created", "loan_id", l.ID, "status", l.Status)

	return l, nil
}

func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (*Loan, error) {
	return s.repo.GetLoan(ctx, id, ownerID)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Loan, int, error) {
	return s.repo.ListLoans(ctx, ownerID, filter)
}

func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := s.repo.DeleteLoan(ctx, id, ownerID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "loan deleted", "loan_id", id)

	return nil
}

// Update applies a partial update. The stored status is kept as is, even when the due
// date moves: status only changes at creation and through payment operations.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, params UpdateParams) (*Loan, error) {
	return s.mutate(ctx, id, ownerID, func(l *Loan) error {
		if params.CounterpartyName != nil {
			l.CounterpartyName = strings.TrimSpace(*params.CounterpartyName)
		}

		if params.PrincipalAmount != nil {
			l.PrincipalAmount = *params.PrincipalAmount
		}

		if params.InterestRate != nil {
			l.InterestRate = *params.InterestRate
		}

		if params.StartDate != nil {
			l.StartDate = *params.StartDate
		}

		if params.DueDate != nil {
			l.DueDate = *params.DueDate
		}

		if params.Description != nil {
			l.Description = strings.TrimSpace(*params.Description)
		}

		return l.Validate()
	})
}

// AddPayment appends a payment to the ledger and re-derives the status.
func (s *Service) AddPayment(ctx context.Context, id, ownerID uuid.UUID, params PaymentParams) (*Loan, error) {
	p := Payment{Amount: params.Amount, Date: params.Date}
	if err := p.validate(); err != nil {
		return nil, err
	}

	l, err := s.mutate(ctx, id, ownerID, func(l *Loan) error {
		p.ID = uuid.New()
		l.Payments = append(l.Payments, p)
		l.Status = DeriveStatus(l, s.now())

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "loan payment added", "loan_id", l.ID, "payment_id", p.ID, "status", l.Status)

	return l, nil
}

// RemovePayment drops a payment from the ledger and re-derives the status. An unknown
// payment id leaves the payments untouched and is not an error.
func (s *Service) RemovePayment(ctx context.Context, id, ownerID, paymentID uuid.UUID) (*Loan, error) {
	l, err := s.mutate(ctx, id, ownerID, func(l *Loan) error {
		l.Payments = slices.DeleteFunc(l.Payments, func(p Payment) bool {
			return p.ID == paymentID
		})
		l.Status = DeriveStatus(l, s.now())

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "loan payment removed", "loan_id", l.ID, "payment_id", paymentID, "status", l.Status)

	return l, nil
}

// mutate runs a read-modify-write cycle against the repository, starting over from a
// fresh read when another writer saved the loan in between.
func (s *Service) mutate(ctx context.Context, id, ownerID uuid.UUID, apply func(*Loan) error) (*Loan, error) {
	var lastErr error

	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		l, err := s.repo.GetLoan(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}

		if err := apply(l); err != nil {
			return nil, err
		}

		err = s.repo.SaveLoan(ctx, l)
		if err == nil {
			return l, nil
		}

		if !errors.Is(err, ErrConflict) {
			return nil, err
		}

		lastErr = err

		slog.WarnContext(ctx, "loan version conflict, retrying", "loan_id", id, "attempt", attempt)
	}

	return nil, fmt.Errorf("saving loan after %d attempts: %w", maxMutationAttempts, lastErr)
}
