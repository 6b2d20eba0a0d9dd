package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const selectLoanColumns = `
	l.id, l.owner_id, l.direction, l.counterparty_name, l.principal_amount, l.interest_rate,
	l.start_date, l.due_date, l.status, l.description, l.version, l.created_at, l.updated_at
`

// scanLoan reads a loan row without its payments.
// Expected column order matches selectLoanColumns.
func scanLoan(s scanner) (*loan.Loan, error) {
	var l loan.Loan

	var direction, status string

	if err := s.Scan(
		&l.ID, &l.OwnerID, &direction, &l.CounterpartyName, &l.PrincipalAmount, &l.InterestRate,
		&l.StartDate, &l.DueDate, &status, &l.Description, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.Direction = loan.Direction(direction)
	l.Status = loan.Status(status)
	l.Payments = []loan.Payment{}

	return &l, nil
}

func (s *Store) CreateLoan(ctx context.Context, l *loan.Loan) error {
	query := `
		INSERT INTO loans (owner_id, direction, counterparty_name, principal_amount, interest_rate,
			start_date, due_date, status, description, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW(), NOW())
		RETURNING id, version, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		l.OwnerID,
		l.Direction,
		l.CounterpartyName,
		l.PrincipalAmount,
		l.InterestRate,
		l.StartDate,
		l.DueDate,
		l.Status,
		l.Description,
	).Scan(&l.ID, &l.Version, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating loan: %w", err)
	}

	if l.Payments == nil {
		l.Payments = []loan.Payment{}
	}

	return nil
}

func (s *Store) GetLoan(ctx context.Context, id, ownerID uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + `
		FROM loans l
		WHERE l.id = $1 AND l.owner_id = $2`

	l, err := scanLoan(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, loan.ErrNotFound
		}

		return nil, fmt.Errorf("getting loan: %w", err)
	}

	if err := loadPayments(ctx, s.db, []*loan.Loan{l}); err != nil {
		return nil, err
	}

	return l, nil
}

// SaveLoan replaces the loan row and its payments in one transaction. The row is only
// written when the stored version still equals l.Version.
func (s *Store) SaveLoan(ctx context.Context, l *loan.Loan) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE loans
		SET counterparty_name = $1, principal_amount = $2, interest_rate = $3, start_date = $4,
			due_date = $5, status = $6, description = $7, version = version + 1, updated_at = NOW()
		WHERE id = $8 AND owner_id = $9 AND version = $10
		RETURNING version, updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		l.CounterpartyName,
		l.PrincipalAmount,
		l.InterestRate,
		l.StartDate,
		l.DueDate,
		l.Status,
		l.Description,
		l.ID,
		l.OwnerID,
		l.Version,
	).Scan(&l.Version, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.missOrConflict(ctx, dbTx, l)
	}

	if err != nil {
		return fmt.Errorf("updating loan: %w", err)
	}

	if err := replacePayments(ctx, dbTx, l); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// missOrConflict tells a vanished loan apart from a stale version after a guarded update
// matched no row.
func (s *Store) missOrConflict(ctx context.Context, dbTx *sql.Tx, l *loan.Loan) error {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1 AND owner_id = $2)`
	if err := dbTx.QueryRowContext(ctx, query, l.ID, l.OwnerID).Scan(&exists); err != nil {
		return fmt.Errorf("checking loan: %w", err)
	}

	if !exists {
		return loan.ErrNotFound
	}

	return loan.ErrConflict
}

func replacePayments(ctx context.Context, ex execer, l *loan.Loan) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM loan_payments WHERE loan_id = $1`, l.ID); err != nil {
		return fmt.Errorf("clearing payments: %w", err)
	}

	query := `
		INSERT INTO loan_payments (id, loan_id, position, amount, date)
		VALUES ($1, $2, $3, $4, $5)
	`

	for i, p := range l.Payments {
		if _, err := ex.ExecContext(ctx, query, p.ID, l.ID, i, p.Amount, p.Date); err != nil {
			return fmt.Errorf("inserting payment: %w", err)
		}
	}

	return nil
}

// loadPayments fills the payments of every loan with a single query, in ledger order.
func loadPayments(ctx context.Context, q queryer, loans []*loan.Loan) error {
	if len(loans) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*loan.Loan, len(loans))
	ids := make([]string, 0, len(loans))

	for _, l := range loans {
		byID[l.ID] = l
		ids = append(ids, l.ID.String())
	}

	query := `
		SELECT loan_id, id, amount, date
		FROM loan_payments
		WHERE loan_id = ANY($1::uuid[])
		ORDER BY loan_id, position ASC
	`

	rows, err := q.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var loanID uuid.UUID

		var p loan.Payment

		if err := rows.Scan(&loanID, &p.ID, &p.Amount, &p.Date); err != nil {
			return fmt.Errorf("scanning payment: %w", err)
		}

		if l, ok := byID[loanID]; ok {
			l.Payments = append(l.Payments, p)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating payment rows: %w", err)
	}

	return nil
}

func (s *Store) DeleteLoan(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting loan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting loan: %w", err)
	}

	if n == 0 {
		return loan.ErrNotFound
	}

	return nil
}

// ListLoans returns one page of the owner's loans, newest first, and the total number of
// loans matching the filter.
func (s *Store) ListLoans(ctx context.Context, ownerID uuid.UUID, filter loan.ListFilter) ([]*loan.Loan, int, error) {
	where := ` WHERE l.owner_id = $1`
	args := []any{ownerID}
	argIdx := 2

	if filter.Direction != nil {
		where += fmt.Sprintf(" AND l.direction = $%d", argIdx)

		args = append(args, *filter.Direction)
		argIdx++
	}

	if filter.Status != nil {
		where += fmt.Sprintf(" AND l.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans l`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting loans: %w", err)
	}

	query := `SELECT ` + selectLoanColumns + ` FROM loans l` + where + ` ORDER BY l.created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)

		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	loans := []*loan.Loan{}

	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning loan: %w", err)
		}

		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating loan rows: %w", err)
	}

	if err := loadPayments(ctx, s.db, loans); err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}
