package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homestock/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account with this email already exists")
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new instance of AccountRepository
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account into the database using parameterized queries
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by email using parameterized queries
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	account := &domain.Account{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	return account, nil
}

// FindByID retrieves an account by ID using parameterized queries
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account := &domain.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}
