package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homestock/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the interface for category data access. Every
// operation is scoped to the owning account; a category id belonging to a
// different account behaves as if it did not exist.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context, accountID uuid.UUID) ([]*domain.Category, error)
	FindByID(ctx context.Context, accountID, categoryID uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, accountID, categoryID uuid.UUID, params UpdateCategoryParams) (*domain.Category, error)
	Delete(ctx context.Context, accountID, categoryID uuid.UUID) (int64, error)
}

// UpdateCategoryParams carries a merge-patch for a category. Nil fields
// retain their stored values.
type UpdateCategoryParams struct {
	Name  *string
	Color *string
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category into the database using parameterized queries
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, account_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.AccountID,
		category.Name,
		category.Color,
		category.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// List retrieves all categories owned by the account, ordered by name
func (r *categoryRepository) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Category, error) {
	query := `
		SELECT id, account_id, name, color, created_at
		FROM categories
		WHERE account_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		err := rows.Scan(
			&category.ID,
			&category.AccountID,
			&category.Name,
			&category.Color,
			&category.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID within the account scope
func (r *categoryRepository) FindByID(ctx context.Context, accountID, categoryID uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, account_id, name, color, created_at
		FROM categories
		WHERE account_id = $1 AND id = $2
	`

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, accountID, categoryID).Scan(
		&category.ID,
		&category.AccountID,
		&category.Name,
		&category.Color,
		&category.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// Update applies a merge-patch to a category in a single statement
func (r *categoryRepository) Update(ctx context.Context, accountID, categoryID uuid.UUID, params UpdateCategoryParams) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET name = COALESCE($3::text, name), color = COALESCE($4::text, color)
		WHERE account_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, accountID, categoryID, params.Name, params.Color)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrCategoryNotFound
	}

	return r.FindByID(ctx, accountID, categoryID)
}

// Delete removes a category and returns the number of rows removed. Items
// referencing the category keep existing with a NULL category reference
// (ON DELETE SET NULL in the schema).
func (r *categoryRepository) Delete(ctx context.Context, accountID, categoryID uuid.UUID) (int64, error) {
	query := `DELETE FROM categories WHERE account_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, accountID, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
