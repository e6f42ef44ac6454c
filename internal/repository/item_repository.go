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
	ErrItemNotFound = errors.New("item not found")

	// ErrNegativeQuantity rejects an explicit negative quantity. Quantity is
	// never clamped on update; the caller must send a value >= 0.
	ErrNegativeQuantity = errors.New("quantity must not be negative")

	// ErrCategoryNotOwned rejects a category reference that does not resolve
	// to a category of the same account.
	ErrCategoryNotOwned = errors.New("category does not belong to this account")
)

// DefaultRestockThreshold applies when an item is created without an
// explicit threshold.
const DefaultRestockThreshold = 1

// CreateItemParams carries the fields for a new item. RestockThreshold
// defaults to 1 when nil. CategoryID, when set, must reference a category
// owned by the same account.
type CreateItemParams struct {
	Name             string
	Quantity         int
	RestockThreshold *int
	CategoryID       *uuid.UUID
}

// UpdateItemParams carries a merge-patch for an item. Nil fields retain
// their stored values. ClearCategory removes the category reference;
// CategoryID replaces it.
type UpdateItemParams struct {
	Name             *string
	Quantity         *int
	RestockThreshold *int
	CategoryID       *uuid.UUID
	ClearCategory    bool
}

// ItemRepository defines the interface for item data access. Every operation
// is scoped to the owning account and every mutation is a single atomic
// statement, so concurrent requests coordinate through the database alone.
type ItemRepository interface {
	List(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error)
	FindByID(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error)
	Create(ctx context.Context, accountID uuid.UUID, params CreateItemParams) (*domain.Item, error)
	Update(ctx context.Context, accountID, itemID uuid.UUID, params UpdateItemParams) (*domain.Item, error)
	Use(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error)
	Purchase(ctx context.Context, accountID, itemID uuid.UUID, amount int) (*domain.Item, error)
	Delete(ctx context.Context, accountID, itemID uuid.UUID) (int64, error)
	ListBelowThreshold(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

// itemColumns is the select list shared by all item reads. The LEFT JOIN
// keeps items without a category; the join on account_id makes a cross-account
// category reference resolve to nothing.
const itemColumns = `
	i.id, i.account_id, i.name, i.quantity, i.restock_threshold, i.category_id,
	i.created_at, i.updated_at,
	c.name, c.color, c.created_at
`

const itemFrom = `
	FROM items i
	LEFT JOIN categories c ON c.id = i.category_id AND c.account_id = i.account_id
`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	item := &domain.Item{}
	var catName, catColor sql.NullString
	var catCreatedAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.AccountID,
		&item.Name,
		&item.Quantity,
		&item.RestockThreshold,
		&item.CategoryID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&catName,
		&catColor,
		&catCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if item.CategoryID != nil && catName.Valid && catColor.Valid {
		item.Category = &domain.Category{
			ID:        *item.CategoryID,
			AccountID: item.AccountID,
			Name:      catName.String,
			Color:     catColor.String,
			CreatedAt: catCreatedAt.Time,
		}
	}

	return item, nil
}

// List retrieves all items owned by the account, ordered by name. The
// ordering is part of the contract; grouped views rely on it.
func (r *itemRepository) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + `
		WHERE i.account_id = $1
		ORDER BY i.name ASC
	`

	return r.queryItems(ctx, query, accountID)
}

// ListBelowThreshold retrieves items with quantity strictly below their
// restock threshold, ordered by name.
func (r *itemRepository) ListBelowThreshold(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + `
		WHERE i.account_id = $1 AND i.quantity < i.restock_threshold
		ORDER BY i.name ASC
	`

	return r.queryItems(ctx, query, accountID)
}

func (r *itemRepository) queryItems(ctx context.Context, query string, args ...any) ([]*domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// FindByID retrieves an item by ID within the account scope
func (r *itemRepository) FindByID(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + `
		WHERE i.account_id = $1 AND i.id = $2
	`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, accountID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}

	return item, nil
}

// Create inserts a new item. The restock threshold defaults to 1 when
// absent; a category reference is validated against the account before the
// insert and rejected with ErrCategoryNotOwned if it does not resolve.
func (r *itemRepository) Create(ctx context.Context, accountID uuid.UUID, params CreateItemParams) (*domain.Item, error) {
	if params.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	if params.CategoryID != nil {
		if err := r.checkCategoryOwnership(ctx, accountID, *params.CategoryID); err != nil {
			return nil, err
		}
	}

	threshold := DefaultRestockThreshold
	if params.RestockThreshold != nil {
		threshold = *params.RestockThreshold
	}

	itemID := uuid.New()
	query := `
		INSERT INTO items (id, account_id, name, quantity, restock_threshold, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query, itemID, accountID, params.Name, params.Quantity, threshold, params.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return r.FindByID(ctx, accountID, itemID)
}

// Update applies a merge-patch in a single statement; unset fields retain
// their stored values. An explicit negative quantity is rejected, never
// clamped. Category changes are validated for ownership first.
func (r *itemRepository) Update(ctx context.Context, accountID, itemID uuid.UUID, params UpdateItemParams) (*domain.Item, error) {
	if params.Quantity != nil && *params.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	if params.CategoryID != nil {
		if err := r.checkCategoryOwnership(ctx, accountID, *params.CategoryID); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE items
		SET name = COALESCE($3::text, name),
		    quantity = COALESCE($4::int, quantity),
		    restock_threshold = COALESCE($5::int, restock_threshold),
		    category_id = CASE
		        WHEN $6::bool THEN NULL
		        WHEN $7::uuid IS NOT NULL THEN $7::uuid
		        ELSE category_id
		    END,
		    updated_at = NOW()
		WHERE account_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		accountID,
		itemID,
		params.Name,
		params.Quantity,
		params.RestockThreshold,
		params.ClearCategory,
		params.CategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrItemNotFound
	}

	return r.FindByID(ctx, accountID, itemID)
}

// Use decrements the quantity by one, floored at zero. The decrement is a
// single conditional statement, so two concurrent calls can never read the
// same stale quantity: the database serializes the row update and the
// quantity > 0 guard makes the floor atomic. At zero the call is a no-op
// that still returns the current item.
func (r *itemRepository) Use(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	query := `
		UPDATE items
		SET quantity = quantity - 1, updated_at = NOW()
		WHERE account_id = $1 AND id = $2 AND quantity > 0
	`

	if _, err := r.db.ExecContext(ctx, query, accountID, itemID); err != nil {
		return nil, fmt.Errorf("failed to use item: %w", err)
	}

	// Zero rows affected means either not found or already at zero;
	// the follow-up read distinguishes the two.
	return r.FindByID(ctx, accountID, itemID)
}

// Purchase increments the quantity by amount in a single atomic statement.
// A non-positive amount is a no-op that returns the current item unchanged.
func (r *itemRepository) Purchase(ctx context.Context, accountID, itemID uuid.UUID, amount int) (*domain.Item, error) {
	if amount <= 0 {
		return r.FindByID(ctx, accountID, itemID)
	}

	query := `
		UPDATE items
		SET quantity = quantity + $3, updated_at = NOW()
		WHERE account_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, accountID, itemID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to purchase item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrItemNotFound
	}

	return r.FindByID(ctx, accountID, itemID)
}

// Delete removes an item and returns the number of rows removed (0 or 1).
// The caller maps 0 to "not found".
func (r *itemRepository) Delete(ctx context.Context, accountID, itemID uuid.UUID) (int64, error) {
	query := `DELETE FROM items WHERE account_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, accountID, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *itemRepository) checkCategoryOwnership(ctx context.Context, accountID, categoryID uuid.UUID) error {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE account_id = $1 AND id = $2)`

	var owned bool
	if err := r.db.QueryRowContext(ctx, query, accountID, categoryID).Scan(&owned); err != nil {
		return fmt.Errorf("failed to check category ownership: %w", err)
	}
	if !owned {
		return ErrCategoryNotOwned
	}
	return nil
}
