package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category groups items for presentation. The color is a hex string
// ("#RRGGBB"); invalid values are tolerated and degrade to a default text
// color at render time.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AccountID uuid.UUID `json:"-" db:"account_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Item is a tracked household good. Quantity is never negative; the restock
// threshold has no lower bound (0 disables restock alerts).
type Item struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	AccountID        uuid.UUID  `json:"-" db:"account_id"`
	Name             string     `json:"name" db:"name"`
	Quantity         int        `json:"quantity" db:"quantity"`
	RestockThreshold int        `json:"restock_threshold" db:"restock_threshold"`
	CategoryID       *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	Category         *Category  `json:"category,omitempty"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// CategoryGroup is a category together with its items and the text color
// computed for its background. Derived, never persisted.
type CategoryGroup struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	TextColor string    `json:"text_color"`
	Items     []Item    `json:"items"`
}

// GroupedInventory partitions an account's items into per-category groups
// (sorted by category name) plus an uncategorized bucket.
type GroupedInventory struct {
	Categories    []CategoryGroup `json:"categorized"`
	Uncategorized []Item          `json:"uncategorized"`
}

// Notification flags an item below its restock threshold. Recomputed on
// every request, never stored.
type Notification struct {
	ItemName string `json:"item_name"`
	Message  string `json:"message"`
}
