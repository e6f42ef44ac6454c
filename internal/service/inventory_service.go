package service

import (
	"context"
	"fmt"
	"time"

	"homestock/internal/domain"
	"homestock/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService defines the business operations over an account's
// inventory. Every method takes the authenticated account id explicitly;
// the service never reads it from ambient state.
type InventoryService interface {
	ListItems(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error)
	GetItem(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error)
	CreateItem(ctx context.Context, accountID uuid.UUID, params repository.CreateItemParams) (*domain.Item, error)
	UpdateItem(ctx context.Context, accountID, itemID uuid.UUID, params repository.UpdateItemParams) (*domain.Item, error)
	UseItem(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error)
	PurchaseItem(ctx context.Context, accountID, itemID uuid.UUID, amount int) (*domain.Item, error)
	DeleteItem(ctx context.Context, accountID, itemID uuid.UUID) error

	ListCategories(ctx context.Context, accountID uuid.UUID) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, accountID uuid.UUID, name, color string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, accountID, categoryID uuid.UUID, params repository.UpdateCategoryParams) (*domain.Category, error)
	DeleteCategory(ctx context.Context, accountID, categoryID uuid.UUID) error

	GroupedInventory(ctx context.Context, accountID uuid.UUID) (*domain.GroupedInventory, error)
	Notifications(ctx context.Context, accountID uuid.UUID) []domain.Notification
}

type inventoryService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	logger       *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

func (s *inventoryService) ListItems(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	return s.itemRepo.List(ctx, accountID)
}

func (s *inventoryService) GetItem(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	return s.itemRepo.FindByID(ctx, accountID, itemID)
}

func (s *inventoryService) CreateItem(ctx context.Context, accountID uuid.UUID, params repository.CreateItemParams) (*domain.Item, error) {
	return s.itemRepo.Create(ctx, accountID, params)
}

func (s *inventoryService) UpdateItem(ctx context.Context, accountID, itemID uuid.UUID, params repository.UpdateItemParams) (*domain.Item, error) {
	return s.itemRepo.Update(ctx, accountID, itemID, params)
}

func (s *inventoryService) UseItem(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	return s.itemRepo.Use(ctx, accountID, itemID)
}

func (s *inventoryService) PurchaseItem(ctx context.Context, accountID, itemID uuid.UUID, amount int) (*domain.Item, error) {
	return s.itemRepo.Purchase(ctx, accountID, itemID, amount)
}

// DeleteItem removes an item, mapping "nothing deleted" to not found.
func (s *inventoryService) DeleteItem(ctx context.Context, accountID, itemID uuid.UUID) error {
	rows, err := s.itemRepo.Delete(ctx, accountID, itemID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrItemNotFound
	}
	return nil
}

func (s *inventoryService) ListCategories(ctx context.Context, accountID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, accountID)
}

func (s *inventoryService) CreateCategory(ctx context.Context, accountID uuid.UUID, name, color string) (*domain.Category, error) {
	category := &domain.Category{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return s.categoryRepo.FindByID(ctx, accountID, category.ID)
}

func (s *inventoryService) UpdateCategory(ctx context.Context, accountID, categoryID uuid.UUID, params repository.UpdateCategoryParams) (*domain.Category, error) {
	return s.categoryRepo.Update(ctx, accountID, categoryID, params)
}

// DeleteCategory removes a category. Items referencing it keep existing
// with their category reference cleared by the storage layer.
func (s *inventoryService) DeleteCategory(ctx context.Context, accountID, categoryID uuid.UUID) error {
	rows, err := s.categoryRepo.Delete(ctx, accountID, categoryID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrCategoryNotFound
	}
	return nil
}

// GroupedInventory fetches items and categories and partitions them for
// presentation. Items arrive sorted by name, so group contents are ordered.
func (s *inventoryService) GroupedInventory(ctx context.Context, accountID uuid.UUID) (*domain.GroupedInventory, error) {
	items, err := s.itemRepo.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for grouping: %w", err)
	}

	categories, err := s.categoryRepo.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories for grouping: %w", err)
	}

	return GroupByCategory(items, categories), nil
}

// Notifications returns restock alerts for items below their threshold.
// Notifications are best-effort: a storage failure is logged and yields an
// empty slice, never an error, so a page render is never blocked by them.
func (s *inventoryService) Notifications(ctx context.Context, accountID uuid.UUID) []domain.Notification {
	items, err := s.itemRepo.ListBelowThreshold(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to load items below restock threshold",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
		return []domain.Notification{}
	}

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		notifications = append(notifications, domain.Notification{
			ItemName: item.Name,
			Message: fmt.Sprintf(
				"Item '%s' needs restocking. Current: %d, Threshold: %d.",
				item.Name, item.Quantity, item.RestockThreshold,
			),
		})
	}

	return notifications
}
