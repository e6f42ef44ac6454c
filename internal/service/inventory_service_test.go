package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"homestock/internal/domain"
	"homestock/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// In-memory repositories mirroring the storage semantics

type mockItemRepository struct {
	items map[uuid.UUID]map[uuid.UUID]*domain.Item // account id -> item id -> item
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: make(map[uuid.UUID]map[uuid.UUID]*domain.Item)}
}

func (m *mockItemRepository) accountItems(accountID uuid.UUID) map[uuid.UUID]*domain.Item {
	if m.items[accountID] == nil {
		m.items[accountID] = make(map[uuid.UUID]*domain.Item)
	}
	return m.items[accountID]
}

func (m *mockItemRepository) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	items := []*domain.Item{}
	for _, item := range m.accountItems(accountID) {
		copied := *item
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	item, ok := m.accountItems(accountID)[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *mockItemRepository) Create(ctx context.Context, accountID uuid.UUID, params repository.CreateItemParams) (*domain.Item, error) {
	if params.Quantity < 0 {
		return nil, repository.ErrNegativeQuantity
	}
	threshold := repository.DefaultRestockThreshold
	if params.RestockThreshold != nil {
		threshold = *params.RestockThreshold
	}
	item := &domain.Item{
		ID:               uuid.New(),
		AccountID:        accountID,
		Name:             params.Name,
		Quantity:         params.Quantity,
		RestockThreshold: threshold,
		CategoryID:       params.CategoryID,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	m.accountItems(accountID)[item.ID] = item
	copied := *item
	return &copied, nil
}

func (m *mockItemRepository) Update(ctx context.Context, accountID, itemID uuid.UUID, params repository.UpdateItemParams) (*domain.Item, error) {
	if params.Quantity != nil && *params.Quantity < 0 {
		return nil, repository.ErrNegativeQuantity
	}
	item, ok := m.accountItems(accountID)[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	if params.Name != nil {
		item.Name = *params.Name
	}
	if params.Quantity != nil {
		item.Quantity = *params.Quantity
	}
	if params.RestockThreshold != nil {
		item.RestockThreshold = *params.RestockThreshold
	}
	if params.ClearCategory {
		item.CategoryID = nil
	} else if params.CategoryID != nil {
		item.CategoryID = params.CategoryID
	}
	copied := *item
	return &copied, nil
}

func (m *mockItemRepository) Use(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	item, ok := m.accountItems(accountID)[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	if item.Quantity > 0 {
		item.Quantity--
	}
	copied := *item
	return &copied, nil
}

func (m *mockItemRepository) Purchase(ctx context.Context, accountID, itemID uuid.UUID, amount int) (*domain.Item, error) {
	item, ok := m.accountItems(accountID)[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	if amount > 0 {
		item.Quantity += amount
	}
	copied := *item
	return &copied, nil
}

func (m *mockItemRepository) Delete(ctx context.Context, accountID, itemID uuid.UUID) (int64, error) {
	if _, ok := m.accountItems(accountID)[itemID]; !ok {
		return 0, nil
	}
	delete(m.accountItems(accountID), itemID)
	return 1, nil
}

func (m *mockItemRepository) ListBelowThreshold(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	items := []*domain.Item{}
	for _, item := range m.accountItems(accountID) {
		if item.Quantity < item.RestockThreshold {
			copied := *item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]map[uuid.UUID]*domain.Category
	itemRepo   *mockItemRepository
}

func newMockCategoryRepository(itemRepo *mockItemRepository) *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[uuid.UUID]map[uuid.UUID]*domain.Category),
		itemRepo:   itemRepo,
	}
}

func (m *mockCategoryRepository) accountCategories(accountID uuid.UUID) map[uuid.UUID]*domain.Category {
	if m.categories[accountID] == nil {
		m.categories[accountID] = make(map[uuid.UUID]*domain.Category)
	}
	return m.categories[accountID]
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.accountCategories(category.AccountID)[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, category := range m.accountCategories(accountID) {
		copied := *category
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, accountID, categoryID uuid.UUID) (*domain.Category, error) {
	category, ok := m.accountCategories(accountID)[categoryID]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, accountID, categoryID uuid.UUID, params repository.UpdateCategoryParams) (*domain.Category, error) {
	category, ok := m.accountCategories(accountID)[categoryID]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	if params.Name != nil {
		category.Name = *params.Name
	}
	if params.Color != nil {
		category.Color = *params.Color
	}
	copied := *category
	return &copied, nil
}

// Delete mirrors the ON DELETE SET NULL schema behavior
func (m *mockCategoryRepository) Delete(ctx context.Context, accountID, categoryID uuid.UUID) (int64, error) {
	if _, ok := m.accountCategories(accountID)[categoryID]; !ok {
		return 0, nil
	}
	delete(m.accountCategories(accountID), categoryID)
	if m.itemRepo != nil {
		for _, item := range m.itemRepo.accountItems(accountID) {
			if item.CategoryID != nil && *item.CategoryID == categoryID {
				item.CategoryID = nil
				item.Category = nil
			}
		}
	}
	return 1, nil
}

// failingItemRepository errors on every call
type failingItemRepository struct{}

func (f *failingItemRepository) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}
func (f *failingItemRepository) FindByID(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}
func (f *failingItemRepository) Create(ctx context.Context, accountID uuid.UUID, params repository.CreateItemParams) (*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}
func (f *failingItemRepository) Update(ctx context.Context, accountID, itemID uuid.UUID, params repository.UpdateItemParams) (*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}
func (f *failingItemRepository) Use(ctx context.Context, accountID, itemID uuid.UUID) (*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}
func (f *failingItemRepository) Purchase(ctx context.Context, accountID, itemID uuid.UUID, amount int) (*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}
func (f *failingItemRepository) Delete(ctx context.Context, accountID, itemID uuid.UUID) (int64, error) {
	return 0, errors.New("storage unavailable")
}
func (f *failingItemRepository) ListBelowThreshold(ctx context.Context, accountID uuid.UUID) ([]*domain.Item, error) {
	return nil, errors.New("storage unavailable")
}

func newTestInventoryService() (InventoryService, *mockItemRepository, *mockCategoryRepository) {
	itemRepo := newMockItemRepository()
	categoryRepo := newMockCategoryRepository(itemRepo)
	logger := zap.NewNop()
	return NewInventoryService(itemRepo, categoryRepo, logger), itemRepo, categoryRepo
}

func TestProperty_UseNeverDropsQuantityBelowZero(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated use floors at zero and stays idempotent there", prop.ForAll(
		func(initial int, uses int) bool {
			svc, _, _ := newTestInventoryService()
			ctx := context.Background()
			accountID := uuid.New()

			item, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
				Name:     "Paper towels",
				Quantity: initial,
			})
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			var last *domain.Item
			for i := 0; i < uses; i++ {
				last, err = svc.UseItem(ctx, accountID, item.ID)
				if err != nil {
					t.Logf("FAIL: Use failed: %v", err)
					return false
				}
				if last.Quantity < 0 {
					t.Logf("FAIL: Quantity went negative: %d", last.Quantity)
					return false
				}
			}

			expected := initial - uses
			if expected < 0 {
				expected = 0
			}
			if last != nil && last.Quantity != expected {
				t.Logf("FAIL: Expected quantity %d, got %d", expected, last.Quantity)
				return false
			}

			return true
		},
		gen.IntRange(0, 20),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PurchaseAddsAmountAndIgnoresNonPositive(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("purchase adds positive amounts and ignores the rest", prop.ForAll(
		func(initial int, amount int) bool {
			svc, _, _ := newTestInventoryService()
			ctx := context.Background()
			accountID := uuid.New()

			item, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
				Name:     "Coffee",
				Quantity: initial,
			})
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			updated, err := svc.PurchaseItem(ctx, accountID, item.ID, amount)
			if err != nil {
				t.Logf("FAIL: Purchase failed: %v", err)
				return false
			}

			expected := initial
			if amount > 0 {
				expected += amount
			}
			if updated.Quantity != expected {
				t.Logf("FAIL: Expected quantity %d, got %d", expected, updated.Quantity)
				return false
			}

			return true
		},
		gen.IntRange(0, 50),
		gen.IntRange(-10, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_NotificationsUseStrictThresholdComparison(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("an item alerts exactly when quantity < threshold", prop.ForAll(
		func(quantity int, threshold int) bool {
			svc, _, _ := newTestInventoryService()
			ctx := context.Background()
			accountID := uuid.New()

			_, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
				Name:             "Dish soap",
				Quantity:         quantity,
				RestockThreshold: &threshold,
			})
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			notifications := svc.Notifications(ctx, accountID)

			if quantity < threshold {
				return len(notifications) == 1 &&
					notifications[0].ItemName == "Dish soap" &&
					strings.Contains(notifications[0].Message, "needs restocking")
			}
			return len(notifications) == 0
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNotifications_FailOpenOnStorageError(t *testing.T) {
	svc := NewInventoryService(&failingItemRepository{}, newMockCategoryRepository(nil), zap.NewNop())

	notifications := svc.Notifications(context.Background(), uuid.New())

	if notifications == nil {
		t.Fatal("Expected an empty slice, got nil")
	}
	if len(notifications) != 0 {
		t.Fatalf("Expected no notifications on storage error, got %d", len(notifications))
	}
}

func TestNotificationMessageFormat(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()
	accountID := uuid.New()

	threshold := 3
	_, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
		Name:             "Trash bags",
		Quantity:         1,
		RestockThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	notifications := svc.Notifications(ctx, accountID)
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}

	want := "Item 'Trash bags' needs restocking. Current: 1, Threshold: 3."
	if notifications[0].Message != want {
		t.Errorf("Unexpected message:\n got %q\nwant %q", notifications[0].Message, want)
	}
}

func TestCreateItem_DefaultsRestockThresholdToOne(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()
	accountID := uuid.New()

	item, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
		Name:     "Sponges",
		Quantity: 5,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if item.RestockThreshold != 1 {
		t.Errorf("Expected default threshold 1, got %d", item.RestockThreshold)
	}
}

func TestUpdateItem_RejectsNegativeQuantity(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()
	accountID := uuid.New()

	item, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
		Name:     "Rice",
		Quantity: 4,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	negative := -1
	_, err = svc.UpdateItem(ctx, accountID, item.ID, repository.UpdateItemParams{Quantity: &negative})
	if !errors.Is(err, repository.ErrNegativeQuantity) {
		t.Fatalf("Expected ErrNegativeQuantity, got %v", err)
	}

	// Quantity must remain untouched, not clamped
	got, err := svc.GetItem(ctx, accountID, item.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Quantity != 4 {
		t.Errorf("Expected quantity unchanged at 4, got %d", got.Quantity)
	}
}

func TestDeleteItem_MapsMissingToNotFound(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()

	err := svc.DeleteItem(ctx, uuid.New(), uuid.New())
	if !errors.Is(err, repository.ErrItemNotFound) {
		t.Fatalf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestDeleteCategory_ItemsSurviveWithoutCategory(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()
	accountID := uuid.New()

	cat, err := svc.CreateCategory(ctx, accountID, "Bathroom", "#AABBCC")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	item, err := svc.CreateItem(ctx, accountID, repository.CreateItemParams{
		Name:       "Toothpaste",
		Quantity:   2,
		CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if err := svc.DeleteCategory(ctx, accountID, cat.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	got, err := svc.GetItem(ctx, accountID, item.ID)
	if err != nil {
		t.Fatalf("Item should survive category deletion: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("Expected the category reference to be cleared, got %v", got.CategoryID)
	}
}

func TestInventory_CrossAccountIsolation(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	item, err := svc.CreateItem(ctx, alice, repository.CreateItemParams{
		Name:     "Detergent",
		Quantity: 3,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.GetItem(ctx, bob, item.ID); !errors.Is(err, repository.ErrItemNotFound) {
		t.Errorf("Expected not found for another account, got %v", err)
	}
	if _, err := svc.UseItem(ctx, bob, item.ID); !errors.Is(err, repository.ErrItemNotFound) {
		t.Errorf("Expected use to fail for another account, got %v", err)
	}
	if err := svc.DeleteItem(ctx, bob, item.ID); !errors.Is(err, repository.ErrItemNotFound) {
		t.Errorf("Expected delete to fail for another account, got %v", err)
	}

	items, err := svc.ListItems(ctx, bob)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty list for another account, got %d items", len(items))
	}
}

func TestGroupedInventory_SeedsEmptyGroups(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	ctx := context.Background()
	accountID := uuid.New()

	if _, err := svc.CreateCategory(ctx, accountID, "Freezer", "#0000FF"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	grouped, err := svc.GroupedInventory(ctx, accountID)
	if err != nil {
		t.Fatalf("GroupedInventory failed: %v", err)
	}

	if len(grouped.Categories) != 1 || grouped.Categories[0].Name != "Freezer" {
		t.Fatalf("Expected the empty Freezer group, got %+v", grouped.Categories)
	}
}
