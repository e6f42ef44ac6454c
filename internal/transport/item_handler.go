package transport

import (
	"errors"
	"net/http"

	"homestock/internal/middleware"
	"homestock/internal/repository"
	"homestock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateItemRequest represents the item creation payload
type CreateItemRequest struct {
	Name             string  `json:"name" validate:"required,min=1,max=255"`
	Quantity         int     `json:"quantity" validate:"gte=0"`
	RestockThreshold *int    `json:"restock_threshold"`
	CategoryID       *string `json:"category_id"`
}

// UpdateItemRequest represents a partial item update. Absent fields retain
// their stored values. category_id is tri-state: absent retains, the empty
// string clears, a uuid replaces.
type UpdateItemRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=255"`
	Quantity         *int    `json:"quantity"`
	RestockThreshold *int    `json:"restock_threshold"`
	CategoryID       *string `json:"category_id"`
}

// PurchaseRequest represents the restock payload. A missing amount defaults
// to one; a non-positive amount leaves the item unchanged.
type PurchaseRequest struct {
	Amount *int `json:"amount"`
}

// ItemHandler handles HTTP requests for inventory items
type ItemHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(inventoryService service.InventoryService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// RegisterRoutes registers all item routes
func (h *ItemHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/items", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/grouped", h.ListGrouped)
		r.Get("/{itemID}", h.Get)
		r.Patch("/{itemID}", h.Update)
		r.Delete("/{itemID}", h.Delete)
		r.Post("/{itemID}/use", h.Use)
		r.Post("/{itemID}/purchase", h.Purchase)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Notifications)
	})
}

// List returns all items owned by the authenticated account
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.inventoryService.ListItems(r.Context(), accountID)
	if err != nil {
		h.logger.Error("Failed to list items", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// ListGrouped returns the account's inventory partitioned by category
func (h *ItemHandler) ListGrouped(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	grouped, err := h.inventoryService.GroupedInventory(r.Context(), accountID)
	if err != nil {
		h.logger.Error("Failed to group items", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, grouped)
}

// Get returns a single item
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.inventoryService.GetItem(r.Context(), accountID, itemID)
	if err != nil {
		h.respondItemError(w, err, "failed to get item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Create handles item creation
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Item creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, _, err := parseCategoryRef(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	item, err := h.inventoryService.CreateItem(r.Context(), accountID, repository.CreateItemParams{
		Name:             req.Name,
		Quantity:         req.Quantity,
		RestockThreshold: req.RestockThreshold,
		CategoryID:       categoryID,
	})
	if err != nil {
		h.respondItemError(w, err, "failed to create item")
		return
	}

	h.logger.Info("Item created", zap.String("item_id", item.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// Update applies a partial update to an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Item update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, clearCategory, err := parseCategoryRef(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	item, err := h.inventoryService.UpdateItem(r.Context(), accountID, itemID, repository.UpdateItemParams{
		Name:             req.Name,
		Quantity:         req.Quantity,
		RestockThreshold: req.RestockThreshold,
		CategoryID:       categoryID,
		ClearCategory:    clearCategory,
	})
	if err != nil {
		h.respondItemError(w, err, "failed to update item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Use consumes one unit of an item. At zero quantity the item is returned
// unchanged.
func (h *ItemHandler) Use(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.inventoryService.UseItem(r.Context(), accountID, itemID)
	if err != nil {
		h.respondItemError(w, err, "failed to use item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Purchase restocks an item by the requested amount
func (h *ItemHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	amount := 1
	var req PurchaseRequest
	if err := middleware.DecodeAndValidate(r, &req); err == nil && req.Amount != nil {
		amount = *req.Amount
	}

	item, err := h.inventoryService.PurchaseItem(r.Context(), accountID, itemID, amount)
	if err != nil {
		h.respondItemError(w, err, "failed to purchase item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Delete removes an item
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.inventoryService.DeleteItem(r.Context(), accountID, itemID); err != nil {
		h.respondItemError(w, err, "failed to delete item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Notifications returns restock alerts for the authenticated account
func (h *ItemHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	notifications := h.inventoryService.Notifications(r.Context(), accountID)
	middleware.RespondWithJSON(w, http.StatusOK, notifications)
}

func (h *ItemHandler) respondItemError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, repository.ErrNegativeQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, "quantity must not be negative")
	case errors.Is(err, repository.ErrCategoryNotOwned):
		middleware.RespondWithError(w, http.StatusBadRequest, "unknown category")
	default:
		h.logger.Error("Item operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// parseCategoryRef interprets the wire form of a category reference: nil
// means "leave as is", the empty string means "none", anything else must be
// a category uuid.
func parseCategoryRef(ref *string) (categoryID *uuid.UUID, clear bool, err error) {
	if ref == nil {
		return nil, false, nil
	}
	if *ref == "" {
		return nil, true, nil
	}
	id, err := uuid.Parse(*ref)
	if err != nil {
		return nil, false, err
	}
	return &id, false, nil
}
