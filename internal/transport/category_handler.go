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

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateCategoryRequest represents a partial category update
type UpdateCategoryRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// DefaultCategoryColor applies when a category is created without a color
const DefaultCategoryColor = "#FFFFFF"

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(inventoryService service.InventoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/{categoryID}", h.Update)
		r.Delete("/{categoryID}", h.Delete)
	})
}

// List returns all categories owned by the authenticated account
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	categories, err := h.inventoryService.ListCategories(r.Context(), accountID)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// Create handles category creation
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Category creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	color := req.Color
	if color == "" {
		color = DefaultCategoryColor
	}

	category, err := h.inventoryService.CreateCategory(r.Context(), accountID, req.Name, color)
	if err != nil {
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// Update applies a partial update to a category
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req UpdateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Category update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.inventoryService.UpdateCategory(r.Context(), accountID, categoryID, repository.UpdateCategoryParams{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to update category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Delete removes a category. Items that referenced it survive with their
// category reference cleared.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := h.inventoryService.DeleteCategory(r.Context(), accountID, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to delete category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
