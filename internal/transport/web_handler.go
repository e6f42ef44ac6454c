package transport

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"homestock/internal/domain"
	"homestock/internal/middleware"
	"homestock/internal/repository"
	"homestock/internal/service"
	"homestock/web"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GroupCookieName is the cookie holding the grouped-view preference. The
// grouped view is the default; the cookie only records an explicit choice.
const GroupCookieName = "group"

// WebHandler serves the server-rendered UI
type WebHandler struct {
	inventoryService service.InventoryService
	accountService   service.AccountService
	sessionExpiry    time.Duration
	basePath         string
	templates        *template.Template
	logger           *zap.Logger
}

// NewWebHandler creates a new WebHandler with the embedded templates parsed.
// basePath prefixes every rendered link and redirect target; empty means the
// app is served at the root.
func NewWebHandler(
	inventoryService service.InventoryService,
	accountService service.AccountService,
	sessionExpiry time.Duration,
	basePath string,
	logger *zap.Logger,
) *WebHandler {
	if sessionExpiry <= 0 {
		sessionExpiry = service.DefaultSessionExpiry
	}
	basePath = strings.TrimSuffix(basePath, "/")

	templates := template.Must(template.New("web").Funcs(template.FuncMap{
		"url": func(path string) string { return basePath + path },
	}).ParseFS(web.TemplatesFS, "templates/*.html"))

	return &WebHandler{
		inventoryService: inventoryService,
		accountService:   accountService,
		sessionExpiry:    sessionExpiry,
		basePath:         basePath,
		templates:        templates,
		logger:           logger,
	}
}

func (h *WebHandler) url(path string) string {
	return h.basePath + path
}

// RegisterRoutes registers all web routes
func (h *WebHandler) RegisterRoutes(r chi.Router, webAuthMiddleware func(http.Handler) http.Handler) {
	r.Route("/web", func(r chi.Router) {
		// Public routes
		r.Get("/login", h.LoginForm)
		r.Post("/login", h.Login)
		r.Get("/signup", h.SignupForm)
		r.Post("/signup", h.Signup)
		r.Post("/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(webAuthMiddleware)

			r.Get("/", h.Index)
			r.Post("/toggle-group", h.ToggleGroup)

			r.Get("/items/new", h.NewItemForm)
			r.Post("/items", h.CreateItem)
			r.Get("/items/{itemID}/edit", h.EditItemForm)
			r.Post("/items/{itemID}", h.UpdateItem)
			r.Post("/items/{itemID}/use", h.UseItem)
			r.Post("/items/{itemID}/purchase", h.PurchaseItem)
			r.Post("/items/{itemID}/delete", h.DeleteItem)

			r.Get("/categories/new", h.NewCategoryForm)
			r.Post("/categories", h.CreateCategory)
		})
	})
}

type indexData struct {
	Title         string
	Grouped       bool
	Inventory     *domain.GroupedInventory
	Items         []*domain.Item
	Notifications []domain.Notification
}

// Index renders the inventory, grouped by category unless the preference
// cookie says otherwise.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		http.Redirect(w, r, h.url("/web/login"), http.StatusSeeOther)
		return
	}

	data := indexData{
		Title:         "Inventory",
		Grouped:       groupedView(r),
		Notifications: h.inventoryService.Notifications(r.Context(), accountID),
	}

	var err error
	if data.Grouped {
		data.Inventory, err = h.inventoryService.GroupedInventory(r.Context(), accountID)
	} else {
		data.Items, err = h.inventoryService.ListItems(r.Context(), accountID)
	}
	if err != nil {
		h.logger.Error("Failed to load inventory page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, "index.html", data)
}

// ToggleGroup flips the grouped-view preference and returns to the index
func (h *WebHandler) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     GroupCookieName,
		Value:    strconv.FormatBool(!groupedView(r)),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

type itemFormData struct {
	Title      string
	Action     string
	Error      string
	Item       *domain.Item
	Categories []*domain.Category
}

// NewItemForm renders the add-item form
func (h *WebHandler) NewItemForm(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	categories, err := h.inventoryService.ListCategories(r.Context(), accountID)
	if err != nil {
		h.logger.Error("Failed to load categories for form", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, "item_form.html", itemFormData{
		Title:      "Add item",
		Action:     h.url("/web/items"),
		Categories: categories,
	})
}

// CreateItem handles the add-item form submission
func (h *WebHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	params, formErr := itemParamsFromForm(r)
	if formErr == "" {
		_, err := h.inventoryService.CreateItem(r.Context(), accountID, repository.CreateItemParams{
			Name:             *params.Name,
			Quantity:         *params.Quantity,
			RestockThreshold: params.RestockThreshold,
			CategoryID:       params.CategoryID,
		})
		if err != nil {
			formErr = itemErrorMessage(err)
			h.logger.Error("Failed to create item from form", zap.Error(err))
		}
	}

	if formErr != "" {
		categories, _ := h.inventoryService.ListCategories(r.Context(), accountID)
		h.render(w, "item_form.html", itemFormData{
			Title:      "Add item",
			Action:     h.url("/web/items"),
			Error:      formErr,
			Categories: categories,
		})
		return
	}

	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

// EditItemForm renders the edit form for an item
func (h *WebHandler) EditItemForm(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	item, err := h.inventoryService.GetItem(r.Context(), accountID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("Failed to load item for edit", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	categories, err := h.inventoryService.ListCategories(r.Context(), accountID)
	if err != nil {
		h.logger.Error("Failed to load categories for form", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, "item_form.html", itemFormData{
		Title:      "Edit item",
		Action:     h.url("/web/items/" + item.ID.String()),
		Item:       item,
		Categories: categories,
	})
}

// UpdateItem handles the edit form submission. The form always submits every
// field, so a missing category selection means "none", not "keep".
func (h *WebHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	params, formErr := itemParamsFromForm(r)
	if formErr == "" {
		if params.CategoryID == nil {
			params.ClearCategory = true
		}
		_, err := h.inventoryService.UpdateItem(r.Context(), accountID, itemID, params)
		if err != nil {
			formErr = itemErrorMessage(err)
			h.logger.Error("Failed to update item from form", zap.Error(err))
		}
	}

	if formErr != "" {
		item, getErr := h.inventoryService.GetItem(r.Context(), accountID, itemID)
		if getErr != nil {
			http.NotFound(w, r)
			return
		}
		categories, _ := h.inventoryService.ListCategories(r.Context(), accountID)
		h.render(w, "item_form.html", itemFormData{
			Title:      "Edit item",
			Action:     h.url("/web/items/" + itemID.String()),
			Error:      formErr,
			Item:       item,
			Categories: categories,
		})
		return
	}

	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

// UseItem consumes one unit and returns to the index
func (h *WebHandler) UseItem(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if _, err := h.inventoryService.UseItem(r.Context(), accountID, itemID); err != nil && !errors.Is(err, repository.ErrItemNotFound) {
		h.logger.Error("Failed to use item from form", zap.Error(err))
	}

	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

// PurchaseItem restocks an item and returns to the index
func (h *WebHandler) PurchaseItem(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	amount := 1
	if v, err := strconv.Atoi(r.FormValue("amount")); err == nil {
		amount = v
	}

	if _, err := h.inventoryService.PurchaseItem(r.Context(), accountID, itemID, amount); err != nil && !errors.Is(err, repository.ErrItemNotFound) {
		h.logger.Error("Failed to purchase item from form", zap.Error(err))
	}

	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

// DeleteItem removes an item and returns to the index
func (h *WebHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.inventoryService.DeleteItem(r.Context(), accountID, itemID); err != nil && !errors.Is(err, repository.ErrItemNotFound) {
		h.logger.Error("Failed to delete item from form", zap.Error(err))
	}

	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

type categoryFormData struct {
	Title string
	Error string
}

// NewCategoryForm renders the add-category form
func (h *WebHandler) NewCategoryForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "category_form.html", categoryFormData{Title: "Add category"})
}

// CreateCategory handles the add-category form submission
func (h *WebHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())

	name := r.FormValue("name")
	if name == "" {
		h.render(w, "category_form.html", categoryFormData{
			Title: "Add category",
			Error: "Name is required.",
		})
		return
	}

	color := r.FormValue("color")
	if color == "" {
		color = DefaultCategoryColor
	}

	if _, err := h.inventoryService.CreateCategory(r.Context(), accountID, name, color); err != nil {
		h.logger.Error("Failed to create category from form", zap.Error(err))
		h.render(w, "category_form.html", categoryFormData{
			Title: "Add category",
			Error: "Could not save the category.",
		})
		return
	}

	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

type authFormData struct {
	Title string
	Error string
}

// LoginForm renders the login page
func (h *WebHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", authFormData{Title: "Log in"})
}

// Login handles the login form submission
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	token, _, err := h.accountService.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		msg := "Could not log in."
		if errors.Is(err, service.ErrInvalidCredentials) {
			msg = "Invalid email or password."
		} else {
			h.logger.Error("Web login failed", zap.Error(err))
		}
		h.render(w, "login.html", authFormData{Title: "Log in", Error: msg})
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

// SignupForm renders the signup page
func (h *WebHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "signup.html", authFormData{Title: "Sign up"})
}

// Signup registers an account and logs it in
func (h *WebHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")

	if name == "" || email == "" || len(password) < 8 {
		h.render(w, "signup.html", authFormData{
			Title: "Sign up",
			Error: "All fields are required; the password needs at least 8 characters.",
		})
		return
	}

	if _, err := h.accountService.Register(r.Context(), name, email, password); err != nil {
		msg := "Could not create the account."
		if errors.Is(err, repository.ErrAccountAlreadyExists) {
			msg = "An account with this email already exists."
		} else {
			h.logger.Error("Web signup failed", zap.Error(err))
		}
		h.render(w, "signup.html", authFormData{Title: "Sign up", Error: msg})
		return
	}

	token, _, err := h.accountService.Login(r.Context(), email, password)
	if err != nil {
		http.Redirect(w, r, h.url("/web/login"), http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, h.url("/web"), http.StatusSeeOther)
}

// Logout clears the session cookie and returns to the login page
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.url("/web/login"), http.StatusSeeOther)
}

func (h *WebHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
	}
}

func (h *WebHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func groupedView(r *http.Request) bool {
	cookie, err := r.Cookie(GroupCookieName)
	if err != nil {
		return true
	}
	grouped, err := strconv.ParseBool(cookie.Value)
	if err != nil {
		return true
	}
	return grouped
}

// itemParamsFromForm parses the shared add/edit item form. All pointer
// fields are set on success; the string result is a user-facing error.
func itemParamsFromForm(r *http.Request) (repository.UpdateItemParams, string) {
	var params repository.UpdateItemParams

	name := r.FormValue("name")
	if name == "" {
		return params, "Name is required."
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil || quantity < 0 {
		return params, "Quantity must be a number of zero or more."
	}

	threshold, err := strconv.Atoi(r.FormValue("restock_threshold"))
	if err != nil || threshold < 0 {
		return params, "Restock threshold must be a number of zero or more."
	}

	params.Name = &name
	params.Quantity = &quantity
	params.RestockThreshold = &threshold

	if raw := r.FormValue("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return params, "Unknown category."
		}
		params.CategoryID = &categoryID
	}

	return params, ""
}

func itemErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		return "Item not found."
	case errors.Is(err, repository.ErrNegativeQuantity):
		return "Quantity must not be negative."
	case errors.Is(err, repository.ErrCategoryNotOwned):
		return "Unknown category."
	default:
		return "Could not save the item."
	}
}
