package transport

import (
	"errors"
	"net/http"
	"time"

	"homestock/internal/middleware"
	"homestock/internal/repository"
	"homestock/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token   string         `json:"token"`
	Account AccountProfile `json:"account"`
}

// AccountProfile represents account profile data
type AccountProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	sessionExpiry  time.Duration
	logger         *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService service.AccountService, sessionExpiry time.Duration, logger *zap.Logger) *AccountHandler {
	if sessionExpiry <= 0 {
		sessionExpiry = service.DefaultSessionExpiry
	}
	return &AccountHandler{
		accountService: accountService,
		sessionExpiry:  sessionExpiry,
		logger:         logger,
	}
}

// RegisterRoutes registers all account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/accounts", func(r chi.Router) {
		// Public routes
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/profile", h.GetProfile)
		})
	})
}

// Register handles account registration
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accountService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrAccountAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "account with this email already exists")
			return
		}

		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register account")
		return
	}

	h.logger.Info("Account registered", zap.String("account_id", account.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, AccountProfile{
		ID:    account.ID.String(),
		Name:  account.Name,
		Email: account.Email,
	})
}

// Login authenticates an account. The session token is returned in the body
// for API clients and set as an httpOnly cookie for the web UI.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, account, err := h.accountService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.setSessionCookie(w, token)

	h.logger.Info("Account logged in", zap.String("account_id", account.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Account: AccountProfile{
			ID:    account.ID.String(),
			Name:  account.Name,
			Email: account.Email,
		},
	})
}

// Logout clears the session cookie. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// GetProfile returns the authenticated account's profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	account, err := h.accountService.GetAccountByID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "account not found")
			return
		}

		h.logger.Error("Failed to get account profile", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get account profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, AccountProfile{
		ID:    account.ID.String(),
		Name:  account.Name,
		Email: account.Email,
	})
}

func (h *AccountHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
