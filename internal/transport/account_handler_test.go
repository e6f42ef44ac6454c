package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homestock/internal/domain"
	"homestock/internal/middleware"
	"homestock/internal/repository"
	"homestock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stubAccountService returns canned results
type stubAccountService struct {
	account *domain.Account
	token   string
	err     error
}

func (s *stubAccountService) Register(ctx context.Context, name, email, password string) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func (s *stubAccountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return s.token, s.account, nil
}

func (s *stubAccountService) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, s.err
}

func (s *stubAccountService) GetAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func newAccountTestServer(svc *stubAccountService) *chi.Mux {
	router := chi.NewRouter()
	handler := NewAccountHandler(svc, time.Hour, zap.NewNop())
	handler.RegisterRoutes(router, testAuth(uuid.New()))
	return router
}

func testAccount() *domain.Account {
	return &domain.Account{
		ID:    uuid.New(),
		Name:  "Robin",
		Email: "robin@example.com",
	}
}

func TestAccountHandler_LoginSetsSessionCookie(t *testing.T) {
	svc := &stubAccountService{account: testAccount(), token: "signed-token"}
	router := newAccountTestServer(svc)

	body, _ := json.Marshal(map[string]string{"email": "robin@example.com", "password": "password123"})
	req := httptest.NewRequest("POST", "/api/accounts/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if response.Token != "signed-token" {
		t.Errorf("Expected the token in the body, got %q", response.Token)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("Expected a session cookie on login")
	}
	if sessionCookie.Value != "signed-token" {
		t.Errorf("Session cookie carries %q, want the token", sessionCookie.Value)
	}
	if !sessionCookie.HttpOnly {
		t.Error("Session cookie must be httpOnly")
	}
}

func TestAccountHandler_LoginRejectsBadCredentials(t *testing.T) {
	svc := &stubAccountService{err: service.ErrInvalidCredentials}
	router := newAccountTestServer(svc)

	body, _ := json.Marshal(map[string]string{"email": "robin@example.com", "password": "wrong-password"})
	req := httptest.NewRequest("POST", "/api/accounts/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestAccountHandler_RegisterValidatesInput(t *testing.T) {
	svc := &stubAccountService{account: testAccount()}
	router := newAccountTestServer(svc)

	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{"valid", map[string]string{"name": "Robin", "email": "robin@example.com", "password": "password123"}, http.StatusCreated},
		{"short password", map[string]string{"name": "Robin", "email": "robin@example.com", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "Robin", "email": "not-an-email", "password": "password123"}, http.StatusBadRequest},
		{"missing name", map[string]string{"email": "robin@example.com", "password": "password123"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/api/accounts/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("Expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestAccountHandler_RegisterMapsDuplicateToConflict(t *testing.T) {
	svc := &stubAccountService{err: repository.ErrAccountAlreadyExists}
	router := newAccountTestServer(svc)

	body, _ := json.Marshal(map[string]string{"name": "Robin", "email": "robin@example.com", "password": "password123"})
	req := httptest.NewRequest("POST", "/api/accounts/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestAccountHandler_LogoutClearsCookie(t *testing.T) {
	svc := &stubAccountService{}
	router := newAccountTestServer(svc)

	req := httptest.NewRequest("POST", "/api/accounts/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("Expected the session cookie to be rewritten on logout")
	}
	if sessionCookie.Value != "" || sessionCookie.MaxAge >= 0 {
		t.Errorf("Logout should clear the cookie, got value=%q maxage=%d", sessionCookie.Value, sessionCookie.MaxAge)
	}
}

func TestAccountHandler_ProfileReturnsAccount(t *testing.T) {
	account := testAccount()
	svc := &stubAccountService{account: account}
	router := newAccountTestServer(svc)

	req := httptest.NewRequest("GET", "/api/accounts/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var profile AccountProfile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if profile.ID != account.ID.String() || profile.Email != account.Email {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}
