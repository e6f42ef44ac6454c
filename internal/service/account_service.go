package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homestock/internal/domain"
	"homestock/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultSessionExpiry applies when the configured expiry is missing
	DefaultSessionExpiry = 72 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
)

// AccountService defines the interface for account business logic
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (token string, account *domain.Account, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
}

// Claims represents the session token claims
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	jwt.RegisteredClaims
}

type accountService struct {
	accountRepo   repository.AccountRepository
	jwtSecret     string
	sessionExpiry time.Duration
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(accountRepo repository.AccountRepository, jwtSecret string, sessionExpiry time.Duration) AccountService {
	if sessionExpiry <= 0 {
		sessionExpiry = DefaultSessionExpiry
	}
	return &accountService{
		accountRepo:   accountRepo,
		jwtSecret:     jwtSecret,
		sessionExpiry: sessionExpiry,
	}
}

// Register creates a new account with a hashed password
func (s *accountService) Register(ctx context.Context, name, email, password string) (*domain.Account, error) {
	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrAccountAlreadyExists
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedBytes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Login authenticates an account and returns a signed session token. The
// same token serves as the "session" cookie for the web UI and as a bearer
// token on the API.
func (s *accountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateSessionToken(account)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return token, account, nil
}

// ValidateToken validates a session token and returns its claims
func (s *accountService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetAccountByID retrieves an account by ID
func (s *accountService) GetAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) generateSessionToken(account *domain.Account) (string, error) {
	expirationTime := time.Now().Add(s.sessionExpiry)
	claims := &Claims{
		AccountID: account.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
