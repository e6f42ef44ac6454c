package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"homestock/internal/database"
	"homestock/internal/domain"

	"github.com/google/uuid"
)

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo := NewAccountRepository(testDB)
	ctx := context.Background()

	account := &domain.Account{
		ID:           uuid.New(),
		Name:         "Robin",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	byEmail, err := repo.FindByEmail(ctx, account.Email)
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if byEmail.ID != account.ID || byEmail.Name != "Robin" {
		t.Errorf("FindByEmail returned the wrong account: %+v", byEmail)
	}

	byID, err := repo.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID.Email != account.Email {
		t.Errorf("FindByID returned the wrong account: %+v", byID)
	}
}

func TestAccountRepository_DuplicateEmailMapsToSentinel(t *testing.T) {
	repo := NewAccountRepository(testDB)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	first := &domain.Account{
		ID:           uuid.New(),
		Name:         "First",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := &domain.Account{
		ID:           uuid.New(),
		Name:         "Second",
		Email:        email,
		PasswordHash: "other-hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrAccountAlreadyExists) {
		t.Fatalf("Expected ErrAccountAlreadyExists, got %v", err)
	}
}

func TestAccountRepository_MissingAccountsMapToSentinel(t *testing.T) {
	repo := NewAccountRepository(testDB)
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound by email, got %v", err)
	}
	if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound by id, got %v", err)
	}
}

func TestMigrationStatusReadsCleanly(t *testing.T) {
	if err := database.GetMigrationStatus(testDB); err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
}
