package repository

//go:generate mockgen -source=account_repository.go -destination=mocks/account_repository.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	Create(ctx context.Context, account *Account, password string) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
}

type sqliteAccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new SQLite-based AccountRepository.
func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &sqliteAccountRepository{db: db}
}

// Create hashes the password and inserts a new account into the database.
func (r *sqliteAccountRepository) Create(ctx context.Context, account *Account, password string) error {
	ctx, span := tracer.Start(ctx, "AccountRepository.Create")
	defer span.End()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hashedPassword)

	query := `INSERT INTO accounts (username, password_hash) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, account.Username, account.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameTaken
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create account: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		account.ID = id
	}
	return nil
}

// FindByUsername returns ErrAccountNotFound for unknown usernames.
func (r *sqliteAccountRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	ctx, span := tracer.Start(ctx, "AccountRepository.FindByUsername")
	defer span.End()

	var account Account
	query := `SELECT id, username, password_hash FROM accounts WHERE username = ?`
	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}
	return &account, nil
}
