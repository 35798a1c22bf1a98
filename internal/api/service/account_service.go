package service

import (
	"context"
	"errors"
	"strconv"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AccountService defines the interface for account-related business logic.
type AccountService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (*models.LoginResponse, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
	tokens      *TokenManager
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo repository.AccountRepository, tokens *TokenManager) AccountService {
	return &accountService{accountRepo: accountRepo, tokens: tokens}
}

// Register creates an account. Taken usernames yield repository.ErrUsernameTaken.
func (s *accountService) Register(ctx context.Context, req *models.RegisterRequest) error {
	_, err := s.accountRepo.FindByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return repository.ErrUsernameTaken
	case !errors.Is(err, repository.ErrAccountNotFound):
		return err
	}

	return s.accountRepo.Create(ctx, &repository.Account{Username: req.Username}, req.Password)
}

// Login checks the password and returns a token on success.
func (s *accountService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.accountRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	playerID := "account-" + strconv.FormatInt(account.ID, 10)
	token, err := s.tokens.Issue(Identity{PlayerID: playerID, Username: account.Username})
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, PlayerID: playerID}, nil
}

// GuestLogin generates a UUID for a guest player and a token carrying it.
func (s *accountService) GuestLogin(ctx context.Context) (*models.LoginResponse, error) {
	playerID := uuid.New().String()
	token, err := s.tokens.Issue(Identity{PlayerID: playerID, Guest: true})
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, PlayerID: playerID}, nil
}
