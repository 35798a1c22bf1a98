package repository_test

import (
	"context"
	"testing"

	"ctchen222/tictactoe/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(openDB(t))

	account := &repository.Account{Username: "alice"}
	require.NoError(t, repo.Create(ctx, account, "s3cret!"))
	assert.NotZero(t, account.ID)
	assert.NotEqual(t, "s3cret!", account.PasswordHash)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte("s3cret!")))

	err = repo.Create(ctx, &repository.Account{Username: "alice"}, "other")
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}
