package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, &models.User{Email: " Bob@X.com", HashedPassword: "h", IsActive: true})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "bob@x.com", created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "BOB@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	name := "Robert"
	now := time.Now().UTC()
	updated, err := repo.Update(ctx, created.ID, models.UserPatch{FirstName: &name, LastLogin: &now})
	require.NoError(t, err)
	assert.Equal(t, "Robert", *updated.FirstName)
	assert.Equal(t, now, *updated.LastLogin)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", *byID.FirstName)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.GetByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), common.ErrorNotFound)

	_, err = repo.Update(ctx, created.ID, models.UserPatch{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Create(ctx, &models.User{Email: "a@x.com", HashedPassword: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{Email: "A@X.COM", HashedPassword: "h"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u, err := repo.Create(ctx, &models.User{Email: "a@x.com", HashedPassword: "h"})
	require.NoError(t, err)

	u.IsSuperuser = true
	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSuperuser)
}

func TestMemoryRepository_ConcurrentRegistrationOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &models.User{Email: "race@x.com", HashedPassword: "h"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, common.ErrorAlreadyExists) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)
}
