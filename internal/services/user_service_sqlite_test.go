package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/database"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/repository"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/services"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteService(t *testing.T) *services.UserService {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		database.Close(db)
	})
	return services.NewUserService(repository.NewUserRepository(db), 10*time.Second)
}

func TestSQLite_Lifecycle(t *testing.T) {
	svc := setupSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validation.Input{Name: "Ann", Email: "Ann@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", created.Email)

	_, err = svc.Create(ctx, validation.Input{Name: "Bob", Email: "ann@example.com"})
	assert.ErrorIs(t, err, services.ErrEmailConflict)

	updated, err := svc.Update(ctx, idOf(created), validation.Input{Name: "Ann Lee", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", updated.Name)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	id, err := svc.Delete(ctx, idOf(created))
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = svc.Get(ctx, idOf(created))
	assert.ErrorIs(t, err, services.ErrNotFound)
}

// Concurrent creates with one email must leave exactly one record, whichever
// step (pre-check or unique index) rejects the others.
func TestSQLite_ConcurrentCreateSameEmail(t *testing.T) {
	svc := setupSQLiteService(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, validation.Input{Name: "Racer", Email: "race@example.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, services.ErrEmailConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
