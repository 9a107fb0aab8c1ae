package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclub/internal/database/dbtest"
	"github.com/mrlokans/bookclub/internal/entities"
)

func TestRepository_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewRepository(db)
	now := time.Now()

	user := &entities.User{Email: "t@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, repo.Store(ctx, "live", user.ID, now.Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, "other", user.ID, now.Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, "stale", user.ID, now.Add(-time.Hour)))

	tests := []struct {
		hash string
		want bool
	}{
		{"live", true},
		{"stale", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		ok, err := repo.IsValid(ctx, tt.hash, now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, tt.hash)
	}

	require.NoError(t, repo.Invalidate(ctx, "live"))
	ok, err := repo.IsValid(ctx, "live", now)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.InvalidateForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n) // "other" and "stale" were still flagged valid

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
