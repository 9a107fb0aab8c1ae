// Package tokens keeps the record of issued access tokens so they can be
// revoked before they expire.
package tokens

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Store records a freshly issued token by hash.
func (r *Repository) Store(ctx context.Context, hash string, userID uint, expiresAt time.Time) error {
	token := &entities.AccessToken{
		TokenHash: hash,
		UserID:    userID,
		Valid:     true,
		ExpiresAt: expiresAt,
	}
	token.MarkCreated(entities.Actor(userID))
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(token).Error
	})
}

// IsValid reports whether hash was issued, is unrevoked and unexpired.
func (r *Repository) IsValid(ctx context.Context, hash string, now time.Time) (bool, error) {
	var token entities.AccessToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return token.Valid && now.Before(token.ExpiresAt), nil
}

func (r *Repository) Invalidate(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Model(&entities.AccessToken{}).
		Where("token_hash = ?", hash).
		Update("valid", false).Error
}

// InvalidateForUser revokes every token of userID and returns how many.
func (r *Repository) InvalidateForUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entities.AccessToken{}).
		Where("user_id = ? AND valid = ?", userID, true).
		Update("valid", false)
	return res.RowsAffected, res.Error
}

// DeleteExpired removes tokens past their expiry and returns how many.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&entities.AccessToken{})
	return res.RowsAffected, res.Error
}
