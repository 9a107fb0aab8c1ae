// Package reviews provides database operations for book reviews.
package reviews

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

type Repository struct {
	*crud.Repository[entities.Review, *entities.Review]
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: crud.New[entities.Review](db), db: db}
}

// ByBook lists enabled reviews of a book, newest first. limit <= 0 means all.
func (r *Repository) ByBook(ctx context.Context, bookID uint, limit int) ([]entities.Review, error) {
	return r.List(ctx, crud.Query{
		Conds:    []crud.Cond{crud.Eq("book_id", bookID), crud.NotDisabled()},
		OrderBy:  "created_at",
		Desc:     true,
		Limit:    limit,
		Preloads: []string{"User"},
	})
}

func (r *Repository) ByUser(ctx context.Context, userID uint) ([]entities.Review, error) {
	return r.List(ctx, crud.Query{
		Conds:    []crud.Cond{crud.Eq("user_id", userID), crud.NotDisabled()},
		OrderBy:  "created_at",
		Desc:     true,
		Preloads: []string{"Book"},
	})
}

// FriendsReviews lists enabled reviews written by the friends of userID.
func (r *Repository) FriendsReviews(ctx context.Context, userID uint) ([]entities.Review, error) {
	out := []entities.Review{}
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Book").
		Joins("JOIN friendships ON friendships.friend_id = reviews.user_id").
		Where("friendships.user_id = ? AND reviews.disabled = ?", userID, false).
		Order("reviews.created_at DESC").
		Find(&out).Error
	return out, err
}
