// Package notifications stores friendship and review notifications.
package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

type Repository struct {
	*crud.Repository[entities.Notification, *entities.Notification]
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: crud.New[entities.Notification](db), db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Repository: r.Repository.WithTx(tx), db: tx}
}

// ForUser lists the enabled notifications addressed to userID, newest first.
func (r *Repository) ForUser(ctx context.Context, userID uint) ([]entities.Notification, error) {
	return r.List(ctx, crud.Query{
		Conds:   []crud.Cond{crud.Eq("user_id", userID), crud.NotDisabled()},
		OrderBy: "created_at",
		Desc:    true,
	})
}

// NotifyMany inserts one notification per recipient in a single transaction.
func (r *Repository) NotifyMany(ctx context.Context, kind entities.NotificationType, recipients []uint, friendID, bookID *uint) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}
	rows := make([]entities.Notification, 0, len(recipients))
	for _, id := range recipients {
		n := entities.Notification{NotificationType: kind, UserID: id, FriendID: friendID, BookID: bookID}
		n.MarkCreated(friendID)
		rows = append(rows, n)
	}
	err := crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
