// Package booklists provides database operations for user book lists.
package booklists

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

type Repository struct {
	*crud.Repository[entities.BookList, *entities.BookList]
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: crud.New[entities.BookList](db), db: db}
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.BookList, error) {
	return r.Find(ctx, id, "Books")
}

func (r *Repository) ForUser(ctx context.Context, userID uint) ([]entities.BookList, error) {
	return r.List(ctx, crud.Query{
		Conds:    []crud.Cond{crud.Eq("user_id", userID), crud.NotDisabled()},
		Preloads: []string{"Books"},
	})
}

func (r *Repository) AddBook(ctx context.Context, list *entities.BookList, book *entities.Book, actor *uint) error {
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(list).Association("Books").Append(book); err != nil {
			return err
		}
		return touch(tx, list, actor)
	})
}

func (r *Repository) RemoveBook(ctx context.Context, list *entities.BookList, book *entities.Book, actor *uint) error {
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(list).Association("Books").Delete(book); err != nil {
			return err
		}
		return touch(tx, list, actor)
	})
}

// Disable soft-deletes list and drops all of its book associations in one
// transaction.
func (r *Repository) Disable(ctx context.Context, list *entities.BookList, actor *uint) error {
	err := crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(list).Association("Books").Clear(); err != nil {
			return err
		}
		return r.Repository.WithTx(tx).Disable(ctx, list, actor)
	})
	if err != nil {
		return err
	}
	list.Books = []*entities.Book{}
	return nil
}

func touch(tx *gorm.DB, list *entities.BookList, actor *uint) error {
	list.MarkModified(actor)
	return tx.Model(list).Update("modified_by", actor).Error
}
