// Package books provides database operations for the catalogue.
package books

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

var ErrUnknownReference = errors.New("unknown reference")

// Links are the related records of a book addressed by id.
type Links struct {
	AuthorIDs   []uint
	GenreIDs    []uint
	PublisherID *uint
}

type Repository struct {
	*crud.Repository[entities.Book, *entities.Book]
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: crud.New[entities.Book](db), db: db}
}

var detailPreloads = []string{"Authors", "Genres", "Publisher"}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Book, error) {
	return r.Find(ctx, id, detailPreloads...)
}

// ListAll returns every book, pending ones first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Book, error) {
	return r.List(ctx, crud.Query{PendingFirst: true, Preloads: detailPreloads})
}

func (r *Repository) Pending(ctx context.Context) ([]entities.Book, error) {
	return r.List(ctx, crud.Query{
		Conds:    []crud.Cond{crud.Eq("status", entities.BookStatusPending)},
		Preloads: detailPreloads,
	})
}

// Random picks any enabled book.
func (r *Repository) Random(ctx context.Context) (*entities.Book, error) {
	n, err := r.Count(ctx, crud.NotDisabled())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, crud.ErrNotFound
	}
	var book entities.Book
	err = r.db.WithContext(ctx).
		Preload("Authors").Preload("Genres").
		Where("disabled = ?", false).
		Order("id").
		Offset(rand.IntN(int(n))).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, crud.ErrNotFound
	}
	return &book, err
}

func (r *Repository) Authors(ctx context.Context, bookID uint) ([]entities.Author, error) {
	authors := []entities.Author{}
	err := r.db.WithContext(ctx).
		Joins("JOIN author_books ON author_books.author_id = authors.id").
		Where("author_books.book_id = ?", bookID).
		Order("authors.name").
		Find(&authors).Error
	return authors, err
}

// ByAuthor lists the enabled books written by authorID.
func (r *Repository) ByAuthor(ctx context.Context, authorID uint) ([]entities.Book, error) {
	books := []entities.Book{}
	err := r.db.WithContext(ctx).
		Joins("JOIN author_books ON author_books.book_id = books.id").
		Where("author_books.author_id = ? AND books.disabled = ?", authorID, false).
		Order("books.title").
		Find(&books).Error
	return books, err
}

// CreateWithLinks inserts book and its author, genre and publisher links.
// Unknown ids fail with ErrUnknownReference before anything is written.
func (r *Repository) CreateWithLinks(ctx context.Context, book *entities.Book, links Links, actor *uint) error {
	book.MarkCreated(actor)
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := resolveLinks(tx, book, links); err != nil {
			return err
		}
		return tx.Omit("Authors.*", "Genres.*", "Publisher").Create(book).Error
	})
}

// Replace updates columns and swaps every link of book.
func (r *Repository) Replace(ctx context.Context, book *entities.Book, changes map[string]interface{}, links Links, actor *uint) error {
	book.MarkModified(actor)
	values := map[string]interface{}{"modified_by": actor}
	for k, v := range changes {
		values[k] = v
	}
	values["publisher_id"] = links.PublisherID

	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := resolveLinks(tx, book, links); err != nil {
			return err
		}
		if err := tx.Model(book).Omit("Authors", "Genres", "Publisher").Updates(values).Error; err != nil {
			return err
		}
		if err := tx.Model(book).Association("Authors").Replace(book.Authors); err != nil {
			return err
		}
		if err := tx.Model(book).Association("Genres").Replace(book.Genres); err != nil {
			return err
		}
		return tx.Preload("Authors").Preload("Genres").Preload("Publisher").First(book).Error
	})
}

func (r *Repository) SetCover(ctx context.Context, book *entities.Book, url string, actor *uint) error {
	return r.Update(ctx, book, map[string]interface{}{"cover": url}, actor)
}

func resolveLinks(tx *gorm.DB, book *entities.Book, links Links) error {
	authorIDs := unique(links.AuthorIDs)
	var authors []*entities.Author
	if len(authorIDs) > 0 {
		if err := tx.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
			return err
		}
	}
	if len(authors) != len(authorIDs) {
		return fmt.Errorf("%w: author", ErrUnknownReference)
	}

	genreIDs := unique(links.GenreIDs)
	var genres []*entities.Genre
	if len(genreIDs) > 0 {
		if err := tx.Where("id IN ?", genreIDs).Find(&genres).Error; err != nil {
			return err
		}
	}
	if len(genres) != len(genreIDs) {
		return fmt.Errorf("%w: genre", ErrUnknownReference)
	}

	if links.PublisherID != nil {
		var n int64
		if err := tx.Model(&entities.Publisher{}).Where("id = ?", *links.PublisherID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: publisher", ErrUnknownReference)
		}
	}

	book.Authors = authors
	book.Genres = genres
	book.PublisherID = links.PublisherID
	return nil
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
